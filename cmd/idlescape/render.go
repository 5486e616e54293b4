package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yuqie6/IdleScape/internal/dto"
	"github.com/yuqie6/IdleScape/internal/service"
)

const divider = "═══════════════════════════════════════"

func printStopResult(w io.Writer, character string, res *service.StopResult) {
	item := "items"
	if res.Item != nil {
		item = res.Item.Name
	}
	fmt.Fprintf(w, "%s stopped %s: %s after %s\n",
		character, res.Session.Activity.Name, res.Session.Option.Name, dto.Clock(res.Elapsed))
	fmt.Fprintf(w, "  completed %s actions\n", dto.Count(res.Reward.Repetitions))
	fmt.Fprintf(w, "  +%s %s xp\n", dto.Count(res.Reward.Experience), res.Session.Activity.Name)
	fmt.Fprintf(w, "  +%s x %s\n", dto.Count(res.Reward.Items), item)
	if res.LeveledUp() {
		fmt.Fprintf(w, "  %s level up! %d -> %d\n", res.Session.Activity.Name, res.LevelBefore, res.LevelAfter)
	}
}

func printSheet(w io.Writer, sheet *dto.CharacterSheetDTO, now time.Time) {
	fmt.Fprintf(w, "%s (created %s)\n", sheet.Name, dto.Ago(sheet.CreatedAt, now))
	fmt.Fprintln(w, divider)

	if c := sheet.Current; c != nil {
		fmt.Fprintf(w, "\nCurrently: %s / %s for %s\n", c.Activity, c.Option, dto.Clock(c.Elapsed))
		fmt.Fprintf(w, "  pending: %s actions, %s xp, %s x %s\n",
			dto.Count(c.PendingReps), dto.Count(c.PendingXP), dto.Count(c.PendingReps), c.RewardItem)
		fmt.Fprintf(w, "  next action in %s\n", dto.Clock(c.NextRepIn))
	} else {
		fmt.Fprintln(w, "\nCurrently: idle")
	}

	fmt.Fprintln(w, "\nSkills")
	if len(sheet.Skills) == 0 {
		fmt.Fprintln(w, "  (none yet)")
	}
	for _, sk := range sheet.Skills {
		next := "max level"
		if sk.NextLevelXP > 0 {
			next = fmt.Sprintf("next level at %s xp", dto.Count(sk.NextLevelXP))
		}
		fmt.Fprintf(w, "  • %-12s level %2d  %s xp (%s)\n", sk.Activity, sk.Level, dto.Count(sk.Experience), next)
	}
	if len(sheet.Skills) > 1 {
		fmt.Fprintf(w, "  total: %s xp\n", dto.Count(sheet.TotalXP))
	}

	fmt.Fprintln(w, "\nInventory")
	if len(sheet.Inventory) == 0 {
		fmt.Fprintln(w, "  (empty)")
	}
	for _, it := range sheet.Inventory {
		fmt.Fprintf(w, "  • %-12s x %s\n", it.Item, dto.Count(it.Quantity))
	}
	fmt.Fprintln(w, "\n"+divider)
}

func printCharacters(w io.Writer, rows []dto.CharacterRowDTO, now time.Time) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No characters yet. Create one with 'idlescape create-character <name>'.")
		return
	}
	for _, r := range rows {
		status := "idle"
		if r.Busy {
			status = "busy"
		}
		fmt.Fprintf(w, "%-20s %-5s created %s\n", r.Name, status, dto.Ago(r.CreatedAt, now))
	}
}

func printCatalog(w io.Writer, list []dto.ActivityCatalogDTO) {
	for _, a := range list {
		fmt.Fprintf(w, "%s (%s)\n", a.Name, a.Type)
		for _, o := range a.Options {
			fmt.Fprintf(w, "  • %-10s %3ds  %3d xp  -> %s", o.Name, o.ActionSeconds, o.RewardExperience, o.RewardItem)
			if len(o.Requirements) > 0 {
				fmt.Fprintf(w, "  requires %s", strings.Join(o.Requirements, ", "))
			}
			if len(o.Costs) > 0 {
				fmt.Fprintf(w, "  uses %s", strings.Join(o.Costs, ", "))
			}
			fmt.Fprintln(w)
		}
	}
}

func printHistory(w io.Writer, character string, sessions []service.ActivitySession, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintf(w, "%s has not done anything yet.\n", character)
		return
	}
	for _, s := range sessions {
		if s.Row.EndedAt == nil {
			fmt.Fprintf(w, "%-12s %-10s started %s, still running\n",
				s.Activity.Name, s.Option.Name, dto.Ago(s.Row.StartedAt, now))
			continue
		}
		fmt.Fprintf(w, "%-12s %-10s %s, ran %s\n",
			s.Activity.Name, s.Option.Name, dto.Ago(s.Row.StartedAt, now), dto.Clock(s.Row.EndedAt.Sub(s.Row.StartedAt)))
	}
}
