package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func createCharacterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-character <name>",
		Short: "Create a new character",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			c, err := a.core.Services.Characters.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created Character: %s\n", c.Name)
			return nil
		}),
	}
}

func startActivityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start-activity <character> <activity> [option]",
		Short: "Start an activity, stopping and banking the current one first",
		Long: "Start an activity for a character. If the character is already busy the current\n" +
			"activity is stopped and its rewards are banked first. Without an option the\n" +
			"activity's first option is used.",
		Args: cobra.RangeArgs(2, 3),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			option := ""
			if len(args) == 3 {
				option = args[2]
			}
			res, err := a.core.Services.Activities.StartActivity(cmd.Context(), args[0], args[1], option)
			if err != nil {
				return err
			}
			if res.Stopped != nil {
				printStopResult(a.out, args[0], res.Stopped)
				fmt.Fprintln(a.out)
			}
			fmt.Fprintf(a.out, "%s started %s: %s (%ds per action, %d xp and 1 item each)\n",
				args[0], res.Session.Activity.Name, res.Session.Option.Name,
				res.Session.Option.ActionTime, res.Session.Option.RewardExperience)
			return nil
		}),
	}
}

func stopActivityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop-activity <character>",
		Short: "Stop the current activity and bank its rewards",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			res, err := a.core.Services.Activities.StopActivity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStopResult(a.out, args[0], res)
			return nil
		}),
	}
}

func showCharacterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show-character <name>",
		Short: "Show a character sheet: current activity, skills and inventory",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			sheet, err := a.core.Services.Characters.Sheet(cmd.Context(), args[0], now)
			if err != nil {
				return err
			}
			printSheet(a.out, sheet, now)
			return nil
		}),
	}
}

func listCharactersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-characters",
		Short: "List all characters",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			rows, err := a.core.Services.Characters.List(cmd.Context())
			if err != nil {
				return err
			}
			printCharacters(a.out, rows, time.Now())
			return nil
		}),
	}
}

func listActivitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-activities",
		Short: "List activities and their options",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			list, err := a.core.Services.Catalog.ListActivities(cmd.Context())
			if err != nil {
				return err
			}
			printCatalog(a.out, list)
			return nil
		}),
	}
}

func historyCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <character>",
		Short: "Show a character's activity sessions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				limit = a.core.Cfg.Game.HistoryLimit
			}
			sessions, err := a.core.Services.Activities.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printHistory(a.out, args[0], sessions, time.Now())
			return nil
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max sessions to show (default game.history_limit)")

	return cmd
}
