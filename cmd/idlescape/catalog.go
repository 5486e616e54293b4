package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuqie6/IdleScape/internal/gamedata"
	"github.com/yuqie6/IdleScape/internal/pkg/buildinfo"
	"github.com/yuqie6/IdleScape/internal/pkg/config"
)

const initDBWarning = `init-db rebuilds the activities, activity_options and items tables from the
game data file. Manual edits to those tables are lost. Characters, skills,
inventories and activity history are kept; the rebuild is refused if it would
remove an activity, option or item that a character still references.

Re-run with --yes to continue.`

func initDBCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:         "init-db",
		Short:       "Rebuild the catalog tables from the game data file (destructive)",
		Long:        initDBWarning,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipSeed: "true"},
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprintln(a.out, initDBWarning)
				return userErrorf("init-db needs --yes")
			}
			res, err := a.core.Services.Catalog.Reseed(cmd.Context(), a.core.Data)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Catalog loaded from %s: %d activities, %d options, %d items (digest %s)\n",
				a.core.Data.Source, res.Activities, res.Options, res.Items, shortDigest(res.Digest))
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the destructive rebuild")

	return cmd
}

func catalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Game data file tools",
	}
	cmd.AddCommand(catalogValidateCmd(a))
	return cmd
}

func catalogValidateCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:         "validate [file]",
		Short:       "Validate a game data file (embedded data when no file is given)",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoCore: "true"},
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else if cfg, err := config.Load(a.cfgFile); err == nil {
				path = cfg.Game.DataPath
			}

			data, err := gamedata.Load(path)
			printValidation(a.out, data, err)
			if !watch {
				if err != nil {
					return userErrorf("game data is invalid")
				}
				return nil
			}
			if path == "" {
				return userErrorf("--watch needs a file")
			}

			fmt.Fprintf(a.out, "watching %s (Ctrl+C to stop)\n", path)
			return gamedata.Watch(cmd.Context(), path, 300*time.Millisecond, func(d *gamedata.Data, err error) {
				printValidation(a.out, d, err)
			})
		}),
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-validate whenever the file changes")

	return cmd
}

func printValidation(w io.Writer, data *gamedata.Data, err error) {
	if err != nil {
		fmt.Fprintf(w, "INVALID: %v\n", err)
		return
	}
	fmt.Fprintf(w, "OK %s: %d activities, %d options, %d items, %d levels (digest %s)\n",
		data.Source, len(data.Activities), data.OptionCount(), len(data.Items),
		len(data.ExperienceTable), shortDigest(data.Digest))
}

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Write a default config file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoCore: "true"},
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteFile(path, config.Default(), force); err != nil {
				return userErrorf("%v", err)
			}
			fmt.Fprintf(a.out, "Wrote %s\n", path)
			return nil
		}),
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoCore: "true"},
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "idlescape %s (commit %s)\n", buildinfo.Version, buildinfo.Commit)
			return nil
		}),
	}
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
