package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yuqie6/IdleScape/internal/bootstrap"
	"github.com/yuqie6/IdleScape/internal/service"
)

const (
	exitUser  = 1
	exitFatal = 2
)

// app 命令共享的状态。Core 在 PersistentPreRunE 中按需创建，所有命令通过 app 拿依赖。
type app struct {
	cfgFile string
	core    *bootstrap.Core
	out     io.Writer
}

// userError CLI 层自己产生的、可以直接展示的错误
type userError struct{ msg string }

func (e *userError) Error() string { return e.msg }

func userErrorf(format string, args ...any) error {
	return &userError{msg: fmt.Sprintf(format, args...)}
}

// fatalError 完整性/配置/存储错误，退出码 2
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&app{})
	err := root.ExecuteContext(ctx)
	stop()
	os.Exit(report(root.ErrOrStderr(), err))
}

// report 打印错误并返回退出码
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var fatal *fatalError
	if errors.As(err, &fatal) {
		fmt.Fprintf(w, "fatal: %v\n", fatal.err)
		return exitFatal
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return exitUser
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "idlescape",
		Short:         "IdleScape - a persistent idle game played from the terminal",
		Long:          "Characters run long activities (mining, woodcutting, ...) and bank experience and items for the time spent.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			if cmd.Annotations[annotationNoCore] == "true" {
				return nil
			}
			core, err := bootstrap.NewCore(cmd.Context(), a.cfgFile, bootstrap.Options{
				SkipSeed: cmd.Annotations[annotationSkipSeed] == "true",
			})
			if err != nil {
				return &fatalError{err: err}
			}
			a.core = core
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (default ./config/config.yaml or ./config.yaml)")

	root.AddCommand(
		createCharacterCmd(a),
		startActivityCmd(a),
		stopActivityCmd(a),
		showCharacterCmd(a),
		listCharactersCmd(a),
		listActivitiesCmd(a),
		historyCmd(a),
		initDBCmd(a),
		catalogCmd(a),
		configCmd(a),
		versionCmd(a),
	)
	return root
}

const (
	annotationNoCore   = "idlescape/no-core"
	annotationSkipSeed = "idlescape/skip-seed"
)

func (a *app) close() error {
	if a.core == nil {
		return nil
	}
	err := a.core.Close()
	a.core = nil
	return err
}

// run 包装 RunE：执行完释放 Core，并把非玩家错误标记为致命
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		// PersistentPostRunE 在出错时不会执行
		_ = a.close()

		var ue *userError
		if service.IsUserFacing(err) || errors.As(err, &ue) {
			return err
		}
		return &fatalError{err: err}
	}
}
