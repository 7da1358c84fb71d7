package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/benz9527/xtree/internal/shell"
	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

const keyPrompt = "prompt"

type shellStreams struct {
	in     io.Reader
	out    io.Writer
	prompt bool
}

type xtreeBanner struct{}

func (xtreeBanner) JSON() string {
	return `{"app":"xtree","engines":["rb","avl"]}`
}

func (xtreeBanner) PlainText() string {
	return "xtree, balanced search tree engines (rb, avl)"
}

func newShellCmd(config *baseConfiguration) *cobra.Command {
	var prompt bool
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Starts the interactive tree shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed(keyPrompt) {
				prompt = isTerminal(cmd.InOrStdin())
			}
			return runShell(cmd.Context(), config, shellStreams{
				in:     cmd.InOrStdin(),
				out:    cmd.OutOrStdout(),
				prompt: prompt,
			})
		},
	}
	cmd.Flags().BoolVar(&prompt, keyPrompt, false, "print the menus and prompts (default is on when stdin is a terminal)")
	return cmd
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runShell(ctx context.Context, config *baseConfiguration, streams shellStreams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var sh *shell.Shell
	app := fx.New(
		fx.Supply(config, streams),
		fx.Provide(
			provideLogger,
			provideMeterProvider,
			newShellTreeStats,
			newTreeShell,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Invoke(registerMetricsServer),
		fx.Populate(&sh),
	)
	if err := app.Err(); err != nil {
		return infra.WrapErrorStackWithMessage(err, "shell app")
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return infra.WrapErrorStackWithMessage(err, "shell app start")
	}

	runErr := sh.Run(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
	defer stopCancel()
	return multierr.Append(runErr, app.Stop(stopCtx))
}

func provideLogger(config *baseConfiguration) xlog.XLogger {
	return config.logger
}

func provideMeterProvider(config *baseConfiguration) metric.MeterProvider {
	return config.meters
}

func newShellTreeStats(mp metric.MeterProvider) ([]*observability.TreeStats, error) {
	stats := make([]*observability.TreeStats, 0, 2)
	for _, kind := range []tree.Kind{tree.RedBlack, tree.AVL} {
		s, err := observability.NewTreeStats(kind, observability.WithMeterProvider(mp))
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func newTreeShell(
	lc fx.Lifecycle,
	streams shellStreams,
	logger xlog.XLogger,
	stats []*observability.TreeStats,
) *shell.Shell {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if streams.prompt {
				logger.Banner(xtreeBanner{})
			}
			logger.InfoContext(ctx, "tree shell started", zap.Bool("prompt", streams.prompt))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.InfoContext(ctx, "tree shell stopped")
			return nil
		},
	})
	return shell.New(streams.in, streams.out,
		shell.WithPrompt(streams.prompt),
		shell.WithLogger(logger),
		shell.WithTreeStats(stats...),
	)
}
