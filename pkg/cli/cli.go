// Package cli is the command line entry point of recall.
package cli

import (
	"context"

	"github.com/notelab/recall/pkg/cli/config"
	"github.com/notelab/recall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closer func()
	app := &cli.Command{
		Name:  "recall",
		Usage: "spaced-repetition review engine for markdown vaults",
		Flags: joinFlags(loggerCfg.Flags(), sentryCfg.Flags()),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			if err := sentryCfg.Configure(); err != nil {
				return ctx, err
			}

			logging.Default().Debug("base options", "logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdSync(),
			cmdPlan(),
			cmdRate(),
			cmdIntroduce(),
			cmdClusters(),
			cmdSession(),
			cmdStats(),
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
