package main

import (
	"context"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/quotebot/core/cmd"
	"github.com/m3rciful/quotebot/internal/app"
)

func runCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), *cfgPath)
		},
	}
}

func runBot(ctx context.Context, cfgPath string) error {
	return corecmd.Run(ctx, corecmd.Options{
		ConfigPath: cfgPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(ctx, cfg.(*app.Config))
		},
	})
}
