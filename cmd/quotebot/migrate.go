package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/quotebot/core/cmd"
	coredatabase "github.com/m3rciful/quotebot/core/database"
	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/internal/app"
	"github.com/m3rciful/quotebot/migrations"
)

func migrateCmd(cfgPath *string) *cobra.Command {
	var (
		direction string
		steps     int
		dir       string
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := coredatabase.Direction(direction)
			if d != coredatabase.Up && d != coredatabase.Down {
				return fmt.Errorf("invalid --direction %q; allowed: up, down", direction)
			}
			if steps < 0 {
				return fmt.Errorf("--steps must be >= 0")
			}

			cfg, err := app.LoadMigrateConfig(corecmd.ResolveConfigPath(*cfgPath, ""))
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Database.MigrationsDir = dir
			}
			if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
				return err
			}
			defer func() {
				if err := logger.Shutdown(); err != nil {
					log.Printf("logger shutdown error: %v", err)
				}
			}()

			return coredatabase.Migrate(cfg.Database, coredatabase.MigrateOptions{
				Embedded:  migrations.FS,
				Direction: d,
				Steps:     steps,
			})
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to apply (0 = all)")
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory on disk instead of the embedded set")
	return cmd
}
