package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"spot_bot/internal/follower"
	"spot_bot/internal/modules/config"
	"spot_bot/internal/modules/exchange"
	"spot_bot/internal/modules/health"
	"spot_bot/internal/modules/logging"
	"spot_bot/internal/modules/postgres"
	telegram "spot_bot/internal/modules/telegram_bot"
	"spot_bot/internal/modules/tracing"
	"spot_bot/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the traders and block until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp(configPath)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}

func newApp(path string) *fx.App {
	return fx.New(
		config.Module(path),
		logging.Module(),
		tracing.Module(),
		health.Module(),
		postgres.Module(),
		exchange.Module(),
		telegram.Module(),
		runner.Module(),
		follower.Module(),
	)
}
