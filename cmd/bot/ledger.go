package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"spot_bot/internal/ledger"
	"spot_bot/internal/modules/config"
	"spot_bot/internal/modules/logging"
	"spot_bot/internal/modules/postgres"
	"spot_bot/pkg/logger"
)

var showAll bool

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Print grid ledger rows and open exposure per symbol",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cfg   *config.Config
			store ledger.Store
			log   *logger.Logger
		)
		app := fx.New(
			config.Module(configPath),
			logging.Module(),
			postgres.Module(),
			fx.Populate(&cfg, &store, &log),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = app.Stop(context.Background()) }()

		return printLedger(ctx, cfg, store, log)
	},
}

func init() {
	ledgerCmd.Flags().BoolVar(&showAll, "all", false, "include closed rows")
}

func printLedger(ctx context.Context, cfg *config.Config, store ledger.Store, log *logger.Logger) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	for _, sc := range cfg.SymbolConfigs() {
		if !sc.Strategy.IsGrid() {
			continue
		}
		l := ledger.New(sc.Symbol, store, log)
		rows, err := l.Open(ctx)
		if showAll {
			rows, err = l.All(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\topen exposure %s / %s\n", sc.Symbol, ledger.Exposure(rows).StringFixed(2), sc.MaxExposure)
		for _, r := range rows {
			fmt.Fprintf(w, "  %d\t%s\tbuy %s\tamount %s\tsell %s\t%s\t%s\n",
				r.ID, r.Status, r.BuyPrice, r.Amount, r.SellPrice, r.SellOrderID, r.CreatedAt.Format(time.RFC3339))
		}
	}
	return nil
}
