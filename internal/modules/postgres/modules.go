package postgres

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"spot_bot/internal/ledger"
	"spot_bot/internal/ledger/pg"
	"spot_bot/internal/modules/config"
	"spot_bot/pkg/db"
	"spot_bot/pkg/logger"
)

const connectTimeout = 10 * time.Second

// NewStore picks the ledger backend. The memory store is used when asked for
// explicitly or when there is no database to talk to.
func NewStore(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (ledger.Store, error) {
	if cfg.Ledger.Driver == config.LedgerMemory || cfg.DB == "" {
		log.Zap().Info("ledger uses in-memory store")
		return ledger.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN: cfg.DB,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create poolMaster")
	}
	if err = poolMaster.Ping(ctx); err != nil {
		poolMaster.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	tx := db.NewPgTxManager(poolMaster, log.Zap())
	store := pg.New(tx)
	if err = store.Migrate(ctx); err != nil {
		tx.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			tx.Close()
			return nil
		},
	})
	return store, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(NewStore),
	)
}
