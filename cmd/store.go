package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/firmlink/internal/resilience"
	"github.com/sells-group/firmlink/internal/store"
)

// openStore connects the configured run store and applies its schema,
// retrying transient connection failures.
func openStore(ctx context.Context) (store.Store, error) {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Store.ConnectAttempts
	retry.OnRetry = resilience.RetryLogger("cmd.store", "connect")

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (store.Store, error) {
		st, err := connectStore(ctx)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	})
}

func connectStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "firmlink.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
