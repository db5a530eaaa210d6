package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/Asif-shah786/zoopla-scraper/internal/config"
	"github.com/Asif-shah786/zoopla-scraper/internal/ledger"
)

// initStore opens and migrates the configured run ledger.
func initStore(ctx context.Context, lc config.LedgerConfig) (ledger.Store, error) {
	var (
		st  ledger.Store
		err error
	)
	switch lc.Driver {
	case "sqlite", "":
		dsn := lc.DSN
		if dsn == "" {
			dsn = filepath.Join(lc.RunsDir, "ledger.db")
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, eris.Wrapf(mkErr, "create ledger dir %s", dir)
			}
		}
		st, err = ledger.NewSQLite(dsn)
	case "postgres":
		st, err = ledger.NewPostgres(ctx, lc.DSN, poolConfig(lc))
	default:
		return nil, eris.Errorf("unsupported ledger driver: %s", lc.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate ledger")
	}
	return st, nil
}

func poolConfig(lc config.LedgerConfig) *ledger.PoolConfig {
	if lc.MaxConns <= 0 && lc.MinConns <= 0 {
		return nil
	}
	return &ledger.PoolConfig{MaxConns: lc.MaxConns, MinConns: lc.MinConns}
}
