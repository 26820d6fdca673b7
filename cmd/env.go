package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recovery-cli/internal/ingest"
	"github.com/sells-group/recovery-cli/internal/ledger"
	"github.com/sells-group/recovery-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	var st store.Store
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = s
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		st = s
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	if cfg.Store.Cache {
		st = store.NewCached(st)
	}
	return st, nil
}

// importOptions builds reader settings from the import config section.
func importOptions() (ingest.Options, error) {
	aliases, err := ingest.NewAliases(cfg.Import.Aliases)
	if err != nil {
		return ingest.Options{}, eris.Wrap(err, "import aliases")
	}
	if cfg.Import.AliasFile != "" {
		if err := aliases.LoadAliasFile(cfg.Import.AliasFile); err != nil {
			return ingest.Options{}, err
		}
	}

	opts := ingest.Options{
		Aliases:     aliases,
		XLSX:        ingest.XLSXOptions{SheetName: cfg.Import.Sheet},
		Concurrency: cfg.Import.Concurrency,
		CSV:         ingest.CSVOptions{TrimSpace: true},
	}
	if d := []rune(cfg.Import.Delimiter); len(d) == 1 {
		opts.CSV.Delimiter = d[0]
	}
	return opts, nil
}

// ledgerEnv bundles the service with its store for cleanup.
type ledgerEnv struct {
	Store   store.Store
	Ledger  *ledger.Service
	Options ingest.Options
}

func (e *ledgerEnv) Close() {
	e.Store.Close() //nolint:errcheck
}

func initLedger(ctx context.Context) (*ledgerEnv, error) {
	opts, err := importOptions()
	if err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	return &ledgerEnv{
		Store:   st,
		Ledger:  ledger.New(st, opts.Aliases),
		Options: opts,
	}, nil
}
