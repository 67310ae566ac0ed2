package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/findata-cli/internal/concept"
	"github.com/sells-group/findata-cli/internal/fetcher"
	"github.com/sells-group/findata-cli/internal/manager"
	"github.com/sells-group/findata-cli/internal/source"
	"github.com/sells-group/findata-cli/internal/store"
)

// newRegistry builds the concept registry with any configured overrides.
func newRegistry() (*concept.Registry, error) {
	reg := concept.DefaultRegistry()
	if cfg.Concepts.Overrides != "" {
		if err := reg.LoadOverrides(cfg.Concepts.Overrides); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgresStore(ctx, cfg.Store.DSN)
	default:
		st, err = store.NewSQLiteStore(cfg.Store.Path)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrating store")
	}
	return st, nil
}

// newEngine wires the store, EDGAR client and manager from config. The
// caller owns closing the returned store.
func newEngine(ctx context.Context) (*manager.Manager, store.Store, error) {
	reg, err := newRegistry()
	if err != nil {
		return nil, nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Source.UserAgent,
		Timeout:    cfg.Source.Timeout(),
		MaxRetries: cfg.Source.MaxRetries,
		RatePerSec: cfg.Source.RatePerSec,
		Burst:      cfg.Source.Burst,
	})
	client := source.NewEDGARClient(f, reg, source.EDGAROptions{
		BaseURL:  cfg.Source.BaseURL,
		FilesURL: cfg.Source.FilesURL,
	})

	m := manager.New(st, client, concept.NewResolver(reg), manager.Options{
		MaxAge:       cfg.Cache.MaxAge(),
		Periods:      cfg.Cache.Periods,
		TolerancePct: cfg.Verify.TolerancePct,
	})
	return m, st, nil
}
