package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/lienwise/bidengine/internal/engine"
	"github.com/lienwise/bidengine/internal/registry"
	"github.com/lienwise/bidengine/internal/store"
)

// loadRegistry loads the configured registry file, or the embedded default
// when no path is configured. Validation failure is fatal by contract.
func loadRegistry() (*registry.Registry, error) {
	if cfg.Registry.Path != "" {
		return registry.Load(cfg.Registry.Path)
	}
	return registry.LoadDefault()
}

// newEngine builds the evaluation engine from config and registry.
func newEngine() (*engine.Engine, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	return engine.New(reg, cfg.Engine)
}

// openStore opens the configured store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
