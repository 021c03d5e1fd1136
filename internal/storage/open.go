package storage

import (
	"strings"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
)

// OpenFromConfig opens a Cockroach-backed StoreSet when cfg.URL is set,
// otherwise falls back to an in-memory StoreSet -- the same fallback every
// binary needs for a config-free local run.
func OpenFromConfig(cfg config.DatabaseConfig) (StoreSet, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return NewMemoryStores(), nil
	}

	cockroachCfg := DefaultCockroachConfig()
	cockroachCfg.MaxOpenConns = cfg.MaxConnections
	cockroachCfg.ConnMaxLifetime = cfg.ConnMaxLifetime

	return NewCockroachStoresFromDSN(cfg.URL, cockroachCfg)
}
