// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"fmt"

	"github.com/ManuGH/factorysim/internal/persistence/postgres"
	"github.com/ManuGH/factorysim/internal/persistence/sqlite"
)

// OpenStateStore creates a StateStore from a backend tag and DSN. "sqlite"
// and "postgres" exercise the two real SQL dialects (SPEC_FULL.md §9);
// "memory" is the in-process test double.
func OpenStateStore(ctx context.Context, backend, dsn string) (StateStore, error) {
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "sqlite":
		db, err := sqlite.Open(dsn, sqlite.DefaultConfig())
		if err != nil {
			return nil, err
		}
		return NewSQLStore(ctx, db, sqliteDialect{})
	case "postgres":
		db, err := postgres.Open(dsn, postgres.DefaultConfig())
		if err != nil {
			return nil, err
		}
		return NewSQLStore(ctx, db, postgresDialect{})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: sqlite, postgres, memory)", backend)
	}
}
