// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"fmt"
	"strings"
)

// Dialect isolates the SQL differences between backends so callers in
// sql_store.go never branch on backend (SPEC_FULL.md §9: "keep the dialect
// branch inside the Store, not in callers").
type Dialect interface {
	// Tag names the dialect for logs and metrics labels.
	Tag() string

	// Placeholder rewrites a query written with "?" placeholders into the
	// dialect's native positional syntax (sqlite keeps "?"; postgres rewrites
	// to "$1", "$2", ...).
	Placeholder(query string) string

	// ReturningClause appends the clause needed to read back an
	// auto-generated column from an INSERT, or "" if the dialect requires a
	// separate SELECT (sqlite here; postgres supports RETURNING natively).
	ReturningClause(column string) string

	// SupportsReturning reports whether ReturningClause actually works, so
	// callers can choose the INSERT-then-SELECT fallback path.
	SupportsReturning() bool

	// AutoIncrementPK returns the full column definition for an
	// auto-incrementing primary key named name.
	AutoIncrementPK(name string) string
}

// sqliteDialect targets modernc.org/sqlite. SQLite's query planner accepts
// "?" placeholders natively; RETURNING is avoided to match the teacher's own
// sqlite usage (INSERT followed by last_insert_rowid()).
type sqliteDialect struct{}

func (sqliteDialect) Tag() string                     { return "sqlite" }
func (sqliteDialect) Placeholder(query string) string { return query }
func (sqliteDialect) ReturningClause(string) string   { return "" }
func (sqliteDialect) SupportsReturning() bool         { return false }
func (sqliteDialect) AutoIncrementPK(name string) string {
	return fmt.Sprintf("%s INTEGER PRIMARY KEY AUTOINCREMENT", name)
}

// postgresDialect targets github.com/jackc/pgx/v5's database/sql adapter.
// Postgres requires "$1..$n" positional parameters and supports RETURNING.
type postgresDialect struct{}

func (postgresDialect) Tag() string                     { return "postgres" }
func (postgresDialect) ReturningClause(column string) string {
	return fmt.Sprintf(" RETURNING %s", column)
}
func (postgresDialect) SupportsReturning() bool { return true }
func (postgresDialect) AutoIncrementPK(name string) string {
	return fmt.Sprintf("%s BIGSERIAL PRIMARY KEY", name)
}

func (postgresDialect) Placeholder(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
