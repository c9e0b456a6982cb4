// Package dbopen selects the store driver named in configuration.
package dbopen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/config"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store/postgres"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrMissingDSN = errors.New("DB_DSN is required for the postgres driver")

// Migrator is implemented by drivers whose schema is applied on demand.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Open connects to the configured database. SQLite databases are migrated
// on open; Postgres schemas are applied with Migrate.
func Open(ctx context.Context, cfg config.Database) (store.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverPostgres:
		if cfg.DSN == "" {
			return nil, ErrMissingDSN
		}
		return postgres.Open(ctx, cfg.DSN)
	case DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

// Migrate applies the schema when the driver needs it.
func Migrate(ctx context.Context, st store.Store) error {
	if m, ok := st.(Migrator); ok {
		return m.Migrate(ctx)
	}
	return nil
}
