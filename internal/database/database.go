// Package database is the relational dApp registry. The same queries run on
// SQLite, MySQL and PostgreSQL; dialect differences are confined to
// placeholders, upserts and DDL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds configuration for the registry database
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	Logger          *logrus.Logger
}

type dialect struct {
	name string
}

func newDialect(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
		return dialect{name: driver}, nil
	}
	return dialect{}, fmt.Errorf("unsupported registry driver %q", driver)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d dialect) rebind(q string) string {
	if d.name != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// upsert builds an insert that updates cols on a conflict against key.
func (d dialect) upsert(table, key string, cols, update []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)

	sets := make([]string, 0, len(update))
	for _, c := range update {
		if d.name == DriverMySQL {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		} else {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	if d.name == DriverMySQL {
		return q + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return q + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET ", key) + strings.Join(sets, ", ")
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Open connects to the registry database and applies the schema.
func Open(ctx context.Context, cfg Config) (*RegistryStore, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("registry dsn is required")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping registry %s: %w", cfg.Driver, err)
	}

	store, err := NewRegistryStore(db, cfg.Driver, cfg.Logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	store.logger.WithField("driver", cfg.Driver).Info("connected to registry database")
	return store, nil
}
