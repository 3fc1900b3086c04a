// Package store connects to the database the stacked tables are saved to.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/jackc/pgx/stdlib"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/config"
)

// default ports when the config gives none
const (
	chPort = 9000
	pgPort = 5432
)

// Connect opens and pings the database of cfg and wraps it in a Dialect.
func Connect(cfg config.Store) (*d.Dialect, error) {
	var (
		db *sql.DB
		e  error
	)

	switch strings.ToLower(cfg.Dialect) {
	case d.CH:
		db = openCH(cfg)
	case d.PG:
		if db, e = sql.Open("pgx", pgURL(cfg)); e != nil {
			return nil, e
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}

	if e = db.Ping(); e != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s at %s: %w", cfg.Dialect, cfg.Host, e)
	}

	return d.NewDialect(cfg.Dialect, db)
}

func openCH(cfg config.Store) *sql.DB {
	return clickhouse.OpenDB(
		&clickhouse.Options{
			Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, port(cfg.Port, chPort))},
			Auth: clickhouse.Auth{
				Database: cfg.Database,
				Username: cfg.User,
				Password: cfg.Password,
			},
			DialTimeout: 300 * time.Second,
			Compression: &clickhouse.Compression{
				Method: clickhouse.CompressionLZ4,
				Level:  0,
			},
		})
}

func pgURL(cfg config.Store) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.User, cfg.Password, cfg.Host, port(cfg.Port, pgPort), cfg.Database)
}

func port(p, dflt int) int {
	if p == 0 {
		return dflt
	}

	return p
}

// TableName is the name the stacked partition part ("train" or "test") of a run is saved under.
func TableName(base, part, runID string) string {
	return fmt.Sprintf("%s_%s_%s", base, part, strings.ReplaceAll(runID, "-", ""))
}
