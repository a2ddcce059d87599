// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/geodiscovery/internal/config"
	"github.com/tomtom215/geodiscovery/internal/logging"
)

// DB is a SQL-backed Store on DuckDB or SQLite.
type DB struct {
	conn   *sql.DB
	cfg    *config.DatabaseConfig
	driver string
}

// New opens the SQL database described by cfg and initializes the schema.
// An empty cfg.Path opens an in-memory database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if cfg.Path != "" && cfg.Path != ":memory:" {
		// 0750 per gosec G301
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	driverName, connStr, err := connectionString(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg, driver: cfg.Driver}
	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("driver", db.driver).
		Str("path", displayPath(cfg.Path)).
		Msg("Record store opened")

	return db, nil
}

// connectionString returns the database/sql driver name and DSN for cfg.
func connectionString(cfg *config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case config.DriverDuckDB:
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		path := cfg.Path
		if path == ":memory:" {
			path = ""
		}
		params := []string{fmt.Sprintf("threads=%d", threads)}
		if cfg.MaxMemory != "" {
			params = append(params, "max_memory="+cfg.MaxMemory)
		}
		// Extensions are never needed; keep startup offline
		params = append(params, "autoinstall_known_extensions=false", "autoload_known_extensions=false")
		return "duckdb", path + "?" + strings.Join(params, "&"), nil

	case config.DriverSQLite:
		if isMemoryPath(cfg.Path) {
			return "sqlite", ":memory:", nil
		}
		return "sqlite", "file:" + cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil

	default:
		return "", "", fmt.Errorf("driver %q is not a SQL driver", cfg.Driver)
	}
}

func isMemoryPath(path string) bool {
	return path == "" || path == ":memory:"
}

func displayPath(path string) string {
	if isMemoryPath(path) {
		return ":memory:"
	}
	return path
}

// configureConnectionPool sets connection pool parameters.
func (db *DB) configureConnectionPool() {
	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = runtime.NumCPU()
	}
	// Every connection to an in-memory SQLite database sees its own empty database
	if db.driver == config.DriverSQLite && isMemoryPath(db.cfg.Path) {
		maxOpen = 1
	}

	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// queryContext bounds a single statement by the configured query timeout.
func (db *DB) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.cfg.QueryTimeout)
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Conn returns the underlying SQL connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Checkpoint flushes the write-ahead log into the main database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	stmt := "CHECKPOINT"
	if db.driver == config.DriverSQLite {
		if isMemoryPath(db.cfg.Path) {
			return nil
		}
		stmt = "PRAGMA wal_checkpoint(TRUNCATE)"
	}
	if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to checkpoint: %w", err)
	}
	return nil
}

// Close checkpoints and closes the database.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()
	return db.conn.Close()
}
