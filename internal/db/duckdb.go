// Package db opens the DuckDB database that stores the photo collection.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Config holds database configuration. An empty DataDir opens an in-memory
// database.
type Config struct {
	DataDir    string
	DBName     string
	Extensions []string
}

// Open opens a new DuckDB connection and loads the configured extensions.
// Extensions that fail to install are logged and skipped.
func Open(cfg Config) (*sql.DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = "photomap"
		}
		dsn = filepath.Join(duckdbDir, name+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", dsn, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping duckdb %q: %w", dsn, err)
	}

	for _, ext := range cfg.Extensions {
		if _, err := conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			slog.Warn("duckdb extension unavailable", "extension", ext, "err", err)
		}
	}
	return conn, nil
}
