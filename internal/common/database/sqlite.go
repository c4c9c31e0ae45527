package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"template-builder/internal/common/config"

	_ "modernc.org/sqlite"
)

// NewSQLite opens (creating if needed) a SQLite database file.
func NewSQLite(cfg config.SQLiteConfig) (*SQLClient, error) {
	p := strings.TrimSpace(cfg.Path)
	if p == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if p != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", p+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// single writer; concurrent writers would just see SQLITE_BUSY
	db.SetMaxOpenConns(1)

	return &SQLClient{DB: db, Driver: config.DriverSQLite}, nil
}
