package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const writablePragmas = `
	PRAGMA journal_mode = WAL;
	PRAGMA foreign_keys = ON;
	PRAGMA busy_timeout = 5000;
`

// Open opens the SQLite catalog database for migrations and seeding, sets
// pragmas, and validates connectivity. The file is created when missing.
func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	path, err := cleanPath(dbPath)
	if err != nil {
		return nil, err
	}
	return open(ctx, path, writablePragmas)
}

// OpenReadOnly opens an existing catalog database with query_only set on
// every pooled connection. It fails when the file does not exist.
func OpenReadOnly(ctx context.Context, dbPath string) (*sql.DB, error) {
	path, err := cleanPath(dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat sqlite database: %w", err)
	}
	return open(ctx, path+"?_pragma=busy_timeout(5000)&_pragma=query_only(1)", "")
}

func open(ctx context.Context, dsn, pragmas string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if pragmas != "" {
		if _, err := db.ExecContext(ctx, pragmas); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set sqlite pragmas: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return db, nil
}

func cleanPath(dbPath string) (string, error) {
	if strings.TrimSpace(dbPath) == "" {
		return "", errors.New("database path is required")
	}
	return filepath.Clean(dbPath), nil
}
