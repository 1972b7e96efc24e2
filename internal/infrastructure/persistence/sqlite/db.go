package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database at path and ensures the schema
// exists. Pass ":memory:" for an in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// A single writer connection serializes statements, which is what makes
	// the refund compare-and-swap race-free on SQLite.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			transaction_id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL CHECK (type IN ('charge', 'refund', 'void')),
			gateway TEXT NOT NULL,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			user_id TEXT NOT NULL,
			order_id TEXT,
			payment_method TEXT,
			status TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'failed', 'refunded')),
			gateway_response TEXT,
			error_message TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			processed_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_status ON transactions(user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_order_type ON transactions(order_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status_created ON transactions(status, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
