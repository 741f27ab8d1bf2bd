package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

const schemaVersion = 1

// EnsureBootstrapped creates the schema when the meta table or its version row is missing.
// initdb.sql is idempotent, so running it against a half-initialised database is safe.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) (bool, error) {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctxBoot, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'coverly_meta'
		)`).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("meta table check failed: %w", err)
	}

	if !exists {
		return true, runBootstrap(ctxBoot, db)
	}

	var hasVersion bool
	if err := db.QueryRowContext(ctxBoot, `SELECT EXISTS (SELECT 1 FROM coverly_meta WHERE version = $1)`, schemaVersion).Scan(&hasVersion); err != nil {
		return false, fmt.Errorf("meta version check failed: %w", err)
	}
	if !hasVersion {
		return true, runBootstrap(ctxBoot, db)
	}

	return false, nil
}

func runBootstrap(ctx context.Context, db *sql.DB) error {
	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}
