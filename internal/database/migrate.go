package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL applied by Migrate.
func Schema() string { return schemaSQL }

// Migrate applies the schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db DBTX) error {
	start := time.Now()
	// No arguments, so pgx sends this over the simple protocol and multiple
	// statements are allowed.
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	slog.Info("database schema applied", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
