package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

// Migrate applies the idempotent schema. Safe to run on every boot.
func Migrate(ctx context.Context, db *pgxpool.Pool, log *zap.Logger) error {
	log.Info("applying schema")
	if _, err := db.Exec(ctx, schema); err != nil {
		log.Error("schema migration failed", zap.Error(err))
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("schema up to date")
	return nil
}
