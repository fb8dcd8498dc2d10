package graph

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"thothsync/internal/graph/migrations"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetTableName("schema_migrations")
	return goose.UpContext(ctx, db, ".")
}
