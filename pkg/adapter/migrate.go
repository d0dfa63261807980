package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/pressly/goose/v3"
)

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// Migrate applies the goose migrations in dir to the adapter's database.
// It is used to build a verification database from application migrations.
func Migrate(ctx context.Context, a Adapter, dir string) (int64, error) {
	return MigrateFS(ctx, a.Conn(), a.Dialect(), os.DirFS(dir), ".")
}

// MigrateFS applies the migrations found in dir of fsys and returns the
// resulting schema version.
func MigrateFS(ctx context.Context, db *sql.DB, dialect string, fsys fs.FS, dir string) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	if dialect == "" {
		return 0, fmt.Errorf("migrations are not supported for this database")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}
