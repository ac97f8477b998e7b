package store

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its dialect and filesystem in package state
var gooseMu sync.Mutex

var gooseDialects = map[Dialect]string{
	DialectSQLite:   "sqlite3",
	DialectPostgres: "postgres",
}

// SetupSchema declares the persons, threads and messages collections and the
// sent, messaged_in and in_thread edges. Applied migrations are skipped, so
// calling it again is a no-op.
func (s *Store) SetupSchema(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(gooseLogger{})
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(gooseDialects[s.dialect]); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	internal.LogDebug("Running store migrations on %s", s.location)
	if err := goose.UpContext(ctx, s.db.DB, "migrations"); err != nil {
		return fmt.Errorf("schema setup failed: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(gooseLogger{})
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(gooseDialects[s.dialect]); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, s.db.DB)
}

// gooseLogger routes goose output to debug logs
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	internal.LogDebug(format, v...)
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	internal.Logger().Fatalf(format, v...)
}
