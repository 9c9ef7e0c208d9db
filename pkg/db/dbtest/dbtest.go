// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/florezcook/orders-backend/pkg/config"
	"github.com/florezcook/orders-backend/pkg/db"
	"github.com/florezcook/orders-backend/pkg/migrate"
)

// New returns a client over a fresh SQLite file in t.TempDir() with every
// migration applied. The client is closed when the test ends.
func New(t testing.TB) *db.Client {
	t.Helper()

	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		DSN:    filepath.Join(t.TempDir(), "test.db"),
		Driver: config.DBDriverSQLite,
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if err := migrate.Up(ctx, sqlDB, client.Dialect()); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return client
}
