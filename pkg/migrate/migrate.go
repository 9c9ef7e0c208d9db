package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/florezcook/orders-backend/pkg/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedded embed.FS

// DefaultRoot is where the SQL files live on disk, relative to the repo root.
const DefaultRoot = "pkg/migrate/migrations"

func dialectDir(dialect string) string {
	if dialect == config.DBDriverSQLite {
		return "sqlite"
	}
	return "postgres"
}

func gooseDialect(dialect string) goose.Dialect {
	if dialect == config.DBDriverSQLite {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

// NewProvider builds a goose provider over the embedded migrations for the
// given dialect (postgres or sqlite). The pool stays owned by the caller:
// Provider.Close closes db, so callers must not close the provider.
func NewProvider(db *sql.DB, dialect string) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	fsys, err := fs.Sub(embedded, path.Join("migrations", dialectDir(dialect)))
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(gooseDialect(dialect), db, fsys)
	if err != nil {
		return nil, fmt.Errorf("create goose provider: %w", err)
	}
	return provider, nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	return Run(ctx, db, dialect, "up")
}

// Run executes up, down, reset or status against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, dialect string, command string) error {
	provider, err := NewProvider(db, dialect)
	if err != nil {
		return err
	}
	switch command {
	case "up":
		if _, err := provider.Up(ctx); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	case "down":
		if _, err := provider.Down(ctx); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	case "reset":
		if _, err := provider.DownTo(ctx, 0); err != nil {
			return fmt.Errorf("goose reset: %w", err)
		}
	case "status":
		if _, err := provider.Status(ctx); err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
	default:
		return fmt.Errorf("unsupported goose command %q", command)
	}
	return nil
}

// MigrationState is a single row of Status output.
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

// Status reports every known migration and whether it has been applied.
func Status(ctx context.Context, db *sql.DB, dialect string) ([]MigrationState, error) {
	provider, err := NewProvider(db, dialect)
	if err != nil {
		return nil, err
	}
	results, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	states := make([]MigrationState, 0, len(results))
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		states = append(states, MigrationState{
			Version: res.Source.Version,
			Path:    res.Source.Path,
			Applied: res.State == goose.StateApplied,
		})
	}
	return states, nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	provider, err := NewProvider(db, dialect)
	if err != nil {
		return err
	}
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if _, err := provider.UpTo(ctx, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if _, err := provider.DownTo(ctx, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}
