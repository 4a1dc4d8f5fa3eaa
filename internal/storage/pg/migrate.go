package pg

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/DjordjeVuckovic/modelcfg/db"
)

// Migrate applies the embedded up migrations in file name order. Every
// migration is idempotent, so running it against a migrated schema is a no-op.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	files, err := fs.Glob(db.Migrations, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		script, err := fs.ReadFile(db.Migrations, f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := pool.conn.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", f, err)
		}
		slog.Debug("migration applied", "file", f)
	}
	return nil
}
