// Package migrations applies the embedded schema scripts at startup.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rfberaldo/sqlz"
)

//go:embed sql
var sqlMigrationsFs embed.FS

/*
Migrate runs every "commit*" script in name order. Scripts are written to be
re-runnable, and "duplicate column" failures from ALTER TABLE scripts are
ignored so old databases can be brought forward.
*/
func Migrate(db *sqlz.DB) error {
	var (
		err  error
		dirs []fs.DirEntry
		b    []byte
	)

	if dirs, err = sqlMigrationsFs.ReadDir("sql"); err != nil {
		return fmt.Errorf("error reading migration directory: %w", err)
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].Name() < dirs[j].Name()
	})

	for _, d := range dirs {
		if d.IsDir() || !strings.HasPrefix(d.Name(), "commit") {
			continue
		}

		if b, err = fs.ReadFile(sqlMigrationsFs, path.Join("sql", d.Name())); err != nil {
			return fmt.Errorf("error reading migration '%s': %w", d.Name(), err)
		}

		if err = runSqlScript(db, b); err != nil {
			if !isIgnorableError(err) {
				return fmt.Errorf("error running migration '%s': %w", d.Name(), err)
			}
		}

		slog.Debug("migration applied", "script", d.Name())
	}

	return nil
}

func runSqlScript(db *sqlz.DB, script []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := db.Exec(ctx, string(script))
	return err
}

func isIgnorableError(err error) bool {
	if strings.Contains(err.Error(), "duplicate column") {
		return true
	}

	return false
}
