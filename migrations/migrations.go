// Package migrations holds the embedded SQL schema and applies it at startup
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/amirphl/promo-engine/utils"
	"gorm.io/gorm"
)

//go:embed *.sql
var FS embed.FS

const migrationTable = "schema_migrations"

// Apply executes every embedded migration at most once. Concurrent processes serialize on a
// session-level advisory lock held on a single pinned connection.
func Apply(ctx context.Context, db *gorm.DB) ([]string, error) {
	files, err := migrationFiles(FS)
	if err != nil {
		return nil, err
	}

	var applied []string
	err = db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SELECT pg_advisory_lock(?)", utils.SchemaLockKey).Error; err != nil {
			return fmt.Errorf("failed to acquire schema lock: %w", err)
		}
		defer conn.Exec("SELECT pg_advisory_unlock(?)", utils.SchemaLockKey)

		createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT (CURRENT_TIMESTAMP AT TIME ZONE 'UTC')
)`, migrationTable)
		if err := conn.Exec(createSQL).Error; err != nil {
			return fmt.Errorf("failed to ensure migration table: %w", err)
		}

		for _, name := range files {
			var count int64
			if err := conn.Table(migrationTable).Where("name = ?", name).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check migration %s: %w", name, err)
			}
			if count > 0 {
				continue
			}

			content, err := fs.ReadFile(FS, name)
			if err != nil {
				return fmt.Errorf("failed to read migration %s: %w", name, err)
			}
			upSQL := ExtractUp(string(content))
			if strings.TrimSpace(upSQL) == "" {
				continue
			}

			err = conn.Transaction(func(tx *gorm.DB) error {
				if err := tx.Exec(upSQL).Error; err != nil {
					return fmt.Errorf("failed to execute migration %s: %w", name, err)
				}
				return tx.Exec("INSERT INTO "+migrationTable+" (name) VALUES (?)", name).Error
			})
			if err != nil {
				return err
			}
			applied = append(applied, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return applied, nil
}

// ExtractUp returns the SQL between the Up and Down markers
func ExtractUp(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	upIdx := strings.Index(content, up)
	if upIdx == -1 {
		return content
	}
	rest := content[upIdx+len(up):]
	if downIdx := strings.Index(rest, down); downIdx != -1 {
		return rest[:downIdx]
	}
	return rest
}

func migrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
