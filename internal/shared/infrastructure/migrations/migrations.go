package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var schemaFS embed.FS

// Files lists the up migrations for a driver in apply order.
func Files(driver database.Driver) ([]string, error) {
	entries, err := fs.ReadDir(schemaFS, driver.String())
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations for %s: %w", driver, err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, driver.String()+"/"+entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run applies every migration for the connection's driver. Statements use
// IF NOT EXISTS, so running again is harmless.
func Run(ctx context.Context, conn database.Connection) error {
	files, err := Files(conn.Driver())
	if err != nil {
		return err
	}

	for _, file := range files {
		stmt, err := schemaFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if _, err := conn.Exec(ctx, string(stmt)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}
	return nil
}
