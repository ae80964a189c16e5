// Package migrations embeds the golang-migrate schema files for every storage driver.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// For returns the migration files of a driver ("postgres" or "sqlite").
func For(driver string) (fs.FS, error) {
	return fs.Sub(files, driver)
}
