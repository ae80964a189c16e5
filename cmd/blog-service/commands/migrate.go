package commands

import (
	"errors"
	"fmt"
	"log"

	"github.com/gfdmit/blog-service/config"
	"github.com/gfdmit/blog-service/internal/repository/postgres"
	"github.com/gfdmit/blog-service/internal/repository/sqlite"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var steps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations against the configured store.

Subcommands:
  up       - Apply pending migrations
  down     - Roll back migrations
  version  - Print the current schema version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			if steps > 0 {
				return m.Steps(steps)
			}
			return m.Up()
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long: `Roll back applied migrations.

Examples:
  blog-service migrate down --steps 1   # roll back the last migration
  blog-service migrate down             # roll back everything`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			if steps > 0 {
				return m.Steps(-steps)
			}
			return m.Down()
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "no migration applied")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)

	migrateUpCmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to apply (0 = all)")
	migrateDownCmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to roll back (0 = all)")
}

func withMigrator(fn func(*migrate.Migrate) error) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	switch conf.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Connect(conf.SQLite.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		if m, err = sqlite.NewMigrator(db); err != nil {
			return err
		}
	default:
		db, err := postgres.Connect(conf.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		if m, err = postgres.NewMigrator(db, conf.Postgres); err != nil {
			return err
		}
	}

	if err := fn(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("[MIGRATE] nothing to migrate")
			return nil
		}
		return err
	}
	log.Println("[MIGRATE] done")
	return nil
}
