package cli

import (
	"fmt"
	"time"

	"template-builder/internal/common/config"
	"template-builder/internal/common/database"
	"template-builder/internal/repository"
	"template-builder/pkg/catalog"

	"github.com/spf13/cobra"
)

// NewSeedCmd creates the seed command.
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the --catalog file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogFlag == "" {
				return fmt.Errorf("--catalog is required")
			}
			c, err := loadCatalog(catalogFlag)
			if err != nil {
				return err
			}

			store, closeDB, err := openSQLStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := catalog.Seed(cmd.Context(), store, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d template(s), %d schema(s), %d module(s).\n",
				len(c.Templates), len(c.Schemas), len(c.Modules))
			return nil
		},
	}
}

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeDB, err := openSQLStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database.\n", cfg.Database.Driver)
			return nil
		},
	}
}

// NewReconcileCmd creates the reconcile command.
func NewReconcileCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Fail builds stuck in building",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if olderThan <= 0 {
				olderThan = config.GetDuration(cfg.Build.StaleAfter)
			}
			moved, err := a.service.ReconcileStaleBuilds(cmd.Context(), olderThan)
			fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d stale build(s).\n", moved)
			return err
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age after which a building record is stale (default build.stale_after)")
	return cmd
}

// openSQLStore opens and migrates the configured database without the rest
// of the app.
func openSQLStore(cmd *cobra.Command) (*repository.SQLStore, func(), error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(cmd.Context()); err != nil {
		db.Close()
		return nil, nil, err
	}
	store := repository.NewSQLStore(db.GetDB(), db.Driver, log)
	if err := store.Migrate(cmd.Context()); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}
