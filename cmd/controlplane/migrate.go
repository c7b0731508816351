package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sysmonctl/controlplane/internal/store"
	"github.com/sysmonctl/controlplane/internal/store/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the DuckDB schema and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	datafile := viper.GetString("datafile")

	db, err := store.NewDB(datafile)
	if err != nil {
		return fmt.Errorf("open store at %s: %w", datafile, err)
	}
	defer db.Close()

	if err := migrations.Run(cmd.Context(), db); err != nil {
		color.Red("migration failed: %v", err)
		return err
	}

	color.Green("migrations applied to %s", datafile)
	return nil
}
