package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/varoOP/anitrack/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the tracker and title databases",
	Long: `Migrate opens both databases and applies any pending schema migrations.
Every other command does this implicitly; migrate is useful before a first
deployment or after an upgrade.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApp()
		if err != nil {
			return errors.Wrap(err, "migration failed")
		}
		defer application.Close()

		trackerVersion, titleVersion, err := application.SchemaVersions()
		if err != nil {
			return err
		}

		cfg := application.Config()
		fmt.Printf("Tracker database %s at schema version %d\n", cfg.Database.TrackerPath, trackerVersion)
		fmt.Printf("Title database %s at schema version %d\n", cfg.Database.TitlesPath, titleVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
