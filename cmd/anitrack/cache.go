package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/varoOP/anitrack/internal/app"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the AniDB response cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached AniDB responses older than a given age",
	Long: `Purge removes cached AniDB responses older than --older-than (default
anidb.cache_max_age). Stale responses are otherwise kept and simply ignored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApp()
		if err != nil {
			return errors.Wrap(err, "failed to initialize application")
		}
		defer application.Close()

		maxAge := application.Config().AniDB.CacheMaxAge
		if cmd.Flags().Changed("older-than") {
			maxAge, _ = cmd.Flags().GetDuration("older-than")
		}
		if maxAge < 0 {
			return errors.New("--older-than must not be negative")
		}

		n, err := application.PurgeCache(cmd.Context(), maxAge)
		if err != nil {
			return err
		}

		fmt.Printf("Removed %d cached responses older than %s\n", n, maxAge)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().Duration("older-than", 0, "purge entries older than this age")

	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
