package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/varoOP/anitrack/internal/app"
)

var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "Manage the local AniDB title index",
}

var titlesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Download the AniDB title dump if stale and rebuild the index",
	Long: `Refresh downloads anime-titles.xml.gz when the local copy is older than
titles.max_age, retrying with exponential backoff. If every attempt fails the
previous copy is reused. The index is rebuilt in a single transaction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		application, err := app.NewApp()
		if err != nil {
			return errors.Wrap(err, "failed to initialize application")
		}
		defer application.Close()

		stats, err := application.RefreshTitles(cmd.Context(), force)
		if err != nil {
			return errors.Wrap(err, "title refresh failed")
		}

		if !stats.Rebuilt {
			fmt.Printf("Title index is up to date (%s titles)\n", humanize.Comma(int64(stats.TitleCount)))
			return nil
		}

		fmt.Printf("Loaded %s title rows for %s anime from a %s dump (%s) in %s\n",
			humanize.Comma(int64(stats.TitleCount)),
			humanize.Comma(int64(stats.AnimeCount)),
			stats.Artifact,
			humanize.Bytes(uint64(stats.ArtifactBytes)),
			stats.Duration.Round(time.Millisecond),
		)
		return nil
	},
}

var titlesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the local title index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")

		application, err := app.NewApp()
		if err != nil {
			return errors.Wrap(err, "failed to initialize application")
		}
		defer application.Close()

		result, err := application.SearchTitles(cmd.Context(), strings.Join(args, " "), page)
		if err != nil {
			return err
		}

		for _, hit := range result.Results {
			fmt.Printf("%-8s %s\n", strconv.Itoa(hit.AID), hit.Title)
		}
		fmt.Printf("\n%d matching anime\n", result.Total)
		return nil
	},
}

func init() {
	titlesRefreshCmd.Flags().Bool("force", false, "rebuild the index even if the dump is fresh")
	titlesSearchCmd.Flags().Int("page", 1, "result page")

	titlesCmd.AddCommand(titlesRefreshCmd, titlesSearchCmd)
	rootCmd.AddCommand(titlesCmd)
}
