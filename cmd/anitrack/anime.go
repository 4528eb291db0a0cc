package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/varoOP/anitrack/internal/app"
	"github.com/varoOP/anitrack/internal/domain"
)

var addCmd = &cobra.Command{
	Use:   "add <aid>",
	Short: "Start tracking an anime by its AniDB ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		aid, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Errorf("invalid AniDB ID %q", args[0])
		}

		application, err := app.NewApp()
		if err != nil {
			return errors.Wrap(err, "failed to initialize application")
		}
		defer application.Close()

		anime, err := application.AddAnime(cmd.Context(), aid)
		if err != nil {
			if domain.IsDuplicate(err) {
				fmt.Println("Anime is already in your list.")
				return nil
			}
			return err
		}

		fmt.Printf("Added %s (%d episodes) as #%d\n", anime.Title, anime.TotalEpisodes, anime.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked anime",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApp()
		if err != nil {
			return errors.Wrap(err, "failed to initialize application")
		}
		defer application.Close()

		list, err := application.ListAnime(cmd.Context())
		if err != nil {
			return err
		}

		for _, a := range list {
			status := " "
			if a.Completed() {
				status = "✓"
			}
			fmt.Printf("%s %4d  %3d/%-3d  %s\n", status, a.ID, a.WatchedEpisodes, a.TotalEpisodes, a.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd)
}
