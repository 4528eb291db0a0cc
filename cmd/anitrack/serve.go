package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/anitrack/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tracker API and refresh the title index daily",
	Long: `Serve starts the JSON API used by the tracker frontend:

  GET    /api/anime            list tracked anime
  GET    /api/search?q=&page=  search the title index
  POST   /api/add              {"aid": 5}
  POST   /api/update/{id}      {"action": "increment" | "decrement"}
  DELETE /api/remove/{id}
  GET    /api/image/{file}     proxied AniDB picture

The title index is refreshed once at startup and then every day at
titles.schedule (UTC).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApp()
		if err != nil {
			return errors.Wrap(err, "failed to initialize application")
		}
		defer application.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return application.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().String("host", "127.0.0.1", "address to listen on")
	serveCmd.Flags().Int("port", 5000, "port to listen on")

	viper.BindPFlag("http.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("http.port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}
