package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "anitrack",
	Short: "A personal anime watch tracker backed by AniDB",
	Long: `anitrack keeps a local list of the anime you are watching, fetching
metadata from the AniDB HTTP API and searching titles through a local
full-text index built from the AniDB title dump.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.anitrack.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn or error")
	rootCmd.PersistentFlags().String("tracker-db", "./tracker.db", "path of the tracker database")
	rootCmd.PersistentFlags().String("titles-db", "./anidb_cache.db", "path of the title index database")
	rootCmd.PersistentFlags().String("cache-dir", "./_cache", "directory for the downloaded title dump")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("database.tracker_path", rootCmd.PersistentFlags().Lookup("tracker-db"))
	viper.BindPFlag("database.titles_path", rootCmd.PersistentFlags().Lookup("titles-db"))
	viper.BindPFlag("titles.cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
