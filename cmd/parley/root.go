package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.2.0"

func newRootCommand() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:          "parley",
		Short:        "parley runs timed negotiations between two AI personas",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newServeCommand(),
		newRunCommand(),
	)

	return rootCmd
}

func execute() error {
	// Credentials may live in a local .env file during development.
	_ = godotenv.Load()

	return newRootCommand().Execute()
}
