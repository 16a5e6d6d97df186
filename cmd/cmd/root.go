package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pngler/pngler/internal/env"
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   env.AppName,
		Short: env.AppName + " - strict PNG validation and decoding tool",
	}

	rootCmd.PersistentFlags().String("log-level", "INFO", "minimum log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(DefineInfoCommand())
	rootCmd.AddCommand(DefineDecodeCommand())
	rootCmd.AddCommand(DefineExportCommand())
	rootCmd.AddCommand(DefineCheckCommand())

	return rootCmd.Execute()
}
