package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/topiary/internal/logging"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "topiary",
	Short: "Topiary validates YAML configuration files against declarative specs",
	Long: `Topiary checks YAML configuration trees against companion spec files,
fills in defaults, and applies per-site customizations before validation.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func newLogger() *slog.Logger {
	if debugFlag {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}
