package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-face-palette/internal/logger"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "1.0.0"

var logLevel string

var rootCmd = &cobra.Command{
	Use:     "palette",
	Short:   "Extract a skin, eye, lip and hair color palette from face photos",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLevel(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
