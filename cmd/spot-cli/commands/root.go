package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"spotifier-core/lib/telemetry"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool

	shutdownTelemetry = func(context.Context) error { return nil }
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "spot.json5", "The config file to read, searched for upwards from the working directory.")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level and dump http exchanges.")
}

var rootCmd = &cobra.Command{
	Use:   "spot-cli",
	Short: "spot-cli is a CLI for reading and submitting coursework on the SPOT portal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// a missing .env is fine, the variables may come from the shell
		_ = godotenv.Load()

		telemetry.InitSlog(debug)
		tel, err := telemetry.SetupFromEnv(cmd.Context(), "spot-cli")
		if err != nil {
			slog.Debug("telemetry disabled", "err", err)
			return
		}
		shutdownTelemetry = tel.Shutdown
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := shutdownTelemetry(context.Background())
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
