package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/config"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "coldconnect",
		Short:         "ColdConnect engine: portfolio matching and cold outreach",
		Long:          "Matches a candidate's portfolio projects against job descriptions and drafts cold outreach emails.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(createServeCommand())
	rootCmd.AddCommand(createMigrateCommand())
	rootCmd.AddCommand(createConfigCommand())
	rootCmd.AddCommand(createVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("coldconnect version %s\n", Version)
		},
	}
}

func createConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML (secrets omitted)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(Version)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// loadRuntime reads .env (when present) and the configuration, then builds
// the process logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
