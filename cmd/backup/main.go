// cmd/backup/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semmidev/phylax-mongo/internal/app"
	"github.com/semmidev/phylax-mongo/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "backup",
	Short: "Dump a database, archive the dump and upload it with retention",
	Long: "Runs a single backup: the dump tool writes into a fresh staging directory, " +
		"the result is archived, uploaded to the configured storage backend and " +
		"older backups beyond the retention count are deleted.",
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to an optional YAML config file")
}

func main() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runBackup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	return application.Run(ctx)
}
