package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-editor/internal/config"
	"github.com/heimdex/heimdex-editor/internal/db"
	"github.com/heimdex/heimdex-editor/internal/jobs"
	"github.com/heimdex/heimdex-editor/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "heimdex-editor",
	Short: "Local agent behind the Heimdex export dialog",
	Long: `heimdex-editor runs the export dialog's session on this machine:

  - previews the loaded clip over a local HTTP API
  - keeps output size, frame rate, format and destination consistent
  - queues exports and snapshots and renders them with ffmpeg

Running without a subcommand is the same as "serve".`,
	Version:       config.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

// openStore loads config, a logger and the job database shared by every
// subcommand.
func openStore() (*config.EnvConfig, *slog.Logger, *db.DB, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, logger, database, nil
}

// ensureSecret returns the hex value stored under key, generating and
// persisting size random bytes on first use.
func ensureSecret(ctx context.Context, repo jobs.Repository, key string, size int) (string, error) {
	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := hex.EncodeToString(buf)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}
