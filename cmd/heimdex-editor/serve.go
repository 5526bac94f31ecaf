package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-editor/internal/api"
	"github.com/heimdex/heimdex-editor/internal/config"
	"github.com/heimdex/heimdex-editor/internal/dialog"
	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/jobs"
	"github.com/heimdex/heimdex-editor/internal/logging"
	"github.com/heimdex/heimdex-editor/internal/pipeline"
	"github.com/heimdex/heimdex-editor/internal/playback"
	"github.com/heimdex/heimdex-editor/internal/player"
	"github.com/heimdex/heimdex-editor/internal/plugins"
	"github.com/heimdex/heimdex-editor/internal/publish"
	"github.com/heimdex/heimdex-editor/internal/ui"
	"github.com/heimdex/heimdex-editor/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor agent (HTTP API, render queue and tray)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	cfg, logger, database, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	logger.Info("starting heimdex editor", "version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	if err := os.MkdirAll(cfg.OutputDir(), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	repo := jobs.NewRepository(database.Conn())
	setupCtx := context.Background()

	deviceID, err := ensureSecret(setupCtx, repo, "device_id", 16)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}
	authToken, err := ensureSecret(setupCtx, repo, api.AuthTokenKey, 32)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                 HEIMDEX EDITOR v%-26s║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	catalog, err := plugins.Load(cfg.PluginsFile())
	if err != nil {
		return fmt.Errorf("failed to load plugin catalog: %w", err)
	}
	logger.Info("plugin catalog loaded", "formats", catalog.Names(), "file", logging.SanitizePath(cfg.PluginsFile()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := plugins.NewRegistry(cfg.PluginsFile(), catalog, logging.WithComponent(logger, "plugins"))
	pluginsWatcher := watcher.NewPollWatcher(2*time.Second, logger)
	pluginsWatcher.OnChange(func(path string, event watcher.EventType) {
		registry.Reload()
	})
	go pluginsWatcher.Watch(ctx, cfg.PluginsFile())

	renderer := newRenderer(ctx, cfg, logger)

	publishers := newPublishers(ctx, cfg, logger)
	warnUnpublished(catalog, publishers, logger)

	runner := jobs.NewRunner(repo, renderer, logging.WithComponent(logger, "runner"), cfg.PollInterval(),
		jobs.WithPublisher(publishers))
	go runner.Start(ctx)

	queue := jobs.NewQueue(jobs.QueueConfig{
		Repository: repo,
		OutputDir:  cfg.OutputDir,
		Logger:     logging.WithComponent(logger, "queue"),
		OnEnqueue:  runner.Wake,
	})

	sessionLogger := logging.WithSessionID(logging.WithComponent(logger, "editor"), uuid.NewString())
	media := player.New(sessionLogger)
	events := api.NewEventHub(logging.WithComponent(logger, "events"))
	session := editor.NewSession(editor.Config{
		Media:   media,
		Chooser: dialog.NewDirChooser(cfg.OutputDir()),
		Sink:    queue,
		OnReject: func(field editor.Field) {
			sessionLogger.Debug("input corrected", "field", string(field))
		},
		OnChange: events.Publish,
		Logger:   sessionLogger,
	})

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Session:        session,
		Player:         media,
		Renderer:       renderer,
		Catalog:        registry,
		OutputDir:      cfg.OutputDir(),
		PlaybackServer: playback.NewServer(logger),
		Repository:     repo,
		Runner:         runner,
		Events:         events,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
		Version:        config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Runner:     runner,
			Repository: repo,
			Logger:     logging.WithComponent(logger, "tray"),
			OnOpenOutput: func() error {
				return openFolder(cfg.OutputDir())
			},
			OnQuit: quit,
		})
		go tray.Run(ctx)
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()
	pluginsWatcher.Stop()
	signal.Stop(sigCh)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	events.Close()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newRenderer prefers ffmpeg and falls back to a logging stub so the dialog
// stays usable without it.
func newRenderer(ctx context.Context, cfg config.Config, logger *slog.Logger) pipeline.Renderer {
	ff := pipeline.NewFFmpeg(logging.WithComponent(logger, "ffmpeg"),
		pipeline.WithBinaries(cfg.FFmpegPath(), cfg.FFprobePath()))

	checkCtx, checkCancel := context.WithTimeout(ctx, 10*time.Second)
	defer checkCancel()
	if err := ff.VerifyInstalled(checkCtx); err != nil {
		logger.Warn("ffmpeg unavailable, rendering disabled", "error", err)
		var opts []pipeline.StubOption
		if prober, err := pipeline.NewOpenCVProber(); err == nil {
			opts = append(opts, pipeline.WithProber(prober))
		} else {
			logger.Info("probing with fixed defaults", "reason", err)
		}
		return pipeline.NewStub(logging.WithComponent(logger, "renderer"), pipeline.ProbeResult{
			Width: 1920, Height: 1080, FrameRate: 30,
		}, opts...)
	}
	return ff
}

// newPublishers registers the export plugins this machine can serve. Drive
// is only offered when a service account key is configured.
func newPublishers(ctx context.Context, cfg config.Config, logger *slog.Logger) *publish.Registry {
	publishers := publish.NewRegistry(logging.WithComponent(logger, "publish"))
	if cfg.DriveCredentials() == "" {
		return publishers
	}
	svc, err := publish.NewGoogleDriveService(ctx, cfg.DriveCredentials())
	if err != nil {
		logger.Warn("google drive plugin disabled", "error", err)
		return publishers
	}
	publishers.Register(publish.DrivePluginName,
		publish.NewDrive(svc, cfg.DriveFolder(), logging.WithComponent(logger, "drive")))
	return publishers
}

// warnUnpublished flags catalog plugins that no publisher handles; exports
// picking them will fail.
func warnUnpublished(c editor.Catalog, publishers *publish.Registry, logger *slog.Logger) {
	known := map[string]bool{}
	for _, name := range publishers.Names() {
		known[name] = true
	}
	for _, f := range c {
		for _, p := range f.Plugins {
			if p.PluginName != "" && !known[p.PluginName] {
				logger.Warn("catalog plugin has no handler", "format", f.Name, "plugin", p.PluginName)
			}
		}
	}
}

func openFolder(dir string) error {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name = "explorer"
	default:
		name = "xdg-open"
	}
	return exec.Command(name, dir).Start()
}
