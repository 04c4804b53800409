// satchel serves the attachment-selection and upload-orchestration API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"satchel/internal/composer"
	"satchel/internal/config"
	"satchel/internal/knowledge"
	"satchel/internal/observability"
	serverhttp "satchel/internal/server/http"
	"satchel/internal/uploader"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "satchel",
		Short: "Attachment selection and upload orchestration service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Logging)
	logger.Info("starting satchel",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"upload_endpoint", cfg.Upload.EndpointURL,
		"drive_enabled", cfg.Drive.Enabled,
	)

	metrics, err := observability.NewMetrics(cfg.Metrics)
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	settings := composer.Settings{
		MaxFileSizeMB:        cfg.Upload.MaxFileSizeMB,
		GoogleDriveEnabled:   cfg.Drive.Enabled,
		SpeechToTextLanguage: cfg.Upload.SpeechToTextLanguage,
		ResourceURLBase:      cfg.Upload.ResourceURLBase,
	}
	user := composer.UserContext{
		Role:        cfg.User.Role,
		Permissions: composer.Permissions{FileUpload: cfg.User.FileUpload},
	}

	store := composer.NewSelectionStore(composer.WithInstrumentation(metrics))
	hub := serverhttp.NewHub(store, logger)

	uploadClient := uploader.New(cfg.Upload.EndpointURL, logger,
		uploader.WithAuthToken(cfg.Upload.AuthToken))
	orchestrator := composer.NewUploadOrchestrator(store, uploadClient, hub, settings, user, logger, metrics)
	intake := composer.NewBatchIntake(orchestrator, hub, settings, logger, metrics)

	provider := knowledge.NewCachingProvider(
		knowledge.NewHTTPProvider(cfg.Knowledge.EndpointURL, logger),
		cfg.User.Role, // one process serves one user context
		cfg.Knowledge.CacheTTL,
	)

	srv := serverhttp.NewServer(cfg.Server, serverhttp.Deps{
		Store:        store,
		Orchestrator: orchestrator,
		Intake:       intake,
		Knowledge:    provider,
		Settings:     settings,
		DriveConfig:  cfg.Drive.Picker,
		Notifier:     hub,
		Logger:       logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := metrics.Shutdown(ctx); err != nil {
		logger.Warn("metrics shutdown failed", "error", err)
	}
	logger.Info("stopped")
	return nil
}
