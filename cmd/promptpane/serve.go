package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptpane/internal/blog"
	"github.com/fyrsmithlabs/promptpane/internal/config"
	"github.com/fyrsmithlabs/promptpane/internal/extraction"
	promptpanehttp "github.com/fyrsmithlabs/promptpane/internal/http"
	"github.com/fyrsmithlabs/promptpane/internal/logging"
	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

var serveTranscriptsDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the promptpane HTTP server",
	Long: `Serve conversation transcripts as blog posts over HTTP.

The server loads every transcript from the transcripts directory at
startup, matches suggestion sidecar files to user prompts, and exposes
the posts plus a fact-extraction endpoint.

Examples:
  promptpane serve
  promptpane serve --transcripts ./conversations
  promptpane serve --config ./promptpane.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveTranscriptsDir, "transcripts", "", "transcripts directory (overrides config)")
}

func runServe() error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if serveTranscriptsDir != "" {
		cfg.Transcripts.Dir = serveTranscriptsDir
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store := blog.NewMemoryStore()
	loader := blog.NewLoader(transcript.NewParser(), logger)
	loaded, err := loader.LoadDir(cfg.Transcripts.Dir, store)
	if err != nil {
		return fmt.Errorf("failed to load transcripts from %s: %w", cfg.Transcripts.Dir, err)
	}
	logger.Info("transcripts loaded",
		zap.String("dir", cfg.Transcripts.Dir),
		zap.Int("count", loaded))

	extractor := extraction.NewService(newExtractionModel(cfg.Extraction, logger), logger)

	srv, err := promptpanehttp.NewServer(store, extractor, logger, &promptpanehttp.Config{
		Host: "localhost",
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Server.Port))
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// newExtractionModel builds the fact-extraction model from config. A nil
// model is valid: extraction then falls back to transcript truncation.
func newExtractionModel(cfg config.ExtractionConfig, logger *zap.Logger) llms.Model {
	if cfg.APIKey == "" {
		logger.Warn("no extraction api_key configured, fact extraction will truncate transcripts")
		return nil
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey.Value()),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		logger.Warn("failed to create extraction model, falling back to truncation", zap.Error(err))
		return nil
	}
	return model
}
