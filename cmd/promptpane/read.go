package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptpane/internal/blog"
	"github.com/fyrsmithlabs/promptpane/internal/clipboard"
	"github.com/fyrsmithlabs/promptpane/internal/compression"
	"github.com/fyrsmithlabs/promptpane/internal/config"
	"github.com/fyrsmithlabs/promptpane/internal/extraction"
	promptpanehttp "github.com/fyrsmithlabs/promptpane/internal/http"
	"github.com/fyrsmithlabs/promptpane/internal/logging"
	"github.com/fyrsmithlabs/promptpane/internal/notify"
	"github.com/fyrsmithlabs/promptpane/internal/sidebar"
	"github.com/fyrsmithlabs/promptpane/internal/transcript"
	"github.com/fyrsmithlabs/promptpane/internal/transition"
	"github.com/fyrsmithlabs/promptpane/internal/tui"
	"github.com/fyrsmithlabs/promptpane/internal/viewport"
)

var (
	readTranscriptsDir string
	readLogFile        string
	readRemote         bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read transcripts in the terminal",
	Long: `Open the terminal reader over a transcripts directory.

The reader shows the post list, and inside a post an annotation sidebar
that follows the prompt currently in the reading band. Keys: tab cycles
prompts, o copies the original prompt package, c copies the improved
package, x copies the compressed package, / searches, q quits.

Compressed copies call the fact-extraction model directly unless
--remote is set, in which case the configured server performs the
extraction.

Examples:
  promptpane read
  promptpane read ./conversations/debugging-session.md
  promptpane read --transcripts ./conversations --log-file ./reader.log
  promptpane read --remote --server http://localhost:8321`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := ""
		if len(args) == 1 {
			file = args[0]
		}
		return runRead(file)
	},
}

func init() {
	readCmd.Flags().StringVar(&readTranscriptsDir, "transcripts", "", "transcripts directory (overrides config)")
	readCmd.Flags().StringVar(&readLogFile, "log-file", "", "write logs to this file (the terminal belongs to the reader)")
	readCmd.Flags().BoolVar(&readRemote, "remote", false, "use the promptpane server for fact extraction")
}

func runRead(file string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if readTranscriptsDir != "" {
		cfg.Transcripts.Dir = readTranscriptsDir
	}

	logger := zap.NewNop()
	if readLogFile != "" {
		fileLogger, closeLog, err := logging.NewFileLogger(cfg.Logging, readLogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = closeLog() }()
		logger = fileLogger
	}

	store := blog.NewMemoryStore()
	loader := blog.NewLoader(transcript.NewParser(), logger)
	if file != "" {
		if err := loader.LoadFile(file, store); err != nil {
			return fmt.Errorf("failed to load transcript %s: %w", file, err)
		}
	} else {
		loaded, err := loader.LoadDir(cfg.Transcripts.Dir, store)
		if err != nil {
			return fmt.Errorf("failed to load transcripts from %s: %w", cfg.Transcripts.Dir, err)
		}
		if loaded == 0 {
			return fmt.Errorf("no transcripts found in %s", cfg.Transcripts.Dir)
		}
	}

	resolver := viewport.NewResolver(viewport.Config{
		BandTop:    cfg.Viewport.BandTop,
		BandBottom: cfg.Viewport.BandBottom,
		MinRatio:   cfg.Viewport.MinRatio,
	})
	defer resolver.Close()

	focus := clipboard.NewFocusTracker(true)
	deliverer := clipboard.NewDeliverer(
		clipboard.NewOSC52Writer(os.Stderr),
		focus,
		logger,
		clipboard.WithTimeout(cfg.Clipboard.FocusTimeout.Duration()),
		clipboard.WithSettle(cfg.Clipboard.SettleDelay.Duration()),
	)

	var extractor compression.FactExtractor
	if readRemote {
		extractor = promptpanehttp.NewClient(serverURL)
	} else {
		extractor = &localExtractor{
			store: store,
			svc:   extraction.NewService(newExtractionModel(cfg.Extraction, logger), logger),
		}
	}
	workflow, err := compression.NewWorkflow(extractor, compression.Config{
		MaxCharacters: cfg.Extraction.MaxCharacters,
	})
	if err != nil {
		return fmt.Errorf("failed to create compression workflow: %w", err)
	}

	hub := notify.NewHub()

	var model *tui.Model
	coordinator := transition.NewCoordinator(cfg.Sidebar.TransitionSettle.Duration(), func(d transition.Display) {
		if model != nil {
			model.OnDisplay(d)
		}
	})
	controller := sidebar.NewController(resolver, coordinator, workflow, deliverer, hub, logger)
	defer controller.Close()

	model = tui.NewModel(tui.Deps{
		Store:      store,
		Controller: controller,
		Resolver:   resolver,
		Focus:      focus,
		Hub:        hub,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("reader failed: %w", err)
	}
	return nil
}

// localExtractor performs fact extraction in process, resolving the
// conversation log from the reader's own store.
type localExtractor struct {
	store *blog.MemoryStore
	svc   *extraction.Service
}

func (e *localExtractor) ExtractFacts(ctx context.Context, req compression.Request) (*compression.Result, error) {
	id, err := uuid.Parse(req.ConversationLogID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation log id %q: %w", req.ConversationLogID, err)
	}
	log, err := e.store.GetConversationLog(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := e.svc.ExtractConversationFacts(ctx, log.Messages, req.UpToMessageIndex, req.MaxCharacters)
	if err != nil {
		return nil, err
	}
	return &compression.Result{
		ExtractedFacts: resp.ExtractedFacts,
		LimitExceeded:  resp.LimitExceeded,
	}, nil
}
