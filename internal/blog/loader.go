package blog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

// suggestionsSuffix names the sidecar file carrying an analyzer's prompt
// suggestions for a transcript: "<name>.suggestions.json" next to
// "<name>.md" or "<name>.jsonl".
const suggestionsSuffix = ".suggestions.json"

// Loader populates a MemoryStore from a directory of transcript files.
type Loader struct {
	parser *transcript.Parser
	logger *zap.Logger
}

// NewLoader creates a loader. logger may be nil.
func NewLoader(parser *transcript.Parser, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{parser: parser, logger: logger}
}

// LoadDir parses every .md and .jsonl file directly under dir into the
// store, one post per transcript. Files that fail to parse are skipped
// with a warning; a missing suggestions sidecar is not an error.
func (l *Loader) LoadDir(dir string, store *MemoryStore) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read transcript directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".md" && ext != ".jsonl" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := l.loadFile(path, store); err != nil {
			l.logger.Warn("skipping transcript",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}

// LoadFile parses one transcript file into the store.
func (l *Loader) LoadFile(path string, store *MemoryStore) error {
	return l.loadFile(path, store)
}

func (l *Loader) loadFile(path string, store *MemoryStore) error {
	result, err := l.parser.ParseFile(path)
	if err != nil {
		return err
	}
	if len(result.Messages) == 0 {
		return fmt.Errorf("no messages in %s", path)
	}
	if result.ErrorCount > 0 {
		l.logger.Warn("transcript parsed with errors",
			zap.String("path", path),
			zap.Int("error_count", result.ErrorCount))
	}

	suggestions, err := l.loadSuggestions(path)
	if err != nil {
		l.logger.Warn("ignoring unreadable suggestions sidecar",
			zap.String("path", path),
			zap.Error(err))
	}

	now := time.Now()
	info, err := os.Stat(path)
	if err == nil {
		now = info.ModTime()
	}

	logID := uuid.New()
	log := &ConversationLog{
		ID:           logID,
		FilePath:     path,
		FileFormat:   strings.TrimPrefix(filepath.Ext(path), "."),
		Messages:     result.Messages,
		MessageCount: len(result.Messages),
		CreatedAt:    now,
	}
	post := BlogPost{
		ID:                uuid.New(),
		ConversationLogID: logID,
		Title:             titleFrom(path, result.Messages),
		Summary:           summaryFrom(result.Messages),
		Content:           renderContent(result.Messages),
		Status:            StatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	store.Put(post, log, suggestions)
	return nil
}

func (l *Loader) loadSuggestions(transcriptPath string) ([]transcript.Suggestion, error) {
	base := strings.TrimSuffix(transcriptPath, filepath.Ext(transcriptPath))
	data, err := os.ReadFile(base + suggestionsSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var suggestions []transcript.Suggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}
	return suggestions, nil
}

// titleFrom derives a post title from the transcript filename.
func titleFrom(path string, _ []transcript.Message) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	title := strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.TrimSpace(title)
}

// summaryFrom takes the first user message, truncated to a listing-sized
// excerpt.
func summaryFrom(messages []transcript.Message) string {
	for _, m := range messages {
		if m.Role != transcript.RoleUser {
			continue
		}
		summary := strings.TrimSpace(m.Content)
		if len(summary) > 200 {
			summary = summary[:200]
		}
		return summary
	}
	return ""
}

func renderContent(messages []transcript.Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", m.Role.Label(), m.Content)
	}
	return b.String()
}
