// Package extraction distills conversation history into key facts using an
// LLM. It backs the fact-extraction endpoint that the compression workflow
// calls to shrink long histories into a pasteable summary.
package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

// DefaultMaxCharacters applies when the caller supplies no character budget.
const DefaultMaxCharacters = 5000

const factPrompt = "Extract the core facts, decisions, and technical details " +
	"from the following conversation. Present them as concise bullet points, " +
	"keeping the most important background. Keep the output under %d characters.\n\n%s"

// Response carries extracted facts plus the limit accounting the caller
// surfaces to the reader.
type Response struct {
	ExtractedFacts   string
	ActualCharacters int
	LimitExceeded    bool
}

// Service extracts facts from conversation messages.
type Service struct {
	model  llms.Model
	logger *zap.Logger
}

// NewService creates an extraction service. logger may be nil.
func NewService(model llms.Model, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{model: model, logger: logger}
}

// ExtractConversationFacts extracts facts over messages[:upToMessageIndex+1]
// (the whole slice when upToMessageIndex is negative). LimitExceeded is set
// when the result fills the entire budget, signalling that a best-effort
// shorter rendering was substituted for a complete one.
func (s *Service) ExtractConversationFacts(ctx context.Context, messages []transcript.Message, upToMessageIndex, maxCharacters int) (*Response, error) {
	if upToMessageIndex >= 0 && upToMessageIndex < len(messages) {
		messages = messages[:upToMessageIndex+1]
	}
	limit := maxCharacters
	if limit <= 0 {
		limit = DefaultMaxCharacters
	}

	facts, err := s.extract(ctx, messages, limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		ExtractedFacts:   facts,
		ActualCharacters: len(facts),
		LimitExceeded:    len(facts) >= limit,
	}, nil
}

// extract runs the LLM over the rendered transcript. When the model call
// fails the raw transcript is truncated and returned instead, so the reader
// still gets usable context.
func (s *Service) extract(ctx context.Context, messages []transcript.Message, limit int) (string, error) {
	text := renderTranscript(messages)
	if text == "" {
		return "", nil
	}

	if s.model == nil {
		return truncate(text, limit), nil
	}

	facts, err := llms.GenerateFromSinglePrompt(ctx, s.model, fmt.Sprintf(factPrompt, limit, text))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.logger.Warn("fact extraction model call failed, falling back to truncated transcript",
			zap.Error(err))
		return truncate(text, limit), nil
	}

	if len(facts) > limit {
		s.logger.Warn("extracted facts exceeded character limit, truncating",
			zap.Int("limit", limit),
			zap.Int("actual", len(facts)))
		facts = truncate(facts, limit)
	}
	return facts, nil
}

// renderTranscript flattens messages into "{Role}: {content}" paragraphs,
// skipping system messages.
func renderTranscript(messages []transcript.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Role == transcript.RoleSystem {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role.Label(), m.Content))
	}
	return strings.Join(lines, "\n\n")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
