// Package compression produces a size-bounded variant of a context package
// by replacing the raw history with key facts extracted by a remote
// service. The truncation boundary depends on the target message's role: a
// user target keeps its own content as the task and summarizes everything
// strictly before it, while an assistant target folds itself into the
// summary and emits no task block.
package compression

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/promptpane/internal/contextpack"
	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

const tracerName = "github.com/fyrsmithlabs/promptpane/internal/compression"
const meterName = "compression"

// DefaultMaxCharacters bounds the extracted facts when the caller does not
// supply a budget.
const DefaultMaxCharacters = 5000

// Request asks the extraction service for key facts over a prefix of a
// conversation log.
type Request struct {
	ConversationLogID string
	UpToMessageIndex  int
	MaxCharacters     int
}

// Result is the extraction service's answer. LimitExceeded means the
// service could not honor the character budget and substituted a
// best-effort shorter rendering; the facts are still usable.
type Result struct {
	ExtractedFacts string
	LimitExceeded  bool
}

// FactExtractor is the remote fact-extraction contract.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, req Request) (*Result, error)
}

// Composition is an assembled compressed context package.
type Composition struct {
	Text          string
	LimitExceeded bool
}

// Config holds workflow tunables.
type Config struct {
	MaxCharacters int
}

// DefaultConfig returns the default workflow configuration.
func DefaultConfig() Config {
	return Config{MaxCharacters: DefaultMaxCharacters}
}

// Workflow composes compressed context packages.
type Workflow struct {
	extractor FactExtractor
	config    Config

	tracer trace.Tracer
	meter  metric.Meter

	composeCounter metric.Int64Counter
	composeTime    metric.Float64Histogram
	composeErrors  metric.Int64Counter
}

// NewWorkflow creates a workflow backed by the given extractor.
func NewWorkflow(extractor FactExtractor, config Config) (*Workflow, error) {
	if config.MaxCharacters <= 0 {
		config.MaxCharacters = DefaultMaxCharacters
	}
	w := &Workflow{
		extractor: extractor,
		config:    config,
		tracer:    otel.Tracer(tracerName),
		meter:     otel.Meter(meterName),
	}
	if err := w.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return w, nil
}

// Compose builds a compressed context package targeting messages[index].
//
// A negative boundary (user target at index 0) skips the remote call and
// yields a minimal task-only package. Remote failures return an
// *ExtractionError and produce no composition.
func (w *Workflow) Compose(ctx context.Context, conversationLogID string, messages []transcript.Message, index int) (*Composition, error) {
	ctx, span := w.tracer.Start(ctx, "compression.compose",
		trace.WithAttributes(
			attribute.String("conversation_log_id", conversationLogID),
			attribute.Int("target_index", index),
			attribute.Int("message_count", len(messages)),
		),
	)
	defer span.End()

	start := time.Now()

	if index < 0 || index >= len(messages) {
		return nil, fmt.Errorf("target index %d out of range for %d messages", index, len(messages))
	}
	target := messages[index]

	var upTo int
	var hasTask bool
	switch target.Role {
	case transcript.RoleUser:
		upTo = index - 1
		hasTask = true
	case transcript.RoleAssistant:
		upTo = index
		hasTask = false
	default:
		return nil, fmt.Errorf("cannot compress around a %s message", target.Role)
	}

	if upTo < 0 {
		// Nothing precedes the target; no remote call needed.
		w.composeCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String("mode", "task_only")))
		return &Composition{Text: contextpack.PackageTaskOnly(target.Content)}, nil
	}

	result, err := w.extractor.ExtractFacts(ctx, Request{
		ConversationLogID: conversationLogID,
		UpToMessageIndex:  upTo,
		MaxCharacters:     w.config.MaxCharacters,
	})
	if err != nil {
		span.RecordError(err)
		w.composeErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("error_type", "extraction_failed")))
		return nil, &ExtractionError{ConversationLogID: conversationLogID, Err: err}
	}

	var text string
	mode := "facts_only"
	if hasTask {
		text = contextpack.PackageFacts(result.ExtractedFacts, target.Content)
		mode = "facts_and_task"
	} else {
		text = contextpack.PackageFactsOnly(result.ExtractedFacts)
	}

	w.composeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
	w.composeTime.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("mode", mode)))

	return &Composition{Text: text, LimitExceeded: result.LimitExceeded}, nil
}

func (w *Workflow) initMetrics() error {
	var err error

	w.composeCounter, err = w.meter.Int64Counter(
		"compression.compose_total",
		metric.WithDescription("Total number of compressed package compositions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create compose counter: %w", err)
	}

	w.composeTime, err = w.meter.Float64Histogram(
		"compression.compose_duration_seconds",
		metric.WithDescription("Time spent composing compressed packages"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create compose duration histogram: %w", err)
	}

	w.composeErrors, err = w.meter.Int64Counter(
		"compression.compose_errors_total",
		metric.WithDescription("Total number of failed compositions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create compose error counter: %w", err)
	}

	return nil
}
