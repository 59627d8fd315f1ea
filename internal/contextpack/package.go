package contextpack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

// ErrEmptyPackage is returned when no non-system messages remain to
// package. Callers suppress the copy action rather than surfacing this as
// a failure.
var ErrEmptyPackage = errors.New("contextpack: no messages to package")

// Instruction headers. Which one a package carries depends on whether the
// history travels raw, as extracted facts, or not at all.
const (
	fullHeader = "Below is the history of a conversation with an AI assistant, " +
		"followed by the prompt to continue from. Use the history as context " +
		"when responding to the prompt."
	factsHeader = "Below are key facts extracted from an earlier conversation " +
		"with an AI assistant, followed by the prompt to continue from. Use " +
		"the facts as context when responding to the prompt."
	factsOnlyHeader = "Below are key facts extracted from a conversation with " +
		"an AI assistant, up to and including the point of interest. Continue " +
		"from this context."
	bareTaskHeader = "Respond to the following prompt."
)

// Package assembles the messages into a context document. The last
// non-system message becomes the <Task> block and everything before it the
// <History> block; a lone message yields a task with no history. Returns
// ErrEmptyPackage when filtering leaves nothing.
func Package(messages []transcript.Message) (string, error) {
	return build(messages, nil)
}

// PackageWithTask is Package with the task message's content replaced by
// task, used when the reader copies an improved candidate prompt in place
// of the original. The replaced message still anchors the history boundary.
func PackageWithTask(messages []transcript.Message, task string) (string, error) {
	return build(messages, &task)
}

func build(messages []transcript.Message, taskOverride *string) (string, error) {
	kept := filterSystem(messages)
	if len(kept) == 0 {
		return "", ErrEmptyPackage
	}

	task := kept[len(kept)-1].Content
	if taskOverride != nil {
		task = *taskOverride
	}
	history := kept[:len(kept)-1]

	parts := []string{fullHeader}
	if len(history) > 0 {
		parts = append(parts, historyBlock(renderHistory(history)))
	}
	parts = append(parts, taskBlock(task))
	return strings.Join(parts, "\n\n"), nil
}

// PackageFacts assembles a compressed document: extracted facts stand in
// for the raw history and the target prompt travels as the task.
func PackageFacts(facts, task string) string {
	return strings.Join([]string{factsHeader, historyBlock(facts), taskBlock(task)}, "\n\n")
}

// PackageFactsOnly assembles a compressed document whose facts already
// cover the point of interest, so no separate task block is emitted.
func PackageFactsOnly(facts string) string {
	return strings.Join([]string{factsOnlyHeader, historyBlock(facts)}, "\n\n")
}

// PackageTaskOnly assembles a minimal document with no history at all,
// used when there is nothing preceding the target to summarize.
func PackageTaskOnly(task string) string {
	return strings.Join([]string{bareTaskHeader, taskBlock(task)}, "\n\n")
}

func filterSystem(messages []transcript.Message) []transcript.Message {
	kept := make([]transcript.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == transcript.RoleSystem {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

func renderHistory(messages []transcript.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role.Label(), m.Content))
	}
	return strings.Join(lines, "\n\n")
}

func historyBlock(body string) string {
	return fmt.Sprintf("<History>\n%s\n</History>", body)
}

func taskBlock(body string) string {
	return fmt.Sprintf("<Task>\n%s\n</Task>", body)
}
