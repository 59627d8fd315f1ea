// Package transcript defines conversation transcripts and the prompt
// suggestions attached to them. A transcript is an ordered sequence of
// messages; a message's index is its identity within the transcript.
// Suggestions are produced by an upstream analysis pipeline and bound to
// user messages by content equality (see MatchSuggestions).
package transcript

import "time"

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Label returns the display form of the role ("User", "Assistant", "System").
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	}
	return string(r)
}

// Message is a single turn in a conversation. Immutable once parsed.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Candidate is one improved rewrite of an original prompt.
type Candidate struct {
	Type      string `json:"type"` // structured, role-play, chain-of-thought
	Prompt    string `json:"prompt"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Suggestion is a prompt-improvement suggestion for one user message.
type Suggestion struct {
	OriginalPrompt   string      `json:"original_prompt"`
	Analysis         string      `json:"analysis"`
	BetterCandidates []Candidate `json:"better_candidates"`
	ExpectedEffect   string      `json:"expected_effect,omitempty"`
}
