// Package blog stores blog posts generated from conversation logs, along
// with the conversations themselves and the prompt suggestions an analyzer
// attached to them. It serves the listing and detail reads the reader UI
// and the HTTP API are built on.
package blog

import (
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

// Status is a blog post's lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// BlogPost is a generated post derived from one conversation log.
type BlogPost struct {
	ID                uuid.UUID
	ConversationLogID uuid.UUID
	Title             string
	Summary           string
	Tags              []string
	Content           string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ConversationLog is an ingested conversation transcript.
type ConversationLog struct {
	ID           uuid.UUID
	FilePath     string
	FileFormat   string
	Messages     []transcript.Message
	MessageCount int
	CreatedAt    time.Time
}

// PostDetail is a blog post joined with its conversation and the prompt
// suggestions bound to that conversation.
type PostDetail struct {
	Post                 BlogPost
	ConversationMessages []transcript.Message
	PromptSuggestions    []transcript.Suggestion
}
