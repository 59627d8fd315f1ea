package compression

import "fmt"

// ExtractionError wraps a failure from the remote fact-extraction service.
// Callers report it as a distinct failure notification; nothing is written
// to the clipboard when extraction fails.
type ExtractionError struct {
	ConversationLogID string
	Err               error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("fact extraction failed for conversation %s: %v", e.ConversationLogID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
