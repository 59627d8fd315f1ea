package transcript

import "strings"

// MatchSuggestions associates each suggestion with the first user message
// whose content equals its OriginalPrompt, comparing exactly first and then
// with surrounding whitespace trimmed. Iteration is in message order, so a
// suggestion binds to at most one message and earlier messages win.
//
// Content equality is a weak key; suggestions should carry a message index
// from ingestion instead. Until the upstream pipeline assigns one, this is
// the authoritative association.
func MatchSuggestions(messages []Message, suggestions []Suggestion) map[int]*Suggestion {
	matched := make(map[int]*Suggestion)
	taken := make(map[int]bool, len(suggestions))

	for i, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		for j := range suggestions {
			if taken[j] {
				continue
			}
			s := &suggestions[j]
			if msg.Content == s.OriginalPrompt ||
				strings.TrimSpace(msg.Content) == strings.TrimSpace(s.OriginalPrompt) {
				matched[i] = s
				taken[j] = true
				break
			}
		}
	}

	return matched
}

// SuggestionFor returns the suggestion matched to the message at index, or
// nil when the index is out of range or no suggestion binds to it.
func SuggestionFor(matched map[int]*Suggestion, index int) *Suggestion {
	if index < 0 {
		return nil
	}
	return matched[index]
}
