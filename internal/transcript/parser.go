package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Parser reads conversation transcripts from disk. It understands JSONL
// exports (one message object per line, Claude-style nested content blocks)
// and markdown logs with "## User" / "## Assistant" headings.
type Parser struct{}

// NewParser creates a transcript parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseError records a recoverable failure at a specific line.
type ParseError struct {
	Line  int
	Error string
}

// ParseResult holds parsed messages and any per-line errors encountered.
type ParseResult struct {
	Messages   []Message
	Errors     []ParseError
	ErrorCount int
}

const maxStoredErrors = 10

// ParseFile parses a transcript file, selecting the format by extension.
// Per-line failures are tracked and skipped rather than aborting the file.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return p.parseJSONL(path)
	case ".md", ".markdown":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		return p.ParseMarkdown(string(content)), nil
	default:
		return nil, fmt.Errorf("unsupported transcript format: %s", filepath.Ext(path))
	}
}

// jsonlMessage is the raw per-line structure of a JSONL transcript.
type jsonlMessage struct {
	Type      string          `json:"type"`
	Role      string          `json:"role,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// nestedMessage is the Claude-style nested message envelope.
type nestedMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (p *Parser) parseJSONL(path string) (*ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	result := &ParseResult{Messages: make([]Message, 0)}
	scanner := bufio.NewScanner(file)

	// Large assistant turns routinely exceed the default token size.
	const maxScanTokenSize = 10 * 1024 * 1024
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var jm jsonlMessage
		if err := json.Unmarshal([]byte(line), &jm); err != nil {
			result.recordError(lineNum, fmt.Sprintf("JSON parse error: %v", err))
			continue
		}

		msg, ok := p.decodeMessage(jm)
		if !ok {
			continue
		}
		result.Messages = append(result.Messages, msg)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning file: %w", err)
	}

	return result, nil
}

// decodeMessage converts a raw JSONL record to a Message. Records that are
// not conversation turns (summaries, tool traffic) are skipped.
func (p *Parser) decodeMessage(jm jsonlMessage) (Message, bool) {
	role := jm.Role
	if role == "" {
		role = jm.Type
	}
	switch role {
	case "user", "assistant", "system":
	default:
		return Message{}, false
	}

	raw := jm.Message
	if raw == nil {
		raw = jm.Content
	}

	var content string
	// Flat string content first, then nested content blocks.
	if err := json.Unmarshal(raw, &content); err != nil {
		var nested nestedMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			var parts []string
			for _, block := range nested.Content {
				if block.Type == "text" && block.Text != "" {
					parts = append(parts, block.Text)
				}
			}
			content = strings.Join(parts, "\n")
			if nested.Role != "" {
				role = nested.Role
			}
		}
	}

	if strings.TrimSpace(content) == "" {
		return Message{}, false
	}

	msg := Message{Role: Role(role), Content: content}
	if jm.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, jm.Timestamp); err == nil {
			msg.Timestamp = &ts
		}
	}
	return msg, true
}

// Heading aliases seen in exported markdown logs.
var markdownRoles = map[string]Role{
	"user":      RoleUser,
	"assistant": RoleAssistant,
	"system":    RoleSystem,
	"ai":        RoleAssistant,
	"claude":    RoleAssistant,
	"chatgpt":   RoleAssistant,
	"gemini":    RoleAssistant,
}

var headingRe = regexp.MustCompile(`^##\s+(.+?)\s*$`)

// ParseMarkdown parses a markdown transcript where each turn starts with a
// level-two heading naming the speaker. Text before the first heading is
// ignored, as is any YAML frontmatter.
func (p *Parser) ParseMarkdown(content string) *ParseResult {
	result := &ParseResult{Messages: make([]Message, 0)}

	body := stripFrontmatter(content)

	var current *Message
	flush := func() {
		if current != nil && strings.TrimSpace(current.Content) != "" {
			current.Content = strings.TrimSpace(current.Content)
			result.Messages = append(result.Messages, *current)
		}
		current = nil
	}

	for lineNum, line := range strings.Split(body, "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			role, ok := markdownRoles[strings.ToLower(strings.TrimSpace(m[1]))]
			if !ok {
				result.recordError(lineNum+1, fmt.Sprintf("unknown speaker heading: %q", m[1]))
				flush()
				continue
			}
			flush()
			current = &Message{Role: role}
			continue
		}
		if current != nil {
			current.Content += line + "\n"
		}
	}
	flush()

	return result
}

func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---\n") {
		return content
	}
	rest := content[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return content
	}
	return rest[end+4:]
}

func (r *ParseResult) recordError(line int, msg string) {
	r.ErrorCount++
	if len(r.Errors) < maxStoredErrors {
		r.Errors = append(r.Errors, ParseError{Line: line, Error: msg})
	}
}
