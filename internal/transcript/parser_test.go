package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTranscript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseFile_JSONLFlatContent(t *testing.T) {
	path := writeTranscript(t, "session.jsonl", `
{"type":"user","message":"How do maps work?","timestamp":"2025-03-01T10:00:00Z"}
{"type":"assistant","message":"They are hash tables."}
`)

	p := NewParser()
	result, err := p.ParseFile(path)
	require.NoError(t, err)

	require.Len(t, result.Messages, 2)
	assert.Equal(t, RoleUser, result.Messages[0].Role)
	assert.Equal(t, "How do maps work?", result.Messages[0].Content)
	require.NotNil(t, result.Messages[0].Timestamp)
	assert.Equal(t, RoleAssistant, result.Messages[1].Role)
}

func TestParseFile_JSONLNestedBlocks(t *testing.T) {
	path := writeTranscript(t, "session.jsonl", `
{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"part one"},{"type":"tool_use"},{"type":"text","text":"part two"}]}}
`)

	result, err := NewParser().ParseFile(path)
	require.NoError(t, err)

	require.Len(t, result.Messages, 1)
	assert.Equal(t, "part one\npart two", result.Messages[0].Content)
}

func TestParseFile_JSONLSkipsBadLines(t *testing.T) {
	path := writeTranscript(t, "session.jsonl", `
{"type":"user","message":"ok"}
not json at all
{"type":"summary","message":"ignored"}
{"type":"assistant","message":"fine"}
`)

	result, err := NewParser().ParseFile(path)
	require.NoError(t, err)

	assert.Len(t, result.Messages, 2)
	assert.Equal(t, 1, result.ErrorCount)
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	path := writeTranscript(t, "session.csv", "a,b")
	_, err := NewParser().ParseFile(path)
	assert.Error(t, err)
}

func TestParseMarkdown(t *testing.T) {
	content := `---
title: demo
---
intro text that is ignored

## User
Explain goroutines.

## Assistant
They are lightweight threads.

## Claude
Continued answer.
`
	result := NewParser().ParseMarkdown(content)

	require.Len(t, result.Messages, 3)
	assert.Equal(t, RoleUser, result.Messages[0].Role)
	assert.Equal(t, "Explain goroutines.", result.Messages[0].Content)
	assert.Equal(t, RoleAssistant, result.Messages[1].Role)
	assert.Equal(t, RoleAssistant, result.Messages[2].Role, "Claude heading maps to assistant")
}

func TestParseMarkdown_UnknownHeadingRecorded(t *testing.T) {
	content := "## Narrator\nsome text\n\n## User\nreal prompt\n"
	result := NewParser().ParseMarkdown(content)

	require.Len(t, result.Messages, 1)
	assert.Equal(t, 1, result.ErrorCount)
}
