package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

// fakeModel returns a canned completion or error.
type fakeModel struct {
	reply   string
	err     error
	prompts []string
}

func (m *fakeModel) GenerateContent(_ context.Context, parts []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, p := range parts {
		for _, part := range p.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.reply}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.prompts = append(m.prompts, prompt)
	return m.reply, nil
}

func messages() []transcript.Message {
	return []transcript.Message{
		{Role: transcript.RoleSystem, Content: "be terse"},
		{Role: transcript.RoleUser, Content: "Q1"},
		{Role: transcript.RoleAssistant, Content: "A1"},
		{Role: transcript.RoleUser, Content: "Q2"},
	}
}

func TestExtractConversationFacts_UsesModelOutput(t *testing.T) {
	model := &fakeModel{reply: "- decided on jsonl"}
	svc := NewService(model, nil)

	resp, err := svc.ExtractConversationFacts(context.Background(), messages(), -1, 5000)

	require.NoError(t, err)
	assert.Equal(t, "- decided on jsonl", resp.ExtractedFacts)
	assert.Equal(t, len(resp.ExtractedFacts), resp.ActualCharacters)
	assert.False(t, resp.LimitExceeded)

	require.NotEmpty(t, model.prompts)
	prompt := model.prompts[0]
	assert.Contains(t, prompt, "User: Q1")
	assert.NotContains(t, prompt, "be terse", "system messages stay out of the prompt")
}

func TestExtractConversationFacts_BoundarySlicesPrefix(t *testing.T) {
	model := &fakeModel{reply: "- facts"}
	svc := NewService(model, nil)

	_, err := svc.ExtractConversationFacts(context.Background(), messages(), 2, 5000)

	require.NoError(t, err)
	require.NotEmpty(t, model.prompts)
	assert.Contains(t, model.prompts[0], "Assistant: A1")
	assert.NotContains(t, model.prompts[0], "Q2", "messages past the boundary are excluded")
}

func TestExtractConversationFacts_LimitExceededWhenBudgetFilled(t *testing.T) {
	model := &fakeModel{reply: strings.Repeat("x", 200)}
	svc := NewService(model, nil)

	resp, err := svc.ExtractConversationFacts(context.Background(), messages(), -1, 100)

	require.NoError(t, err)
	assert.Len(t, resp.ExtractedFacts, 100, "output truncated to the budget")
	assert.True(t, resp.LimitExceeded)
}

func TestExtractConversationFacts_FallsBackOnModelFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("upstream down")}
	svc := NewService(model, nil)

	resp, err := svc.ExtractConversationFacts(context.Background(), messages(), -1, 5000)

	require.NoError(t, err)
	assert.Contains(t, resp.ExtractedFacts, "User: Q1")
	assert.Contains(t, resp.ExtractedFacts, "Assistant: A1")
}

func TestExtractConversationFacts_EmptyMessages(t *testing.T) {
	svc := NewService(&fakeModel{reply: "unused"}, nil)

	resp, err := svc.ExtractConversationFacts(context.Background(), nil, -1, 5000)

	require.NoError(t, err)
	assert.Empty(t, resp.ExtractedFacts)
	assert.False(t, resp.LimitExceeded)
}

func TestExtractConversationFacts_DefaultBudget(t *testing.T) {
	model := &fakeModel{reply: "- facts"}
	svc := NewService(model, nil)

	resp, err := svc.ExtractConversationFacts(context.Background(), messages(), -1, 0)

	require.NoError(t, err)
	assert.False(t, resp.LimitExceeded)
	require.NotEmpty(t, model.prompts)
	assert.Contains(t, model.prompts[0], "5000")
}
