package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptpane/internal/blog"
	"github.com/fyrsmithlabs/promptpane/internal/extraction"
	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

func newTestServer(t *testing.T) (*Server, *blog.MemoryStore) {
	t.Helper()
	store := blog.NewMemoryStore()
	// A nil model makes the extractor fall back to transcript truncation,
	// which is deterministic and good enough for handler tests.
	extractor := extraction.NewService(nil, zap.NewNop())
	s, err := NewServer(store, extractor, zap.NewNop(), nil)
	require.NoError(t, err)
	return s, store
}

func seedPost(store *blog.MemoryStore, title string, created time.Time) (blog.BlogPost, uuid.UUID) {
	logID := uuid.New()
	post := blog.BlogPost{
		ID:                uuid.New(),
		ConversationLogID: logID,
		Title:             title,
		Status:            blog.StatusDraft,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
	log := &blog.ConversationLog{
		ID: logID,
		Messages: []transcript.Message{
			{Role: transcript.RoleUser, Content: "Q1"},
			{Role: transcript.RoleAssistant, Content: "A1"},
		},
		MessageCount: 2,
	}
	suggestions := []transcript.Suggestion{{OriginalPrompt: "Q1", Analysis: "too broad"}}
	store.Put(post, log, suggestions)
	return post, logID
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleListPosts_Pagination(t *testing.T) {
	s, store := newTestServer(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedPost(store, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Hour))
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/posts?page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page ListPostsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.BlogPosts, 2)
	assert.Equal(t, "2", page.NextPageToken)
	assert.Empty(t, page.BlogPosts[0].Content, "list omits content")

	rec = doRequest(t, s, http.MethodGet, "/api/v1/posts?page_size=2&page_token=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.BlogPosts, 1)
	assert.Empty(t, page.NextPageToken)
}

func TestHandleListPosts_BadPageSize(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/posts?page_size=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetPost(t *testing.T) {
	s, store := newTestServer(t)
	post, _ := seedPost(store, "streaming files", time.Now())

	rec := doRequest(t, s, http.MethodGet, "/api/v1/posts/"+post.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail PostDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "streaming files", detail.BlogPost.Title)
	require.Len(t, detail.ConversationMessages, 2)
	assert.Equal(t, transcript.RoleUser, detail.ConversationMessages[0].Role)
	require.Len(t, detail.PromptSuggestions, 1)
	assert.Equal(t, "too broad", detail.PromptSuggestions[0].Analysis)
}

func TestHandleGetPost_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/posts/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/posts/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleExtractFacts(t *testing.T) {
	s, store := newTestServer(t)
	_, logID := seedPost(store, "p", time.Now())

	body := fmt.Sprintf(`{"conversation_log_id":%q,"up_to_message_index":0,"max_characters":100}`, logID)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/facts/extract", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ExtractFactsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.ExtractedFacts, "User: Q1")
	assert.NotContains(t, resp.ExtractedFacts, "A1", "boundary excludes later messages")
	assert.Equal(t, len(resp.ExtractedFacts), resp.ActualCharacters)
}

func TestHandleExtractFacts_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/facts/extract",
		`{"conversation_log_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := fmt.Sprintf(`{"conversation_log_id":%q}`, uuid.NewString())
	rec = doRequest(t, s, http.MethodPost, "/api/v1/facts/extract", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	extractor := extraction.NewService(nil, zap.NewNop())

	_, err := NewServer(nil, extractor, zap.NewNop(), nil)
	assert.Error(t, err)

	_, err = NewServer(blog.NewMemoryStore(), nil, zap.NewNop(), nil)
	assert.Error(t, err)

	_, err = NewServer(blog.NewMemoryStore(), extractor, nil, nil)
	assert.Error(t, err)
}

func TestShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
