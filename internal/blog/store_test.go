package blog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

func seedPosts(t *testing.T, n int) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		status := StatusDraft
		if i%2 == 0 {
			status = StatusPublished
		}
		store.Put(BlogPost{
			ID:                uuid.New(),
			ConversationLogID: uuid.New(),
			Title:             fmt.Sprintf("post %d", i),
			Status:            status,
			CreatedAt:         base.Add(time.Duration(i) * time.Hour),
		}, nil, nil)
	}
	return store
}

func TestListBlogPosts_PaginationRoundTrip(t *testing.T) {
	store := seedPosts(t, 7)
	ctx := context.Background()

	var all []BlogPost
	token := ""
	pages := 0
	for {
		res, err := store.ListBlogPosts(ctx, ListRequest{PageSize: 3, PageToken: token})
		require.NoError(t, err)
		all = append(all, res.BlogPosts...)
		pages++
		if res.NextPageToken == "" {
			break
		}
		token = res.NextPageToken
	}

	assert.Equal(t, 3, pages)
	require.Len(t, all, 7)
	// Newest first.
	for i := 1; i < len(all); i++ {
		assert.True(t, !all[i].CreatedAt.After(all[i-1].CreatedAt))
	}
}

func TestListBlogPosts_FullFinalPageEmitsToken(t *testing.T) {
	store := seedPosts(t, 6)

	res, err := store.ListBlogPosts(context.Background(), ListRequest{PageSize: 3, PageToken: "3"})
	require.NoError(t, err)
	assert.Len(t, res.BlogPosts, 3)
	// The page was full, so a token is emitted even though nothing follows.
	assert.Equal(t, "6", res.NextPageToken)

	res, err = store.ListBlogPosts(context.Background(), ListRequest{PageSize: 3, PageToken: res.NextPageToken})
	require.NoError(t, err)
	assert.Empty(t, res.BlogPosts)
	assert.Empty(t, res.NextPageToken)
}

func TestListBlogPosts_BadTokenMeansOffsetZero(t *testing.T) {
	store := seedPosts(t, 2)

	fromEmpty, err := store.ListBlogPosts(context.Background(), ListRequest{PageToken: ""})
	require.NoError(t, err)
	fromGarbage, err := store.ListBlogPosts(context.Background(), ListRequest{PageToken: "not-a-number"})
	require.NoError(t, err)

	assert.Equal(t, fromEmpty.BlogPosts, fromGarbage.BlogPosts)
	assert.Len(t, fromEmpty.BlogPosts, 2)
}

func TestListBlogPosts_StatusFilterAppliesToPage(t *testing.T) {
	store := seedPosts(t, 4)

	res, err := store.ListBlogPosts(context.Background(), ListRequest{
		PageSize:     4,
		StatusFilter: StatusPublished,
	})
	require.NoError(t, err)
	assert.Len(t, res.BlogPosts, 2)
	for _, p := range res.BlogPosts {
		assert.Equal(t, StatusPublished, p.Status)
	}
}

func TestListBlogPosts_FilterShortensPageButKeepsToken(t *testing.T) {
	store := seedPosts(t, 6)

	// The page is full before filtering, so the walk continues from the
	// pre-filter offset even though the filter shortened the result.
	res, err := store.ListBlogPosts(context.Background(), ListRequest{
		PageSize:     4,
		StatusFilter: StatusDraft,
	})
	require.NoError(t, err)
	assert.Len(t, res.BlogPosts, 2)
	assert.Equal(t, "4", res.NextPageToken)

	res, err = store.ListBlogPosts(context.Background(), ListRequest{
		PageSize:     4,
		PageToken:    res.NextPageToken,
		StatusFilter: StatusDraft,
	})
	require.NoError(t, err)
	assert.Len(t, res.BlogPosts, 1)
	assert.Empty(t, res.NextPageToken)
}

func TestGetBlogPostWithPrompts(t *testing.T) {
	store := NewMemoryStore()
	logID := uuid.New()
	post := BlogPost{ID: uuid.New(), ConversationLogID: logID, Title: "t"}
	log := &ConversationLog{
		ID:       logID,
		Messages: []transcript.Message{{Role: transcript.RoleUser, Content: "Q1"}},
	}
	suggestions := []transcript.Suggestion{{OriginalPrompt: "Q1", Analysis: "too vague"}}
	store.Put(post, log, suggestions)

	detail, err := store.GetBlogPostWithPrompts(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, detail.Post.ID)
	require.Len(t, detail.ConversationMessages, 1)
	require.Len(t, detail.PromptSuggestions, 1)
	assert.Equal(t, "too vague", detail.PromptSuggestions[0].Analysis)

	_, err = store.GetBlogPostWithPrompts(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetConversationLog(t *testing.T) {
	store := NewMemoryStore()
	logID := uuid.New()
	store.Put(BlogPost{ID: uuid.New(), ConversationLogID: logID},
		&ConversationLog{ID: logID, MessageCount: 3}, nil)

	log, err := store.GetConversationLog(context.Background(), logID)
	require.NoError(t, err)
	assert.Equal(t, 3, log.MessageCount)

	_, err = store.GetConversationLog(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
