package blog

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

// ErrNotFound is returned when a post or conversation log does not exist.
var ErrNotFound = errors.New("blog: not found")

// DefaultPageSize applies when a list request carries no page size.
const DefaultPageSize = 100

// ListRequest selects a page of blog posts. PageToken is a stringified
// integer offset; empty means offset 0, and an unparseable token is
// treated the same way. StatusFilter empty means all statuses.
type ListRequest struct {
	PageSize     int
	PageToken    string
	StatusFilter Status
}

// ListResult is one page of posts. NextPageToken is empty on the last page.
type ListResult struct {
	BlogPosts     []BlogPost
	NextPageToken string
}

// Store reads blog posts and their conversations.
type Store interface {
	ListBlogPosts(ctx context.Context, req ListRequest) (*ListResult, error)
	GetBlogPostWithPrompts(ctx context.Context, id uuid.UUID) (*PostDetail, error)
	GetConversationLog(ctx context.Context, id uuid.UUID) (*ConversationLog, error)
}

// MemoryStore is an in-memory Store, populated by the transcript loader.
type MemoryStore struct {
	mu          sync.RWMutex
	posts       []BlogPost
	logs        map[uuid.UUID]*ConversationLog
	suggestions map[uuid.UUID][]transcript.Suggestion
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs:        make(map[uuid.UUID]*ConversationLog),
		suggestions: make(map[uuid.UUID][]transcript.Suggestion),
	}
}

// Put inserts a post with its conversation log and suggestions. Posts are
// kept in creation order, newest first.
func (s *MemoryStore) Put(post BlogPost, log *ConversationLog, suggestions []transcript.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, post)
	sort.SliceStable(s.posts, func(i, j int) bool {
		return s.posts[i].CreatedAt.After(s.posts[j].CreatedAt)
	})
	if log != nil {
		s.logs[log.ID] = log
	}
	if len(suggestions) > 0 {
		s.suggestions[post.ConversationLogID] = suggestions
	}
}

// ListBlogPosts implements Store using offset pagination. The status
// filter applies to the fetched page, so a filtered page may be short
// while more pages remain.
func (s *MemoryStore) ListBlogPosts(_ context.Context, req ListRequest) (*ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	offset, err := strconv.Atoi(req.PageToken)
	if err != nil || offset < 0 {
		offset = 0
	}

	if offset >= len(s.posts) {
		return &ListResult{}, nil
	}
	end := offset + pageSize
	if end > len(s.posts) {
		end = len(s.posts)
	}
	page := s.posts[offset:end]

	out := make([]BlogPost, 0, len(page))
	for _, p := range page {
		if req.StatusFilter != "" && p.Status != req.StatusFilter {
			continue
		}
		out = append(out, p)
	}

	next := ""
	if len(page) == pageSize {
		next = strconv.Itoa(offset + len(page))
	}
	return &ListResult{BlogPosts: out, NextPageToken: next}, nil
}

// GetBlogPostWithPrompts implements Store.
func (s *MemoryStore) GetBlogPostWithPrompts(_ context.Context, id uuid.UUID) (*PostDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.ID != id {
			continue
		}
		detail := &PostDetail{Post: p}
		if log, ok := s.logs[p.ConversationLogID]; ok {
			detail.ConversationMessages = log.Messages
		}
		detail.PromptSuggestions = s.suggestions[p.ConversationLogID]
		return detail, nil
	}
	return nil, ErrNotFound
}

// GetConversationLog implements Store.
func (s *MemoryStore) GetConversationLog(_ context.Context, id uuid.UUID) (*ConversationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return log, nil
}
