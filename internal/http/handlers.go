package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptpane/internal/blog"
	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// BlogPostJSON is the wire form of a blog post.
type BlogPostJSON struct {
	ID                string    `json:"id"`
	ConversationLogID string    `json:"conversation_log_id"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary"`
	Tags              []string  `json:"tags"`
	Content           string    `json:"content,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ListPostsResponse is the response body for GET /api/v1/posts.
type ListPostsResponse struct {
	BlogPosts     []BlogPostJSON `json:"blog_posts"`
	NextPageToken string         `json:"next_page_token"`
}

// PostDetailResponse is the response body for GET /api/v1/posts/:id.
type PostDetailResponse struct {
	BlogPost             BlogPostJSON            `json:"blog_post"`
	ConversationMessages []transcript.Message    `json:"conversation_messages"`
	PromptSuggestions    []transcript.Suggestion `json:"prompt_suggestions"`
}

// ExtractFactsRequest is the request body for POST /api/v1/facts/extract.
type ExtractFactsRequest struct {
	ConversationLogID string `json:"conversation_log_id"`
	UpToMessageIndex  int    `json:"up_to_message_index"`
	MaxCharacters     int    `json:"max_characters"`
}

// ExtractFactsResponse is the response body for POST /api/v1/facts/extract.
type ExtractFactsResponse struct {
	ExtractedFacts   string `json:"extracted_facts"`
	ActualCharacters int    `json:"actual_characters"`
	LimitExceeded    bool   `json:"limit_exceeded"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleListPosts(c echo.Context) error {
	pageSize := 0
	if raw := c.QueryParam("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "page_size must be an integer")
		}
		pageSize = n
	}

	result, err := s.store.ListBlogPosts(c.Request().Context(), blog.ListRequest{
		PageSize:     pageSize,
		PageToken:    c.QueryParam("page_token"),
		StatusFilter: blog.Status(c.QueryParam("status")),
	})
	if err != nil {
		s.logger.Error("failed to list posts", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list posts")
	}

	posts := make([]BlogPostJSON, 0, len(result.BlogPosts))
	for _, p := range result.BlogPosts {
		posts = append(posts, postJSON(p, false))
	}
	return c.JSON(http.StatusOK, ListPostsResponse{
		BlogPosts:     posts,
		NextPageToken: result.NextPageToken,
	})
}

func (s *Server) handleGetPost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	detail, err := s.store.GetBlogPostWithPrompts(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		s.logger.Error("failed to get post", zap.String("id", id.String()), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get post")
	}

	messages := detail.ConversationMessages
	if messages == nil {
		messages = []transcript.Message{}
	}
	suggestions := detail.PromptSuggestions
	if suggestions == nil {
		suggestions = []transcript.Suggestion{}
	}
	return c.JSON(http.StatusOK, PostDetailResponse{
		BlogPost:             postJSON(detail.Post, true),
		ConversationMessages: messages,
		PromptSuggestions:    suggestions,
	})
}

func (s *Server) handleExtractFacts(c echo.Context) error {
	var req ExtractFactsRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid extract request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	logID, err := uuid.Parse(req.ConversationLogID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation_log_id")
	}

	log, err := s.store.GetConversationLog(c.Request().Context(), logID)
	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation log not found")
		}
		s.logger.Error("failed to load conversation log", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load conversation log")
	}

	resp, err := s.extractor.ExtractConversationFacts(
		c.Request().Context(), log.Messages, req.UpToMessageIndex, req.MaxCharacters)
	if err != nil {
		s.logger.Error("fact extraction failed",
			zap.String("conversation_log_id", logID.String()),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "fact extraction failed")
	}

	return c.JSON(http.StatusOK, ExtractFactsResponse{
		ExtractedFacts:   resp.ExtractedFacts,
		ActualCharacters: resp.ActualCharacters,
		LimitExceeded:    resp.LimitExceeded,
	})
}

func postJSON(p blog.BlogPost, includeContent bool) BlogPostJSON {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	out := BlogPostJSON{
		ID:                p.ID.String(),
		ConversationLogID: p.ConversationLogID.String(),
		Title:             p.Title,
		Summary:           p.Summary,
		Tags:              tags,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if includeContent {
		out.Content = p.Content
	}
	return out
}
