package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/promptpane/internal/compression"
)

// Client talks to a promptpane server. It implements
// compression.FactExtractor so the reader can use a remote server for
// fact extraction.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL, e.g.
// "http://localhost:8321".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ListPosts fetches one page of posts.
func (c *Client) ListPosts(ctx context.Context, pageSize int, pageToken, status string) (*ListPostsResponse, error) {
	q := url.Values{}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	if status != "" {
		q.Set("status", status)
	}
	endpoint := c.baseURL + "/api/v1/posts"
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	var out ListPostsResponse
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPost fetches a post with its conversation and prompt suggestions.
func (c *Client) GetPost(ctx context.Context, id string) (*PostDetailResponse, error) {
	var out PostDetailResponse
	if err := c.get(ctx, c.baseURL+"/api/v1/posts/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	var out HealthResponse
	return c.get(ctx, c.baseURL+"/health", &out)
}

// ExtractFacts implements compression.FactExtractor against the server's
// extraction endpoint.
func (c *Client) ExtractFacts(ctx context.Context, req compression.Request) (*compression.Result, error) {
	body, err := json.Marshal(ExtractFactsRequest{
		ConversationLogID: req.ConversationLogID,
		UpToMessageIndex:  req.UpToMessageIndex,
		MaxCharacters:     req.MaxCharacters,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/facts/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out ExtractFactsResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &compression.Result{
		ExtractedFacts: out.ExtractedFacts,
		LimitExceeded:  out.LimitExceeded,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
