package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrPending reports that an article has an in-flight job but no committed
// record yet.
var ErrPending = errors.New("fact-check pending")

// ErrNoCheck reports that an article has neither a record nor an active job.
var ErrNoCheck = errors.New("no fact-check for article")

// Client talks to a running veracity daemon over its local HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a daemon API client. baseURL accepts either a bare
// host:port bind address or a full http URL.
func NewClient(baseURL, token string) *Client {
	base := strings.TrimSpace(baseURL)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Jobs lists in-flight fact-check jobs.
func (c *Client) Jobs(ctx context.Context) ([]Job, error) {
	var resp JobListResponse
	if err := c.do(ctx, http.MethodGet, "/api/jobs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Articles lists registered articles.
func (c *Client) Articles(ctx context.Context) ([]Article, error) {
	var resp ArticleListResponse
	if err := c.do(ctx, http.MethodGet, "/api/articles", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Articles, nil
}

// AddArticle registers a new article.
func (c *Client) AddArticle(ctx context.Context, url, title string) (*Article, error) {
	var article Article
	req := AddArticleRequest{URL: url, Title: title}
	if err := c.do(ctx, http.MethodPost, "/api/articles", req, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// SubmitCheck starts (or joins) a fact-check job for the article.
func (c *Client) SubmitCheck(ctx context.Context, articleID int64) (string, error) {
	var resp SubmitCheckResponse
	path := fmt.Sprintf("/api/articles/%d/check", articleID)
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// GetCheck fetches the committed record for an article. It returns ErrPending
// while a job is still in flight and ErrNoCheck when nothing exists.
func (c *Client) GetCheck(ctx context.Context, articleID int64) (*Record, error) {
	path := fmt.Sprintf("/api/articles/%d/check", articleID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		var record Record
		if err := json.Unmarshal(body, &record); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		return &record, nil
	case http.StatusAccepted:
		return nil, ErrPending
	case http.StatusNotFound:
		return nil, ErrNoCheck
	default:
		return nil, apiError(resp.StatusCode, body)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("daemon api address not configured")
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func apiError(status int, body []byte) error {
	var parsed ErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return fmt.Errorf("daemon api: %s (status %d)", parsed.Error, status)
	}
	return fmt.Errorf("daemon api: unexpected status %d", status)
}
