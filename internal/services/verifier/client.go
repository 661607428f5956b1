package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"veracity/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Job lifecycle states reported by the external service.
const (
	StatusQueued   = "queued"
	StatusStarted  = "started"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// Fact-check modes accepted by the submit endpoint.
const (
	ModeSummary  = "summary"
	ModeThorough = "thorough"
)

// Config captures the runtime settings required to talk to the fact-check service.
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Client is a typed transport wrapper around the external fact-check service.
// It performs no retries; retry policy belongs to the job poller so it stays
// independently testable.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a fact-check service client from configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// APIError reports a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fact-check service: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// HTTPStatus satisfies services.HTTPStatusCarrier for classification.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

type submitRequest struct {
	URL             string `json:"url"`
	Mode            string `json:"mode"`
	GenerateImage   bool   `json:"generate_image"`
	GenerateArticle bool   `json:"generate_article"`
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatus reports polling progress for a submitted job.
type JobStatus struct {
	JobID          string  `json:"job_id"`
	Status         string  `json:"status"`
	Progress       int     `json:"progress"`
	ElapsedSeconds float64 `json:"elapsed_time_seconds"`
}

// Statistics aggregates claim-level counts reported by the service.
type Statistics struct {
	TotalClaims         int     `json:"total_claims"`
	ValidatedClaims     int     `json:"validated_claims"`
	TotalValidationCost float64 `json:"total_validation_cost"`
}

// ValidationOutput is the per-claim verdict block inside a result payload.
type ValidationOutput struct {
	Verdict        string          `json:"verdict"`
	Confidence     float64         `json:"confidence"`
	Summary        string          `json:"summary"`
	KeyEvidence    json.RawMessage `json:"key_evidence,omitempty"`
	SourceAnalysis *SourceAnalysis `json:"source_analysis,omitempty"`
	References     json.RawMessage `json:"references,omitempty"`
}

// SourceAnalysis summarizes the evidence sources behind a verdict.
type SourceAnalysis struct {
	Consensus string `json:"consensus"`
}

// ValidationResult pairs a claim with its validation outcome.
type ValidationResult struct {
	Claim            string           `json:"claim"`
	ValidationOutput ValidationOutput `json:"validation_output"`
	NumSources       int              `json:"num_sources"`
}

// Result is the full validation payload for a finished job. Raw preserves the
// response body verbatim for audit storage.
type Result struct {
	Statistics        Statistics         `json:"statistics"`
	ValidationResults []ValidationResult `json:"validation_results"`
	Raw               json.RawMessage    `json:"-"`
}

// Submit enqueues a fact-check for the given URL and returns the remote job ID.
// Any 2xx response is success; other statuses surface as *APIError.
func (c *Client) Submit(ctx context.Context, sourceURL, mode string) (string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return "", services.Wrap(services.ErrValidation, "verifier", "submit", "url required", nil)
	}
	if mode == "" {
		mode = ModeSummary
	}

	payload := submitRequest{
		URL:             sourceURL,
		Mode:            mode,
		GenerateImage:   false,
		GenerateArticle: true,
	}
	body, err := c.do(ctx, http.MethodPost, "/fact-check/submit", payload)
	if err != nil {
		return "", err
	}

	var parsed submitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", services.Wrap(services.ErrMalformed, "verifier", "submit", "decode response", err)
	}
	if strings.TrimSpace(parsed.JobID) == "" {
		return "", services.Wrap(services.ErrMalformed, "verifier", "submit", "response missing job_id", nil)
	}
	return parsed.JobID, nil
}

// GetStatus fetches the current lifecycle state of a job.
func (c *Client) GetStatus(ctx context.Context, jobID string) (JobStatus, error) {
	var status JobStatus
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return status, services.Wrap(services.ErrValidation, "verifier", "status", "job id required", nil)
	}

	body, err := c.do(ctx, http.MethodGet, "/fact-check/"+url.PathEscape(jobID)+"/status", nil)
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return status, services.Wrap(services.ErrMalformed, "verifier", "status", "decode response", err)
	}
	switch status.Status {
	case StatusQueued, StatusStarted, StatusFinished, StatusFailed:
	default:
		return status, services.Wrap(services.ErrMalformed, "verifier", "status",
			fmt.Sprintf("unknown job status %q", status.Status), nil)
	}
	return status, nil
}

// GetResult fetches the validation payload for a finished job. The body is
// preserved verbatim in Result.Raw.
func (c *Client) GetResult(ctx context.Context, jobID string) (*Result, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, services.Wrap(services.ErrValidation, "verifier", "result", "job id required", nil)
	}

	body, err := c.do(ctx, http.MethodGet, "/fact-check/"+url.PathEscape(jobID)+"/result", nil)
	if err != nil {
		return nil, err
	}

	result := &Result{Raw: json.RawMessage(append([]byte(nil), body...))}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, services.Wrap(services.ErrMalformed, "verifier", "result", "decode response", err)
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	endpoint := c.cfg.BaseURL + path

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("verifier request: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("verifier request: new request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return nil, fmt.Errorf("verifier request: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("verifier request: read body: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
