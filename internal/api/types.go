package api

import "encoding/json"

// DaemonStatus mirrors GET /api/status.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	DatabasePath string `json:"database_path"`
	LockFilePath string `json:"lock_file_path"`
	ActiveJobs   []Job  `json:"active_jobs"`
}

// Job is the wire form of an in-flight fact-check job.
type Job struct {
	JobID       string `json:"job_id"`
	ArticleID   int64  `json:"article_id"`
	SourceURL   string `json:"source_url"`
	State       string `json:"state"`
	Attempt     int    `json:"attempt"`
	SubmittedAt string `json:"submitted_at"`
	Deadline    string `json:"deadline"`
}

// JobListResponse mirrors GET /api/jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// Article is the wire form of a registered article with its cached verdict.
type Article struct {
	ID               int64   `json:"id"`
	URL              string  `json:"url"`
	Title            string  `json:"title,omitempty"`
	FactCheckScore   *int    `json:"fact_check_score,omitempty"`
	FactCheckVerdict string  `json:"fact_check_verdict,omitempty"`
	FactCheckedAt    *string `json:"fact_checked_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// ArticleListResponse mirrors GET /api/articles.
type ArticleListResponse struct {
	Articles []Article `json:"articles"`
}

// AddArticleRequest is the body for POST /api/articles.
type AddArticleRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// SubmitCheckResponse mirrors POST /api/articles/{id}/check.
type SubmitCheckResponse struct {
	JobID string `json:"job_id"`
}

// Record is the wire form of a committed fact-check record.
type Record struct {
	ArticleID            int64           `json:"article_id"`
	JobID                string          `json:"job_id"`
	Verdict              string          `json:"verdict"`
	CredibilityScore     int             `json:"credibility_score"`
	Confidence           *float64        `json:"confidence,omitempty"`
	Summary              string          `json:"summary,omitempty"`
	ClaimsAnalyzed       int             `json:"claims_analyzed"`
	ClaimsValidated      int             `json:"claims_validated"`
	ClaimsTrue           int             `json:"claims_true"`
	ClaimsFalse          int             `json:"claims_false"`
	ClaimsMisleading     int             `json:"claims_misleading"`
	ClaimsUnverified     int             `json:"claims_unverified"`
	ClaimsMisinformation int             `json:"claims_misinformation"`
	NumSources           int             `json:"num_sources"`
	SourceConsensus      string          `json:"source_consensus,omitempty"`
	RawPayload           json.RawMessage `json:"raw_payload,omitempty"`
	FactCheckedAt        string          `json:"fact_checked_at"`
}

// ErrorResponse is the wire form of any API error.
type ErrorResponse struct {
	Error string `json:"error"`
}
