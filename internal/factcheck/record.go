package factcheck

import (
	"fmt"
	"strings"
	"time"
)

// Record is the durable fact-check outcome, one-to-one with an article. It is
// created exactly once per article on terminal job success, or as an error
// record on terminal failure, and never mutated afterward.
type Record struct {
	ID        int64
	ArticleID int64
	JobID     string

	Verdict          Verdict
	CredibilityScore int
	Confidence       *float64
	Summary          string

	ClaimsAnalyzed   int
	ClaimsValidated  int
	ClaimsTrue       int
	ClaimsFalse      int
	ClaimsMisleading int
	ClaimsUnverified int
	// ClaimsMisinformation keeps MISINFORMATION and FALSE_MISINFORMATION
	// counts distinct from the ClaimsFalse fold; the fold is a presentation
	// convention, not part of the external contract.
	ClaimsMisinformation int

	NumSources      int
	SourceConsensus string

	// RawPayload holds the service's validation payload verbatim for audit
	// and display. Empty for error records.
	RawPayload []byte

	FactCheckedAt time.Time
}

// Errored reports whether this is a sentinel error record ("fact-check
// unavailable") rather than a scored outcome.
func (r *Record) Errored() bool {
	return r.Verdict == VerdictError || r.CredibilityScore == ErrorScore
}

// ErrorRecord builds the sentinel record committed for a terminally failed or
// timed-out job. The failure reason lands in the summary so the read path can
// show why the check is unavailable.
func ErrorRecord(articleID int64, jobID, reason string, at time.Time) *Record {
	summary := "fact-check unavailable"
	if reason = strings.TrimSpace(reason); reason != "" {
		summary = fmt.Sprintf("fact-check unavailable: %s", reason)
	}
	return &Record{
		ArticleID:        articleID,
		JobID:            jobID,
		Verdict:          VerdictError,
		CredibilityScore: ErrorScore,
		Summary:          summary,
		FactCheckedAt:    at.UTC(),
	}
}
