package api

import (
	"encoding/json"
	"time"

	"veracity/internal/factcheck"
	"veracity/internal/jobs"
	"veracity/internal/store"
)

// FromJob converts an orchestrator job snapshot to its wire form.
func FromJob(job jobs.Job) Job {
	return Job{
		JobID:       job.ID,
		ArticleID:   job.ArticleID,
		SourceURL:   job.SourceURL,
		State:       string(job.State),
		Attempt:     job.Attempt,
		SubmittedAt: job.SubmittedAt.UTC().Format(time.RFC3339),
		Deadline:    job.Deadline.UTC().Format(time.RFC3339),
	}
}

// FromJobs converts a job slice, preserving order.
func FromJobs(active []jobs.Job) []Job {
	out := make([]Job, 0, len(active))
	for _, job := range active {
		out = append(out, FromJob(job))
	}
	return out
}

// FromArticle converts a stored article to its wire form.
func FromArticle(article *store.Article) Article {
	out := Article{
		ID:               article.ID,
		URL:              article.URL,
		Title:            article.Title,
		FactCheckScore:   article.FactCheckScore,
		FactCheckVerdict: string(article.FactCheckVerdict),
		CreatedAt:        article.CreatedAt.UTC().Format(time.RFC3339),
	}
	if article.FactCheckedAt != nil {
		checked := article.FactCheckedAt.UTC().Format(time.RFC3339)
		out.FactCheckedAt = &checked
	}
	return out
}

// FromRecord converts a committed record to its wire form.
func FromRecord(record *factcheck.Record) Record {
	return Record{
		ArticleID:            record.ArticleID,
		JobID:                record.JobID,
		Verdict:              string(record.Verdict),
		CredibilityScore:     record.CredibilityScore,
		Confidence:           record.Confidence,
		Summary:              record.Summary,
		ClaimsAnalyzed:       record.ClaimsAnalyzed,
		ClaimsValidated:      record.ClaimsValidated,
		ClaimsTrue:           record.ClaimsTrue,
		ClaimsFalse:          record.ClaimsFalse,
		ClaimsMisleading:     record.ClaimsMisleading,
		ClaimsUnverified:     record.ClaimsUnverified,
		ClaimsMisinformation: record.ClaimsMisinformation,
		NumSources:           record.NumSources,
		SourceConsensus:      record.SourceConsensus,
		RawPayload:           json.RawMessage(record.RawPayload),
		FactCheckedAt:        record.FactCheckedAt.UTC().Format(time.RFC3339),
	}
}
