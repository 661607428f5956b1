// Package factcheck defines the canonical fact-check domain model: the closed
// verdict vocabulary, the confidence-weighted credibility scorer, and the
// transformer that maps the external service's raw validation payload into a
// durable record.
package factcheck
