package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"veracity/internal/factcheck"
)

const recordColumns = "id, article_id, job_id, verdict, credibility_score, confidence, summary, " +
	"claims_analyzed, claims_validated, claims_true, claims_false, claims_misleading, claims_unverified, " +
	"claims_misinformation, num_sources, source_consensus, raw_validation_payload, fact_checked_at"

const sqliteConstraintCode = 19

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteConstraintCode {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// SaveRecord commits a fact-check outcome atomically: it inserts the detailed
// record and updates the article's denormalized cache fields in a single
// transaction, so the two can never diverge.
//
// A unique-constraint violation on article_id means a concurrent completion
// already committed a record for this article; that is resolved as a
// successful no-op, which makes the commit idempotent against retries and
// races between a crash-recovered poller and a fresh one.
func (s *Store) SaveRecord(ctx context.Context, record *factcheck.Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	ctx = ensureContext(ctx)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin commit tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO fact_check_records (
                article_id, job_id, verdict, credibility_score, confidence, summary,
                claims_analyzed, claims_validated, claims_true, claims_false,
                claims_misleading, claims_unverified, claims_misinformation,
                num_sources, source_consensus, raw_validation_payload, fact_checked_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ArticleID,
			record.JobID,
			string(record.Verdict),
			record.CredibilityScore,
			nullableFloat(record.Confidence),
			nullableString(record.Summary),
			record.ClaimsAnalyzed,
			record.ClaimsValidated,
			record.ClaimsTrue,
			record.ClaimsFalse,
			record.ClaimsMisleading,
			record.ClaimsUnverified,
			record.ClaimsMisinformation,
			record.NumSources,
			nullableString(record.SourceConsensus),
			nullableBytes(record.RawPayload),
			formatTime(record.FactCheckedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				// Lost the race to another completion for the same article.
				return nil
			}
			return fmt.Errorf("insert record: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		record.ID = id

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE articles
             SET fact_check_score = ?, fact_check_verdict = ?, fact_checked_at = ?, updated_at = ?
             WHERE id = ?`,
			record.CredibilityScore,
			string(record.Verdict),
			formatTime(record.FactCheckedAt),
			formatTime(record.FactCheckedAt),
			record.ArticleID,
		); err != nil {
			return fmt.Errorf("update article cache: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit record: %w", err)
		}
		return nil
	})
}

// GetRecord fetches the fact-check record for an article. The bool reports
// whether a record exists, which lets the read path distinguish "pending"
// (no record, job in registry) from "unavailable" (error record).
func (s *Store) GetRecord(ctx context.Context, articleID int64) (*factcheck.Record, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM fact_check_records WHERE article_id = ?`,
		articleID,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get record: %w", err)
	}
	return record, true, nil
}

// DeleteRecord removes an article's record and clears the cache fields in one
// transaction. Re-checks delete-and-recreate rather than patch, to avoid
// partial-update races.
func (s *Store) DeleteRecord(ctx context.Context, articleID int64) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin delete tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM fact_check_records WHERE article_id = ?`, articleID); err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE articles SET fact_check_score = NULL, fact_check_verdict = NULL, fact_checked_at = NULL WHERE id = ?`,
			articleID,
		); err != nil {
			return fmt.Errorf("clear article cache: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit delete: %w", err)
		}
		return nil
	})
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*factcheck.Record, error) {
	var (
		id           int64
		articleID    int64
		jobID        string
		verdict      string
		score        int
		confidence   sql.NullFloat64
		summary      sql.NullString
		analyzed     int
		validated    int
		trueCount    int
		falseCount   int
		misleading   int
		unverified   int
		misinfo      int
		numSources   int
		consensus    sql.NullString
		rawPayload   []byte
		checkedAtRaw string
	)

	if err := scanner.Scan(
		&id,
		&articleID,
		&jobID,
		&verdict,
		&score,
		&confidence,
		&summary,
		&analyzed,
		&validated,
		&trueCount,
		&falseCount,
		&misleading,
		&unverified,
		&misinfo,
		&numSources,
		&consensus,
		&rawPayload,
		&checkedAtRaw,
	); err != nil {
		return nil, err
	}

	record := &factcheck.Record{
		ID:                   id,
		ArticleID:            articleID,
		JobID:                jobID,
		Verdict:              factcheck.Verdict(verdict),
		CredibilityScore:     score,
		Summary:              summary.String,
		ClaimsAnalyzed:       analyzed,
		ClaimsValidated:      validated,
		ClaimsTrue:           trueCount,
		ClaimsFalse:          falseCount,
		ClaimsMisleading:     misleading,
		ClaimsUnverified:     unverified,
		ClaimsMisinformation: misinfo,
		NumSources:           numSources,
		SourceConsensus:      consensus.String,
		RawPayload:           rawPayload,
	}
	if confidence.Valid {
		v := confidence.Float64
		record.Confidence = &v
	}
	if checkedAt, err := parseTimeString(checkedAtRaw); err == nil {
		record.FactCheckedAt = checkedAt
	}
	return record, nil
}
