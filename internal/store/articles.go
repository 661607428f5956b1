package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"veracity/internal/factcheck"
	"veracity/internal/services"
)

// Article is the slice of the article entity the orchestrator reads and
// writes: identity, source URL, and the denormalized fact-check cache fields
// kept in lockstep with the detailed record.
type Article struct {
	ID    int64
	URL   string
	Title string

	FactCheckScore   *int
	FactCheckVerdict factcheck.Verdict
	FactCheckedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

const articleColumns = "id, url, title, fact_check_score, fact_check_verdict, fact_checked_at, created_at, updated_at"

// AddArticle registers an article so fact-checks can be submitted for it.
func (s *Store) AddArticle(ctx context.Context, url, title string) (*Article, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "add article", "url required", nil)
	}
	now := time.Now().UTC()
	timestamp := formatTime(now)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO articles (url, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		url,
		nullableString(strings.TrimSpace(title)),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetArticle(ctx, id)
}

// GetArticle fetches an article by identifier. A missing article surfaces as
// services.ErrNotFound.
func (s *Store) GetArticle(ctx context.Context, id int64) (*Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get article", fmt.Sprintf("article %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

// GetArticleURL resolves the source URL for an article.
func (s *Store) GetArticleURL(ctx context.Context, id int64) (string, error) {
	article, err := s.GetArticle(ctx, id)
	if err != nil {
		return "", err
	}
	return article.URL, nil
}

// ListArticles returns all articles ordered by identifier.
func (s *Store) ListArticles(ctx context.Context) ([]*Article, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

func scanArticle(scanner interface{ Scan(dest ...any) error }) (*Article, error) {
	var (
		id         int64
		url        string
		title      sql.NullString
		score      sql.NullInt64
		verdict    sql.NullString
		checkedRaw sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(&id, &url, &title, &score, &verdict, &checkedRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	article := &Article{
		ID:    id,
		URL:   url,
		Title: title.String,
	}
	if score.Valid {
		v := int(score.Int64)
		article.FactCheckScore = &v
	}
	if verdict.Valid && verdict.String != "" {
		article.FactCheckVerdict = factcheck.Verdict(verdict.String)
	}
	if checkedRaw.Valid {
		if checked, err := parseTimeString(checkedRaw.String); err == nil {
			article.FactCheckedAt = &checked
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		article.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		article.UpdatedAt = updated
	}
	return article, nil
}
