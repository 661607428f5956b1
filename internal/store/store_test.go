package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"veracity/internal/factcheck"
	"veracity/internal/jobs"
	"veracity/internal/services"
	"veracity/internal/testsupport"
)

func TestAddAndGetArticle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	article, err := st.AddArticle(ctx, "https://example.com/story", "A Story")
	if err != nil {
		t.Fatalf("AddArticle: %v", err)
	}
	if article.ID == 0 {
		t.Fatal("expected assigned id")
	}

	fetched, err := st.GetArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if fetched.URL != "https://example.com/story" || fetched.Title != "A Story" {
		t.Fatalf("unexpected article %+v", fetched)
	}
	if fetched.FactCheckScore != nil {
		t.Fatal("new article must not carry a cached score")
	}

	url, err := st.GetArticleURL(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetArticleURL: %v", err)
	}
	if url != article.URL {
		t.Fatalf("unexpected url %q", url)
	}

	if _, err := st.GetArticle(ctx, article.ID+100); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveRecordUpdatesArticleCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.NewArticle(t, st, "https://example.com/story", "")

	confidence := 0.9
	checkedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record := &factcheck.Record{
		ArticleID:        article.ID,
		JobID:            "job-1",
		Verdict:          factcheck.VerdictTrue,
		CredibilityScore: 90,
		Confidence:       &confidence,
		Summary:          "checks out",
		ClaimsAnalyzed:   1,
		ClaimsValidated:  1,
		ClaimsTrue:       1,
		NumSources:       3,
		RawPayload:       []byte(`{"validation_results":[]}`),
		FactCheckedAt:    checkedAt,
	}
	if err := st.SaveRecord(ctx, record); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if record.ID == 0 {
		t.Fatal("expected record id after save")
	}

	fetched, found, err := st.GetRecord(ctx, article.ID)
	if err != nil || !found {
		t.Fatalf("GetRecord: found=%v err=%v", found, err)
	}
	if fetched.Verdict != factcheck.VerdictTrue || fetched.CredibilityScore != 90 {
		t.Fatalf("unexpected record %+v", fetched)
	}
	if fetched.Confidence == nil || *fetched.Confidence != 0.9 {
		t.Fatalf("confidence lost: %+v", fetched.Confidence)
	}
	if string(fetched.RawPayload) != `{"validation_results":[]}` {
		t.Fatalf("raw payload lost: %q", fetched.RawPayload)
	}
	if !fetched.FactCheckedAt.Equal(checkedAt) {
		t.Fatalf("checked-at mismatch: %s", fetched.FactCheckedAt)
	}

	// The article cache fields move in lockstep with the record.
	cached, err := st.GetArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if cached.FactCheckScore == nil || *cached.FactCheckScore != 90 {
		t.Fatalf("cache score mismatch: %+v", cached.FactCheckScore)
	}
	if cached.FactCheckVerdict != factcheck.VerdictTrue {
		t.Fatalf("cache verdict mismatch: %s", cached.FactCheckVerdict)
	}
	if cached.FactCheckedAt == nil || !cached.FactCheckedAt.Equal(checkedAt) {
		t.Fatalf("cache checked-at mismatch: %+v", cached.FactCheckedAt)
	}
}

func TestSaveRecordIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.NewArticle(t, st, "https://example.com/story", "")

	first := factcheck.ErrorRecord(article.ID, "job-1", "timeout", time.Now().UTC())
	if err := st.SaveRecord(ctx, first); err != nil {
		t.Fatalf("first SaveRecord: %v", err)
	}

	// A second commit for the same article is a successful no-op.
	second := &factcheck.Record{
		ArticleID:        article.ID,
		JobID:            "job-2",
		Verdict:          factcheck.VerdictTrue,
		CredibilityScore: 100,
		FactCheckedAt:    time.Now().UTC(),
	}
	if err := st.SaveRecord(ctx, second); err != nil {
		t.Fatalf("second SaveRecord: %v", err)
	}

	fetched, found, err := st.GetRecord(ctx, article.ID)
	if err != nil || !found {
		t.Fatalf("GetRecord: found=%v err=%v", found, err)
	}
	if fetched.JobID != "job-1" {
		t.Fatalf("first record should win, got job %q", fetched.JobID)
	}
	if fetched.Verdict != factcheck.VerdictError {
		t.Fatalf("first record should win, got verdict %s", fetched.Verdict)
	}

	// The losing commit must not touch the article cache either.
	cached, err := st.GetArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if cached.FactCheckScore == nil || *cached.FactCheckScore != factcheck.ErrorScore {
		t.Fatalf("cache should keep first commit, got %+v", cached.FactCheckScore)
	}
}

func TestDeleteRecordClearsCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.NewArticle(t, st, "https://example.com/story", "")

	record := factcheck.ErrorRecord(article.ID, "job-1", "timeout", time.Now().UTC())
	if err := st.SaveRecord(ctx, record); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if err := st.DeleteRecord(ctx, article.ID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	if _, found, err := st.GetRecord(ctx, article.ID); err != nil || found {
		t.Fatalf("expected record gone, found=%v err=%v", found, err)
	}
	cached, err := st.GetArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if cached.FactCheckScore != nil || cached.FactCheckVerdict != "" || cached.FactCheckedAt != nil {
		t.Fatalf("cache fields not cleared: %+v", cached)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.NewArticle(t, st, "https://example.com/story", "")

	submitted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job := jobs.New("job-1", article.ID, article.URL, submitted, submitted.Add(2*time.Minute))
	job.Attempt = 3
	if err := job.Transition(jobs.StateStarted); err != nil {
		t.Fatalf("transition: %v", err)
	}

	if err := st.SaveCheckpoint(ctx, job); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	active, err := st.ListActiveCheckpoints(ctx)
	if err != nil {
		t.Fatalf("ListActiveCheckpoints: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected one checkpoint, got %d", len(active))
	}
	resumed := active[0]
	if resumed.ID != "job-1" || resumed.ArticleID != article.ID {
		t.Fatalf("unexpected checkpoint %+v", resumed)
	}
	if resumed.State != jobs.StateStarted || resumed.Attempt != 3 {
		t.Fatalf("checkpoint lost progress: %s attempt %d", resumed.State, resumed.Attempt)
	}
	if !resumed.SubmittedAt.Equal(submitted) {
		t.Fatalf("submitted-at mismatch: %s", resumed.SubmittedAt)
	}
	if !resumed.Deadline.Equal(submitted.Add(2 * time.Minute)) {
		t.Fatalf("deadline mismatch: %s", resumed.Deadline)
	}

	// Upsert: saving again for the same article replaces, not duplicates.
	job.Attempt = 4
	if err := st.SaveCheckpoint(ctx, job); err != nil {
		t.Fatalf("SaveCheckpoint upsert: %v", err)
	}
	active, err = st.ListActiveCheckpoints(ctx)
	if err != nil {
		t.Fatalf("ListActiveCheckpoints: %v", err)
	}
	if len(active) != 1 || active[0].Attempt != 4 {
		t.Fatalf("upsert failed: %+v", active)
	}

	if err := st.DeleteCheckpoint(ctx, article.ID); err != nil {
		t.Fatalf("DeleteCheckpoint: %v", err)
	}
	active, err = st.ListActiveCheckpoints(ctx)
	if err != nil {
		t.Fatalf("ListActiveCheckpoints: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no checkpoints, got %d", len(active))
	}
}

func TestTerminalCheckpointsAreNotResumed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	article := testsupport.NewArticle(t, st, "https://example.com/story", "")

	now := time.Now().UTC()
	job := jobs.New("job-1", article.ID, article.URL, now, now.Add(2*time.Minute))
	if err := job.Fail("external verification failed"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := st.SaveCheckpoint(ctx, job); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	active, err := st.ListActiveCheckpoints(ctx)
	if err != nil {
		t.Fatalf("ListActiveCheckpoints: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("terminal checkpoint must not resume, got %d", len(active))
	}
}

func TestListArticlesOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewArticle(t, st, "https://example.com/a", "")
	second := testsupport.NewArticle(t, st, "https://example.com/b", "")

	articles, err := st.ListArticles(ctx)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected two articles, got %d", len(articles))
	}
	if articles[0].ID != first.ID || articles[1].ID != second.ID {
		t.Fatalf("unexpected ordering: %d, %d", articles[0].ID, articles[1].ID)
	}
}
