package testsupport

import (
	"context"
	"testing"

	"veracity/internal/config"
	"veracity/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewArticle creates an article for tests using the provided store.
func NewArticle(t testing.TB, st *store.Store, url, title string) *store.Article {
	t.Helper()

	article, err := st.AddArticle(context.Background(), url, title)
	if err != nil {
		t.Fatalf("store.AddArticle: %v", err)
	}
	return article
}
