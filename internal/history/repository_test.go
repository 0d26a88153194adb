package history

import (
	"path/filepath"
	"testing"

	"github.com/julienpequegnot/seriesgen/internal/database"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndListPublish(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	attempts := []PublishAttempt{
		{RunID: "r1", SeriesID: "series-a", ArticleNumber: 1, Title: "One", Platform: "b4a", Status: StatusSuccess, URL: "https://b4a/1"},
		{RunID: "r1", SeriesID: "series-a", ArticleNumber: 2, Title: "Two", Platform: "b4a", Status: StatusFailed, Error: "timeout"},
		{RunID: "r2", SeriesID: "series-b", ArticleNumber: 1, Title: "Other", Platform: "b4a", Status: StatusSuccess, URL: "https://b4a/x"},
	}
	for _, a := range attempts {
		id, err := repo.RecordPublish(a)
		if err != nil {
			t.Fatalf("failed to record attempt: %v", err)
		}
		if id == 0 {
			t.Error("expected non-zero ID")
		}
	}

	got, err := repo.ListPublish("series-a", 10)
	if err != nil {
		t.Fatalf("failed to list attempts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}
	if got[0].ArticleNumber != 2 || got[0].Error != "timeout" {
		t.Errorf("expected newest failed attempt first, got %+v", got[0])
	}

	all, err := repo.ListPublish("", 10)
	if err != nil {
		t.Fatalf("failed to list attempts: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(all))
	}

	limited, err := repo.ListPublish("", 1)
	if err != nil {
		t.Fatalf("failed to list attempts: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(limited))
	}
}

func TestRecordAndListExtractions(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	if _, err := repo.RecordExtraction(Extraction{RunID: "r", URL: "https://mp.weixin.qq.com/s/a", Strategy: "proxy", Status: StatusSuccess, Title: "A"}); err != nil {
		t.Fatalf("failed to record extraction: %v", err)
	}
	if _, err := repo.RecordExtraction(Extraction{RunID: "r", URL: "https://mp.weixin.qq.com/s/b", Status: StatusFailed, Error: "all strategies failed"}); err != nil {
		t.Fatalf("failed to record extraction: %v", err)
	}

	got, err := repo.ListExtractions(10)
	if err != nil {
		t.Fatalf("failed to list extractions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 extractions, got %d", len(got))
	}
	if got[0].Strategy != "" || got[0].Status != StatusFailed {
		t.Errorf("unexpected newest extraction: %+v", got[0])
	}
	if got[1].Title != "A" {
		t.Errorf("expected title A, got %q", got[1].Title)
	}
}
