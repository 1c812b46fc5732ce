package repositories_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/repositories"
	tu "github.com/desertthunder/cratedig/internal/testing"
)

func record(n int, at time.Time) models.HistoryRecord {
	return models.HistoryRecord{
		SearchHash:  fmt.Sprintf("hash-%04d", n),
		Query:       fmt.Sprintf("query %d", n),
		Model:       "test-model",
		Timestamp:   at,
		ResultCount: n % 10,
	}
}

func TestHistoryRepository(t *testing.T) {
	t.Run("Lists Newest First", func(t *testing.T) {
		history := repositories.NewHistoryRepository(tu.MustDB(t))
		base := time.Now().Add(-time.Hour)

		for i := 0; i < 3; i++ {
			if err := history.Append("u1", record(i, base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("append %d failed: %v", i, err)
			}
		}

		records, err := history.List("u1")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[0].SearchHash != "hash-0002" || records[2].SearchHash != "hash-0000" {
			t.Errorf("records out of order: %v, %v", records[0].SearchHash, records[2].SearchHash)
		}
	})

	t.Run("Evicts Oldest Beyond Cap", func(t *testing.T) {
		history := repositories.NewHistoryRepository(tu.MustDB(t))
		base := time.Now().Add(-24 * time.Hour)

		for i := 0; i < repositories.HistoryCap+1; i++ {
			if err := history.Append("u1", record(i, base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("append %d failed: %v", i, err)
			}
		}

		count, err := history.Count("u1")
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != repositories.HistoryCap {
			t.Errorf("expected count capped at %d, got %d", repositories.HistoryCap, count)
		}

		records, err := history.List("u1")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if records[0].SearchHash != fmt.Sprintf("hash-%04d", repositories.HistoryCap) {
			t.Errorf("newest record missing, got %s", records[0].SearchHash)
		}
		for _, rec := range records {
			if rec.SearchHash == "hash-0000" {
				t.Error("oldest record survived eviction")
			}
		}
	})

	t.Run("Cap Is Per User", func(t *testing.T) {
		history := repositories.NewHistoryRepository(tu.MustDB(t))
		base := time.Now().Add(-24 * time.Hour)

		for i := 0; i < repositories.HistoryCap+1; i++ {
			if err := history.Append("u1", record(i, base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("append failed: %v", err)
			}
		}
		if err := history.Append("u2", record(0, base)); err != nil {
			t.Fatalf("append for second user failed: %v", err)
		}

		count, err := history.Count("u2")
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("eviction leaked across users: u2 has %d rows", count)
		}
	})

	t.Run("Empty User Has No Records", func(t *testing.T) {
		history := repositories.NewHistoryRepository(tu.MustDB(t))

		records, err := history.List("nobody")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records, got %d", len(records))
		}
	})
}
