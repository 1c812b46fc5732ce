package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
	tu "github.com/desertthunder/cratedig/internal/testing"
)

func candidatePage(start, n, total int) *services.SearchPage {
	items := make([]models.Candidate, n)
	for i := range items {
		items[i] = models.Candidate{
			ID:   fmt.Sprintf("c%d", start+i),
			Name: fmt.Sprintf("Playlist %d", start+i),
		}
	}
	return &services.SearchPage{Items: items, Total: total}
}

func TestSearchCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("Pages Until Limit", func(t *testing.T) {
		catalog := &tu.MockCatalog{SearchPages: []*services.SearchPage{
			candidatePage(0, 50, 300),
			candidatePage(50, 50, 300),
			candidatePage(100, 50, 300),
		}}
		engine, _ := newTestEngine(t, catalog, &tu.MockCompleter{}, nil)

		candidates, total, err := engine.searchCandidates(ctx, testUser, "s", "query", 120)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if catalog.SearchCalls != 3 {
			t.Errorf("limit 120 needs 3 pages, got %d calls", catalog.SearchCalls)
		}
		if len(candidates) != 120 {
			t.Errorf("expected truncation to limit 120, got %d", len(candidates))
		}
		if total != 300 {
			t.Errorf("expected catalog total 300, got %d", total)
		}
	})

	t.Run("Short Page Ends Paging", func(t *testing.T) {
		catalog := &tu.MockCatalog{SearchPages: []*services.SearchPage{
			candidatePage(0, 50, 62),
			candidatePage(50, 12, 62),
		}}
		engine, _ := newTestEngine(t, catalog, &tu.MockCompleter{}, nil)

		candidates, _, err := engine.searchCandidates(ctx, testUser, "s", "query", 200)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if catalog.SearchCalls != 2 {
			t.Errorf("short second page should stop paging, got %d calls", catalog.SearchCalls)
		}
		if len(candidates) != 62 {
			t.Errorf("expected 62 candidates, got %d", len(candidates))
		}
	})

	t.Run("Exact Limit Needs No Extra Page", func(t *testing.T) {
		catalog := &tu.MockCatalog{SearchPages: []*services.SearchPage{
			candidatePage(0, 50, 500),
		}}
		engine, _ := newTestEngine(t, catalog, &tu.MockCompleter{}, nil)

		candidates, _, err := engine.searchCandidates(ctx, testUser, "s", "query", 50)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if catalog.SearchCalls != 1 {
			t.Errorf("limit 50 is one full page, got %d calls", catalog.SearchCalls)
		}
		if len(candidates) != 50 {
			t.Errorf("expected 50 candidates, got %d", len(candidates))
		}
	})

	t.Run("Upstream Error Propagates", func(t *testing.T) {
		catalog := &tu.MockCatalog{SearchErr: fmt.Errorf("boom")}
		engine, _ := newTestEngine(t, catalog, &tu.MockCompleter{}, nil)

		if _, _, err := engine.searchCandidates(ctx, testUser, "s", "query", 10); err == nil {
			t.Error("expected error")
		}
	})
}
