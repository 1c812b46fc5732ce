// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
)

// MockCatalog is a scripted test double for [services.Catalog].
type MockCatalog struct {
	SearchPages []*services.SearchPage
	SearchErr   error
	SearchCalls int

	Details     map[string]*models.PlaylistDetail
	DetailErrs  map[string]error
	DetailCalls int

	TrackPages map[string][]*services.TrackPage
	TrackCalls int
	trackIdx   map[string]int
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) SearchPlaylists(ctx context.Context, query string, limit, offset int) (*services.SearchPage, error) {
	m.SearchCalls++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if m.SearchCalls > len(m.SearchPages) {
		return &services.SearchPage{}, nil
	}
	return m.SearchPages[m.SearchCalls-1], nil
}

func (m *MockCatalog) Playlist(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	m.DetailCalls++
	if err := m.DetailErrs[playlistID]; err != nil {
		return nil, err
	}
	detail, ok := m.Details[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	// Return a metadata-only copy the way the real client does.
	copied := *detail
	copied.SampledTracks = nil
	copied.UniqueArtists = nil
	return &copied, nil
}

func (m *MockCatalog) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
	m.TrackCalls++
	if m.trackIdx == nil {
		m.trackIdx = make(map[string]int)
	}
	pages := m.TrackPages[playlistID]
	idx := m.trackIdx[playlistID]
	if idx >= len(pages) {
		return &services.TrackPage{}, nil
	}
	m.trackIdx[playlistID]++
	return pages[idx], nil
}

// MockCompleter is a scripted test double for [services.Completer]. Each call
// consumes the next response (or error) in order.
type MockCompleter struct {
	Responses []string
	Errs      []error
	Calls     int
	Requests  []services.CompletionRequest
	Model     string
}

func (m *MockCompleter) DefaultModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

func (m *MockCompleter) Complete(ctx context.Context, req services.CompletionRequest) (*services.CompletionResponse, error) {
	idx := m.Calls
	m.Calls++
	m.Requests = append(m.Requests, req)

	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return nil, m.Errs[idx]
	}
	if idx >= len(m.Responses) {
		return nil, fmt.Errorf("%w: unscripted completion call %d", shared.ErrLLMRequest, idx)
	}

	return &services.CompletionResponse{
		Content:  m.Responses[idx],
		Model:    m.DefaultModel(),
		Provider: "mock",
	}, nil
}

// MustDB opens an in-memory SQLite database with the full schema applied.
func MustDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
