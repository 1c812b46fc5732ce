package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/cratedig/internal/shared"
)

// testSpotify points a service at an httptest server, bypassing the token
// exchange that NewSpotifyService performs.
func testSpotify(server *httptest.Server) *SpotifyService {
	return &SpotifyService{baseURL: server.URL, httpClient: server.Client()}
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(ctx, "test_client_id", "test_client_secret")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			if _, err := NewSpotifyService(ctx, "", "secret"); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			if _, err := NewSpotifyService(ctx, "id", ""); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("SearchPlaylists", func(t *testing.T) {
		t.Run("Maps Fields And Skips Nulls", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Errorf("expected path /search, got %s", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("type") != "playlist" || q.Get("q") != "lofi beats" {
					t.Errorf("unexpected query: %v", q)
				}
				if q.Get("limit") != "50" || q.Get("offset") != "0" {
					t.Errorf("unexpected paging params: %v", q)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"playlists": map[string]any{
						"total": 2,
						"items": []map[string]any{
							{
								"id":          "p1",
								"name":        "Lofi Study",
								"description": "chill",
								"owner":       map[string]any{"id": "u1", "display_name": "Maya"},
								"public":      true,
								"tracks":      map[string]any{"total": 42},
								"images":      []map[string]any{{"url": "https://img/1"}},
							},
							// Removed playlists come back as empty objects.
							{},
						},
					},
				})
			}))
			defer server.Close()

			page, err := testSpotify(server).SearchPlaylists(ctx, "lofi beats", 50, 0)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if page.Total != 2 {
				t.Errorf("expected total 2, got %d", page.Total)
			}
			if len(page.Items) != 1 {
				t.Fatalf("expected null entry skipped, got %d items", len(page.Items))
			}
			c := page.Items[0]
			if c.ID != "p1" || c.Owner != "Maya" || c.TrackCount != 42 || len(c.Images) != 1 {
				t.Errorf("unexpected candidate: %+v", c)
			}
		})

		t.Run("Clamps Oversized Limit", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("limit") != "50" {
					t.Errorf("expected limit clamped to 50, got %s", r.URL.Query().Get("limit"))
				}
				json.NewEncoder(w).Encode(map[string]any{"playlists": map[string]any{}})
			}))
			defer server.Close()

			if _, err := testSpotify(server).SearchPlaylists(ctx, "q", 500, 0); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Rate Limited", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer server.Close()

			_, err := testSpotify(server).SearchPlaylists(ctx, "q", 50, 0)
			if !errors.Is(err, shared.ErrRateLimited) {
				t.Errorf("expected ErrRateLimited, got %v", err)
			}
		})

		t.Run("Auth Failure", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			_, err := testSpotify(server).SearchPlaylists(ctx, "q", 50, 0)
			if !errors.Is(err, shared.ErrUpstreamAuth) {
				t.Errorf("expected ErrUpstreamAuth, got %v", err)
			}
		})
	})

	t.Run("Playlist", func(t *testing.T) {
		t.Run("Returns Metadata Only", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/playlists/p1" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]any{
					"id":        "p1",
					"name":      "Deep Focus",
					"owner":     map[string]any{"id": "spotify"},
					"followers": map[string]any{"total": 9000},
					"tracks":    map[string]any{"total": 150},
				})
			}))
			defer server.Close()

			detail, err := testSpotify(server).Playlist(ctx, "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if detail.Owner != "spotify" || detail.FollowerCount != 9000 || detail.TrackCount != 150 {
				t.Errorf("unexpected detail: %+v", detail)
			}
			if len(detail.SampledTracks) != 0 {
				t.Error("metadata fetch should not include tracks")
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			_, err := testSpotify(server).Playlist(ctx, "gone")
			if !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Errorf("expected ErrPlaylistNotFound, got %v", err)
			}
		})
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		t.Run("Maps Tracks And Next Flag", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/playlists/p1/tracks" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]any{
					"total": 300,
					"next":  "https://api.spotify.com/v1/playlists/p1/tracks?offset=100",
					"items": []map[string]any{
						{
							"added_at": "2024-01-01T00:00:00Z",
							"track": map[string]any{
								"id":      "t1",
								"name":    "Song",
								"artists": []map[string]any{{"name": "Artist"}, {"name": "Feature"}},
								"album":   map[string]any{"name": "Album"},
							},
						},
						// Local files have no track id.
						{"track": map[string]any{}},
					},
				})
			}))
			defer server.Close()

			page, err := testSpotify(server).PlaylistTracks(ctx, "p1", 100, 0)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !page.Next || page.Total != 300 {
				t.Errorf("pagination fields lost: %+v", page)
			}
			if len(page.Items) != 1 {
				t.Fatalf("expected id-less track skipped, got %d", len(page.Items))
			}
			track := page.Items[0]
			if track.Artist != "Artist" || track.Album != "Album" || track.AddedAt == "" {
				t.Errorf("unexpected track: %+v", track)
			}
		})
	})
}
