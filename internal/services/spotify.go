// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify caps both search and track pages at 50/100 items respectively.
	SearchPageSize = 50
	TrackPageSize  = 100
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Owner identifies the user that owns a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of playlist tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in search results).
type SpotifySimplePlaylist struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Owner       Owner                `json:"owner"`
	Public      bool                 `json:"public"`
	Tracks      simplePlaylistTracks `json:"tracks"`
	Images      []SpotifyImage       `json:"images"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifyPlaylist represents a full playlist object.
type SpotifyPlaylist struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Owner       Owner                `json:"owner"`
	Public      bool                 `json:"public"`
	Followers   followers            `json:"followers"`
	Tracks      simplePlaylistTracks `json:"tracks"`
	Images      []SpotifyImage       `json:"images"`
}

// SpotifyService implements [Catalog] for Spotify API interactions.
//
// Discovery never acts on behalf of a listener, so authentication uses the
// [clientcredentials] flow rather than the user-scoped authorization code flow.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service with the given credentials.
func NewSpotifyService(ctx context.Context, clientID, clientSecret string) (*SpotifyService, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyService{baseURL: spotifyBaseURL, httpClient: config.Client(ctx)}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET request against the Spotify API,
// mapping auth and throttling failures to their taxonomy sentinels.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrUpstreamAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: retry after %s", shared.ErrRateLimited, resp.Header.Get("Retry-After"))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status 404", shared.ErrPlaylistNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchPlaylists performs a free-text playlist search returning one page of candidates.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, query string, limit, offset int) (*SearchPage, error) {
	if limit <= 0 || limit > SearchPageSize {
		limit = SearchPageSize
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=playlist&limit=%d&offset=%d", url.QueryEscape(query), limit, offset)

	var response struct {
		Playlists SpotifyPaginatedPlaylists `json:"playlists"`
	}
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	page := &SearchPage{Total: response.Playlists.Total}
	for _, sp := range response.Playlists.Items {
		// Search occasionally returns null entries for removed playlists.
		if sp.ID == "" {
			continue
		}
		page.Items = append(page.Items, models.Candidate{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			Owner:       ownerName(sp.Owner),
			TrackCount:  sp.Tracks.Total,
			Public:      sp.Public,
			Images:      imageURLs(sp.Images),
		})
	}

	return page, nil
}

// Playlist retrieves playlist metadata by ID. The returned detail has no track
// sample; callers populate it via [SpotifyService.PlaylistTracks].
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	endpoint := fmt.Sprintf("/playlists/%s?fields=id,name,description,owner,public,followers,tracks(total),images", playlistID)

	var sp SpotifyPlaylist
	if err := s.doRequest(ctx, endpoint, &sp); err != nil {
		return nil, err
	}

	return &models.PlaylistDetail{
		ID:            sp.ID,
		Name:          sp.Name,
		Owner:         ownerName(sp.Owner),
		Description:   sp.Description,
		FollowerCount: sp.Followers.Total,
		TrackCount:    sp.Tracks.Total,
		Images:        imageURLs(sp.Images),
	}, nil
}

// PlaylistTracks retrieves one page of a playlist's tracks.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*TrackPage, error) {
	if limit <= 0 || limit > TrackPageSize {
		limit = TrackPageSize
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	page := &TrackPage{Total: response.Total, Next: response.Next != nil}
	for _, item := range response.Items {
		if item.Track.ID == "" {
			continue
		}
		track := models.SampledTrack{
			ID:      item.Track.ID,
			Title:   item.Track.Name,
			Album:   item.Track.Album.Name,
			AddedAt: item.AddedAt,
		}
		if len(item.Track.Artists) > 0 {
			track.Artist = item.Track.Artists[0].Name
		}
		page.Items = append(page.Items, track)
	}

	return page, nil
}

func ownerName(o Owner) string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.ID
}

func imageURLs(images []SpotifyImage) []string {
	var urls []string
	for _, img := range images {
		urls = append(urls, img.URL)
	}
	return urls
}
