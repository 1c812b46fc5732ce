package discovery

import (
	"context"
	"errors"
	"sort"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/repositories"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
)

// Provenance of a playlist detail.
const (
	FromCache = "fromCache"
	FromAPI   = "fromAPI"
)

// fetchDetail returns the full detail for one playlist, cache-aside. A cache
// hit costs zero upstream calls. On a miss the playlist metadata is fetched,
// the track list paginated until sampleSize tracks are collected or the list
// is exhausted, and the result written back with a 24-hour TTL. Cache store
// failures degrade to misses and are never fatal.
func (e *Engine) fetchDetail(ctx context.Context, playlistID string, sampleSize int) (*models.PlaylistDetail, string, error) {
	key := repositories.DetailKey(playlistID)

	var cached models.PlaylistDetail
	err := e.cache.Get(key, &cached)
	if err == nil {
		return &cached, FromCache, nil
	}
	if errors.Is(err, shared.ErrCacheUnavailable) {
		e.logger.Warn("cache unavailable, fetching from API", "key", key, "err", err)
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return nil, "", err
	}

	detail, err := e.catalog.Playlist(ctx, playlistID)
	if err != nil {
		return nil, "", err
	}

	artists := make(map[string]bool)
	for len(detail.SampledTracks) < sampleSize {
		if err := e.pacer.Wait(ctx); err != nil {
			return nil, "", err
		}

		pageLimit := sampleSize - len(detail.SampledTracks)
		if pageLimit > services.TrackPageSize {
			pageLimit = services.TrackPageSize
		}

		page, err := e.catalog.PlaylistTracks(ctx, playlistID, pageLimit, len(detail.SampledTracks))
		if err != nil {
			return nil, "", err
		}

		for _, track := range page.Items {
			detail.SampledTracks = append(detail.SampledTracks, track)
			if track.Artist != "" {
				artists[track.Artist] = true
			}
		}

		if !page.Next || len(page.Items) == 0 {
			break
		}
	}

	detail.UniqueArtists = make([]string, 0, len(artists))
	for artist := range artists {
		detail.UniqueArtists = append(detail.UniqueArtists, artist)
	}
	sort.Strings(detail.UniqueArtists)

	if err := e.cache.Set(key, detail, repositories.DetailTTL); err != nil {
		e.logger.Warn("failed to cache playlist detail", "key", key, "err", err)
	}

	return detail, FromAPI, nil
}
