package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/repositories"
	"github.com/desertthunder/cratedig/internal/shared"
)

// EmptySearchMessage is returned when catalog search yields no candidates.
const EmptySearchMessage = "No playlists found for this search. Try broader or different keywords."

// Discover runs the full pipeline for one query and returns the ranked
// result. Phases execute strictly in order; search and selection failures
// abort the request, individual playlist failures during fetching are dropped,
// and a summarization transport failure aborts (parse failures degrade to
// defaults instead).
//
// The run is detached from the caller's context: an abandoned caller stops
// receiving progress events but does not stop the pipeline, and partial work
// is never persisted as a complete result.
func (e *Engine) Discover(ctx context.Context, userID string, q models.DiscoveryQuery) (*models.FinalResult, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("%w: query text is required", shared.ErrInvalidQuery)
	}

	// A client disconnect must not cancel upstream calls mid-run; a canceled
	// context would make the per-playlist drop policy swallow every fetch and
	// persist an empty result under the search hash.
	ctx = context.WithoutCancel(ctx)

	q = q.Clamp()
	model := q.Model
	if model == "" {
		model = e.completer.DefaultModel()
	}

	sessionID := shared.GenerateID()
	logger := e.logger.With("session", sessionID, "user", userID)
	logger.Info("starting discovery", "query", q.Text, "limit", q.PlaylistLimit, "top", q.RenderLimit)

	// Phase: searching
	candidates, totalResults, err := e.searchCandidates(ctx, userID, sessionID, q.Text, q.PlaylistLimit)
	if err != nil {
		e.emit(userID, failedEvent(sessionID, PhaseSearching, err))
		return nil, err
	}

	if len(candidates) == 0 {
		logger.Info("search returned no candidates")
		e.emit(userID, completeEvent(sessionID, 0))
		return &models.FinalResult{
			Query:   q.Text,
			Message: EmptySearchMessage,
			Phases:  []string{string(PhaseSearching), string(PhaseComplete)},
		}, nil
	}

	// Phase: analyzing
	e.emit(userID, analyzingEvent(sessionID, len(candidates)))

	selection, err := e.selectCandidates(ctx, q.Text, model, candidates, q.RenderLimit)
	if err != nil {
		e.emit(userID, failedEvent(sessionID, PhaseAnalyzing, err))
		return nil, err
	}
	logger.Info("selection complete", "selected", len(selection.SelectedIDs))

	// Phase: fetching. Individual failures are logged and dropped.
	details := make([]*models.PlaylistDetail, 0, len(selection.SelectedIDs))
	for i, playlistID := range selection.SelectedIDs {
		e.emit(userID, itemEvent(sessionID, PhaseFetching, i+1, len(selection.SelectedIDs),
			fmt.Sprintf("Fetching playlist details (%d/%d)...", i+1, len(selection.SelectedIDs))))

		detail, provenance, err := e.fetchDetail(ctx, playlistID, q.TrackSampleSize)
		if err != nil {
			logger.Warn("dropping playlist after detail fetch failure", "playlist", playlistID, "err", err)
			continue
		}
		logger.Debug("detail ready", "playlist", playlistID, "provenance", provenance, "sampled", len(detail.SampledTracks))
		details = append(details, detail)
	}

	// Phase: summarizing. Transport failures abort the whole request.
	playlists := make([]models.RankedPlaylist, 0, len(details))
	for i, detail := range details {
		e.emit(userID, itemEvent(sessionID, PhaseSummarizing, i+1, len(details),
			fmt.Sprintf("Analyzing %q (%d/%d)...", detail.Name, i+1, len(details))))

		summary, fromCache, err := e.summarize(ctx, q.Text, model, detail, len(details))
		if err != nil {
			e.emit(userID, failedEvent(sessionID, PhaseSummarizing, err))
			return nil, err
		}
		logger.Debug("summary ready", "playlist", detail.ID, "cached", fromCache, "score", summary.MatchScore)
		playlists = append(playlists, models.Merge(*detail, summary))
	}

	sort.SliceStable(playlists, func(i, j int) bool {
		return playlists[i].MatchScore > playlists[j].MatchScore
	})
	if len(playlists) > q.RenderLimit {
		playlists = playlists[:q.RenderLimit]
	}

	result := &models.FinalResult{
		Query:              q.Text,
		Playlists:          playlists,
		TotalSearchResults: totalResults,
		SelectedCount:      len(selection.SelectedIDs),
		FinalCount:         len(playlists),
		Phases: []string{
			string(PhaseSearching), string(PhaseAnalyzing),
			string(PhaseFetching), string(PhaseSummarizing), string(PhaseComplete),
		},
	}

	e.persist(userID, q.Text, model, result, logger)
	e.emit(userID, completeEvent(sessionID, len(playlists)))
	logger.Info("discovery complete", "ranked", len(playlists), "searched", totalResults)

	return result, nil
}

// persist stores the final payload and appends the history record. Store
// failures are logged, never surfaced: the caller already has the result.
func (e *Engine) persist(userID, query, model string, result *models.FinalResult, logger *log.Logger) {
	hash := shared.SearchHash(userID, query, model)

	if err := e.cache.Set(repositories.ResultKey(hash), result, repositories.ResultTTL); err != nil {
		logger.Warn("failed to persist final result", "hash", hash, "err", err)
	}

	if err := e.history.Append(userID, models.HistoryRecord{
		SearchHash:  hash,
		Query:       query,
		Model:       model,
		Timestamp:   time.Now(),
		ResultCount: result.FinalCount,
	}); err != nil {
		logger.Warn("failed to append history", "hash", hash, "err", err)
	}
}

// History returns the user's recent searches, newest first, each annotated
// with whether its cached result is still live.
func (e *Engine) History(userID string) ([]models.HistoryRecord, error) {
	records, err := e.history.List(userID)
	if err != nil {
		return nil, err
	}

	for i := range records {
		records[i].Cached = e.cache.Exists(repositories.ResultKey(records[i].SearchHash))
	}

	return records, nil
}

// Result returns the persisted FinalResult for a search hash, or
// [shared.ErrResultExpired] if its TTL has elapsed.
func (e *Engine) Result(searchHash string) (*models.FinalResult, error) {
	var result models.FinalResult
	if err := e.cache.Get(repositories.ResultKey(searchHash), &result); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrResultExpired, searchHash)
	}
	return &result, nil
}
