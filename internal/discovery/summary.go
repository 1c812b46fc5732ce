package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/repositories"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
)

// Summary token budget scales with the batch size: every playlist summarized
// in one request shares the same per-call ceiling, so large batches get
// smaller individual analyses.
const (
	summaryTokenBase     = 600
	summaryTokensPerItem = 250
)

func summaryTokenBudget(batchSize, floor, ceil int) int {
	budget := summaryTokenBase + summaryTokensPerItem*batchSize
	if budget < floor {
		return floor
	}
	if budget > ceil {
		return ceil
	}
	return budget
}

func summarySchema() *services.ResponseSchema {
	return &services.ResponseSchema{
		Name: "playlist_summary",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary":        map[string]any{"type": "string"},
				"alignmentLevel": map[string]any{"type": "string", "enum": []string{"strong", "moderate", "weak", "tangential"}},
				"characteristics": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"primaryGenre":    map[string]any{"type": "string"},
						"mood":            map[string]any{"type": "string"},
						"instrumentation": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"tempo":           map[string]any{"type": "string"},
						"decadeRange":     map[string]any{"type": "string"},
					},
				},
				"matchScore": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"reasoning":  map[string]any{"type": "string"},
			},
			"required": []string{"summary", "alignmentLevel", "matchScore"},
		},
	}
}

// buildSummaryPrompt asks for an evidence-grounded analysis of one playlist
// against the listener's request.
func buildSummaryPrompt(query string, detail *models.PlaylistDetail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Listener request: %q\n\n", query)
	fmt.Fprintf(&b, "Playlist: %q by %s (%d tracks, %d followers)\n", detail.Name, detail.Owner, detail.TrackCount, detail.FollowerCount)
	if detail.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", detail.Description)
	}

	fmt.Fprintf(&b, "\nSampled tracks (%d of %d):\n", len(detail.SampledTracks), detail.TrackCount)
	for _, track := range detail.SampledTracks {
		fmt.Fprintf(&b, "- %s — %s\n", track.Title, track.Artist)
	}

	fmt.Fprintf(&b, "\nUnique artists in sample: %s\n\n", strings.Join(detail.UniqueArtists, ", "))

	b.WriteString("Analyze how well this playlist matches the request. ")
	b.WriteString("Cite concrete evidence from the sample (e.g. what fraction of the sampled tracks fit the request, which artists anchor the match); do not offer generic praise. ")
	b.WriteString("Choose alignmentLevel from strong, moderate, weak, or tangential, and score the match from 0 to 1. ")
	b.WriteString("Respond only with JSON matching the schema.")

	return b.String()
}

// summarize produces the match analysis for one playlist, cache-aside keyed by
// (playlist id, normalized-query hash). LLM transport failures propagate to
// the caller; malformed responses degrade to synthesized defaults and are not
// written back to the cache.
func (e *Engine) summarize(ctx context.Context, query, model string, detail *models.PlaylistDetail, batchSize int) (models.Summary, bool, error) {
	key := repositories.SummaryKey(detail.ID, shared.HashKey(shared.NormalizeQuery(query)))

	var cached models.Summary
	if err := e.cache.Get(key, &cached); err == nil {
		return cached, true, nil
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return models.Summary{}, false, err
	}

	resp, err := e.completer.Complete(ctx, services.CompletionRequest{
		Model: model,
		Messages: []services.Message{
			{Role: "system", Content: "You are a music analyst evaluating how well a playlist satisfies a listener's request. Ground every claim in the provided track sample."},
			{Role: "user", Content: buildSummaryPrompt(query, detail)},
		},
		ResponseSchema: summarySchema(),
		Temperature:    0.4,
		MaxTokens:      summaryTokenBudget(batchSize, e.opts.TokenFloor, e.opts.TokenCeil),
	})
	if err != nil {
		return models.Summary{}, false, err
	}

	summary, parsed := parseSummary(resp.Content, detail.ID)
	if !parsed {
		e.logger.Warn("summary response unparseable, using defaults", "playlist", detail.ID, "model", resp.Model)
		return summary, false, nil
	}

	if err := e.cache.Set(key, summary, repositories.SummaryTTL); err != nil {
		e.logger.Warn("failed to cache summary", "key", key, "err", err)
	}

	return summary, false, nil
}
