package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
)

// Selection token budget: a fixed base plus a per-candidate allowance, clamped
// so one oversized candidate set cannot blow the model's output limit.
const (
	selectionTokenBase          = 500
	selectionTokensPerCandidate = 40
)

func selectionTokenBudget(candidates, floor, ceil int) int {
	budget := selectionTokenBase + selectionTokensPerCandidate*candidates
	if budget < floor {
		return floor
	}
	if budget > ceil {
		return ceil
	}
	return budget
}

func selectionSchema() *services.ResponseSchema {
	return &services.ResponseSchema{
		Name: "playlist_selection",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"selectedPlaylistIds": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"reasoning": map[string]any{"type": "string"},
			},
			"required":             []string{"selectedPlaylistIds"},
			"additionalProperties": false,
		},
	}
}

// buildSelectionPrompt enumerates every candidate's metadata for a single
// narrowing pass.
func buildSelectionPrompt(query string, candidates []models.Candidate, renderLimit int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A listener is searching for playlists matching this request:\n\n%q\n\n", query)
	fmt.Fprintf(&b, "Below are %d candidate playlists from a catalog search. ", len(candidates))
	fmt.Fprintf(&b, "Select the playlists most likely to satisfy the request, best match first. ")
	fmt.Fprintf(&b, "Return between %d and %d ids; prefer returning %d when enough plausible candidates exist. ", min(5, renderLimit), renderLimit, renderLimit)
	b.WriteString("Judge by name, description, owner, and track count. Skip obvious spam and empty playlists.\n\n")

	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. id=%s | %q by %s | %d tracks", i+1, c.ID, c.Name, c.Owner, c.TrackCount)
		if c.Description != "" {
			fmt.Fprintf(&b, " | %s", c.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with JSON: {\"selectedPlaylistIds\": [...], \"reasoning\": \"...\"}")
	return b.String()
}

// selectCandidates performs the single LLM narrowing call. A response that
// survives neither strict nor lenient parsing aborts the pipeline.
func (e *Engine) selectCandidates(ctx context.Context, query, model string, candidates []models.Candidate, renderLimit int) (models.Selection, error) {
	resp, err := e.completer.Complete(ctx, services.CompletionRequest{
		Model: model,
		Messages: []services.Message{
			{Role: "system", Content: "You are a music curator ranking playlists against a listener's request. Respond only with JSON matching the requested shape."},
			{Role: "user", Content: buildSelectionPrompt(query, candidates, renderLimit)},
		},
		ResponseSchema: selectionSchema(),
		Temperature:    0.2,
		MaxTokens:      selectionTokenBudget(len(candidates), e.opts.TokenFloor, e.opts.TokenCeil),
	})
	if err != nil {
		return models.Selection{}, err
	}

	e.logger.Debug("selection completed", "model", resp.Model, "latency_ms", resp.LatencyMS, "tokens", resp.Usage.TotalTokens)

	return parseSelection(resp.Content, renderLimit)
}
