package discovery

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// Model responses are requested against a schema but providers still return
// fenced, prefixed, or loosely-shaped JSON often enough that every response
// goes through a strict parse followed by lenient recovery. Recovery never
// panics or throws past this boundary: callers get a value or a
// [shared.ErrLLMParse] error.

// extractJSON returns the first balanced JSON object or array in content,
// ignoring markdown fences and surrounding prose.
func extractJSON(content string) (string, bool) {
	content = strings.TrimSpace(content)

	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			content = rest[:end]
		} else {
			content = rest
		}
	}

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}

	return "", false
}

// selection id keys accepted during lenient recovery, in preference order.
var selectionIDKeys = []string{"selectedPlaylistIds", "selectedIds", "selected_ids", "playlistIds", "ids"}

// parseSelection decodes a selection response. Strict schema parse first; on
// failure, any selectedIds-shaped array found in the payload is accepted and
// truncated to max. With no usable array the error is unrecoverable.
func parseSelection(content string, max int) (models.Selection, error) {
	var sel models.Selection
	if err := json.Unmarshal([]byte(content), &sel); err == nil && len(sel.SelectedIDs) > 0 {
		return truncateSelection(sel, max), nil
	}

	raw, ok := extractJSON(content)
	if !ok {
		return models.Selection{}, fmt.Errorf("%w: no JSON found in selection response", shared.ErrLLMParse)
	}

	// A bare array of ids is acceptable.
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err == nil && len(ids) > 0 {
		return truncateSelection(models.Selection{SelectedIDs: ids}, max), nil
	}

	var loose map[string]any
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return models.Selection{}, fmt.Errorf("%w: selection response is not valid JSON", shared.ErrLLMParse)
	}

	for _, key := range selectionIDKeys {
		if found := stringSlice(loose[key]); len(found) > 0 {
			sel = models.Selection{SelectedIDs: found}
			if reasoning, ok := loose["reasoning"].(string); ok {
				sel.Reasoning = reasoning
			}
			return truncateSelection(sel, max), nil
		}
	}

	return models.Selection{}, fmt.Errorf("%w: selection response has no selected ids", shared.ErrLLMParse)
}

func truncateSelection(sel models.Selection, max int) models.Selection {
	seen := make(map[string]bool, len(sel.SelectedIDs))
	var ids []string
	for _, id := range sel.SelectedIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if max > 0 && len(ids) >= max {
			break
		}
	}
	sel.SelectedIDs = ids
	return sel
}

// parseSummary decodes a summarization response for playlistID. The second
// return reports whether the content parsed; when false the summary is
// synthesized from safe defaults (moderate alignment, 0.7 score) so a single
// malformed response never fails the batch.
func parseSummary(content, playlistID string) (models.Summary, bool) {
	var s models.Summary
	if err := json.Unmarshal([]byte(content), &s); err == nil && s.SummaryText != "" {
		return normalizeSummary(s, playlistID), true
	}

	raw, ok := extractJSON(content)
	if ok {
		var loose map[string]any
		if err := json.Unmarshal([]byte(raw), &loose); err == nil {
			if s, recovered := summaryFromMap(loose); recovered {
				return normalizeSummary(s, playlistID), true
			}
		}
	}

	return normalizeSummary(models.Summary{
		SummaryText:    "Analysis unavailable for this playlist.",
		AlignmentLevel: models.AlignmentModerate,
		MatchScore:     0.7,
	}, playlistID), false
}

func summaryFromMap(loose map[string]any) (models.Summary, bool) {
	var s models.Summary

	for _, key := range []string{"summary", "summaryText", "analysis"} {
		if v, ok := loose[key].(string); ok && v != "" {
			s.SummaryText = v
			break
		}
	}
	if s.SummaryText == "" {
		return s, false
	}

	if v, ok := loose["alignmentLevel"].(string); ok {
		s.AlignmentLevel = v
	}
	if v, ok := loose["reasoning"].(string); ok {
		s.Reasoning = v
	}
	s.MatchScore = looseFloat(loose["matchScore"], 0.7)

	if c, ok := loose["characteristics"].(map[string]any); ok {
		s.Characteristics = models.Characteristics{
			PrimaryGenre:    looseString(c["primaryGenre"]),
			Mood:            looseString(c["mood"]),
			Instrumentation: stringSlice(c["instrumentation"]),
			Tempo:           looseString(c["tempo"]),
			DecadeRange:     looseString(c["decadeRange"]),
		}
	}

	return s, true
}

// normalizeSummary forces the invariants: matchScore in [0,1], alignment from
// the known set, playlist id attached.
func normalizeSummary(s models.Summary, playlistID string) models.Summary {
	s.PlaylistID = playlistID

	switch s.AlignmentLevel {
	case models.AlignmentStrong, models.AlignmentModerate, models.AlignmentWeak, models.AlignmentTangential:
	default:
		s.AlignmentLevel = models.AlignmentModerate
	}

	if s.MatchScore < 0 {
		s.MatchScore = 0
	}
	if s.MatchScore > 1 {
		// Models sometimes score on a 0-100 scale despite instructions.
		if s.MatchScore <= 100 {
			s.MatchScore = s.MatchScore / 100
		} else {
			s.MatchScore = 1
		}
	}

	return s
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func looseString(v any) string {
	s, _ := v.(string)
	return s
}

func looseFloat(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return fallback
}
