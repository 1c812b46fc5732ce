// package formatter renders discovery results and history to output formats (plain text, Markdown, JSON)
package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// ResultToText renders a FinalResult as plain text for terminal output.
func ResultToText(result *models.FinalResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Query: %s\n", result.Query))
	if result.Message != "" {
		buf.WriteString(result.Message + "\n")
		return buf.Bytes()
	}
	buf.WriteString(fmt.Sprintf("Searched %d playlists, analyzed %d, showing %d\n\n",
		result.TotalSearchResults, result.SelectedCount, result.FinalCount))

	for i, pl := range result.Playlists {
		buf.WriteString(fmt.Sprintf("%d. %s — %s (%.2f, %s)\n", i+1, pl.Name, pl.Owner, pl.MatchScore, pl.AlignmentLevel))
		buf.WriteString(fmt.Sprintf("   %d tracks, %d followers\n", pl.TrackCount, pl.Followers))
		buf.WriteString(fmt.Sprintf("   %s\n", pl.SummaryText))
		if traits := characteristicsLine(pl.Characteristics); traits != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", traits))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// ResultToMarkdown renders a FinalResult as a Markdown document.
func ResultToMarkdown(result *models.FinalResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Playlists for %q\n\n", result.Query))
	if result.Message != "" {
		buf.WriteString(result.Message + "\n")
		return buf.Bytes()
	}
	buf.WriteString(fmt.Sprintf("**Searched**: %d | **Analyzed**: %d | **Shown**: %d\n\n",
		result.TotalSearchResults, result.SelectedCount, result.FinalCount))

	for i, pl := range result.Playlists {
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, pl.Name))
		buf.WriteString(fmt.Sprintf("**Match**: %.2f (%s) | **By**: %s | **Tracks**: %d | **Followers**: %d\n\n",
			pl.MatchScore, pl.AlignmentLevel, pl.Owner, pl.TrackCount, pl.Followers))
		buf.WriteString(pl.SummaryText + "\n\n")
		if traits := characteristicsLine(pl.Characteristics); traits != "" {
			buf.WriteString(fmt.Sprintf("*%s*\n\n", traits))
		}
		if len(pl.UniqueArtists) > 0 {
			buf.WriteString(fmt.Sprintf("Artists: %s\n\n", strings.Join(pl.UniqueArtists, ", ")))
		}
	}

	return buf.Bytes()
}

// ResultToJSON renders a FinalResult as (optionally indented) JSON.
func ResultToJSON(result *models.FinalResult, pretty bool) ([]byte, error) {
	return shared.MarshalJSON(result, pretty)
}

// HistoryToText renders history records as an aligned plain-text table.
func HistoryToText(records []models.HistoryRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No searches yet.\n")
		return buf.Bytes()
	}

	for i, rec := range records {
		status := "expired"
		if rec.Cached {
			status = "cached"
		}
		buf.WriteString(fmt.Sprintf("%3d. %s  %-8s %2d results  %s\n",
			i+1, rec.Timestamp.Format("2006-01-02 15:04"), status, rec.ResultCount, rec.Query))
		buf.WriteString(fmt.Sprintf("     hash: %s  model: %s\n", rec.SearchHash, rec.Model))
	}

	return buf.Bytes()
}

func characteristicsLine(c models.Characteristics) string {
	var parts []string
	if c.PrimaryGenre != "" {
		parts = append(parts, "genre: "+c.PrimaryGenre)
	}
	if c.Mood != "" {
		parts = append(parts, "mood: "+c.Mood)
	}
	if c.Tempo != "" {
		parts = append(parts, "tempo: "+c.Tempo)
	}
	if c.DecadeRange != "" {
		parts = append(parts, "era: "+c.DecadeRange)
	}
	if len(c.Instrumentation) > 0 {
		parts = append(parts, "instrumentation: "+strings.Join(c.Instrumentation, "/"))
	}
	return strings.Join(parts, " | ")
}
