package discovery

import (
	"strings"
	"testing"

	"github.com/desertthunder/cratedig/internal/models"
)

func TestBuildSelectionPrompt(t *testing.T) {
	candidates := []models.Candidate{
		{ID: "p1", Name: "Lofi Study", Owner: "a", TrackCount: 40},
		{ID: "p2", Name: "Beats to Relax", Owner: "b", TrackCount: 80, Description: "instrumental hip hop"},
	}

	t.Run("Enumerates Candidates", func(t *testing.T) {
		prompt := buildSelectionPrompt("lofi beats", candidates, 10)

		if !strings.Contains(prompt, `"lofi beats"`) {
			t.Error("query missing from prompt")
		}
		if !strings.Contains(prompt, "id=p1") || !strings.Contains(prompt, "id=p2") {
			t.Error("candidate ids missing from prompt")
		}
		if !strings.Contains(prompt, "instrumental hip hop") {
			t.Error("candidate description missing from prompt")
		}
		if !strings.Contains(prompt, "Return between 5 and 10 ids") {
			t.Errorf("unexpected selection bounds:\n%s", prompt)
		}
	})

	t.Run("Small Render Limit Keeps Bounds Ordered", func(t *testing.T) {
		prompt := buildSelectionPrompt("lofi beats", candidates, 1)

		if !strings.Contains(prompt, "Return between 1 and 1 ids") {
			t.Errorf("lower bound not clamped to render limit:\n%s", prompt)
		}
		if strings.Contains(prompt, "between 5 and 1") {
			t.Error("prompt instructs a contradictory range")
		}
	})

	t.Run("Render Limit Below Five Lowers The Floor", func(t *testing.T) {
		prompt := buildSelectionPrompt("lofi beats", candidates, 3)

		if !strings.Contains(prompt, "Return between 3 and 3 ids") {
			t.Errorf("unexpected selection bounds:\n%s", prompt)
		}
	})
}
