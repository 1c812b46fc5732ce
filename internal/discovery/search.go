package discovery

import (
	"context"
	"fmt"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
)

// searchCandidates pages through catalog search until limit candidates are
// collected or the catalog runs out. Page size is fixed at the catalog's
// maximum; a page returning fewer items than requested is treated as an
// end-of-results sentinel. Returns the candidates in catalog order plus the
// catalog's reported total.
func (e *Engine) searchCandidates(ctx context.Context, userID, sessionID, text string, limit int) ([]models.Candidate, int, error) {
	pageSize := services.SearchPageSize
	requiredPages := (limit + pageSize - 1) / pageSize

	var candidates []models.Candidate
	total := 0

	for page := 1; page <= requiredPages; page++ {
		if err := e.pacer.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		pageLimit := limit - len(candidates)
		if pageLimit > pageSize {
			pageLimit = pageSize
		}

		result, err := e.catalog.SearchPlaylists(ctx, text, pageLimit, len(candidates))
		if err != nil {
			return nil, 0, err
		}

		if page == 1 {
			total = result.Total
		}
		candidates = append(candidates, result.Items...)

		e.emit(userID, searchPageEvent(sessionID, page, requiredPages, len(candidates)))

		if len(result.Items) < pageLimit {
			break
		}
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, total, nil
}
