// package discovery implements the playlist discovery pipeline.
//
// A discovery request flows through three phases: candidate search against the
// catalog, a single LLM selection pass that narrows candidates to a short
// ranked list, and per-candidate enrichment (detail fetch + LLM summarization
// and scoring). Each phase completes for all items in scope before the next
// begins, and progress events are pushed best-effort to the requesting user.
package discovery

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/repositories"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
)

// Options tunes pipeline behavior.
type Options struct {
	PageDelayMS int // fixed delay between sequential upstream calls; 0 disables pacing
	TokenFloor  int // lower clamp for dynamic completion budgets
	TokenCeil   int // upper clamp for dynamic completion budgets
}

const (
	defaultTokenFloor = 1000
	defaultTokenCeil  = 8000
)

func (o Options) withDefaults() Options {
	if o.TokenFloor <= 0 {
		o.TokenFloor = defaultTokenFloor
	}
	if o.TokenCeil <= o.TokenFloor {
		o.TokenCeil = defaultTokenCeil
	}
	return o
}

// Engine orchestrates the discovery pipeline. All collaborators are injected;
// the engine holds no hidden process-wide state.
type Engine struct {
	catalog   services.Catalog
	completer services.Completer
	cache     *repositories.CacheRepository
	history   *repositories.HistoryRepository
	publisher Publisher
	pacer     *Pacer
	logger    *log.Logger
	opts      Options
}

// NewEngine creates an Engine with the provided collaborators. publisher may
// be nil, in which case progress events are discarded.
func NewEngine(
	catalog services.Catalog,
	completer services.Completer,
	cache *repositories.CacheRepository,
	history *repositories.HistoryRepository,
	publisher Publisher,
	logger *log.Logger,
	opts Options,
) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	opts = opts.withDefaults()

	return &Engine{
		catalog:   catalog,
		completer: completer,
		cache:     cache,
		history:   history,
		publisher: publisher,
		pacer:     NewPacer(opts.PageDelayMS),
		logger:    logger,
		opts:      opts,
	}
}
