package discovery

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer inserts a fixed (non-exponential) delay between sequential upstream
// calls. The delay is a politeness tradeoff toward rate-limited collaborators,
// not a correctness mechanism.
//
// Internally a [rate.Limiter] with burst 1, so the first call through an idle
// pacer proceeds immediately and each subsequent call waits out the interval.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given inter-step delay in milliseconds.
// A non-positive delay yields a pacer that never waits.
func NewPacer(delayMS int) *Pacer {
	if delayMS <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	interval := time.Duration(delayMS) * time.Millisecond
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next step may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
