package executor

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// gate enforces a minimum interval between successive calls. A limiter
// with burst 1 and rate 1/interval reproduces timestamp-gated throttling:
// each Wait consumes the single token and the next one is minted interval
// later, regardless of whether the guarded call succeeds.
type gate struct {
	limiter *rate.Limiter
}

func newGate(interval time.Duration) *gate {
	if interval <= 0 {
		return &gate{}
	}
	return &gate{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// wait blocks until the minimum interval since the previous call has
// elapsed, or ctx is done.
func (g *gate) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
