package gate

import (
	"context"

	"golang.org/x/time/rate"
)

// AcquireWithRetry calls Acquire until the outcome is something other than
// Denied, pacing retries with the limiter so denied callers back off instead
// of spinning against the ledger. A nil limiter gets a modest default of 100
// attempts per second.
func AcquireWithRetry(ctx context.Context, g *Gate, client, class int, limiter *rate.Limiter) (Outcome, error) {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(100), 1)
	}
	for {
		outcome, err := g.Acquire(ctx, client, class)
		if outcome != Denied {
			return outcome, err
		}
		if werr := limiter.Wait(ctx); werr != nil {
			return Failed, werr
		}
	}
}
