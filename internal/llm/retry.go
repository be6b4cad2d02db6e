package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// singleShot lists purposes a learner is actively waiting on. They get one
// attempt so a failure falls back quickly instead of stalling the quiz.
var singleShot = map[string]bool{
	PurposeJudge: true,
}

// RetryProvider repeats transient failures. A malformed body is repeated
// at most once per call.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps p with cfg's retry policy.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := r.attempts(ctx)
	retriedInvalid := false

	for attempt := 0; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt+1 >= attempts || !transient(err) {
			return nil, err
		}
		var inv *ErrInvalidResponse
		if errors.As(err, &inv) {
			if retriedInvalid {
				return nil, err
			}
			retriedInvalid = true
		}

		t := time.NewTimer(r.delay(attempt, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (r *RetryProvider) attempts(ctx context.Context) int {
	if singleShot[PurposeFrom(ctx)] {
		return 1
	}
	return max(r.config.MaxAttempts, 1)
}

// delay is the pause before attempt+1. A vendor Retry-After wins. A
// multiplier of 1 means a fixed pause and gets no jitter.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	d := float64(r.config.InitialWait)
	if r.config.Multiplier <= 1 {
		return time.Duration(d)
	}
	d *= math.Pow(r.config.Multiplier, float64(attempt))
	if r.config.MaxWait > 0 {
		d = math.Min(d, float64(r.config.MaxWait))
	}
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(d)
}
