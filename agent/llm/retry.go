package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

type SleepFunc func(ctx context.Context, d time.Duration) error

var _ contractx.TextGenerator = (*RetryingGenerator)(nil)

// RetryingGenerator retries rate-limited calls, waiting base*2^attempt
// between attempts. Other errors are returned immediately.
type RetryingGenerator struct {
	next     contractx.TextGenerator
	attempts int
	baseWait time.Duration
	sleep    SleepFunc
}

type RetryOption func(*RetryingGenerator)

func WithRetrySleep(fn SleepFunc) RetryOption {
	return func(g *RetryingGenerator) {
		if fn != nil {
			g.sleep = fn
		}
	}
}

func NewRetryingGenerator(next contractx.TextGenerator, attempts int, baseWait time.Duration, opts ...RetryOption) *RetryingGenerator {
	if attempts <= 0 {
		attempts = 3
	}
	if baseWait <= 0 {
		baseWait = time.Second
	}
	g := &RetryingGenerator{
		next:     next,
		attempts: attempts,
		baseWait: baseWait,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *RetryingGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < g.attempts; attempt++ {
		out, err := g.next.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, contractx.ErrRateLimited) {
			return "", err
		}
		lastErr = err

		if attempt == g.attempts-1 {
			break
		}
		wait := g.baseWait * time.Duration(1<<attempt)
		log.Warn().Int("attempt", attempt+1).Dur("wait", wait).Msg("llm rate limited, backing off")
		if err := g.sleep(ctx, wait); err != nil {
			return "", fmt.Errorf("%w: backoff interrupted: %v", contractx.ErrTimeout, err)
		}
	}
	return "", fmt.Errorf("%w: rate limited after %d attempts: %v", contractx.ErrRemoteCall, g.attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
