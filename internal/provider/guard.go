package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/Sadiq-Teslim/linq-sub000/internal/resilience"
)

// GuardConfig tunes the retry, rate-limit, and breaker behavior shared by
// all adapters. Zero values take the defaults below.
type GuardConfig struct {
	RequestsPerSecond float64       // default 5
	Burst             int           // default 2
	Timeout           time.Duration // per-attempt deadline, default 15s
	BreakerThreshold  int           // consecutive failures before opening
	BreakerCooldown   time.Duration
	Retry             resilience.RetryConfig
}

// guard wraps every outbound call of one adapter with rate limiting,
// bounded retries, a per-attempt timeout, and a circuit breaker.
type guard struct {
	name    string
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
	timeout time.Duration
}

func newGuard(name string, cfg GuardConfig) *guard {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = resilience.DefaultRetryConfig()
	}
	return &guard{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: resilience.NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		retry:   retry,
		timeout: cfg.Timeout,
	}
}

// execute runs fn under the guard. The breaker outcome is recorded once per
// logical call, after retries are exhausted or the call succeeds, so a
// retried transient blip counts as a single failure.
func execute[T any](ctx context.Context, g *guard, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !g.breaker.Allow() {
		return zero, resilience.ErrBreakerOpen
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return zero, err
	}

	retry := g.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(g.name, operation)
	}

	val, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (T, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return fn(attemptCtx)
	})
	g.breaker.Record(err)
	if err != nil {
		return zero, err
	}
	return val, nil
}
