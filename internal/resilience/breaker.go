package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrBreakerOpen is returned when a call is rejected because the provider's
// breaker is open. Orchestrators treat it like a skipped provider.
var ErrBreakerOpen = eris.New("provider breaker is open")

// Breaker is a minimal per-provider circuit breaker: after a run of
// consecutive failures the provider is rested for a cooldown period,
// then a single probe call is allowed through.
type Breaker struct {
	mu sync.Mutex

	failureThreshold int
	cooldown         time.Duration

	consecutiveFailures int
	openedAt            time.Time
	open                bool

	now func() time.Time // injectable for testing
}

// NewBreaker creates a breaker that opens after failureThreshold consecutive
// failures and allows a probe after cooldown.
func NewBreaker(failureThreshold int, cooldown time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. After cooldown an open breaker
// lets one probe through; the probe's outcome decides whether it closes.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		return true // probe
	}
	return false
}

// Record feeds a call outcome into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.consecutiveFailures = 0
		b.open = false
		return
	}

	b.consecutiveFailures++
	if b.consecutiveFailures >= b.failureThreshold {
		b.open = true
		b.openedAt = b.now()
	}
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	return !b.Allow()
}
