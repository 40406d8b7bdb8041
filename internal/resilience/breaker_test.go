package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	fail := errors.New("boom")
	for i := 0; i < 2; i++ {
		b.Record(fail)
	}
	if !b.Allow() {
		t.Fatal("breaker should still be closed below threshold")
	}

	b.Record(fail)
	if b.Allow() {
		t.Fatal("breaker should be open after threshold failures")
	}
}

func TestBreaker_SuccessResets(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	fail := errors.New("boom")
	b.Record(fail)
	b.Record(fail)
	b.Record(nil)
	b.Record(fail)
	b.Record(fail)

	if !b.Allow() {
		t.Fatal("success should reset the consecutive failure count")
	}
}

func TestBreaker_ProbeAfterCooldown(t *testing.T) {
	b := NewBreaker(1, 10*time.Second)
	now := time.Now()
	b.now = func() time.Time { return now }

	b.Record(errors.New("boom"))
	if b.Allow() {
		t.Fatal("breaker should be open")
	}

	now = now.Add(11 * time.Second)
	if !b.Allow() {
		t.Fatal("breaker should allow a probe after cooldown")
	}

	b.Record(nil)
	if !b.Allow() {
		t.Fatal("successful probe should close the breaker")
	}
}
