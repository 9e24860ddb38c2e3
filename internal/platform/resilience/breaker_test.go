package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(threshold int, openTimeout time.Duration, now *time.Time) *Breaker {
	b := NewBreaker(BreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   1,
	})
	b.now = func() time.Time { return *now }
	return b
}

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	now := time.Now()
	b := newTestBreaker(3, time.Minute, &now)

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("allow before trip: %v", err)
		}
		b.RecordFailure()
	}

	if state := b.State(); state != StateOpen {
		t.Fatalf("expected open state, got %s", state)
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	t.Parallel()

	now := time.Now()
	b := newTestBreaker(3, time.Minute, &now)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	if state := b.State(); state != StateClosed {
		t.Fatalf("streak should have reset, got state %s", state)
	}
}

func TestBreaker_HalfOpenProbeClosesOnSuccess(t *testing.T) {
	t.Parallel()

	now := time.Now()
	b := newTestBreaker(1, time.Minute, &now)

	b.RecordFailure()
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected rejection while open, got %v", err)
	}

	now = now.Add(2 * time.Minute)

	if err := b.Allow(); err != nil {
		t.Fatalf("half-open probe should be allowed: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Fatalf("second concurrent probe should be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != StateClosed {
		t.Fatalf("successful probe should close the breaker, got %s", state)
	}
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Now()
	b := newTestBreaker(1, time.Minute, &now)

	b.RecordFailure()
	now = now.Add(2 * time.Minute)

	if err := b.Allow(); err != nil {
		t.Fatalf("half-open probe should be allowed: %v", err)
	}
	b.RecordFailure()

	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Fatalf("failed probe should reopen the breaker, got %v", err)
	}
}
