package request

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// ProviderBackoff throttles outbound calls per provider after upstream
// failures. Each failure doubles the hold-off up to a cap; successes unwind
// it one step at a time so a recovering API is probed gently rather than
// slammed the moment it answers once.
type ProviderBackoff struct {
	mu   sync.Mutex
	held map[string]*holdoff

	base time.Duration
	cap  time.Duration
}

// holdoff is the per-provider penalty: consecutive failure count and the
// earliest instant the next request may go out.
type holdoff struct {
	failures int
	until    time.Time
}

// NewProviderBackoff creates a backoff manager with the given base delay and
// maximum hold-off.
func NewProviderBackoff(base, max time.Duration) *ProviderBackoff {
	return &ProviderBackoff{
		held: make(map[string]*holdoff),
		base: base,
		cap:  max,
	}
}

// Wait blocks until the provider's hold-off expires or ctx is cancelled,
// returning the context error in the latter case. Providers with no recorded
// failures pass through immediately.
func (b *ProviderBackoff) Wait(ctx context.Context, provider string) error {
	b.mu.Lock()
	h, ok := b.held[provider]
	var remaining time.Duration
	if ok {
		remaining = time.Until(h.until)
	}
	b.mu.Unlock()

	if !ok || remaining <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RecordFailure doubles the provider's hold-off.
func (b *ProviderBackoff) RecordFailure(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.held[provider]
	if !ok {
		h = &holdoff{}
		b.held[provider] = h
	}
	h.failures++
	h.until = time.Now().Add(b.penalty(h.failures))
}

// RecordSuccess unwinds one failure step; at zero the hold-off clears.
func (b *ProviderBackoff) RecordSuccess(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.held[provider]
	if !ok {
		return
	}
	if h.failures > 0 {
		h.failures--
	}
	if h.failures == 0 {
		delete(b.held, provider)
	}
}

// penalty is base * 2^(failures-1), capped, plus up to 10% jitter so
// parallel workers don't retry in lockstep.
func (b *ProviderBackoff) penalty(failures int) time.Duration {
	delay := b.base << (failures - 1)
	if delay > b.cap || delay <= 0 {
		delay = b.cap
	}
	return delay + time.Duration(rand.Float64()*0.1*float64(delay))
}

// State reports the provider's failure count and earliest allowed request
// time, for stats and tests.
func (b *ProviderBackoff) State(provider string) (failures int, until time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if h, ok := b.held[provider]; ok {
		return h.failures, h.until
	}
	return 0, time.Time{}
}
