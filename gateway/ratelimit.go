package gateway

import (
	"context"
	"sync"
	"time"
)

// TokenBucket gates every outbound exchange call behind one shared budget.
// The bucket refills to full capacity once per refill period; when drained,
// an acquirer waits refillPeriod/capacity and is then granted. The mutex is
// held across the wait so contending callers serialize one request per
// interval instead of being batch-released.
type TokenBucket struct {
	mu           sync.Mutex
	tokens       int
	capacity     int
	refillPeriod time.Duration
	lastRefill   time.Time
}

func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	if refillPeriod <= 0 {
		refillPeriod = 1500 * time.Millisecond
	}
	return &TokenBucket{
		tokens:       capacity,
		capacity:     capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Acquire blocks until a token is granted. It never fails; a cancelled
// context only cuts the wait short.
func (b *TokenBucket) Acquire(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Sub(b.lastRefill) >= b.refillPeriod {
		b.tokens = b.capacity
		b.lastRefill = now
	}
	if b.tokens > 0 {
		b.tokens--
		return
	}

	wait := b.refillPeriod / time.Duration(b.capacity)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
