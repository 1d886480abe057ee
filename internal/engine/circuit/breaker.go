// Package circuit guards engine construction against repeated backend
// failures: after a threshold of consecutive failures the engine refuses to
// start until a cooldown elapses.
package circuit

import (
	"sync"
	"time"
)

type Breaker struct {
	mu             sync.RWMutex
	threshold      int
	cooldownPeriod time.Duration
	failureCount   int
	cooldownUntil  time.Time
}

func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold:      threshold,
		cooldownPeriod: cooldown,
	}
}

// RecordFailure counts a failure, entering cooldown when the threshold is
// reached. Returns true if this failure tripped the breaker.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	if b.failureCount >= b.threshold {
		b.cooldownUntil = time.Now().Add(b.cooldownPeriod)
		b.failureCount = 0
		return true
	}
	return false
}

// RecordSuccess clears the consecutive-failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
}

// InCooldown reports whether starts are currently blocked.
func (b *Breaker) InCooldown() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return time.Now().Before(b.cooldownUntil)
}

// CooldownRemaining returns how long starts stay blocked, zero when open.
func (b *Breaker) CooldownRemaining() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if time.Now().Before(b.cooldownUntil) {
		return time.Until(b.cooldownUntil)
	}
	return 0
}

// Reset clears both the failure count and any active cooldown.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	b.cooldownUntil = time.Time{}
}

func (b *Breaker) FailureCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failureCount
}
