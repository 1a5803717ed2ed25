/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package retry implements the policy-driven delayed retry executor that
// backs TCP socket reconnection.
package retry

import (
	"sync"
	"time"

	"github.com/lhamowski/luxnet/timer"
)

// Strategy selects the backoff curve.
type Strategy uint8

const (
	Fixed Strategy = iota
	Linear
	Exponential
)

// Policy is the (strategy, max_attempts, base_delay, max_delay) tuple
// controlling backoff. MaxAttempts == nil means unlimited.
type Policy struct {
	Strategy    Strategy
	MaxAttempts *uint32
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Delay computes the delay before attempt k (0-indexed), honoring the
// invariant min(base, max) <= d <= max for base > 0, and d == 0 when
// base_delay == 0.
func (p Policy) Delay(k uint32) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	base := p.BaseDelay
	max := p.MaxDelay
	if max > 0 && base > max {
		base = max
	}
	if k == 0 {
		return base
	}
	switch p.Strategy {
	case Fixed:
		return base
	case Linear:
		return linearDelay(p.BaseDelay, max, k)
	default:
		return exponentialDelay(p.BaseDelay, max, k)
	}
}

func linearDelay(base, max time.Duration, k uint32) time.Duration {
	if max <= 0 {
		max = base
	}
	// Overflow-safe: base*k exceeds max iff base > max/k in integer math, so
	// the product below is only computed when it fits within max.
	if base > max/time.Duration(k) {
		return max
	}
	d := base * time.Duration(k)
	if d > max {
		return max
	}
	return d
}

func exponentialDelay(base, max time.Duration, k uint32) time.Duration {
	if max <= 0 {
		max = base
	}
	const maxShift = 62 // stay well inside int64 range
	if k > maxShift {
		return max
	}
	mult := time.Duration(1) << k
	if base > max/mult {
		return max
	}
	d := base * mult
	if d > max {
		return max
	}
	return d
}

// Executor drives delayed retries per Policy.
type Executor struct {
	mu         sync.Mutex
	policy     Policy
	attempts   uint32
	timer      *timer.Timer
	retryFn    func()
	exhausted  func()
	cancelled  bool
}

// New returns an Executor for the given policy.
func New(policy Policy) *Executor {
	e := &Executor{policy: policy, timer: timer.New()}
	e.timer.SetHandler(e.onExpired)
	return e
}

// SetRetryAction installs the callback invoked on every expiration.
func (e *Executor) SetRetryAction(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.retryFn = fn
}

// SetExhaustedCallback installs the callback invoked once attempts are
// exhausted.
func (e *Executor) SetExhaustedCallback(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exhausted = fn
}

// Retry arms the next attempt, or no-ops if attempts are already exhausted
// or the executor was cancelled (Reset re-enables it).
func (e *Executor) Retry() {
	e.mu.Lock()
	if e.cancelled || e.isExhaustedLocked() {
		e.mu.Unlock()
		return
	}
	delay := e.policy.Delay(e.attempts)
	e.mu.Unlock()

	if delay <= 0 {
		e.onExpired()
		return
	}
	e.timer.Schedule(delay)
}

func (e *Executor) onExpired() {
	e.mu.Lock()
	e.attempts++
	fn := e.retryFn
	exhausted := e.isExhaustedLocked()
	var exFn func()
	if exhausted {
		exFn = e.exhausted
	}
	e.mu.Unlock()

	if fn != nil {
		fn()
	}
	if exhausted && exFn != nil {
		exFn()
	}
}

// Cancel suppresses any pending expiration; Retry becomes a no-op until
// Reset.
func (e *Executor) Cancel() {
	e.mu.Lock()
	e.cancelled = true
	e.mu.Unlock()
	e.timer.Cancel()
}

// Reset cancels any pending expiration and zeroes the attempt counter.
func (e *Executor) Reset() {
	e.timer.Cancel()
	e.mu.Lock()
	e.attempts = 0
	e.cancelled = false
	e.mu.Unlock()
}

// IsExhausted reports whether MaxAttempts is set and attempts >= MaxAttempts.
func (e *Executor) IsExhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isExhaustedLocked()
}

func (e *Executor) isExhaustedLocked() bool {
	if e.policy.MaxAttempts == nil {
		return false
	}
	return e.attempts >= *e.policy.MaxAttempts
}

// Attempts reports the number of completed attempts.
func (e *Executor) Attempts() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts
}
