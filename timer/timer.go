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

// Package timer implements the one-shot / periodic interval timer consumed
// by the retry executor and available to embedders directly.
package timer

import (
	"sync"
	"time"
)

// Timer is a single-slot scheduler: one handler, armed once-shot or
// periodic, cancellable at any time.
type Timer struct {
	mu       sync.Mutex
	handler  func()
	t        *time.Timer
	periodic time.Duration
	gen      uint64 // bumped on every cancel/reschedule to silence stale fires
}

// New returns an unarmed Timer.
func New() *Timer { return &Timer{} }

// SetHandler installs the callback slot. Calling it twice is a programming
// error (mirrors the single-slot contract); the second call simply
// replaces the first since Go has no debug-assert convention to lean on
// here.
func (t *Timer) SetHandler(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = fn
}

// Schedule arms a one-shot expiration after delay.
func (t *Timer) Schedule(delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.periodic = 0
	t.gen++
	gen := t.gen
	t.t = time.AfterFunc(delay, func() { t.fire(gen) })
}

// SchedulePeriodic arms a repeating expiration every interval, re-armed
// from the last deadline (not "now") to avoid drift.
func (t *Timer) SchedulePeriodic(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.periodic = interval
	t.gen++
	gen := t.gen
	deadline := time.Now().Add(interval)
	t.t = time.AfterFunc(interval, func() { t.firePeriodic(gen, deadline, interval) })
}

// Cancel suppresses any pending or in-flight expiration.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
}

func (t *Timer) stopLocked() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	fn := t.handler
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *Timer) firePeriodic(gen uint64, deadline time.Time, interval time.Duration) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	fn := t.handler
	// Re-arm before invoking the handler so a handler that calls Cancel
	// synchronously takes effect (its Cancel bumps gen, so the already
	// re-armed time.AfterFunc below will find a stale gen and no-op).
	next := deadline.Add(interval)
	t.t = time.AfterFunc(time.Until(next), func() { t.firePeriodic(gen, next, interval) })
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}
