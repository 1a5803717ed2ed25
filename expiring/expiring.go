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

// Package expiring gives a background goroutine a back-reference to a
// handler whose owner may drop it at any time. Go has no destructors, so
// the owner flips the reference's validity explicitly (on Close/Detach)
// instead of relying on scope exit; every callback checks validity
// immediately before firing, so a late callback racing a Detach is a
// no-op rather than a use of freed state.
package expiring

import "sync"

// Ref holds a handler of type H that can be invalidated exactly once.
// The zero value is an already-expired Ref (Get returns ok=false); use New
// for a live one.
type Ref[H any] struct {
	mu      sync.RWMutex
	handler H
	live    bool
}

// New constructs a live Ref wrapping handler.
func New[H any](handler H) *Ref[H] {
	return &Ref[H]{handler: handler, live: true}
}

// Get returns the held handler and whether the Ref is still live. Callers
// must check ok before acting on handler; a !ok handler value is stale
// and must not be used.
func (r *Ref[H]) Get() (handler H, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handler, r.live
}

// Detach marks the Ref expired. Any Get call racing this one either
// completes before (sees live) or after (sees expired) — never a torn
// read — and every call after Detach returns ok=false.
func (r *Ref[H]) Detach() {
	r.mu.Lock()
	r.live = false
	r.mu.Unlock()
}
