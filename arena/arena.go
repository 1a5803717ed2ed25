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

// Package arena implements the growable send-buffer pool shared by every
// socket: acquire(n) hands out a byte slice of exactly length n, backed by a
// recycled capacity-bucketed pool; release returns it for reuse.
package arena

import "sync"

// Arena is a process-internal pool of byte buffers bucketed by capacity.
// Safe for concurrent use: every bucket access is guarded by mu.
type Arena struct {
	mu      sync.Mutex
	initial int
	buckets map[int][][]byte
}

// New creates an Arena whose freshly-allocated buffers reserve at least
// initialReserve bytes of capacity up front.
func New(initialReserve int) *Arena {
	if initialReserve < 0 {
		initialReserve = 0
	}
	return &Arena{initial: initialReserve, buckets: make(map[int][][]byte)}
}

// Buffer is a handle to a byte slice borrowed from an Arena.
type Buffer struct {
	data  []byte
	arena *Arena
}

// Bytes exposes the underlying slice, sized exactly to the acquired length.
func (b *Buffer) Bytes() []byte { return b.data }

// Release returns the buffer to its arena, or drops it if the arena has
// since been discarded (Arena is a plain Go value reclaimed by the garbage
// collector, so "dropped" here means the caller simply stops calling
// Release — this is a no-op-safe operation either way).
func (b *Buffer) Release() {
	if b == nil || b.arena == nil || b.data == nil {
		return
	}
	b.arena.release(b.data)
	b.data = nil
}

// Acquire returns a Buffer of exactly n bytes, reusing pooled capacity when
// available.
func (a *Arena) Acquire(n int) *Buffer {
	cap := a.bucketCap(n)

	a.mu.Lock()
	pool := a.buckets[cap]
	var buf []byte
	if len(pool) > 0 {
		buf = pool[len(pool)-1]
		a.buckets[cap] = pool[:len(pool)-1]
	}
	a.mu.Unlock()

	if buf == nil {
		buf = make([]byte, 0, cap)
	}
	return &Buffer{data: buf[:n], arena: a}
}

// AcquireCopy acquires a buffer of len(src) and copies src into it.
func (a *Arena) AcquireCopy(src []byte) *Buffer {
	b := a.Acquire(len(src))
	copy(b.data, src)
	return b
}

func (a *Arena) release(buf []byte) {
	cap := cap(buf)
	b := a.roundCap(cap)

	a.mu.Lock()
	a.buckets[b] = append(a.buckets[b], buf[:0])
	a.mu.Unlock()
}

// bucketCap picks the pool bucket a request of size n draws from: the
// smallest power-of-two-ish bucket that is >= max(n, initial).
func (a *Arena) bucketCap(n int) int {
	want := n
	if want < a.initial {
		want = a.initial
	}
	return a.roundCap(want)
}

func (a *Arena) roundCap(n int) int {
	if n <= a.initial {
		return a.initial
	}
	c := a.initial
	if c < 1 {
		c = 1
	}
	for c < n {
		c *= 2
	}
	return c
}

// Len reports how many buffers are currently pooled across all buckets —
// exposed for tests verifying bounded growth.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, p := range a.buckets {
		total += len(p)
	}
	return total
}
