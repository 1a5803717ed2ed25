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

// Package atomic provides a generic, type-safe wrapper over sync/atomic.Value
// for publishing state that is read from one goroutine and written from
// another without a mutex. No other package of this module imports it.
package atomic

import "sync/atomic"

// Value is a generic atomic cell for T.
type Value[T any] struct {
	v atomic.Value
}

type box[T any] struct{ val T }

// NewValue returns a Value primed with def.
func NewValue[T any](def T) *Value[T] {
	v := &Value[T]{}
	v.Store(def)
	return v
}

// Load returns the current value, or the zero value of T if never stored.
func (o *Value[T]) Load() T {
	i := o.v.Load()
	if i == nil {
		var zero T
		return zero
	}
	return i.(box[T]).val
}

// Store sets the current value.
func (o *Value[T]) Store(val T) {
	o.v.Store(box[T]{val: val})
}

// Swap atomically stores new and returns the previous value.
func (o *Value[T]) Swap(new T) (old T) {
	i := o.v.Swap(box[T]{val: new})
	if i == nil {
		var zero T
		return zero
	}
	return i.(box[T]).val
}

// CompareAndSwap atomically swaps in new if the stored value equals old,
// compared by value with ==. It panics if T is not comparable.
func (o *Value[T]) CompareAndSwap(old, new T) bool {
	return o.v.CompareAndSwap(box[T]{val: old}, box[T]{val: new})
}
