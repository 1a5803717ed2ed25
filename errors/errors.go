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

// Package errors provides a code-carrying error type with parent chaining
// and call-site capture, compatible with errors.Is/errors.As.
package errors

import (
	"fmt"
	"runtime"
)

// CodeError identifies a class of failure. Zero is reserved for "no code".
type CodeError uint16

const (
	// UnknownError is used when a code was never assigned.
	UnknownError CodeError = 0
)

// Error is the package's error shape: a code, a message, optional parents
// and the frame where it was created.
type Error interface {
	error
	Code() CodeError
	IsCode(code CodeError) bool
	Message() string
	Parents() []error
	Add(parents ...error) Error
	Unwrap() error
	Trace() runtime.Frame
}

type ers struct {
	code CodeError
	msg  string
	par  []error
	trc  runtime.Frame
}

// New builds an Error with the given code and message, capturing the
// caller's frame.
func New(code CodeError, msg string) Error {
	return &ers{code: code, msg: msg, trc: callerFrame(2)}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code CodeError, format string, args ...interface{}) Error {
	return &ers{code: code, msg: fmt.Sprintf(format, args...), trc: callerFrame(2)}
}

// Wrap builds an Error with the given code/message, chaining parent as the
// sole parent. Returns nil if parent is nil.
func Wrap(code CodeError, msg string, parent error) Error {
	if parent == nil {
		return nil
	}
	e := &ers{code: code, msg: msg, trc: callerFrame(2)}
	e.par = append(e.par, parent)
	return e
}

// IfError returns nil if err is nil, otherwise wraps it with code/msg.
func IfError(code CodeError, msg string, err error) Error {
	if err == nil {
		return nil
	}
	return Wrap(code, msg, err)
}

func callerFrame(skip int) runtime.Frame {
	pc := make([]uintptr, 1)
	n := runtime.Callers(skip+1, pc)
	if n == 0 {
		return runtime.Frame{}
	}
	frame, _ := runtime.CallersFrames(pc[:n]).Next()
	return frame
}

func (e *ers) Code() CodeError { return e.code }

func (e *ers) IsCode(code CodeError) bool { return e.code == code }

func (e *ers) Message() string { return e.msg }

func (e *ers) Parents() []error { return e.par }

func (e *ers) Trace() runtime.Frame { return e.trc }

func (e *ers) Add(parents ...error) Error {
	for _, p := range parents {
		if p == nil || p == error(e) {
			continue
		}
		e.par = append(e.par, p)
	}
	return e
}

func (e *ers) Error() string {
	if len(e.par) == 0 {
		return e.msg
	}
	s := e.msg
	for _, p := range e.par {
		s += ": " + p.Error()
	}
	return s
}

func (e *ers) Unwrap() error {
	if len(e.par) == 0 {
		return nil
	}
	return e.par[0]
}

// Is reports whether target is an *ers carrying the same code, enabling
// errors.Is(err, errors.New(SomeCode, "")) style sentinel comparisons.
func (e *ers) Is(target error) bool {
	other, ok := target.(*ers)
	if !ok {
		return false
	}
	return e.code != UnknownError && e.code == other.code
}
