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

// Package logger is the leveled logging façade threaded through every core
// component. It is a capability, not a singleton: components are handed a
// Logger (or nil, meaning "discard").
package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Level mirrors logrus' severity ordering; each value is mapped to its
// logrus counterpart so the backend does the filtering.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (l Level) logrus() logrus.Level {
	switch l {
	case PanicLevel:
		return logrus.PanicLevel
	case FatalLevel:
		return logrus.FatalLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// Logger is the façade every core component depends on.
type Logger interface {
	SetLevel(l Level)
	GetLevel() Level
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
	// WithField returns a derived logger carrying an extra structured field.
	WithField(key string, value interface{}) Logger
}

type logger struct {
	entry *logrus.Entry
}

// New returns a Logger backed by logrus, logging to the package-level
// standard logrus output at InfoLevel by default.
func New() Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return &logger{entry: logrus.NewEntry(l)}
}

// NewFrom wraps an already-configured *logrus.Logger.
func NewFrom(l *logrus.Logger) Logger {
	return &logger{entry: logrus.NewEntry(l)}
}

func (g *logger) SetLevel(l Level) { g.entry.Logger.SetLevel(l.logrus()) }

func (g *logger) GetLevel() Level {
	switch g.entry.Logger.GetLevel() {
	case logrus.PanicLevel:
		return PanicLevel
	case logrus.FatalLevel:
		return FatalLevel
	case logrus.ErrorLevel:
		return ErrorLevel
	case logrus.WarnLevel:
		return WarnLevel
	case logrus.InfoLevel:
		return InfoLevel
	default:
		return DebugLevel
	}
}

func (g *logger) Debug(msg string, args ...interface{})   { g.entry.Debug(format(msg, args...)) }
func (g *logger) Info(msg string, args ...interface{})    { g.entry.Info(format(msg, args...)) }
func (g *logger) Warning(msg string, args ...interface{}) { g.entry.Warn(format(msg, args...)) }
func (g *logger) Error(msg string, args ...interface{})   { g.entry.Error(format(msg, args...)) }
func (g *logger) Fatal(msg string, args ...interface{})   { g.entry.Fatal(format(msg, args...)) }

func (g *logger) WithField(key string, value interface{}) Logger {
	return &logger{entry: g.entry.WithField(key, value)}
}

func format(msg string, args ...interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Discard is a Logger that drops everything; used where a nil Logger would
// otherwise force nil-checks at every call site.
var Discard Logger = discard{}

type discard struct{}

func (discard) SetLevel(Level)                                   {}
func (discard) GetLevel() Level                                  { return InfoLevel }
func (discard) Debug(string, ...interface{})                     {}
func (discard) Info(string, ...interface{})                      {}
func (discard) Warning(string, ...interface{})                   {}
func (discard) Error(string, ...interface{})                     {}
func (discard) Fatal(string, ...interface{})                     {}
func (discard) WithField(string, interface{}) Logger             { return discard{} }

// OrDiscard returns l if non-nil, else Discard — the standard guard used at
// the top of every constructor that accepts an optional Logger.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard
	}
	return l
}
