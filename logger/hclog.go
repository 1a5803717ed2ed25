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

package logger

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter exposes a Logger as an hclog.Logger so it can be handed to
// any third-party component (e.g. golang.org/x/sync based helpers, process
// supervisors) that expects the hclog contract.
type HCLogAdapter struct {
	l    Logger
	name string
}

// AsHCLog wraps l as an hclog.Logger under the given component name.
func AsHCLog(l Logger, name string) hclog.Logger {
	return &HCLogAdapter{l: OrDiscard(l), name: name}
}

func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.l.Debug(msg, args...)
	case hclog.Info:
		h.l.Info(msg, args...)
	case hclog.Warn:
		h.l.Warning(msg, args...)
	case hclog.Error:
		h.l.Error(msg, args...)
	default:
		h.l.Info(msg, args...)
	}
}

func (h *HCLogAdapter) Trace(msg string, args ...interface{}) { h.l.Debug(msg, args...) }
func (h *HCLogAdapter) Debug(msg string, args ...interface{}) { h.l.Debug(msg, args...) }
func (h *HCLogAdapter) Info(msg string, args ...interface{})  { h.l.Info(msg, args...) }
func (h *HCLogAdapter) Warn(msg string, args ...interface{})  { h.l.Warning(msg, args...) }
func (h *HCLogAdapter) Error(msg string, args ...interface{}) { h.l.Error(msg, args...) }

func (h *HCLogAdapter) IsTrace() bool { return true }
func (h *HCLogAdapter) IsDebug() bool { return true }
func (h *HCLogAdapter) IsInfo() bool  { return true }
func (h *HCLogAdapter) IsWarn() bool  { return true }
func (h *HCLogAdapter) IsError() bool { return true }

func (h *HCLogAdapter) ImpliedArgs() []interface{} { return nil }

func (h *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	if len(args) == 0 {
		return h
	}
	key := fmt.Sprintf("%v", args[0])
	var val interface{}
	if len(args) > 1 {
		val = args[1]
	}
	return &HCLogAdapter{l: h.l.WithField(key, val), name: h.name}
}

func (h *HCLogAdapter) Name() string { return h.name }

func (h *HCLogAdapter) Named(name string) hclog.Logger {
	if h.name == "" {
		return &HCLogAdapter{l: h.l, name: name}
	}
	return &HCLogAdapter{l: h.l, name: h.name + "." + name}
}

func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return &HCLogAdapter{l: h.l, name: name}
}

func (h *HCLogAdapter) SetLevel(level hclog.Level) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.l.SetLevel(DebugLevel)
	case hclog.Info:
		h.l.SetLevel(InfoLevel)
	case hclog.Warn:
		h.l.SetLevel(WarnLevel)
	case hclog.Error:
		h.l.SetLevel(ErrorLevel)
	}
}

func (h *HCLogAdapter) GetLevel() hclog.Level {
	switch h.l.GetLevel() {
	case DebugLevel:
		return hclog.Debug
	case InfoLevel:
		return hclog.Info
	case WarnLevel:
		return hclog.Warn
	case ErrorLevel, FatalLevel, PanicLevel:
		return hclog.Error
	default:
		return hclog.Info
	}
}

func (h *HCLogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(h.StandardWriter(opts), "", 0)
}

func (h *HCLogAdapter) StandardWriter(_ *hclog.StandardLoggerOptions) io.Writer {
	return os.Stderr
}
