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
	jww "github.com/spf13/jwalterweatherman"
)

// SetSPF13Threshold aligns a jww notepad's threshold with this Logger's
// level, for embedders who already configure their CLI output via jww.
func SetSPF13Threshold(l Logger, notepad *jww.Notepad) {
	switch l.GetLevel() {
	case DebugLevel:
		notepad.SetLogThreshold(jww.LevelTrace)
		notepad.SetStdoutThreshold(jww.LevelTrace)
	case InfoLevel:
		notepad.SetLogThreshold(jww.LevelInfo)
		notepad.SetStdoutThreshold(jww.LevelInfo)
	case WarnLevel:
		notepad.SetLogThreshold(jww.LevelWarn)
		notepad.SetStdoutThreshold(jww.LevelWarn)
	default:
		notepad.SetLogThreshold(jww.LevelError)
		notepad.SetStdoutThreshold(jww.LevelError)
	}
}

// JWWLogFunc adapts a Logger method into the func(string, ...interface{})
// shape jww.SetLogListeners / jww expects for custom listeners.
func JWWLogFunc(l Logger) func(string, ...interface{}) {
	return l.Info
}
