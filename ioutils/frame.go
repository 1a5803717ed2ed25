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

// Package ioutils provides small framing helpers for length-prefixed
// binary messages over a stream, for callers (such as a custom
// supervisor wire protocol) that need message boundaries on top of a
// plain net.Conn or os.Pipe without pulling in a full codec.
package ioutils

import (
	"bufio"
	"encoding/binary"
	"io"

	liberr "github.com/lhamowski/luxnet/errors"
)

// MaxFrameSize bounds a single frame's payload to guard against a
// corrupt or hostile length prefix demanding an unbounded allocation.
const MaxFrameSize = 16 * 1024 * 1024

// FrameWriter writes length-prefixed frames: a 4-byte big-endian length
// followed by exactly that many payload bytes.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter wraps w.
func NewFrameWriter(w io.Writer) *FrameWriter { return &FrameWriter{w: w} }

// WriteFrame writes one frame for payload.
func (f *FrameWriter) WriteFrame(payload []byte) error {
	if len(payload) > MaxFrameSize {
		return liberr.New(liberr.ErrIO, "frame payload exceeds maximum size")
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := f.w.Write(hdr[:]); err != nil {
		return liberr.Wrap(liberr.ErrIO, "frame header write failed", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := f.w.Write(payload); err != nil {
		return liberr.Wrap(liberr.ErrIO, "frame payload write failed", err)
	}
	return nil
}

// FrameReader reads frames written by FrameWriter.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r, buffering reads internally.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// ReadFrame blocks until one full frame has arrived and returns its
// payload. io.EOF propagates unwrapped so callers can distinguish a
// clean stream close from a framing error.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(f.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, liberr.Wrap(liberr.ErrIO, "truncated frame header", err)
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, liberr.New(liberr.ErrIO, "frame payload exceeds maximum size")
	}
	if n == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		return nil, liberr.Wrap(liberr.ErrIO, "truncated frame payload", err)
	}
	return payload, nil
}
