package ioutils_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/lhamowski/luxnet/ioutils"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := ioutils.NewFrameWriter(&buf)
	for _, msg := range []string{"first", "", "third message is longer"} {
		if err := w.WriteFrame([]byte(msg)); err != nil {
			t.Fatalf("write frame failed: %v", err)
		}
	}

	r := ioutils.NewFrameReader(&buf)
	for _, want := range []string{"first", "", "third message is longer"} {
		got, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("read frame failed: %v", err)
		}
		if string(got) != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}

	if _, err := r.ReadFrame(); err != io.EOF {
		t.Fatalf("expected io.EOF at stream end, got %v", err)
	}
}

func TestFrameReaderRejectsTruncatedHeader(t *testing.T) {
	r := ioutils.NewFrameReader(bytes.NewReader([]byte{0x00, 0x01}))
	if _, err := r.ReadFrame(); err == nil {
		t.Fatal("expected an error for a truncated frame header")
	}
}
