package errors_test

import (
	"testing"

	goerrors "errors"

	"github.com/lhamowski/luxnet/errors"
)

func TestNewCapturesCodeAndMessage(t *testing.T) {
	e := errors.New(errors.ErrIO, "bind failed")
	if e.Code() != errors.ErrIO {
		t.Fatalf("expected code %v, got %v", errors.ErrIO, e.Code())
	}
	if e.Message() != "bind failed" {
		t.Fatalf("unexpected message %q", e.Message())
	}
}

func TestWrapChainsParentAndUnwraps(t *testing.T) {
	parent := goerrors.New("boom")
	e := errors.Wrap(errors.ErrTransport, "connect failed", parent)
	if e == nil {
		t.Fatal("expected non-nil error")
	}
	if !goerrors.Is(e, parent) {
		t.Fatal("expected Is to find the parent via Unwrap")
	}
	if goerrors.Unwrap(e) != parent {
		t.Fatal("expected Unwrap to return the parent")
	}
}

func TestWrapNilParentReturnsNil(t *testing.T) {
	if errors.Wrap(errors.ErrIO, "x", nil) != nil {
		t.Fatal("expected nil for nil parent")
	}
}

func TestIfErrorPassesThroughNil(t *testing.T) {
	if errors.IfError(errors.ErrIO, "x", nil) != nil {
		t.Fatal("expected nil")
	}
}

func TestIsComparesSentinelsByCode(t *testing.T) {
	a := errors.New(errors.ErrParse, "bad request line")
	b := errors.New(errors.ErrParse, "bad header")
	if !goerrors.Is(a, b) {
		t.Fatal("expected same-code errors to satisfy Is")
	}
	c := errors.New(errors.ErrIO, "bad header")
	if goerrors.Is(a, c) {
		t.Fatal("expected different-code errors not to satisfy Is")
	}
}
