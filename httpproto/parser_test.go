package httpproto_test

import (
	"testing"

	"github.com/lhamowski/luxnet/httpproto"
)

func TestParseRequestWholeInOneFeed(t *testing.T) {
	p := httpproto.NewParser(httpproto.RequestKind)
	var got *httpproto.Request
	p.OnMessage = func(req *httpproto.Request, resp *httpproto.Response) { got = req }
	p.OnError = func(err error) { t.Fatalf("unexpected parse error: %v", err) }

	p.Feed([]byte("POST /widgets HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello"))

	if got == nil {
		t.Fatal("expected a parsed request")
	}
	if got.Method != httpproto.MethodPost || got.Target != "/widgets" || got.Version != 11 {
		t.Fatalf("unexpected request line: %+v", got)
	}
	if host, _ := got.Headers.Get("host"); host != "example.com" {
		t.Fatalf("expected case-insensitive header lookup, got %q", host)
	}
	if string(got.Body) != "hello" {
		t.Fatalf("expected body %q, got %q", "hello", got.Body)
	}
}

func TestParseRequestByteAtATime(t *testing.T) {
	p := httpproto.NewParser(httpproto.RequestKind)
	var got *httpproto.Request
	p.OnMessage = func(req *httpproto.Request, resp *httpproto.Response) { got = req }
	p.OnError = func(err error) { t.Fatalf("unexpected parse error: %v", err) }

	raw := []byte("GET /x HTTP/1.1\r\nHost: h\r\n\r\n")
	for _, c := range raw {
		p.Feed([]byte{c})
	}
	if got == nil {
		t.Fatal("expected a parsed request after feeding byte by byte")
	}
	if got.Method != httpproto.MethodGet || got.Target != "/x" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestParseResponseWithChunkedBody(t *testing.T) {
	p := httpproto.NewParser(httpproto.ResponseKind)
	var got *httpproto.Response
	p.OnMessage = func(req *httpproto.Request, resp *httpproto.Response) { got = resp }
	p.OnError = func(err error) { t.Fatalf("unexpected parse error: %v", err) }

	p.Feed([]byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"))

	if got == nil {
		t.Fatal("expected a parsed response")
	}
	if got.Status != httpproto.StatusOK {
		t.Fatalf("expected 200, got %v", got.Status)
	}
	if string(got.Body) != "Wikipedia" {
		t.Fatalf("expected dechunked body %q, got %q", "Wikipedia", got.Body)
	}
}

func TestParseRejectsMalformedStartLine(t *testing.T) {
	p := httpproto.NewParser(httpproto.RequestKind)
	var errored bool
	p.OnError = func(err error) { errored = true }
	p.OnMessage = func(req *httpproto.Request, resp *httpproto.Response) {
		t.Fatal("expected no message for a malformed request line")
	}

	p.Feed([]byte("NOT A REQUEST LINE AT ALL\r\n\r\n"))
	if !errored {
		t.Fatal("expected a parse error")
	}
}

func TestParserResetsForNextMessageOnKeepAlive(t *testing.T) {
	p := httpproto.NewParser(httpproto.RequestKind)
	var targets []string
	p.OnMessage = func(req *httpproto.Request, resp *httpproto.Response) { targets = append(targets, req.Target) }
	p.OnError = func(err error) { t.Fatalf("unexpected parse error: %v", err) }

	p.Feed([]byte("GET /one HTTP/1.1\r\n\r\nGET /two HTTP/1.1\r\n\r\n"))

	if len(targets) != 2 || targets[0] != "/one" || targets[1] != "/two" {
		t.Fatalf("expected two sequential messages, got %v", targets)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	req := &httpproto.Request{Method: httpproto.MethodPut, Target: "/items/1", Version: 11, Body: []byte("abc")}
	req.Headers.Set("Content-Type", "text/plain")
	wire := httpproto.EncodeRequest(req)

	p := httpproto.NewParser(httpproto.RequestKind)
	var got *httpproto.Request
	p.OnMessage = func(r *httpproto.Request, resp *httpproto.Response) { got = r }
	p.OnError = func(err error) { t.Fatalf("unexpected parse error: %v", err) }
	p.Feed(wire)

	if got == nil || got.Method != httpproto.MethodPut || got.Target != "/items/1" || string(got.Body) != "abc" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if ct, _ := got.Headers.Get("Content-Type"); ct != "text/plain" {
		t.Fatalf("expected Content-Type to survive round trip, got %q", ct)
	}
}
