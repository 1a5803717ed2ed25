package httpserver_test

import (
	"net"
	"testing"
	"time"

	"github.com/lhamowski/luxnet/address"
	"github.com/lhamowski/luxnet/httpproto"
	"github.com/lhamowski/luxnet/httpserver"
	"github.com/lhamowski/luxnet/socket"
)

func rawRequest(t *testing.T, ep address.Endpoint, raw string) string {
	t.Helper()
	conn, err := net.Dial("tcp4", ep.String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		t.Fatalf("read failed: %v", err)
	}
	return string(buf[:n])
}

func TestServerRespondsToRequest(t *testing.T) {
	srv := httpserver.New(socket.DefaultAcceptorConfig(), func(req *httpproto.Request) *httpproto.Response {
		resp := &httpproto.Response{Status: httpproto.StatusOK, Version: req.Version, Body: []byte("hi there")}
		resp.Headers.Set("Connection", "close")
		return resp
	}, nil)
	if err := srv.Listen(address.Endpoint{Address: address.Localhost, Port: 0}); err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer srv.Close()

	ep, _ := srv.LocalAddr()
	got := rawRequest(t, ep, "GET /hello HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")

	if !contains(got, "200") || !contains(got, "hi there") {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestServerRejectsMalformedRequestWithClose(t *testing.T) {
	srv := httpserver.New(socket.DefaultAcceptorConfig(), func(req *httpproto.Request) *httpproto.Response {
		t.Fatal("handler must not run for a malformed request")
		return nil
	}, nil)
	if err := srv.Listen(address.Endpoint{Address: address.Localhost, Port: 0}); err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer srv.Close()

	ep, _ := srv.LocalAddr()
	got := rawRequest(t, ep, "BOGUS REQUEST LINE HERE\r\n\r\n")
	if !contains(got, "400") {
		t.Fatalf("expected a 400 response, got %q", got)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
