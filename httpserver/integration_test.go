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

package httpserver_test

// Covers the six concrete HTTP round-trip scenarios (A-F): a real
// net.Listener-backed httpserver.Server, a router in front of it, and a
// raw TCP (or TLS) dial standing in for the peer.

import (
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/lhamowski/luxnet/address"
	"github.com/lhamowski/luxnet/certgen"
	"github.com/lhamowski/luxnet/httpproto"
	"github.com/lhamowski/luxnet/httpserver"
	"github.com/lhamowski/luxnet/router"
	"github.com/lhamowski/luxnet/socket"
)

func newIntegrationRouter() *router.Router {
	r := router.New("luxnet-test")
	r.Get("/test", func(req *httpproto.Request) *httpproto.Response {
		return &httpproto.Response{Status: httpproto.StatusOK, Body: []byte("Hello, World!")}
	})
	r.Post("/api/data", func(req *httpproto.Request) *httpproto.Response {
		if string(req.Body) != `{"key":"value"}` {
			return &httpproto.Response{Status: httpproto.StatusBadRequest, Body: []byte("bad body")}
		}
		return &httpproto.Response{Status: httpproto.StatusCreated, Body: []byte("Data created")}
	})
	r.Put("/resource/123", func(req *httpproto.Request) *httpproto.Response {
		return &httpproto.Response{Status: httpproto.StatusOK, Body: []byte("Resource updated")}
	})
	r.Delete("/resource/456", func(req *httpproto.Request) *httpproto.Response {
		return &httpproto.Response{Status: httpproto.StatusOK, Body: []byte("Resource deleted")}
	})
	r.Get("/first", func(req *httpproto.Request) *httpproto.Response {
		return &httpproto.Response{Status: httpproto.StatusOK, Body: []byte("/first")}
	})
	r.Get("/second", func(req *httpproto.Request) *httpproto.Response {
		return &httpproto.Response{Status: httpproto.StatusOK, Body: []byte("/second")}
	})
	r.Get("/secure", func(req *httpproto.Request) *httpproto.Response {
		return &httpproto.Response{Status: httpproto.StatusOK, Body: []byte("Secure Response")}
	})
	return r
}

// dialAndExchange writes raw to conn and reads until wantResponses
// start lines have arrived (or the deadline elapses), returning
// whatever was read so far. Callers substring-match within it.
func dialAndExchange(t *testing.T, conn net.Conn, raw string, wantResponses int) string {
	t.Helper()
	conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	buf := make([]byte, 8192)
	pending := ""
	for countResponses(pending) < wantResponses {
		n, err := conn.Read(buf)
		if n > 0 {
			pending += string(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return pending
}

func countResponses(s string) int {
	count := 0
	for i := 0; i+len("HTTP/1.") <= len(s); i++ {
		if s[i:i+len("HTTP/1.")] == "HTTP/1." {
			count++
		}
	}
	return count
}

func TestHTTPRoundTripScenarios(t *testing.T) {
	srv := httpserver.New(socket.DefaultAcceptorConfig(), newIntegrationRouter().ServeRequest, nil)
	if err := srv.Listen(address.Endpoint{Address: address.Localhost, Port: 0}); err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer srv.Close()
	ep, _ := srv.LocalAddr()

	t.Run("A_simple_get", func(t *testing.T) {
		got := rawRequest(t, ep, "GET /test HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")
		if !contains(got, "200") || !contains(got, "Hello, World!") || !contains(got, "Server: luxnet-test") {
			t.Fatalf("unexpected response: %q", got)
		}
	})

	t.Run("B_post_with_body", func(t *testing.T) {
		raw := "POST /api/data HTTP/1.1\r\nHost: x\r\nContent-Length: 15\r\nConnection: close\r\n\r\n{\"key\":\"value\"}"
		got := rawRequest(t, ep, raw)
		if !contains(got, "201") || !contains(got, "Data created") {
			t.Fatalf("unexpected response: %q", got)
		}
	})

	t.Run("C_put", func(t *testing.T) {
		raw := "PUT /resource/123 HTTP/1.1\r\nHost: x\r\nContent-Length: 12\r\nConnection: close\r\n\r\nupdated data"
		got := rawRequest(t, ep, raw)
		if !contains(got, "200") || !contains(got, "Resource updated") {
			t.Fatalf("unexpected response: %q", got)
		}
	})

	t.Run("D_delete", func(t *testing.T) {
		got := rawRequest(t, ep, "DELETE /resource/456 HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")
		if !contains(got, "200") || !contains(got, "Resource deleted") {
			t.Fatalf("unexpected response: %q", got)
		}
	})

	t.Run("E_pipelined_keepalive", func(t *testing.T) {
		conn, err := net.Dial("tcp4", ep.String())
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		defer conn.Close()

		raw := "GET /first HTTP/1.1\r\nHost: x\r\n\r\n" + "GET /second HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"
		got := dialAndExchange(t, conn, raw, 2)

		firstIdx := indexOf(got, "/first")
		secondIdx := indexOf(got, "/second")
		if firstIdx < 0 || secondIdx < 0 || firstIdx > secondIdx {
			t.Fatalf("expected /first before /second in pipelined response, got %q", got)
		}
	})
}

func TestHTTPRoundTripScenarioF_TLSSelfSigned(t *testing.T) {
	ss, err := certgen.GenerateSelfSigned("luxnet-test", []string{"127.0.0.1"}, time.Hour)
	if err != nil {
		t.Fatalf("cert generation failed: %v", err)
	}
	serverCfg, err := certgen.ServerTLSConfig(ss)
	if err != nil {
		t.Fatalf("server tls config failed: %v", err)
	}
	clientCfg, err := certgen.ClientTrustConfig(ss, "127.0.0.1")
	if err != nil {
		t.Fatalf("client tls config failed: %v", err)
	}

	srv := httpserver.NewTLS(socket.DefaultAcceptorConfig(), serverCfg, newIntegrationRouter().ServeRequest, nil)
	if err := srv.Listen(address.Endpoint{Address: address.Localhost, Port: 0}); err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer srv.Close()
	ep, _ := srv.LocalAddr()

	conn, err := tls.Dial("tcp4", ep.String(), clientCfg)
	if err != nil {
		t.Fatalf("tls dial failed: %v", err)
	}
	defer conn.Close()

	got := dialAndExchange(t, conn, "GET /secure HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n", 1)
	if !contains(got, "200") || !contains(got, "Secure Response") {
		t.Fatalf("unexpected response: %q", got)
	}
}
