package httpcli_test

import (
	"net"
	"testing"
	"time"

	"github.com/lhamowski/luxnet/address"
	"github.com/lhamowski/luxnet/httpcli"
	"github.com/lhamowski/luxnet/httpproto"
	"github.com/lhamowski/luxnet/socket"
)

func rawHTTPServer(t *testing.T, respond func(req *httpproto.Request) *httpproto.Response) (address.Endpoint, func()) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				p := httpproto.NewParser(httpproto.RequestKind)
				p.OnMessage = func(req *httpproto.Request, resp *httpproto.Response) {
					conn.Write(httpproto.EncodeResponse(respond(req)))
				}
				buf := make([]byte, 4096)
				for {
					n, err := conn.Read(buf)
					if n > 0 {
						p.Feed(buf[:n])
					}
					if err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	tcpAddr := ln.Addr().(*net.TCPAddr)
	return address.Endpoint{Address: address.Localhost, Port: uint16(tcpAddr.Port)}, func() { ln.Close() }
}

func noReconnectTCPConfig() socket.TCPConfig {
	cfg := socket.DefaultTCPConfig()
	cfg.Reconnect.Enabled = false
	return cfg
}

func TestClientSendReceivesResponse(t *testing.T) {
	ep, cleanup := rawHTTPServer(t, func(req *httpproto.Request) *httpproto.Response {
		resp := &httpproto.Response{Status: httpproto.StatusOK, Version: 11, Body: []byte("pong")}
		return resp
	})
	defer cleanup()

	c := httpcli.New(noReconnectTCPConfig(), ep, nil)
	defer c.Close()

	done := make(chan struct{})
	var status httpproto.Status
	var body string
	c.Send(&httpproto.Request{Method: httpproto.MethodGet, Target: "/ping", Version: 11}, func(resp *httpproto.Response, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		} else {
			status = resp.Status
			body = string(resp.Body)
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
	}
	if status != httpproto.StatusOK || body != "pong" {
		t.Fatalf("unexpected response: status=%v body=%q", status, body)
	}
}

func TestClientSerializesMultipleRequests(t *testing.T) {
	ep, cleanup := rawHTTPServer(t, func(req *httpproto.Request) *httpproto.Response {
		return &httpproto.Response{Status: httpproto.StatusOK, Version: 11, Body: []byte(req.Target)}
	})
	defer cleanup()

	c := httpcli.New(noReconnectTCPConfig(), ep, nil)
	defer c.Close()

	results := make(chan string, 3)
	for _, target := range []string{"/a", "/b", "/c"} {
		target := target
		c.Send(&httpproto.Request{Method: httpproto.MethodGet, Target: target, Version: 11}, func(resp *httpproto.Response, err error) {
			if err != nil {
				t.Errorf("unexpected error for %s: %v", target, err)
				results <- ""
				return
			}
			results <- string(resp.Body)
		})
	}

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		select {
		case body := <-results:
			seen[body] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for responses")
		}
	}
	for _, want := range []string{"/a", "/b", "/c"} {
		if !seen[want] {
			t.Fatalf("missing response for %s", want)
		}
	}
}

func TestClientFailsQueuedRequestsOnConnectError(t *testing.T) {
	ep := address.Endpoint{Address: address.Address{127, 0, 0, 1}, Port: 1}

	c := httpcli.New(noReconnectTCPConfig(), ep, nil)
	defer c.Close()

	done := make(chan error, 1)
	c.Send(&httpproto.Request{Method: httpproto.MethodGet, Target: "/x", Version: 11}, func(resp *httpproto.Response, err error) {
		done <- err
	})

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error connecting to a closed port")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect failure")
	}
}
