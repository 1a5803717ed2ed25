package tcp_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lhamowski/luxnet/address"
	"github.com/lhamowski/luxnet/socket"
	"github.com/lhamowski/luxnet/socket/tcp"
)

func echoServer(t *testing.T) (address.Endpoint, func()) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if n > 0 {
						c.Write(buf[:n])
					}
					if err != nil {
						c.Close()
						return
					}
				}
			}(c)
		}
	}()
	tcpAddr := ln.Addr().(*net.TCPAddr)
	ep := address.Endpoint{Address: address.Localhost, Port: uint16(tcpAddr.Port)}
	return ep, func() { ln.Close() }
}

func noReconnectConfig() socket.TCPConfig {
	cfg := socket.DefaultTCPConfig()
	cfg.Reconnect.Enabled = false
	return cfg
}

func TestConnectSendReceive(t *testing.T) {
	ep, cleanup := echoServer(t)
	defer cleanup()

	connected := make(chan struct{}, 1)
	read := make(chan []byte, 1)
	sock := tcp.New(noReconnectConfig(), tcp.Handler{
		OnConnected: func() { connected <- struct{}{} },
		OnDataRead:  func(data []byte) { read <- data },
	}, nil)

	if err := sock.Connect(ep); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect")
	}

	if err := sock.Send([]byte("ping")); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case data := <-read:
		if string(data) != "ping" {
			t.Fatalf("expected echoed ping, got %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}

	sock.Disconnect(false)
}

func TestSendOrderingIsPreserved(t *testing.T) {
	ep, cleanup := echoServer(t)
	defer cleanup()

	connected := make(chan struct{}, 1)
	var mu sync.Mutex
	var sentOrder []string
	done := make(chan struct{})

	sock := tcp.New(noReconnectConfig(), tcp.Handler{
		OnConnected: func() { connected <- struct{}{} },
		OnDataSent: func(data []byte) {
			mu.Lock()
			sentOrder = append(sentOrder, string(data))
			if len(sentOrder) == 3 {
				close(done)
			}
			mu.Unlock()
		},
	}, nil)

	if err := sock.Connect(ep); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	<-connected

	for _, m := range []string{"s1", "s2", "s3"} {
		if err := sock.Send([]byte(m)); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for all sends")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"s1", "s2", "s3"}
	for i, m := range want {
		if sentOrder[i] != m {
			t.Fatalf("expected send order %v, got %v", want, sentOrder)
		}
	}
}

func TestSendAfterDisconnectFails(t *testing.T) {
	sock := tcp.New(noReconnectConfig(), tcp.Handler{}, nil)
	if err := sock.Send([]byte("x")); err == nil {
		t.Fatal("expected error sending on disconnected socket")
	}
}

func TestManualDisconnectDoesNotReconnect(t *testing.T) {
	ep, cleanup := echoServer(t)

	connected := make(chan struct{}, 1)
	var disconnects int32
	var mu sync.Mutex
	sock := tcp.New(socket.DefaultTCPConfig(), tcp.Handler{
		OnConnected: func() { connected <- struct{}{} },
		OnDisconnected: func(err error, willReconnect bool) {
			mu.Lock()
			disconnects++
			mu.Unlock()
			if willReconnect {
				t.Error("manual disconnect must never request reconnect")
			}
		},
	}, nil)

	if err := sock.Connect(ep); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	<-connected
	cleanup()

	sock.Disconnect(false)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if disconnects == 0 {
		t.Fatal("expected at least one disconnect event")
	}
}
