package udp_test

import (
	"testing"
	"time"

	"github.com/lhamowski/luxnet/address"
	"github.com/lhamowski/luxnet/socket/udp"
)

func TestUDPSendReceiveRoundTrip(t *testing.T) {
	recv := make(chan []byte, 1)
	serverHandler := udp.Handler{
		OnDataRead: func(peer address.Endpoint, data []byte) { recv <- data },
	}
	server := udp.New(serverHandler, nil)
	if err := server.Open(address.Endpoint{Address: address.Localhost, Port: 0}); err != nil {
		t.Fatalf("server open failed: %v", err)
	}
	defer server.Close(false)

	serverAddr, ok := server.LocalAddr()
	if !ok {
		t.Fatal("expected server local addr")
	}

	sent := make(chan []byte, 1)
	client := udp.New(udp.Handler{OnDataSent: func(peer address.Endpoint, data []byte) { sent <- data }}, nil)
	if err := client.Open(address.Endpoint{Address: address.Localhost, Port: 0}); err != nil {
		t.Fatalf("client open failed: %v", err)
	}
	defer client.Close(false)

	if err := client.Send(serverAddr, []byte("hello")); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case data := <-recv:
		if string(data) != "hello" {
			t.Fatalf("expected hello, got %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server receive")
	}

	select {
	case data := <-sent:
		if string(data) != "hello" {
			t.Fatalf("expected hello sent, got %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for send confirmation")
	}
}

func TestUDPSendBeforeOpenFails(t *testing.T) {
	s := udp.New(udp.Handler{}, nil)
	err := s.Send(address.Endpoint{Address: address.Localhost, Port: 9}, []byte("x"))
	if err == nil {
		t.Fatal("expected error sending on unopened socket")
	}
}
