package router_test

import (
	"testing"

	"github.com/lhamowski/luxnet/httpproto"
	"github.com/lhamowski/luxnet/router"
)

func TestRouterDispatchesExactMatch(t *testing.T) {
	r := router.New("luxnet")
	r.Get("/widgets", func(req *httpproto.Request) *httpproto.Response {
		return &httpproto.Response{Status: httpproto.StatusOK, Body: []byte("ok")}
	})

	resp := r.ServeRequest(&httpproto.Request{Method: httpproto.MethodGet, Target: "/widgets?x=1", Version: 11})
	if resp.Status != httpproto.StatusOK {
		t.Fatalf("expected 200, got %v", resp.Status)
	}
	if s, _ := resp.Headers.Get("Server"); s != "luxnet" {
		t.Fatalf("expected Server header to be set, got %q", s)
	}
	if resp.Version != 11 {
		t.Fatalf("expected version filled from request, got %d", resp.Version)
	}
}

func TestRouterReturns404ForUnregisteredPath(t *testing.T) {
	r := router.New("")
	resp := r.ServeRequest(&httpproto.Request{Method: httpproto.MethodGet, Target: "/missing", Version: 11})
	if resp.Status != httpproto.StatusNotFound {
		t.Fatalf("expected 404, got %v", resp.Status)
	}
}

func TestRouterReturns400ForUnparsableTarget(t *testing.T) {
	r := router.New("")
	resp := r.ServeRequest(&httpproto.Request{Method: httpproto.MethodGet, Target: "not a uri at all", Version: 11})
	if resp.Status != httpproto.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp.Status)
	}
}

func TestRouterDistinguishesMethod(t *testing.T) {
	r := router.New("")
	r.Get("/items", func(req *httpproto.Request) *httpproto.Response {
		return &httpproto.Response{Status: httpproto.StatusOK}
	})
	resp := r.ServeRequest(&httpproto.Request{Method: httpproto.MethodPost, Target: "/items", Version: 11})
	if resp.Status != httpproto.StatusNotFound {
		t.Fatalf("expected POST to a GET-only route to 404, got %v", resp.Status)
	}
}

func TestRouterOnErrorCallback(t *testing.T) {
	var notified httpproto.Status
	r := router.New("")
	r.OnError(func(req *httpproto.Request, status httpproto.Status) { notified = status })
	r.ServeRequest(&httpproto.Request{Method: httpproto.MethodGet, Target: "/nope", Version: 11})
	if notified != httpproto.StatusNotFound {
		t.Fatalf("expected OnError to fire with 404, got %v", notified)
	}
}
