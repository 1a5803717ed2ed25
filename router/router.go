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

// Package router implements the small HTTP application façade (C13):
// exact method+path dispatch (no path parameters), a 404 for unmatched
// routes, a 400 for a request-target the router cannot parse in
// origin-form, and a handful of ambient response touches (a Server
// header, filling in the response's HTTP version) that every handler
// gets for free.
package router

import (
	"net/url"
	"strconv"
	"sync"

	"github.com/lhamowski/luxnet/httpproto"
)

// Handler produces a response for a matched route.
type Handler func(req *httpproto.Request) *httpproto.Response

// ErrorFunc is notified whenever the router itself produces a response
// (400 or 404) rather than a matched Handler — useful for access logging.
type ErrorFunc func(req *httpproto.Request, status httpproto.Status)

type routeKey struct {
	method Method
	path   string
}

// Method mirrors httpproto.Method for the subset the router can register
// handlers against.
type Method = httpproto.Method

// Router is an exact (method, path) dispatch table with a small set of
// ambient response conventions layered on top.
type Router struct {
	serverName string
	onError    ErrorFunc

	mu     sync.RWMutex
	routes map[routeKey]Handler
}

// New constructs an empty router. serverName, when non-empty, is
// reported via the Server response header on every response (including
// the 400/404 responses the router generates itself).
func New(serverName string) *Router {
	return &Router{serverName: serverName, routes: make(map[routeKey]Handler)}
}

// OnError installs a callback invoked whenever the router answers a
// request itself (no handler matched, or the target could not be
// parsed) instead of dispatching to a registered Handler.
func (r *Router) OnError(fn ErrorFunc) { r.onError = fn }

// Get registers a handler for GET path.
func (r *Router) Get(path string, h Handler) { r.Handle(httpproto.MethodGet, path, h) }

// Post registers a handler for POST path.
func (r *Router) Post(path string, h Handler) { r.Handle(httpproto.MethodPost, path, h) }

// Put registers a handler for PUT path.
func (r *Router) Put(path string, h Handler) { r.Handle(httpproto.MethodPut, path, h) }

// Delete registers a handler for DELETE path.
func (r *Router) Delete(path string, h Handler) { r.Handle(httpproto.MethodDelete, path, h) }

// Handle registers h for the exact (method, path) pair.
func (r *Router) Handle(method Method, path string, h Handler) {
	r.mu.Lock()
	r.routes[routeKey{method: method, path: path}] = h
	r.mu.Unlock()
}

// ServeRequest is the httpserver.RequestHandler entry point: it parses
// the request target in origin-form, looks up a handler by (method,
// parsed path) — the query string plays no part in the lookup key; a
// "#fragment" is not split off and stays part of the path — and dispatches
// to it. The handler itself always sees req.Target
// exactly as it arrived on the wire.
func (r *Router) ServeRequest(req *httpproto.Request) *httpproto.Response {
	u, err := url.ParseRequestURI(req.Target)
	if err != nil {
		return r.finish(req, r.errorResponse(req, httpproto.StatusBadRequest))
	}

	r.mu.RLock()
	h, ok := r.routes[routeKey{method: req.Method, path: u.Path}]
	r.mu.RUnlock()

	if !ok {
		return r.finish(req, r.errorResponse(req, httpproto.StatusNotFound))
	}

	resp := h(req)
	if resp == nil {
		resp = &httpproto.Response{Status: httpproto.StatusInternalServerError}
	}
	return r.finish(req, resp)
}

func (r *Router) errorResponse(req *httpproto.Request, status httpproto.Status) *httpproto.Response {
	if r.onError != nil {
		r.onError(req, status)
	}
	body := strconv.Itoa(int(status)) + " " + status.Reason()
	return &httpproto.Response{Status: status, Body: []byte(body)}
}

// finish fills the response version from the request and stamps the
// Server header, the two touches every response gets regardless of
// whether the router or a registered Handler produced it.
func (r *Router) finish(req *httpproto.Request, resp *httpproto.Response) *httpproto.Response {
	if resp.Version == 0 {
		resp.Version = req.Version
	}
	if r.serverName != "" {
		if _, ok := resp.Headers.Get("Server"); !ok {
			resp.Headers.Set("Server", r.serverName)
		}
	}
	return resp
}
