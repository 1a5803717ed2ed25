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

// Package httpserver implements the HTTP/1.1 server (C11/C12): one
// Session per accepted connection, driving an httpproto.Parser and
// dispatching complete requests to a RequestHandler, and a Server that
// owns the acceptor and spawns a Session per accepted connection.
package httpserver

import (
	"strings"
	"sync"

	"github.com/lhamowski/luxnet/address"
	"github.com/lhamowski/luxnet/expiring"
	"github.com/lhamowski/luxnet/httpproto"
	"github.com/lhamowski/luxnet/logger"
	"github.com/lhamowski/luxnet/socket/inbound"
)

// RequestHandler produces a response for a fully-parsed request. It is
// called synchronously from the session's read path; a nil return is
// treated as 500 Internal Server Error.
type RequestHandler func(req *httpproto.Request) *httpproto.Response

// SessionHandler receives session lifecycle events.
type SessionHandler struct {
	OnRequest func(s *Session, req *httpproto.Request) *httpproto.Response
	OnClosed  func(s *Session)
}

// Session owns one accepted connection for its lifetime: feeding bytes to
// an HTTP/1.1 parser, dispatching complete requests, and writing
// responses back, closing the connection on malformed input or when the
// request demands it (HTTP/1.0 without keep-alive, or an explicit
// "Connection: close").
type Session struct {
	conn   *inbound.Socket
	href   *expiring.Ref[SessionHandler]
	log    logger.Logger
	parser *httpproto.Parser

	mu      sync.Mutex
	closing bool
}

func newSession(conn *inbound.Socket, handler SessionHandler, log logger.Logger) *Session {
	s := &Session{conn: conn, href: expiring.New(handler), log: logger.OrDiscard(log)}
	s.parser = httpproto.NewParser(httpproto.RequestKind)
	s.parser.OnMessage = s.onMessage
	s.parser.OnError = s.onParseError
	return s
}

// LocalAddr returns the accepted connection's local endpoint.
func (s *Session) LocalAddr() address.Endpoint { return s.conn.LocalAddr() }

// RemoteAddr returns the peer's endpoint.
func (s *Session) RemoteAddr() address.Endpoint { return s.conn.RemoteAddr() }

// start wires the inbound socket's callbacks and begins reading.
func (s *Session) start() {
	s.conn.SetHandler(inbound.Handler{
		OnDataRead:     s.onDataRead,
		OnDisconnected: s.onDisconnected,
	})
	s.conn.Read()
}

func (s *Session) onDataRead(data []byte) {
	s.parser.Feed(data)
}

func (s *Session) onParseError(err error) {
	resp := &httpproto.Response{Status: httpproto.StatusBadRequest, Version: 11}
	resp.Headers.Set("Connection", "close")
	s.conn.Send(httpproto.EncodeResponse(resp))
	// A malformed request leaves the byte stream framing unrecoverable;
	// this connection is always closed, matching the explicit close the
	// original behavior omitted.
	s.conn.Close(true)
}

func (s *Session) onMessage(req *httpproto.Request, resp *httpproto.Response) {
	handler, live := s.href.Get()
	if !live {
		return
	}

	var out *httpproto.Response
	if handler.OnRequest != nil {
		out = handler.OnRequest(s, req)
	}
	if out == nil {
		out = &httpproto.Response{Status: httpproto.StatusInternalServerError, Version: req.Version}
	}
	if out.Version == 0 {
		out.Version = req.Version
	}

	keepAlive := shouldKeepAlive(req, out)
	if !keepAlive {
		out.Headers.Set("Connection", "close")
	}

	s.conn.Send(httpproto.EncodeResponse(out))
	if !keepAlive {
		s.conn.Close(true)
	}
}

func shouldKeepAlive(req *httpproto.Request, resp *httpproto.Response) bool {
	if v, ok := resp.Headers.Get("Connection"); ok && strings.EqualFold(strings.TrimSpace(v), "close") {
		return false
	}
	if v, ok := req.Headers.Get("Connection"); ok {
		return strings.EqualFold(strings.TrimSpace(v), "keep-alive")
	}
	return req.Version == 11
}

func (s *Session) onDisconnected(err error) {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	// OnClosed always fires, detached or not: the server needs this
	// notification to untrack the session even while it is shutting down.
	handler, _ := s.href.Get()
	if handler.OnClosed != nil {
		handler.OnClosed(s)
	}
}

// Close tears the session's connection down, draining pending writes
// first.
func (s *Session) Close() {
	s.conn.Close(true)
}

// Detach invalidates this session's handler so in-flight or future
// request dispatches become no-ops — the same expiring.Ref the acceptor
// uses, applied here to a server shutting down while sessions are still
// live.
func (s *Session) Detach() {
	s.href.Detach()
}
