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

package httpserver

import (
	"crypto/tls"
	"sync"

	"github.com/lhamowski/luxnet/address"
	liberr "github.com/lhamowski/luxnet/errors"
	"github.com/lhamowski/luxnet/httpproto"
	"github.com/lhamowski/luxnet/logger"
	"github.com/lhamowski/luxnet/socket"
	"github.com/lhamowski/luxnet/socket/acceptor"
	"github.com/lhamowski/luxnet/socket/inbound"
)

// Server owns an acceptor and spawns one Session per accepted connection.
type Server struct {
	handler RequestHandler
	log     logger.Logger
	acc     *acceptor.Acceptor

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// New constructs a plaintext server. handler is invoked once per
// completely-parsed request on every session.
func New(cfg socket.AcceptorConfig, handler RequestHandler, log logger.Logger) *Server {
	return newServer(cfg, handler, nil, log)
}

// NewTLS constructs a server that performs the TLS handshake before a
// connection's first request is parsed.
func NewTLS(cfg socket.AcceptorConfig, tlsCfg *tls.Config, handler RequestHandler, log logger.Logger) *Server {
	return newServer(cfg, handler, tlsCfg, log)
}

func newServer(cfg socket.AcceptorConfig, handler RequestHandler, tlsCfg *tls.Config, log logger.Logger) *Server {
	s := &Server{handler: handler, log: logger.OrDiscard(log), sessions: make(map[*Session]struct{})}
	accHandler := acceptor.Handler{OnAccepted: s.onAccepted}
	if tlsCfg != nil {
		s.acc = acceptor.NewTLS(cfg, tlsCfg, accHandler, log)
	} else {
		s.acc = acceptor.New(cfg, accHandler, log)
	}
	return s
}

// Listen starts accepting connections at ep.
func (s *Server) Listen(ep address.Endpoint) error {
	if err := s.acc.Listen(ep); err != nil {
		return liberr.Wrap(liberr.ErrIO, "http server listen failed", err)
	}
	return nil
}

// LocalAddr reports the bound local endpoint.
func (s *Server) LocalAddr() (address.Endpoint, bool) { return s.acc.LocalAddr() }

func (s *Server) onAccepted(conn *inbound.Socket) {
	var session *Session
	session = newSession(conn, SessionHandler{
		OnRequest: func(sess *Session, req *httpproto.Request) *httpproto.Response {
			if s.handler == nil {
				return nil
			}
			return s.handler(req)
		},
		OnClosed: func(sess *Session) { s.untrackSession(sess) },
	}, s.log)
	s.trackSession(session)
	session.start()
}

// Close stops accepting new connections and closes every live session.
func (s *Server) Close() error {
	err := s.acc.Close()
	s.acc.Detach()

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[*Session]struct{})
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Detach()
		sess.Close()
	}
	return err
}

func (s *Server) trackSession(sess *Session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrackSession(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}
