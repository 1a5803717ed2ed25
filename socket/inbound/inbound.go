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

// Package inbound implements the server-side peer socket (C8): the same
// queued send/receive and disconnect semantics as the client TCP socket,
// minus connect/reconnect, constructed from an already-connected
// underlying connection (plaintext or post-handshake TLS).
package inbound

import (
	"net"
	"sync"

	"github.com/lhamowski/luxnet/address"
	"github.com/lhamowski/luxnet/arena"
	liberr "github.com/lhamowski/luxnet/errors"
	"github.com/lhamowski/luxnet/logger"
	"github.com/lhamowski/luxnet/socket"
)

// State mirrors the tcp package's connection states, minus Connecting
// (inbound sockets are born already connected).
type State uint8

const (
	Connected State = iota
	Disconnecting
	Disconnected
)

// Handler receives inbound socket events.
type Handler struct {
	OnDisconnected func(err error)
	OnDataRead     func(data []byte)
	OnDataSent     func(data []byte)
}

type pendingSend struct {
	buf *arena.Buffer
}

// Socket is a server-side accepted connection.
type Socket struct {
	cfg     socket.BufferConfig
	handler Handler
	log     logger.Logger
	arena   *arena.Arena

	mu      sync.Mutex
	state   State
	conn    net.Conn
	local   address.Endpoint
	remote  address.Endpoint
	queue   []pendingSend
	writing bool
	started bool

	// dispatchMu serializes handler callback invocations: readLoop and
	// writeLoop run as independent goroutines for the connection's whole
	// life, and without this, OnDataRead and OnDataSent (or OnDisconnected
	// racing either) could fire concurrently. Kept separate from mu so a
	// handler calling back into Send or Close from a callback cannot
	// deadlock against it.
	dispatchMu sync.Mutex
}

// New wraps an already-connected conn as an inbound socket. It does not
// start reading until Read is called.
func New(conn net.Conn, cfg socket.BufferConfig, handler Handler, log logger.Logger) *Socket {
	s := &Socket{
		cfg:     cfg,
		handler: handler,
		log:     logger.OrDiscard(log),
		arena:   arena.New(cfg.InitialSendChunkSize),
		conn:    conn,
		state:   Connected,
	}
	if local, ok := toEndpoint(conn.LocalAddr()); ok {
		s.local = local
	}
	if remote, ok := toEndpoint(conn.RemoteAddr()); ok {
		s.remote = remote
	}
	return s
}

func (s *Socket) fireDisconnected(err error) {
	if s.handler.OnDisconnected == nil {
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.OnDisconnected(err)
}

func (s *Socket) fireDataRead(data []byte) {
	if s.handler.OnDataRead == nil {
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.OnDataRead(data)
}

func (s *Socket) fireDataSent(data []byte) {
	if s.handler.OnDataSent == nil {
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.OnDataSent(data)
}

// SetHandler replaces the event handler. Callers that need to finish
// wiring up a handler before any events fire (e.g. a session type built
// around an already-accepted Socket) must call this before Read.
func (s *Socket) SetHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// LocalAddr returns the accepted connection's local endpoint.
func (s *Socket) LocalAddr() address.Endpoint { return s.local }

// RemoteAddr returns the peer's endpoint.
func (s *Socket) RemoteAddr() address.Endpoint { return s.remote }

// Read starts the receive loop. Server sessions call this once they are
// ready to process events (e.g. after registering a handler).
func (s *Socket) Read() {
	s.mu.Lock()
	if s.started || s.state != Connected {
		s.mu.Unlock()
		return
	}
	s.started = true
	conn := s.conn
	s.mu.Unlock()
	go s.readLoop(conn)
}

func (s *Socket) readLoop(conn net.Conn) {
	buf := make([]byte, s.readBufferSize())
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			s.fireDataRead(cp)
		}
		if err != nil {
			cerr := classifyReadError(err)
			if cerr == nil {
				s.log.Debug("inbound connection closed: %v", err)
			}
			s.handleRuntimeFailure(cerr)
			return
		}
	}
}

func (s *Socket) readBufferSize() int {
	if s.cfg.ReadBufferSize <= 0 {
		return 8192
	}
	return s.cfg.ReadBufferSize
}

func classifyReadError(err error) error {
	if isBenignShutdown(err) {
		return nil
	}
	return liberr.Wrap(liberr.ErrTransport, "inbound read failed", err)
}

func isBenignShutdown(err error) bool {
	s := err.Error()
	return s == "EOF" || s == "use of closed network connection" ||
		(len(s) >= len("use of closed network connection") &&
			s[len(s)-len("use of closed network connection"):] == "use of closed network connection")
}

// Send copies data into an arena buffer, enqueues it, and starts a write
// loop if none is in flight.
func (s *Socket) Send(data []byte) error {
	s.mu.Lock()
	if s.state != Connected {
		s.mu.Unlock()
		return liberr.New(liberr.ErrProtocol, "inbound socket not connected")
	}
	buf := s.arena.AcquireCopy(data)
	s.queue = append(s.queue, pendingSend{buf: buf})
	start := !s.writing
	if start {
		s.writing = true
	}
	conn := s.conn
	s.mu.Unlock()

	if start {
		go s.writeLoop(conn)
	}
	return nil
}

func (s *Socket) writeLoop(conn net.Conn) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.writing = false
			fire := false
			if s.state == Disconnecting {
				fire = s.closeLocked()
			}
			s.mu.Unlock()
			if fire {
				s.fireDisconnected(nil)
			}
			return
		}
		item := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		data := item.buf.Bytes()
		_, err := conn.Write(data)
		if err != nil {
			item.buf.Release()
			s.handleRuntimeFailure(liberr.Wrap(liberr.ErrTransport, "inbound write failed", err))
			return
		}
		s.fireDataSent(data)
		item.buf.Release()
	}
}

func (s *Socket) handleRuntimeFailure(err error) {
	s.mu.Lock()
	if s.state == Disconnected {
		s.mu.Unlock()
		return
	}
	fire := s.closeLocked()
	s.mu.Unlock()

	if fire {
		s.fireDisconnected(err)
	}
}

// closeLocked must be called with mu held. It closes the underlying
// connection and moves to Disconnected, returning whether the caller should
// fire OnDisconnected once mu is released.
func (s *Socket) closeLocked() bool {
	if s.state == Disconnected {
		return false
	}
	s.state = Disconnected
	if s.conn != nil {
		s.conn.Close()
	}
	return true
}

// Close tears the connection down. drain==true waits for pending writes to
// flush first (then closes); drain==false closes immediately. Either way
// fires OnDisconnected exactly once for the connection's lifetime.
func (s *Socket) Close(drain bool) error {
	s.mu.Lock()
	if s.state == Disconnected {
		s.mu.Unlock()
		return nil
	}
	if drain && (s.writing || len(s.queue) > 0) {
		s.state = Disconnecting
		s.mu.Unlock()
		return nil
	}
	fire := s.closeLocked()
	s.mu.Unlock()

	if fire {
		s.fireDisconnected(nil)
	}
	return nil
}

func toEndpoint(a net.Addr) (address.Endpoint, bool) {
	tcpAddr, ok := a.(*net.TCPAddr)
	if !ok || tcpAddr == nil {
		return address.Endpoint{}, false
	}
	v4 := tcpAddr.IP.To4()
	if v4 == nil {
		return address.Endpoint{}, false
	}
	return address.Endpoint{Address: address.Address{v4[0], v4[1], v4[2], v4[3]}, Port: uint16(tcpAddr.Port)}, true
}
