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

// Package tcp implements the client-side TCP socket state machine (C6):
// connect (direct or by hostname) with policy-driven reconnect, queued
// send, async receive, and graceful/immediate disconnect. A TLS variant
// gates the connecting -> connected transition on a client handshake.
package tcp

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/lhamowski/luxnet/address"
	"github.com/lhamowski/luxnet/arena"
	liberr "github.com/lhamowski/luxnet/errors"
	"github.com/lhamowski/luxnet/logger"
	"github.com/lhamowski/luxnet/retry"
	"github.com/lhamowski/luxnet/socket"
)

// State is the socket's connection state.
type State uint8

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

// Handler receives TCP socket events. Nil fields are treated as "ignore".
type Handler struct {
	OnConnected    func()
	OnDisconnected func(err error, willReconnect bool)
	OnDataRead     func(data []byte)
	OnDataSent     func(data []byte)
}

type connectTarget struct {
	endpoint *address.Endpoint
	hostname *address.HostnameEndpoint
}

type pendingSend struct {
	buf *arena.Buffer
}

// Socket is the client-side TCP/TLS socket.
type Socket struct {
	cfg     socket.TCPConfig
	handler Handler
	log     logger.Logger
	arena   *arena.Arena
	tlsCfg  *tls.Config // nil for plaintext

	mu         sync.Mutex
	state      State
	conn       net.Conn
	target     connectTarget
	queue      []pendingSend
	writing    bool
	local      address.Endpoint
	remote     address.Endpoint
	generation uint64 // bumped on every new connect/disconnect cycle

	retryExec *retry.Executor

	// dispatchMu serializes handler callback invocations: readLoop and
	// writeLoop run as independent goroutines for the socket's whole
	// Connected lifetime, and without this, OnDataRead and OnDataSent (or
	// OnDisconnected racing either) could fire concurrently. It is
	// deliberately separate from mu so a handler calling back into Send or
	// Disconnect from within a callback cannot deadlock against it.
	dispatchMu sync.Mutex
}

// New constructs a plaintext client TCP socket.
func New(cfg socket.TCPConfig, handler Handler, log logger.Logger) *Socket {
	return newSocket(cfg, handler, log, nil)
}

// NewTLS constructs a client TCP socket that performs a TLS handshake
// before completing the connecting -> connected transition.
func NewTLS(cfg socket.TCPConfig, tlsCfg *tls.Config, handler Handler, log logger.Logger) *Socket {
	return newSocket(cfg, handler, log, tlsCfg)
}

func newSocket(cfg socket.TCPConfig, handler Handler, log logger.Logger, tlsCfg *tls.Config) *Socket {
	s := &Socket{
		cfg:     cfg,
		handler: handler,
		log:     logger.OrDiscard(log),
		arena:   arena.New(cfg.Buffer.InitialSendChunkSize),
		tlsCfg:  tlsCfg,
		state:   Disconnected,
	}
	if cfg.Reconnect.Enabled {
		s.retryExec = retry.New(cfg.Reconnect.Policy)
		s.retryExec.SetRetryAction(s.onRetryFired)
	}
	return s
}

// fireConnected, fireDisconnected, fireDataRead and fireDataSent are the
// only call sites allowed to invoke the handler: each takes dispatchMu so
// no two callbacks for this socket ever run concurrently.
func (s *Socket) fireConnected() {
	if s.handler.OnConnected == nil {
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.OnConnected()
}

func (s *Socket) fireDisconnected(err error, willReconnect bool) {
	if s.handler.OnDisconnected == nil {
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.OnDisconnected(err, willReconnect)
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

// State reports the current connection state.
func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LocalAddr reports the local endpoint once connected.
func (s *Socket) LocalAddr() (address.Endpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local, s.state == Connected || s.state == Disconnecting
}

// RemoteAddr reports the endpoint actually connected to, once connected —
// resolved for both direct-endpoint and hostname connects.
func (s *Socket) RemoteAddr() (address.Endpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote, s.state == Connected || s.state == Disconnecting
}

// Connect opens a connection to a fixed endpoint.
func (s *Socket) Connect(ep address.Endpoint) error {
	return s.connect(connectTarget{endpoint: &ep})
}

// ConnectHost resolves host at connect time, trying resolved addresses in
// order.
func (s *Socket) ConnectHost(he address.HostnameEndpoint) error {
	return s.connect(connectTarget{hostname: &he})
}

func (s *Socket) connect(target connectTarget) error {
	s.mu.Lock()
	if s.state != Disconnected {
		s.mu.Unlock()
		return liberr.New(liberr.ErrProtocol, "tcp socket not disconnected")
	}
	if s.retryExec != nil && s.retryExec.IsExhausted() {
		s.retryExec.Reset()
	}
	s.state = Connecting
	s.target = target
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	go s.dial(target, gen)
	return nil
}

func (s *Socket) dial(target connectTarget, gen uint64) {
	dialer := net.Dialer{}
	var (
		conn net.Conn
		err  error
		ep   address.Endpoint
	)

	if target.endpoint != nil {
		ep = *target.endpoint
		conn, err = dialer.Dial("tcp4", ep.String())
	} else {
		host := target.hostname
		var raddrs []address.Endpoint
		raddrs, err = resolve(*host)
		if err == nil {
			for _, cand := range raddrs {
				conn, err = dialer.Dial("tcp4", cand.String())
				if err == nil {
					ep = cand
					break
				}
			}
		}
	}

	if err != nil {
		s.handleConnectFailure(gen, liberr.Wrap(liberr.ErrTransport, "tcp connect failed", err))
		return
	}

	if tc, ok := conn.(*net.TCPConn); ok && s.cfg.KeepAlive {
		_ = tc.SetKeepAlive(true)
	}

	if s.tlsCfg != nil {
		tlsConn := tls.Client(conn, s.tlsCfg)
		if err := tlsConn.HandshakeContext(context.Background()); err != nil {
			conn.Close()
			s.handleConnectFailure(gen, liberr.Wrap(liberr.ErrTLS, "tls handshake failed", err))
			return
		}
		conn = tlsConn
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.state = Connected
	s.remote = ep
	if local, ok := toEndpoint(conn.LocalAddr()); ok {
		s.local = local
	}
	if s.retryExec != nil {
		s.retryExec.Reset()
	}
	s.mu.Unlock()

	s.fireConnected()
	go s.readLoop(conn, gen)
}

func resolve(he address.HostnameEndpoint) ([]address.Endpoint, error) {
	ips, err := net.DefaultResolver.LookupIP(context.Background(), "ip4", he.Host)
	if err != nil {
		return nil, err
	}
	out := make([]address.Endpoint, 0, len(ips))
	for _, ip := range ips {
		v4 := ip.To4()
		if v4 == nil {
			continue
		}
		out = append(out, address.Endpoint{Address: address.Address{v4[0], v4[1], v4[2], v4[3]}, Port: he.Port})
	}
	if len(out) == 0 {
		return nil, liberr.New(liberr.ErrTransport, "no IPv4 addresses resolved")
	}
	return out, nil
}

func (s *Socket) handleConnectFailure(gen uint64, err error) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.state = Disconnected
	s.mu.Unlock()

	willReconnect := s.armReconnect()
	s.fireDisconnected(err, willReconnect)
}

// armReconnect decides whether a reconnect attempt will happen and, if so,
// arms the retry executor. It must be called without mu held: the retry
// executor may invoke onRetryFired synchronously (zero-delay policies),
// which itself needs to lock mu.
func (s *Socket) armReconnect() bool {
	if s.retryExec == nil || s.retryExec.IsExhausted() {
		return false
	}
	willReconnect := true
	s.retryExec.Retry()
	return willReconnect
}

func (s *Socket) onRetryFired() {
	s.mu.Lock()
	if s.state != Disconnected {
		s.mu.Unlock()
		return
	}
	target := s.target
	s.generation++
	gen := s.generation
	s.state = Connecting
	s.mu.Unlock()

	s.dial(target, gen)
}

// Send copies data into an arena buffer, enqueues it, and starts a write if
// none is in flight.
func (s *Socket) Send(data []byte) error {
	s.mu.Lock()
	if s.state != Connected {
		s.mu.Unlock()
		return liberr.New(liberr.ErrProtocol, "tcp socket not connected")
	}
	buf := s.arena.AcquireCopy(data)
	s.queue = append(s.queue, pendingSend{buf: buf})
	start := !s.writing
	if start {
		s.writing = true
	}
	conn := s.conn
	gen := s.generation
	s.mu.Unlock()

	if start {
		go s.writeLoop(conn, gen)
	}
	return nil
}

func (s *Socket) writeLoop(conn net.Conn, gen uint64) {
	for {
		s.mu.Lock()
		if s.generation != gen {
			s.writing = false
			s.mu.Unlock()
			return
		}
		if len(s.queue) == 0 {
			s.writing = false
			fire := false
			if s.state == Disconnecting {
				fire = s.closeLocked()
			}
			s.mu.Unlock()
			if fire {
				s.fireDisconnected(nil, false)
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
			s.handleRuntimeFailure(gen, liberr.Wrap(liberr.ErrTransport, "tcp write failed", err))
			return
		}
		s.fireDataSent(data)
		item.buf.Release()
	}
}

func (s *Socket) readLoop(conn net.Conn, gen uint64) {
	buf := make([]byte, s.cfg.Buffer.ReadBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			s.fireDataRead(cp)
		}
		if err != nil {
			s.handleRuntimeFailure(gen, classifyReadError(err))
			return
		}
	}
}

func classifyReadError(err error) error {
	if isBenignShutdown(err) {
		return nil
	}
	return liberr.Wrap(liberr.ErrTransport, "tcp read failed", err)
}

func isBenignShutdown(err error) bool {
	// EOF and "use of closed network connection" are ordinary disconnects,
	// not transport failures worth retrying noisily over.
	return err.Error() == "EOF" || isClosedConnError(err)
}

func isClosedConnError(err error) bool {
	return err != nil && (err == net.ErrClosed || isNetClosedMessage(err))
}

func isNetClosedMessage(err error) bool {
	const msg = "use of closed network connection"
	s := err.Error()
	return len(s) >= len(msg) && (s[len(s)-len(msg):] == msg)
}

func (s *Socket) handleRuntimeFailure(gen uint64, err error) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	if s.state != Connected && s.state != Disconnecting {
		s.mu.Unlock()
		return
	}
	// A graceful Disconnect shuts the read half down itself; the write loop
	// closes the connection once the queue has drained.
	if s.state == Disconnecting && err == nil {
		s.mu.Unlock()
		return
	}
	manual := s.state == Disconnecting
	conn := s.conn
	s.state = Disconnected
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	willReconnect := false
	if !manual {
		willReconnect = s.armReconnect()
	}
	s.fireDisconnected(err, willReconnect)
}

// Disconnect tears down the connection. drain==true drains the pending
// write queue first (graceful); drain==false closes immediately. Either
// way the retry executor is cancelled — manual disconnect never
// auto-reconnects.
func (s *Socket) Disconnect(drain bool) error {
	s.mu.Lock()
	if s.retryExec != nil {
		s.retryExec.Cancel()
	}
	switch s.state {
	case Disconnected:
		s.mu.Unlock()
		return nil
	case Disconnecting:
		s.mu.Unlock()
		return nil
	case Connecting:
		fire := s.closeLocked()
		s.mu.Unlock()
		if fire {
			s.fireDisconnected(nil, false)
		}
		return nil
	case Connected:
		if !drain || (!s.writing && len(s.queue) == 0) {
			fire := s.closeLocked()
			s.mu.Unlock()
			if fire {
				s.fireDisconnected(nil, false)
			}
			return nil
		}
		s.state = Disconnecting
		if tc, ok := s.conn.(interface{ CloseRead() error }); ok {
			_ = tc.CloseRead()
		}
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return nil
}

// closeLocked must be called with mu held. It closes the underlying
// connection immediately and moves to Disconnected, returning whether the
// caller should fire on_disconnected(will_reconnect=false) once mu is
// released — this path is only reachable from manual disconnects, either
// directly or once a graceful drain completes.
func (s *Socket) closeLocked() bool {
	conn := s.conn
	wasLive := s.state != Disconnected
	s.state = Disconnected
	s.conn = nil
	s.generation++
	if conn != nil {
		conn.Close()
	}
	return wasLive
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

// awaitConnected polls until the socket reaches Connected or the deadline
// elapses.
func (s *Socket) awaitConnected(deadline time.Duration) bool {
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if s.State() == Connected {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}
