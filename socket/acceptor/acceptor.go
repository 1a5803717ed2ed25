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

// Package acceptor implements the TCP acceptor (C7): listen + repeated
// async accept, publishing each accepted connection as an inbound socket.
// The TLS variant performs the server-side handshake before publishing.
package acceptor

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"syscall"

	"github.com/lhamowski/luxnet/address"
	liberr "github.com/lhamowski/luxnet/errors"
	"github.com/lhamowski/luxnet/expiring"
	"github.com/lhamowski/luxnet/logger"
	"github.com/lhamowski/luxnet/socket"
	"github.com/lhamowski/luxnet/socket/inbound"
)

// Handler receives acceptor events. Once Detach is called, no further
// events fire; Close only stops the accept loop, and TLS handshakes already
// in progress may still report afterwards.
type Handler struct {
	OnAccepted    func(conn *inbound.Socket)
	OnAcceptError func(err error)
}

// Acceptor listens for inbound TCP connections.
type Acceptor struct {
	cfg    socket.AcceptorConfig
	href   *expiring.Ref[Handler]
	log    logger.Logger
	tlsCfg *tls.Config // nil for plaintext

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// New constructs a plaintext acceptor.
func New(cfg socket.AcceptorConfig, handler Handler, log logger.Logger) *Acceptor {
	return &Acceptor{cfg: cfg, href: expiring.New(handler), log: logger.OrDiscard(log)}
}

// NewTLS constructs an acceptor that performs a server-side TLS handshake
// on every accepted connection before publishing it.
func NewTLS(cfg socket.AcceptorConfig, tlsCfg *tls.Config, handler Handler, log logger.Logger) *Acceptor {
	return &Acceptor{cfg: cfg, href: expiring.New(handler), log: logger.OrDiscard(log), tlsCfg: tlsCfg}
}

// Listen opens the listening socket at ep and starts the accept loop. A
// port of 0 picks an ephemeral port, resolvable afterward via LocalAddr.
func (a *Acceptor) Listen(ep address.Endpoint) error {
	lc := net.ListenConfig{}
	if a.cfg.ReuseAddress {
		lc.Control = setReuseAddr
	}
	ln, err := lc.Listen(context.Background(), "tcp4", ep.String())
	if err != nil {
		return liberr.Wrap(liberr.ErrIO, "acceptor listen failed", err)
	}

	a.mu.Lock()
	a.ln = ln
	a.mu.Unlock()

	go a.acceptLoop(ln)
	return nil
}

// LocalAddr reports the bound local endpoint.
func (a *Acceptor) LocalAddr() (address.Endpoint, bool) {
	a.mu.Lock()
	ln := a.ln
	a.mu.Unlock()
	if ln == nil {
		return address.Endpoint{}, false
	}
	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return address.Endpoint{}, false
	}
	v4 := tcpAddr.IP.To4()
	if v4 == nil {
		return address.Endpoint{}, false
	}
	return address.Endpoint{Address: address.Address{v4[0], v4[1], v4[2], v4[3]}, Port: uint16(tcpAddr.Port)}, true
}

func (a *Acceptor) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if closed {
				return
			}
			a.reportAcceptError(liberr.Wrap(liberr.ErrTransport, "accept failed", err))
			continue
		}

		if tc, ok := conn.(*net.TCPConn); ok && a.cfg.KeepAlive {
			_ = tc.SetKeepAlive(true)
		}

		if a.tlsCfg == nil {
			a.publish(conn)
			continue
		}

		go a.handshakeThenPublish(conn)
	}
}

func (a *Acceptor) handshakeThenPublish(conn net.Conn) {
	tlsConn := tls.Server(conn, a.tlsCfg)
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		conn.Close()
		a.reportAcceptError(liberr.Wrap(liberr.ErrTLS, "server tls handshake failed", err))
		// A handshake failure never counts against continued acceptance.
		return
	}
	a.publish(tlsConn)
}

func (a *Acceptor) publish(conn net.Conn) {
	handler, live := a.href.Get()
	if !live || handler.OnAccepted == nil {
		conn.Close()
		return
	}
	sock := inbound.New(conn, a.cfg.SocketBuffer, inbound.Handler{}, a.log)
	handler.OnAccepted(sock)
}

func (a *Acceptor) reportAcceptError(err error) {
	handler, live := a.href.Get()
	if !live || handler.OnAcceptError == nil {
		return
	}
	handler.OnAcceptError(err)
}

// Close cancels the pending accept and closes the listener. Cancellation
// errors are benign and ignored; only the close error (if any) is
// returned.
func (a *Acceptor) Close() error {
	a.mu.Lock()
	a.closed = true
	ln := a.ln
	a.mu.Unlock()
	if ln == nil {
		return nil
	}
	if err := ln.Close(); err != nil {
		return liberr.Wrap(liberr.ErrIO, "acceptor close failed", err)
	}
	return nil
}

// Detach invalidates the handler so in-flight callbacks become no-ops —
// the Go analogue of the expirable handler reference the server façade
// drops when it is destroyed.
func (a *Acceptor) Detach() {
	a.href.Detach()
}

func setReuseAddr(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
