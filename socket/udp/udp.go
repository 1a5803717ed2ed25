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

// Package udp implements the async UDP socket (C5): open/bind/close, an
// async receive loop, and a queued async send per destination.
package udp

import (
	"net"
	"sync"

	"github.com/lhamowski/luxnet/address"
	"github.com/lhamowski/luxnet/arena"
	liberr "github.com/lhamowski/luxnet/errors"
	"github.com/lhamowski/luxnet/logger"
)

type state uint8

const (
	closed state = iota
	open
	closing
)

// Handler receives UDP socket events. Any nil field is treated as "ignore
// this event".
type Handler struct {
	OnDataRead  func(peer address.Endpoint, data []byte)
	OnDataSent  func(peer address.Endpoint, data []byte)
	OnReadError func(peer address.Endpoint, err error)
	OnSendError func(peer address.Endpoint, data []byte, err error)
}

type pendingSend struct {
	peer address.Endpoint
	buf  *arena.Buffer
}

// Socket is an asynchronous UDP socket.
type Socket struct {
	handler Handler
	log     logger.Logger
	arena   *arena.Arena
	readBuf int

	mu      sync.Mutex
	drained *sync.Cond
	st      state
	conn    *net.UDPConn
	queue   []pendingSend
	sending bool
	closeWG sync.WaitGroup

	// dispatchMu serializes handler callback invocations: readLoop and
	// sendLoop run as independent goroutines for the socket's whole open
	// lifetime, and without this, OnDataRead/OnReadError could race
	// OnDataSent/OnSendError. Kept separate from mu so a handler calling
	// back into Send or Close from a callback cannot deadlock against it.
	dispatchMu sync.Mutex
}

// New constructs a Socket; it does not open the underlying file descriptor
// until Open is called.
func New(handler Handler, log logger.Logger) *Socket {
	s := &Socket{
		handler: handler,
		log:     logger.OrDiscard(log),
		arena:   arena.New(1024),
		readBuf: 8192,
		st:      closed,
	}
	s.drained = sync.NewCond(&s.mu)
	return s
}

func (s *Socket) fireDataRead(peer address.Endpoint, data []byte) {
	if s.handler.OnDataRead == nil {
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.OnDataRead(peer, data)
}

func (s *Socket) fireDataSent(peer address.Endpoint, data []byte) {
	if s.handler.OnDataSent == nil {
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.OnDataSent(peer, data)
}

func (s *Socket) fireReadError(peer address.Endpoint, err error) {
	if s.handler.OnReadError == nil {
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.OnReadError(peer, err)
}

func (s *Socket) fireSendError(peer address.Endpoint, data []byte, err error) {
	if s.handler.OnSendError == nil {
		return
	}
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.handler.OnSendError(peer, data, err)
}

// Open opens an IPv4 datagram socket, optionally bound to a local endpoint,
// and starts the async receive loop. A zero-value local endpoint picks an
// ephemeral port on all interfaces.
func (s *Socket) Open(local address.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st != closed {
		return liberr.New(liberr.ErrProtocol, "udp socket already open")
	}

	laddr := &net.UDPAddr{IP: local.Address.IP(), Port: int(local.Port)}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return liberr.Wrap(liberr.ErrIO, "udp listen failed", err)
	}
	s.conn = conn
	s.st = open
	s.closeWG.Add(1)
	go s.readLoop(conn)
	return nil
}

// LocalAddr reports the bound local endpoint, if open.
func (s *Socket) LocalAddr() (address.Endpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return address.Endpoint{}, false
	}
	return toEndpoint(s.conn.LocalAddr())
}

// Send copies data into an arena buffer, enqueues it for the given peer,
// and kicks off a send if none is currently in flight.
func (s *Socket) Send(peer address.Endpoint, data []byte) error {
	s.mu.Lock()
	if s.st != open {
		s.mu.Unlock()
		return liberr.New(liberr.ErrProtocol, "udp socket not open")
	}
	buf := s.arena.AcquireCopy(data)
	s.queue = append(s.queue, pendingSend{peer: peer, buf: buf})
	shouldStart := !s.sending
	if shouldStart {
		s.sending = true
	}
	conn := s.conn
	s.mu.Unlock()

	if shouldStart {
		go s.sendLoop(conn)
	}
	return nil
}

func (s *Socket) sendLoop(conn *net.UDPConn) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.sending = false
			s.mu.Unlock()
			return
		}
		item := s.queue[0]
		s.queue = s.queue[1:]
		if len(s.queue) == 0 {
			s.drained.Broadcast()
		}
		s.mu.Unlock()

		raddr := &net.UDPAddr{IP: item.peer.Address.IP(), Port: int(item.peer.Port)}
		data := item.buf.Bytes()
		_, err := conn.WriteToUDP(data, raddr)
		if err != nil {
			s.fireSendError(item.peer, data, liberr.Wrap(liberr.ErrTransport, "udp write failed", err))
		} else {
			s.fireDataSent(item.peer, data)
		}
		item.buf.Release()
	}
}

func (s *Socket) readLoop(conn *net.UDPConn) {
	defer s.closeWG.Done()
	buf := make([]byte, s.readBuf)
	for {
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			s.mu.Lock()
			st := s.st
			s.mu.Unlock()
			if st == closed {
				return
			}
			peer, _ := toEndpoint(raddr)
			s.fireReadError(peer, liberr.Wrap(liberr.ErrTransport, "udp read failed", err))
			continue
		}
		if peer, ok := toEndpoint(raddr); ok {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			s.fireDataRead(peer, cp)
		}
	}
}

// Close shuts the socket down. drain==true waits for the current send
// queue to empty (best-effort; new sends are still rejected once closing
// begins). drain==false closes immediately and drops queued sends.
func (s *Socket) Close(drain bool) error {
	s.mu.Lock()
	if s.st == closed {
		s.mu.Unlock()
		return nil
	}
	if drain {
		s.st = closing
		for len(s.queue) > 0 {
			s.drained.Wait()
		}
	}
	s.st = closed
	conn := s.conn
	s.mu.Unlock()

	var err error
	if conn != nil {
		if cerr := conn.Close(); cerr != nil {
			err = liberr.Wrap(liberr.ErrIO, "udp close failed", cerr)
		}
	}
	s.closeWG.Wait()
	return err
}

func toEndpoint(a net.Addr) (address.Endpoint, bool) {
	ua, ok := a.(*net.UDPAddr)
	if !ok || ua == nil {
		return address.Endpoint{}, false
	}
	v4 := ua.IP.To4()
	if v4 == nil {
		return address.Endpoint{}, false
	}
	return address.Endpoint{Address: address.Address{v4[0], v4[1], v4[2], v4[3]}, Port: uint16(ua.Port)}, true
}
