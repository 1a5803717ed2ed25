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

// Package httpcli implements the HTTP/1.1 client (C10): a single logical
// connection to one destination, a FIFO request queue, strictly one
// request in flight at a time, auto-connect on the first queued request
// and auto-disconnect once the queue drains. It never pools connections
// across destinations and never pipelines.
package httpcli

import (
	"crypto/tls"
	"sync"

	"github.com/lhamowski/luxnet/address"
	liberr "github.com/lhamowski/luxnet/errors"
	"github.com/lhamowski/luxnet/httpproto"
	"github.com/lhamowski/luxnet/logger"
	"github.com/lhamowski/luxnet/socket"
	"github.com/lhamowski/luxnet/socket/tcp"
)

// ResponseFunc receives the outcome of a single request: either a
// decoded response, or an error if the connection failed before a
// response arrived.
type ResponseFunc func(resp *httpproto.Response, err error)

type pendingRequest struct {
	req      *httpproto.Request
	callback ResponseFunc
}

// Client is a single-destination HTTP/1.1 client.
type Client struct {
	cfg    socket.TCPConfig
	target connectTarget
	log    logger.Logger

	sock   *tcp.Socket
	parser *httpproto.Parser

	mu        sync.Mutex
	queue     []*pendingRequest
	inFlight  *pendingRequest
	connected bool
}

type connectTarget struct {
	endpoint *address.Endpoint
	hostname *address.HostnameEndpoint
}

// New constructs a plaintext client bound to ep.
func New(cfg socket.TCPConfig, ep address.Endpoint, log logger.Logger) *Client {
	return newClient(cfg, connectTarget{endpoint: &ep}, nil, log)
}

// NewHost constructs a plaintext client bound to a hostname, resolved at
// connect time.
func NewHost(cfg socket.TCPConfig, he address.HostnameEndpoint, log logger.Logger) *Client {
	return newClient(cfg, connectTarget{hostname: &he}, nil, log)
}

// NewTLS constructs a client that performs a TLS handshake after the TCP
// connect completes, bound to ep.
func NewTLS(cfg socket.TCPConfig, ep address.Endpoint, tlsCfg *tls.Config, log logger.Logger) *Client {
	return newClient(cfg, connectTarget{endpoint: &ep}, tlsCfg, log)
}

// NewTLSHost is the hostname-bound counterpart of NewTLS.
func NewTLSHost(cfg socket.TCPConfig, he address.HostnameEndpoint, tlsCfg *tls.Config, log logger.Logger) *Client {
	return newClient(cfg, connectTarget{hostname: &he}, tlsCfg, log)
}

func newClient(cfg socket.TCPConfig, target connectTarget, tlsCfg *tls.Config, log logger.Logger) *Client {
	c := &Client{
		cfg:    cfg,
		target: target,
		log:    logger.OrDiscard(log),
		parser: httpproto.NewParser(httpproto.ResponseKind),
	}
	handler := tcp.Handler{
		OnConnected:    c.onConnected,
		OnDisconnected: c.onDisconnected,
		OnDataRead:     c.onDataRead,
	}
	if tlsCfg != nil {
		c.sock = tcp.NewTLS(cfg, tlsCfg, handler, log)
	} else {
		c.sock = tcp.New(cfg, handler, log)
	}
	c.parser.OnMessage = c.onMessage
	c.parser.OnError = c.onParseError
	return c
}

// Send enqueues req. If no connection is active, one is started
// automatically; the request is dispatched once it reaches the head of
// the queue and the connection (or its next reconnect attempt) succeeds.
func (c *Client) Send(req *httpproto.Request, callback ResponseFunc) {
	c.mu.Lock()
	pr := &pendingRequest{req: req, callback: callback}
	c.queue = append(c.queue, pr)
	needConnect := !c.connected && c.sock.State() == tcp.Disconnected && c.inFlight == nil && len(c.queue) == 1
	c.mu.Unlock()

	if needConnect {
		c.connect()
	} else {
		c.tryDispatch()
	}
}

// Close tears the connection down and fails every queued and in-flight
// request.
func (c *Client) Close() {
	c.sock.Disconnect(false)
	c.mu.Lock()
	failed := c.drainAllLocked()
	c.mu.Unlock()
	failAll(failed, liberr.New(liberr.ErrTransport, "client closed"))
}

func (c *Client) connect() {
	var err error
	if c.target.endpoint != nil {
		err = c.sock.Connect(*c.target.endpoint)
	} else {
		err = c.sock.ConnectHost(*c.target.hostname)
	}
	if err != nil {
		c.mu.Lock()
		failed := c.drainAllLocked()
		c.mu.Unlock()
		failAll(failed, err)
	}
}

func (c *Client) onConnected() {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.tryDispatch()
}

func (c *Client) onDisconnected(err error, willReconnect bool) {
	c.mu.Lock()
	c.connected = false
	inFlight := c.inFlight
	c.inFlight = nil
	if err == nil {
		err = liberr.New(liberr.ErrTransport, "connection closed")
	}
	var failed []*pendingRequest
	if inFlight != nil {
		failed = append(failed, inFlight)
	}
	if !willReconnect {
		failed = append(failed, c.drainAllLocked()...)
	}
	c.mu.Unlock()
	failAll(failed, err)
}

func (c *Client) onDataRead(data []byte) {
	c.parser.Feed(data)
}

func (c *Client) onParseError(err error) {
	c.mu.Lock()
	inFlight := c.inFlight
	c.inFlight = nil
	c.mu.Unlock()
	if inFlight != nil {
		inFlight.callback(nil, liberr.Wrap(liberr.ErrParse, "malformed response", err))
	}
	c.sock.Disconnect(false)
}

func (c *Client) onMessage(req *httpproto.Request, resp *httpproto.Response) {
	c.mu.Lock()
	inFlight := c.inFlight
	c.inFlight = nil
	c.mu.Unlock()

	if inFlight != nil && inFlight.callback != nil {
		inFlight.callback(resp, nil)
	}
	c.tryDispatch()
}

// tryDispatch sends the next queued request if the connection is up and
// nothing is currently in flight; it disconnects (draining any
// in-progress write) once the queue is empty.
func (c *Client) tryDispatch() {
	c.mu.Lock()
	if c.inFlight != nil || !c.connected {
		c.mu.Unlock()
		return
	}
	if len(c.queue) == 0 {
		c.mu.Unlock()
		c.sock.Disconnect(true)
		return
	}
	next := c.queue[0]
	c.queue = c.queue[1:]
	c.inFlight = next
	c.mu.Unlock()

	wire := httpproto.EncodeRequest(next.req)
	if err := c.sock.Send(wire); err != nil {
		c.mu.Lock()
		c.inFlight = nil
		c.mu.Unlock()
		if next.callback != nil {
			next.callback(nil, err)
		}
	}
}

// drainAllLocked must be called with mu held. It clears the queue and
// returns every request that was waiting, for the caller to fail outside
// the lock.
func (c *Client) drainAllLocked() []*pendingRequest {
	out := c.queue
	c.queue = nil
	return out
}

func failAll(prs []*pendingRequest, err error) {
	for _, pr := range prs {
		if pr.callback != nil {
			pr.callback(nil, err)
		}
	}
}
