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

// Package socket holds configuration shapes shared by the UDP socket, TCP
// socket, TCP acceptor, and TCP inbound socket packages.
package socket

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lhamowski/luxnet/retry"
)

var validate = validator.New()

// BufferConfig sizes the send arena and receive buffer.
type BufferConfig struct {
	InitialSendChunkSize  int `mapstructure:"initial_send_chunk_size" validate:"gte=0"`
	InitialSendChunkCount int `mapstructure:"initial_send_chunk_count" validate:"gte=0"`
	ReadBufferSize        int `mapstructure:"read_buffer_size" validate:"gte=1"`
}

// DefaultBufferConfig mirrors the original's defaults (1024 bytes / 4
// pre-populated chunks / 8192-byte read buffer).
func DefaultBufferConfig() BufferConfig {
	return BufferConfig{InitialSendChunkSize: 1024, InitialSendChunkCount: 4, ReadBufferSize: 8192}
}

// ReconnectConfig controls automatic reconnection on a TCP socket.
type ReconnectConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Policy  retry.Policy `mapstructure:"policy"`
}

// DefaultReconnectPolicy mirrors the original's defaults: exponential
// backoff, unlimited attempts, 1s base, 30s max.
func DefaultReconnectPolicy() retry.Policy {
	return retry.Policy{Strategy: retry.Exponential, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// TCPConfig configures a tcp.Socket.
type TCPConfig struct {
	KeepAlive bool            `mapstructure:"keep_alive"`
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
	Buffer    BufferConfig    `mapstructure:"buffer"`
}

// DefaultTCPConfig returns the default client-side TCP configuration.
func DefaultTCPConfig() TCPConfig {
	return TCPConfig{
		KeepAlive: true,
		Reconnect: ReconnectConfig{Enabled: true, Policy: DefaultReconnectPolicy()},
		Buffer:    DefaultBufferConfig(),
	}
}

// Validate applies struct validation tags.
func (c TCPConfig) Validate() error { return validate.Struct(c) }

// AcceptorConfig configures a tcp acceptor.
type AcceptorConfig struct {
	ReuseAddress bool         `mapstructure:"reuse_address"`
	KeepAlive    bool         `mapstructure:"keep_alive"`
	SocketBuffer BufferConfig `mapstructure:"socket_buffer"`
}

// DefaultAcceptorConfig returns the default acceptor configuration.
func DefaultAcceptorConfig() AcceptorConfig {
	return AcceptorConfig{ReuseAddress: true, KeepAlive: true, SocketBuffer: DefaultBufferConfig()}
}

// Validate applies struct validation tags.
func (c AcceptorConfig) Validate() error { return validate.Struct(c) }
