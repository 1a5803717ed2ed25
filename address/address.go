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

// Package address provides the IPv4-only address and endpoint value types
// shared by every socket and HTTP component. IPv6 is out of scope.
package address

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Address is a 4-byte IPv4 address, value-typed and totally ordered.
type Address [4]byte

// Localhost is 127.0.0.1.
var Localhost = Address{127, 0, 0, 1}

// Any is 0.0.0.0.
var Any = Address{0, 0, 0, 0}

// Broadcast is 255.255.255.255.
var Broadcast = Address{255, 255, 255, 255}

// FromUint32 builds an Address from a big-endian 32-bit integer.
func FromUint32(u uint32) Address {
	return Address{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
}

// FromBytes builds an Address from exactly 4 bytes.
func FromBytes(b [4]byte) Address { return Address(b) }

// Parse parses a dotted-quad string into an Address.
func Parse(s string) (Address, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return Address{}, fmt.Errorf("address: invalid IPv4 literal %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return Address{}, fmt.Errorf("address: %q is not an IPv4 address", s)
	}
	return Address{v4[0], v4[1], v4[2], v4[3]}, nil
}

// Uint32 renders the address as a big-endian 32-bit integer.
func (a Address) Uint32() uint32 {
	return uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
}

// Bytes returns the raw 4 bytes.
func (a Address) Bytes() [4]byte { return a }

// String renders the dotted-quad form.
func (a Address) String() string {
	return strconv.Itoa(int(a[0])) + "." + strconv.Itoa(int(a[1])) + "." +
		strconv.Itoa(int(a[2])) + "." + strconv.Itoa(int(a[3]))
}

// Less provides the total order used by Endpoint's ordering.
func (a Address) Less(b Address) bool {
	for i := 0; i < 4; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// IP converts to a stdlib net.IP for use with net.Dial/net.Listen.
func (a Address) IP() net.IP { return net.IPv4(a[0], a[1], a[2], a[3]) }

// Endpoint is a value (address, port) pair.
type Endpoint struct {
	Address Address
	Port    uint16
}

// String renders "a.b.c.d:port".
func (e Endpoint) String() string {
	return e.Address.String() + ":" + strconv.Itoa(int(e.Port))
}

// Less provides lexicographic ordering on (address, port).
func (e Endpoint) Less(o Endpoint) bool {
	if e.Address != o.Address {
		return e.Address.Less(o.Address)
	}
	return e.Port < o.Port
}

// ParseEndpoint parses "host:port" where host is a dotted-quad IPv4 literal.
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("address: invalid endpoint %q: %w", s, err)
	}
	addr, err := Parse(host)
	if err != nil {
		return Endpoint{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("address: invalid port in %q: %w", s, err)
	}
	return Endpoint{Address: addr, Port: uint16(port)}, nil
}

// HostnameEndpoint is a value (host, port) pair resolved at connect time.
type HostnameEndpoint struct {
	Host string
	Port uint16
}

// String renders "host:port".
func (h HostnameEndpoint) String() string {
	return h.Host + ":" + strconv.Itoa(int(h.Port))
}

// ParseHostnameEndpoint splits "host:port" without resolving the host.
func ParseHostnameEndpoint(s string) (HostnameEndpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return HostnameEndpoint{}, fmt.Errorf("address: invalid endpoint %q: %w", s, err)
	}
	host = strings.TrimSpace(host)
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return HostnameEndpoint{}, fmt.Errorf("address: invalid port in %q: %w", s, err)
	}
	return HostnameEndpoint{Host: host, Port: uint16(port)}, nil
}
