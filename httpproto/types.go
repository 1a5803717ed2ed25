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

// Package httpproto defines the HTTP/1.1 wire types (method, status,
// headers, request, response) and the incremental parser (C9) that drives
// both the client and the server.
package httpproto

import "strconv"

// Method is a closed sum type over the methods this library understands
// bidirectionally, plus Unknown (client: unrecognized wire token) and
// Unsupported (server: recognized-but-unhandled wire token).
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGet
	MethodPost
	MethodPut
	MethodDelete
	MethodUnsupported
)

var methodNames = map[Method]string{
	MethodGet:    "GET",
	MethodPost:   "POST",
	MethodPut:    "PUT",
	MethodDelete: "DELETE",
}

// String renders the wire token, or "" for Unknown/Unsupported.
func (m Method) String() string { return methodNames[m] }

// unsupportedMethodTokens holds HTTP verbs this library recognizes but does
// not handle. A token in this set is a well-formed method the wire format
// defines, distinct from a token nobody defines at all.
var unsupportedMethodTokens = map[string]struct{}{
	"HEAD":    {},
	"OPTIONS": {},
	"PATCH":   {},
	"TRACE":   {},
	"CONNECT": {},
}

// ParseMethod maps a wire token to a Method: GET/POST/PUT/DELETE map to
// their Method values, other recognized HTTP verbs (HEAD, OPTIONS, PATCH,
// TRACE, CONNECT) map to Unsupported, and anything else — a token that
// isn't an HTTP verb at all — maps to Unknown.
func ParseMethod(token string) Method {
	switch token {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	case "DELETE":
		return MethodDelete
	}
	if _, ok := unsupportedMethodTokens[token]; ok {
		return MethodUnsupported
	}
	return MethodUnknown
}

// Status is a closed enum over standard 1xx-5xx status codes, bijective
// with the numeric wire code; unrecognized codes map to StatusUnknown(0).
type Status uint16

const (
	StatusUnknown Status = 0

	StatusContinue           Status = 100
	StatusSwitchingProtocols Status = 101

	StatusOK                  Status = 200
	StatusCreated             Status = 201
	StatusAccepted            Status = 202
	StatusNotModifiedAsserted Status = 203 // non-authoritative information
	StatusNoContent           Status = 204

	StatusMultipleChoices   Status = 300
	StatusMovedPermanently  Status = 301
	StatusFound             Status = 302
	StatusSeeOther          Status = 303
	StatusNotModified       Status = 304
	StatusTemporaryRedirect Status = 307
	StatusPermanentRedirect Status = 308

	StatusBadRequest        Status = 400
	StatusUnauthorized      Status = 401
	StatusForbidden         Status = 403
	StatusNotFound          Status = 404
	StatusMethodNotAllowed  Status = 405
	StatusConflict          Status = 409
	StatusGone              Status = 410
	StatusLengthRequired    Status = 411
	StatusPayloadTooLarge   Status = 413
	StatusURITooLong        Status = 414
	StatusUnsupportedMedia  Status = 415
	StatusTooManyRequests   Status = 429

	StatusInternalServerError Status = 500
	StatusNotImplemented      Status = 501
	StatusBadGateway          Status = 502
	StatusServiceUnavailable  Status = 503
	StatusGatewayTimeout      Status = 504
)

var statusReasons = map[Status]string{
	StatusContinue:            "Continue",
	StatusSwitchingProtocols:  "Switching Protocols",
	StatusOK:                  "OK",
	StatusCreated:             "Created",
	StatusAccepted:            "Accepted",
	StatusNotModifiedAsserted: "Non-Authoritative Information",
	StatusNoContent:           "No Content",
	StatusMultipleChoices:     "Multiple Choices",
	StatusMovedPermanently:    "Moved Permanently",
	StatusFound:               "Found",
	StatusSeeOther:            "See Other",
	StatusNotModified:         "Not Modified",
	StatusTemporaryRedirect:   "Temporary Redirect",
	StatusPermanentRedirect:   "Permanent Redirect",
	StatusBadRequest:          "Bad Request",
	StatusUnauthorized:        "Unauthorized",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusConflict:            "Conflict",
	StatusGone:                "Gone",
	StatusLengthRequired:      "Length Required",
	StatusPayloadTooLarge:     "Payload Too Large",
	StatusURITooLong:          "URI Too Long",
	StatusUnsupportedMedia:    "Unsupported Media Type",
	StatusTooManyRequests:     "Too Many Requests",
	StatusInternalServerError: "Internal Server Error",
	StatusNotImplemented:      "Not Implemented",
	StatusBadGateway:          "Bad Gateway",
	StatusServiceUnavailable:  "Service Unavailable",
	StatusGatewayTimeout:      "Gateway Timeout",
}

// Reason returns the canonical reason phrase, or "" if unrecognized.
func (s Status) Reason() string { return statusReasons[s] }

// ParseStatus maps a wire numeric code to a Status, StatusUnknown if the
// code is not one of the recognized values.
func ParseStatus(code int) Status {
	s := Status(code)
	if _, ok := statusReasons[s]; ok {
		return s
	}
	return StatusUnknown
}

// Header is an ordered, case-insensitively-matched header collection that
// preserves original casing for each stored name.
type Header struct {
	entries []headerEntry
}

type headerEntry struct {
	name  string
	value string
}

// Add appends a header, preserving name casing.
func (h *Header) Add(name, value string) {
	h.entries = append(h.entries, headerEntry{name: name, value: value})
}

// Set replaces all existing values for name (case-insensitive) with value.
func (h *Header) Set(name, value string) {
	h.Del(name)
	h.Add(name, value)
}

// Get returns the first value stored under name, matched case-insensitively.
func (h *Header) Get(name string) (string, bool) {
	for _, e := range h.entries {
		if equalFold(e.name, name) {
			return e.value, true
		}
	}
	return "", false
}

// Values returns every value stored under name, in insertion order.
func (h *Header) Values(name string) []string {
	var out []string
	for _, e := range h.entries {
		if equalFold(e.name, name) {
			out = append(out, e.value)
		}
	}
	return out
}

// Del removes every entry stored under name.
func (h *Header) Del(name string) {
	out := h.entries[:0]
	for _, e := range h.entries {
		if !equalFold(e.name, name) {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Len reports the number of stored entries.
func (h *Header) Len() int { return len(h.entries) }

// Range calls fn for every stored entry in insertion order.
func (h *Header) Range(fn func(name, value string)) {
	for _, e := range h.entries {
		fn(e.name, e.value)
	}
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Request is an HTTP/1.1 request message. Target is preserved exactly as
// received (or as set by the caller on the client side) — the server does
// not canonicalize it.
type Request struct {
	Method  Method
	Target  string
	Version int // 10 or 11
	Headers Header
	Body    []byte
}

// Response is an HTTP/1.1 response message.
type Response struct {
	Status  Status
	Version int
	Headers Header
	Body    []byte
}

func versionString(v int) string {
	if v == 10 {
		return "HTTP/1.0"
	}
	return "HTTP/1.1"
}

func formatStatusLine(version int, status Status, reason string) string {
	if reason == "" {
		reason = "Unknown"
	}
	return versionString(version) + " " + strconv.Itoa(int(status)) + " " + reason + "\r\n"
}
