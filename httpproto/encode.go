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

package httpproto

import (
	"strconv"
	"strings"
)

// EncodeRequest renders req as wire bytes. Content-Length is added
// automatically when the caller has not already set a framing header.
func EncodeRequest(req *Request) []byte {
	var b strings.Builder
	method := req.Method.String()
	if method == "" {
		method = "GET"
	}
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(req.Target)
	b.WriteByte(' ')
	b.WriteString(versionString(req.Version))
	b.WriteString("\r\n")

	headers := req.Headers
	ensureFraming(&headers, len(req.Body))
	writeHeaders(&b, headers)
	b.WriteString("\r\n")
	b.Write(req.Body)
	return []byte(b.String())
}

// EncodeResponse renders resp as wire bytes.
func EncodeResponse(resp *Response) []byte {
	var b strings.Builder
	b.WriteString(formatStatusLine(resp.Version, resp.Status, resp.Status.Reason()))

	headers := resp.Headers
	ensureFraming(&headers, len(resp.Body))
	writeHeaders(&b, headers)
	b.WriteString("\r\n")
	b.Write(resp.Body)
	return []byte(b.String())
}

func ensureFraming(h *Header, bodyLen int) {
	if _, ok := h.Get("Content-Length"); ok {
		return
	}
	if _, ok := h.Get("Transfer-Encoding"); ok {
		return
	}
	h.Set("Content-Length", strconv.Itoa(bodyLen))
}

func writeHeaders(b *strings.Builder, h Header) {
	h.Range(func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	})
}
