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

	liberr "github.com/lhamowski/luxnet/errors"
)

// Kind selects which grammar (request-line vs status-line) the Parser
// expects on the wire.
type Kind uint8

const (
	RequestKind Kind = iota
	ResponseKind
)

type stage uint8

const (
	stageStartLine stage = iota
	stageHeaders
	stageBodyLength
	stageBodyChunkSize
	stageBodyChunkData
	stageBodyChunkCRLF
	stageBodyChunkTrailer
	stageDone
)

const maxStartLineLen = 8192
const maxHeaderLen = 8192
const maxHeaderCount = 100

// Parser incrementally decodes a stream of HTTP/1.1 messages fed in
// arbitrary-sized chunks. It never blocks: Feed always returns after
// consuming what it can from the bytes given to it, reporting one of
// "need more data" (call Feed again once more bytes arrive), a parse
// error (the connection must be torn down), or a complete message
// (OnMessage fires and the parser resets itself for the next message on
// the same connection, preserving any bytes beyond the message boundary
// from the same Feed call — pipelining is not supported beyond this:
// the caller must not invoke Feed again until handling OnMessage).
type Parser struct {
	kind Kind

	OnMessage func(req *Request, resp *Response)
	OnError   func(err error)

	buf   []byte
	stage stage

	method    Method
	target    string
	status    Status
	version   int
	headers   Header
	curLine   []byte
	bodyLen   int
	bodyRead  int
	body      []byte
	chunked   bool
	chunkSize int
}

// NewParser constructs a parser for the given message kind.
func NewParser(kind Kind) *Parser {
	return &Parser{kind: kind}
}

// Feed appends data to the sliding buffer and drives the state machine as
// far forward as the currently-buffered bytes allow.
func (p *Parser) Feed(data []byte) {
	p.buf = append(p.buf, data...)
	for {
		advanced, err := p.step()
		if err != nil {
			if p.OnError != nil {
				p.OnError(err)
			}
			p.resetConnection()
			return
		}
		if !advanced {
			return
		}
	}
}

// step attempts one state transition. It returns advanced=false when the
// buffer does not yet hold enough bytes to make progress (need more data).
func (p *Parser) step() (advanced bool, err error) {
	switch p.stage {
	case stageStartLine:
		return p.stepStartLine()
	case stageHeaders:
		return p.stepHeaders()
	case stageBodyLength:
		return p.stepBodyLength()
	case stageBodyChunkSize:
		return p.stepChunkSize()
	case stageBodyChunkData:
		return p.stepChunkData()
	case stageBodyChunkCRLF:
		return p.stepChunkCRLF()
	case stageBodyChunkTrailer:
		return p.stepChunkTrailer()
	default:
		return false, nil
	}
}

func (p *Parser) stepStartLine() (bool, error) {
	line, rest, found := cutLine(p.buf)
	if !found {
		if len(p.buf) > maxStartLineLen {
			return false, liberr.New(liberr.ErrParse, "start line too long")
		}
		return false, nil
	}
	p.buf = rest

	switch p.kind {
	case RequestKind:
		if err := p.parseRequestLine(line); err != nil {
			return false, err
		}
	case ResponseKind:
		if err := p.parseStatusLine(line); err != nil {
			return false, err
		}
	}
	p.headers = Header{}
	p.stage = stageHeaders
	return true, nil
}

func (p *Parser) parseRequestLine(line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return liberr.New(liberr.ErrParse, "malformed request line")
	}
	v, err := parseVersion(parts[2])
	if err != nil {
		return err
	}
	p.method = ParseMethod(parts[0])
	p.target = parts[1]
	p.version = v
	return nil
}

func (p *Parser) parseStatusLine(line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return liberr.New(liberr.ErrParse, "malformed status line")
	}
	v, err := parseVersion(parts[0])
	if err != nil {
		return err
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil || code < 100 || code > 599 {
		return liberr.New(liberr.ErrParse, "malformed status code")
	}
	p.status = ParseStatus(code)
	p.version = v
	return nil
}

func parseVersion(tok string) (int, error) {
	switch tok {
	case "HTTP/1.1":
		return 11, nil
	case "HTTP/1.0":
		return 10, nil
	default:
		return 0, liberr.New(liberr.ErrParse, "unsupported http version")
	}
}

func (p *Parser) stepHeaders() (bool, error) {
	line, rest, found := cutLine(p.buf)
	if !found {
		if len(p.buf) > maxHeaderLen {
			return false, liberr.New(liberr.ErrParse, "header line too long")
		}
		return false, nil
	}

	// Obsolete line folding: a continuation line starts with SP/HTAB.
	if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
		if p.headers.Len() == 0 {
			return false, liberr.New(liberr.ErrParse, "unexpected header continuation")
		}
		p.buf = rest
		last := p.headers.entries[len(p.headers.entries)-1]
		p.headers.entries[len(p.headers.entries)-1] = headerEntry{
			name:  last.name,
			value: last.value + " " + strings.TrimSpace(line),
		}
		return true, nil
	}

	if line == "" {
		p.buf = rest
		return true, p.finishHeaders()
	}

	name, value, ok := splitHeaderLine(line)
	if !ok {
		return false, liberr.New(liberr.ErrParse, "malformed header line")
	}
	if p.headers.Len() >= maxHeaderCount {
		return false, liberr.New(liberr.ErrParse, "too many headers")
	}
	p.headers.Add(name, value)
	p.buf = rest
	return true, nil
}

func splitHeaderLine(line string) (name, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", false
	}
	return line[:idx], strings.TrimSpace(line[idx+1:]), true
}

func (p *Parser) finishHeaders() error {
	if te, ok := p.headers.Get("Transfer-Encoding"); ok && strings.EqualFold(strings.TrimSpace(te), "chunked") {
		p.chunked = true
		p.stage = stageBodyChunkSize
		return nil
	}
	if cl, ok := p.headers.Get("Content-Length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return liberr.New(liberr.ErrParse, "malformed content-length")
		}
		p.bodyLen = n
		if n == 0 {
			return p.completeMessage()
		}
		p.body = make([]byte, 0, n)
		p.stage = stageBodyLength
		return nil
	}
	// No framing header: treat as a bodyless message. Both this client
	// and this server always set one of the two headers when a body is
	// present, so this only applies to GET/DELETE-style exchanges.
	return p.completeMessage()
}

func (p *Parser) stepBodyLength() (bool, error) {
	need := p.bodyLen - len(p.body)
	if need <= 0 {
		return true, p.completeMessage()
	}
	take := need
	if take > len(p.buf) {
		take = len(p.buf)
	}
	if take == 0 {
		return false, nil
	}
	p.body = append(p.body, p.buf[:take]...)
	p.buf = p.buf[take:]
	if len(p.body) == p.bodyLen {
		return true, p.completeMessage()
	}
	return true, nil
}

func (p *Parser) stepChunkSize() (bool, error) {
	line, rest, found := cutLine(p.buf)
	if !found {
		if len(p.buf) > maxHeaderLen {
			return false, liberr.New(liberr.ErrParse, "chunk size line too long")
		}
		return false, nil
	}
	p.buf = rest

	sizeTok := line
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		sizeTok = line[:idx]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(sizeTok), 16, 64)
	if err != nil || n < 0 {
		return false, liberr.New(liberr.ErrParse, "malformed chunk size")
	}
	p.chunkSize = int(n)
	if p.chunkSize == 0 {
		p.stage = stageBodyChunkTrailer
		return true, nil
	}
	p.stage = stageBodyChunkData
	return true, nil
}

func (p *Parser) stepChunkData() (bool, error) {
	take := p.chunkSize
	if take > len(p.buf) {
		take = len(p.buf)
	}
	if take == 0 && p.chunkSize != 0 {
		return false, nil
	}
	p.body = append(p.body, p.buf[:take]...)
	p.buf = p.buf[take:]
	p.chunkSize -= take
	if p.chunkSize == 0 {
		p.stage = stageBodyChunkCRLF
		return true, nil
	}
	return true, nil
}

func (p *Parser) stepChunkCRLF() (bool, error) {
	if len(p.buf) < 2 {
		return false, nil
	}
	if p.buf[0] != '\r' || p.buf[1] != '\n' {
		return false, liberr.New(liberr.ErrParse, "malformed chunk trailer crlf")
	}
	p.buf = p.buf[2:]
	p.stage = stageBodyChunkSize
	return true, nil
}

func (p *Parser) stepChunkTrailer() (bool, error) {
	line, rest, found := cutLine(p.buf)
	if !found {
		if len(p.buf) > maxHeaderLen {
			return false, liberr.New(liberr.ErrParse, "trailer line too long")
		}
		return false, nil
	}
	p.buf = rest
	if line == "" {
		return true, p.completeMessage()
	}
	// Trailing headers after the final chunk are accepted and discarded.
	return true, nil
}

func (p *Parser) completeMessage() error {
	body := p.body
	if body == nil {
		body = []byte{}
	}

	switch p.kind {
	case RequestKind:
		req := &Request{Method: p.method, Target: p.target, Version: p.version, Headers: p.headers, Body: body}
		if p.OnMessage != nil {
			p.OnMessage(req, nil)
		}
	case ResponseKind:
		resp := &Response{Status: p.status, Version: p.version, Headers: p.headers, Body: body}
		if p.OnMessage != nil {
			p.OnMessage(nil, resp)
		}
	}
	p.resetMessage()
	return nil
}

// resetMessage clears per-message state so the same Parser can decode the
// next message on a keep-alive connection, preserving any unconsumed
// bytes already in the sliding buffer.
func (p *Parser) resetMessage() {
	p.stage = stageStartLine
	p.method = MethodUnknown
	p.target = ""
	p.status = StatusUnknown
	p.version = 0
	p.headers = Header{}
	p.bodyLen = 0
	p.body = nil
	p.chunked = false
	p.chunkSize = 0
}

// resetConnection discards buffered bytes after a parse error — the
// connection is being torn down, so there is nothing left to decode.
func (p *Parser) resetConnection() {
	p.buf = nil
	p.resetMessage()
}

// cutLine finds a CRLF-terminated line at the start of buf, returning the
// line (without the CRLF) and the remainder. found is false if no
// terminator is present yet.
func cutLine(buf []byte) (line string, rest []byte, found bool) {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == '\r' && buf[i+1] == '\n' {
			return string(buf[:i]), buf[i+2:], true
		}
	}
	return "", buf, false
}
