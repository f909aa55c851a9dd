package wsframe

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gobwas/pool/pbufio"
)

// Errors used by the handshake collaborator.
var (
	ErrMalformedRequest       = fmt.Errorf("malformed HTTP request")
	ErrHandshakeBadMethod     = fmt.Errorf("handshake error: bad HTTP request method")
	ErrHandshakeBadProtocol   = fmt.Errorf("handshake error: bad HTTP request protocol version")
	ErrHandshakeBadUpgrade    = fmt.Errorf("handshake error: bad %q header", headerUpgradeCanonical)
	ErrHandshakeBadConnection = fmt.Errorf("handshake error: bad %q header", headerConnectionCanonical)
	ErrHandshakeBadSecKey     = fmt.Errorf("handshake error: bad %q header", headerSecKeyCanonical)
	ErrHandshakeBadSecVersion = fmt.Errorf("handshake error: bad %q header", headerSecVersionCanonical)
)

// Request holds the fields of an upgrade request that are consulted during
// WebSocket handshake. Zero Method and Major mean that request line is not
// known; such requests are checked by headers only.
type Request struct {
	Method       string
	URI          string
	Major, Minor int

	Host       string
	Upgrade    string
	Connection string
	SecKey     string
	SecVersion string
}

// RequestFromHTTP copies handshake fields from r.
func RequestFromHTTP(r *http.Request) Request {
	return Request{
		Method:     r.Method,
		URI:        r.RequestURI,
		Major:      r.ProtoMajor,
		Minor:      r.ProtoMinor,
		Host:       r.Host,
		Upgrade:    r.Header.Get(headerUpgrade),
		Connection: strings.Join(r.Header.Values(headerConnection), ", "),
		SecKey:     r.Header.Get(headerSecKey),
		SecVersion: r.Header.Get(headerSecVersion),
	}
}

// ReadRequest reads HTTP request line and headers from br. It stops right
// after the blank line, so the rest of br belongs to the frame stream.
func ReadRequest(br *bufio.Reader) (req Request, err error) {
	// Read HTTP request line like "GET /ws HTTP/1.1".
	rl, err := readLine(br)
	if err != nil {
		return
	}
	line, err := httpParseRequestLine(rl)
	if err != nil {
		return
	}
	req.Method = string(line.method)
	req.URI = string(line.uri)
	req.Major = line.major
	req.Minor = line.minor

	for {
		bts, e := readLine(br)
		if e != nil {
			err = e
			return
		}

		// Blank line, no more lines to read.
		if len(bts) == 0 {
			break
		}

		k, v, ok := httpParseHeaderLine(bts)
		if !ok {
			err = ErrMalformedRequest
			return
		}

		switch string(k) {
		case headerHost:
			req.Host = string(v)
		case headerUpgrade:
			req.Upgrade = string(v)
		case headerConnection:
			if req.Connection != "" {
				req.Connection += ", " + string(v)
			} else {
				req.Connection = string(v)
			}
		case headerSecKey:
			req.SecKey = string(v)
		case headerSecVersion:
			req.SecVersion = string(v)
		}
	}

	return req, nil
}

// Valid reports whether r asks for WebSocket upgrade: Upgrade is
// "websocket", Connection contains "upgrade" token (both case insensitive)
// and Sec-WebSocket-Version is 13.
func (r Request) Valid() bool {
	return strEqualFold(r.Upgrade, "websocket") &&
		strHasToken(r.Connection, "upgrade") &&
		r.SecVersion == "13"
}

// Check is like Valid but returns error describing the first failed
// requirement. It also checks request line when it is known and the
// Sec-WebSocket-Key presence.
func (r Request) Check() error {
	// See https://tools.ietf.org/html/rfc6455#section-4.1
	// The method of the request MUST be GET, and the HTTP version MUST be at least 1.1.
	switch {
	case r.Method != "" && r.Method != http.MethodGet:
		return ErrHandshakeBadMethod
	case r.Major != 0 && (r.Major < 1 || (r.Major == 1 && r.Minor < 1)):
		return ErrHandshakeBadProtocol
	case !strEqualFold(r.Upgrade, "websocket"):
		return ErrHandshakeBadUpgrade
	case !strHasToken(r.Connection, "upgrade"):
		return ErrHandshakeBadConnection
	case len(strings.TrimSpace(r.SecKey)) != nonceSize:
		return ErrHandshakeBadSecKey
	case r.SecVersion != "13":
		return ErrHandshakeBadSecVersion
	}
	return nil
}

// Accept returns the response which accepts the upgrade.
func (r Request) Accept() Response {
	return Response{
		StatusCode: http.StatusSwitchingProtocols,
		Upgrade:    "websocket",
		Connection: "Upgrade",
		Accept:     AcceptKey(r.SecKey),
	}
}

// Response holds the fields of an upgrade response.
type Response struct {
	StatusCode int
	Upgrade    string
	Connection string
	Accept     string
}

// WriteTo writes HTTP representation of r to w.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	cw := countWriter{w: w}
	bw := pbufio.GetWriter(&cw, 512)
	defer pbufio.PutWriter(bw)

	httpWriteStatusLine(bw, r.StatusCode)
	httpWriteHeader(bw, headerUpgradeCanonical, r.Upgrade)
	httpWriteHeader(bw, headerConnectionCanonical, r.Connection)
	httpWriteHeader(bw, headerSecAcceptCanonical, r.Accept)
	bw.WriteString(crlf)

	err := bw.Flush()
	return cw.n, err
}

// Upgrade reads upgrade request from br and writes response to w. On failure
// it responds with appropriate HTTP error and returns the reason.
//
// It is the caller's responsibility to read frames from br afterwards:
// br may already buffer the first bytes of the frame stream.
func Upgrade(br *bufio.Reader, w io.Writer) (Request, error) {
	bw := pbufio.GetWriter(w, 512)
	defer pbufio.PutWriter(bw)

	req, err := ReadRequest(br)
	if err == ErrMalformedRequest {
		httpWriteResponseError(bw, err, http.StatusBadRequest, nil)
		bw.Flush()
		return req, err
	}
	if err != nil {
		return req, err
	}

	if err = req.Check(); err != nil {
		code := http.StatusBadRequest
		var hw func(*bufio.Writer)
		if err == ErrHandshakeBadSecVersion {
			code = http.StatusUpgradeRequired
			hw = headerWriterSecVersion
		}
		httpWriteResponseError(bw, err, code, hw)
		bw.Flush()
		return req, err
	}

	if _, err = req.Accept().WriteTo(bw); err != nil {
		return req, err
	}
	return req, bw.Flush()
}

func headerWriterSecVersion(bw *bufio.Writer) {
	httpWriteHeader(bw, headerSecVersionCanonical, "13")
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
