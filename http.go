package wsframe

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strconv"
)

const (
	textErrorContent = "Content-Type: text/plain; charset=utf-8\r\nX-Content-Type-Options: nosniff\r\n"
	crlf             = "\r\n"
	colonAndSpace    = ": "
)

// Header names in the form produced by canonicalizeHeaderKey().
const (
	headerHost       = "Host"
	headerUpgrade    = "Upgrade"
	headerConnection = "Connection"
	headerSecVersion = "Sec-Websocket-Version"
	headerSecKey     = "Sec-Websocket-Key"
	headerSecAccept  = "Sec-Websocket-Accept"
)

// Header names as they are written on the wire.
const (
	headerHostCanonical       = "Host"
	headerUpgradeCanonical    = "Upgrade"
	headerConnectionCanonical = "Connection"
	headerSecVersionCanonical = "Sec-WebSocket-Version"
	headerSecKeyCanonical     = "Sec-WebSocket-Key"
	headerSecAcceptCanonical  = "Sec-WebSocket-Accept"
)

var (
	httpVersion1_0    = []byte("HTTP/1.0")
	httpVersion1_1    = []byte("HTTP/1.1")
	httpVersionPrefix = []byte("HTTP/")
)

type httpRequestLine struct {
	method, uri  []byte
	major, minor int
}

// httpParseRequestLine parses http request line like "GET / HTTP/1.0".
func httpParseRequestLine(line []byte) (req httpRequestLine, err error) {
	var proto []byte
	req.method, req.uri, proto = bsplit3(line, ' ')

	var ok bool
	req.major, req.minor, ok = httpParseVersion(proto)
	if !ok {
		err = ErrMalformedRequest
		return
	}

	return
}

// httpParseVersion parses major and minor version of HTTP protocol. It returns
// parsed values and true if parse is ok.
func httpParseVersion(bts []byte) (major, minor int, ok bool) {
	switch {
	case bytes.Equal(bts, httpVersion1_0):
		return 1, 0, true
	case bytes.Equal(bts, httpVersion1_1):
		return 1, 1, true
	case len(bts) < 8:
		return
	case !bytes.Equal(bts[:5], httpVersionPrefix):
		return
	}

	bts = bts[5:]

	dot := bytes.IndexByte(bts, '.')
	if dot == -1 {
		return
	}
	var err error
	major, err = asciiToInt(bts[:dot])
	if err != nil {
		return
	}
	minor, err = asciiToInt(bts[dot+1:])
	if err != nil {
		return
	}

	return major, minor, true
}

// httpParseHeaderLine parses HTTP header as key-value pair. It returns parsed
// values and true if parse is ok.
func httpParseHeaderLine(line []byte) (k, v []byte, ok bool) {
	colon := bytes.IndexByte(line, ':')
	if colon == -1 {
		return
	}

	k = btrim(line[:colon])
	canonicalizeHeaderKey(k)

	v = btrim(line[colon+1:])

	return k, v, true
}

// maxLineSize limits the length of request line and of every header line.
const maxLineSize = 8192

// readLine reads line from br without trailing CRLF. The returned slice is
// not retained by br. Lines longer than maxLineSize are reported as
// ErrMalformedRequest.
func readLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		bts, err := br.ReadSlice('\n')
		line = append(line, bts...)
		if len(line) > maxLineSize+2 {
			return nil, ErrMalformedRequest
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		line = line[:len(line)-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		return line, nil
	}
}

func httpWriteHeader(bw *bufio.Writer, key, value string) {
	bw.WriteString(key)
	bw.WriteString(colonAndSpace)
	bw.WriteString(value)
	bw.WriteString(crlf)
}

func httpWriteStatusLine(bw *bufio.Writer, code int) {
	bw.WriteString("HTTP/1.1 ")
	bw.WriteString(strconv.Itoa(code))
	bw.WriteByte(' ')
	bw.WriteString(http.StatusText(code))
	bw.WriteString(crlf)
}

func httpWriteResponseError(bw *bufio.Writer, err error, code int, hw func(*bufio.Writer)) {
	httpWriteStatusLine(bw, code)
	bw.WriteString(textErrorContent)
	if hw != nil {
		hw(bw)
	}
	body := err.Error()
	httpWriteHeader(bw, "Content-Length", strconv.Itoa(len(body)))
	bw.WriteString(crlf)
	bw.WriteString(body)
}
