package wsutil

import (
	"io"

	"github.com/gobwas/pool/pbytes"

	"github.com/gobwas/wsframe"
)

// DefaultChunkSize is the maximum size of a single read from the Reader's
// source.
const DefaultChunkSize = 4096

// Reader is a wrapper around source io.Reader which represents WebSocket
// connection. It feeds bytes from the source to the Parser and returns decoded
// events one by one.
//
// Reader never reads beyond the end of the current frame, so the source may
// be shared with other readers between the events.
//
// Note that Reader's methods are not goroutine safe.
type Reader struct {
	Source io.Reader
	Parser *wsframe.Parser

	// ChunkSize limits the size of a single read from Source. Zero means
	// DefaultChunkSize.
	ChunkSize int

	err error // Deferred Source error.
}

// NewReader creates new event reader that reads from r keeping given state to
// make some protocol validity checks when it needed.
func NewReader(r io.Reader, s wsframe.State) *Reader {
	return &Reader{
		Source: r,
		Parser: wsframe.NewParser(s),
	}
}

// NewClientSideReader is a helper function that calls NewReader with r and
// wsframe.StateClientSide.
func NewClientSideReader(r io.Reader) *Reader {
	return NewReader(r, wsframe.StateClientSide)
}

// NewServerSideReader is a helper function that calls NewReader with r and
// wsframe.StateServerSide.
func NewServerSideReader(r io.Reader) *Reader {
	return NewReader(r, wsframe.StateServerSide)
}

// NextEvent blocks until next event is decoded from the source.
//
// The error is io.EOF only if the source ended right at the frame boundary
// and no fragmented message is pending. If source ends in the middle of a
// frame or a message NextEvent() returns io.ErrUnexpectedEOF. Protocol
// violations are returned as *wsframe.ProtocolError.
func (r *Reader) NextEvent() (e wsframe.Event, err error) {
	if r.Parser == nil {
		r.Parser = wsframe.NewParser(0)
	}
	for {
		if e, ok := r.Parser.Next(); ok {
			return e, nil
		}
		if err = r.Parser.Err(); err != nil {
			return e, err
		}
		if err = r.fill(); err != nil {
			return e, err
		}
	}
}

func (r *Reader) fill() error {
	if r.err != nil {
		return r.eofError(r.err)
	}

	n := r.ChunkSize
	if n <= 0 {
		n = DefaultChunkSize
	}
	if want := r.Parser.Want(); want < n {
		n = want
	}
	buf := pbytes.GetLen(n)
	defer pbytes.Put(buf)

	m, err := r.Source.Read(buf)
	if m > 0 {
		// Parser copies data, so buf can be reused. Parser error is reported
		// by NextEvent() after the events decoded before it.
		r.Parser.Write(buf[:m])
		r.err = err
		return nil
	}
	if err == nil {
		return nil
	}
	r.err = err
	return r.eofError(err)
}

func (r *Reader) eofError(err error) error {
	if err == io.EOF && r.Parser.InProgress() {
		return io.ErrUnexpectedEOF
	}
	return err
}
