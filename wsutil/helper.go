package wsutil

import (
	"io"

	"github.com/gobwas/pool/pbytes"

	"github.com/gobwas/wsframe"
)

// Message represents a message from peer, that could be presented in one or
// more frames. That is, it contains payload of all message fragments and
// operation code of the message.
type Message struct {
	OpCode  wsframe.OpCode
	Payload []byte
}

// ReadMessage is a helper function that reads next data message from r. It
// returns control messages received before the data message followed by the
// data message itself. That is, it probably could receive more than one
// message when peer sends fragmented message and some control frames between
// fragments.
//
// If peer sent close frame, it is returned as the last message without
// waiting for a data message.
func ReadMessage(r io.Reader, s wsframe.State) ([]Message, error) {
	var (
		m  []Message
		rd = NewReader(r, s)
	)
	for {
		e, err := rd.NextEvent()
		if err != nil {
			return m, err
		}
		m = append(m, Message{e.OpCode, e.Payload})
		if !e.IsControl() || e.OpCode == wsframe.OpClose {
			return m, nil
		}
	}
}

// ReadClientMessage reads next message from r, considering that caller
// represents server side.
// It is a shortcut for ReadMessage(r, wsframe.StateServerSide).
func ReadClientMessage(r io.Reader) ([]Message, error) {
	return ReadMessage(r, wsframe.StateServerSide)
}

// ReadServerMessage reads next message from r, considering that caller
// represents client side.
// It is a shortcut for ReadMessage(r, wsframe.StateClientSide).
func ReadServerMessage(r io.Reader) ([]Message, error) {
	return ReadMessage(r, wsframe.StateClientSide)
}

// ReadData is a helper function that reads next data (non-control) message
// from rw.
// It takes care on handling all control frames. It will write response on
// control frames to the write part of rw. It blocks until some data frame
// will be received. If peer closes the connection, ClosedError is returned.
func ReadData(rw io.ReadWriter, s wsframe.State) ([]byte, wsframe.OpCode, error) {
	var (
		rd = NewReader(rw, s)
		cr = ControlResponder(rw, s)
	)
	for {
		e, err := rd.NextEvent()
		if err != nil {
			return nil, 0, err
		}
		if e.IsControl() {
			if err := cr(e); err != nil {
				return nil, 0, err
			}
			continue
		}
		return e.Payload, e.OpCode, nil
	}
}

// ReadClientData reads next data message from rw, considering that caller
// represents server side. It is a shortcut for ReadData(rw, wsframe.StateServerSide).
func ReadClientData(rw io.ReadWriter) ([]byte, wsframe.OpCode, error) {
	return ReadData(rw, wsframe.StateServerSide)
}

// ReadServerData reads next data message from rw, considering that caller
// represents client side. It is a shortcut for ReadData(rw, wsframe.StateClientSide).
func ReadServerData(rw io.ReadWriter) ([]byte, wsframe.OpCode, error) {
	return ReadData(rw, wsframe.StateClientSide)
}

// WriteMessage is a helper function that writes message to the w. It
// constructs single frame with given operation code and payload.
// It uses given state to prepare side-dependent things, like cipher
// payload bytes from client to server. It will not mutate p bytes if
// cipher must be made.
//
// If you want to write message in fragmented frames, use Writer instead.
func WriteMessage(w io.Writer, s wsframe.State, op wsframe.OpCode, p []byte) error {
	m := wsframe.NewMessage(op, p)
	if s.Is(wsframe.StateClientSide) {
		buf := pbytes.GetLen(len(p))
		defer pbytes.Put(buf)

		copy(buf, p)
		m.Payload = buf
		if err := m.MaskInPlace(); err != nil {
			return err
		}
	}
	_, err := m.WriteTo(w)
	return err
}

// WriteServerMessage writes message to w, considering that caller
// represents server side.
func WriteServerMessage(w io.Writer, op wsframe.OpCode, p []byte) error {
	return WriteMessage(w, wsframe.StateServerSide, op, p)
}

// WriteServerText is the same as WriteServerMessage with
// wsframe.OpText.
func WriteServerText(w io.Writer, p []byte) error {
	return WriteServerMessage(w, wsframe.OpText, p)
}

// WriteServerBinary is the same as WriteServerMessage with
// wsframe.OpBinary.
func WriteServerBinary(w io.Writer, p []byte) error {
	return WriteServerMessage(w, wsframe.OpBinary, p)
}

// WriteClientMessage writes message to w, considering that caller
// represents client side.
func WriteClientMessage(w io.Writer, op wsframe.OpCode, p []byte) error {
	return WriteMessage(w, wsframe.StateClientSide, op, p)
}

// WriteClientText is the same as WriteClientMessage with
// wsframe.OpText.
func WriteClientText(w io.Writer, p []byte) error {
	return WriteClientMessage(w, wsframe.OpText, p)
}

// WriteClientBinary is the same as WriteClientMessage with
// wsframe.OpBinary.
func WriteClientBinary(w io.Writer, p []byte) error {
	return WriteClientMessage(w, wsframe.OpBinary, p)
}
