package wsutil

import (
	"io"

	"github.com/gobwas/pool/pbytes"

	"github.com/gobwas/wsframe"
)

const defaultWriteBuffer = 4096

// Writer buffers written bytes and sends them as frames of a single
// fragmented message. First frame carries the message operation code, the
// rest are continuation frames. Flush() finishes the message with a final
// frame.
//
// Writer masks frames when its state is client side.
type Writer struct {
	dest  io.Writer
	buf   []byte
	n     int
	state wsframe.State
	op    wsframe.OpCode

	dirty  bool
	frames int
}

// NewWriter creates Writer with default buffer size.
func NewWriter(dest io.Writer, s wsframe.State, op wsframe.OpCode) *Writer {
	return NewWriterSize(dest, s, op, 0)
}

// NewWriterSize creates Writer with buffer of n bytes. Thus, n is the payload
// size of every non-final frame.
func NewWriterSize(dest io.Writer, s wsframe.State, op wsframe.OpCode, n int) *Writer {
	if n <= 0 {
		n = defaultWriteBuffer
	}
	return &Writer{
		dest:  dest,
		buf:   make([]byte, n),
		state: s,
		op:    op,
	}
}

// Reset resets Writer to write next message with given operation code.
func (w *Writer) Reset(dest io.Writer, op wsframe.OpCode) {
	w.dest = dest
	w.op = op
	w.n = 0
	w.dirty = false
	w.frames = 0
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (n int, err error) {
	// Even if len(p) == 0 we mark w as dirty,
	// cause even empty p (and empty frame) may have a value.
	w.dirty = true

	for {
		nn := copy(w.buf[w.n:], p)
		p = p[nn:]
		w.n += nn
		n += nn

		if len(p) == 0 {
			break
		}

		if err = w.writeFrame(w.buf, false); err != nil {
			break
		}
		w.n = 0
	}
	return
}

// Flush writes buffered bytes as the final frame of the message.
func (w *Writer) Flush() error {
	if w.n == 0 && !w.dirty {
		return nil
	}
	err := w.writeFrame(w.buf[:w.n], true)
	w.n = 0
	w.dirty = false
	w.frames = 0
	return err
}

func (w *Writer) opCode() wsframe.OpCode {
	if w.frames > 0 {
		return wsframe.OpContinuation
	}
	return w.op
}

func (w *Writer) writeFrame(p []byte, fin bool) error {
	f := wsframe.NewFrame(w.opCode(), fin, p)
	if w.state.Is(wsframe.StateClientSide) {
		f.Header.Masked = true
		f.Header.Mask = wsframe.NewMask()

		payload := pbytes.GetLen(len(p))
		defer pbytes.Put(payload)

		copy(payload, p)
		wsframe.Cipher(payload, f.Header.Mask, 0)
		f.Payload = payload
	}
	w.frames++
	return wsframe.WriteFrame(w.dest, f)
}
