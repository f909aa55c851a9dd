package wsframe

import (
	"io"
	"unicode/utf8"

	"github.com/gobwas/pool/pbytes"
)

// Message is a single frame ready to be sent. It is built from a typed
// payload and encoded with Bytes(), AppendTo() or WriteTo().
//
// FIN bit is set for every operation code except OpContinuation. To send a
// fragmented message, encode the leading pieces as continuation messages and
// the last piece with its real type.
type Message struct {
	OpCode  OpCode
	Payload []byte
	Masked  bool
	Key     [4]byte // Mask key, valid if Masked is true.
}

// NewMessage creates message with given operation code and payload.
// Note that p is left as is in the returned message without copying, so
// copies of the message share it.
func NewMessage(op OpCode, p []byte) Message {
	return Message{
		OpCode:  op,
		Payload: p,
	}
}

// NewTextMessage creates text message with s as payload.
// Note that the s is copied in the returned message payload.
func NewTextMessage(s string) Message {
	return NewMessage(OpText, []byte(s))
}

// NewBinaryMessage creates binary message with p as payload.
func NewBinaryMessage(p []byte) Message {
	return NewMessage(OpBinary, p)
}

// NewContinuationMessage creates non-final fragment with p as payload.
func NewContinuationMessage(p []byte) Message {
	return NewMessage(OpContinuation, p)
}

// NewPingMessage creates ping message with p as payload.
func NewPingMessage(p []byte) Message {
	return NewMessage(OpPing, p)
}

// NewPongMessage creates pong message with p as payload.
func NewPongMessage(p []byte) Message {
	return NewMessage(OpPong, p)
}

// NewCloseMessage creates close message. Zero code means that no status code
// is sent; in that case the reason must be empty too, otherwise
// ErrCloseReasonWithoutCode is returned. Reason must be valid UTF-8.
func NewCloseMessage(code StatusCode, reason string) (Message, error) {
	if code.Empty() {
		if reason != "" {
			return Message{}, ErrCloseReasonWithoutCode
		}
		return NewMessage(OpClose, nil), nil
	}
	if 2+len(reason) > MaxControlFramePayloadSize {
		return Message{}, ErrControlPayloadOverflow
	}
	if !utf8.ValidString(reason) {
		return Message{}, ErrCloseReasonNotUTF8
	}
	return NewMessage(OpClose, NewCloseFrameBody(code, reason)), nil
}

// Mask masks message payload with a random key.
// Note that it copies the payload, so the slice given to a constructor stays
// untouched. Use MaskInPlace to avoid the copy.
func (m *Message) Mask() error {
	return m.MaskWith(NewMask())
}

// MaskWith masks message payload with given key. Masking is done exactly
// once: ErrMessageMasked is returned if the message is already masked, and
// the message is left unchanged.
// Note that it copies the payload before ciphering.
func (m *Message) MaskWith(key [4]byte) error {
	if m.Masked {
		return ErrMessageMasked
	}
	p := make([]byte, len(m.Payload))
	copy(p, m.Payload)
	m.Payload = p
	return m.MaskInPlaceWith(key)
}

// MaskInPlace masks message payload with a random key.
// Note that it applies xor cipher to m.Payload without copying, that is, it
// modifies the slice given to a constructor.
func (m *Message) MaskInPlace() error {
	return m.MaskInPlaceWith(NewMask())
}

// MaskInPlaceWith is like MaskInPlace but uses given key.
func (m *Message) MaskInPlaceWith(key [4]byte) error {
	if m.Masked {
		return ErrMessageMasked
	}
	m.Masked = true
	m.Key = key
	Cipher(m.Payload, key, 0)
	return nil
}

// Header returns frame header of the message.
func (m Message) Header() Header {
	return Header{
		Fin:    m.OpCode != OpContinuation,
		OpCode: m.OpCode,
		Length: int64(len(m.Payload)),
		Masked: m.Masked,
		Mask:   m.Key,
	}
}

// Frame returns the message as a frame.
func (m Message) Frame() Frame {
	return Frame{m.Header(), m.Payload}
}

// Size returns the number of bytes of the encoded message.
func (m Message) Size() int {
	return HeaderSize(m.Header()) + len(m.Payload)
}

// AppendTo appends encoded message to dst and returns the extended slice.
func (m Message) AppendTo(dst []byte) []byte {
	var hdr [MaxHeaderSize]byte
	n := PutHeader(hdr[:], m.Header())
	dst = append(dst, hdr[:n]...)
	return append(dst, m.Payload...)
}

// Bytes returns encoded message.
func (m Message) Bytes() []byte {
	return m.AppendTo(make([]byte, 0, m.Size()))
}

// WriteTo writes encoded message to w within single Write() call.
func (m Message) WriteTo(w io.Writer) (int64, error) {
	bts := pbytes.GetCap(m.Size())
	defer pbytes.Put(bts)

	bts = m.AppendTo(bts)
	n, err := w.Write(bts)
	return int64(n), err
}

// CloseData returns status code, its symbolic meaning and the reason carried
// by close message. If message was masked, the payload is unmasked first.
func (m Message) CloseData() (StatusCode, CloseStatus, string) {
	p := m.Payload
	if m.Masked {
		p = Unmask(p, m.Key)
	}
	code, reason := ParseCloseFrameData(p)
	return code, code.CloseStatus(), reason
}
