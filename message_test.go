package wsframe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
)

func TestMessageBytes(t *testing.T) {
	for _, test := range []struct {
		label string
		msg   Message
		exp   []byte
	}{
		{
			label: "text",
			msg:   NewTextMessage("Hello"),
			exp:   []byte{0x81, 0x05, 0x48, 0x65, 0x6c, 0x6c, 0x6f},
		},
		{
			label: "ping",
			msg:   NewPingMessage([]byte("Hello")),
			exp:   []byte{0x89, 0x05, 0x48, 0x65, 0x6c, 0x6c, 0x6f},
		},
		{
			label: "empty-pong",
			msg:   NewPongMessage(nil),
			exp:   []byte{0x8a, 0x00},
		},
		{
			label: "continuation",
			msg:   NewContinuationMessage([]byte("ab")),
			exp:   []byte{0x00, 0x02, 'a', 'b'},
		},
		{
			label: "masked",
			msg: Message{
				OpCode:  OpText,
				Payload: []byte{0x7f, 0x9f, 0x4d, 0x51, 0x58},
				Masked:  true,
				Key:     [4]byte{0x37, 0xfa, 0x21, 0x3d},
			},
			exp: []byte{0x81, 0x85, 0x37, 0xfa, 0x21, 0x3d, 0x7f, 0x9f, 0x4d, 0x51, 0x58},
		},
	} {
		t.Run(test.label, func(t *testing.T) {
			if act := test.msg.Bytes(); !bytes.Equal(act, test.exp) {
				t.Errorf("Bytes() = %x; want %x", act, test.exp)
			}
			if n := test.msg.Size(); n != len(test.exp) {
				t.Errorf("Size() = %d; want %d", n, len(test.exp))
			}
			var buf bytes.Buffer
			n, err := test.msg.WriteTo(&buf)
			if err != nil {
				t.Fatal(err)
			}
			if n != int64(len(test.exp)) || !bytes.Equal(buf.Bytes(), test.exp) {
				t.Errorf("WriteTo() wrote %d bytes %x; want %x", n, buf.Bytes(), test.exp)
			}
		})
	}
}

func TestMessageLarge(t *testing.T) {
	text := strings.Repeat("All work and no play makes Jack a dull boy.\n\n", 1500)
	data := NewTextMessage(text).Bytes()

	// 2 bytes of header, 8 bytes of extended length and payload.
	if n := len(data); n != 2+8+len(text) {
		t.Fatalf("unexpected size %d; want %d", n, 2+8+len(text))
	}
	if data[0] != 0b10000001 {
		t.Errorf("first byte is %08b; want text frame with fin", data[0])
	}
	if data[1] != 0b01111111 {
		t.Errorf("second byte is %08b; want unmasked with length 127", data[1])
	}
	if n := binary.BigEndian.Uint64(data[2:10]); n != uint64(len(text)) {
		t.Errorf("extended length is %d; want %d", n, len(text))
	}
	if string(data[10:]) != text {
		t.Errorf("unexpected payload")
	}
}

func TestMessageMask(t *testing.T) {
	m := NewTextMessage("The man with the Iron Mask")
	if m.Masked {
		t.Fatalf("new message is masked")
	}
	if err := m.Mask(); err != nil {
		t.Fatal(err)
	}
	if !m.Masked {
		t.Fatalf("message is not masked after Mask()")
	}
	data := m.Bytes()
	if data[1]&bit0 == 0 {
		t.Errorf("mask bit is not set: %08b", data[1])
	}
	if !bytes.Equal(data[2:6], m.Key[:]) {
		t.Errorf("mask key is %x; want %x", data[2:6], m.Key)
	}
	if act := string(Unmask(data[6:], m.Key)); act != "The man with the Iron Mask" {
		t.Errorf("unmasked payload is %q", act)
	}
}

// Message must be masked exactly once; do not call Mask twice.
func TestMessageMaskTwice(t *testing.T) {
	m := NewTextMessage("Hello")
	if err := m.MaskWith([4]byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	before := m.Bytes()

	if err := m.Mask(); err != ErrMessageMasked {
		t.Fatalf("second Mask() error is %v; want %v", err, ErrMessageMasked)
	}
	if after := m.Bytes(); !bytes.Equal(before, after) {
		t.Errorf("second Mask() changed message: %x; was %x", after, before)
	}
}

func TestMessageMaskKeepsPayload(t *testing.T) {
	p := []byte("abcd")
	m := NewBinaryMessage(p)
	cp := m
	if err := m.MaskWith([4]byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if string(p) != "abcd" {
		t.Errorf("Mask() modified given payload: %q", p)
	}
	if cp.Masked || string(cp.Payload) != "abcd" {
		t.Errorf("Mask() modified message copy: %t %q", cp.Masked, cp.Payload)
	}
	if exp := []byte{'a' ^ 1, 'b' ^ 2, 'c' ^ 3, 'd' ^ 4}; !bytes.Equal(m.Payload, exp) {
		t.Errorf("masked payload is %x; want %x", m.Payload, exp)
	}
}

func TestMessageMaskInPlace(t *testing.T) {
	p := []byte("abcd")
	m := NewBinaryMessage(p)
	if err := m.MaskInPlaceWith([4]byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if exp := []byte{'a' ^ 1, 'b' ^ 2, 'c' ^ 3, 'd' ^ 4}; !bytes.Equal(p, exp) {
		t.Errorf("payload is %x; want %x", p, exp)
	}
	if err := m.MaskInPlace(); err != ErrMessageMasked {
		t.Errorf("second MaskInPlace() error is %v; want %v", err, ErrMessageMasked)
	}
}

func TestNewCloseMessage(t *testing.T) {
	m, err := NewCloseMessage(StatusGoingAway, "Bye")
	if err != nil {
		t.Fatal(err)
	}
	if exp := []byte{0x03, 0xe9, 'B', 'y', 'e'}; !bytes.Equal(m.Payload, exp) {
		t.Errorf("payload is %x; want %x", m.Payload, exp)
	}
	code, status, reason := m.CloseData()
	if code != StatusGoingAway || status != ClosePeerGoingAway || reason != "Bye" {
		t.Errorf("CloseData() = %d, %s, %q", code, status, reason)
	}

	m, err = NewCloseMessage(0, "")
	if err != nil {
		t.Fatal(err)
	}
	if exp := []byte{0x88, 0x00}; !bytes.Equal(m.Bytes(), exp) {
		t.Errorf("Bytes() = %x; want %x", m.Bytes(), exp)
	}
}

func TestNewCloseMessageErrors(t *testing.T) {
	if _, err := NewCloseMessage(0, "Bye"); err != ErrCloseReasonWithoutCode {
		t.Errorf("NewCloseMessage(0, %q) error is %v; want %v", "Bye", err, ErrCloseReasonWithoutCode)
	}
	if _, err := NewCloseMessage(StatusNormalClosure, strings.Repeat("x", 124)); err != ErrControlPayloadOverflow {
		t.Errorf("NewCloseMessage() with long reason error is %v; want %v", err, ErrControlPayloadOverflow)
	}
	if _, err := NewCloseMessage(StatusNormalClosure, "\xff\xfe"); err != ErrCloseReasonNotUTF8 {
		t.Errorf("NewCloseMessage() with invalid reason error is %v; want %v", err, ErrCloseReasonNotUTF8)
	}
}

func BenchmarkMessageWriteTo(b *testing.B) {
	for _, size := range []int{0, 125, 4096, 65536} {
		m := NewBinaryMessage(make([]byte, size))
		b.Run(fmt.Sprintf("%s-%d", LengthClassOf(int64(size)), size), func(b *testing.B) {
			var buf bytes.Buffer
			for i := 0; i < b.N; i++ {
				buf.Reset()
				if _, err := m.WriteTo(&buf); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
