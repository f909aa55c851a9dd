package wsframe

import "io"

const (
	bit0 = 0x80
	bit1 = 0x40
	bit2 = 0x20
	bit3 = 0x10
	bit4 = 0x08
	bit5 = 0x04
	bit6 = 0x02
	bit7 = 0x01
)

// HeaderSize returns number of bytes that are needed to encode given header.
// It returns -1 if header is malformed.
func HeaderSize(h Header) (n int) {
	if h.Length < 0 || h.Length > len64 {
		return -1
	}
	n = MinHeaderSize + LengthClassOf(h.Length).ExtendedSize()
	if h.Masked {
		n += 4
	}
	return n
}

// PutHeader encodes h into p and returns number of bytes written. p must be
// at least HeaderSize(h) bytes long; MaxHeaderSize is always enough.
//
// Layout is [first byte][second byte][extended length][mask key].
func PutHeader(p []byte, h Header) int {
	var b0 byte
	if h.Fin {
		b0 |= bit0
	}
	b0 |= h.Rsv << 4
	b0 |= byte(h.OpCode) & 0x0f

	b1 := lengthMarker(h.Length)
	if h.Masked {
		b1 |= bit0
	}

	p[0] = b0
	p[1] = b1
	n := 2
	n += putExtendedLength(p[n:], LengthClassOf(h.Length), h.Length)
	if h.Masked {
		n += copy(p[n:], h.Mask[:])
	}
	return n
}

// WriteHeader writes header binary representation into w.
func WriteHeader(w io.Writer, h Header) error {
	if HeaderSize(h) == -1 {
		return ErrHeaderLengthUnexpected
	}
	var bts [MaxHeaderSize]byte
	n := PutHeader(bts[:], h)
	_, err := w.Write(bts[:n])
	return err
}

// WriteFrame writes frame binary representation into w.
func WriteFrame(w io.Writer, f Frame) error {
	err := WriteHeader(w, f.Header)
	if err != nil {
		return err
	}
	if len(f.Payload) == 0 {
		return nil
	}
	_, err = w.Write(f.Payload)
	return err
}
