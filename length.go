package wsframe

import "encoding/binary"

// LengthClass describes how payload length is represented on the wire.
// See https://tools.ietf.org/html/rfc6455#section-5.2
type LengthClass uint8

// Length classes.
const (
	// LengthSmall is a length stored right in the 7 bits of second byte.
	LengthSmall LengthClass = iota
	// LengthMedium is a length stored in 16-bit extended field (marker 126).
	LengthMedium
	// LengthLarge is a length stored in 64-bit extended field (marker 127).
	LengthLarge
)

const (
	len7  = int64(125)
	len16 = int64(^(uint16(0)))
	len64 = int64(^(uint64(0)) >> 1)

	lenMarker16 = 126
	lenMarker64 = 127
)

// LengthClassOf returns the minimal length class able to hold n.
func LengthClassOf(n int64) LengthClass {
	switch {
	case n <= len7:
		return LengthSmall
	case n <= len16:
		return LengthMedium
	default:
		return LengthLarge
	}
}

// lengthClassOfMarker returns class for 7-bit length field of the second
// header byte.
func lengthClassOfMarker(b byte) LengthClass {
	switch b {
	case lenMarker16:
		return LengthMedium
	case lenMarker64:
		return LengthLarge
	default:
		return LengthSmall
	}
}

// ExtendedSize returns number of bytes of extended payload length field.
func (c LengthClass) ExtendedSize() int {
	switch c {
	case LengthMedium:
		return 2
	case LengthLarge:
		return 8
	default:
		return 0
	}
}

func (c LengthClass) String() string {
	switch c {
	case LengthSmall:
		return "small"
	case LengthMedium:
		return "medium"
	case LengthLarge:
		return "large"
	}
	return "unknown"
}

// lengthMarker returns the 7-bit value for the second header byte.
func lengthMarker(n int64) byte {
	switch LengthClassOf(n) {
	case LengthMedium:
		return lenMarker16
	case LengthLarge:
		return lenMarker64
	default:
		return byte(n)
	}
}

// putExtendedLength writes n into p using c representation. It returns number
// of bytes written.
func putExtendedLength(p []byte, c LengthClass, n int64) int {
	switch c {
	case LengthMedium:
		binary.BigEndian.PutUint16(p, uint16(n))
		return 2
	case LengthLarge:
		binary.BigEndian.PutUint64(p, uint64(n))
		return 8
	}
	return 0
}

// ParseExtendedLength decodes extended payload length field of class c from
// p. Values that fit into a smaller class are rejected with
// ErrNonMinimalLength.
func ParseExtendedLength(c LengthClass, p []byte) (int64, error) {
	switch c {
	case LengthMedium:
		n := int64(binary.BigEndian.Uint16(p))
		if n <= len7 {
			return 0, ErrNonMinimalLength
		}
		return n, nil

	case LengthLarge:
		if p[0]&bit0 != 0 {
			return 0, ErrLengthMSB
		}
		n := int64(binary.BigEndian.Uint64(p))
		if n <= len16 {
			return 0, ErrNonMinimalLength
		}
		return n, nil
	}
	return 0, ErrHeaderLengthUnexpected
}
