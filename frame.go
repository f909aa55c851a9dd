package wsframe

import (
	"bytes"
	"encoding/binary"
	"strconv"
)

// Constants defined by RFC 6455.
const (
	// All control frames MUST have a payload length of 125 bytes or less and MUST NOT be fragmented.
	MaxControlFramePayloadSize = 125

	// MaxHeaderSize is the size of the largest possible frame header: two
	// fixed bytes, 8 bytes of extended length and 4 bytes of mask key.
	MaxHeaderSize = 14
	// MinHeaderSize is the size of the smallest possible frame header.
	MinHeaderSize = 2
)

// OpCode represents operation code.
type OpCode byte

// Operation codes defined by RFC 6455.
// See https://tools.ietf.org/html/rfc6455#section-5.2
const (
	OpContinuation OpCode = 0x0
	OpText         OpCode = 0x1
	OpBinary       OpCode = 0x2
	OpClose        OpCode = 0x8
	OpPing         OpCode = 0x9
	OpPong         OpCode = 0xa
)

// IsControl checks whether the c is control operation code.
// See https://tools.ietf.org/html/rfc6455#section-5.5
func (c OpCode) IsControl() bool {
	// RFC6455: Control frames are identified by opcodes where
	// the most significant bit of the opcode is 1.
	//
	// Note that OpCode is only 4 bit length.
	return c&0x8 != 0
}

// IsData checks whether the c is data operation code.
// See https://tools.ietf.org/html/rfc6455#section-5.6
func (c OpCode) IsData() bool {
	// RFC6455: Data frames (e.g., non-control frames) are identified by opcodes
	// where the most significant bit of the opcode is 0.
	//
	// Note that OpCode is only 4 bit length.
	return c&0x8 == 0
}

// IsReserved checks whether the c is reserved operation code.
// See https://tools.ietf.org/html/rfc6455#section-5.2
func (c OpCode) IsReserved() bool {
	// RFC6455:
	// %x3-7 are reserved for further non-control frames
	// %xB-F are reserved for further control frames
	return (0x3 <= c && c <= 0x7) || (0xb <= c && c <= 0xf)
}

func (c OpCode) String() string {
	switch c {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	}
	return "opcode(" + strconv.Itoa(int(c)) + ")"
}

// StatusCode represents the encoded reason for closure of websocket connection.
//
// There are few helper methods on StatusCode that help to find the RFC 6455
// range the code lies in.
//
// See https://tools.ietf.org/html/rfc6455#section-7.4
type StatusCode uint16

// StatusCodeRange describes range of StatusCode values.
type StatusCodeRange struct {
	Min, Max StatusCode
}

// Status code ranges defined by RFC 6455.
// See https://tools.ietf.org/html/rfc6455#section-7.4.2
var (
	StatusRangeNotInUse    = StatusCodeRange{0, 999}
	StatusRangeProtocol    = StatusCodeRange{1000, 2999}
	StatusRangeApplication = StatusCodeRange{3000, 3999}
	StatusRangePrivate     = StatusCodeRange{4000, 4999}
)

// Status codes defined by RFC 6455.
// See https://tools.ietf.org/html/rfc6455#section-7.4.1
const (
	StatusNormalClosure           StatusCode = 1000
	StatusGoingAway               StatusCode = 1001
	StatusProtocolError           StatusCode = 1002
	StatusUnsupportedData         StatusCode = 1003
	StatusNoMeaningYet            StatusCode = 1004
	StatusNoStatusRcvd            StatusCode = 1005
	StatusAbnormalClosure         StatusCode = 1006
	StatusInvalidFramePayloadData StatusCode = 1007
	StatusPolicyViolation         StatusCode = 1008
	StatusMessageTooBig           StatusCode = 1009
	StatusMandatoryExt            StatusCode = 1010
	StatusInternalServerError     StatusCode = 1011
	StatusTLSHandshake            StatusCode = 1015
)

// In reports whether the code is defined in given range.
func (s StatusCode) In(r StatusCodeRange) bool {
	return r.Min <= s && s <= r.Max
}

// Empty reports whether the code is empty.
// Empty code has no any meaning neither app level codes nor other.
// This method is useful just to check that code is golang default value 0.
func (s StatusCode) Empty() bool {
	return s == 0
}

// IsNotUsed reports whether the code is predefined in not used range.
func (s StatusCode) IsNotUsed() bool {
	return s.In(StatusRangeNotInUse)
}

// IsApplicationSpec reports whether the code should be defined by
// application, framework or libraries specification.
func (s StatusCode) IsApplicationSpec() bool {
	return s.In(StatusRangeApplication)
}

// IsPrivateSpec reports whether the code should be defined privately.
func (s StatusCode) IsPrivateSpec() bool {
	return s.In(StatusRangePrivate)
}

// IsProtocolSpec reports whether the code should be defined by RFC 6455.
func (s StatusCode) IsProtocolSpec() bool {
	return s.In(StatusRangeProtocol)
}

// IsProtocolDefined reports whether the code is defined by RFC 6455.
func (s StatusCode) IsProtocolDefined() bool {
	switch s {
	case StatusNormalClosure,
		StatusGoingAway,
		StatusProtocolError,
		StatusUnsupportedData,
		StatusNoStatusRcvd,
		StatusAbnormalClosure,
		StatusInvalidFramePayloadData,
		StatusPolicyViolation,
		StatusMessageTooBig,
		StatusMandatoryExt,
		StatusInternalServerError,
		StatusTLSHandshake:
		return true
	default:
		return false
	}
}

// IsProtocolReserved reports whether the code is reserved by RFC 6455 for
// local use only.
func (s StatusCode) IsProtocolReserved() bool {
	switch s {
	// RFC6455#7.4.1: 1005, 1006 and 1015 MUST NOT be set as a status code in
	// a Close control frame by an endpoint.
	case StatusNoStatusRcvd, StatusAbnormalClosure, StatusTLSHandshake:
		return true
	default:
		return false
	}
}

// IsSendable reports whether the code may be set in a close frame.
func (s StatusCode) IsSendable() bool {
	switch {
	case s.IsApplicationSpec(), s.IsPrivateSpec():
		return true
	case s.IsProtocolSpec():
		return s.IsProtocolDefined() && !s.IsProtocolReserved()
	default:
		return false
	}
}

// CloseStatus returns symbolic meaning of the code. Codes not listed in the
// close status table map to CloseNone.
func (s StatusCode) CloseStatus() CloseStatus {
	switch s {
	case StatusNormalClosure:
		return CloseNormalClosure
	case StatusGoingAway:
		return ClosePeerGoingAway
	case StatusProtocolError:
		return CloseProtocolError
	case StatusUnsupportedData:
		return CloseDataError
	case StatusInvalidFramePayloadData:
		return CloseDataNotConsistent
	case StatusPolicyViolation:
		return ClosePolicyViolation
	case StatusMessageTooBig:
		return CloseMessageTooBig
	case StatusMandatoryExt:
		return CloseExtensionRequired
	case StatusInternalServerError:
		return CloseUnexpectedCondition
	}
	return CloseNone
}

// CloseStatus is a symbolic name of a close status code.
type CloseStatus uint8

// Symbolic close statuses.
const (
	CloseNone CloseStatus = iota
	CloseNormalClosure
	ClosePeerGoingAway
	CloseProtocolError
	CloseDataError
	CloseDataNotConsistent
	ClosePolicyViolation
	CloseMessageTooBig
	CloseExtensionRequired
	CloseUnexpectedCondition
)

var closeStatusNames = [...]string{
	CloseNone:                "",
	CloseNormalClosure:       "normal_closure",
	ClosePeerGoingAway:       "peer_going_away",
	CloseProtocolError:       "protocol_error",
	CloseDataError:           "data_error",
	CloseDataNotConsistent:   "data_not_consistent",
	ClosePolicyViolation:     "policy_violation",
	CloseMessageTooBig:       "message_too_big",
	CloseExtensionRequired:   "extension_required",
	CloseUnexpectedCondition: "unexpected_condition",
}

// String returns the symbolic name, or an empty string for CloseNone.
func (c CloseStatus) String() string {
	if int(c) < len(closeStatusNames) {
		return closeStatusNames[c]
	}
	return ""
}

// Header represents websocket frame header.
// See https://tools.ietf.org/html/rfc6455#section-5.2
type Header struct {
	Fin    bool
	Rsv    byte
	OpCode OpCode
	Length int64
	Masked bool
	Mask   [4]byte
}

// Rsv creates rsv byte representation.
func Rsv(r1, r2, r3 bool) (rsv byte) {
	if r1 {
		rsv |= bit5
	}
	if r2 {
		rsv |= bit6
	}
	if r3 {
		rsv |= bit7
	}
	return rsv
}

// Frame represents websocket frame.
// See https://tools.ietf.org/html/rfc6455#section-5.2
type Frame struct {
	Header  Header
	Payload []byte
}

// NewFrame creates frame with given operation code,
// flag of completeness and payload bytes.
func NewFrame(op OpCode, fin bool, p []byte) Frame {
	return Frame{
		Header: Header{
			Fin:    fin,
			OpCode: op,
			Length: int64(len(p)),
		},
		Payload: p,
	}
}

// NewCloseFrameBody encodes a closure code and a reason into a binary
// representation. Code is written in network byte order.
//
// Note that it does not check the size of the resulting payload against the
// control frame limit.
func NewCloseFrameBody(code StatusCode, reason string) []byte {
	p := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(p, uint16(code))
	copy(p[2:], reason)
	return p
}

// ParseCloseFrameData parses close frame status code and closure reason if any provided.
// If there is no status code in the payload
// the empty status code is returned (code.Empty()) with empty string as a reason.
func ParseCloseFrameData(payload []byte) (code StatusCode, reason string) {
	if len(payload) < 2 {
		// We returning empty StatusCode here, preventing the situation
		// when endpoint really sent code 1005 and we should return ProtocolError on that.
		//
		// In other words, we ignoring this rule [RFC6455:7.1.5]:
		//   If this Close control frame contains no status code, _The WebSocket
		//   Connection Close Code_ is considered to be 1005.
		return
	}
	code = StatusCode(binary.BigEndian.Uint16(payload))
	reason = string(payload[2:])
	return
}

// CompileFrame returns byte representation of given frame.
// In terms of memory consumption it is useful to precompile static frames which are often used.
func CompileFrame(f Frame) (bts []byte, err error) {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize(f.Header)+len(f.Payload)))
	err = WriteFrame(buf, f)
	bts = buf.Bytes()
	return
}

// MustCompileFrame is like CompileFrame but panics if frame cannot be encoded.
func MustCompileFrame(f Frame) []byte {
	bts, err := CompileFrame(f)
	if err != nil {
		panic(err)
	}
	return bts
}
