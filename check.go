package wsframe

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// State represents state of websocket endpoint.
// It used by Parser to be more strict when checking compatibility with RFC6455.
type State uint8

const (
	// StateServerSide means that endpoint (caller) is a server.
	StateServerSide State = 0x1 << iota
	// StateClientSide means that endpoint (caller) is a client.
	StateClientSide
)

// Is checks whether the s has v enabled.
func (s State) Is(v State) bool {
	return uint8(s)&uint8(v) != 0
}

// Set enables v state on s.
func (s State) Set(v State) State {
	return s | v
}

// Clear disables v state on s.
func (s State) Clear(v State) State {
	return s & (^v)
}

// Errors returned by the frame decoder. They are always wrapped into
// *ProtocolError, so use errors.Is to match them.
var (
	ErrUnknownOpCode          = fmt.Errorf("use of reserved op code")
	ErrNonMinimalLength       = fmt.Errorf("payload length is not minimally encoded")
	ErrInvalidUTF8            = fmt.Errorf("invalid utf8 sequence")
	ErrFragmentedControl      = fmt.Errorf("control frame is not final")
	ErrControlPayloadOverflow = fmt.Errorf("control frame payload limit exceeded")
	ErrNonZeroRsv             = fmt.Errorf("non-zero rsv bits with no extension negotiated")
	ErrMaskRequired           = fmt.Errorf("frames from client to server must be masked")
	ErrMaskUnexpected         = fmt.Errorf("frames from server to client must be not masked")
	ErrUnexpectedDataFrame    = fmt.Errorf("unexpected non-continuation data frame")
	ErrUnexpectedContinuation = fmt.Errorf("unexpected continuation data frame")
	ErrInvalidCloseData       = fmt.Errorf("close frame payload is too short to hold status code")
	ErrPayloadTooBig          = fmt.Errorf("payload size limit exceeded")
	ErrLengthMSB              = fmt.Errorf("header error: the most significant bit must be 0")
	ErrHeaderLengthUnexpected = fmt.Errorf("header error: unexpected payload length bits")
)

// ErrStatusCodeNotSendable is reported for received close frame which status
// code must not appear on the wire. Parser does not return it: such codes are
// decoded as is and left to the caller.
var ErrStatusCodeNotSendable = fmt.Errorf("status code is not allowed in close frame")

// Errors returned by the encoder when it is used in a wrong way.
var (
	ErrCloseReasonWithoutCode = errors.New("close reason given without status code")
	ErrCloseReasonNotUTF8     = errors.New("close reason is not valid utf8")
	ErrMessageMasked          = errors.New("message is already masked")
)

// ProtocolError describes a protocol violation found by the Parser. Start and
// End hold the stream offsets of the frame that triggered the error: Start is
// the offset of its first header byte and End is the offset right after the
// last byte consumed when the violation was detected.
type ProtocolError struct {
	Err        error
	Start, End int64
}

func (e *ProtocolError) Error() string {
	return "ws protocol error: " + e.Err.Error() +
		" (bytes " + strconv.FormatInt(e.Start, 10) + "-" + strconv.FormatInt(e.End, 10) + ")"
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// CheckHeader checks h to contain valid header data for given state s.
//
// Note that zero state (0) means that state is clean, neither server or
// client side, so masking is not checked at all.
func CheckHeader(h Header, s State) error {
	if h.OpCode.IsReserved() {
		return ErrUnknownOpCode
	}
	if h.OpCode.IsControl() {
		if !h.Fin {
			return ErrFragmentedControl
		}
		if h.Length > MaxControlFramePayloadSize {
			return ErrControlPayloadOverflow
		}
	}

	switch {
	// [RFC6455]: MUST be 0 unless an extension is negotiated that defines meanings for
	// non-zero values. If a nonzero value is received and none of the
	// negotiated extensions defines the meaning of such a nonzero value, the
	// receiving endpoint MUST _Fail the WebSocket Connection_.
	case h.Rsv != 0:
		return ErrNonZeroRsv

	// [RFC6455]: The server MUST close the connection upon receiving a frame that is not masked.
	// A client MUST close a connection if it detects a masked frame.
	case s.Is(StateServerSide) && !h.Masked:
		return ErrMaskRequired
	case s.Is(StateClientSide) && h.Masked:
		return ErrMaskUnexpected
	}

	return nil
}

// CheckCloseFrameData checks received close payload. Empty payload is valid
// and means that no status code was sent.
func CheckCloseFrameData(p []byte) error {
	switch {
	case len(p) == 1:
		return ErrInvalidCloseData
	case len(p) > 2 && !utf8.Valid(p[2:]):
		return ErrInvalidUTF8
	}
	return nil
}
