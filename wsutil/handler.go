package wsutil

import (
	"errors"
	"io"
	"strconv"

	"github.com/gobwas/wsframe"
)

// ClosedError returned when peer has closed the connection with appropriate
// code and a textual reason.
type ClosedError struct {
	Code   wsframe.StatusCode
	Reason string
}

// Error implements error interface.
func (err ClosedError) Error() string {
	return "ws closed: " + strconv.FormatUint(uint64(err.Code), 10) + " " + err.Reason
}

// Handler holds callbacks for decoded events. Nil callbacks are skipped.
type Handler struct {
	OnMessage func(op wsframe.OpCode, p []byte) error
	OnPing    func(p []byte) error
	OnPong    func(p []byte) error
	OnClose   func(code wsframe.StatusCode, reason string) error
	OnError   func(err error)
}

// Handle calls the callback that corresponds to e.
func (h Handler) Handle(e wsframe.Event) error {
	switch e.OpCode {
	case wsframe.OpText, wsframe.OpBinary:
		if h.OnMessage != nil {
			return h.OnMessage(e.OpCode, e.Payload)
		}
	case wsframe.OpPing:
		if h.OnPing != nil {
			return h.OnPing(e.Payload)
		}
	case wsframe.OpPong:
		if h.OnPong != nil {
			return h.OnPong(e.Payload)
		}
	case wsframe.OpClose:
		if h.OnClose != nil {
			return h.OnClose(e.Code, e.Reason)
		}
	}
	return nil
}

// Dispatch handles events in order and then reports err to OnError. It is
// designed to be used with the results of wsframe.Parser.Feed():
//
//	err := h.Dispatch(p.Feed(data))
//
// It returns the first error returned by a callback, or err.
func (h Handler) Dispatch(events []wsframe.Event, err error) error {
	for _, e := range events {
		if herr := h.Handle(e); herr != nil {
			return herr
		}
	}
	if err != nil && h.OnError != nil {
		h.OnError(err)
	}
	return err
}

// ControlResponder returns function that handles control events regarding to
// the given state and writes responses to w when needed. It answers ping with
// pong carrying the same payload, and close with close carrying the same
// status code. Close with a code which is not allowed on the wire is answered
// with 1002 status code. After close is answered it returns ClosedError.
//
// Data events are ignored.
func ControlResponder(w io.Writer, s wsframe.State) func(wsframe.Event) error {
	return func(e wsframe.Event) error {
		switch e.OpCode {
		case wsframe.OpPing:
			return WriteMessage(w, s, wsframe.OpPong, e.Payload)

		case wsframe.OpClose:
			var (
				p    []byte
				code = e.Code
			)
			if code.Empty() {
				// RFC6455#7.1.5: If this Close control frame contains no
				// status code, _The WebSocket Connection Close Code_ is
				// considered to be 1005.
				code = wsframe.StatusNoStatusRcvd
			} else if !code.IsSendable() {
				if err := CloseOnError(w, s, wsframe.ErrStatusCodeNotSendable); err != nil {
					return err
				}
				return ClosedError{
					Code:   code,
					Reason: e.Reason,
				}
			} else {
				// RFC6455#5.5.1: When sending a Close frame in response, the
				// endpoint typically echos the status code it received.
				p = wsframe.NewCloseFrameBody(e.Code, "")
			}
			if err := WriteMessage(w, s, wsframe.OpClose, p); err != nil {
				return err
			}
			return ClosedError{
				Code:   code,
				Reason: e.Reason,
			}
		}
		return nil
	}
}

// CloseOnError writes close message that describes the decode error err to w.
// Invalid UTF-8 is reported with 1007 status code, exceeded size limit with
// 1009 and any other violation with 1002.
func CloseOnError(w io.Writer, s wsframe.State, err error) error {
	code := wsframe.StatusProtocolError
	switch {
	case errors.Is(err, wsframe.ErrInvalidUTF8):
		code = wsframe.StatusInvalidFramePayloadData
	case errors.Is(err, wsframe.ErrPayloadTooBig):
		code = wsframe.StatusMessageTooBig
	}

	reason := err.Error()
	var perr *wsframe.ProtocolError
	if errors.As(err, &perr) {
		reason = perr.Err.Error()
	}
	if len(reason) > wsframe.MaxControlFramePayloadSize-2 {
		reason = ""
	}

	m, merr := wsframe.NewCloseMessage(code, reason)
	if merr != nil {
		return merr
	}
	return WriteMessage(w, s, wsframe.OpClose, m.Payload)
}
