package wsframe

// Event is a unit of Parser output. It is either a complete application
// message (OpText or OpBinary) or a control frame (OpPing, OpPong, OpClose).
//
// Fragmented messages are delivered as a single event with the payload of all
// fragments glued in order.
type Event struct {
	OpCode  OpCode
	Payload []byte

	// Code and Reason are filled for OpClose events only. Code is zero if
	// peer sent no status code.
	Code   StatusCode
	Reason string
}

// IsControl reports whether e is a control frame event.
func (e Event) IsControl() bool {
	return e.OpCode.IsControl()
}

// CloseStatus returns symbolic meaning of close event status code.
func (e Event) CloseStatus() CloseStatus {
	return e.Code.CloseStatus()
}
