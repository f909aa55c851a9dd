package wsframe

import (
	"unicode/utf8"

	"github.com/eapache/queue"
)

// phase is a step of frame decoding.
type phase uint8

const (
	phaseHeader phase = iota
	phaseLength
	phaseMask
	phasePayload
	phaseComplete
)

// Parser is an incremental frame decoder. It consumes arbitrary chunks of
// the byte stream and produces events for every completed message and every
// control frame, in the order the frames arrived.
//
// Parser keeps partial frame and partial (fragmented) message state between
// calls, so the stream may be cut at any byte boundary.
//
// Once Parser meets a protocol violation it fails permanently: stream
// alignment can not be trusted after that, and every next call returns the
// same *ProtocolError.
//
// Note that Parser's methods are not goroutine safe.
type Parser struct {
	// State makes Parser check masking rules of the given side of the
	// connection. Zero state does not check masking at all.
	State State

	// MaxPayloadSize limits both single frame payload and the size of
	// reassembled message. Zero means no limit.
	MaxPayloadSize int64

	buf    []byte
	pos    int   // Read position in buf.
	offset int64 // Stream offset of buf[0].

	phase   phase
	start   int64 // Stream offset of current frame header.
	b0, b1  byte
	hdr     Header
	payload []byte

	// message is a payload of current (possibly fragmented) message. It
	// survives control frames received between fragments.
	message    []byte
	messageOp  OpCode // OpText or OpBinary once the type is known.
	fragmented bool

	events *queue.Queue
	err    error
}

// NewParser creates Parser that checks frames regarding the state s.
func NewParser(s State) *Parser {
	return &Parser{State: s}
}

// Feed appends data to the stream and returns events decoded so far. Events
// are returned in FIFO order and each one is returned exactly once.
//
// Non-nil error is a *ProtocolError; events decoded before the violation are
// still returned along with it.
func (p *Parser) Feed(data []byte) ([]Event, error) {
	_, err := p.Write(data)

	var events []Event
	for {
		e, ok := p.Next()
		if !ok {
			break
		}
		events = append(events, e)
	}
	return events, err
}

// Write implements io.Writer. It appends data to the stream and decodes as
// many frames as possible. Decoded events are available through Next().
func (p *Parser) Write(data []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.compact()
	p.buf = append(p.buf, data...)

	for {
		ok, err := p.step()
		if err != nil {
			p.fail(err)
			return len(data), p.err
		}
		if !ok {
			return len(data), nil
		}
	}
}

// Next returns next decoded event. It returns false if there are no events
// left.
func (p *Parser) Next() (e Event, ok bool) {
	if p.events == nil || p.events.Length() == 0 {
		return e, false
	}
	return p.events.Remove().(Event), true
}

// Err returns error that made Parser fail, if any.
func (p *Parser) Err() error {
	return p.err
}

// Buffered returns number of received bytes that are not consumed yet.
func (p *Parser) Buffered() int {
	return len(p.buf) - p.pos
}

// InProgress reports whether Parser holds a partially received frame or
// message.
func (p *Parser) InProgress() bool {
	return p.phase != phaseHeader || p.Buffered() > 0 || p.fragmented
}

// Reset drops all buffered data, pending events and the failure state. It
// keeps State and MaxPayloadSize.
func (p *Parser) Reset() {
	*p = Parser{
		State:          p.State,
		MaxPayloadSize: p.MaxPayloadSize,
	}
}

// Want returns the number of bytes Parser needs to complete the current step
// of the current frame. It is always positive. Readers that share the source
// with someone else may use it to never consume bytes beyond a frame.
func (p *Parser) Want() int {
	var need int64
	switch p.phase {
	case phaseHeader:
		need = 2
	case phaseLength:
		need = int64(lengthClassOfMarker(p.b1 & 0x7f).ExtendedSize())
	case phaseMask:
		need = 4
	case phasePayload:
		need = p.hdr.Length
	}
	need -= int64(p.available())
	switch {
	case need < 1:
		return 1
	case need > maxWant:
		return maxWant
	}
	return int(need)
}

const maxWant = 1 << 30

func (p *Parser) available() int {
	return len(p.buf) - p.pos
}

// compact moves unconsumed bytes to the beginning of the buffer.
func (p *Parser) compact() {
	if p.pos == 0 {
		return
	}
	n := copy(p.buf, p.buf[p.pos:])
	p.offset += int64(p.pos)
	p.pos = 0
	p.buf = p.buf[:n]
	if n == 0 && cap(p.buf) > 1<<16 {
		// Do not hold memory of huge frames.
		p.buf = nil
	}
}

// step makes one phase transition. It returns false when there is not enough
// data to move further.
func (p *Parser) step() (bool, error) {
	switch p.phase {
	case phaseHeader:
		if p.available() < 2 {
			return false, nil
		}
		p.start = p.offset + int64(p.pos)
		p.b0, p.b1 = p.buf[p.pos], p.buf[p.pos+1]
		p.pos += 2

		p.hdr = Header{
			Fin:    p.b0&bit0 != 0,
			Rsv:    (p.b0 & 0x70) >> 4,
			OpCode: OpCode(p.b0 & 0x0f),
			Masked: p.b1&bit0 != 0,
		}
		if p.hdr.OpCode.IsReserved() {
			return false, ErrUnknownOpCode
		}
		p.phase = phaseLength

	case phaseLength:
		length := p.b1 & 0x7f
		switch c := lengthClassOfMarker(length); c {
		case LengthSmall:
			p.hdr.Length = int64(length)
		default:
			k := c.ExtendedSize()
			if p.available() < k {
				return false, nil
			}
			n, err := ParseExtendedLength(c, p.buf[p.pos:p.pos+k])
			p.pos += k
			if err != nil {
				return false, err
			}
			p.hdr.Length = n
		}
		if err := p.checkHeader(); err != nil {
			return false, err
		}
		if p.hdr.Masked {
			p.phase = phaseMask
		} else {
			p.phase = phasePayload
		}

	case phaseMask:
		if p.available() < 4 {
			return false, nil
		}
		p.pos += copy(p.hdr.Mask[:], p.buf[p.pos:p.pos+4])
		p.phase = phasePayload

	case phasePayload:
		if int64(p.available()) < p.hdr.Length {
			return false, nil
		}
		// int(p.hdr.Length) is safe here because it fits into the buffer.
		n := int(p.hdr.Length)
		p.payload = p.buf[p.pos : p.pos+n]
		p.pos += n
		if p.hdr.Masked {
			// Bytes are consumed, so it is fine to unmask them in place.
			Cipher(p.payload, p.hdr.Mask, 0)
		}
		p.phase = phaseComplete

	case phaseComplete:
		if err := p.complete(); err != nil {
			return false, err
		}
		p.resetFrame()
	}
	return true, nil
}

// checkHeader validates fully read header before any payload is consumed.
func (p *Parser) checkHeader() error {
	h := p.hdr
	if err := CheckHeader(h, p.State); err != nil {
		return err
	}
	if h.OpCode.IsData() {
		switch {
		// [RFC6455]: See detailed explanation in 5.4 section.
		case h.OpCode != OpContinuation && p.fragmented && p.messageOp != 0:
			return ErrUnexpectedDataFrame
		case h.OpCode == OpContinuation && h.Fin && p.messageOp == 0:
			return ErrUnexpectedContinuation
		}
	}
	if limit := p.MaxPayloadSize; limit > 0 {
		n := h.Length
		if h.OpCode.IsData() {
			n += int64(len(p.message))
		}
		if h.Length > limit || n > limit {
			return ErrPayloadTooBig
		}
	}
	return nil
}

// complete handles fully received frame.
func (p *Parser) complete() error {
	op := p.hdr.OpCode
	if op.IsControl() {
		return p.completeControl()
	}

	p.message = append(p.message, p.payload...)
	if op != OpContinuation {
		p.messageOp = op
	}
	if !p.hdr.Fin {
		p.fragmented = true
		return nil
	}

	e := Event{
		OpCode:  p.messageOp,
		Payload: p.message,
	}
	p.message = nil
	p.messageOp = 0
	p.fragmented = false

	if e.OpCode == OpText && !utf8.Valid(e.Payload) {
		return ErrInvalidUTF8
	}
	p.emit(e)
	return nil
}

func (p *Parser) completeControl() error {
	e := Event{OpCode: p.hdr.OpCode}
	if len(p.payload) > 0 {
		e.Payload = make([]byte, len(p.payload))
		copy(e.Payload, p.payload)
	}
	if e.OpCode == OpClose {
		if err := CheckCloseFrameData(e.Payload); err != nil {
			return err
		}
		e.Code, e.Reason = ParseCloseFrameData(e.Payload)
	}
	p.emit(e)
	return nil
}

func (p *Parser) emit(e Event) {
	if p.events == nil {
		p.events = queue.New()
	}
	p.events.Add(e)
}

// resetFrame clears per-frame fields. Message reassembly state is left
// untouched.
func (p *Parser) resetFrame() {
	p.phase = phaseHeader
	p.b0, p.b1 = 0, 0
	p.hdr = Header{}
	p.payload = nil
}

func (p *Parser) fail(err error) {
	p.err = &ProtocolError{
		Err:   err,
		Start: p.start,
		End:   p.offset + int64(p.pos),
	}
	p.buf = nil
	p.pos = 0
	p.payload = nil
	p.message = nil
}
