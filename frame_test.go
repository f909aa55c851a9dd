package wsframe

import (
	"bytes"
	"fmt"
	"testing"
)

func TestOpCodeIsControl(t *testing.T) {
	for _, test := range []struct {
		code OpCode
		exp  bool
	}{
		{OpClose, true},
		{OpPing, true},
		{OpPong, true},
		{OpBinary, false},
		{OpText, false},
		{OpContinuation, false},
	} {
		t.Run(fmt.Sprintf("0x%02x", byte(test.code)), func(t *testing.T) {
			if act := test.code.IsControl(); act != test.exp {
				t.Errorf("IsControl = %v; want %v", act, test.exp)
			}
		})
	}
}

func TestOpCodeIsReserved(t *testing.T) {
	for c := OpCode(0); c <= 0xf; c++ {
		var exp bool
		switch c {
		case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		default:
			exp = true
		}
		if act := c.IsReserved(); act != exp {
			t.Errorf("OpCode(%d).IsReserved() = %v; want %v", c, act, exp)
		}
	}
}

func TestStatusCodeRanges(t *testing.T) {
	for _, test := range []struct {
		code                            StatusCode
		notUsed, protocol, app, private bool
	}{
		{0, true, false, false, false},
		{999, true, false, false, false},
		{StatusNormalClosure, false, true, false, false},
		{2999, false, true, false, false},
		{3000, false, false, true, false},
		{4999, false, false, false, true},
		{5000, false, false, false, false},
	} {
		t.Run(fmt.Sprintf("%d", test.code), func(t *testing.T) {
			if act := test.code.IsNotUsed(); act != test.notUsed {
				t.Errorf("IsNotUsed() = %v; want %v", act, test.notUsed)
			}
			if act := test.code.IsProtocolSpec(); act != test.protocol {
				t.Errorf("IsProtocolSpec() = %v; want %v", act, test.protocol)
			}
			if act := test.code.IsApplicationSpec(); act != test.app {
				t.Errorf("IsApplicationSpec() = %v; want %v", act, test.app)
			}
			if act := test.code.IsPrivateSpec(); act != test.private {
				t.Errorf("IsPrivateSpec() = %v; want %v", act, test.private)
			}
		})
	}
}

func TestStatusCodeIsSendable(t *testing.T) {
	for _, test := range []struct {
		code StatusCode
		exp  bool
	}{
		{0, false},
		{999, false},
		{StatusNormalClosure, true},
		{StatusGoingAway, true},
		{StatusProtocolError, true},
		{StatusUnsupportedData, true},
		{StatusNoMeaningYet, false},
		{StatusNoStatusRcvd, false},
		{StatusAbnormalClosure, false},
		{StatusInvalidFramePayloadData, true},
		{StatusPolicyViolation, true},
		{StatusMessageTooBig, true},
		{StatusMandatoryExt, true},
		{StatusInternalServerError, true},
		{1012, false},
		{StatusTLSHandshake, false},
		{2999, false},
		{3000, true},
		{4999, true},
		{5000, false},
	} {
		t.Run(fmt.Sprintf("%d", test.code), func(t *testing.T) {
			if act := test.code.IsSendable(); act != test.exp {
				t.Errorf("IsSendable() = %v; want %v", act, test.exp)
			}
		})
	}
}

func TestStatusCodeCloseStatus(t *testing.T) {
	for _, test := range []struct {
		code StatusCode
		exp  string
	}{
		{1000, "normal_closure"},
		{1001, "peer_going_away"},
		{1002, "protocol_error"},
		{1003, "data_error"},
		{1007, "data_not_consistent"},
		{1008, "policy_violation"},
		{1009, "message_too_big"},
		{1010, "extension_required"},
		{1011, "unexpected_condition"},
		{0, ""},
		{1004, ""},
		{1005, ""},
		{1015, ""},
		{3000, ""},
		{4999, ""},
	} {
		t.Run(fmt.Sprintf("%d", test.code), func(t *testing.T) {
			act := test.code.CloseStatus()
			if s := act.String(); s != test.exp {
				t.Errorf("CloseStatus() = %q; want %q", s, test.exp)
			}
			if (act == CloseNone) != (test.exp == "") {
				t.Errorf("unexpected CloseNone mismatch: %v", act)
			}
		})
	}
}

func TestCloseFrameBody(t *testing.T) {
	p := NewCloseFrameBody(StatusGoingAway, "Bye")
	if exp := []byte{0x03, 0xe9, 'B', 'y', 'e'}; !bytes.Equal(p, exp) {
		t.Fatalf("NewCloseFrameBody() = %x; want %x", p, exp)
	}
	code, reason := ParseCloseFrameData(p)
	if code != StatusGoingAway || reason != "Bye" {
		t.Errorf("ParseCloseFrameData() = %d, %q; want %d, %q", code, reason, StatusGoingAway, "Bye")
	}

	code, reason = ParseCloseFrameData(nil)
	if !code.Empty() || reason != "" {
		t.Errorf("ParseCloseFrameData(nil) = %d, %q; want empty", code, reason)
	}
}

func TestCompileFrame(t *testing.T) {
	bts := MustCompileFrame(NewFrame(OpText, true, []byte("Hello")))
	if exp := []byte{0x81, 0x05, 'H', 'e', 'l', 'l', 'o'}; !bytes.Equal(bts, exp) {
		t.Errorf("MustCompileFrame() = %x; want %x", bts, exp)
	}
}
