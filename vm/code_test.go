//

package vm

import "testing"

func TestEncodeForms(t *testing.T) {
	// a small immediate fits in one word
	bc := Encode(nil, OpImm, 1, 7, 0)
	if len(bc) != 1 || bc[0] != 0x0107 {
		t.Errorf("short form = %04x", bc)
	}

	// an index of 255 or more needs the two word form
	bc = Encode(nil, OpImm, 1, 255, 0)
	if len(bc) != 2 || bc[0] != 0x01ff || bc[1] != 255 {
		t.Errorf("long form = %04x", bc)
	}
	bc = Encode(nil, OpImm, 1, 1000, 0)
	if len(bc) != 2 || bc[1] != 1000 {
		t.Errorf("long form = %04x", bc)
	}

	// register-payload ops stay one word
	bc = Encode(nil, OpMove, 2, 1, 0)
	if len(bc) != 1 || bc[0] != 0x3201 {
		t.Errorf("move = %04x", bc)
	}

	// two-register ops pack nibbles
	bc = Encode(nil, OpLookup, 3, 1, 2)
	if len(bc) != 1 || bc[0] != 0x6312 {
		t.Errorf("lookup = %04x", bc)
	}

	// jumps always take the two word form
	bc = Encode(nil, OpJump, 0, 0, 0)
	if len(bc) != 2 || bc[0]&0xff != extPayload {
		t.Errorf("jump = %04x", bc)
	}
}

func TestEncodeLimits(t *testing.T) {
	expectError(t, "exceeded bytecode limits", func() {
		Encode(nil, OpImm, 1, 0xffff, 0)
	})
	expectError(t, "exceeded bytecode limits", func() {
		Encode(nil, OpImm, 16, 0, 0)
	})
	expectError(t, "exceeded bytecode limits", func() {
		Encode(nil, OpLookup, 0, 16, 0)
	})
	expectError(t, "exceeded bytecode limits", func() {
		Encode(nil, OpJump, 0, 0x8000+2, 0)
	})
	// the extremes still fit
	Encode(nil, OpImm, 1, 0xfffe, 0)
	Encode(nil, OpJump, 0, 0x7fff+2, 0)
	Encode(nil, OpJump, 0, -0x8000+2, 0)
}

func TestPatch(t *testing.T) {
	bc := Encode(nil, OpJump, 0, 0, 0)
	bc = Encode(bc, OpRet, 0, 0, 0)
	Patch(bc, 0, 3)
	if int16(bc[1]) != 1 {
		t.Errorf("patched displacement = %d", int16(bc[1]))
	}
	expectError(t, "exceeded bytecode limits", func() {
		Patch(bc, 0, 0x8001+2)
	})
}
