//

package vm

import "testing"

type ins struct {
	op      Op
	d, a, b int
}

func assemble(args byte, regs int, imms []Value, prog []ins) *Code {
	var bc []uint16
	for _, i := range prog {
		bc = Encode(bc, i.op, i.d, i.a, i.b)
	}
	return NewCode(args, FlagScoped, regs, 0, imms, bc)
}

func run(t *testing.T, c *Code, args ...Value) (byte, Frame) {
	t.Helper()
	var fr Frame
	copy(fr[:], args)
	rets := Exec(c, NewTbl(0), &fr)
	return rets, fr
}

func TestExecImmRet(t *testing.T) {
	c := assemble(0, 2, []Value{NewNum(42)}, []ins{
		{OpImm, 1, 0, 0},
		{OpRet, 1, 1, 0},
	})
	rets, fr := run(t, c)
	if rets != 1 || !Equal(fr[0], NewNum(42)) {
		t.Errorf("rets %d, fr[0] %v", rets, fr[0])
	}
}

func TestExecArgs(t *testing.T) {
	// echo the second argument
	c := assemble(2, 3, nil, []ins{
		{OpRet, 2, 1, 0},
	})
	rets, fr := run(t, c, NewNum(1), NewNum(2))
	if rets != 1 || !Equal(fr[0], NewNum(2)) {
		t.Errorf("rets %d, fr[0] %v", rets, fr[0])
	}
}

func TestExecTblOps(t *testing.T) {
	// build [k: v], then read it back
	k, v := StrFromString("k"), StrFromString("v")
	c := assemble(0, 4, []Value{k, v}, []ins{
		{OpTbl, 1, 0, 0},
		{OpImm, 2, 0, 0},
		{OpImm, 3, 1, 0},
		{OpInsert, 3, 1, 2}, // r1[r2] <- r3
		{OpLookup, 1, 1, 2}, // r1 <- r1[r2]
		{OpRet, 1, 1, 0},
	})
	rets, fr := run(t, c)
	if rets != 1 || !Equal(fr[0], v) {
		t.Errorf("rets %d, fr[0] %v", rets, fr[0])
	}
}

func TestExecJumps(t *testing.T) {
	// jump over the first imm
	c := assemble(0, 2, []Value{NewNum(1), NewNum(2)}, []ins{
		{OpJump, 0, 3, 0}, // words 0,1 -> word 3
		{OpImm, 1, 0, 0},  // word 2, skipped
		{OpImm, 1, 1, 0},  // word 3
		{OpRet, 1, 1, 0},
	})
	rets, fr := run(t, c)
	if rets != 1 || !Equal(fr[0], NewNum(2)) {
		t.Errorf("rets %d, fr[0] %v", rets, fr[0])
	}
}

func TestExecJfalse(t *testing.T) {
	// nil is the only falsy value; zero is truthy
	for _, tc := range []struct {
		cond Value
		want Value
	}{
		{nil, NewNum(2)},
		{NewNum(0), NewNum(1)},
		{StrFromString(""), NewNum(1)},
	} {
		c := assemble(1, 2, []Value{NewNum(1), NewNum(2)}, []ins{
			{OpJfalse, 1, 5, 0}, // words 0,1; taken -> word 5
			{OpImm, 1, 0, 0},    // word 2
			{OpJump, 0, 3, 0},   // words 3,4 -> word 6
			{OpImm, 1, 1, 0},    // word 5
			{OpRet, 1, 1, 0},    // word 6
		})
		rets, fr := run(t, c, tc.cond)
		if rets != 1 || !Equal(fr[0], tc.want) {
			t.Errorf("cond %v: fr[0] %v, want %v", tc.cond, fr[0], tc.want)
		}
	}
}

func TestExecCall(t *testing.T) {
	double := NewBFn(1, func(fr *Frame) byte {
		fr[0] = NewNum(2 * fr[0].(Num).Float64())
		return 1
	})
	c := assemble(0, 3, []Value{double, NewNum(21)}, []ins{
		{OpImm, 1, 0, 0},
		{OpImm, 2, 1, 0},
		{OpCall, 1, 0x11, 0},
		{OpRet, 1, 1, 0},
	})
	rets, fr := run(t, c)
	if rets != 1 || !Equal(fr[0], NewNum(42)) {
		t.Errorf("rets %d, fr[0] %v", rets, fr[0])
	}
}

func TestExecTcall(t *testing.T) {
	// tail call into a builtin returns the builtin's frame directly
	id := NewBFn(1, func(fr *Frame) byte { return 1 })
	c := assemble(0, 3, []Value{id, NewNum(7)}, []ins{
		{OpImm, 1, 0, 0},
		{OpImm, 2, 1, 0},
		{OpTcall, 1, 1, 0},
	})
	rets, fr := run(t, c)
	if rets != 1 || !Equal(fr[0], NewNum(7)) {
		t.Errorf("rets %d, fr[0] %v", rets, fr[0])
	}
}

func TestExecFn(t *testing.T) {
	// OpFn closes a code object over r0 and calling it sees the scope
	// through the closure chain
	inner := assemble(0, 2, []Value{StrFromString("x")}, []ins{
		{OpImm, 1, 0, 0},
		{OpLookup, 1, 0, 1},
		{OpRet, 1, 1, 0},
	})
	c := assemble(0, 2, []Value{inner}, []ins{
		{OpFn, 1, 0, 0},
		{OpCall, 1, 0x01, 0},
		{OpRet, 1, 1, 0},
	})

	scope := NewTbl(0)
	scope.Insert(StrFromString("x"), NewNum(5))
	var fr Frame
	rets := Exec(c, scope, &fr)
	if rets != 1 || !Equal(fr[0], NewNum(5)) {
		t.Errorf("rets %d, fr[0] %v", rets, fr[0])
	}
}

func TestExecErrors(t *testing.T) {
	lookup := assemble(0, 3, []Value{NewNum(1)}, []ins{
		{OpImm, 1, 0, 0},
		{OpImm, 2, 0, 0},
		{OpLookup, 1, 1, 2},
	})
	expectError(t, "unable to lookup 1 in 1", func() { run(t, lookup) })

	call := assemble(0, 2, []Value{NewNum(1)}, []ins{
		{OpImm, 1, 0, 0},
		{OpCall, 1, 0x00, 0},
	})
	expectError(t, "unable to call 1", func() { run(t, call) })

	insert := assemble(0, 3, []Value{NewNum(1)}, []ins{
		{OpImm, 1, 0, 0},
		{OpImm, 2, 0, 0},
		{OpInsert, 2, 1, 2},
	})
	expectError(t, "unable to insert 1 to 1 in 1", func() { run(t, insert) })
}

// The register high-water mark declared by a code object bounds what the
// interpreter touches: regs slots are allocated exactly as declared.
func TestExecRegs(t *testing.T) {
	c := assemble(0, 1, nil, []ins{
		{OpRet, 0, 0, 0},
	})
	rets, _ := run(t, c)
	if rets != 0 {
		t.Errorf("rets %d", rets)
	}
}
