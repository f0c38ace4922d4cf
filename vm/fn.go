// This file is part of mel - https://github.com/mel-lang/mel
//
// Copyright 2026 The mel authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

// Code flags.
const (
	// FlagBuiltin marks a native function.
	FlagBuiltin uint8 = 1 << iota
	// FlagScoped marks a function carrying a captured closure value.
	FlagScoped
	// FlagWeak marks a closure captured without an ownership claim, used
	// by the compiler to break the cycle between a function and the scope
	// that contains it.
	FlagWeak
)

// Code is an immutable compiled unit. The compiler moves the constant
// pool and instruction stream in through NewCode; nothing mutates a Code
// afterwards.
type Code struct {
	id     uint64
	Args   byte     // declared argument count nibble
	Flags  uint8    // frame flags for functions created from this code
	Regs   int      // register slots needed by Exec
	Locals int      // local slot count for the scope table
	Imms   []Value  // constant pool
	Bc     []uint16 // encoded instructions
}

// Type implements Value; code objects travel through constant pools the
// way opaque buffers do.
func (*Code) Type() Type { return TypeBuf }

// NewCode assembles a compiled unit.
func NewCode(args byte, flags uint8, regs, locals int, imms []Value, bc []uint16) *Code {
	return &Code{
		id:     nextID(),
		Args:   args,
		Flags:  flags,
		Regs:   regs,
		Locals: locals,
		Imms:   imms,
		Bc:     bc,
	}
}

// BFn is the signature of a plain native function: it consumes its frame
// and returns the return count nibble.
type BFn func(fr *Frame) byte

// SBFn is the signature of a scoped native function, which additionally
// receives its captured closure value.
type SBFn func(closure Value, fr *Frame) byte

// Fn is a callable: a native entry point, a scoped native entry point
// with a captured value, or compiled code paired with the scope it was
// defined in.
type Fn struct {
	id      uint64
	args    byte
	flags   uint8
	code    *Code
	closure Value
	bfn     BFn
	sbfn    SBFn
}

// Type implements Value.
func (*Fn) Type() Type { return TypeFn }

// NewBFn returns a native function with the given argument count nibble.
func NewBFn(args byte, f BFn) *Fn {
	return &Fn{id: nextID(), args: args, flags: FlagBuiltin, bfn: f}
}

// NewSBFn returns a scoped native function capturing closure.
func NewSBFn(args byte, f SBFn, closure Value) *Fn {
	return &Fn{
		id:      nextID(),
		args:    args,
		flags:   FlagBuiltin | FlagScoped,
		sbfn:    f,
		closure: closure,
	}
}

// FnFromCode returns a function executing c in the given defining scope.
func FnFromCode(c *Code, closure *Tbl) *Fn {
	return &Fn{
		id:      nextID(),
		args:    c.Args,
		flags:   c.Flags,
		code:    c,
		closure: closure,
	}
}

// Code returns the compiled code backing the function, nil for native
// functions.
func (f *Fn) Code() *Code { return f.code }

// Closure returns the function's captured closure value, nil if none.
func (f *Fn) Closure() Value { return f.closure }

// TCall invokes f with the frame holding fc arguments and returns the
// callee's return count without converting it. Compiled functions
// delegate to Exec.
func (f *Fn) TCall(fc byte, fr *Frame) byte {
	fr.Convert(fc, f.args)

	switch f.flags & (FlagBuiltin | FlagScoped) {
	case FlagBuiltin:
		return f.bfn(fr)
	case FlagBuiltin | FlagScoped:
		return f.sbfn(f.closure, fr)
	}

	closure, _ := f.closure.(*Tbl)
	scope := NewTblTail(f.code.Locals, closure)
	return Exec(f.code, scope, fr)
}

// FCall invokes f with an arity pair: the high nibble of fc counts the
// arguments in the frame, the low nibble the return values wanted, and
// the frame is converted accordingly on the way out.
func (f *Fn) FCall(fc byte, fr *Frame) {
	rets := f.TCall(fc>>4, fr)
	fr.Convert(rets, fc&0xf)
}

// Call is the generic call entry point, raising a type error when v is
// not callable. It passes args in a fresh frame and returns the first
// result.
func Call(v Value, fc byte, args ...Value) Value {
	f, ok := v.(*Fn)
	if !ok {
		Errorf("unable to call %r", v)
	}

	var fr Frame
	if FrameCount(fc>>4) == 1 && fc>>4 > FrameLen {
		fr[0] = args[0]
	} else {
		copy(fr[:], args)
	}
	f.FCall(fc, &fr)

	if fc&0xf == 0 {
		return nil
	}
	return fr[0]
}

// Next steps an iterator function, reporting false at exhaustion. On a
// successful step the frame holds fc converted results.
func (f *Fn) Next(fc byte, fr *Frame) bool {
	if fc == 0 {
		f.FCall(0x01, fr)
	} else {
		f.FCall(fc, fr)
	}

	if fc != 0xf {
		if fr[0] != nil {
			if fc == 0 {
				fr[0] = nil
			}
			return true
		}
		fr.Convert(fc, 0)
		return false
	}

	t, ok := fr[0].(*Tbl)
	if ok && t.get(NumFromInt(0)) != nil {
		return true
	}
	return false
}

// Bind returns a function calling f with the values of args prepended to
// its arguments.
func (f *Fn) Bind(args *Tbl) *Fn {
	state := TblFromList([]Value{f, args})
	return NewSBFn(0xf, func(scope Value, fr *Frame) byte {
		st := scope.(*Tbl)
		fn := st.get(NumFromInt(0)).(*Fn)
		bound := st.get(NumFromInt(1)).(*Tbl)

		t, _ := fr[0].(*Tbl)
		if t == nil {
			t = NewTbl(0)
		}
		fr[0] = bound.Concat(t, -1)
		return fn.TCall(0xf, fr)
	}, state)
}
