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

// Package std binds the builtin entry points the compiler references by
// name: the operator set, the iterator protocol and the small group of
// container and system builtins. The surface deliberately stops there;
// anything richer belongs to embedders.
package std

import (
	"math"
	"sync"

	"github.com/mel-lang/mel/vm"
)

var (
	once     sync.Once
	builtins *vm.Tbl
)

// True is the canonical truthy result of the comparison builtins.
var True = vm.NewNum(1)

// Builtins returns the read-only table of builtin bindings. It is built
// once and shared by every scope in the process.
func Builtins() *vm.Tbl {
	once.Do(func() {
		t := vm.NewTbl(64)
		def := func(name string, v vm.Value) {
			t.Insert(vm.StrFromString(name), v)
		}

		// constants
		def("true", True)
		def("inf", vm.NewNum(math.Inf(1)))
		def("e", vm.NewNum(math.E))
		def("pi", vm.NewNum(math.Pi))

		// type casts
		def("num", vm.NewBFn(0x1, numBFn))
		def("str", vm.NewBFn(0x1, strBFn))

		// logic operations
		def(vm.KeyNot, vm.NewBFn(0x1, notBFn))
		def(vm.KeyEq, vm.NewBFn(0x2, eqBFn))
		def(vm.KeyNeq, vm.NewBFn(0x2, neqBFn))
		def(vm.KeyLt, cmpBFn(func(c int) bool { return c < 0 }))
		def(vm.KeyLte, cmpBFn(func(c int) bool { return c <= 0 }))
		def(vm.KeyGt, cmpBFn(func(c int) bool { return c > 0 }))
		def(vm.KeyGte, cmpBFn(func(c int) bool { return c >= 0 }))

		// arithmetic operations
		def(vm.KeyAdd, vm.NewBFn(0x2, addBFn))
		def(vm.KeySub, vm.NewBFn(0x2, subBFn))
		def(vm.KeyMul, vm.NewBFn(0x2, mulBFn))
		def(vm.KeyDiv, vm.NewBFn(0x2, divBFn))
		def(vm.KeyMod, vm.NewBFn(0x2, modBFn))

		// string representation
		def(vm.KeyRepr, vm.NewBFn(0x2, reprBFn))
		def("parse", vm.NewBFn(0x1, parseBFn))

		// data structure operations
		def("len", vm.NewBFn(0x1, lenBFn))
		def("tail", vm.NewBFn(0x1, tailBFn))
		def("const", vm.NewBFn(0x1, constBFn))
		def(vm.KeyPush, vm.NewBFn(0x3, pushBFn))
		def(vm.KeyPop, vm.NewBFn(0x2, popBFn))
		def(vm.KeyConcat, vm.NewBFn(0x3, concatBFn))
		def(vm.KeySubset, vm.NewBFn(0x3, subsetBFn))
		def(vm.KeyPad, vm.NewBFn(0x3, padBFn))

		// function operations
		def(vm.KeyBind, vm.NewBFn(0xf, bindBFn))

		// iterators
		def(vm.KeyIter, vm.NewBFn(0x1, iterBFn))
		def("range", vm.NewBFn(0x3, rangeBFn))

		// system operations
		def("print", vm.NewBFn(0xf, printBFn))
		def("error", vm.NewBFn(0xf, errorBFn))
		def("import", vm.NewBFn(0x1, importBFn))

		builtins = t.Const()
	})
	return builtins
}

func boolv(b bool) vm.Value {
	if b {
		return True
	}
	return nil
}

func numBFn(fr *vm.Frame) byte {
	switch v := fr[0].(type) {
	case nil:
		fr[0] = vm.NewNum(0)
	case vm.Num:
	case *vm.Str:
		pos := 0
		n, ok := vm.ParseNum(v.Bytes(), &pos)
		if !ok || pos != v.Len() {
			vm.Errorf("invalid argument in num(%r)", v)
		}
		fr[0] = n
	default:
		vm.Errorf("invalid argument in num(%r)", fr[0])
	}
	return 1
}

func strBFn(fr *vm.Frame) byte {
	switch v := fr[0].(type) {
	case nil:
		fr[0] = vm.StrFromString("")
	case *vm.Str:
	default:
		fr[0] = vm.Repr(v, -1)
	}
	return 1
}

func notBFn(fr *vm.Frame) byte {
	fr[0] = boolv(fr[0] == nil)
	return 1
}

func eqBFn(fr *vm.Frame) byte {
	fr[0] = boolv(vm.Equal(fr[0], fr[1]))
	return 1
}

func neqBFn(fr *vm.Frame) byte {
	fr[0] = boolv(!vm.Equal(fr[0], fr[1]))
	return 1
}

func cmpBFn(ok func(int) bool) *vm.Fn {
	return vm.NewBFn(0x2, func(fr *vm.Frame) byte {
		fr[0] = boolv(ok(vm.Cmp(fr[0], fr[1])))
		return 1
	})
}

func arith(fr *vm.Frame, name string) (a, b float64) {
	an, aok := fr[0].(vm.Num)
	bn, bok := fr[1].(vm.Num)
	if !aok || !bok {
		vm.Errorf("invalid operation %r %s %r", fr[0], name, fr[1])
	}
	return an.Float64(), bn.Float64()
}

func addBFn(fr *vm.Frame) byte {
	a, b := arith(fr, vm.KeyAdd)
	fr[0] = vm.NewNum(a + b)
	return 1
}

func subBFn(fr *vm.Frame) byte {
	// with a single operand, - negates
	if an, ok := fr[0].(vm.Num); ok && fr[1] == nil {
		fr[0] = vm.NewNum(-an.Float64())
		return 1
	}
	a, b := arith(fr, vm.KeySub)
	fr[0] = vm.NewNum(a - b)
	return 1
}

func mulBFn(fr *vm.Frame) byte {
	a, b := arith(fr, vm.KeyMul)
	fr[0] = vm.NewNum(a * b)
	return 1
}

func divBFn(fr *vm.Frame) byte {
	a, b := arith(fr, vm.KeyDiv)
	fr[0] = vm.NewNum(a / b)
	return 1
}

func modBFn(fr *vm.Frame) byte {
	a, b := arith(fr, vm.KeyMod)
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	fr[0] = vm.NewNum(m)
	return 1
}

func reprBFn(fr *vm.Frame) byte {
	depth := -1
	if d, ok := fr[1].(vm.Num); ok {
		depth = d.Int()
	} else if fr[1] != nil {
		vm.Errorf("invalid argument in repr(%r, %r)", fr[0], fr[1])
	}
	fr[0] = vm.Repr(fr[0], depth)
	return 1
}

func parseBFn(fr *vm.Frame) byte {
	s, ok := fr[0].(*vm.Str)
	if !ok {
		vm.Errorf("invalid argument in parse(%r)", fr[0])
	}
	fr[0] = parseLiteral(s.Bytes())
	return 1
}

// parseLiteral parses a self-delimiting constant: nil, a number or a
// quoted string. Anything else yields nil.
func parseLiteral(src []byte) vm.Value {
	if string(src) == "nil" {
		return nil
	}
	pos := 0
	if s, ok := vm.ParseStr(src, &pos); ok && pos == len(src) {
		return s
	}
	pos = 0
	if len(src) > 0 && src[0] == '-' {
		pos = 1
		if n, ok := vm.ParseNum(src, &pos); ok && pos == len(src) {
			return vm.NewNum(-n.Float64())
		}
		return nil
	}
	if n, ok := vm.ParseNum(src, &pos); ok && pos == len(src) {
		return n
	}
	return nil
}

func lenBFn(fr *vm.Frame) byte {
	switch v := fr[0].(type) {
	case *vm.Str:
		fr[0] = vm.NumFromInt(v.Len())
	case *vm.Tbl:
		fr[0] = vm.NumFromInt(v.Len())
	default:
		vm.Errorf("invalid argument in len(%r)", fr[0])
	}
	return 1
}

func tailBFn(fr *vm.Frame) byte {
	switch v := fr[0].(type) {
	case *vm.Tbl:
		fr[0] = tblOrNil(v.Tail())
	case *vm.Buf:
		fr[0] = tblOrNil(v.Tail())
	default:
		vm.Errorf("invalid argument in tail(%r)", fr[0])
	}
	return 1
}

func tblOrNil(t *vm.Tbl) vm.Value {
	if t == nil {
		return nil
	}
	return t
}

func constBFn(fr *vm.Frame) byte {
	if t, ok := fr[0].(*vm.Tbl); ok {
		fr[0] = t.Const()
	}
	return 1
}

func optIndex(v vm.Value, dflt int, name string) int {
	if v == nil {
		return dflt
	}
	n, ok := v.(vm.Num)
	if !ok {
		vm.Errorf("invalid argument in %s(%r)", name, v)
	}
	return n.Int()
}

func pushBFn(fr *vm.Frame) byte {
	t, ok := fr[0].(*vm.Tbl)
	if !ok {
		vm.Errorf("invalid argument in push(%r)", fr[0])
	}
	t.Push(fr[1], optIndex(fr[2], t.Len(), "push"))
	return 0
}

func popBFn(fr *vm.Frame) byte {
	t, ok := fr[0].(*vm.Tbl)
	if !ok {
		vm.Errorf("invalid argument in pop(%r)", fr[0])
	}
	fr[0] = t.Pop(optIndex(fr[1], t.Len()-1, "pop"))
	return 1
}

func concatBFn(fr *vm.Frame) byte {
	switch a := fr[0].(type) {
	case *vm.Str:
		if b, ok := fr[1].(*vm.Str); ok {
			fr[0] = a.Concat(b)
			return 1
		}
	case *vm.Tbl:
		if b, ok := fr[1].(*vm.Tbl); ok {
			fr[0] = a.Concat(b, optIndex(fr[2], -1, "++"))
			return 1
		}
	}
	vm.Errorf("invalid operation %r ++ %r", fr[0], fr[1])
	return 0
}

func subsetBFn(fr *vm.Frame) byte {
	lower := optIndex(fr[1], 0, "sub")
	upper := optIndex(fr[2], lower+1, "sub")

	switch v := fr[0].(type) {
	case *vm.Str:
		fr[0] = v.Subset(lower, upper)
	case *vm.Tbl:
		fr[0] = v.Subset(lower, upper)
	default:
		vm.Errorf("invalid argument in sub(%r)", fr[0])
	}
	return 1
}

func padBFn(fr *vm.Frame) byte {
	s, ok := fr[0].(*vm.Str)
	mlen, mok := fr[1].(vm.Num)
	if !ok || !mok {
		vm.Errorf("invalid argument in pad(%r, %r)", fr[0], fr[1])
	}
	pad := " "
	if p, ok := fr[2].(*vm.Str); ok {
		pad = p.String()
	} else if fr[2] != nil {
		vm.Errorf("invalid argument in pad(%r, %r, %r)", fr[0], fr[1], fr[2])
	}
	if len(pad) == 0 {
		vm.Errorf("invalid argument in pad(%r, %r, %r)", fr[0], fr[1], fr[2])
	}

	left := true
	want := mlen.Int()
	if want < 0 {
		left = false
		want = -want
	}

	if s.Len() >= want {
		return 1
	}

	b := vm.NewBuf(want)
	count := (want - s.Len()) / len(pad)
	if left {
		b.PushData(s.Bytes())
	}
	for i := 0; i < count; i++ {
		b.PushString(pad)
	}
	if !left {
		b.PushData(s.Bytes())
	}
	fr[0] = vm.Intern(b)
	return 1
}

func bindBFn(fr *vm.Frame) byte {
	args, ok := fr[0].(*vm.Tbl)
	if !ok {
		vm.Errorf("invalid argument in bind(%r)", fr[0])
	}
	f, ok := args.Pop(0).(*vm.Fn)
	if !ok {
		vm.Errorf("invalid argument in bind(%r)", fr[0])
	}
	fr[0] = f.Bind(args)
	return 1
}

func printBFn(fr *vm.Frame) byte {
	b := vm.NewBuf(0)
	args := fr[0].(*vm.Tbl)
	var v vm.Value
	for i := 0; args.Next(&i, nil, &v); {
		b.Pushf("%m", v)
	}
	vm.SysPrint(b.Bytes())
	return 0
}

func errorBFn(fr *vm.Frame) byte {
	b := vm.NewBuf(0)
	args := fr[0].(*vm.Tbl)
	var v vm.Value
	for i := 0; args.Next(&i, nil, &v); {
		b.Pushf("%m", v)
	}
	vm.Throw(b.Bytes())
	return 0
}

// process-wide import cache, shared like the intern table.
var imports struct {
	sync.Mutex
	cache map[*vm.Str]vm.Value
}

func importBFn(fr *vm.Frame) byte {
	name, ok := fr[0].(*vm.Str)
	if !ok {
		vm.Errorf("invalid argument in import(%r)", fr[0])
	}

	imports.Lock()
	defer imports.Unlock()
	if imports.cache == nil {
		imports.cache = make(map[*vm.Str]vm.Value)
	}

	if module, ok := imports.cache[name]; ok {
		fr[0] = module
		return 1
	}

	module := vm.SysImport(name)
	imports.cache[name] = module
	fr[0] = module
	return 1
}
