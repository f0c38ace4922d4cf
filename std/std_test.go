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

package std

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mel-lang/mel/internal/mti"
	"github.com/mel-lang/mel/vm"
)

func call(t *testing.T, name string, fc byte, args ...vm.Value) (v vm.Value, err error) {
	t.Helper()
	defer vm.Catch(&err)

	f := Builtins().Lookup(vm.StrFromString(name))
	require.NotNil(t, f, "builtin %q missing", name)
	return vm.Call(f, fc, args...), nil
}

func TestBindings(t *testing.T) {
	// every key the code generator references must be bound
	for _, name := range []string{
		vm.KeyIter, vm.KeyBind, vm.KeyConcat, vm.KeySubset, vm.KeyPop,
		vm.KeyPush, vm.KeyRepr, vm.KeyPad,
		vm.KeyNot, vm.KeyEq, vm.KeyNeq, vm.KeyLt, vm.KeyLte, vm.KeyGt, vm.KeyGte,
		vm.KeyAdd, vm.KeySub, vm.KeyMul, vm.KeyDiv, vm.KeyMod,
	} {
		assert.NotNil(t, Builtins().Lookup(vm.StrFromString(name)),
			"builtin %q missing", name)
	}
	assert.True(t, Builtins().ReadOnly())
}

func TestArith(t *testing.T) {
	tests := []struct {
		op   string
		a, b float64
		want float64
	}{
		{"+", 1, 2, 3},
		{"-", 10, 4, 6},
		{"*", 6, 7, 42},
		{"/", 1, 2, 0.5},
		{"%", 7, 3, 1},
		{"%", -7, 3, 2},
	}
	for _, tc := range tests {
		v, err := call(t, tc.op, 0x21, vm.NewNum(tc.a), vm.NewNum(tc.b))
		require.NoError(t, err)
		assert.True(t, vm.Equal(v, vm.NewNum(tc.want)),
			"%v %s %v = %s", tc.a, tc.op, tc.b, vm.Repr(v, -1))
	}

	// unary minus
	v, err := call(t, "-", 0x21, vm.NewNum(5), nil)
	require.NoError(t, err)
	assert.True(t, vm.Equal(v, vm.NewNum(-5)))

	_, err = call(t, "+", 0x21, vm.StrFromString("a"), vm.NewNum(1))
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	v, _ := call(t, "<", 0x21, vm.NewNum(1), vm.NewNum(2))
	assert.Equal(t, vm.Value(True), v)
	v, _ = call(t, "<", 0x21, vm.NewNum(2), vm.NewNum(1))
	assert.Nil(t, v)
	v, _ = call(t, "<=", 0x21, vm.StrFromString("a"), vm.StrFromString("b"))
	assert.Equal(t, vm.Value(True), v)
	v, _ = call(t, "==", 0x21, vm.NewNum(1), vm.NewNum(1))
	assert.Equal(t, vm.Value(True), v)
	v, _ = call(t, "!=", 0x21, vm.NewNum(1), vm.StrFromString("1"))
	assert.Equal(t, vm.Value(True), v)

	_, err := call(t, "<", 0x21, vm.NewNum(1), vm.StrFromString("a"))
	assert.Error(t, err)
}

func TestCasts(t *testing.T) {
	v, err := call(t, "num", 0x11, vm.StrFromString("0x2a"))
	require.NoError(t, err)
	assert.True(t, vm.Equal(v, vm.NewNum(42)))

	v, err = call(t, "str", 0x11, vm.NewNum(42))
	require.NoError(t, err)
	assert.Equal(t, vm.Value(vm.StrFromString("42")), v)

	_, err = call(t, "num", 0x11, vm.StrFromString("oops"))
	assert.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	// parse(repr(x)) = x for nil, numbers and strings
	for _, x := range []vm.Value{
		nil, vm.NewNum(0), vm.NewNum(42), vm.NewNum(-12.25), vm.NewNum(0.5),
		vm.StrFromString(""), vm.StrFromString("hello"), vm.StrFromString("a'\n\x01b"),
	} {
		v, err := call(t, "parse", 0x11, vm.Repr(x, -1))
		require.NoError(t, err)
		assert.True(t, vm.Equal(x, v),
			"parse(repr(%s)) = %s", vm.Repr(x, -1), vm.Repr(v, -1))
	}
}

func TestContainers(t *testing.T) {
	tbl := vm.TblFromList([]vm.Value{vm.NewNum(1), vm.NewNum(2)})

	v, err := call(t, "len", 0x11, tbl)
	require.NoError(t, err)
	assert.True(t, vm.Equal(v, vm.NewNum(2)))

	_, err = call(t, "push", 0x31, tbl, vm.NewNum(3), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	v, err = call(t, "pop", 0x21, tbl, nil)
	require.NoError(t, err)
	assert.True(t, vm.Equal(v, vm.NewNum(3)))

	v, err = call(t, "sub", 0x31, vm.StrFromString("hello"), vm.NewNum(1), vm.NewNum(3))
	require.NoError(t, err)
	assert.Equal(t, vm.Value(vm.StrFromString("el")), v)

	v, err = call(t, "sub", 0x31, vm.StrFromString("hello"), vm.NewNum(1), nil)
	require.NoError(t, err)
	assert.Equal(t, vm.Value(vm.StrFromString("e")), v)

	v, err = call(t, "++", 0x31, vm.StrFromString("a"), vm.StrFromString("b"), nil)
	require.NoError(t, err)
	assert.Equal(t, vm.Value(vm.StrFromString("ab")), v)

	v, err = call(t, "const", 0x11, tbl)
	require.NoError(t, err)
	assert.True(t, v.(*vm.Tbl).ReadOnly())
}

func TestPad(t *testing.T) {
	v, err := call(t, "pad", 0x31, vm.StrFromString("ab"), vm.NewNum(5), nil)
	require.NoError(t, err)
	assert.Equal(t, vm.Value(vm.StrFromString("ab   ")), v)

	v, err = call(t, "pad", 0x31, vm.StrFromString("ab"), vm.NewNum(-5), nil)
	require.NoError(t, err)
	assert.Equal(t, vm.Value(vm.StrFromString("   ab")), v)

	v, err = call(t, "pad", 0x31, vm.StrFromString("abcdef"), vm.NewNum(3), nil)
	require.NoError(t, err)
	assert.Equal(t, vm.Value(vm.StrFromString("abcdef")), v)
}

func TestIterBuiltin(t *testing.T) {
	it, err := call(t, "iter", 0x11, vm.StrFromString("hi"))
	require.NoError(t, err)
	f := it.(*vm.Fn)

	var fr vm.Frame
	f.FCall(0x02, &fr)
	assert.Equal(t, vm.Value(vm.StrFromString("h")), fr[0])
	f.FCall(0x02, &fr)
	assert.Equal(t, vm.Value(vm.StrFromString("i")), fr[0])
	f.FCall(0x01, &fr)
	assert.Nil(t, fr[0], "exhausted iterator")

	// a function is its own iterator
	v, err := call(t, "iter", 0x11, f)
	require.NoError(t, err)
	assert.Equal(t, vm.Value(f), v)

	_, err = call(t, "iter", 0x11, vm.NewNum(1))
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	it, err := call(t, "range", 0x31, vm.NewNum(3), nil, nil)
	require.NoError(t, err)
	f := it.(*vm.Fn)

	var got []float64
	for {
		var fr vm.Frame
		f.FCall(0x01, &fr)
		if fr[0] == nil {
			break
		}
		got = append(got, fr[0].(vm.Num).Float64())
	}
	assert.Equal(t, []float64{0, 1, 2}, got)
}

func TestBind(t *testing.T) {
	add := Builtins().Lookup(vm.StrFromString("+")).(*vm.Fn)
	args := vm.TblFromList([]vm.Value{add, vm.NewNum(10)})

	v, err := call(t, "bind", 0xf1, args)
	require.NoError(t, err)
	bound := v.(*vm.Fn)

	var fr vm.Frame
	fr[0] = vm.NewNum(5)
	bound.FCall(0x11, &fr)
	assert.True(t, vm.Equal(fr[0], vm.NewNum(15)))
}

func TestPrint(t *testing.T) {
	cap := mti.CapturePrint()
	defer cap.Restore()

	_, err := call(t, "print", 0x20, vm.StrFromString("hello "), vm.NewNum(42))
	require.NoError(t, err)
	require.Len(t, cap.Lines, 1)
	assert.Equal(t, "hello 42", cap.Lines[0])
}

func TestErrorBuiltin(t *testing.T) {
	_, err := call(t, "error", 0x10, vm.StrFromString("boom"))
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestImport(t *testing.T) {
	old := vm.SysImport
	defer func() { vm.SysImport = old }()

	calls := 0
	module := vm.NewTbl(0)
	vm.SysImport = func(name *vm.Str) vm.Value {
		calls++
		if name.String() == "mod" {
			return module
		}
		return nil
	}

	v, err := call(t, "import", 0x11, vm.StrFromString("mod"))
	require.NoError(t, err)
	assert.Equal(t, vm.Value(module), v)

	// resolved modules are cached process-wide
	v, err = call(t, "import", 0x11, vm.StrFromString("mod"))
	require.NoError(t, err)
	assert.Equal(t, vm.Value(module), v)
	assert.Equal(t, 1, calls)

	v, err = call(t, "import", 0x11, vm.StrFromString("nope"))
	require.NoError(t, err)
	assert.Nil(t, v)
}
