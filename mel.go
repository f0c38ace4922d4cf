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

// Package mel is the embedding surface of the mel scripting language: a
// thin layer over the compiler in parse and the interpreter in vm that
// converts the runtime's non-local error exit into plain Go errors.
//
// A minimal embedding:
//
//	scope := mel.NewScope()
//	v, err := mel.Eval([]byte("1 + 2"), scope)
package mel

import (
	"github.com/pkg/errors"

	"github.com/mel-lang/mel/parse"
	"github.com/mel-lang/mel/std"
	"github.com/mel-lang/mel/vm"
)

// NewScope returns a fresh mutable scope whose tail reaches the builtin
// bindings.
func NewScope() *vm.Tbl {
	return vm.NewTblTail(0, std.Builtins())
}

// catch converts a pending runtime error into *err with a recorded
// stack. Anything that is not a *vm.Error keeps propagating.
func catch(err *error) {
	switch e := recover().(type) {
	case nil:
	case *vm.Error:
		*err = errors.WithStack(e)
	default:
		panic(e)
	}
}

// Compile compiles a top-level script against scope without running it.
func Compile(src []byte, scope *vm.Tbl) (c *vm.Code, err error) {
	defer catch(&err)
	return parse.Compile(src, scope), nil
}

// Exec runs a compiled code object in scope, with arguments taken from
// and results returned through fr. It returns the callee's return count
// nibble.
func Exec(c *vm.Code, scope *vm.Tbl, fr *vm.Frame) (rets byte, err error) {
	defer catch(&err)
	return vm.Exec(c, scope, fr), nil
}

// Call invokes a function value with the frame convention: the high
// nibble of fc counts the arguments in fr, the low nibble the wanted
// returns.
func Call(f vm.Value, fc byte, fr *vm.Frame) (err error) {
	defer catch(&err)
	fn, ok := f.(*vm.Fn)
	if !ok {
		vm.Errorf("unable to call %r", f)
	}
	fn.FCall(fc, fr)
	return nil
}

// Eval compiles and executes a top-level script, returning its first
// result.
func Eval(src []byte, scope *vm.Tbl) (v vm.Value, err error) {
	defer catch(&err)
	var fr vm.Frame
	rets := vm.Exec(parse.Compile(src, scope), scope, &fr)
	fr.Convert(rets, 1)
	return fr[0], nil
}
