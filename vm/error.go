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

// Error is the runtime's non-local exit. Every failing operation in the
// value model, the compiler and the interpreter panics with an *Error;
// the embedding entry points recover it and hand it to the caller as a
// plain Go error. Anything else reaching a recover is a bug and is
// re-panicked.
type Error struct {
	Msg []byte
}

func (e *Error) Error() string { return string(e.Msg) }

// Throw raises a runtime error with a preformatted message.
func Throw(msg []byte) {
	panic(&Error{Msg: msg})
}

// Errorf formats a message with the runtime format engine and raises it.
// Composite values in %r directives are rendered with a bounded depth to
// keep error text finite.
func Errorf(f string, args ...interface{}) {
	b := NewBuf(0)
	b.Pushf(f, args...)
	Throw(b.Bytes())
}

// Catch recovers a pending *Error into *err. It is the deferred
// counterpart of Throw used at every public API boundary.
func Catch(err *error) {
	switch e := recover().(type) {
	case nil:
	case *Error:
		*err = e
	default:
		panic(e)
	}
}

func errorRO(what string) {
	Errorf("attempted to modify read-only %s", what)
}

func errorLen(what string) {
	Errorf("exceeded maximum length in %s", what)
}
