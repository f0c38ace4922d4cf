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

// Package vm implements the mel value model, bytecode format and the
// register based virtual machine that executes it.
//
// A mel value is one of nil, a number, an interned string, a buffer, a
// table or a function, all represented behind the Value interface. Numbers
// are stored with the low three bits of their mantissa cleared, mirroring
// the pointer tagging scheme of the reference runtime, so two numbers that
// differ only in those bits are the same value.
//
// Compiled code is a sequence of 16 bit words, one or two per instruction:
// a 4 bit opcode, a 4 bit destination register and an 8 bit payload, with a
// payload of 0xff selecting a two word form whose second word carries the
// full 16 bit payload. Exec interprets a Code object against a scope table
// and a calling frame; tail calls re-enter the interpreter loop so that
// tail recursive chains run in constant host stack space.
//
// Runtime failures (type errors, read-only violations, bytecode limits)
// unwind through a single non-local exit: Errorf panics with *Error, and
// the embedding entry points in the parent package recover it into a plain
// Go error. A VM execution is single threaded; the only state shared
// between independent runtimes is the string intern table, which is
// internally locked.
package vm
