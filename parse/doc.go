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

// Package parse compiles mel source to vm bytecode: a single pass lexer,
// a recursive descent parser and a register allocating code generator
// that emits instructions as it goes.
//
// Statements are separated by newlines or ';'. Blocks are delimited by
// braces or by indentation:
//
//	if (x) {
//	    print('big')
//	} else
//	    print('small')
//
// Keywords: let, fn, type, if, else, while, for, and, or, continue,
// break, return, nil. Identifiers are [A-Za-z_][A-Za-z0-9_]*; operators
// are maximal runs of operator characters and resolve through the
// enclosing scope like any other binding, so code can shadow '+' the
// same way it shadows a function name:
//
//	let x = 1 + 2
//	let f = fn(a, b) a*b + 1
//	fn fib(n) if (n <= 1) n else fib(n-1) + fib(n-2)
//
// There is no precedence table. An operator binds tighter the less
// whitespace follows it, so `1+2 * 3` multiplies last and `1 + 2*3`
// multiplies first. Number literals take the 0b, 0o and 0x prefixes
// with p (or e, for decimal) as exponent marker; strings are single or
// double quoted with the usual escapes plus \xHH, \oOOO, \dDDD and
// \bBBBBBBBB; table literals are written [v0, v1, k: v]. Destructuring
// patterns appear on both sides of assignment:
//
//	let t = [1, 2, rest: 'r']
//	let (a, b) = (t[0], t[1])
//	let [x, y] = t
//
// A trailing .. marks expansion: in a call it splats a table into
// arguments, in a pattern it collects the remainder.
//
// Compilation never builds a tree; the parser drives the code generator
// directly, tracking each partial expression as one of five states
// (direct, scoped, indirect, called, nil) and spilling them into
// registers on demand. Argument lists and table constructors are scanned
// twice: a lookahead pass settles the frame's shape (entry count,
// whether it needs boxing into a table, whether it is a bare call), then
// the emitting pass generates code under that contract. break and
// continue compile to jumps linked through their own displacement
// fields until the loop's ends are known; a return whose operand is a
// single call becomes a tail call.
//
// Scope errors are compile time errors: every referenced symbol must be
// declared by let, fn or an enclosing scope, and the parser verifies
// this against the scope chain it is handed at compile time. Parse
// errors carry a line number hint counting non-comment newlines.
package parse
