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

import "sync/atomic"

// Type identifies the kind of a value. The nil value has no concrete type;
// it is represented by a nil Value interface and TypeOf returns TypeNil
// for it.
type Type uint8

// Value types.
const (
	TypeNil Type = iota
	TypeNum
	TypeStr
	TypeBuf
	TypeTbl
	TypeFn
)

var typeNames = [...]string{
	TypeNil: "nil",
	TypeNum: "num",
	TypeStr: "str",
	TypeBuf: "cdata",
	TypeTbl: "tbl",
	TypeFn:  "fn",
}

func (t Type) String() string { return typeNames[t] }

// Value is a mel value. The nil interface is the language's nil and the
// only falsy value. Concrete types are Num, *Str, *Buf, *Tbl and *Fn.
type Value interface {
	Type() Type
}

// TypeOf returns the type of v, TypeNil for a nil Value.
func TypeOf(v Value) Type {
	if v == nil {
		return TypeNil
	}
	return v.Type()
}

// identity counter for values hashed by identity (tables, buffers,
// functions). Atomic so that independent runtimes in separate goroutines
// can allocate concurrently.
var idCounter uint64

func nextID() uint64 { return atomic.AddUint64(&idCounter, 1) }

// Equal reports whether a and b are the same value. Strings are interned,
// tables, buffers and functions compare by identity, so interface equality
// is almost enough; numbers are compared on their masked bit patterns so
// that the result is well defined even for NaN.
func Equal(a, b Value) bool {
	an, aok := a.(Num)
	bn, bok := b.(Num)
	if aok || bok {
		return aok && bok && an.bits() == bn.bits()
	}
	return a == b
}

// hash returns the key hash for v. Numbers hash by their integer and
// fractional components, strings by their interned content hash, and
// everything else by identity.
func hash(v Value) uint64 {
	switch v := v.(type) {
	case nil:
		return 0
	case Num:
		return v.hash()
	case *Str:
		return v.strhash
	case *Buf:
		return v.id
	case *Tbl:
		return v.id
	case *Fn:
		return v.id
	case *Code:
		return v.id
	}
	return 0
}

// Cmp provides the ordered comparison used by the relational operators.
// Ordering is defined only for two numbers or two strings; everything
// else is a type error.
func Cmp(a, b Value) int {
	if an, ok := a.(Num); ok {
		if bn, ok := b.(Num); ok {
			return an.cmp(bn)
		}
	}
	if as, ok := a.(*Str); ok {
		if bs, ok := b.(*Str); ok {
			return as.Cmp(bs)
		}
	}
	Errorf("unable to compare %r and %r", a, b)
	return 0
}

// Lookup dispatches a key lookup on the type of the receiver. Tables are
// consulted through their tail chain, buffers only through their tail's
// attribute table, anything else yields nil.
func Lookup(v, k Value) Value {
	switch v := v.(type) {
	case *Tbl:
		return v.Lookup(k)
	case *Buf:
		return v.Lookup(k)
	}
	return nil
}

// Insert dispatches a non-recursive insert on the type of the receiver.
// Only mutable tables accept inserts; every other receiver, including a
// read-only table, fails with a read-only error.
func Insert(v, k, val Value) {
	if t, ok := v.(*Tbl); ok {
		t.Insert(k, val)
		return
	}
	errorRO(TypeOf(v).String())
}

// Assign dispatches a recursive assignment on the type of the receiver,
// with the same receiver requirements as Insert.
func Assign(v, k, val Value) {
	if t, ok := v.(*Tbl); ok {
		t.Assign(k, val)
		return
	}
	errorRO(TypeOf(v).String())
}

// Repr returns the printable representation of v. A negative depth leaves
// nesting unbounded; at depth zero composite values render as a
// placeholder.
func Repr(v Value, depth int) *Str {
	switch v := v.(type) {
	case nil:
		return StrFromString("nil")
	case Num:
		return v.Repr()
	case *Str:
		return v.Repr()
	case *Tbl:
		return v.Repr(depth)
	case *Buf:
		return Format("<%s 0x%x>", "cdata", v.id)
	case *Fn:
		return Format("<%s 0x%x>", "fn", v.id)
	case *Code:
		return Format("<%s 0x%x>", "code", v.id)
	}
	return nil
}

// Dump renders v the way the default conversion does: strings and buffers
// pass through verbatim, everything else goes through Repr.
func Dump(v Value, depth int) []byte {
	switch v := v.(type) {
	case *Str:
		return v.Bytes()
	case *Buf:
		return v.Bytes()
	}
	return Repr(v, depth).Bytes()
}
