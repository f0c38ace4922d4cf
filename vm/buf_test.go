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

import "testing"

func TestBufPush(t *testing.T) {
	b := NewBuf(0)
	for i := 0; i < 1000; i++ {
		b.Push(byte(i))
	}
	if b.Len() != 1000 {
		t.Fatalf("Len = %d", b.Len())
	}
	for i, c := range b.Bytes() {
		if c != byte(i) {
			t.Fatalf("byte %d = %d", i, c)
		}
	}
	// capacity grows in powers of two
	if cap(b.data)&(cap(b.data)-1) != 0 {
		t.Errorf("cap %d is not a power of two", cap(b.data))
	}
}

func TestBufResize(t *testing.T) {
	b := BufFromData([]byte("abc"))
	b.Resize(5)
	if string(b.Bytes()) != "abc\x00\x00" {
		t.Errorf("grown = %q", b.Bytes())
	}
	b.Resize(2)
	if string(b.Bytes()) != "ab" {
		t.Errorf("shrunk = %q", b.Bytes())
	}
}

func TestBufTail(t *testing.T) {
	b := NewBuf(0)
	if b.Lookup(StrFromString("x")) != nil {
		t.Error("lookup without tail should be nil")
	}

	attrs := NewTbl(0)
	attrs.Insert(StrFromString("x"), NewNum(1))
	b.SetTail(attrs)

	if v := b.Lookup(StrFromString("x")); !Equal(v, NewNum(1)) {
		t.Errorf("lookup = %v", v)
	}
	if b.Lookup(StrFromString("y")) != nil {
		t.Error("missing attribute should be nil")
	}
}

func TestBufDtor(t *testing.T) {
	b := NewBuf(0)
	if b.Dtor() != nil {
		t.Error("fresh buffer has no dtor")
	}
	ran := false
	b.SetDtor(func(*Buf) { ran = true })
	b.Dtor()(b)
	if !ran {
		t.Error("dtor not invoked")
	}
	b.SetDtor(nil)
	if b.Dtor() != nil {
		t.Error("dtor not cleared")
	}
}

func TestPushf(t *testing.T) {
	tests := []struct {
		f    string
		args []interface{}
		want string
	}{
		{"plain", nil, "plain"},
		{"100%%", nil, "100%"},
		{"%c%c", []interface{}{int('h'), int('i')}, "hi"},
		{"%s/%s", []interface{}{"a", []byte("b")}, "a/b"},
		{"%u", []interface{}{42}, "42"},
		{"%d", []interface{}{-42}, "-42"},
		{"%x", []interface{}{0xbeef}, "0000beef"},
		{"%nx", []interface{}{0xbeef, 2}, "beef"},
		{"%bx", []interface{}{0xef}, "ef"},
		{"%m", []interface{}{StrFromString("raw")}, "raw"},
		{"%m", []interface{}{NewNum(3)}, "3"},
		{"%r", []interface{}{StrFromString("raw")}, "'raw'"},
		{"%r", []interface{}{nil}, "nil"},
	}
	for _, tc := range tests {
		b := NewBuf(0)
		b.Pushf(tc.f, tc.args...)
		if string(b.Bytes()) != tc.want {
			t.Errorf("Pushf(%q) = %q, want %q", tc.f, b.Bytes(), tc.want)
		}
	}
}

func TestReprDepth(t *testing.T) {
	inner := NewTbl(0)
	inner.Insert(NumFromInt(0), NewNum(1))
	outer := NewTbl(0)
	outer.Insert(NumFromInt(0), inner)

	if got := outer.Repr(-1).String(); got != "[0: [0: 1]]" {
		t.Errorf("unbounded = %s", got)
	}
	if got := outer.Repr(1).String(); got != "[0: [..]]" {
		t.Errorf("depth 1 = %s", got)
	}
	if got := outer.Repr(0).String(); got != "[..]" {
		t.Errorf("depth 0 = %s", got)
	}
}
