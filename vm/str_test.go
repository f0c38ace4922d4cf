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

func TestIntern(t *testing.T) {
	a := StrFromString("hello")
	b := StrFromData([]byte("hello"))
	if a != b {
		t.Error("equal content must intern to the same handle")
	}
	if a == StrFromString("hellp") {
		t.Error("distinct content must not share a handle")
	}

	// the buffer fast path reuses or dedups the same way
	buf := NewBuf(0)
	buf.PushString("hello")
	if Intern(buf) != a {
		t.Error("Intern(buf) must return the canonical handle")
	}
}

func TestStrCmp(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "a", 0},
		{"a", "b", -1},
		{"b", "a", 1},
		{"ab", "b", -1},
		{"ab", "a", 1},
	}
	for _, tc := range tests {
		got := StrFromString(tc.a).Cmp(StrFromString(tc.b))
		if got < 0 {
			got = -1
		} else if got > 0 {
			got = 1
		}
		if got != tc.want {
			t.Errorf("Cmp(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestStrOps(t *testing.T) {
	s := StrFromString("hello")
	if got := s.Concat(StrFromString(" world")).String(); got != "hello world" {
		t.Errorf("Concat = %q", got)
	}
	if got := s.Subset(1, 3).String(); got != "el" {
		t.Errorf("Subset(1,3) = %q", got)
	}
	if got := s.Subset(-3, -1).String(); got != "ll" {
		t.Errorf("Subset(-3,-1) = %q", got)
	}
	if got := s.Subset(3, 2).String(); got != "" {
		t.Errorf("Subset(3,2) = %q", got)
	}
}

func TestParseStr(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`'hello'`, "hello"},
		{`"hello"`, "hello"},
		{`'a\nb'`, "a\nb"},
		{`'\t\r\v\f\0'`, "\t\r\v\f\x00"},
		{`'\x41\d065\o101'`, "AAA"},
		{`'\b01000001'`, "A"},
		{`'\\\''`, `\'`},
		{`'\q'`, `\q`},
	}
	for _, tc := range tests {
		pos := 0
		s, ok := ParseStr([]byte(tc.src), &pos)
		if !ok || pos != len(tc.src) {
			t.Fatalf("ParseStr(%s) failed", tc.src)
		}
		if s.String() != tc.want {
			t.Errorf("ParseStr(%s) = %q, want %q", tc.src, s.String(), tc.want)
		}
	}

	pos := 0
	if _, ok := ParseStr([]byte(`'oops`), &pos); ok {
		t.Error("unterminated literal should fail")
	}
}

func TestStrRepr(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"hello", `'hello'`},
		{"a'b", `'a\'b'`},
		{"a\nb", `'a\nb'`},
		{"\x01", `'\x01'`},
	}
	for _, tc := range tests {
		if got := StrFromString(tc.src).Repr().String(); got != tc.want {
			t.Errorf("Repr(%q) = %s, want %s", tc.src, got, tc.want)
		}
	}
}
