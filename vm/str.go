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

import (
	"bytes"
	"hash/fnv"
	"sync"
)

// Str is an immutable, interned byte string. Two strings are equal iff
// they are the same pointer.
type Str struct {
	data    []byte
	strhash uint64
}

// Type implements Value.
func (*Str) Type() Type { return TypeStr }

// The process-wide intern table: a sorted array of strings, ordered first
// by length and then lexicographically, probed by binary search. Sorting
// by length first skips most byte comparisons. The table is shared by
// every runtime in the process, so it carries its own lock; entries are
// never removed.
var strTab struct {
	sync.Mutex
	tab []*Str
}

// strFind returns the index of s in the intern table, or the bitwise
// complement of its insertion position when absent.
func strFind(s []byte) int {
	min, max := 0, len(strTab.tab)-1
	for min <= max {
		mid := (min + max) / 2
		t := strTab.tab[mid].data
		cmp := len(s) - len(t)
		if cmp == 0 {
			cmp = bytes.Compare(s, t)
		}
		switch {
		case cmp == 0:
			return mid
		case cmp < 0:
			max = mid - 1
		default:
			min = mid + 1
		}
	}
	return ^min
}

func strInsert(i int, s *Str) {
	strTab.tab = append(strTab.tab, nil)
	copy(strTab.tab[i+1:], strTab.tab[i:])
	strTab.tab[i] = s
}

func strHash(s []byte) uint64 {
	h := fnv.New64a()
	h.Write(s)
	return h.Sum64()
}

// StrFromData interns a copy of p and returns the canonical string.
func StrFromData(p []byte) *Str {
	if len(p) > maxLen {
		errorLen("string")
	}

	strTab.Lock()
	defer strTab.Unlock()

	i := strFind(p)
	if i >= 0 {
		return strTab.tab[i]
	}

	data := make([]byte, len(p))
	copy(data, p)
	s := &Str{data: data, strhash: strHash(data)}
	strInsert(^i, s)
	return s
}

// StrFromString interns the bytes of s.
func StrFromString(s string) *Str { return StrFromData([]byte(s)) }

// StrFromByte interns a one byte string.
func StrFromByte(c byte) *Str { return StrFromData([]byte{c}) }

// Intern converts an owned buffer to a string, reusing the buffer's
// storage when the contents are not already interned. Any destructor or
// tail attached to the buffer is dropped first. This is the fast path
// used by the format engine; the buffer must not be used afterwards.
func Intern(b *Buf) *Str {
	strTab.Lock()
	defer strTab.Unlock()

	i := strFind(b.data)
	if i >= 0 {
		return strTab.tab[i]
	}

	b.SetDtor(nil)
	b.tail = nil

	s := &Str{data: b.data, strhash: strHash(b.data)}
	strInsert(^i, s)
	return s
}

// Bytes returns the string contents. Callers must not mutate the result.
func (s *Str) Bytes() []byte { return s.data }

// Len returns the string length in bytes.
func (s *Str) Len() int { return len(s.data) }

func (s *Str) String() string { return string(s.data) }

// Cmp orders strings lexicographically.
func (s *Str) Cmp(t *Str) int {
	if s == t {
		return 0
	}
	return bytes.Compare(s.data, t.data)
}

// Concat returns the interned concatenation of s and t.
func (s *Str) Concat(t *Str) *Str {
	b := NewBuf(s.Len() + t.Len())
	b.PushData(s.data)
	b.PushData(t.data)
	return Intern(b)
}

// Subset returns the substring [lower, upper), with negative indices
// counting back from the end. Out of range bounds clamp.
func (s *Str) Subset(lower, upper int) *Str {
	if lower < 0 {
		lower += s.Len()
	}
	if upper < 0 {
		upper += s.Len()
	}
	if lower < 0 {
		lower = 0
	}
	if upper > s.Len() {
		upper = s.Len()
	}
	if lower >= upper {
		return StrFromString("")
	}
	return StrFromData(s.data[lower:upper])
}

func strFromAscii(c byte) int {
	c |= 'a' ^ 'A'
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	}
	return 0xff
}

// digits parses n digits of the given base starting at src[p], returning
// the accumulated value, or -1 if any digit is out of range.
func digits(src []byte, p, n, base int) int {
	if p+n > len(src) {
		return -1
	}
	acc := 0
	for i := 0; i < n; i++ {
		d := strFromAscii(src[p+i])
		if d >= base {
			return -1
		}
		acc = acc*base + d
	}
	return acc
}

// ParseStr parses a quoted string literal from src starting at *pos,
// leaving *pos past the closing quote. Both quote styles and the escape
// set \\ \' \" \f \n \r \t \v \0 \xHH \oOOO \dDDD \bBBBBBBBB are
// recognized. Reports false on a missing or unterminated literal.
func ParseStr(src []byte, pos *int) (*Str, bool) {
	p := *pos
	if p >= len(src) || (src[p] != '\'' && src[p] != '"') {
		return nil, false
	}
	quote := src[p]
	p++

	b := NewBuf(0)
	for p < len(src) && src[p] != quote {
		if src[p] != '\\' {
			b.Push(src[p])
			p++
			continue
		}
		if p+1 >= len(src) {
			break
		}
		switch c := src[p+1]; c {
		case 'b':
			if v := digits(src, p+2, 8, 2); v >= 0 {
				b.Push(byte(v))
				p += 10
				continue
			}
		case 'o':
			if v := digits(src, p+2, 3, 8); v >= 0 {
				b.Push(byte(v))
				p += 5
				continue
			}
		case 'd':
			if v := digits(src, p+2, 3, 10); v >= 0 {
				b.Push(byte(v))
				p += 5
				continue
			}
		case 'x':
			if v := digits(src, p+2, 2, 16); v >= 0 {
				b.Push(byte(v))
				p += 4
				continue
			}
		case '\\', '\'', '"':
			b.Push(c)
			p += 2
			continue
		case 'f':
			b.Push('\f')
			p += 2
			continue
		case 'n':
			b.Push('\n')
			p += 2
			continue
		case 'r':
			b.Push('\r')
			p += 2
			continue
		case 't':
			b.Push('\t')
			p += 2
			continue
		case 'v':
			b.Push('\v')
			p += 2
			continue
		case '0':
			b.Push(0)
			p += 2
			continue
		}
		b.Push('\\')
		p++
	}

	if p >= len(src) || src[p] != quote {
		return nil, false
	}
	*pos = p + 1
	return Intern(b), true
}

// Repr returns the string in quoted, escaped form.
func (s *Str) Repr() *Str {
	b := NewBuf(s.Len() + 2)
	b.Push('\'')
	for _, c := range s.data {
		switch {
		case c == '\\':
			b.PushString(`\\`)
		case c == '\'':
			b.PushString(`\'`)
		case c == '\f':
			b.PushString(`\f`)
		case c == '\n':
			b.PushString(`\n`)
		case c == '\r':
			b.PushString(`\r`)
		case c == '\t':
			b.PushString(`\t`)
		case c == '\v':
			b.PushString(`\v`)
		case c == 0:
			b.PushString(`\0`)
		case c < ' ' || c > '~':
			b.Pushf(`\x%bx`, c)
		default:
			b.Push(c)
		}
	}
	b.Push('\'')
	return Intern(b)
}
