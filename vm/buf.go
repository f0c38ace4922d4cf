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

import "runtime"

// maxLen is the maximum addressable length of a buffer, string or table.
const maxLen = 1<<31 - 1

// minAlloc keeps very small buffers from reallocating on every push.
const minAlloc = 32

// Buf is a mutable byte sequence. A buffer may carry a destructor, run
// when the buffer is reclaimed, and a tail table that provides read-only
// attribute lookup (the cdata method convention).
type Buf struct {
	id   uint64
	data []byte
	dtor func(*Buf)
	tail *Tbl
}

// Type implements Value.
func (*Buf) Type() Type { return TypeBuf }

// NewBuf returns an empty buffer with room for n bytes.
func NewBuf(n int) *Buf {
	if n > maxLen {
		errorLen("buffer")
	}
	return &Buf{id: nextID(), data: make([]byte, 0, n)}
}

// BufFromData returns a buffer holding a copy of p.
func BufFromData(p []byte) *Buf {
	b := NewBuf(len(p))
	b.data = b.data[:len(p)]
	copy(b.data, p)
	return b
}

// Bytes returns the buffer contents. The slice aliases the buffer's
// storage until the next growth.
func (b *Buf) Bytes() []byte { return b.data }

// Len returns the number of bytes in the buffer.
func (b *Buf) Len() int { return len(b.data) }

// Resize sets the buffer length to n, zero filling any growth.
func (b *Buf) Resize(n int) {
	if n > maxLen {
		errorLen("buffer")
	}
	if n <= cap(b.data) {
		if n > len(b.data) {
			tail := b.data[len(b.data):n]
			for i := range tail {
				tail[i] = 0
			}
		}
		b.data = b.data[:n]
		return
	}
	data := make([]byte, n)
	copy(data, b.data)
	b.data = data
}

// expand grows the backing store to hold at least n bytes, doubling to
// the next power of two on overflow.
func (b *Buf) expand(n int) {
	if n <= cap(b.data) {
		return
	}
	if n > maxLen {
		errorLen("buffer")
	}
	size := minAlloc
	for size < n {
		size <<= 1
	}
	data := make([]byte, len(b.data), size)
	copy(data, b.data)
	b.data = data
}

// Push appends a single byte.
func (b *Buf) Push(c byte) {
	b.expand(len(b.data) + 1)
	b.data = append(b.data, c)
}

// PushData appends a copy of p.
func (b *Buf) PushData(p []byte) {
	b.expand(len(b.data) + len(p))
	b.data = append(b.data, p...)
}

// PushString appends the bytes of s.
func (b *Buf) PushString(s string) {
	b.expand(len(b.data) + len(s))
	b.data = append(b.data, s...)
}

// SetDtor attaches or replaces the buffer's destructor. The destructor is
// responsible only for whatever resource the buffer wraps; the storage
// itself is reclaimed by the runtime.
func (b *Buf) SetDtor(dtor func(*Buf)) {
	if b.dtor == nil && dtor != nil {
		runtime.SetFinalizer(b, func(b *Buf) {
			if b.dtor != nil {
				b.dtor(b)
			}
		})
	}
	b.dtor = dtor
}

// Dtor returns the attached destructor, nil if none.
func (b *Buf) Dtor() func(*Buf) { return b.dtor }

// SetTail attaches or replaces the buffer's attribute table.
func (b *Buf) SetTail(t *Tbl) { b.tail = t }

// Tail returns the buffer's attribute table, nil if none.
func (b *Buf) Tail() *Tbl { return b.tail }

// Lookup consults the tail's attribute table. Buffers themselves are
// opaque; without a tail every lookup yields nil.
func (b *Buf) Lookup(k Value) Value {
	if b.tail == nil {
		return nil
	}
	return b.tail.Lookup(k)
}
