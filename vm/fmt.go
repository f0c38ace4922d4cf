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

// The runtime's single printf-style consumer. Directives:
//
//	%%   literal percent
//	%c   single byte
//	%s   byte string (string or []byte argument)
//	%u   unsigned integer
//	%d   signed integer
//	%x   lowercase hex
//	%m   a value, rendered via its default conversion
//	%r   a value, rendered via its printable representation
//	%n   the next directive consumes a width argument
//	%w %h %q %b   width modifier (word / half / quarter / byte)
//
// For %x the width selects the number of bytes rendered; for %r it bounds
// the representation depth, with zero collapsing composite values to a
// placeholder.

// reprDepth bounds %r output when no explicit width is given.
const reprDepth = 3

const (
	sizeDefault = -1
	sizeArg     = -2
)

func fmtInt(arg interface{}) int64 {
	switch v := arg.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case Num:
		return int64(v.Int())
	}
	Errorf("invalid format argument")
	return 0
}

func fmtValue(arg interface{}) Value {
	if arg == nil {
		return nil
	}
	if v, ok := arg.(Value); ok {
		return v
	}
	Errorf("invalid format argument")
	return nil
}

func (b *Buf) pushUint(u uint64) {
	if u == 0 {
		b.Push('0')
		return
	}
	var tmp [20]byte
	i := len(tmp)
	for u > 0 {
		i--
		tmp[i] = byte('0' + u%10)
		u /= 10
	}
	b.PushData(tmp[i:])
}

func (b *Buf) pushInt(d int64) {
	if d < 0 {
		b.Push('-')
		d = -d
	}
	b.pushUint(uint64(d))
}

func (b *Buf) pushHex(x uint64, n int) {
	for j := 2*n - 1; j >= 0; j-- {
		b.Push(numAscii(int(x >> uint(4*j) & 0xf)))
	}
}

// Pushf appends the formatted text to the buffer.
func (b *Buf) Pushf(f string, args ...interface{}) {
	arg := 0
	next := func() interface{} {
		if arg >= len(args) {
			Errorf("invalid format argument")
		}
		a := args[arg]
		arg++
		return a
	}

	for i := 0; i < len(f); i++ {
		if f[i] != '%' {
			b.Push(f[i])
			continue
		}
		i++
		if i >= len(f) {
			Errorf("invalid format argument")
		}

		size := sizeDefault
		switch f[i] {
		case 'n':
			i, size = i+1, sizeArg
		case 'w':
			i, size = i+1, 8
		case 'h':
			i, size = i+1, 4
		case 'q':
			i, size = i+1, 2
		case 'b':
			i, size = i+1, 1
		}
		if i >= len(f) {
			Errorf("invalid format argument")
		}

		width := func() int {
			if size == sizeArg {
				return int(fmtInt(next()))
			}
			return size
		}

		switch f[i] {
		case '%':
			b.Push('%')

		case 'm':
			v := fmtValue(next())
			n := width()
			if n < 0 {
				n = reprDepth
			}
			b.PushData(Dump(v, n))

		case 'r':
			v := fmtValue(next())
			n := width()
			if n < 0 {
				n = reprDepth
			}
			b.PushData(Repr(v, n).Bytes())

		case 's':
			switch s := next().(type) {
			case string:
				b.PushString(s)
			case []byte:
				b.PushData(s)
			case *Str:
				b.PushData(s.Bytes())
			default:
				Errorf("invalid format argument")
			}

		case 'u':
			b.pushUint(uint64(fmtInt(next())))

		case 'd':
			b.pushInt(fmtInt(next()))

		case 'x':
			x := uint64(fmtInt(next()))
			n := width()
			if n < 0 {
				n = 4
			}
			b.pushHex(x, n)

		case 'c':
			b.Push(byte(fmtInt(next())))

		default:
			Errorf("invalid format argument")
		}
	}
}

// Format renders f into a fresh interned string.
func Format(f string, args ...interface{}) *Str {
	b := NewBuf(len(f))
	b.Pushf(f, args...)
	return Intern(b)
}
