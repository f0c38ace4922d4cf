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

// FrameLen is the size of a calling frame. Calls that pass or return more
// values use a count of 0xf and box the true contents in a table carried
// in the first slot.
const FrameLen = 4

// Frame is the fixed scratch array used to pass arguments and return
// values across call boundaries. Callers encode an arity pair in one
// byte: the high nibble is the argument count, the low nibble the
// expected return count, 0xf marking the variadic convention on either
// side.
type Frame [FrameLen]Value

// FrameCount returns the number of frame slots occupied by a count
// nibble: fc itself, or one when the contents are boxed in a table.
func FrameCount(fc byte) int {
	if fc > FrameLen {
		return 1
	}
	return int(fc)
}

// Convert adjusts the frame in place from a source count to a
// destination count, padding missing slots with nil, dropping excess
// values, and boxing or unboxing a table when either side is variadic.
func (fr *Frame) Convert(sc, dc byte) {
	switch {
	case sc > FrameLen && dc > FrameLen:
		// both tabled, nothing to do

	case dc > FrameLen:
		t := NewTbl(int(sc))
		for i := byte(0); i < sc; i++ {
			t.Insert(NumFromInt(int(i)), fr[i])
		}
		fr[0] = t

	case sc > FrameLen:
		t, ok := fr[0].(*Tbl)
		if !ok && fr[0] != nil {
			Errorf("unable to unpack %r", fr[0])
		}
		for i := byte(0); i < dc; i++ {
			if ok {
				fr[i] = t.get(NumFromInt(int(i)))
			} else {
				fr[i] = nil
			}
		}

	default:
		for i := dc; i < sc; i++ {
			fr[i] = nil
		}
		for i := sc; i < dc; i++ {
			fr[i] = nil
		}
	}
}
