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

// Instruction layout: 4 bit opcode, 4 bit destination register, 8 bit
// payload. A payload of 0xff in the first word selects the two word form
// whose second word carries the full 16 bit payload; jump instructions
// always use it so their displacement can be patched in place.

const extPayload = 0xff

func checkBcode(ok bool) {
	if !ok {
		Errorf("exceeded bytecode limits")
	}
}

// Encode appends one instruction to bc and returns the extended slice.
// The meaning of a and b depends on the opcode family; for jumps, a is
// the displacement in words measured from the start of the instruction.
func Encode(bc []uint16, op Op, d, a, b int) []uint16 {
	checkBcode(op <= 0xf && d >= 0 && d <= 0xf)
	ins := uint16(op)<<12 | uint16(d)<<8

	switch {
	case op >= OpMove && op <= OpDrop || op >= OpCall && op <= OpRet:
		checkBcode(a >= 0 && a <= 0xff)
		return append(bc, ins|uint16(a))

	case op >= OpLookup && op <= OpAssign:
		checkBcode(a >= 0 && a <= 0xf && b >= 0 && b <= 0xf)
		return append(bc, ins|uint16(a)<<4|uint16(b))

	case op >= OpImm && op <= OpTbl:
		checkBcode(a >= 0 && a < 0xffff)
		if a >= extPayload {
			return append(bc, ins|extPayload, uint16(a))
		}
		return append(bc, ins|uint16(a))

	default: // jumps
		j := a - 2
		checkBcode(j >= -0x8000 && j <= 0x7fff)
		return append(bc, ins|extPayload, uint16(int16(j)))
	}
}

// Patch rewrites the displacement of the jump instruction at site so it
// lands on target (both in words from the start of the code).
func Patch(bc []uint16, site, target int) {
	j := target - site - 2
	checkBcode(j >= -0x8000 && j <= 0x7fff)
	bc[site+1] = uint16(int16(j))
}
