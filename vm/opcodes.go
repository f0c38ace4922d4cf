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

// Op is a bytecode opcode, held in the high nibble of the first
// instruction word.
type Op uint16

// mel Virtual Machine Opcodes.
//
// Grouped by payload form: di ops carry an immediate index that may
// overflow into a second word, da ops carry an 8 bit register or count,
// dab ops carry two register nibbles, and dj ops carry a signed word
// displacement in a second word.
const (
	OpImm Op = iota // d, i: load constant pool entry i
	OpFn            // d, i: new function over code object i closing r0
	OpTbl           // d, n: new table with capacity hint n
	OpMove          // d, a: transfer register a
	OpDup           // d, a: copy register a
	OpDrop          // d:    clear register d
	OpLookup        // d, a, b: chained lookup r[a][r[b]]
	OpLookdn        // d, a, b: as lookup, then drop r[a]
	OpInsert        // d, a, b: non-recursive r[a][r[b]] <- r[d]
	OpAssign        // d, a, b: recursive r[a][r[b]] <- r[d]
	OpJump          // j: relative jump
	OpJtrue         // d, j: jump when r[d] is truthy
	OpJfalse        // d, j: jump when r[d] is nil
	OpCall          // d, fc: call r[d] with arity pair fc
	OpTcall         // d, a: tail call r[d] with a arguments
	OpRet           // d, a: return a values starting at r[d]
)

var opNames = [...]string{
	OpImm:    "imm",
	OpFn:     "fn",
	OpTbl:    "tbl",
	OpMove:   "move",
	OpDup:    "dup",
	OpDrop:   "drop",
	OpLookup: "lookup",
	OpLookdn: "lookdn",
	OpInsert: "insert",
	OpAssign: "assign",
	OpJump:   "jump",
	OpJtrue:  "jtrue",
	OpJfalse: "jfalse",
	OpCall:   "call",
	OpTcall:  "tcall",
	OpRet:    "ret",
}

func (op Op) String() string { return opNames[op&0xf] }
