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

// Exec interprets c with r0 seeded from scope and the arguments taken
// from fr. Return values are copied back into fr and the callee's return
// count is returned. Tail calls into compiled functions loop back to the
// entry instead of recursing, so tail recursive chains use constant host
// stack.
func Exec(c *Code, scope *Tbl, fr *Frame) byte {
reenter:
	nregs := c.Regs
	if nregs < 1 {
		nregs = 1
	}
	regs := make([]Value, nregs)
	regs[0] = scope
	copy(regs[1:], fr[:FrameCount(c.Args)])

	imms := c.Imms
	bc := c.Bc
	pc := 0

	for {
		ins := bc[pc]
		pc++
		op := Op(ins >> 12)
		d := int(ins >> 8 & 0xf)

		switch op {
		case OpImm, OpFn, OpTbl:
			i := int(ins & 0xff)
			if i == extPayload {
				i = int(bc[pc])
				pc++
			}
			switch op {
			case OpImm:
				regs[d] = imms[i]
			case OpFn:
				code, ok := imms[i].(*Code)
				if !ok {
					Errorf("unable to make function from %r", imms[i])
				}
				closure, _ := regs[0].(*Tbl)
				regs[d] = FnFromCode(code, closure)
			default:
				regs[d] = NewTbl(i)
			}

		case OpMove:
			regs[d] = regs[ins&0xff]

		case OpDup:
			regs[d] = regs[ins&0xff]

		case OpDrop:
			regs[d] = nil

		case OpLookup, OpLookdn:
			a, b := int(ins>>4&0xf), int(ins&0xf)
			var v Value
			switch recv := regs[a].(type) {
			case *Tbl:
				v = recv.Lookup(regs[b])
			case *Buf:
				v = recv.Lookup(regs[b])
			default:
				Errorf("unable to lookup %r in %r", regs[b], regs[a])
			}
			if op == OpLookdn {
				regs[a] = nil
			}
			regs[d] = v

		case OpInsert:
			a, b := int(ins>>4&0xf), int(ins&0xf)
			recv, ok := regs[a].(*Tbl)
			if !ok {
				Errorf("unable to insert %r to %r in %r",
					regs[d], regs[b], regs[a])
			}
			recv.Insert(regs[b], regs[d])

		case OpAssign:
			a, b := int(ins>>4&0xf), int(ins&0xf)
			recv, ok := regs[a].(*Tbl)
			if !ok {
				Errorf("unable to assign %r to %r in %r",
					regs[d], regs[b], regs[a])
			}
			recv.Assign(regs[b], regs[d])

		case OpJump, OpJtrue, OpJfalse:
			j := int(int8(ins & 0xff))
			if j == -1 {
				j = int(int16(bc[pc]))
				pc++
			}
			switch op {
			case OpJump:
				pc += j
			case OpJtrue:
				if regs[d] != nil {
					pc += j
				}
			default:
				if regs[d] == nil {
					pc += j
				}
			}

		case OpCall:
			fc := byte(ins & 0xff)
			f, ok := regs[d].(*Fn)
			if !ok {
				Errorf("unable to call %r", regs[d])
			}
			var cfr Frame
			copy(cfr[:FrameCount(fc>>4)], regs[d+1:])
			f.FCall(fc, &cfr)
			regs[d] = nil
			copy(regs[d:], cfr[:FrameCount(fc&0xf)])

		case OpTcall:
			fc := byte(ins & 0xff)
			scratch := regs[d]
			copy(fr[:FrameCount(fc)], regs[d+1:])

			f, ok := scratch.(*Fn)
			if !ok {
				Errorf("unable to call %r", scratch)
			}

			// Re-enter directly when the target is compiled code so a
			// tail recursive chain reuses this frame.
			if f.code != nil {
				fr.Convert(fc, f.code.Args)
				closure, _ := f.closure.(*Tbl)
				c = f.code
				scope = NewTblTail(c.Locals, closure)
				goto reenter
			}
			return f.TCall(fc, fr)

		default: // OpRet
			rc := byte(ins & 0xff)
			copy(fr[:FrameCount(rc)], regs[d:])
			return rc
		}
	}
}
