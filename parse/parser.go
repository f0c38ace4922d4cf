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

package parse

import "github.com/mel-lang/mel/vm"

// precMax is the loosest possible binding, used to seed expressions.
const precMax = 1 << 16

// During code generation an expression result is in one of five states:
// already in the top register, a symbol pending scope lookup, a
// receiver/key pair pending compound lookup, a pending call of known
// arity, or nothing at all.
type state uint8

const (
	stDirect state = iota
	stIndirect
	stScoped
	stCalled
	stNil
)

type expr struct {
	prec   int
	params int
	state  state
	insert bool
}

// frame tracks an argument list, table constructor or assignment pattern
// while it is scanned and emitted.
type frame struct {
	target int
	count  int
	index  int
	depth  int

	unpack  bool // destructuring instead of packing
	insert  bool // declare symbols instead of assigning them
	tabled  bool // contents boxed in a table
	flatten bool // unbox the table onto the stack after emit
	key     bool // last entry was a key/value pair
	call    bool // frame is a single call expression
	expand  bool // trailing .. expand entry
}

// parser drives the lexer and generates code for one function at a time.
// Break and continue sites form linked chains threaded through the
// unresolved jump displacements; -1 marks "not inside a loop".
type parser struct {
	scope *vm.Tbl
	imms  *vm.Tbl
	bc    []uint16

	bchain int
	cchain int

	args byte
	regs int
	sp   int

	l lexer
	m struct {
		val  vm.Value
		prec int
	}
}

func newParser(src []byte, scope *vm.Tbl) *parser {
	p := &parser{
		scope:  vm.NewTblTail(0, scope),
		imms:   vm.NewTbl(0),
		bchain: -1,
		cchain: -1,
		regs:   1,
	}
	p.l = lexer{src: src}
	p.l.next()
	return p
}

// Compile compiles a top-level script against the given scope and
// returns the code object. Failures raise *vm.Error through the
// runtime's non-local exit; Go callers normally go through the parent
// package, which recovers it.
func Compile(src []byte, scope *vm.Tbl) *vm.Code {
	p := newParser(src, scope)
	pending := p.blockStmt(true)
	if p.l.tok != tEnd {
		p.unexpected()
	}
	if pending {
		p.encode(vm.OpRet, p.sp, 1, 0, -1)
	} else {
		p.encode(vm.OpRet, 0, 0, 0, 0)
	}
	return p.compile(false)
}

//// Lexing shortcuts ////

func (p *parser) unexpected() {
	if p.l.tok&tAnyVal != 0 {
		p.l.errorf("unexpected %r", p.l.val)
	}
	what := "end"
	switch {
	case p.l.tok&tTerm != 0:
		what = "terminator"
	case p.l.tok&tSep != 0:
		what = "','"
	case p.l.tok&tLParen != 0:
		what = "'('"
	case p.l.tok&tRParen != 0:
		what = "')'"
	case p.l.tok&tLTable != 0:
		what = "'['"
	case p.l.tok&tRTable != 0:
		what = "']'"
	case p.l.tok&tLBlock != 0:
		what = "'{'"
	case p.l.tok&tRBlock != 0:
		what = "'}'"
	}
	p.l.errorf("unexpected %s", what)
}

func (p *parser) next(tok token) bool {
	return p.l.tok&tok != 0
}

func (p *parser) match(tok token) bool {
	if !p.next(tok) {
		return false
	}
	p.m.val = p.l.val
	p.m.prec = p.l.prec
	p.l.next()
	return true
}

func (p *parser) expect(tok token) {
	if !p.match(tok) {
		p.unexpected()
	}
}

func (p *parser) lookahead(a, b token) bool {
	if !p.next(a) {
		return false
	}
	l := p.l
	if p.match(a) && p.next(b) {
		return true
	}
	p.l = l
	return false
}

//// Encoding operations ////

func (p *parser) encode(op vm.Op, d, a, b, sdiff int) {
	p.sp += sdiff
	if p.sp+1 > p.regs {
		p.regs = p.sp + 1
	}
	p.bc = vm.Encode(p.bc, op, d, a, b)
}

// chain reads the delta stored at a chained jump site.
func (p *parser) chain(site int) int {
	return int(int16(p.bc[site+1])) + 2
}

// patchAll walks a break or continue chain, pointing every site at
// target.
func (p *parser) patchAll(chain, target int) {
	for site := chain; site != 0; {
		prev := p.chain(site)
		vm.Patch(p.bc, site, target)
		if prev == 0 {
			break
		}
		site += prev
	}
}

// immNil stands in for nil in the constant pool table, which cannot hold
// nil keys.
var immNil vm.Value = vm.NewBFn(0, nil)

// imm returns the constant pool index of m, adding it on first use.
func (p *parser) imm(m vm.Value) int {
	if m == nil {
		m = immNil
	}
	if idx := p.imms.Lookup(m); idx != nil {
		return idx.(vm.Num).Int()
	}
	index := p.imms.Len()
	p.imms.Insert(m, vm.NumFromInt(index))
	return index
}

func (p *parser) sym(s string) int {
	return p.imm(vm.StrFromString(s))
}

// scopecheck verifies a referenced symbol is declared somewhere in the
// static scope chain, or records it in the innermost scope on an
// insertion.
func (p *parser) scopecheck(m vm.Value, insert bool) {
	if insert {
		p.scope.Insert(m, immNil)
	} else if p.scope.Lookup(m) == nil {
		p.l.errorf("undefined %r", m)
	}
}

func offset(e *expr) int {
	switch e.state {
	case stIndirect:
		return 2
	case stScoped:
		return 1
	}
	return 0
}

// encload converts any expression state into a value in the register at
// sp+offset.
func (p *parser) encload(e *expr, offset int) {
	switch e.state {
	case stScoped:
		p.encode(vm.OpLookup, p.sp+offset, 0, p.sp, offset)

	case stIndirect:
		p.encode(vm.OpLookdn, p.sp+offset-1, p.sp-1, p.sp, offset-1)

	case stNil:
		p.encode(vm.OpImm, p.sp+offset+1, p.imm(nil), 0, offset+1)

	default:
		if e.state == stCalled {
			n := e.params
			if n == 0xf {
				n = 1
			}
			p.encode(vm.OpCall, p.sp-n, e.params<<4|1, 0, -n)
		}
		if offset != 0 {
			p.encode(vm.OpMove, p.sp+offset, p.sp, 0, offset)
		}
	}
}

// encstore converts an expression state into an assignment target for
// the value at sp-offset.
func (p *parser) encstore(e *expr, insert bool, offset int) {
	op := vm.OpAssign
	if insert {
		op = vm.OpInsert
	}

	switch e.state {
	case stNil:
		p.encode(vm.OpDrop, p.sp-offset, 0, 0, 0)

	case stScoped:
		p.encode(op, p.sp-offset-1, 0, p.sp, -1)

	case stIndirect:
		p.encode(op, p.sp-offset-2, p.sp-1, p.sp, 0)
		p.encode(vm.OpDrop, p.sp-1, 0, 0, -2)

	default:
		p.l.errorf("invalid assignment")
	}
}

// compile finishes the current function, moving the byte array and
// constant pool into the finished code object.
func (p *parser) compile(weak bool) *vm.Code {
	flags := vm.FlagScoped
	if weak {
		flags |= vm.FlagWeak
	}

	imms := make([]vm.Value, p.imms.Len())
	var k, v vm.Value
	for i := 0; p.imms.Next(&i, &k, &v); {
		if k == immNil {
			k = nil
		}
		imms[v.(vm.Num).Int()] = k
	}

	return vm.NewCode(p.args, flags, p.regs, p.scope.Len(), imms, p.bc)
}

//// Scanning rules ////

// The scanning pass walks a frame without emitting code to settle its
// contract (entry count, tabled-ness, whether it is a call) before the
// emitting pass commits to an encoding.

func (p *parser) sblock() {
	depth := p.l.paren
	for p.match(tStmt&^tLBlock) ||
		(p.l.paren > p.l.depth && p.match(tSep)) ||
		(p.l.paren > depth && p.match(tRParen|tRTable)) {
	}

	if p.match(tLBlock) {
		block := p.l.block
		for p.l.block >= block && p.match(tAny) {
		}
	}
}

func (p *parser) sexpr(f *frame, prec int) {
	for p.match(tLParen) {
	}

	for {
		switch {
		case p.match(tLParen):
			depth := p.l.paren
			for p.l.paren >= depth && p.match(tAny) {
			}
			f.call = true

		case p.match(tLTable):
			depth := p.l.paren
			for p.l.paren >= depth && p.match(tAny) {
			}
			f.call = false

		case p.match(tFn | tType | tIf | tWhile | tFor | tElse):
			p.sblock()
			f.call = false

		case p.match(tSym | tNil | tImm | tDot | tArrow):
			f.call = false

		case prec > p.l.prec && p.match(tAnyOp):
			call := p.next(tExpr)
			p.sexpr(f, p.m.prec)
			f.call = call

		case prec > p.l.prec && p.match(tAnd|tOr):
			p.sexpr(f, p.m.prec)
			f.call = false

		default:
			if f.count == 0 && p.l.paren > p.l.depth && p.match(tRParen) {
				continue
			}
			return
		}
	}
}

func (p *parser) sframe(f *frame, update bool) {
	l := p.l
	f.depth = p.l.depth
	p.l.depth = p.l.paren

	for {
		f.call = false
		if !p.next(tExpr &^ tExpand) {
			break
		}

		p.sexpr(f, precMax)
		if p.match(tPair) {
			f.tabled = true
			p.sexpr(f, precMax)
		}

		f.count++
		if p.l.paren == f.depth || !p.match(tSep) {
			break
		}
	}

	if p.match(tExpand) {
		f.expand = true
		p.sexpr(f, precMax)
	}

	p.l.depth = f.depth
	if !update {
		p.l = l
	}

	f.tabled = f.tabled || f.expand || f.count > vm.FrameLen
	f.target = f.count
	f.call = f.call && f.count == 1 && !f.tabled
}

//// Grammar rules ////

func (p *parser) fnDef(weak bool) {
	q := &parser{
		scope:  vm.NewTblTail(0, p.scope),
		imms:   vm.NewTbl(0),
		bchain: -1,
		cchain: -1,
		regs:   1,
		l:      p.l,
	}

	q.expect(tLParen)
	f := frame{unpack: true, insert: true}
	q.sframe(&f, false)
	if f.tabled {
		q.sp = 1
		q.args = 0xf
	} else {
		q.sp = f.count
		q.args = byte(f.count)
	}
	q.pframe(&f)
	q.expect(tRParen)

	q.bodyStmt()
	q.encode(vm.OpRet, 0, 0, 0, 0)

	p.l = q.l

	c := q.compile(weak)
	p.encode(vm.OpFn, p.sp+1, p.imm(c), 0, +1)
}

func (p *parser) ifStmt(isExpr bool) {
	p.expect(tLParen)
	p.expr()
	p.expect(tRParen)

	condOffset := len(p.bc)
	p.encode(vm.OpJfalse, p.sp, 0, 0, 0)
	p.encode(vm.OpDrop, p.sp, 0, 0, -1)

	if isExpr {
		p.expr()
	} else {
		p.stmt()
	}

	if p.next(tElse) || (!isExpr && p.lookahead(tTerm, tElse)) {
		p.expect(tElse)
		exitOffset := len(p.bc)
		sd := 0
		if isExpr {
			sd = -1
		}
		p.encode(vm.OpJump, 0, 0, 0, sd)
		elseOffset := len(p.bc)

		if isExpr {
			p.expr()
		} else {
			p.stmt()
		}

		vm.Patch(p.bc, condOffset, elseOffset)
		vm.Patch(p.bc, exitOffset, len(p.bc))
	} else if !isExpr {
		vm.Patch(p.bc, condOffset, len(p.bc))
	} else {
		p.unexpected()
	}
}

func (p *parser) whileStmt() {
	whileOffset := len(p.bc)
	p.expect(tLParen)
	p.expr()
	p.expect(tRParen)

	condOffset := len(p.bc)
	p.encode(vm.OpJfalse, p.sp, 0, 0, 0)
	p.encode(vm.OpDrop, p.sp, 0, 0, -1)

	bchain, cchain := p.bchain, p.cchain
	p.bchain, p.cchain = 0, 0

	p.stmt()

	p.encode(vm.OpJump, 0, whileOffset-len(p.bc), 0, 0)
	vm.Patch(p.bc, condOffset, len(p.bc))

	p.patchAll(p.bchain, len(p.bc))
	p.patchAll(p.cchain, whileOffset)
	p.bchain, p.cchain = bchain, cchain
}

func (p *parser) forStmt() {
	p.expect(tLParen)
	ll := p.l
	f := frame{unpack: true, insert: true}
	p.sframe(&f, true)

	p.expect(tAssign)
	if f.count == 0 && !f.tabled {
		p.l.errorf("invalid assignment")
	}

	p.encode(vm.OpImm, p.sp+1, p.sym(vm.KeyIter), 0, +1)
	p.encode(vm.OpLookup, p.sp, 0, p.sp, 0)
	p.expr()
	p.encode(vm.OpCall, p.sp-1, 0x11, 0, -1)

	forOffset := len(p.bc)
	var condOffset int
	p.encode(vm.OpDup, p.sp+1, p.sp, 0, +1)
	if f.tabled {
		p.encode(vm.OpCall, p.sp, 0x0f, 0, 0)
		p.encode(vm.OpImm, p.sp+1, p.imm(vm.NumFromInt(0)), 0, +1)
		p.encode(vm.OpLookup, p.sp, p.sp-1, p.sp, 0)
		condOffset = len(p.bc)
		p.encode(vm.OpJfalse, p.sp, 0, 0, 0)
		p.encode(vm.OpDrop, p.sp, 0, 0, -1)
	} else {
		p.encode(vm.OpCall, p.sp, f.count, 0, f.count-1)
		condOffset = len(p.bc)
		p.encode(vm.OpJfalse, p.sp-f.count+1, 0, 0, 0)
	}
	count := 1
	if !f.tabled {
		count = f.count
	}
	lr := p.l
	p.l = ll

	p.pframe(&f)
	p.expect(tAssign)
	p.l = lr
	p.expect(tRParen)

	bchain, cchain := p.bchain, p.cchain
	p.bchain, p.cchain = 0, 0

	p.stmt()

	p.encode(vm.OpJump, 0, forOffset-len(p.bc), 0, 0)
	vm.Patch(p.bc, condOffset, len(p.bc))
	for i := 0; i < count; i++ {
		p.encode(vm.OpDrop, p.sp+1+i, 0, 0, 0)
	}

	p.patchAll(p.bchain, len(p.bc))
	p.patchAll(p.cchain, forOffset)
	p.bchain, p.cchain = bchain, cchain

	p.encode(vm.OpDrop, p.sp, 0, 0, -1)
}

func (p *parser) expr() {
	depth := p.l.depth
	p.l.depth = p.l.paren
	e := expr{prec: precMax}
	p.subexpr(&e)
	p.encload(&e, 0)
	p.l.depth = depth
}

func (p *parser) subexpr(e *expr) {
	switch {
	case p.match(tLParen):
		prec := e.prec
		e.prec = precMax
		p.subexpr(e)
		e.prec = prec
		p.expect(tRParen)
		p.postexpr(e)

	case p.match(tLTable):
		f := frame{}
		p.sframe(&f, false)
		f.tabled = true
		p.pframe(&f)
		p.expect(tRTable)
		e.state = stDirect
		p.postexpr(e)

	case p.lookahead(tAnyOp, tExpr):
		p.scopecheck(p.m.val, false)
		p.encode(vm.OpImm, p.sp+1, p.imm(p.m.val), 0, +1)
		p.encode(vm.OpLookup, p.sp, 0, p.sp, 0)
		prec := e.prec
		e.prec = p.m.prec
		p.subexpr(e)
		e.prec = prec
		p.encload(e, 0)
		e.state = stCalled
		e.params = 1
		p.postexpr(e)

	case p.match(tFn):
		p.fnDef(false)
		e.state = stDirect
		p.postexpr(e)

	case p.match(tIf):
		p.ifStmt(true)
		e.state = stDirect
		p.postexpr(e)

	case p.match(tImm):
		p.encode(vm.OpImm, p.sp+1, p.imm(p.m.val), 0, +1)
		e.state = stDirect
		p.postexpr(e)

	case p.match(tNil):
		e.state = stNil
		p.postexpr(e)

	case p.match(tSym | tAnyOp):
		p.scopecheck(p.m.val, e.insert)
		p.encode(vm.OpImm, p.sp+1, p.imm(p.m.val), 0, +1)
		e.state = stScoped
		p.postexpr(e)

	default:
		p.unexpected()
	}
}

func (p *parser) postexpr(e *expr) {
	switch {
	case p.match(tLParen):
		p.encload(e, 0)
		f := frame{}
		p.sframe(&f, false)
		f.tabled = f.tabled || f.call
		p.pframe(&f)
		p.expect(tRParen)
		e.state = stCalled
		if f.tabled {
			e.params = 0xf
		} else {
			e.params = f.count
		}
		p.postexpr(e)

	case p.match(tLTable):
		p.encload(e, 0)
		p.expr()
		p.expect(tRTable)
		e.state = stIndirect
		p.postexpr(e)

	case p.match(tDot):
		p.expect(tAnySym)
		p.encload(e, 0)
		p.encode(vm.OpImm, p.sp+1, p.imm(p.m.val), 0, +1)
		e.state = stIndirect
		p.postexpr(e)

	case p.match(tArrow):
		p.expect(tAnySym)
		sym := p.m.val
		if p.next(tLParen) {
			l := p.l
			p.expect(tLParen)
			f := frame{}
			p.sframe(&f, false)
			if !f.tabled && !f.call && f.target != vm.FrameLen {
				p.encload(e, 1)
				p.encode(vm.OpImm, p.sp-1, p.imm(sym), 0, 0)
				p.encode(vm.OpLookup, p.sp-1, p.sp, p.sp-1, 0)
				p.pframe(&f)
				p.expect(tRParen)
				e.state = stCalled
				e.params = f.count + 1
				p.postexpr(e)
				return
			}
			p.l = l
		}
		p.encload(e, 2)
		p.encode(vm.OpImm, p.sp-1, p.imm(sym), 0, 0)
		p.encode(vm.OpLookup, p.sp-1, p.sp, p.sp-1, 0)
		p.encode(vm.OpImm, p.sp-2, p.sym(vm.KeyBind), 0, 0)
		p.encode(vm.OpLookup, p.sp-2, 0, p.sp-2, 0)
		p.encode(vm.OpCall, p.sp-2, 0x21, 0, -2)
		e.state = stDirect
		p.postexpr(e)

	case e.prec > p.l.prec && p.match(tAnyOp):
		p.encload(e, 1)
		p.scopecheck(p.m.val, false)
		p.encode(vm.OpImm, p.sp-1, p.imm(p.m.val), 0, 0)
		p.encode(vm.OpLookup, p.sp-1, 0, p.sp-1, 0)
		prec := e.prec
		e.prec = p.m.prec
		p.subexpr(e)
		p.encload(e, 0)
		e.prec = prec
		e.state = stCalled
		e.params = 2
		p.postexpr(e)

	case e.prec > p.l.prec && p.match(tAnd):
		p.encload(e, 0)
		offset := len(p.bc)
		p.encode(vm.OpJfalse, p.sp, 0, 0, 0)
		p.encode(vm.OpDrop, p.sp, 0, 0, -1)
		prec := e.prec
		e.prec = p.m.prec
		p.subexpr(e)
		p.encload(e, 0)
		e.prec = prec
		vm.Patch(p.bc, offset, len(p.bc))
		e.state = stDirect
		p.postexpr(e)

	case e.prec > p.l.prec && p.match(tOr):
		p.encload(e, 0)
		offset := len(p.bc)
		p.encode(vm.OpJtrue, p.sp, 0, 0, -1)
		prec := e.prec
		e.prec = p.m.prec
		p.subexpr(e)
		p.encload(e, 0)
		e.prec = prec
		vm.Patch(p.bc, offset, len(p.bc))
		e.state = stDirect
		p.postexpr(e)
	}
}

func (p *parser) entry(f *frame) {
	e := expr{prec: precMax, insert: f.insert}
	f.key = false

	if p.lookahead(tAnySym, tPair) {
		p.encode(vm.OpImm, p.sp+1, p.imm(p.m.val), 0, +1)
		e.state = stDirect
		f.key = true
	} else if !(f.unpack && p.next(tLTable)) {
		p.subexpr(&e)

		for f.count == 0 && p.l.paren > p.l.depth && p.match(tRParen) {
			e.prec = precMax
			p.postexpr(&e)
		}
	}

	if p.match(tPair) {
		if f.unpack && f.expand {
			p.encload(&e, 1)
			p.encode(vm.OpImm, p.sp+1, p.imm(nil), 0, +1)
			p.encode(vm.OpLookup, p.sp-2, p.sp-3, p.sp-1, 0)
			p.encode(vm.OpInsert, p.sp, p.sp-3, p.sp-1, -2)
		} else if f.unpack {
			p.encload(&e, 0)
			if f.count == f.target-1 {
				p.encode(vm.OpLookdn, p.sp, p.sp-1, p.sp, -1)
			} else {
				p.encode(vm.OpLookup, p.sp, p.sp-1, p.sp, 0)
			}
		} else {
			p.encload(&e, 0)
		}

		if f.key && !p.next(tExpr) {
			p.encode(vm.OpImm, p.sp+1, p.imm(p.m.val), 0, +1)
			e.state = stScoped
		} else if !(f.unpack && p.next(tLTable)) {
			p.subexpr(&e)
		}

		f.key = true
	} else if f.tabled {
		if f.unpack && f.expand {
			p.encode(vm.OpImm, p.sp+1, p.sym(vm.KeyPop), 0, +1)
			p.encode(vm.OpLookup, p.sp, 0, p.sp, 0)
			p.encode(vm.OpDup, p.sp+1, p.sp-1-offset(&e), 0, +1)
			p.encode(vm.OpImm, p.sp+1, p.imm(vm.NumFromInt(f.index)), 0, +1)
			p.encode(vm.OpCall, p.sp-2, 0x21, 0, -2)
		} else if f.unpack {
			p.encode(vm.OpImm, p.sp+1, p.imm(vm.NumFromInt(f.index)), 0, +1)
			if f.count == f.target-1 {
				p.encode(vm.OpLookdn, p.sp, p.sp-1-offset(&e), p.sp, 0)
			} else {
				p.encode(vm.OpLookup, p.sp, p.sp-1-offset(&e), p.sp, 0)
			}
		}
	} else {
		if f.unpack && p.next(tLTable) && f.count < f.target-1 {
			p.encode(vm.OpMove, p.sp+1, p.sp-(f.target-1-f.count), 0, +1)
		}
	}

	if f.unpack && p.match(tLTable) {
		nf := frame{unpack: true, insert: f.insert}
		p.sframe(&nf, false)
		nf.tabled = true
		p.pframe(&nf)
		if f.tabled || f.count < f.target-1 {
			p.sp--
		}
		f.count--
		p.expect(tRTable)
	} else if f.unpack {
		if f.key {
			p.encstore(&e, f.insert, 0)
			p.sp--
		} else if f.tabled {
			p.sp--
			p.encstore(&e, f.insert, -(offset(&e) + 1))
		} else {
			p.encstore(&e, f.insert, f.target-1-f.count)
		}
	} else {
		p.encload(&e, 0)

		if f.key {
			p.encode(vm.OpInsert, p.sp, p.sp-2, p.sp-1, -2)
		} else if f.tabled {
			p.encode(vm.OpImm, p.sp+1, p.imm(vm.NumFromInt(f.index)), 0, +1)
			p.encode(vm.OpInsert, p.sp-1, p.sp-2, p.sp, -2)
		} else if f.count >= f.target {
			p.encode(vm.OpDrop, p.sp, 0, 0, -1)
		}
	}
}

func (p *parser) pframe(f *frame) {
	if !f.unpack && f.call {
		e := expr{prec: precMax, insert: f.insert}
		p.subexpr(&e)
		n := e.params
		if n == 0xf {
			n = 1
		}
		rets := f.target
		if f.tabled {
			rets = 0xf
		}
		sd := f.target
		if f.tabled {
			sd = 1
		}
		p.encode(vm.OpCall, p.sp-n, e.params<<4|rets, 0, sd-n-1)
		return
	} else if !f.unpack && f.tabled && !f.call &&
		!(f.expand && f.target == 0) {
		p.encode(vm.OpTbl, p.sp+1, f.count, 0, +1)
	}

	f.count = 0
	f.index = 0
	f.depth = p.l.depth
	p.l.depth = p.l.paren

	for p.match(tLParen) {
	}

	for {
		if !p.next(tExpr) || p.match(tExpand) {
			break
		}

		p.entry(f)
		if !f.key {
			f.index++
		}
		f.count++
		if p.l.paren == f.depth || !p.match(tSep) {
			break
		}
	}

	if f.expand {
		if f.unpack {
			e := expr{prec: precMax, insert: f.insert}
			p.subexpr(&e)
			p.encstore(&e, f.insert, 0)
			p.sp--
		} else if f.count > 0 {
			p.encode(vm.OpMove, p.sp+1, p.sp, 0, +1)
			p.encode(vm.OpImm, p.sp-1, p.sym(vm.KeyConcat), 0, 0)
			p.encode(vm.OpLookup, p.sp-1, 0, p.sp-1, 0)
			p.expr()
			p.encode(vm.OpImm, p.sp+1, p.imm(vm.NumFromInt(f.index)), 0, +1)
			p.encode(vm.OpCall, p.sp-3, 0x31, 0, -3)
		} else {
			p.expr()
		}
	}

	if f.unpack && !f.tabled {
		p.sp -= f.count
	} else if !f.unpack && f.tabled && f.flatten {
		p.encode(vm.OpMove, p.sp+f.target, p.sp, 0, +f.target)

		for i := 0; i < f.target; i++ {
			p.encode(vm.OpImm, p.sp-1-(f.target-1-i),
				p.imm(vm.NumFromInt(i)), 0, 0)
			if i == f.target-1 {
				p.encode(vm.OpLookdn, p.sp-1-(f.target-1-i), p.sp,
					p.sp-1-(f.target-1-i), -1)
			} else {
				p.encode(vm.OpLookup, p.sp-1-(f.target-1-i), p.sp,
					p.sp-1-(f.target-1-i), 0)
			}
		}
	} else if !f.unpack && !f.tabled {
		for f.target > f.count {
			p.encode(vm.OpImm, p.sp+1, p.imm(nil), 0, +1)
			f.count++
		}
	}

	for p.l.paren > p.l.depth {
		p.expect(tRParen)
	}

	if p.next(tExpr) {
		p.unexpected()
	}

	p.l.depth = f.depth
}

// predeclare records the symbols of a let pattern in the innermost
// scope before the right hand side compiles, so a let-bound function
// can refer to itself. Symbols in key position are left alone.
func (p *parser) predeclare(l lexer) {
	for l.tok&tAssign == 0 && l.tok != tEnd {
		if l.tok&tSym != 0 {
			sym := l.val
			l.next()
			if l.tok&tPair == 0 {
				p.scope.Insert(sym, immNil)
			}
			continue
		}
		l.next()
	}
}

func (p *parser) assign(insert bool) {
	ll := p.l
	fl := frame{insert: insert}
	p.sframe(&fl, true)

	if p.match(tAssign) {
		if insert {
			p.predeclare(ll)
		}
		fr := frame{}
		p.sframe(&fr, false)

		if (fr.count == 0 && !fr.tabled) || (fl.count == 0 && !fl.tabled) {
			p.l.errorf("invalid assignment")
		}

		fr.tabled = fr.tabled || fl.tabled
		fr.target = fl.count
		fr.flatten = !fl.tabled
		p.pframe(&fr)

		lr := p.l
		p.l = ll

		fl.unpack = true
		p.pframe(&fl)
		p.expect(tAssign)
		p.l = lr
	} else if !insert {
		p.l = ll

		fl.unpack = false
		fl.tabled = false
		fl.target = 0
		p.pframe(&fl)
	} else {
		p.unexpected()
	}
}

func (p *parser) retStmt() {
	// Remove any leftover loop iterators before leaving the frame.
	sp := p.sp
	for p.sp != 0 {
		p.encode(vm.OpDrop, p.sp, 0, 0, -1)
	}

	f := frame{}
	p.sframe(&f, false)

	if f.call {
		e := expr{prec: precMax}
		p.subexpr(&e)
		n := e.params
		if n == 0xf {
			n = 1
		}
		p.encode(vm.OpTcall, p.sp-n, e.params, 0, -n-1)
	} else {
		p.pframe(&f)
		rc := f.count
		sd := f.count
		if f.tabled {
			rc = 0xf
			sd = 1
		}
		p.encode(vm.OpRet, p.sp-(sd-1), rc, 0, -sd)
	}

	p.sp = sp
}

// fnStmt compiles a named function definition, the fn name already
// matched by a successful lookahead.
func (p *parser) fnStmt() {
	p.expect(tAnySym | tAnyOp)
	sym := p.m.val
	p.scopecheck(sym, true)
	p.fnDef(true)
	p.encode(vm.OpImm, p.sp+1, p.imm(sym), 0, +1)
	p.encode(vm.OpInsert, p.sp-1, 0, p.sp, -2)
}

// bodyStmt compiles the single statement forming a function body. A
// bare expression in this position is the function's result and
// compiles through the return path, so a body that is a single call
// becomes a tail call; an if statement keeps both branches in result
// position.
func (p *parser) bodyStmt() {
	switch {
	case p.next(tLBlock | tLet | tWhile | tFor |
		tContinue | tBreak | tArrow | tReturn):
		p.stmt()

	case p.lookahead(tFn, tAnySym|tAnyOp):
		p.fnStmt()

	case p.match(tIf):
		p.ifBody()

	default:
		l := p.l
		fl := frame{}
		p.sframe(&fl, true)
		isAssign := p.next(tAssign)
		p.l = l
		if isAssign {
			p.assign(false)
		} else {
			p.retStmt()
		}
	}
}

// ifBody is the if statement in result position: both branches compile
// as function bodies.
func (p *parser) ifBody() {
	p.expect(tLParen)
	p.expr()
	p.expect(tRParen)

	condOffset := len(p.bc)
	p.encode(vm.OpJfalse, p.sp, 0, 0, 0)
	p.encode(vm.OpDrop, p.sp, 0, 0, -1)

	p.bodyStmt()

	if p.next(tElse) || p.lookahead(tTerm, tElse) {
		p.expect(tElse)
		exitOffset := len(p.bc)
		p.encode(vm.OpJump, 0, 0, 0, 0)
		vm.Patch(p.bc, condOffset, len(p.bc))
		p.bodyStmt()
		vm.Patch(p.bc, exitOffset, len(p.bc))
	} else {
		vm.Patch(p.bc, condOffset, len(p.bc))
	}
}

// rootStmt compiles one top-level statement. A bare single expression
// keeps its value on the stack and reports it pending, so the last one
// becomes the script's result.
func (p *parser) rootStmt() bool {
	switch {
	case p.next(tLBlock | tLet | tWhile | tFor |
		tContinue | tBreak | tArrow | tReturn | tIf):
		p.stmt()

	case p.lookahead(tFn, tAnySym|tAnyOp):
		p.fnStmt()

	default:
		l := p.l
		fl := frame{}
		p.sframe(&fl, true)
		isAssign := p.next(tAssign)
		p.l = l
		if isAssign || fl.count != 1 || fl.tabled || fl.expand {
			p.assign(false)
			return false
		}
		p.expr()
		return true
	}
	return false
}

func (p *parser) stmt() {
	switch {
	case p.next(tLBlock):
		p.blockStmt(false)

	case p.lookahead(tFn, tAnySym|tAnyOp):
		p.fnStmt()

	case p.match(tIf):
		p.ifStmt(false)

	case p.match(tWhile):
		p.whileStmt()

	case p.match(tFor):
		p.forStmt()

	case p.match(tBreak):
		if p.bchain == -1 {
			p.l.errorf("break outside of loop")
		}

		offset := len(p.bc)
		delta := 0
		if p.bchain != 0 {
			delta = p.bchain - offset
		}
		p.encode(vm.OpJump, 0, delta, 0, 0)
		p.bchain = offset

	case p.match(tContinue):
		if p.bchain == -1 {
			p.l.errorf("continue outside of loop")
		}

		offset := len(p.bc)
		delta := 0
		if p.cchain != 0 {
			delta = p.cchain - offset
		}
		p.encode(vm.OpJump, 0, delta, 0, 0)
		p.cchain = offset

	case p.match(tArrow | tReturn):
		p.retStmt()

	case p.match(tLet):
		p.assign(true)

	default:
		p.assign(false)
	}
}

func (p *parser) blockStmt(root bool) bool {
	block := p.l.block
	paren := p.l.paren
	p.l.paren = 0
	depth := p.l.depth
	p.l.depth = depthMax

	for p.match(tLBlock) {
	}

	pending := false
	for {
		if pending {
			p.encode(vm.OpDrop, p.sp, 0, 0, -1)
			pending = false
		}
		if root {
			pending = p.rootStmt()
		} else {
			p.stmt()
		}
		if !(root || p.l.block > block) ||
			!p.match(tTerm|tLBlock|tRBlock) {
			break
		}
	}

	if p.l.block > block {
		p.expect(tRBlock)
	}

	p.l.paren = paren
	p.l.depth = depth
	return pending
}
