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

// Tokens are bit flags so the parser can match against sets.
type token uint32

const (
	tTerm token = 1 << iota
	tSep
	tAssign
	tPair
	tLet
	tDot
	tArrow
	tFn
	tType
	tIf
	tWhile
	tFor
	tElse
	tAnd
	tOr
	tContinue
	tBreak
	tReturn
	tSym
	tNil
	tImm
	tOp
	tExpand
	tLParen
	tRParen
	tLTable
	tRTable
	tLBlock
	tRBlock

	tEnd token = 0
)

// Token sets.
const (
	tAnyOp = tOp | tExpand

	tAnySym = tSym | tLet | tFn | tType | tIf |
		tWhile | tFor | tElse | tAnd | tOr |
		tContinue | tBreak | tReturn | tNil

	tAnyVal = tAnySym | tAnyOp | tImm |
		tAssign | tPair | tArrow | tDot

	tExpr = tLParen | tLTable | tFn | tType | tIf |
		tWhile | tFor | tNil | tImm | tSym |
		tOp | tExpand

	tStmt = tExpr | tLBlock | tAssign | tLet | tDot |
		tArrow | tContinue | tBreak | tReturn

	tAny = ^token(0)
)

var keywords = map[string]token{
	"let":      tLet,
	"else":     tElse,
	"and":      tAnd,
	"or":       tOr,
	"continue": tContinue,
	"break":    tBreak,
	"return":   tReturn,
	"fn":       tFn,
	"type":     tType,
	"if":       tIf,
	"while":    tWhile,
	"for":      tFor,
	"nil":      tNil,
	"_":        tNil,
	"=":        tAssign,
	":":        tPair,
	".":        tDot,
	"->":       tArrow,
	"..":       tExpand,
}

// Byte classification for the single pass lexer.
type class uint8

const (
	lNone class = iota
	lTerm
	lSep
	lWs
	lOp
	lKw
	lStr
	lNum

	lLBlock
	lRBlock
	lLTable
	lRTable
	lLParen
	lRParen
)

var classes [256]class

func init() {
	for _, c := range "\t\n\v\f\r #" {
		classes[c] = lWs
	}
	for _, c := range "!$%&*+-./:<=>?@\\^`|~" {
		classes[c] = lOp
	}
	for c := '0'; c <= '9'; c++ {
		classes[c] = lNum
	}
	for c := 'a'; c <= 'z'; c++ {
		classes[c] = lKw
		classes[c&^0x20] = lKw
	}
	classes['_'] = lKw
	classes['\''] = lStr
	classes['"'] = lStr
	classes[';'] = lTerm
	classes[','] = lSep
	classes['{'] = lLBlock
	classes['}'] = lRBlock
	classes['['] = lLTable
	classes[']'] = lRTable
	classes['('] = lLParen
	classes[')'] = lRParen
}

// depthMax stands in for "no enclosing frame": every paren depth
// comparison against it fails.
const depthMax = 1 << 30

// lexer is the lexical analysis state. Copying the struct snapshots the
// position, which is how the parser implements lookahead and the
// two pass frame scans.
type lexer struct {
	src []byte
	pos int

	tok  token
	val  vm.Value
	prec int

	indent int
	depth  int
	block  int
	nblock int
	paren  int
	nparen int
}

// errorf raises a parse error annotated with a line number hint derived
// by counting non-comment newlines up to the current position.
func (l *lexer) errorf(f string, args ...interface{}) {
	b := vm.NewBuf(0)
	b.Pushf(f, args...)

	lines, nlines := 1, 1
	for p := 0; p < l.pos && p < len(l.src); {
		switch c := l.src[p]; {
		case c == '#':
			for p < len(l.src) && l.src[p] != '\n' {
				p++
			}
		case c == '\n':
			nlines++
			p++
		case classes[c] == lWs:
			p++
		default:
			lines = nlines
			p++
		}
	}

	if lines != 1 {
		b.Pushf(" on line %u", lines)
	}
	vm.Throw(b.Bytes())
}

// lexIndent turns a newline run into an implicit block token when the
// indentation changes, a terminator otherwise.
func (l *lexer) lexIndent() {
	nl := -1
	nindent := 0
loop:
	for l.pos < len(l.src) {
		switch {
		case l.src[l.pos] == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case l.src[l.pos] == '\n':
			nl = l.pos
			l.pos++
			nindent = 0
		case classes[l.src[l.pos]] == lWs:
			l.pos++
			nindent++
		default:
			break loop
		}
	}

	if nindent != l.indent {
		if nindent > l.indent {
			l.tok = tLBlock
		} else {
			l.tok = tRBlock
		}
		l.nblock += nindent - l.indent
		l.indent = nindent
		if nl >= 0 {
			l.pos = nl
		}
	} else {
		l.tok = tTerm
	}
}

// lexOp consumes a maximal run of operator bytes.
func (l *lexer) lexOp() {
	begin := l.pos
	l.pos++
	for l.pos < len(l.src) && classes[l.src[l.pos]] == lOp {
		l.pos++
	}
	l.val = vm.StrFromData(l.src[begin:l.pos])
	if tok, ok := keywords[string(l.src[begin:l.pos])]; ok {
		l.tok = tok
	} else {
		l.tok = tOp
	}
}

// lexKw consumes an identifier or keyword.
func (l *lexer) lexKw() {
	begin := l.pos
	l.pos++
	for l.pos < len(l.src) && (classes[l.src[l.pos]] == lKw ||
		classes[l.src[l.pos]] == lNum) {
		l.pos++
	}
	l.val = vm.StrFromData(l.src[begin:l.pos])
	if tok, ok := keywords[string(l.src[begin:l.pos])]; ok {
		l.tok = tok
	} else {
		l.tok = tSym
	}
}

func (l *lexer) lexNum() {
	v, ok := vm.ParseNum(l.src, &l.pos)
	if !ok {
		l.errorf("invalid number literal")
	}
	l.val = v
	l.tok = tImm
}

func (l *lexer) lexStr() {
	v, ok := vm.ParseStr(l.src, &l.pos)
	if !ok {
		l.errorf("unterminated string literal")
	}
	l.val = v
	l.tok = tImm
}

// next advances to the next token. Trailing whitespace contributes to
// the token's right precedence, biasing operator associativity toward
// tighter spacing; inside parens newlines count as plain whitespace.
func (l *lexer) next() {
	l.block = l.nblock
	l.paren = l.nparen
	l.val = nil

	if l.pos >= len(l.src) {
		l.block -= l.indent
		l.tok = tEnd
		return
	}

	switch classes[l.src[l.pos]] {
	case lNone:
		l.errorf("unexpected %c", l.src[l.pos])

	case lWs:
		l.lexIndent()
	case lOp:
		l.prec = 0
		l.lexOp()
	case lKw:
		l.prec = 1
		l.lexKw()
	case lStr:
		l.lexStr()
	case lNum:
		l.lexNum()

	case lTerm:
		l.tok = tTerm
		l.pos++
	case lSep:
		l.tok = tSep
		l.pos++

	case lLBlock:
		l.tok = tLBlock
		l.nblock++
		l.pos++
	case lRBlock:
		l.tok = tRBlock
		l.nblock--
		l.pos++
	case lLTable:
		l.tok = tLTable
		l.nparen++
		l.pos++
	case lRTable:
		l.tok = tRTable
		l.nparen--
		l.pos++
	case lLParen:
		l.tok = tLParen
		l.nparen++
		l.pos++
	case lRParen:
		l.tok = tRParen
		l.nparen--
		l.pos++
	}

	end := l.pos
	for l.pos < len(l.src) {
		if l.src[l.pos] == '#' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		} else if classes[l.src[l.pos]] == lWs &&
			(l.nparen > 0 || l.src[l.pos] != '\n') {
			l.pos++
		} else {
			break
		}
	}
	l.prec += 2 * (l.pos - end)
}
