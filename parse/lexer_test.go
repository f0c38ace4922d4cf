//

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mel-lang/mel/vm"
)

func lexAll(src string) (toks []token) {
	l := lexer{src: []byte(src)}
	for l.next(); l.tok != tEnd; l.next() {
		toks = append(toks, l.tok)
	}
	return toks
}

func TestLexTokens(t *testing.T) {
	tests := []struct {
		src  string
		want []token
	}{
		{"let x = 1", []token{tLet, tSym, tAssign, tImm}},
		{"fn (a) -> a", []token{tFn, tLParen, tSym, tRParen, tArrow, tSym}},
		{"x; y", []token{tSym, tTerm, tSym}},
		{"a, ..b", []token{tSym, tSep, tExpand, tSym}},
		{"t.k: v", []token{tSym, tDot, tSym, tPair, tSym}},
		{"1 <= 2", []token{tImm, tOp, tImm}},
		{"'s' \"d\"", []token{tImm, tImm}},
		{"if while for else and or", []token{tIf, tWhile, tFor, tElse, tAnd, tOr}},
		{"continue break return nil _", []token{tContinue, tBreak, tReturn, tNil, tNil}},
		{"{ } [ ] ( )", []token{tLBlock, tRBlock, tLTable, tRTable, tLParen, tRParen}},
		{"x # comment\ny", []token{tSym, tTerm, tSym}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, lexAll(tc.src), "lex(%q)", tc.src)
	}
}

func TestLexValues(t *testing.T) {
	l := lexer{src: []byte("foo 42 'bar'")}
	l.next()
	assert.Equal(t, vm.Value(vm.StrFromString("foo")), l.val)
	l.next()
	assert.Equal(t, vm.Value(vm.NewNum(42)), l.val)
	l.next()
	assert.Equal(t, vm.Value(vm.StrFromString("bar")), l.val)
}

// Trailing whitespace loosens a token's binding: two units per space,
// with keywords starting one unit above operators.
func TestLexPrecedence(t *testing.T) {
	l := lexer{src: []byte("a + b")}
	l.next() // a
	assert.Equal(t, 1+2, l.prec, "keyword base with one trailing space")
	l.next() // +
	assert.Equal(t, 2, l.prec, "one trailing space on an operator")

	l = lexer{src: []byte("*  x")}
	l.next()
	assert.Equal(t, 4, l.prec, "two trailing spaces")
}

func TestLexIndent(t *testing.T) {
	// an indentation change emits the block token, then re-reads the
	// newline as a terminator for the new block level
	toks := lexAll("if (x)\n    y\nz")
	assert.Equal(t,
		[]token{tIf, tLParen, tSym, tRParen,
			tLBlock, tTerm, tSym, tRBlock, tTerm, tSym},
		toks)
}

func TestLexNewlineInParens(t *testing.T) {
	// inside parens newlines are plain whitespace
	toks := lexAll("f(a,\n  b)")
	assert.Equal(t,
		[]token{tSym, tLParen, tSym, tSep, tSym, tRParen},
		toks)
}
