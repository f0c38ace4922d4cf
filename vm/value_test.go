//

package vm

import "testing"

func TestEqual(t *testing.T) {
	if !Equal(nil, nil) {
		t.Error("nil equals nil")
	}
	if !Equal(NewNum(1.5), NewNum(1.5)) || Equal(NewNum(1), NewNum(2)) {
		t.Error("number equality")
	}
	if !Equal(StrFromString("a"), StrFromString("a")) {
		t.Error("interned strings compare by handle")
	}
	if Equal(NewNum(1), StrFromString("1")) {
		t.Error("numbers and strings never compare equal")
	}
	a, b := NewTbl(0), NewTbl(0)
	if Equal(a, b) || !Equal(a, a) {
		t.Error("tables compare by identity")
	}
}

func TestCmp(t *testing.T) {
	if Cmp(NewNum(1), NewNum(2)) >= 0 || Cmp(NewNum(2), NewNum(1)) <= 0 {
		t.Error("number ordering")
	}
	if Cmp(StrFromString("a"), StrFromString("b")) >= 0 {
		t.Error("string ordering")
	}
	expectError(t, "", func() { Cmp(NewNum(1), StrFromString("a")) })
	expectError(t, "", func() { Cmp(NewTbl(0), NewTbl(0)) })
}

func TestGenericDispatch(t *testing.T) {
	tbl := NewTbl(0)
	tbl.Insert(StrFromString("k"), NewNum(1))

	if !Equal(Lookup(tbl, StrFromString("k")), NewNum(1)) {
		t.Error("table lookup")
	}
	if Lookup(NewNum(5), NewNum(0)) != nil {
		t.Error("lookup on a number yields nil")
	}
	if Lookup(nil, NewNum(0)) != nil {
		t.Error("lookup on nil yields nil")
	}

	Insert(tbl, StrFromString("j"), NewNum(2))
	if !tbl.Has(StrFromString("j")) {
		t.Error("generic insert")
	}
	expectError(t, "attempted to modify read-only num", func() {
		Insert(NewNum(5), NewNum(0), NewNum(1))
	})
	expectError(t, "attempted to modify read-only tbl", func() {
		Insert(tbl.Const(), NewNum(0), NewNum(1))
	})
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		v    Value
		want Type
	}{
		{nil, TypeNil},
		{NewNum(1), TypeNum},
		{StrFromString("s"), TypeStr},
		{NewBuf(0), TypeBuf},
		{NewTbl(0), TypeTbl},
		{NewBFn(0, nil), TypeFn},
	}
	for _, tc := range tests {
		if got := TypeOf(tc.v); got != tc.want {
			t.Errorf("TypeOf(%v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}
