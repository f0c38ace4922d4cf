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

// Tbl is the ordered keyed container. Three internal representations are
// promoted transparently on demand:
//
//	range  len consecutive numbers starting at off, no storage
//	list   dense array of values with implicit integer keys
//	hash   open addressed index over an insertion ordered pair array
//
// The hash index is probed with the recurrence i <- 5*i + 1, its capacity
// is a power of two, and live plus tombstone entries are kept under a 2/3
// load factor. An optional tail table provides prototype style fall
// through lookup. Read-only tables share storage with their mutable
// origin and refuse every mutation.
type Tbl struct {
	id     uint64
	ro     bool
	tail   *Tbl
	stride uint8
	off    float64 // range: value of the implicit key 0
	length int     // live entries, tombstones excluded
	nils   int     // tombstones in the pair array
	hint   int     // requested capacity, consumed on first realization
	list   []Value
	pairs  []pair
	index  []int32
}

type pair struct {
	k, v Value
}

// Type implements Value.
func (*Tbl) Type() Type { return TypeTbl }

// NewTbl returns an empty mutable table. The hint pre-sizes the first
// realized representation; an empty table itself allocates no storage.
func NewTbl(hint int) *Tbl {
	return &Tbl{id: nextID(), hint: hint}
}

// NewTblTail returns an empty mutable table with the given tail.
func NewTblTail(hint int, tail *Tbl) *Tbl {
	t := NewTbl(hint)
	t.tail = tail
	return t
}

// TblFromList returns a mutable table holding vs at keys 0..len(vs)-1.
func TblFromList(vs []Value) *Tbl {
	t := NewTbl(len(vs))
	for _, v := range vs {
		t.Insert(NumFromInt(t.length), v)
	}
	return t
}

// Len returns the number of live entries.
func (t *Tbl) Len() int { return t.length }

// Tail returns the table's tail, nil if none.
func (t *Tbl) Tail() *Tbl { return t.tail }

// SetTail replaces the table's tail.
func (t *Tbl) SetTail(tail *Tbl) {
	if t.ro {
		errorRO("tbl")
	}
	t.tail = tail
}

// ReadOnly reports whether the table is frozen.
func (t *Tbl) ReadOnly() bool { return t.ro }

// Const returns a read-only table sharing this table's storage. Freezing
// a frozen table returns it unchanged.
func (t *Tbl) Const() *Tbl {
	if t.ro {
		return t
	}
	nt := *t
	nt.id = nextID()
	nt.ro = true
	return &nt
}

// capacity for a hash index able to hold size entries under the 2/3 load
// budget.
func npw2(n int) int {
	cap := 1
	for cap < n {
		cap <<= 1
	}
	return cap
}

func ncap(size int) int { return size + (size+1)>>1 }

func intKey(k Value) (int, bool) {
	n, ok := k.(Num)
	if !ok {
		return 0, false
	}
	return n.IsInt()
}

// probe locates k in the hash index. It returns the pair index when the
// key is present (live or tombstone) and otherwise the index slot where
// it belongs.
func (t *Tbl) probe(k Value) (pi int, slot int) {
	mask := uint64(len(t.index) - 1)
	for i := hash(k); ; i = 5*i + 1 {
		mi := i & mask
		pi := t.index[mi]
		if pi < 0 {
			return -1, int(mi)
		}
		if Equal(t.pairs[pi].k, k) {
			return int(pi), int(mi)
		}
	}
}

// realizeVars promotes a range to a list.
func (t *Tbl) realizeVars() {
	n := t.length
	if t.hint > n {
		n = t.hint
	}
	list := make([]Value, t.length, n)
	for i := range list {
		list[i] = NewNum(t.off + float64(i))
	}
	t.list = list
	t.stride = 1
}

// realizeKeys promotes a range or list to the hash representation.
func (t *Tbl) realizeKeys() {
	n := t.length + 1
	if t.hint > n {
		n = t.hint
	}
	pairs := make([]pair, 0, n)
	for i := 0; i < t.length; i++ {
		if t.stride == 0 {
			pairs = append(pairs, pair{NumFromInt(i), NewNum(t.off + float64(i))})
		} else {
			pairs = append(pairs, pair{NumFromInt(i), t.list[i]})
		}
	}
	t.list = nil
	t.pairs = pairs
	t.nils = 0
	t.stride = 2
	t.rehash(n)
}

// rehash rebuilds the index (and compacts tombstones) for at least size
// entries.
func (t *Tbl) rehash(size int) {
	if size > maxLen {
		errorLen("tbl")
	}
	cap := npw2(ncap(size))
	index := make([]int32, cap)
	for i := range index {
		index[i] = -1
	}

	if t.nils > 0 {
		pairs := make([]pair, 0, len(t.pairs)-t.nils)
		for _, p := range t.pairs {
			if p.v != nil {
				pairs = append(pairs, p)
			}
		}
		t.pairs = pairs
		t.nils = 0
	}

	mask := uint64(cap - 1)
	for pi, p := range t.pairs {
		for i := hash(p.k); ; i = 5*i + 1 {
			mi := i & mask
			if index[mi] < 0 {
				index[mi] = int32(pi)
				break
			}
		}
	}
	t.index = index
}

// grow makes room for one more hash entry, doubling when live plus
// tombstone entries would exceed the load factor.
func (t *Tbl) grow() {
	if ncap(t.length+t.nils+1) > len(t.index) {
		t.rehash(t.length + 1)
	}
}

// get looks k up in this table only, ignoring the tail chain.
func (t *Tbl) get(k Value) Value {
	if k == nil {
		return nil
	}
	if t.stride < 2 {
		i, ok := intKey(k)
		if !ok || i >= t.length {
			return nil
		}
		if t.stride == 0 {
			return NewNum(t.off + float64(i))
		}
		return t.list[i]
	}
	pi, _ := t.probe(k)
	if pi < 0 {
		return nil
	}
	return t.pairs[pi].v
}

// Lookup returns the value for k, recursing into the tail chain when the
// key is absent.
func (t *Tbl) Lookup(k Value) Value {
	for u := t; u != nil; u = u.tail {
		if v := u.get(k); v != nil {
			return v
		}
	}
	return nil
}

// Has reports whether k is present in this table itself.
func (t *Tbl) Has(k Value) bool { return t.get(k) != nil }

func (t *Tbl) insertVal(k, v Value) {
	if t.stride < 2 {
		if i, ok := intKey(k); ok {
			switch {
			case i == t.length:
				if t.stride == 0 {
					if vn, ok := v.(Num); ok {
						if t.length == 0 {
							t.off = vn.Float64()
						}
						if vn.Float64() == t.off+float64(i) {
							t.length++
							return
						}
					}
					t.realizeVars()
				}
				if t.length >= maxLen {
					errorLen("tbl")
				}
				t.list = append(t.list, v)
				t.length++
				return

			case i < t.length:
				if t.stride == 0 {
					if vn, ok := v.(Num); ok && vn.Float64() == t.off+float64(i) {
						return
					}
					t.realizeVars()
				}
				t.list[i] = v
				return
			}
		}
		t.realizeKeys()
	}

	t.grow()
	pi, slot := t.probe(k)
	if pi < 0 {
		t.index[slot] = int32(len(t.pairs))
		t.pairs = append(t.pairs, pair{k, v})
		t.length++
		return
	}
	if t.pairs[pi].v == nil {
		t.nils--
		t.length++
	}
	t.pairs[pi].v = v
}

func (t *Tbl) insertNil(k Value) {
	if t.stride < 2 {
		i, ok := intKey(k)
		if !ok || i >= t.length {
			return
		}
		if i == t.length-1 {
			if t.stride == 1 {
				t.list = t.list[:i]
			}
			t.length--
			return
		}
		t.realizeKeys()
	}

	pi, _ := t.probe(k)
	if pi < 0 || t.pairs[pi].v == nil {
		return
	}
	t.pairs[pi].v = nil
	t.nils++
	t.length--
}

// Insert sets k to v in this table only. Inserting nil removes the key.
// A nil key is ignored.
func (t *Tbl) Insert(k, v Value) {
	if t.ro {
		errorRO("tbl")
	}
	if k == nil {
		return
	}
	if v == nil {
		t.insertNil(k)
	} else {
		t.insertVal(k, v)
	}
}

// setExisting updates k in this table when the key is currently present,
// reporting whether it did.
func (t *Tbl) setExisting(k, v Value) bool {
	if t.stride < 2 {
		i, ok := intKey(k)
		if !ok || i >= t.length {
			return false
		}
		if v == nil {
			t.insertNil(k)
			return true
		}
		if t.stride == 0 {
			if vn, ok := v.(Num); ok && vn.Float64() == t.off+float64(i) {
				return true
			}
			t.realizeVars()
		}
		t.list[i] = v
		return true
	}

	pi, _ := t.probe(k)
	if pi < 0 || t.pairs[pi].v == nil {
		return false
	}
	if v == nil {
		t.pairs[pi].v = nil
		t.nils++
		t.length--
	} else {
		t.pairs[pi].v = v
	}
	return true
}

// Assign reassigns k in the first ancestor of the tail chain that
// contains it, and inserts into this table otherwise. Read-only tables
// terminate the search.
func (t *Tbl) Assign(k, v Value) {
	if k == nil {
		return
	}
	for u := t; u != nil; u = u.tail {
		if u.ro {
			break
		}
		if u.setExisting(k, v) {
			return
		}
	}
	if v == nil {
		return
	}
	t.Insert(k, v)
}

// Next iterates the table in insertion order. The caller owns the cursor
// i, which starts at zero; each successful step stores the entry's key
// and value through k and v (either may be nil) and advances the cursor.
// Iteration over a mutating table is allowed to miss or repeat entries,
// but never observes an uninitialized slot.
func (t *Tbl) Next(i *int, k, v *Value) bool {
	switch t.stride {
	case 0, 1:
		if *i >= t.length {
			return false
		}
		if k != nil {
			*k = NumFromInt(*i)
		}
		if v != nil {
			if t.stride == 0 {
				*v = NewNum(t.off + float64(*i))
			} else {
				*v = t.list[*i]
			}
		}
		*i++
		return true

	default:
		for *i < len(t.pairs) {
			p := t.pairs[*i]
			*i++
			if p.v == nil {
				continue
			}
			if k != nil {
				*k = p.k
			}
			if v != nil {
				*v = p.v
			}
			return true
		}
		return false
	}
}

// Push inserts v at index i, shifting the dense integer run starting
// there one key up. A negative index counts from the end.
func (t *Tbl) Push(v Value, i int) {
	if t.ro {
		errorRO("tbl")
	}
	if i < 0 {
		i += t.length
	}
	if i < 0 {
		i = 0
	}

	var run []Value
	for j := i; ; j++ {
		u := t.get(NumFromInt(j))
		if u == nil {
			break
		}
		run = append(run, u)
	}
	t.Insert(NumFromInt(i), v)
	for j, u := range run {
		t.Insert(NumFromInt(i+j+1), u)
	}
}

// Pop removes and returns the value at index i, shifting the dense
// integer run after it one key down. A negative index counts from the
// end.
func (t *Tbl) Pop(i int) Value {
	if t.ro {
		errorRO("tbl")
	}
	if i < 0 {
		i += t.length
	}
	if i < 0 {
		i = 0
	}

	v := t.get(NumFromInt(i))
	for j := i; ; j++ {
		u := t.get(NumFromInt(j + 1))
		t.Insert(NumFromInt(j), u)
		if u == nil {
			break
		}
	}
	return v
}

// Concat returns a new table holding this table's entries followed by
// u's, with u's integer keys rebased at off. A negative off rebases at
// this table's length.
func (t *Tbl) Concat(u *Tbl, off int) *Tbl {
	d := NewTbl(t.length + u.length)
	var k, v Value
	for i := 0; t.Next(&i, &k, &v); {
		d.Insert(k, v)
	}
	if off < 0 {
		off = t.length
	}
	for i := 0; u.Next(&i, &k, &v); {
		if ik, ok := intKey(k); ok {
			d.Insert(NumFromInt(off+ik), v)
		} else {
			d.Insert(k, v)
		}
	}
	return d
}

// Subset returns the integer keyed entries in [lower, upper) as a new
// table rebased at zero. Negative bounds count from the end and out of
// range bounds clamp.
func (t *Tbl) Subset(lower, upper int) *Tbl {
	if lower < 0 {
		lower += t.length
	}
	if upper < 0 {
		upper += t.length
	}
	if lower < 0 {
		lower = 0
	}

	d := NewTbl(0)
	for i := lower; i < upper; i++ {
		v := t.get(NumFromInt(i))
		if v == nil {
			break
		}
		d.Insert(NumFromInt(i-lower), v)
	}
	return d
}

// Iter returns an iterator function yielding (value, key) per entry.
func (t *Tbl) Iter() *Fn {
	state := TblFromList([]Value{t, NumFromInt(0)})
	return NewSBFn(0, func(scope Value, fr *Frame) byte {
		st := scope.(*Tbl)
		tbl := st.get(NumFromInt(0)).(*Tbl)
		i := st.get(NumFromInt(1)).(Num).Int()

		var k, v Value
		if !tbl.Next(&i, &k, &v) {
			return 0
		}
		st.Insert(NumFromInt(1), NumFromInt(i))
		fr[0] = v
		fr[1] = k
		return 2
	}, state)
}

// Repr renders the table as [k: v, ...] with the given depth bound.
func (t *Tbl) Repr(depth int) *Str {
	if depth == 0 {
		return StrFromString("[..]")
	}
	next := depth - 1
	if depth < 0 {
		next = -1
	}

	b := NewBuf(2)
	b.Push('[')
	var k, v Value
	first := true
	for i := 0; t.Next(&i, &k, &v); {
		if !first {
			b.PushString(", ")
		}
		first = false
		b.PushData(Repr(k, next).Bytes())
		b.PushString(": ")
		b.PushData(Repr(v, next).Bytes())
	}
	b.Push(']')
	return Intern(b)
}
