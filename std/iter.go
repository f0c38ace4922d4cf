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

package std

import "github.com/mel-lang/mel/vm"

// Iterators are plain functions returning nil at exhaustion; each one is
// a closure over its own progress state kept in a small table. The for
// statement compiles to a lookup of "iter" followed by repeated zero
// argument calls.

func iterBFn(fr *vm.Frame) byte {
	switch v := fr[0].(type) {
	case *vm.Str:
		fr[0] = strIter(v)
	case *vm.Tbl:
		fr[0] = v.Iter()
	case *vm.Fn:
	default:
		vm.Errorf("invalid argument in iter(%r)", fr[0])
	}
	return 1
}

// strIter yields the string one byte at a time.
func strIter(s *vm.Str) *vm.Fn {
	state := vm.TblFromList([]vm.Value{s, vm.NumFromInt(0)})
	return vm.NewSBFn(0, func(scope vm.Value, fr *vm.Frame) byte {
		st := scope.(*vm.Tbl)
		str := st.Lookup(vm.NumFromInt(0)).(*vm.Str)
		i := st.Lookup(vm.NumFromInt(1)).(vm.Num).Int()

		if i >= str.Len() {
			return 0
		}
		st.Insert(vm.NumFromInt(1), vm.NumFromInt(i+1))
		fr[0] = vm.StrFromByte(str.Bytes()[i])
		fr[1] = vm.NumFromInt(i)
		return 2
	}, state)
}

func rangeBFn(fr *vm.Frame) byte {
	if fr[1] == nil {
		fr[1] = fr[0]
		fr[0] = nil
	}

	start := 0.0
	if n, ok := fr[0].(vm.Num); ok {
		start = n.Float64()
	} else if fr[0] != nil {
		vm.Errorf("invalid argument in range(%r)", fr[0])
	}

	stop, ok := fr[1].(vm.Num)
	if !ok {
		vm.Errorf("invalid argument in range(%r)", fr[1])
	}

	step := 1.0
	if start > stop.Float64() {
		step = -1.0
	}
	if n, ok := fr[2].(vm.Num); ok {
		step = n.Float64()
	} else if fr[2] != nil {
		vm.Errorf("invalid argument in range(%r)", fr[2])
	}

	state := vm.TblFromList([]vm.Value{
		vm.NewNum(start), stop, vm.NewNum(step),
	})
	fr[0] = vm.NewSBFn(0, func(scope vm.Value, fr *vm.Frame) byte {
		st := scope.(*vm.Tbl)
		cur := st.Lookup(vm.NumFromInt(0)).(vm.Num).Float64()
		end := st.Lookup(vm.NumFromInt(1)).(vm.Num).Float64()
		stp := st.Lookup(vm.NumFromInt(2)).(vm.Num).Float64()

		if (stp > 0 && cur >= end) || (stp < 0 && cur <= end) || stp == 0 {
			return 0
		}
		st.Insert(vm.NumFromInt(0), vm.NewNum(cur+stp))
		fr[0] = vm.NewNum(cur)
		return 1
	}, state)
	return 1
}
