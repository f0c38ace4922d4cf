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

// Names of the standard entry points the code generator emits lookups
// for. The std package must bind every one of these in the builtin
// scope.
const (
	KeyIter   = "iter"
	KeyBind   = "bind"
	KeyConcat = "++"
	KeySubset = "sub"
	KeyPop    = "pop"
	KeyPush   = "push"
	KeyRepr   = "repr"
	KeyPad    = "pad"

	KeyNot = "!"
	KeyEq  = "=="
	KeyNeq = "!="
	KeyLt  = "<"
	KeyLte = "<="
	KeyGt  = ">"
	KeyGte = ">="

	KeyAdd = "+"
	KeySub = "-"
	KeyMul = "*"
	KeyDiv = "/"
	KeyMod = "%"
)
