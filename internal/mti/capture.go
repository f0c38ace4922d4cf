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

// Package mti - or mel-test-internal with some commonly used stuff.
package mti

import "github.com/mel-lang/mel/vm"

// Capture redirects the runtime's print hook into memory so tests can
// assert on script output. Restore must be called before the test ends.
type Capture struct {
	old   func([]byte)
	Lines []string
}

// CapturePrint installs the capturing hook and returns the capture.
func CapturePrint() *Capture {
	c := &Capture{old: vm.SysPrint}
	vm.SysPrint = func(msg []byte) {
		c.Lines = append(c.Lines, string(msg))
	}
	return c
}

// Restore reinstalls the previous print hook.
func (c *Capture) Restore() {
	vm.SysPrint = c.old
}
