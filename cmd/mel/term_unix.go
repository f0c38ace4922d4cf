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

//go:build !windows

package main

import (
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// saveTerm snapshots the terminal state so the interactive session can
// restore it on exit, whatever the evaluated code did to it. Returns nil
// when stdin is not a terminal.
func saveTerm() func() {
	var tios unix.Termios
	if err := termios.Tcgetattr(0, &tios); err != nil {
		return nil
	}
	return func() {
		termios.Tcsetattr(0, termios.TCSANOW, &tios)
	}
}
