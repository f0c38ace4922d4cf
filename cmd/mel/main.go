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

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/mel-lang/mel"
	"github.com/mel-lang/mel/vm"
)

var (
	scope *vm.Tbl
	args  *vm.Tbl

	mode struct {
		execute   bool
		interpret bool
		load      bool
	}
)

func printError(err error) {
	fmt.Printf("\x1b[31merror: %v\x1b[0m\n", err)
}

func execute(src []byte) {
	if _, err := mel.Eval(src, scope); err != nil {
		printError(err)
	}
}

func loadFile(f io.Reader) {
	src, err := io.ReadAll(f)
	if err != nil {
		printError(errors.Wrap(err, "io error reading file"))
		return
	}
	execute(src)
}

func load(name string) {
	src, err := os.ReadFile(name)
	if err != nil {
		printError(errors.Wrap(err, "io error opening file"))
		return
	}
	execute(src)
}

func interpret() int {
	// Keep the terminal state safe from whatever the session does to it.
	if restore := saveTerm(); restore != nil {
		defer restore()
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\x1b[32m> \x1b[0m")
		if !in.Scan() {
			fmt.Println()
			return 0
		}

		v, err := mel.Eval(in.Bytes(), scope)
		if err != nil {
			printError(err)
			continue
		}
		fmt.Printf("%s\n", vm.Repr(v, 2).Bytes())
	}
}

func run() int {
	mainFn := scope.Lookup(vm.StrFromString("main"))
	if mainFn == nil {
		return 0
	}

	var fr vm.Frame
	fr[0] = args
	if err := mel.Call(mainFn, 0xf1, &fr); err != nil {
		printError(err)
		return 1
	}
	if code, ok := fr[0].(vm.Num); ok {
		return code.Int()
	}
	return 0
}

func usage(name string) {
	fmt.Printf("\n"+
		"usage: %s [options] [program] [args]\n"+
		"options:\n"+
		"  -e string     execute string before program\n"+
		"  -l file       import and execute file before program\n"+
		"  -i            run interactively after program\n"+
		"  --            stop handling options\n"+
		"program: file to execute and run or '-' for stdin\n"+
		"args: arguments passed to running program\n"+
		"\n", name)
	os.Exit(1)
}

// options processes flags in order, executing -e and -l operands as they
// are seen, and returns the remaining positional arguments.
func options(argv []string) []string {
	name := argv[0]
	i := 1

	for i < len(argv) && len(argv[i]) > 0 && argv[i][0] == '-' {
		if len(argv[i]) > 2 {
			usage(name)
		}

		arg := argv[i]
		i++

		switch arg {
		case "-e":
			if i >= len(argv) {
				usage(name)
			}
			execute([]byte(argv[i]))
			i++
			mode.execute = true

		case "-l":
			if i >= len(argv) {
				usage(name)
			}
			load(argv[i])
			i++

		case "-i":
			mode.interpret = true

		case "-":
			mode.load = true
			return argv[i:]

		case "--":
			return argv[i:]

		default:
			usage(name)
		}
	}

	return argv[i:]
}

func initArgs(rest []string) {
	args = vm.NewTbl(len(rest))
	for _, a := range rest {
		args.Insert(vm.NumFromInt(args.Len()), vm.StrFromString(a))
	}
}

func main() {
	scope = mel.NewScope()

	rest := options(os.Args)

	if mode.load || len(rest) > 0 {
		if mode.load {
			loadFile(os.Stdin)
		} else {
			load(rest[0])
			rest = rest[1:]
		}
		mode.load = true
	}

	initArgs(rest)

	if mode.interpret || (!mode.load && !mode.execute) {
		os.Exit(interpret())
	}
	os.Exit(run())
}
