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

// Command mel is the stand-alone mel interpreter.
//
//	usage: mel [options] [program] [args]
//	options:
//	  -e string     execute string before program
//	  -l file       import and execute file before program
//	  -i            run interactively after program
//	  --            stop handling options
//
// Options are processed in order, so a -e string runs before a -l file
// given after it. The positional program argument (or '-' for standard
// input) selects the main script; the remaining positional arguments are
// passed to the program's main function, if it defines one. Without a
// program or -e (a -l file alone still leads into it), or with -i, the
// interpreter starts an interactive session;
// each entered line is evaluated in the shared scope and its result is
// printed with a representation depth of 2.
package main
