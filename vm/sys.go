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

import "os"

// Host callbacks. Embedders may replace these before running any code.
var (
	// SysPrint receives informational output from the print builtin, one
	// formatted message per call.
	SysPrint = func(msg []byte) {
		os.Stdout.Write(append(msg, '\n'))
	}

	// SysImport resolves a module by name, returning nil when the module
	// is unknown. The default knows no modules.
	SysImport = func(name *Str) Value {
		return nil
	}
)
