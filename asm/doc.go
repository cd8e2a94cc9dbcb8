// This file is part of self-vm.
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

// Package asm compiles the VM's text assembly language into a vector of
// vm.Op values.
//
// Assembly is a whitespace-separated token stream: one-line '%' comments,
// colon-suffixed label definitions, the enum/def directives, and an
// include directive resolved by a caller-supplied Opener before any
// tokenization happens. Compilation is two passes over the same merged
// buffer: the first discovers labels and constants, the second resolves
// operands and emits operations. There is no parsed intermediate form
// retained between passes; each pass re-tokenizes from scratch, matching
// the reference compiler this package is ported from.
package asm
