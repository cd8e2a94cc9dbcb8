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

// Package vm implements the reference interpreter for the self-vm
// instruction set: a Harvard-style machine with 3-word instructions,
// negative-offset code packing, and full bounds/jump/divzero checking.
//
// A Machine is built from an assembled operation vector with New, which
// lays the operations out in memory the same way the reference C
// implementation does (see resetMachine in the original source): the last
// instruction's three words end exactly at DataOffset-1, and earlier
// instructions occupy lower addresses. Step executes a single
// fetch-decode-execute cycle; Run drives Step until it returns anything
// other than Continue.
package vm
