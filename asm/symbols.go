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

package asm

import "github.com/tomkod/self-vm/vm"

// Symbols is the assembler's single global symbol table: labels (name to
// instruction offset, in words), named constants, and the opcode
// mnemonic table. There is no scoping beyond this one flat namespace.
type Symbols struct {
	Labels    map[string]int
	Consts    map[string]int32
	Opcodes   map[string]vm.OpCode
	LastConst int32
}

// NewSymbols builds a fresh table preloaded with the opcode mnemonics:
// each mnemonic maps to its vm.OpCode under Opcodes (for instruction
// dispatch), and separately lands in Consts under "$"+name, so assembly
// source can reference an opcode's numeric value as an operand (e.g.
// bounds-checking against "$dbgext" in generated dispatch code). The bare
// mnemonic itself is never a value-operand constant.
func NewSymbols() *Symbols {
	sym := &Symbols{
		Labels:    make(map[string]int),
		Consts:    make(map[string]int32),
		Opcodes:   make(map[string]vm.OpCode),
		LastConst: -1,
	}
	for _, m := range vm.Mnemonics() {
		sym.Opcodes[m.Name] = m.Code
		sym.Consts["$"+m.Name] = int32(m.Code)
	}
	return sym
}
