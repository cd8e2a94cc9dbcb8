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

package vm

// Word is the raw 32-bit signed cell type: every address, opcode, operand
// and memory cell is a Word.
type Word int32

// OpCode identifies a machine instruction. Numeric values are assigned by
// position in opcodeTable starting at 0 and are part of the wire contract:
// the self-interpreter's balanced-search dispatch depends on this exact
// order, so it must never be reordered.
type OpCode Word

// Opcodes, in their canonical encoding order.
const (
	OpNop OpCode = iota
	OpHlt
	OpJr
	OpJa
	OpJnz
	OpJz
	OpJg
	OpJge
	OpJl
	OpJle
	OpLia
	OpLd
	OpSt
	OpStv
	OpMov
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMovv
	OpAddv
	OpSubv
	OpMulv
	OpDivv
	OpDbg
	OpDbgext

	opCodeCount
)

// opcodeTable is the canonical ordered (mnemonic, opcode) list, matching
// original_source/vm.h's opcode_def.
var opcodeTable = [...]string{
	OpNop:    "nop",
	OpHlt:    "hlt",
	OpJr:     "jr",
	OpJa:     "ja",
	OpJnz:    "jnz",
	OpJz:     "jz",
	OpJg:     "jg",
	OpJge:    "jge",
	OpJl:     "jl",
	OpJle:    "jle",
	OpLia:    "lia",
	OpLd:     "ld",
	OpSt:     "st",
	OpStv:    "stv",
	OpMov:    "mov",
	OpAdd:    "add",
	OpSub:    "sub",
	OpMul:    "mul",
	OpDiv:    "div",
	OpMovv:   "movv",
	OpAddv:   "addv",
	OpSubv:   "subv",
	OpMulv:   "mulv",
	OpDivv:   "divv",
	OpDbg:    "dbg",
	OpDbgext: "dbgext",
}

// String returns the opcode's mnemonic, or "invalid" if out of range.
func (op OpCode) String() string {
	if op < 0 || int(op) >= len(opcodeTable) {
		return "invalid"
	}
	return opcodeTable[op]
}

// Valid reports whether op is one of the 26 defined opcodes.
func (op OpCode) Valid() bool {
	return op >= 0 && op < opCodeCount
}

// Mnemonics returns the canonical (mnemonic, opcode) pairs in encoding
// order, for consumers (the assembler's symbol table, the self-interpreter
// generator) that need to walk the opcode set rather than switch on it.
func Mnemonics() []struct {
	Name string
	Code OpCode
} {
	out := make([]struct {
		Name string
		Code OpCode
	}, len(opcodeTable))
	for i, name := range opcodeTable {
		out[i].Name = name
		out[i].Code = OpCode(i)
	}
	return out
}

// InstSize is the number of Words occupied by one instruction.
const InstSize = 3
