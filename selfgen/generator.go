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

// Package selfgen emits assembly text implementing a self-interpreter:
// an assembly program that, once assembled and run by vm.Machine,
// interprets another program already encoded in its data region and
// reports the same Result family the reference interpreter would, via
// reserved ret_val sentinels.
//
// The generated program cannot use a computed/indirect jump — the target
// instruction set has none — so opcode dispatch is emitted as a balanced
// binary search over the opcode table instead of a jump table.
package selfgen

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tomkod/self-vm/vm"
)

const codegenError = "!error"

// registers names the thirteen data cells the generated program declares
// via `def`, in ascending offset order. Offsets double as their `def`
// values, so later helper emitters can refer to them (m_inst_addr,
// m_data_offs, ...) as plain label-like names resolved by the assembler.
var registers = []string{
	"top",
	"ret_val",
	"param",
	"ra",
	"rb",
	"rc",
	"rd",
	"re",
	"rcnt",
	"m_inst_addr",
	"m_base_offs",
	"m_data_offs",
	"m_mem_size",
}

func printTab(w io.Writer, lev int) {
	for i := 0; i < lev; i++ {
		io.WriteString(w, " ")
	}
}

func printLine(w io.Writer, lev int, s string) {
	printTab(w, lev)
	fmt.Fprintln(w, s)
}

// genVerifyAddr emits the bounds check shared by every address
// computation: the candidate address (already in rb or rc) must land in
// [m_base_offs, m_base_offs+m_mem_size).
func genVerifyAddr(argIdx int, lines *[]string) {
	switch argIdx {
	case 1:
		*lines = append(*lines, "mov rd rb")
	case 2:
		*lines = append(*lines, "mov rd rc")
	default:
		*lines = append(*lines, codegenError)
	}
	*lines = append(*lines,
		"sub rd m_base_offs",
		"jl @execute_error_bounds rd",
		"sub rd m_mem_size",
		"jge @execute_error_bounds rd",
	)
}

// genGetAddr turns a data-relative operand already in rb/rc into an
// absolute address and verifies it.
func genGetAddr(argIdx int, lines *[]string) {
	switch argIdx {
	case 1:
		*lines = append(*lines, "add rb m_data_offs")
	case 2:
		*lines = append(*lines, "add rc m_data_offs")
	default:
		*lines = append(*lines, codegenError)
	}
	genVerifyAddr(argIdx, lines)
}

// genBinaryOp emits the arithmetic for one of add/sub/mul/div (and their
// immediate forms), operating on re (accumulator) and rc (operand).
func genBinaryOp(op vm.OpCode, lines *[]string) {
	switch op {
	case vm.OpAdd, vm.OpAddv:
		*lines = append(*lines, "add re rc")
	case vm.OpSub, vm.OpSubv:
		*lines = append(*lines, "sub re rc")
	case vm.OpMul, vm.OpMulv:
		*lines = append(*lines, "mul re rc")
	case vm.OpDiv, vm.OpDivv:
		*lines = append(*lines, "jz @execute_error_divzero rc", "div re rc")
	default:
		*lines = append(*lines, codegenError)
	}
}

// genDoJump emits a target-validated jump: rb holds the relative or
// absolute target; it must be a multiple of 3, and the resolved address
// must pass genVerifyAddr before m_inst_addr is updated.
func genDoJump(relative bool, lines *[]string) {
	*lines = append(*lines,
		"mov rd rb",
		"divv rd 3",
		"mulv rd 3",
		"sub rd rb",
		"jnz @execute_error_jump rd",
	)
	if relative {
		*lines = append(*lines, "add rb m_inst_addr")
	} else {
		*lines = append(*lines, "add rb m_data_offs", "subv rb 3")
	}
	genVerifyAddr(1, lines)
	*lines = append(*lines, "addv rb 3", "mov m_inst_addr rb")
}

// genCondJump emits one conditional-jump opcode's body: branch over the
// call to genDoJump on the negated condition, to a dedicated per-opcode
// skip label (dispatch leaves never share labels across opcodes).
func genCondJump(op vm.OpCode, lines *[]string) {
	var label string
	switch op {
	case vm.OpJz:
		*lines = append(*lines, "jnz @execute_skip_jz rc")
		label = "@execute_skip_jz:"
	case vm.OpJnz:
		*lines = append(*lines, "jz @execute_skip_jnz rc")
		label = "@execute_skip_jnz:"
	case vm.OpJg:
		*lines = append(*lines, "jle @execute_skip_jg rc")
		label = "@execute_skip_jg:"
	case vm.OpJl:
		*lines = append(*lines, "jge @execute_skip_jl rc")
		label = "@execute_skip_jl:"
	case vm.OpJge:
		*lines = append(*lines, "jl @execute_skip_jge rc")
		label = "@execute_skip_jge:"
	case vm.OpJle:
		*lines = append(*lines, "jg @execute_skip_jle rc")
		label = "@execute_skip_jle:"
	default:
		label = codegenError
	}
	genDoJump(true, lines)
	*lines = append(*lines, label)
}

// genExecuteOp emits one dispatch leaf's body: the inline sequence that
// reproduces vm.Machine.dispatch's semantics for op, given ra=opcode,
// rb=arg1, rc=arg2 already loaded by the caller.
func genExecuteOp(w io.Writer, op vm.OpCode, lev int) {
	var lines []string
	switch op {
	case vm.OpNop:
		// no-op: nothing to emit
	case vm.OpHlt:
		lines = append(lines, "jr @execute_loopend")
	case vm.OpJa:
		genGetAddr(1, &lines)
		lines = append(lines, "ld rb rb", "addv rb 1")
		genDoJump(false, &lines)
	case vm.OpJr:
		genDoJump(true, &lines)
	case vm.OpJz, vm.OpJnz, vm.OpJg, vm.OpJl, vm.OpJge, vm.OpJle:
		genGetAddr(2, &lines)
		lines = append(lines, "ld rc rc")
		genCondJump(op, &lines)
	case vm.OpLia:
		genGetAddr(1, &lines)
		lines = append(lines, "mov rd rc", "add rd m_inst_addr", "addv rd 2", "sub rd m_data_offs", "st rb rd")
	case vm.OpLd:
		genGetAddr(1, &lines)
		genGetAddr(2, &lines)
		lines = append(lines, "ld rc rc")
		genGetAddr(2, &lines)
		lines = append(lines, "ld rc rc", "st rb rc")
	case vm.OpSt:
		genGetAddr(1, &lines)
		lines = append(lines, "ld rb rb")
		genGetAddr(1, &lines)
		genGetAddr(2, &lines)
		lines = append(lines, "ld rc rc", "st rb rc")
	case vm.OpStv:
		genGetAddr(1, &lines)
		lines = append(lines, "ld rb rb")
		genGetAddr(1, &lines)
		lines = append(lines, "st rb rc")
	case vm.OpMov:
		genGetAddr(1, &lines)
		genGetAddr(2, &lines)
		lines = append(lines, "ld rc rc", "st rb rc")
	case vm.OpAdd, vm.OpSub, vm.OpMul, vm.OpDiv:
		genGetAddr(1, &lines)
		lines = append(lines, "ld re rb")
		genGetAddr(2, &lines)
		lines = append(lines, "ld rc rc")
		genBinaryOp(op, &lines)
		lines = append(lines, "st rb re")
	case vm.OpMovv:
		genGetAddr(1, &lines)
		lines = append(lines, "st rb rc")
	case vm.OpAddv, vm.OpSubv, vm.OpMulv, vm.OpDivv:
		genGetAddr(1, &lines)
		lines = append(lines, "ld re rb")
		genBinaryOp(op, &lines)
		lines = append(lines, "st rb re")
	case vm.OpDbg:
		genGetAddr(1, &lines)
		lines = append(lines, "ld rb rb", "dbg rb")
	case vm.OpDbgext:
		lines = append(lines, "dbgext")
	default:
		lines = append(lines, codegenError)
	}
	for _, l := range lines {
		printLine(w, lev, l)
	}
}

type mnemonic = struct {
	Name string
	Code vm.OpCode
}

// genBinaryOpSwitchRec emits a balanced binary search over
// mnemonics[s:e+1]: each internal node computes rd = ra - $<mid>, then
// branches past the lower half on rd > 0. Leaves contain one opcode's
// inline body followed by a jump back to the loop.
func genBinaryOpSwitchRec(w io.Writer, s, e, lev int, mnemonics []mnemonic) {
	if s == e {
		fmt.Fprintln(w)
		d := mnemonics[s]
		printTab(w, lev)
		fmt.Fprintf(w, "%% %s\n", d.Name)
		genExecuteOp(w, d.Code, lev)
		printTab(w, lev)
		fmt.Fprintln(w, "jr @execute_continue")
		fmt.Fprintln(w)
		return
	}
	m := (s + e) / 2
	d := mnemonics[m]
	printTab(w, lev)
	fmt.Fprintln(w, "mov rd ra")
	printTab(w, lev)
	fmt.Fprintf(w, "subv rd $%s\n", d.Name)
	printTab(w, lev)
	fmt.Fprintf(w, "jg @execute_after_%s rd\n", d.Name)
	genBinaryOpSwitchRec(w, s, m, lev+1, mnemonics)
	printTab(w, lev)
	fmt.Fprintf(w, "@execute_after_%s:\n", d.Name)
	genBinaryOpSwitchRec(w, m+1, e, lev+1, mnemonics)
}

const executeBegin = `%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%
%% Execute self-interpreting machine code   %%
%% with safety checks.                      %%
%% Arguments:                               %%
%%  m_base_offs = machine memory start      %%
%%  m_data_offs = machine data start        %%
%%                (and code size limit)     %%
%%  m_mem_size = total code+data size limit %%
%% Returns:                                 %%
%%  ret_val = error code or program ret_val %%
%%  -11111112 = invalid jump location       %%
%%  -11111113 = out-of-bounds memory access %%
%%  -11111114 = division by zero            %%
%%  -11111115 = infinite loop               %%
%%  -11111116 = unknown operation code      %%
%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%
@execute_program:
 mov m_inst_addr m_data_offs

 movv rcnt 10000000 % execution limit
 @execute_loop:
  subv m_inst_addr 1
  ld ra m_inst_addr
  subv m_inst_addr 1
  ld rb m_inst_addr
  subv m_inst_addr 1
  ld rc m_inst_addr

  % ra = opcode, rb = arg1, rc = arg2

  mov rd ra
  jl @execute_error_opcode rd  % invalid opcode
  subv rd $dbgext
  jg @execute_error_opcode rd  % invalid opcode

  % switch as binary search tree

`

const executeEnd = `  @execute_continue:

  subv rcnt 1
  jg @execute_loop rcnt
  jr @execute_error_infloop
 @execute_loopend:

 mov ra m_data_offs
 addv ra ret_val
 ld ret_val ra

 jr @execute_errorend
 @execute_error_jump:
  dbg rb
  movv ret_val -11111112
  jr @execute_errorend
 @execute_error_bounds:
  dbg rd
  movv ret_val -11111113
  jr @execute_errorend
 @execute_error_divzero:
  movv ret_val -11111114
  jr @execute_errorend
 @execute_error_infloop:
  movv ret_val -11111115
  jr @execute_errorend
 @execute_error_opcode:
  movv ret_val -11111116
 @execute_errorend:

 addv top 1
 ld ra top
 ja ra
`

// Generate writes the self-interpreter's assembly source to w. The
// output is wrapped in the literal autogen guard comments that mark a
// machine-regenerable region, and begins with `def` declarations for the
// thirteen named data cells the generated program uses as registers.
//
// Generate does not define @main, although its output starts execution
// with `jr @main` — that label is left to whatever source the caller
// concatenates after this output, which must define it and is responsible for pushing a return address onto `top` before
// jumping to @execute_program.
func Generate(w io.Writer) error {
	bw := bufio.NewWriter(w)

	io.WriteString(bw, "%%% auto-generated begin: do not edit %%%\n\n")
	io.WriteString(bw, "%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%\n")
	io.WriteString(bw, "%%% Self-interpreting virtual machine dispatch program %%%\n")
	io.WriteString(bw, "%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%%\n")

	for i, name := range registers {
		fmt.Fprintf(bw, "def %s %d\n", name, i)
	}
	fmt.Fprintln(bw)

	io.WriteString(bw, "jr @main\n\n")
	io.WriteString(bw, executeBegin)

	mnemonics := vm.Mnemonics()
	genBinaryOpSwitchRec(bw, 0, len(mnemonics)-1, 2, mnemonics)

	io.WriteString(bw, executeEnd)
	io.WriteString(bw, "\n%%% auto-generated end %%%\n")

	return bw.Flush()
}
