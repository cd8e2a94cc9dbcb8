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

package asm_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomkod/self-vm/asm"
	"github.com/tomkod/self-vm/vm"
)

func mustAssemble(t *testing.T, src string) []vm.Op {
	t.Helper()
	ops, err := asm.Assemble([]byte(src), asm.NewSymbols())
	if err != nil {
		t.Fatalf("Assemble(%q) = %v, want success", src, err)
	}
	return ops
}

func TestAssemble_addTwoImmediates(t *testing.T) {
	ops := mustAssemble(t, "movv 0 3\nmovv 1 4\nadd 0 1\nhlt\n")
	want := []vm.Op{
		{Code: vm.OpMovv, Arg1: 0, Arg2: 3},
		{Code: vm.OpMovv, Arg1: 1, Arg2: 4},
		{Code: vm.OpAdd, Arg1: 0, Arg2: 1},
		{Code: vm.OpHlt},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_conditionalLoopCountdown(t *testing.T) {
	src := "movv 0 5\n@loop:\nsubv 0 1\njg @loop 0\nhlt\n"
	ops := mustAssemble(t, src)
	want := []vm.Op{
		{Code: vm.OpMovv, Arg1: 0, Arg2: 5},
		{Code: vm.OpSubv, Arg1: 0, Arg2: 1},
		{Code: vm.OpJg, Arg1: 3, Arg2: 0},
		{Code: vm.OpHlt},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_commentsAreSkipped(t *testing.T) {
	ops := mustAssemble(t, "% this whole line is a comment movv 0 0\nhlt\n")
	want := []vm.Op{{Code: vm.OpHlt}}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_forwardLabelYieldsNegativeDelta(t *testing.T) {
	// "jr" referencing a label that appears later in the text: per
	// §4.5, a later label yields a negative relative delta (only a
	// label earlier in the text yields a positive one).
	ops := mustAssemble(t, "jr call_target\ncall_target:\n")
	if len(ops) != 1 {
		t.Fatalf("len(ops) = %d, want 1", len(ops))
	}
	if ops[0].Arg1 != -3 {
		t.Fatalf("jr operand = %d, want -3", ops[0].Arg1)
	}
}

func TestAssemble_enumAndDef(t *testing.T) {
	ops := mustAssemble(t, "enum foo\nenum bar\ndef baz 100\nmovv 0 foo\nmovv 0 bar\nmovv 0 baz\nhlt\n")
	want := []vm.Op{
		{Code: vm.OpMovv, Arg1: 0, Arg2: 0},
		{Code: vm.OpMovv, Arg1: 0, Arg2: 1},
		{Code: vm.OpMovv, Arg1: 0, Arg2: 100},
		{Code: vm.OpHlt},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_liaThreeOperands(t *testing.T) {
	// lia dest label offset: arg2 is the label's relative delta plus
	// the numeric offset, resolved post-label-resolution.
	ops := mustAssemble(t, "lia 0 here 5\nhere:\nhlt\n")
	if len(ops) != 2 {
		t.Fatalf("len(ops) = %d, want 2", len(ops))
	}
	// here is defined right after the lia instruction (instOffs=3),
	// lia itself is at instOffs=0, so the label delta is 0-3=-3, plus
	// the literal offset 5 = 2.
	if ops[0].Arg2 != 2 {
		t.Fatalf("lia arg2 = %d, want 2", ops[0].Arg2)
	}
}

func TestAssemble_duplicateLabel(t *testing.T) {
	_, err := asm.Assemble([]byte("a:\nnop\na:\nhlt\n"), asm.NewSymbols())
	if err == nil {
		t.Fatal("expected a duplicate label error")
	}
}

func TestAssemble_unknownMnemonic(t *testing.T) {
	_, err := asm.Assemble([]byte("frobnicate 1 2\n"), asm.NewSymbols())
	if err == nil {
		t.Fatal("expected an unknown-mnemonic error")
	}
}

func TestAssemble_unresolvedLabel(t *testing.T) {
	_, err := asm.Assemble([]byte("jr nowhere\n"), asm.NewSymbols())
	if err == nil {
		t.Fatal("expected an unresolved-label error")
	}
}

func TestAssemble_missingOperand(t *testing.T) {
	_, err := asm.Assemble([]byte("movv 0\n"), asm.NewSymbols())
	if err == nil {
		t.Fatal("expected a missing-operand error")
	}
}

func TestAssemble_opcodeConstantsAvailable(t *testing.T) {
	// Opcode mnemonics are preloaded into Consts under "$name", which
	// the self-interpreter generator's bounds check against $dbgext
	// depends on.
	sym := asm.NewSymbols()
	ops, err := asm.Assemble([]byte("movv 0 $dbgext\nhlt\n"), sym)
	if err != nil {
		t.Fatal(err)
	}
	if ops[0].Arg2 != vm.Word(vm.OpDbgext) {
		t.Fatalf("$dbgext resolved to %d, want %d", ops[0].Arg2, vm.OpDbgext)
	}
}
