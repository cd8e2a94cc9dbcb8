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

package vm_test

import (
	"testing"

	"github.com/tomkod/self-vm/vm"
)

func TestRun_addTwoImmediates(t *testing.T) {
	ops := []vm.Op{
		{Code: vm.OpMovv, Arg1: 0, Arg2: 3},
		{Code: vm.OpMovv, Arg1: 1, Arg2: 4},
		{Code: vm.OpAdd, Arg1: 0, Arg2: 1},
		{Code: vm.OpHlt},
	}
	m := vm.New(ops)
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.Halt {
		t.Fatalf("result = %v, want Halt", res)
	}
	if got := m.Mem[m.DataOffset+0]; got != 7 {
		t.Fatalf("mem[data+0] = %d, want 7", got)
	}
	if m.Cycles != 4 {
		t.Fatalf("cycles = %d, want 4", m.Cycles)
	}
}

func TestRun_conditionalLoopCountdown(t *testing.T) {
	// movv 0 5
	// @loop: subv 0 1
	//        jg @loop 0
	// hlt
	ops := []vm.Op{
		{Code: vm.OpMovv, Arg1: 0, Arg2: 5},
		{Code: vm.OpSubv, Arg1: 0, Arg2: 1}, // loop: offset 1
		{Code: vm.OpJg, Arg1: 3, Arg2: 0}, // rel addr back to loop's instruction word
		{Code: vm.OpHlt},
	}
	m := vm.New(ops)
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.Halt {
		t.Fatalf("result = %v, want Halt", res)
	}
	if got := m.Mem[m.DataOffset+0]; got != 0 {
		t.Fatalf("mem[data+0] = %d, want 0", got)
	}
	if m.Cycles != 12 {
		t.Fatalf("cycles = %d, want 12", m.Cycles)
	}
}

func TestRun_divideByZero(t *testing.T) {
	ops := []vm.Op{
		{Code: vm.OpMovv, Arg1: 0, Arg2: 10},
		{Code: vm.OpDivv, Arg1: 0, Arg2: 0},
		{Code: vm.OpHlt},
	}
	m := vm.New(ops)
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.DivByZero {
		t.Fatalf("result = %v, want DivByZero", res)
	}
}

func TestRun_outOfBoundsStore(t *testing.T) {
	ops := []vm.Op{
		{Code: vm.OpMovv, Arg1: 9999999, Arg2: 1},
		{Code: vm.OpHlt},
	}
	m := vm.New(ops)
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.InvalidDataAddr {
		t.Fatalf("result = %v, want InvalidDataAddr", res)
	}
}

func TestRun_emptyProgram(t *testing.T) {
	m := vm.New(nil)
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.InvalidInstAddr {
		t.Fatalf("result = %v, want InvalidInstAddr", res)
	}
}

func TestRun_singleHalt(t *testing.T) {
	m := vm.New([]vm.Op{{Code: vm.OpHlt}})
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.Halt {
		t.Fatalf("result = %v, want Halt", res)
	}
	if m.Cycles != 1 {
		t.Fatalf("cycles = %d, want 1", m.Cycles)
	}
}

func TestRun_jumpNotMultipleOfInstSize(t *testing.T) {
	m := vm.New([]vm.Op{{Code: vm.OpJr, Arg1: 1}})
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.InvalidJumpAddr {
		t.Fatalf("result = %v, want InvalidJumpAddr", res)
	}
}

func TestRun_invalidOpcode(t *testing.T) {
	m := vm.New([]vm.Op{{Code: vm.OpCode(999)}})
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.InvalidOpCode {
		t.Fatalf("result = %v, want InvalidOpCode", res)
	}
}

func TestRun_maxCyclesReportsInfiniteLoop(t *testing.T) {
	// jr 0 forever
	m := vm.New([]vm.Op{{Code: vm.OpJr, Arg1: 0}}, vm.MaxCycles(10))
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.InfiniteLoop {
		t.Fatalf("result = %v, want InfiniteLoop", res)
	}
	if m.Cycles != 10 {
		t.Fatalf("cycles = %d, want 10", m.Cycles)
	}
}

func TestSelfModifyingCodeRegion(t *testing.T) {
	// A negative data-relative address resolves into the code region; the
	// interpreter must allow writes there (the self-interpreter depends on
	// this to patch return addresses) rather than rejecting them.
	ops := []vm.Op{
		{Code: vm.OpMovv, Arg1: 0, Arg2: -3}, // mem[data+0] = -3 (a code-region-relative address)
		{Code: vm.OpStv, Arg1: 0, Arg2: 77},  // *mem[data+0] = 77, i.e. mem[data-3] = 77
		{Code: vm.OpHlt},
	}
	m := vm.New(ops)
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.Halt {
		t.Fatalf("result = %v, want Halt", res)
	}
	codeCell := m.DataOffset - 3
	if got := m.Mem[codeCell]; got != 77 {
		t.Fatalf("mem[%d] = %d, want 77 (self-modifying write into code region)", codeCell, got)
	}
}
