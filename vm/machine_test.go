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
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomkod/self-vm/vm"
)

func TestNew_layout(t *testing.T) {
	ops := []vm.Op{
		{Code: vm.OpMovv, Arg1: 0, Arg2: 3},
		{Code: vm.OpMovv, Arg1: 1, Arg2: 4},
		{Code: vm.OpAdd, Arg1: 0, Arg2: 1},
		{Code: vm.OpHlt},
	}
	m := vm.New(ops)

	if m.DataOffset != len(ops)+100000 {
		t.Fatalf("DataOffset = %d, want %d", m.DataOffset, len(ops)+100000)
	}
	if m.MemSize != m.DataOffset+1000000 {
		t.Fatalf("MemSize = %d, want %d", m.MemSize, m.DataOffset+1000000)
	}
	if m.InstAddr != m.DataOffset {
		t.Fatalf("InstAddr = %d, want %d", m.InstAddr, m.DataOffset)
	}

	for i, op := range ops {
		top := m.DataOffset - 3*(i+1) + 2
		got := vm.Op{
			Code: vm.OpCode(m.Mem[top]),
			Arg1: m.Mem[top-1],
			Arg2: m.Mem[top-2],
		}
		if diff := cmp.Diff(op, got); diff != "" {
			t.Errorf("op %d layout mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestNew_memMargins(t *testing.T) {
	ops := []vm.Op{{Code: vm.OpHlt}}
	m := vm.New(ops, vm.MemMargins(10, 20))
	if m.DataOffset != 11 {
		t.Fatalf("DataOffset = %d, want 11", m.DataOffset)
	}
	if m.MemSize != 31 {
		t.Fatalf("MemSize = %d, want 31", m.MemSize)
	}
}

func TestMachine_output(t *testing.T) {
	var buf bytes.Buffer
	ops := []vm.Op{
		{Code: vm.OpMovv, Arg1: 0, Arg2: 42},
		{Code: vm.OpDbg, Arg1: 0},
		{Code: vm.OpHlt},
	}
	m := vm.New(ops, vm.Output(&buf))
	res, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res != vm.Halt {
		t.Fatalf("Run() = %v, want Halt", res)
	}
	want := "dbg 100003 [0]: 42\n"
	if buf.String() != want {
		t.Fatalf("output = %q, want %q", buf.String(), want)
	}
}
