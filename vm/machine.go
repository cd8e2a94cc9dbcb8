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

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Op is a pre-layout operation record produced by the assembler: an opcode
// plus its two (already resolved) operands. Some opcodes ignore one or both
// arguments; see the per-opcode semantics in exec.go.
type Op struct {
	Code OpCode
	Arg1 Word
	Arg2 Word
}

const (
	defaultCodeMargin = 100000
	defaultDataMargin = 1000000
	defaultMaxCycles  = 500000000
)

// Option configures a Machine at construction time, following the
// functional-options pattern used throughout ngaro/vm/vm.go (DataSize,
// AddressSize, Output, Shrink).
type Option func(*Machine)

// MaxCycles overrides the cycle budget after which Run reports
// InfiniteLoop. The reference default is 500,000,000.
func MaxCycles(n int64) Option {
	return func(m *Machine) { m.MaxCycles = n }
}

// MemMargins overrides the code/data region margins used to size memory
// around an assembled operation vector. The reference defaults are
// +100000 words of headroom before the data region and +1000000 words of
// data region; implementations may parameterize them, but the defaults
// must be used for self-host tests to match the reference.
func MemMargins(codeMargin, dataMargin int) Option {
	return func(m *Machine) {
		m.codeMargin = codeMargin
		m.dataMargin = dataMargin
	}
}

// Output sets the writer that dbg/dbgext write their trace lines to.
// Defaults to os.Stdout.
func Output(w io.Writer) Option {
	return func(m *Machine) { m.output = w }
}

// Logger sets the structured logger used for cycle-budget and dbgext
// diagnostics. Defaults to logrus.StandardLogger().
func Logger(l *logrus.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// Machine holds the interpreter's entire state: a single flat memory array
// split by DataOffset into a code region [0, DataOffset) and a data region
// [DataOffset, MemSize). It is not safe for concurrent use: Step mutates
// InstAddr, Cycles and Mem without synchronization, matching ngaro's
// Instance, which is likewise single-owner for the lifetime of a run.
type Machine struct {
	InstAddr         int
	DataOffset       int
	MemSize          int
	Cycles           int64
	MaxCycles        int64
	LastDbgextCycles int64
	Mem              []Word

	codeMargin int
	dataMargin int
	output     io.Writer
	log        *logrus.Logger
}

// New lays out ops in memory and returns a ready-to-run Machine. Layout
// matches original_source/vm.cpp's resetMachine: the last instruction's
// three words end exactly at DataOffset-1, with InstAddr initialized to
// DataOffset (Step decrements before the first fetch).
func New(ops []Op, opts ...Option) *Machine {
	m := &Machine{
		codeMargin: defaultCodeMargin,
		dataMargin: defaultDataMargin,
		MaxCycles:  defaultMaxCycles,
		output:     os.Stdout,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.DataOffset = len(ops) + m.codeMargin
	m.MemSize = m.DataOffset + m.dataMargin
	m.Mem = make([]Word, m.MemSize)

	top := m.DataOffset
	for _, op := range ops {
		top -= InstSize
		m.Mem[top+2] = Word(op.Code)
		m.Mem[top+1] = op.Arg1
		m.Mem[top] = op.Arg2
	}

	m.Cycles = 0
	m.LastDbgextCycles = 0
	m.InstAddr = m.DataOffset
	return m
}
