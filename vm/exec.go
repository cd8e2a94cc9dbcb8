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

import "fmt"

// addr resolves a data-region-relative operand into an absolute Mem index:
// Addr(arg) = arg + DataOffset, bounds checked as an unsigned comparison so
// negative results also fail. Reads
// and writes below DataOffset (into the code region) are permitted — this
// is the self-modifying-code path the self-interpreter relies on to patch
// return addresses; there must never be a "code region is read-only" check
// here.
func (m *Machine) addr(arg Word) (int, Result) {
	a := int(arg) + m.DataOffset
	if uint(a) >= uint(m.MemSize) {
		return 0, InvalidDataAddr
	}
	return a, Continue
}

// jump implements the Jump macro: the target must be InstSize-aligned and
// within bounds; on success InstAddr is set so the next Step's
// pre-decrement lands exactly on the target.
func (m *Machine) jump(base, rel Word) Result {
	if int(rel)%InstSize != 0 {
		return InvalidJumpAddr
	}
	t := int(base) + int(rel)
	if t < 0 || t >= m.MemSize {
		return InvalidJumpAddr
	}
	m.InstAddr = t + InstSize
	return Continue
}

// Step executes exactly one fetch-decode-execute cycle and returns the
// resulting Result. Continue means execution should proceed; any other
// value is terminal. After the pre-decrement, InstAddr is the current
// instruction's address and is not retained anywhere else: on failure
// InstAddr already reflects the position that triggered it, matching the
// reference's "PC points at the failing instruction" contract. A fetch whose
// three words do not all lie inside Mem reports InvalidInstAddr.
func (m *Machine) Step() Result {
	m.InstAddr -= InstSize
	ia := m.InstAddr
	if ia < 0 || ia+2 >= m.MemSize {
		return InvalidInstAddr
	}
	op := OpCode(m.Mem[ia+2])
	arg1 := m.Mem[ia+1]
	arg2 := m.Mem[ia]

	res := m.dispatch(op, ia, arg1, arg2)
	m.Cycles++
	if res != Continue {
		return res
	}
	if m.Cycles >= m.MaxCycles {
		if m.log != nil {
			m.log.WithField("cycles", m.Cycles).Debug("self-vm: cycle budget exhausted")
		}
		return InfiniteLoop
	}
	return Continue
}

func (m *Machine) dispatch(op OpCode, instAddr int, arg1, arg2 Word) Result {
	switch op {
	case OpNop:
		return Continue

	case OpHlt:
		return Halt

	case OpJr:
		return m.jump(Word(instAddr), arg1)

	case OpJa:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		rel := m.Mem[a1] + 1
		return m.jump(Word(m.DataOffset-InstSize), rel)

	case OpJnz, OpJz, OpJg, OpJge, OpJl, OpJle:
		a2, res := m.addr(arg2)
		if res != Continue {
			return res
		}
		v := m.Mem[a2]
		cond := false
		switch op {
		case OpJnz:
			cond = v != 0
		case OpJz:
			cond = v == 0
		case OpJg:
			cond = v > 0
		case OpJge:
			cond = v >= 0
		case OpJl:
			cond = v < 0
		case OpJle:
			cond = v <= 0
		}
		if cond {
			return m.jump(Word(instAddr), arg1)
		}
		return Continue

	case OpLia:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		m.Mem[a1] = Word(instAddr+InstSize-1) + arg2 - Word(m.DataOffset)
		return Continue

	case OpLd:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		paddr2, res := m.addr(arg2)
		if res != Continue {
			return res
		}
		a2, res := m.addr(m.Mem[paddr2])
		if res != Continue {
			return res
		}
		m.Mem[a1] = m.Mem[a2]
		return Continue

	case OpSt:
		paddr1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		a1, res := m.addr(m.Mem[paddr1])
		if res != Continue {
			return res
		}
		a2, res := m.addr(arg2)
		if res != Continue {
			return res
		}
		m.Mem[a1] = m.Mem[a2]
		return Continue

	case OpStv:
		paddr1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		a1, res := m.addr(m.Mem[paddr1])
		if res != Continue {
			return res
		}
		m.Mem[a1] = arg2
		return Continue

	case OpMov:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		a2, res := m.addr(arg2)
		if res != Continue {
			return res
		}
		m.Mem[a1] = m.Mem[a2]
		return Continue

	case OpAdd, OpSub, OpMul:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		a2, res := m.addr(arg2)
		if res != Continue {
			return res
		}
		switch op {
		case OpAdd:
			m.Mem[a1] += m.Mem[a2]
		case OpSub:
			m.Mem[a1] -= m.Mem[a2]
		case OpMul:
			m.Mem[a1] *= m.Mem[a2]
		}
		return Continue

	case OpDiv:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		a2, res := m.addr(arg2)
		if res != Continue {
			return res
		}
		d := m.Mem[a2]
		if d == 0 {
			return DivByZero
		}
		m.Mem[a1] /= d
		return Continue

	case OpMovv:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		m.Mem[a1] = arg2
		return Continue

	case OpAddv, OpSubv, OpMulv:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		switch op {
		case OpAddv:
			m.Mem[a1] += arg2
		case OpSubv:
			m.Mem[a1] -= arg2
		case OpMulv:
			m.Mem[a1] *= arg2
		}
		return Continue

	case OpDivv:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		if arg2 == 0 {
			return DivByZero
		}
		m.Mem[a1] /= arg2
		return Continue

	case OpDbg:
		a1, res := m.addr(arg1)
		if res != Continue {
			return res
		}
		fmt.Fprintf(m.output, "dbg %d [%d]: %d\n", a1, arg1, m.Mem[a1])
		return Continue

	case OpDbgext:
		diff := m.Cycles - m.LastDbgextCycles
		fmt.Fprintf(m.output, "base cycles = %d, diff = %d\n", m.Cycles, diff)
		m.LastDbgextCycles = m.Cycles
		if m.log != nil {
			m.log.WithField("cycles", m.Cycles).WithField("diff", diff).Debug("self-vm: dbgext")
		}
		return Continue

	default:
		return InvalidOpCode
	}
}

// Run drives Step until it returns a terminal Result. It never panics for
// in-band execution faults (bounds, jump, divide, opcode, cycle budget);
// all of those are reported as the relevant Result. A recover guard is kept
// only as a last resort against out-of-band bugs (e.g. a future caller
// shrinking Mem out from under a running Machine) so that such a bug
// surfaces as an error rather than crashing the host process.
func (m *Machine) Run() (res Result, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("self-vm: recovered panic at inst_addr=%d: %v", m.InstAddr, e)
		}
	}()
	for {
		res = m.Step()
		if res != Continue {
			return res, nil
		}
	}
}
