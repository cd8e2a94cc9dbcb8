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

// Result is the outcome of a single Step, or of a full Run. Continue is the
// only non-terminal value; every other value stops the interpreter
// immediately with no partial-state rollback (the memory at the point of
// failure remains valid for post-mortem inspection).
//
// Result deliberately implements error itself instead of being wrapped in
// github.com/pkg/errors at this layer, so that a Result value returned by
// the reference interpreter can be compared directly against a reserved
// ret_val code produced by the self-interpreter (see ReservedCode);
// wrapping would hide the exact enum identity being compared.
type Result int

// Runtime results, matching original_source/vm.cpp's Result enum exactly
// (including reserving 0 for the internal Continue value).
const (
	Continue Result = iota
	Halt
	InfiniteLoop
	InvalidInstAddr
	InvalidDataAddr
	InvalidJumpAddr
	InvalidOpCode
	DivByZero
)

var resultNames = [...]string{
	Continue:         "continue",
	Halt:             "halt",
	InfiniteLoop:     "infinite loop",
	InvalidInstAddr:  "invalid inst addr",
	InvalidDataAddr:  "invalid data addr",
	InvalidJumpAddr:  "invalid jump addr",
	InvalidOpCode:    "invalid opcode",
	DivByZero:        "division by zero",
}

// String returns the human-readable name used in CLI/log output.
func (r Result) String() string {
	if int(r) < 0 || int(r) >= len(resultNames) {
		return "unknown runtime error"
	}
	return resultNames[r]
}

// Error satisfies the error interface so callers that only care about
// "did this fail" can treat a non-Continue, non-Halt Result as an error.
func (r Result) Error() string { return r.String() }

// Terminal reports whether r stops execution (anything but Continue).
func (r Result) Terminal() bool { return r != Continue }

// Ok reports whether r represents a normal, non-error stop (Halt).
func (r Result) Ok() bool { return r == Halt }

// ReservedCode maps a runtime Result to the sentinel ret_val the
// self-interpreter reports for it. Halt, Continue and InvalidInstAddr have
// no reserved code; for those it returns 0.
func (r Result) ReservedCode() Word {
	switch r {
	case InvalidJumpAddr:
		return -11111112
	case InvalidDataAddr:
		return -11111113
	case DivByZero:
		return -11111114
	case InfiniteLoop:
		return -11111115
	case InvalidOpCode:
		return -11111116
	default:
		return 0
	}
}

// ResultFromReservedCode inverts ReservedCode, for comparing a
// self-interpreter's ret_val against the reference interpreter's Result
// for the same program.
func ResultFromReservedCode(v Word) (Result, bool) {
	switch v {
	case -11111112:
		return InvalidJumpAddr, true
	case -11111113:
		return InvalidDataAddr, true
	case -11111114:
		return DivByZero, true
	case -11111115:
		return InfiniteLoop, true
	case -11111116:
		return InvalidOpCode, true
	default:
		return Continue, false
	}
}
