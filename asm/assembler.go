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

import (
	"fmt"

	"github.com/tomkod/self-vm/vm"
)

// Error reports an assembly failure at a merged-buffer line number. The
// driver resolves Line back to a source coordinate with DecodeLine and
// the LineMap ReadSource produced for the same buffer.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Assemble compiles merged source text into an operation vector, using
// and mutating sym — callers can share one Symbols across multiple
// Assemble calls (e.g. to prepend a fixed prelude), or inspect Labels and
// Consts afterward. Compilation is fatal-first: the first error stops
// assembly immediately and is returned, matching
// original_source/vm.cpp's compile(), which does the same rather than
// accumulating a list. Pass Verbose(logger) to log each defined label or
// constant during pass 0.
func Assemble(src []byte, sym *Symbols, opts ...Option) ([]vm.Op, error) {
	cfg := newConfig(opts)
	var ops []vm.Op

	for pass := 0; pass < 2; pass++ {
		instOffs := 0
		sc := newScanner(src)
		if pass == 1 {
			ops = make([]vm.Op, 0, 64)
		}

		for {
			cmd, ok := sc.token()
			if !ok {
				break
			}
			if cmd[0] == '%' {
				sc.skipLine()
				continue
			}
			if cmd[len(cmd)-1] == ':' {
				if pass == 1 {
					continue
				}
				name := cmd[:len(cmd)-1]
				if _, exists := sym.Labels[name]; exists {
					return nil, &Error{sc.line, fmt.Sprintf("duplicate label %q", name)}
				}
				sym.Labels[name] = instOffs
				if cfg.log != nil {
					cfg.log.WithField("label", name).WithField("offset", instOffs).Debug("self-vm: defined label")
				}
				continue
			}
			// The duplicate-name checks below test cmd ("enum"/"def")
			// rather than the symbol actually being defined (arg1), so
			// they almost never fire — this mirrors the reference
			// compiler's compile() exactly and is documented as a known
			// near-no-op rather than silently tightened.
			if cmd == "enum" {
				arg1, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, "enum: missing argument"}
				}
				if pass == 1 {
					continue
				}
				if _, exists := sym.Consts[cmd]; exists {
					return nil, &Error{sc.line, "enum: duplicate directive"}
				}
				sym.LastConst++
				sym.Consts[arg1] = sym.LastConst
				if cfg.log != nil {
					cfg.log.WithField("const", arg1).WithField("value", sym.LastConst).Debug("self-vm: defined constant")
				}
				continue
			}
			if cmd == "def" {
				arg1, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, "def: missing first argument"}
				}
				arg2, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, "def: missing second argument"}
				}
				if pass == 1 {
					continue
				}
				if _, exists := sym.Consts[cmd]; exists {
					return nil, &Error{sc.line, "def: duplicate directive"}
				}
				sym.LastConst = atoi32(arg2)
				sym.Consts[arg1] = sym.LastConst
				if cfg.log != nil {
					cfg.log.WithField("const", arg1).WithField("value", sym.LastConst).Debug("self-vm: defined constant")
				}
				continue
			}

			opcode, ok := sym.Opcodes[cmd]
			if !ok {
				return nil, &Error{sc.line, fmt.Sprintf("unknown mnemonic %q", cmd)}
			}
			op := vm.Op{Code: opcode}

			switch opcode {
			case vm.OpNop, vm.OpHlt, vm.OpDbgext:
				// no operands

			case vm.OpJa, vm.OpDbg:
				arg1, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, cmd + ": missing operand"}
				}
				if pass == 1 {
					v, err := resolveValue(sym, arg1)
					if err != nil {
						return nil, &Error{sc.line, err.Error()}
					}
					op.Arg1 = v
				}

			case vm.OpJr, vm.OpJnz, vm.OpJz, vm.OpJg, vm.OpJge, vm.OpJl, vm.OpJle:
				arg1, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, cmd + ": missing operand"}
				}
				if pass == 1 {
					v, err := resolveRel(sym, arg1, instOffs)
					if err != nil {
						return nil, &Error{sc.line, err.Error()}
					}
					op.Arg1 = v
				}
				if opcode != vm.OpJr {
					arg2, ok := sc.token()
					if !ok {
						return nil, &Error{sc.line, cmd + ": missing second operand"}
					}
					if pass == 1 {
						v, err := resolveValue(sym, arg2)
						if err != nil {
							return nil, &Error{sc.line, err.Error()}
						}
						op.Arg2 = v
					}
				}

			case vm.OpLia:
				arg1, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, "lia: missing destination operand"}
				}
				arg2, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, "lia: missing label operand"}
				}
				subarg2, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, "lia: missing offset operand"}
				}
				if pass == 1 {
					v1, err := resolveValue(sym, arg1)
					if err != nil {
						return nil, &Error{sc.line, err.Error()}
					}
					v2, err := resolveRel(sym, arg2, instOffs)
					if err != nil {
						return nil, &Error{sc.line, err.Error()}
					}
					dv, err := resolveValue(sym, subarg2)
					if err != nil {
						return nil, &Error{sc.line, err.Error()}
					}
					op.Arg1 = v1
					// lia's second operand mixes a label-relative offset
					// with a numeric addend with no overflow check at
					// assembly time, per original_source/vm.cpp.
					op.Arg2 = v2 + dv
				}

			default:
				arg1, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, cmd + ": missing first operand"}
				}
				arg2, ok := sc.token()
				if !ok {
					return nil, &Error{sc.line, cmd + ": missing second operand"}
				}
				if pass == 1 {
					v1, err := resolveValue(sym, arg1)
					if err != nil {
						return nil, &Error{sc.line, err.Error()}
					}
					v2, err := resolveValue(sym, arg2)
					if err != nil {
						return nil, &Error{sc.line, err.Error()}
					}
					op.Arg1, op.Arg2 = v1, v2
				}
			}

			if pass == 1 {
				ops = append(ops, op)
			}
			instOffs += vm.InstSize
		}
	}

	return ops, nil
}

// resolveValue resolves a *value* operand: a named constant, else a
// decimal integer literal.
func resolveValue(sym *Symbols, tok string) (vm.Word, error) {
	if v, ok := sym.Consts[tok]; ok {
		return vm.Word(v), nil
	}
	if !isInteger(tok) {
		return 0, fmt.Errorf("%q is not a known constant or integer", tok)
	}
	return vm.Word(atoi32(tok)), nil
}

// resolveRel resolves a *jump target* operand: a label, turned into the
// relative delta instOffs-label_offs (positive for labels earlier in the
// text), else a decimal integer literal taken as the delta directly.
func resolveRel(sym *Symbols, tok string, instOffs int) (vm.Word, error) {
	if off, ok := sym.Labels[tok]; ok {
		return vm.Word(instOffs - off), nil
	}
	if !isInteger(tok) {
		return 0, fmt.Errorf("%q is not a known label or integer", tok)
	}
	return vm.Word(atoi32(tok)), nil
}
