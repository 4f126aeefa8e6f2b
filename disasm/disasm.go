// Copyright 2023-2026 The whatsabi Authors
// This file is part of the whatsabi library.
//
// The whatsabi library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The whatsabi library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the whatsabi library. If not, see <http://www.gnu.org/licenses/>.

// Package disasm reconstructs a program summary from raw EVM runtime
// bytecode in a single forward pass: jump destinations and their basic
// blocks, the selector dispatch table, non-payable guards and event topic
// candidates. It does not execute anything and it never fails on garbage
// bytecode; unrecognizable input just yields a sparse summary.
package disasm

import (
	"encoding/hex"
	"math"
	"math/bits"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"

	"github.com/kila6/whatsabi/log"
	"github.com/kila6/whatsabi/opcodes"
)

// scanLookBehind is the window the pattern rules need: the canonical
// selector shape PUSHn EQ PUSHm JUMPI spans four instructions.
const scanLookBehind = 4

// interestingOps are the opcodes recorded as tags on each basic block.
// Their presence drives input/output and mutability inference.
var interestingOps = mapset.NewSet(
	opcodes.STOP,
	opcodes.RETURN,
	opcodes.CALLDATALOAD,
	opcodes.CALLDATASIZE,
	opcodes.CALLDATACOPY,
	opcodes.SLOAD,
	opcodes.SSTORE,
)

// IsInteresting reports whether op is recorded as a basic-block tag.
func IsInteresting(op opcodes.OpCode) bool {
	return interestingOps.Contains(op)
}

// Disassemble decodes the hex string and scans it into a Program.
// The only failure mode is undecodable hex.
func Disassemble(input string) (*Program, error) {
	code, err := ParseHex(input)
	if err != nil {
		return nil, err
	}
	return Scan(code), nil
}

// Scan runs the single-pass scanner over raw bytecode.
func Scan(code []byte) *Program {
	p := newProgram()
	it := NewIterator(code, scanLookBehind)

	// current starts as a scratch block so instructions before the first
	// JUMPDEST have somewhere to go; it is never registered in Dests.
	current := newFunction(0, 0)
	inJumpTable := true
	var lastPush32 []byte

	// Pruning bounds for dynamic-jump candidates. The halfway point is a
	// rough upper bound on plausible code offsets; the true maximum is
	// unknown until the scan completes.
	minOffset := 0
	maxOffset := len(code) / 2
	maxOffsetLen := byteLen(maxOffset)

	for it.HasMore() {
		op := it.Next()
		switch {
		case op == opcodes.PUSH32:
			lastPush32 = it.Value()

		case op.IsLog() && len(lastPush32) > 0:
			// lastPush32 is deliberately not cleared: consecutive LOGs
			// with no fresh PUSH32 in between all attribute to the same
			// topic. Known approximation.
			p.EventCandidates = append(p.EventCandidates, "0x"+hex.EncodeToString(lastPush32))

		case op == opcodes.JUMPDEST:
			pos := it.Pos()
			current.End = pos - 1
			current = newFunction(pos, it.Step())
			p.Dests[pos] = current

			// Non-payable guard. Direct byte indexing is valid here:
			// CALLVALUE, DUP1 and ISZERO carry no immediates.
			if pos+3 < len(code) &&
				opcodes.OpCode(code[pos+1]) == opcodes.CALLVALUE &&
				opcodes.OpCode(code[pos+2]) == opcodes.DUP1 &&
				opcodes.OpCode(code[pos+3]) == opcodes.ISZERO {
				p.NotPayable[pos] = it.Step()
			}

			// A block that starts by re-reading CALLDATASIZE marks the
			// end of the dispatch prologue.
			if inJumpTable && pos+1 < len(code) &&
				opcodes.OpCode(code[pos+1]) == opcodes.CALLDATASIZE {
				inJumpTable = false
				minOffset = it.Step() + 1
			}

		case op == opcodes.JUMP || op == opcodes.JUMPI:
			// Branch to a statically-pushed target.
			if it.Step() >= 1 {
				if prev, err := it.At(-2); err == nil && prev.IsPush() {
					v, _ := it.ValueAt(-2)
					if off, ok := pushOffset(v); ok {
						current.Jumps = append(current.Jumps, off)
					}
				}
			}
			if inJumpTable && op == opcodes.JUMPI {
				trySelector(it, p)
			}

		case interestingOps.Contains(op):
			current.OpTags.Add(op)

		case !inJumpTable && op.IsPush():
			// Dynamic-jump candidate. Anything outside the plausible
			// offset window is noise and dropped.
			v := it.Value()
			if len(v) > maxOffsetLen {
				break
			}
			off, ok := pushOffset(v)
			if !ok || off < minOffset || off > maxOffset {
				break
			}
			current.Jumps = append(current.Jumps, off)
			log.Trace("Dynamic jump candidate", "pos", it.Pos(), "offset", off)
		}
	}
	return p
}

// trySelector matches the dispatch-table entry patterns ending at the
// JUMPI just decoded. At most one selector is registered per JUMPI; the
// canonical four-instruction shape wins over the zero-selector peephole.
//
//	PUSHn <selector> EQ PUSHm <dest> JUMPI
//	ISZERO PUSHm <dest> JUMPI          (solc peephole for 0x00000000)
//
// The step checks make the look-behind reads safe near the start of the
// code.
func trySelector(it *Iterator, p *Program) {
	if it.Step() >= 3 {
		m4, _ := it.At(-4)
		m3, _ := it.At(-3)
		m2, _ := it.At(-2)
		if m4.IsPush() && m3 == opcodes.EQ && m2.IsPush() {
			destBytes, _ := it.ValueAt(-2)
			if dest, ok := pushOffset(destBytes); ok {
				selBytes, _ := it.ValueAt(-4)
				p.Jumps[formatSelector(selBytes)] = dest
			}
			return
		}
	}
	if it.Step() >= 2 {
		m3, _ := it.At(-3)
		m2, _ := it.At(-2)
		if m3 == opcodes.ISZERO && m2.IsPush() {
			destBytes, _ := it.ValueAt(-2)
			if dest, ok := pushOffset(destBytes); ok {
				p.Jumps["0x00000000"] = dest
			}
		}
	}
}

// formatSelector renders push operand bytes as a canonical selector:
// "0x" followed by exactly 8 lower-case hex digits. Compilers shrink the
// immediate for leading-zero selectors, so short operands are left-padded;
// anything longer than four bytes keeps its low-order four.
func formatSelector(b []byte) string {
	if len(b) > 4 {
		b = b[len(b)-4:]
	}
	var sel [4]byte
	copy(sel[4-len(b):], b)
	return "0x" + hex.EncodeToString(sel[:])
}

// pushOffset interprets push operand bytes as a big-endian unsigned
// integer. Values that cannot possibly be a code offset report ok=false.
func pushOffset(v []byte) (int, bool) {
	if len(v) == 0 {
		return 0, false
	}
	u := new(uint256.Int).SetBytes(v)
	if !u.IsUint64() || u.Uint64() > uint64(math.MaxInt) {
		return 0, false
	}
	return int(u.Uint64()), true
}

// byteLen returns the width of the shortest big-endian encoding of n.
func byteLen(n int) int {
	l := (bits.Len(uint(n)) + 7) / 8
	if l == 0 {
		l = 1
	}
	return l
}
