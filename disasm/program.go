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

package disasm

import (
	"encoding/hex"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	perrors "github.com/pkg/errors"

	"github.com/kila6/whatsabi/opcodes"
	kerrors "github.com/kila6/whatsabi/pkg/errors"
)

// Function is the record kept for one basic block, spanning from its
// JUMPDEST up to (but not including) the next one.
type Function struct {
	// Start is the byte offset of the JUMPDEST opening the block.
	Start int

	// Step is the instruction index of the JUMPDEST.
	Step int

	// OpTags collects the interesting opcodes observed inside the block.
	OpTags mapset.Set[opcodes.OpCode]

	// Jumps lists candidate destination byte offsets the block may
	// transfer control to. Targets are unverified; synthesis discards
	// anything that does not resolve to a known JUMPDEST.
	Jumps []int

	// End is the byte offset of the last instruction before the next
	// JUMPDEST, or -1 while the block is still open.
	End int
}

func newFunction(start, step int) *Function {
	return &Function{
		Start:  start,
		Step:   step,
		OpTags: mapset.NewThreadUnsafeSet[opcodes.OpCode](),
		End:    -1,
	}
}

// Program is the summary produced by a single disassembly scan. It is
// populated during the scan and read-only afterwards.
type Program struct {
	// Dests maps each JUMPDEST byte offset to its basic block record.
	Dests map[int]*Function

	// Jumps maps a 4-byte function selector ("0x" + 8 lower-case hex
	// digits) to the destination byte offset its dispatch entry jumps
	// to. A selector emitted twice keeps the later destination.
	Jumps map[string]int

	// NotPayable maps the byte offset of each JUMPDEST that is directly
	// followed by the canonical non-payable guard (CALLVALUE DUP1
	// ISZERO) to the instruction index it was seen at.
	NotPayable map[int]int

	// EventCandidates lists, in collection order, the 32-byte PUSH32
	// operands observed immediately before a LOG instruction, as
	// 0x-prefixed hex strings.
	EventCandidates []string
}

func newProgram() *Program {
	return &Program{
		Dests:      make(map[int]*Function),
		Jumps:      make(map[string]int),
		NotPayable: make(map[int]int),
	}
}

// IsNotPayable reports whether the block at the given byte offset opens
// with the non-payable guard sequence.
func (p *Program) IsNotPayable(dest int) bool {
	_, ok := p.NotPayable[dest]
	return ok
}

// Selectors returns the discovered selectors in lexicographic order, so
// that consumers iterate deterministically.
func (p *Program) Selectors() []string {
	out := make([]string, 0, len(p.Jumps))
	for sel := range p.Jumps {
		out = append(out, sel)
	}
	sort.Strings(out)
	return out
}

// ParseHex decodes an optionally 0x-prefixed hex string into bytes.
// Odd-length input or invalid characters fail with ErrMalformedInput.
func ParseHex(input string) ([]byte, error) {
	s := strings.TrimSpace(input)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	code, err := hex.DecodeString(s)
	if err != nil {
		return nil, perrors.Wrap(kerrors.ErrMalformedInput, err.Error())
	}
	return code, nil
}
