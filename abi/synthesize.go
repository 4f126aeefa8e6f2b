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

package abi

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/kila6/whatsabi/disasm"
	"github.com/kila6/whatsabi/opcodes"
)

// FromProgram maps each discovered selector to a function record and each
// event topic candidate to an event record. Selectors whose destination
// is not a known JUMPDEST are dropped. Functions are emitted in selector
// order, then events in collection order, so output is deterministic.
func FromProgram(p *disasm.Program) []Record {
	out := make([]Record, 0, len(p.Jumps)+len(p.EventCandidates))

	for _, selector := range p.Selectors() {
		dest := p.Jumps[selector]
		fn, ok := p.Dests[dest]
		if !ok {
			continue
		}
		tags := CollapseTags(fn, p.Dests)

		record := &Function{
			Type:     "function",
			Selector: selector,
			Payable:  !p.IsNotPayable(dest),
		}
		switch {
		case record.Payable:
			record.StateMutability = StateMutabilityPayable
		case !tags.Contains(opcodes.SSTORE):
			record.StateMutability = StateMutabilityView
		default:
			record.StateMutability = StateMutabilityNonPayable
		}
		if tags.Contains(opcodes.RETURN) {
			record.Outputs = []Param{{Type: "bytes"}}
		}
		if tags.Contains(opcodes.CALLDATALOAD) ||
			tags.Contains(opcodes.CALLDATASIZE) ||
			tags.Contains(opcodes.CALLDATACOPY) {
			record.Inputs = []Param{{Type: "bytes"}}
		}
		out = append(out, record)
	}

	for _, topic := range p.EventCandidates {
		out = append(out, &Event{Type: "event", Hash: topic})
	}
	return out
}

// CollapseTags returns the union of the function's own tags with the
// collapsed tags of every block reachable through its candidate jumps.
// The jump graph may contain cycles and invalid targets: traversal keeps
// a visited set keyed by destination offset and skips targets that are
// not known JUMPDESTs.
func CollapseTags(fn *disasm.Function, dests map[int]*disasm.Function) mapset.Set[opcodes.OpCode] {
	tags := mapset.NewThreadUnsafeSet[opcodes.OpCode]()
	visited := mapset.NewThreadUnsafeSet[int]()
	collapse(fn, dests, tags, visited)
	return tags
}

func collapse(fn *disasm.Function, dests map[int]*disasm.Function, tags mapset.Set[opcodes.OpCode], visited mapset.Set[int]) {
	if visited.Contains(fn.Start) {
		return
	}
	visited.Add(fn.Start)
	for _, op := range fn.OpTags.ToSlice() {
		tags.Add(op)
	}
	for _, target := range fn.Jumps {
		next, ok := dests[target]
		if !ok {
			continue
		}
		collapse(next, dests, tags, visited)
	}
}
