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

// Package selectors offers thin views over the disassembly scan for
// callers that only want the raw dispatch selectors or event topic
// candidates of a contract.
package selectors

import (
	"github.com/kila6/whatsabi/disasm"
)

// FromBytecode returns the 4-byte selectors discovered in the dispatch
// prologue of the given runtime bytecode, in lexicographic order.
func FromBytecode(bytecode string) ([]string, error) {
	p, err := disasm.Disassemble(bytecode)
	if err != nil {
		return nil, err
	}
	return p.Selectors(), nil
}

// EventTopicsFromBytecode returns the 32-byte event topic candidates of
// the given runtime bytecode, in the order they were observed.
func EventTopicsFromBytecode(bytecode string) ([]string, error) {
	p, err := disasm.Disassemble(bytecode)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), p.EventCandidates...), nil
}
