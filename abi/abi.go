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

// Package abi defines the approximate ABI records reconstructed from
// bytecode and the synthesis pass that derives them from a program
// summary. The records are approximate by construction: parameter types
// are opaque, names are absent unless a signature database fills them in
// later, and mutability is inferred from the opcode surface only.
package abi

// Mutability classifications. "pure" is never claimed: dynamic jumps can
// bypass the visible SLOAD/SSTORE surface.
const (
	StateMutabilityPayable    = "payable"
	StateMutabilityNonPayable = "nonpayable"
	StateMutabilityView       = "view"
)

// Param is an input or output placeholder. Argument types are not
// recovered from bytecode, so Type is always the opaque "bytes".
type Param struct {
	Type string `json:"type"`
}

// Record is one reconstructed ABI entry, either a *Function or an
// *Event.
type Record interface {
	// RecordType returns "function" or "event".
	RecordType() string
}

// Function describes one selector discovered in the dispatch table.
type Function struct {
	Type            string  `json:"type"`
	Selector        string  `json:"selector"`
	Payable         bool    `json:"payable"`
	StateMutability string  `json:"state_mutability"`
	Inputs          []Param `json:"inputs,omitempty"`
	Outputs         []Param `json:"outputs,omitempty"`

	// Signature is the resolved human-readable signature, filled in by a
	// signature loader when available.
	Signature string `json:"signature,omitempty"`
}

// RecordType implements Record.
func (f *Function) RecordType() string { return f.Type }

// Event describes one event topic candidate observed before a LOG.
type Event struct {
	Type string `json:"type"`
	Hash string `json:"hash"`

	// Signature is the resolved event signature, filled in by a
	// signature loader when available.
	Signature string `json:"signature,omitempty"`
}

// RecordType implements Record.
func (e *Event) RecordType() string { return e.Type }
