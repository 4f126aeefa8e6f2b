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

// Package whatsabi reconstructs an approximate ABI for a deployed EVM
// contract from its runtime bytecode alone. It recognizes the selector
// dispatch prologue, walks the intra-contract jump graph, and classifies
// each discovered function's inputs, outputs and state mutability from
// the opcodes its reachable blocks touch. No source, no metadata, no
// execution.
package whatsabi

import (
	"context"

	"github.com/kila6/whatsabi/abi"
	"github.com/kila6/whatsabi/disasm"
	"github.com/kila6/whatsabi/loaders"
	"github.com/kila6/whatsabi/providers"
)

// Disassemble scans the given runtime bytecode (0x-prefixed hex is
// accepted) into a program summary for tooling: jump destinations,
// dispatch table, guards and event topic candidates.
func Disassemble(bytecode string) (*disasm.Program, error) {
	return disasm.Disassemble(bytecode)
}

// AbiFromBytecode reconstructs the approximate ABI of the given runtime
// bytecode. Garbage input that still decodes as hex yields an empty or
// sparse ABI rather than an error.
func AbiFromBytecode(bytecode string) ([]abi.Record, error) {
	p, err := disasm.Disassemble(bytecode)
	if err != nil {
		return nil, err
	}
	return abi.FromProgram(p), nil
}

// Autoload fetches the code deployed at address through the provider,
// reconstructs its ABI, and, when a loader is given, resolves selectors
// and topics to human-readable signatures.
func Autoload(ctx context.Context, address string, provider providers.CodeProvider, loader loaders.SignatureLoader) ([]abi.Record, error) {
	code, err := provider.GetCode(ctx, address)
	if err != nil {
		return nil, err
	}
	records, err := AbiFromBytecode(code)
	if err != nil {
		return nil, err
	}
	if loader != nil {
		if err := loaders.ResolveRecords(ctx, loader, records); err != nil {
			return nil, err
		}
	}
	return records, nil
}
