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

// Package crypto provides the Keccak-256 hashing used to derive function
// selectors and event topics from human-readable signatures.
package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// SelectorFromSignature returns the 4-byte dispatch selector for a
// canonical function signature, e.g.
// "transfer(address,uint256)" → "0xa9059cbb".
func SelectorFromSignature(sig string) string {
	return "0x" + hex.EncodeToString(Keccak256([]byte(sig))[:4])
}

// EventTopicFromSignature returns the 32-byte log topic for a canonical
// event signature, e.g. "Transfer(address,address,uint256)".
func EventTopicFromSignature(sig string) string {
	return "0x" + hex.EncodeToString(Keccak256([]byte(sig)))
}
