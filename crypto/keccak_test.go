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

package crypto

import (
	"encoding/hex"
	"testing"
)

func TestKeccak256(t *testing.T) {
	// Keccak-256(""), the canonical empty hash.
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got := hex.EncodeToString(Keccak256()); got != want {
		t.Errorf("Keccak256() = %s, want %s", got, want)
	}
	if got := hex.EncodeToString(Keccak256(nil, nil)); got != want {
		t.Errorf("Keccak256(nil, nil) = %s, want %s", got, want)
	}
}

func TestSelectorFromSignature(t *testing.T) {
	tests := []struct {
		sig      string
		selector string
	}{
		{"totalSupply()", "0x18160ddd"},
		{"transfer(address,uint256)", "0xa9059cbb"},
		{"balanceOf(address)", "0x70a08231"},
		{"approve(address,uint256)", "0x095ea7b3"},
	}
	for _, tt := range tests {
		if got := SelectorFromSignature(tt.sig); got != tt.selector {
			t.Errorf("SelectorFromSignature(%q) = %s, want %s", tt.sig, got, tt.selector)
		}
	}
}

func TestEventTopicFromSignature(t *testing.T) {
	tests := []struct {
		sig   string
		topic string
	}{
		{"Transfer(address,address,uint256)", "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"},
		{"Approval(address,address,uint256)", "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"},
	}
	for _, tt := range tests {
		if got := EventTopicFromSignature(tt.sig); got != tt.topic {
			t.Errorf("EventTopicFromSignature(%q) = %s, want %s", tt.sig, got, tt.topic)
		}
	}
}
