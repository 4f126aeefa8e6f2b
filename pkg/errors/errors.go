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

// Package errors defines common error types used throughout the whatsabi
// codebase. This package provides a centralized location for error
// definitions to ensure consistency across modules.
package errors

import (
	"errors"
)

// =====================
// Bytecode Errors
// =====================

var (
	// ErrMalformedInput is returned when the input cannot be decoded as a
	// hex byte string.
	ErrMalformedInput = errors.New("malformed bytecode input")

	// ErrBufferUnderflow is returned when a relative look-behind slot is
	// requested before the iterator has decoded enough instructions to
	// hold it. Escaping to the public API indicates a scanner bug.
	ErrBufferUnderflow = errors.New("look-behind buffer underflow")
)

// =====================
// Provider Errors
// =====================

var (
	// ErrNoCode is returned when an address holds no deployed bytecode.
	ErrNoCode = errors.New("address has no code")

	// ErrRPCFailure is returned when the remote node rejects or fails an
	// RPC request.
	ErrRPCFailure = errors.New("rpc request failed")
)

// =====================
// Loader Errors
// =====================

var (
	// ErrSignatureNotFound is returned when no known signature matches a
	// selector or event topic.
	ErrSignatureNotFound = errors.New("signature not found")
)
