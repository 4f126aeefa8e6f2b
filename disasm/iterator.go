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
	"github.com/kila6/whatsabi/opcodes"
	kerrors "github.com/kila6/whatsabi/pkg/errors"
)

// Iterator steps through a byte sequence one instruction at a time,
// skipping PUSH immediates, and keeps a bounded look-behind buffer of the
// byte positions of the most recently decoded instructions. It is
// forward-only and single-use.
type Iterator struct {
	code []byte

	nextPos  int
	nextStep int

	// buf holds the byte positions of the last len(buf) instructions in
	// execution order, newest last. Positions, not opcodes: reading back
	// through the buffer implicitly skips PUSH operands.
	buf  []int
	size int
}

// NewIterator returns an iterator over code with a look-behind buffer of
// the given size. Sizes below one are clamped to one.
func NewIterator(code []byte, lookBehind int) *Iterator {
	if lookBehind < 1 {
		lookBehind = 1
	}
	return &Iterator{
		code: code,
		buf:  make([]int, 0, lookBehind),
		size: lookBehind,
	}
}

// HasMore reports whether another instruction can be decoded.
func (it *Iterator) HasMore() bool {
	return it.nextPos < len(it.code)
}

// Next decodes the instruction at the current position and advances past
// it and its immediate operand, if any. Once the code is exhausted it
// returns STOP without advancing further.
func (it *Iterator) Next() opcodes.OpCode {
	if !it.HasMore() {
		return opcodes.STOP
	}
	op := opcodes.OpCode(it.code[it.nextPos])
	if len(it.buf) == it.size {
		copy(it.buf, it.buf[1:])
		it.buf = it.buf[:len(it.buf)-1]
	}
	it.buf = append(it.buf, it.nextPos)
	it.nextPos += 1 + op.PushWidth()
	it.nextStep++
	return op
}

// Step returns the instruction index of the most recent Next, or -1
// before the first call.
func (it *Iterator) Step() int {
	return it.nextStep - 1
}

// Pos returns the byte position of the most recent Next, or -1 before
// the first call.
func (it *Iterator) Pos() int {
	if it.nextStep == 0 {
		return -1
	}
	return it.buf[len(it.buf)-1]
}

// At returns the opcode at position p. Non-negative positions are
// absolute byte offsets; reading past the end of the code yields STOP.
// Negative positions index the look-behind buffer: At(-1) is the current
// instruction, At(-2) the one before it. Requesting a relative slot the
// buffer does not hold fails with ErrBufferUnderflow.
//
// Absolute positions are not checked against instruction boundaries;
// that is the caller's responsibility.
func (it *Iterator) At(p int) (opcodes.OpCode, error) {
	rp, err := it.resolve(p)
	if err != nil {
		return opcodes.STOP, err
	}
	if rp >= len(it.code) {
		return opcodes.STOP, nil
	}
	return opcodes.OpCode(it.code[rp]), nil
}

// Value returns the immediate operand of the current instruction. For
// anything that is not a PUSH, and before the first Next, it returns nil.
func (it *Iterator) Value() []byte {
	v, _ := it.ValueAt(-1)
	return v
}

// ValueAt returns the immediate operand of the PUSH at position p,
// resolved the same way as At. An operand that would extend past the end
// of the code is truncated to the bytes that exist.
func (it *Iterator) ValueAt(p int) ([]byte, error) {
	rp, err := it.resolve(p)
	if err != nil {
		return nil, err
	}
	if rp >= len(it.code) {
		return nil, nil
	}
	op := opcodes.OpCode(it.code[rp])
	w := op.PushWidth()
	if w == 0 {
		return nil, nil
	}
	end := rp + 1 + w
	if end > len(it.code) {
		end = len(it.code)
	}
	return it.code[rp+1 : end], nil
}

func (it *Iterator) resolve(p int) (int, error) {
	if p >= 0 {
		return p, nil
	}
	idx := len(it.buf) + p
	if idx < 0 {
		return 0, kerrors.ErrBufferUnderflow
	}
	return it.buf[idx], nil
}
