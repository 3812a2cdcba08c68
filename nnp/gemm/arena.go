// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"errors"
	"unsafe"
)

// ErrArenaTooLarge is returned when the requested spans cannot be allocated,
// either because the total overflows or because the runtime refuses the
// backing slice.
var ErrArenaTooLarge = errors.New("gemm: scratch allocation failed")

const (
	// arenaAlign is the byte alignment of the arena base and every span
	// handed out by Next. One cache line keeps packed operands from sharing
	// lines across span boundaries.
	arenaAlign = 64

	arenaAlignElems = arenaAlign / 4 // float32 elements per cache line
)

// Arena is a single-allocation scratch region carved into aligned spans. All
// spans for one operator call come from one backing slice, so the operator
// performs exactly one scratch allocation regardless of how many buffers it
// needs.
type Arena struct {
	buf  []float32
	next int
}

// NewArena allocates one backing slice large enough for all spans, each
// rounded up to a cache-line multiple. Allocation failure is reported as an
// error rather than a panic so callers can map it to an out-of-memory status.
func NewArena(spans ...int) (a *Arena, err error) {
	total := arenaAlignElems // slack to align the base pointer
	for _, span := range spans {
		if span < 0 {
			return nil, ErrArenaTooLarge
		}
		padded := roundUp(span, arenaAlignElems)
		if padded < span || total+padded < total {
			return nil, ErrArenaTooLarge
		}
		total += padded
	}

	defer func() {
		if recover() != nil {
			a, err = nil, ErrArenaTooLarge
		}
	}()
	buf := make([]float32, total)

	base := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	skip := 0
	if rem := base % arenaAlign; rem != 0 {
		skip = int(arenaAlign-rem) / 4
	}
	return &Arena{buf: buf[skip:]}, nil
}

// Next returns the next span of count elements. Spans are disjoint and each
// starts on a cache-line boundary. Requesting more than was reserved at
// construction panics; span sizes are computed by the same helpers that sized
// the arena, so that is a programming error, not a runtime condition.
func (a *Arena) Next(count int) []float32 {
	start := a.next
	a.next = start + roundUp(count, arenaAlignElems)
	return a.buf[start : start+count : a.next]
}

// Release drops the backing slice. Safe to call multiple times; the operator
// entry points release on every exit path.
func (a *Arena) Release() {
	if a == nil {
		return
	}
	a.buf = nil
	a.next = 0
}
