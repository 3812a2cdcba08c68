// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import "github.com/ajroetker/go-highway/hwy"

// Kernel computes one rows x width output tile from packed operands,
// accumulating over k reduction steps.
//
//   - a is the packed input tile: k steps of BatchSubblockMax row values.
//   - b is the packed kernel tile: k steps of OutChannelsSubblockMax values.
//   - c is the true (unpacked) output tensor at the tile origin, row stride
//     cStride; the output is the only unpacked buffer the multiplication
//     stage touches.
//   - mask enables the valid lanes of the tile's last vector, so a kernel
//     built for a full subblock width can serve a narrower residual tile
//     without writing past the true output width.
//
// When accumulate is false the kernel overwrites the output tile (first
// input-channel block); otherwise it adds to it.
type Kernel func(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32])

// kernelTable is the microkernel dispatch table, indexed by
// [rows-1][(width-1)/lanes]. Only shapes produced by the blocking plan are
// ever requested; Lookup guards the bounds so an unplanned shape surfaces as
// a capability failure instead of an out-of-range table access.
var kernelTable = [BatchSubblockMax][outSubblockVectors]Kernel{
	{sgemm1x1v, sgemm1x2v, sgemm1x3v},
	{sgemm2x1v, sgemm2x2v, sgemm2x3v},
	{sgemm3x1v, sgemm3x2v, sgemm3x3v},
	{sgemm4x1v, sgemm4x2v, sgemm4x3v},
}

// Lookup selects the microkernel for a rows x width residual tile. The
// second result is false when no kernel covers the shape.
func Lookup(rows, width int) (Kernel, bool) {
	if rows < 1 || rows > BatchSubblockMax {
		return nil, false
	}
	if width < 1 || width > OutChannelsSubblockMax() {
		return nil, false
	}
	return kernelTable[rows-1][(width-1)/hwy.MaxLanes[float32]()], true
}

// ColumnMask returns the lane-enable mask for the last vector of a tile of
// the given width: all lanes when the width fills the vector, otherwise
// exactly the lanes that do not overshoot the residual width.
func ColumnMask(width int) hwy.Mask[float32] {
	lanes := hwy.MaxLanes[float32]()
	rem := width - (width-1)/lanes*lanes
	return hwy.TailMask[float32](rem)
}

func storeFull(c []float32, acc hwy.Vec[float32], accumulate bool) {
	if accumulate {
		acc = hwy.Add(hwy.Load(c), acc)
	}
	hwy.Store(acc, c)
}

func storeMasked(c []float32, acc hwy.Vec[float32], mask hwy.Mask[float32], accumulate bool) {
	if accumulate {
		acc = hwy.Add(hwy.MaskLoad(mask, c), acc)
	}
	hwy.BlendedStore(acc, mask, c)
}

// One-vector-wide kernels: the single output vector is always masked.

func sgemm1x1v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	bStride := OutChannelsSubblockMax()
	acc0 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb := hwy.Load(b[bi:])
		acc0 = hwy.MulAdd(hwy.Set(a[ai]), vb, acc0)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeMasked(c, acc0, mask, accumulate)
}

func sgemm2x1v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	bStride := OutChannelsSubblockMax()
	acc0 := hwy.Zero[float32]()
	acc1 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb := hwy.Load(b[bi:])
		acc0 = hwy.MulAdd(hwy.Set(a[ai]), vb, acc0)
		acc1 = hwy.MulAdd(hwy.Set(a[ai+1]), vb, acc1)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeMasked(c, acc0, mask, accumulate)
	storeMasked(c[cStride:], acc1, mask, accumulate)
}

func sgemm3x1v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	bStride := OutChannelsSubblockMax()
	acc0 := hwy.Zero[float32]()
	acc1 := hwy.Zero[float32]()
	acc2 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb := hwy.Load(b[bi:])
		acc0 = hwy.MulAdd(hwy.Set(a[ai]), vb, acc0)
		acc1 = hwy.MulAdd(hwy.Set(a[ai+1]), vb, acc1)
		acc2 = hwy.MulAdd(hwy.Set(a[ai+2]), vb, acc2)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeMasked(c, acc0, mask, accumulate)
	storeMasked(c[cStride:], acc1, mask, accumulate)
	storeMasked(c[2*cStride:], acc2, mask, accumulate)
}

func sgemm4x1v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	bStride := OutChannelsSubblockMax()
	acc0 := hwy.Zero[float32]()
	acc1 := hwy.Zero[float32]()
	acc2 := hwy.Zero[float32]()
	acc3 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb := hwy.Load(b[bi:])
		acc0 = hwy.MulAdd(hwy.Set(a[ai]), vb, acc0)
		acc1 = hwy.MulAdd(hwy.Set(a[ai+1]), vb, acc1)
		acc2 = hwy.MulAdd(hwy.Set(a[ai+2]), vb, acc2)
		acc3 = hwy.MulAdd(hwy.Set(a[ai+3]), vb, acc3)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeMasked(c, acc0, mask, accumulate)
	storeMasked(c[cStride:], acc1, mask, accumulate)
	storeMasked(c[2*cStride:], acc2, mask, accumulate)
	storeMasked(c[3*cStride:], acc3, mask, accumulate)
}

// Two-vector-wide kernels: first vector full, second masked.

func sgemm1x2v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	lanes := hwy.MaxLanes[float32]()
	bStride := OutChannelsSubblockMax()
	acc00 := hwy.Zero[float32]()
	acc01 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb0 := hwy.Load(b[bi:])
		vb1 := hwy.Load(b[bi+lanes:])
		va := hwy.Set(a[ai])
		acc00 = hwy.MulAdd(va, vb0, acc00)
		acc01 = hwy.MulAdd(va, vb1, acc01)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeFull(c, acc00, accumulate)
	storeMasked(c[lanes:], acc01, mask, accumulate)
}

func sgemm2x2v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	lanes := hwy.MaxLanes[float32]()
	bStride := OutChannelsSubblockMax()
	acc00 := hwy.Zero[float32]()
	acc01 := hwy.Zero[float32]()
	acc10 := hwy.Zero[float32]()
	acc11 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb0 := hwy.Load(b[bi:])
		vb1 := hwy.Load(b[bi+lanes:])
		va0 := hwy.Set(a[ai])
		va1 := hwy.Set(a[ai+1])
		acc00 = hwy.MulAdd(va0, vb0, acc00)
		acc01 = hwy.MulAdd(va0, vb1, acc01)
		acc10 = hwy.MulAdd(va1, vb0, acc10)
		acc11 = hwy.MulAdd(va1, vb1, acc11)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeFull(c, acc00, accumulate)
	storeMasked(c[lanes:], acc01, mask, accumulate)
	storeFull(c[cStride:], acc10, accumulate)
	storeMasked(c[cStride+lanes:], acc11, mask, accumulate)
}

func sgemm3x2v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	lanes := hwy.MaxLanes[float32]()
	bStride := OutChannelsSubblockMax()
	acc00 := hwy.Zero[float32]()
	acc01 := hwy.Zero[float32]()
	acc10 := hwy.Zero[float32]()
	acc11 := hwy.Zero[float32]()
	acc20 := hwy.Zero[float32]()
	acc21 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb0 := hwy.Load(b[bi:])
		vb1 := hwy.Load(b[bi+lanes:])
		va := hwy.Set(a[ai])
		acc00 = hwy.MulAdd(va, vb0, acc00)
		acc01 = hwy.MulAdd(va, vb1, acc01)
		va = hwy.Set(a[ai+1])
		acc10 = hwy.MulAdd(va, vb0, acc10)
		acc11 = hwy.MulAdd(va, vb1, acc11)
		va = hwy.Set(a[ai+2])
		acc20 = hwy.MulAdd(va, vb0, acc20)
		acc21 = hwy.MulAdd(va, vb1, acc21)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeFull(c, acc00, accumulate)
	storeMasked(c[lanes:], acc01, mask, accumulate)
	storeFull(c[cStride:], acc10, accumulate)
	storeMasked(c[cStride+lanes:], acc11, mask, accumulate)
	storeFull(c[2*cStride:], acc20, accumulate)
	storeMasked(c[2*cStride+lanes:], acc21, mask, accumulate)
}

func sgemm4x2v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	lanes := hwy.MaxLanes[float32]()
	bStride := OutChannelsSubblockMax()
	acc00 := hwy.Zero[float32]()
	acc01 := hwy.Zero[float32]()
	acc10 := hwy.Zero[float32]()
	acc11 := hwy.Zero[float32]()
	acc20 := hwy.Zero[float32]()
	acc21 := hwy.Zero[float32]()
	acc30 := hwy.Zero[float32]()
	acc31 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb0 := hwy.Load(b[bi:])
		vb1 := hwy.Load(b[bi+lanes:])
		va := hwy.Set(a[ai])
		acc00 = hwy.MulAdd(va, vb0, acc00)
		acc01 = hwy.MulAdd(va, vb1, acc01)
		va = hwy.Set(a[ai+1])
		acc10 = hwy.MulAdd(va, vb0, acc10)
		acc11 = hwy.MulAdd(va, vb1, acc11)
		va = hwy.Set(a[ai+2])
		acc20 = hwy.MulAdd(va, vb0, acc20)
		acc21 = hwy.MulAdd(va, vb1, acc21)
		va = hwy.Set(a[ai+3])
		acc30 = hwy.MulAdd(va, vb0, acc30)
		acc31 = hwy.MulAdd(va, vb1, acc31)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeFull(c, acc00, accumulate)
	storeMasked(c[lanes:], acc01, mask, accumulate)
	storeFull(c[cStride:], acc10, accumulate)
	storeMasked(c[cStride+lanes:], acc11, mask, accumulate)
	storeFull(c[2*cStride:], acc20, accumulate)
	storeMasked(c[2*cStride+lanes:], acc21, mask, accumulate)
	storeFull(c[3*cStride:], acc30, accumulate)
	storeMasked(c[3*cStride+lanes:], acc31, mask, accumulate)
}

// Three-vector-wide kernels: two full vectors, third masked.

func sgemm1x3v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	lanes := hwy.MaxLanes[float32]()
	bStride := OutChannelsSubblockMax()
	acc00 := hwy.Zero[float32]()
	acc01 := hwy.Zero[float32]()
	acc02 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb0 := hwy.Load(b[bi:])
		vb1 := hwy.Load(b[bi+lanes:])
		vb2 := hwy.Load(b[bi+2*lanes:])
		va := hwy.Set(a[ai])
		acc00 = hwy.MulAdd(va, vb0, acc00)
		acc01 = hwy.MulAdd(va, vb1, acc01)
		acc02 = hwy.MulAdd(va, vb2, acc02)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeFull(c, acc00, accumulate)
	storeFull(c[lanes:], acc01, accumulate)
	storeMasked(c[2*lanes:], acc02, mask, accumulate)
}

func sgemm2x3v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	lanes := hwy.MaxLanes[float32]()
	bStride := OutChannelsSubblockMax()
	acc00 := hwy.Zero[float32]()
	acc01 := hwy.Zero[float32]()
	acc02 := hwy.Zero[float32]()
	acc10 := hwy.Zero[float32]()
	acc11 := hwy.Zero[float32]()
	acc12 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb0 := hwy.Load(b[bi:])
		vb1 := hwy.Load(b[bi+lanes:])
		vb2 := hwy.Load(b[bi+2*lanes:])
		va := hwy.Set(a[ai])
		acc00 = hwy.MulAdd(va, vb0, acc00)
		acc01 = hwy.MulAdd(va, vb1, acc01)
		acc02 = hwy.MulAdd(va, vb2, acc02)
		va = hwy.Set(a[ai+1])
		acc10 = hwy.MulAdd(va, vb0, acc10)
		acc11 = hwy.MulAdd(va, vb1, acc11)
		acc12 = hwy.MulAdd(va, vb2, acc12)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeFull(c, acc00, accumulate)
	storeFull(c[lanes:], acc01, accumulate)
	storeMasked(c[2*lanes:], acc02, mask, accumulate)
	storeFull(c[cStride:], acc10, accumulate)
	storeFull(c[cStride+lanes:], acc11, accumulate)
	storeMasked(c[cStride+2*lanes:], acc12, mask, accumulate)
}

func sgemm3x3v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	lanes := hwy.MaxLanes[float32]()
	bStride := OutChannelsSubblockMax()
	acc00 := hwy.Zero[float32]()
	acc01 := hwy.Zero[float32]()
	acc02 := hwy.Zero[float32]()
	acc10 := hwy.Zero[float32]()
	acc11 := hwy.Zero[float32]()
	acc12 := hwy.Zero[float32]()
	acc20 := hwy.Zero[float32]()
	acc21 := hwy.Zero[float32]()
	acc22 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb0 := hwy.Load(b[bi:])
		vb1 := hwy.Load(b[bi+lanes:])
		vb2 := hwy.Load(b[bi+2*lanes:])
		va := hwy.Set(a[ai])
		acc00 = hwy.MulAdd(va, vb0, acc00)
		acc01 = hwy.MulAdd(va, vb1, acc01)
		acc02 = hwy.MulAdd(va, vb2, acc02)
		va = hwy.Set(a[ai+1])
		acc10 = hwy.MulAdd(va, vb0, acc10)
		acc11 = hwy.MulAdd(va, vb1, acc11)
		acc12 = hwy.MulAdd(va, vb2, acc12)
		va = hwy.Set(a[ai+2])
		acc20 = hwy.MulAdd(va, vb0, acc20)
		acc21 = hwy.MulAdd(va, vb1, acc21)
		acc22 = hwy.MulAdd(va, vb2, acc22)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeFull(c, acc00, accumulate)
	storeFull(c[lanes:], acc01, accumulate)
	storeMasked(c[2*lanes:], acc02, mask, accumulate)
	storeFull(c[cStride:], acc10, accumulate)
	storeFull(c[cStride+lanes:], acc11, accumulate)
	storeMasked(c[cStride+2*lanes:], acc12, mask, accumulate)
	storeFull(c[2*cStride:], acc20, accumulate)
	storeFull(c[2*cStride+lanes:], acc21, accumulate)
	storeMasked(c[2*cStride+2*lanes:], acc22, mask, accumulate)
}

func sgemm4x3v(k int, accumulate bool, a, b, c []float32, cStride int, mask hwy.Mask[float32]) {
	lanes := hwy.MaxLanes[float32]()
	bStride := OutChannelsSubblockMax()
	acc00 := hwy.Zero[float32]()
	acc01 := hwy.Zero[float32]()
	acc02 := hwy.Zero[float32]()
	acc10 := hwy.Zero[float32]()
	acc11 := hwy.Zero[float32]()
	acc12 := hwy.Zero[float32]()
	acc20 := hwy.Zero[float32]()
	acc21 := hwy.Zero[float32]()
	acc22 := hwy.Zero[float32]()
	acc30 := hwy.Zero[float32]()
	acc31 := hwy.Zero[float32]()
	acc32 := hwy.Zero[float32]()
	ai, bi := 0, 0
	for p := 0; p < k; p++ {
		vb0 := hwy.Load(b[bi:])
		vb1 := hwy.Load(b[bi+lanes:])
		vb2 := hwy.Load(b[bi+2*lanes:])
		va := hwy.Set(a[ai])
		acc00 = hwy.MulAdd(va, vb0, acc00)
		acc01 = hwy.MulAdd(va, vb1, acc01)
		acc02 = hwy.MulAdd(va, vb2, acc02)
		va = hwy.Set(a[ai+1])
		acc10 = hwy.MulAdd(va, vb0, acc10)
		acc11 = hwy.MulAdd(va, vb1, acc11)
		acc12 = hwy.MulAdd(va, vb2, acc12)
		va = hwy.Set(a[ai+2])
		acc20 = hwy.MulAdd(va, vb0, acc20)
		acc21 = hwy.MulAdd(va, vb1, acc21)
		acc22 = hwy.MulAdd(va, vb2, acc22)
		va = hwy.Set(a[ai+3])
		acc30 = hwy.MulAdd(va, vb0, acc30)
		acc31 = hwy.MulAdd(va, vb1, acc31)
		acc32 = hwy.MulAdd(va, vb2, acc32)
		ai += BatchSubblockMax
		bi += bStride
	}
	storeFull(c, acc00, accumulate)
	storeFull(c[lanes:], acc01, accumulate)
	storeMasked(c[2*lanes:], acc02, mask, accumulate)
	storeFull(c[cStride:], acc10, accumulate)
	storeFull(c[cStride+lanes:], acc11, accumulate)
	storeMasked(c[cStride+2*lanes:], acc12, mask, accumulate)
	storeFull(c[2*cStride:], acc20, accumulate)
	storeFull(c[2*cStride+lanes:], acc21, accumulate)
	storeMasked(c[2*cStride+2*lanes:], acc22, mask, accumulate)
	storeFull(c[3*cStride:], acc30, accumulate)
	storeFull(c[3*cStride+lanes:], acc31, accumulate)
	storeMasked(c[3*cStride+2*lanes:], acc32, mask, accumulate)
}
