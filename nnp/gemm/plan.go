// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import "github.com/ajroetker/go-highway/hwy"

// Register-blocking constants of the microkernel family. The dispatch table
// in kernels.go is sized by these: BatchSubblockMax rows of kernels, one
// column per vector of subblock width. They are properties of the kernels,
// not of the hardware; retune them when the kernel family changes.
const (
	// BatchSubblockMax is the maximum number of batch rows one microkernel
	// invocation computes.
	BatchSubblockMax = 4

	// outSubblockVectors is the maximum output-channel width of one
	// microkernel invocation, in SIMD vectors. At the AVX2 lane width of 8
	// float32s this yields a 24-wide subblock.
	outSubblockVectors = 3
)

// OutChannelsSubblockMax returns the maximum output-channel subblock width in
// elements for the current SIMD configuration.
func OutChannelsSubblockMax() int {
	return outSubblockVectors * hwy.MaxLanes[float32]()
}

// Blocking holds the per-call tile size maxima used by packing, the
// multiplication driver, and scratch sizing. Blocks are clipped to the
// remaining size at each level, so a dimension does not have to divide its
// block maximum.
type Blocking struct {
	BatchBlockMax          int
	BatchSubblockMax       int
	InChannelsBlockMax     int
	OutChannelsBlockMax    int
	OutChannelsSubblockMax int
}

// Plan derives block maxima from effective cache capacities, given in float32
// elements:
//
//   - one input-channel's worth of packed input subblock plus packed kernel
//     subblock must fit in L1;
//   - the packed input working set of one input-channel block must fit in L3;
//   - the packed kernel working set of one input-channel block must fit in L2.
//
// The L2/L3-level maxima are rounded down to a multiple of the corresponding
// subblock maximum, so every block except a ragged last one is an exact
// multiple of its subblock size. All returned maxima are at least one
// subblock regardless of how small the reported caches are.
func Plan(l1, l2, l3 int) Blocking {
	outSubMax := OutChannelsSubblockMax()

	inBlockMax := l1 / (BatchSubblockMax + outSubMax)
	if inBlockMax < 1 {
		inBlockMax = 1
	}

	batchBlockMax := roundDown(l3/inBlockMax, BatchSubblockMax)
	if batchBlockMax < BatchSubblockMax {
		batchBlockMax = BatchSubblockMax
	}

	outBlockMax := roundDown(l2/inBlockMax, outSubMax)
	if outBlockMax < outSubMax {
		outBlockMax = outSubMax
	}

	return Blocking{
		BatchBlockMax:          batchBlockMax,
		BatchSubblockMax:       BatchSubblockMax,
		InChannelsBlockMax:     inBlockMax,
		OutChannelsBlockMax:    outBlockMax,
		OutChannelsSubblockMax: outSubMax,
	}
}

// PackedInputSize returns the element count of the packed input buffer for a
// batch x inChannels activation matrix.
func PackedInputSize(batch, inChannels int, blk Blocking) int {
	return roundUp(batch, blk.BatchSubblockMax) * inChannels
}

// PackedKernelSize returns the element count of the packed kernel buffer.
// The buffer holds one input-channel block at a time and is rewritten for
// each block, so it is sized by InChannelsBlockMax rather than the full
// input-channel count.
func PackedKernelSize(outChannels int, blk Blocking) int {
	return roundUp(outChannels, blk.OutChannelsSubblockMax) * blk.InChannelsBlockMax
}

func roundUp(n, multiple int) int {
	return ((n + multiple - 1) / multiple) * multiple
}

func roundDown(n, multiple int) int {
	return (n / multiple) * multiple
}
