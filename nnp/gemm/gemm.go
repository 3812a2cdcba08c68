// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import (
	"errors"
	"time"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/ajroetker/go-nnpack/nnp/tile"
)

// Timings accumulates per-phase wall time for one Compute call. A nil
// *Timings disables measurement.
type Timings struct {
	InputTransform      time.Duration
	KernelTransform     time.Duration
	OutputTransform     time.Duration
	BlockMultiplication time.Duration
}

var (
	// ErrBlockingMismatch is returned when the Blocking was not produced for
	// this microkernel family (its subblock maxima differ from the dispatch
	// table's dimensions).
	ErrBlockingMismatch = errors.New("gemm: blocking does not match microkernel family")

	// ErrScratchTooSmall is returned when a packed buffer is smaller than the
	// size the blocking requires.
	ErrScratchTooSmall = errors.New("gemm: packed buffer too small")
)

// Compute evaluates output = input x kernel^T for a row-major batch x
// inChannels input, outChannels x inChannels kernel, and batch x outChannels
// output, using the blocked algorithm described in the package comment.
//
// packedInput and packedKernel are caller-provided scratch of at least
// PackedInputSize and PackedKernelSize elements; their contents on entry are
// irrelevant. With pool == nil all stages run on the calling goroutine and
// the result is bit-identical to the parallel run.
func Compute(pool *workerpool.Pool, input, kernel, output []float32,
	batch, inChannels, outChannels int, blk Blocking,
	packedInput, packedKernel []float32, tm *Timings) error {

	if blk.BatchSubblockMax != BatchSubblockMax ||
		blk.OutChannelsSubblockMax != OutChannelsSubblockMax() {
		return ErrBlockingMismatch
	}
	if len(packedInput) < PackedInputSize(batch, inChannels, blk) ||
		len(packedKernel) < PackedKernelSize(outChannels, blk) {
		return ErrScratchTooSmall
	}

	start := time.Now()
	tile.Compute2D(pool, batch, inChannels, blk.BatchBlockMax, blk.InChannelsBlockMax,
		func(batchBlockStart, inBlockStart, batchBlockSize, inBlockSize int) {
			PackInputMatrix(packedInput, input, inChannels, blk.BatchSubblockMax,
				batchBlockStart, inBlockStart, batchBlockSize, inBlockSize)
		})
	if tm != nil {
		tm.InputTransform += time.Since(start)
	}

	for inBlockStart := 0; inBlockStart < inChannels; inBlockStart += blk.InChannelsBlockMax {
		inBlockSize := min(inChannels-inBlockStart, blk.InChannelsBlockMax)
		accumulate := inBlockStart != 0

		start = time.Now()
		tile.Compute1D(pool, outChannels, blk.OutChannelsSubblockMax,
			func(outSubStart, outSubSize int) {
				PackKernelMatrix(packedKernel, kernel, inChannels, blk.OutChannelsSubblockMax,
					inBlockStart, inBlockSize, outSubStart, outSubSize)
			})
		if tm != nil {
			tm.KernelTransform += time.Since(start)
		}

		start = time.Now()
		for batchBlockStart := 0; batchBlockStart < batch; batchBlockStart += blk.BatchBlockMax {
			batchBlockSize := min(batch-batchBlockStart, blk.BatchBlockMax)

			tile.Compute2D(pool, outChannels, batchBlockSize,
				blk.OutChannelsBlockMax, blk.BatchSubblockMax,
				func(outBlockStart, batchSubStart, outBlockSize, batchSubSize int) {
					multiplyTile(output, packedInput, packedKernel,
						inChannels, outChannels, blk,
						inBlockStart, inBlockSize, accumulate,
						batchBlockStart, batchBlockSize,
						batchSubStart, batchSubSize,
						outBlockStart, outBlockSize)
				})
		}
		if tm != nil {
			tm.BlockMultiplication += time.Since(start)
		}
	}
	return nil
}

// multiplyTile computes the batchSubSize rows of one output-channel block,
// walking the block one output subblock at a time. Each subblock invocation
// reduces over the full inBlockSize input channels of the current block.
func multiplyTile(output, packedInput, packedKernel []float32,
	inChannels, outChannels int, blk Blocking,
	inBlockStart, inBlockSize int, accumulate bool,
	batchBlockStart, batchBlockSize, batchSubStart, batchSubSize,
	outBlockStart, outBlockSize int) {

	// Region of the current (batch block, input-channel block) pair in the
	// packed input, then the current batch subblock's run within it.
	batchBlockStride := roundUp(batchBlockSize, blk.BatchSubblockMax)
	a := packedInput[batchBlockStart*inChannels+
		inBlockStart*batchBlockStride+
		batchSubStart*inBlockSize:]

	for outSubStart := 0; outSubStart < outBlockSize; outSubStart += blk.OutChannelsSubblockMax {
		outSubSize := min(outBlockSize-outSubStart, blk.OutChannelsSubblockMax)

		kern, ok := Lookup(batchSubSize, outSubSize)
		if !ok {
			panic("gemm: no microkernel for planned tile shape")
		}
		b := packedKernel[(outBlockStart+outSubStart)*inBlockSize:]
		c := output[(batchBlockStart+batchSubStart)*outChannels+outBlockStart+outSubStart:]

		kern(inBlockSize, accumulate, a, b, c, outChannels, ColumnMask(outSubSize))
	}
}
