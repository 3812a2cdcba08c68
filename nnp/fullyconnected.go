// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"time"

	"github.com/ajroetker/go-highway/hwy/contrib/dot"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/ajroetker/go-nnpack/nnp/gemm"
	"github.com/ajroetker/go-nnpack/nnp/tile"
)

// inferenceTile is the output-channel tile size of the batch-1 fast path.
// Small enough to spread narrow layers across workers, large enough that one
// tile amortizes task dispatch.
const inferenceTile = 64

// FullyConnectedOutput computes a fully-connected layer over a minibatch:
//
//	output[b][o] = sum_i input[b][i] * kernel[o][i]
//
// input is a batch x inputChannels matrix, kernel is outputChannels x
// inputChannels, output is batch x outputChannels, all row-major. For batch 1
// use FullyConnectedInference, which skips packing entirely.
//
// When profile is non-nil it is overwritten with per-phase timings; the total
// is reported on every exit path.
func FullyConnectedOutput(batch, inputChannels, outputChannels int,
	input, kernel, output []float32,
	pool *workerpool.Pool, profile *Profile) error {

	var tm gemm.Timings
	if profile != nil {
		*profile = Profile{}
		start := time.Now()
		defer func() { profile.fromTimings(tm, time.Since(start)) }()
	}

	hwp, err := currentProfile()
	if err != nil {
		return err
	}
	switch {
	case batch == 0:
		return ErrInvalidBatchSize
	case inputChannels == 0:
		return ErrInvalidInputChannels
	case outputChannels == 0:
		return ErrInvalidOutputChannels
	}

	blk := hwp.blocking
	arena, err := gemm.NewArena(
		gemm.PackedInputSize(batch, inputChannels, blk),
		gemm.PackedKernelSize(outputChannels, blk),
	)
	if err != nil {
		return ErrOutOfMemory
	}
	defer arena.Release()
	packedInput := arena.Next(gemm.PackedInputSize(batch, inputChannels, blk))
	packedKernel := arena.Next(gemm.PackedKernelSize(outputChannels, blk))

	var tmp *gemm.Timings
	if profile != nil {
		tmp = &tm
	}
	if err := gemm.Compute(pool, input, kernel, output,
		batch, inputChannels, outputChannels, blk,
		packedInput, packedKernel, tmp); err != nil {
		// The blocking and scratch come from the same plan the engine
		// checks against, so a rejection means the microkernel family
		// cannot serve this configuration.
		return ErrUnsupportedHardware
	}
	return nil
}

// FullyConnectedInference computes a fully-connected layer for a single input
// vector: output[o] = sum_i input[i] * kernel[o][i]. The matrix never pays
// for packing; each output channel is one dot product over the contiguous
// kernel row.
func FullyConnectedInference(inputChannels, outputChannels int,
	input, kernel, output []float32, pool *workerpool.Pool) error {

	if _, err := currentProfile(); err != nil {
		return err
	}
	switch {
	case inputChannels == 0:
		return ErrInvalidInputChannels
	case outputChannels == 0:
		return ErrInvalidOutputChannels
	}

	in := input[:inputChannels]
	tile.Compute1D(pool, outputChannels, inferenceTile, func(start, size int) {
		for o := start; o < start+size; o++ {
			output[o] = dot.Dot(in, kernel[o*inputChannels:(o+1)*inputChannels])
		}
	})
	return nil
}
