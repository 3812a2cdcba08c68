// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/ajroetker/go-nnpack/nnp/tile"
)

// reluTile is the flat element count per parallel tile of the elementwise
// operators.
const reluTile = 8192

// ReLUOutput applies a rectified linear unit elementwise over a batch x
// channels tensor:
//
//	output[i] = input[i]                 if input[i] > 0
//	            negativeSlope * input[i] otherwise
//
// negativeSlope 0 gives the standard ReLU. Safe to call in place.
func ReLUOutput(batch, channels int, input, output []float32,
	negativeSlope float32, pool *workerpool.Pool) error {

	if _, err := currentProfile(); err != nil {
		return err
	}
	switch {
	case batch == 0:
		return ErrInvalidBatchSize
	case channels == 0:
		return ErrInvalidChannels
	}

	total := batch * channels
	tile.Compute1D(pool, total, reluTile, func(start, size int) {
		reluSpan(output[start:start+size], input[start:], negativeSlope)
	})
	return nil
}

// ReLUInputGradient computes the gradient of ReLUOutput with respect to its
// input: gradInput[i] = gradOutput[i] where input[i] > 0, and
// negativeSlope * gradOutput[i] elsewhere.
func ReLUInputGradient(batch, channels int, gradOutput, input, gradInput []float32,
	negativeSlope float32, pool *workerpool.Pool) error {

	if _, err := currentProfile(); err != nil {
		return err
	}
	switch {
	case batch == 0:
		return ErrInvalidBatchSize
	case channels == 0:
		return ErrInvalidChannels
	}

	total := batch * channels
	tile.Compute1D(pool, total, reluTile, func(start, size int) {
		reluGradSpan(gradInput[start:start+size], gradOutput[start:], input[start:], negativeSlope)
	})
	return nil
}

// reluSpan writes out[i] = max(in[i], 0) + slope*min(in[i], 0), which equals
// the piecewise definition for every slope including 0 and negative inputs,
// with no branches.
func reluSpan(out, in []float32, slope float32) {
	lanes := hwy.MaxLanes[float32]()
	zero := hwy.Zero[float32]()
	vslope := hwy.Set(slope)
	i := 0
	for ; i+lanes <= len(out); i += lanes {
		v := hwy.Load(in[i:])
		r := hwy.MulAdd(vslope, hwy.Min(v, zero), hwy.Max(v, zero))
		hwy.Store(r, out[i:])
	}
	if rem := len(out) - i; rem > 0 {
		mask := hwy.TailMask[float32](rem)
		v := hwy.MaskLoad(mask, in[i:])
		r := hwy.MulAdd(vslope, hwy.Min(v, zero), hwy.Max(v, zero))
		hwy.BlendedStore(r, mask, out[i:])
	}
}

func reluGradSpan(out, grad, in []float32, slope float32) {
	lanes := hwy.MaxLanes[float32]()
	zero := hwy.Zero[float32]()
	vslope := hwy.Set(slope)
	i := 0
	for ; i+lanes <= len(out); i += lanes {
		g := hwy.Load(grad[i:])
		pos := hwy.GreaterThan(hwy.Load(in[i:]), zero)
		hwy.Store(hwy.IfThenElse(pos, g, hwy.Mul(g, vslope)), out[i:])
	}
	if rem := len(out) - i; rem > 0 {
		mask := hwy.TailMask[float32](rem)
		g := hwy.MaskLoad(mask, grad[i:])
		pos := hwy.GreaterThan(hwy.MaskLoad(mask, in[i:]), zero)
		hwy.BlendedStore(hwy.IfThenElse(pos, g, hwy.Mul(g, vslope)), mask, out[i:])
	}
}
