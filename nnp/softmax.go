// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"math"

	"github.com/ajroetker/go-highway/hwy"
	hwymath "github.com/ajroetker/go-highway/hwy/contrib/math"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/ajroetker/go-nnpack/nnp/tile"
)

// SoftmaxOutput computes a numerically stable softmax independently over each
// row of a batch x channels matrix:
//
//	output[b][c] = exp(input[b][c] - max_c input[b]) / sum_c exp(...)
//
// Safe to call with output aliasing input. Rows are distributed across the
// pool one row per tile; the per-row math is identical regardless of worker
// count.
func SoftmaxOutput(batch, channels int, input, output []float32,
	pool *workerpool.Pool) error {

	if _, err := currentProfile(); err != nil {
		return err
	}
	switch {
	case batch == 0:
		return ErrInvalidBatchSize
	case channels == 0:
		return ErrInvalidChannels
	}

	tile.Compute1D(pool, batch, 1, func(start, size int) {
		for b := start; b < start+size; b++ {
			softmaxRow(output[b*channels:(b+1)*channels], input[b*channels:(b+1)*channels])
		}
	})
	return nil
}

func softmaxRow(out, in []float32) {
	lanes := hwy.MaxLanes[float32]()
	n := len(in)
	negInf := float32(math.Inf(-1))

	vmax := hwy.Set(negInf)
	i := 0
	for ; i+lanes <= n; i += lanes {
		vmax = hwy.Max(vmax, hwy.Load(in[i:]))
	}
	if i < n {
		mask := hwy.TailMask[float32](n - i)
		vmax = hwy.Max(vmax, hwy.IfThenElse(mask, hwy.MaskLoad(mask, in[i:]), hwy.Set(negInf)))
	}
	m := hwy.Set(hwy.ReduceMax(vmax))

	vsum := hwy.Zero[float32]()
	i = 0
	for ; i+lanes <= n; i += lanes {
		e := hwymath.Exp(hwy.Sub(hwy.Load(in[i:]), m))
		hwy.Store(e, out[i:])
		vsum = hwy.Add(vsum, e)
	}
	if i < n {
		mask := hwy.TailMask[float32](n - i)
		e := hwymath.Exp(hwy.Sub(hwy.MaskLoad(mask, in[i:]), m))
		hwy.BlendedStore(e, mask, out[i:])
		vsum = hwy.Add(vsum, hwy.IfThenElseZero(mask, e))
	}

	scale := hwy.Set(1 / hwy.ReduceSum(vsum))
	i = 0
	for ; i+lanes <= n; i += lanes {
		hwy.Store(hwy.Mul(hwy.Load(out[i:]), scale), out[i:])
	}
	if i < n {
		mask := hwy.TailMask[float32](n - i)
		hwy.BlendedStore(hwy.Mul(hwy.MaskLoad(mask, out[i:]), scale), mask, out[i:])
	}
}
