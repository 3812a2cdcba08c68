// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import "github.com/ajroetker/go-highway/hwy"

// axpy computes dst[i] += w * src[i] over len(dst) elements. src must be at
// least as long as dst.
func axpy(dst, src []float32, w float32) {
	lanes := hwy.MaxLanes[float32]()
	vw := hwy.Set(w)
	i := 0
	for ; i+lanes <= len(dst); i += lanes {
		acc := hwy.MulAdd(vw, hwy.Load(src[i:]), hwy.Load(dst[i:]))
		hwy.Store(acc, dst[i:])
	}
	if rem := len(dst) - i; rem > 0 {
		mask := hwy.TailMask[float32](rem)
		acc := hwy.MulAdd(vw, hwy.MaskLoad(mask, src[i:]), hwy.MaskLoad(mask, dst[i:]))
		hwy.BlendedStore(acc, mask, dst[i:])
	}
}

func fill(dst []float32, value float32) {
	lanes := hwy.MaxLanes[float32]()
	v := hwy.Set(value)
	i := 0
	for ; i+lanes <= len(dst); i += lanes {
		hwy.Store(v, dst[i:])
	}
	if rem := len(dst) - i; rem > 0 {
		hwy.BlendedStore(v, hwy.TailMask[float32](rem), dst[i:])
	}
}
