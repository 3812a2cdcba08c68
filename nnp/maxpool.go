// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"math"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/ajroetker/go-nnpack/nnp/tile"
)

// maxPoolingOutputSize computes one output axis extent: the number of stride
// steps fitting in the padded input, counting a final partial window.
func maxPoolingOutputSize(inputExtent, padLo, padHi, poolExtent, stride int) int {
	padded := inputExtent + padLo + padHi
	over := padded - poolExtent
	if over < 0 {
		over = 0
	}
	return (over+stride-1)/stride + 1
}

// MaxPoolingOutput computes 2x2 max pooling with stride 2 over a minibatch of
// multi-channel images. input is indexed
// [batch][channels][inputSize.Height][inputSize.Width] and output
// [batch][channels][outputHeight][outputWidth], where each output axis extent
// is ceil((paddedExtent - poolingExtent) / stride) + 1: a trailing partial
// window produces an output element from the elements it does cover.
//
// Pooling geometries other than size 2x2 with stride 2x2 are structurally
// valid but not built, and return the corresponding unsupported status.
func MaxPoolingOutput(batch, channels int,
	inputSize Size, inputPadding Padding, poolingSize, poolingStride Size,
	input, output []float32, pool *workerpool.Pool) error {

	if _, err := currentProfile(); err != nil {
		return err
	}
	switch {
	case batch == 0:
		return ErrInvalidBatchSize
	case channels == 0:
		return ErrInvalidChannels
	case inputSize.Width == 0 || inputSize.Height == 0:
		return ErrInvalidInputSize
	case poolingSize.Width == 0 || poolingSize.Height == 0:
		return ErrInvalidPoolingSize
	case poolingStride.Width == 0 || poolingStride.Height == 0:
		return ErrInvalidPoolingStride
	case poolingStride.Width > poolingSize.Width || poolingStride.Height > poolingSize.Height:
		return ErrInvalidPoolingStride
	case inputPadding.Top >= poolingSize.Height || inputPadding.Bottom >= poolingSize.Height ||
		inputPadding.Left >= poolingSize.Width || inputPadding.Right >= poolingSize.Width:
		return ErrInvalidInputPadding
	}
	if poolingSize.Width != 2 || poolingSize.Height != 2 {
		return ErrUnsupportedPoolingSize
	}
	if poolingStride.Width != 2 || poolingStride.Height != 2 {
		return ErrUnsupportedPoolingStride
	}

	outW := maxPoolingOutputSize(inputSize.Width, inputPadding.Left, inputPadding.Right,
		poolingSize.Width, poolingStride.Width)
	outH := maxPoolingOutputSize(inputSize.Height, inputPadding.Top, inputPadding.Bottom,
		poolingSize.Height, poolingStride.Height)
	inPlane := inputSize.Height * inputSize.Width
	outPlane := outH * outW

	tile.Compute2D(pool, batch, channels, 1, 1, func(b, c, _, _ int) {
		in := input[(b*channels+c)*inPlane:][:inPlane]
		out := output[(b*channels+c)*outPlane:][:outPlane]
		for oy := 0; oy < outH; oy++ {
			y0 := oy*poolingStride.Height - inputPadding.Top
			y1 := min(y0+poolingSize.Height, inputSize.Height)
			y0 = max(y0, 0)
			for ox := 0; ox < outW; ox++ {
				x0 := ox*poolingStride.Width - inputPadding.Left
				x1 := min(x0+poolingSize.Width, inputSize.Width)
				x0 = max(x0, 0)

				m := float32(math.Inf(-1))
				for y := y0; y < y1; y++ {
					row := in[y*inputSize.Width:]
					for x := x0; x < x1; x++ {
						if row[x] > m {
							m = row[x]
						}
					}
				}
				out[oy*outW+ox] = m
			}
		}
	})
	return nil
}
