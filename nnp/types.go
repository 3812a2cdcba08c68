// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

// Size is a 2D extent in elements. Image and kernel tensors are row-major:
// the width axis is contiguous.
type Size struct {
	Width  int
	Height int
}

// Padding is an implicit-zero border around an image. Convolution and pooling
// read the padded image; padding elements are never materialized.
type Padding struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// ConvolutionAlgorithm selects the transform domain of a convolution call.
// Only AlgorithmAuto resolves to an implemented strategy; the Fourier and
// Winograd domains are recognized but not built, and selecting them returns
// ErrUnsupportedAlgorithm.
type ConvolutionAlgorithm int

const (
	AlgorithmAuto    ConvolutionAlgorithm = 0
	AlgorithmFT8x8   ConvolutionAlgorithm = 1
	AlgorithmFT16x16 ConvolutionAlgorithm = 2
	AlgorithmWT8x8   ConvolutionAlgorithm = 3
)

// KernelTransformStrategy controls how ConvolutionInference treats the
// transformed kernel across calls.
type KernelTransformStrategy int

const (
	// KernelTransformRecompute transforms the kernel inside every call.
	KernelTransformRecompute KernelTransformStrategy = 1
	// KernelTransformReuse transforms once and caches for repeated calls
	// with the same kernel.
	KernelTransformReuse KernelTransformStrategy = 2
	// KernelTransformPrecomputed expects the caller to pass an already
	// transformed kernel.
	KernelTransformPrecomputed KernelTransformStrategy = 3
)
