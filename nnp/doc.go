// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

// Package nnp provides CPU-accelerated compute kernels for neural network
// layers: fully-connected and convolutional layers (forward and gradients),
// max-pooling, softmax, and rectified linear units.
//
// Call Initialize once before using any operator; it detects the cache
// hierarchy and SIMD width and derives the cache blocking the engine uses.
// Every operator takes an optional *workerpool.Pool — nil runs the call on
// the calling goroutine, and the result is bit-identical either way — and
// returns a Status error describing validation, capability, or environment
// failures.
//
// Tensors are caller-owned flat []float32 slices with documented row-major
// indexing; the package never allocates output tensors and never retains a
// reference to caller memory past the call.
package nnp
