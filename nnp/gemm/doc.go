// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

// Package gemm implements the blocked, packed matrix-multiplication engine
// shared by the tensor operators in package nnp.
//
// The engine turns output = input x kernel^T into a sequence of cache-resident
// tiles: both operands are repacked into a blocked layout matching the
// microkernel access pattern, block sizes are derived from the hardware cache
// hierarchy, and the work is driven through a 1D/2D tiled parallel-for as a
// sequence of fork-join stages:
//
//	pack input (parallel over batch x input-channel tiles)
//	for each input-channel block:
//	    pack kernel (parallel over output-channel tiles)
//	    for each batch block:
//	        multiply (parallel over output-channel x batch-subblock tiles)
//
// Tiles within a stage write disjoint memory by construction, so no locking
// is needed, and running without a pool produces bit-identical results.
package gemm
