// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package gemm

// The packed layout groups one outer subblock, fully traversed along the
// inner dimension, into a contiguous run: element (outer, inner) of a block
// lands at
//
//	subblockStart*innerBlockSize + innerOffset*outerSubblockMax + subblockOffset
//
// relative to the block's region. The stride between inner steps is always
// outerSubblockMax, even for a ragged last subblock, which is what lets a
// microkernel walk the packed operand with a compile-time-constant stride.
// The region for one (outerBlock, innerBlock) pair is exactly
// roundUp(outerBlockSize, outerSubblockMax)*innerBlockSize elements and is
// disjoint from every other pair's region, so packing tiles never write
// overlapping memory and are safe to run concurrently.

// PackInputMatrix packs one (outerBlockSize x innerBlockSize) tile of an
// outer x innerDim row-major activation matrix into packed. The packed
// position additionally offsets by outerBlockStart*innerDim (regions of
// preceding outer blocks) and innerBlockStart*outerBlockStride (regions of
// preceding inner blocks within this outer block).
func PackInputMatrix(packed, matrix []float32, innerDim, outerSubblockMax int,
	outerBlockStart, innerBlockStart, outerBlockSize, innerBlockSize int) {

	outerBlockStride := roundUp(outerBlockSize, outerSubblockMax)
	regionBase := outerBlockStart*innerDim + innerBlockStart*outerBlockStride

	for subStart := 0; subStart < outerBlockSize; subStart += outerSubblockMax {
		subSize := min(outerBlockSize-subStart, outerSubblockMax)
		for innerOffset := 0; innerOffset < innerBlockSize; innerOffset++ {
			srcBase := (outerBlockStart+subStart)*innerDim + innerBlockStart + innerOffset
			dstBase := regionBase + subStart*innerBlockSize + innerOffset*outerSubblockMax
			for subOffset := 0; subOffset < subSize; subOffset++ {
				packed[dstBase+subOffset] = matrix[srcBase+subOffset*innerDim]
			}
		}
	}
}

// PackKernelMatrix packs one outer block of an outer x innerDim row-major
// weight matrix, restricted to the inner (reduction) block starting at
// innerBlockStart. The packed buffer holds only the current inner block, so
// the region base is outerBlockStart*innerBlockSize with no inner-block term;
// the inner layout is identical to PackInputMatrix.
func PackKernelMatrix(packed, matrix []float32, innerDim, outerSubblockMax int,
	innerBlockStart, innerBlockSize, outerBlockStart, outerBlockSize int) {

	for subStart := 0; subStart < outerBlockSize; subStart += outerSubblockMax {
		subSize := min(outerBlockSize-subStart, outerSubblockMax)
		for innerOffset := 0; innerOffset < innerBlockSize; innerOffset++ {
			srcBase := (outerBlockStart+subStart)*innerDim + innerBlockStart + innerOffset
			dstBase := (outerBlockStart+subStart)*innerBlockSize + innerOffset*outerSubblockMax
			for subOffset := 0; subOffset < subSize; subOffset++ {
				packed[dstBase+subOffset] = matrix[srcBase+subOffset*innerDim]
			}
		}
	}
}
