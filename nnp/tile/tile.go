// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

// Package tile provides 1D and 2D tiled parallel-for primitives on top of a
// workerpool.Pool. A computation is expressed as a grid of independent tiles;
// tiles may run in any order and on any worker, and each call blocks until
// every tile of the grid has completed, so consecutive calls act as
// synchronization barriers between pipeline stages.
//
// A nil pool degenerates every loop to plain sequential iteration over the
// same tile grid. Because tiles are independent by contract, the sequential
// and parallel schedules produce bit-identical results.
package tile

import "github.com/ajroetker/go-highway/hwy/contrib/workerpool"

// Compute1D invokes fn once for every tile of the range [0, items), using
// tiles of at most tileSize items. fn receives the tile start index and the
// tile size (the last tile may be smaller). Blocks until all tiles complete.
func Compute1D(pool *workerpool.Pool, items, tileSize int, fn func(start, size int)) {
	if items <= 0 {
		return
	}
	if tileSize <= 0 || tileSize > items {
		tileSize = items
	}
	numTiles := divRoundUp(items, tileSize)

	if pool == nil || numTiles == 1 {
		for start := 0; start < items; start += tileSize {
			fn(start, min(items-start, tileSize))
		}
		return
	}

	pool.ParallelForAtomic(numTiles, func(t int) {
		start := t * tileSize
		fn(start, min(items-start, tileSize))
	})
}

// Compute2D invokes fn once for every tile of the grid [0, itemsI) x
// [0, itemsJ), using tiles of at most tileI x tileJ items. fn receives the
// tile origin and the tile extents (edge tiles may be smaller). Blocks until
// all tiles complete.
func Compute2D(pool *workerpool.Pool, itemsI, itemsJ, tileI, tileJ int, fn func(i, j, sizeI, sizeJ int)) {
	if itemsI <= 0 || itemsJ <= 0 {
		return
	}
	if tileI <= 0 || tileI > itemsI {
		tileI = itemsI
	}
	if tileJ <= 0 || tileJ > itemsJ {
		tileJ = itemsJ
	}
	tilesI := divRoundUp(itemsI, tileI)
	tilesJ := divRoundUp(itemsJ, tileJ)
	numTiles := tilesI * tilesJ

	if pool == nil || numTiles == 1 {
		for i := 0; i < itemsI; i += tileI {
			for j := 0; j < itemsJ; j += tileJ {
				fn(i, j, min(itemsI-i, tileI), min(itemsJ-j, tileJ))
			}
		}
		return
	}

	pool.ParallelForAtomic(numTiles, func(t int) {
		i := (t / tilesJ) * tileI
		j := (t % tilesJ) * tileJ
		fn(i, j, min(itemsI-i, tileI), min(itemsJ-j, tileJ))
	})
}

func divRoundUp(n, d int) int {
	return (n + d - 1) / d
}
