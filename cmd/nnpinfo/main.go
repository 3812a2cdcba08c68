// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

// Command nnpinfo prints the detected hardware profile and the cache blocking
// derived from it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-nnpack/nnp"
)

func main() {
	verbose := flag.Bool("v", false, "also print the derived blocking plan")
	flag.Parse()

	if err := nnp.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "nnpinfo: %v\n", err)
		os.Exit(1)
	}
	defer nnp.Deinitialize()

	hw, err := nnp.CurrentHardware()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nnpinfo: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("SIMD:      %s (%d float32 lanes)\n", hwy.CurrentName(), hw.SIMDWidth)
	fmt.Printf("L1 cache:  %d KiB\n", hw.L1CacheBytes>>10)
	fmt.Printf("L2 cache:  %d KiB\n", hw.L2CacheBytes>>10)
	fmt.Printf("L3 cache:  %d KiB (per-core share)\n", hw.L3CacheBytes>>10)

	if *verbose {
		blk, err := nnp.CurrentBlocking()
		if err != nil {
			fmt.Fprintf(os.Stderr, "nnpinfo: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nBlocking plan:\n")
		fmt.Printf("  batch block:           %d (subblock %d)\n", blk.BatchBlockMax, blk.BatchSubblockMax)
		fmt.Printf("  input-channel block:   %d\n", blk.InChannelsBlockMax)
		fmt.Printf("  output-channel block:  %d (subblock %d)\n", blk.OutChannelsBlockMax, blk.OutChannelsSubblockMax)
	}
}
