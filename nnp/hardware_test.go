// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"testing"

	"github.com/ajroetker/go-nnpack/nnp/gemm"
)

func TestHardwareLifecycle(t *testing.T) {
	// TestMain already initialized; a second call is a no-op.
	if err := Initialize(); err != nil {
		t.Fatalf("repeated Initialize: %v", err)
	}

	hw, err := CurrentHardware()
	if err != nil {
		t.Fatalf("CurrentHardware: %v", err)
	}
	if hw.L1CacheBytes <= 0 || hw.L2CacheBytes <= 0 || hw.L3CacheBytes <= 0 {
		t.Errorf("non-positive cache size: %+v", hw)
	}
	if hw.SIMDWidth < 4 {
		t.Errorf("SIMDWidth = %d, want >= 4", hw.SIMDWidth)
	}

	blk, err := CurrentBlocking()
	if err != nil {
		t.Fatalf("CurrentBlocking: %v", err)
	}
	if blk.BatchSubblockMax != gemm.BatchSubblockMax ||
		blk.OutChannelsSubblockMax != gemm.OutChannelsSubblockMax() {
		t.Errorf("blocking subblock maxima do not match kernel family: %+v", blk)
	}

	if err := Deinitialize(); err != nil {
		t.Fatalf("Deinitialize: %v", err)
	}
	defer func() {
		if err := Initialize(); err != nil {
			t.Fatalf("re-Initialize: %v", err)
		}
	}()

	if _, err := CurrentHardware(); err != ErrUninitialized {
		t.Errorf("CurrentHardware after Deinitialize: %v, want ErrUninitialized", err)
	}
	if err := Deinitialize(); err != ErrUninitialized {
		t.Errorf("double Deinitialize: %v, want ErrUninitialized", err)
	}

	out := make([]float32, 4)
	if err := FullyConnectedOutput(2, 2, 2, make([]float32, 4), make([]float32, 4),
		out, nil, nil); err != ErrUninitialized {
		t.Errorf("operator before Initialize: %v, want ErrUninitialized", err)
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("output[%d] = %v written on uninitialized path", i, v)
		}
	}
}
