// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"sync"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-nnpack/nnp/gemm"
)

// Hardware is the process-wide profile populated by Initialize: effective
// per-core cache capacities and the native SIMD width in float32 lanes.
type Hardware struct {
	L1CacheBytes int
	L2CacheBytes int
	L3CacheBytes int
	SIMDWidth    int
}

type hardwareProfile struct {
	info     Hardware
	blocking gemm.Blocking
}

var (
	hwMu      sync.Mutex
	hwProfile *hardwareProfile
)

// Fallback capacities when the platform exposes no cache topology. Small on
// purpose: underestimating a cache costs some reuse, overestimating causes
// thrashing.
const (
	defaultL1CacheBytes = 32 << 10
	defaultL2CacheBytes = 256 << 10
	defaultL3CacheBytes = 2 << 20
)

// Initialize detects the hardware profile and derives the blocking plan every
// operator uses. It must be called before any operator; calling it again is a
// no-op. Returns ErrUnsupportedHardware when the CPU lacks the required
// baseline features.
func Initialize() error {
	hwMu.Lock()
	defer hwMu.Unlock()
	if hwProfile != nil {
		return nil
	}
	if !archSupported() {
		return ErrUnsupportedHardware
	}

	l1, l2, l3 := detectCaches()
	p := &hardwareProfile{
		info: Hardware{
			L1CacheBytes: l1,
			L2CacheBytes: l2,
			L3CacheBytes: l3,
			SIMDWidth:    hwy.CurrentWidth() / 4,
		},
		blocking: gemm.Plan(l1/4, l2/4, l3/4),
	}
	hwProfile = p
	return nil
}

// Deinitialize tears down the profile. Subsequent operator calls fail with
// ErrUninitialized until Initialize runs again.
func Deinitialize() error {
	hwMu.Lock()
	defer hwMu.Unlock()
	if hwProfile == nil {
		return ErrUninitialized
	}
	hwProfile = nil
	return nil
}

// CurrentHardware returns the detected profile, or ErrUninitialized before
// Initialize.
func CurrentHardware() (Hardware, error) {
	p, err := currentProfile()
	if err != nil {
		return Hardware{}, err
	}
	return p.info, nil
}

// CurrentBlocking returns the cache-derived block maxima the engine uses, or
// ErrUninitialized before Initialize.
func CurrentBlocking() (gemm.Blocking, error) {
	p, err := currentProfile()
	if err != nil {
		return gemm.Blocking{}, err
	}
	return p.blocking, nil
}

func currentProfile() (*hardwareProfile, error) {
	hwMu.Lock()
	defer hwMu.Unlock()
	if hwProfile == nil {
		return nil, ErrUninitialized
	}
	return hwProfile, nil
}
