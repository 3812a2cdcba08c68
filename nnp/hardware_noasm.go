// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

//go:build !amd64

package nnp

// Non-amd64 targets run the portable vector fallback, which has no feature
// requirements beyond the Go runtime itself.
func archSupported() bool {
	return true
}
