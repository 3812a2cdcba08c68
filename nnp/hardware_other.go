// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

//go:build !linux

package nnp

func detectCaches() (l1, l2, l3 int) {
	return defaultL1CacheBytes, defaultL2CacheBytes, defaultL3CacheBytes
}
