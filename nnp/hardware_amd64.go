// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import "golang.org/x/sys/cpu"

// SSE2 is part of the amd64 baseline, so this effectively always passes; the
// check exists so the unsupported-hardware status path is real rather than
// dead code, and to document the floor the kernels assume.
func archSupported() bool {
	return cpu.X86.HasSSE2
}
