// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"time"

	"github.com/ajroetker/go-nnpack/nnp/gemm"
)

// Profile reports per-phase wall time of one operator call, in seconds.
// Operators only measure when the caller supplies a non-nil *Profile; a nil
// pointer incurs no timing overhead.
//
// Every operator reports all four phases. Phases an algorithm does not have
// stay zero: the identity-domain strategies perform no input, kernel, or
// output transform.
type Profile struct {
	Total               float64
	InputTransform      float64
	KernelTransform     float64
	OutputTransform     float64
	BlockMultiplication float64
}

func (p *Profile) fromTimings(tm gemm.Timings, total time.Duration) {
	p.Total = total.Seconds()
	p.InputTransform = tm.InputTransform.Seconds()
	p.KernelTransform = tm.KernelTransform.Seconds()
	p.OutputTransform = tm.OutputTransform.Seconds()
	p.BlockMultiplication = tm.BlockMultiplication.Seconds()
}
