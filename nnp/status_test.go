// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import "testing"

func TestStatusCategories(t *testing.T) {
	invalid := []Status{
		ErrInvalidBatchSize, ErrInvalidChannels, ErrInvalidInputChannels,
		ErrInvalidOutputChannels, ErrInvalidInputSize, ErrInvalidInputStride,
		ErrInvalidInputPadding, ErrInvalidKernelSize, ErrInvalidPoolingSize,
		ErrInvalidPoolingStride, ErrInvalidAlgorithm,
	}
	for _, s := range invalid {
		if !s.IsInvalidArgument() || s.IsUnsupported() {
			t.Errorf("%v: wrong category", s)
		}
	}

	unsupported := []Status{
		ErrUnsupportedInputSize, ErrUnsupportedInputStride,
		ErrUnsupportedInputPadding, ErrUnsupportedKernelSize,
		ErrUnsupportedPoolingSize, ErrUnsupportedPoolingStride,
		ErrUnsupportedAlgorithm,
	}
	for _, s := range unsupported {
		if !s.IsUnsupported() || s.IsInvalidArgument() {
			t.Errorf("%v: wrong category", s)
		}
	}

	for _, s := range []Status{StatusSuccess, ErrUninitialized, ErrUnsupportedHardware, ErrOutOfMemory} {
		if s.IsInvalidArgument() || s.IsUnsupported() {
			t.Errorf("%v: wrong category", s)
		}
	}
}

func TestStatusError(t *testing.T) {
	if got := ErrInvalidBatchSize.Error(); got != "nnp: invalid batch size" {
		t.Errorf("Error() = %q", got)
	}
	if got := Status(99).Error(); got != "nnp: status 99" {
		t.Errorf("Error() = %q", got)
	}
}
