// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import "strconv"

// Status is the error type returned by every operator. It partitions failures
// into three categories:
//
//   - invalid-* — argument-shape errors, detectable from the caller's sizes
//     alone; a programmer error.
//   - unsupported-* — structurally valid requests outside the capability of
//     this build or CPU; the caller may retry with different parameters.
//   - ErrUninitialized, ErrUnsupportedHardware, ErrOutOfMemory — environment
//     failures.
//
// Operators return nil on success, never StatusSuccess.
type Status int

const (
	StatusSuccess Status = 0

	ErrInvalidBatchSize      Status = 2
	ErrInvalidChannels       Status = 3
	ErrInvalidInputChannels  Status = 4
	ErrInvalidOutputChannels Status = 5
	ErrInvalidInputSize      Status = 10
	ErrInvalidInputStride    Status = 11
	ErrInvalidInputPadding   Status = 12
	ErrInvalidKernelSize     Status = 13
	ErrInvalidPoolingSize    Status = 14
	ErrInvalidPoolingStride  Status = 15
	ErrInvalidAlgorithm      Status = 16

	ErrUnsupportedInputSize     Status = 20
	ErrUnsupportedInputStride   Status = 21
	ErrUnsupportedInputPadding  Status = 22
	ErrUnsupportedKernelSize    Status = 23
	ErrUnsupportedPoolingSize   Status = 24
	ErrUnsupportedPoolingStride Status = 25
	ErrUnsupportedAlgorithm     Status = 26

	ErrUninitialized       Status = 50
	ErrUnsupportedHardware Status = 51
	ErrOutOfMemory         Status = 52
)

var statusNames = map[Status]string{
	StatusSuccess:               "success",
	ErrInvalidBatchSize:         "invalid batch size",
	ErrInvalidChannels:          "invalid channels",
	ErrInvalidInputChannels:     "invalid input channels",
	ErrInvalidOutputChannels:    "invalid output channels",
	ErrInvalidInputSize:         "invalid input size",
	ErrInvalidInputStride:       "invalid input stride",
	ErrInvalidInputPadding:      "invalid input padding",
	ErrInvalidKernelSize:        "invalid kernel size",
	ErrInvalidPoolingSize:       "invalid pooling size",
	ErrInvalidPoolingStride:     "invalid pooling stride",
	ErrInvalidAlgorithm:         "invalid algorithm",
	ErrUnsupportedInputSize:     "unsupported input size",
	ErrUnsupportedInputStride:   "unsupported input stride",
	ErrUnsupportedInputPadding:  "unsupported input padding",
	ErrUnsupportedKernelSize:    "unsupported kernel size",
	ErrUnsupportedPoolingSize:   "unsupported pooling size",
	ErrUnsupportedPoolingStride: "unsupported pooling stride",
	ErrUnsupportedAlgorithm:     "unsupported algorithm",
	ErrUninitialized:            "library not initialized",
	ErrUnsupportedHardware:      "unsupported hardware",
	ErrOutOfMemory:              "scratch allocation failed",
}

func (s Status) Error() string {
	if name, ok := statusNames[s]; ok {
		return "nnp: " + name
	}
	return "nnp: status " + strconv.Itoa(int(s))
}

// IsInvalidArgument reports whether s is an argument-shape error.
func (s Status) IsInvalidArgument() bool { return s >= 2 && s < 20 }

// IsUnsupported reports whether s is a capability error: a valid request this
// build or hardware cannot execute.
func (s Status) IsUnsupported() bool { return s >= 20 && s < 30 }
