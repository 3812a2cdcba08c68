// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	if err := Initialize(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
