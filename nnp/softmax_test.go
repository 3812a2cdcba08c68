// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

func naiveSoftmaxRow(in []float32) []float32 {
	m := math.Inf(-1)
	for _, v := range in {
		if float64(v) > m {
			m = float64(v)
		}
	}
	sum := 0.0
	exps := make([]float64, len(in))
	for i, v := range in {
		exps[i] = math.Exp(float64(v) - m)
		sum += exps[i]
	}
	out := make([]float32, len(in))
	for i := range exps {
		out[i] = float32(exps[i] / sum)
	}
	return out
}

func TestSoftmaxOutputAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(40))
	// Channel counts straddling vector-width boundaries.
	for _, channels := range []int{1, 2, 3, 7, 8, 9, 16, 33, 100} {
		const batch = 3
		input := make([]float32, batch*channels)
		for i := range input {
			input[i] = rng.Float32()*20 - 10
		}
		output := make([]float32, len(input))

		if err := SoftmaxOutput(batch, channels, input, output, nil); err != nil {
			t.Fatalf("channels=%d: %v", channels, err)
		}
		for b := 0; b < batch; b++ {
			want := naiveSoftmaxRow(input[b*channels : (b+1)*channels])
			rowSum := 0.0
			for c := 0; c < channels; c++ {
				got := output[b*channels+c]
				if math.Abs(float64(got-want[c])) > 1e-4 {
					t.Fatalf("channels=%d: output[%d][%d] = %v, want %v",
						channels, b, c, got, want[c])
				}
				rowSum += float64(got)
			}
			if math.Abs(rowSum-1) > 1e-4 {
				t.Errorf("channels=%d: row %d sums to %v", channels, b, rowSum)
			}
		}
	}
}

// TestSoftmaxOutputShiftInvariance: softmax(x + c) == softmax(x) up to
// float rounding, because of the max subtraction.
func TestSoftmaxOutputShiftInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	const channels = 13
	input := randTensor(rng, channels)
	shifted := make([]float32, channels)
	for i := range input {
		shifted[i] = input[i] + 100
	}

	a := make([]float32, channels)
	b := make([]float32, channels)
	if err := SoftmaxOutput(1, channels, input, a, nil); err != nil {
		t.Fatal(err)
	}
	if err := SoftmaxOutput(1, channels, shifted, b, nil); err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			t.Errorf("output[%d]: %v vs shifted %v", i, a[i], b[i])
		}
	}
}

func TestSoftmaxOutputInPlace(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const batch, channels = 4, 11
	input := randTensor(rng, batch*channels)

	separate := make([]float32, batch*channels)
	if err := SoftmaxOutput(batch, channels, input, separate, nil); err != nil {
		t.Fatal(err)
	}

	inPlace := append([]float32(nil), input...)
	if err := SoftmaxOutput(batch, channels, inPlace, inPlace, nil); err != nil {
		t.Fatal(err)
	}
	for i := range separate {
		if inPlace[i] != separate[i] {
			t.Errorf("in-place output[%d] = %v, separate %v", i, inPlace[i], separate[i])
		}
	}
}

func TestSoftmaxOutputParallelInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	const batch, channels = 37, 29
	input := randTensor(rng, batch*channels)

	want := make([]float32, batch*channels)
	if err := SoftmaxOutput(batch, channels, input, want, nil); err != nil {
		t.Fatal(err)
	}

	pool := workerpool.New(4)
	defer pool.Close()
	got := make([]float32, batch*channels)
	if err := SoftmaxOutput(batch, channels, input, got, pool); err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("output[%d] = %v, sequential %v", i, got[i], want[i])
		}
	}
}

func TestSoftmaxOutputValidation(t *testing.T) {
	buf := make([]float32, 8)
	if err := SoftmaxOutput(0, 4, buf, buf, nil); err != ErrInvalidBatchSize {
		t.Errorf("zero batch: %v, want ErrInvalidBatchSize", err)
	}
	if err := SoftmaxOutput(2, 0, buf, buf, nil); err != ErrInvalidChannels {
		t.Errorf("zero channels: %v, want ErrInvalidChannels", err)
	}
}
