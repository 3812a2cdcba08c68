// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

func randTensor(rng *rand.Rand, n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = rng.Float32()*2 - 1
	}
	return s
}

func closeEnough(got, want float32) bool {
	diff := math.Abs(float64(got - want))
	return diff <= 1e-5*math.Max(1, math.Abs(float64(want)))
}

func naiveFullyConnected(input, kernel []float32, batch, inCh, outCh int) []float32 {
	out := make([]float32, batch*outCh)
	for b := 0; b < batch; b++ {
		for o := 0; o < outCh; o++ {
			sum := 0.0
			for i := 0; i < inCh; i++ {
				sum += float64(input[b*inCh+i]) * float64(kernel[o*inCh+i])
			}
			out[b*outCh+o] = float32(sum)
		}
	}
	return out
}

func TestFullyConnectedOutputFixture(t *testing.T) {
	// batch 3, 5 input channels, 2 output channels, hand-checkable values.
	input := []float32{
		1, 2, 3, 4, 5,
		0, 1, 0, 1, 0,
		-1, 1, -1, 1, -1,
	}
	kernel := []float32{
		1, 0, 0, 0, 0, // picks input channel 0
		1, 1, 1, 1, 1, // sums all channels
	}
	want := []float32{
		1, 15,
		0, 2,
		-1, -1,
	}

	output := make([]float32, 6)
	if err := FullyConnectedOutput(3, 5, 2, input, kernel, output, nil, nil); err != nil {
		t.Fatalf("FullyConnectedOutput: %v", err)
	}
	for i := range want {
		if !closeEnough(output[i], want[i]) {
			t.Errorf("output[%d] = %v, want %v", i, output[i], want[i])
		}
	}
}

// TestFullyConnectedOutputAgainstNaive covers shapes larger than every block
// maximum dimension is a multiple of, so all ragged paths run.
func TestFullyConnectedOutputAgainstNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	shapes := []struct{ batch, inCh, outCh int }{
		{1, 1, 1},
		{2, 3, 4},
		{7, 64, 25},
		{33, 129, 67},
	}

	for _, s := range shapes {
		input := randTensor(rng, s.batch*s.inCh)
		kernel := randTensor(rng, s.outCh*s.inCh)
		output := make([]float32, s.batch*s.outCh)

		if err := FullyConnectedOutput(s.batch, s.inCh, s.outCh,
			input, kernel, output, nil, nil); err != nil {
			t.Fatalf("%+v: %v", s, err)
		}
		want := naiveFullyConnected(input, kernel, s.batch, s.inCh, s.outCh)
		for i := range want {
			if !closeEnough(output[i], want[i]) {
				t.Fatalf("%+v: output[%d] = %v, want %v", s, i, output[i], want[i])
			}
		}
	}
}

func TestFullyConnectedOutputValidation(t *testing.T) {
	buf := make([]float32, 16)
	cases := []struct {
		batch, inCh, outCh int
		want               error
	}{
		{0, 2, 2, ErrInvalidBatchSize},
		{2, 0, 2, ErrInvalidInputChannels},
		{2, 2, 0, ErrInvalidOutputChannels},
	}
	for _, tc := range cases {
		out := make([]float32, 16)
		err := FullyConnectedOutput(tc.batch, tc.inCh, tc.outCh, buf, buf, out, nil, nil)
		if err != tc.want {
			t.Errorf("(%d,%d,%d): err = %v, want %v", tc.batch, tc.inCh, tc.outCh, err, tc.want)
		}
		for i, v := range out {
			if v != 0 {
				t.Errorf("(%d,%d,%d): output[%d] written on failure path",
					tc.batch, tc.inCh, tc.outCh, i)
			}
		}
	}
}

// TestFullyConnectedOutputParallelInvariance requires bit-identical results
// for nil pool and 1, 2, 4, 8 workers.
func TestFullyConnectedOutputParallelInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const batch, inCh, outCh = 19, 83, 51
	input := randTensor(rng, batch*inCh)
	kernel := randTensor(rng, outCh*inCh)

	want := make([]float32, batch*outCh)
	if err := FullyConnectedOutput(batch, inCh, outCh, input, kernel, want, nil, nil); err != nil {
		t.Fatalf("sequential: %v", err)
	}

	for _, workers := range []int{1, 2, 4, 8} {
		pool := workerpool.New(workers)
		got := make([]float32, batch*outCh)
		err := FullyConnectedOutput(batch, inCh, outCh, input, kernel, got, pool, nil)
		pool.Close()
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("workers=%d: output[%d] = %v, sequential %v", workers, i, got[i], want[i])
			}
		}
	}
}

func TestFullyConnectedOutputProfile(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	const batch, inCh, outCh = 16, 48, 32
	input := randTensor(rng, batch*inCh)
	kernel := randTensor(rng, outCh*inCh)
	output := make([]float32, batch*outCh)

	var p Profile
	if err := FullyConnectedOutput(batch, inCh, outCh, input, kernel, output, nil, &p); err != nil {
		t.Fatalf("FullyConnectedOutput: %v", err)
	}
	if p.Total <= 0 {
		t.Errorf("Total = %v, want > 0", p.Total)
	}
	if p.OutputTransform != 0 {
		t.Errorf("OutputTransform = %v, want 0", p.OutputTransform)
	}
	phases := p.InputTransform + p.KernelTransform + p.BlockMultiplication
	if p.Total < phases {
		t.Errorf("Total %v < phase sum %v", p.Total, phases)
	}

	// Failure paths still report a total.
	var pf Profile
	if err := FullyConnectedOutput(0, inCh, outCh, input, kernel, output, nil, &pf); err != ErrInvalidBatchSize {
		t.Fatalf("err = %v", err)
	}
	if pf.Total < 0 || pf.BlockMultiplication != 0 {
		t.Errorf("failure profile: %+v", pf)
	}
}

func TestFullyConnectedInference(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	const inCh, outCh = 93, 77
	input := randTensor(rng, inCh)
	kernel := randTensor(rng, outCh*inCh)

	output := make([]float32, outCh)
	if err := FullyConnectedInference(inCh, outCh, input, kernel, output, nil); err != nil {
		t.Fatalf("FullyConnectedInference: %v", err)
	}
	want := naiveFullyConnected(input, kernel, 1, inCh, outCh)
	for i := range want {
		if !closeEnough(output[i], want[i]) {
			t.Errorf("output[%d] = %v, want %v", i, output[i], want[i])
		}
	}

	pool := workerpool.New(4)
	defer pool.Close()
	parallel := make([]float32, outCh)
	if err := FullyConnectedInference(inCh, outCh, input, kernel, parallel, pool); err != nil {
		t.Fatalf("parallel: %v", err)
	}
	for i := range output {
		if parallel[i] != output[i] {
			t.Errorf("parallel output[%d] = %v, sequential %v", i, parallel[i], output[i])
		}
	}

	if err := FullyConnectedInference(0, outCh, input, kernel, output, nil); err != ErrInvalidInputChannels {
		t.Errorf("err = %v, want ErrInvalidInputChannels", err)
	}
	if err := FullyConnectedInference(inCh, 0, input, kernel, output, nil); err != ErrInvalidOutputChannels {
		t.Errorf("err = %v, want ErrInvalidOutputChannels", err)
	}
}

func BenchmarkFullyConnectedOutput(b *testing.B) {
	rng := rand.New(rand.NewSource(14))
	const batch, inCh, outCh = 64, 256, 256
	input := randTensor(rng, batch*inCh)
	kernel := randTensor(rng, outCh*inCh)
	output := make([]float32, batch*outCh)

	b.SetBytes(int64(4 * (batch*inCh + outCh*inCh + batch*outCh)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := FullyConnectedOutput(batch, inCh, outCh, input, kernel, output, nil, nil); err != nil {
			b.Fatal(err)
		}
	}
}
