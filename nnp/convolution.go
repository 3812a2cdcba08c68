// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"time"

	"github.com/ajroetker/go-highway/hwy/contrib/dot"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/ajroetker/go-nnpack/nnp/tile"
)

// convGeometry is the resolved shape of one convolution call. Output extent
// is the valid-correlation size of the zero-padded input:
// padded input extent − kernel extent + 1 per axis.
type convGeometry struct {
	batch          int
	inputChannels  int
	outputChannels int
	inputSize      Size
	padding        Padding
	kernelSize     Size
	outputSize     Size
}

// convStrategy is the per-call algorithm plug-in. Each strategy supplies its
// own transform math under a common four-phase profile contract; the
// identity-domain strategy operates directly on the spatial tensors and has
// no transform phases. Fourier and Winograd strategies would slot in here.
type convStrategy interface {
	forward(g convGeometry, input, kernel, bias, output []float32, pool *workerpool.Pool)
	inputGradient(g convGeometry, gradOutput, kernel, gradInput []float32, pool *workerpool.Pool)
	kernelGradient(g convGeometry, input, gradOutput, gradKernel []float32, pool *workerpool.Pool)
}

// resolveAlgorithm maps the caller's algorithm selector to a strategy.
// Recognized but unimplemented domains fail fast with a capability status
// instead of reaching an absent table entry.
func resolveAlgorithm(algorithm ConvolutionAlgorithm) (convStrategy, error) {
	switch algorithm {
	case AlgorithmAuto:
		return identityStrategy{}, nil
	case AlgorithmFT8x8, AlgorithmFT16x16, AlgorithmWT8x8:
		return nil, ErrUnsupportedAlgorithm
	default:
		return nil, ErrInvalidAlgorithm
	}
}

func resolveConvolution(algorithm ConvolutionAlgorithm,
	batch, inputChannels, outputChannels int,
	inputSize Size, padding Padding, kernelSize Size) (convStrategy, convGeometry, error) {

	g := convGeometry{
		batch:          batch,
		inputChannels:  inputChannels,
		outputChannels: outputChannels,
		inputSize:      inputSize,
		padding:        padding,
		kernelSize:     kernelSize,
	}
	switch {
	case batch == 0:
		return nil, g, ErrInvalidBatchSize
	case inputChannels == 0:
		return nil, g, ErrInvalidInputChannels
	case outputChannels == 0:
		return nil, g, ErrInvalidOutputChannels
	case inputSize.Width == 0 || inputSize.Height == 0:
		return nil, g, ErrInvalidInputSize
	case kernelSize.Width == 0 || kernelSize.Height == 0:
		return nil, g, ErrInvalidKernelSize
	case padding.Left >= kernelSize.Width || padding.Right >= kernelSize.Width ||
		padding.Top >= kernelSize.Height || padding.Bottom >= kernelSize.Height:
		return nil, g, ErrInvalidInputPadding
	}

	g.outputSize = Size{
		Width:  inputSize.Width + padding.Left + padding.Right - kernelSize.Width + 1,
		Height: inputSize.Height + padding.Top + padding.Bottom - kernelSize.Height + 1,
	}
	if g.outputSize.Width <= 0 || g.outputSize.Height <= 0 {
		return nil, g, ErrUnsupportedKernelSize
	}

	strategy, err := resolveAlgorithm(algorithm)
	if err != nil {
		return nil, g, err
	}
	return strategy, g, nil
}

// ConvolutionOutput computes a 2D convolutional layer over a minibatch:
//
//	output[b][oc][y][x] = bias[oc] +
//	    sum_{ic,ky,kx} input[b][ic][y-pt+ky][x-pl+kx] * kernel[oc][ic][ky][kx]
//
// where (pt, pl) are the top/left implicit-zero paddings and out-of-bounds
// input reads contribute nothing. input is indexed
// [batch][inputChannels][inputSize.Height][inputSize.Width], kernel
// [outputChannels][inputChannels][kernelSize.Height][kernelSize.Width], and
// output [batch][outputChannels][outputSize.Height][outputSize.Width]. A nil
// bias means zero bias.
func ConvolutionOutput(algorithm ConvolutionAlgorithm,
	batch, inputChannels, outputChannels int,
	inputSize Size, inputPadding Padding, kernelSize Size,
	input, kernel, bias, output []float32,
	pool *workerpool.Pool, profile *Profile) error {

	var multiply time.Duration
	if profile != nil {
		*profile = Profile{}
		start := time.Now()
		defer func() {
			profile.Total = time.Since(start).Seconds()
			profile.BlockMultiplication = multiply.Seconds()
		}()
	}

	if _, err := currentProfile(); err != nil {
		return err
	}
	strategy, g, err := resolveConvolution(algorithm,
		batch, inputChannels, outputChannels, inputSize, inputPadding, kernelSize)
	if err != nil {
		return err
	}

	start := time.Now()
	strategy.forward(g, input, kernel, bias, output, pool)
	multiply = time.Since(start)
	return nil
}

// ConvolutionInputGradient computes the gradient of a convolutional layer
// with respect to its input: the transposed convolution of gradOutput with
// the layer's kernel. gradOutput is indexed like ConvolutionOutput's output
// and gradInput like its input.
func ConvolutionInputGradient(algorithm ConvolutionAlgorithm,
	batch, inputChannels, outputChannels int,
	inputSize Size, inputPadding Padding, kernelSize Size,
	gradOutput, kernel, gradInput []float32,
	pool *workerpool.Pool, profile *Profile) error {

	var multiply time.Duration
	if profile != nil {
		*profile = Profile{}
		start := time.Now()
		defer func() {
			profile.Total = time.Since(start).Seconds()
			profile.BlockMultiplication = multiply.Seconds()
		}()
	}

	if _, err := currentProfile(); err != nil {
		return err
	}
	strategy, g, err := resolveConvolution(algorithm,
		batch, inputChannels, outputChannels, inputSize, inputPadding, kernelSize)
	if err != nil {
		return err
	}

	start := time.Now()
	strategy.inputGradient(g, gradOutput, kernel, gradInput, pool)
	multiply = time.Since(start)
	return nil
}

// ConvolutionKernelGradient computes the gradient of a convolutional layer
// with respect to its kernel, accumulated over the whole minibatch.
// gradKernel is indexed like ConvolutionOutput's kernel and is fully
// overwritten.
func ConvolutionKernelGradient(algorithm ConvolutionAlgorithm,
	batch, inputChannels, outputChannels int,
	inputSize Size, inputPadding Padding, kernelSize Size,
	input, gradOutput, gradKernel []float32,
	pool *workerpool.Pool, profile *Profile) error {

	var multiply time.Duration
	if profile != nil {
		*profile = Profile{}
		start := time.Now()
		defer func() {
			profile.Total = time.Since(start).Seconds()
			profile.BlockMultiplication = multiply.Seconds()
		}()
	}

	if _, err := currentProfile(); err != nil {
		return err
	}
	strategy, g, err := resolveConvolution(algorithm,
		batch, inputChannels, outputChannels, inputSize, inputPadding, kernelSize)
	if err != nil {
		return err
	}

	start := time.Now()
	strategy.kernelGradient(g, input, gradOutput, gradKernel, pool)
	multiply = time.Since(start)
	return nil
}

// ConvolutionKernelUpdate folds a kernel gradient into the kernel in place:
// kernel[i] += scale * gradKernel[i], with scale typically the negated
// learning rate divided by the batch size. Shapes are validated like the
// other convolution calls so a mismatched geometry fails the same way.
func ConvolutionKernelUpdate(algorithm ConvolutionAlgorithm,
	batch, inputChannels, outputChannels int,
	inputSize Size, inputPadding Padding, kernelSize Size,
	gradKernel []float32, scale float32, kernel []float32,
	pool *workerpool.Pool) error {

	if _, err := currentProfile(); err != nil {
		return err
	}
	if _, _, err := resolveConvolution(algorithm,
		batch, inputChannels, outputChannels, inputSize, inputPadding, kernelSize); err != nil {
		return err
	}

	total := outputChannels * inputChannels * kernelSize.Height * kernelSize.Width
	const updateTile = 4096
	tile.Compute1D(pool, total, updateTile, func(start, size int) {
		axpy(kernel[start:start+size], gradKernel[start:], scale)
	})
	return nil
}

// ConvolutionInference computes a convolutional layer for a single image.
// The identity-domain strategy has an identity kernel transform, so
// KernelTransformRecompute and KernelTransformPrecomputed behave identically;
// KernelTransformReuse requires a cross-call transform cache no built
// strategy provides and returns ErrUnsupportedAlgorithm.
func ConvolutionInference(algorithm ConvolutionAlgorithm,
	strategy KernelTransformStrategy,
	inputChannels, outputChannels int,
	inputSize Size, inputPadding Padding, kernelSize Size,
	input, kernel, bias, output []float32,
	pool *workerpool.Pool, profile *Profile) error {

	var multiply time.Duration
	if profile != nil {
		*profile = Profile{}
		start := time.Now()
		defer func() {
			profile.Total = time.Since(start).Seconds()
			profile.BlockMultiplication = multiply.Seconds()
		}()
	}

	if _, err := currentProfile(); err != nil {
		return err
	}
	switch strategy {
	case KernelTransformRecompute, KernelTransformPrecomputed:
	case KernelTransformReuse:
		return ErrUnsupportedAlgorithm
	default:
		return ErrInvalidAlgorithm
	}
	conv, g, err := resolveConvolution(algorithm,
		1, inputChannels, outputChannels, inputSize, inputPadding, kernelSize)
	if err != nil {
		return err
	}

	start := time.Now()
	conv.forward(g, input, kernel, bias, output, pool)
	multiply = time.Since(start)
	return nil
}

// identityStrategy evaluates convolutions directly in the spatial domain by
// accumulating weighted contiguous row spans, one (image, channel) plane per
// tile. Plane tiles write disjoint output, so stages need no locking.
type identityStrategy struct{}

// kernelRange returns the half-open output range [lo, hi) for which the input
// coordinate i = o - pad + k stays inside [0, inputExtent).
func kernelRange(outputExtent, inputExtent, pad, k int) (lo, hi int) {
	lo = pad - k
	if lo < 0 {
		lo = 0
	}
	hi = inputExtent + pad - k
	if hi > outputExtent {
		hi = outputExtent
	}
	return lo, hi
}

func (identityStrategy) forward(g convGeometry, input, kernel, bias, output []float32,
	pool *workerpool.Pool) {

	inPlane := g.inputSize.Height * g.inputSize.Width
	outPlane := g.outputSize.Height * g.outputSize.Width
	kPlane := g.kernelSize.Height * g.kernelSize.Width

	tile.Compute2D(pool, g.batch, g.outputChannels, 1, 1,
		func(b, oc, _, _ int) {
			out := output[(b*g.outputChannels+oc)*outPlane:][:outPlane]
			if bias != nil {
				fill(out, bias[oc])
			} else {
				fill(out, 0)
			}
			for ic := 0; ic < g.inputChannels; ic++ {
				in := input[(b*g.inputChannels+ic)*inPlane:]
				kBase := (oc*g.inputChannels + ic) * kPlane
				for ky := 0; ky < g.kernelSize.Height; ky++ {
					y0, y1 := kernelRange(g.outputSize.Height, g.inputSize.Height, g.padding.Top, ky)
					for kx := 0; kx < g.kernelSize.Width; kx++ {
						w := kernel[kBase+ky*g.kernelSize.Width+kx]
						x0, x1 := kernelRange(g.outputSize.Width, g.inputSize.Width, g.padding.Left, kx)
						if x0 >= x1 {
							continue
						}
						for y := y0; y < y1; y++ {
							iy := y - g.padding.Top + ky
							ix := x0 - g.padding.Left + kx
							axpy(out[y*g.outputSize.Width+x0:y*g.outputSize.Width+x1],
								in[iy*g.inputSize.Width+ix:], w)
						}
					}
				}
			}
		})
}

func (identityStrategy) inputGradient(g convGeometry, gradOutput, kernel, gradInput []float32,
	pool *workerpool.Pool) {

	inPlane := g.inputSize.Height * g.inputSize.Width
	outPlane := g.outputSize.Height * g.outputSize.Width
	kPlane := g.kernelSize.Height * g.kernelSize.Width

	tile.Compute2D(pool, g.batch, g.inputChannels, 1, 1,
		func(b, ic, _, _ int) {
			gin := gradInput[(b*g.inputChannels+ic)*inPlane:][:inPlane]
			fill(gin, 0)
			for oc := 0; oc < g.outputChannels; oc++ {
				gout := gradOutput[(b*g.outputChannels+oc)*outPlane:]
				kBase := (oc*g.inputChannels + ic) * kPlane
				for ky := 0; ky < g.kernelSize.Height; ky++ {
					y0, y1 := kernelRange(g.outputSize.Height, g.inputSize.Height, g.padding.Top, ky)
					for kx := 0; kx < g.kernelSize.Width; kx++ {
						w := kernel[kBase+ky*g.kernelSize.Width+kx]
						x0, x1 := kernelRange(g.outputSize.Width, g.inputSize.Width, g.padding.Left, kx)
						if x0 >= x1 {
							continue
						}
						for y := y0; y < y1; y++ {
							iy := y - g.padding.Top + ky
							ix := x0 - g.padding.Left + kx
							axpy(gin[iy*g.inputSize.Width+ix:iy*g.inputSize.Width+ix+x1-x0],
								gout[y*g.outputSize.Width+x0:], w)
						}
					}
				}
			}
		})
}

func (identityStrategy) kernelGradient(g convGeometry, input, gradOutput, gradKernel []float32,
	pool *workerpool.Pool) {

	inPlane := g.inputSize.Height * g.inputSize.Width
	outPlane := g.outputSize.Height * g.outputSize.Width
	kPlane := g.kernelSize.Height * g.kernelSize.Width

	tile.Compute2D(pool, g.outputChannels, g.inputChannels, 1, 1,
		func(oc, ic, _, _ int) {
			gk := gradKernel[(oc*g.inputChannels+ic)*kPlane:][:kPlane]
			fill(gk, 0)
			for b := 0; b < g.batch; b++ {
				in := input[(b*g.inputChannels+ic)*inPlane:]
				gout := gradOutput[(b*g.outputChannels+oc)*outPlane:]
				for ky := 0; ky < g.kernelSize.Height; ky++ {
					y0, y1 := kernelRange(g.outputSize.Height, g.inputSize.Height, g.padding.Top, ky)
					for kx := 0; kx < g.kernelSize.Width; kx++ {
						x0, x1 := kernelRange(g.outputSize.Width, g.inputSize.Width, g.padding.Left, kx)
						if x0 >= x1 {
							continue
						}
						sum := gk[ky*g.kernelSize.Width+kx]
						for y := y0; y < y1; y++ {
							iy := y - g.padding.Top + ky
							ix := x0 - g.padding.Left + kx
							sum += dot.Dot(
								in[iy*g.inputSize.Width+ix:iy*g.inputSize.Width+ix+x1-x0],
								gout[y*g.outputSize.Width+x0:y*g.outputSize.Width+x1])
						}
						gk[ky*g.kernelSize.Width+kx] = sum
					}
				}
			}
		})
}
