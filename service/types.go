package service

import (
	"context"
	"image"

	ort "github.com/yalue/onnxruntime_go"
)

// Scorer produces a dense score vector, indexed by catalog row, for one image.
type Scorer interface {
	Score(ctx context.Context, img image.Image) ([]float32, error)
}

type Options struct {
	ModelPath string
	ImageSize int
	Mean      [3]float32
	Std       [3]float32
	// Tags is the length of the model output, which must match the catalog.
	Tags int
	// Sessions is the number of ONNX sessions kept in the pool.
	Sessions int
	// Sigmoid converts raw logits to probabilities.
	Sigmoid bool
	// CUDA asks for the CUDA execution provider. Sessions fall back to the
	// CPU when it cannot be appended.
	CUDA bool
}

type Model struct {
	session    *ort.AdvancedSession
	input      *ort.Tensor[float32]
	output     *ort.Tensor[float32]
	inputName  string
	outputName string
	device     string
}

func (m *Model) destroy() {
	if m.session != nil {
		m.session.Destroy()
	}
	if m.input != nil {
		m.input.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
}
