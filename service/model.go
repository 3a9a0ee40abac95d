package service

import (
	"context"
	"errors"
	"fmt"
	"image"

	ort "github.com/yalue/onnxruntime_go"
)

// ModelPool holds a fixed set of ONNX sessions. Each Score call borrows one,
// so up to Sessions images are scored concurrently.
type ModelPool struct {
	opts   Options
	models chan *Model
	all    []*Model
}

// NewModelPool loads the model Sessions times. The ONNX Runtime environment
// must already be initialised.
func NewModelPool(opts Options) (*ModelPool, error) {
	if opts.Sessions < 1 {
		opts.Sessions = 1
	}
	if opts.Tags < 1 {
		return nil, errors.New("model output size must be positive")
	}
	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s has no inputs or outputs", opts.ModelPath)
	}

	p := &ModelPool{opts: opts, models: make(chan *Model, opts.Sessions)}
	for range opts.Sessions {
		m, err := newModel(opts, inputs[0].Name, outputs[0].Name)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.all = append(p.all, m)
		p.models <- m
	}
	return p, nil
}

func newModel(opts Options, inputName, outputName string) (*Model, error) {
	sessOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessOpts.Destroy()

	size := int64(opts.ImageSize)
	m := &Model{inputName: inputName, outputName: outputName, device: "cpu"}
	if opts.CUDA && appendCUDA(sessOpts) == nil {
		m.device = "cuda"
	}
	m.input, err = ort.NewTensor(ort.NewShape(1, 3, size, size), make([]float32, 3*opts.ImageSize*opts.ImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	m.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(opts.Tags)))
	if err != nil {
		m.destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	m.session, err = ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{inputName},
		[]string{outputName},
		[]ort.Value{m.input},
		[]ort.Value{m.output},
		sessOpts,
	)
	if err != nil {
		m.destroy()
		return nil, fmt.Errorf("failed to create ONNX Runtime session: %w", err)
	}
	return m, nil
}

func appendCUDA(sessOpts *ort.SessionOptions) error {
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOpts.Destroy()
	return sessOpts.AppendExecutionProviderCUDA(cudaOpts)
}

// Device reports the execution provider the sessions run on.
func (p *ModelPool) Device() string {
	if len(p.all) == 0 {
		return "cpu"
	}
	return p.all[0].device
}

// Score preprocesses img, runs it through a pooled session and returns one
// score per tag.
func (p *ModelPool) Score(ctx context.Context, img image.Image) ([]float32, error) {
	inputData, err := Preprocess(img, p.opts.ImageSize, p.opts.Mean, p.opts.Std)
	if err != nil {
		return nil, err
	}

	var m *Model
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case m = <-p.models:
	}
	defer func() { p.models <- m }()

	copy(m.input.GetData(), inputData)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}

	raw := m.output.GetData()
	scores := make([]float32, len(raw))
	for i, v := range raw {
		if p.opts.Sigmoid {
			v = Sigmoid(v)
		}
		scores[i] = v
	}
	return scores, nil
}

// Close releases every session. It must not be called while Score is running.
func (p *ModelPool) Close() error {
	for _, m := range p.all {
		m.destroy()
	}
	p.all = nil
	return nil
}
