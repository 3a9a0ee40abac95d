package main

import (
	"log/slog"

	"github.com/krau/tagpipe/config"
	"github.com/krau/tagpipe/onnx"
	"github.com/krau/tagpipe/service"
	"github.com/krau/tagpipe/tagging"
)

// openModel initialises ONNX Runtime and loads one session per worker. The
// returned function releases everything.
func (c *commandContext) openModel(cfg *config.Config, p *tagging.Pipeline, sessions int) (*service.ModelPool, func(), error) {
	shutdown, err := onnx.Init(cfg.Model.Libonnx, c.logger)
	if err != nil {
		return nil, nil, err
	}
	pool, err := service.NewModelPool(service.Options{
		ModelPath: cfg.ModelPath(),
		ImageSize: cfg.Model.ImageSize,
		Mean:      cfg.Model.Mean,
		Std:       cfg.Model.Std,
		Tags:      p.Catalog().Len(),
		Sessions:  sessions,
		Sigmoid:   cfg.Model.Sigmoid,
		CUDA:      cfg.Model.CUDA,
	})
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	if cfg.Model.CUDA && pool.Device() != "cuda" {
		c.logger.Warn("CUDA execution provider unavailable, running on CPU")
	}
	c.logger.Info("Model loaded", slog.String("path", cfg.ModelPath()), slog.String("device", pool.Device()), slog.Int("sessions", sessions))
	return pool, func() {
		_ = pool.Close()
		shutdown()
	}, nil
}
