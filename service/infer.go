package service

import (
	"context"
	"fmt"
	"image"

	"github.com/krau/tagpipe/tagging"
)

// Tagger runs inference and the tagging pipeline for single images.
type Tagger struct {
	scorer   Scorer
	pipeline *tagging.Pipeline
}

func NewTagger(scorer Scorer, pipeline *tagging.Pipeline) *Tagger {
	return &Tagger{scorer: scorer, pipeline: pipeline}
}

func (t *Tagger) Pipeline() *tagging.Pipeline { return t.pipeline }

func (t *Tagger) Predict(ctx context.Context, img image.Image) (tagging.Result, error) {
	if t.scorer == nil {
		return tagging.Result{}, fmt.Errorf("model not initialized")
	}
	scores, err := t.scorer.Score(ctx, img)
	if err != nil {
		return tagging.Result{}, err
	}
	return t.pipeline.Run(scores)
}
