package service

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

func Sigmoid(x float32) float32 {
	if x > 50 {
		x = 50
	} else if x < -50 {
		x = -50
	}
	return 1 / (1 + float32(math.Exp(float64(-x))))
}

// Decode reads any registered image format (jpeg, png, webp, avif).
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// prepare image for model input
func Preprocess(img image.Image, size int, mean, std [3]float32) ([]float32, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}
	maxDim := max(h, w)

	// white padding
	canvas := imaging.New(maxDim, maxDim, color.White)
	padded := imaging.Overlay(canvas, img, image.Pt((maxDim-w)/2, (maxDim-h)/2), 1.0)
	resized := imaging.Resize(padded, size, size, imaging.Lanczos)

	out := make([]float32, 3*size*size)
	rBase := 0
	gBase := size * size
	bBase := 2 * size * size

	for y := range size {
		for x := range size {
			c := resized.NRGBAAt(x, y)
			fr := float32(c.R) / 255.0
			fg := float32(c.G) / 255.0
			fb := float32(c.B) / 255.0

			out[rBase] = (fr - mean[0]) / std[0]
			out[gBase] = (fg - mean[1]) / std[1]
			out[bBase] = (fb - mean[2]) / std[2]

			rBase++
			gBase++
			bBase++
		}
	}
	return out, nil
}
