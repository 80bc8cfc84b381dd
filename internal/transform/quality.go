package transform

import (
	"image"
	"math"

	"github.com/JaiminPatel345/glowup-sub000/internal/frame"
)

// Pixel stride for quality sampling. Full scans are wasted work on large
// frames; every 4th pixel is plenty for a contrast estimate.
const qualitySampleStride = 4

// QualityScore estimates the visual quality of a transformed frame in [0, 1]
// from its luminance contrast. A flat (washed-out or blacked-out) output
// scores near zero; a well-distributed output scores near one.
func QualityScore(f *frame.Frame) float64 {
	bounds := f.Image.Bounds()
	if bounds.Empty() {
		return 0
	}

	var sum, sumSq float64
	var n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += qualitySampleStride {
		for x := bounds.Min.X; x < bounds.Max.X; x += qualitySampleStride {
			lum := luminance(f.Image, x, y)
			sum += lum
			sumSq += lum * lum
			n++
		}
	}
	if n == 0 {
		return 0
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}

	// A stddev of 0.25 over [0,1] luminance is roughly the contrast of a
	// natural photograph; normalize against it and clamp.
	score := math.Sqrt(variance) / 0.25
	return math.Min(score, 1)
}

func luminance(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 65535
}
