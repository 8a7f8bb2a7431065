package mot

import (
	"image"

	"gonum.org/v1/gonum/floats"
)

// DefaultHistogramLevels gives 4 red levels x 4 green levels = 16 bins
const DefaultHistogramLevels = 4

// HistogramExtractor computes a coarse red/green color histogram of a box region.
type HistogramExtractor struct {
	// Quantization levels per channel. Descriptor length is Levels*Levels
	Levels int
}

// NewHistogramExtractor creates HistogramExtractor. Levels outside [1, 16] fall back to DefaultHistogramLevels
func NewHistogramExtractor(levels int) HistogramExtractor {
	if levels < 1 || levels > 16 {
		levels = DefaultHistogramLevels
	}
	return HistogramExtractor{Levels: levels}
}

// Len returns descriptor length
func (e HistogramExtractor) Len() int {
	return e.Levels * e.Levels
}

// Extract returns histogram of the box clipped to image bounds, normalized by pixel count.
// An empty or fully out-of-bounds region yields an all-zero vector.
func (e HistogramExtractor) Extract(img image.Image, box Rectangle) []float64 {
	if e.Levels < 1 {
		e.Levels = DefaultHistogramLevels
	}
	hist := make([]float64, e.Len())
	if img == nil || !box.IsValid() {
		return hist
	}
	region := box.Image().Intersect(img.Bounds())
	if region.Empty() {
		return hist
	}
	levels := uint32(e.Levels)
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			r, g, _, _ := img.At(x, y).RGBA()
			// RGBA() yields 16-bit channels
			rl := (r >> 8) * levels / 256
			gl := (g >> 8) * levels / 256
			hist[rl*levels+gl]++
		}
	}
	floats.Scale(1.0/float64(region.Dx()*region.Dy()), hist)
	return hist
}

// CosineSimilarity returns cosine of the angle between two equal-length vectors.
// Returns 0 when lengths differ or either vector is all-zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return clampFloat64(floats.Dot(a, b)/(na*nb), -1, 1)
}

// usableDescriptor reports whether descriptor carries any information
func usableDescriptor(d []float64) bool {
	return len(d) > 0 && floats.Norm(d, 2) > 0
}

// blendDescriptor returns momentum*current + (1-momentum)*observed.
// Zero observations keep the current descriptor, a missing current one adopts the observation.
func blendDescriptor(current, observed []float64, momentum float64) []float64 {
	if !usableDescriptor(observed) {
		return current
	}
	if !usableDescriptor(current) || len(current) != len(observed) {
		return append([]float64(nil), observed...)
	}
	blended := make([]float64, len(current))
	floats.ScaleTo(blended, momentum, current)
	floats.AddScaled(blended, 1-momentum, observed)
	return blended
}
