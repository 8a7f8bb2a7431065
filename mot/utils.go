package mot

import "math"

// IoU calculates Intersection over Union between two rectangles.
// Returns 0 for disjoint boxes and for boxes with no positive union.
func IoU(r1, r2 Rectangle) float64 {
	xA := maxFloat64(r1.X, r2.X)
	yA := maxFloat64(r1.Y, r2.Y)
	xB := minFloat64(r1.X+r1.Width, r2.X+r2.Width)
	yB := minFloat64(r1.Y+r1.Height, r2.Y+r2.Height)

	interArea := maxFloat64(0, xB-xA) * maxFloat64(0, yB-yA)
	if interArea == 0 {
		return 0.0
	}

	unionArea := r1.Area() + r2.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}
	iouVal := interArea / unionArea
	if math.IsNaN(iouVal) {
		return 0.0
	}
	return minFloat64(iouVal, 1.0)
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clampFloat64(v, lo, hi float64) float64 {
	return minFloat64(maxFloat64(v, lo), hi)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
