package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// KalmanMotion is a MotionModel backed by 8-D Kalman filter for full bounding box dynamics.
// Filter state is [cx, cy, w, h, vx, vy, vw, vh]; area and its velocity are derived from it.
type KalmanMotion struct {
	tracker *kalman_filter.KalmanBBox
	bbox    Rectangle
}

// NewKalmanMotion creates KalmanMotion with time step of one frame.
func NewKalmanMotion(bbox Rectangle) *KalmanMotion {
	m := &KalmanMotion{}
	m.seed(bbox)
	return m
}

func (m *KalmanMotion) seed(bbox Rectangle) {
	center := bbox.Center()
	height := maxFloat64(bbox.Height, MinHeight)

	// Kalman filter props. No control input: acceleration is left to process noise
	dt := 1.0
	uCx := 0.0
	uCy := 0.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	m.tracker = kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(center.X, center.Y, bbox.Width, height),
	)
	m.bbox = Rectangle{
		X:      center.X - bbox.Width/2.0,
		Y:      center.Y - height/2.0,
		Width:  bbox.Width,
		Height: height,
	}
}

// Predict executes Kalman filter prediction step
func (m *KalmanMotion) Predict() {
	m.tracker.Predict()
	if !m.refresh() {
		m.seed(m.bbox)
	}
}

// Update executes Kalman filter update step with full bbox measurement.
// When the filter fails or diverges the state is re-seeded from the measurement.
func (m *KalmanMotion) Update(measurement Rectangle) error {
	center := measurement.Center()
	err := m.tracker.Update(center.X, center.Y, measurement.Width, maxFloat64(measurement.Height, MinHeight))
	if err != nil {
		m.seed(measurement)
		return errors.Wrap(err, "Can't update motion state")
	}
	if !m.refresh() {
		m.seed(measurement)
	}
	return nil
}

// State returns [cx, cy, area, height, vx, vy, vArea, vHeight]
func (m *KalmanMotion) State() [8]float64 {
	center := m.bbox.Center()
	vx, vy, vw, vh := m.tracker.GetVelocity()
	w, h := m.bbox.Width, m.bbox.Height
	return [8]float64{
		center.X, center.Y, w * h, h,
		vx, vy, vw*h + w*vh, vh,
	}
}

// BBox returns the box described by the current state
func (m *KalmanMotion) BBox() Rectangle {
	return m.bbox
}

// refresh reads filter state into bbox. Returns false if the filter produced non-finite values.
func (m *KalmanMotion) refresh() bool {
	cx, cy, w, h := m.tracker.GetState()
	for _, v := range [4]float64{cx, cy, w, h} {
		if !isFinite(v) {
			return false
		}
	}
	h = maxFloat64(h, MinHeight)
	w = maxFloat64(w, MinHeight)
	m.bbox = Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
	return true
}
