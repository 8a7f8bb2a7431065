package mot

import "github.com/pkg/errors"

// MotionKind selects the per-track state estimator.
type MotionKind string

const (
	// MotionBlend is a constant-velocity model with a fixed-weight measurement blend (no covariance)
	MotionBlend MotionKind = "blend"
	// MotionKalman is a full 8-D Kalman filter over (cx, cy, w, h) and their velocities
	MotionKalman MotionKind = "kalman"
)

// DefaultBlendAlpha is the weight of a new measurement in BlendMotion.Update
const DefaultBlendAlpha = 0.6

// MotionModel estimates a single track's kinematics.
// State layout: [cx, cy, area, height, vx, vy, vArea, vHeight].
type MotionModel interface {
	// Predict advances the state by one frame (constant velocity)
	Predict()
	// Update absorbs a matched measurement
	Update(measurement Rectangle) error
	// State returns a copy of the state vector
	State() [8]float64
	// BBox returns the box described by the current state
	BBox() Rectangle
}

// NewMotionModel creates the estimator of given kind seeded with the bounding box.
func NewMotionModel(kind MotionKind, bbox Rectangle, alpha float64) MotionModel {
	switch kind {
	case MotionKalman:
		return NewKalmanMotion(bbox)
	default:
		return NewBlendMotion(bbox, alpha)
	}
}

// BlendMotion is a constant-velocity estimator that blends each measurement into the state
// with a fixed weight instead of a covariance-driven gain.
type BlendMotion struct {
	state [8]float64
	alpha float64
	// Position part of the state right after the last absorbed measurement
	anchor [4]float64
	// Predict calls since the last absorbed measurement
	steps int
}

// NewBlendMotion creates BlendMotion seeded with the bounding box and zero velocity.
// Alpha outside of (0, 1] falls back to DefaultBlendAlpha.
func NewBlendMotion(bbox Rectangle, alpha float64) *BlendMotion {
	if !(alpha > 0 && alpha <= 1) {
		alpha = DefaultBlendAlpha
	}
	m := &BlendMotion{alpha: alpha}
	m.seed(bbox)
	return m
}

func (m *BlendMotion) seed(bbox Rectangle) {
	meas := measurementOf(bbox)
	m.state = [8]float64{meas[0], meas[1], meas[2], meas[3], 0, 0, 0, 0}
	m.anchor = meas
	m.steps = 0
}

// Predict integrates velocities over one frame
func (m *BlendMotion) Predict() {
	prev := m.state
	for i := 0; i < 4; i++ {
		m.state[i] += m.state[i+4]
	}
	m.steps++
	if !m.sanitize() {
		// Keep last good position, drop the diverged velocity
		m.state = prev
		for i := 4; i < 8; i++ {
			m.state[i] = 0
		}
		m.sanitize()
	}
}

// Update blends the measurement into position (state·(1-α) + measurement·α) and re-estimates
// velocity from the blended displacement since the previous measurement.
// Non-finite measurements are refused and leave the state untouched.
func (m *BlendMotion) Update(measurement Rectangle) error {
	meas := measurementOf(measurement)
	for _, v := range meas {
		if !isFinite(v) {
			return errors.Errorf("non-finite measurement %v", measurement)
		}
	}
	steps := float64(m.steps)
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < 4; i++ {
		blended := m.state[i]*(1-m.alpha) + meas[i]*m.alpha
		displacement := (blended - m.anchor[i]) / steps
		m.state[i+4] = m.state[i+4]*(1-m.alpha) + displacement*m.alpha
		m.state[i] = blended
	}
	if !m.sanitize() {
		m.seed(measurement)
		m.sanitize()
	}
	copy(m.anchor[:], m.state[:4])
	m.steps = 0
	return nil
}

// State returns a copy of the state vector
func (m *BlendMotion) State() [8]float64 {
	return m.state
}

// BBox returns the box described by the current state
func (m *BlendMotion) BBox() Rectangle {
	return NewRectFromCenter(m.state[0], m.state[1], m.state[2], m.state[3])
}

// sanitize floors height and area and reports whether the whole state is finite.
func (m *BlendMotion) sanitize() bool {
	for _, v := range m.state {
		if !isFinite(v) {
			return false
		}
	}
	m.state[3] = maxFloat64(m.state[3], MinHeight)
	m.state[2] = maxFloat64(m.state[2], MinHeight*MinHeight)
	return true
}

// measurementOf converts a bbox to [cx, cy, area, height] with the height floor applied.
func measurementOf(bbox Rectangle) [4]float64 {
	center := bbox.Center()
	return [4]float64{
		center.X,
		center.Y,
		maxFloat64(bbox.Area(), MinHeight*MinHeight),
		maxFloat64(bbox.Height, MinHeight),
	}
}
