package mot

import "strconv"

// Detection is a single detector output for one frame. Detections carry no identity.
type Detection struct {
	// Bounding box in frame pixels (top-left x, y, width, height)
	BBox Rectangle
	// Detector confidence in [0, 1]
	Score float64
	// Category of the detected object. Tracks never change category.
	ClassID   int
	ClassName string
	// Optional appearance features (e.g. from a ReID head). Computed from the frame when empty
	// and the appearance variant is enabled.
	Descriptor []float64
}

// NewDetection is a constructor function for the Detection struct
func NewDetection(bbox Rectangle, score float64, classID int, className string) Detection {
	return Detection{
		BBox:      bbox,
		Score:     score,
		ClassID:   classID,
		ClassName: className,
	}
}

// GetBBox returns detection's bounding box
func (d Detection) GetBBox() Rectangle {
	return d.BBox
}

// GetClass returns detection's category key
func (d Detection) GetClass() string {
	return classKey(d.ClassID, d.ClassName)
}

// GetDescriptor returns detection's appearance descriptor (may be nil)
func (d Detection) GetDescriptor() []float64 {
	return d.Descriptor
}

// isUsable reports whether the detection may enter association at all.
// Boxes with non-finite or non-positive dimensions, boxes whose center or area overflow, and
// non-finite scores count as "no detection".
func (d Detection) isUsable() bool {
	if !d.BBox.IsValid() || !isFinite(d.Score) {
		return false
	}
	center := d.BBox.Center()
	return isFinite(center.X) && isFinite(center.Y) && isFinite(d.BBox.Area())
}

// classKey prefers the category name; the numeric id is the fallback when no name is given.
func classKey(classID int, className string) string {
	if className != "" {
		return className
	}
	return "#" + strconv.Itoa(classID)
}
