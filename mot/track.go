package mot

// TrackState is the lifecycle state of a track.
type TrackState string

const (
	TrackTentative TrackState = "tentative" // New track, not emitted until confirmed
	TrackConfirmed TrackState = "confirmed" // Matched in the current cycle and emitted
	TrackLost      TrackState = "lost"      // Missed, predicted only, still emitted within the buffer
	TrackRemoved   TrackState = "removed"   // Dropped from the tracker
)

// Track is an object followed across frames. Tracks are owned by a single Tracker
// and are never handed out to consumers directly: see TrackSnapshot.
type Track struct {
	id        int64
	classID   int
	className string
	motion    MotionModel
	// Blended appearance descriptor (nil when appearance matching is off)
	descriptor []float64
	state      TrackState
	// Has been confirmed at least once
	activated bool
	// Frames since creation
	age int
	// Consecutive matched frames (creation counts as the first one)
	hits int
	// Consecutive frames without a match
	framesSinceUpdate int
	// Score of the last matched detection
	score       float64
	track       []Point
	maxTrackLen int
}

func newTrack(id int64, det Detection, motion MotionModel, maxTrackLen int) *Track {
	if maxTrackLen < 1 {
		maxTrackLen = 150
	}
	trk := &Track{
		id:          id,
		classID:     det.ClassID,
		className:   det.ClassName,
		motion:      motion,
		descriptor:  blendDescriptor(nil, det.Descriptor, 0),
		state:       TrackTentative,
		hits:        1,
		score:       det.Score,
		track:       make([]Point, 0, minInt(maxTrackLen, 150)),
		maxTrackLen: maxTrackLen,
	}
	trk.track = append(trk.track, motion.BBox().Center())
	return trk
}

// GetBBox returns track's current (predicted or updated) bounding box
func (trk *Track) GetBBox() Rectangle {
	return trk.motion.BBox()
}

// GetClass returns track's category key
func (trk *Track) GetClass() string {
	return classKey(trk.classID, trk.className)
}

// GetDescriptor returns track's appearance descriptor (may be nil)
func (trk *Track) GetDescriptor() []float64 {
	return trk.descriptor
}

// predict advances the motion model by one frame.
// Hits are reset when the previous cycle ended without a match.
func (trk *Track) predict() {
	if trk.framesSinceUpdate > 0 {
		trk.hits = 0
	}
	trk.motion.Predict()
	trk.age++
	trk.framesSinceUpdate++
}

// update absorbs a matched detection. The returned error comes from the motion model,
// which has either re-seeded itself from the measurement or refused it; counters are updated regardless.
func (trk *Track) update(det Detection, descriptorMomentum float64) error {
	err := trk.motion.Update(det.BBox)
	trk.framesSinceUpdate = 0
	trk.hits++
	trk.score = det.Score
	trk.descriptor = blendDescriptor(trk.descriptor, det.Descriptor, descriptorMomentum)
	trk.track = append(trk.track, trk.motion.BBox().Center())
	if len(trk.track) > trk.maxTrackLen {
		trk.track = trk.track[1:]
	}
	return err
}

// confirmIfReady moves a matched track into Confirmed once it has enough consecutive hits
// (or was confirmed before). Returns true if the track is confirmed afterwards.
func (trk *Track) confirmIfReady(minHits int) bool {
	if trk.activated || trk.hits >= minHits {
		trk.activated = true
		trk.state = TrackConfirmed
		return true
	}
	trk.state = TrackTentative
	return false
}

func (trk *Track) markLost() {
	trk.state = TrackLost
}

func (trk *Track) markRemoved() {
	trk.state = TrackRemoved
}

// kinematics exposes the state vector to the package only
func (trk *Track) kinematics() [8]float64 {
	return trk.motion.State()
}

// snapshot returns read-only view of the track
func (trk *Track) snapshot() TrackSnapshot {
	return TrackSnapshot{
		ID:                trk.id,
		BBox:              trk.motion.BBox(),
		ClassID:           trk.classID,
		ClassName:         trk.className,
		Score:             trk.score,
		Age:               trk.age,
		Hits:              trk.hits,
		FramesSinceUpdate: trk.framesSinceUpdate,
		State:             trk.state,
	}
}

// TrackSnapshot is the read-only view of a track emitted to consumers.
// ID is the only identity key across frames.
type TrackSnapshot struct {
	ID                int64      `json:"id"`
	BBox              Rectangle  `json:"bbox"`
	ClassID           int        `json:"class_id"`
	ClassName         string     `json:"class"`
	Score             float64    `json:"score"`
	Age               int        `json:"age"`
	Hits              int        `json:"hits"`
	FramesSinceUpdate int        `json:"frames_since_update"`
	State             TrackState `json:"state"`
}
