package mot

import (
	"image"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Tracker is implementation of Multi-object tracker (MOT) with cascaded-confidence association
// (ByteTrack) and optional appearance blending (BoT-SORT).
// Update must not be called concurrently; UpdateConfig may be called from any goroutine.
type Tracker struct {
	id  uuid.UUID
	ids *IDAllocator
	log logrus.FieldLogger

	// Guards pending only
	mu      sync.Mutex
	pending Config
	// Configuration of the current cycle
	cfg Config

	extractor HistogramExtractor
	// Main storage, ordered by creation (and so by id)
	tracks  []*Track
	metrics TrackingMetrics
}

// Option configures Tracker on construction
type Option func(*Tracker)

// WithLogger sets logger for lifecycle events
func WithLogger(logger logrus.FieldLogger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.log = logger
		}
	}
}

// WithIDAllocator makes tracker draw ids from a shared allocator
func WithIDAllocator(ids *IDAllocator) Option {
	return func(t *Tracker) {
		if ids != nil {
			t.ids = ids
		}
	}
}

// NewTracker creates a new instance of Tracker with specified parameters.
func NewTracker(cfg Config, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't create tracker")
	}
	return newTracker(cfg, opts...), nil
}

// DefaultTracker creates a Tracker with default ByteTrack parameters.
func DefaultTracker(opts ...Option) *Tracker {
	return newTracker(DefaultConfig(), opts...)
}

func newTracker(cfg Config, opts ...Option) *Tracker {
	silent := logrus.New()
	silent.SetOutput(io.Discard)
	t := &Tracker{
		id:      uuid.New(),
		ids:     NewIDAllocator(0),
		log:     silent,
		pending: cfg,
		cfg:     cfg,
		tracks:  make([]*Track, 0),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.WithField("tracker", t.id.String())
	return t
}

// ID returns tracker's instance identifier
func (t *Tracker) ID() uuid.UUID {
	return t.id
}

// Config returns the configuration that the next update cycle will use
func (t *Tracker) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// UpdateConfig applies fn to a copy of the configuration. The result is validated and takes
// effect on the next update cycle. Invalid results are discarded.
func (t *Tracker) UpdateConfig(fn func(*Config)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.pending
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	t.pending = next
	return nil
}

// Reset drops every track. Identifiers keep increasing afterwards.
func (t *Tracker) Reset() {
	t.tracks = make([]*Track, 0)
	t.metrics = TrackingMetrics{}
}

// Update runs one full cycle for a frame and returns live tracks ordered by id.
// Detections may be empty (detector skipped the frame): tracks are then only extrapolated.
// Frame is used by the BoT-SORT variant to describe detections and may be nil.
func (t *Tracker) Update(detections []Detection, frame image.Image) []TrackSnapshot {
	t.mu.Lock()
	t.cfg = t.pending
	t.mu.Unlock()
	cfg := t.cfg
	t.extractor = NewHistogramExtractor(cfg.HistogramLevels)
	t.metrics.Frames++

	// 1. Predict next positions for all existing tracks
	for _, track := range t.tracks {
		track.predict()
	}

	// 2. Split detections by confidence
	highDetections, lowDetections := t.splitDetections(detections, frame)

	// 3. First stage: all tracks vs high confidence detections
	blend := cfg.blend()
	first := Associate(t.tracks, highDetections, cfg.MatchThresh, blend)
	for _, match := range first.Matches {
		t.applyMatch(t.tracks[match.Track], highDetections[match.Detection])
	}
	t.metrics.Stage1Matches += len(first.Matches)

	// 4. Second stage: tracks left from stage 1 vs low confidence detections
	remaining := make([]*Track, len(first.UnmatchedTracks))
	for i, idx := range first.UnmatchedTracks {
		remaining[i] = t.tracks[idx]
	}
	second := Associate(remaining, lowDetections, cfg.lowMatchThresh(), blend)
	for _, match := range second.Matches {
		t.applyMatch(remaining[match.Track], lowDetections[match.Detection])
	}
	t.metrics.Stage2Matches += len(second.Matches)
	for _, idx := range second.UnmatchedTracks {
		t.applyMiss(remaining[idx])
	}

	// 5. Spawn tracks for high confidence detections left from stage 1
	for _, idx := range first.UnmatchedDetections {
		t.spawn(highDetections[idx])
	}

	// 6. Remove tracks that have disappeared for too long
	t.prune()

	// 7. Emit
	return t.GetActiveTracks()
}

// GetActiveTracks returns snapshots of emitted tracks: confirmed at least once and
// missed for fewer than TrackBufferFrames frames.
func (t *Tracker) GetActiveTracks() []TrackSnapshot {
	active := make([]TrackSnapshot, 0, len(t.tracks))
	for _, track := range t.tracks {
		if track.activated && track.framesSinceUpdate < t.cfg.TrackBufferFrames {
			active = append(active, track.snapshot())
		}
	}
	return active
}

// Tracks returns snapshots of every held track including tentative ones
func (t *Tracker) Tracks() []TrackSnapshot {
	all := make([]TrackSnapshot, len(t.tracks))
	for i, track := range t.tracks {
		all[i] = track.snapshot()
	}
	return all
}

// Trajectories returns copies of center histories of held tracks keyed by id
func (t *Tracker) Trajectories() map[int64][]Point {
	out := make(map[int64][]Point, len(t.tracks))
	for _, track := range t.tracks {
		out[track.id] = append([]Point(nil), track.track...)
	}
	return out
}

// Metrics returns counters accumulated since construction or last Reset
func (t *Tracker) Metrics() TrackingMetrics {
	m := t.metrics
	m.HeldTracks = len(t.tracks)
	return m
}

// splitDetections drops unusable detections and splits the rest into high (score >= HighThresh)
// and low (LowThresh < score < HighThresh) sets. Caller's slice is not modified.
func (t *Tracker) splitDetections(detections []Detection, frame image.Image) (high, low []Detection) {
	high = make([]Detection, 0, len(detections))
	low = make([]Detection, 0)
	for _, det := range detections {
		if !det.isUsable() {
			t.metrics.RejectedDetections++
			continue
		}
		// HighThresh > LowThresh is enforced by validation
		if det.Score <= t.cfg.LowThresh {
			continue
		}
		if !t.cfg.usesAppearance() {
			det.Descriptor = nil
		} else if len(det.Descriptor) == 0 && frame != nil {
			det.Descriptor = t.extractor.Extract(frame, det.BBox)
		}
		if det.Score >= t.cfg.HighThresh {
			high = append(high, det)
		} else {
			low = append(low, det)
		}
	}
	return high, low
}

// applyMatch updates a track with its detection and advances its lifecycle state
func (t *Tracker) applyMatch(track *Track, det Detection) {
	wasLost := track.state == TrackLost
	err := track.update(det, t.cfg.DescriptorMomentum)
	if err != nil {
		t.log.WithError(err).WithField("track_id", track.id).Warn("Motion model could not absorb measurement")
	}
	wasActivated := track.activated
	if track.confirmIfReady(t.cfg.MinHits) {
		switch {
		case wasLost && wasActivated:
			t.log.WithFields(logrus.Fields{"track_id": track.id, "class": track.GetClass()}).Debug("Track recovered")
		case !wasActivated:
			t.log.WithFields(logrus.Fields{"track_id": track.id, "class": track.GetClass()}).Debug("Track confirmed")
		}
	}
}

// applyMiss marks a track not matched in either stage as lost
func (t *Tracker) applyMiss(track *Track) {
	if track.state == TrackLost {
		return
	}
	track.markLost()
	t.log.WithFields(logrus.Fields{"track_id": track.id, "class": track.GetClass()}).Debug("Track lost")
}

// spawn creates a new track from an unmatched high confidence detection
func (t *Tracker) spawn(det Detection) {
	motion := NewMotionModel(t.cfg.Motion, det.BBox, t.cfg.BlendAlpha)
	track := newTrack(t.ids.Next(), det, motion, t.cfg.MaxTrackLen)
	track.confirmIfReady(t.cfg.MinHits)
	t.tracks = append(t.tracks, track)
	t.metrics.TracksCreated++
	t.log.WithFields(logrus.Fields{
		"track_id": track.id,
		"class":    track.GetClass(),
		"score":    det.Score,
		"state":    track.state,
	}).Debug("Track created")
}

// prune drops tracks with FramesSinceUpdate >= TrackBufferFrames
func (t *Tracker) prune() {
	kept := t.tracks[:0]
	for _, track := range t.tracks {
		if track.framesSinceUpdate >= t.cfg.TrackBufferFrames {
			track.markRemoved()
			t.metrics.TracksRemoved++
			t.log.WithFields(logrus.Fields{"track_id": track.id, "age": track.age}).Debug("Track removed")
			continue
		}
		kept = append(kept, track)
	}
	for i := len(kept); i < len(t.tracks); i++ {
		t.tracks[i] = nil
	}
	t.tracks = kept
}
