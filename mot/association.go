package mot

// Associable is anything the association engine can pair: tracks and detections.
type Associable interface {
	GetBBox() Rectangle
	GetClass() string
	GetDescriptor() []float64
}

// BlendFunc combines IoU with appearance descriptors into a single similarity score.
// It is called only when both descriptors are usable and of equal length.
type BlendFunc func(iou float64, trackDescriptor, detectionDescriptor []float64) float64

// AppearanceBlend returns (1-w)·IoU + w·cosine similarity. Weight is clamped to [0, 1].
func AppearanceBlend(weight float64) BlendFunc {
	w := clampFloat64(weight, 0, 1)
	return func(iou float64, trackDescriptor, detectionDescriptor []float64) float64 {
		return (1-w)*iou + w*CosineSimilarity(trackDescriptor, detectionDescriptor)
	}
}

// Match pairs an index into the tracks slice with an index into the detections slice.
type Match struct {
	Track     int
	Detection int
	Score     float64
}

// Association is the result of a single Associate call.
// Unmatched indices are sorted ascending.
type Association struct {
	Matches             []Match
	UnmatchedTracks     []int
	UnmatchedDetections []int
}

// Similarity returns IoU of the two boxes, blended with appearance when blend is not nil and
// both sides carry usable descriptors of equal length. Different classes never match (score 0).
func Similarity[T, D Associable](track T, detection D, blend BlendFunc) float64 {
	if track.GetClass() != detection.GetClass() {
		return 0
	}
	iou := IoU(track.GetBBox(), detection.GetBBox())
	if blend == nil || iou <= 0 {
		return iou
	}
	trackDesc := track.GetDescriptor()
	detDesc := detection.GetDescriptor()
	if len(trackDesc) != len(detDesc) || !usableDescriptor(trackDesc) || !usableDescriptor(detDesc) {
		return iou
	}
	return blend(iou, trackDesc, detDesc)
}

// Associate greedily pairs tracks with detections.
// All pairs with score >= threshold are ordered by descending score (ties keep track-major
// enumeration order) and accepted while neither side is already taken.
// Threshold is clamped to (0, 1].
func Associate[T, D Associable](tracks []T, detections []D, threshold float64, blend BlendFunc) Association {
	if !(threshold > 0) {
		threshold = 1e-9
	}
	if threshold > 1 {
		threshold = 1
	}

	candidates := make(candidateHeap, 0, len(tracks))
	for i := range tracks {
		for j := range detections {
			score := Similarity(tracks[i], detections[j], blend)
			if score >= threshold {
				candidates.Push(candidatePair{
					track:     i,
					detection: j,
					score:     score,
					seq:       len(candidates),
				})
			}
		}
	}

	trackUsed := make([]bool, len(tracks))
	detectionUsed := make([]bool, len(detections))
	result := Association{
		Matches: make([]Match, 0, minInt(len(tracks), len(detections))),
	}
	for candidates.Len() > 0 {
		pair := candidates.Pop()
		if trackUsed[pair.track] || detectionUsed[pair.detection] {
			continue
		}
		trackUsed[pair.track] = true
		detectionUsed[pair.detection] = true
		result.Matches = append(result.Matches, Match{
			Track:     pair.track,
			Detection: pair.detection,
			Score:     pair.score,
		})
	}

	for i, used := range trackUsed {
		if !used {
			result.UnmatchedTracks = append(result.UnmatchedTracks, i)
		}
	}
	for j, used := range detectionUsed {
		if !used {
			result.UnmatchedDetections = append(result.UnmatchedDetections, j)
		}
	}
	return result
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
