package mot

// TrackingMetrics captures aggregate tracking counters.
type TrackingMetrics struct {
	Frames             int `json:"frames"`
	TracksCreated      int `json:"tracks_created"`
	TracksRemoved      int `json:"tracks_removed"`
	Stage1Matches      int `json:"stage1_matches"`
	Stage2Matches      int `json:"stage2_matches"`
	RejectedDetections int `json:"rejected_detections"`
	HeldTracks         int `json:"held_tracks"`
}
