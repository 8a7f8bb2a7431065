package mot

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Variant is the tracker flavour chosen at construction time
type Variant string

const (
	// VariantByteTrack matches on IoU only
	VariantByteTrack Variant = "bytetrack"
	// VariantBoTSORT blends IoU with appearance similarity and relaxes the low-confidence stage
	VariantBoTSORT Variant = "botsort"
)

// Config holds tracker parameters. Changes made through Tracker.UpdateConfig take effect
// on the next update cycle.
type Config struct {
	Variant Variant    `yaml:"variant" json:"variant" validate:"oneof=bytetrack botsort"`
	Motion  MotionKind `yaml:"motion" json:"motion" validate:"oneof=blend kalman"`
	// Detections with score >= HighThresh anchor identities and may spawn tracks
	HighThresh float64 `yaml:"high_thresh" json:"high_thresh" validate:"gt=0,lte=1"`
	// Detections with LowThresh < score < HighThresh only extend existing tracks
	LowThresh float64 `yaml:"low_thresh" json:"low_thresh" validate:"gte=0,ltfield=HighThresh"`
	// Minimum similarity for the high-confidence stage
	MatchThresh float64 `yaml:"match_thresh" json:"match_thresh" validate:"gt=0,lte=1"`
	// Low-confidence stage threshold is MatchThresh*LowMatchScale
	LowMatchScale float64 `yaml:"low_match_scale" json:"low_match_scale" validate:"gt=0,lte=1"`
	// Consecutive missed frames before a track is dropped
	TrackBufferFrames int `yaml:"track_buffer_frames" json:"track_buffer_frames" validate:"gte=1"`
	// Consecutive hits before a new track is emitted. 0 and 1 confirm on creation
	MinHits int `yaml:"min_hits" json:"min_hits" validate:"gte=0"`
	// Measurement weight of the blend motion model
	BlendAlpha float64 `yaml:"blend_alpha" json:"blend_alpha" validate:"gt=0,lte=1"`
	// Weight of appearance similarity in the BoT-SORT score
	AppearanceWeight float64 `yaml:"appearance_weight" json:"appearance_weight" validate:"gte=0,lte=1"`
	// Share of the old descriptor kept on every match
	DescriptorMomentum float64 `yaml:"descriptor_momentum" json:"descriptor_momentum" validate:"gte=0,lt=1"`
	// Color quantization levels per channel of the appearance histogram
	HistogramLevels int `yaml:"histogram_levels" json:"histogram_levels" validate:"gte=1,lte=16"`
	// Max length of per-track center history
	MaxTrackLen int `yaml:"max_track_len" json:"max_track_len" validate:"gte=1"`
}

var validate = validator.New()

// DefaultConfig returns ByteTrack parameters
func DefaultConfig() Config {
	return Config{
		Variant:            VariantByteTrack,
		Motion:             MotionBlend,
		HighThresh:         0.5,
		LowThresh:          0.1,
		MatchThresh:        0.3,
		LowMatchScale:      1.0,
		TrackBufferFrames:  30,
		MinHits:            0,
		BlendAlpha:         DefaultBlendAlpha,
		AppearanceWeight:   0.3,
		DescriptorMomentum: 0.9,
		HistogramLevels:    DefaultHistogramLevels,
		MaxTrackLen:        150,
	}
}

// DefaultBoTSORTConfig returns appearance-augmented parameters
func DefaultBoTSORTConfig() Config {
	cfg := DefaultConfig()
	cfg.Variant = VariantBoTSORT
	cfg.LowMatchScale = 0.7
	cfg.TrackBufferFrames = 60
	return cfg
}

// Validate checks numeric ranges and enumerations
func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(err, "invalid tracker config")
	}
	return nil
}

// lowMatchThresh is the threshold of the low-confidence stage
func (cfg Config) lowMatchThresh() float64 {
	return cfg.MatchThresh * cfg.LowMatchScale
}

// blend returns similarity blend of the variant (nil means IoU only)
func (cfg Config) blend() BlendFunc {
	if cfg.Variant == VariantBoTSORT {
		return AppearanceBlend(cfg.AppearanceWeight)
	}
	return nil
}

func (cfg Config) usesAppearance() bool {
	return cfg.Variant == VariantBoTSORT
}
