package config

import (
	"sort"

	"github.com/LdDl/bytetrack-go/mot"
	"github.com/pkg/errors"
)

// DefaultPreset is used when the configuration file names none
const DefaultPreset = "bytetrack"

var presets = map[string]func() mot.Config{
	"bytetrack": mot.DefaultConfig,
	"botsort":   mot.DefaultBoTSORTConfig,
	// Fast traffic: objects leave the view quickly, forget them early
	"highway": func() mot.Config {
		cfg := mot.DefaultConfig()
		cfg.TrackBufferFrames = 20
		cfg.MatchThresh = 0.2
		return cfg
	},
	// Queues at traffic lights: long occlusions behind other vehicles
	"intersection": func() mot.Config {
		cfg := mot.DefaultBoTSORTConfig()
		cfg.TrackBufferFrames = 90
		cfg.HighThresh = 0.6
		return cfg
	},
}

// Preset returns tracker parameters by preset name
func Preset(name string) (mot.Config, error) {
	if name == "" {
		name = DefaultPreset
	}
	build, ok := presets[name]
	if !ok {
		return mot.Config{}, errors.Errorf("unknown preset '%s'", name)
	}
	return build(), nil
}

// PresetNames returns names of known presets sorted alphabetically
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
