package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are tried in order by Load when no explicit path is given
var DefaultPaths = []string{"mot.yml", "config/mot.yml"}

// presetHeader is decoded first so that the preset can seed the tracker section
type presetHeader struct {
	Preset string `yaml:"preset"`
}

// Default returns configuration of the default preset with info logging
func Default() AppConfig {
	cfg, _ := Preset(DefaultPreset)
	return AppConfig{
		Preset:  DefaultPreset,
		Tracker: cfg,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxAgeDays: 7,
			MaxBackups: 3,
		},
	}
}

// Load reads configuration from path. Empty path tries DefaultPaths and falls back to Default()
// when none of them exists.
func Load(path string) (AppConfig, error) {
	if path == "" {
		for _, p := range DefaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
		if path == "" {
			return Default(), nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, errors.Wrapf(err, "Can't read config file '%s'", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return AppConfig{}, errors.Wrapf(err, "Can't load config file '%s'", path)
	}
	return cfg, nil
}

// Parse decodes YAML document: preset parameters first, then explicit fields on top of them.
func Parse(data []byte) (AppConfig, error) {
	var header presetHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return AppConfig{}, errors.Wrap(err, "Can't parse YAML")
	}
	cfg := Default()
	tracker, err := Preset(header.Preset)
	if err != nil {
		return AppConfig{}, err
	}
	cfg.Tracker = tracker
	cfg.Preset = header.Preset
	if cfg.Preset == "" {
		cfg.Preset = DefaultPreset
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, errors.Wrap(err, "Can't parse YAML")
	}
	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks application and tracker sections
func Validate(cfg AppConfig) error {
	v := validator.New()
	if err := v.Struct(cfg.Log); err != nil {
		return errors.Wrap(err, "invalid log config")
	}
	if err := v.Var(cfg.Preset, "omitempty,oneof=bytetrack botsort highway intersection"); err != nil {
		return errors.Wrap(err, "invalid preset")
	}
	return cfg.Tracker.Validate()
}
