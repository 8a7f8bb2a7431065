package config

import "github.com/LdDl/bytetrack-go/mot"

// LogConfig contains logger configuration
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	// Rotating log file. Empty disables file output
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB" validate:"gte=0"`
	MaxAgeDays int    `yaml:"maxAgeDays" validate:"gte=0"`
	MaxBackups int    `yaml:"maxBackups" validate:"gte=0"`
	NoColors   bool   `yaml:"noColors"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	// Named parameter set applied before Tracker overrides
	Preset  string     `yaml:"preset" validate:"omitempty,oneof=bytetrack botsort highway intersection"`
	Tracker mot.Config `yaml:"tracker"`
	Log     LogConfig  `yaml:"log"`
}
