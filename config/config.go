// Package config loads the game settings from YAML.
package config

import (
	"neonwreckage/graphics"
)

// WindowConfig sizes the game window
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
}

// AudioConfig holds the master bus settings
type AudioConfig struct {
	Volume float64 `yaml:"volume"`
	Muted  bool    `yaml:"muted"`
}

// Settings is everything a run can be tuned with. A file only needs the keys
// it wants to change; the rest keep their defaults.
type Settings struct {
	Window WindowConfig `yaml:"window"`
	Audio  AudioConfig  `yaml:"audio"`

	// Seed drives procedural generation. Zero picks one from the clock.
	Seed int64 `yaml:"seed"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// BlackHoleOnStart shows the black hole before the first boss arrives
	BlackHoleOnStart bool `yaml:"black_hole_on_start"`

	Background graphics.BackgroundConfig `yaml:"background"`
	BlackHole  graphics.BlackHoleConfig  `yaml:"black_hole"`
}

// Default returns the built-in settings
func Default() Settings {
	return Settings{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
		},
		Audio: AudioConfig{
			Volume: 0.6,
		},
		LogLevel:   "info",
		Background: graphics.DefaultBackgroundConfig(),
		BlackHole:  graphics.DefaultBlackHoleConfig(),
	}
}
