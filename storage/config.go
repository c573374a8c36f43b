package storage

import (
	"os"
)

// Config holds the persisted application settings.
type Config struct {
	Audio      AudioConfig    `json:"audio"`
	Rewind     RewindConfig   `json:"rewind"`
	SaveSlots  int            `json:"saveSlots"`
	AutoSave   AutoSaveConfig `json:"autoSave"`
	RecentROMs []string       `json:"recentRoms,omitempty"`
}

// AudioConfig holds audio output settings.
type AudioConfig struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

// RewindConfig holds rewind buffer settings.
type RewindConfig struct {
	Enabled   bool `json:"enabled"`
	BufferMB  int  `json:"bufferMb"`
	FrameStep int  `json:"frameStep"`
}

// AutoSaveConfig controls periodic resume-state snapshots.
type AutoSaveConfig struct {
	Enabled bool `json:"enabled"`
	// EverySeconds is the interval between resume snapshots.
	EverySeconds int `json:"everySeconds"`
}

const maxRecentROMs = 10

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{Volume: 1.0},
		Rewind: RewindConfig{
			Enabled:   true,
			BufferMB:  32,
			FrameStep: 6,
		},
		SaveSlots: 10,
		AutoSave: AutoSaveConfig{
			Enabled:      true,
			EverySeconds: 30,
		},
	}
}

// LoadConfig reads the config file, falling back to defaults when the
// file is missing. Invalid values are clamped rather than rejected.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := ReadJSON(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config atomically.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	c.normalize()
	return AtomicWriteJSON(path, c)
}

// AddRecentROM records a ROM path at the front of the recent list,
// deduplicating and trimming to the most recent entries.
func (c *Config) AddRecentROM(path string) {
	recent := make([]string, 0, maxRecentROMs)
	recent = append(recent, path)
	for _, p := range c.RecentROMs {
		if p == path {
			continue
		}
		recent = append(recent, p)
		if len(recent) == maxRecentROMs {
			break
		}
	}
	c.RecentROMs = recent
}

func (c *Config) normalize() {
	if c.Audio.Volume < 0 {
		c.Audio.Volume = 0
	}
	if c.Audio.Volume > 1 {
		c.Audio.Volume = 1
	}
	if c.Rewind.BufferMB <= 0 {
		c.Rewind.BufferMB = 32
	}
	if c.Rewind.FrameStep <= 0 {
		c.Rewind.FrameStep = 6
	}
	if c.SaveSlots < 1 {
		c.SaveSlots = 1
	}
	if c.AutoSave.EverySeconds <= 0 {
		c.AutoSave.EverySeconds = 30
	}
	if len(c.RecentROMs) > maxRecentROMs {
		c.RecentROMs = c.RecentROMs[:maxRecentROMs]
	}
}
