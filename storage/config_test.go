package storage

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Audio.Volume != 1.0 {
		t.Errorf("expected default volume 1.0, got %f", cfg.Audio.Volume)
	}
	if cfg.Audio.Muted {
		t.Error("expected unmuted default")
	}
	if !cfg.Rewind.Enabled || cfg.Rewind.BufferMB != 32 || cfg.Rewind.FrameStep != 6 {
		t.Errorf("unexpected rewind defaults: %+v", cfg.Rewind)
	}
	if cfg.SaveSlots != 10 {
		t.Errorf("expected 10 save slots, got %d", cfg.SaveSlots)
	}
	if !cfg.AutoSave.Enabled || cfg.AutoSave.EverySeconds != 30 {
		t.Errorf("unexpected auto-save defaults: %+v", cfg.AutoSave)
	}
}

func TestConfig_NormalizeClampsValues(t *testing.T) {
	cfg := &Config{
		Audio:     AudioConfig{Volume: 5.0},
		Rewind:    RewindConfig{BufferMB: -1, FrameStep: 0},
		SaveSlots: 0,
	}
	cfg.normalize()

	if cfg.Audio.Volume != 1.0 {
		t.Errorf("volume not clamped: %f", cfg.Audio.Volume)
	}
	if cfg.Rewind.BufferMB != 32 || cfg.Rewind.FrameStep != 6 {
		t.Errorf("rewind not normalized: %+v", cfg.Rewind)
	}
	if cfg.SaveSlots != 1 {
		t.Errorf("save slots not clamped: %d", cfg.SaveSlots)
	}
	if cfg.AutoSave.EverySeconds != 30 {
		t.Errorf("auto-save interval not defaulted: %d", cfg.AutoSave.EverySeconds)
	}

	cfg.Audio.Volume = -2
	cfg.normalize()
	if cfg.Audio.Volume != 0 {
		t.Errorf("negative volume not clamped: %f", cfg.Audio.Volume)
	}
}

func TestConfig_AddRecentROM(t *testing.T) {
	cfg := DefaultConfig()

	cfg.AddRecentROM("/roms/a.tp")
	cfg.AddRecentROM("/roms/b.tp")
	cfg.AddRecentROM("/roms/a.tp") // moves to front, no duplicate

	if len(cfg.RecentROMs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(cfg.RecentROMs))
	}
	if cfg.RecentROMs[0] != "/roms/a.tp" || cfg.RecentROMs[1] != "/roms/b.tp" {
		t.Fatalf("unexpected order: %v", cfg.RecentROMs)
	}

	for i := 0; i < 20; i++ {
		cfg.AddRecentROM(filepath.Join("/roms", string(rune('a'+i))+".tp"))
	}
	if len(cfg.RecentROMs) > maxRecentROMs {
		t.Fatalf("recent list not trimmed: %d entries", len(cfg.RecentROMs))
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG paths are linux-only")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SaveSlots != DefaultConfig().SaveSlots {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestConfig_SaveAndReload(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG paths are linux-only")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Audio.Volume = 0.5
	cfg.Audio.Muted = true
	cfg.SaveSlots = 4
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Audio.Volume != 0.5 || !got.Audio.Muted || got.SaveSlots != 4 {
		t.Fatalf("reloaded config mismatch: %+v", got)
	}
}
