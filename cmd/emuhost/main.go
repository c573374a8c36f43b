// Command emuhost runs a ROM in a desktop window using the built-in
// test-pattern core. It exists to exercise the host end to end; real
// front ends embed the host and player packages with their own core.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sqweek/dialog"

	emucore "github.com/StephenDev0/emuhost/api"
	"github.com/StephenDev0/emuhost/coretest"
	"github.com/StephenDev0/emuhost/host"
	"github.com/StephenDev0/emuhost/player"
	"github.com/StephenDev0/emuhost/storage"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file (archives supported); opens a file picker when omitted")
	region := flag.String("region", "auto", "region: auto, ntsc, or pal")
	dual := flag.Bool("dual", false, "emulate a dual-screen system with touch input")
	battery := flag.Bool("battery", false, "emulate battery-backed SRAM")
	mute := flag.Bool("mute", false, "start with audio muted")
	flag.Parse()

	if err := run(*romPath, *region, *dual, *battery, *mute); err != nil {
		log.Fatalf("emuhost: %v", err)
	}
}

func run(romPath, regionStr string, dual, battery, mute bool) error {
	factoryOpts := []coretest.Option{}
	if dual {
		factoryOpts = append(factoryOpts, coretest.WithDualScreen())
	}
	if battery {
		factoryOpts = append(factoryOpts, coretest.WithBattery())
	}
	factory := coretest.NewFactory(factoryOpts...)
	info := factory.SystemInfo()

	if romPath == "" {
		picked, err := pickROM(info.Extensions)
		if err != nil {
			return err
		}
		romPath = picked
	}

	if err := storage.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare data directories: %w", err)
	}
	cfg, err := storage.LoadConfig()
	if err != nil {
		log.Printf("Warning: config load failed, using defaults: %v", err)
		cfg = storage.DefaultConfig()
	}
	if mute {
		cfg.Audio.Muted = true
	}

	opts, err := sessionOptions(regionStr, cfg, romPath)
	if err != nil {
		return err
	}

	cfg.AddRecentROM(romPath)
	if err := cfg.Save(); err != nil {
		log.Printf("Warning: config save failed: %v", err)
	}

	return player.Run(factory, romPath, cfg, opts)
}

// sessionOptions translates CLI flags and persisted config into host
// options. Each ROM gets its own save directory keyed by file name.
func sessionOptions(regionStr string, cfg *storage.Config, romPath string) (host.Options, error) {
	opts := host.Options{
		SlotCount:       cfg.SaveSlots,
		RewindEnabled:   cfg.Rewind.Enabled,
		RewindBufferMB:  cfg.Rewind.BufferMB,
		RewindFrameStep: cfg.Rewind.FrameStep,
	}

	switch strings.ToLower(regionStr) {
	case "auto":
		opts.AutoRegion = true
	case "ntsc":
		opts.Region = emucore.RegionNTSC
	case "pal":
		opts.Region = emucore.RegionPAL
	default:
		return opts, fmt.Errorf("unknown region %q: use auto, ntsc, or pal", regionStr)
	}

	gameKey := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	saveDir, err := storage.GameSaveDir(gameKey)
	if err != nil {
		return opts, err
	}
	opts.SaveDir = saveDir

	if cfg.AutoSave.Enabled {
		opts.AutoSaveEvery = time.Duration(cfg.AutoSave.EverySeconds) * time.Second
	}

	return opts, nil
}

// pickROM opens a native file dialog filtered to the core's extensions
// plus the archive formats the loader understands.
func pickROM(extensions []string) (string, error) {
	exts := make([]string, 0, len(extensions)+5)
	for _, e := range extensions {
		exts = append(exts, strings.TrimPrefix(e, "."))
	}
	exts = append(exts, "zip", "7z", "rar", "gz", "tgz")

	path, err := dialog.File().
		Title("Select ROM").
		Filter("ROM files", exts...).
		Load()
	if err != nil {
		if err == dialog.ErrCancelled {
			os.Exit(0)
		}
		return "", fmt.Errorf("file dialog: %w", err)
	}
	return path, nil
}
