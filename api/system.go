package emucore

// Button bit positions shared by all cores. The d-pad always occupies
// bits 0-3; system-specific buttons follow. The layout mirrors the
// console's own key register order so cores can pass the mask through.
const (
	ButtonUp = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB
	ButtonX
	ButtonY
	ButtonL
	ButtonR
	ButtonStart
	ButtonSelect

	// ButtonCount is the number of defined logical buttons.
	ButtonCount
)

// Button describes a system-specific button with its display name and
// bit position in the input bitmask.
type Button struct {
	Name       string
	ID         int    // Bit position in the uint32 bitmask
	DefaultKey string // Default keyboard key for the reference player
}

// SystemInfo describes a core to the host and its consumers.
type SystemInfo struct {
	Name            string
	Extensions      []string // ROM file extensions, e.g. ".nes"
	ScreenWidth     int
	MaxScreenHeight int
	AspectRatio     float64
	DualScreen      bool // Stacked two-screen layout with touch on the bottom
	SampleRate      int
	Buttons         []Button
	Players         int
	CoreName        string
	CoreVersion     string
	SerializeSize   int // Expected Serialize output size, 0 if unknown
}

// ScreenBytes returns the size in bytes of one full RGBA frame.
func (si SystemInfo) ScreenBytes() int {
	return si.ScreenWidth * si.MaxScreenHeight * 4
}

// DisplayAspectRatio computes the display aspect ratio for a resolution
// and pixel aspect ratio.
func DisplayAspectRatio(width, height int, par float64) float64 {
	return float64(width) / float64(height) * par
}

// CoreFactory creates emulator instances and provides system metadata.
type CoreFactory interface {
	// SystemInfo returns static metadata about the core's hardware class.
	SystemInfo() SystemInfo

	// CreateEmulator creates a core instance with the given ROM and
	// region. A failure here means the ROM bytes are bad or unsupported.
	CreateEmulator(rom []byte, region Region) (Emulator, error)

	// DetectRegion auto-detects the region from ROM data. The bool
	// reports whether detection succeeded.
	DetectRegion(rom []byte) (Region, bool)
}
