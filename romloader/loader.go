// Package romloader reads ROM images from plain files or compressed
// archives. Formats are detected by magic bytes first and file
// extension second; archives are searched for the first entry whose
// name matches one of the caller's ROM extensions.
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxROMSize caps how much data is read from a file or archive entry.
// Sized for dual-screen card images, which dwarf cartridge ROMs.
const MaxROMSize = 256 * 1024 * 1024

var (
	// ErrNoROMFile means an archive contained no entry with a matching
	// ROM extension.
	ErrNoROMFile = errors.New("no ROM file found in archive")

	// ErrUnsupportedFormat means the file is neither a known archive nor
	// a file with a matching ROM extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge means the content exceeds MaxROMSize.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

type format int

const (
	formatUnknown format = iota
	formatRaw
	formatZip
	format7z
	formatGzip
	formatRar
)

var (
	magicZip      = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZipEmpty = []byte{0x50, 0x4B, 0x05, 0x06}
	magic7z       = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip     = []byte{0x1F, 0x8B}
	magicRar      = []byte("Rar!")
)

// Load reads a ROM from path. Archives are unpacked in memory and the
// first entry matching one of the given extensions wins. The returned
// name is the basename of the actual ROM file, which for archives may
// differ from the basename of path.
func Load(path string, extensions []string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open ROM: %w", err)
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("read ROM header: %w", err)
	}

	switch detect(header[:n], path, extensions) {
	case formatRaw:
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, "", fmt.Errorf("seek ROM: %w", err)
		}
		data, err := capRead(f)
		if err != nil {
			return nil, "", fmt.Errorf("read ROM: %w", err)
		}
		return data, filepath.Base(path), nil
	case formatZip:
		return extractZip(path, extensions)
	case format7z:
		return extract7z(path, extensions)
	case formatGzip:
		return extractGzip(path, extensions)
	case formatRar:
		return extractRar(path, extensions)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// detect classifies a file by magic bytes, falling back to its
// extension for archives with unreadable headers, then to the caller's
// ROM extensions for raw files.
func detect(header []byte, path string, extensions []string) format {
	switch {
	case bytes.HasPrefix(header, magicZip), bytes.HasPrefix(header, magicZipEmpty):
		return formatZip
	case bytes.HasPrefix(header, magic7z):
		return format7z
	case bytes.HasPrefix(header, magicRar):
		return formatRar
	case bytes.HasPrefix(header, magicGzip):
		return formatGzip
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return formatZip
	case ".7z":
		return format7z
	case ".rar":
		return formatRar
	case ".gz", ".tgz":
		return formatGzip
	}

	if matchesExt(path, extensions) {
		return formatRaw
	}
	return formatUnknown
}

// matchesExt reports whether name ends in one of the ROM extensions,
// case-insensitively.
func matchesExt(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// capRead reads all of r, failing once MaxROMSize is exceeded.
func capRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxROMSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxROMSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
