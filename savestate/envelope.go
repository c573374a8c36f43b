// Package savestate manages numbered save-state slots on disk and the
// versioned envelope that wraps a core's opaque state blob. Writes are
// atomic: a crash mid-write never corrupts a previously valid slot.
package savestate

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Envelope layout, little-endian:
//
//	magic    [4]byte "EMST"
//	version  uint16
//	nameLen  uint8, name    [nameLen]byte   (core name)
//	verLen   uint8, coreVer [verLen]byte    (core version tag)
//	payload  uint32 length + bytes
//	crc      uint32 over the payload
const (
	envelopeMagic   = "EMST"
	envelopeVersion = 1
)

var (
	// ErrCorruptState means the blob is truncated, has a bad magic or
	// fails its checksum.
	ErrCorruptState = errors.New("save state is corrupt")

	// ErrVersionMismatch means the blob was produced by an incompatible
	// envelope format or core version.
	ErrVersionMismatch = errors.New("save state version mismatch")
)

// Meta identifies the core a state blob belongs to. A blob is only
// loadable by a core with the same name and version.
type Meta struct {
	CoreName    string
	CoreVersion string
}

// Encode wraps a core state payload in the versioned envelope.
func Encode(meta Meta, payload []byte) []byte {
	var b bytes.Buffer
	b.Grow(len(payload) + len(meta.CoreName) + len(meta.CoreVersion) + 18)

	b.WriteString(envelopeMagic)
	binary.Write(&b, binary.LittleEndian, uint16(envelopeVersion))
	writeString(&b, meta.CoreName)
	writeString(&b, meta.CoreVersion)
	binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
	binary.Write(&b, binary.LittleEndian, crc32.ChecksumIEEE(payload))

	return b.Bytes()
}

// Decode validates an envelope against the expected core identity and
// returns the payload. Every failure mode is distinguishable: corrupt
// data wraps ErrCorruptState and incompatible format or core tags wrap
// ErrVersionMismatch.
func Decode(meta Meta, blob []byte) ([]byte, error) {
	r := bytes.NewReader(blob)

	magic := make([]byte, 4)
	if _, err := r.Read(magic); err != nil || string(magic) != envelopeMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptState)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrCorruptState)
	}
	if version != envelopeVersion {
		return nil, fmt.Errorf("%w: format %d, expected %d", ErrVersionMismatch, version, envelopeVersion)
	}

	coreName, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated core name", ErrCorruptState)
	}
	coreVer, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated core version", ErrCorruptState)
	}
	if coreName != meta.CoreName || coreVer != meta.CoreVersion {
		return nil, fmt.Errorf("%w: state from %s %s, core is %s %s",
			ErrVersionMismatch, coreName, coreVer, meta.CoreName, meta.CoreVersion)
	}

	var payloadLen uint32
	if err := binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
		return nil, fmt.Errorf("%w: truncated payload length", ErrCorruptState)
	}
	if int(payloadLen) > r.Len() {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorruptState)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorruptState)
	}

	var sum uint32
	if err := binary.Read(r, binary.LittleEndian, &sum); err != nil {
		return nil, fmt.Errorf("%w: missing checksum", ErrCorruptState)
	}
	if sum != crc32.ChecksumIEEE(payload) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptState)
	}

	return payload, nil
}

func writeString(b *bytes.Buffer, s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	b.WriteByte(byte(len(s)))
	b.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
