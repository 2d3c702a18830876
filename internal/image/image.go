// internal/image/image.go
package image

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// WordSize is the coprocessor's native word size in bytes.
const WordSize = 4

//go:embed ulp_main.bin
var ulpMain []byte

// defaultEntry is the entry offset (in words) of the embedded image.
// Set at link time from the image's entry symbol:
//
//	go build -ldflags "-X github.com/tamzrod/ulp-supervisor/internal/image.defaultEntry=$(ENTRY)"
var defaultEntry = "0"

// Image is an immutable program image for the coprocessor.
// Bytes must not be modified after construction.
type Image struct {
	Source string
	Bytes  []byte
	Entry  uint32 // in words, relative to the start of control memory
}

// Default returns the image embedded in the executable.
func Default() (*Image, error) {
	entry, err := strconv.ParseUint(defaultEntry, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("image: bad build-time entry %q: %w", defaultEntry, err)
	}
	return &Image{
		Source: "embedded",
		Bytes:  ulpMain,
		Entry:  uint32(entry),
	}, nil
}

// FromFile reads an image from disk.
// entry overrides the build-time entry offset when non-nil.
func FromFile(path string, entry *uint32) (*Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("image: read %s: %w", path, err)
	}
	img := &Image{Source: path, Bytes: b}
	if entry != nil {
		img.Entry = *entry
	}
	return img, nil
}

// Select picks the file image when path is set, otherwise the embedded one.
func Select(path string, entry *uint32) (*Image, error) {
	if path != "" {
		return FromFile(path, entry)
	}
	img, err := Default()
	if err != nil {
		return nil, err
	}
	if entry != nil {
		img.Entry = *entry
	}
	return img, nil
}

// WordCount is len(Bytes) / WordSize. Trailing partial words are not counted.
func (img *Image) WordCount() int {
	return len(img.Bytes) / WordSize
}

// ---- binary header ----

// Magic is "ulp\0" read as a little-endian uint32.
const Magic uint32 = 0x00706c75

// HeaderSize is the encoded size of Header.
const HeaderSize = 12

var (
	ErrShort    = errors.New("image: shorter than header")
	ErrBadMagic = errors.New("image: bad magic")
)

// Header is the toolchain header at the start of a coprocessor binary.
//
//	magic(4) text_offset(2) text_size(2) data_size(2) bss_size(2)
//
// All fields little-endian.
type Header struct {
	Magic      uint32
	TextOffset uint16
	TextSize   uint16
	DataSize   uint16
	BSSSize    uint16
}

// ParseHeader decodes the header. No size validation beyond the header itself.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShort
	}
	h := Header{
		Magic:      binary.LittleEndian.Uint32(b[0:4]),
		TextOffset: binary.LittleEndian.Uint16(b[4:6]),
		TextSize:   binary.LittleEndian.Uint16(b[6:8]),
		DataSize:   binary.LittleEndian.Uint16(b[8:10]),
		BSSSize:    binary.LittleEndian.Uint16(b[10:12]),
	}
	if h.Magic != Magic {
		return h, ErrBadMagic
	}
	return h, nil
}

// LoadSize is the number of bytes copied into control memory (text + data).
func (h Header) LoadSize() int {
	return int(h.TextSize) + int(h.DataSize)
}

// Footprint is the number of control memory bytes used, bss included.
func (h Header) Footprint() int {
	return h.LoadSize() + int(h.BSSSize)
}
