package udl

import "fmt"

const edidSize = 128

var edidHeader = [8]byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// EDID is the parsed subset of a 128-byte Extended Display Identification
// Data block this driver needs to pick a native mode and a supported-mode
// list. Fields the protocol never consults (manufacturer name, serial
// string descriptors, audio/video extension blocks) are intentionally not
// modelled — see SPEC_FULL.md's Non-goals.
type EDID struct {
	ManufacturerID [2]byte
	ProductCode    uint16
	SerialNumber   uint32
	WeekOfManufacture byte
	YearOfManufacture int

	Version, Revision byte

	Gamma float64

	// Chromaticity, expanded from the packed 10-bit VESA encoding to
	// fractions in [0,1).
	RedX, RedY     float64
	GreenX, GreenY float64
	BlueX, BlueY   float64
	WhiteX, WhiteY float64

	// EstablishedTimings holds the 24-bit established-timings bitfield:
	// timings[0] (byte 0x23), timings[1] (byte 0x24) then the
	// manufacturer reserved byte (0x25), packed LSB-first so bit 0 of
	// the field is bit 0 of timings[0].
	EstablishedTimings uint32

	StandardTimings [8]StandardTiming

	Detailed [4]Descriptor

	Extensions int
}

// StandardTiming is one of the 8 two-byte standard-timing entries. A zero
// value (both bytes 0x01) means "unused".
type StandardTiming struct {
	Width   int
	Refresh int
	Valid   bool
}

// DescriptorKind distinguishes a detailed timing descriptor from a
// monitor (display) descriptor sharing the same 18-byte slot.
type DescriptorKind int

const (
	DescriptorEmpty DescriptorKind = iota
	DescriptorDetailedTiming
	DescriptorMonitor
)

// Descriptor is one of the four 18-byte descriptor blocks. For
// DescriptorDetailedTiming, Width/Height/Refresh are populated. For
// DescriptorMonitor, only Tag is meaningful.
type Descriptor struct {
	Kind    DescriptorKind
	Width   int
	Height  int
	Refresh int
	Tag     byte
}

// establishedTimingsTable maps each of the 24 established-timing bit
// positions (0 = LSB of timings[0]) to the mode it asserts support for.
// A zero Width means "no mode defined for this bit" (bits 0-6 of the
// manufacturer reserved byte 0x25). Bit 7 of that byte (index 23) is
// Apple's 1152x870@75; no catalogue entry exists for it, so it never adds
// a supported mode.
var establishedTimingsTable = [24]struct {
	Width, Height, Refresh int
}{
	// timings[0], byte 0x23, bit0=LSB
	0: {800, 600, 60},
	1: {800, 600, 56},
	2: {640, 480, 75},
	3: {640, 480, 72},
	4: {640, 480, 67},
	5: {640, 480, 60},
	6: {720, 400, 88},
	7: {720, 400, 70},
	// timings[1], byte 0x24
	8:  {1280, 1024, 75},
	9:  {1024, 768, 75},
	10: {1024, 768, 70},
	11: {1024, 768, 60},
	12: {1024, 768, 87},
	13: {832, 624, 75},
	14: {800, 600, 75},
	15: {800, 600, 72},
	// reserved byte 0x25, bit 7
	23: {1152, 870, 75},
}

// ParseEDID validates and decodes a 128-byte EDID block per spec §4.3.
// It returns ErrEDIDFail if the block is the wrong length, has a bad
// header, or fails the checksum (always enforced; Options.StrictChecksum
// has no bearing here, and nothing in this package reads it).
func ParseEDID(b []byte) (*EDID, error) {
	if len(b) != edidSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrEDIDFail, edidSize, len(b))
	}
	for i, want := range edidHeader {
		if b[i] != want {
			return nil, fmt.Errorf("%w: bad header at offset %d", ErrEDIDFail, i)
		}
	}
	var sum byte
	for _, c := range b {
		sum += c
	}
	if sum != 0 {
		return nil, fmt.Errorf("%w: checksum byte %d, want 0", ErrEDIDFail, sum)
	}

	e := &EDID{
		ManufacturerID:    [2]byte{b[0x08], b[0x09]},
		ProductCode:       readU16LE(b, 0x0A),
		SerialNumber:      readU32LE(b, 0x0C),
		WeekOfManufacture: b[0x10],
		YearOfManufacture: 1990 + int(b[0x11]),
		Version:           b[0x12],
		Revision:          b[0x13],
		Gamma:             float64(b[0x17])/100.0 + 1.0,
		Extensions:        int(b[0x7E]),
	}

	parseChromaticity(e, b)

	e.EstablishedTimings = uint32(b[0x23]) | uint32(b[0x24])<<8 | uint32(b[0x25])<<16

	for i := 0; i < 8; i++ {
		off := 0x26 + i*2
		e.StandardTimings[i] = parseStandardTiming(b[off], b[off+1])
	}

	for i := 0; i < 4; i++ {
		off := 0x36 + i*18
		e.Detailed[i] = parseDescriptor(b[off : off+18])
	}

	return e, nil
}

// parseChromaticity expands the packed 10-bit red/green/blue/white
// chromaticity coordinates at offsets 0x19-0x22. Each coordinate's two
// low-order bits live in a shared byte at 0x19/0x1A (four coordinates per
// byte); the high 8 bits follow at 0x1B-0x22. The result is transcribed
// faithfully from the VESA layout (this rewrite deliberately does not
// replicate the historical wht_x/wht_y transcription bug some drivers
// carry — see DESIGN.md's Open Question decisions).
func parseChromaticity(e *EDID, b []byte) {
	redGreenLow := b[0x19]
	blueWhiteLow := b[0x1A]

	redXLow := uint16(redGreenLow>>6) & 0x3
	redYLow := uint16(redGreenLow>>4) & 0x3
	greenXLow := uint16(redGreenLow>>2) & 0x3
	greenYLow := uint16(redGreenLow) & 0x3

	blueXLow := uint16(blueWhiteLow>>6) & 0x3
	blueYLow := uint16(blueWhiteLow>>4) & 0x3
	whiteXLow := uint16(blueWhiteLow>>2) & 0x3
	whiteYLow := uint16(blueWhiteLow) & 0x3

	e.RedX = chroma(b[0x1B], redXLow)
	e.RedY = chroma(b[0x1C], redYLow)
	e.GreenX = chroma(b[0x1D], greenXLow)
	e.GreenY = chroma(b[0x1E], greenYLow)
	e.BlueX = chroma(b[0x1F], blueXLow)
	e.BlueY = chroma(b[0x20], blueYLow)
	e.WhiteX = chroma(b[0x21], whiteXLow)
	e.WhiteY = chroma(b[0x22], whiteYLow)
}

func chroma(high byte, low uint16) float64 {
	v := uint16(high)<<2 | low
	return float64(v) / 1024.0
}

func parseStandardTiming(a, b byte) StandardTiming {
	if a == 0x01 && b == 0x01 {
		return StandardTiming{}
	}
	width := (int(a) + 31) * 8
	var refresh int
	switch (b >> 6) & 0x3 {
	case 0:
		refresh = 60 // 16:10, deprecated in 1.4 but still decoded
	case 1:
		refresh = 60 // 4:3
	case 2:
		refresh = 60 // 5:4
	case 3:
		refresh = 60 // 16:9
	}
	refresh += int(b & 0x3F)
	return StandardTiming{Width: width, Refresh: refresh, Valid: true}
}

// parseDescriptor decodes one 18-byte descriptor slot. A slot whose first
// three bytes are all zero is a monitor descriptor, tagged by byte 3;
// every other slot is decoded as a detailed timing descriptor.
func parseDescriptor(b []byte) Descriptor {
	if b[0] == 0 && b[1] == 0 && b[2] == 0 {
		return Descriptor{Kind: DescriptorMonitor, Tag: b[3]}
	}

	pixclkRaw := readU16LE(b, 0)
	pixclkHz := float64(pixclkRaw) * 10000.0

	hActive := int(b[2]) | int(b[4]>>4)<<8
	hBlank := int(b[3]) | int(b[4]&0x0F)<<8
	vActive := int(b[5]) | int(b[7]>>4)<<8
	vBlank := int(b[6]) | int(b[7]&0x0F)<<8

	hTotal := hActive + hBlank
	vTotal := vActive + vBlank

	var refresh int
	if hTotal > 0 && vTotal > 0 {
		refresh = int(pixclkHz/float64(hTotal*vTotal) + 0.5)
	}

	return Descriptor{
		Kind:    DescriptorDetailedTiming,
		Width:   hActive,
		Height:  vActive,
		Refresh: refresh,
	}
}
