package udl

import (
	"sync"

	"github.com/charmbracelet/log"
)

// AdapterType enumerates the adapter variants this driver recognises.
// It carries no behaviour of its own; it exists so callers and logs can
// distinguish hardware families without the core needing to special-case
// any of them (mode selection only cares about the catalogue, never the
// adapter type).
type AdapterType int

const (
	AdapterUnknown AdapterType = iota
	AdapterDL120
	AdapterDL160
	AdapterDL165
)

func (t AdapterType) String() string {
	switch t {
	case AdapterDL120:
		return "DL120"
	case AdapterDL160:
		return "DL160"
	case AdapterDL165:
		return "DL165"
	default:
		return "unknown"
	}
}

// Mode is a resolved mode record: geometry plus the adapter-memory base
// address the framebuffer for this mode starts at.
type Mode struct {
	Width, Height int
	BPP           int
	Refresh       int
	Base          uint32
}

// bytesPerPixel returns the wire pixel size for a supported bpp. The
// catalogue and Mode.Base arithmetic both assume 24bpp per spec's
// Non-goals; other values are rejected before this is ever consulted.
func bytesPerPixel(bpp int) int {
	if bpp == 24 {
		return 3
	}
	return 0
}

// Device represents one attached adapter: its identity, its presence
// state in the process-wide Registry, its command buffer, and its
// current/native/supported mode state.
//
// A Device is not safe for concurrent use from multiple goroutines
// except for the list linkage and generation fields, which the Registry
// guards with its own mutex; the claim flag is not synchronised. Per
// spec.md §5, callers must serialise their own calls into a given
// Device.
type Device struct {
	Serial string
	Type   AdapterType

	// list linkage and sweep bookkeeping, owned by the Registry
	prev, next *Device
	generation uint64

	claimed bool

	TimeoutMS uint32
	Transport Transport

	// command buffer cursors; base <= ptr <= end always holds.
	buf       []byte
	base, ptr int
	end       int

	Mode     Mode
	Base8    uint32
	LowBlank bool
	Native   *Mode
	Supported []int

	Memory uint32

	opts  Options
	log   *log.Logger
	stats Stats
}

// StatsSnapshot returns a snapshot of this device's transport counters.
func (d *Device) StatsSnapshot() Snapshot { return d.stats.snapshot() }

// Options are the advisory, driver-wide configuration knobs from spec §6.
type Options struct {
	Verbose        bool
	StrictChecksum bool
}

// NewDevice constructs a Device with a command buffer of bufSize bytes
// and the given resource budget. The device starts unclaimed, with no
// mode selected and an empty supported-modes list (only the InvalidMode
// sentinel); UseDefaultModes or BuildSupportedFromEDID populates it.
func NewDevice(serial string, typ AdapterType, transport Transport, memory uint32, bufSize int, opts Options) *Device {
	lvl := log.WarnLevel
	if opts.Verbose {
		lvl = log.DebugLevel
	}
	logger := log.NewWithOptions(nil, log.Options{ReportTimestamp: true, Level: lvl})

	d := &Device{
		Serial:    serial,
		Type:      typ,
		Transport: transport,
		TimeoutMS: 1000,
		buf:       make([]byte, bufSize),
		end:       bufSize,
		Memory:    memory,
		opts:      opts,
		log:       logger.With("serial", serial),
	}
	d.Supported = []int{InvalidMode}
	return d
}

// Claim sets the exclusive-use flag. It fails if the device is already
// claimed.
func (d *Device) Claim() error {
	if d.claimed {
		d.log.Warn("claim rejected, already held")
		return ErrBadMode
	}
	d.claimed = true
	d.log.Debug("claimed")
	return nil
}

// Release clears the exclusive-use flag. It is idempotent.
func (d *Device) Release() {
	d.claimed = false
	d.log.Debug("released")
}

// Claimed reports whether the device is currently held.
func (d *Device) Claimed() bool { return d.claimed }

// resetBuffer discards any staged, unsent bytes. Called after a
// transport failure so no partial transmission state survives, per §5.
func (d *Device) resetBuffer() {
	d.ptr = d.base
}

// Stats/Snapshot below mirror the teacher's DeviceStats/DeviceStatsSnapshot
// split: an internally-synchronized accumulator plus a plain snapshot
// type safe to copy out to callers.

// Stats holds running counters for a device's transport activity.
type Stats struct {
	mu           sync.RWMutex
	FlushCount   uint64
	BytesWritten uint64
	ErrorCount   uint64
}

// Snapshot is a copy of Stats without its mutex, safe to return by value.
type Snapshot struct {
	FlushCount   uint64
	BytesWritten uint64
	ErrorCount   uint64
}

func (s *Stats) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{FlushCount: s.FlushCount, BytesWritten: s.BytesWritten, ErrorCount: s.ErrorCount}
}

func (s *Stats) recordFlush(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FlushCount++
	s.BytesWritten += uint64(n)
}

func (s *Stats) recordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrorCount++
}
