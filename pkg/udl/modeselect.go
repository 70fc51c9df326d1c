package udl

import "fmt"

// Register addresses used by the base-address lock/unlock framing in
// ModeChange. Like the catalogue blobs, these are fixed protocol
// constants this driver never derives, only emits.
const (
	vidRegLock = 0xFF

	vidRegBaseLo  = 0x20
	vidRegBaseMid = 0x21
	vidRegBaseHi  = 0x22

	vidRegBase8Lo  = 0x26
	vidRegBase8Mid = 0x27
	vidRegBase8Hi  = 0x28

	vidRegLockValue   = 0x00
	vidRegUnlockValue = 0xFF
)

// bytesPer16BPP is the stride, in bytes, of the 16-bpp colour plane per
// pixel — used to derive the 8-bpp fine-detail plane's base offset.
const bytesPer16BPP = 2

// vidRegUnlock is the fixed six-byte unlock trailer staged after the
// base-address register writes: lock-register write followed by the
// POSTAMBLE-shaped confirmation bytes.
var vidRegUnlock = []byte{0xAF, 0x20, 0xFF, 0xFF, 0xAF, 0xA0}

// ModeChange resolves (width, height, refresh) against dev's supported
// modes and, on success, drives the full mode-select sequence described
// in spec §4.5:
//
//  1. Resolve the mode: try an exact (width, height, refresh) match
//     first, falling back to "any refresh" if that fails.
//  2. Reject an odd base address outright.
//  3. Flush any bytes already staged from a previous, uncommitted
//     operation; a failure here is reported as ErrTransport, not
//     ErrInvalidMode.
//  4. Compute base8 = base + 2·width·height and stage the
//     lock/address/unlock register sequence, then flush it.
//  5. If the resolved mode's geometry (width, height, bpp) differs from
//     dev's current mode, send the mode-enable blob (Transport.Control),
//     the mode-program blob (Transport.BulkWrite) and the postamble
//     (Transport.Control) directly, without staging them.
//  6. Update dev.Mode, dev.LowBlank and dev.Base8.
//  7. Flush everything staged in this call. A failure here is also
//     ErrTransport.
//
// On success, ModeChange returns nil, unless the resolved mode lies in
// the restricted low-index subset of the catalogue, in which case it
// returns WarnDL160Mode — a non-nil but non-fatal result callers must
// check for with errors.Is before treating as failure.
func ModeChange(dev *Device, width, height, refresh int, base uint32) error {
	idx := Lookup(dev, width, height, refresh, 24)
	if idx == InvalidMode {
		idx = Lookup(dev, width, height, 0, 24)
	}
	if idx == InvalidMode {
		return ErrBadMode
	}

	if base%2 != 0 {
		return fmt.Errorf("%w: base address %d is odd", ErrBadMode, base)
	}

	entry := Catalog[idx]
	bpp := bytesPerPixel(entry.BPP)
	need := base + uint32(bpp*entry.Width*entry.Height)
	if need > dev.Memory {
		return fmt.Errorf("%w: mode needs %d bytes, device has %d", ErrBadMode, need, dev.Memory)
	}

	if err := dev.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	base8 := base + uint32(bytesPer16BPP*entry.Width*entry.Height)

	if err := dev.stageVReg(vidRegLock, vidRegLockValue); err != nil {
		return err
	}
	if err := dev.stageVReg(vidRegBaseLo, byte(base>>16)); err != nil {
		return err
	}
	if err := dev.stageVReg(vidRegBaseMid, byte(base>>8)); err != nil {
		return err
	}
	if err := dev.stageVReg(vidRegBaseHi, byte(base)); err != nil {
		return err
	}
	if err := dev.stageVReg(vidRegBase8Lo, byte(base8>>16)); err != nil {
		return err
	}
	if err := dev.stageVReg(vidRegBase8Mid, byte(base8>>8)); err != nil {
		return err
	}
	if err := dev.stageVReg(vidRegBase8Hi, byte(base8)); err != nil {
		return err
	}
	if err := dev.stage(vidRegUnlock); err != nil {
		return err
	}
	if err := dev.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	geometryChanged := dev.Mode.Width != entry.Width || dev.Mode.Height != entry.Height || dev.Mode.BPP != entry.BPP
	if geometryChanged {
		if err := dev.Transport.Control(entry.Enable, dev.TimeoutMS); err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
		if err := dev.Transport.BulkWrite(entry.Program, dev.TimeoutMS); err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
		if err := dev.Transport.Control(POSTAMBLE, dev.TimeoutMS); err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	dev.Mode = Mode{Width: entry.Width, Height: entry.Height, BPP: entry.BPP, Refresh: entry.Refresh, Base: base}
	dev.LowBlank = entry.LowBlank
	dev.Base8 = base8

	if err := dev.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	dev.log.Debug("mode changed", "width", entry.Width, "height", entry.Height, "refresh", entry.Refresh, "index", idx)

	if idx < DL120Modes {
		return WarnDL160Mode
	}
	return nil
}
