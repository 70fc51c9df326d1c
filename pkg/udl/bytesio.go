package udl

// Byte I/O primitives. All three readers return host-order values from
// little-endian source bytes by explicit byte assembly, never by casting
// through a detected host-endianness magic number (spec §9) — this is
// endian-independent by construction on any host Go runs on.

func readU8(p []byte, off int) uint8 {
	return p[off]
}

func readU16LE(p []byte, off int) uint16 {
	return uint16(p[off]) | uint16(p[off+1])<<8
}

func readU32LE(p []byte, off int) uint32 {
	return uint32(p[off]) | uint32(p[off+1])<<8 | uint32(p[off+2])<<16 | uint32(p[off+3])<<24
}

// stage appends bytes to the device's pending command buffer. It fails
// with ErrBufFull when fewer than len(bytes) bytes are free; on success
// it's all-or-nothing, matching spec §4.1's "no partial writes".
func (d *Device) stage(b []byte) error {
	if d.end-d.ptr < len(b) {
		d.log.Warn("stage overflow", "want", len(b), "free", d.end-d.ptr)
		return ErrBufFull
	}
	copy(d.buf[d.ptr:], b)
	d.ptr += len(b)
	return nil
}

// stageVReg is shorthand for the four-byte register-write command
// 0xAF 0x20 reg val.
func (d *Device) stageVReg(reg, val byte) error {
	return d.stage([]byte{0xAF, 0x20, reg, val})
}

// Flush sends every staged byte to the Transport and resets the cursor
// to base. It is a total barrier: on success, every byte staged since
// the last flush has been delivered. On transport failure the cursor is
// also reset to base, discarding the pending bytes (spec §5: "no partial
// transmission state survives a failure").
func (d *Device) Flush() error {
	if d.ptr == d.base {
		return nil
	}
	pending := d.buf[d.base:d.ptr]
	n := len(pending)
	err := d.Transport.Write(pending, d.TimeoutMS)
	d.resetBuffer()
	if err != nil {
		d.stats.recordError()
		d.log.Error("flush failed", "bytes", n, "err", err)
		return err
	}
	d.stats.recordFlush(n)
	return nil
}
