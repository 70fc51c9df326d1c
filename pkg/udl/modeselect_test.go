package udl

import (
	"bytes"
	"errors"
	"testing"
)

// TestModeChangeFullTrace checks the exact §8 scenario-7 wire trace: one
// bulk write carrying LOCK + six register writes + UNLOCK, then a control
// write of the enable blob, a bulk write of the program blob, and a final
// control write of POSTAMBLE — no other bytes.
func TestModeChangeFullTrace(t *testing.T) {
	d, tr := newTestDevice(t)
	UseDefaultModes(d)

	idx := Lookup(d, 1024, 768, 60, 24)
	if idx == InvalidMode {
		t.Fatal("1024x768@60 not found in catalogue")
	}
	entry := Catalog[idx]

	const base = uint32(1024)
	if err := ModeChange(d, 1024, 768, 60, base); err != nil {
		t.Fatalf("ModeChange: %v", err)
	}
	if d.Mode.Width != 1024 || d.Mode.Height != 768 || d.Mode.Refresh != 60 {
		t.Fatalf("Mode = %+v, want 1024x768@60", d.Mode)
	}

	wantBase8 := base + uint32(2*entry.Width*entry.Height)
	if d.Base8 != wantBase8 {
		t.Fatalf("Base8 = %d, want %d", d.Base8, wantBase8)
	}

	var wantRegs []byte
	wantRegs = append(wantRegs, 0xAF, 0x20, 0xFF, 0x00) // VIDREG_LOCK
	wantRegs = append(wantRegs, 0xAF, 0x20, 0x20, byte(base>>16))
	wantRegs = append(wantRegs, 0xAF, 0x20, 0x21, byte(base>>8))
	wantRegs = append(wantRegs, 0xAF, 0x20, 0x22, byte(base))
	wantRegs = append(wantRegs, 0xAF, 0x20, 0x26, byte(wantBase8>>16))
	wantRegs = append(wantRegs, 0xAF, 0x20, 0x27, byte(wantBase8>>8))
	wantRegs = append(wantRegs, 0xAF, 0x20, 0x28, byte(wantBase8))
	wantRegs = append(wantRegs, 0xAF, 0x20, 0xFF, 0xFF, 0xAF, 0xA0) // VIDREG_UNLOCK

	if len(tr.writes) != 1 {
		t.Fatalf("expected exactly one bulk register-block write, got %d", len(tr.writes))
	}
	if !bytes.Equal(tr.writes[0], wantRegs) {
		t.Fatalf("register block = % X, want % X", tr.writes[0], wantRegs)
	}

	if len(tr.controls) != 2 {
		t.Fatalf("expected enable + postamble control writes, got %d", len(tr.controls))
	}
	if !bytes.Equal(tr.controls[0], entry.Enable) {
		t.Fatalf("first control write = % X, want enable blob % X", tr.controls[0], entry.Enable)
	}
	if !bytes.Equal(tr.controls[1], POSTAMBLE) {
		t.Fatalf("second control write = % X, want POSTAMBLE % X", tr.controls[1], POSTAMBLE)
	}

	if len(tr.bulks) != 1 || !bytes.Equal(tr.bulks[0], entry.Program) {
		t.Fatalf("expected single bulk program write matching the entry's program blob")
	}
}

func TestModeChangeSkipsProgramWhenGeometryUnchanged(t *testing.T) {
	d, tr := newTestDevice(t)
	UseDefaultModes(d)

	if err := ModeChange(d, 1024, 768, 60, 0); err != nil {
		t.Fatalf("first ModeChange: %v", err)
	}
	firstBulkCount := len(tr.bulks)

	if err := ModeChange(d, 1024, 768, 60, 0); err != nil {
		t.Fatalf("second ModeChange: %v", err)
	}
	if len(tr.bulks) != firstBulkCount {
		t.Fatalf("bulk writes grew from %d to %d on an unchanged-geometry reselect", firstBulkCount, len(tr.bulks))
	}
}

func TestModeChangeWarnsInDL120Subset(t *testing.T) {
	d, _ := newTestDevice(t)
	UseDefaultModes(d)

	entry := Catalog[DL120Modes-1]
	err := ModeChange(d, entry.Width, entry.Height, entry.Refresh, 0)
	if !errors.Is(err, WarnDL160Mode) {
		t.Fatalf("ModeChange for a DL120-subset mode = %v, want WarnDL160Mode", err)
	}
}

func TestModeChangeNoWarnOutsideDL120Subset(t *testing.T) {
	d, _ := newTestDevice(t)
	UseDefaultModes(d)

	entry := Catalog[len(Catalog)-1]
	if err := ModeChange(d, entry.Width, entry.Height, entry.Refresh, 0); err != nil {
		t.Fatalf("ModeChange = %v, want nil", err)
	}
}

func TestModeChangeRejectsOddBase(t *testing.T) {
	d, _ := newTestDevice(t)
	UseDefaultModes(d)
	if err := ModeChange(d, 1024, 768, 60, 1025); !errors.Is(err, ErrBadMode) {
		t.Fatalf("ModeChange with odd base = %v, want ErrBadMode", err)
	}
}

func TestModeChangeRejectsUnresolvedMode(t *testing.T) {
	d, _ := newTestDevice(t)
	d.Supported = []int{InvalidMode}
	if err := ModeChange(d, 123, 456, 60, 0); !errors.Is(err, ErrBadMode) {
		t.Fatalf("ModeChange for unresolved mode = %v, want ErrBadMode", err)
	}
}

func TestModeChangeRejectsInsufficientMemory(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDevice("S", AdapterDL165, tr, 128, 4096, Options{})
	UseDefaultModes(d)
	if err := ModeChange(d, 1920, 1080, 60, 0); !errors.Is(err, ErrBadMode) {
		t.Fatalf("ModeChange exceeding device memory = %v, want ErrBadMode", err)
	}
}

func TestModeChangeWrapsFlushFailureAsTransport(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDevice("S", AdapterDL165, tr, 16*1024*1024, 4096, Options{})
	UseDefaultModes(d)
	if err := d.stage([]byte{0xAA}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	tr.failWriteAt = 1
	err := ModeChange(d, 1024, 768, 60, 0)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("ModeChange after a failed pre-flush = %v, want ErrTransport", err)
	}
}
