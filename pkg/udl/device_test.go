package udl

import (
	"errors"
	"testing"
)

func TestClaimRelease(t *testing.T) {
	d, _ := newTestDevice(t)
	if d.Claimed() {
		t.Fatal("new device should be unclaimed")
	}
	if err := d.Claim(); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := d.Claim(); !errors.Is(err, ErrBadMode) {
		t.Fatalf("second Claim() = %v, want ErrBadMode", err)
	}
	d.Release()
	if d.Claimed() {
		t.Fatal("still claimed after Release")
	}
	if err := d.Claim(); err != nil {
		t.Fatalf("Claim after Release: %v", err)
	}
}

func TestStageAndFlush(t *testing.T) {
	d, tr := newTestDevice(t)
	if err := d.stage([]byte{1, 2, 3}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := d.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(tr.writes) != 1 || len(tr.writes[0]) != 3 {
		t.Fatalf("writes = %v, want one 3-byte write", tr.writes)
	}
	snap := d.StatsSnapshot()
	if snap.FlushCount != 1 || snap.BytesWritten != 3 {
		t.Fatalf("stats = %+v, want FlushCount=1 BytesWritten=3", snap)
	}
}

func TestStageOverflow(t *testing.T) {
	d := NewDevice("S", AdapterDL120, &fakeTransport{}, 1024, 4, Options{})
	if err := d.stage([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("stage to exact capacity: %v", err)
	}
	if err := d.stage([]byte{5}); !errors.Is(err, ErrBufFull) {
		t.Fatalf("overflowing stage = %v, want ErrBufFull", err)
	}
}

func TestFlushNoOp(t *testing.T) {
	d, tr := newTestDevice(t)
	if err := d.Flush(); err != nil {
		t.Fatalf("Flush with nothing staged: %v", err)
	}
	if len(tr.writes) != 0 {
		t.Fatalf("expected no transport write, got %v", tr.writes)
	}
}

func TestFlushResetsBufferOnTransportError(t *testing.T) {
	tr := &fakeTransport{failWriteAt: 1}
	d := NewDevice("S", AdapterDL120, tr, 1024, 16, Options{})
	if err := d.stage([]byte{1, 2}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := d.Flush(); !errors.Is(err, errTransportFailure) {
		t.Fatalf("Flush = %v, want errTransportFailure", err)
	}
	if err := d.stage(make([]byte, 16)); err != nil {
		t.Fatalf("buffer should be reset after failed flush: %v", err)
	}
	snap := d.StatsSnapshot()
	if snap.ErrorCount != 1 {
		t.Fatalf("ErrorCount = %d, want 1", snap.ErrorCount)
	}
}
