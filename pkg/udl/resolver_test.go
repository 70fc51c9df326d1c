package udl

import "testing"

func newTestDevice(t *testing.T) (*Device, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	d := NewDevice("TESTSERIAL", AdapterDL165, tr, 16*1024*1024, 4096, Options{})
	return d, tr
}

func TestUseDefaultModes(t *testing.T) {
	d, _ := newTestDevice(t)
	UseDefaultModes(d)
	if len(d.Supported) != len(Catalog) {
		t.Fatalf("got %d supported modes, want %d", len(d.Supported), len(Catalog))
	}
	if d.Native != nil {
		t.Fatalf("Native = %+v, want nil after UseDefaultModes", d.Native)
	}
	for i, idx := range d.Supported {
		if idx != i {
			t.Fatalf("Supported[%d] = %d, want %d (table order)", i, idx, i)
		}
	}
}

func TestLookupExactAndDontCare(t *testing.T) {
	d, _ := newTestDevice(t)
	UseDefaultModes(d)

	if idx := Lookup(d, 1024, 768, 60, 24); idx != 21 {
		t.Errorf("Lookup(1024,768,60,24) = %d, want 21", idx)
	}
	if idx := Lookup(d, 1024, 768, 0, 24); idx != 18 {
		t.Errorf("Lookup(1024,768,0,24) = %d, want 18 (first/highest-refresh hit)", idx)
	}
	if idx := Lookup(d, 1024, 768, 60, 16); idx != InvalidMode {
		t.Errorf("Lookup with bpp=16 = %d, want InvalidMode", idx)
	}
	if idx := Lookup(d, 9999, 9999, 0, 24); idx != InvalidMode {
		t.Errorf("Lookup of nonexistent mode = %d, want InvalidMode", idx)
	}
}

func TestLookupOnlySearchesSupported(t *testing.T) {
	d, _ := newTestDevice(t)
	d.Supported = []int{21} // only 1024x768@60
	if idx := Lookup(d, 1024, 768, 85, 24); idx != InvalidMode {
		t.Errorf("Lookup found a mode not in Supported: %d", idx)
	}
	if idx := Lookup(d, 1024, 768, 60, 24); idx != 21 {
		t.Errorf("Lookup(1024,768,60,24) = %d, want 21", idx)
	}
}

func buildEstablishedEDID(t *testing.T) *EDID {
	t.Helper()
	b := validEDIDBytes(t)
	// timings[0] bit5 = 640x480@60
	b[0x23] = 0x20
	b[0x24] = 0x00
	b[0x25] = 0x00
	fixChecksum(b)
	e, err := ParseEDID(b)
	if err != nil {
		t.Fatalf("ParseEDID: %v", err)
	}
	return e
}

func TestBuildSupportedFromEDIDEstablishedTiming(t *testing.T) {
	d, _ := newTestDevice(t)
	e := buildEstablishedEDID(t)
	BuildSupportedFromEDID(d, e)

	want := lookupCatalog(640, 480, 60, 24)
	found := false
	for _, idx := range d.Supported {
		if idx == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("Supported %v does not contain the 640x480@60 catalogue index %d", d.Supported, want)
	}
}

func TestBuildSupportedFromEDIDDetailedTimingPopulatesNative(t *testing.T) {
	d, _ := newTestDevice(t)
	b := validEDIDBytes(t)
	writeDetailedTiming(b, 0x36, 1280, 1024, 75)
	fixChecksum(b)
	e, err := ParseEDID(b)
	if err != nil {
		t.Fatalf("ParseEDID: %v", err)
	}

	BuildSupportedFromEDID(d, e)
	if d.Native == nil {
		t.Fatal("Native not populated")
	}
	if d.Native.Width != 1280 || d.Native.Height != 1024 {
		t.Fatalf("Native = %+v, want 1280x1024", d.Native)
	}
}
