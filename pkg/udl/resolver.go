package udl

// modeMatches reports whether a catalogue entry satisfies a query where
// zero means "don't care" for width, height and refresh. bpp is never
// "don't care": the catalogue is 24bpp-only and callers reject any other
// bpp before this is reached.
func modeMatches(e CatalogEntry, w, h, refresh, bpp int) bool {
	if e.BPP != bpp {
		return false
	}
	if w != 0 && e.Width != w {
		return false
	}
	if h != 0 && e.Height != h {
		return false
	}
	if refresh != 0 && e.Refresh != refresh {
		return false
	}
	return true
}

// lookupCatalog scans the full static catalogue in table order and
// returns the index of the first entry matching the query, or
// InvalidMode. This is what populates a device's Supported list; Lookup
// below instead searches what's already been populated.
func lookupCatalog(w, h, refresh, bpp int) int {
	for i, e := range Catalog {
		if modeMatches(e, w, h, refresh, bpp) {
			return i
		}
	}
	return InvalidMode
}

// Lookup searches dev's already-resolved Supported list (not the whole
// catalogue) for the first entry matching the query, honouring "0 = don't
// care" for width, height and refresh. bpp must be exactly 24; any other
// value returns InvalidMode immediately, per spec's 24bpp-only Non-goal.
// Lookup is monotone: it never mutates dev.
func Lookup(dev *Device, w, h, refresh, bpp int) int {
	if bpp != 24 {
		return InvalidMode
	}
	for _, idx := range dev.Supported {
		if idx == InvalidMode || idx < 0 || idx >= len(Catalog) {
			continue
		}
		if modeMatches(Catalog[idx], w, h, refresh, bpp) {
			return idx
		}
	}
	return InvalidMode
}

// UseDefaultModes resets dev.Supported to every catalogue entry, in
// table order, and clears dev.Native. It's the fallback a caller uses
// when no EDID is available (spec §4.4).
func UseDefaultModes(dev *Device) {
	supported := make([]int, len(Catalog))
	for i := range Catalog {
		supported[i] = i
	}
	dev.Supported = supported
	dev.Native = nil
}

// BuildSupportedFromEDID derives dev.Supported and dev.Native from a
// parsed EDID, per spec §4.4:
//
//   - Clears dev.Native.
//   - Walks the 24-bit established-timings field; for each set bit whose
//     table entry names a mode, appends the catalogue index (if the
//     catalogue has that mode) to dev.Supported.
//   - For each of the 4 detailed-timing descriptors, tries every refresh
//     rate in [50,100) against the descriptor's (width,height) until one
//     yields a catalogue hit, appending that index; the first descriptor
//     to yield a hit also populates dev.Native.
//
// Duplicates are allowed: this only dedupes by catalogue index never
// being inserted twice from the same bit/descriptor, not across the two
// sources.
func BuildSupportedFromEDID(dev *Device, e *EDID) {
	dev.Native = nil
	dev.Supported = dev.Supported[:0]

	for bit := 0; bit < 24; bit++ {
		if e.EstablishedTimings&(1<<uint(bit)) == 0 {
			continue
		}
		t := establishedTimingsTable[bit]
		if t.Width == 0 {
			continue
		}
		if idx := lookupCatalog(t.Width, t.Height, t.Refresh, 24); idx != InvalidMode {
			dev.Supported = append(dev.Supported, idx)
		}
	}

	for _, d := range e.Detailed {
		if d.Kind != DescriptorDetailedTiming || d.Width == 0 || d.Height == 0 {
			continue
		}
		for hz := 50; hz < 100; hz++ {
			idx := lookupCatalog(d.Width, d.Height, hz, 24)
			if idx == InvalidMode {
				continue
			}
			dev.Supported = append(dev.Supported, idx)
			if dev.Native == nil {
				m := Catalog[idx]
				dev.Native = &Mode{Width: m.Width, Height: m.Height, BPP: m.BPP, Refresh: m.Refresh}
			}
			break
		}
	}

	if len(dev.Supported) == 0 {
		dev.Supported = []int{InvalidMode}
	}
}
