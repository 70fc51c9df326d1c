package udl

import "errors"

// fakeTransport records every call made to it and can be told to fail
// on a particular call index, for exercising Flush/ModeChange error
// paths without real hardware.
type fakeTransport struct {
	writes   [][]byte
	controls [][]byte
	bulks    [][]byte

	failWriteAt   int
	failControlAt int
	failBulkAt    int
}

var errTransportFailure = errors.New("fake transport failure")

func (f *fakeTransport) Write(data []byte, _ uint32) error {
	idx := len(f.writes)
	f.writes = append(f.writes, append([]byte(nil), data...))
	if f.failWriteAt > 0 && idx+1 == f.failWriteAt {
		return errTransportFailure
	}
	return nil
}

func (f *fakeTransport) Control(data []byte, _ uint32) error {
	idx := len(f.controls)
	f.controls = append(f.controls, append([]byte(nil), data...))
	if f.failControlAt > 0 && idx+1 == f.failControlAt {
		return errTransportFailure
	}
	return nil
}

func (f *fakeTransport) BulkWrite(data []byte, _ uint32) error {
	idx := len(f.bulks)
	f.bulks = append(f.bulks, append([]byte(nil), data...))
	if f.failBulkAt > 0 && idx+1 == f.failBulkAt {
		return errTransportFailure
	}
	return nil
}
