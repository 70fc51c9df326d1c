package udl

import "errors"

// Error codes surfaced by the driver. BufFull, BadMode and EDIDFail are
// pure input/capacity errors and never change device state. Transport is
// what a flush failure inside ModeChange reports (spec's historical
// behaviour of reusing InvalidMode for that case is deliberately not
// replicated, per the rewrite's redesign note).
var (
	// ErrBufFull is returned by stage/stageVReg when the command buffer
	// has fewer free bytes than requested. The buffer is left untouched.
	ErrBufFull = errors.New("udl: command buffer full")

	// ErrBadMode is returned when a requested mode cannot be resolved
	// against the catalogue, or when its base address is odd.
	ErrBadMode = errors.New("udl: unsupported or invalid mode")

	// ErrEDIDFail is returned by ParseEDID on a bad header or checksum.
	ErrEDIDFail = errors.New("udl: EDID header or checksum invalid")

	// ErrInvalidMode is the error counterpart of the protocol sentinel
	// InvalidMode. No function in this package returns it: ModeChange
	// reports an unresolved mode as ErrBadMode and a transport failure as
	// ErrTransport.
	ErrInvalidMode = errors.New("udl: invalid mode index")

	// ErrTransport wraps a failure from the Transport during ModeChange.
	ErrTransport = errors.New("udl: transport error during mode change")

	// WarnDL160Mode is a non-nil, non-fatal return from ModeChange: the
	// selected mode belongs to the restricted low-index subset of the
	// catalogue. Callers that only check err != nil for failure must
	// special-case this with errors.Is before treating it as fatal.
	WarnDL160Mode = errors.New("udl: mode belongs to restricted DL160 subset")
)

// InvalidMode is the sentinel catalogue index distinct from every valid
// entry, used both as an error return and as a terminator in a device's
// supported-modes list.
const InvalidMode = -1

// DL120Modes is the count of catalogue indices, from the front of the
// table, that belong to the restricted subset ModeChange warns about.
const DL120Modes = 16
