// Package usbtransport implements udl.Transport over a real USB adapter
// using gousb, and knows how to walk the bus looking for attached
// display adapters.
package usbtransport

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/gousb"

	"udl/pkg/udl"
)

// Well-known vendor/product IDs for the adapter families this driver
// recognises. All three families share one vendor ID and are told apart
// by product ID.
const (
	VendorID = gousb.ID(0x17E9)

	ProductDL120 = gousb.ID(0x0110)
	ProductDL160 = gousb.ID(0x0136)
	ProductDL165 = gousb.ID(0x016F)

	endpointOut = 1
	endpointIn  = 0x81

	claimTimeout = 2 * time.Second
)

// USBTransport is the gousb-backed implementation of udl.Transport.
// Write and BulkWrite both go to the bulk OUT endpoint; Control uses the
// same endpoint since DisplayLink-style adapters multiplex register
// writes and bulk framebuffer data on one pipe rather than a separate
// control endpoint.
type USBTransport struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint

	log *log.Logger
}

// Open claims the given USB device and readies it for command-buffer
// traffic. Callers get the device handle from Enumerate or
// OpenByVIDPID; Open does not itself search the bus.
func Open(ctx *gousb.Context, dev *gousb.Device, logger *log.Logger) (*USBTransport, error) {
	config, err := dev.Config(1)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("usbtransport: set config: %w", err)
	}

	intf, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		dev.Close()
		return nil, fmt.Errorf("usbtransport: claim interface: %w", err)
	}

	epOut, err := intf.OutEndpoint(endpointOut)
	if err != nil {
		intf.Close()
		config.Close()
		dev.Close()
		return nil, fmt.Errorf("usbtransport: open OUT endpoint: %w", err)
	}

	epIn, err := intf.InEndpoint(endpointIn)
	if err != nil {
		intf.Close()
		config.Close()
		dev.Close()
		return nil, fmt.Errorf("usbtransport: open IN endpoint: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}

	return &USBTransport{
		ctx: ctx, dev: dev, config: config, intf: intf,
		epOut: epOut, epIn: epIn,
		log: logger.With("component", "usbtransport"),
	}, nil
}

// OpenByVIDPID opens the first device matching vid/pid on the default
// USB context.
func OpenByVIDPID(vid, pid gousb.ID, logger *log.Logger) (*USBTransport, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: open device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: no device with VID:0x%04x PID:0x%04x", uint16(vid), uint16(pid))
	}
	return Open(ctx, dev, logger)
}

// Close releases the interface, config, device and context in that
// order, tolerating any of them being nil.
func (t *USBTransport) Close() error {
	if t.intf != nil {
		t.intf.Close()
	}
	if t.config != nil {
		t.config.Close()
	}
	if t.dev != nil {
		t.dev.Close()
	}
	if t.ctx != nil {
		t.ctx.Close()
	}
	return nil
}

// Write sends bytes on the bulk OUT endpoint, honouring timeoutMS.
func (t *USBTransport) Write(data []byte, timeoutMS uint32) error {
	return t.write(data, timeoutMS)
}

// Control sends bytes on the same bulk OUT pipe used for general
// command-buffer traffic; see the USBTransport doc comment.
func (t *USBTransport) Control(data []byte, timeoutMS uint32) error {
	return t.write(data, timeoutMS)
}

// BulkWrite sends the opaque mode-program blob.
func (t *USBTransport) BulkWrite(data []byte, timeoutMS uint32) error {
	return t.write(data, timeoutMS)
}

func (t *USBTransport) write(data []byte, timeoutMS uint32) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	n, err := t.epOut.WriteContext(ctx, data)
	if err != nil {
		t.log.Error("usb write failed", "bytes", len(data), "err", err)
		return fmt.Errorf("usbtransport: write: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("usbtransport: short write: wrote %d of %d bytes", n, len(data))
	}
	return nil
}

// ReadEDID issues the vendor-specific bulk read this adapter family
// uses to hand back the attached monitor's raw 128-byte EDID block.
func (t *USBTransport) ReadEDID(timeoutMS uint32) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	buf := make([]byte, 128)
	n, err := t.epIn.ReadContext(ctx, buf)
	if err != nil {
		return nil, fmt.Errorf("usbtransport: read EDID: %w", err)
	}
	if n != 128 {
		return nil, fmt.Errorf("usbtransport: short EDID read: got %d bytes, want 128", n)
	}
	return buf, nil
}

// AdapterTypeFor maps a product ID to the udl.AdapterType this driver
// should treat it as.
func AdapterTypeFor(pid gousb.ID) udl.AdapterType {
	switch pid {
	case ProductDL120:
		return udl.AdapterDL120
	case ProductDL160:
		return udl.AdapterDL160
	case ProductDL165:
		return udl.AdapterDL165
	default:
		return udl.AdapterUnknown
	}
}

// EnumeratedDevice is one bus-walk hit: enough to construct a
// udl.Device and a USBTransport for it without re-walking the bus.
type EnumeratedDevice struct {
	Serial string
	Type   udl.AdapterType
	Dev    *gousb.Device
}

// Enumerate walks the USB bus for every device whose vendor ID matches
// VendorID, grouping the matches the same way a single gousb.Context
// scan naturally would. The caller owns ctx and must close it once done
// with every USBTransport derived from its results.
func Enumerate(ctx *gousb.Context) ([]EnumeratedDevice, error) {
	var found []EnumeratedDevice

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == VendorID
	})
	if err != nil {
		return nil, fmt.Errorf("usbtransport: enumerate: %w", err)
	}

	for _, d := range devs {
		serial, err := d.SerialNumber()
		if err != nil || serial == "" {
			serial = fmt.Sprintf("usb-%s", d.Desc.Path)
		}
		found = append(found, EnumeratedDevice{
			Serial: serial,
			Type:   AdapterTypeFor(d.Desc.Product),
			Dev:    d,
		})
	}
	return found, nil
}
