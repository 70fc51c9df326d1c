package udl

import "sync"

// Registry tracks the set of attached devices. Instead of the
// process-wide, toggle-based presence flag an earlier design used, it
// reconciles attach/detach with a generation counter per sweep: every
// enumeration sweep bumps the generation, touches every device it finds,
// then evicts anything left on an older generation (spec.md §9's design
// note).
type Registry struct {
	mu         sync.Mutex
	head, tail *Device
	bySerial   map[string]*Device
	generation uint64
}

// NewRegistry returns an empty Registry ready for use.
func NewRegistry() *Registry {
	return &Registry{bySerial: make(map[string]*Device)}
}

// BeginSweep starts a new enumeration pass and returns the generation
// token callers must pass to Touch and EndSweep.
func (r *Registry) BeginSweep() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	return r.generation
}

// Touch records that the device with the given serial was seen during
// the sweep identified by gen. If no such device is registered yet,
// construct is called to build one and it is inserted at the tail of the
// list. Touch reports the resolved device and whether it was newly
// inserted.
func (r *Registry) Touch(serial string, gen uint64, construct func() *Device) (dev *Device, inserted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.bySerial[serial]; ok {
		d.generation = gen
		return d, false
	}

	d := construct()
	d.generation = gen
	r.bySerial[serial] = d

	if r.tail == nil {
		r.head, r.tail = d, d
	} else {
		d.prev = r.tail
		r.tail.next = d
		r.tail = d
	}
	return d, true
}

// EndSweep removes every device whose generation is older than gen —
// i.e. every device Touch was not called for during this sweep — and
// returns the removed devices so the caller can release their
// transports. Devices still claimed are removed from the registry
// regardless; callers are responsible for checking Claimed on each
// removed device and handling that however the surrounding application
// wants.
func (r *Registry) EndSweep(gen uint64) []*Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*Device
	for d := r.head; d != nil; {
		next := d.next
		if d.generation != gen {
			r.unlink(d)
			delete(r.bySerial, d.Serial)
			removed = append(removed, d)
		}
		d = next
	}
	return removed
}

func (r *Registry) unlink(d *Device) {
	if d.prev != nil {
		d.prev.next = d.next
	} else {
		r.head = d.next
	}
	if d.next != nil {
		d.next.prev = d.prev
	} else {
		r.tail = d.prev
	}
	d.prev, d.next = nil, nil
}

// Lookup returns the device registered under serial, if any.
func (r *Registry) Lookup(serial string) (*Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.bySerial[serial]
	return d, ok
}

// Devices returns a snapshot slice of every currently registered device,
// in insertion order.
func (r *Registry) Devices() []*Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Device, 0, len(r.bySerial))
	for d := r.head; d != nil; d = d.next {
		out = append(out, d)
	}
	return out
}

// Len reports the number of registered devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySerial)
}
