package logsim

import "github.com/pkg/errors"

// A Monitor samples one output pin on every simulation step and
// records the values in an append-only trace.
//
type Monitor struct {
	ref   PinRef
	name  string
	trace []Signal
}

// Name returns the monitored point as written in source, device or
// device.pin.
//
func (m *Monitor) Name() string { return m.name }

// Trace returns the recorded samples, one per completed step.
//
func (m *Monitor) Trace() []Signal { return m.trace }

// Waveform renders the trace as one character per step: '_' for Low,
// '-' for High, '?' for Undefined.
//
func (m *Monitor) Waveform() string {
	b := make([]byte, len(m.trace))
	for i, s := range m.trace {
		switch s.Level() {
		case Low:
			b[i] = '_'
		case High:
			b[i] = '-'
		default:
			b[i] = '?'
		}
	}
	return string(b)
}

// Monitors returns the network's monitor points in declaration order.
//
func (n *Network) Monitors() []*Monitor { return n.monitors }

// AddMonitor starts monitoring the output pin named pin (NoName for the
// default output) on device d. Monitors added between steps start
// recording at the next step.
//
func (n *Network) AddMonitor(d *Device, pin Name) (*Monitor, error) {
	if d.out(pin) == nil {
		return nil, errors.Errorf("%s is not an output pin", n.pinName(d, pin))
	}
	for _, m := range n.monitors {
		if m.ref.Dev == d.id && m.ref.Pin == pin {
			return nil, errors.Errorf("%s is already monitored", n.pinName(d, pin))
		}
	}
	m := &Monitor{ref: PinRef{Dev: d.id, Pin: pin}, name: n.pinName(d, pin)}
	n.monitors = append(n.monitors, m)
	return m, nil
}

// RemoveMonitor stops monitoring the given point and discards its
// trace. It reports whether the point was monitored.
//
func (n *Network) RemoveMonitor(d *Device, pin Name) bool {
	for i, m := range n.monitors {
		if m.ref.Dev == d.id && m.ref.Pin == pin {
			n.monitors = append(n.monitors[:i], n.monitors[i+1:]...)
			return true
		}
	}
	return false
}
