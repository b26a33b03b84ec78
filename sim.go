// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logsim

import "fmt"

// An OscillationError is returned by Step when the network fails to
// reach a fixed point within the pass bound, i.e. a combinational loop
// with no D-type breaking it. Monitor traces are left unchanged at the
// failing step index.
//
type OscillationError struct {
	Step   int    // 1-based index of the failing step
	Device string // a device that had not settled
}

func (e *OscillationError) Error() string {
	return fmt.Sprintf("network did not stabilize at step %d (device %s oscillating)", e.Step, e.Device)
}

// Steps returns the number of completed steps since the last Reset.
//
func (n *Network) Steps() int { return n.steps }

// Step advances the network by one abstract cycle: advance clocks,
// propagate signals in waves until stable, demote transient edge
// values, then append one sample to every monitor trace.
//
// Device evaluation order within a wave is unobservable: waves repeat
// until a fixed point, so two runs with identical inputs produce
// identical traces.
//
func (n *Network) Step() error {
	step := n.steps + 1

	// advance clocks: a clock holds each level for period steps, then
	// toggles with a one-cycle Rising or Falling edge.
	for _, d := range n.devices {
		switch d.kind {
		case Clock:
			if d.counter == d.period {
				if d.outputs[0].sig.Level() == Low {
					d.outputs[0].sig = Rising
				} else {
					d.outputs[0].sig = Falling
				}
				d.counter = 0
			}
			d.counter++
		case Switch:
			d.outputs[0].sig = d.level
		}
	}

	// propagate until stable. A device with an undefined or unconnected
	// input counts as unsettled: without this an undriven loop would
	// sit at Undefined forever instead of being reported.
	var (
		buf      [MaxArity]Signal
		unstable *Device
		stable   bool
	)
	for pass := 0; pass <= len(n.devices); pass++ {
		stable = true
		unstable = nil
		for _, d := range n.devices {
			if d.kind == Switch || d.kind == Clock {
				continue
			}
			in := buf[:len(d.inputs)]
			undef := false
			for i := range d.inputs {
				p := &d.inputs[i]
				if !p.wired {
					undef = true
					continue
				}
				in[i] = n.SignalAt(p.driver)
				if !in[i].defined() {
					undef = true
				}
			}
			if undef {
				stable = false
				if unstable == nil {
					unstable = d
				}
				continue
			}
			if n.evalDevice(d, in) {
				stable = false
				unstable = d
			}
		}
		if stable {
			break
		}
	}
	if !stable {
		name := "?"
		if unstable != nil {
			name = n.names.String(unstable.name)
		}
		return &OscillationError{Step: step, Device: name}
	}

	// demote transients so edges last exactly one cycle
	for _, d := range n.devices {
		for i := range d.outputs {
			d.outputs[i].sig = d.outputs[i].sig.Level()
		}
	}

	// sample monitors
	for _, m := range n.monitors {
		m.trace = append(m.trace, n.SignalAt(m.ref))
	}
	n.steps = step
	return nil
}

// evalDevice recomputes the outputs of a gate or D-type from the input
// signals in and reports whether any output changed.
//
func (n *Network) evalDevice(d *Device, in []Signal) bool {
	if d.kind == DType {
		// inputs are DATA, CLK, SET, CLEAR in declaration order.
		q := d.outputs[0].sig.Level()
		if in[1] == Rising {
			q = in[0].Level()
		}
		if in[2].Level() == High {
			q = High
		}
		if in[3].Level() == High { // CLEAR wins over SET
			q = Low
		}
		changed := d.outputs[0].sig != q || d.outputs[1].sig != q.invert()
		d.outputs[0].sig = q
		d.outputs[1].sig = q.invert()
		return changed
	}
	for i := range in {
		in[i] = in[i].Level()
	}
	out := evalGate(d.kind, in)
	if out == d.outputs[0].sig {
		return false
	}
	d.outputs[0].sig = out
	return true
}
