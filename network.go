// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// A Network is a verified, simulable circuit: devices and pins in flat
// slices addressed by dense ids, connections as driver references on
// input pins. Topology is immutable after a successful parse; Step
// mutates signals and monitor traces only.
//
type Network struct {
	names    *Names
	devices  []*Device
	byName   map[Name]int
	monitors []*Monitor
	steps    int

	// pre-interned pin name handles
	pinI     [MaxArity]Name
	pinData  Name
	pinClk   Name
	pinSet   Name
	pinClear Name
	pinQ     Name
	pinQbar  Name
}

func newNetwork(names *Names) *Network {
	n := &Network{names: names, byName: make(map[Name]int)}
	for i := 0; i < MaxArity; i++ {
		n.pinI[i] = names.Intern("I" + strconv.Itoa(i+1))
	}
	n.pinData = names.Intern("DATA")
	n.pinClk = names.Intern("CLK")
	n.pinSet = names.Intern("SET")
	n.pinClear = names.Intern("CLEAR")
	n.pinQ = names.Intern("Q")
	n.pinQbar = names.Intern("QBAR")
	return n
}

// Names returns the network's name table.
//
func (n *Network) Names() *Names { return n.names }

// Size returns the device count.
//
func (n *Network) Size() int { return len(n.devices) }

// Device returns the device with the given id.
//
func (n *Network) Device(id int) *Device { return n.devices[id] }

// DeviceByName returns the named device, or nil.
//
func (n *Network) DeviceByName(name string) *Device {
	h := n.names.Lookup(name)
	if h == NoName {
		return nil
	}
	return n.deviceByHandle(h)
}

func (n *Network) deviceByHandle(h Name) *Device {
	if id, ok := n.byName[h]; ok {
		return n.devices[id]
	}
	return nil
}

// addDevice creates a device named h. arg is the switch initial level,
// the clock period or the gate arity, depending on kind; it is ignored
// for XOR, NOT and DTYPE. The caller validates arg ranges beforehand so
// diagnostics point at the offending token; addDevice only rejects
// duplicate names.
//
func (n *Network) addDevice(h Name, kind DeviceKind, arg int) (*Device, error) {
	if _, ok := n.byName[h]; ok {
		return nil, errors.Errorf("device %s is already defined", n.names.String(h))
	}
	d := &Device{id: len(n.devices), name: h, kind: kind}
	switch kind {
	case Switch:
		d.initial = Low
		if arg != 0 {
			d.initial = High
		}
		d.level = d.initial
		d.outputs = []output{{name: NoName, sig: d.initial}}
	case Clock:
		d.period = arg
		d.outputs = []output{{name: NoName, sig: Low}}
	case And, Nand, Or, Nor:
		d.arity = arg
		n.makeGatePins(d)
	case Xor:
		d.arity = 2
		n.makeGatePins(d)
	case Not:
		d.arity = 1
		n.makeGatePins(d)
	case DType:
		d.inputs = []Pin{
			{Name: n.pinData, driver: noDriver},
			{Name: n.pinClk, driver: noDriver},
			{Name: n.pinSet, driver: noDriver},
			{Name: n.pinClear, driver: noDriver},
		}
		d.outputs = []output{
			{name: n.pinQ, sig: Low},
			{name: n.pinQbar, sig: High},
		}
	}
	n.devices = append(n.devices, d)
	n.byName[h] = d.id
	return d, nil
}

func (n *Network) makeGatePins(d *Device) {
	d.inputs = make([]Pin, d.arity)
	for i := 0; i < d.arity; i++ {
		d.inputs[i] = Pin{Name: n.pinI[i], driver: noDriver}
	}
	d.outputs = []output{{name: NoName, sig: Undefined}}
}

// setDriver connects output src to the input pin of dst named pin.
// The endpoints must already be resolved; it fails only when the input
// pin is driven twice.
//
func (n *Network) setDriver(dst *Device, pin Name, src PinRef) error {
	p := dst.input(pin)
	if p == nil {
		panic("setDriver: unresolved input pin")
	}
	if p.wired {
		return errors.Errorf("input %s already has a driver", n.pinName(dst, pin))
	}
	p.driver = src
	p.wired = true
	return nil
}

// DriverOf returns the output pin driving the input pin named pin on
// device dst, and whether that pin is connected.
//
func (n *Network) DriverOf(dst *Device, pin Name) (PinRef, bool) {
	if p := dst.input(pin); p != nil {
		return p.Driver()
	}
	return noDriver, false
}

// SignalAt returns the current signal of an output pin.
//
func (n *Network) SignalAt(ref PinRef) Signal {
	o := n.devices[ref.Dev].out(ref.Pin)
	if o == nil {
		panic("SignalAt: no such output pin")
	}
	return o.sig
}

func (n *Network) setSignal(ref PinRef, s Signal) {
	n.devices[ref.Dev].out(ref.Pin).sig = s
}

// unconnected returns the names of all input pins left without a
// driver, in device order.
//
func (n *Network) unconnected() []string {
	var out []string
	for _, d := range n.devices {
		for i := range d.inputs {
			if !d.inputs[i].wired {
				out = append(out, n.pinName(d, d.inputs[i].Name))
			}
		}
	}
	return out
}

// pinName renders a device.pin pair for messages; a NoName pin is the
// default output and renders as the bare device name.
//
func (n *Network) pinName(d *Device, pin Name) string {
	if pin == NoName {
		return n.names.String(d.name)
	}
	return n.names.String(d.name) + "." + n.names.String(pin)
}

// SetSwitch sets the level of the named switch to 0 or 1. It is the
// mutation front-ends use between steps.
//
func (n *Network) SetSwitch(name string, level int) error {
	d := n.DeviceByName(name)
	if d == nil {
		return errors.Errorf("unknown device %s", name)
	}
	if d.kind != Switch {
		return errors.Errorf("device %s is a %s, not a switch", name, d.kind)
	}
	switch level {
	case 0:
		d.level = Low
	case 1:
		d.level = High
	default:
		return errors.Errorf("invalid switch level %d", level)
	}
	return nil
}

// Reset restores the initial state of every device and clears all
// monitor traces. Running the same switch settings and steps after a
// Reset reproduces identical traces.
//
func (n *Network) Reset() {
	for _, d := range n.devices {
		switch d.kind {
		case Switch:
			d.level = d.initial
			d.outputs[0].sig = d.initial
		case Clock:
			d.counter = 0
			d.outputs[0].sig = Low
		case DType:
			d.outputs[0].sig = Low
			d.outputs[1].sig = High
		default:
			d.outputs[0].sig = Undefined
		}
	}
	for _, m := range n.monitors {
		m.trace = m.trace[:0]
	}
	n.steps = 0
}
