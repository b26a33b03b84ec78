// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logsim

// A Signal is the value carried by an output pin. Rising and Falling
// are transient one-cycle values emitted by clocks when they toggle;
// D-type flip-flops use them to detect clock edges. They demote to
// High and Low at the end of the step.
//
type Signal uint8

// Signal values.
const (
	Low Signal = iota
	High
	Rising
	Falling
	Undefined
)

var signalStrings = [...]string{
	Low:       "Low",
	High:      "High",
	Rising:    "Rising",
	Falling:   "Falling",
	Undefined: "Undefined",
}

func (s Signal) String() string { return signalStrings[s] }

// Level demotes transient edge values to the level they settle at.
//
func (s Signal) Level() Signal {
	switch s {
	case Rising:
		return High
	case Falling:
		return Low
	}
	return s
}

func (s Signal) defined() bool { return s != Undefined }

func (s Signal) invert() Signal {
	switch s.Level() {
	case Low:
		return High
	case High:
		return Low
	}
	return Undefined
}

// A DeviceKind is the tagged variant of a device. Evaluation dispatches
// on the kind.
//
type DeviceKind uint8

// Device kinds.
const (
	Switch DeviceKind = iota
	Clock
	And
	Nand
	Or
	Nor
	Xor
	Not
	DType
)

var kindStrings = [...]string{
	Switch: "SWITCH",
	Clock:  "CLOCK",
	And:    "AND",
	Nand:   "NAND",
	Or:     "OR",
	Nor:    "NOR",
	Xor:    "XOR",
	Not:    "NOT",
	DType:  "DTYPE",
}

func (k DeviceKind) String() string { return kindStrings[k] }

// Gate arity bounds for AND, NAND, OR and NOR.
const (
	MinArity = 1
	MaxArity = 16
)

// A PinRef names one output pin: a device id and an output name, where
// NoName denotes the device's default (unnamed) output.
//
type PinRef struct {
	Dev int
	Pin Name
}

var noDriver = PinRef{Dev: -1, Pin: NoName}

// A Pin is an input port on a device. After a successful build every
// input pin has exactly one driver.
//
type Pin struct {
	Name   Name
	driver PinRef
	wired  bool
}

// Driver returns the output pin feeding this input, and whether one has
// been connected.
//
func (p *Pin) Driver() (PinRef, bool) { return p.driver, p.wired }

type output struct {
	name Name // NoName for the default output
	sig  Signal
}

// A Device is a named instance of a circuit element. Topology (pins and
// drivers) is fixed once parsing succeeds; only signals mutate during
// simulation.
//
type Device struct {
	id   int
	name Name
	kind DeviceKind

	arity   int    // gates: number of inputs I1..In
	period  int    // clocks: steps per level
	initial Signal // switches: configured initial level

	inputs  []Pin
	outputs []output

	// simulation state
	level   Signal // switches: current level, mutable via SetSwitch
	counter int    // clocks: half-period counter
}

// ID returns the device's dense id within its network.
//
func (d *Device) ID() int { return d.id }

// NameHandle returns the interned handle of the device name.
//
func (d *Device) NameHandle() Name { return d.name }

// Kind returns the device variant.
//
func (d *Device) Kind() DeviceKind { return d.kind }

// Inputs returns the device's input pins in declaration order.
//
func (d *Device) Inputs() []Pin { return d.inputs }

// input returns the input pin named h, or nil.
//
func (d *Device) input(h Name) *Pin {
	for i := range d.inputs {
		if d.inputs[i].Name == h {
			return &d.inputs[i]
		}
	}
	return nil
}

// out returns the output slot named h (NoName for the default output),
// or nil.
//
func (d *Device) out(h Name) *output {
	for i := range d.outputs {
		if d.outputs[i].name == h {
			return &d.outputs[i]
		}
	}
	return nil
}

// evalGate computes a gate output from its input levels. Inputs must
// already be demoted with Level; Undefined propagates according to
// three-valued logic, except for XOR, which only counts High inputs.
// The simulation kernel never evaluates a device with an Undefined input.
//
func evalGate(kind DeviceKind, in []Signal) Signal {
	switch kind {
	case And, Nand:
		out := High
		for _, s := range in {
			if s == Low {
				out = Low
				break
			}
			if s == Undefined {
				out = Undefined
			}
		}
		if kind == Nand {
			return out.invert()
		}
		return out
	case Or, Nor:
		out := Low
		for _, s := range in {
			if s == High {
				out = High
				break
			}
			if s == Undefined {
				out = Undefined
			}
		}
		if kind == Nor {
			return out.invert()
		}
		return out
	case Xor:
		high := 0
		for _, s := range in {
			if s == High {
				high++
			}
		}
		if high == 1 {
			return High
		}
		return Low
	case Not:
		return in[0].invert()
	}
	panic("not a gate: " + kind.String())
}
