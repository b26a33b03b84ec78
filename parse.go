// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logsim

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parse parses a circuit definition and builds the network it
// describes. It always returns a network and a diagnostics list; the
// network is only simulable when the list has no errors.
//
// On an error the parser records a diagnostic, skips to the nearest
// stopping symbol (';' within a section, '}' at section level) and
// resumes, so one run reports as many errors as possible. Offending
// devices and connections are discarded; later items are still built.
//
func Parse(src []byte) (*Network, *DiagList) {
	diags := &DiagList{}
	names := NewNames()
	p := &parser{
		s:     NewScanner(src, names, diags),
		net:   newNetwork(names),
		diags: diags,
	}
	p.tok = p.s.Next()
	p.parseNetwork()
	return p.net, diags
}

// ParseFile reads and parses the definition file at path.
//
func ParseFile(path string) (*Network, *DiagList, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read definition file")
	}
	net, diags := Parse(src)
	return net, diags, nil
}

type parser struct {
	s     *Scanner
	net   *Network
	diags *DiagList
	tok   Token

	// skip is set when recovery has already positioned the parser past
	// the symbol the enclosing production would otherwise expect.
	skip bool
}

func (p *parser) next() { p.tok = p.s.Next() }

// report records a diagnostic at tok, then skips to the first token in
// stop (or EOF), leaving the parser positioned at it. With an empty
// stop set, parsing resumes at the current token.
//
func (p *parser) report(kind DiagKind, tok Token, msg string, stop ...TokenKind) {
	p.diags.add(Diagnostic{Kind: kind, Msg: msg, Line: tok.Line, Col: tok.Col}, p.s)
	if len(stop) == 0 {
		return
	}
	for p.tok.Kind != TokEOF {
		for _, k := range stop {
			if p.tok.Kind == k {
				return
			}
		}
		p.next()
	}
}

// network = "CIRCUIT" "{" devices connections monitors "}" "END"
func (p *parser) parseNetwork() {
	if p.tok.Is(KwCircuit) {
		p.next()
	} else {
		p.report(DiagSyntax, p.tok, "expected 'CIRCUIT'", TokLBrace)
	}
	if p.tok.Kind == TokLBrace {
		p.next()
	} else {
		p.report(DiagSyntax, p.tok, "expected '{'")
	}

	p.parseDevices()
	p.parseConnections()
	p.parseMonitors()

	if p.tok.Kind == TokRBrace {
		p.next()
	} else {
		p.report(DiagSyntax, p.tok, "expected '}'")
	}
	if p.tok.Is(KwEnd) {
		p.next()
	} else {
		p.report(DiagSyntax, p.tok, "expected 'END'")
	}
}

// devices = "DEVICES" "{" device { device } "}"
func (p *parser) parseDevices() {
	rightBrace := true
	if p.tok.Is(KwDevices) {
		p.next()
	} else {
		p.report(DiagSyntax, p.tok, "expected 'DEVICES'", TokLBrace)
	}
	if p.tok.Kind == TokLBrace {
		p.next()
	} else {
		p.report(DiagSyntax, p.tok, "expected '{'")
	}

	p.parseDevice()
	for p.tok.Kind != TokRBrace && p.tok.Kind != TokEOF {
		// a CONNECT followed by '{' is the next section: the '}' of
		// this one is missing. Otherwise CONNECT was used as a name.
		if p.tok.Is(KwConnect) {
			if p.s.Peek().Kind == TokLBrace {
				p.report(DiagSyntax, p.tok, "expected '}'")
				p.next()
				p.skip = true
				rightBrace = false
				break
			}
			p.report(DiagSemantic, p.tok, "device names cannot be keywords")
			p.next()
			continue
		}
		p.parseDevice()
	}
	if rightBrace && p.tok.Kind == TokRBrace {
		p.next()
	}
}

// device = name { "," name } "=" devspec ";"
func (p *parser) parseDevice() {
	var names []Token
	ok := p.deviceName(&names)
	for ok && p.tok.Kind == TokComma {
		p.next()
		ok = p.deviceName(&names)
	}
	if ok {
		if p.tok.Kind == TokEquals {
			p.next()
			if kind, arg, specOK := p.parseDevspec(); specOK {
				for _, nt := range names {
					if _, err := p.net.addDevice(nt.Name, kind, arg); err != nil {
						p.report(DiagSemantic, nt, err.Error())
					}
				}
			}
		} else {
			p.report(DiagSyntax, p.tok, "expected '=' or ','", TokSemicolon, TokRBrace)
		}
	}
	if p.tok.Kind == TokSemicolon {
		p.next()
	} else {
		p.report(DiagSyntax, p.tok, "expected ';'")
	}
}

// deviceName consumes one device name and appends its token to names.
//
func (p *parser) deviceName(names *[]Token) bool {
	switch p.tok.Kind {
	case TokName:
		*names = append(*names, p.tok)
		p.next()
		return true
	case TokKeyword:
		p.report(DiagSemantic, p.tok, "device names cannot be keywords", TokSemicolon, TokRBrace)
	default:
		p.report(DiagSyntax, p.tok, "device names must start with a letter and be alphanumeric", TokSemicolon, TokRBrace)
	}
	return false
}

// devspec = "SWITCH" "(" ("0"|"1"|"OFF"|"ON") ")"
//         | "CLOCK" "(" number ")"
//         | ("AND"|"NAND"|"OR"|"NOR") "(" number ")"
//         | "XOR" | "DTYPE" | "NOT"
func (p *parser) parseDevspec() (DeviceKind, int, bool) {
	switch {
	case p.tok.Is(KwSwitch):
		p.next()
		return p.parseSwitchSpec()
	case p.tok.Is(KwClock):
		p.next()
		return p.parseClockSpec()
	case p.tok.Is(KwAnd):
		p.next()
		return p.parseGateSpec(And)
	case p.tok.Is(KwNand):
		p.next()
		return p.parseGateSpec(Nand)
	case p.tok.Is(KwOr):
		p.next()
		return p.parseGateSpec(Or)
	case p.tok.Is(KwNor):
		p.next()
		return p.parseGateSpec(Nor)
	case p.tok.Is(KwXor):
		p.next()
		return p.parseFixedSpec(Xor)
	case p.tok.Is(KwNot):
		p.next()
		return p.parseFixedSpec(Not)
	case p.tok.Is(KwDtype):
		p.next()
		return p.parseFixedSpec(DType)
	}
	p.report(DiagSyntax, p.tok,
		"not a supported device, expected SWITCH, CLOCK, AND, NAND, OR, NOR, XOR, NOT or DTYPE",
		TokSemicolon, TokRBrace)
	return 0, 0, false
}

func (p *parser) parseSwitchSpec() (DeviceKind, int, bool) {
	if p.tok.Kind != TokLParen {
		p.report(DiagSyntax, p.tok, "expected '('", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	p.next()
	var level int
	switch {
	case p.tok.Kind == TokNumber && (p.tok.Num == 0 || p.tok.Num == 1):
		level = p.tok.Num
	case p.tok.Is(KwOn):
		level = 1
	case p.tok.Is(KwOff):
		level = 0
	default:
		p.report(DiagSemantic, p.tok, "expected switch state 0, 1, OFF or ON", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	p.next()
	if p.tok.Kind != TokRParen {
		p.report(DiagSyntax, p.tok, "expected ')'", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	p.next()
	return Switch, level, true
}

func (p *parser) parseClockSpec() (DeviceKind, int, bool) {
	if p.tok.Kind != TokLParen {
		p.report(DiagSyntax, p.tok, "expected '('", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	p.next()
	if p.tok.Kind != TokNumber {
		p.report(DiagSyntax, p.tok,
			"expected the clock period, the number of steps the clock holds each level",
			TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	period := p.tok.Num
	if period < 1 {
		p.report(DiagSemantic, p.tok, "clock period must be at least 1", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	p.next()
	if p.tok.Kind != TokRParen {
		p.report(DiagSyntax, p.tok, "expected ')'", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	p.next()
	return Clock, period, true
}

func (p *parser) parseGateSpec(kind DeviceKind) (DeviceKind, int, bool) {
	if p.tok.Kind != TokLParen {
		p.report(DiagSyntax, p.tok, "expected '('", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	p.next()
	if p.tok.Kind != TokNumber {
		p.report(DiagSyntax, p.tok,
			"expected the number of inputs for the "+kind.String()+" gate",
			TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	arity := p.tok.Num
	if arity < MinArity || arity > MaxArity {
		p.report(DiagSemantic, p.tok, "number of inputs must be between 1 and 16", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	p.next()
	if p.tok.Kind != TokRParen {
		p.report(DiagSyntax, p.tok, "expected ')'", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	p.next()
	return kind, arity, true
}

// parseFixedSpec handles the argument-less device kinds. XOR is fixed
// at two inputs and NOT at one; an input count is rejected.
//
func (p *parser) parseFixedSpec(kind DeviceKind) (DeviceKind, int, bool) {
	if p.tok.Kind == TokLParen {
		p.report(DiagSyntax, p.tok, kind.String()+" takes no input count", TokSemicolon, TokRBrace)
		return 0, 0, false
	}
	return kind, 0, true
}

// connections = "CONNECT" "{" con { con } "}"
func (p *parser) parseConnections() {
	connectTok := p.tok
	rightBrace := true
	if !p.skip {
		if p.tok.Is(KwConnect) {
			p.next()
		} else {
			p.report(DiagSyntax, p.tok, "expected 'CONNECT'", TokLBrace)
		}
	}
	p.skip = false
	if p.tok.Kind == TokLBrace {
		p.next()
	} else {
		p.report(DiagSyntax, p.tok, "expected '{'")
	}

	p.parseCon()
	for p.tok.Kind != TokRBrace && p.tok.Kind != TokEOF {
		if p.tok.Is(KwMonitor) {
			if p.s.Peek().Kind == TokLBrace {
				p.report(DiagSyntax, p.tok, "expected '}'")
				p.next()
				p.skip = true
				rightBrace = false
				break
			}
			p.report(DiagSemantic, p.tok, "device names cannot be keywords")
			p.next()
			continue
		}
		p.parseCon()
	}

	// the unconnected-input sweep is global; it only makes sense when
	// everything parsed cleanly, as earlier errors drop connections.
	if p.diags.ErrorCount() == 0 {
		if unc := p.net.unconnected(); len(unc) > 0 {
			p.report(DiagSemantic, connectTok, "unconnected inputs: "+strings.Join(unc, ", "))
		}
	}

	if rightBrace && p.tok.Kind == TokRBrace {
		p.next()
	}
}

// con = point ">" point { "," point } ";"
func (p *parser) parseCon() {
	var (
		src      PinRef
		resolved bool
	)
	pt, ok := p.parsePoint()
	if ok {
		src, resolved = p.resolveOutput(pt, "the left side of '>'")
		if p.tok.Kind == TokArrow {
			p.next()
			p.parseConTarget(src, resolved)
			for p.tok.Kind == TokComma {
				p.next()
				p.parseConTarget(src, resolved)
			}
			if p.tok.Kind != TokSemicolon {
				if p.tok.Kind == TokRBrace {
					p.report(DiagSyntax, p.tok, "expected ';'")
					p.skip = true
				} else {
					p.report(DiagSyntax, p.tok, "expected '.', ',' or ';'", TokSemicolon, TokRBrace)
				}
			}
		} else {
			p.report(DiagSyntax, p.tok, "expected '>'", TokSemicolon, TokRBrace)
		}
	}
	if !p.skip {
		if p.tok.Kind == TokSemicolon {
			p.next()
		} else {
			p.report(DiagSyntax, p.tok, "expected ';'")
		}
	}
	p.skip = false
}

// parseConTarget parses one right-hand point of a connection and, when
// the source resolved, installs the driver. A failure discards only
// this target.
//
func (p *parser) parseConTarget(src PinRef, resolved bool) {
	pt, ok := p.parsePoint()
	if !ok {
		return
	}
	d := p.net.deviceByHandle(pt.dev.Name)
	if d == nil {
		p.report(DiagSemantic, pt.dev, "unknown device "+pt.dev.Text)
		return
	}
	if !pt.hasPin {
		p.report(DiagSemantic, pt.dev,
			pt.dev.Text+" is an output point, the right side of '>' must be an input pin")
		return
	}
	pin := d.input(pt.pin.Name)
	if pin == nil {
		switch {
		case d.out(pt.pin.Name) != nil:
			p.report(DiagSemantic, pt.pin,
				pt.dev.Text+"."+pt.pin.Text+" is an output pin, the right side of '>' must be an input")
		case len(d.inputs) == 0:
			p.report(DiagSemantic, pt.pin,
				pt.dev.Text+" is a "+d.kind.String()+" and has no input pins")
		default:
			p.report(DiagSemantic, pt.pin,
				"unknown input pin "+pt.pin.Text+" on "+pt.dev.Text+", expected "+p.expectedInputs(d))
		}
		return
	}
	if !resolved {
		return
	}
	if err := p.net.setDriver(d, pt.pin.Name, src); err != nil {
		p.report(DiagSemantic, pt.pin, err.Error())
	}
}

func (p *parser) expectedInputs(d *Device) string {
	if d.kind == DType {
		return "DATA, CLK, SET or CLEAR"
	}
	if d.arity == 1 {
		return "I1"
	}
	return "I1..I" + strconv.Itoa(d.arity)
}

// point = name [ "." name ]
type point struct {
	dev    Token
	pin    Token
	hasPin bool
}

func (p *parser) parsePoint() (point, bool) {
	var pt point
	if !p.pointName(&pt.dev, "device") {
		return pt, false
	}
	if p.tok.Kind == TokDot {
		p.next()
		if !p.pointName(&pt.pin, "pin") {
			return pt, false
		}
		pt.hasPin = true
	}
	return pt, true
}

func (p *parser) pointName(out *Token, what string) bool {
	switch p.tok.Kind {
	case TokName:
		*out = p.tok
		p.next()
		return true
	case TokKeyword:
		p.report(DiagSemantic, p.tok, what+" names cannot be keywords", TokSemicolon, TokRBrace)
	default:
		p.report(DiagSyntax, p.tok, what+" names must start with a letter and be alphanumeric", TokSemicolon, TokRBrace)
	}
	return false
}

// resolveOutput resolves a point to an output pin, reporting semantic
// errors for unknown devices, unknown pins and input pins used where
// what requires an output.
//
func (p *parser) resolveOutput(pt point, what string) (PinRef, bool) {
	d := p.net.deviceByHandle(pt.dev.Name)
	if d == nil {
		p.report(DiagSemantic, pt.dev, "unknown device "+pt.dev.Text)
		return PinRef{}, false
	}
	pin := NoName
	if pt.hasPin {
		pin = pt.pin.Name
	}
	if d.out(pin) != nil {
		return PinRef{Dev: d.id, Pin: pin}, true
	}
	switch {
	case pt.hasPin && d.input(pin) != nil:
		p.report(DiagSemantic, pt.pin,
			pt.dev.Text+"."+pt.pin.Text+" is an input pin, "+what+" must reference an output")
	case !pt.hasPin:
		p.report(DiagSemantic, pt.dev,
			pt.dev.Text+" has no default output, expected Q or QBAR")
	default:
		p.report(DiagSemantic, pt.pin,
			"unknown output pin "+pt.pin.Text+" on "+pt.dev.Text)
	}
	return PinRef{}, false
}

// monitors = "MONITOR" "{" mon { mon } "}"
func (p *parser) parseMonitors() {
	rightBrace := true
	if !p.skip {
		if p.tok.Is(KwMonitor) {
			p.next()
		} else {
			p.report(DiagSyntax, p.tok, "expected 'MONITOR'", TokLBrace)
		}
	}
	p.skip = false
	if p.tok.Kind != TokLBrace {
		p.report(DiagSyntax, p.tok, "expected '{'")
		return
	}
	p.next()
	if p.tok.Kind == TokRBrace {
		p.report(DiagSyntax, p.tok, "at least one monitor point is required")
		p.next()
		return
	}

	p.parseMon()
	for p.tok.Kind != TokRBrace && p.tok.Kind != TokEOF {
		if p.tok.Is(KwEnd) {
			p.report(DiagSyntax, p.tok, "expected '}'")
			rightBrace = false
			break
		}
		p.parseMon()
	}
	if rightBrace && p.tok.Kind == TokRBrace {
		p.next()
	}
}

// mon = point ";"
func (p *parser) parseMon() {
	pt, ok := p.parsePoint()
	if ok {
		if ref, resolved := p.resolveOutput(pt, "a monitor point"); resolved {
			if _, err := p.net.AddMonitor(p.net.Device(ref.Dev), ref.Pin); err != nil {
				p.report(DiagSemantic, pt.dev, err.Error())
			}
		}
	}
	if p.tok.Kind == TokSemicolon {
		p.next()
	} else {
		p.report(DiagSyntax, p.tok, "expected ';'")
	}
}
