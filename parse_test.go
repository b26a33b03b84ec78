package logsim_test

import (
	"strings"
	"testing"

	"github.com/db47h/logsim"
)

const xorSrc = `
CIRCUIT {
	DEVICES {
		A, B = SWITCH(0);
		X = XOR;
	}
	CONNECT {
		A > X.I1;
		B > X.I2;
	}
	MONITOR {
		X;
	}
}
END
`

func parseClean(t *testing.T, src string) *logsim.Network {
	t.Helper()
	net, diags := logsim.Parse([]byte(src))
	if diags.ErrorCount() > 0 {
		var b strings.Builder
		diags.Render(&b)
		t.Fatalf("unexpected diagnostics:\n%s", b.String())
	}
	return net
}

// expectErrors parses src and checks each expected (line, kind, message
// substring) triple against the diagnostics, in order.
func expectErrors(t *testing.T, src string, want []struct {
	line int
	kind logsim.DiagKind
	msg  string
}) *logsim.Network {
	t.Helper()
	net, diags := logsim.Parse([]byte(src))
	ds := diags.Diags()
	if len(ds) != len(want) {
		var b strings.Builder
		diags.Render(&b)
		t.Fatalf("expected %d diagnostics, got %d:\n%s", len(want), len(ds), b.String())
	}
	for i, w := range want {
		if ds[i].Line != w.line {
			t.Errorf("diagnostic %d on line %d, expected line %d (%s)", i, ds[i].Line, w.line, ds[i].Msg)
		}
		if ds[i].Kind != w.kind {
			t.Errorf("diagnostic %d is %v, expected %v (%s)", i, ds[i].Kind, w.kind, ds[i].Msg)
		}
		if !strings.Contains(ds[i].Msg, w.msg) {
			t.Errorf("diagnostic %d = %q, expected it to mention %q", i, ds[i].Msg, w.msg)
		}
	}
	return net
}

type errSpec = struct {
	line int
	kind logsim.DiagKind
	msg  string
}

func TestParseXor(t *testing.T) {
	net := parseClean(t, xorSrc)
	if net.Size() != 3 {
		t.Fatalf("expected 3 devices, got %d", net.Size())
	}
	x := net.DeviceByName("X")
	if x == nil || x.Kind() != logsim.Xor {
		t.Fatal("device X missing or not an XOR")
	}
	i1 := net.Names().Lookup("I1")
	if _, ok := net.DriverOf(x, i1); !ok {
		t.Error("X.I1 has no driver")
	}
	ms := net.Monitors()
	if len(ms) != 1 || ms[0].Name() != "X" {
		t.Fatalf("expected a single monitor on X, got %v", ms)
	}
}

func TestParseSwitchOnOff(t *testing.T) {
	net := parseClean(t, `
CIRCUIT {
	DEVICES { A = SWITCH(ON); B = SWITCH(OFF); N = NOT; }
	CONNECT { A > N.I1; }
	MONITOR { A; B; N; }
}
END
`)
	if net.Size() != 3 {
		t.Fatalf("expected 3 devices, got %d", net.Size())
	}
	if err := net.Step(); err != nil {
		t.Fatal(err)
	}
	tr := map[string]logsim.Signal{}
	for _, m := range net.Monitors() {
		tr[m.Name()] = m.Trace()[0]
	}
	if tr["A"] != logsim.High || tr["B"] != logsim.Low || tr["N"] != logsim.Low {
		t.Errorf("bad initial levels: %v", tr)
	}
}

func TestParseUnknownDevice(t *testing.T) {
	net := expectErrors(t, `
CIRCUIT {
	DEVICES { A, B = SWITCH(0); X = XOR; }
	CONNECT {
		A > X.I1;
		A > FOO.I1;
		B > X.I2;
	}
	MONITOR { X; }
}
END
`, []errSpec{
		{6, logsim.DiagSemantic, "unknown device FOO"},
	})

	// the other connections are still installed
	x := net.DeviceByName("X")
	for _, pin := range []string{"I1", "I2"} {
		if _, ok := net.DriverOf(x, net.Names().Lookup(pin)); !ok {
			t.Errorf("X.%s lost its driver", pin)
		}
	}
}

func TestParseMultipleDrivers(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { A, B = SWITCH(0); G = AND(2); }
	CONNECT {
		A > G.I1, G.I2;
		B > G.I1;
	}
	MONITOR { G; }
}
END
`, []errSpec{
		{6, logsim.DiagSemantic, "G.I1 already has a driver"},
	})
}

func TestParseDuplicateDevice(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES {
		A = SWITCH(0);
		A = SWITCH(1);
		N = NOT;
	}
	CONNECT { A > N.I1; }
	MONITOR { N; }
}
END
`, []errSpec{
		{5, logsim.DiagSemantic, "already defined"},
	})
}

func TestParseKeywordAsName(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES {
		AND = SWITCH(0);
		B = SWITCH(0);
		N = NOT;
	}
	CONNECT { B > N.I1; }
	MONITOR { N; }
}
END
`, []errSpec{
		{4, logsim.DiagSemantic, "cannot be keywords"},
	})
}

func TestParseBadArity(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES {
		A = SWITCH(0);
		G = AND(17);
		H = OR(0);
		N = NOT;
	}
	CONNECT { A > N.I1; }
	MONITOR { N; }
}
END
`, []errSpec{
		{5, logsim.DiagSemantic, "between 1 and 16"},
		{6, logsim.DiagSemantic, "between 1 and 16"},
	})
}

func TestParseClockPeriodZero(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { C = CLOCK(0); N = NOT; A = SWITCH(0); }
	CONNECT { A > N.I1; }
	MONITOR { N; }
}
END
`, []errSpec{
		{3, logsim.DiagSemantic, "at least 1"},
	})
}

func TestParseXorTakesNoArity(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { X = XOR(2); A = SWITCH(0); N = NOT; }
	CONNECT { A > N.I1; }
	MONITOR { N; }
}
END
`, []errSpec{
		{3, logsim.DiagSyntax, "XOR takes no input count"},
	})
}

func TestParseBadSwitchState(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { A = SWITCH(2); B = SWITCH(0); N = NOT; }
	CONNECT { B > N.I1; }
	MONITOR { N; }
}
END
`, []errSpec{
		{3, logsim.DiagSemantic, "0, 1, OFF or ON"},
	})
}

func TestParseUnknownPin(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { A = SWITCH(0); G = AND(2); D = DTYPE; C = CLOCK(1); }
	CONNECT {
		A > G.I1;
		A > G.I3;
		A > D.DATA;
		A > D.SET;
		A > D.CLEAR;
		C > D.CLK;
		A > G.I2;
	}
	MONITOR { G; D.Q; }
}
END
`, []errSpec{
		{6, logsim.DiagSemantic, "unknown input pin I3 on G, expected I1..I2"},
	})
}

func TestParseDirection(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { A, B = SWITCH(0); G = AND(2); }
	CONNECT {
		G.I1 > G.I2;
		A > B;
		A > G.I1;
		B > G.I2;
	}
	MONITOR { G; }
}
END
`, []errSpec{
		{5, logsim.DiagSemantic, "G.I1 is an input pin"},
		{6, logsim.DiagSemantic, "must be an input pin"},
	})
}

func TestParseDTypeHasNoDefaultOutput(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { D = DTYPE; A = SWITCH(0); C = CLOCK(1); }
	CONNECT {
		A > D.DATA; A > D.SET; A > D.CLEAR; C > D.CLK;
	}
	MONITOR { D; }
}
END
`, []errSpec{
		{7, logsim.DiagSemantic, "no default output, expected Q or QBAR"},
	})
}

func TestParseUnconnectedInput(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { A = SWITCH(0); G = AND(2); }
	CONNECT {
		A > G.I1;
	}
	MONITOR { G; }
}
END
`, []errSpec{
		{4, logsim.DiagSemantic, "unconnected inputs: G.I2"},
	})
}

func TestParseMonitorInputPin(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { A, B = SWITCH(0); G = AND(2); }
	CONNECT { A > G.I1; B > G.I2; }
	MONITOR { G.I1; }
}
END
`, []errSpec{
		{5, logsim.DiagSemantic, "G.I1 is an input pin"},
	})
}

func TestParseDuplicateMonitor(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { A, B = SWITCH(0); G = AND(2); }
	CONNECT { A > G.I1; B > G.I2; }
	MONITOR { G; G; }
}
END
`, []errSpec{
		{5, logsim.DiagSemantic, "G is already monitored"},
	})
}

func TestParseEmptyMonitorBlock(t *testing.T) {
	expectErrors(t, `
CIRCUIT {
	DEVICES { A = SWITCH(0); N = NOT; }
	CONNECT { A > N.I1; }
	MONITOR { }
}
END
`, []errSpec{
		{5, logsim.DiagSyntax, "at least one monitor point"},
	})
}

func TestParseMissingMonitorSection(t *testing.T) {
	_, diags := logsim.Parse([]byte(`
CIRCUIT {
	DEVICES { A = SWITCH(0); N = NOT; }
	CONNECT { A > N.I1; }
}
END
`))
	if diags.ErrorCount() == 0 {
		t.Fatal("expected diagnostics for a missing MONITOR section")
	}
}

// TestParseRecovery checks that a broken device definition does not
// take the rest of the file with it: later items are still parsed and
// built, and each error is reported where it occurred.
func TestParseRecovery(t *testing.T) {
	net := expectErrors(t, `
CIRCUIT {
	DEVICES {
		A = SWICH(0);
		B = SWITCH(0);
		G = AND(17);
	}
	CONNECT {
		B > G.I1;
	}
	MONITOR { B; }
}
END
`, []errSpec{
		{4, logsim.DiagSyntax, "not a supported device"},
		{6, logsim.DiagSemantic, "between 1 and 16"},
		{9, logsim.DiagSemantic, "unknown device G"},
	})

	if net.DeviceByName("B") == nil {
		t.Error("device B was not built")
	}
	if net.DeviceByName("A") != nil {
		t.Error("broken device A should have been discarded")
	}
}

// Parse must terminate and return diagnostics on arbitrary garbage.
func TestParseTotality(t *testing.T) {
	for _, src := range []string{
		"",
		"END",
		"CIRCUIT",
		"CIRCUIT { DEVICES {",
		"}}}}}",
		";;;;;",
		"@#$%^&*",
		"CIRCUIT { DEVICES { A = SWITCH(0) } }",
		"CIRCUIT { DEVICES { A = SWITCH(0); } CONNECT { MONITOR { } } END",
	} {
		net, diags := logsim.Parse([]byte(src))
		if net == nil || diags == nil {
			t.Fatalf("Parse(%q) returned nil", src)
		}
		if diags.ErrorCount() == 0 {
			t.Errorf("Parse(%q) reported no errors", src)
		}
	}
}

func TestParseMissingBraceBeforeConnect(t *testing.T) {
	// the missing '}' is recovered at the CONNECT keyword and the
	// connection section still parses
	net, diags := logsim.Parse([]byte(`
CIRCUIT {
	DEVICES {
		A = SWITCH(0);
		N = NOT;
	CONNECT {
		A > N.I1;
	}
	MONITOR { N; }
}
END
`))
	found := false
	for _, d := range diags.Diags() {
		if d.Line == 6 && strings.Contains(d.Msg, "expected '}'") {
			found = true
		}
	}
	if !found {
		t.Fatal("missing '}' not reported at CONNECT")
	}
	n := net.DeviceByName("N")
	if n == nil {
		t.Fatal("device N was not built")
	}
	if _, ok := net.DriverOf(n, net.Names().Lookup("I1")); !ok {
		t.Error("connection after recovery was not installed")
	}
}
