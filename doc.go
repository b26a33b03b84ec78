/*
Package logsim simulates digital logic circuits described in a small
textual definition language.

A definition file declares devices (switches, clocks, logic gates,
D-type flip-flops), the connections between their pins, and a set of
monitor points. Parse turns such a file into a Network and a list of
diagnostics; if the diagnostics contain no errors, the network can be
stepped one abstract cycle at a time, sampling every monitor point on
each step:

	net, diags := logsim.Parse(src)
	if diags.ErrorCount() > 0 {
		diags.Render(os.Stderr)
		return
	}
	for i := 0; i < 10; i++ {
		if err := net.Step(); err != nil {
			// combinational loop: no fixed point
		}
	}
	for _, m := range net.Monitors() {
		fmt.Println(m.Name(), m.Waveform())
	}

Syntax and semantic errors do not abort parsing: the parser recovers at
the nearest stopping symbol and keeps going, so a single run reports as
many errors as possible, each with a source excerpt and caret pointer.
*/
package logsim
