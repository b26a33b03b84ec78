// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package logtest provides utility functions for testing circuits.
//
package logtest

import (
	"strings"
	"testing"

	"github.com/db47h/logsim"
)

// MustParse parses src and fails the test immediately if the
// diagnostics list is not empty.
//
func MustParse(t *testing.T, src string) *logsim.Network {
	t.Helper()
	net, diags := logsim.Parse([]byte(src))
	if diags.ErrorCount() > 0 {
		var b strings.Builder
		diags.Render(&b)
		t.Fatalf("parse failed:\n%s", b.String())
	}
	return net
}

// RunTraces parses src, runs the network for the given number of steps
// and returns the monitor traces keyed by point name.
//
func RunTraces(t *testing.T, src string, steps int) map[string][]logsim.Signal {
	t.Helper()
	net := MustParse(t, src)
	for i := 0; i < steps; i++ {
		if err := net.Step(); err != nil {
			t.Fatalf("step %d: %v", i+1, err)
		}
	}
	out := make(map[string][]logsim.Signal, len(net.Monitors()))
	for _, m := range net.Monitors() {
		out[m.Name()] = m.Trace()
	}
	return out
}

// CompareTraces takes two circuit definitions with identical monitor
// points, runs both for the given number of steps and compares their
// traces pointwise. It is the source-level way to check that two
// realizations of the same function behave identically.
//
func CompareTraces(t *testing.T, steps int, src1, src2 string) {
	t.Helper()
	tr1 := RunTraces(t, src1, steps)
	tr2 := RunTraces(t, src2, steps)
	if len(tr1) != len(tr2) {
		t.Fatalf("monitor count mismatch: %d != %d", len(tr1), len(tr2))
	}
	for name, s1 := range tr1 {
		s2, ok := tr2[name]
		if !ok {
			t.Errorf("monitor %s missing from second circuit", name)
			continue
		}
		for i := range s1 {
			if s1[i] != s2[i] {
				t.Errorf("monitor %s differs at step %d: %v != %v", name, i+1, s1[i], s2[i])
				break
			}
		}
	}
}
