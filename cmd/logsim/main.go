// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command logsim parses a circuit definition file, runs the simulation
// for a number of steps and prints the monitored waveforms.
//
// Exit codes: 0 on success, 1 on parse errors, 2 when the network
// oscillates, 64 on usage errors.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/db47h/logsim"
)

const (
	exitParseErrors = 1
	exitOscillation = 2
	exitUsage       = 64
)

func main() {
	app := &cli.App{
		Name:      "logsim",
		Usage:     "simulate a digital logic circuit definition file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "steps",
				Aliases: []string{"n"},
				Value:   10,
				Usage:   "number of simulation steps to run",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "run the simulation without printing traces",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		cli.ShowAppHelp(c)
		return cli.Exit("expected exactly one definition file", exitUsage)
	}
	net, diags, err := logsim.ParseFile(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if diags.ErrorCount() > 0 {
		renderDiags(diags)
		return cli.Exit("", exitParseErrors)
	}

	for i := 0; i < c.Int("steps"); i++ {
		if err := net.Step(); err != nil {
			return cli.Exit(color.RedString("Error: %v", err), exitOscillation)
		}
	}

	if !c.Bool("quiet") {
		printTraces(net)
	}
	return nil
}

// renderDiags is DiagList.Render with a colored header, for terminals.
//
func renderDiags(diags *logsim.DiagList) {
	header := color.New(color.FgRed, color.Bold)
	for _, d := range diags.Diags() {
		header.Fprintf(os.Stderr, "Error on line %d:\n", d.Line)
		fmt.Fprintf(os.Stderr, "\n%s\n%s^\n\n%s\n\n", d.Excerpt, strings.Repeat(" ", d.Caret), d.Msg)
	}
	fmt.Fprintf(os.Stderr, "Error count: %d\n", diags.ErrorCount())
}

func printTraces(net *logsim.Network) {
	width := 0
	for _, m := range net.Monitors() {
		if len(m.Name()) > width {
			width = len(m.Name())
		}
	}
	for _, m := range net.Monitors() {
		fmt.Printf("%-*s: %s\n", width+1, m.Name(), m.Waveform())
	}
}
