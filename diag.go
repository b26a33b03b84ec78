package logsim

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// A DiagKind classifies a diagnostic.
//
type DiagKind uint8

// Diagnostic kinds.
const (
	DiagLexical DiagKind = iota
	DiagSyntax
	DiagSemantic
)

func (k DiagKind) String() string {
	switch k {
	case DiagLexical:
		return "lexical"
	case DiagSyntax:
		return "syntax"
	case DiagSemantic:
		return "semantic"
	}
	return "unknown"
}

// A Diagnostic is one error found while parsing a definition file. It
// carries a source excerpt and the caret column within that excerpt so
// front-ends can render a pointer under the offending symbol.
//
type Diagnostic struct {
	Kind    DiagKind
	Msg     string
	Line    int // 1-based source line
	Col     int // 1-based source column
	Excerpt string
	Caret   int // 0-based column of the caret within Excerpt
}

// maxExcerptLen bounds the rendered excerpt width; longer lines are
// elided around the caret.
const maxExcerptLen = 79

// excerpt returns the text of line with an elision on either side of
// 0-based column pos when the line exceeds maxExcerptLen, along with
// the adjusted caret position.
//
func excerpt(line string, pos int) (string, int) {
	if pos > len(line) {
		pos = len(line)
	}
	if len(line) <= maxExcerptLen {
		return line, pos
	}
	half := (maxExcerptLen + 1) / 2
	if pos > half-5 {
		line = "[...]" + line[pos-half+6:]
		pos = (maxExcerptLen - 1) / 2
	}
	if len(line)-pos > half {
		line = line[:pos+maxExcerptLen/2-4] + "[...]"
	}
	return line, pos
}

// A DiagList collects diagnostics in source order.
//
type DiagList struct {
	diags []Diagnostic
}

// add records d, extracting the source excerpt from s when available.
//
func (l *DiagList) add(d Diagnostic, s *Scanner) {
	if s != nil && d.Excerpt == "" {
		d.Excerpt, d.Caret = excerpt(s.Line(d.Line), d.Col-1)
	}
	l.diags = append(l.diags, d)
}

// Diags returns the collected diagnostics sorted in source order.
//
func (l *DiagList) Diags() []Diagnostic {
	sort.SliceStable(l.diags, func(i, j int) bool {
		a, b := l.diags[i], l.diags[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
	return l.diags
}

// ErrorCount returns the number of collected diagnostics. Simulation is
// only permitted when it is zero.
//
func (l *DiagList) ErrorCount() int { return len(l.diags) }

// Render writes every diagnostic to w in source order, each with its
// excerpt and a caret pointer on the following line, then a final
// error count.
//
func (l *DiagList) Render(w io.Writer) {
	for _, d := range l.Diags() {
		fmt.Fprintf(w, "Error on line %d:\n\n", d.Line)
		fmt.Fprintf(w, "%s\n%s^\n\n", d.Excerpt, strings.Repeat(" ", d.Caret))
		fmt.Fprintf(w, "%s\n\n", d.Msg)
	}
	fmt.Fprintf(w, "Error count: %d\n", len(l.diags))
}
