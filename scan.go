// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logsim

import "strings"

const maxNumber = 1<<31 - 1

// A Scanner turns a source buffer into a stream of tokens. It tracks
// line and column for every token and keeps access to the buffer so
// that the error reporter can quote the offending line.
//
// The scanner never fails: unexpected characters are emitted as
// TokInvalid tokens and lexical problems (unterminated comment,
// oversized number) are recorded as diagnostics while scanning
// continues.
//
type Scanner struct {
	src   []byte
	names *Names
	diags *DiagList

	pos  int
	line int
	col  int

	peeked bool
	ahead  Token

	lineStarts []int
}

// NewScanner returns a scanner over src. Identifier handles are
// allocated in names; lexical diagnostics are appended to diags.
//
func NewScanner(src []byte, names *Names, diags *DiagList) *Scanner {
	s := &Scanner{src: src, names: names, diags: diags, line: 1, col: 1}
	s.lineStarts = append(s.lineStarts, 0)
	for i, c := range src {
		if c == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	return s
}

// Peek returns the next token without consuming it. One token of
// lookahead is all the grammar needs.
//
func (s *Scanner) Peek() Token {
	if !s.peeked {
		s.ahead = s.scan()
		s.peeked = true
	}
	return s.ahead
}

// Next consumes and returns the next token. At end of input it returns
// TokEOF forever.
//
func (s *Scanner) Next() Token {
	if s.peeked {
		s.peeked = false
		return s.ahead
	}
	return s.scan()
}

// Line returns the text of 1-based line n, without its line terminator.
//
func (s *Scanner) Line(n int) string {
	if n < 1 || n > len(s.lineStarts) {
		return ""
	}
	start := s.lineStarts[n-1]
	end := len(s.src)
	if n < len(s.lineStarts) {
		end = s.lineStarts[n] - 1
	}
	t := string(s.src[start:end])
	return strings.TrimSuffix(t, "\r")
}

func (s *Scanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *Scanner) eof() bool { return s.pos >= len(s.src) }

func (s *Scanner) peekByte() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// skipBlanks skips whitespace and comments. Comments are delimited by
// a pair of backslashes on both ends and may span line breaks. A lone
// backslash is not comment syntax and is left for scan to emit as an
// invalid character.
//
func (s *Scanner) skipBlanks() {
	for !s.eof() {
		c := s.peekByte()
		switch {
		case isSpace(c):
			s.advance()
		case c == '\\' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '\\':
			line, col := s.line, s.col
			s.advance()
			s.advance()
			if !s.skipComment() {
				s.diags.add(Diagnostic{
					Kind: DiagLexical,
					Msg:  "comment not terminated before end of file, expected '\\\\'",
					Line: line,
					Col:  col,
				}, s)
				return
			}
		default:
			return
		}
	}
}

// skipComment consumes input until the closing backslash pair and
// reports whether it was found.
//
func (s *Scanner) skipComment() bool {
	for !s.eof() {
		if s.advance() == '\\' && s.peekByte() == '\\' {
			s.advance()
			return true
		}
	}
	return false
}

func (s *Scanner) scan() Token {
	s.skipBlanks()

	t := Token{Line: s.line, Col: s.col, Off: s.pos, Name: NoName}
	if s.eof() {
		t.Kind = TokEOF
		return t
	}

	c := s.peekByte()
	switch {
	case isLetter(c):
		start := s.pos
		for !s.eof() && (isLetter(s.peekByte()) || isDigit(s.peekByte())) {
			s.advance()
		}
		t.Text = string(s.src[start:s.pos])
		t.Name = s.names.Intern(t.Text)
		if kw, ok := s.names.Keyword(t.Name); ok {
			t.Kind = TokKeyword
			t.Kw = kw
		} else {
			t.Kind = TokName
		}
		return t

	case isDigit(c):
		start := s.pos
		n, overflow := 0, false
		for !s.eof() && isDigit(s.peekByte()) {
			d := int(s.advance() - '0')
			if n > (maxNumber-d)/10 {
				overflow = true
			} else {
				n = n*10 + d
			}
		}
		t.Text = string(s.src[start:s.pos])
		t.Kind = TokNumber
		t.Num = n
		if overflow {
			t.Num = maxNumber
			s.diags.add(Diagnostic{
				Kind: DiagLexical,
				Msg:  "malformed number: value too large",
				Line: t.Line,
				Col:  t.Col,
			}, s)
		}
		return t
	}

	s.advance()
	t.Text = string(c)
	switch c {
	case '=':
		t.Kind = TokEquals
	case ',':
		t.Kind = TokComma
	case ';':
		t.Kind = TokSemicolon
	case '>':
		t.Kind = TokArrow
	case '.':
		t.Kind = TokDot
	case '{':
		t.Kind = TokLBrace
	case '}':
		t.Kind = TokRBrace
	case '(':
		t.Kind = TokLParen
	case ')':
		t.Kind = TokRParen
	default:
		t.Kind = TokInvalid
	}
	return t
}
