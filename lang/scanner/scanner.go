// Package scanner implements the lexer (component C1): it turns a source
// file's bytes into a stream of token.Token/token.Value pairs, tracking
// source positions, the real-newline-vs-semicolon EOL distinction, `#`
// compile-time directives, and the raw-assembly lexing mode entered
// after the parser consumes an `asm` keyword.
//
// The overall shape (an Init/Scan state machine reporting errors through
// a callback, with an Error/ErrorList diagnostic type shaped after
// go/scanner's) follows Go's standard library scanner idiom.
package scanner

import (
	"fmt"
	"io"
	"sort"

	"github.com/mna/n7/lang/keyword"
	"github.com/mna/n7/lang/token"
)

// Error is a single positioned diagnostic, shaped after go/scanner.Error
// but built on this module's own offset-based token.Position instead of
// go/token.Position, since the two are distinct, non-interchangeable
// struct types.
type Error struct {
	Pos token.Position
	Msg string
}

func (e Error) Error() string {
	if e.Pos.Filename != "" || e.Pos.Line != 0 {
		return e.Pos.String() + ": " + e.Msg
	}
	return e.Msg
}

// ErrorList collects diagnostics across a whole compile, in the same
// accumulate-then-sort shape as go/scanner.ErrorList.
type ErrorList []*Error

// Add appends a diagnostic at pos.
func (l *ErrorList) Add(pos token.Position, msg string) {
	*l = append(*l, &Error{Pos: pos, Msg: msg})
}

// Reset empties the list.
func (l *ErrorList) Reset() { *l = (*l)[:0] }

func (l ErrorList) Len() int      { return len(l) }
func (l ErrorList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }
func (l ErrorList) Less(i, j int) bool {
	e, f := l[i].Pos, l[j].Pos
	if e.Filename != f.Filename {
		return e.Filename < f.Filename
	}
	if e.Line != f.Line {
		return e.Line < f.Line
	}
	return e.Column < f.Column
}

// Sort orders the list by file, line, column.
func (l ErrorList) Sort() { sort.Sort(l) }

// Err returns nil if the list is empty, or the whole list (which
// implements error) otherwise, even when it holds a single error.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

// PrintError prints each error in list (or a single error) to w, one per
// line.
func PrintError(w io.Writer, err error) {
	if list, ok := err.(ErrorList); ok {
		for _, e := range list {
			fmt.Fprintf(w, "%s\n", e)
		}
		return
	}
	if err != nil {
		fmt.Fprintf(w, "%s\n", err)
	}
}

const (
	maxIdentLen = 64
	maxStrLen   = 512
)

// Directive is a `#`-introduced compile-time flag read by the lexer.
type Directive struct {
	Pos  token.Pos
	Name string // "win32", "dbg" or "mem"; unrecognised directives are not recorded
	Mem  int    // heap size requested by "mem<N>", if Name == "mem"
}

// Scanner tokenizes a single source file.
type Scanner struct {
	file *token.File
	src  []byte
	err  func(token.Position, string)

	cur byte // current byte, 0 at EOF
	off int  // offset of cur
	roff int // offset just after cur

	pendingLineBump bool // delayed line-counter bump
	line            int  // 1-based "assembly metadata" line counter

	rawAsm bool // true once an `asm` keyword has been consumed by the parser

	Directives []Directive
}

// Init (re)initializes the scanner to tokenize src, registered as file in
// the caller's FileSet.
func (s *Scanner) Init(file *token.File, src []byte, errHandler func(token.Position, string)) {
	s.file = file
	s.src = src
	s.err = errHandler
	s.off = 0
	s.roff = 0
	s.line = 1
	s.pendingLineBump = false
	s.rawAsm = false
	s.Directives = nil
	s.advance()
}

// EnterAsmMode switches the scanner into raw-assembly lexing, used by the
// parser immediately after consuming an `asm` keyword.
func (s *Scanner) EnterAsmMode() { s.rawAsm = true }

// Line returns the scanner's current metadata line counter. Because a
// real newline's line-counter bump is delayed to the next Scan call,
// this always reflects the line of the statement about to be scanned,
// not a blank line that precedes it.
func (s *Scanner) Line() int { return s.line }

func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = 0
		return
	}
	s.off = s.roff
	s.cur = s.src[s.roff]
	s.roff++
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func (s *Scanner) atEOF() bool { return s.off >= len(s.src) }

func (s *Scanner) error(off int, msg string) {
	if s.err != nil {
		s.err(s.file.Position(s.file.Pos(off)), msg)
	}
}

// Scan returns the next token. tokVal is filled with the token's payload.
func (s *Scanner) Scan(tokVal *token.Value) token.Token {
	if s.pendingLineBump {
		s.line++
		s.pendingLineBump = false
	}

	if s.rawAsm {
		return s.scanAsmLine(tokVal)
	}

	s.skipWhitespaceAndDirectives()

	pos := s.file.Pos(s.off)
	start := s.off

	switch {
	case s.atEOF():
		*tokVal = token.Value{Pos: pos}
		return token.EOF

	case s.cur == '\n':
		s.advance()
		s.file.AddLine(s.off)
		s.pendingLineBump = true
		*tokVal = token.Value{Pos: pos, EOLReal: true}
		return token.EOL

	case s.cur == ';':
		s.advance()
		*tokVal = token.Value{Pos: pos, EOLReal: false}
		return token.EOL

	case isLetter(s.cur) && s.cur != '_':
		lit := s.ident()
		if len(lit) > maxIdentLen {
			s.error(start, "Identifier too long")
		}
		if e, ok := keyword.Lookup(lit); ok {
			*tokVal = token.Value{Pos: pos, Raw: lit, Keyword: e.Kind, Const: e.Const}
			return token.KEYWORD
		}
		*tokVal = token.Value{Pos: pos, Raw: lit}
		return token.IDENT

	case isDigit(s.cur):
		raw, isFloat, iv, fv := s.number()
		*tokVal = token.Value{Pos: pos, Raw: raw, IsFloat: isFloat, Int: iv, Float: fv}
		return token.NUMBER

	case s.cur == '"':
		str, terminated := s.quotedString()
		if !terminated {
			s.error(start, "End of line / End of file in string constant")
		} else if len(str) > maxStrLen {
			s.error(start, "String constant too long")
		}
		*tokVal = token.Value{Pos: pos, String: str}
		return token.STRING

	default:
		ch := s.cur
		s.advance()
		*tokVal = token.Value{Pos: pos, Char: rune(ch)}
		return token.CHARACTER
	}
}

// scanAsmLine implements the raw-assembly lexing mode: each non-empty line
// becomes a single STRING token (Raw holding the verbatim line) until a
// line whose first 6 bytes are "endasm".
func (s *Scanner) scanAsmLine(tokVal *token.Value) token.Token {
	for {
		if s.atEOF() {
			s.rawAsm = false
			*tokVal = token.Value{Pos: s.file.Pos(s.off)}
			return token.EOF
		}
		pos := s.file.Pos(s.off)
		start := s.off
		for !s.atEOF() && s.cur != '\n' {
			s.advance()
		}
		line := string(s.src[start:s.off])
		if !s.atEOF() {
			s.advance() // consume '\n'
			s.file.AddLine(s.off)
			s.pendingLineBump = true
		}
		if len(line) >= 6 && line[:6] == "endasm" {
			s.rawAsm = false
			*tokVal = token.Value{Pos: pos, Raw: "endasm", Keyword: keyword.EndAsm}
			return token.KEYWORD
		}
		if line == "" {
			continue
		}
		*tokVal = token.Value{Pos: pos, Raw: line, String: line}
		return token.STRING
	}
}

// skipWhitespaceAndDirectives skips spaces, tabs, carriage returns,
// single-quote comments (`'` through end of line, exclusive) and `#`
// compile-time directives. It stops at '\n', ';', EOF or the start of the
// next significant token.
func (s *Scanner) skipWhitespaceAndDirectives() {
	for {
		switch {
		case s.cur == ' ' || s.cur == '\t' || s.cur == '\r':
			s.advance()
		case s.cur == '\'':
			for !s.atEOF() && s.cur != '\n' {
				s.advance()
			}
		case s.cur == '#':
			s.directive()
		default:
			return
		}
	}
}

func (s *Scanner) directive() {
	pos := s.file.Pos(s.off)
	start := s.off
	for !s.atEOF() && s.cur != '\n' {
		s.advance()
	}
	word := string(s.src[start:s.off])
	if word == "" {
		return
	}
	switch {
	case word == "#win32":
		s.Directives = append(s.Directives, Directive{Pos: pos, Name: "win32"})
	case word == "#dbg":
		s.Directives = append(s.Directives, Directive{Pos: pos, Name: "dbg"})
	case len(word) > 4 && word[:4] == "#mem":
		n := parsePositiveInt(word[4:])
		s.Directives = append(s.Directives, Directive{Pos: pos, Name: "mem", Mem: n})
	default:
		// unknown directives are silently ignored
	}
}

func parsePositiveInt(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return n
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

// number scans one or more digits with at most one '.'. The textual form is
// preserved bit-for-bit for later emission into assembly.
func (s *Scanner) number() (raw string, isFloat bool, iv int64, fv float64) {
	start := s.off
	seenDot := false
	for isDigit(s.cur) || (s.cur == '.' && !seenDot && isDigit(s.peek())) {
		if s.cur == '.' {
			seenDot = true
		}
		s.advance()
	}
	raw = string(s.src[start:s.off])
	if seenDot {
		fv = parseFloat(raw)
		return raw, true, 0, fv
	}
	iv = parseInt(raw)
	return raw, false, iv, 0
}

func parseInt(s string) int64 {
	var n int64
	for i := 0; i < len(s); i++ {
		n = n*10 + int64(s[i]-'0')
	}
	return n
}

func parseFloat(s string) float64 {
	var n float64
	var frac float64 = 1
	seenDot := false
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			seenDot = true
			continue
		}
		d := float64(s[i] - '0')
		if !seenDot {
			n = n*10 + d
		} else {
			frac /= 10
			n += d * frac
		}
	}
	return n
}

// quotedString scans a "..." literal. Escapes are not processed at lex
// time; the returned string is the raw content between the quotes.
// terminated is false if end-of-line or end-of-file was reached before
// the closing quote.
func (s *Scanner) quotedString() (val string, terminated bool) {
	s.advance() // consume opening quote
	start := s.off
	for {
		if s.atEOF() || s.cur == '\n' {
			return string(s.src[start:s.off]), false
		}
		if s.cur == '"' {
			val = string(s.src[start:s.off])
			s.advance() // consume closing quote
			return val, true
		}
		s.advance()
	}
}

func isLetter(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
