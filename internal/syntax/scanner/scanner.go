// Package scanner implements the lexical scanner for .flow files.
package scanner

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"go.followtheprocess.codes/asyncctx/internal/syntax"
	"go.followtheprocess.codes/asyncctx/internal/syntax/token"
)

const (
	bufferSize = 32       // Token buffer size, .flow files produce tokens faster than the parser consumes them
	eof        = rune(-1) // eof signifies we have reached the end of the input
)

// scanFn represents the state of the scanner as a function that returns the next state.
type scanFn func(*Scanner) scanFn

// Scanner is the .flow file scanner.
type Scanner struct {
	handler   syntax.ErrorHandler // The error handler, if any
	tokens    chan token.Token    // Channel on which to emit scanned tokens
	name      string              // Name of the file
	src       []byte              // Raw source text
	start     int                 // The start position of the current token
	pos       int                 // Current scanner position in src (bytes, 0 indexed)
	line      int                 // Current line number (1 indexed)
	lineStart int                 // Offset at which the current line started
}

// New returns a new [Scanner] that scans src.
func New(name string, src []byte, handler syntax.ErrorHandler) *Scanner {
	s := &Scanner{
		handler: handler,
		tokens:  make(chan token.Token, bufferSize),
		name:    name,
		src:     src,
		start:   0,
		pos:     0,
		line:    1,
	}

	// run terminates when the scanning state machine is finished and all the tokens
	// drained from s.tokens so no wg.Add needed here
	go s.run()
	return s
}

// Scan scans the input and returns the next token.
func (s *Scanner) Scan() token.Token {
	return <-s.tokens
}

// next returns, and consumes, the next character in the input or [eof].
func (s *Scanner) next() rune {
	if s.pos >= len(s.src) {
		return eof
	}

	char, width := utf8.DecodeRune(s.src[s.pos:])
	if char == utf8.RuneError {
		s.errorf("invalid utf8 char: %U", char)
		// Advance to the end to prevent cascade errors
		s.pos = len(s.src)
		return eof
	}

	s.pos += width
	if char == '\n' {
		s.line++
		s.lineStart = s.pos
	}

	return char
}

// char returns the character the scanner is currently sat on or [eof].
func (s *Scanner) char() rune {
	if s.pos >= len(s.src) {
		return eof
	}
	char, _ := utf8.DecodeRune(s.src[s.pos:])
	return char
}

// skip ignores any characters for which the predicate returns true, stopping at the
// first one that returns false.
//
// The scanner start position is brought up to the current position before returning, effectively
// ignoring everything it's travelled over in the meantime.
func (s *Scanner) skip(predicate func(r rune) bool) {
	for predicate(s.char()) {
		s.next()
	}
	s.start = s.pos
}

// emit passes a token over the tokens channel, using the scanner's internal
// state to populate position information.
func (s *Scanner) emit(kind token.Kind) {
	s.tokens <- token.Token{
		Kind:  kind,
		Start: s.start,
		End:   s.pos,
	}
	s.start = s.pos
}

// run starts the state machine for the scanner, it runs with each [scanFn] returning the next
// state until one returns nil (typically an error or eof), at which point the tokens channel
// is closed as a signal to the receiver that no more tokens will be sent.
func (s *Scanner) run() {
	for state := scanStart; state != nil; {
		state = state(s)
	}
	s.tokens <- token.Token{Kind: token.EOF, Start: s.pos, End: s.pos}
	close(s.tokens)
}

// error calculates the position information and arranges for s.handler to be called
// with the information.
func (s *Scanner) error(msg string) {
	if s.handler == nil {
		// I guess just ignore the error?
		return
	}

	// Column is the number of bytes between the last newline and the current position
	// +1 because columns are 1 indexed
	startCol := 1 + s.start - s.lineStart
	endCol := 1 + s.pos - s.lineStart

	position := syntax.Position{
		Name:     s.name,
		Line:     s.line,
		StartCol: startCol,
		EndCol:   endCol,
	}

	s.handler(position, msg)
}

// errorf calls error with a formatted message.
func (s *Scanner) errorf(format string, a ...any) {
	s.error(fmt.Sprintf(format, a...))
}

// scanStart is the initial state of the scanner.
func scanStart(s *Scanner) scanFn {
	s.skip(unicode.IsSpace)

	switch char := s.char(); char {
	case eof:
		return nil // Break the state machine
	case '#':
		return scanComment
	case '@':
		return scanAt
	case '=':
		return scanEq
	case '{':
		s.next()
		s.emit(token.LeftBrace)
		return scanStart
	case '}':
		s.next()
		s.emit(token.RightBrace)
		return scanStart
	case '"':
		return scanString
	default:
		if isAlpha(char) {
			return scanIdent
		}

		s.next() // Absorb the bad character so the error can point at it
		s.errorf("unexpected token %q", string(char))
		s.emit(token.Error)
		return nil
	}
}

// scanComment scans a '#' line comment.
func scanComment(s *Scanner) scanFn {
	s.next() // Consume the '#'

	// Ignore any (non line terminating) whitespace between the
	// '#' and the comment text
	s.skip(isLineSpace)

	// Now absorb any text until the end of the line or eof
	for s.char() != '\n' && s.char() != eof {
		s.next()
	}

	s.emit(token.Comment)
	return scanStart
}

// scanAt scans a '@' character.
func scanAt(s *Scanner) scanFn {
	s.next() // Consume the '@'
	s.emit(token.At)

	if isAlpha(s.char()) {
		return scanIdent
	}

	return scanStart
}

// scanEq scans a '=' character.
func scanEq(s *Scanner) scanFn {
	s.next() // Consume the '='
	s.emit(token.Eq)
	return scanStart
}

// scanIdent scans an identifier, emitting the keyword kind if the text
// is a .flow keyword.
func scanIdent(s *Scanner) scanFn {
	for isIdent(s.char()) {
		s.next()
	}

	kind, _ := token.Keyword(string(s.src[s.start:s.pos]))
	s.emit(kind)
	return scanStart
}

// scanString scans a double quoted string literal, the emitted token covers
// the contents only, not the quotes.
func scanString(s *Scanner) scanFn {
	s.next() // Consume the opening '"'
	s.start = s.pos

	for s.char() != '"' {
		if s.char() == '\n' || s.char() == eof {
			s.error("unterminated string literal")
			s.emit(token.Error)
			return nil
		}
		s.next()
	}

	s.emit(token.String)
	s.next() // Consume the closing '"'
	s.start = s.pos

	return scanStart
}

// isLineSpace reports whether r is a non line terminating whitespace character,
// imagine [unicode.IsSpace] but without '\n' or '\r'.
func isLineSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// isAlpha reports whether r is an alpha character.
func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isIdent reports whether r is a valid identifier character.
func isIdent(r rune) bool {
	return isAlpha(r) || isDigit(r) || r == '_' || r == '-'
}

// isDigit reports whether r is a valid ASCII digit.
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
