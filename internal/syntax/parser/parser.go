// Package parser implements the .flow file parser.
package parser

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"go.followtheprocess.codes/asyncctx/internal/syntax"
	"go.followtheprocess.codes/asyncctx/internal/syntax/scanner"
	"go.followtheprocess.codes/asyncctx/internal/syntax/token"
)

// ErrParse is a generic parsing error, details on the error are passed
// to the parsers [syntax.ErrorHandler] at the moment it occurs.
var ErrParse = errors.New("parse error")

// Parser is the .flow file parser.
type Parser struct {
	handler   syntax.ErrorHandler // The error handler
	scanner   *scanner.Scanner    // Scanner to generate tokens
	name      string              // Name of the file being parsed
	src       []byte              // Raw source text
	current   token.Token         // Current token under inspection
	next      token.Token         // Next token in the stream
	hadErrors bool                // Whether we encountered parse errors
}

// New returns a new [Parser].
func New(name string, r io.Reader, handler syntax.ErrorHandler) (*Parser, error) {
	// .flow files are smol, it's okay to read the whole thing
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read from input: %w", err)
	}

	p := &Parser{
		handler: handler,
		name:    name,
		src:     src,
		scanner: scanner.New(name, src, handler),
	}

	// Read 2 tokens so current and next are set
	p.advance()
	p.advance()

	return p, nil
}

// Parse parses the file to completion returning a [syntax.Flow] and any parsing
// errors encountered.
//
// The returned error will simply signify whether or not there were parse errors,
// the error handler passed to [New] should be preferred.
func (p *Parser) Parse() (syntax.Flow, error) {
	flow := syntax.Flow{
		Name: p.name,
	}

	// Directives and variable declarations live at the top of the file
preamble:
	for {
		switch p.current.Kind {
		case token.At:
			name, ok := p.parseName()
			if !ok {
				return p.bail()
			}
			flow.Name = name
		case token.KeywordVar:
			decl, ok := p.parseVar()
			if !ok {
				return p.bail()
			}
			flow.Vars = append(flow.Vars, decl)
		default:
			break preamble
		}

		p.advance()
	}

	// Everything else should just be parsing steps
	for p.current.Kind != token.EOF {
		step, ok := p.parseStep(false)
		if !ok {
			return p.bail()
		}
		flow.Steps = append(flow.Steps, step)
		p.advance()
	}

	if p.hadErrors {
		return syntax.Flow{}, ErrParse
	}

	return flow, nil
}

// bail abandons the parse, consuming the rest of the token stream so the
// scanner can finish.
func (p *Parser) bail() (syntax.Flow, error) {
	for p.current.Kind != token.EOF {
		p.advance()
	}

	return syntax.Flow{}, ErrParse
}

// advance advances the parser by a single token, skipping over comments.
func (p *Parser) advance() {
	p.current = p.next
	p.next = p.scanner.Scan()
	for p.next.Kind == token.Comment {
		p.next = p.scanner.Scan()
	}
}

// expect asserts that the next token is one of the given kinds, emitting a syntax error if not.
//
// The parser is advanced only if the next token is of one of these kinds such that after returning
// true, p.current will be one of the kinds.
func (p *Parser) expect(kinds ...token.Kind) bool {
	switch len(kinds) {
	case 0:
		return true
	case 1:
		if p.next.Kind != kinds[0] {
			p.errorf("expected %s, got %s", kinds[0], p.next.Kind)
			return false
		}
	default:
		if !slices.Contains(kinds, p.next.Kind) {
			p.errorf("expected one of %v, got %s", kinds, p.next.Kind)
			return false
		}
	}

	p.advance()
	return true
}

// position returns the parser's current position in the input as a [syntax.Position].
//
// The position is calculated based on the start offset of the current token.
func (p *Parser) position() syntax.Position {
	line := 1              // Line counter
	lastNewLineOffset := 0 // The byte offset of the (end of the) last newline seen
	for index, byt := range p.src {
		if index >= p.current.Start {
			break
		}

		if byt == '\n' {
			lastNewLineOffset = index + 1 // +1 to account for len("\n")
			line++
		}
	}

	// If the next token is EOF, we use the end of the current token as the syntax
	// error is likely to be unexpected EOF so we want to point to the end of the
	// current token as in "something should have gone here"
	start := p.current.Start
	if p.next.Kind == token.EOF {
		start = p.current.End
	}
	end := p.current.End

	// The column is therefore the number of bytes between the end of the last newline
	// and the current position, +1 because editors columns start at 1
	startCol := 1 + start - lastNewLineOffset
	endCol := 1 + end - lastNewLineOffset

	return syntax.Position{
		Name:     p.name,
		Line:     line,
		StartCol: startCol,
		EndCol:   endCol,
	}
}

// error calculates the current position and calls the installed error handler
// with the correct information.
func (p *Parser) error(msg string) {
	p.hadErrors = true

	if p.handler == nil {
		// I guess ignore?
		return
	}

	p.handler(p.position(), msg)
}

// errorf calls error with a formatted message.
func (p *Parser) errorf(format string, a ...any) {
	p.error(fmt.Sprintf(format, a...))
}

// text returns the chunk of source text described by the p.current token.
func (p *Parser) text() string {
	return string(p.src[p.current.Start:p.current.End])
}

// parseName parses a '@name' directive at the top of the file.
//
// It assumes p.current is the '@'.
func (p *Parser) parseName() (name string, ok bool) {
	if !p.expect(token.Ident) {
		return "", false
	}

	if p.text() != "name" {
		p.errorf("unknown directive @%s", p.text())
		return "", false
	}

	// Can either be @name = MyFlow or @name MyFlow
	if p.next.Kind == token.Eq {
		p.advance()
	}

	// Quoted if the name has spaces in it, bare otherwise
	if !p.expect(token.String, token.Ident) {
		return "", false
	}

	return p.text(), true
}

// parseVar parses a 'var <ident> [= "<default>"]' declaration.
//
// It assumes p.current is the 'var' keyword.
func (p *Parser) parseVar() (decl syntax.Var, ok bool) {
	if !p.expect(token.Ident) {
		return syntax.Var{}, false
	}

	decl.Name = p.text()

	if p.next.Kind == token.Eq {
		p.advance()
		if !p.expect(token.String) {
			return syntax.Var{}, false
		}
		decl.Default = p.text()
	}

	return decl, true
}

// parseStep parses a single scenario step, recursing into block bodies.
//
// inSchedule tracks whether we're inside the body of a schedule block, where
// drain (and nothing else) is prohibited: a drain inside a continuation would
// recursively drain the queue that is currently being drained.
//
// It assumes p.current is the first token of the step and returns with
// p.current on the last token of the step.
func (p *Parser) parseStep(inSchedule bool) (step syntax.Step, ok bool) {
	switch p.current.Kind {
	case token.KeywordGet:
		if !p.expect(token.Ident) {
			return syntax.Step{}, false
		}
		return syntax.Step{Kind: syntax.KindGet, Var: p.text()}, true

	case token.KeywordDrain:
		if inSchedule {
			p.error("drain is not allowed inside a schedule block")
			return syntax.Step{}, false
		}
		return syntax.Step{Kind: syntax.KindDrain}, true

	case token.KeywordScope, token.KeywordRun:
		kind := syntax.KindScope
		if p.current.Kind == token.KeywordRun {
			kind = syntax.KindRun
		}

		if !p.expect(token.Ident) {
			return syntax.Step{}, false
		}
		step = syntax.Step{Kind: kind, Var: p.text()}

		if !p.expect(token.Eq) {
			return syntax.Step{}, false
		}
		if !p.expect(token.String) {
			return syntax.Step{}, false
		}
		step.Value = p.text()

		body, ok := p.parseBody(inSchedule)
		if !ok {
			return syntax.Step{}, false
		}
		step.Body = body

		return step, true

	case token.KeywordSchedule:
		if !p.expect(token.Ident) {
			return syntax.Step{}, false
		}
		step = syntax.Step{Kind: syntax.KindSchedule, Label: p.text()}

		body, ok := p.parseBody(true)
		if !ok {
			return syntax.Step{}, false
		}
		step.Body = body

		return step, true

	case token.KeywordVar:
		p.error("variable declarations must appear before any steps")
		return syntax.Step{}, false

	default:
		p.errorf(
			"unexpected token %s, expected one of %s, %s, %s, %s or %s",
			p.current.Kind,
			token.KeywordGet,
			token.KeywordScope,
			token.KeywordRun,
			token.KeywordSchedule,
			token.KeywordDrain,
		)
		return syntax.Step{}, false
	}
}

// parseBody parses a '{ ... }' block of steps.
//
// It expects p.next to be the LeftBrace and returns with p.current on the
// closing RightBrace.
func (p *Parser) parseBody(inSchedule bool) (body []syntax.Step, ok bool) {
	if !p.expect(token.LeftBrace) {
		return nil, false
	}

	p.advance()
	for p.current.Kind != token.RightBrace {
		if p.current.Kind == token.EOF {
			p.error("unexpected eof, unclosed block")
			return nil, false
		}

		step, ok := p.parseStep(inSchedule)
		if !ok {
			return nil, false
		}
		body = append(body, step)
		p.advance()
	}

	return body, true
}
