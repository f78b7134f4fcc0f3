package scanner_test

import (
	"slices"
	"testing"

	"go.followtheprocess.codes/asyncctx/internal/syntax"
	"go.followtheprocess.codes/asyncctx/internal/syntax/scanner"
	"go.followtheprocess.codes/asyncctx/internal/syntax/token"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

func TestScanner(t *testing.T) {
	tests := []struct {
		name string        // Name of the test case
		src  string        // Source text to scan
		want []token.Token // Expected tokens
	}{
		{
			name: "empty",
			src:  "",
			want: []token.Token{
				{Kind: token.EOF, Start: 0, End: 0},
			},
		},
		{
			name: "comment",
			src:  "# hello",
			want: []token.Token{
				{Kind: token.Comment, Start: 2, End: 7},
				{Kind: token.EOF, Start: 7, End: 7},
			},
		},
		{
			name: "keywords",
			src:  "var scope run get schedule drain",
			want: []token.Token{
				{Kind: token.KeywordVar, Start: 0, End: 3},
				{Kind: token.KeywordScope, Start: 4, End: 9},
				{Kind: token.KeywordRun, Start: 10, End: 13},
				{Kind: token.KeywordGet, Start: 14, End: 17},
				{Kind: token.KeywordSchedule, Start: 18, End: 26},
				{Kind: token.KeywordDrain, Start: 27, End: 32},
				{Kind: token.EOF, Start: 32, End: 32},
			},
		},
		{
			name: "var declaration",
			src:  `var user = "nobody"`,
			want: []token.Token{
				{Kind: token.KeywordVar, Start: 0, End: 3},
				{Kind: token.Ident, Start: 4, End: 8},
				{Kind: token.Eq, Start: 9, End: 10},
				{Kind: token.String, Start: 12, End: 18},
				{Kind: token.EOF, Start: 19, End: 19},
			},
		},
		{
			name: "scope block",
			src:  "scope v = \"x\" {\n    get v\n}\n",
			want: []token.Token{
				{Kind: token.KeywordScope, Start: 0, End: 5},
				{Kind: token.Ident, Start: 6, End: 7},
				{Kind: token.Eq, Start: 8, End: 9},
				{Kind: token.String, Start: 11, End: 12},
				{Kind: token.LeftBrace, Start: 14, End: 15},
				{Kind: token.KeywordGet, Start: 20, End: 23},
				{Kind: token.Ident, Start: 24, End: 25},
				{Kind: token.RightBrace, Start: 26, End: 27},
				{Kind: token.EOF, Start: 28, End: 28},
			},
		},
		{
			name: "name directive",
			src:  `@name = "Worked example"`,
			want: []token.Token{
				{Kind: token.At, Start: 0, End: 1},
				{Kind: token.Ident, Start: 1, End: 5},
				{Kind: token.Eq, Start: 6, End: 7},
				{Kind: token.String, Start: 9, End: 23},
				{Kind: token.EOF, Start: 24, End: 24},
			},
		},
		{
			name: "empty string",
			src:  `var v = ""`,
			want: []token.Token{
				{Kind: token.KeywordVar, Start: 0, End: 3},
				{Kind: token.Ident, Start: 4, End: 5},
				{Kind: token.Eq, Start: 6, End: 7},
				{Kind: token.String, Start: 9, End: 9},
				{Kind: token.EOF, Start: 10, End: 10},
			},
		},
		{
			name: "unexpected character",
			src:  "$",
			want: []token.Token{
				{Kind: token.Error, Start: 0, End: 1},
				{Kind: token.EOF, Start: 1, End: 1},
			},
		},
		{
			name: "unterminated string",
			src:  `get v "oops`,
			want: []token.Token{
				{Kind: token.KeywordGet, Start: 0, End: 3},
				{Kind: token.Ident, Start: 4, End: 5},
				{Kind: token.Error, Start: 7, End: 11},
				{Kind: token.EOF, Start: 11, End: 11},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			scanner := scanner.New(tt.name, []byte(tt.src), nil)

			var tokens []token.Token
			for {
				tok := scanner.Scan()
				tokens = append(tokens, tok)
				if tok.Kind == token.EOF {
					break
				}
			}

			test.EqualFunc(t, tokens, tt.want, slices.Equal, test.Context("token stream mismatch"))
		})
	}
}

func TestScannerErrors(t *testing.T) {
	tests := []struct {
		name    string          // Name of the test case
		src     string          // Source text to scan
		wantPos syntax.Position // Expected position passed to the handler
		wantMsg string          // Expected error message
	}{
		{
			name:    "unexpected character",
			src:     "get v\n!",
			wantPos: syntax.Position{Name: "unexpected character", Line: 2, StartCol: 1, EndCol: 2},
			wantMsg: `unexpected token "!"`,
		},
		{
			name:    "unterminated string",
			src:     `scope v = "oops`,
			wantPos: syntax.Position{Name: "unterminated string", Line: 1, StartCol: 12, EndCol: 16},
			wantMsg: "unterminated string literal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			var (
				gotPos syntax.Position
				gotMsg string
			)
			handler := func(pos syntax.Position, msg string) {
				gotPos = pos
				gotMsg = msg
			}

			scanner := scanner.New(tt.name, []byte(tt.src), handler)
			for tok := scanner.Scan(); tok.Kind != token.EOF; tok = scanner.Scan() {
			}

			test.Equal(t, gotMsg, tt.wantMsg)
			test.Equal(t, gotPos, tt.wantPos)
		})
	}
}
