package parser_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.followtheprocess.codes/asyncctx/internal/syntax"
	"go.followtheprocess.codes/asyncctx/internal/syntax/parser"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name string      // Name of the test case
		src  string      // Source text to parse
		want syntax.Flow // Expected parsed flow
	}{
		{
			name: "empty",
			src:  "",
			want: syntax.Flow{Name: "empty"},
		},
		{
			name: "comments only",
			src:  "# nothing here\n# or here\n",
			want: syntax.Flow{Name: "comments only"},
		},
		{
			name: "name directive",
			src:  `@name = "Worked example"`,
			want: syntax.Flow{Name: "Worked example"},
		},
		{
			name: "bare name directive",
			src:  "@name tracing\n",
			want: syntax.Flow{Name: "tracing"},
		},
		{
			name: "var with default",
			src:  `var request = "top"`,
			want: syntax.Flow{
				Name: "var with default",
				Vars: []syntax.Var{{Name: "request", Default: "top"}},
			},
		},
		{
			name: "var without default",
			src:  "var user\n",
			want: syntax.Flow{
				Name: "var without default",
				Vars: []syntax.Var{{Name: "user"}},
			},
		},
		{
			name: "get and drain",
			src:  "var v\nget v\ndrain\n",
			want: syntax.Flow{
				Name: "get and drain",
				Vars: []syntax.Var{{Name: "v"}},
				Steps: []syntax.Step{
					{Kind: syntax.KindGet, Var: "v"},
					{Kind: syntax.KindDrain},
				},
			},
		},
		{
			name: "scope block",
			src: `var v = "default"
scope v = "inner" {
    get v
}
`,
			want: syntax.Flow{
				Name: "scope block",
				Vars: []syntax.Var{{Name: "v", Default: "default"}},
				Steps: []syntax.Step{
					{
						Kind:  syntax.KindScope,
						Var:   "v",
						Value: "inner",
						Body: []syntax.Step{
							{Kind: syntax.KindGet, Var: "v"},
						},
					},
				},
			},
		},
		{
			name: "run block",
			src: `var v
run v = "called" {
    get v
}
`,
			want: syntax.Flow{
				Name: "run block",
				Vars: []syntax.Var{{Name: "v"}},
				Steps: []syntax.Step{
					{
						Kind:  syntax.KindRun,
						Var:   "v",
						Value: "called",
						Body: []syntax.Step{
							{Kind: syntax.KindGet, Var: "v"},
						},
					},
				},
			},
		},
		{
			name: "empty scope body",
			src:  "var v\nscope v = \"x\" {}\n",
			want: syntax.Flow{
				Name: "empty scope body",
				Vars: []syntax.Var{{Name: "v"}},
				Steps: []syntax.Step{
					{Kind: syntax.KindScope, Var: "v", Value: "x"},
				},
			},
		},
		{
			name: "schedule and nesting",
			src: `var request = "top"

scope request = "value-1" {
    get request
    schedule first {
        get request
    }
}
drain
`,
			want: syntax.Flow{
				Name: "schedule and nesting",
				Vars: []syntax.Var{{Name: "request", Default: "top"}},
				Steps: []syntax.Step{
					{
						Kind:  syntax.KindScope,
						Var:   "request",
						Value: "value-1",
						Body: []syntax.Step{
							{Kind: syntax.KindGet, Var: "request"},
							{
								Kind:  syntax.KindSchedule,
								Label: "first",
								Body: []syntax.Step{
									{Kind: syntax.KindGet, Var: "request"},
								},
							},
						},
					},
					{Kind: syntax.KindDrain},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			parser, err := parser.New(tt.name, strings.NewReader(tt.src), testFailHandler(t))
			test.Ok(t, err)

			got, err := parser.Parse()
			test.Ok(t, err, test.Context("unexpected parse error"))

			test.EqualFunc(t, got, tt.want, func(a, b syntax.Flow) bool {
				return reflect.DeepEqual(a, b)
			})
		})
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name    string // Name of the test case
		src     string // Source text to parse
		wantErr string // Expected error reported to the handler
	}{
		{
			name:    "bad directive",
			src:     "@timeout = \"10s\"\n",
			wantErr: "unknown directive @timeout",
		},
		{
			name:    "var without name",
			src:     "var = \"x\"\n",
			wantErr: "expected Ident, got Eq",
		},
		{
			name:    "var after step",
			src:     "drain\nvar v\n",
			wantErr: "variable declarations must appear before any steps",
		},
		{
			name:    "get without variable",
			src:     "get {\n",
			wantErr: "expected Ident, got LeftBrace",
		},
		{
			name:    "scope without value",
			src:     "scope v {\n}\n",
			wantErr: "expected Eq, got LeftBrace",
		},
		{
			name:    "scope with bare value",
			src:     "scope v = inner {\n}\n",
			wantErr: "expected String, got Ident",
		},
		{
			name:    "unclosed block",
			src:     "scope v = \"x\" {\n    get v\n",
			wantErr: "unexpected eof, unclosed block",
		},
		{
			name:    "drain in schedule",
			src:     "schedule work {\n    drain\n}\n",
			wantErr: "drain is not allowed inside a schedule block",
		},
		{
			name:    "stray brace",
			src:     "}\n",
			wantErr: "unexpected token RightBrace, expected one of KeywordGet, KeywordScope, KeywordRun, KeywordSchedule or KeywordDrain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			collector := &errorCollector{}

			parser, err := parser.New(tt.name, strings.NewReader(tt.src), collector.handler())
			test.Ok(t, err)

			_, err = parser.Parse()
			test.Err(t, err, test.Context("Parse() failed to return an error given invalid syntax"))

			test.True(
				t,
				strings.Contains(collector.String(), tt.wantErr),
				test.Context("errors %q missing %q", collector.String(), tt.wantErr),
			)
		})
	}
}

func FuzzParser(f *testing.F) {
	seeds := []string{
		"",
		"var v\nget v\n",
		"@name = \"fuzz\"\nvar v = \"default\"\nscope v = \"x\" {\n    get v\n}\ndrain\n",
		"schedule work {\n    get v\n}\n",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	// Property: The parser never panics or loops indefinitely, fuzz by default
	// will catch both of these
	f.Fuzz(func(t *testing.T, src string) {
		// Note: no ErrorHandler installed, because if we let it report errors
		// it would kill the fuzz test straight away e.g. on the first invalid
		// utf-8 char
		parser, err := parser.New("fuzz", strings.NewReader(src), nil)
		test.Ok(t, err)

		flow, err := parser.Parse()

		var zeroFlow syntax.Flow
		if err != nil {
			// If there was a parse error, the flow must be the zero value
			test.EqualFunc(t, flow, zeroFlow, func(a, b syntax.Flow) bool {
				return reflect.DeepEqual(a, b)
			})
		}
	})
}

// testFailHandler returns a [syntax.ErrorHandler] that fails the test if called.
func testFailHandler(tb testing.TB) syntax.ErrorHandler {
	tb.Helper()
	return func(pos syntax.Position, msg string) {
		tb.Fatalf("%s: %s", pos, msg)
	}
}

// errorCollector gathers syntax errors so they can be asserted against.
type errorCollector struct {
	errs []string
}

// handler returns a [syntax.ErrorHandler] that records each error.
func (e *errorCollector) handler() syntax.ErrorHandler {
	return func(pos syntax.Position, msg string) {
		e.errs = append(e.errs, fmt.Sprintf("%s: %s", pos, msg))
	}
}

// String returns all the collected errors, one per line.
func (e *errorCollector) String() string {
	return strings.Join(e.errs, "\n")
}
