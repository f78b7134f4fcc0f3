// Package token provides the set of lexical tokens for a .flow file.
package token

import "fmt"

// Kind is the kind of a token.
type Kind int

//go:generate stringer -type Kind -linecomment
const (
	EOF             Kind = iota // EOF
	Error                       // Error
	Comment                     // Comment
	Ident                       // Ident
	String                      // String
	At                          // At
	Eq                          // Eq
	LeftBrace                   // LeftBrace
	RightBrace                  // RightBrace
	KeywordVar                  // KeywordVar
	KeywordScope                // KeywordScope
	KeywordRun                  // KeywordRun
	KeywordGet                  // KeywordGet
	KeywordSchedule             // KeywordSchedule
	KeywordDrain                // KeywordDrain
)

// Token is a lexical token in a .flow file.
type Token struct {
	Kind  Kind // The kind of token this is
	Start int  // Byte offset from the start of the file to the start of this token
	End   int  // Byte offset from the start of the file to the end of this token
}

// String returns a string representation of a [Token].
func (t Token) String() string {
	return fmt.Sprintf("<Token::%s start=%d, end=%d>", t.Kind, t.Start, t.End)
}

// Keyword reports whether a string is a .flow keyword, returning its [Kind]
// and true if it is. Otherwise [Ident] and false are returned.
func Keyword(text string) (kind Kind, ok bool) {
	switch text {
	case "var":
		return KeywordVar, true
	case "scope":
		return KeywordScope, true
	case "run":
		return KeywordRun, true
	case "get":
		return KeywordGet, true
	case "schedule":
		return KeywordSchedule, true
	case "drain":
		return KeywordDrain, true
	default:
		return Ident, false
	}
}

// IsKeyword reports whether the given kind is a .flow keyword.
func IsKeyword(kind Kind) bool {
	return kind >= KeywordVar && kind <= KeywordDrain
}
