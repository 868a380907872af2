package parser

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/MixusMinimax/falsec/source"
)

// ErrorKind tags the variant of a ParseError (spec §4.1, §7).
type ErrorKind int

const (
	ErrUnexpectedToken ErrorKind = iota
	ErrMissingToken
	ErrParseInt
)

// ParseError is returned for any malformed FALSE source. Each error
// carries the position at which it was raised.
type ParseError struct {
	Kind ErrorKind
	// Token is the offending or expected character, depending on Kind.
	Token rune
	Pos   source.Pos
	cause error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrUnexpectedToken:
		return fmt.Sprintf("%s: unexpected token %q", e.Pos, e.Token)
	case ErrMissingToken:
		return fmt.Sprintf("%s: missing token %q", e.Pos, e.Token)
	case ErrParseInt:
		return fmt.Sprintf("%s: %v", e.Pos, e.cause)
	default:
		return fmt.Sprintf("%s: parse error", e.Pos)
	}
}

func (e *ParseError) Unwrap() error { return e.cause }

func unexpectedToken(pos source.Pos, tok rune) error {
	return &ParseError{Kind: ErrUnexpectedToken, Token: tok, Pos: pos}
}

func missingToken(pos source.Pos, tok rune) error {
	return &ParseError{Kind: ErrMissingToken, Token: tok, Pos: pos}
}

func parseIntError(pos source.Pos, cause error) error {
	return &ParseError{Kind: ErrParseInt, Pos: pos, cause: errors.Wrap(cause, "invalid integer literal")}
}

// errEOF is an internal sentinel used to terminate scanning. It is never
// surfaced through Err.
type eofSentinel struct{}

func (eofSentinel) Error() string { return "end of file" }

var errEOF error = eofSentinel{}
