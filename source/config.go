package source

import "github.com/pkg/errors"

// TypeSafety selects how strictly the interpreter and code generator
// enforce value-kind checks when popping a typed argument off the data
// stack. Levels are ordered from most permissive to strictest; every
// program accepted at a stricter level is accepted at every laxer one
// (spec §8, property 6).
type TypeSafety int

const (
	TypeSafetyNone TypeSafety = iota
	TypeSafetyLambda
	TypeSafetyLambdaAndVar
	TypeSafetyFull
)

func (t TypeSafety) String() string {
	switch t {
	case TypeSafetyNone:
		return "none"
	case TypeSafetyLambda:
		return "lambda"
	case TypeSafetyLambdaAndVar:
		return "lambda-and-var"
	case TypeSafetyFull:
		return "full"
	default:
		return "unknown"
	}
}

// ParseTypeSafety parses the CLI/config spelling of a TypeSafety level.
func ParseTypeSafety(s string) (TypeSafety, error) {
	switch s {
	case "none", "":
		return TypeSafetyNone, nil
	case "lambda":
		return TypeSafetyLambda, nil
	case "lambda-and-var":
		return TypeSafetyLambdaAndVar, nil
	case "full":
		return TypeSafetyFull, nil
	default:
		return TypeSafetyNone, errors.Errorf("unknown type-safety level %q", s)
	}
}

// Config bundles every knob recognized by the lexer/parser, analyzer,
// interpreter and code generator (spec §3).
type Config struct {
	TabWidth              int        `toml:"tab_width" yaml:"tab_width" json:"tab_width"`
	BalanceComments       bool       `toml:"balance_comments" yaml:"balance_comments" json:"balance_comments"`
	StringEscapeSequences bool       `toml:"string_escape_sequences" yaml:"string_escape_sequences" json:"string_escape_sequences"`
	TypeSafety            TypeSafety `toml:"-" yaml:"-" json:"-"`
	WriteCommandComments  bool       `toml:"write_command_comments" yaml:"write_command_comments" json:"write_command_comments"`
	StdoutBufferSize      int64      `toml:"stdout_buffer_size" yaml:"stdout_buffer_size" json:"stdout_buffer_size"`
	StackSize             int64      `toml:"stack_size" yaml:"stack_size" json:"stack_size"`
}

// DefaultConfig returns the Config with every default from spec §3.
func DefaultConfig() Config {
	return Config{
		TabWidth:              2,
		BalanceComments:       false,
		StringEscapeSequences: false,
		TypeSafety:            TypeSafetyNone,
		WriteCommandComments:  false,
		StdoutBufferSize:      8192,
		StackSize:             65536,
	}
}
