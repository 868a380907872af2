package source

// Kind tags the variant of a Command. Go has no sum types, so Command is a
// single struct carrying only the fields relevant to its Kind; callers must
// switch on Kind before reading payload fields.
type Kind uint8

const (
	KindIntLiteral Kind = iota
	KindCharLiteral
	KindDup
	KindDrop
	KindSwap
	KindRot
	KindPick
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindNeg
	KindBitAnd
	KindBitOr
	KindBitNot
	KindGt
	KindEq
	KindLambdaDefinition // parser output only
	KindLambdaReference  // analyzer output only
	KindExec
	KindConditional
	KindWhile
	KindVar
	KindStore
	KindLoad
	KindReadChar
	KindWriteChar
	KindStringLiteral
	KindWriteInt
	KindFlush
	KindComment
)

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

var kindNames = [...]string{
	"IntLiteral", "CharLiteral", "Dup", "Drop", "Swap", "Rot", "Pick",
	"Add", "Sub", "Mul", "Div", "Neg", "BitAnd", "BitOr", "BitNot", "Gt", "Eq",
	"LambdaDefinition", "LambdaReference", "Exec", "Conditional", "While",
	"Var", "Store", "Load", "ReadChar", "WriteChar", "StringLiteral",
	"WriteInt", "Flush", "Comment",
}

// Command is one parsed (or, after analysis, lowered) FALSE instruction.
// Only the fields that apply to Kind are meaningful:
//
//	IntLiteral   -> Int
//	CharLiteral  -> Char
//	Var          -> Char ('a'..='z')
//	LambdaDefinition -> Body (sequence of nested commands, parser output only)
//	LambdaReference  -> ID (analyzer output only)
//	StringLiteral, Comment -> Str
type Command struct {
	Kind Kind
	Int  uint64
	Char rune
	Str  string
	Body []Instruction
	ID   uint64
}

// Instruction pairs a Command with the Span of source text it was parsed
// from.
type Instruction struct {
	Command Command
	Span    Span
}

// Lambda is a flat, ordered sequence of instructions, identified by a
// stable id after analysis.
type Lambda []Instruction

// Program is the analyzer's output: a flat, id-keyed table of lambdas plus
// the table of interned string literals. It is immutable once built.
//
// Invariants (see spec §3 and §8):
//   - MainID is a key of Lambdas.
//   - every LambdaReference(id) appearing in any Lambda is a key of Lambdas.
//   - no LambdaDefinition appears anywhere in a Program.
//   - for every StringLiteral(s) appearing in any Lambda, StringID(s) is a
//     key of Strings and Strings[StringID(s)] == s.
type Program struct {
	MainID  uint64
	Lambdas map[uint64]Lambda
	Strings map[uint64]string
}

// Main returns the program's entry-point lambda.
func (p *Program) Main() Lambda {
	return p.Lambdas[p.MainID]
}
