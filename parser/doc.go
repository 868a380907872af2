// Package parser implements the hand-written lexer/parser for FALSE.
//
// A Parser walks the source text once, character by character, and hands
// back a lazy sequence of (source.Command, source.Span) pairs via repeated
// calls to Scan, terminating when the source is exhausted. Whitespace ({space,
// tab, CR, LF}) between commands is skipped silently; tabs advance columns
// according to Config.TabWidth.
//
// Dispatch on the character following whitespace:
//
//	0-9        IntLiteral  - maximal run of digits, parsed unsigned 64-bit
//	'          CharLiteral - exactly one following UTF-8 scalar
//	$ % \ @ ø  Dup Drop Swap Rot Pick
//	+ - * / _ & | ~   Add Sub Mul Div Neg BitAnd BitOr BitNot
//	> =        Gt Eq
//	[          LambdaDefinition, recursively parsed until the matching ']'
//	! ? # : ; ^ , . ß   Exec Conditional While Store Load ReadChar WriteChar WriteInt Flush
//	"          StringLiteral
//	{          Comment
//	a-z        Var
//
// String literals and comments each have a configurable decoding mode; see
// Config.StringEscapeSequences and Config.BalanceComments.
package parser
