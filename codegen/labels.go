package codegen

import "fmt"

// LabelKind tags the variant of a Label (spec §4.4).
type LabelKind uint8

const (
	LabelLambda LabelKind = iota
	LabelLocal
	LabelStringLiteral
	LabelStringLiteralLen
	LabelNamed
	LabelPrintDecimal
	LabelPrintString
	LabelPrintChar
	LabelFlushStdout
	LabelStdoutBuffer
	LabelStdoutLen
	LabelDecimalBuffer
	LabelVariables
	LabelVariableTypes
)

// Label is a closed-set tagged assembly symbol. Rendered names follow fixed
// conventions so that StringLiteralLen(id) (emitted as an `equ $ - name`
// elsewhere) always refers to the same symbol as StringLiteral(id).
type Label struct {
	Kind LabelKind
	ID   uint64
	Name string // LabelNamed only
}

func (l Label) String() string {
	switch l.Kind {
	case LabelLambda:
		return fmt.Sprintf("_lambda_%03d", l.ID)
	case LabelLocal:
		return fmt.Sprintf("_local_%03d", l.ID)
	case LabelStringLiteral:
		return fmt.Sprintf("_string_%03d", l.ID)
	case LabelStringLiteralLen:
		return fmt.Sprintf("_string_%03d_len", l.ID)
	case LabelNamed:
		return l.Name
	case LabelPrintDecimal:
		return "_print_decimal"
	case LabelPrintString:
		return "_print_string"
	case LabelPrintChar:
		return "_print_char"
	case LabelFlushStdout:
		return "_flush_stdout"
	case LabelStdoutBuffer:
		return "_stdout_buffer"
	case LabelStdoutLen:
		return "_stdout_len"
	case LabelDecimalBuffer:
		return "_decimal_buffer"
	case LabelVariables:
		return "_variables"
	case LabelVariableTypes:
		return "_variable_types"
	default:
		return "_unknown_label"
	}
}

func LambdaLabel(id uint64) Label           { return Label{Kind: LabelLambda, ID: id} }
func StringLiteralLabel(id uint64) Label    { return Label{Kind: LabelStringLiteral, ID: id} }
func StringLiteralLenLabel(id uint64) Label { return Label{Kind: LabelStringLiteralLen, ID: id} }
func NamedLabel(name string) Label          { return Label{Kind: LabelNamed, Name: name} }

// labelGen hands out monotonically increasing Local labels, one sequence
// per lowering pass (spec §4.4: "a monotonically increasing label
// generator").
type labelGen struct{ next uint64 }

func (g *labelGen) local() Label {
	l := Label{Kind: LabelLocal, ID: g.next}
	g.next++
	return l
}
