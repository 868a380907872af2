package codegen

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// printableRun reports whether b is one of the bytes the serializer is
// willing to fold into a quoted string literal inside a DB directive (spec
// §4.4): A-Z a-z 0-9 space , . ! ?
func printableRun(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == ' ' || b == ',' || b == '.' || b == '!' || b == '?':
		return true
	default:
		return false
	}
}

// Serialize writes asm as textual assembly in a format acceptable to a
// standard x86-64 ELF64 assembler (spec §4.4).
func Serialize(asm *Assembly, w io.Writer) error {
	bw := bufio.NewWriter(w)
	s := &serializer{w: bw}
	for _, section := range asm.Sections {
		s.writeSection(section)
	}
	if s.err != nil {
		return ioError(s.err)
	}
	return errors.Wrap(bw.Flush(), "flush assembly output")
}

type serializer struct {
	w   *bufio.Writer
	err error
}

func (s *serializer) printf(format string, args ...interface{}) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func (s *serializer) writeSection(sec *Section) {
	s.printf("\tSECTION %s\n", sec.Name)
	for i := 0; i < len(sec.Instr); i++ {
		instr := sec.Instr[i]
		if instr.Op == OpLabelDef && i+1 < len(sec.Instr) && coLocates(sec.Instr[i+1].Op) {
			s.printf("%s:\t", instr.Label.String())
			s.writeInstruction(sec.Instr[i+1])
			i++
			continue
		}
		switch instr.Op {
		case OpLabelDef:
			s.printf("%s:\n", instr.Label.String())
		case OpGlobal:
			s.printf("\tglobal %s\n", instr.Label.String())
		case OpComment:
			s.printf("\t; %s\n", instr.Text)
		default:
			s.printf("\t")
			s.writeInstruction(instr)
		}
	}
}

// coLocates reports whether op is a directive allowed to sit on the same
// line as the label that immediately precedes it (spec §4.4).
func coLocates(op Op) bool {
	switch op {
	case OpDB, OpDW, OpDQ, OpEqu, OpReserve:
		return true
	default:
		return false
	}
}

func (s *serializer) writeInstruction(instr Instruction) {
	switch instr.Op {
	case OpDB:
		s.printf("db %s\n", formatDB(instr.Bytes))
	case OpDW:
		s.printf("dw %s\n", s.operandList(instr.Operands))
	case OpDQ:
		s.printf("dq %s\n", s.operandList(instr.Operands))
	case OpEqu:
		// Operands[0]/[1] are "$" and the base label; rendered as "equ $ - base".
		s.printf("%s equ %s - %s\n", instr.Label.String(), s.operand(instr.Operands[0]), s.operand(instr.Operands[1]))
	case OpReserve:
		s.printf("%s %d\n", instr.Text, instr.Count)
	case OpComment:
		s.printf("; %s\n", instr.Text)
	default:
		mnem, ok := mnemonics[instr.Op]
		if !ok {
			mnem = "???"
		}
		if len(instr.Operands) == 0 {
			s.printf("%s\n", mnem)
			return
		}
		s.printf("%s %s\n", mnem, s.operandList(instr.Operands))
	}
}

var mnemonics = map[Op]string{
	OpAdd: "add", OpSub: "sub", OpMul: "imul", OpIDiv: "idiv",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpNot: "not", OpNeg: "neg",
	OpMov: "mov", OpMovZX: "movzx", OpLea: "lea",
	OpCmp: "cmp", OpTest: "test",
	OpSetE: "sete", OpSetG: "setg",
	OpJmp: "jmp", OpJe: "je", OpJne: "jne", OpJz: "jz", OpJnz: "jnz",
	OpJs: "js", OpJns: "jns", OpJg: "jg", OpJng: "jng", OpJl: "jl", OpJnl: "jnl",
	OpCall: "call", OpRet: "ret", OpPush: "push", OpPop: "pop",
	OpNop: "nop", OpSyscall: "syscall", OpCqo: "cqo", OpCld: "cld",
	OpRepMovsb: "rep movsb", OpRepMovsq: "rep movsq",
}

func (s *serializer) operandList(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = s.operand(op)
	}
	return strings.Join(parts, ", ")
}

func (s *serializer) operand(op Operand) string {
	switch op.Kind {
	case OperandRegister:
		return registerName(op.Reg)
	case OperandImmediate:
		return fmt.Sprintf("%d", op.Imm)
	case OperandMemory:
		return formatAddress(op.Mem)
	case OperandLabel:
		return op.Lbl.String()
	default:
		return "?"
	}
}

var registerNames = map[RegName][5]string{
	RegAX:  {"al", "ah", "ax", "eax", "rax"},
	RegBX:  {"bl", "bh", "bx", "ebx", "rbx"},
	RegCX:  {"cl", "ch", "cx", "ecx", "rcx"},
	RegDX:  {"dl", "dh", "dx", "edx", "rdx"},
	RegSI:  {"sil", "sil", "si", "esi", "rsi"},
	RegDI:  {"dil", "dil", "di", "edi", "rdi"},
	RegSP:  {"spl", "spl", "sp", "esp", "rsp"},
	RegBP:  {"bpl", "bpl", "bp", "ebp", "rbp"},
	RegR8:  {"r8b", "r8b", "r8w", "r8d", "r8"},
	RegR9:  {"r9b", "r9b", "r9w", "r9d", "r9"},
	RegR10: {"r10b", "r10b", "r10w", "r10d", "r10"},
	RegR11: {"r11b", "r11b", "r11w", "r11d", "r11"},
	RegR12: {"r12b", "r12b", "r12w", "r12d", "r12"},
	RegR13: {"r13b", "r13b", "r13w", "r13d", "r13"},
	RegR14: {"r14b", "r14b", "r14w", "r14d", "r14"},
	RegR15: {"r15b", "r15b", "r15w", "r15d", "r15"},
}

func registerName(r Register) string {
	names, ok := registerNames[r.Name]
	if !ok {
		return "?"
	}
	return names[r.Size]
}

func sizeKeyword(sz Size) string {
	switch sz {
	case SizeL, SizeH:
		return "byte"
	case SizeW:
		return "word"
	case SizeE:
		return "dword"
	case SizeR:
		return "qword"
	default:
		return ""
	}
}

func formatAddress(a Address) string {
	var b strings.Builder
	if a.HasOverride {
		b.WriteString(sizeKeyword(a.Override))
		b.WriteByte(' ')
	}
	b.WriteByte('[')
	wrote := false
	if a.Label != nil {
		b.WriteString(a.Label.String())
		wrote = true
	}
	if a.Base != nil {
		if wrote {
			b.WriteString(" + ")
		}
		b.WriteString(registerName(*a.Base))
		wrote = true
	}
	if a.Index != nil {
		stride := a.Stride
		if stride == 0 {
			stride = 1
		}
		if wrote {
			b.WriteString(" + ")
		}
		b.WriteByte('(')
		b.WriteString(registerName(*a.Index))
		if a.IndexOffset != 0 {
			fmt.Fprintf(&b, " + %d", a.IndexOffset)
		}
		b.WriteByte(')')
		fmt.Fprintf(&b, "*%d", stride)
		wrote = true
	}
	if a.Disp != 0 {
		if wrote {
			if a.Disp > 0 {
				fmt.Fprintf(&b, " + %d", a.Disp)
			} else {
				fmt.Fprintf(&b, " - %d", -a.Disp)
			}
		} else {
			fmt.Fprintf(&b, "%d", a.Disp)
		}
	}
	b.WriteByte(']')
	return b.String()
}

// formatDB renders a DB byte sequence per spec §4.4: runs of printable
// ASCII merge into quoted substrings; other bytes render as 0xNN; groups
// are comma-separated.
func formatDB(data []byte) string {
	var groups []string
	i := 0
	for i < len(data) {
		if printableRun(data[i]) {
			j := i
			for j < len(data) && printableRun(data[j]) {
				j++
			}
			groups = append(groups, quoteRun(data[i:j]))
			i = j
			continue
		}
		groups = append(groups, fmt.Sprintf("0x%02X", data[i]))
		i++
	}
	if len(groups) == 0 {
		return `""`
	}
	return strings.Join(groups, ", ")
}

// quoteRun wraps a run of printableRun bytes in quotes. None of the bytes
// printableRun accepts need escaping.
func quoteRun(run []byte) string {
	return `"` + string(run) + `"`
}
