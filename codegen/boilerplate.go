package codegen

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// mmapErrorLabel and mmapErrorLenLabel name the fixed message printed when
// the stack-reservation mmap fails.
func mmapErrorLabel() Label    { return NamedLabel("_mmap_error_msg") }
func mmapErrorLenLabel() Label { return NamedLabel("_mmap_error_msg_len") }

func errorMessageLabels(tag TypeTag) (Label, Label) {
	name := tagName(tag)
	return NamedLabel("_err_expected_" + name), NamedLabel("_err_expected_" + name + "_len")
}

func tagName(tag TypeTag) string {
	switch tag {
	case TagNumber:
		return "number"
	case TagLambda:
		return "lambda"
	case TagVariable:
		return "variable"
	default:
		return "value"
	}
}

// emitBoilerplate appends everything every emitted program needs besides
// the translation of its own lambdas (spec §4.4's "Boilerplate" and
// "Serializer" entry-point requirements): bss reservations, rodata error
// messages and interned strings, the data section, runtime helpers, the
// mmap setup prologue, and the _start entry point.
func emitBoilerplate(l *lowering) {
	emitBSS(l)
	emitRodata(l)
	emitData(l)
	emitEntry(l)
	emitPrintString(l)
	emitPrintChar(l)
	emitFlushStdout(l)
	emitPrintDecimal(l)
}

func emitBSS(l *lowering) {
	l.asm.emit(".bss", Instruction{Op: OpLabelDef, Label: Label{Kind: LabelVariables}})
	l.asm.emit(".bss", Instruction{Op: OpReserve, Count: 32 * 8, Text: "resb"})
	l.asm.emit(".bss", Instruction{Op: OpLabelDef, Label: Label{Kind: LabelVariableTypes}})
	l.asm.emit(".bss", Instruction{Op: OpReserve, Count: 32, Text: "resb"})
	l.asm.emit(".bss", Instruction{Op: OpLabelDef, Label: Label{Kind: LabelDecimalBuffer}})
	l.asm.emit(".bss", Instruction{Op: OpReserve, Count: 32, Text: "resb"})
	l.asm.emit(".bss", Instruction{Op: OpLabelDef, Label: Label{Kind: LabelStdoutBuffer}})
	l.asm.emit(".bss", Instruction{Op: OpReserve, Count: l.cfg.StdoutBufferSize, Text: "resb"})
}

func emitRodata(l *lowering) {
	emitMessage(l, mmapErrorLabel(), mmapErrorLenLabel(), "MMAP Failed! Exiting.\n")
	for _, tag := range []TypeTag{TagNumber, TagLambda, TagVariable} {
		msg, msgLen := errorMessageLabels(tag)
		emitMessage(l, msg, msgLen, fmt.Sprintf("Expected to pop %s from stack!\n", tagName(tag)))
	}

	ids := lo.Keys(l.program.Strings)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		emitMessage(l, StringLiteralLabel(id), StringLiteralLenLabel(id), l.program.Strings[id])
	}
}

func emitMessage(l *lowering, lbl, lenLbl Label, text string) {
	l.asm.emit(".rodata", Instruction{Op: OpLabelDef, Label: lbl})
	l.asm.emit(".rodata", Instruction{Op: OpDB, Bytes: []byte(text)})
	l.asm.emit(".rodata", Instruction{Op: OpEqu, Label: lenLbl, Operands: []Operand{
		{Kind: OperandLabel, Lbl: Label{Kind: LabelNamed, Name: "$"}},
		// serializer renders OpEqu as "<Label> equ $ - <lbl>"; the lbl operand
		// carries the subtracted symbol.
		{Kind: OperandLabel, Lbl: lbl},
	}})
}

func emitData(l *lowering) {
	l.asm.emit(".data", Instruction{Op: OpLabelDef, Label: Label{Kind: LabelStdoutLen}})
	l.asm.emit(".data", Instruction{Op: OpDQ, Operands: []Operand{Imm(0)}})
}

// emitEntry emits the mmap setup prologue and the _start symbol that calls
// into the main lambda, flushes stdout, and exits cleanly (spec §4.4).
func emitEntry(l *lowering) {
	l.asm.emit(".text", Instruction{Op: OpGlobal, Label: NamedLabel("_start")})
	l.asm.emit(".text", Instruction{Op: OpLabelDef, Label: NamedLabel("_start")})

	emitMmap(l, StackBase, l.cfg.StackSize)
	if l.typeSafetyOn() {
		emitMmap(l, TypeStackBase, l.cfg.StackSize/8)
	}
	l.emit(OpMov, Reg(StackCounter), Imm(0))

	l.emit(OpCall, LabelOperand(LambdaLabel(l.program.MainID)))
	l.emit(OpCall, LabelOperand(Label{Kind: LabelFlushStdout}))
	l.emit(OpMov, Reg(RAX), Imm(60))
	l.emit(OpMov, Reg(RDI), Imm(0))
	l.emit(OpSyscall)
}

// emitMmap reserves size bytes anonymously via mmap(2) and stores the
// resulting base address in dst, exiting with the mmap-failure message on
// error.
func emitMmap(l *lowering, dst Register, size int64) {
	l.emitComment("mmap(NULL, size, PROT_READ|PROT_WRITE, MAP_PRIVATE|MAP_ANONYMOUS, -1, 0)")
	l.emit(OpMov, Reg(RAX), Imm(9)) // sys_mmap
	l.emit(OpMov, Reg(RDI), Imm(0))
	l.emit(OpMov, Reg(RSI), Imm(size))
	l.emit(OpMov, Reg(RDX), Imm(3))                      // PROT_READ|PROT_WRITE
	l.emit(OpMov, Reg(Register{SizeR, RegR10}), Imm(34)) // MAP_PRIVATE|MAP_ANONYMOUS
	l.emit(OpMov, Reg(Register{SizeR, RegR8}), Imm(-1))
	l.emit(OpMov, Reg(Register{SizeR, RegR9}), Imm(0))
	l.emit(OpSyscall)
	// the raw syscall reports failure as a negative errno
	l.emit(OpTest, Reg(RAX), Reg(RAX))
	ok := l.labels.local()
	l.emit(OpJns, LabelOperand(ok))
	l.emit(OpMov, Reg(RDI), Imm(2))
	msg, msgLen := mmapErrorLabel(), mmapErrorLenLabel()
	l.emit(OpLea, Reg(RSI), Mem(Address{Label: &msg}))
	l.emit(OpMov, Reg(RDX), LabelOperand(msgLen))
	l.emit(OpCall, LabelOperand(Label{Kind: LabelPrintString}))
	l.emit(OpMov, Reg(RAX), Imm(60))
	l.emit(OpMov, Reg(RDI), Imm(1))
	l.emit(OpSyscall)
	l.emitLabel(ok)
	l.emit(OpMov, Reg(dst), Reg(RAX))
}

// emitPrintString implements print_string(rdi=fd, rsi=ptr, rdx=len) (spec
// §4.4): buffered when writing to fd 1, a direct syscall otherwise or when
// the message can't fit even after a flush.
func emitPrintString(l *lowering) {
	l.emitLabel(Label{Kind: LabelPrintString})
	l.emit(OpTest, Reg(RDX), Reg(RDX))
	ret := l.labels.local()
	l.emit(OpJz, LabelOperand(ret))

	notStdout := l.labels.local()
	l.emit(OpCmp, Reg(RDI), Imm(1))
	l.emit(OpJne, LabelOperand(notStdout))

	room := l.labels.local()
	direct := l.labels.local()
	l.emit(OpMov, Reg(RAX), Mem(Address{Label: stdoutLenPtr()}))
	l.emit(OpMov, Reg(RCX), Imm(l.cfg.StdoutBufferSize))
	l.emit(OpSub, Reg(RCX), Reg(RAX))
	l.emit(OpCmp, Reg(RCX), Reg(RDX))
	l.emit(OpJnl, LabelOperand(room))
	// FlushStdout clobbers rax/rdi/rsi/rdx: keep ptr/len, and restore
	// rdi (fd 1) and rax (StdoutLen, now 0) by hand.
	l.emit(OpPush, Reg(RSI))
	l.emit(OpPush, Reg(RDX))
	l.emit(OpCall, LabelOperand(Label{Kind: LabelFlushStdout}))
	l.emit(OpPop, Reg(RDX))
	l.emit(OpPop, Reg(RSI))
	l.emit(OpMov, Reg(RDI), Imm(1))
	l.emit(OpMov, Reg(RAX), Imm(0))
	l.emit(OpMov, Reg(RCX), Imm(l.cfg.StdoutBufferSize))
	l.emit(OpCmp, Reg(RCX), Reg(RDX))
	l.emit(OpJnl, LabelOperand(room))
	l.emit(OpJmp, LabelOperand(direct))

	l.emitLabel(room)
	l.emit(OpLea, Reg(RDI), Mem(Address{Label: stdoutBufferPtr(), Index: regPtr(RAX), Stride: 1}))
	l.emit(OpMov, Reg(RCX), Reg(RDX))
	l.emit(OpCld)
	l.emit(OpRepMovsb)
	l.emit(OpAdd, Mem(Address{Label: stdoutLenPtr()}), Reg(RDX))
	l.emit(OpJmp, LabelOperand(ret))

	l.emitLabel(notStdout)
	// fd != 1: flush buffered stdout bytes first (spec §4.4). FlushStdout
	// clobbers rax/rdi/rsi/rdx, so rdi/rsi/rdx (fd/ptr/len for the direct
	// write below) are saved around the call.
	l.emit(OpPush, Reg(RDI))
	l.emit(OpPush, Reg(RSI))
	l.emit(OpPush, Reg(RDX))
	l.emit(OpCall, LabelOperand(Label{Kind: LabelFlushStdout}))
	l.emit(OpPop, Reg(RDX))
	l.emit(OpPop, Reg(RSI))
	l.emit(OpPop, Reg(RDI))
	l.emitLabel(direct)
	l.emit(OpMov, Reg(RAX), Imm(1)) // sys_write
	l.emit(OpSyscall)

	l.emitLabel(ret)
	l.emit(OpRet)
}

// emitPrintChar implements print_char(rdi=c): buffers one byte, flushing
// first if the buffer is full.
func emitPrintChar(l *lowering) {
	l.emitLabel(Label{Kind: LabelPrintChar})
	l.emit(OpMov, Reg(RAX), Mem(Address{Label: stdoutLenPtr()}))
	l.emit(OpCmp, Reg(RAX), Imm(l.cfg.StdoutBufferSize))
	notFull := l.labels.local()
	l.emit(OpJl, LabelOperand(notFull))
	l.emit(OpPush, Reg(RDI)) // FlushStdout clobbers rdi
	l.emit(OpCall, LabelOperand(Label{Kind: LabelFlushStdout}))
	l.emit(OpPop, Reg(RDI))
	l.emit(OpMov, Reg(RAX), Imm(0))
	l.emitLabel(notFull)
	l.emit(OpMov, Mem(Address{Label: stdoutBufferPtr(), Index: regPtr(RAX), Stride: 1, Override: SizeL, HasOverride: true}), Reg(DIL))
	l.emit(OpAdd, Mem(Address{Label: stdoutLenPtr()}), Imm(1))
	l.emit(OpRet)
}

// emitFlushStdout implements flush_stdout(): a single write(2) of the
// buffered bytes, then StdoutLen reset to 0.
func emitFlushStdout(l *lowering) {
	l.emitLabel(Label{Kind: LabelFlushStdout})
	l.emit(OpMov, Reg(RDX), Mem(Address{Label: stdoutLenPtr()}))
	l.emit(OpTest, Reg(RDX), Reg(RDX))
	ret := l.labels.local()
	l.emit(OpJz, LabelOperand(ret))
	l.emit(OpMov, Reg(RAX), Imm(1)) // sys_write
	l.emit(OpMov, Reg(RDI), Imm(1))
	l.emit(OpLea, Reg(RSI), Mem(Address{Label: stdoutBufferPtr()}))
	l.emit(OpSyscall)
	l.emit(OpMov, Mem(Address{Label: stdoutLenPtr()}), Imm(0))
	l.emitLabel(ret)
	l.emit(OpRet)
}

// emitPrintDecimal implements print_decimal(rdi=n): a signed decimal
// conversion into DecimalBuffer that round-trips INT64_MIN correctly by
// dividing the still-negative value and negating each remainder digit,
// never the signed value itself (spec §4.4, §9; original_source's
// algorithm for this exact edge case).
func emitPrintDecimal(l *lowering) {
	l.emitLabel(Label{Kind: LabelPrintDecimal})
	l.emit(OpMov, Reg(RAX), Mem(Address{Label: stdoutLenPtr()}))
	l.emit(OpMov, Reg(RCX), Imm(l.cfg.StdoutBufferSize-20))
	l.emit(OpCmp, Reg(RAX), Reg(RCX))
	room := l.labels.local()
	l.emit(OpJl, LabelOperand(room))
	l.emit(OpPush, Reg(RDI)) // FlushStdout clobbers rdi
	l.emit(OpCall, LabelOperand(Label{Kind: LabelFlushStdout}))
	l.emit(OpPop, Reg(RDI))
	l.emitLabel(room)

	l.emit(OpMov, Reg(RAX), Reg(RDI))
	l.emit(OpLea, Reg(RSI), Mem(Address{Label: decimalBufferLabelPtr(), Disp: 31}))
	l.emit(OpMov, Reg(RCX), Imm(0)) // digit count

	negative := l.labels.local()
	l.emit(OpTest, Reg(RAX), Reg(RAX))
	l.emit(OpJs, LabelOperand(negative))

	digitLoop := l.labels.local()
	done := l.labels.local()
	l.emit(OpMov, Reg(RBX), Imm(10))
	l.emitLabel(digitLoop)
	l.emit(OpCqo)
	l.emit(OpIDiv, Reg(RBX))
	l.emit(OpAdd, Reg(RDX), Imm('0'))
	l.emit(OpMov, Mem(Address{Base: &RSI, Override: SizeL, HasOverride: true}), Reg(Register{SizeL, RegDX}))
	l.emit(OpSub, Reg(RSI), Imm(1))
	l.emit(OpAdd, Reg(RCX), Imm(1))
	l.emit(OpTest, Reg(RAX), Reg(RAX))
	l.emit(OpJnz, LabelOperand(digitLoop))
	l.emit(OpJmp, LabelOperand(done))

	l.emitLabel(negative)
	// Accumulate the magnitude one digit at a time while still negative,
	// so INT64_MIN (whose positive magnitude has no int64 representation)
	// never needs to be negated outright.
	l.emit(OpMov, Reg(RBX), Imm(10))
	negLoop := l.labels.local()
	l.emitLabel(negLoop)
	l.emit(OpCqo)
	l.emit(OpIDiv, Reg(RBX))
	l.emit(OpMov, Reg(Register{SizeE, RegDX}), Reg(Register{SizeE, RegDX}))
	l.emit(OpNeg, Reg(RDX))
	l.emit(OpAdd, Reg(RDX), Imm('0'))
	l.emit(OpMov, Mem(Address{Base: &RSI, Override: SizeL, HasOverride: true}), Reg(Register{SizeL, RegDX}))
	l.emit(OpSub, Reg(RSI), Imm(1))
	l.emit(OpAdd, Reg(RCX), Imm(1))
	l.emit(OpTest, Reg(RAX), Reg(RAX))
	l.emit(OpJnz, LabelOperand(negLoop))
	l.emit(OpMov, Mem(Address{Base: &RSI, Override: SizeL, HasOverride: true}), Imm('-'))
	l.emit(OpSub, Reg(RSI), Imm(1))
	l.emit(OpAdd, Reg(RCX), Imm(1))

	l.emitLabel(done)
	l.emit(OpLea, Reg(RSI), Mem(Address{Base: &RSI, Disp: 1}))
	l.emit(OpMov, Reg(RDI), Imm(1))
	l.emit(OpMov, Reg(RDX), Reg(RCX))
	l.emit(OpCall, LabelOperand(Label{Kind: LabelPrintString}))
	l.emit(OpRet)
}

func stdoutBufferPtr() *Label { lbl := Label{Kind: LabelStdoutBuffer}; return &lbl }
func stdoutLenPtr() *Label    { lbl := Label{Kind: LabelStdoutLen}; return &lbl }

func regPtr(r Register) *Register { return &r }
