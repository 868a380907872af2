package codegen

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/MixusMinimax/falsec/source"
)

// Generate lowers program into an Assembly ready for Serialize, following
// the translation contract of spec §4.4.
func Generate(program *source.Program, cfg source.Config) (*Assembly, error) {
	if cfg.StackSize%8 != 0 {
		return nil, invalidStackSize(cfg.StackSize)
	}
	l := &lowering{
		program: program,
		cfg:     cfg,
		asm:     &Assembly{},
	}
	emitBoilerplate(l)

	ids := lo.Keys(program.Lambdas)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := l.lowerLambda(id, program.Lambdas[id]); err != nil {
			return nil, err
		}
	}
	return l.asm, nil
}

type lowering struct {
	program *source.Program
	cfg     source.Config
	asm     *Assembly
	labels  labelGen
}

func (l *lowering) emit(op Op, operands ...Operand) {
	l.asm.emit(".text", Instruction{Op: op, Operands: operands})
}

func (l *lowering) emitLabel(lbl Label) {
	l.asm.emit(".text", Instruction{Op: OpLabelDef, Label: lbl})
}

func (l *lowering) emitComment(text string) {
	l.asm.emit(".text", Instruction{Op: OpComment, Text: text})
}

func (l *lowering) typeSafetyOn() bool {
	return l.cfg.TypeSafety != source.TypeSafetyNone
}

func shouldVerify(tag TypeTag, ts source.TypeSafety) bool {
	switch ts {
	case source.TypeSafetyNone:
		return false
	case source.TypeSafetyLambda:
		return tag == TagLambda
	case source.TypeSafetyLambdaAndVar:
		return tag == TagLambda || tag == TagVariable
	case source.TypeSafetyFull:
		return true
	default:
		return false
	}
}

func stackSlot(offset int64) Address {
	base, idx := StackBase, StackCounter
	return Address{Base: &base, Index: &idx, IndexOffset: offset, Stride: 8}
}

func typeSlot(offset int64) Address {
	base, idx := TypeStackBase, StackCounter
	return Address{Base: &base, Index: &idx, IndexOffset: offset, Stride: 1, Override: SizeL, HasOverride: true}
}

// tagSelector picks the tag byte written alongside a pushed value, or
// checked against a popped one: either a fixed TypeTag, or "whatever is
// currently in CUR_TYPE" (spec §4.4's push(operand, tag_selector)).
type tagSelector struct {
	current bool
	tag     TypeTag
}

func fixedTag(t TypeTag) tagSelector { return tagSelector{tag: t} }

var currentTag = tagSelector{current: true}

// push stores src at the top data-stack slot, writes its tag if type
// safety is on, and advances STACK_COUNTER.
func (l *lowering) push(src Operand, sel tagSelector) {
	l.emit(OpMov, Mem(stackSlot(0)), src)
	if l.typeSafetyOn() {
		if sel.current {
			l.emit(OpMov, Mem(typeSlot(0)), Reg(CurTypeByte))
		} else {
			l.emit(OpMov, Mem(typeSlot(0)), Imm(int64(sel.tag)))
		}
	}
	l.emit(OpAdd, Reg(StackCounter), Imm(1))
}

// pop decrements STACK_COUNTER and loads the (now top) slot into dst,
// verifying its tag first when sel names a concrete tag that the current
// type-safety level checks.
func (l *lowering) pop(dst Register, sel tagSelector) {
	l.emit(OpSub, Reg(StackCounter), Imm(1))
	l.popLoad(dst, sel)
}

// popAny pops without verification, regardless of type safety level, but
// still refreshes CUR_TYPE from the type-tag shadow stack — spec §4.4
// defines pop_any as "as above but without verification", not "without the
// load". Callers that push(reg, currentTag) after popAny/peekAny depend on
// CUR_TYPE holding the popped/peeked value's real tag.
func (l *lowering) popAny(dst Register) {
	l.emit(OpSub, Reg(StackCounter), Imm(1))
	if l.typeSafetyOn() {
		l.emit(OpMovZX, Reg(CurType), Mem(typeSlot(0)))
	}
	l.emit(OpMov, Reg(dst), Mem(stackSlot(0)))
}

func (l *lowering) popLoad(dst Register, sel tagSelector) {
	if l.typeSafetyOn() && !sel.current && shouldVerify(sel.tag, l.cfg.TypeSafety) {
		l.emit(OpMovZX, Reg(CurType), Mem(typeSlot(0)))
		l.verifyCurrent(sel.tag)
	} else if l.typeSafetyOn() {
		l.emit(OpMovZX, Reg(CurType), Mem(typeSlot(0)))
	}
	l.emit(OpMov, Reg(dst), Mem(stackSlot(0)))
}

// peek reads the top slot without consuming it.
func (l *lowering) peek(dst Register, sel tagSelector) {
	if l.typeSafetyOn() && !sel.current && shouldVerify(sel.tag, l.cfg.TypeSafety) {
		l.emit(OpMovZX, Reg(CurType), Mem(typeSlot(-1)))
		l.verifyCurrent(sel.tag)
	}
	l.emit(OpMov, Reg(dst), Mem(stackSlot(-1)))
}

// peekAny reads the top slot without consuming it or verifying its tag, but
// still refreshes CUR_TYPE (see popAny).
func (l *lowering) peekAny(dst Register) {
	if l.typeSafetyOn() {
		l.emit(OpMovZX, Reg(CurType), Mem(typeSlot(-1)))
	}
	l.emit(OpMov, Reg(dst), Mem(stackSlot(-1)))
}

// replace overwrites the top slot in place (same index, no counter change).
func (l *lowering) replace(src Operand, sel tagSelector) {
	l.emit(OpMov, Mem(stackSlot(-1)), src)
	if l.typeSafetyOn() {
		if sel.current {
			l.emit(OpMov, Mem(typeSlot(-1)), Reg(CurTypeByte))
		} else {
			l.emit(OpMov, Mem(typeSlot(-1)), Imm(int64(sel.tag)))
		}
	}
}

// verifyCurrent emits the compare-and-trap sequence of spec §4.4: CUR_TYPE
// is expected to already hold the tag to check.
func (l *lowering) verifyCurrent(tag TypeTag) {
	ok := l.labels.local()
	l.emit(OpCmp, Reg(CurType), Imm(int64(tag)))
	l.emit(OpJe, LabelOperand(ok))
	l.emitTypeError(tag)
	l.emitLabel(ok)
}

func (l *lowering) emitTypeError(tag TypeTag) {
	msg, msgLen := errorMessageLabels(tag)
	l.emit(OpMov, Reg(RDI), Imm(2))
	l.emit(OpLea, Reg(RSI), Mem(Address{Label: &msg}))
	l.emit(OpMov, Reg(RDX), LabelOperand(msgLen))
	l.emit(OpCall, LabelOperand(Label{Kind: LabelPrintString}))
	// PrintString to fd 2 already flushed any buffered stdout bytes before
	// its direct write, but flush again explicitly so the exit below never
	// depends on that incidentally: any stdout bytes written before this
	// trap must still reach the program's output (spec §4.4, §7).
	l.emit(OpCall, LabelOperand(Label{Kind: LabelFlushStdout}))
	l.emit(OpMov, Reg(RAX), Imm(60))
	l.emit(OpMov, Reg(RDI), Imm(1))
	l.emit(OpSyscall)
}

// lowerLambda appends the translation of one lambda body under its stable
// label.
func (l *lowering) lowerLambda(id uint64, body source.Lambda) error {
	l.emitLabel(LambdaLabel(id))
	for _, instr := range body {
		if err := l.lowerCommand(instr); err != nil {
			return err
		}
	}
	l.emit(OpRet)
	return nil
}

func (l *lowering) lowerCommand(instr source.Instruction) error {
	cmd := instr.Command
	pos := instr.Span.Start.String()
	if l.cfg.WriteCommandComments {
		l.emitComment(instr.Span.Source)
	}
	switch cmd.Kind {
	case source.KindIntLiteral:
		l.push(Imm(int64(cmd.Int)), fixedTag(TagNumber))
	case source.KindCharLiteral:
		l.push(Imm(int64(cmd.Char)), fixedTag(TagNumber))
	case source.KindDup:
		l.peekAny(RAX)
		l.push(Reg(RAX), currentTag)
	case source.KindDrop:
		l.emit(OpSub, Reg(StackCounter), Imm(1))
	case source.KindSwap:
		// swap the top two slots in place, tags alongside their values
		l.emit(OpMov, Reg(RAX), Mem(stackSlot(-1)))
		l.emit(OpMov, Reg(RBX), Mem(stackSlot(-2)))
		l.emit(OpMov, Mem(stackSlot(-1)), Reg(RBX))
		l.emit(OpMov, Mem(stackSlot(-2)), Reg(RAX))
		if l.typeSafetyOn() {
			l.emit(OpMovZX, Reg(RCX), Mem(typeSlot(-1)))
			l.emit(OpMovZX, Reg(RDX), Mem(typeSlot(-2)))
			l.emit(OpMov, Mem(typeSlot(-1)), Reg(DL))
			l.emit(OpMov, Mem(typeSlot(-2)), Reg(Register{SizeL, RegCX}))
		}
	case source.KindRot:
		l.popAny(RAX)
		l.popAny(RBX)
		l.popAny(RCX)
		l.push(Reg(RBX), currentTag)
		l.push(Reg(RAX), currentTag)
		l.push(Reg(RCX), currentTag)
	case source.KindPick:
		l.pop(RAX, fixedTag(TagNumber))
		l.emit(OpMov, Reg(RBX), Reg(StackCounter))
		l.emit(OpSub, Reg(RBX), Reg(RAX))
		l.emit(OpSub, Reg(RBX), Imm(1))
		l.emit(OpMov, Reg(RAX), Mem(Address{Base: &StackBase, Index: &RBX, Stride: 8}))
		if l.typeSafetyOn() {
			l.emit(OpMovZX, Reg(CurType), Mem(Address{Base: &TypeStackBase, Index: &RBX, Stride: 1, Override: SizeL, HasOverride: true}))
		}
		l.push(Reg(RAX), currentTag)
	case source.KindAdd:
		l.lowerArith(OpAdd)
	case source.KindSub:
		l.lowerSub()
	case source.KindMul:
		l.lowerArith(OpMul)
	case source.KindDiv:
		l.lowerDiv()
	case source.KindNeg:
		l.pop(RAX, fixedTag(TagNumber))
		l.emit(OpNeg, Reg(RAX))
		l.push(Reg(RAX), fixedTag(TagNumber))
	case source.KindBitAnd:
		l.lowerArith(OpAnd)
	case source.KindBitOr:
		l.lowerArith(OpOr)
	case source.KindBitNot:
		l.pop(RAX, fixedTag(TagNumber))
		l.emit(OpNot, Reg(RAX))
		l.push(Reg(RAX), fixedTag(TagNumber))
	case source.KindGt:
		l.lowerCompare(OpSetG)
	case source.KindEq:
		l.lowerCompare(OpSetE)
	case source.KindLambdaDefinition:
		return lambdaDefinitionNotAllowed(pos)
	case source.KindLambdaReference:
		l.emit(OpLea, Reg(RAX), Mem(Address{Label: lambdaLabelPtr(cmd.ID)}))
		l.push(Reg(RAX), fixedTag(TagLambda))
	case source.KindExec:
		l.pop(RAX, fixedTag(TagLambda))
		l.emit(OpCall, Reg(RAX))
	case source.KindConditional:
		l.lowerConditional()
	case source.KindWhile:
		l.lowerWhile()
	case source.KindVar:
		if cmd.Char < 'a' || cmd.Char > 'z' {
			return invalidVariableName(pos, cmd.Char)
		}
		l.emit(OpMov, Reg(RAX), Imm(int64(cmd.Char-'a')))
		l.push(Reg(RAX), fixedTag(TagVariable))
	case source.KindStore:
		l.lowerStore()
	case source.KindLoad:
		l.lowerLoad()
	case source.KindReadChar:
		l.lowerReadChar()
	case source.KindWriteChar:
		l.pop(RDI, fixedTag(TagNumber))
		l.emit(OpCall, LabelOperand(Label{Kind: LabelPrintChar}))
	case source.KindStringLiteral:
		id := source.StringID(cmd.Str)
		msg, msgLen := StringLiteralLabel(id), StringLiteralLenLabel(id)
		l.emit(OpMov, Reg(RDI), Imm(1))
		l.emit(OpLea, Reg(RSI), Mem(Address{Label: &msg}))
		l.emit(OpMov, Reg(RDX), LabelOperand(msgLen))
		l.emit(OpCall, LabelOperand(Label{Kind: LabelPrintString}))
	case source.KindWriteInt:
		l.pop(RDI, fixedTag(TagNumber))
		l.emit(OpCall, LabelOperand(Label{Kind: LabelPrintDecimal}))
	case source.KindFlush:
		l.emit(OpCall, LabelOperand(Label{Kind: LabelFlushStdout}))
	case source.KindComment:
		// no-op: comments carry no runtime behavior.
	default:
		return errors.Errorf("%s: unsupported command kind %s", pos, cmd.Kind)
	}
	return nil
}

func (l *lowering) lowerArith(op Op) {
	l.pop(RAX, fixedTag(TagNumber)) // a
	l.pop(RBX, fixedTag(TagNumber)) // b
	l.emit(op, Reg(RBX), Reg(RAX))
	l.push(Reg(RBX), fixedTag(TagNumber))
}

func (l *lowering) lowerSub() {
	l.pop(RAX, fixedTag(TagNumber)) // a
	l.pop(RBX, fixedTag(TagNumber)) // b
	l.emit(OpSub, Reg(RBX), Reg(RAX))
	l.push(Reg(RBX), fixedTag(TagNumber))
}

func (l *lowering) lowerDiv() {
	l.pop(RCX, fixedTag(TagNumber)) // a (divisor)
	l.pop(RAX, fixedTag(TagNumber)) // b (dividend)
	l.emit(OpCqo)
	l.emit(OpIDiv, Reg(RCX))
	l.push(Reg(RAX), fixedTag(TagNumber))
}

func (l *lowering) lowerCompare(setOp Op) {
	l.pop(RAX, fixedTag(TagNumber)) // a
	l.pop(RBX, fixedTag(TagNumber)) // b
	l.emit(OpCmp, Reg(RBX), Reg(RAX))
	l.emit(setOp, Reg(Register{SizeL, RegCX}))
	l.emit(OpMovZX, Reg(RCX), Reg(Register{SizeL, RegCX}))
	l.emit(OpNeg, Reg(RCX))
	l.push(Reg(RCX), fixedTag(TagNumber))
}

func (l *lowering) lowerConditional() {
	l.pop(RAX, fixedTag(TagLambda)) // body
	l.pop(RBX, fixedTag(TagNumber)) // condition
	skip := l.labels.local()
	l.emit(OpCmp, Reg(RBX), Imm(0))
	l.emit(OpJe, LabelOperand(skip))
	l.emit(OpCall, Reg(RAX))
	l.emitLabel(skip)
}

func (l *lowering) lowerWhile() {
	l.pop(RBX, fixedTag(TagLambda)) // body
	l.pop(RAX, fixedTag(TagLambda)) // cond
	l.emit(OpPush, Reg(RAX))
	l.emit(OpPush, Reg(RBX))

	top := l.labels.local()
	done := l.labels.local()
	l.emitLabel(top)
	l.emit(OpMov, Reg(RAX), Mem(Address{Base: &RSP, Disp: 8}))
	l.emit(OpCall, Reg(RAX))
	l.pop(RCX, fixedTag(TagNumber))
	l.emit(OpCmp, Reg(RCX), Imm(0))
	l.emit(OpJe, LabelOperand(done))
	l.emit(OpMov, Reg(RBX), Mem(Address{Base: &RSP}))
	l.emit(OpCall, Reg(RBX))
	l.emit(OpJmp, LabelOperand(top))
	l.emitLabel(done)
	l.emit(OpAdd, Reg(RSP), Imm(16))
}

func (l *lowering) lowerStore() {
	l.pop(RAX, fixedTag(TagVariable)) // key
	l.popAny(RBX)                    // value (any kind may be stored)
	l.emit(OpMov, Reg(RCX), Reg(RAX))
	l.emit(OpAnd, Reg(RCX), Imm(0x1f))
	l.emit(OpMov, Mem(Address{Label: variablesLabelPtr(), Index: &RCX, Stride: 8}), Reg(RBX))
	if l.typeSafetyOn() {
		l.emit(OpMov, Mem(Address{Label: variableTypesLabelPtr(), Index: &RCX, Stride: 1, Override: SizeL, HasOverride: true}), Reg(CurTypeByte))
	}
}

func (l *lowering) lowerLoad() {
	l.pop(RAX, fixedTag(TagVariable)) // key
	l.emit(OpAnd, Reg(RAX), Imm(0x1f))
	if l.typeSafetyOn() {
		l.emit(OpMovZX, Reg(CurType), Mem(Address{Label: variableTypesLabelPtr(), Index: &RAX, Stride: 1, Override: SizeL, HasOverride: true}))
	}
	l.emit(OpMov, Reg(RBX), Mem(Address{Label: variablesLabelPtr(), Index: &RAX, Stride: 8}))
	l.push(Reg(RBX), currentTag)
}

func (l *lowering) lowerReadChar() {
	l.emit(OpMov, Reg(RAX), Imm(0)) // sys_read
	l.emit(OpMov, Reg(RDI), Imm(0)) // fd=0
	l.emit(OpLea, Reg(RSI), Mem(Address{Label: decimalBufferLabelPtr()}))
	l.emit(OpMov, Reg(RDX), Imm(1))
	l.emit(OpSyscall)
	l.emit(OpCmp, Reg(RAX), Imm(1))
	eof := l.labels.local()
	done := l.labels.local()
	l.emit(OpJne, LabelOperand(eof))
	l.emit(OpMovZX, Reg(RAX), Mem(Address{Label: decimalBufferLabelPtr(), Override: SizeL, HasOverride: true}))
	l.emit(OpJmp, LabelOperand(done))
	l.emitLabel(eof)
	l.emit(OpMov, Reg(RAX), Imm(-1))
	l.emitLabel(done)
	l.push(Reg(RAX), fixedTag(TagNumber))
}

func lambdaLabelPtr(id uint64) *Label {
	lbl := LambdaLabel(id)
	return &lbl
}

func variablesLabelPtr() *Label {
	lbl := Label{Kind: LabelVariables}
	return &lbl
}

func variableTypesLabelPtr() *Label {
	lbl := Label{Kind: LabelVariableTypes}
	return &lbl
}

func decimalBufferLabelPtr() *Label {
	lbl := Label{Kind: LabelDecimalBuffer}
	return &lbl
}
