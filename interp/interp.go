package interp

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/MixusMinimax/falsec/internal/errio"
	"github.com/MixusMinimax/falsec/source"
)

type flusher interface {
	Flush() error
}

// Instance holds all state for one interpretation run: the data stack,
// call stack, variables, and the I/O streams FALSE programs read/write
// through. Instances are single-use: create one per Run.
type Instance struct {
	program *source.Program
	cfg     source.Config

	stack     []Value
	callStack []Frame
	vars      [26]Value
	varsSet   [26]bool

	lambdaID uint64
	pc       int
	pos      source.Pos
	loop     LoopState

	in  *bufio.Reader
	out *errio.Writer
}

// New creates an Instance ready to run program under cfg, reading from r
// and writing to w.
func New(program *source.Program, cfg source.Config, r io.Reader, w io.Writer) *Instance {
	return &Instance{
		program:  program,
		cfg:      cfg,
		lambdaID: program.MainID,
		in:       bufio.NewReader(r),
		out:      errio.New(w),
	}
}

// Run drives the interpreter to completion or to the first error.
func Run(r io.Reader, w io.Writer, program *source.Program, cfg source.Config) error {
	return New(program, cfg, r, w).Run()
}

// Run executes the program. See spec §4.3 for the execution loop and
// per-command semantics.
func (i *Instance) Run() error {
	for {
		lambda, ok := i.program.Lambdas[i.lambdaID]
		if !ok {
			return invalidLambdaReferenceError(i.lambdaID).withBacktrace(i.backtrace())
		}
		if i.pc >= len(lambda) {
			if len(i.callStack) == 0 {
				return nil
			}
			f := i.callStack[len(i.callStack)-1]
			i.callStack = i.callStack[:len(i.callStack)-1]
			i.lambdaID, i.pc, i.loop = f.LambdaID, f.PC, f.Loop
			continue
		}
		instr := lambda[i.pc]
		i.pc++
		i.pos = instr.Span.Start
		if err := i.exec(instr.Command); err != nil {
			if rerr, ok := err.(*Error); ok {
				if rerr.Backtrace == nil {
					// copy first: some errors are shared package-level values
					cp := *rerr
					rerr = cp.withBacktrace(i.backtrace())
				}
				return rerr
			}
			return ioError(errors.Wrap(err, "command execution failed")).withBacktrace(i.backtrace())
		}
	}
}

// backtrace walks the current position outward through the call stack,
// innermost frame first (spec §7).
func (i *Instance) backtrace() []BacktraceEntry {
	entries := []BacktraceEntry{{Pos: i.pos, LambdaID: i.lambdaID, PC: i.pc - 1}}
	for j := len(i.callStack) - 1; j >= 0; j-- {
		f := i.callStack[j]
		callSitePC := f.PC - 1
		pos := i.pos
		if lambda, ok := i.program.Lambdas[f.LambdaID]; ok && callSitePC >= 0 && callSitePC < len(lambda) {
			pos = lambda[callSitePC].Span.Start
		}
		entries = append(entries, BacktraceEntry{Pos: pos, LambdaID: f.LambdaID, PC: callSitePC})
	}
	return entries
}

// call pushes the current frame and transfers control to the start of
// lambda id.
func (i *Instance) call(id uint64) error {
	if _, ok := i.program.Lambdas[id]; !ok {
		return invalidLambdaReferenceError(id)
	}
	i.callStack = append(i.callStack, Frame{LambdaID: i.lambdaID, PC: i.pc, Loop: i.loop})
	i.lambdaID = id
	i.pc = 0
	i.loop = LoopState{Kind: LoopNone}
	return nil
}

func (i *Instance) push(v Value) { i.stack = append(i.stack, v) }

func (i *Instance) pop() (Value, error) {
	if len(i.stack) == 0 {
		return Value{}, errEmptyDataStack
	}
	v := i.stack[len(i.stack)-1]
	i.stack = i.stack[:len(i.stack)-1]
	return v, nil
}

func (i *Instance) popKind(want ValueKind) (Value, error) {
	v, err := i.pop()
	if err != nil {
		return Value{}, err
	}
	return Coerce(v, want, i.cfg.TypeSafety)
}

func (i *Instance) popInt() (int64, error) {
	v, err := i.popKind(ValueInteger)
	if err != nil {
		return 0, err
	}
	return v.Int, nil
}

func (i *Instance) popVar() (rune, error) {
	v, err := i.popKind(ValueVar)
	if err != nil {
		return 0, err
	}
	return v.Var, nil
}

func (i *Instance) popLambda() (uint64, error) {
	v, err := i.popKind(ValueLambda)
	if err != nil {
		return 0, err
	}
	return v.Lambda, nil
}

func (i *Instance) exec(cmd source.Command) error {
	switch cmd.Kind {
	case source.KindIntLiteral:
		i.push(Integer(int64(cmd.Int)))
	case source.KindCharLiteral:
		i.push(Integer(int64(cmd.Char)))
	case source.KindDup:
		if len(i.stack) == 0 {
			return errEmptyDataStack
		}
		i.push(i.stack[len(i.stack)-1])
	case source.KindDrop:
		_, err := i.pop()
		return err
	case source.KindSwap:
		a, err := i.pop()
		if err != nil {
			return err
		}
		b, err := i.pop()
		if err != nil {
			return err
		}
		i.push(a)
		i.push(b)
	case source.KindRot:
		a, err := i.pop()
		if err != nil {
			return err
		}
		b, err := i.pop()
		if err != nil {
			return err
		}
		c, err := i.pop()
		if err != nil {
			return err
		}
		i.push(b)
		i.push(a)
		i.push(c)
	case source.KindPick:
		n, err := i.popInt()
		if err != nil {
			return err
		}
		if n < 0 || n >= int64(len(i.stack)) {
			return indexOutOfBoundsError(int(n), len(i.stack))
		}
		i.push(i.stack[len(i.stack)-1-int(n)])
	case source.KindAdd:
		return i.binaryOp(func(b, a int64) int64 { return b + a })
	case source.KindSub:
		return i.binaryOp(func(b, a int64) int64 { return b - a })
	case source.KindMul:
		return i.binaryOp(func(b, a int64) int64 { return a * b })
	case source.KindDiv:
		a, err := i.popInt()
		if err != nil {
			return err
		}
		b, err := i.popInt()
		if err != nil {
			return err
		}
		if a == 0 {
			return errDivisionByZero
		}
		i.push(Integer(b / a))
	case source.KindNeg:
		a, err := i.popInt()
		if err != nil {
			return err
		}
		i.push(Integer(-a))
	case source.KindBitAnd:
		return i.binaryOp(func(b, a int64) int64 { return a & b })
	case source.KindBitOr:
		return i.binaryOp(func(b, a int64) int64 { return a | b })
	case source.KindBitNot:
		a, err := i.popInt()
		if err != nil {
			return err
		}
		i.push(Integer(^a))
	case source.KindGt:
		a, err := i.popInt()
		if err != nil {
			return err
		}
		b, err := i.popInt()
		if err != nil {
			return err
		}
		i.push(boolValue(b > a))
	case source.KindEq:
		a, err := i.popInt()
		if err != nil {
			return err
		}
		b, err := i.popInt()
		if err != nil {
			return err
		}
		i.push(boolValue(b == a))
	case source.KindLambdaReference:
		i.push(LambdaValue(cmd.ID))
	case source.KindLambdaDefinition:
		return errLambdaDefinitionNotAllowed
	case source.KindExec:
		id, err := i.popLambda()
		if err != nil {
			return err
		}
		return i.call(id)
	case source.KindConditional:
		bodyID, err := i.popLambda()
		if err != nil {
			return err
		}
		cond, err := i.popInt()
		if err != nil {
			return err
		}
		if cond != 0 {
			return i.call(bodyID)
		}
	case source.KindWhile:
		return i.execWhile()
	case source.KindVar:
		i.push(VarValue(cmd.Char))
	case source.KindStore:
		k, err := i.popVar()
		if err != nil {
			return err
		}
		v, err := i.pop()
		if err != nil {
			return err
		}
		idx := k - 'a'
		i.vars[idx] = v
		i.varsSet[idx] = true
	case source.KindLoad:
		k, err := i.popVar()
		if err != nil {
			return err
		}
		idx := k - 'a'
		if i.varsSet[idx] {
			i.push(i.vars[idx])
		} else {
			i.push(Integer(0))
		}
	case source.KindReadChar:
		return i.execReadChar()
	case source.KindWriteChar:
		v, err := i.popInt()
		if err != nil {
			return err
		}
		if _, err := i.out.Write([]byte{byte(v)}); err != nil {
			return ioError(err)
		}
	case source.KindStringLiteral:
		if _, err := io.WriteString(i.out, cmd.Str); err != nil {
			return ioError(err)
		}
	case source.KindWriteInt:
		v, err := i.popInt()
		if err != nil {
			return err
		}
		if _, err := io.WriteString(i.out, strconv.FormatInt(v, 10)); err != nil {
			return ioError(err)
		}
	case source.KindFlush:
		if f, ok := i.out.Unwrap().(flusher); ok {
			if err := f.Flush(); err != nil {
				return ioError(err)
			}
		}
	case source.KindComment:
		// no-op
	}
	return nil
}

func (i *Instance) binaryOp(f func(b, a int64) int64) error {
	a, err := i.popInt()
	if err != nil {
		return err
	}
	b, err := i.popInt()
	if err != nil {
		return err
	}
	i.push(Integer(f(b, a)))
	return nil
}

func boolValue(b bool) Value {
	if b {
		return Integer(-1)
	}
	return Integer(0)
}

func (i *Instance) execReadChar() error {
	b, err := i.in.ReadByte()
	if err == io.EOF {
		i.push(Integer(-1))
		return nil
	}
	if err != nil {
		return ioError(errors.Wrap(err, "read char"))
	}
	i.push(Integer(int64(b)))
	return nil
}

// execWhile implements the interpreter's While resumption strategy (spec
// §4.3, §9): the instruction re-executes itself every time control returns
// to it, driven by the loop state stashed on the frame it belongs to.
func (i *Instance) execWhile() error {
	switch i.loop.Kind {
	case LoopNone:
		bodyID, err := i.popLambda()
		if err != nil {
			return err
		}
		condID, err := i.popLambda()
		if err != nil {
			return err
		}
		i.loop = LoopState{Kind: LoopExecutingCondition, CondID: condID, BodyID: bodyID}
		i.pc--
		return i.call(condID)
	case LoopExecutingCondition:
		r, err := i.popInt()
		if err != nil {
			return err
		}
		if r == 0 {
			i.loop = LoopState{Kind: LoopNone}
			return nil
		}
		i.loop.Kind = LoopExecutingBody
		i.pc--
		return i.call(i.loop.BodyID)
	case LoopExecutingBody:
		i.loop.Kind = LoopExecutingCondition
		i.pc--
		return i.call(i.loop.CondID)
	}
	return nil
}
