package analyzer

import (
	"github.com/MixusMinimax/falsec/source"
)

// Analyze flattens the nested lambda definitions produced by the parser
// into a source.Program, interning every string literal it encounters.
func Analyze(top []source.Instruction, cfg source.Config) (*source.Program, error) {
	a := &analysis{
		lambdas: make(map[uint64]source.Lambda),
		strings: make(map[uint64]string),
		nextID:  1, // 0 is reserved for the top-level program
	}
	main, err := a.hoist(top)
	if err != nil {
		return nil, err
	}
	a.lambdas[0] = source.Lambda(main)

	for _, lambda := range a.lambdas {
		a.internStrings(lambda)
	}

	return &source.Program{
		MainID:  0,
		Lambdas: a.lambdas,
		Strings: a.strings,
	}, nil
}

type analysis struct {
	lambdas map[uint64]source.Lambda
	strings map[uint64]string
	nextID  uint64
}

// hoist replaces every LambdaDefinition in instrs with a LambdaReference,
// recording the hoisted body under a freshly allocated id. Ids are handed
// out in pre-order: a definition is assigned its id before its own body is
// recursed into, so outer definitions always get lower ids than anything
// nested inside them.
func (a *analysis) hoist(instrs []source.Instruction) ([]source.Instruction, error) {
	out := make([]source.Instruction, len(instrs))
	for idx, instr := range instrs {
		switch instr.Command.Kind {
		case source.KindLambdaDefinition:
			id := a.nextID
			a.nextID++
			body, err := a.hoist(instr.Command.Body)
			if err != nil {
				return nil, err
			}
			a.lambdas[id] = source.Lambda(body)
			out[idx] = source.Instruction{
				Command: source.Command{Kind: source.KindLambdaReference, ID: id},
				Span:    instr.Span,
			}
		case source.KindLambdaReference:
			return nil, invalidInput("LambdaReference present in parser output (id=%d)", instr.Command.ID)
		default:
			out[idx] = instr
		}
	}
	return out, nil
}

// internStrings scans a single (already flat) lambda for string literals
// and records each one's intern key if not already present.
func (a *analysis) internStrings(lambda source.Lambda) {
	for _, instr := range lambda {
		if instr.Command.Kind != source.KindStringLiteral {
			continue
		}
		id := stringID(instr.Command.Str)
		if _, ok := a.strings[id]; !ok {
			a.strings[id] = instr.Command.Str
		}
	}
}
