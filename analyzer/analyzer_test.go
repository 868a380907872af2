package analyzer_test

import (
	"testing"

	"github.com/MixusMinimax/falsec/analyzer"
	"github.com/MixusMinimax/falsec/parser"
	"github.com/MixusMinimax/falsec/source"
)

func parse(t *testing.T, src string) []source.Instruction {
	t.Helper()
	instrs, err := parser.ParseAll(src, source.DefaultConfig())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return instrs
}

func TestFlattensNestedLambdas(t *testing.T) {
	instrs := parse(t, "[$0>][$a;*a:1-]#")
	prog, err := analyzer.Analyze(instrs, source.DefaultConfig())
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if _, ok := prog.Lambdas[prog.MainID]; !ok {
		t.Fatalf("main id %d missing from lambdas", prog.MainID)
	}
	main := prog.Main()
	if len(main) != 3 {
		t.Fatalf("got %d top-level instructions, want 3 (two lambda refs + while)", len(main))
	}
	if main[0].Command.Kind != source.KindLambdaReference || main[1].Command.Kind != source.KindLambdaReference {
		t.Fatalf("got %+v", main[:2])
	}
	if main[2].Command.Kind != source.KindWhile {
		t.Fatalf("got %+v", main[2])
	}

	// no LambdaDefinition should survive anywhere.
	for id, lambda := range prog.Lambdas {
		for _, instr := range lambda {
			if instr.Command.Kind == source.KindLambdaDefinition {
				t.Errorf("lambda %d still has a LambdaDefinition", id)
			}
			if instr.Command.Kind == source.KindLambdaReference {
				if _, ok := prog.Lambdas[instr.Command.ID]; !ok {
					t.Errorf("lambda %d references undefined lambda %d", id, instr.Command.ID)
				}
			}
		}
	}
}

func TestIDAssignmentIsPreOrderAndDeterministic(t *testing.T) {
	src := "[[1][2]?][3]?"
	instrs := parse(t, src)
	prog1, err := analyzer.Analyze(instrs, source.DefaultConfig())
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	instrs2 := parse(t, src)
	prog2, err := analyzer.Analyze(instrs2, source.DefaultConfig())
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if len(prog1.Lambdas) != len(prog2.Lambdas) {
		t.Fatalf("nondeterministic lambda count: %d vs %d", len(prog1.Lambdas), len(prog2.Lambdas))
	}
	main1 := prog1.Main()
	// outer [ ... ] gets id 1 (first encountered), [3] gets id 4 since the
	// outer's own two nested lambdas (ids 2, 3) are hoisted first.
	if main1[0].Command.ID != 1 {
		t.Errorf("outer lambda id = %d, want 1", main1[0].Command.ID)
	}
	outer := prog1.Lambdas[1]
	if outer[0].Command.ID != 2 || outer[1].Command.ID != 3 {
		t.Errorf("nested lambda ids = %d, %d; want 2, 3", outer[0].Command.ID, outer[1].Command.ID)
	}
	if main1[1].Command.ID != 4 {
		t.Errorf("second top-level lambda id = %d, want 4", main1[1].Command.ID)
	}
}

func TestStringInterning(t *testing.T) {
	instrs := parse(t, `"hi""hi""bye"`)
	prog, err := analyzer.Analyze(instrs, source.DefaultConfig())
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if len(prog.Strings) != 2 {
		t.Fatalf("got %d interned strings, want 2: %+v", len(prog.Strings), prog.Strings)
	}
	seen := make(map[string]bool)
	for _, s := range prog.Strings {
		seen[s] = true
	}
	if !seen["hi"] || !seen["bye"] {
		t.Errorf("got %+v", prog.Strings)
	}
}

func TestRejectsLambdaReferenceFromParser(t *testing.T) {
	bad := []source.Instruction{
		{Command: source.Command{Kind: source.KindLambdaReference, ID: 0}},
	}
	_, err := analyzer.Analyze(bad, source.DefaultConfig())
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*analyzer.InvalidInputError); !ok {
		t.Fatalf("got %T, want *analyzer.InvalidInputError", err)
	}
}
