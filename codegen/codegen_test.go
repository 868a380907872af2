package codegen

import (
	"strings"
	"testing"

	"github.com/MixusMinimax/falsec/analyzer"
	"github.com/MixusMinimax/falsec/parser"
	"github.com/MixusMinimax/falsec/source"
)

func buildProgram(t *testing.T, src string) *source.Program {
	t.Helper()
	cfg := source.DefaultConfig()
	instrs, err := parser.ParseAll(src, cfg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog, err := analyzer.Analyze(instrs, cfg)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return prog
}

func generateText(t *testing.T, src string, cfg source.Config) string {
	t.Helper()
	prog := buildProgram(t, src)
	asm, err := Generate(prog, cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var out strings.Builder
	if err := Serialize(asm, &out); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return out.String()
}

func TestGenerateEmitsEntryPointAndSections(t *testing.T) {
	out := generateText(t, `"hi"`, source.DefaultConfig())
	for _, want := range []string{
		"SECTION .bss", "SECTION .rodata", "SECTION .data", "SECTION .text",
		"global _start", "_start:", "_print_decimal:", "syscall",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n---\n%s", want, out)
		}
	}
}

func TestStringLiteralUsesInternedLabel(t *testing.T) {
	prog := buildProgram(t, `"hi"`)
	id := source.StringID("hi")
	if _, ok := prog.Strings[id]; !ok {
		t.Fatalf("analyzer did not intern %q under expected id", "hi")
	}
	asm, err := Generate(prog, source.DefaultConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var out strings.Builder
	if err := Serialize(asm, &out); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	lbl := StringLiteralLabel(id).String()
	if !strings.Contains(out.String(), lbl+":") {
		t.Errorf("expected label %s in output:\n%s", lbl, out.String())
	}
}

func TestInvalidStackSizeRejected(t *testing.T) {
	prog := buildProgram(t, `1`)
	cfg := source.DefaultConfig()
	cfg.StackSize = 10
	_, err := Generate(prog, cfg)
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != ErrInvalidStackSize {
		t.Fatalf("want ErrInvalidStackSize, got %v", err)
	}
}

func TestLambdaDefinitionRejectedByLowering(t *testing.T) {
	// Analyzer output never contains LambdaDefinition, but the lowering
	// defends against it directly in case a Program is hand-constructed.
	prog := &source.Program{
		MainID: 0,
		Lambdas: map[uint64]source.Lambda{
			0: {{Command: source.Command{Kind: source.KindLambdaDefinition}}},
		},
		Strings: map[uint64]string{},
	}
	_, err := Generate(prog, source.DefaultConfig())
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != ErrLambdaDefinitionNotAllowed {
		t.Fatalf("want ErrLambdaDefinitionNotAllowed, got %v", err)
	}
}

func TestInvalidVariableNameRejected(t *testing.T) {
	prog := &source.Program{
		MainID: 0,
		Lambdas: map[uint64]source.Lambda{
			0: {{Command: source.Command{Kind: source.KindVar, Char: 'A'}}},
		},
		Strings: map[uint64]string{},
	}
	_, err := Generate(prog, source.DefaultConfig())
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != ErrInvalidVariableName {
		t.Fatalf("want ErrInvalidVariableName, got %v", err)
	}
}

func TestDBFormattingMergesPrintableRuns(t *testing.T) {
	got := formatDB([]byte("Hi\x01there"))
	want := `"Hi", 0x01, "there"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLabelNamingConventions(t *testing.T) {
	cases := []struct {
		lbl  Label
		want string
	}{
		{LambdaLabel(0), "_lambda_000"},
		{LambdaLabel(17), "_lambda_017"},
		{StringLiteralLabel(42), "_string_042"},
		{StringLiteralLenLabel(42), "_string_042_len"},
	}
	for _, c := range cases {
		if got := c.lbl.String(); got != c.want {
			t.Errorf("got %q, want %q", got, c.want)
		}
	}
}

func TestFactorialLowersAllLambdas(t *testing.T) {
	out := generateText(t, `5 1a:[$0>][$a;*a:1-]#%a;.`, source.DefaultConfig())
	// three lambdas in all: main plus the two bracket bodies, each label
	// appearing at its definition and at least once at a use.
	if strings.Count(out, "_lambda_") < 3*2 {
		t.Errorf("expected at least 3 distinct lambda labels (def+use), got:\n%s", out)
	}
}

func TestTypeSafetyNoneElidesTypeStackWrites(t *testing.T) {
	cfg := source.DefaultConfig()
	cfg.TypeSafety = source.TypeSafetyNone
	out := generateText(t, `1a:a;.`, cfg)
	// the .bss reservation is always emitted; only memory operands count.
	if strings.Contains(out, "[_variable_types") {
		t.Errorf("type-safety None should never write the variable type table")
	}

	cfgFull := source.DefaultConfig()
	cfgFull.TypeSafety = source.TypeSafetyFull
	outFull := generateText(t, `1a:a;.`, cfgFull)
	if !strings.Contains(outFull, "[_variable_types") {
		t.Errorf("type-safety Full should write the variable type table")
	}
}
