package interp

import (
	"strings"
	"testing"

	"github.com/MixusMinimax/falsec/analyzer"
	"github.com/MixusMinimax/falsec/parser"
	"github.com/MixusMinimax/falsec/source"
)

func build(t *testing.T, src string) *source.Program {
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

func TestHelloWorld(t *testing.T) {
	prog := build(t, `"Hello, World!"`)
	var out strings.Builder
	if err := Run(strings.NewReader(""), &out, prog, source.DefaultConfig()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "Hello, World!" {
		t.Fatalf("got %q", out.String())
	}
}

func TestArithmeticLeavesResultOnStack(t *testing.T) {
	prog := build(t, `123 321 +`)
	inst := New(prog, source.DefaultConfig(), strings.NewReader(""), &strings.Builder{})
	if err := inst.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(inst.stack) != 1 || inst.stack[0] != Integer(444) {
		t.Fatalf("stack = %v, want [444]", inst.stack)
	}
}

func TestFactorial(t *testing.T) {
	prog := build(t, `5 1a:[$0>][$a;*a:1-]#%a;.`)
	var out strings.Builder
	if err := Run(strings.NewReader(""), &out, prog, source.DefaultConfig()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "120" {
		t.Fatalf("got %q, want 120", out.String())
	}
}

func TestReadCharEOFSentinel(t *testing.T) {
	prog := build(t, `^$.^$.^$.`)
	var out strings.Builder
	if err := Run(strings.NewReader("x"), &out, prog, source.DefaultConfig()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "120-1-1" {
		t.Fatalf("got %q, want 120-1-1", out.String())
	}
}

func TestGtEqBooleanConventions(t *testing.T) {
	prog := build(t, `3 2> 2 2=`)
	inst := New(prog, source.DefaultConfig(), strings.NewReader(""), &strings.Builder{})
	if err := inst.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(inst.stack) != 2 || inst.stack[0] != Integer(-1) || inst.stack[1] != Integer(-1) {
		t.Fatalf("3>2 and 2=2 should each push -1, got %v", inst.stack)
	}
}

func TestDivisionByZeroFails(t *testing.T) {
	prog := build(t, `5 0/`)
	inst := New(prog, source.DefaultConfig(), strings.NewReader(""), &strings.Builder{})
	err := inst.Run()
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != ErrDivisionByZero {
		t.Fatalf("want ErrDivisionByZero, got %v", err)
	}
	if len(rerr.Backtrace) == 0 {
		t.Fatal("expected non-empty backtrace")
	}
}

func TestTypeSafetyFullRejectsLambdaAsInteger(t *testing.T) {
	cfg := source.DefaultConfig()
	cfg.TypeSafety = source.TypeSafetyFull
	prog := build(t, `['a]+`)
	inst := New(prog, cfg, strings.NewReader(""), &strings.Builder{})
	err := inst.Run()
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != ErrTypeCast {
		t.Fatalf("want ErrTypeCast under Full type safety, got %v", err)
	}
}

func TestTypeSafetyNoneCoercesFreely(t *testing.T) {
	cfg := source.DefaultConfig()
	cfg.TypeSafety = source.TypeSafetyNone
	// '0 '9 > leaves 0; adding the lambda [1] (id 1) coerces it to 1.
	prog := build(t, `'0 '9 >[1]+`)
	inst := New(prog, cfg, strings.NewReader(""), &strings.Builder{})
	if err := inst.Run(); err != nil {
		t.Fatalf("run under None type safety should succeed: %v", err)
	}
	if len(inst.stack) != 1 || inst.stack[0] != Integer(1) {
		t.Fatalf("stack = %v, want [1]", inst.stack)
	}
}

func TestWhileLoopCounts(t *testing.T) {
	prog := build(t, `0a:[5a;>][a;1+a:]#a;.`)
	var out strings.Builder
	if err := Run(strings.NewReader(""), &out, prog, source.DefaultConfig()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "5" {
		t.Fatalf("got %q, want 5", out.String())
	}
}
