package parser_test

import (
	"testing"

	"github.com/MixusMinimax/falsec/parser"
	"github.com/MixusMinimax/falsec/source"
)

func cfg() source.Config { return source.DefaultConfig() }

func TestSimpleTokens(t *testing.T) {
	instrs, err := parser.ParseAll("1 2+$%\\@ø>=", cfg())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []source.Kind{
		source.KindIntLiteral, source.KindIntLiteral, source.KindAdd,
		source.KindDup, source.KindDrop, source.KindSwap, source.KindRot,
		source.KindPick, source.KindGt, source.KindEq,
	}
	if len(instrs) != len(want) {
		t.Fatalf("got %d instructions, want %d", len(instrs), len(want))
	}
	for i, k := range want {
		if instrs[i].Command.Kind != k {
			t.Errorf("instr %d: got %v, want %v", i, instrs[i].Command.Kind, k)
		}
	}
	if instrs[0].Command.Int != 1 || instrs[1].Command.Int != 2 {
		t.Errorf("int literals: got %d, %d", instrs[0].Command.Int, instrs[1].Command.Int)
	}
}

func TestSpanReconstructsSource(t *testing.T) {
	src := "123 321 +"
	instrs, err := parser.ParseAll(src, cfg())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rebuilt string
	prevEnd := 0
	for _, instr := range instrs {
		rebuilt += src[prevEnd:instr.Span.Start.Offset]
		rebuilt += instr.Span.Source
		prevEnd = instr.Span.End.Offset
	}
	rebuilt += src[prevEnd:]
	if rebuilt != src {
		t.Errorf("got %q, want %q", rebuilt, src)
	}
}

func TestLambdaDefinition(t *testing.T) {
	instrs, err := parser.ParseAll("[$0>]", cfg())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 1 || instrs[0].Command.Kind != source.KindLambdaDefinition {
		t.Fatalf("got %+v", instrs)
	}
	body := instrs[0].Command.Body
	if len(body) != 3 {
		t.Fatalf("body len = %d, want 3", len(body))
	}
	if body[0].Command.Kind != source.KindDup || body[1].Command.Kind != source.KindIntLiteral || body[2].Command.Kind != source.KindGt {
		t.Errorf("got %+v", body)
	}
}

func TestUnterminatedLambda(t *testing.T) {
	_, err := parser.ParseAll("[$0>", cfg())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestUnmatchedCloseBracket(t *testing.T) {
	_, err := parser.ParseAll("]", cfg())
	if err == nil {
		t.Fatal("expected error")
	}
	pe, ok := err.(*parser.ParseError)
	if !ok {
		t.Fatalf("got %T, want *parser.ParseError", err)
	}
	if pe.Kind != parser.ErrUnexpectedToken {
		t.Errorf("got kind %v, want ErrUnexpectedToken", pe.Kind)
	}
}

func TestStringLiteralVerbatim(t *testing.T) {
	instrs, err := parser.ParseAll(`"Hello, World!"`, cfg())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if instrs[0].Command.Str != "Hello, World!" {
		t.Errorf("got %q", instrs[0].Command.Str)
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	c := cfg()
	c.StringEscapeSequences = true
	instrs, err := parser.ParseAll(`"a\nb\tc\\d\"e"`, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a\nb\tc\\d\"e"
	if instrs[0].Command.Str != want {
		t.Errorf("got %q, want %q", instrs[0].Command.Str, want)
	}
}

func TestCommentNonBalanced(t *testing.T) {
	// the first '}' closes the comment; the lone trailing '}' is then a
	// stray, unexpected token.
	instrs, err := parser.ParseAll("{ a { b } c }", cfg())
	if err == nil {
		t.Fatal("expected error from stray '}'")
	}
	if instrs[0].Command.Kind != source.KindComment {
		t.Fatalf("got %v", instrs[0].Command.Kind)
	}
	if instrs[0].Command.Str != " a { b " {
		t.Errorf("got %q", instrs[0].Command.Str)
	}
	if len(instrs) < 2 || instrs[1].Command.Kind != source.KindVar {
		t.Errorf("got %+v", instrs[1:])
	}
}

func TestCommentBalanced(t *testing.T) {
	c := cfg()
	c.BalanceComments = true
	instrs, err := parser.ParseAll("{ a { b } c }", c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 1 {
		t.Fatalf("got %+v", instrs)
	}
	if instrs[0].Command.Str != " a { b } c " {
		t.Errorf("got %q", instrs[0].Command.Str)
	}
}

func TestTabAdvance(t *testing.T) {
	c := cfg()
	c.TabWidth = 2
	instrs, err := parser.ParseAll("\t$", c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// a tab at column 1 with width 2 advances to column 3
	if instrs[0].Span.Start.Column != 3 {
		t.Errorf("got column %d, want 3", instrs[0].Span.Start.Column)
	}
}
