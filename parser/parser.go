package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/MixusMinimax/falsec/source"
)

// Parser is a Scanner-style iterator over a FALSE source string. Call Scan
// repeatedly; it returns false once the source is exhausted or a parse
// error occurs, at which point Err reports the error (nil on clean EOF).
type Parser struct {
	src string
	cfg source.Config
	pos source.Pos

	cur source.Instruction
	err error
}

// New creates a Parser over src using cfg for tab width, comment nesting
// and string escape behavior.
func New(src string, cfg source.Config) *Parser {
	return &Parser{src: src, cfg: cfg, pos: source.Zero}
}

// ParseAll runs a Parser to completion and collects every instruction. It
// is a convenience wrapper for callers (the analyzer, tests) that don't
// need streaming.
func ParseAll(src string, cfg source.Config) ([]source.Instruction, error) {
	p := New(src, cfg)
	var out []source.Instruction
	for p.Scan() {
		out = append(out, p.Instruction())
	}
	return out, p.Err()
}

// Scan advances the parser to the next instruction. It returns false when
// the source is exhausted (Err returns nil) or a parse error occurred (Err
// returns that error).
func (p *Parser) Scan() bool {
	if p.err != nil {
		return false
	}
	instr, err := p.next()
	if err != nil {
		if err != errEOF {
			p.err = err
		}
		return false
	}
	p.cur = instr
	return true
}

// Instruction returns the instruction produced by the most recent Scan.
func (p *Parser) Instruction() source.Instruction { return p.cur }

// Err returns the first error encountered, or nil if the parser reached a
// clean end of input.
func (p *Parser) Err() error { return p.err }

func (p *Parser) rest() string { return p.src[p.pos.Offset:] }

func (p *Parser) peekRune() (rune, bool) {
	if p.pos.Offset >= len(p.src) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(p.rest())
	return r, true
}

func (p *Parser) readRune() (rune, bool) {
	r, ok := p.peekRune()
	if !ok {
		return 0, false
	}
	p.pos = p.pos.Advance(r, p.cfg.TabWidth)
	return r, true
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isVarChar(r rune) bool { return r >= 'a' && r <= 'z' }

func (p *Parser) skipWhitespace() {
	for {
		r, ok := p.peekRune()
		if !ok || !isWhitespace(r) {
			return
		}
		p.readRune()
	}
}

// next parses exactly one instruction, or returns errEOF once the source
// is exhausted.
func (p *Parser) next() (source.Instruction, error) {
	p.skipWhitespace()
	start := p.pos
	r, ok := p.readRune()
	if !ok {
		return source.Instruction{}, errEOF
	}
	cmd, err := p.dispatch(r, start)
	if err != nil {
		return source.Instruction{}, err
	}
	return source.Instruction{Command: cmd, Span: source.NewSpan(start, p.pos, p.src)}, nil
}

var simpleKinds = map[rune]source.Kind{
	'$': source.KindDup,
	'%': source.KindDrop,
	'\\': source.KindSwap,
	'@': source.KindRot,
	'ø': source.KindPick,
	'+': source.KindAdd,
	'-': source.KindSub,
	'*': source.KindMul,
	'/': source.KindDiv,
	'_': source.KindNeg,
	'&': source.KindBitAnd,
	'|': source.KindBitOr,
	'~': source.KindBitNot,
	'>': source.KindGt,
	'=': source.KindEq,
	'!': source.KindExec,
	'?': source.KindConditional,
	'#': source.KindWhile,
	':': source.KindStore,
	';': source.KindLoad,
	'^': source.KindReadChar,
	',': source.KindWriteChar,
	'.': source.KindWriteInt,
	'ß': source.KindFlush,
}

func (p *Parser) dispatch(r rune, start source.Pos) (source.Command, error) {
	switch {
	case isDigit(r):
		return p.parseIntLiteral(r, start)
	case isVarChar(r):
		return source.Command{Kind: source.KindVar, Char: r}, nil
	}

	if k, ok := simpleKinds[r]; ok {
		return source.Command{Kind: k}, nil
	}

	switch r {
	case '\'':
		return p.parseCharLiteral(start)
	case '[':
		return p.parseLambdaDefinition(start)
	case '"':
		return p.parseStringLiteral(start)
	case '{':
		return p.parseComment(start)
	default:
		return source.Command{}, unexpectedToken(start, r)
	}
}

func (p *Parser) parseIntLiteral(first rune, start source.Pos) (source.Command, error) {
	var b strings.Builder
	b.WriteRune(first)
	for {
		r, ok := p.peekRune()
		if !ok || !isDigit(r) {
			break
		}
		p.readRune()
		b.WriteRune(r)
	}
	v, err := strconv.ParseUint(b.String(), 10, 64)
	if err != nil {
		return source.Command{}, parseIntError(start, err)
	}
	return source.Command{Kind: source.KindIntLiteral, Int: v}, nil
}

func (p *Parser) parseCharLiteral(start source.Pos) (source.Command, error) {
	r, ok := p.readRune()
	if !ok {
		return source.Command{}, missingToken(p.pos, 0)
	}
	return source.Command{Kind: source.KindCharLiteral, Char: r}, nil
}

func (p *Parser) parseLambdaDefinition(start source.Pos) (source.Command, error) {
	var body []source.Instruction
	for {
		p.skipWhitespace()
		r, ok := p.peekRune()
		if !ok {
			return source.Command{}, missingToken(p.pos, ']')
		}
		if r == ']' {
			p.readRune()
			return source.Command{Kind: source.KindLambdaDefinition, Body: body}, nil
		}
		instr, err := p.next()
		if err != nil {
			if err == errEOF {
				return source.Command{}, missingToken(p.pos, ']')
			}
			return source.Command{}, err
		}
		body = append(body, instr)
	}
}

func (p *Parser) parseStringLiteral(start source.Pos) (source.Command, error) {
	if !p.cfg.StringEscapeSequences {
		contentStart := p.pos
		for {
			r, ok := p.readRune()
			if !ok {
				return source.Command{}, missingToken(p.pos, '"')
			}
			if r == '"' {
				content := p.src[contentStart.Offset : p.pos.Offset-1]
				return source.Command{Kind: source.KindStringLiteral, Str: content}, nil
			}
		}
	}

	var b strings.Builder
	for {
		r, ok := p.readRune()
		if !ok {
			return source.Command{}, missingToken(p.pos, '"')
		}
		switch r {
		case '"':
			return source.Command{Kind: source.KindStringLiteral, Str: b.String()}, nil
		case '\\':
			esc, ok := p.readRune()
			if !ok {
				return source.Command{}, missingToken(p.pos, '"')
			}
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '0':
				b.WriteByte(0)
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case '\n':
				// elided line continuation
			default:
				return source.Command{}, unexpectedToken(p.pos, esc)
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (p *Parser) parseComment(start source.Pos) (source.Command, error) {
	contentStart := p.pos
	if !p.cfg.BalanceComments {
		for {
			r, ok := p.readRune()
			if !ok {
				return source.Command{}, missingToken(p.pos, '}')
			}
			if r == '}' {
				return source.Command{Kind: source.KindComment, Str: p.src[contentStart.Offset : p.pos.Offset-1]}, nil
			}
		}
	}

	depth := 1
	for {
		r, ok := p.readRune()
		if !ok {
			return source.Command{}, missingToken(p.pos, '}')
		}
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return source.Command{Kind: source.KindComment, Str: p.src[contentStart.Offset : p.pos.Offset-1]}, nil
			}
		}
	}
}
