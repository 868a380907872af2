package main

import (
	"github.com/pkg/errors"

	"github.com/MixusMinimax/falsec/analyzer"
	"github.com/MixusMinimax/falsec/parser"
	"github.com/MixusMinimax/falsec/source"
)

// buildProgram runs the lexer/parser and analyzer over src, the shared front
// end for both run and compile.
func buildProgram(src string, cfg source.Config) (*source.Program, error) {
	instrs, err := parser.ParseAll(src, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	prog, err := analyzer.Analyze(instrs, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}
	return prog, nil
}
