package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/MixusMinimax/falsec/codegen"
)

func newCompileCommand() *cobra.Command {
	var outPath, dumpAsmPath string
	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "compile a FALSE source file to a native Linux x86-64 executable (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			prog, err := buildProgram(src, cfg)
			if err != nil {
				return err
			}
			asm, err := codegen.Generate(prog, cfg)
			if err != nil {
				return errors.Wrap(err, "generate assembly")
			}

			out := outPath
			if out == "" {
				out = defaultOutputName(args[0])
			}

			asmPath, cleanup, err := writeScopedAsm(asm)
			defer cleanup()
			if err != nil {
				return err
			}

			if dumpAsmPath != "" {
				if err := copyFile(asmPath, normalizeAsmExt(dumpAsmPath)); err != nil {
					return errors.Wrap(err, "write --dump-asm")
				}
			}

			return assembleAndLink(asmPath, out)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output executable path (default: source stem, extension stripped)")
	cmd.Flags().StringVar(&dumpAsmPath, "dump-asm", "", "also write the generated assembly to this path (extension normalized to .asm)")
	return cmd
}

// defaultOutputName strips the extension from path's final component, per
// spec §6. Stdin input ("-") has no stem to strip, so it falls back to "a.out".
func defaultOutputName(path string) string {
	if path == "-" {
		return "a.out"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalizeAsmExt forces path's extension to .asm regardless of what the
// user passed (spec §9, falsec-cli parity).
func normalizeAsmExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".asm"
}

// writeScopedAsm serializes asm to a temporary file and returns a cleanup
// func that removes it on every exit path (spec §5, "scoped temporary files").
func writeScopedAsm(asm *codegen.Assembly) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "falsec-*.asm")
	if err != nil {
		return "", func() {}, errors.Wrap(err, "create temporary assembly file")
	}
	cleanup = func() { _ = os.Remove(f.Name()) }
	if err := codegen.Serialize(asm, f); err != nil {
		_ = f.Close()
		return "", cleanup, errors.Wrap(err, "serialize assembly")
	}
	if err := f.Close(); err != nil {
		return "", cleanup, errors.Wrap(err, "close temporary assembly file")
	}
	return f.Name(), cleanup, nil
}

// assembleAndLink shells out to nasm and ld, the same two-step pipeline
// original_source drives (spec §9, item 7).
func assembleAndLink(asmPath, outPath string) error {
	obj, err := os.CreateTemp("", "falsec-*.o")
	if err != nil {
		return errors.Wrap(err, "create temporary object file")
	}
	objPath := obj.Name()
	_ = obj.Close()
	defer func() { _ = os.Remove(objPath) }()

	nasm := exec.Command("nasm", "-f", "elf64", "-o", objPath, asmPath)
	nasm.Stderr = os.Stderr
	if err := nasm.Run(); err != nil {
		return errors.Wrap(err, "nasm")
	}

	ld := exec.Command("ld", "-o", outPath, objPath)
	ld.Stderr = os.Stderr
	if err := ld.Run(); err != nil {
		return errors.Wrap(err, "ld")
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
