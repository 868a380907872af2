package main

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/MixusMinimax/falsec/interp"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <path>",
		Short: "interpret a FALSE source file (use - for stdin)",
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
			out := bufio.NewWriter(os.Stdout)
			runErr := interp.Run(os.Stdin, out, prog, cfg)
			if flushErr := out.Flush(); flushErr != nil && runErr == nil {
				runErr = errors.Wrap(flushErr, "flush stdout")
			}
			return runErr
		},
	}
	return cmd
}
