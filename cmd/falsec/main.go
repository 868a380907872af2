// Command falsec parses, runs and compiles FALSE programs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MixusMinimax/falsec/source"
)

var (
	debug        bool
	configPath   string
	typeSafetyIn string
)

// atExit mirrors the teacher CLI's debug-gated error reporting: a plain
// message normally, the full backtrace (via %+v, which github.com/pkg/errors
// knows how to render) under -debug.
func atExit(err error) {
	if err == nil {
		return
	}
	if debug {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	os.Exit(1)
}

// resolveConfig loads the on-disk Config (if one was named) and applies the
// --type-safety override on top, per spec §6: CLI flag wins over file.
func resolveConfig() (source.Config, error) {
	cfg := source.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return source.Config{}, err
		}
	}
	if typeSafetyIn != "" {
		ts, err := source.ParseTypeSafety(typeSafetyIn)
		if err != nil {
			return source.Config{}, err
		}
		cfg.TypeSafety = ts
	}
	return cfg, nil
}

func main() {
	root := &cobra.Command{
		Use:           "falsec",
		Short:         "falsec is an interpreter and native code generator for the FALSE language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "print a full backtrace on failure")
	root.PersistentFlags().StringVar(&configPath, "config", "", "load settings from a TOML, YAML or JSON config file")
	root.PersistentFlags().StringVar(&typeSafetyIn, "type-safety", "", "override type-safety level: none, lambda, lambda-and-var, full")

	root.AddCommand(newRunCommand())
	root.AddCommand(newCompileCommand())

	if err := root.Execute(); err != nil {
		atExit(err)
	}
}
