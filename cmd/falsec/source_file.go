package main

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/MixusMinimax/falsec/config"
	"github.com/MixusMinimax/falsec/source"
)

// loadConfig adapts config.Load's returned value to this command's error
// reporting.
func loadConfig(path string) (source.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return source.Config{}, errors.Wrap(err, "load config")
	}
	return cfg, nil
}

// readSource reads the named path, or stdin when path is "-" (spec §6).
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "read source from stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read source file %s", path)
	}
	return string(data), nil
}
