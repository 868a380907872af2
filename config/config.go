// Package config loads a source.Config from a TOML, JSON or YAML file,
// selected by extension, following the file-backed-Config pattern of the
// pack's other emulator repo (lookbusy1344-arm_emulator/config) adapted to
// source.Config's single flat struct and its CLI-facing TypeSafety field.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/MixusMinimax/falsec/source"
)

// fileConfig mirrors source.Config but gives TypeSafety a string
// representation, since "none"/"lambda"/"lambda-and-var"/"full" is how it
// is spelled in every supported file format (source.Config itself tags the
// field "-" for exactly this reason).
type fileConfig struct {
	TabWidth              int    `toml:"tab_width" yaml:"tab_width" json:"tab_width"`
	BalanceComments       bool   `toml:"balance_comments" yaml:"balance_comments" json:"balance_comments"`
	StringEscapeSequences bool   `toml:"string_escape_sequences" yaml:"string_escape_sequences" json:"string_escape_sequences"`
	TypeSafety            string `toml:"type_safety" yaml:"type_safety" json:"type_safety"`
	WriteCommandComments  bool   `toml:"write_command_comments" yaml:"write_command_comments" json:"write_command_comments"`
	StdoutBufferSize      int64  `toml:"stdout_buffer_size" yaml:"stdout_buffer_size" json:"stdout_buffer_size"`
	StackSize             int64  `toml:"stack_size" yaml:"stack_size" json:"stack_size"`
}

func fromDefaults(cfg source.Config) fileConfig {
	return fileConfig{
		TabWidth:              cfg.TabWidth,
		BalanceComments:       cfg.BalanceComments,
		StringEscapeSequences: cfg.StringEscapeSequences,
		TypeSafety:            cfg.TypeSafety.String(),
		WriteCommandComments:  cfg.WriteCommandComments,
		StdoutBufferSize:      cfg.StdoutBufferSize,
		StackSize:             cfg.StackSize,
	}
}

func (f fileConfig) toSourceConfig() (source.Config, error) {
	ts, err := source.ParseTypeSafety(f.TypeSafety)
	if err != nil {
		return source.Config{}, err
	}
	return source.Config{
		TabWidth:              f.TabWidth,
		BalanceComments:       f.BalanceComments,
		StringEscapeSequences: f.StringEscapeSequences,
		TypeSafety:            ts,
		WriteCommandComments:  f.WriteCommandComments,
		StdoutBufferSize:      f.StdoutBufferSize,
		StackSize:             f.StackSize,
	}, nil
}

// Load reads path (TOML, JSON or YAML, selected by its extension) and
// materializes a source.Config. Missing keys default per spec §3: Load
// starts from source.DefaultConfig() and lets the decoder overwrite only
// the keys present in the file.
func Load(path string) (source.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return source.Config{}, errors.Wrapf(err, "read config file %s", path)
	}
	fc := fromDefaults(source.DefaultConfig())
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return source.Config{}, errors.Wrapf(err, "parse TOML config %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return source.Config{}, errors.Wrapf(err, "parse YAML config %s", path)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return source.Config{}, errors.Wrapf(err, "parse JSON config %s", path)
		}
	default:
		return source.Config{}, errors.Errorf("unsupported config file extension %q (want .toml, .yaml/.yml or .json)", ext)
	}
	return fc.toSourceConfig()
}
