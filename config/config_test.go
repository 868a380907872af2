package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MixusMinimax/falsec/source"
)

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "falsec.toml")
	body := "tab_width = 4\ntype_safety = \"full\"\nstack_size = 4096\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TabWidth != 4 || cfg.TypeSafety != source.TypeSafetyFull || cfg.StackSize != 4096 {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.StdoutBufferSize != source.DefaultConfig().StdoutBufferSize {
		t.Fatalf("unset keys should keep default, got %d", cfg.StdoutBufferSize)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "falsec.yaml")
	body := "tab_width: 8\ntype_safety: lambda-and-var\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TabWidth != 8 || cfg.TypeSafety != source.TypeSafetyLambdaAndVar {
		t.Fatalf("got %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "falsec.json")
	body := `{"tab_width": 1, "type_safety": "lambda", "write_command_comments": true}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TabWidth != 1 || cfg.TypeSafety != source.TypeSafetyLambda || !cfg.WriteCommandComments {
		t.Fatalf("got %+v", cfg)
	}
}

func TestLoadUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "falsec.ini")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLoadRejectsUnknownTypeSafety(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "falsec.toml")
	if err := os.WriteFile(path, []byte("type_safety = \"bogus\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown type-safety spelling")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
