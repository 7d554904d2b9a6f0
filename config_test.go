package pjac

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[compiler]
workers = 4

[runtime]
max-depth = 256

[[opcode]]
name = "isub"
operands = 3
writes = true

[[opcode]]
name = "nop"
operands = 0
`))
	be.Err(t, err, nil)
	be.Equal(t, cfg.Compiler.Workers, 4)
	be.Equal(t, cfg.Runtime.MaxDepth, 256)
	be.Equal(t, len(cfg.Opcodes), 2)
	be.Equal(t, *cfg.Opcodes[0], OpcodeConfig{Name: "isub", Operands: 3, Writes: true})
	be.Equal(t, *cfg.Opcodes[1], OpcodeConfig{Name: "nop"})

	opts := cfg.Options()
	be.Equal(t, opts.Workers, 4)
	be.Equal(t, opts.Opcodes, []Opcode{{Name: "isub", Operands: 3, Writes: true}, {Name: "nop"}})
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("[runtime]\nmax-depth = 10\n"))
	be.Err(t, err, nil)
	be.Equal(t, cfg.Compiler.Workers, 1)
	be.Equal(t, cfg.Runtime.MaxDepth, 10)

	cfg, err = ParseConfig(nil)
	be.Err(t, err, nil)
	be.Equal(t, *cfg, *DefaultConfig())
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"negative workers", "[compiler]\nworkers = -1\n", "compiler.workers"},
		{"negative depth", "[runtime]\nmax-depth = -5\n", "runtime.max-depth"},
		{"missing name", "[[opcode]]\noperands = 1\n", "missing name"},
		{"bad name", "[[opcode]]\nname = \"2fast\"\n", "not a valid opcode name"},
		{"negative operands", "[[opcode]]\nname = \"x\"\noperands = -1\n", "must not be negative"},
		{"writes nothing", "[[opcode]]\nname = \"x\"\nwrites = true\n", "takes none"},
		{"redefines builtin", "[[opcode]]\nname = \"iadd\"\noperands = 1\nwrites = true\n", "'iadd' is built in"},
		{"redefines control", "[[opcode]]\nname = \"return\"\n", "'return' is built in"},
		{"defined twice", "[[opcode]]\nname = \"x\"\n[[opcode]]\nname = \"x\"\n", "defined twice"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(test.input))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("expected error containing %q, got %v", test.want, err)
			}
		})
	}
}

func TestParseConfigMalformed(t *testing.T) {
	_, err := ParseConfig([]byte("[compiler\nworkers = 2"))
	be.True(t, err != nil)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	be.Err(t, os.WriteFile(path, []byte("[compiler]\nworkers = 2\n"), 0o644), nil)

	cfg, err := LoadConfig(path)
	be.Err(t, err, nil)
	be.Equal(t, cfg.Compiler.Workers, 2)

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	be.Err(t, err, os.ErrNotExist)
}

func TestLoadConfigNamesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	be.Err(t, os.WriteFile(path, []byte("[compiler]\nworkers = -3\n"), 0o644), nil)

	_, err := LoadConfig(path)
	be.True(t, err != nil)
	be.True(t, strings.HasPrefix(err.Error(), path+": "))
}
