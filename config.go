package pjac

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// ConfigFileName is the name of the configuration file looked up next to a
// source file.
const ConfigFileName = "pjac.toml"

// Config is the contents of a pjac.toml file.
type Config struct {
	Compiler CompilerConfig  `toml:"compiler"`
	Runtime  RuntimeConfig   `toml:"runtime"`
	Opcodes  []*OpcodeConfig `toml:"opcode"`
}

// CompilerConfig is the [compiler] table.
type CompilerConfig struct {
	Workers int `toml:"workers"` // 0 and 1 both compile sequentially
}

// RuntimeConfig is the [runtime] table.
type RuntimeConfig struct {
	MaxDepth int `toml:"max-depth"` // 0 means unlimited
}

// OpcodeConfig is one [[opcode]] entry, an opcode added to the asm table.
type OpcodeConfig struct {
	Name     string `toml:"name"`
	Operands int    `toml:"operands"`
	Writes   bool   `toml:"writes"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{Compiler: CompilerConfig{Workers: 1}}
}

// LoadConfig reads and validates a configuration file.
func LoadConfig(path string) (*Config, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(buff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates TOML configuration.
func ParseConfig(buff []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(buff, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Compiler.Workers == 0 {
		cfg.Compiler.Workers = 1
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Compiler.Workers < 0 {
		return fmt.Errorf("compiler.workers must not be negative, got %d", c.Compiler.Workers)
	}
	if c.Runtime.MaxDepth < 0 {
		return fmt.Errorf("runtime.max-depth must not be negative, got %d", c.Runtime.MaxDepth)
	}
	builtin := DefaultOpcodes()
	seen := make(map[string]bool, len(c.Opcodes))
	for i, op := range c.Opcodes {
		if op.Name == "" {
			return fmt.Errorf("opcode %d: missing name", i+1)
		}
		if !isOpcodeName(op.Name) {
			return fmt.Errorf("opcode %d: '%s' is not a valid opcode name", i+1, op.Name)
		}
		if _, ok := builtin[op.Name]; ok || IsControlOpcode(op.Name) {
			return fmt.Errorf("opcode '%s' is built in and cannot be redefined", op.Name)
		}
		if seen[op.Name] {
			return fmt.Errorf("opcode '%s' is defined twice", op.Name)
		}
		seen[op.Name] = true
		if op.Operands < 0 {
			return fmt.Errorf("opcode '%s': operands must not be negative", op.Name)
		}
		if op.Writes && op.Operands == 0 {
			return fmt.Errorf("opcode '%s' writes its first operand but takes none", op.Name)
		}
	}
	return nil
}

func isOpcodeName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isLetter(c) && (i == 0 || !isDigit(c)) {
			return false
		}
	}
	return name != ""
}

// Options returns the compile options described by the configuration.
func (c *Config) Options() Options {
	opts := Options{Workers: c.Compiler.Workers}
	for _, op := range c.Opcodes {
		opts.Opcodes = append(opts.Opcodes, Opcode{Name: op.Name, Operands: op.Operands, Writes: op.Writes})
	}
	return opts
}
