// config.go - backend configuration
//
// Mirrors the teacher project's internal/pkg/config.go pattern of a
// TOML-backed config struct with a constructor default, adapted from a
// package-manifest format to backend tuning knobs: which debug traces
// to print, how large the frame may grow, and the word width of the
// target the assembler implements.

package jit

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config tunes backend behavior. Front-ends typically build one Config
// per target and reuse it across many Contexts.
type Config struct {
	// TargetWordSize is 4 on a 32-bit target, which activates the
	// register-pair path for 8-byte values (spec §4.2 "Freezing").
	TargetWordSize int `toml:"target_word_size"`

	// MaxFrameSlots bounds how large the spill frame may grow before
	// allocation aborts instead of silently exhausting memory; 0 means
	// unbounded.
	MaxFrameSlots int `toml:"max_frame_slots"`

	// DebugAppend, DebugCompile, DebugStack, DebugRegisters gate the
	// zap trace lines emitted during event construction and the
	// compile pass, matching the named bool constants at the top of
	// the source compiler.
	DebugAppend    bool `toml:"debug_append"`
	DebugCompile   bool `toml:"debug_compile"`
	DebugStack     bool `toml:"debug_stack"`
	DebugRegisters bool `toml:"debug_registers"`
}

// DefaultConfig matches a 64-bit target with all trace output disabled.
func DefaultConfig() *Config {
	return &Config{
		TargetWordSize: 8,
		MaxFrameSlots:  0,
	}
}

// LoadConfig reads a TOML config file, starting from DefaultConfig and
// overlaying whatever fields the file sets.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
