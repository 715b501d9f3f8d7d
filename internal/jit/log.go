// log.go - structured compile tracing
//
// The source compiler gates fprintf traces behind file-scope bool
// constants (DebugAppend, DebugCompile, DebugStack, DebugRegisters).
// This keeps the same on/off-per-concern shape but routes through a
// zap logger so traces carry structured fields instead of ad hoc
// strings, and so a front-end embedding the backend can redirect or
// sample them.
package jit

import "go.uber.org/zap"

func newLogger(cfg *Config) *zap.Logger {
	if !cfg.DebugAppend && !cfg.DebugCompile && !cfg.DebugStack && !cfg.DebugRegisters {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Loggers is one named child logger per debug concern, matching the
// source compiler's four independent gates one for one. Each is
// zap.NewNop() unless its own Config flag is set, so DebugStack can be
// switched on without also paying for DebugRegisters' volume.
type Loggers struct {
	Append    *zap.Logger
	Compile   *zap.Logger
	Stack     *zap.Logger
	Registers *zap.Logger
}

func newLoggers(cfg *Config, base *zap.Logger) Loggers {
	return Loggers{
		Append:    scopedLogger(base, "append", cfg.DebugAppend),
		Compile:   scopedLogger(base, "compile", cfg.DebugCompile),
		Stack:     scopedLogger(base, "stack", cfg.DebugStack),
		Registers: scopedLogger(base, "registers", cfg.DebugRegisters),
	}
}

func scopedLogger(base *zap.Logger, name string, enabled bool) *zap.Logger {
	if !enabled {
		return zap.NewNop()
	}
	return base.Named(name)
}
