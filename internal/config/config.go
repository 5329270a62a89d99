// Package config holds the settings shared by the lazy command line tools.
// Every flag can also be set through the environment.
package config

import (
	"io"

	"lazy/internal/lazy"
)

// Config is the CLI parsing structure for the global flags. It is embedded
// into the top-level argument struct of each command.
type Config struct {
	Verbose int  `arg:"-v,--verbose,env:LAZY_VERBOSE" default:"0" help:"log verbosity, from 0 (errors only) to 2 (debug)"`
	Trace   bool `arg:"--trace,env:LAZY_TRACE" help:"log every thunk evaluation (needs --verbose=2)"`
	Strict  bool `arg:"--strict,env:LAZY_STRICT" help:"run programs as written, without the lazy rewrite"`
	NoColor bool `arg:"--no-color" help:"disable colored output"`
}

// Lazy reports whether programs should run under call-by-need.
func (obj *Config) Lazy() bool {
	return !obj.Strict
}

// Verbosity maps the verbose flag onto commonlog's scale, where 0 is
// errors only and 4 is debug.
func (obj *Config) Verbosity() int {
	switch {
	case obj.Verbose <= 0:
		return 0
	case obj.Verbose == 1:
		return 2
	}
	return 4
}

// Options builds the runtime options these settings describe.
func (obj *Config) Options(stdout io.Writer) lazy.Options {
	return lazy.Options{
		Trace:  obj.Trace,
		Stdout: stdout,
	}
}
