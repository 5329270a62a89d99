// Package repl is the interactive shell for lz. Inputs share one runtime,
// so globals persist from one input to the next. An expression input is
// forced and its repr printed.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/tliron/commonlog"

	lzerrors "lazy/internal/errors"
	"lazy/internal/grammar"
	"lazy/internal/ir"
	"lazy/internal/lazy"
	"lazy/internal/object"
)

var log = commonlog.GetLogger("lazy.repl")

const (
	Prompt             = ">>> "
	ContinuationPrompt = "... "
	Filename           = "<stdin>"

	historyFile = ".lazy_history"
)

var (
	hooksMu sync.Mutex
	hooks   []ir.Pass
)

// Register installs pass on every session created afterwards. Registered
// passes run on each input after the lazy rewrite, in registration order.
// This is the only integration point a host shell needs.
func Register(pass ir.Pass) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = append(hooks, pass)
	log.Debugf("registered pass %s", pass.Name())
}

func registered() []ir.Pass {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	return append([]ir.Pass(nil), hooks...)
}

// Session evaluates inputs against one runtime.
type Session struct {
	rt     *lazy.Runtime
	lazy   bool
	showIR bool
	passes []ir.Pass
	out    io.Writer
	errOut io.Writer
}

func NewSession(rt *lazy.Runtime, lazy bool, out, errOut io.Writer) *Session {
	return &Session{
		rt:     rt,
		lazy:   lazy,
		passes: registered(),
		out:    out,
		errOut: errOut,
	}
}

// Lazy reports whether inputs currently run under call-by-need.
func (s *Session) Lazy() bool {
	return s.lazy
}

// Complete reports whether source is a whole input. Sources that fail to
// parse for any reason other than running out of tokens are complete, so
// that their syntax error is reported.
func Complete(source string) bool {
	_, _, ok := classify(source)
	return ok
}

// classify picks the mode for source. Statements may omit their final ';'.
func classify(source string) (string, lazy.Mode, bool) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" || strings.HasPrefix(trimmed, ":") {
		return trimmed, lazy.ModeExec, true
	}
	if _, err := grammar.ParseExpr(Filename, trimmed); err == nil {
		return trimmed, lazy.ModeEval, true
	}
	_, err := grammar.Parse(Filename, trimmed)
	if err == nil || !grammar.Incomplete(err) {
		return trimmed, lazy.ModeExec, true
	}
	if _, err := grammar.Parse(Filename, trimmed+";"); err == nil {
		return trimmed + ";", lazy.ModeExec, true
	}
	return trimmed, lazy.ModeExec, false
}

// Eval runs one input. The value of an expression input is normalized and
// printed unless it is None.
func (s *Session) Eval(ctx context.Context, source string) error {
	source, mode, _ := classify(source)
	if source == "" {
		return nil
	}

	program, err := s.rt.Compile(Filename, source, mode)
	if err != nil {
		return err
	}
	if s.lazy {
		if program, err = s.rt.Lazy(program); err != nil {
			return err
		}
	}
	if len(s.passes) > 0 {
		if err := ir.NewPipeline(s.passes...).Run(program); err != nil {
			return err
		}
	}
	if s.showIR {
		fmt.Fprint(s.out, ir.Print(program))
	}

	v, err := s.rt.Interpreter().Run(ctx, program)
	if err != nil {
		return err
	}
	if mode == lazy.ModeExec {
		return nil
	}
	if v, err = lazy.Normalize(v); err != nil {
		return err
	}
	if v != object.None {
		fmt.Fprintln(s.out, color.CyanString(v.String()))
	}
	return nil
}

// Command runs a ':' command. It returns false when the session should
// end.
func (s *Session) Command(line string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case ":quit", ":q":
		return false, nil
	case ":lazy":
		s.lazy = true
		fmt.Fprintln(s.out, "call-by-need evaluation")
	case ":strict":
		s.lazy = false
		fmt.Fprintln(s.out, "strict evaluation")
	case ":ir":
		s.showIR = !s.showIR
		fmt.Fprintf(s.out, "show IR: %t\n", s.showIR)
	case ":help":
		fmt.Fprintln(s.out, "commands: :lazy, :strict, :ir, :help, :quit")
	default:
		return true, fmt.Errorf("unknown command %s, type :help for a list", line)
	}
	return true, nil
}

// Report prints err for the input source it came from.
func (s *Session) Report(source string, err error) {
	fmt.Fprint(s.errOut, lzerrors.NewErrorReporter(Filename, source).Report(err))
}

// Run reads inputs from the terminal until :quit, end of input or ctx is
// done. History is kept in the user's home directory.
func (s *Session) Run(ctx context.Context) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, historyFile)
		if f, err := os.Open(path); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(path); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for ctx.Err() == nil {
		source, ok := read(ln)
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}
		trimmed := strings.TrimSpace(source)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(trimmed, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			more, err := s.Command(trimmed)
			if err != nil {
				fmt.Fprintln(s.errOut, err)
			}
			if !more {
				return nil
			}
			continue
		}
		if err := s.Eval(ctx, source); err != nil {
			s.Report(source, err)
		}
	}
	return ctx.Err()
}

// read collects lines until they form a complete input. ok is false at
// end of input. Ctrl-C discards the pending lines.
func read(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := Prompt
		if b.Len() > 0 {
			prompt = ContinuationPrompt
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			log.Errorf("read: %s", err)
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if Complete(b.String()) {
			return b.String(), true
		}
	}
}
