// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"lazy/internal/config"
	lzerrors "lazy/internal/errors"
	"lazy/internal/ir"
	"lazy/internal/lazy"
	"lazy/internal/repl"
)

const program = "lazy"

var version = "0.1.0"

type RunCmd struct {
	File string `arg:"positional,required" help:"lz source file"`
}

type EvalCmd struct {
	Expr string `arg:"positional,required" help:"expression to evaluate"`
}

type IRCmd struct {
	File string `arg:"positional,required" help:"lz source file"`
	Lazy bool   `arg:"--lazy" help:"print the call-by-need form instead of the strict one"`
}

type ReplCmd struct{}

// Args is the CLI parsing structure and type of the parsed result.
type Args struct {
	config.Config

	Run  *RunCmd  `arg:"subcommand:run" help:"run a program"`
	Eval *EvalCmd `arg:"subcommand:eval" help:"evaluate an expression and print its value"`
	IR   *IRCmd   `arg:"subcommand:ir" help:"print the IR a program compiles to"`
	Repl *ReplCmd `arg:"subcommand:repl" help:"start the interactive shell"`
}

func (Args) Version() string {
	return program + " " + version
}

func (Args) Description() string {
	return "run lz programs under call-by-need evaluation"
}

func main() {
	var args Args
	parser, err := arg.NewParser(arg.Config{Program: program}, &args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := parser.Parse(os.Args[1:]); err != nil {
		switch {
		case errors.Is(err, arg.ErrHelp):
			parser.WriteHelp(os.Stdout)
			return
		case errors.Is(err, arg.ErrVersion):
			fmt.Println(args.Version())
			return
		}
		parser.Fail(err.Error())
	}
	if parser.Subcommand() == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(2)
	}

	if args.NoColor {
		color.NoColor = true
	}
	commonlog.Configure(args.Verbosity(), nil)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	startTime := time.Now()
	err = run(ctx, &args)
	duration := formatDuration(time.Since(startTime))
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "failed after %s\n", duration)
		os.Exit(1)
	}
	if args.Verbose > 0 && args.Repl == nil {
		color.New(color.FgGreen).Fprintf(os.Stderr, "done in %s\n", duration)
	}
}

func run(ctx context.Context, args *Args) error {
	rt := lazy.New(args.Options(os.Stdout))

	switch {
	case args.Run != nil:
		source, err := readFile(args.Run.File)
		if err != nil {
			return err
		}
		_, err = rt.Execute(ctx, args.Run.File, source, lazy.ModeExec, args.Lazy())
		return report(args.Run.File, source, err)

	case args.Eval != nil:
		v, err := rt.Execute(ctx, lazy.StringFilename, args.Eval.Expr, lazy.ModeEval, args.Lazy())
		if err == nil {
			v, err = lazy.Normalize(v)
		}
		if err != nil {
			return report(lazy.StringFilename, args.Eval.Expr, err)
		}
		fmt.Println(v)
		return nil

	case args.IR != nil:
		source, err := readFile(args.IR.File)
		if err != nil {
			return err
		}
		compiled, err := rt.Compile(args.IR.File, source, lazy.ModeExec)
		if err == nil && args.IR.Lazy {
			compiled, err = rt.Lazy(compiled)
		}
		if err != nil {
			return report(args.IR.File, source, err)
		}
		fmt.Print(ir.Print(compiled))
		return nil

	case args.Repl != nil:
		if u, err := user.Current(); err == nil {
			fmt.Printf("Welcome to the lz REPL, %s! Type :help for commands.\n", u.Username)
		}
		return repl.NewSession(rt, args.Lazy(), os.Stdout, os.Stderr).Run(ctx)
	}
	return nil
}

func readFile(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		return "", err
	}
	return string(source), nil
}

// report prints err, if any, against the source it came from and returns
// it unchanged.
func report(filename, source string, err error) error {
	if err == nil {
		return nil
	}
	fmt.Fprint(os.Stderr, lzerrors.NewErrorReporter(filename, source).Report(err))
	return err
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
