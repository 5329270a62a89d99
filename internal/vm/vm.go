// Package vm executes IR.
//
// The interpreter is strict: it runs every instruction as it is reached.
// Lazy programs need no special support beyond deferred global loads,
// because the rewrite pass has already turned their values into thunks and
// the operator dispatch in package thunk defers anything that touches one.
package vm

import (
	"context"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"lazy/internal/ir"
	"lazy/internal/object"
)

var log = commonlog.GetLogger("lazy.vm")

// Importer resolves module names for import statements.
type Importer interface {
	Import(name string) (object.Object, error)
}

type Options struct {
	// Builtins are added to, or replace, the default builtins.
	Builtins map[string]object.Object
	Importer Importer
	// Stdout receives the output of print. nil means os.Stdout.
	Stdout io.Writer
}

// Interpreter holds the global state of one program run. Globals persist
// across Run calls so that a REPL can execute statements one at a time.
type Interpreter struct {
	globals  *object.Namespace
	builtins *object.Namespace
	importer Importer
	stdout   io.Writer

	importFunc *object.Builtin
}

func New(options Options) *Interpreter {
	in := &Interpreter{
		globals:  object.NewNamespace(),
		builtins: object.NewNamespace(),
		importer: options.Importer,
		stdout:   options.Stdout,
	}
	if in.stdout == nil {
		in.stdout = os.Stdout
	}
	for name, v := range in.defaultBuiltins() {
		in.builtins.Set(name, v)
	}
	for name, v := range options.Builtins {
		in.builtins.Set(name, v)
	}
	in.importFunc = object.NewBuiltin("import", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs("import", args, 1, 1); err != nil {
			return nil, err
		}
		name, ok := args[0].(object.Str)
		if !ok {
			return nil, object.Errorf(object.TypeError, "module name must be a string")
		}
		return in.Import(string(name))
	})
	return in
}

func (in *Interpreter) Globals() *object.Namespace {
	return in.globals
}

func (in *Interpreter) Builtins() *object.Namespace {
	return in.builtins
}

// Lookup resolves a global name, falling back to the builtins.
func (in *Interpreter) Lookup(name string) (object.Object, error) {
	if v, ok := in.globals.Get(name); ok {
		return v, nil
	}
	if v, ok := in.builtins.Get(name); ok {
		return v, nil
	}
	return nil, object.Errorf(object.NameError, "name '%s' is not defined", name)
}

// Import resolves a module through the configured importer.
func (in *Interpreter) Import(name string) (object.Object, error) {
	if in.importer == nil {
		return nil, object.Errorf(object.ImportError, "no module named '%s'", name)
	}
	return in.importer.Import(name)
}

// ImportFunc is Import as a builtin, for deferred imports.
func (in *Interpreter) ImportFunc() *object.Builtin {
	return in.importFunc
}

// Run executes a program's module body. The context is checked whenever the
// module body moves to another block; a running call is not interrupted.
func (in *Interpreter) Run(ctx context.Context, program *ir.Program) (object.Object, error) {
	fr := in.newFrame(program.Main, nil)
	fr.ctx = ctx
	v, err := fr.run()
	if err != nil {
		if exc, ok := object.AsException(err); ok {
			log.Debugf("uncaught exception in %s: %s", program.Filename, exc)
		}
		return nil, err
	}
	return v, nil
}

// NewFunction creates a callable for fn with no enclosing scope. defaults
// hold the values of the parameters that have one, in order.
func (in *Interpreter) NewFunction(fn *ir.Function, defaults []object.Object) *Function {
	return &Function{interp: in, ir: fn, defaults: defaults}
}
