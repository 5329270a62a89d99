// Package lazy runs lz programs under call-by-need evaluation.
//
// A Runtime compiles source, applies the rewrite pass and executes the
// result. Names and literals in a lazy program are thunks, so nothing is
// computed until something forces it: an eval result forced by its caller,
// a branch condition, or an explicit strict(...) in the program. An
// expression statement whose value is never forced has no effect.
package lazy

import (
	"context"
	"io"
	"maps"

	"github.com/tliron/commonlog"

	"lazy/internal/compiler"
	"lazy/internal/data"
	"lazy/internal/ir"
	"lazy/internal/object"
	"lazy/internal/rewrite"
	"lazy/internal/stdlib"
	"lazy/internal/thunk"
	"lazy/internal/util/errwrap"
	"lazy/internal/vm"
)

var log = commonlog.GetLogger("lazy")

type Mode = compiler.Mode

const (
	ModeExec = compiler.ModeExec
	ModeEval = compiler.ModeEval
)

// StringFilename names source units that did not come from a file.
const StringFilename = "<string>"

type Options struct {
	// Kind is the thunk kind lazy programs construct. nil selects
	// thunk.Default, or a traced kind when Trace is set.
	Kind  *thunk.Kind
	Trace bool

	// Importer resolves imports. nil selects the standard modules, and
	// imports of any other name are then rejected at compile time.
	Importer vm.Importer

	// Builtins are added to the default builtins, the lazy wrappers and
	// the lazy list constructors.
	Builtins map[string]object.Object

	Stdout io.Writer
}

// Runtime owns one interpreter. Globals persist across calls, so a
// Runtime can serve a REPL session.
type Runtime struct {
	kind    *thunk.Kind
	interp  *vm.Interpreter
	pass    *rewrite.Pass
	modules []string
}

func New(options Options) *Runtime {
	kind := options.Kind
	if kind == nil {
		kind = thunk.Default
		if options.Trace {
			kind = thunk.NewTracedKind("thunk", commonlog.GetLogger("lazy.trace"))
		}
	}

	r := &Runtime{kind: kind}
	importer := options.Importer
	if importer == nil {
		importer = stdlib.NewRegistry()
		r.modules = stdlib.ModuleNames()
	}

	builtins := Wrappers(kind)
	maps.Copy(builtins, data.Builtins())
	maps.Copy(builtins, options.Builtins)
	r.interp = vm.New(vm.Options{
		Builtins: builtins,
		Importer: importer,
		Stdout:   options.Stdout,
	})
	r.pass = rewrite.New(rewrite.Options{Kind: kind, Importer: r.interp.ImportFunc()})
	return r
}

// Wrappers returns the names lazy programs use to talk about laziness:
// thunk builds a pending thunk of kind, strict forces, undefined is the
// value that must never be needed, and seq forces one value before
// yielding another.
func Wrappers(kind *thunk.Kind) map[string]object.Object {
	return map[string]object.Object{
		"thunk":     kind.Constructor(),
		"strict":    thunk.StrictFunc,
		"undefined": thunk.Undefined(),
		"seq":       thunk.SeqFunc,
	}
}

func (r *Runtime) Kind() *thunk.Kind {
	return r.kind
}

func (r *Runtime) Interpreter() *vm.Interpreter {
	return r.interp
}

// Compile parses and compiles source into strict IR.
func (r *Runtime) Compile(filename, source string, mode Mode) (*ir.Program, error) {
	return compiler.Compile(filename, source, mode, compiler.Options{Modules: r.modules})
}

// Lazy returns the call-by-need form of program. program is not modified.
func (r *Runtime) Lazy(program *ir.Program) (*ir.Program, error) {
	out := &ir.Program{Filename: program.Filename, Main: program.Main}
	if err := ir.NewPipeline(r.pass).Run(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Execute compiles and runs one source unit, lazily or strictly. In exec
// mode the result is None; in eval mode it is the expression's value,
// which under laziness is usually an unforced thunk.
func (r *Runtime) Execute(ctx context.Context, filename, source string, mode Mode, lazy bool) (object.Object, error) {
	program, err := r.Compile(filename, source, mode)
	if err != nil {
		return nil, err
	}
	if lazy {
		if program, err = r.Lazy(program); err != nil {
			return nil, err
		}
	}
	log.Debugf("executing %s (%s, lazy=%t)", filename, mode, lazy)
	v, err := r.interp.Run(ctx, program)
	if err != nil {
		return nil, err
	}
	if mode == ModeExec {
		return object.None, nil
	}
	return v, nil
}

// Bind sets globals visible to the programs the runtime executes.
func (r *Runtime) Bind(bindings map[string]object.Object) {
	for name, v := range bindings {
		r.interp.Globals().Set(name, v)
	}
}

// RunLazy executes source under call-by-need with bindings as globals.
func (r *Runtime) RunLazy(ctx context.Context, source string, mode Mode, bindings map[string]object.Object) (object.Object, error) {
	r.Bind(bindings)
	return r.Execute(ctx, StringFilename, source, mode, true)
}

// Run is the strict counterpart of RunLazy.
func (r *Runtime) Run(ctx context.Context, source string, mode Mode, bindings map[string]object.Object) (object.Object, error) {
	r.Bind(bindings)
	return r.Execute(ctx, StringFilename, source, mode, false)
}

// MakeLazy returns a call-by-need version of fn with the same signature.
// Defaults are wrapped as evaluated thunks. fn is left untouched.
func (r *Runtime) MakeLazy(fn *vm.Function) (*vm.Function, error) {
	return makeLazy(r.pass, fn)
}

func makeLazy(pass *rewrite.Pass, fn *vm.Function) (*vm.Function, error) {
	lazyIR, err := pass.Function(fn.IR())
	if err != nil {
		return nil, errwrap.Wrapf(err, "make %s lazy", fn.IR().Name)
	}
	defaults := make([]object.Object, len(fn.Defaults()))
	for i, d := range fn.Defaults() {
		defaults[i] = pass.Kind().FromValue(d)
	}
	return fn.Derive(lazyIR, defaults), nil
}

// RunLazy executes source under call-by-need in a fresh runtime.
func RunLazy(ctx context.Context, source string, mode Mode, bindings map[string]object.Object) (object.Object, error) {
	return New(Options{}).RunLazy(ctx, source, mode, bindings)
}

// Run executes source strictly in a fresh runtime.
func Run(ctx context.Context, source string, mode Mode, bindings map[string]object.Object) (object.Object, error) {
	return New(Options{}).Run(ctx, source, mode, bindings)
}

// MakeLazy makes fn lazy with the default thunk kind.
func MakeLazy(fn *vm.Function) (*vm.Function, error) {
	return makeLazy(rewrite.New(rewrite.Options{}), fn)
}

// Compile compiles a whole program against the standard modules.
func Compile(filename, source string) (*ir.Program, error) {
	return compiler.Compile(filename, source, ModeExec, compiler.Options{Modules: stdlib.ModuleNames()})
}

// Normalize forces v and, recursively, the elements of the lists, tuples
// and dicts it holds. The first failure is returned. Containers are
// rebuilt, so v itself is left as it was.
func Normalize(v object.Object) (object.Object, error) {
	v, err := object.Strict(v)
	if err != nil {
		return nil, err
	}
	switch c := v.(type) {
	case *object.List:
		elems, err := normalizeAll(c.Elems)
		if err != nil {
			return nil, err
		}
		return object.NewList(elems...), nil
	case *object.Tuple:
		elems, err := normalizeAll(c.Elems)
		if err != nil {
			return nil, err
		}
		return object.NewTuple(elems...), nil
	case *object.Dict:
		keys, err := normalizeAll(c.Keys())
		if err != nil {
			return nil, err
		}
		values, err := normalizeAll(c.Values())
		if err != nil {
			return nil, err
		}
		d := object.NewDict()
		for i, k := range keys {
			if err := d.Set(k, values[i]); err != nil {
				return nil, err
			}
		}
		return d, nil
	}
	return v, nil
}

func normalizeAll(vs []object.Object) ([]object.Object, error) {
	out := make([]object.Object, len(vs))
	for i, v := range vs {
		n, err := Normalize(v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
