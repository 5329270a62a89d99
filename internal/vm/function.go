package vm

import (
	"fmt"

	"lazy/internal/ir"
	"lazy/internal/object"
)

const TypeFunction object.Type = "function"

// env is a chain of local scopes visible to a closure, innermost first.
type env struct {
	vars   *object.Namespace
	parent *env
}

func (e *env) lookup(name string) (object.Object, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Function is an lz function: compiled IR plus the scope it was created in.
type Function struct {
	interp   *Interpreter
	ir       *ir.Function
	defaults []object.Object
	env      *env
}

func (f *Function) Type() object.Type { return TypeFunction }
func (f *Function) String() string    { return fmt.Sprintf("<function %s>", f.ir.Name) }

// IR returns the code the function runs.
func (f *Function) IR() *ir.Function { return f.ir }

// Defaults returns the default values, one per parameter that has one.
func (f *Function) Defaults() []object.Object { return f.defaults }

// Derive returns a function running fn with the given defaults in f's
// enclosing scope.
func (f *Function) Derive(fn *ir.Function, defaults []object.Object) *Function {
	return &Function{interp: f.interp, ir: fn, defaults: defaults, env: f.env}
}

// Call binds the arguments and runs the body. Arguments are passed as
// given; the body decides what to force.
func (f *Function) Call(args []object.Object, kwargs object.Kwargs) (object.Object, error) {
	locals, err := f.bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	fr := f.interp.newFrame(f.ir, f.env)
	fr.locals = locals
	return fr.run()
}

func (f *Function) bind(args []object.Object, kwargs object.Kwargs) (*object.Namespace, error) {
	name := f.ir.Name
	locals := object.NewNamespace()
	bound := make(map[string]bool)

	var varargs, varkw *ir.Parameter
	var plain []*ir.Parameter
	for _, p := range f.ir.Params {
		switch p.Kind {
		case ir.ParamVarArgs:
			varargs = p
		case ir.ParamKwArgs:
			varkw = p
		default:
			plain = append(plain, p)
		}
	}

	for i, a := range args {
		if i >= len(plain) {
			break
		}
		locals.Set(plain[i].Name, a)
		bound[plain[i].Name] = true
	}
	if len(args) > len(plain) {
		if varargs == nil {
			return nil, object.Errorf(object.TypeError, "%s() takes %d positional argument%s but %d were given",
				name, len(plain), plural(len(plain)), len(args))
		}
		locals.Set(varargs.Name, object.NewTuple(append([]object.Object(nil), args[len(plain):]...)...))
	} else if varargs != nil {
		locals.Set(varargs.Name, object.NewTuple())
	}

	var extra *object.Dict
	if varkw != nil {
		extra = object.NewDict()
	}
	for _, k := range object.SortedKeys(kwargs) {
		known := false
		for _, p := range plain {
			if p.Name == k {
				known = true
				break
			}
		}
		switch {
		case known && bound[k]:
			return nil, object.Errorf(object.TypeError, "%s() got multiple values for argument '%s'", name, k)
		case known:
			locals.Set(k, kwargs[k])
			bound[k] = true
		case extra != nil:
			if err := extra.Set(object.Str(k), kwargs[k]); err != nil {
				return nil, err
			}
		default:
			return nil, object.Errorf(object.TypeError, "%s() got an unexpected keyword argument '%s'", name, k)
		}
	}
	if extra != nil {
		locals.Set(varkw.Name, extra)
	}

	d := 0
	for _, p := range plain {
		if !p.HasDefault {
			if !bound[p.Name] {
				return nil, object.Errorf(object.TypeError, "%s() missing required argument '%s'", name, p.Name)
			}
			continue
		}
		if !bound[p.Name] {
			if d >= len(f.defaults) {
				return nil, object.Errorf(object.TypeError, "%s() has no default for '%s'", name, p.Name)
			}
			locals.Set(p.Name, f.defaults[d])
		}
		d++
	}
	return locals, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
