package vm

import (
	"context"

	"lazy/internal/ir"
	"lazy/internal/object"
	"lazy/internal/thunk"
)

// frame is one activation of a function.
type frame struct {
	interp *Interpreter
	fn     *ir.Function
	regs   []object.Object
	locals *object.Namespace
	// free is the closure scope; load_free starts there.
	free *env
	// exc is the exception being handled.
	exc *object.Exception
	// ctx is set on module frames only.
	ctx context.Context
}

func (in *Interpreter) newFrame(fn *ir.Function, free *env) *frame {
	return &frame{
		interp: in,
		fn:     fn,
		regs:   make([]object.Object, fn.NumValues()),
		locals: object.NewNamespace(),
		free:   free,
	}
}

func (fr *frame) get(v *ir.Value) object.Object {
	return fr.regs[v.ID]
}

func (fr *frame) set(v *ir.Value, o object.Object) {
	fr.regs[v.ID] = o
}

// kind is the thunk kind deferred loads construct.
func (fr *frame) kind() *thunk.Kind {
	if fr.fn.LazyKind != nil {
		return fr.fn.LazyKind
	}
	return thunk.Default
}

func (fr *frame) run() (object.Object, error) {
	block := fr.fn.Entry()
	for {
		if fr.ctx != nil {
			if err := fr.ctx.Err(); err != nil {
				return nil, err
			}
		}

		next, result, done, err := fr.block(block)
		if err != nil {
			exc, ok := object.AsException(err)
			if !ok || block.Handler == nil {
				return nil, err
			}
			fr.exc = exc
			block = block.Handler
			continue
		}
		if done {
			return result, nil
		}
		block = next
	}
}

// block runs one basic block. It returns the successor, or the function's
// result when done is set.
func (fr *frame) block(b *ir.BasicBlock) (next *ir.BasicBlock, result object.Object, done bool, err error) {
	for _, inst := range b.Instructions {
		if err := fr.exec(inst); err != nil {
			return nil, nil, false, err
		}
	}

	switch t := b.Terminator.(type) {
	case *ir.Return:
		if t.Value == nil {
			return nil, object.None, true, nil
		}
		return nil, fr.get(t.Value), true, nil

	case *ir.Jump:
		return t.Target, nil, false, nil

	case *ir.Branch:
		ok, err := thunk.Truth(fr.get(t.Cond))
		if err != nil {
			return nil, nil, false, err
		}
		if ok {
			return t.Then, nil, false, nil
		}
		return t.Else, nil, false, nil

	case *ir.ForIter:
		it, ok := fr.get(t.Iter).(*object.Iterator)
		if !ok {
			return nil, nil, false, object.Errorf(object.TypeError, "for_iter on a non-iterator")
		}
		v, more, err := it.Next()
		if err != nil {
			return nil, nil, false, err
		}
		if !more {
			return t.Exit, nil, false, nil
		}
		fr.set(t.Result, v)
		return t.Body, nil, false, nil

	case *ir.Raise:
		return nil, nil, false, fr.raise(t.Value)
	}
	return nil, nil, false, object.Errorf(object.RuntimeError, "block %s has no terminator", b.Label)
}

// raise builds the exception a raise terminator throws. A nil value
// re-raises the exception being handled.
func (fr *frame) raise(v *ir.Value) error {
	if v == nil {
		if fr.exc == nil {
			return object.Errorf(object.RuntimeError, "no active exception to re-raise")
		}
		return fr.exc
	}
	o, err := object.Strict(fr.get(v))
	if err != nil {
		return err
	}
	switch o := o.(type) {
	case *object.Exception:
		return o
	case *object.ExceptionClass:
		return &object.Exception{Class: o}
	}
	return object.Errorf(object.TypeError, "exceptions must derive from Exception, not '%s'", o.Type())
}

func (fr *frame) exec(inst ir.Instruction) error {
	switch i := inst.(type) {
	case *ir.Const:
		fr.set(i.Result, fr.fn.Consts[i.Index].Value)

	case *ir.LoadLocal:
		v, ok := fr.locals.Get(i.Name)
		if !ok {
			return object.Errorf(object.NameError, "local variable '%s' referenced before assignment", i.Name)
		}
		fr.set(i.Result, v)

	case *ir.LoadFree:
		v, ok := fr.free.lookup(i.Name)
		if !ok {
			return object.Errorf(object.NameError, "free variable '%s' referenced before assignment", i.Name)
		}
		fr.set(i.Result, v)

	case *ir.LoadGlobal:
		return fr.loadGlobal(i)

	case *ir.StoreLocal:
		fr.locals.Set(i.Name, fr.get(i.Value))

	case *ir.StoreGlobal:
		fr.interp.globals.Set(i.Name, fr.get(i.Value))

	case *ir.BinOp:
		var v object.Object
		var err error
		if i.InPlace {
			v, err = thunk.InPlace(i.Op, fr.get(i.Left), fr.get(i.Right))
		} else {
			v, err = thunk.Binary(i.Op, fr.get(i.Left), fr.get(i.Right))
		}
		return fr.result(i.Result, v, err)

	case *ir.UnaryOp:
		v, err := thunk.Unary(i.Op, fr.get(i.Operand))
		return fr.result(i.Result, v, err)

	case *ir.Compare:
		v, err := thunk.Compare(i.Op, fr.get(i.Left), fr.get(i.Right))
		return fr.result(i.Result, v, err)

	case *ir.Is:
		same := object.Identical(fr.get(i.Left), fr.get(i.Right))
		fr.set(i.Result, object.Bool(same != i.Negate))

	case *ir.Not:
		v, err := object.Not(fr.get(i.Operand))
		return fr.result(i.Result, v, err)

	case *ir.Call:
		args := make([]object.Object, len(i.Args))
		for k, a := range i.Args {
			args[k] = fr.get(a)
		}
		var kwargs object.Kwargs
		if len(i.Kwargs) > 0 {
			kwargs = make(object.Kwargs, len(i.Kwargs))
			for _, kw := range i.Kwargs {
				kwargs[kw.Name] = fr.get(kw.Value)
			}
		}
		v, err := thunk.Call(fr.get(i.Func), args, kwargs)
		return fr.result(i.Result, v, err)

	case *ir.GetAttr:
		v, err := thunk.GetAttr(fr.get(i.Object), i.Name)
		return fr.result(i.Result, v, err)

	case *ir.SetAttr:
		return thunk.SetAttr(fr.get(i.Object), i.Name, fr.get(i.Value))

	case *ir.GetItem:
		v, err := thunk.GetItem(fr.get(i.Object), fr.get(i.Key))
		return fr.result(i.Result, v, err)

	case *ir.SetItem:
		return thunk.SetItem(fr.get(i.Object), fr.get(i.Key), fr.get(i.Value))

	case *ir.Build:
		v, err := fr.build(i)
		return fr.result(i.Result, v, err)

	case *ir.Append:
		return fr.append(i)

	case *ir.Seal:
		fr.set(i.Result, fr.get(i.Container))

	case *ir.MakeFunction:
		defaults := make([]object.Object, len(i.Defaults))
		for k, d := range i.Defaults {
			defaults[k] = fr.get(d)
		}
		fr.set(i.Result, &Function{
			interp:   fr.interp,
			ir:       fr.fn.Consts[i.Index].Func,
			defaults: defaults,
			env:      &env{vars: fr.locals, parent: fr.free},
		})

	case *ir.Import:
		v, err := fr.interp.Import(i.Module)
		return fr.result(i.Result, v, err)

	case *ir.GetIter:
		it, err := thunk.Iter(fr.get(i.Iterable))
		if err != nil {
			return err
		}
		fr.set(i.Result, it)

	case *ir.Unpack:
		return fr.unpack(i)

	case *ir.Enter:
		v, err := thunk.Enter(fr.get(i.Manager))
		return fr.result(i.Result, v, err)

	case *ir.Exit:
		var exc *object.Exception
		if i.Exc != nil {
			if e, ok := fr.get(i.Exc).(*object.Exception); ok {
				exc = e
			}
		}
		suppress, err := thunk.Exit(fr.get(i.Manager), exc)
		return fr.result(i.Result, object.Bool(suppress), err)

	case *ir.CurrentException:
		if fr.exc == nil {
			fr.set(i.Result, object.None)
		} else {
			fr.set(i.Result, fr.exc)
		}

	case *ir.MatchException:
		ok, err := matches(fr.get(i.Exc), fr.get(i.Class))
		return fr.result(i.Result, object.Bool(ok), err)

	default:
		return object.Errorf(object.RuntimeError, "cannot execute %s", inst)
	}
	return nil
}

func (fr *frame) result(r *ir.Value, v object.Object, err error) error {
	if err != nil {
		return err
	}
	fr.set(r, v)
	return nil
}

// loadGlobal resolves a global name. A deferred load of a name that is not
// bound yet produces a lookup thunk instead of failing.
func (fr *frame) loadGlobal(i *ir.LoadGlobal) error {
	v, err := fr.interp.Lookup(i.Name)
	if !i.Deferred {
		return fr.result(i.Result, v, err)
	}
	if err != nil {
		fr.set(i.Result, fr.kind().Lookup(i.Name, fr.interp.Lookup))
		return nil
	}
	fr.set(i.Result, fr.kind().FromValue(v))
	return nil
}

func (fr *frame) build(i *ir.Build) (object.Object, error) {
	elems := make([]object.Object, len(i.Elems))
	for k, e := range i.Elems {
		elems[k] = fr.get(e)
	}
	switch i.Kind {
	case ir.BuildList:
		return object.NewList(elems...), nil
	case ir.BuildTuple:
		return object.NewTuple(elems...), nil
	case ir.BuildSet:
		return object.SetFrom(elems)
	default:
		return object.DictFrom(elems)
	}
}

func (fr *frame) append(i *ir.Append) error {
	switch c := fr.get(i.Container).(type) {
	case *object.List:
		c.Append(fr.get(i.Value))
		return nil
	case *object.Set:
		return c.Add(fr.get(i.Value))
	}
	return object.Errorf(object.TypeError, "cannot append to '%s'", fr.get(i.Container).Type())
}

func (fr *frame) unpack(i *ir.Unpack) error {
	elems, err := object.Collect(fr.get(i.Value))
	if err != nil {
		return err
	}
	switch n := len(i.Results); {
	case len(elems) < n:
		return object.Errorf(object.ValueError, "not enough values to unpack (expected %d, got %d)", n, len(elems))
	case len(elems) > n:
		return object.Errorf(object.ValueError, "too many values to unpack (expected %d)", n)
	}
	for k, r := range i.Results {
		fr.set(r, elems[k])
	}
	return nil
}

// matches reports whether exc is an instance of class, or of any class in
// a tuple of classes.
func matches(exc, class object.Object) (bool, error) {
	e, ok := exc.(*object.Exception)
	if !ok {
		return false, nil
	}
	class, err := object.Strict(class)
	if err != nil {
		return false, err
	}
	switch c := class.(type) {
	case *object.ExceptionClass:
		return e.Class.IsSubclass(c), nil
	case *object.Tuple:
		for _, elem := range c.Elems {
			if ok, err := matches(exc, elem); ok || err != nil {
				return ok, err
			}
		}
		return false, nil
	}
	return false, object.Errorf(object.TypeError, "catching '%s' that does not inherit from Exception", class.Type())
}
