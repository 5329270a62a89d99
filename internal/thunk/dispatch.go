package thunk

import (
	"lazy/internal/object"
)

// The operations below are what the interpreter uses for every operator.
// When any operand is a thunk the deferring ones build a new thunk of the
// operand's kind whose operation is one of the shared operator builtins;
// otherwise they apply the strict operation directly. The eager ones force
// their operand because the host needs a concrete answer right away.

// Identity returns its single argument. FromValue uses it to adopt thunks
// of a foreign kind and deferred containers use it as their operation.
var Identity = object.NewBuiltin("id", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("id", args, 1, 1); err != nil {
		return nil, err
	}
	return args[0], nil
})

var (
	binaryFuncs  [len(object.BinaryOps)]*object.Builtin
	unaryFuncs   [3]*object.Builtin
	compareFuncs [8]*object.Builtin

	getItemFunc = object.NewBuiltin("getitem", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs("getitem", args, 2, 2); err != nil {
			return nil, err
		}
		return object.GetItem(args[0], args[1])
	})
	lenFunc = object.NewBuiltin("len", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs("len", args, 1, 1); err != nil {
			return nil, err
		}
		n, err := object.Len(args[0])
		return object.Int(n), err
	})
	getAttrFunc = object.NewBuiltin("getattr", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs("getattr", args, 2, 2); err != nil {
			return nil, err
		}
		name, ok := args[1].(object.Str)
		if !ok {
			return nil, object.Errorf(object.TypeError, "attribute name must be string, not '%s'", args[1].Type())
		}
		return object.GetAttr(args[0], string(name))
	})
	nextFunc = object.NewBuiltin("next", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs("next", args, 1, 1); err != nil {
			return nil, err
		}
		return IterNext(args[0])
	})

	isFunc = object.NewBuiltin("is", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs("is", args, 2, 2); err != nil {
			return nil, err
		}
		return object.Bool(object.Identical(args[0], args[1])), nil
	})
	isNotFunc = object.NewBuiltin("is_not", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs("is_not", args, 2, 2); err != nil {
			return nil, err
		}
		return object.Bool(!object.Identical(args[0], args[1])), nil
	})
	notFunc = object.NewBuiltin("not", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs("not", args, 1, 1); err != nil {
			return nil, err
		}
		return object.Not(args[0])
	})
)

func init() {
	for _, op := range object.AllBinaryOps() {
		name := op.Info().Name
		binaryFuncs[op] = object.NewBuiltin(name, func(args []object.Object, _ object.Kwargs) (object.Object, error) {
			if err := object.CheckArgs(name, args, 2, 2); err != nil {
				return nil, err
			}
			return object.Binary(op, args[0], args[1])
		})
	}
	for _, op := range []object.UnaryOp{object.OpNeg, object.OpPos, object.OpInvert} {
		unaryFuncs[op] = object.NewBuiltin(op.Name(), func(args []object.Object, _ object.Kwargs) (object.Object, error) {
			if err := object.CheckArgs(op.Name(), args, 1, 1); err != nil {
				return nil, err
			}
			return object.Unary(op, args[0])
		})
	}
	for op := object.CmpEq; op <= object.CmpNotIn; op++ {
		compareFuncs[op] = object.NewBuiltin(op.Name(), func(args []object.Object, _ object.Kwargs) (object.Object, error) {
			if err := object.CheckArgs(op.Name(), args, 2, 2); err != nil {
				return nil, err
			}
			return object.Compare(op, args[0], args[1])
		})
	}
}

// BinaryFunc returns the shared builtin that deferred thunks use for op.
func BinaryFunc(op object.BinaryOp) *object.Builtin { return binaryFuncs[op] }

// UnaryFunc returns the shared builtin that deferred thunks use for op.
func UnaryFunc(op object.UnaryOp) *object.Builtin { return unaryFuncs[op] }

// CompareFunc returns the shared builtin that deferred thunks use for op.
func CompareFunc(op object.CompareOp) *object.Builtin { return compareFuncs[op] }

// GetItemFunc returns the shared builtin behind deferred subscription.
func GetItemFunc() *object.Builtin { return getItemFunc }

// GetAttrFunc returns the shared builtin behind deferred attribute access.
func GetAttrFunc() *object.Builtin { return getAttrFunc }

// KindOf returns the kind of the first thunk among vs, or nil.
func KindOf(vs ...object.Object) *Kind {
	for _, v := range vs {
		if t, ok := v.(*Thunk); ok {
			return t.kind
		}
	}
	return nil
}

func Binary(op object.BinaryOp, a, b object.Object) (object.Object, error) {
	if k := KindOf(a, b); k != nil {
		return k.New(binaryFuncs[op], []object.Object{a, b}, nil), nil
	}
	return object.Binary(op, a, b)
}

// InPlace defers as the plain operator when an operand is a thunk, since a
// deferred computation has nothing to update in place.
func InPlace(op object.BinaryOp, a, b object.Object) (object.Object, error) {
	if k := KindOf(a, b); k != nil {
		return k.New(binaryFuncs[op], []object.Object{a, b}, nil), nil
	}
	return object.InPlace(op, a, b)
}

func Unary(op object.UnaryOp, a object.Object) (object.Object, error) {
	if k := KindOf(a); k != nil {
		return k.New(unaryFuncs[op], []object.Object{a}, nil), nil
	}
	return object.Unary(op, a)
}

func Compare(op object.CompareOp, a, b object.Object) (object.Object, error) {
	if k := KindOf(a, b); k != nil {
		return k.New(compareFuncs[op], []object.Object{a, b}, nil), nil
	}
	return object.Compare(op, a, b)
}

func GetItem(v, key object.Object) (object.Object, error) {
	if k := KindOf(v, key); k != nil {
		return k.New(getItemFunc, []object.Object{v, key}, nil), nil
	}
	return object.GetItem(v, key)
}

// Len defers the length of a thunk; a strict value yields an Int.
func Len(v object.Object) (object.Object, error) {
	if k := KindOf(v); k != nil {
		return k.New(lenFunc, []object.Object{v}, nil), nil
	}
	n, err := object.Len(v)
	if err != nil {
		return nil, err
	}
	return object.Int(n), nil
}

// Contains defers `item in container`.
func Contains(container, item object.Object) (object.Object, error) {
	return Compare(object.CmpIn, item, container)
}

func GetAttr(v object.Object, name string) (object.Object, error) {
	if k := KindOf(v); k != nil {
		return k.New(getAttrFunc, []object.Object{v, object.Str(name)}, nil), nil
	}
	return object.GetAttr(v, name)
}

// Call defers a call whose callee is a thunk. Thunk arguments to a strict
// callee are passed through unforced.
func Call(f object.Object, args []object.Object, kwargs object.Kwargs) (object.Object, error) {
	if t, ok := f.(*Thunk); ok {
		return t.kind.New(f, args, kwargs), nil
	}
	return object.Call(f, args, kwargs)
}

// Next defers advancing a thunk iterator.
func Next(it object.Object) (object.Object, error) {
	if k := KindOf(it); k != nil {
		return k.New(nextFunc, []object.Object{it}, nil), nil
	}
	return IterNext(it)
}

// IterNext advances it, raising StopIteration when it is exhausted.
func IterNext(it object.Object) (object.Object, error) {
	it, err := object.Strict(it)
	if err != nil {
		return nil, err
	}
	iter, ok := it.(*object.Iterator)
	if !ok {
		return nil, object.Errorf(object.TypeError, "'%s' object is not an iterator", it.Type())
	}
	v, more, err := iter.Next()
	if err != nil {
		return nil, err
	}
	if !more {
		return nil, object.Errorf(object.StopIteration, "")
	}
	return v, nil
}

// Truth forces v.
func Truth(v object.Object) (bool, error) { return object.Truth(v) }

// Str forces v and renders it for display.
func Str(v object.Object) (string, error) { return object.ToStr(v) }

// Repr forces v and renders its repr.
func Repr(v object.Object) (string, error) { return object.Repr(v) }

// Int forces v and converts it to an int.
func Int(v object.Object) (object.Object, error) { return object.ToInt(v) }

// Float forces v and converts it to a float.
func Float(v object.Object) (object.Object, error) { return object.ToFloat(v) }

// Hash forces v and hashes it.
func Hash(v object.Object) (uint64, error) { return object.Hash(v) }

// Iter forces v and returns an iterator over it. Elements are not forced.
func Iter(v object.Object) (*object.Iterator, error) { return object.Iter(v) }

// Enter forces the context manager.
func Enter(v object.Object) (object.Object, error) { return object.Enter(v) }

// Exit forces the context manager.
func Exit(v object.Object, exc *object.Exception) (bool, error) { return object.Exit(v, exc) }

// SetItem forces the container; the stored value stays deferred.
func SetItem(v, key, val object.Object) error { return object.SetItem(v, key, val) }

// SetAttr forces the target; the stored value stays deferred.
func SetAttr(v object.Object, name string, val object.Object) error {
	return object.SetAttr(v, name, val)
}
