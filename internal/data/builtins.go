package data

import (
	"lazy/internal/object"
)

// Builtins exposes the lazy list to lz programs:
//
//	nil                         the empty list
//	cons(car, tail)             tail is an L or a function returning one
//	L(iterable)                 a list drawn from iterable on demand
//	enum_from(a, b=None, by=1)  a, a+by, ... through b, or forever
func Builtins() map[string]object.Object {
	return map[string]object.Object{
		"nil":       Nil,
		"cons":      object.NewLazyBuiltin("cons", cons),
		"L":         object.NewBuiltin("L", fromIterable),
		"enum_from": object.NewBuiltin("enum_from", enumFrom),
	}
}

// cons keeps both arguments unforced. The tail is resolved on first access.
func cons(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("cons", args, 2, 2); err != nil {
		return nil, err
	}
	tail := args[1]
	return Defer(args[0], func() (object.Object, error) {
		v, err := object.Strict(tail)
		if err != nil {
			return nil, err
		}
		if l, ok := v.(*List); ok {
			return l, nil
		}
		return object.Call(v, nil, nil)
	}), nil
}

func fromIterable(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("L", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Nil, nil
	}
	if l, ok := args[0].(*List); ok {
		return l, nil
	}
	it, err := object.Iter(args[0])
	if err != nil {
		return nil, err
	}
	return FromIterator(it)
}

func enumFrom(args []object.Object, kwargs object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("enum_from", args, 1, 3); err != nil {
		return nil, err
	}
	var to object.Object
	var by object.Object = object.Int(1)
	if len(args) > 1 && args[1] != object.None {
		to = args[1]
	}
	if len(args) > 2 {
		by = args[2]
	} else if v, ok := kwargs["by"]; ok {
		by = v
	}
	return EnumFrom(args[0], to, by)
}
