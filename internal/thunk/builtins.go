package thunk

import (
	"sync"

	"lazy/internal/object"
)

// StrictFunc is the strict marker. Called directly it forces its argument;
// passed as the operation to a kind's constructor it makes the constructor
// evaluate immediately instead of deferring.
var StrictFunc = object.NewLazyBuiltin("strict", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("strict", args, 1, 1); err != nil {
		return nil, err
	}
	return object.Strict(args[0])
})

// SeqFunc forces its first argument and returns the second unforced.
var SeqFunc = object.NewLazyBuiltin("seq", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("seq", args, 2, 2); err != nil {
		return nil, err
	}
	if _, err := object.Strict(args[0]); err != nil {
		return nil, err
	}
	return args[1], nil
})

var undefined = sync.OnceValue(func() *Thunk {
	return Default.New(object.NewBuiltin("undefined", func([]object.Object, object.Kwargs) (object.Object, error) {
		return nil, object.Errorf(object.UndefinedValueError, "undefined value forced")
	}), nil, nil)
})

// Undefined is the shared placeholder for a value that must never be
// needed. It can be stored and passed around freely; forcing it, directly or
// through anything derived from it, raises UndefinedValueError.
func Undefined() *Thunk {
	return undefined()
}

// New creates a pending thunk of the default kind.
func New(op object.Object, args ...object.Object) *Thunk {
	return Default.New(op, args, nil)
}

// FromValue wraps v in a thunk of the default kind.
func FromValue(v object.Object) *Thunk {
	return Default.FromValue(v)
}
