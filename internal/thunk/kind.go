package thunk

import (
	"maps"
	"sync"

	"github.com/tliron/commonlog"

	"lazy/internal/object"
)

// Observer is notified after a thunk of its kind has been evaluated. err is
// set when the evaluation failed. Observers must not force t again.
type Observer func(t *Thunk, v object.Object, err error)

// Kind is a family of thunks. Every thunk derived from a thunk of some kind
// through an operator belongs to the same kind, so a program rewritten for a
// kind produces only thunks of that kind.
type Kind struct {
	name     string
	observer Observer

	once    sync.Once
	helpers helpers
}

type helpers struct {
	constructor *object.Builtin
	fromValue   *object.Builtin
	is          *object.Builtin
	isNot       *object.Builtin
	not         *object.Builtin
}

// Default is the kind used when nothing else is requested.
var Default = NewKind("thunk", nil)

// NewKind creates a kind. observer may be nil.
func NewKind(name string, observer Observer) *Kind {
	return &Kind{name: name, observer: observer}
}

// NewTracedKind creates a kind that logs every evaluation of its thunks.
func NewTracedKind(name string, log commonlog.Logger) *Kind {
	return NewKind(name, func(t *Thunk, v object.Object, err error) {
		if err != nil {
			log.Debugf("%s failed: %s", name, err)
			return
		}
		log.Debugf("%s forced to %s", name, v)
	})
}

func (k *Kind) Name() string {
	return k.name
}

// New creates a pending thunk applying op to args and kwargs.
func (k *Kind) New(op object.Object, args []object.Object, kwargs object.Kwargs) *Thunk {
	t := &Thunk{kind: k, op: op, args: append([]object.Object(nil), args...)}
	if len(kwargs) > 0 {
		t.kwargs = maps.Clone(kwargs)
	}
	return t
}

// FromValue wraps an already computed value. A thunk of the same kind is
// returned unchanged; a thunk of another kind is wrapped so that forcing the
// result forces it.
func (k *Kind) FromValue(v object.Object) *Thunk {
	if t, ok := v.(*Thunk); ok {
		if t.kind == k {
			return t
		}
		return k.New(Identity, []object.Object{t}, nil)
	}
	return &Thunk{kind: k, normal: v, forced: true}
}

// Lookup creates a thunk that resolves a global name when forced. A failed
// resolution is retried by the next Force.
func (k *Kind) Lookup(name string, resolve func(name string) (object.Object, error)) *Thunk {
	op := object.NewLazyBuiltin("lookup", func([]object.Object, object.Kwargs) (object.Object, error) {
		return resolve(name)
	})
	t := k.New(op, nil, nil)
	t.name = name
	return t
}

// Defer creates a thunk that runs fn when forced. Unlike New, nothing fn
// closes over is forced beforehand.
func (k *Kind) Defer(name string, fn func() (object.Object, error)) *Thunk {
	op := object.NewLazyBuiltin(name, func([]object.Object, object.Kwargs) (object.Object, error) {
		return fn()
	})
	return k.New(op, nil, nil)
}

func (k *Kind) init() {
	k.once.Do(func() {
		k.helpers = helpers{
			constructor: object.NewLazyBuiltin(k.name, k.construct),
			fromValue: object.NewLazyBuiltin("fromvalue", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
				if err := object.CheckArgs("fromvalue", args, 1, 1); err != nil {
					return nil, err
				}
				return k.FromValue(args[0]), nil
			}),
			is:    k.wrapper(isFunc),
			isNot: k.wrapper(isNotFunc),
			not:   k.wrapper(notFunc),
		}
	})
}

// construct backs the program-visible constructor: thunk(op, args...).
// The strict marker as op evaluates the single argument immediately.
func (k *Kind) construct(args []object.Object, kwargs object.Kwargs) (object.Object, error) {
	if len(args) == 0 {
		return nil, object.Errorf(object.TypeError, "%s() missing operation", k.name)
	}
	if isStrictMarker(args[0]) {
		if err := object.CheckArgs("strict", args[1:], 1, 1); err != nil {
			return nil, err
		}
		return object.Strict(args[1])
	}
	return k.New(args[0], args[1:], kwargs), nil
}

func (k *Kind) wrapper(op *object.Builtin) *object.Builtin {
	return object.NewLazyBuiltin(op.Name, func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		return k.New(op, args, nil), nil
	})
}

// Constructor is the builtin that builds pending thunks of this kind.
func (k *Kind) Constructor() *object.Builtin {
	k.init()
	return k.helpers.constructor
}

// FromValueFunc is the builtin form of FromValue.
func (k *Kind) FromValueFunc() *object.Builtin {
	k.init()
	return k.helpers.fromValue
}

// IsFunc returns a builtin deferring an identity test.
func (k *Kind) IsFunc() *object.Builtin {
	k.init()
	return k.helpers.is
}

// IsNotFunc returns a builtin deferring a negated identity test.
func (k *Kind) IsNotFunc() *object.Builtin {
	k.init()
	return k.helpers.isNot
}

// NotFunc returns a builtin deferring a boolean negation.
func (k *Kind) NotFunc() *object.Builtin {
	k.init()
	return k.helpers.not
}

// isStrictMarker reports whether op is the strict builtin, looking through
// thunks that are already forced or only resolve a name.
func isStrictMarker(op object.Object) bool {
	t, ok := op.(*Thunk)
	if !ok {
		return op == StrictFunc
	}
	if v, forced := t.Value(); forced {
		return v == StrictFunc
	}
	if _, lookup := t.LookupName(); lookup {
		v, err := t.Force()
		return err == nil && v == StrictFunc
	}
	return false
}
