// Package thunk implements call-by-need values.
//
// A Thunk records an operation and its operands without running it. The
// first Force evaluates the operands, applies the operation and memoizes
// the normal form; every later Force returns that same value. Operators
// applied to a thunk do not evaluate it: they build a new thunk whose
// operation is the operator itself, so whole expressions stay deferred until
// something needs a concrete value.
package thunk

import (
	"fmt"
	"sync"

	"github.com/petermattis/goid"

	"lazy/internal/object"
)

// TypeThunk is reported for thunks that have not been forced through a
// strict operation.
const TypeThunk object.Type = "thunk"

// Thunk is a deferred computation. The zero value is not usable; build
// thunks through a Kind.
type Thunk struct {
	kind *Kind

	mu     sync.Mutex
	op     object.Object
	args   []object.Object
	kwargs object.Kwargs
	normal object.Object
	forced bool

	// owner is the goroutine evaluating t, zero when idle. done is closed
	// when that evaluation finishes.
	owner int64
	done  chan struct{}

	// name is set for deferred global lookups.
	name string
}

// Force evaluates t if needed and returns its normal form. Concurrent callers
// observe a single evaluation. A failed evaluation is not memoized: the
// error is returned and a later Force tries again.
//
// A thunk whose evaluation needs its own value, such as x = x + 1 at module
// level, fails with RecursionError.
func (t *Thunk) Force() (object.Object, error) {
	v, evaluated, err := t.force()
	if obs := t.kind.observer; evaluated && obs != nil {
		obs(t, v, err)
	}
	return v, err
}

func (t *Thunk) force() (object.Object, bool, error) {
	id := goid.Get()
	for {
		t.mu.Lock()
		if t.forced {
			v := t.normal
			t.mu.Unlock()
			return v, false, nil
		}
		if t.owner == 0 {
			break
		}
		if t.owner == id {
			t.mu.Unlock()
			return nil, false, object.Errorf(object.RecursionError, "%s depends on its own value", t.describe())
		}
		wait := t.done
		t.mu.Unlock()
		<-wait
	}

	t.owner, t.done = id, make(chan struct{})
	op, args, kwargs := t.op, t.args, t.kwargs
	t.mu.Unlock()

	v, err := evaluate(op, args, kwargs)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.owner = 0
	close(t.done)
	if err != nil {
		return nil, true, err
	}
	t.normal = v
	t.forced = true
	t.op, t.args, t.kwargs = nil, nil, nil
	return v, true, nil
}

func evaluate(op object.Object, operands []object.Object, pending object.Kwargs) (object.Object, error) {
	args, err := object.StrictAll(operands)
	if err != nil {
		return nil, err
	}

	var kwargs object.Kwargs
	if len(pending) > 0 {
		kwargs = make(object.Kwargs, len(pending))
		for _, k := range object.SortedKeys(pending) {
			if kwargs[k], err = object.Strict(pending[k]); err != nil {
				return nil, err
			}
		}
	}

	callee, err := object.Strict(op)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(object.Callable)
	if !ok {
		return nil, object.Errorf(object.TypeError, "'%s' object is not callable", callee.Type())
	}

	v, err := fn.Call(args, kwargs)
	if err != nil {
		return nil, err
	}
	return object.Strict(v)
}

// Forced reports whether t already holds its normal form.
func (t *Thunk) Forced() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.forced
}

// Kind returns the family t belongs to.
func (t *Thunk) Kind() *Kind {
	return t.kind
}

// Value returns the memoized normal form when t has been forced.
func (t *Thunk) Value() (object.Object, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.normal, t.forced
}

// Operation returns the pending operation and operands of an unforced thunk.
// ok is false once t has been forced, since forcing releases them.
func (t *Thunk) Operation() (op object.Object, args []object.Object, kwargs object.Kwargs, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.forced {
		return nil, nil, nil, false
	}
	return t.op, append([]object.Object(nil), t.args...), t.kwargs, true
}

// LookupName returns the global name a deferred lookup resolves, if t is one.
func (t *Thunk) LookupName() (string, bool) {
	return t.name, t.name != ""
}

func (t *Thunk) Type() object.Type { return TypeThunk }

// String forces t and renders its normal form.
func (t *Thunk) String() string {
	v, err := t.Force()
	if err != nil {
		return fmt.Sprintf("<%s failed: %v>", t.kind.name, err)
	}
	return v.String()
}

// Describe renders t without forcing it.
func (t *Thunk) Describe() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.describe()
}

func (t *Thunk) describe() string {
	if t.forced {
		return fmt.Sprintf("%s(%s)", t.kind.name, t.normal)
	}
	if t.name != "" {
		return fmt.Sprintf("%s(lookup %s)", t.kind.name, t.name)
	}
	return fmt.Sprintf("%s(%s, %d args)", t.kind.name, describeOp(t.op), len(t.args))
}

func describeOp(op object.Object) string {
	if th, ok := op.(*Thunk); ok {
		return th.Describe()
	}
	return op.String()
}
