package vm

import (
	"fmt"
	"slices"
	"strings"

	"lazy/internal/object"
	"lazy/internal/thunk"
)

func (in *Interpreter) defaultBuiltins() map[string]object.Object {
	b := map[string]object.Object{
		"print":      object.NewBuiltin("print", in.print),
		"len":        object.NewBuiltin("len", builtinLen),
		"str":        object.NewBuiltin("str", builtinStr),
		"repr":       object.NewBuiltin("repr", builtinRepr),
		"int":        object.NewBuiltin("int", builtinInt),
		"float":      object.NewBuiltin("float", builtinFloat),
		"bool":       object.NewBuiltin("bool", builtinBool),
		"type":       object.NewBuiltin("type", builtinType),
		"hash":       object.NewBuiltin("hash", builtinHash),
		"abs":        object.NewBuiltin("abs", builtinAbs),
		"range":      object.NewBuiltin("range", builtinRange),
		"list":       object.NewBuiltin("list", builtinList),
		"tuple":      object.NewBuiltin("tuple", builtinTuple),
		"set":        object.NewBuiltin("set", builtinSet),
		"dict":       object.NewBuiltin("dict", builtinDict),
		"iter":       object.NewBuiltin("iter", builtinIter),
		"next":       object.NewBuiltin("next", builtinNext),
		"min":        object.NewBuiltin("min", extremum("min", false)),
		"max":        object.NewBuiltin("max", extremum("max", true)),
		"sum":        object.NewBuiltin("sum", builtinSum),
		"sorted":     object.NewBuiltin("sorted", builtinSorted),
		"reversed":   object.NewBuiltin("reversed", builtinReversed),
		"enumerate":  object.NewBuiltin("enumerate", builtinEnumerate),
		"zip":        object.NewBuiltin("zip", builtinZip),
		"map":        object.NewBuiltin("map", builtinMap),
		"filter":     object.NewBuiltin("filter", builtinFilter),
		"any":        object.NewBuiltin("any", truthFold("any", true)),
		"all":        object.NewBuiltin("all", truthFold("all", false)),
		"isinstance": object.NewBuiltin("isinstance", builtinIsInstance),
		"callable":   object.NewBuiltin("callable", builtinCallable),
	}
	for _, c := range object.ExceptionClasses() {
		b[c.Name] = c
	}
	return b
}

func (in *Interpreter) print(args []object.Object, kwargs object.Kwargs) (object.Object, error) {
	sep, end := " ", "\n"
	for _, k := range object.SortedKeys(kwargs) {
		s, err := object.ToStr(kwargs[k])
		if err != nil {
			return nil, err
		}
		switch k {
		case "sep":
			sep = s
		case "end":
			end = s
		default:
			return nil, object.Errorf(object.TypeError, "print() got an unexpected keyword argument '%s'", k)
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := thunk.Str(a)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	fmt.Fprint(in.stdout, strings.Join(parts, sep)+end)
	return object.None, nil
}

func builtinLen(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("len", args, 1, 1); err != nil {
		return nil, err
	}
	return thunk.Len(args[0])
}

func builtinStr(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("str", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.Str(""), nil
	}
	s, err := thunk.Str(args[0])
	return object.Str(s), err
}

func builtinRepr(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("repr", args, 1, 1); err != nil {
		return nil, err
	}
	s, err := thunk.Repr(args[0])
	return object.Str(s), err
}

func builtinInt(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("int", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.Int(0), nil
	}
	return thunk.Int(args[0])
}

func builtinFloat(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("float", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.Float(0), nil
	}
	return thunk.Float(args[0])
}

func builtinBool(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("bool", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.Bool(false), nil
	}
	ok, err := thunk.Truth(args[0])
	return object.Bool(ok), err
}

func builtinType(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("type", args, 1, 1); err != nil {
		return nil, err
	}
	return object.Str(args[0].Type()), nil
}

// builtinIsInstance accepts a type name as returned by type(), an
// exception class, or a tuple of either.
func builtinIsInstance(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("isinstance", args, 2, 2); err != nil {
		return nil, err
	}
	ok, err := isInstance(args[0], args[1])
	return object.Bool(ok), err
}

func isInstance(v, class object.Object) (bool, error) {
	switch c := class.(type) {
	case object.Str:
		return string(v.Type()) == string(c), nil
	case *object.Tuple:
		for _, elem := range c.Elems {
			elem, err := object.Strict(elem)
			if err != nil {
				return false, err
			}
			if ok, err := isInstance(v, elem); ok || err != nil {
				return ok, err
			}
		}
		return false, nil
	case *object.ExceptionClass:
		return matches(v, c)
	}
	return false, object.Errorf(object.TypeError, "isinstance() arg 2 must be a type or tuple of types")
}

func builtinCallable(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("callable", args, 1, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(object.Callable)
	return object.Bool(ok), nil
}

func builtinHash(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("hash", args, 1, 1); err != nil {
		return nil, err
	}
	h, err := thunk.Hash(args[0])
	return object.Int(int64(h)), err
}

func builtinAbs(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("abs", args, 1, 1); err != nil {
		return nil, err
	}
	neg, err := object.Less(args[0], object.Int(0))
	if err != nil || !neg {
		return args[0], err
	}
	return object.Unary(object.OpNeg, args[0])
}

func builtinList(args []object.Object, _ object.Kwargs) (object.Object, error) {
	elems, err := optionalElems("list", args)
	if err != nil {
		return nil, err
	}
	return object.NewList(elems...), nil
}

func builtinTuple(args []object.Object, _ object.Kwargs) (object.Object, error) {
	elems, err := optionalElems("tuple", args)
	if err != nil {
		return nil, err
	}
	return object.NewTuple(elems...), nil
}

func builtinSet(args []object.Object, _ object.Kwargs) (object.Object, error) {
	elems, err := optionalElems("set", args)
	if err != nil {
		return nil, err
	}
	return object.SetFrom(elems)
}

// builtinDict accepts an iterable of pairs and keyword arguments.
func builtinDict(args []object.Object, kwargs object.Kwargs) (object.Object, error) {
	pairs, err := optionalElems("dict", args)
	if err != nil {
		return nil, err
	}
	d := object.NewDict()
	for _, p := range pairs {
		kv, err := object.Collect(p)
		if err != nil {
			return nil, err
		}
		if len(kv) != 2 {
			return nil, object.Errorf(object.ValueError, "dictionary update sequence element has length %d; 2 is required", len(kv))
		}
		if err := d.Set(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	for _, k := range object.SortedKeys(kwargs) {
		if err := d.Set(object.Str(k), kwargs[k]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func optionalElems(name string, args []object.Object) ([]object.Object, error) {
	if err := object.CheckArgs(name, args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}
	return object.Collect(args[0])
}

func builtinIter(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("iter", args, 1, 1); err != nil {
		return nil, err
	}
	return thunk.Iter(args[0])
}

// builtinNext advances an iterator, returning the default instead of
// raising StopIteration when one is given.
func builtinNext(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("next", args, 1, 2); err != nil {
		return nil, err
	}
	v, err := thunk.IterNext(args[0])
	if err != nil && len(args) == 2 && object.IsClass(err, object.StopIteration) {
		return args[1], nil
	}
	return v, err
}

func extremum(name string, largest bool) object.BuiltinFunc {
	return func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs(name, args, 1, -1); err != nil {
			return nil, err
		}
		elems := args
		if len(args) == 1 {
			var err error
			if elems, err = object.Collect(args[0]); err != nil {
				return nil, err
			}
		}
		if len(elems) == 0 {
			return nil, object.Errorf(object.ValueError, "%s() arg is an empty sequence", name)
		}
		best := elems[0]
		for _, e := range elems[1:] {
			var better bool
			var err error
			if largest {
				better, err = object.Less(best, e)
			} else {
				better, err = object.Less(e, best)
			}
			if err != nil {
				return nil, err
			}
			if better {
				best = e
			}
		}
		return best, nil
	}
}

func builtinSum(args []object.Object, kwargs object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("sum", args, 1, 2); err != nil {
		return nil, err
	}
	var total object.Object = object.Int(0)
	if len(args) == 2 {
		total = args[1]
	} else if start, ok := kwargs["start"]; ok {
		total = start
	}
	elems, err := object.Collect(args[0])
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if total, err = object.Binary(object.OpAdd, total, e); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func builtinSorted(args []object.Object, kwargs object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("sorted", args, 1, 1); err != nil {
		return nil, err
	}
	elems, err := object.Collect(args[0])
	if err != nil {
		return nil, err
	}
	reverse := false
	if r, ok := kwargs["reverse"]; ok {
		if reverse, err = object.Truth(r); err != nil {
			return nil, err
		}
	}

	var sortErr error
	slices.SortStableFunc(elems, func(a, b object.Object) int {
		if reverse {
			a, b = b, a
		}
		lt, err := object.Less(a, b)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if lt {
			return -1
		}
		if gt, _ := object.Less(b, a); gt {
			return 1
		}
		return 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return object.NewList(elems...), nil
}

func builtinReversed(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("reversed", args, 1, 1); err != nil {
		return nil, err
	}
	elems, err := object.Collect(args[0])
	if err != nil {
		return nil, err
	}
	slices.Reverse(elems)
	return object.SliceIterator("reversed", elems), nil
}

func builtinEnumerate(args []object.Object, kwargs object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("enumerate", args, 1, 2); err != nil {
		return nil, err
	}
	it, err := object.Iter(args[0])
	if err != nil {
		return nil, err
	}
	var start object.Object = object.Int(0)
	if len(args) == 2 {
		start = args[1]
	} else if s, ok := kwargs["start"]; ok {
		start = s
	}
	i, err := object.AsIndex(start)
	if err != nil {
		return nil, err
	}
	return object.NewIterator("enumerate", func() (object.Object, bool, error) {
		v, more, err := it.Next()
		if !more || err != nil {
			return nil, false, err
		}
		pair := object.NewTuple(object.Int(i), v)
		i++
		return pair, true, nil
	}), nil
}

func builtinZip(args []object.Object, _ object.Kwargs) (object.Object, error) {
	iters := make([]*object.Iterator, len(args))
	for i, a := range args {
		it, err := object.Iter(a)
		if err != nil {
			return nil, err
		}
		iters[i] = it
	}
	return object.NewIterator("zip", func() (object.Object, bool, error) {
		if len(iters) == 0 {
			return nil, false, nil
		}
		elems := make([]object.Object, len(iters))
		for i, it := range iters {
			v, more, err := it.Next()
			if !more || err != nil {
				return nil, false, err
			}
			elems[i] = v
		}
		return object.NewTuple(elems...), true, nil
	}), nil
}

// builtinMap applies f as items are requested.
func builtinMap(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("map", args, 2, 2); err != nil {
		return nil, err
	}
	f := args[0]
	it, err := object.Iter(args[1])
	if err != nil {
		return nil, err
	}
	return object.NewIterator("map", func() (object.Object, bool, error) {
		v, more, err := it.Next()
		if !more || err != nil {
			return nil, false, err
		}
		r, err := thunk.Call(f, []object.Object{v}, nil)
		return r, err == nil, err
	}), nil
}

func builtinFilter(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("filter", args, 2, 2); err != nil {
		return nil, err
	}
	f := args[0]
	it, err := object.Iter(args[1])
	if err != nil {
		return nil, err
	}
	return object.NewIterator("filter", func() (object.Object, bool, error) {
		for {
			v, more, err := it.Next()
			if !more || err != nil {
				return nil, false, err
			}
			keep := v
			if f != object.None {
				if keep, err = object.Call(f, []object.Object{v}, nil); err != nil {
					return nil, false, err
				}
			}
			ok, err := object.Truth(keep)
			if err != nil {
				return nil, false, err
			}
			if ok {
				return v, true, nil
			}
		}
	}), nil
}

// truthFold implements any and all: stop at the first element whose truth
// equals stopAt.
func truthFold(name string, stopAt bool) object.BuiltinFunc {
	return func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		it, err := object.Iter(args[0])
		if err != nil {
			return nil, err
		}
		for {
			v, more, err := it.Next()
			if err != nil {
				return nil, err
			}
			if !more {
				return object.Bool(!stopAt), nil
			}
			ok, err := object.Truth(v)
			if err != nil {
				return nil, err
			}
			if ok == stopAt {
				return object.Bool(stopAt), nil
			}
		}
	}
}

// rangeObject is the value of range(): a lazily enumerated arithmetic
// sequence.
type rangeObject struct {
	start, stop, step int64
}

func builtinRange(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("range", args, 1, 3); err != nil {
		return nil, err
	}
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, err := object.AsIndex(a)
		if err != nil {
			return nil, err
		}
		bounds[i] = int64(n)
	}
	r := &rangeObject{step: 1}
	switch len(bounds) {
	case 1:
		r.stop = bounds[0]
	case 2:
		r.start, r.stop = bounds[0], bounds[1]
	case 3:
		r.start, r.stop, r.step = bounds[0], bounds[1], bounds[2]
		if r.step == 0 {
			return nil, object.Errorf(object.ValueError, "range() arg 3 must not be zero")
		}
	}
	return r, nil
}

func (r *rangeObject) Type() object.Type { return "range" }

func (r *rangeObject) String() string {
	if r.step == 1 {
		return fmt.Sprintf("range(%d, %d)", r.start, r.stop)
	}
	return fmt.Sprintf("range(%d, %d, %d)", r.start, r.stop, r.step)
}

func (r *rangeObject) Len() (int, error) {
	var n int64
	if r.step > 0 && r.stop > r.start {
		n = (r.stop - r.start + r.step - 1) / r.step
	} else if r.step < 0 && r.stop < r.start {
		n = (r.start - r.stop - r.step - 1) / -r.step
	}
	return int(n), nil
}

func (r *rangeObject) GetItem(key object.Object) (object.Object, error) {
	i, err := object.AsIndex(key)
	if err != nil {
		return nil, err
	}
	n, _ := r.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, object.Errorf(object.IndexError, "range object index out of range")
	}
	return object.Int(r.start + int64(i)*r.step), nil
}

func (r *rangeObject) Contains(item object.Object) (bool, error) {
	item, err := object.Strict(item)
	if err != nil {
		return false, err
	}
	i, ok := item.(object.Int)
	if !ok {
		return false, nil
	}
	v := int64(i)
	if r.step > 0 && (v < r.start || v >= r.stop) || r.step < 0 && (v > r.start || v <= r.stop) {
		return false, nil
	}
	return (v-r.start)%r.step == 0, nil
}

func (r *rangeObject) Iter() (*object.Iterator, error) {
	cur := r.start
	return object.NewIterator("range", func() (object.Object, bool, error) {
		if r.step > 0 && cur >= r.stop || r.step < 0 && cur <= r.stop {
			return nil, false, nil
		}
		v := object.Int(cur)
		cur += r.step
		return v, true, nil
	}), nil
}
