package stdlib

import (
	"lazy/internal/object"
)

// itertools produces iterators that advance only as far as they are
// consumed, so infinite sources such as count are safe to build.
func itertoolsModule() *ModuleDefinition {
	return &ModuleDefinition{
		Name: "itertools",
		Functions: map[string]FunctionDefinition{
			"count": NewFunction("count", count).
				WithParams(OptionalParam("start"), OptionalParam("step")),
			"repeat": NewFunction("repeat", repeat).
				WithParams(NewParam("value"), OptionalParam("times")),
			"cycle":      NewFunction("cycle", cycle, "iterable"),
			"islice":     NewFunction("islice", islice, "iterable", "stop"),
			"chain":      NewFunction("chain", chain, "iterables").AsVariadic(),
			"takewhile":  NewFunction("takewhile", takewhile, "predicate", "iterable"),
			"dropwhile":  NewFunction("dropwhile", dropwhile, "predicate", "iterable"),
			"accumulate": NewFunction("accumulate", accumulate, "iterable"),
		},
	}
}

func count(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("count", args, 0, 2); err != nil {
		return nil, err
	}
	var cur, step object.Object = object.Int(0), object.Int(1)
	if len(args) > 0 {
		cur = args[0]
	}
	if len(args) > 1 {
		step = args[1]
	}
	return object.NewIterator("count", func() (object.Object, bool, error) {
		v := cur
		next, err := object.Binary(object.OpAdd, cur, step)
		if err != nil {
			return nil, false, err
		}
		cur = next
		return v, true, nil
	}), nil
}

func repeat(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("repeat", args, 1, 2); err != nil {
		return nil, err
	}
	left := -1
	if len(args) == 2 {
		n, err := object.AsIndex(args[1])
		if err != nil {
			return nil, err
		}
		left = max(n, 0)
	}
	return object.NewIterator("repeat", func() (object.Object, bool, error) {
		if left == 0 {
			return nil, false, nil
		}
		if left > 0 {
			left--
		}
		return args[0], true, nil
	}), nil
}

func cycle(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("cycle", args, 1, 1); err != nil {
		return nil, err
	}
	it, err := object.Iter(args[0])
	if err != nil {
		return nil, err
	}
	var seen []object.Object
	exhausted := false
	i := 0
	return object.NewIterator("cycle", func() (object.Object, bool, error) {
		if !exhausted {
			v, more, err := it.Next()
			if err != nil {
				return nil, false, err
			}
			if more {
				seen = append(seen, v)
				return v, true, nil
			}
			exhausted = true
		}
		if len(seen) == 0 {
			return nil, false, nil
		}
		v := seen[i%len(seen)]
		i++
		return v, true, nil
	}), nil
}

func islice(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("islice", args, 2, 2); err != nil {
		return nil, err
	}
	it, err := object.Iter(args[0])
	if err != nil {
		return nil, err
	}
	left, err := object.AsIndex(args[1])
	if err != nil {
		return nil, err
	}
	if left < 0 {
		return nil, object.Errorf(object.ValueError, "stop argument for islice() must be a non-negative integer")
	}
	return object.NewIterator("islice", func() (object.Object, bool, error) {
		if left == 0 {
			return nil, false, nil
		}
		left--
		return it.Next()
	}), nil
}

func chain(args []object.Object, _ object.Kwargs) (object.Object, error) {
	var cur *object.Iterator
	rest := args
	return object.NewIterator("chain", func() (object.Object, bool, error) {
		for {
			if cur == nil {
				if len(rest) == 0 {
					return nil, false, nil
				}
				it, err := object.Iter(rest[0])
				if err != nil {
					return nil, false, err
				}
				cur, rest = it, rest[1:]
			}
			v, more, err := cur.Next()
			if err != nil || more {
				return v, more, err
			}
			cur = nil
		}
	}), nil
}

func predicateArgs(name string, args []object.Object) (object.Object, *object.Iterator, error) {
	if err := object.CheckArgs(name, args, 2, 2); err != nil {
		return nil, nil, err
	}
	it, err := object.Iter(args[1])
	return args[0], it, err
}

func satisfies(pred, v object.Object) (bool, error) {
	r, err := object.Call(pred, []object.Object{v}, nil)
	if err != nil {
		return false, err
	}
	return object.Truth(r)
}

func takewhile(args []object.Object, _ object.Kwargs) (object.Object, error) {
	pred, it, err := predicateArgs("takewhile", args)
	if err != nil {
		return nil, err
	}
	done := false
	return object.NewIterator("takewhile", func() (object.Object, bool, error) {
		if done {
			return nil, false, nil
		}
		v, more, err := it.Next()
		if !more || err != nil {
			return nil, false, err
		}
		ok, err := satisfies(pred, v)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			done = true
			return nil, false, nil
		}
		return v, true, nil
	}), nil
}

func dropwhile(args []object.Object, _ object.Kwargs) (object.Object, error) {
	pred, it, err := predicateArgs("dropwhile", args)
	if err != nil {
		return nil, err
	}
	dropping := true
	return object.NewIterator("dropwhile", func() (object.Object, bool, error) {
		for {
			v, more, err := it.Next()
			if !more || err != nil {
				return nil, false, err
			}
			if !dropping {
				return v, true, nil
			}
			ok, err := satisfies(pred, v)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				dropping = false
				return v, true, nil
			}
		}
	}), nil
}

func accumulate(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("accumulate", args, 1, 1); err != nil {
		return nil, err
	}
	it, err := object.Iter(args[0])
	if err != nil {
		return nil, err
	}
	var total object.Object
	return object.NewIterator("accumulate", func() (object.Object, bool, error) {
		v, more, err := it.Next()
		if !more || err != nil {
			return nil, false, err
		}
		if total == nil {
			total = v
		} else if total, err = object.Binary(object.OpAdd, total, v); err != nil {
			return nil, false, err
		}
		return total, true, nil
	}), nil
}
