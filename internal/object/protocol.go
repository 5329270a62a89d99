package object

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

type (
	// Lengther is implemented by sized values.
	Lengther interface {
		Len() (int, error)
	}

	// Indexer is implemented by values supporting subscription.
	Indexer interface {
		GetItem(key Object) (Object, error)
	}

	// Container is implemented by values supporting membership tests.
	Container interface {
		Contains(item Object) (bool, error)
	}

	// AttrGetter is implemented by values exposing attributes.
	AttrGetter interface {
		GetAttr(name string) (Object, error)
	}

	// AttrSetter is implemented by values with assignable attributes.
	AttrSetter interface {
		SetAttr(name string, v Object) error
	}

	// Iterable is implemented by values that can be looped over.
	Iterable interface {
		Iter() (*Iterator, error)
	}

	// ContextManager is implemented by values usable in a with block. Exit
	// receives the exception that ended the block, or nil, and reports
	// whether the exception is suppressed.
	ContextManager interface {
		Enter() (Object, error)
		Exit(exc *Exception) (bool, error)
	}
)

// Len returns the length of v, forcing it.
func Len(v Object) (int, error) {
	v, err := Strict(v)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case Str:
		return utf8.RuneCountInString(string(v)), nil
	case *List:
		return len(v.Elems), nil
	case *Tuple:
		return len(v.Elems), nil
	case *Dict:
		return v.Len(), nil
	case *Set:
		return v.Len(), nil
	case Lengther:
		return v.Len()
	}
	return 0, Errorf(TypeError, "object of type '%s' has no len()", v.Type())
}

// GetItem subscripts v with key. Both are forced; the element itself is
// returned as stored.
func GetItem(v, key Object) (Object, error) {
	v, err := Strict(v)
	if err != nil {
		return nil, err
	}
	if key, err = Strict(key); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case *List:
		i, err := seqIndex(key, len(v.Elems), "list")
		if err != nil {
			return nil, err
		}
		return v.Elems[i], nil
	case *Tuple:
		i, err := seqIndex(key, len(v.Elems), "tuple")
		if err != nil {
			return nil, err
		}
		return v.Elems[i], nil
	case Str:
		runes := []rune(string(v))
		i, err := seqIndex(key, len(runes), "string")
		if err != nil {
			return nil, err
		}
		return Str(runes[i]), nil
	case *Dict:
		val, ok, err := v.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &Exception{Class: KeyError, Args: []Object{key}}
		}
		return val, nil
	case Indexer:
		return v.GetItem(key)
	}
	return nil, Errorf(TypeError, "'%s' object is not subscriptable", v.Type())
}

func seqIndex(key Object, n int, what string) (int, error) {
	i, ok := asInt(key)
	if !ok {
		return 0, Errorf(TypeError, "%s indices must be integers, not %s", what, key.Type())
	}
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, Errorf(IndexError, "%s index out of range", what)
	}
	return int(i), nil
}

// SetItem stores val under key in v.
func SetItem(v, key, val Object) error {
	v, err := Strict(v)
	if err != nil {
		return err
	}
	switch v := v.(type) {
	case *List:
		if key, err = Strict(key); err != nil {
			return err
		}
		i, err := seqIndex(key, len(v.Elems), "list assignment")
		if err != nil {
			return err
		}
		v.Elems[i] = val
		return nil
	case *Dict:
		return v.Set(key, val)
	}
	return Errorf(TypeError, "'%s' object does not support item assignment", v.Type())
}

// Contains reports whether item is a member of container. Sequences compare
// element by element, forcing only as far as the first match.
func Contains(container, item Object) (bool, error) {
	container, err := Strict(container)
	if err != nil {
		return false, err
	}
	switch c := container.(type) {
	case *List:
		return elemsContain(c.Elems, item)
	case *Tuple:
		return elemsContain(c.Elems, item)
	case Str:
		item, err := Strict(item)
		if err != nil {
			return false, err
		}
		s, ok := item.(Str)
		if !ok {
			return false, Errorf(TypeError, "'in <string>' requires string as left operand, not %s", item.Type())
		}
		return strings.Contains(string(c), string(s)), nil
	case *Dict:
		_, ok, err := c.Get(item)
		return ok, err
	case *Set:
		return c.Has(item)
	case Container:
		return c.Contains(item)
	case Iterable:
		it, err := c.Iter()
		if err != nil {
			return false, err
		}
		for {
			v, ok, err := it.Next()
			if err != nil || !ok {
				return false, err
			}
			if eq, err := Equal(v, item); err != nil || eq {
				return eq, err
			}
		}
	}
	return false, Errorf(TypeError, "argument of type '%s' is not iterable", container.Type())
}

func elemsContain(elems []Object, item Object) (bool, error) {
	for _, e := range elems {
		eq, err := Equal(e, item)
		if err != nil {
			return false, err
		}
		if eq {
			return true, nil
		}
	}
	return false, nil
}

// GetAttr reads attribute name of v, forcing v.
func GetAttr(v Object, name string) (Object, error) {
	v, err := Strict(v)
	if err != nil {
		return nil, err
	}
	if g, ok := v.(AttrGetter); ok {
		return g.GetAttr(name)
	}
	if m, ok := methods[v.Type()][name]; ok {
		return NewLazyBuiltin(string(v.Type())+"."+name, func(args []Object, kwargs Kwargs) (Object, error) {
			return m(v, args)
		}), nil
	}
	return nil, Errorf(AttributeError, "'%s' object has no attribute '%s'", v.Type(), name)
}

// SetAttr assigns attribute name of v.
func SetAttr(v Object, name string, val Object) error {
	v, err := Strict(v)
	if err != nil {
		return err
	}
	if s, ok := v.(AttrSetter); ok {
		return s.SetAttr(name, val)
	}
	return Errorf(AttributeError, "'%s' object attribute '%s' is read-only", v.Type(), name)
}

// Iter returns an iterator over v, forcing v but not its elements.
func Iter(v Object) (*Iterator, error) {
	v, err := Strict(v)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case *List:
		i := 0
		return NewIterator("list", func() (Object, bool, error) {
			if i >= len(v.Elems) {
				return nil, false, nil
			}
			e := v.Elems[i]
			i++
			return e, true, nil
		}), nil
	case *Tuple:
		return SliceIterator("tuple", v.Elems), nil
	case Str:
		runes := []rune(string(v))
		elems := make([]Object, len(runes))
		for i, r := range runes {
			elems[i] = Str(r)
		}
		return SliceIterator("str", elems), nil
	case *Dict:
		return SliceIterator("dict_key", v.Keys()), nil
	case *Set:
		return SliceIterator("set", v.Elems()), nil
	case Iterable:
		return v.Iter()
	}
	return nil, Errorf(TypeError, "'%s' object is not iterable", v.Type())
}

// Collect drains an iterable into a slice.
func Collect(v Object) ([]Object, error) {
	it, err := Iter(v)
	if err != nil {
		return nil, err
	}
	var out []Object
	for {
		e, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, e)
	}
}

func sequenceElems(v Object) ([]Object, error) {
	v, err := Strict(v)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case *List:
		return append([]Object(nil), v.Elems...), nil
	case *Tuple:
		return v.Elems, nil
	}
	return Collect(v)
}

// Enter starts a with block on v.
func Enter(v Object) (Object, error) {
	v, err := Strict(v)
	if err != nil {
		return nil, err
	}
	cm, ok := v.(ContextManager)
	if !ok {
		return nil, Errorf(TypeError, "'%s' object does not support the context manager protocol", v.Type())
	}
	return cm.Enter()
}

// Exit ends a with block on v.
func Exit(v Object, exc *Exception) (bool, error) {
	v, err := Strict(v)
	if err != nil {
		return false, err
	}
	cm, ok := v.(ContextManager)
	if !ok {
		return false, Errorf(TypeError, "'%s' object does not support the context manager protocol", v.Type())
	}
	return cm.Exit(exc)
}

// ToInt converts v the way `int(v)` does.
func ToInt(v Object) (Object, error) {
	v, err := Strict(v)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case Int:
		return v, nil
	case Bool:
		i, _ := asInt(v)
		return Int(i), nil
	case Float:
		f := float64(v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, Errorf(OverflowError, "cannot convert float %s to integer", v)
		}
		return Int(math.Trunc(f)), nil
	case Str:
		i, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil, Errorf(ValueError, "invalid literal for int() with base 10: %s", v)
		}
		return Int(i), nil
	}
	return nil, Errorf(TypeError, "int() argument must be a string or a number, not '%s'", v.Type())
}

// ToFloat converts v the way `float(v)` does.
func ToFloat(v Object) (Object, error) {
	v, err := Strict(v)
	if err != nil {
		return nil, err
	}
	if f, ok := asFloat(v); ok {
		return Float(f), nil
	}
	if s, ok := v.(Str); ok {
		text := strings.TrimSpace(strings.ToLower(string(s)))
		switch text {
		case "inf", "+inf", "infinity":
			return Float(math.Inf(1)), nil
		case "-inf", "-infinity":
			return Float(math.Inf(-1)), nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, Errorf(ValueError, "could not convert string to float: %s", s)
		}
		return Float(f), nil
	}
	return nil, Errorf(TypeError, "float() argument must be a string or a number, not '%s'", v.Type())
}

// AsIndex extracts a Go int from an integer value.
func AsIndex(v Object) (int, error) {
	v, err := Strict(v)
	if err != nil {
		return 0, err
	}
	i, ok := asInt(v)
	if !ok {
		return 0, Errorf(TypeError, "'%s' object cannot be interpreted as an integer", v.Type())
	}
	return int(i), nil
}
