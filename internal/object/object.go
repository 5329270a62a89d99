// Package object defines the host values that lz programs compute with and the
// strict operations over them. Nothing in this package defers work: the thunk
// package layers call-by-need on top of the operations declared here.
package object

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type names the runtime type of a value. It is what `type(x)` reports.
type Type string

const (
	TypeNone      Type = "NoneType"
	TypeBool      Type = "bool"
	TypeInt       Type = "int"
	TypeFloat     Type = "float"
	TypeStr       Type = "str"
	TypeList      Type = "list"
	TypeTuple     Type = "tuple"
	TypeDict      Type = "dict"
	TypeSet       Type = "set"
	TypeBuiltin   Type = "builtin_function"
	TypeModule    Type = "module"
	TypeIterator  Type = "iterator"
	TypeClass     Type = "type"
	TypeException Type = "exception"
)

// Object is any value an lz program can hold.
//
// String returns the repr form of the value. Implementations must be
// comparable with == so that identity checks never panic.
type Object interface {
	Type() Type
	String() string
}

// Forceable is implemented by values that stand for a computation which has
// not necessarily happened yet. Force returns the normal form, which is never
// itself Forceable.
type Forceable interface {
	Object
	Force() (Object, error)
}

// Strict returns the normal form of v, forcing it when it is Forceable.
// Any other value is returned unchanged.
func Strict(v Object) (Object, error) {
	if f, ok := v.(Forceable); ok {
		return f.Force()
	}
	return v, nil
}

// StrictAll forces every element of vs in order and returns the results in a
// new slice.
func StrictAll(vs []Object) ([]Object, error) {
	out := make([]Object, len(vs))
	for i, v := range vs {
		s, err := Strict(v)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Identical reports whether a and b are the same object.
func Identical(a, b Object) bool {
	return a == b
}

type noneValue struct{}

// None is the unique absent value.
var None Object = noneValue{}

func (noneValue) Type() Type     { return TypeNone }
func (noneValue) String() string { return "None" }

// Bool is a truth value.
type Bool bool

const (
	True  Bool = true
	False Bool = false
)

func (b Bool) Type() Type { return TypeBool }

func (b Bool) String() string {
	if b {
		return "True"
	}
	return "False"
}

// Int is a 64-bit signed integer.
type Int int64

func (i Int) Type() Type     { return TypeInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a double precision float.
type Float float64

func (f Float) Type() Type { return TypeFloat }

func (f Float) String() string {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	case v == math.Trunc(v) && math.Abs(v) < 1e16:
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Str is an immutable string.
type Str string

func (s Str) Type() Type { return TypeStr }

func (s Str) String() string {
	q := strconv.Quote(string(s))
	if !strings.Contains(string(s), "'") {
		q = "'" + strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`) + "'"
	}
	return q
}

// ToStr renders v the way `str(v)` does: strings print without quotes,
// everything else prints its repr. Forceable values are forced first.
func ToStr(v Object) (string, error) {
	v, err := Strict(v)
	if err != nil {
		return "", err
	}
	if s, ok := v.(Str); ok {
		return string(s), nil
	}
	if e, ok := v.(*Exception); ok {
		return e.Message(), nil
	}
	return v.String(), nil
}

// Repr renders v the way `repr(v)` does, forcing it first.
func Repr(v Object) (string, error) {
	v, err := Strict(v)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// FromGo converts a plain Go value into an Object. It is meant for tests and
// embedders; unsupported types panic.
func FromGo(v any) Object {
	switch v := v.(type) {
	case nil:
		return None
	case Object:
		return v
	case bool:
		return Bool(v)
	case int:
		return Int(v)
	case int64:
		return Int(v)
	case float64:
		return Float(v)
	case string:
		return Str(v)
	case []any:
		elems := make([]Object, len(v))
		for i, e := range v {
			elems[i] = FromGo(e)
		}
		return NewList(elems...)
	}
	panic(fmt.Sprintf("object: cannot convert %T", v))
}
