package object

import (
	"errors"
	"fmt"
	"strings"
)

// ExceptionClass is an exception type. Classes form a single inheritance
// tree rooted at BaseException.
type ExceptionClass struct {
	Name string
	Base *ExceptionClass
}

func NewExceptionClass(name string, base *ExceptionClass) *ExceptionClass {
	return &ExceptionClass{Name: name, Base: base}
}

func (c *ExceptionClass) Type() Type     { return TypeClass }
func (c *ExceptionClass) String() string { return "<class '" + c.Name + "'>" }

// Call instantiates the class.
func (c *ExceptionClass) Call(args []Object, kwargs Kwargs) (Object, error) {
	args, err := StrictAll(args)
	if err != nil {
		return nil, err
	}
	return &Exception{Class: c, Args: args}, nil
}

// IsSubclass reports whether c is other or derives from it.
func (c *ExceptionClass) IsSubclass(other *ExceptionClass) bool {
	for k := c; k != nil; k = k.Base {
		if k == other {
			return true
		}
	}
	return false
}

var (
	BaseException       = NewExceptionClass("Exception", nil)
	ArithmeticError     = NewExceptionClass("ArithmeticError", BaseException)
	ZeroDivisionError   = NewExceptionClass("ZeroDivisionError", ArithmeticError)
	OverflowError       = NewExceptionClass("OverflowError", ArithmeticError)
	LookupError         = NewExceptionClass("LookupError", BaseException)
	IndexError          = NewExceptionClass("IndexError", LookupError)
	KeyError            = NewExceptionClass("KeyError", LookupError)
	TypeError           = NewExceptionClass("TypeError", BaseException)
	ValueError          = NewExceptionClass("ValueError", BaseException)
	NameError           = NewExceptionClass("NameError", BaseException)
	AttributeError      = NewExceptionClass("AttributeError", BaseException)
	ImportError         = NewExceptionClass("ImportError", BaseException)
	RuntimeError        = NewExceptionClass("RuntimeError", BaseException)
	RecursionError      = NewExceptionClass("RecursionError", RuntimeError)
	AssertionError      = NewExceptionClass("AssertionError", BaseException)
	StopIteration       = NewExceptionClass("StopIteration", BaseException)
	UndefinedValueError = NewExceptionClass("UndefinedValueError", BaseException)
)

// ExceptionClasses lists the classes visible to programs as builtins.
func ExceptionClasses() []*ExceptionClass {
	return []*ExceptionClass{
		BaseException, ArithmeticError, ZeroDivisionError, OverflowError,
		LookupError, IndexError, KeyError, TypeError, ValueError, NameError,
		AttributeError, ImportError, RuntimeError, RecursionError,
		AssertionError, StopIteration, UndefinedValueError,
	}
}

// Exception is a raised (or raisable) exception instance. It is both an lz
// value and a Go error.
type Exception struct {
	Class *ExceptionClass
	Args  []Object
}

// Errorf creates an exception of class c carrying a formatted message.
func Errorf(c *ExceptionClass, format string, args ...any) *Exception {
	return &Exception{Class: c, Args: []Object{Str(fmt.Sprintf(format, args...))}}
}

func (e *Exception) Type() Type { return TypeException }

func (e *Exception) String() string {
	return e.Class.Name + "(" + joinRepr(e.Args) + ")"
}

// Message is the text form of the exception arguments.
func (e *Exception) Message() string {
	switch len(e.Args) {
	case 0:
		return ""
	case 1:
		if s, ok := e.Args[0].(Str); ok {
			return string(s)
		}
		return e.Args[0].String()
	}
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (e *Exception) Error() string {
	if msg := e.Message(); msg != "" {
		return e.Class.Name + ": " + msg
	}
	return e.Class.Name
}

func (e *Exception) GetAttr(name string) (Object, error) {
	switch name {
	case "args":
		return NewTuple(e.Args...), nil
	case "message":
		return Str(e.Message()), nil
	}
	return nil, Errorf(AttributeError, "'%s' object has no attribute '%s'", e.Class.Name, name)
}

// AsException extracts the exception carried by err, if any.
func AsException(err error) (*Exception, bool) {
	var exc *Exception
	if errors.As(err, &exc) {
		return exc, true
	}
	return nil, false
}

// IsClass reports whether err carries an exception of class c or a subclass.
func IsClass(err error, c *ExceptionClass) bool {
	exc, ok := AsException(err)
	return ok && exc.Class.IsSubclass(c)
}
