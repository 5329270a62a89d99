package stdlib

import (
	"strings"
	"unicode"

	"lazy/internal/object"
)

func stringsModule() *ModuleDefinition {
	return &ModuleDefinition{
		Name: "strings",
		Constants: map[string]object.Object{
			"ascii_letters": object.Str("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"),
			"digits":        object.Str("0123456789"),
		},
		Functions: map[string]FunctionDefinition{
			"upper":      NewFunction("upper", unary("upper", strings.ToUpper), "s"),
			"lower":      NewFunction("lower", unary("lower", strings.ToLower), "s"),
			"strip":      NewFunction("strip", unary("strip", strings.TrimSpace), "s"),
			"reverse":    NewFunction("reverse", unary("reverse", reverse), "s"),
			"capitalize": NewFunction("capitalize", unary("capitalize", capitalize), "s"),
			"join":       NewFunction("join", stringsJoin, "sep", "items"),
			"split":      NewFunction("split", stringsSplit, "s").WithParams(NewParam("s"), OptionalParam("sep")),
			"replace":    NewFunction("replace", stringsReplace, "s", "old", "new"),
			"repeat":     NewFunction("repeat", stringsRepeat, "s", "n"),
			"contains":   NewFunction("contains", stringsContains, "s", "sub"),
		},
	}
}

func strArgs(name string, args []object.Object, n int) ([]string, error) {
	out := make([]string, n)
	for i := range n {
		s, ok := args[i].(object.Str)
		if !ok {
			return nil, object.Errorf(object.TypeError, "%s() argument %d must be str, not %s", name, i+1, args[i].Type())
		}
		out[i] = string(s)
	}
	return out, nil
}

func unary(name string, f func(string) string) object.BuiltinFunc {
	return func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		if err := object.CheckArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		s, err := strArgs(name, args, 1)
		if err != nil {
			return nil, err
		}
		return object.Str(f(s[0])), nil
	}
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

func stringsJoin(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("join", args, 2, 2); err != nil {
		return nil, err
	}
	sep, err := strArgs("join", args, 1)
	if err != nil {
		return nil, err
	}
	items, err := object.Collect(args[1])
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		if parts[i], err = object.ToStr(item); err != nil {
			return nil, err
		}
	}
	return object.Str(strings.Join(parts, sep[0])), nil
}

func stringsSplit(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("split", args, 1, 2); err != nil {
		return nil, err
	}
	s, err := strArgs("split", args, len(args))
	if err != nil {
		return nil, err
	}
	var parts []string
	if len(s) == 1 {
		parts = strings.Fields(s[0])
	} else {
		if s[1] == "" {
			return nil, object.Errorf(object.ValueError, "empty separator")
		}
		parts = strings.Split(s[0], s[1])
	}
	elems := make([]object.Object, len(parts))
	for i, p := range parts {
		elems[i] = object.Str(p)
	}
	return object.NewList(elems...), nil
}

func stringsReplace(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("replace", args, 3, 3); err != nil {
		return nil, err
	}
	s, err := strArgs("replace", args, 3)
	if err != nil {
		return nil, err
	}
	return object.Str(strings.ReplaceAll(s[0], s[1], s[2])), nil
}

func stringsRepeat(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("repeat", args, 2, 2); err != nil {
		return nil, err
	}
	s, err := strArgs("repeat", args, 1)
	if err != nil {
		return nil, err
	}
	n, err := object.AsIndex(args[1])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	return object.Str(strings.Repeat(s[0], n)), nil
}

func stringsContains(args []object.Object, _ object.Kwargs) (object.Object, error) {
	if err := object.CheckArgs("contains", args, 2, 2); err != nil {
		return nil, err
	}
	s, err := strArgs("contains", args, 2)
	if err != nil {
		return nil, err
	}
	return object.Bool(strings.Contains(s[0], s[1])), nil
}
