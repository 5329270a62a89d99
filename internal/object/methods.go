package object

import (
	"strings"
)

type method func(self Object, args []Object) (Object, error)

// methods are the attribute functions of the built in types. They receive
// their arguments unforced so that containers can store deferred values.
var methods = map[Type]map[string]method{
	TypeStr: {
		"upper":      strMethod(func(s string, _ []Object) (Object, error) { return Str(strings.ToUpper(s)), nil }),
		"lower":      strMethod(func(s string, _ []Object) (Object, error) { return Str(strings.ToLower(s)), nil }),
		"strip":      strMethod(func(s string, _ []Object) (Object, error) { return Str(strings.TrimSpace(s)), nil }),
		"startswith": strMethod(strPredicate(strings.HasPrefix)),
		"endswith":   strMethod(strPredicate(strings.HasSuffix)),
		"split":      strMethod(strSplit),
		"join":       strMethod(strJoin),
		"replace":    strMethod(strReplace),
		"find":       strMethod(strFind),
		"format":     strMethod(strFormat),
	},
	TypeList: {
		"append": listAppend,
		"extend": listExtend,
		"pop":    listPop,
		"index":  seqIndexOf,
		"count":  seqCount,
	},
	TypeTuple: {
		"index": seqIndexOf,
		"count": seqCount,
	},
	TypeDict: {
		"get":    dictGet,
		"keys":   func(self Object, _ []Object) (Object, error) { return NewList(self.(*Dict).Keys()...), nil },
		"values": func(self Object, _ []Object) (Object, error) { return NewList(self.(*Dict).Values()...), nil },
		"items":  dictItems,
	},
	TypeSet: {
		"add": func(self Object, args []Object) (Object, error) {
			if err := CheckArgs("add", args, 1, 1); err != nil {
				return nil, err
			}
			return None, self.(*Set).Add(args[0])
		},
	},
}

func strMethod(fn func(s string, args []Object) (Object, error)) method {
	return func(self Object, args []Object) (Object, error) {
		args, err := StrictAll(args)
		if err != nil {
			return nil, err
		}
		return fn(string(self.(Str)), args)
	}
}

func strArg(args []Object, i int, name string) (string, error) {
	if i >= len(args) {
		return "", Errorf(TypeError, "%s() missing argument %d", name, i+1)
	}
	s, ok := args[i].(Str)
	if !ok {
		return "", Errorf(TypeError, "%s() argument %d must be str, not %s", name, i+1, args[i].Type())
	}
	return string(s), nil
}

func strPredicate(pred func(s, affix string) bool) func(string, []Object) (Object, error) {
	return func(s string, args []Object) (Object, error) {
		affix, err := strArg(args, 0, "startswith")
		if err != nil {
			return nil, err
		}
		return Bool(pred(s, affix)), nil
	}
}

func strSplit(s string, args []Object) (Object, error) {
	var parts []string
	if len(args) == 0 || args[0] == None {
		parts = strings.Fields(s)
	} else {
		sep, err := strArg(args, 0, "split")
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, Errorf(ValueError, "empty separator")
		}
		parts = strings.Split(s, sep)
	}
	out := make([]Object, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return NewList(out...), nil
}

func strJoin(s string, args []Object) (Object, error) {
	if err := CheckArgs("join", args, 1, 1); err != nil {
		return nil, err
	}
	elems, err := Collect(args[0])
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		e, err := Strict(e)
		if err != nil {
			return nil, err
		}
		str, ok := e.(Str)
		if !ok {
			return nil, Errorf(TypeError, "sequence item %d: expected str instance, %s found", i, e.Type())
		}
		parts[i] = string(str)
	}
	return Str(strings.Join(parts, s)), nil
}

func strReplace(s string, args []Object) (Object, error) {
	old, err := strArg(args, 0, "replace")
	if err != nil {
		return nil, err
	}
	repl, err := strArg(args, 1, "replace")
	if err != nil {
		return nil, err
	}
	return Str(strings.ReplaceAll(s, old, repl)), nil
}

func strFind(s string, args []Object) (Object, error) {
	sub, err := strArg(args, 0, "find")
	if err != nil {
		return nil, err
	}
	i := strings.Index(s, sub)
	if i < 0 {
		return Int(-1), nil
	}
	return Int(len([]rune(s[:i]))), nil
}

// strFormat substitutes positional {} fields.
func strFormat(s string, args []Object) (Object, error) {
	var b strings.Builder
	next := 0
	for {
		i := strings.Index(s, "{}")
		if i < 0 {
			b.WriteString(s)
			return Str(b.String()), nil
		}
		if next >= len(args) {
			return nil, Errorf(IndexError, "replacement index %d out of range", next)
		}
		text, err := ToStr(args[next])
		if err != nil {
			return nil, err
		}
		b.WriteString(s[:i])
		b.WriteString(text)
		s = s[i+2:]
		next++
	}
}

func listAppend(self Object, args []Object) (Object, error) {
	if err := CheckArgs("append", args, 1, 1); err != nil {
		return nil, err
	}
	self.(*List).Append(args[0])
	return None, nil
}

func listExtend(self Object, args []Object) (Object, error) {
	if err := CheckArgs("extend", args, 1, 1); err != nil {
		return nil, err
	}
	elems, err := sequenceElems(args[0])
	if err != nil {
		return nil, err
	}
	l := self.(*List)
	l.Elems = append(l.Elems, elems...)
	return None, nil
}

func listPop(self Object, args []Object) (Object, error) {
	if err := CheckArgs("pop", args, 0, 1); err != nil {
		return nil, err
	}
	l := self.(*List)
	if len(l.Elems) == 0 {
		return nil, Errorf(IndexError, "pop from empty list")
	}
	i := len(l.Elems) - 1
	if len(args) == 1 {
		n, err := AsIndex(args[0])
		if err != nil {
			return nil, err
		}
		if i, err = seqIndex(Int(n), len(l.Elems), "pop"); err != nil {
			return nil, err
		}
	}
	v := l.Elems[i]
	l.Elems = append(l.Elems[:i], l.Elems[i+1:]...)
	return v, nil
}

func elemsOf(self Object) []Object {
	switch s := self.(type) {
	case *List:
		return s.Elems
	case *Tuple:
		return s.Elems
	}
	return nil
}

func seqIndexOf(self Object, args []Object) (Object, error) {
	if err := CheckArgs("index", args, 1, 1); err != nil {
		return nil, err
	}
	for i, e := range elemsOf(self) {
		eq, err := Equal(e, args[0])
		if err != nil {
			return nil, err
		}
		if eq {
			return Int(i), nil
		}
	}
	return nil, Errorf(ValueError, "%s is not in %s", args[0], self.Type())
}

func seqCount(self Object, args []Object) (Object, error) {
	if err := CheckArgs("count", args, 1, 1); err != nil {
		return nil, err
	}
	n := 0
	for _, e := range elemsOf(self) {
		eq, err := Equal(e, args[0])
		if err != nil {
			return nil, err
		}
		if eq {
			n++
		}
	}
	return Int(n), nil
}

func dictGet(self Object, args []Object) (Object, error) {
	if err := CheckArgs("get", args, 1, 2); err != nil {
		return nil, err
	}
	v, ok, err := self.(*Dict).Get(args[0])
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return None, nil
}

func dictItems(self Object, _ []Object) (Object, error) {
	d := self.(*Dict)
	items := make([]Object, len(d.keys))
	for i := range d.keys {
		items[i] = NewTuple(d.keys[i], d.values[i])
	}
	return NewList(items...), nil
}
