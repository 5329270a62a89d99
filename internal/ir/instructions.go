package ir

import (
	"fmt"
	"strings"

	"lazy/internal/object"
)

type (
	// Const loads constant pool slot Index.
	Const struct {
		Result *Value
		Index  int
	}

	LoadLocal struct {
		Result *Value
		Name   string
	}

	// LoadFree reads a name from an enclosing function's scope.
	LoadFree struct {
		Result *Value
		Name   string
	}

	// LoadGlobal reads a module-level or builtin name. A Deferred load never
	// fails: a missing name produces a thunk that looks it up when forced.
	LoadGlobal struct {
		Result   *Value
		Name     string
		Deferred bool
	}

	StoreLocal struct {
		Name  string
		Value *Value
	}

	StoreGlobal struct {
		Name  string
		Value *Value
	}

	BinOp struct {
		Result      *Value
		Op          object.BinaryOp
		InPlace     bool
		Left, Right *Value
	}

	UnaryOp struct {
		Result  *Value
		Op      object.UnaryOp
		Operand *Value
	}

	Compare struct {
		Result      *Value
		Op          object.CompareOp
		Left, Right *Value
	}

	// Is is the identity test; Negate makes it `is not`.
	Is struct {
		Result      *Value
		Negate      bool
		Left, Right *Value
	}

	Not struct {
		Result  *Value
		Operand *Value
	}

	Keyword struct {
		Name  string
		Value *Value
	}

	Call struct {
		Result *Value
		Func   *Value
		Args   []*Value
		Kwargs []Keyword
	}

	GetAttr struct {
		Result *Value
		Object *Value
		Name   string
	}

	SetAttr struct {
		Object *Value
		Name   string
		Value  *Value
	}

	GetItem struct {
		Result      *Value
		Object, Key *Value
	}

	SetItem struct {
		Object, Key, Value *Value
	}

	// Build creates a container. Dict elements alternate key and value. A
	// Partial build is filled by Append or SetItem and closed by Seal.
	Build struct {
		Result  *Value
		Kind    BuildKind
		Elems   []*Value
		Partial bool
	}

	// Append adds to a partial list or set.
	Append struct {
		Container, Value *Value
	}

	// Seal marks a partially built container as complete.
	Seal struct {
		Result    *Value
		Container *Value
	}

	// MakeFunction creates a closure over constant pool slot Index. Defaults
	// line up with the trailing defaulted parameters.
	MakeFunction struct {
		Result   *Value
		Index    int
		Defaults []*Value
	}

	Import struct {
		Result *Value
		Module string
	}

	GetIter struct {
		Result   *Value
		Iterable *Value
	}

	Unpack struct {
		Results []*Value
		Value   *Value
	}

	// Enter starts a with block; Result is the value bound by `as`.
	Enter struct {
		Result  *Value
		Manager *Value
	}

	// Exit ends a with block. Exc is nil on normal exit. Result reports
	// whether the exception is suppressed.
	Exit struct {
		Result  *Value
		Manager *Value
		Exc     *Value
	}

	CurrentException struct {
		Result *Value
	}

	// MatchException tests an exception against a class.
	MatchException struct {
		Result     *Value
		Exc, Class *Value
	}
)

type BuildKind int

const (
	BuildList BuildKind = iota
	BuildTuple
	BuildSet
	BuildDict
)

var buildKindNames = [...]string{
	BuildList:  "list",
	BuildTuple: "tuple",
	BuildSet:   "set",
	BuildDict:  "dict",
}

func (k BuildKind) String() string { return buildKindNames[k] }

// Terminators

type (
	Return struct {
		Value *Value
	}

	Jump struct {
		Target *BasicBlock
	}

	Branch struct {
		Cond       *Value
		Then, Else *BasicBlock
	}

	// ForIter advances Iter. It defines Result and continues in Body, or
	// continues in Exit once the iterator is exhausted.
	ForIter struct {
		Iter       *Value
		Result     *Value
		Body, Exit *BasicBlock
	}

	// Raise raises Value, or re-raises the current exception when Value is
	// nil.
	Raise struct {
		Value *Value
	}
)

func one(v *Value) []*Value {
	if v == nil {
		return nil
	}
	return []*Value{v}
}

// values keeps nil entries so malformed instructions stay visible to the
// verifier.
func values(vs ...*Value) []*Value {
	return append([]*Value(nil), vs...)
}

func joinValues(vs []*Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func (i *Const) GetResults() []*Value  { return one(i.Result) }
func (i *Const) GetOperands() []*Value { return nil }
func (i *Const) String() string        { return fmt.Sprintf("%s = const[%d]", i.Result, i.Index) }

func (i *LoadLocal) GetResults() []*Value  { return one(i.Result) }
func (i *LoadLocal) GetOperands() []*Value { return nil }
func (i *LoadLocal) String() string        { return fmt.Sprintf("%s = load_local %s", i.Result, i.Name) }

func (i *LoadFree) GetResults() []*Value  { return one(i.Result) }
func (i *LoadFree) GetOperands() []*Value { return nil }
func (i *LoadFree) String() string        { return fmt.Sprintf("%s = load_free %s", i.Result, i.Name) }

func (i *LoadGlobal) GetResults() []*Value  { return one(i.Result) }
func (i *LoadGlobal) GetOperands() []*Value { return nil }
func (i *LoadGlobal) String() string {
	if i.Deferred {
		return fmt.Sprintf("%s = load_global.lazy %s", i.Result, i.Name)
	}
	return fmt.Sprintf("%s = load_global %s", i.Result, i.Name)
}

func (i *StoreLocal) GetResults() []*Value  { return nil }
func (i *StoreLocal) GetOperands() []*Value { return one(i.Value) }
func (i *StoreLocal) String() string        { return fmt.Sprintf("store_local %s, %s", i.Name, i.Value) }

func (i *StoreGlobal) GetResults() []*Value  { return nil }
func (i *StoreGlobal) GetOperands() []*Value { return one(i.Value) }
func (i *StoreGlobal) String() string        { return fmt.Sprintf("store_global %s, %s", i.Name, i.Value) }

func (i *BinOp) GetResults() []*Value  { return one(i.Result) }
func (i *BinOp) GetOperands() []*Value { return values(i.Left, i.Right) }
func (i *BinOp) String() string {
	name := i.Op.Info().Name
	if i.InPlace {
		name = "inplace." + name
	}
	return fmt.Sprintf("%s = %s %s, %s", i.Result, name, i.Left, i.Right)
}

func (i *UnaryOp) GetResults() []*Value  { return one(i.Result) }
func (i *UnaryOp) GetOperands() []*Value { return values(i.Operand) }
func (i *UnaryOp) String() string        { return fmt.Sprintf("%s = %s %s", i.Result, i.Op.Name(), i.Operand) }

func (i *Compare) GetResults() []*Value  { return one(i.Result) }
func (i *Compare) GetOperands() []*Value { return values(i.Left, i.Right) }
func (i *Compare) String() string {
	return fmt.Sprintf("%s = %s %s, %s", i.Result, i.Op.Name(), i.Left, i.Right)
}

func (i *Is) GetResults() []*Value  { return one(i.Result) }
func (i *Is) GetOperands() []*Value { return values(i.Left, i.Right) }
func (i *Is) String() string {
	op := "is"
	if i.Negate {
		op = "isnot"
	}
	return fmt.Sprintf("%s = %s %s, %s", i.Result, op, i.Left, i.Right)
}

func (i *Not) GetResults() []*Value  { return one(i.Result) }
func (i *Not) GetOperands() []*Value { return values(i.Operand) }
func (i *Not) String() string        { return fmt.Sprintf("%s = not %s", i.Result, i.Operand) }

func (i *Call) GetResults() []*Value { return one(i.Result) }
func (i *Call) GetOperands() []*Value {
	out := values(i.Func)
	out = append(out, values(i.Args...)...)
	for _, kw := range i.Kwargs {
		out = append(out, kw.Value)
	}
	return out
}
func (i *Call) String() string {
	args := joinValues(i.Args)
	for _, kw := range i.Kwargs {
		if args != "" {
			args += ", "
		}
		args += kw.Name + "=" + kw.Value.String()
	}
	return fmt.Sprintf("%s = call %s(%s)", i.Result, i.Func, args)
}

func (i *GetAttr) GetResults() []*Value  { return one(i.Result) }
func (i *GetAttr) GetOperands() []*Value { return values(i.Object) }
func (i *GetAttr) String() string {
	return fmt.Sprintf("%s = getattr %s, %s", i.Result, i.Object, i.Name)
}

func (i *SetAttr) GetResults() []*Value  { return nil }
func (i *SetAttr) GetOperands() []*Value { return values(i.Object, i.Value) }
func (i *SetAttr) String() string {
	return fmt.Sprintf("setattr %s, %s, %s", i.Object, i.Name, i.Value)
}

func (i *GetItem) GetResults() []*Value  { return one(i.Result) }
func (i *GetItem) GetOperands() []*Value { return values(i.Object, i.Key) }
func (i *GetItem) String() string {
	return fmt.Sprintf("%s = getitem %s, %s", i.Result, i.Object, i.Key)
}

func (i *SetItem) GetResults() []*Value  { return nil }
func (i *SetItem) GetOperands() []*Value { return values(i.Object, i.Key, i.Value) }
func (i *SetItem) String() string {
	return fmt.Sprintf("setitem %s, %s, %s", i.Object, i.Key, i.Value)
}

func (i *Build) GetResults() []*Value  { return one(i.Result) }
func (i *Build) GetOperands() []*Value { return values(i.Elems...) }
func (i *Build) String() string {
	op := "build_" + i.Kind.String()
	if i.Partial {
		op += ".partial"
	}
	if len(i.Elems) == 0 {
		return fmt.Sprintf("%s = %s", i.Result, op)
	}
	return fmt.Sprintf("%s = %s %s", i.Result, op, joinValues(i.Elems))
}

func (i *Append) GetResults() []*Value  { return nil }
func (i *Append) GetOperands() []*Value { return values(i.Container, i.Value) }
func (i *Append) String() string        { return fmt.Sprintf("append %s, %s", i.Container, i.Value) }

func (i *Seal) GetResults() []*Value  { return one(i.Result) }
func (i *Seal) GetOperands() []*Value { return values(i.Container) }
func (i *Seal) String() string        { return fmt.Sprintf("%s = seal %s", i.Result, i.Container) }

func (i *MakeFunction) GetResults() []*Value  { return one(i.Result) }
func (i *MakeFunction) GetOperands() []*Value { return values(i.Defaults...) }
func (i *MakeFunction) String() string {
	if len(i.Defaults) == 0 {
		return fmt.Sprintf("%s = make_function[%d]", i.Result, i.Index)
	}
	return fmt.Sprintf("%s = make_function[%d] %s", i.Result, i.Index, joinValues(i.Defaults))
}

func (i *Import) GetResults() []*Value  { return one(i.Result) }
func (i *Import) GetOperands() []*Value { return nil }
func (i *Import) String() string        { return fmt.Sprintf("%s = import %s", i.Result, i.Module) }

func (i *GetIter) GetResults() []*Value  { return one(i.Result) }
func (i *GetIter) GetOperands() []*Value { return values(i.Iterable) }
func (i *GetIter) String() string        { return fmt.Sprintf("%s = iter %s", i.Result, i.Iterable) }

func (i *Unpack) GetResults() []*Value  { return i.Results }
func (i *Unpack) GetOperands() []*Value { return values(i.Value) }
func (i *Unpack) String() string {
	return fmt.Sprintf("%s = unpack %s", joinValues(i.Results), i.Value)
}

func (i *Enter) GetResults() []*Value  { return one(i.Result) }
func (i *Enter) GetOperands() []*Value { return values(i.Manager) }
func (i *Enter) String() string        { return fmt.Sprintf("%s = enter %s", i.Result, i.Manager) }

func (i *Exit) GetResults() []*Value { return one(i.Result) }
func (i *Exit) GetOperands() []*Value {
	if i.Exc == nil {
		return values(i.Manager)
	}
	return values(i.Manager, i.Exc)
}
func (i *Exit) String() string {
	exc := "None"
	if i.Exc != nil {
		exc = i.Exc.String()
	}
	return fmt.Sprintf("%s = exit %s, %s", i.Result, i.Manager, exc)
}

func (i *CurrentException) GetResults() []*Value  { return one(i.Result) }
func (i *CurrentException) GetOperands() []*Value { return nil }
func (i *CurrentException) String() string        { return fmt.Sprintf("%s = current_exception", i.Result) }

func (i *MatchException) GetResults() []*Value  { return one(i.Result) }
func (i *MatchException) GetOperands() []*Value { return values(i.Exc, i.Class) }
func (i *MatchException) String() string {
	return fmt.Sprintf("%s = match_exc %s, %s", i.Result, i.Exc, i.Class)
}

func (t *Return) GetResults() []*Value         { return nil }
func (t *Return) GetOperands() []*Value        { return one(t.Value) }
func (t *Return) GetSuccessors() []*BasicBlock { return nil }
func (t *Return) String() string {
	if t.Value == nil {
		return "return"
	}
	return "return " + t.Value.String()
}

func (t *Jump) GetResults() []*Value         { return nil }
func (t *Jump) GetOperands() []*Value        { return nil }
func (t *Jump) GetSuccessors() []*BasicBlock { return []*BasicBlock{t.Target} }
func (t *Jump) String() string               { return "jump " + t.Target.Label }

func (t *Branch) GetResults() []*Value         { return nil }
func (t *Branch) GetOperands() []*Value        { return values(t.Cond) }
func (t *Branch) GetSuccessors() []*BasicBlock { return []*BasicBlock{t.Then, t.Else} }
func (t *Branch) String() string {
	return fmt.Sprintf("branch %s, %s, %s", t.Cond, t.Then.Label, t.Else.Label)
}

func (t *ForIter) GetResults() []*Value         { return one(t.Result) }
func (t *ForIter) GetOperands() []*Value        { return values(t.Iter) }
func (t *ForIter) GetSuccessors() []*BasicBlock { return []*BasicBlock{t.Body, t.Exit} }
func (t *ForIter) String() string {
	return fmt.Sprintf("%s = for_iter %s, %s, %s", t.Result, t.Iter, t.Body.Label, t.Exit.Label)
}

func (t *Raise) GetResults() []*Value         { return nil }
func (t *Raise) GetOperands() []*Value        { return one(t.Value) }
func (t *Raise) GetSuccessors() []*BasicBlock { return nil }
func (t *Raise) String() string {
	if t.Value == nil {
		return "raise"
	}
	return "raise " + t.Value.String()
}
