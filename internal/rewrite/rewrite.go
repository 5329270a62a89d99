// Package rewrite turns strict IR into call-by-need IR.
//
// The pass keeps control flow as it is and changes the values flowing
// through it: literals become already-evaluated thunks, name loads and
// parameters are wrapped, calls and identity tests become thunk
// constructions, and containers are built from deferred elements and then
// wrapped as a whole. Operators, subscripts and attribute access need no
// rule of their own: once their operands are thunks the interpreter's
// dispatch defers them.
package rewrite

import (
	"fmt"

	"github.com/tliron/commonlog"

	"lazy/internal/errors"
	"lazy/internal/ir"
	"lazy/internal/object"
	"lazy/internal/thunk"
)

var log = commonlog.GetLogger("lazy.rewrite")

type Options struct {
	// Kind is the thunk kind the rewritten code constructs. nil selects
	// thunk.Default.
	Kind *thunk.Kind

	// Importer resolves a module name when called with it. When set,
	// imports are deferred through it; otherwise they run eagerly.
	Importer object.Object
}

// Pass is the rewrite as an ir.Pass.
type Pass struct {
	kind     *thunk.Kind
	importer object.Object

	dictBuilder *object.Builtin
	setBuilder  *object.Builtin
}

func New(options Options) *Pass {
	kind := options.Kind
	if kind == nil {
		kind = thunk.Default
	}
	p := &Pass{kind: kind, importer: options.Importer}
	p.dictBuilder = p.deferredBuilder("dict", func(elems []object.Object) (object.Object, error) {
		return object.DictFrom(elems)
	})
	p.setBuilder = p.deferredBuilder("set", func(elems []object.Object) (object.Object, error) {
		return object.SetFrom(elems)
	})
	return p
}

// deferredBuilder returns a builtin that captures its unforced arguments
// and builds the container when the result is forced. Hashing keys forces
// them, so the build itself has to wait.
func (p *Pass) deferredBuilder(name string, build func([]object.Object) (object.Object, error)) *object.Builtin {
	return object.NewLazyBuiltin("build_"+name, func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		elems := append([]object.Object(nil), args...)
		return p.kind.Defer(name, func() (object.Object, error) {
			return build(elems)
		}), nil
	})
}

func (p *Pass) Kind() *thunk.Kind { return p.kind }

func (*Pass) Name() string { return "lazy-rewrite" }

func (*Pass) Description() string {
	return "Defers every binding, literal and call through thunks"
}

// Apply replaces the program's module body with its lazy form.
func (p *Pass) Apply(program *ir.Program) (bool, error) {
	if program.Main.Lazy {
		return false, nil
	}
	fn, err := p.Function(program.Main)
	if err != nil {
		return false, err
	}
	program.Main = fn
	return true, nil
}

// Function returns the lazy form of fn and of the functions it creates. fn
// itself is left untouched.
func (p *Pass) Function(fn *ir.Function) (*ir.Function, error) {
	if fn.Lazy {
		return ir.CloneFunction(fn), nil
	}
	out := ir.CloneFunction(fn)
	if err := p.rewrite(out); err != nil {
		return nil, err
	}
	return out, nil
}

// state is the rewrite of one function.
type state struct {
	p  *Pass
	fn *ir.Function

	// helpers maps helper values to their pool slots.
	helpers map[object.Object]int
	// params are the parameters the prologue wraps and the body never
	// reassigns; loads of them need no wrapping of their own.
	params map[string]bool
	// literals marks pool slots that hold thunks of literals.
	literals map[int]bool
	// nested marks pool slots whose function has been rewritten.
	nested map[int]bool

	out []ir.Instruction
}

func (p *Pass) rewrite(fn *ir.Function) error {
	log.Debugf("rewriting %s", fn.Name)
	s := &state{
		p:        p,
		fn:       fn,
		helpers:  make(map[object.Object]int),
		params:   make(map[string]bool),
		literals: make(map[int]bool),
		nested:   make(map[int]bool),
	}
	fn.Lazy = true
	fn.LazyKind = p.kind

	s.wrapLiterals()
	s.findParams()

	for _, b := range fn.Blocks {
		s.out = nil
		if b == fn.Entry() {
			s.prologue()
		}
		for _, inst := range b.Instructions {
			if err := s.instruction(inst); err != nil {
				return err
			}
		}
		b.Instructions = s.out
		if b.Terminator != nil {
			if err := s.checkOperands(b.Terminator); err != nil {
				return err
			}
		}
	}
	s.out = nil
	return nil
}

// wrapLiterals replaces every literal in the pool with an evaluated thunk.
func (s *state) wrapLiterals() {
	for i, c := range s.fn.Consts {
		if c.Func == nil && c.Value != nil {
			c.Value = s.p.kind.FromValue(c.Value)
			s.literals[i] = true
		}
	}
}

func (s *state) findParams() {
	stored := make(map[string]bool)
	for _, b := range s.fn.Blocks {
		for _, inst := range b.Instructions {
			if st, ok := inst.(*ir.StoreLocal); ok {
				stored[st.Name] = true
			}
		}
	}
	for _, p := range s.fn.Params {
		if !stored[p.Name] {
			s.params[p.Name] = true
		}
	}
}

// prologue rebinds every parameter to its wrapped value.
func (s *state) prologue() {
	for _, p := range s.fn.Params {
		v := s.fn.NewValue()
		s.emit(&ir.LoadLocal{Result: v, Name: p.Name})
		s.emit(&ir.StoreLocal{Name: p.Name, Value: s.call(s.fn.NewValue(), s.p.kind.FromValueFunc(), v)})
	}
}

func (s *state) emit(inst ir.Instruction) {
	s.out = append(s.out, inst)
}

// helper loads a helper value from the pool, adding it once.
func (s *state) helper(v object.Object) *ir.Value {
	idx, ok := s.helpers[v]
	if !ok {
		idx = s.fn.AddConst(&ir.Constant{Value: v})
		s.helpers[v] = idx
	}
	r := s.fn.NewValue()
	s.emit(&ir.Const{Result: r, Index: idx})
	return r
}

// call emits `result = call helper(args...)`.
func (s *state) call(result *ir.Value, helper object.Object, args ...*ir.Value) *ir.Value {
	f := s.helper(helper)
	s.emit(&ir.Call{Result: result, Func: f, Args: args})
	return result
}

// deferResult emits inst with its result moved to a fresh register, then
// defines the original register as helper(extra..., fresh). Every use of
// the result sees the wrapped value.
func (s *state) deferResult(inst ir.Instruction, result **ir.Value, helper object.Object, extra ...object.Object) {
	orig := *result
	fresh := s.fn.NewValue()
	*result = fresh
	s.emit(inst)

	args := make([]*ir.Value, 0, len(extra)+1)
	for _, e := range extra {
		args = append(args, s.helper(e))
	}
	s.call(orig, helper, append(args, fresh)...)
}

func (s *state) instruction(inst ir.Instruction) error {
	if err := s.checkOperands(inst); err != nil {
		return err
	}
	kind := s.p.kind

	switch i := inst.(type) {
	case *ir.Const:
		if !s.literals[i.Index] {
			return s.fail(inst, fmt.Sprintf("pool slot %d does not hold a literal", i.Index))
		}
		s.emit(i)

	case *ir.LoadGlobal:
		i.Deferred = true
		s.emit(i)

	case *ir.LoadLocal:
		if s.params[i.Name] {
			s.emit(i)
			return nil
		}
		s.deferResult(i, &i.Result, kind.FromValueFunc())

	case *ir.LoadFree:
		s.deferResult(i, &i.Result, kind.FromValueFunc())

	case *ir.MakeFunction:
		if i.Index < 0 || i.Index >= len(s.fn.Consts) || s.fn.Consts[i.Index].Func == nil {
			return s.fail(inst, fmt.Sprintf("pool slot %d does not hold a function", i.Index))
		}
		if !s.nested[i.Index] {
			if err := s.p.rewrite(s.fn.Consts[i.Index].Func); err != nil {
				return err
			}
			s.nested[i.Index] = true
		}
		s.deferResult(i, &i.Result, kind.Constructor(), thunk.Identity)

	case *ir.Call:
		callee := i.Func
		i.Func = s.helper(kind.Constructor())
		i.Args = append([]*ir.Value{callee}, i.Args...)
		s.emit(i)

	case *ir.Is:
		helper := kind.IsFunc()
		if i.Negate {
			helper = kind.IsNotFunc()
		}
		s.call(i.Result, helper, i.Left, i.Right)

	case *ir.Not:
		s.call(i.Result, kind.NotFunc(), i.Operand)

	case *ir.Build:
		switch {
		case i.Partial:
			s.emit(i)
		case i.Kind == ir.BuildDict:
			if len(i.Elems)%2 != 0 {
				return s.fail(inst, "odd number of dict elements")
			}
			s.call(i.Result, s.p.dictBuilder, i.Elems...)
		case i.Kind == ir.BuildSet:
			s.call(i.Result, s.p.setBuilder, i.Elems...)
		default:
			s.deferResult(i, &i.Result, kind.Constructor(), thunk.Identity)
		}

	case *ir.Seal:
		s.call(i.Result, kind.Constructor(), s.helper(thunk.Identity), i.Container)

	case *ir.Import:
		if s.p.importer == nil {
			s.emit(i)
			return nil
		}
		s.call(i.Result, kind.Constructor(), s.helper(s.p.importer), s.helper(object.Str(i.Module)))

	default:
		s.emit(inst)
	}
	return nil
}

func (s *state) fail(inst ir.Instruction, reason string) error {
	return &errors.ConstructionError{Function: s.fn.Name, Instruction: inst.String(), Reason: reason}
}

func (s *state) checkOperands(inst ir.Instruction) error {
	for _, v := range inst.GetOperands() {
		if v == nil {
			return s.fail(inst, "nil operand")
		}
	}
	return nil
}
