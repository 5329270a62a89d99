package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy/internal/object"
	"lazy/internal/util/errwrap"
)

// buildAdd builds `def add(a, b=1) { return a + b; }` by hand.
func buildAdd() *Function {
	fn := NewFunction("add")
	fn.Params = []*Parameter{{Name: "a"}, {Name: "b", HasDefault: true}}
	b := NewBuilder(fn)
	a := b.LoadLocal("a")
	bv := b.LoadLocal("b")
	b.Return(b.BinOp(object.OpAdd, false, a, bv))
	return fn
}

func buildModule() *Function {
	fn := NewFunction("<module>")
	fn.Module = true
	one := fn.AddConst(&Constant{Value: object.Int(1)})
	slot := fn.AddConst(&Constant{Func: buildAdd()})
	none := fn.AddConst(&Constant{Value: object.None})

	b := NewBuilder(fn)
	def := b.Const(one)
	b.StoreGlobal("add", b.MakeFunction(slot, []*Value{def}))
	f := b.LoadGlobal("add")
	r := b.Call(f, []*Value{b.Const(one)}, []Keyword{{Name: "b", Value: def}})
	b.StoreGlobal("r", r)
	b.Return(b.Const(none))
	return fn
}

func TestPrint(t *testing.T) {
	program := &Program{Filename: "add.lz", Main: buildModule()}
	require.NoError(t, Verify(program.Main))

	expected := `; add.lz
function <module>() [module] {
consts:
  [0] 1
  [1] <function add>
  [2] None
entry:
  %0 = const[0] ; 1
  %1 = make_function[1] %0 ; <function add>
  store_global add, %1
  %2 = load_global add
  %3 = const[0] ; 1
  %4 = call %2(%3, b=%0)
  store_global r, %4
  %5 = const[2] ; None
  return %5
}

function add(a, b=?) {
entry:
  %0 = load_local a
  %1 = load_local b
  %2 = add %0, %1
  return %2
}
`
	assert.Equal(t, expected, Print(program))
}

func TestPrintHandlersAndTerminators(t *testing.T) {
	fn := NewFunction("loop")
	b := NewBuilder(fn)
	it := b.GetIter(b.LoadLocal("xs"))
	header := b.NewBlock("")
	body := b.NewBlock("")
	exit := b.NewBlock("")
	handler := b.NewBlock("except")
	b.Jump(header)

	b.SetBlock(header)
	header.Handler = handler
	x := b.ForIter(it, body, exit)

	b.SetBlock(body)
	b.StoreLocal("x", x)
	b.Jump(header)

	b.SetBlock(exit)
	b.Return(nil)

	b.SetBlock(handler)
	b.Raise(nil)

	require.NoError(t, Verify(fn))
	out := PrintFunction(fn)
	assert.Contains(t, out, "bb1: ; handler except4")
	assert.Contains(t, out, "%2 = for_iter %1, bb2, bb3")
	assert.Contains(t, out, "  raise\n")
	assert.Contains(t, out, "  return\n")
}

func TestVerifyReportsEveryProblem(t *testing.T) {
	fn := NewFunction("broken")
	b := NewBuilder(fn)
	stray := &Value{ID: 99}
	b.Emit(&BinOp{Result: fn.NewValue(), Op: object.OpAdd, Left: stray, Right: nil})
	b.Emit(&Const{Result: fn.NewValue(), Index: 7})
	b.NewBlock("")

	err := Verify(fn)
	require.Error(t, err)
	errs := errwrap.Errors(err)
	assert.Len(t, errs, 5, err.Error())
	msg := err.Error()
	assert.Contains(t, msg, "uses undefined %99")
	assert.Contains(t, msg, "nil operand")
	assert.Contains(t, msg, "does not name a value constant")
	assert.Contains(t, msg, "entry has no terminator")
	assert.Contains(t, msg, "bb1 has no terminator")
}

func TestVerifyMakeFunctionDefaults(t *testing.T) {
	fn := NewFunction("<module>")
	slot := fn.AddConst(&Constant{Func: buildAdd()})
	b := NewBuilder(fn)
	b.MakeFunction(slot, nil)
	b.Return(nil)

	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has 0 defaults, want 1")
}

func TestRemoveUnreachable(t *testing.T) {
	fn := NewFunction("f")
	b := NewBuilder(fn)
	live := b.NewBlock("")
	dead := b.NewBlock("")
	b.Jump(live)
	b.SetBlock(live)
	b.Return(nil)
	b.SetBlock(dead)
	b.Return(nil)

	pipeline := DefaultPipeline()
	require.NoError(t, pipeline.Run(&Program{Filename: "f.lz", Main: fn}))
	require.Len(t, fn.Blocks, 2)
	assert.Equal(t, "entry", fn.Blocks[0].Label)
	assert.Equal(t, "bb1", fn.Blocks[1].Label)

	changed, err := (&RemoveUnreachable{}).Apply(&Program{Main: fn})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestHandlersAreReachable(t *testing.T) {
	fn := NewFunction("f")
	b := NewBuilder(fn)
	handler := b.NewBlock("except")
	fn.Entry().Handler = handler
	b.Return(nil)
	b.SetBlock(handler)
	b.Raise(nil)

	assert.Len(t, Reachable(fn), 2)
}

func TestCloneFunctionIsDeep(t *testing.T) {
	orig := buildModule()
	before := PrintFunction(orig)

	clone := CloneFunction(orig)
	assert.Equal(t, before, PrintFunction(clone))

	clone.Blocks[0].Instructions = clone.Blocks[0].Instructions[:1]
	clone.Consts[1].Func.Name = "renamed"
	clone.Blocks[0].Terminator.(*Return).Value.ID = 42

	assert.Equal(t, before, PrintFunction(orig))
	assert.NotSame(t, orig.Consts[1].Func, clone.Consts[1].Func)
	assert.Equal(t, orig.Consts[0].Value, clone.Consts[0].Value)
}

func TestCloneInstructionRemaps(t *testing.T) {
	a, bv, c := &Value{ID: 0}, &Value{ID: 1}, &Value{ID: 2}
	target := &BasicBlock{Label: "old"}
	moved := &BasicBlock{Label: "new"}

	mv := func(v *Value) *Value {
		if v == nil {
			return nil
		}
		return &Value{ID: v.ID + 10}
	}
	mb := func(*BasicBlock) *BasicBlock { return moved }

	call := CloneInstruction(&Call{Result: c, Func: a, Args: []*Value{bv}}, mv, mb)
	assert.Equal(t, "%12 = call %10(%11)", call.String())

	br := CloneInstruction(&Branch{Cond: a, Then: target, Else: target}, mv, mb)
	assert.Equal(t, "branch %10, new, new", br.String())

	exit := CloneInstruction(&Exit{Result: c, Manager: a}, mv, mb)
	assert.Equal(t, "%12 = exit %10, None", exit.String())
}

func TestInstructionStrings(t *testing.T) {
	v := func(id int) *Value { return &Value{ID: id} }
	tests := []struct {
		inst     Instruction
		expected string
	}{
		{&LoadGlobal{Result: v(0), Name: "x", Deferred: true}, "%0 = load_global.lazy x"},
		{&BinOp{Result: v(2), Op: object.OpFloorDiv, InPlace: true, Left: v(0), Right: v(1)}, "%2 = inplace.floordiv %0, %1"},
		{&Compare{Result: v(2), Op: object.CmpNotIn, Left: v(0), Right: v(1)}, "%2 = not_contains %0, %1"},
		{&Is{Result: v(2), Negate: true, Left: v(0), Right: v(1)}, "%2 = isnot %0, %1"},
		{&UnaryOp{Result: v(1), Op: object.OpNeg, Operand: v(0)}, "%1 = neg %0"},
		{&Build{Result: v(1), Kind: BuildDict, Partial: true}, "%1 = build_dict.partial"},
		{&Build{Result: v(2), Kind: BuildTuple, Elems: []*Value{v(0), v(1)}}, "%2 = build_tuple %0, %1"},
		{&Unpack{Results: []*Value{v(1), v(2)}, Value: v(0)}, "%1, %2 = unpack %0"},
		{&Import{Result: v(0), Module: "math"}, "%0 = import math"},
		{&MatchException{Result: v(2), Exc: v(0), Class: v(1)}, "%2 = match_exc %0, %1"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.inst.String())
		})
	}
}
