package ir

import (
	"lazy/internal/object"
)

// Builder appends instructions to a current block. New blocks inherit the
// builder's current exception handler.
type Builder struct {
	Fn      *Function
	Block   *BasicBlock
	Handler *BasicBlock
}

// NewBuilder positions a builder at fn's entry block, creating it if needed.
func NewBuilder(fn *Function) *Builder {
	b := &Builder{Fn: fn}
	if entry := fn.Entry(); entry != nil {
		b.Block = entry
	} else {
		b.Block = fn.NewBlock("")
	}
	return b
}

func (b *Builder) NewBlock(label string) *BasicBlock {
	bb := b.Fn.NewBlock(label)
	bb.Handler = b.Handler
	return bb
}

func (b *Builder) SetBlock(bb *BasicBlock) {
	b.Block = bb
}

// Terminated reports whether the current block is closed. Code emitted
// after a return or raise goes nowhere until the builder moves on.
func (b *Builder) Terminated() bool {
	return b.Block.Terminator != nil
}

func (b *Builder) Emit(inst Instruction) {
	b.Block.Add(inst)
}

func (b *Builder) Terminate(t Terminator) {
	if b.Block.Terminator == nil {
		b.Block.Terminator = t
	}
}

func (b *Builder) value(emit func(*Value) Instruction) *Value {
	v := b.Fn.NewValue()
	b.Emit(emit(v))
	return v
}

func (b *Builder) Const(index int) *Value {
	return b.value(func(v *Value) Instruction { return &Const{Result: v, Index: index} })
}

func (b *Builder) LoadLocal(name string) *Value {
	return b.value(func(v *Value) Instruction { return &LoadLocal{Result: v, Name: name} })
}

func (b *Builder) LoadFree(name string) *Value {
	return b.value(func(v *Value) Instruction { return &LoadFree{Result: v, Name: name} })
}

func (b *Builder) LoadGlobal(name string) *Value {
	return b.value(func(v *Value) Instruction { return &LoadGlobal{Result: v, Name: name} })
}

func (b *Builder) StoreLocal(name string, val *Value) {
	b.Emit(&StoreLocal{Name: name, Value: val})
}

func (b *Builder) StoreGlobal(name string, val *Value) {
	b.Emit(&StoreGlobal{Name: name, Value: val})
}

func (b *Builder) BinOp(op object.BinaryOp, inPlace bool, left, right *Value) *Value {
	return b.value(func(v *Value) Instruction {
		return &BinOp{Result: v, Op: op, InPlace: inPlace, Left: left, Right: right}
	})
}

func (b *Builder) UnaryOp(op object.UnaryOp, operand *Value) *Value {
	return b.value(func(v *Value) Instruction { return &UnaryOp{Result: v, Op: op, Operand: operand} })
}

func (b *Builder) Compare(op object.CompareOp, left, right *Value) *Value {
	return b.value(func(v *Value) Instruction { return &Compare{Result: v, Op: op, Left: left, Right: right} })
}

func (b *Builder) Is(negate bool, left, right *Value) *Value {
	return b.value(func(v *Value) Instruction { return &Is{Result: v, Negate: negate, Left: left, Right: right} })
}

func (b *Builder) Not(operand *Value) *Value {
	return b.value(func(v *Value) Instruction { return &Not{Result: v, Operand: operand} })
}

func (b *Builder) Call(fn *Value, args []*Value, kwargs []Keyword) *Value {
	return b.value(func(v *Value) Instruction { return &Call{Result: v, Func: fn, Args: args, Kwargs: kwargs} })
}

func (b *Builder) GetAttr(obj *Value, name string) *Value {
	return b.value(func(v *Value) Instruction { return &GetAttr{Result: v, Object: obj, Name: name} })
}

func (b *Builder) GetItem(obj, key *Value) *Value {
	return b.value(func(v *Value) Instruction { return &GetItem{Result: v, Object: obj, Key: key} })
}

func (b *Builder) Build(kind BuildKind, elems []*Value, partial bool) *Value {
	return b.value(func(v *Value) Instruction {
		return &Build{Result: v, Kind: kind, Elems: elems, Partial: partial}
	})
}

func (b *Builder) Seal(container *Value) *Value {
	return b.value(func(v *Value) Instruction { return &Seal{Result: v, Container: container} })
}

func (b *Builder) MakeFunction(index int, defaults []*Value) *Value {
	return b.value(func(v *Value) Instruction { return &MakeFunction{Result: v, Index: index, Defaults: defaults} })
}

func (b *Builder) Import(module string) *Value {
	return b.value(func(v *Value) Instruction { return &Import{Result: v, Module: module} })
}

func (b *Builder) GetIter(iterable *Value) *Value {
	return b.value(func(v *Value) Instruction { return &GetIter{Result: v, Iterable: iterable} })
}

func (b *Builder) Unpack(val *Value, n int) []*Value {
	results := make([]*Value, n)
	for i := range results {
		results[i] = b.Fn.NewValue()
	}
	b.Emit(&Unpack{Results: results, Value: val})
	return results
}

func (b *Builder) Enter(manager *Value) *Value {
	return b.value(func(v *Value) Instruction { return &Enter{Result: v, Manager: manager} })
}

func (b *Builder) Exit(manager, exc *Value) *Value {
	return b.value(func(v *Value) Instruction { return &Exit{Result: v, Manager: manager, Exc: exc} })
}

func (b *Builder) CurrentException() *Value {
	return b.value(func(v *Value) Instruction { return &CurrentException{Result: v} })
}

func (b *Builder) MatchException(exc, class *Value) *Value {
	return b.value(func(v *Value) Instruction { return &MatchException{Result: v, Exc: exc, Class: class} })
}

func (b *Builder) Return(val *Value) {
	b.Terminate(&Return{Value: val})
}

func (b *Builder) Jump(target *BasicBlock) {
	b.Terminate(&Jump{Target: target})
}

func (b *Builder) Branch(cond *Value, then, els *BasicBlock) {
	b.Terminate(&Branch{Cond: cond, Then: then, Else: els})
}

// ForIter terminates the block with an iteration step and returns the
// register that receives each item.
func (b *Builder) ForIter(iter *Value, body, exit *BasicBlock) *Value {
	v := b.Fn.NewValue()
	b.Terminate(&ForIter{Iter: iter, Result: v, Body: body, Exit: exit})
	return v
}

func (b *Builder) Raise(val *Value) {
	b.Terminate(&Raise{Value: val})
}
