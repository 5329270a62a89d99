// Package ir is the register-based intermediate representation of lz
// programs.
//
// A Function is a list of basic blocks. Instructions read and write numbered
// registers (Values) that are defined exactly once; named storage goes
// through load and store instructions so merges never need phi nodes. Each
// block ends with a Terminator and may name a Handler block that receives
// any exception raised inside it.
//
// The same representation serves strict and lazy execution: the rewrite
// pass produces a new Function whose constant pool holds thunks and
// thunk-construction helpers, and marks it Lazy.
package ir

import (
	"fmt"

	"lazy/internal/object"
	"lazy/internal/thunk"
)

// Program is a compiled source unit. Main runs the module body.
type Program struct {
	Filename string
	Main     *Function
}

// ParamKind distinguishes plain, *args and **kwargs parameters.
type ParamKind int

const (
	ParamPlain ParamKind = iota
	ParamVarArgs
	ParamKwArgs
)

type Parameter struct {
	Name       string
	Kind       ParamKind
	HasDefault bool
}

func (p *Parameter) String() string {
	switch p.Kind {
	case ParamVarArgs:
		return "*" + p.Name
	case ParamKwArgs:
		return "**" + p.Name
	}
	if p.HasDefault {
		return p.Name + "=?"
	}
	return p.Name
}

// Constant is one constant pool slot. Exactly one of Value and Func is set.
type Constant struct {
	Value object.Object
	Func  *Function
}

func (c *Constant) String() string {
	if c.Func != nil {
		return fmt.Sprintf("<function %s>", c.Func.Name)
	}
	if d, ok := c.Value.(interface{ Describe() string }); ok {
		return d.Describe()
	}
	if s, err := object.Repr(c.Value); err == nil {
		return s
	}
	return c.Value.String()
}

// Function is the IR of one routine, or of a module body when Module is set.
type Function struct {
	Name   string
	Params []*Parameter
	Consts []*Constant
	Blocks []*BasicBlock // Blocks[0] is the entry block

	// Module marks a module body: user names live in the globals.
	Module bool

	// Lazy is set on functions produced by the rewrite pass. LazyKind is
	// the thunk kind their deferred loads construct.
	Lazy     bool
	LazyKind *thunk.Kind

	nextValue int
	nextBlock int
}

func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// Entry returns the entry block, or nil for a function with no blocks.
func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NewValue allocates a fresh register.
func (f *Function) NewValue() *Value {
	v := &Value{ID: f.nextValue}
	f.nextValue++
	return v
}

// NumValues is the size of the register file a frame needs.
func (f *Function) NumValues() int {
	return f.nextValue
}

// NewBlock appends a new block. The first block is labelled "entry"; label
// is used as a prefix for the others.
func (f *Function) NewBlock(label string) *BasicBlock {
	if len(f.Blocks) == 0 {
		label = "entry"
	} else {
		if label == "" {
			label = "bb"
		}
		label = fmt.Sprintf("%s%d", label, f.nextBlock)
	}
	f.nextBlock++
	b := &BasicBlock{Label: label}
	f.Blocks = append(f.Blocks, b)
	return b
}

// AddConst appends a constant and returns its index.
func (f *Function) AddConst(c *Constant) int {
	f.Consts = append(f.Consts, c)
	return len(f.Consts) - 1
}

// Block finds a block by label.
func (f *Function) Block(label string) *BasicBlock {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Nested returns the functions held in f's constant pool, depth first.
func (f *Function) Nested() []*Function {
	var out []*Function
	for _, c := range f.Consts {
		if c.Func != nil {
			out = append(out, c.Func)
			out = append(out, c.Func.Nested()...)
		}
	}
	return out
}

// MinArgs and MaxArgs bound the number of positional arguments. MaxArgs is
// -1 when the function takes *args.
func (f *Function) MinArgs() int {
	n := 0
	for _, p := range f.Params {
		if p.Kind == ParamPlain && !p.HasDefault {
			n++
		}
	}
	return n
}

func (f *Function) MaxArgs() int {
	n := 0
	for _, p := range f.Params {
		switch p.Kind {
		case ParamPlain:
			n++
		case ParamVarArgs:
			return -1
		}
	}
	return n
}

type BasicBlock struct {
	Label        string
	Instructions []Instruction
	Terminator   Terminator
	// Handler receives exceptions raised by this block's instructions and
	// terminator. nil propagates them to the caller.
	Handler *BasicBlock
}

func (b *BasicBlock) Add(inst Instruction) {
	b.Instructions = append(b.Instructions, inst)
}

// Terminated reports whether a terminator has been set.
func (b *BasicBlock) Terminated() bool {
	return b.Terminator != nil
}

// Successors lists the blocks control can reach from b, handler included.
func (b *BasicBlock) Successors() []*BasicBlock {
	var out []*BasicBlock
	if b.Terminator != nil {
		out = append(out, b.Terminator.GetSuccessors()...)
	}
	if b.Handler != nil {
		out = append(out, b.Handler)
	}
	return out
}

// Value is a register. Each one is defined by exactly one instruction or
// terminator.
type Value struct {
	ID int
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%%%d", v.ID)
}

// Instruction is a non-terminating operation.
type Instruction interface {
	GetResults() []*Value
	GetOperands() []*Value
	String() string
}

// Terminator ends a basic block.
type Terminator interface {
	Instruction
	GetSuccessors() []*BasicBlock
}
