package ir

import (
	"fmt"

	"lazy/internal/util/errwrap"
)

// Verify checks the structural invariants of fn and of every function
// nested in it. All problems found are returned together.
func Verify(fn *Function) error {
	var reterr error
	v := &verifier{fn: fn, defined: make(map[*Value]bool), blocks: make(map[*BasicBlock]bool)}
	reterr = errwrap.Append(reterr, v.run())
	for _, c := range fn.Consts {
		if c.Func != nil {
			reterr = errwrap.Append(reterr, Verify(c.Func))
		}
	}
	return reterr
}

type verifier struct {
	fn      *Function
	defined map[*Value]bool
	blocks  map[*BasicBlock]bool
	err     error
}

func (v *verifier) errorf(format string, args ...interface{}) {
	v.err = errwrap.Append(v.err, fmt.Errorf("%s: "+format, append([]interface{}{v.fn.Name}, args...)...))
}

func (v *verifier) run() error {
	if len(v.fn.Blocks) == 0 {
		v.errorf("no blocks")
		return v.err
	}

	labels := make(map[string]bool)
	for _, b := range v.fn.Blocks {
		if labels[b.Label] {
			v.errorf("duplicate block label %s", b.Label)
		}
		labels[b.Label] = true
		v.blocks[b] = true
	}

	for _, b := range v.fn.Blocks {
		for _, inst := range b.Instructions {
			v.define(b, inst)
		}
		if b.Terminator == nil {
			v.errorf("block %s has no terminator", b.Label)
			continue
		}
		v.define(b, b.Terminator)
	}

	for _, b := range v.fn.Blocks {
		if b.Handler != nil && !v.blocks[b.Handler] {
			v.errorf("block %s: handler is not in this function", b.Label)
		}
		for _, inst := range b.Instructions {
			v.check(b, inst)
		}
		if b.Terminator != nil {
			v.check(b, b.Terminator)
			for _, succ := range b.Terminator.GetSuccessors() {
				if succ == nil || !v.blocks[succ] {
					v.errorf("block %s: %s targets a block outside this function", b.Label, b.Terminator)
				}
			}
		}
	}
	return v.err
}

func (v *verifier) define(b *BasicBlock, inst Instruction) {
	for _, r := range inst.GetResults() {
		if r == nil {
			v.errorf("block %s: %T has a nil result", b.Label, inst)
			continue
		}
		if v.defined[r] {
			v.errorf("block %s: %s defined twice", b.Label, r)
		}
		v.defined[r] = true
	}
}

func (v *verifier) check(b *BasicBlock, inst Instruction) {
	for _, op := range inst.GetOperands() {
		switch {
		case op == nil:
			v.errorf("block %s: %T has a nil operand", b.Label, inst)
		case !v.defined[op]:
			v.errorf("block %s: %s uses undefined %s", b.Label, inst, op)
		}
	}

	switch i := inst.(type) {
	case *Const:
		if i.Index < 0 || i.Index >= len(v.fn.Consts) || v.fn.Consts[i.Index].Value == nil {
			v.errorf("block %s: %s does not name a value constant", b.Label, i)
		}
	case *MakeFunction:
		if i.Index < 0 || i.Index >= len(v.fn.Consts) || v.fn.Consts[i.Index].Func == nil {
			v.errorf("block %s: %s does not name a function constant", b.Label, i)
			return
		}
		want := 0
		for _, p := range v.fn.Consts[i.Index].Func.Params {
			if p.HasDefault {
				want++
			}
		}
		if len(i.Defaults) != want {
			v.errorf("block %s: %s has %d defaults, want %d", b.Label, i, len(i.Defaults), want)
		}
	case *Build:
		if i.Kind == BuildDict && len(i.Elems)%2 != 0 {
			v.errorf("block %s: %s has an odd number of dict elements", b.Label, i)
		}
	}
}
