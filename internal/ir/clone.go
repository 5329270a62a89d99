package ir

import (
	"fmt"
)

// CloneInstruction copies inst, mapping every value and block reference
// through mv and mb. Passes use it to carry instructions they do not
// rewrite into a new function.
func CloneInstruction(inst Instruction, mv func(*Value) *Value, mb func(*BasicBlock) *BasicBlock) Instruction {
	mvs := func(vs []*Value) []*Value {
		if vs == nil {
			return nil
		}
		out := make([]*Value, len(vs))
		for i, v := range vs {
			out[i] = mv(v)
		}
		return out
	}

	switch i := inst.(type) {
	case *Const:
		return &Const{Result: mv(i.Result), Index: i.Index}
	case *LoadLocal:
		return &LoadLocal{Result: mv(i.Result), Name: i.Name}
	case *LoadFree:
		return &LoadFree{Result: mv(i.Result), Name: i.Name}
	case *LoadGlobal:
		return &LoadGlobal{Result: mv(i.Result), Name: i.Name, Deferred: i.Deferred}
	case *StoreLocal:
		return &StoreLocal{Name: i.Name, Value: mv(i.Value)}
	case *StoreGlobal:
		return &StoreGlobal{Name: i.Name, Value: mv(i.Value)}
	case *BinOp:
		return &BinOp{Result: mv(i.Result), Op: i.Op, InPlace: i.InPlace, Left: mv(i.Left), Right: mv(i.Right)}
	case *UnaryOp:
		return &UnaryOp{Result: mv(i.Result), Op: i.Op, Operand: mv(i.Operand)}
	case *Compare:
		return &Compare{Result: mv(i.Result), Op: i.Op, Left: mv(i.Left), Right: mv(i.Right)}
	case *Is:
		return &Is{Result: mv(i.Result), Negate: i.Negate, Left: mv(i.Left), Right: mv(i.Right)}
	case *Not:
		return &Not{Result: mv(i.Result), Operand: mv(i.Operand)}
	case *Call:
		kwargs := make([]Keyword, len(i.Kwargs))
		for k, kw := range i.Kwargs {
			kwargs[k] = Keyword{Name: kw.Name, Value: mv(kw.Value)}
		}
		return &Call{Result: mv(i.Result), Func: mv(i.Func), Args: mvs(i.Args), Kwargs: kwargs}
	case *GetAttr:
		return &GetAttr{Result: mv(i.Result), Object: mv(i.Object), Name: i.Name}
	case *SetAttr:
		return &SetAttr{Object: mv(i.Object), Name: i.Name, Value: mv(i.Value)}
	case *GetItem:
		return &GetItem{Result: mv(i.Result), Object: mv(i.Object), Key: mv(i.Key)}
	case *SetItem:
		return &SetItem{Object: mv(i.Object), Key: mv(i.Key), Value: mv(i.Value)}
	case *Build:
		return &Build{Result: mv(i.Result), Kind: i.Kind, Elems: mvs(i.Elems), Partial: i.Partial}
	case *Append:
		return &Append{Container: mv(i.Container), Value: mv(i.Value)}
	case *Seal:
		return &Seal{Result: mv(i.Result), Container: mv(i.Container)}
	case *MakeFunction:
		return &MakeFunction{Result: mv(i.Result), Index: i.Index, Defaults: mvs(i.Defaults)}
	case *Import:
		return &Import{Result: mv(i.Result), Module: i.Module}
	case *GetIter:
		return &GetIter{Result: mv(i.Result), Iterable: mv(i.Iterable)}
	case *Unpack:
		return &Unpack{Results: mvs(i.Results), Value: mv(i.Value)}
	case *Enter:
		return &Enter{Result: mv(i.Result), Manager: mv(i.Manager)}
	case *Exit:
		return &Exit{Result: mv(i.Result), Manager: mv(i.Manager), Exc: mv(i.Exc)}
	case *CurrentException:
		return &CurrentException{Result: mv(i.Result)}
	case *MatchException:
		return &MatchException{Result: mv(i.Result), Exc: mv(i.Exc), Class: mv(i.Class)}

	case *Return:
		return &Return{Value: mv(i.Value)}
	case *Jump:
		return &Jump{Target: mb(i.Target)}
	case *Branch:
		return &Branch{Cond: mv(i.Cond), Then: mb(i.Then), Else: mb(i.Else)}
	case *ForIter:
		return &ForIter{Iter: mv(i.Iter), Result: mv(i.Result), Body: mb(i.Body), Exit: mb(i.Exit)}
	case *Raise:
		return &Raise{Value: mv(i.Value)}
	}
	panic(fmt.Sprintf("ir: cannot clone %T", inst))
}

// CloneFunction returns a deep copy of fn. Nested functions in the constant
// pool are copied too; constant values are shared.
func CloneFunction(fn *Function) *Function {
	out := &Function{
		Name:      fn.Name,
		Module:    fn.Module,
		Lazy:      fn.Lazy,
		LazyKind:  fn.LazyKind,
		nextValue: fn.nextValue,
		nextBlock: fn.nextBlock,
	}
	for _, p := range fn.Params {
		cp := *p
		out.Params = append(out.Params, &cp)
	}
	for _, c := range fn.Consts {
		cc := &Constant{Value: c.Value}
		if c.Func != nil {
			cc.Func = CloneFunction(c.Func)
		}
		out.Consts = append(out.Consts, cc)
	}

	vals := make(map[*Value]*Value)
	mv := func(v *Value) *Value {
		if v == nil {
			return nil
		}
		if nv, ok := vals[v]; ok {
			return nv
		}
		nv := &Value{ID: v.ID}
		vals[v] = nv
		return nv
	}
	blocks := make(map[*BasicBlock]*BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		nb := &BasicBlock{Label: b.Label}
		blocks[b] = nb
		out.Blocks = append(out.Blocks, nb)
	}
	mb := func(b *BasicBlock) *BasicBlock {
		if b == nil {
			return nil
		}
		return blocks[b]
	}
	for _, b := range fn.Blocks {
		nb := blocks[b]
		nb.Handler = mb(b.Handler)
		for _, inst := range b.Instructions {
			nb.Add(CloneInstruction(inst, mv, mb))
		}
		if b.Terminator != nil {
			nb.Terminator = CloneInstruction(b.Terminator, mv, mb).(Terminator)
		}
	}
	return out
}
