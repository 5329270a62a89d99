package compiler

import (
	"lazy/internal/errors"
	"lazy/internal/grammar"
	"lazy/internal/ir"
	"lazy/internal/object"
)

func (c *Compiler) expr(s *scope, e *grammar.Expr) *ir.Value {
	if e.Lambda != nil {
		return c.lambda(s, e.Lambda)
	}
	return c.ternary(s, e.Ternary)
}

func (c *Compiler) lambda(s *scope, l *grammar.LambdaExpr) *ir.Value {
	return c.function(s, "<lambda>", l.Params, func(inner *scope) {
		inner.b.Return(c.expr(inner, l.Body))
	})
}

// merge compiles a value-producing branch structure. Each arm stores its
// result in a temporary that the join block loads.
type merge struct {
	temp string
	join *ir.BasicBlock
}

func (c *Compiler) newMerge(s *scope) *merge {
	return &merge{temp: s.temp(), join: s.b.NewBlock("")}
}

func (m *merge) arm(s *scope, v *ir.Value) {
	s.b.StoreLocal(m.temp, v)
	s.b.Jump(m.join)
}

func (m *merge) result(s *scope) *ir.Value {
	s.b.SetBlock(m.join)
	return s.b.LoadLocal(m.temp)
}

func (c *Compiler) ternary(s *scope, t *grammar.TernaryExpr) *ir.Value {
	if t.Cond == nil {
		return c.or(s, t.Body)
	}
	m := c.newMerge(s)
	then, els := s.b.NewBlock(""), s.b.NewBlock("")
	s.b.Branch(c.or(s, t.Cond), then, els)

	s.b.SetBlock(then)
	m.arm(s, c.or(s, t.Body))
	s.b.SetBlock(els)
	m.arm(s, c.expr(s, t.Else))
	return m.result(s)
}

// shortCircuit lowers `a or b` and `a and b`: the value of the first
// operand that decides the result.
func (c *Compiler) shortCircuit(s *scope, first *ir.Value, rest []func() *ir.Value, isOr bool) *ir.Value {
	if len(rest) == 0 {
		return first
	}
	m := c.newMerge(s)
	v := first
	for _, next := range rest {
		s.b.StoreLocal(m.temp, v)
		cont := s.b.NewBlock("")
		if isOr {
			s.b.Branch(v, m.join, cont)
		} else {
			s.b.Branch(v, cont, m.join)
		}
		s.b.SetBlock(cont)
		v = next()
	}
	m.arm(s, v)
	return m.result(s)
}

func (c *Compiler) or(s *scope, e *grammar.OrExpr) *ir.Value {
	rest := make([]func() *ir.Value, len(e.Right))
	for i, r := range e.Right {
		rest[i] = func() *ir.Value { return c.and(s, r) }
	}
	return c.shortCircuit(s, c.and(s, e.Left), rest, true)
}

func (c *Compiler) and(s *scope, e *grammar.AndExpr) *ir.Value {
	rest := make([]func() *ir.Value, len(e.Right))
	for i, r := range e.Right {
		rest[i] = func() *ir.Value { return c.not(s, r) }
	}
	return c.shortCircuit(s, c.not(s, e.Left), rest, false)
}

func (c *Compiler) not(s *scope, e *grammar.NotExpr) *ir.Value {
	if e.Not != nil {
		return s.b.Not(c.not(s, e.Not))
	}
	return c.comparison(s, e.Compare)
}

// comparison lowers a comparison chain. `a < b < c` evaluates b once and
// stops at the first false link.
func (c *Compiler) comparison(s *scope, e *grammar.CompareExpr) *ir.Value {
	left := c.bitOr(s, e.Left)
	if len(e.Ops) == 0 {
		return left
	}
	if len(e.Ops) == 1 {
		return c.compareOp(s, e.Ops[0], left, c.bitOr(s, e.Ops[0].Right))
	}

	m := c.newMerge(s)
	for i, op := range e.Ops {
		right := c.bitOr(s, op.Right)
		r := c.compareOp(s, op, left, right)
		if i == len(e.Ops)-1 {
			m.arm(s, r)
			break
		}
		s.b.StoreLocal(m.temp, r)
		cont := s.b.NewBlock("")
		s.b.Branch(r, cont, m.join)
		s.b.SetBlock(cont)
		left = right
	}
	return m.result(s)
}

func (c *Compiler) compareOp(s *scope, op *grammar.CompareOp, left, right *ir.Value) *ir.Value {
	switch op.Op {
	case "is":
		return s.b.Is(false, left, right)
	case "isnot":
		return s.b.Is(true, left, right)
	case "notin":
		return s.b.Compare(object.CmpNotIn, left, right)
	}
	cmp, ok := object.LookupCompare(op.Op)
	if !ok {
		c.report(errors.Unsupported("comparison "+op.Op, op.Pos))
		return left
	}
	return s.b.Compare(cmp, left, right)
}

func (c *Compiler) binary(s *scope, symbol string, left, right *ir.Value) *ir.Value {
	op, _, _ := object.LookupBinary(symbol)
	return s.b.BinOp(op, false, left, right)
}

func (c *Compiler) bitOr(s *scope, e *grammar.BitOrExpr) *ir.Value {
	v := c.bitXor(s, e.Left)
	for _, r := range e.Right {
		v = c.binary(s, "|", v, c.bitXor(s, r))
	}
	return v
}

func (c *Compiler) bitXor(s *scope, e *grammar.BitXorExpr) *ir.Value {
	v := c.bitAnd(s, e.Left)
	for _, r := range e.Right {
		v = c.binary(s, "^", v, c.bitAnd(s, r))
	}
	return v
}

func (c *Compiler) bitAnd(s *scope, e *grammar.BitAndExpr) *ir.Value {
	v := c.shift(s, e.Left)
	for _, r := range e.Right {
		v = c.binary(s, "&", v, c.shift(s, r))
	}
	return v
}

func (c *Compiler) shift(s *scope, e *grammar.ShiftExpr) *ir.Value {
	v := c.arith(s, e.Left)
	for _, op := range e.Ops {
		v = c.binary(s, op.Op, v, c.arith(s, op.Right))
	}
	return v
}

func (c *Compiler) arith(s *scope, e *grammar.ArithExpr) *ir.Value {
	v := c.term(s, e.Left)
	for _, op := range e.Ops {
		v = c.binary(s, op.Op, v, c.term(s, op.Right))
	}
	return v
}

func (c *Compiler) term(s *scope, e *grammar.TermExpr) *ir.Value {
	v := c.factor(s, e.Left)
	for _, op := range e.Ops {
		v = c.binary(s, op.Op, v, c.factor(s, op.Right))
	}
	return v
}

func (c *Compiler) factor(s *scope, e *grammar.FactorExpr) *ir.Value {
	if e.Power != nil {
		return c.power(s, e.Power)
	}
	op, _ := object.LookupUnary(e.Op)
	return s.b.UnaryOp(op, c.factor(s, e.Operand))
}

func (c *Compiler) power(s *scope, e *grammar.PowerExpr) *ir.Value {
	base := c.postfix(s, e.Base)
	if e.Exponent == nil {
		return base
	}
	return s.b.BinOp(object.OpPow, false, base, c.factor(s, e.Exponent))
}

func (c *Compiler) postfix(s *scope, e *grammar.PostfixExpr) *ir.Value {
	v := c.primary(s, e.Primary)
	for _, suffix := range e.Suffixes {
		v = c.suffix(s, v, suffix)
	}
	return v
}

// postfixPrefix evaluates a postfix chain up to, not including, its last
// suffix.
func (c *Compiler) postfixPrefix(s *scope, e *grammar.PostfixExpr) *ir.Value {
	v := c.primary(s, e.Primary)
	for _, suffix := range e.Suffixes[:len(e.Suffixes)-1] {
		v = c.suffix(s, v, suffix)
	}
	return v
}

func (c *Compiler) suffix(s *scope, v *ir.Value, suffix *grammar.Suffix) *ir.Value {
	switch {
	case suffix.Call != nil:
		return c.call(s, v, suffix.Call)
	case suffix.Index != nil:
		return s.b.GetItem(v, c.expr(s, suffix.Index))
	default:
		return s.b.GetAttr(v, suffix.Attr)
	}
}

func (c *Compiler) call(s *scope, fn *ir.Value, call *grammar.CallArgs) *ir.Value {
	var args []*ir.Value
	var kwargs []ir.Keyword
	for _, arg := range call.Args {
		v := c.expr(s, arg.Value)
		if arg.Name != "" {
			kwargs = append(kwargs, ir.Keyword{Name: arg.Name, Value: v})
			continue
		}
		if len(kwargs) > 0 {
			c.report(errors.Unsupported("a positional argument after keyword arguments", arg.Pos))
		}
		args = append(args, v)
	}
	return s.b.Call(fn, args, kwargs)
}

func (c *Compiler) primary(s *scope, p *grammar.Primary) *ir.Value {
	switch {
	case p.Float != nil:
		return c.constant(s, object.Float(*p.Float))
	case p.Int != nil:
		i, err := grammar.ParseInt(*p.Int)
		if err != nil {
			c.report(errors.InvalidLiteral(*p.Int, p.Pos, err))
		}
		return c.constant(s, object.Int(i))
	case p.Str != nil:
		str, err := grammar.Unquote(*p.Str)
		if err != nil {
			c.report(errors.InvalidLiteral(*p.Str, p.Pos, err))
		}
		return c.constant(s, object.Str(str))
	case p.True:
		return c.constant(s, object.Bool(true))
	case p.False:
		return c.constant(s, object.Bool(false))
	case p.None:
		return c.constant(s, object.None)
	case p.Name != nil:
		return s.load(*p.Name)
	case p.Paren != nil:
		return c.paren(s, p.Paren)
	case p.List != nil:
		return c.list(s, p.List)
	default:
		return c.brace(s, p.Brace)
	}
}

func (c *Compiler) paren(s *scope, p *grammar.ParenDisplay) *ir.Value {
	if p.First == nil {
		return s.b.Build(ir.BuildTuple, nil, false)
	}
	if !p.Comma && len(p.Rest) == 0 {
		return c.expr(s, p.First)
	}
	return c.tuple(s, append([]*grammar.Expr{p.First}, p.Rest...))
}

func (c *Compiler) list(s *scope, l *grammar.ListDisplay) *ir.Value {
	if l.First == nil {
		return s.b.Build(ir.BuildList, nil, false)
	}
	if l.Comp != nil {
		return c.comprehension(s, ir.BuildList, l.Comp, func(container *ir.Value) {
			s.b.Emit(&ir.Append{Container: container, Value: c.expr(s, l.First)})
		})
	}
	elems := []*ir.Value{c.expr(s, l.First)}
	for _, e := range l.Rest {
		elems = append(elems, c.expr(s, e))
	}
	return s.b.Build(ir.BuildList, elems, false)
}

func (c *Compiler) brace(s *scope, b *grammar.BraceDisplay) *ir.Value {
	if b.First == nil {
		return s.b.Build(ir.BuildDict, nil, false)
	}
	isDict := b.First.Value != nil

	if b.Comp != nil {
		if isDict {
			return c.comprehension(s, ir.BuildDict, b.Comp, func(container *ir.Value) {
				key := c.expr(s, b.First.Key)
				s.b.Emit(&ir.SetItem{Object: container, Key: key, Value: c.expr(s, b.First.Value)})
			})
		}
		return c.comprehension(s, ir.BuildSet, b.Comp, func(container *ir.Value) {
			s.b.Emit(&ir.Append{Container: container, Value: c.expr(s, b.First.Key)})
		})
	}

	var elems []*ir.Value
	for _, item := range append([]*grammar.BraceItem{b.First}, b.Rest...) {
		if (item.Value != nil) != isDict {
			c.report(errors.Unsupported("mixing set and dict items", item.Pos))
			continue
		}
		elems = append(elems, c.expr(s, item.Key))
		if isDict {
			elems = append(elems, c.expr(s, item.Value))
		}
	}
	if isDict {
		return s.b.Build(ir.BuildDict, elems, false)
	}
	return s.b.Build(ir.BuildSet, elems, false)
}

// comprehension fills a partial container inside nested loops and seals
// it. The loop variables live in the frame's locals while the
// comprehension is compiled.
func (c *Compiler) comprehension(s *scope, kind ir.BuildKind, comp *grammar.CompFor, elem func(container *ir.Value)) *ir.Value {
	container := s.b.Build(kind, nil, true)
	c.compFor(s, comp, func() { elem(container) })
	return s.b.Seal(container)
}

func (c *Compiler) compFor(s *scope, comp *grammar.CompFor, elem func()) {
	it := s.b.GetIter(c.or(s, comp.Iter))
	header, body, after := s.b.NewBlock(""), s.b.NewBlock(""), s.b.NewBlock("")
	s.b.Jump(header)

	s.b.SetBlock(header)
	item := s.b.ForIter(it, body, after)

	for _, name := range comp.Targets {
		s.shadow[name]++
	}
	s.b.SetBlock(body)
	c.bindNames(s, comp.Targets, item)
	for _, cond := range comp.Conds {
		next := s.b.NewBlock("")
		s.b.Branch(c.or(s, cond), next, header)
		s.b.SetBlock(next)
	}
	if comp.Next != nil {
		c.compFor(s, comp.Next, elem)
	} else {
		elem()
	}
	jump(s, header)
	for _, name := range comp.Targets {
		s.shadow[name]--
	}

	s.b.SetBlock(after)
}
