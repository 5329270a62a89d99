package compiler

import (
	"fmt"

	"lazy/internal/grammar"
	"lazy/internal/ir"
)

type loop struct {
	continueTo *ir.BasicBlock
	breakTo    *ir.BasicBlock
	withDepth  int
}

// scope is the compile state of one function body.
type scope struct {
	parent *scope
	module bool
	fn     *ir.Function
	b      *ir.Builder

	// locals are the names assigned anywhere in the body. shadow holds
	// comprehension variables while their comprehension is compiled.
	locals map[string]bool
	shadow map[string]int

	loops []loop
	withs []*ir.Value
	excs  []*ir.Value // exceptions of the enclosing except clauses

	consts map[string]int
	temps  int
}

func newScope(parent *scope, fn *ir.Function) *scope {
	return &scope{
		parent: parent,
		module: fn.Module,
		fn:     fn,
		b:      ir.NewBuilder(fn),
		locals: make(map[string]bool),
		shadow: make(map[string]int),
		consts: make(map[string]int),
	}
}

func (s *scope) temp() string {
	name := fmt.Sprintf("$t%d", s.temps)
	s.temps++
	return name
}

func (s *scope) load(name string) *ir.Value {
	if s.shadow[name] > 0 || (!s.module && s.locals[name]) {
		return s.b.LoadLocal(name)
	}
	for p := s.parent; p != nil; p = p.parent {
		if p.shadow[name] > 0 || (!p.module && p.locals[name]) {
			return s.b.LoadFree(name)
		}
	}
	return s.b.LoadGlobal(name)
}

func (s *scope) store(name string, v *ir.Value) {
	if s.module && s.shadow[name] == 0 {
		s.b.StoreGlobal(name, v)
		return
	}
	s.b.StoreLocal(name, v)
}

// collectLocals records the names a function body binds. Nested function
// bodies are not entered; their names belong to them.
func (s *scope) collectLocals(stmts []*grammar.Statement) {
	for _, stmt := range stmts {
		switch {
		case stmt.Def != nil:
			s.locals[stmt.Def.Name] = true
		case stmt.If != nil:
			s.collectBlock(stmt.If.Body)
			for _, elif := range stmt.If.Elifs {
				s.collectBlock(elif.Body)
			}
			s.collectBlock(stmt.If.Else)
		case stmt.While != nil:
			s.collectBlock(stmt.While.Body)
		case stmt.For != nil:
			for _, name := range stmt.For.Targets {
				s.locals[name] = true
			}
			s.collectBlock(stmt.For.Body)
		case stmt.Try != nil:
			s.collectBlock(stmt.Try.Body)
			for _, h := range stmt.Try.Handlers {
				if h.Name != "" {
					s.locals[h.Name] = true
				}
				s.collectBlock(h.Body)
			}
		case stmt.With != nil:
			if stmt.With.Name != "" {
				s.locals[stmt.With.Name] = true
			}
			s.collectBlock(stmt.With.Body)
		case stmt.Simple != nil:
			s.collectSimple(stmt.Simple)
		}
	}
}

func (s *scope) collectBlock(block *grammar.Block) {
	if block != nil {
		s.collectLocals(block.Statements)
	}
}

func (s *scope) collectSimple(stmt *grammar.SimpleStmt) {
	switch {
	case stmt.Import != nil:
		s.locals[importBinding(stmt.Import)] = true
	case stmt.Assign != nil && stmt.Assign.Op != "":
		for _, target := range stmt.Assign.Targets {
			s.collectTarget(target)
		}
	}
}

func (s *scope) collectTarget(e *grammar.Expr) {
	p := asPostfix(e)
	if p == nil || len(p.Suffixes) > 0 {
		return
	}
	switch prim := p.Primary; {
	case prim.Name != nil:
		s.locals[*prim.Name] = true
	case prim.Paren != nil && prim.Paren.First != nil:
		s.collectTarget(prim.Paren.First)
		for _, r := range prim.Paren.Rest {
			s.collectTarget(r)
		}
	case prim.List != nil && prim.List.First != nil && prim.List.Comp == nil:
		s.collectTarget(prim.List.First)
		for _, r := range prim.List.Rest {
			s.collectTarget(r)
		}
	}
}

func importBinding(imp *grammar.ImportStmt) string {
	if imp.Alias != "" {
		return imp.Alias
	}
	return imp.Path[len(imp.Path)-1]
}

// asPostfix unwraps an expression that is nothing but a postfix chain, as
// assignment targets must be. It returns nil for anything else.
func asPostfix(e *grammar.Expr) *grammar.PostfixExpr {
	if e == nil || e.Ternary == nil || e.Ternary.Cond != nil {
		return nil
	}
	or := e.Ternary.Body
	if len(or.Right) > 0 || len(or.Left.Right) > 0 {
		return nil
	}
	cmp := or.Left.Left.Compare
	if cmp == nil || len(cmp.Ops) > 0 {
		return nil
	}
	bor := cmp.Left
	if len(bor.Right) > 0 || len(bor.Left.Right) > 0 || len(bor.Left.Left.Right) > 0 {
		return nil
	}
	shift := bor.Left.Left.Left
	if len(shift.Ops) > 0 || len(shift.Left.Ops) > 0 || len(shift.Left.Left.Ops) > 0 {
		return nil
	}
	factor := shift.Left.Left.Left
	if factor.Power == nil || factor.Power.Exponent != nil {
		return nil
	}
	return factor.Power.Base
}
