package compiler

import (
	"slices"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"lazy/internal/errors"
	"lazy/internal/grammar"
	"lazy/internal/ir"
	"lazy/internal/object"
)

func lexerPos(filename string) lexer.Position {
	return lexer.Position{Filename: filename}
}

// withStmt lowers a with block. On normal exit the manager's exit sees
// None; when the body raises, a handler block passes the exception to exit
// and re-raises it unless exit suppresses it.
func (c *Compiler) withStmt(s *scope, stmt *grammar.WithStmt) {
	manager := c.expr(s, stmt.Manager)
	entered := s.b.Enter(manager)

	handler := s.b.NewBlock("with")
	after := s.b.NewBlock("")

	saved := s.b.Handler
	s.b.Handler = handler
	body := s.b.NewBlock("")
	s.b.Jump(body)
	s.b.SetBlock(body)
	if stmt.Name != "" {
		s.store(stmt.Name, entered)
	}
	s.withs = append(s.withs, manager)
	c.block(s, stmt.Body)
	s.withs = s.withs[:len(s.withs)-1]
	s.b.Handler = saved
	if !s.b.Terminated() {
		s.b.Exit(manager, nil)
		s.b.Jump(after)
	}

	s.b.SetBlock(handler)
	exc := s.b.CurrentException()
	suppressed := s.b.Exit(manager, exc)
	reraise := s.b.NewBlock("")
	s.b.Branch(suppressed, after, reraise)
	s.b.SetBlock(reraise)
	s.b.Raise(exc)

	s.b.SetBlock(after)
}

// exitWiths runs the exits of the with blocks above depth, innermost
// first, before control leaves them through return, break or continue.
func (c *Compiler) exitWiths(s *scope, depth int) {
	for i := len(s.withs) - 1; i >= depth; i-- {
		s.b.Exit(s.withs[i], nil)
	}
}

func (c *Compiler) simpleStmt(s *scope, stmt *grammar.SimpleStmt) {
	switch {
	case stmt.Return != nil:
		c.returnStmt(s, stmt.Return)
	case stmt.Import != nil:
		c.importStmt(s, stmt.Import)
	case stmt.Raise != nil:
		c.raiseStmt(s, stmt.Raise)
	case stmt.Assert != nil:
		c.assertStmt(s, stmt.Assert)
	case stmt.Pass:
	case stmt.Break:
		if len(s.loops) == 0 {
			c.report(errors.BreakOutsideLoop(stmt.Pos))
			return
		}
		l := s.loops[len(s.loops)-1]
		c.exitWiths(s, l.withDepth)
		s.b.Jump(l.breakTo)
	case stmt.Continue:
		if len(s.loops) == 0 {
			c.report(errors.ContinueOutsideLoop(stmt.Pos))
			return
		}
		l := s.loops[len(s.loops)-1]
		c.exitWiths(s, l.withDepth)
		s.b.Jump(l.continueTo)
	case stmt.Assign != nil:
		c.assignStmt(s, stmt.Assign)
	}
}

func (c *Compiler) returnStmt(s *scope, stmt *grammar.ReturnStmt) {
	if s.module {
		c.report(errors.ReturnOutsideFunction(stmt.Pos))
		return
	}
	var v *ir.Value
	if stmt.Value != nil {
		v = c.expr(s, stmt.Value)
	} else {
		v = c.constant(s, object.None)
	}
	c.exitWiths(s, 0)
	s.b.Return(v)
}

func (c *Compiler) importStmt(s *scope, stmt *grammar.ImportStmt) {
	name := strings.Join(stmt.Path, ".")
	if c.options.Modules != nil && !slices.Contains(c.options.Modules, name) {
		c.report(errors.UnknownModule(name, stmt.Pos, c.options.Modules))
	}
	s.store(importBinding(stmt), s.b.Import(name))
}

func (c *Compiler) raiseStmt(s *scope, stmt *grammar.RaiseStmt) {
	switch {
	case stmt.Value != nil:
		s.b.Raise(c.expr(s, stmt.Value))
	case len(s.excs) > 0:
		s.b.Raise(s.excs[len(s.excs)-1])
	default:
		s.b.Raise(nil)
	}
}

func (c *Compiler) assertStmt(s *scope, stmt *grammar.AssertStmt) {
	cond := c.expr(s, stmt.Cond)
	fail, after := s.b.NewBlock(""), s.b.NewBlock("")
	s.b.Branch(cond, after, fail)

	s.b.SetBlock(fail)
	class := s.load("AssertionError")
	var args []*ir.Value
	if stmt.Message != nil {
		args = append(args, c.expr(s, stmt.Message))
	}
	s.b.Raise(s.b.Call(class, args, nil))

	s.b.SetBlock(after)
}

func (c *Compiler) assignStmt(s *scope, stmt *grammar.AssignStmt) {
	switch stmt.Op {
	case "":
		// Expression statement; a bare tuple is built and dropped.
		if len(stmt.Targets) == 1 {
			c.expr(s, stmt.Targets[0])
		} else {
			c.tuple(s, stmt.Targets)
		}
	case "=":
		var v *ir.Value
		if len(stmt.Values) == 1 {
			v = c.expr(s, stmt.Values[0])
		} else {
			v = c.tuple(s, stmt.Values)
		}
		if len(stmt.Targets) == 1 {
			c.assign(s, stmt.Targets[0], v)
			return
		}
		for i, part := range s.b.Unpack(v, len(stmt.Targets)) {
			c.assign(s, stmt.Targets[i], part)
		}
	default:
		if len(stmt.Targets) != 1 || len(stmt.Values) != 1 {
			c.report(errors.Unsupported("augmented assignment to several targets", stmt.Pos))
			return
		}
		op, _, ok := object.LookupBinary(stmt.Op)
		if !ok {
			c.report(errors.Unsupported("operator "+stmt.Op, stmt.Pos))
			return
		}
		c.augAssign(s, stmt.Targets[0], op, stmt.Values[0])
	}
}

func (c *Compiler) tuple(s *scope, exprs []*grammar.Expr) *ir.Value {
	elems := make([]*ir.Value, len(exprs))
	for i, e := range exprs {
		elems[i] = c.expr(s, e)
	}
	return s.b.Build(ir.BuildTuple, elems, false)
}

// assign stores v into a target expression: a name, an attribute, a
// subscript, or a parenthesized or bracketed list of targets.
func (c *Compiler) assign(s *scope, target *grammar.Expr, v *ir.Value) {
	p := asPostfix(target)
	if p == nil {
		c.report(errors.InvalidTarget("an expression", target.Pos))
		return
	}

	if len(p.Suffixes) == 0 {
		switch prim := p.Primary; {
		case prim.Name != nil:
			s.store(*prim.Name, v)
		case prim.Paren != nil && prim.Paren.First != nil && (prim.Paren.Comma || len(prim.Paren.Rest) > 0):
			c.assignAll(s, append([]*grammar.Expr{prim.Paren.First}, prim.Paren.Rest...), v)
		case prim.Paren != nil && prim.Paren.First != nil:
			c.assign(s, prim.Paren.First, v)
		case prim.List != nil && prim.List.First != nil && prim.List.Comp == nil:
			c.assignAll(s, append([]*grammar.Expr{prim.List.First}, prim.List.Rest...), v)
		default:
			c.report(errors.InvalidTarget("a literal", target.Pos))
		}
		return
	}

	obj := c.postfixPrefix(s, p)
	switch last := p.Suffixes[len(p.Suffixes)-1]; {
	case last.Attr != "":
		s.b.Emit(&ir.SetAttr{Object: obj, Name: last.Attr, Value: v})
	case last.Index != nil:
		s.b.Emit(&ir.SetItem{Object: obj, Key: c.expr(s, last.Index), Value: v})
	default:
		c.report(errors.InvalidTarget("a function call", last.Pos))
	}
}

func (c *Compiler) assignAll(s *scope, targets []*grammar.Expr, v *ir.Value) {
	for i, part := range s.b.Unpack(v, len(targets)) {
		c.assign(s, targets[i], part)
	}
}

// augAssign evaluates the target's object and key once, applies the
// in-place operator and stores the result back.
func (c *Compiler) augAssign(s *scope, target *grammar.Expr, op object.BinaryOp, value *grammar.Expr) {
	p := asPostfix(target)
	if p == nil {
		c.report(errors.InvalidTarget("an expression", target.Pos))
		return
	}

	if len(p.Suffixes) == 0 {
		if p.Primary.Name == nil {
			c.report(errors.InvalidTarget("a literal", target.Pos))
			return
		}
		name := *p.Primary.Name
		cur := s.load(name)
		s.store(name, s.b.BinOp(op, true, cur, c.expr(s, value)))
		return
	}

	obj := c.postfixPrefix(s, p)
	switch last := p.Suffixes[len(p.Suffixes)-1]; {
	case last.Attr != "":
		cur := s.b.GetAttr(obj, last.Attr)
		res := s.b.BinOp(op, true, cur, c.expr(s, value))
		s.b.Emit(&ir.SetAttr{Object: obj, Name: last.Attr, Value: res})
	case last.Index != nil:
		key := c.expr(s, last.Index)
		cur := s.b.GetItem(obj, key)
		res := s.b.BinOp(op, true, cur, c.expr(s, value))
		s.b.Emit(&ir.SetItem{Object: obj, Key: key, Value: res})
	default:
		c.report(errors.InvalidTarget("a function call", last.Pos))
	}
}

// dottedName loads an exception class named in an except clause.
func (c *Compiler) dottedName(s *scope, name *grammar.DottedName) *ir.Value {
	v := s.load(name.Parts[0])
	for _, attr := range name.Parts[1:] {
		v = s.b.GetAttr(v, attr)
	}
	return v
}
