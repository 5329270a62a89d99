// Package compiler lowers lz parse trees into IR.
//
// Names bound in a function body are locals, names bound in an enclosing
// function are read through load_free, and everything else is global. At
// module level user names are globals; compiler temporaries and
// comprehension variables always live in the frame's locals.
package compiler

import (
	"github.com/tliron/commonlog"

	"lazy/internal/errors"
	"lazy/internal/grammar"
	"lazy/internal/ir"
	"lazy/internal/object"
	"lazy/internal/util/errwrap"
)

var log = commonlog.GetLogger("lazy.compiler")

// Mode selects what a source unit is.
type Mode string

const (
	// ModeExec compiles statements. The module body returns None.
	ModeExec Mode = "exec"
	// ModeEval compiles a single expression and returns its value.
	ModeEval Mode = "eval"
)

type Options struct {
	// Modules lists the importable module names. When set, imports of
	// other names are reported as errors.
	Modules []string
}

// Compiler lowers one source unit. Errors are accumulated so that a single
// run reports every problem it can find.
type Compiler struct {
	filename string
	options  Options
	err      error
	warnings []errors.CompilerError
}

func New(filename string, options Options) *Compiler {
	return &Compiler{filename: filename, options: options}
}

// Compile parses and compiles source in the given mode.
func Compile(filename, source string, mode Mode, options Options) (*ir.Program, error) {
	c := New(filename, options)
	switch mode {
	case ModeExec:
		program, err := grammar.Parse(filename, source)
		if err != nil {
			return nil, syntaxError(err)
		}
		return c.Program(program)
	case ModeEval:
		expr, err := grammar.ParseExpr(filename, source)
		if err != nil {
			return nil, syntaxError(err)
		}
		return c.Expr(expr)
	}
	return nil, errwrap.Wrapf(errors.Unsupported("mode "+string(mode), lexerPos(filename)), "compile")
}

func syntaxError(err error) error {
	if d, ok := errors.FromParseError(err); ok {
		return d
	}
	return err
}

// Warnings returns the warnings of the last compilation.
func (c *Compiler) Warnings() []errors.CompilerError {
	return c.warnings
}

// Program compiles a module.
func (c *Compiler) Program(program *grammar.Program) (*ir.Program, error) {
	main := ir.NewFunction("<module>")
	main.Module = true
	s := newScope(nil, main)
	c.statements(s, program.Statements)
	if !s.b.Terminated() {
		s.b.Return(c.constant(s, object.None))
	}
	return c.finish(main)
}

// Expr compiles a single expression as a module returning its value.
func (c *Compiler) Expr(expr *grammar.Expr) (*ir.Program, error) {
	main := ir.NewFunction("<module>")
	main.Module = true
	s := newScope(nil, main)
	s.b.Return(c.expr(s, expr))
	return c.finish(main)
}

func (c *Compiler) finish(main *ir.Function) (*ir.Program, error) {
	if c.err != nil {
		return nil, c.err
	}
	program := &ir.Program{Filename: c.filename, Main: main}
	if err := ir.DefaultPipeline().Run(program); err != nil {
		return nil, err
	}
	log.Debugf("compiled %s: %d nested functions", c.filename, len(main.Nested()))
	return program, nil
}

func (c *Compiler) report(err errors.CompilerError) {
	if err.Level == errors.Warning {
		c.warnings = append(c.warnings, err)
		return
	}
	c.err = errwrap.Append(c.err, err)
}

// constant returns a register holding v, sharing pool slots between equal
// constants of the same type.
func (c *Compiler) constant(s *scope, v object.Object) *ir.Value {
	key := string(v.Type()) + ":" + v.String()
	idx, ok := s.consts[key]
	if !ok {
		idx = s.fn.AddConst(&ir.Constant{Value: v})
		s.consts[key] = idx
	}
	return s.b.Const(idx)
}

func (c *Compiler) statements(s *scope, stmts []*grammar.Statement) {
	warned := false
	for _, stmt := range stmts {
		if s.b.Terminated() {
			if !warned {
				c.report(errors.UnreachableCode(stmt.Pos))
				warned = true
			}
			s.b.SetBlock(s.b.NewBlock(""))
		}
		c.statement(s, stmt)
	}
}

func (c *Compiler) block(s *scope, block *grammar.Block) {
	if block != nil {
		c.statements(s, block.Statements)
	}
}

// jump closes the current block with a jump unless it is already closed.
func jump(s *scope, target *ir.BasicBlock) {
	if !s.b.Terminated() {
		s.b.Jump(target)
	}
}

func (c *Compiler) statement(s *scope, stmt *grammar.Statement) {
	switch {
	case stmt.Def != nil:
		c.funcDef(s, stmt.Def)
	case stmt.If != nil:
		c.ifStmt(s, stmt.If)
	case stmt.While != nil:
		c.whileStmt(s, stmt.While)
	case stmt.For != nil:
		c.forStmt(s, stmt.For)
	case stmt.Try != nil:
		c.tryStmt(s, stmt.Try)
	case stmt.With != nil:
		c.withStmt(s, stmt.With)
	case stmt.Simple != nil:
		c.simpleStmt(s, stmt.Simple)
	}
}

func (c *Compiler) funcDef(s *scope, def *grammar.FuncDef) {
	fn := c.function(s, def.Name, def.Params, func(inner *scope) {
		inner.collectLocals(def.Body.Statements)
		c.block(inner, def.Body)
		if !inner.b.Terminated() {
			inner.b.Return(c.constant(inner, object.None))
		}
	})
	s.store(def.Name, fn)
}

// function compiles a nested function and returns the register holding
// the closure. Defaults are evaluated in the enclosing scope.
func (c *Compiler) function(s *scope, name string, params []*grammar.Param, body func(inner *scope)) *ir.Value {
	fn := ir.NewFunction(name)
	fn.Params = c.params(params)

	var defaults []*ir.Value
	for _, p := range params {
		if p.Default != nil {
			defaults = append(defaults, c.expr(s, p.Default))
		}
	}

	inner := newScope(s, fn)
	for _, p := range fn.Params {
		inner.locals[p.Name] = true
	}
	body(inner)

	slot := s.fn.AddConst(&ir.Constant{Func: fn})
	return s.b.MakeFunction(slot, defaults)
}

func (c *Compiler) params(params []*grammar.Param) []*ir.Parameter {
	var out []*ir.Parameter
	seen := make(map[string]bool)
	sawDefault, sawVarArgs, sawKwArgs := false, false, false

	for _, p := range params {
		if seen[p.Name] {
			c.report(errors.DuplicateParameter(p.Name, p.Pos))
		}
		seen[p.Name] = true
		if sawKwArgs {
			c.report(errors.Unsupported("a parameter after **"+p.Name, p.Pos))
		}

		param := &ir.Parameter{Name: p.Name, HasDefault: p.Default != nil}
		switch p.Star {
		case "*":
			param.Kind = ir.ParamVarArgs
			if sawVarArgs {
				c.report(errors.Unsupported("a second * parameter", p.Pos))
			}
			sawVarArgs = true
		case "**":
			param.Kind = ir.ParamKwArgs
			sawKwArgs = true
		default:
			if sawVarArgs {
				c.report(errors.Unsupported("a keyword-only parameter", p.Pos))
			}
			if param.HasDefault {
				sawDefault = true
			} else if sawDefault {
				c.report(errors.ParameterOrder(p.Name, p.Pos))
			}
		}
		if p.Star != "" && p.Default != nil {
			c.report(errors.Unsupported("a default for a starred parameter", p.Pos))
		}
		out = append(out, param)
	}
	return out
}

func (c *Compiler) ifStmt(s *scope, stmt *grammar.IfStmt) {
	after := s.b.NewBlock("")
	c.conditional(s, stmt.Cond, stmt.Body, after)
	for _, elif := range stmt.Elifs {
		c.conditional(s, elif.Cond, elif.Body, after)
	}
	c.block(s, stmt.Else)
	jump(s, after)
	s.b.SetBlock(after)
}

// conditional compiles `if cond body` and leaves the builder in the block
// that runs when cond is false.
func (c *Compiler) conditional(s *scope, cond *grammar.Expr, body *grammar.Block, after *ir.BasicBlock) {
	v := c.expr(s, cond)
	then, next := s.b.NewBlock(""), s.b.NewBlock("")
	s.b.Branch(v, then, next)

	s.b.SetBlock(then)
	c.block(s, body)
	jump(s, after)
	s.b.SetBlock(next)
}

func (c *Compiler) whileStmt(s *scope, stmt *grammar.WhileStmt) {
	header, body, after := s.b.NewBlock(""), s.b.NewBlock(""), s.b.NewBlock("")
	s.b.Jump(header)

	s.b.SetBlock(header)
	s.b.Branch(c.expr(s, stmt.Cond), body, after)

	s.b.SetBlock(body)
	c.loopBody(s, stmt.Body, header, after)
	s.b.SetBlock(after)
}

func (c *Compiler) forStmt(s *scope, stmt *grammar.ForStmt) {
	it := s.b.GetIter(c.expr(s, stmt.Iter))
	header, body, after := s.b.NewBlock(""), s.b.NewBlock(""), s.b.NewBlock("")
	s.b.Jump(header)

	s.b.SetBlock(header)
	item := s.b.ForIter(it, body, after)

	s.b.SetBlock(body)
	c.bindNames(s, stmt.Targets, item)
	c.loopBody(s, stmt.Body, header, after)
	s.b.SetBlock(after)
}

func (c *Compiler) loopBody(s *scope, body *grammar.Block, continueTo, breakTo *ir.BasicBlock) {
	s.loops = append(s.loops, loop{continueTo: continueTo, breakTo: breakTo, withDepth: len(s.withs)})
	c.block(s, body)
	s.loops = s.loops[:len(s.loops)-1]
	jump(s, continueTo)
}

// bindNames stores v into one name, or unpacks it into several.
func (c *Compiler) bindNames(s *scope, names []string, v *ir.Value) {
	if len(names) == 1 {
		s.store(names[0], v)
		return
	}
	for i, part := range s.b.Unpack(v, len(names)) {
		s.store(names[i], part)
	}
}

// tryStmt lowers try/except. The body's blocks hand exceptions to a
// dispatch block that tests each clause in order and re-raises when none
// matches.
func (c *Compiler) tryStmt(s *scope, stmt *grammar.TryStmt) {
	dispatch := s.b.NewBlock("except")
	after := s.b.NewBlock("")

	saved := s.b.Handler
	s.b.Handler = dispatch
	body := s.b.NewBlock("")
	s.b.Jump(body)
	s.b.SetBlock(body)
	c.block(s, stmt.Body)
	s.b.Handler = saved
	jump(s, after)

	s.b.SetBlock(dispatch)
	exc := s.b.CurrentException()
	unmatched := dispatch
	for _, h := range stmt.Handlers {
		if unmatched == nil {
			c.report(errors.UnreachableCode(h.Pos))
			break
		}
		s.b.SetBlock(unmatched)
		clause := s.b.NewBlock("")
		if h.Type == nil {
			s.b.Jump(clause)
			unmatched = nil
		} else {
			unmatched = s.b.NewBlock("")
			s.b.Branch(s.b.MatchException(exc, c.dottedName(s, h.Type)), clause, unmatched)
		}

		s.b.SetBlock(clause)
		if h.Name != "" {
			s.store(h.Name, exc)
		}
		s.excs = append(s.excs, exc)
		c.block(s, h.Body)
		s.excs = s.excs[:len(s.excs)-1]
		jump(s, after)
	}
	if unmatched != nil {
		s.b.SetBlock(unmatched)
		s.b.Raise(exc)
	}
	s.b.SetBlock(after)
}
