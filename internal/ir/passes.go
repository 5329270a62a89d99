package ir

import (
	"github.com/tliron/commonlog"

	"lazy/internal/util/errwrap"
)

var log = commonlog.GetLogger("lazy.ir")

// Pass is one transformation over a program.
type Pass interface {
	Name() string
	Description() string
	// Apply transforms program in place and reports whether it changed.
	Apply(program *Program) (bool, error)
}

// Pipeline runs passes in order, verifying the program after each one that
// reports a change.
type Pipeline struct {
	passes []Pass
	verify bool
}

func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes, verify: true}
}

// DefaultPipeline holds the cleanups every compiled program goes through.
func DefaultPipeline() *Pipeline {
	return NewPipeline(&RemoveUnreachable{})
}

func (p *Pipeline) AddPass(pass Pass) {
	p.passes = append(p.passes, pass)
}

// SkipVerify disables the verification between passes.
func (p *Pipeline) SkipVerify() *Pipeline {
	p.verify = false
	return p
}

func (p *Pipeline) Passes() []Pass {
	return p.passes
}

func (p *Pipeline) Run(program *Program) error {
	log.Debugf("running %d passes on %s", len(p.passes), program.Filename)
	for _, pass := range p.passes {
		changed, err := pass.Apply(program)
		if err != nil {
			return errwrap.Wrapf(err, "pass %s", pass.Name())
		}
		if !changed {
			log.Debugf("%s: no changes", pass.Name())
			continue
		}
		log.Infof("%s: applied to %s", pass.Name(), program.Filename)
		if p.verify {
			if err := Verify(program.Main); err != nil {
				return errwrap.Wrapf(err, "after pass %s", pass.Name())
			}
		}
	}
	return nil
}

// RemoveUnreachable drops blocks that cannot be reached from the entry
// block, in every function of the program.
type RemoveUnreachable struct{}

func (*RemoveUnreachable) Name() string { return "remove-unreachable" }

func (*RemoveUnreachable) Description() string {
	return "Removes basic blocks that no path from the entry block reaches"
}

func (r *RemoveUnreachable) Apply(program *Program) (bool, error) {
	changed := r.applyFunction(program.Main)
	for _, fn := range program.Main.Nested() {
		if r.applyFunction(fn) {
			changed = true
		}
	}
	return changed, nil
}

func (*RemoveUnreachable) applyFunction(fn *Function) bool {
	reachable := Reachable(fn)
	if len(reachable) == len(fn.Blocks) {
		return false
	}
	kept := fn.Blocks[:0]
	for _, b := range fn.Blocks {
		if reachable[b] {
			kept = append(kept, b)
		}
	}
	fn.Blocks = kept
	return true
}

// Reachable returns the set of blocks reachable from fn's entry block.
func Reachable(fn *Function) map[*BasicBlock]bool {
	seen := make(map[*BasicBlock]bool)
	entry := fn.Entry()
	if entry == nil {
		return seen
	}
	stack := []*BasicBlock{entry}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[b] {
			continue
		}
		seen[b] = true
		stack = append(stack, b.Successors()...)
	}
	return seen
}
