package ir

import (
	"fmt"
	"strings"
)

// Printer provides pretty-printing for IR
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer {
	return &Printer{}
}

// Print returns the text form of a program: the module body followed by
// every nested function.
func Print(program *Program) string {
	p := NewPrinter()
	p.writeLine("; %s", program.Filename)
	p.printFunctionTree(program.Main)
	return p.output.String()
}

// PrintFunction returns the text form of fn and the functions nested in it.
func PrintFunction(fn *Function) string {
	p := NewPrinter()
	p.printFunctionTree(fn)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printFunctionTree(fn *Function) {
	p.printFunction(fn)
	for _, c := range fn.Consts {
		if c.Func != nil {
			p.writeLine("")
			p.printFunctionTree(c.Func)
		}
	}
}

func (p *Printer) printFunction(fn *Function) {
	params := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = param.String()
	}

	var metadata []string
	if fn.Module {
		metadata = append(metadata, "module")
	}
	if fn.Lazy {
		kind := "thunk"
		if fn.LazyKind != nil {
			kind = fn.LazyKind.Name()
		}
		metadata = append(metadata, "lazy("+kind+")")
	}

	sig := fmt.Sprintf("function %s(%s)", fn.Name, strings.Join(params, ", "))
	if len(metadata) > 0 {
		sig += " [" + strings.Join(metadata, ", ") + "]"
	}
	p.writeLine("%s {", sig)

	if len(fn.Consts) > 0 {
		p.writeLine("consts:")
		p.indent++
		for i, c := range fn.Consts {
			p.writeLine("[%d] %s", i, c)
		}
		p.indent--
	}

	for _, block := range fn.Blocks {
		p.printBasicBlock(fn, block)
	}
	p.writeLine("}")
}

func (p *Printer) printBasicBlock(fn *Function, block *BasicBlock) {
	if block.Handler != nil {
		p.writeLine("%s: ; handler %s", block.Label, block.Handler.Label)
	} else {
		p.writeLine("%s:", block.Label)
	}

	p.indent++
	for _, inst := range block.Instructions {
		p.printInstruction(fn, inst)
	}
	if block.Terminator != nil {
		p.writeLine("%s", block.Terminator)
	} else {
		p.writeLine("<unterminated>")
	}
	p.indent--
}

// printInstruction annotates constant loads with the pool entry.
func (p *Printer) printInstruction(fn *Function, inst Instruction) {
	if c, ok := inst.(*Const); ok && c.Index >= 0 && c.Index < len(fn.Consts) {
		p.writeLine("%s ; %s", c, fn.Consts[c.Index])
		return
	}
	if m, ok := inst.(*MakeFunction); ok && m.Index >= 0 && m.Index < len(fn.Consts) {
		p.writeLine("%s ; %s", m, fn.Consts[m.Index])
		return
	}
	p.writeLine("%s", inst)
}
