package prettyprinter

import (
	"bytes"
	"strings"

	"github.com/funvibe/regionck/internal/ast"
)

// --- Code Printer (output looks like source code) ---

// CodePrinter prints a program back in canonical .rgn layout: four-space
// indent, one item per paragraph, where-clauses on their own lines when a
// signature gets longer than the line width.
type CodePrinter struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int // max line width (0 = unlimited)
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{lineWidth: 100}
}

func NewCodePrinterWithWidth(width int) *CodePrinter {
	return &CodePrinter{lineWidth: width}
}

func (p *CodePrinter) SetLineWidth(width int) {
	p.lineWidth = width
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
}

func (p *CodePrinter) writeIndent() {
	p.buf.WriteString(strings.Repeat("    ", p.indent))
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

// PrintProgram formats a whole program.
func PrintProgram(program *ast.Program) string {
	p := NewCodePrinter()
	p.Program(program)
	return p.String()
}

func (p *CodePrinter) Program(program *ast.Program) {
	for i, item := range program.Items {
		if i > 0 {
			p.writeln()
		}
		switch it := item.(type) {
		case *ast.TraitDecl:
			p.trait(it)
		case *ast.FnDecl:
			p.fn(it)
		}
	}
}

func (p *CodePrinter) trait(t *ast.TraitDecl) {
	p.write("trait " + t.Name.Value)
	if len(t.Lifetimes) > 0 {
		names := make([]string, len(t.Lifetimes))
		for i, l := range t.Lifetimes {
			names[i] = l.Name
		}
		p.write("<" + strings.Join(names, ", ") + ">")
	}
	p.write(";")
	p.writeln()
}

func (p *CodePrinter) fn(fn *ast.FnDecl) {
	for _, attr := range fn.Attrs {
		p.write("#[" + attr.Name + "]")
		p.writeln()
	}

	var sig strings.Builder
	sig.WriteString("fn " + fn.Name.Value)
	if len(fn.Generics) > 0 {
		names := make([]string, len(fn.Generics))
		for i, g := range fn.Generics {
			names[i] = g.Name
		}
		sig.WriteString("<" + strings.Join(names, ", ") + ">")
	}
	params := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = paramString(param)
	}
	sig.WriteString("(" + strings.Join(params, ", ") + ")")

	preds := make([]string, len(fn.Where))
	for i, pred := range fn.Where {
		preds[i] = pred.String()
	}

	inline := sig.String()
	if len(preds) > 0 {
		inline += " where " + strings.Join(preds, ", ")
	}

	if p.lineWidth == 0 || len(inline)+2 <= p.lineWidth {
		p.write(inline)
	} else {
		// Long signatures break the where-clause out, one predicate per line.
		p.write(sig.String())
		p.writeln()
		p.write("where")
		p.indent++
		for _, pred := range preds {
			p.writeln()
			p.writeIndent()
			p.write(pred + ",")
		}
		p.indent--
		p.writeln()
		if fn.Body == nil {
			p.write(";")
			p.writeln()
			return
		}
		p.block(fn.Body)
		p.writeln()
		return
	}

	if fn.Body == nil {
		p.write(";")
		p.writeln()
		return
	}
	p.write(" ")
	p.block(fn.Body)
	p.writeln()
}

func (p *CodePrinter) block(b *ast.Block) {
	if len(b.Statements) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	p.indent++
	for _, stmt := range b.Statements {
		p.writeln()
		p.writeIndent()
		p.statement(stmt)
	}
	p.indent--
	p.writeln()
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) statement(stmt ast.Statement) {
	switch st := stmt.(type) {
	case *ast.RequireStatement:
		p.write("require " + st.Predicate.String() + ";")
	case *ast.CallStatement:
		p.write(st.Callee.Value + "(")
		for i, arg := range st.Args {
			if i > 0 {
				p.write(", ")
			}
			p.argument(arg)
		}
		p.write(");")
	}
}

func (p *CodePrinter) argument(arg ast.Expression) {
	switch a := arg.(type) {
	case *ast.Identifier:
		p.write(a.Value)
	case *ast.ClosureExpr:
		if a.Kind != "" {
			p.write(a.Kind + " ")
		}
		params := make([]string, len(a.Params))
		for i, param := range a.Params {
			params[i] = paramString(param)
		}
		p.write("|" + strings.Join(params, ", ") + "| ")
		p.block(a.Body)
	}
}

func paramString(param *ast.Param) string {
	if param.Type == nil {
		return param.Name.Value
	}
	return param.Name.Value + ": " + param.Type.String()
}
