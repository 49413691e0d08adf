package ast

import (
	"strings"

	"github.com/funvibe/regionck/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
}

// Item is a top-level declaration.
type Item interface {
	Node
	itemNode()
}

// Statement is a Node inside a function or closure body.
type Statement interface {
	Node
	statementNode()
}

// Expression is a call argument.
type Expression interface {
	Node
	expressionNode()
}

// TypeExpr is a written type.
type TypeExpr interface {
	Node
	typeNode()
	String() string
}

// Bound is the right-hand side of a where-predicate.
type Bound interface {
	Node
	boundNode()
	String() string
}

// Program is the root node of every AST our parser produces.
type Program struct {
	File  string
	Items []Item
}

func (p *Program) TokenLiteral() string {
	if len(p.Items) > 0 {
		return p.Items[0].TokenLiteral()
	}
	return ""
}

func (p *Program) GetToken() token.Token {
	if len(p.Items) > 0 {
		return p.Items[0].GetToken()
	}
	return token.Token{}
}

// Functions returns the function declarations in source order.
func (p *Program) Functions() []*FnDecl {
	var fns []*FnDecl
	for _, item := range p.Items {
		if fn, ok := item.(*FnDecl); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token { return i.Token }

// Lifetime is a written region name such as 'a or 'static.
type Lifetime struct {
	Token token.Token
	Name  string // includes the leading quote
}

func (l *Lifetime) TokenLiteral() string  { return l.Token.Lexeme }
func (l *Lifetime) GetToken() token.Token { return l.Token }

// Attribute is #[name].
type Attribute struct {
	Token token.Token // the '#' token
	Name  string
}

func (a *Attribute) TokenLiteral() string  { return a.Token.Lexeme }
func (a *Attribute) GetToken() token.Token { return a.Token }

// TraitDecl declares a trait and its lifetime parameters.
// trait Trait<'a>;
type TraitDecl struct {
	Token     token.Token // the 'trait' token
	Name      *Identifier
	Lifetimes []*Lifetime
}

func (t *TraitDecl) itemNode()             {}
func (t *TraitDecl) TokenLiteral() string  { return t.Token.Lexeme }
func (t *TraitDecl) GetToken() token.Token { return t.Token }

// GenericParam is either a lifetime parameter or a type parameter.
type GenericParam struct {
	Token      token.Token
	Name       string
	IsLifetime bool
}

// Param is `name: Type`. Type is nil for an unannotated closure parameter.
type Param struct {
	Token token.Token
	Name  *Identifier
	Type  TypeExpr
}

// FnDecl is a function signature with an optional body.
// fn supply<'a, T>(value: T) where T: Trait<'a> { ... }
type FnDecl struct {
	Token    token.Token // the 'fn' token
	Attrs    []*Attribute
	Name     *Identifier
	Generics []*GenericParam
	Params   []*Param
	Where    []*Predicate
	Body     *Block // nil for a bodiless signature
}

func (f *FnDecl) itemNode()             {}
func (f *FnDecl) TokenLiteral() string  { return f.Token.Lexeme }
func (f *FnDecl) GetToken() token.Token { return f.Token }

// HasAttr reports whether #[name] is attached to the function.
func (f *FnDecl) HasAttr(name string) bool {
	for _, a := range f.Attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Lifetimes returns the declared lifetime parameter names in order.
func (f *FnDecl) Lifetimes() []string {
	var names []string
	for _, g := range f.Generics {
		if g.IsLifetime {
			names = append(names, g.Name)
		}
	}
	return names
}

// TypeParams returns the declared type parameter names in order.
func (f *FnDecl) TypeParams() []string {
	var names []string
	for _, g := range f.Generics {
		if !g.IsLifetime {
			names = append(names, g.Name)
		}
	}
	return names
}

// Predicate is one where-clause entry or the operand of `require`.
// Exactly one of SubjectType and SubjectLifetime is set.
type Predicate struct {
	Token           token.Token
	SubjectType     *Identifier
	SubjectLifetime *Lifetime
	Bounds          []Bound
}

func (p *Predicate) TokenLiteral() string  { return p.Token.Lexeme }
func (p *Predicate) GetToken() token.Token { return p.Token }

func (p *Predicate) Subject() string {
	if p.SubjectLifetime != nil {
		return p.SubjectLifetime.Name
	}
	if p.SubjectType != nil {
		return p.SubjectType.Value
	}
	return ""
}

func (p *Predicate) String() string {
	bounds := make([]string, len(p.Bounds))
	for i, b := range p.Bounds {
		bounds[i] = b.String()
	}
	return p.Subject() + ": " + strings.Join(bounds, " + ")
}

// LifetimeBound is `'a` on the right of a predicate.
type LifetimeBound struct {
	Lifetime *Lifetime
}

func (b *LifetimeBound) boundNode()            {}
func (b *LifetimeBound) TokenLiteral() string  { return b.Lifetime.Token.Lexeme }
func (b *LifetimeBound) GetToken() token.Token { return b.Lifetime.Token }
func (b *LifetimeBound) String() string        { return b.Lifetime.Name }

// TraitBound is `Trait<'a, 'b>` or, with Sugar set, `FnOnce(T, U)`.
type TraitBound struct {
	Token     token.Token
	Name      string
	Lifetimes []*Lifetime
	Sugar     bool
	Inputs    []TypeExpr
}

func (b *TraitBound) boundNode()            {}
func (b *TraitBound) TokenLiteral() string  { return b.Token.Lexeme }
func (b *TraitBound) GetToken() token.Token { return b.Token }

func (b *TraitBound) String() string {
	if b.Sugar {
		inputs := make([]string, len(b.Inputs))
		for i, in := range b.Inputs {
			inputs[i] = in.String()
		}
		return b.Name + "(" + strings.Join(inputs, ", ") + ")"
	}
	if len(b.Lifetimes) == 0 {
		return b.Name
	}
	names := make([]string, len(b.Lifetimes))
	for i, l := range b.Lifetimes {
		names[i] = l.Name
	}
	return b.Name + "<" + strings.Join(names, ", ") + ">"
}

// NamedType is a type parameter or a concrete type such as u32.
type NamedType struct {
	Token token.Token
	Name  string
}

func (t *NamedType) typeNode()             {}
func (t *NamedType) TokenLiteral() string  { return t.Token.Lexeme }
func (t *NamedType) GetToken() token.Token { return t.Token }
func (t *NamedType) String() string        { return t.Name }

// RefType is `&'a T`; Lifetime is nil when elided.
type RefType struct {
	Token    token.Token // the '&' token
	Lifetime *Lifetime
	Elem     TypeExpr
}

func (t *RefType) typeNode()             {}
func (t *RefType) TokenLiteral() string  { return t.Token.Lexeme }
func (t *RefType) GetToken() token.Token { return t.Token }

func (t *RefType) String() string {
	if t.Lifetime == nil {
		return "&" + t.Elem.String()
	}
	return "&" + t.Lifetime.Name + " " + t.Elem.String()
}

// Block is `{ statements }`.
type Block struct {
	Token      token.Token
	Statements []Statement
}

func (b *Block) TokenLiteral() string  { return b.Token.Lexeme }
func (b *Block) GetToken() token.Token { return b.Token }

// CallStatement is `callee(args);`.
type CallStatement struct {
	Token  token.Token // the callee identifier token
	Callee *Identifier
	Args   []Expression
}

func (c *CallStatement) statementNode()        {}
func (c *CallStatement) TokenLiteral() string  { return c.Token.Lexeme }
func (c *CallStatement) GetToken() token.Token { return c.Token }

// RequireStatement is `require T: 'a;`, an explicit outlives use.
type RequireStatement struct {
	Token     token.Token
	Predicate *Predicate
}

func (r *RequireStatement) statementNode()        {}
func (r *RequireStatement) TokenLiteral() string  { return r.Token.Lexeme }
func (r *RequireStatement) GetToken() token.Token { return r.Token }

// ClosureExpr is `FnOnce |x: T| { ... }`; Kind is empty when not written.
type ClosureExpr struct {
	Token  token.Token // the kind if written, else the opening '|'
	Kind   string
	Params []*Param
	Body   *Block
}

func (c *ClosureExpr) expressionNode()       {}
func (c *ClosureExpr) TokenLiteral() string  { return c.Token.Lexeme }
func (c *ClosureExpr) GetToken() token.Token { return c.Token }
