package parser

import (
	"github.com/funvibe/regionck/internal/ast"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/pipeline"
	"github.com/funvibe/regionck/internal/token"
)

type Parser struct {
	tokens []token.Token
	pos    int
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token
}

func New(tokens []token.Token, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{tokens: tokens, ctx: ctx}
	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	} else {
		p.peekToken = token.Token{Type: token.EOF, Line: p.curToken.Line, Column: p.curToken.Column}
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// expectPeek advances when the next token has type t and records an error
// otherwise.
func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.TokenType) {
	p.ctx.AddError(diagnostics.NewError(
		diagnostics.ErrP006,
		p.peekToken,
		"expected `"+string(t)+"`, found `"+describe(p.peekToken)+"`",
	))
}

func (p *Parser) unexpected(tok token.Token) {
	p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP001, tok, "`"+describe(tok)+"`"))
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of file"
	}
	return tok.Lexeme
}

// ParseProgram parses items until EOF. After an error it skips to the next
// item keyword so later items still get diagnostics.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}

	for !p.curTokenIs(token.EOF) {
		before := len(p.ctx.Errors)
		item := p.parseItem()
		if item != nil && len(p.ctx.Errors) == before {
			program.Items = append(program.Items, item)
		}
		if len(p.ctx.Errors) > before {
			p.synchronize()
			continue
		}
		p.nextToken()
	}

	return program
}

func (p *Parser) synchronize() {
	for !p.curTokenIs(token.EOF) {
		p.nextToken()
		if p.curTokenIs(token.FN) || p.curTokenIs(token.TRAIT) || p.curTokenIs(token.HASH) {
			return
		}
	}
}

func (p *Parser) parseItem() ast.Item {
	var attrs []*ast.Attribute
	for p.curTokenIs(token.HASH) {
		attr := p.parseAttribute()
		if attr == nil {
			return nil
		}
		attrs = append(attrs, attr)
		p.nextToken()
	}

	switch p.curToken.Type {
	case token.FN:
		fn := p.parseFnDecl()
		if fn != nil {
			fn.Attrs = attrs
		}
		return fn
	case token.TRAIT:
		return p.parseTraitDecl()
	default:
		p.unexpected(p.curToken)
		return nil
	}
}

// #[name]
func (p *Parser) parseAttribute() *ast.Attribute {
	attr := &ast.Attribute{Token: p.curToken}
	if !p.expectPeek(token.LBRACKET) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	attr.Name = p.curToken.Lexeme
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return attr
}
