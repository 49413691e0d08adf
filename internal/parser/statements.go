package parser

import (
	"github.com/funvibe/regionck/internal/ast"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/token"
)

var closureKinds = map[string]bool{
	"Fn":     true,
	"FnMut":  true,
	"FnOnce": true,
}

// parseBlock expects curToken to be '{' and stops on the matching '}'.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Token: p.curToken}

	for !p.peekTokenIs(token.RBRACE) {
		if p.peekTokenIs(token.EOF) {
			p.peekError(token.RBRACE)
			return nil
		}
		p.nextToken()
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.nextToken() // consume }

	return block
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.REQUIRE:
		return p.parseRequireStatement()
	case token.IDENT:
		return p.parseCallStatement()
	default:
		p.unexpected(p.curToken)
		return nil
	}
}

// require T: 'a;
func (p *Parser) parseRequireStatement() *ast.RequireStatement {
	stmt := &ast.RequireStatement{Token: p.curToken}
	p.nextToken()
	stmt.Predicate = p.parsePredicate()
	if stmt.Predicate == nil {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

// callee(arg, |x| { ... });
func (p *Parser) parseCallStatement() *ast.CallStatement {
	stmt := &ast.CallStatement{
		Token:  p.curToken,
		Callee: &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	for !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		arg := p.parseArgument()
		if arg == nil {
			return nil
		}
		stmt.Args = append(stmt.Args, arg)

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else if !p.peekTokenIs(token.RPAREN) {
			p.peekError(token.RPAREN)
			return nil
		}
	}
	p.nextToken() // consume )

	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

func (p *Parser) parseArgument() ast.Expression {
	switch {
	case p.curTokenIs(token.PIPE):
		return p.parseClosure(p.curToken, "")
	case p.curTokenIs(token.IDENT) && closureKinds[p.curToken.Lexeme] && p.peekTokenIs(token.PIPE):
		start := p.curToken
		p.nextToken()
		return p.parseClosure(start, start.Lexeme)
	case p.curTokenIs(token.IDENT):
		return &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	default:
		p.unexpected(p.curToken)
		return nil
	}
}

// parseClosure expects curToken to be the opening '|'.
func (p *Parser) parseClosure(start token.Token, kind string) ast.Expression {
	closure := &ast.ClosureExpr{Token: start, Kind: kind}

	params, ok := p.parseParamList(token.PIPE, false)
	if !ok {
		return nil
	}
	closure.Params = params

	if !p.peekTokenIs(token.LBRACE) {
		p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP005, p.peekToken, "expected `{` to start the closure body"))
		return nil
	}
	p.nextToken()
	closure.Body = p.parseBlock()
	if closure.Body == nil {
		return nil
	}
	return closure
}
