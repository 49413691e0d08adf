package parser

import (
	"github.com/funvibe/regionck/internal/ast"
	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/token"
)

// trait Trait<'a, 'b>;
func (p *Parser) parseTraitDecl() *ast.TraitDecl {
	decl := &ast.TraitDecl{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if p.peekTokenIs(token.LT) {
		p.nextToken() // consume <
		for {
			if !p.peekTokenIs(token.LIFETIME) {
				p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP003, p.peekToken, "traits take only lifetime parameters"))
				return nil
			}
			p.nextToken()
			decl.Lifetimes = append(decl.Lifetimes, &ast.Lifetime{Token: p.curToken, Name: p.curToken.Lexeme})
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken() // consume ,
		}
		if !p.expectPeek(token.GT) {
			return nil
		}
	}

	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return decl
}

// fn name<generics>(params) where preds { body }
// fn name<generics>(params) where preds;
func (p *Parser) parseFnDecl() *ast.FnDecl {
	fn := &ast.FnDecl{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	fn.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if p.peekTokenIs(token.LT) {
		p.nextToken() // consume <
		generics, ok := p.parseGenerics()
		if !ok {
			return nil
		}
		fn.Generics = generics
	}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseParamList(token.RPAREN, true)
	if !ok {
		return nil
	}
	fn.Params = params

	if p.peekTokenIs(token.WHERE) {
		p.nextToken() // consume where
		preds, ok := p.parseWhereClause()
		if !ok {
			return nil
		}
		fn.Where = preds
	}

	switch {
	case p.peekTokenIs(token.SEMICOLON):
		p.nextToken()
	case p.peekTokenIs(token.LBRACE):
		p.nextToken()
		fn.Body = p.parseBlock()
		if fn.Body == nil {
			return nil
		}
	default:
		p.ctx.AddError(diagnostics.NewError(
			diagnostics.ErrP006,
			p.peekToken,
			"expected `{` or `;` after function signature, found `"+describe(p.peekToken)+"`",
		))
		return nil
	}

	return fn
}

// parseGenerics expects curToken to be '<' and stops on the matching '>'.
func (p *Parser) parseGenerics() ([]*ast.GenericParam, bool) {
	var generics []*ast.GenericParam
	seenType := false

	for !p.peekTokenIs(token.GT) {
		p.nextToken()
		switch p.curToken.Type {
		case token.LIFETIME:
			if seenType {
				p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP003, p.curToken, "lifetime parameters must be declared prior to type parameters"))
				return nil, false
			}
			if p.curToken.Lexeme == config.StaticLifetime {
				p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP003, p.curToken, "'static is a reserved lifetime name"))
				return nil, false
			}
			generics = append(generics, &ast.GenericParam{Token: p.curToken, Name: p.curToken.Lexeme, IsLifetime: true})
		case token.IDENT:
			seenType = true
			generics = append(generics, &ast.GenericParam{Token: p.curToken, Name: p.curToken.Lexeme})
		default:
			p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP003, p.curToken, "unexpected `"+describe(p.curToken)+"`"))
			return nil, false
		}

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else if !p.peekTokenIs(token.GT) {
			p.peekError(token.GT)
			return nil, false
		}
	}
	p.nextToken() // consume >

	return generics, true
}

// parseParamList expects curToken to be the opening delimiter and stops on
// closing. requireTypes is false for closure parameters.
func (p *Parser) parseParamList(closing token.TokenType, requireTypes bool) ([]*ast.Param, bool) {
	var params []*ast.Param

	for !p.peekTokenIs(closing) {
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		param := &ast.Param{Token: p.curToken, Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}}

		if p.peekTokenIs(token.COLON) {
			p.nextToken() // consume :
			p.nextToken()
			param.Type = p.parseType()
			if param.Type == nil {
				return nil, false
			}
		} else if requireTypes {
			p.peekError(token.COLON)
			return nil, false
		}
		params = append(params, param)

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else if !p.peekTokenIs(closing) {
			p.peekError(closing)
			return nil, false
		}
	}
	p.nextToken() // consume closing

	return params, true
}

// parseType starts on the first token of the type.
func (p *Parser) parseType() ast.TypeExpr {
	switch p.curToken.Type {
	case token.AMP:
		ref := &ast.RefType{Token: p.curToken}
		if p.peekTokenIs(token.LIFETIME) {
			p.nextToken()
			ref.Lifetime = &ast.Lifetime{Token: p.curToken, Name: p.curToken.Lexeme}
		}
		p.nextToken()
		ref.Elem = p.parseType()
		if ref.Elem == nil {
			return nil
		}
		return ref
	case token.IDENT:
		return &ast.NamedType{Token: p.curToken, Name: p.curToken.Lexeme}
	default:
		p.unexpected(p.curToken)
		return nil
	}
}

// parseWhereClause expects curToken to be 'where'. A trailing comma is allowed.
func (p *Parser) parseWhereClause() ([]*ast.Predicate, bool) {
	var preds []*ast.Predicate

	for p.peekTokenIs(token.IDENT) || p.peekTokenIs(token.LIFETIME) {
		p.nextToken()
		pred := p.parsePredicate()
		if pred == nil {
			return nil, false
		}
		preds = append(preds, pred)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if len(preds) == 0 {
		p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP004, p.peekToken, "expected at least one predicate"))
		return nil, false
	}
	return preds, true
}

// parsePredicate starts on the subject: `T: Trait<'a> + 'a` or `'b: 'a`.
func (p *Parser) parsePredicate() *ast.Predicate {
	pred := &ast.Predicate{Token: p.curToken}
	switch p.curToken.Type {
	case token.IDENT:
		pred.SubjectType = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	case token.LIFETIME:
		pred.SubjectLifetime = &ast.Lifetime{Token: p.curToken, Name: p.curToken.Lexeme}
	default:
		p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP004, p.curToken, "expected a type or lifetime, found `"+describe(p.curToken)+"`"))
		return nil
	}

	if !p.expectPeek(token.COLON) {
		return nil
	}

	for {
		p.nextToken()
		bound := p.parseBound()
		if bound == nil {
			return nil
		}
		if pred.SubjectLifetime != nil {
			if _, ok := bound.(*ast.LifetimeBound); !ok {
				p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP004, bound.GetToken(), "lifetime bounds may only name lifetimes"))
				return nil
			}
		}
		pred.Bounds = append(pred.Bounds, bound)

		if !p.peekTokenIs(token.PLUS) {
			break
		}
		p.nextToken() // consume +
	}

	return pred
}

func (p *Parser) parseBound() ast.Bound {
	switch p.curToken.Type {
	case token.LIFETIME:
		return &ast.LifetimeBound{Lifetime: &ast.Lifetime{Token: p.curToken, Name: p.curToken.Lexeme}}
	case token.IDENT:
		bound := &ast.TraitBound{Token: p.curToken, Name: p.curToken.Lexeme}
		switch {
		case p.peekTokenIs(token.LT):
			p.nextToken() // consume <
			for {
				if !p.expectPeek(token.LIFETIME) {
					return nil
				}
				bound.Lifetimes = append(bound.Lifetimes, &ast.Lifetime{Token: p.curToken, Name: p.curToken.Lexeme})
				if !p.peekTokenIs(token.COMMA) {
					break
				}
				p.nextToken()
			}
			if !p.expectPeek(token.GT) {
				return nil
			}
		case p.peekTokenIs(token.LPAREN):
			p.nextToken() // consume (
			bound.Sugar = true
			for !p.peekTokenIs(token.RPAREN) {
				p.nextToken()
				input := p.parseType()
				if input == nil {
					return nil
				}
				bound.Inputs = append(bound.Inputs, input)
				if p.peekTokenIs(token.COMMA) {
					p.nextToken()
				} else if !p.peekTokenIs(token.RPAREN) {
					p.peekError(token.RPAREN)
					return nil
				}
			}
			p.nextToken() // consume )
			// Return types carry no regions we track; accept and drop them.
			if p.peekTokenIs(token.ARROW) {
				p.nextToken()
				p.nextToken()
				if p.parseType() == nil {
					return nil
				}
			}
		}
		return bound
	default:
		p.ctx.AddError(diagnostics.NewError(diagnostics.ErrP004, p.curToken, "expected a bound, found `"+describe(p.curToken)+"`"))
		return nil
	}
}
