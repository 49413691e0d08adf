package lexer

import (
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/pipeline"
	"github.com/funvibe/regionck/internal/token"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	tokens := New(ctx.SourceCode).Tokenize()
	for _, tok := range tokens {
		if tok.Type == token.ILLEGAL {
			ctx.AddError(diagnostics.NewError(diagnostics.ErrP002, tok, "`"+tok.Lexeme+"`"))
		}
	}
	ctx.TokenStream = tokens
	return ctx
}
