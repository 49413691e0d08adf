package parser

import (
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/pipeline"
	"github.com/funvibe/regionck/internal/token"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		// This case should ideally not be hit if lexer runs first, but as a safeguard:
		ctx.AddError(diagnostics.NewError("P000", token.Token{}, "parser: token stream is nil"))
		return ctx
	}

	parser := New(ctx.TokenStream, ctx)
	ctx.AstRoot = parser.ParseProgram()
	ctx.AstRoot.File = ctx.FilePath

	// Errors are already added to the context by the parser instance,
	// so we don't need to retrieve them again.

	return ctx
}
