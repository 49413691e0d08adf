package pipeline

import (
	"context"
	"log/slog"

	"github.com/funvibe/regionck/internal/ast"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/regions"
	"github.com/funvibe/regionck/internal/token"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries the state of a single file through the stages.
type PipelineContext struct {
	SourceCode  string
	FilePath    string
	TokenStream []token.Token
	AstRoot     *ast.Program
	Errors      []*diagnostics.DiagnosticError

	// Checks holds one entry per function body, in source order.
	Checks []*regions.FnCheck

	Logger *slog.Logger

	// Ctx cancels the stages that fan out work. Nil means never.
	Ctx context.Context
}

func NewPipelineContext(sourceCode string) *PipelineContext {
	return &PipelineContext{
		SourceCode: sourceCode,
		Logger:     slog.Default(),
	}
}

// HasErrors reports whether any stage recorded a front-end error.
func (ctx *PipelineContext) HasErrors() bool {
	return len(ctx.Errors) > 0
}

// AddError records a front-end error, filling in the file path.
func (ctx *PipelineContext) AddError(err *diagnostics.DiagnosticError) {
	if err.File == "" {
		err.File = ctx.FilePath
	}
	ctx.Errors = append(ctx.Errors, err)
}

// Log returns the context's logger, or the default one for contexts built
// without NewPipelineContext.
func (ctx *PipelineContext) Log() *slog.Logger {
	if ctx.Logger == nil {
		return slog.Default()
	}
	return ctx.Logger
}

// Context returns Ctx, or a background context when none was set.
func (ctx *PipelineContext) Context() context.Context {
	if ctx.Ctx == nil {
		return context.Background()
	}
	return ctx.Ctx
}
