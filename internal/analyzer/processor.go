package analyzer

import (
	"github.com/funvibe/regionck/internal/pipeline"
)

type SemanticAnalyzerProcessor struct {
	// Jobs bounds concurrent function checks; zero means GOMAXPROCS.
	Jobs int
}

func (sap *SemanticAnalyzerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil || ctx.HasErrors() {
		// Region checking needs a well-formed program.
		return ctx
	}

	analyzer := New()
	analyzer.Logger = ctx.Log()
	if sap.Jobs > 0 {
		analyzer.Jobs = sap.Jobs
	}

	checks, errors := analyzer.Analyze(ctx.Context(), ctx.AstRoot)
	for _, err := range errors {
		ctx.AddError(err)
	}
	ctx.Checks = checks

	return ctx
}
