package solver

import (
	"github.com/funvibe/regionck/internal/pipeline"
)

type SolverProcessor struct{}

func (sp *SolverProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	for _, check := range ctx.Checks {
		violations, err := SolveAll(check)
		if err != nil {
			ctx.Log().Error("solver rerun on judged function", "fn", check.Name, "err", err)
			continue
		}
		ctx.Log().Debug("solved function",
			"file", ctx.FilePath,
			"fn", check.Name,
			"obligations", len(check.Judgements),
			"violations", violations)
	}
	return ctx
}
