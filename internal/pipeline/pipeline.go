package pipeline

import "context"

// Processor is a single stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages run even after errors so that every
// front-end diagnostic is collected; stages that need a clean input check
// ctx.Errors themselves.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		if ctx.Context != nil && ctx.Context.Err() != nil {
			break
		}
		ctx = processor.Process(ctx)
	}
	return ctx
}

// RunContext is Run with a cancellation context attached.
func (p *Pipeline) RunContext(c context.Context, initialCtx *PipelineContext) *PipelineContext {
	initialCtx.Context = c
	return p.Run(initialCtx)
}
