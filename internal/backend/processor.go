package backend

import (
	"errors"

	"github.com/dcfrancisco/marina/internal/diagnostics"
	"github.com/dcfrancisco/marina/internal/pipeline"
	"github.com/dcfrancisco/marina/internal/token"
	"github.com/dcfrancisco/marina/internal/vm"
)

// CompileProcessor turns the parsed program into a bundle stored in
// ctx.Compiled.
type CompileProcessor struct{}

func (p *CompileProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// Front-end errors leave nothing worth compiling
	if ctx.AstRoot == nil || ctx.HasErrors() {
		return ctx
	}

	compiler := vm.NewCompiler()
	chunk, functions, err := compiler.Compile(ctx.AstRoot)
	if err != nil {
		tok := token.Token{}
		msg := err.Error()
		var ce *vm.CompileError
		if errors.As(err, &ce) {
			tok.Line = ce.Line
			msg = ce.Message
		}
		ctx.AddError(diagnostics.NewError(diagnostics.ErrC001, tok, msg))
		return ctx
	}
	if ctx.FilePath != "" {
		chunk.File = ctx.FilePath
	}
	bundle := vm.NewBundle(chunk, functions, ctx.FilePath)
	bundle.Globals = compiler.GlobalNames()
	ctx.Compiled = bundle
	return ctx
}

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.Compiled == nil || ctx.HasErrors() {
		return ctx
	}
	ctx.RuntimeErr = p.Backend.Run(ctx)
	return ctx
}
