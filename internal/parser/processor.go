package parser

import (
	"github.com/dcfrancisco/marina/internal/diagnostics"
	"github.com/dcfrancisco/marina/internal/pipeline"
	"github.com/dcfrancisco/marina/internal/token"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		ctx.AddError(diagnostics.NewError(diagnostics.ErrP001, token.Token{}, "parser: token stream is nil"))
		return ctx
	}

	// Illegal tokens were already reported by the lexer.
	tokens := make([]token.Token, 0, len(ctx.TokenStream))
	for _, tok := range ctx.TokenStream {
		if tok.Type != token.ILLEGAL {
			tokens = append(tokens, tok)
		}
	}

	ctx.AstRoot = New(tokens, ctx).ParseProgram()
	ctx.AstRoot.File = ctx.FilePath
	return ctx
}
