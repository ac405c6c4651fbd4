package lexer

import (
	"fmt"

	"github.com/dcfrancisco/marina/internal/diagnostics"
	"github.com/dcfrancisco/marina/internal/pipeline"
	"github.com/dcfrancisco/marina/internal/token"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	ctx.TokenStream = New(ctx.SourceCode).Tokens()
	for _, tok := range ctx.TokenStream {
		if tok.Type != token.ILLEGAL {
			continue
		}
		code := diagnostics.ErrL001
		msg := fmt.Sprint(tok.Literal)
		if msg == "unterminated string" {
			code = diagnostics.ErrL002
		}
		ctx.AddError(diagnostics.NewError(code, tok, msg))
	}
	return ctx
}
