package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/dcfrancisco/marina/internal/pipeline"
	"github.com/dcfrancisco/marina/internal/token"
	"github.com/dcfrancisco/marina/internal/vm"
)

// tokenDumper prints the token stream after lexing.
type tokenDumper struct {
	out io.Writer
}

func (d *tokenDumper) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	fmt.Fprintln(d.out, "=== TOKENS ===")
	for _, tok := range ctx.TokenStream {
		fmt.Fprintln(d.out, formatToken(tok))
	}
	fmt.Fprintln(d.out)
	return ctx
}

func formatToken(tok token.Token) string {
	if tok.Literal != nil {
		return fmt.Sprintf("%4d:%-3d %-10s %q %v", tok.Line, tok.Column, tok.Type, tok.Lexeme, tok.Literal)
	}
	return fmt.Sprintf("%4d:%-3d %-10s %q", tok.Line, tok.Column, tok.Type, tok.Lexeme)
}

// astDumper prints the parsed program.
type astDumper struct {
	out io.Writer
}

func (d *astDumper) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	fmt.Fprintln(d.out, "=== AST ===")
	if ctx.AstRoot != nil {
		fmt.Fprint(d.out, ctx.AstRoot.String())
	}
	fmt.Fprintln(d.out)
	return ctx
}

// compileLogger reports compiled program size on the verbose log.
type compileLogger struct {
	logger *log.Logger
}

func (l *compileLogger) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if bundle, ok := ctx.Compiled.(*vm.Bundle); ok {
		l.logger.Printf("compiled %d instructions, %d constants, %d functions",
			bundle.Chunk.Len(), len(bundle.Chunk.Constants), len(bundle.Functions))
	}
	return ctx
}
