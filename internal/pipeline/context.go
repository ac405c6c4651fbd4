package pipeline

import (
	"context"
	"io"

	"github.com/dcfrancisco/marina/internal/ast"
	"github.com/dcfrancisco/marina/internal/diagnostics"
	"github.com/dcfrancisco/marina/internal/token"
)

// PipelineContext is threaded through every processor.
type PipelineContext struct {
	SourceCode  string
	FilePath    string
	TokenStream []token.Token
	AstRoot     *ast.Program
	Errors      []*diagnostics.DiagnosticError

	// Compiled holds the backend's compiled program once the compile stage ran.
	Compiled interface{}

	// RuntimeErr is the failure of the execution stage, if any.
	RuntimeErr error

	// Out and In are the program's terminal streams. Nil means the process
	// streams.
	Out io.Writer
	In  io.Reader

	Context context.Context
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{SourceCode: source}
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (c *PipelineContext) HasErrors() bool {
	for _, e := range c.Errors {
		if e.Severity == diagnostics.SeverityError {
			return true
		}
	}
	return false
}

func (c *PipelineContext) AddError(err *diagnostics.DiagnosticError) {
	if err.File == "" {
		err.File = c.FilePath
	}
	c.Errors = append(c.Errors, err)
}
