// Package backend compiles parsed programs to bytecode and runs them.
package backend

import (
	"github.com/dcfrancisco/marina/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the compiled program held in the pipeline context
	Run(ctx *pipeline.PipelineContext) error

	// Name returns the backend name for display
	Name() string
}
