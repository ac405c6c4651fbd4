package backend

import (
	"fmt"
	"io"

	"github.com/dcfrancisco/marina/internal/pipeline"
	"github.com/dcfrancisco/marina/internal/vm"
)

// Options configure a VM run.
type Options struct {
	ANSI           bool
	InkeyTimeoutMs int
	MaxSteps       int
	Entry          string

	// Disassembly, when set, receives the listing before execution
	Disassembly io.Writer
}

// VMBackend executes programs using the bytecode VM
type VMBackend struct {
	opts Options

	// last is the machine of the most recent run, kept for inspection
	last *vm.VM
}

// NewVM creates a new VM backend
func NewVM(opts Options) *VMBackend {
	return &VMBackend{opts: opts}
}

// Name returns the backend name
func (b *VMBackend) Name() string {
	return "vm"
}

// Machine returns the VM used by the last Run, or nil.
func (b *VMBackend) Machine() *vm.VM {
	return b.last
}

// Run executes the bundle stored in ctx.Compiled
func (b *VMBackend) Run(ctx *pipeline.PipelineContext) error {
	bundle, ok := ctx.Compiled.(*vm.Bundle)
	if !ok || bundle == nil {
		return fmt.Errorf("no compiled program to run")
	}
	return b.RunBundle(ctx, bundle)
}

// RunBundle executes a bundle using the streams and context of ctx.
func (b *VMBackend) RunBundle(ctx *pipeline.PipelineContext, bundle *vm.Bundle) error {
	if b.opts.Disassembly != nil {
		fmt.Fprint(b.opts.Disassembly, vm.DisassembleWithFunctions(bundle.Chunk, bundle.Functions, "main"))
	}

	machine := vm.New()
	if ctx.Out != nil {
		machine.SetOutput(ctx.Out)
	}
	if ctx.In != nil {
		machine.SetInput(ctx.In)
	}
	if ctx.Context != nil {
		machine.SetContext(ctx.Context)
	}
	machine.SetANSI(b.opts.ANSI)
	machine.SetInkeyTimeout(b.opts.InkeyTimeoutMs)
	machine.SetMaxSteps(b.opts.MaxSteps)
	machine.SetEntry(b.opts.Entry)
	b.last = machine

	return machine.Run(bundle.Chunk, bundle.Functions)
}

// Disassemble returns the bytecode listing of the compiled program
func (b *VMBackend) Disassemble(ctx *pipeline.PipelineContext) (string, error) {
	bundle, ok := ctx.Compiled.(*vm.Bundle)
	if !ok || bundle == nil {
		return "", fmt.Errorf("no compiled program to disassemble")
	}
	return vm.DisassembleWithFunctions(bundle.Chunk, bundle.Functions, "main"), nil
}
