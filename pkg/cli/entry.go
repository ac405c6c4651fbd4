// Package cli implements the marina command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dcfrancisco/marina/internal/backend"
	"github.com/dcfrancisco/marina/internal/config"
	"github.com/dcfrancisco/marina/internal/lexer"
	"github.com/dcfrancisco/marina/internal/parser"
	"github.com/dcfrancisco/marina/internal/pipeline"
	"github.com/dcfrancisco/marina/internal/vm"
)

// app carries the streams and settings shared by every command.
type app struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger
}

// runOptions are the flags of a source run.
type runOptions struct {
	tokens      bool
	ast         bool
	disassemble bool
	verbose     bool
	file        string
}

// Run executes the command line and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), args, stdin, stdout, stderr)
}

// RunContext is Run with a cancellation context for the program.
func RunContext(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	a := &app{
		ctx:    ctx,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: log.New(io.Discard, "marina: ", 0),
	}

	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("MARINA_DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(stderr, "Internal error: %v\n", r)
			fmt.Fprintln(stderr, "This is a bug. Please report it.")
			code = 1
		}
	}()

	if len(args) == 0 {
		printUsage(stdout)
		return 1
	}

	switch args[0] {
	case "repl":
		return a.runREPL()
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, "marina "+config.Version)
		return 0
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return 0
	case "-c", "--compile":
		return a.handleCompile(args[1:])
	case "-r", "--run":
		return a.handleRunCompiled(args[1:])
	}

	opts, err := parseRunOptions(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	if opts.verbose {
		a.logger.SetOutput(stderr)
	}
	return a.runFile(opts)
}

func parseRunOptions(args []string) (runOptions, error) {
	var opts runOptions
	for _, arg := range args {
		switch arg {
		case "-t", "--tokens":
			opts.tokens = true
		case "-a", "--ast":
			opts.ast = true
		case "-d", "--disassemble":
			opts.disassemble = true
		case "-v", "--verbose":
			opts.verbose = true
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("unknown option %s", arg)
			}
			opts.file = arg
		}
	}
	if opts.file == "" {
		return opts, errors.New("no input file specified")
	}
	return opts, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `marina %s - Clipper compiler & VM

Usage:
  marina [options] <file.prg>     compile and run a program
  marina repl                     start REPL mode
  marina -c <file.prg> [-o out]   compile to a %s bundle
  marina -r <file%s>            run a compiled bundle
  marina version                  print the version

Options:
  -d, --disassemble   Show disassembled bytecode
  -t, --tokens        Show tokens
  -a, --ast           Show AST
  -v, --verbose       Log pipeline progress to stderr
`, config.Version, config.BundleFileExt, config.BundleFileExt)
}

// loadProject finds the project file governing path. The working
// directory is used when path is empty.
func (a *app) loadProject(path string) (*config.Project, error) {
	dir := "."
	if path != "" {
		dir = filepath.Dir(path)
	}
	project, err := config.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if project.Path != "" {
		a.logger.Printf("using project file %s", project.Path)
	}
	return project, nil
}

// backendFor builds a VM backend configured by the project settings.
func (a *app) backendFor(project *config.Project, disassemble bool) *backend.VMBackend {
	opts := backend.Options{
		ANSI:           detectANSI(project.ANSI, a.stdout),
		InkeyTimeoutMs: project.InkeyTimeoutMs,
		MaxSteps:       project.MaxSteps,
		Entry:          project.Entry,
	}
	if disassemble || project.Disassemble {
		opts.Disassembly = a.stdout
	}
	return backend.NewVM(opts)
}

func detectANSI(mode string, w io.Writer) bool {
	f, _ := w.(*os.File)
	return vm.DetectANSI(mode, f)
}

func (a *app) newContext(source, path string) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = path
	ctx.Out = a.stdout
	ctx.In = a.stdin
	ctx.Context = a.ctx
	return ctx
}

func (a *app) runFile(opts runOptions) int {
	source, err := os.ReadFile(opts.file)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: reading file '%s': %s\n", opts.file, err)
		return 1
	}
	project, err := a.loadProject(opts.file)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %s\n", err)
		return 1
	}

	execBackend := a.backendFor(project, opts.disassemble)
	processors := []pipeline.Processor{&lexer.LexerProcessor{}}
	if opts.tokens {
		processors = append(processors, &tokenDumper{out: a.stdout})
	}
	processors = append(processors, &parser.ParserProcessor{})
	if opts.ast {
		processors = append(processors, &astDumper{out: a.stdout})
	}
	processors = append(processors,
		&backend.CompileProcessor{},
		&compileLogger{logger: a.logger},
		backend.NewExecutionProcessor(execBackend),
	)

	ctx := pipeline.New(processors...).Run(a.newContext(string(source), opts.file))
	if machine := execBackend.Machine(); machine != nil {
		a.logger.Printf("executed %d instructions", machine.Steps())
	}
	return a.report(ctx)
}

// report prints the errors collected in ctx and returns the exit code.
func (a *app) report(ctx *pipeline.PipelineContext) int {
	failed := false
	for _, e := range ctx.Errors {
		fmt.Fprintf(a.stderr, "Error: %s\n", e.Error())
		failed = true
	}
	if ctx.RuntimeErr != nil {
		fmt.Fprintf(a.stderr, "Error: %s\n", ctx.RuntimeErr)
		failed = true
	}
	if failed {
		return 1
	}
	return 0
}

// compileSource runs the front end and compiler over a source file.
func (a *app) compileSource(path string) (*vm.Bundle, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source file: %w", err)
	}
	ctx := pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&backend.CompileProcessor{},
	).Run(a.newContext(string(source), path))

	if len(ctx.Errors) > 0 {
		errs := make([]error, len(ctx.Errors))
		for i, e := range ctx.Errors {
			errs[i] = e
		}
		return nil, errors.Join(errs...)
	}
	bundle, ok := ctx.Compiled.(*vm.Bundle)
	if !ok {
		return nil, errors.New("compiler produced no program")
	}
	return bundle, nil
}

// handleCompile compiles a source file to a bytecode bundle.
func (a *app) handleCompile(args []string) int {
	var source, output string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 >= len(args) {
				fmt.Fprintln(a.stderr, "Error: -o requires a path")
				return 1
			}
			i++
			output = args[i]
		case "-v", "--verbose":
			a.logger.SetOutput(a.stderr)
		default:
			source = args[i]
		}
	}
	if source == "" {
		fmt.Fprintln(a.stderr, "Error: no input file specified")
		return 1
	}
	if output == "" {
		output = config.BundlePath(source)
	}

	bundle, err := a.compileSource(source)
	if err != nil {
		fmt.Fprintf(a.stderr, "Compilation error: %s\n", err)
		return 1
	}
	data, err := bundle.Serialize()
	if err != nil {
		fmt.Fprintf(a.stderr, "Serialization error: %s\n", err)
		return 1
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		fmt.Fprintf(a.stderr, "Error writing bytecode file: %s\n", err)
		return 1
	}
	a.logger.Printf("build %s", bundle.BuildID)
	fmt.Fprintf(a.stdout, "Compiled %s -> %s (%d bytes)\n", source, output, len(data))
	return 0
}

// handleRunCompiled runs a bundle written by handleCompile.
func (a *app) handleRunCompiled(args []string) int {
	var path string
	disassemble := false
	for _, arg := range args {
		switch arg {
		case "-d", "--disassemble":
			disassemble = true
		case "-v", "--verbose":
			a.logger.SetOutput(a.stderr)
		default:
			path = arg
		}
	}
	if path == "" {
		fmt.Fprintln(a.stderr, "Error: no bytecode file specified")
		return 1
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error reading bytecode file: %s\n", err)
		return 1
	}
	bundle, err := vm.DeserializeBundle(data)
	if err != nil {
		fmt.Fprintf(a.stderr, "Deserialization error: %s\n", err)
		return 1
	}
	a.logger.Printf("running build %s of %s", bundle.BuildID, bundle.SourceFile)

	project, err := a.loadProject(path)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %s\n", err)
		return 1
	}
	execBackend := a.backendFor(project, disassemble)
	if err := execBackend.RunBundle(a.newContext("", path), bundle); err != nil {
		fmt.Fprintf(a.stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}
