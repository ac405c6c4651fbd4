// Package marina embeds the marina compiler and VM in Go programs.
package marina

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/dcfrancisco/marina/internal/backend"
	"github.com/dcfrancisco/marina/internal/lexer"
	"github.com/dcfrancisco/marina/internal/parser"
	"github.com/dcfrancisco/marina/internal/pipeline"
	"github.com/dcfrancisco/marina/internal/vm"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// VM wraps the underlying marina VM and provides a high-level embedding API.
type VM struct {
	machine    *vm.VM
	bundle     *vm.Bundle
	marshaller *Marshaller

	bindings map[string]*vm.Builtin
	globals  map[string]vm.Value

	out  io.Writer
	in   io.Reader
	ansi bool
}

// New creates a new marina VM instance writing to stdout.
func New() *VM {
	return &VM{
		marshaller: NewMarshaller(),
		bindings:   make(map[string]*vm.Builtin),
		globals:    make(map[string]vm.Value),
		out:        os.Stdout,
		in:         os.Stdin,
	}
}

// SetOutput sets where programs print.
func (v *VM) SetOutput(w io.Writer) { v.out = w }

// SetInput sets where Inkey and GetInput read from.
func (v *VM) SetInput(r io.Reader) { v.in = r }

// SetANSI enables cursor escape sequences. They are off by default.
func (v *VM) SetANSI(enabled bool) { v.ansi = enabled }

// Bind registers a Go function callable from scripts under name. The
// function may return nothing, one value, or a value and an error.
func (v *VM) Bind(name string, fn interface{}) error {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return fmt.Errorf("bind %s: expected a function, got %T", name, fn)
	}
	t := rv.Type()
	if t.NumOut() > 2 || (t.NumOut() == 2 && t.Out(1) != errorType) {
		return fmt.Errorf("bind %s: results must be (T), (error) or (T, error)", name)
	}

	b := &vm.Builtin{Name: name, MinArgs: t.NumIn(), MaxArgs: t.NumIn()}
	if t.IsVariadic() {
		b.MinArgs, b.MaxArgs = t.NumIn()-1, -1
	}
	b.Fn = func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		return v.hostCall(rv, args)
	}
	v.bindings[name] = b
	return nil
}

func (v *VM) hostCall(fn reflect.Value, args []vm.Value) (vm.Value, error) {
	fnType := fn.Type()
	numIn := fnType.NumIn()

	goArgs := make([]reflect.Value, len(args))
	for i, arg := range args {
		var targetType reflect.Type
		if fnType.IsVariadic() && i >= numIn-1 {
			targetType = fnType.In(numIn - 1).Elem()
		} else {
			targetType = fnType.In(i)
		}

		val, err := v.marshaller.FromValue(arg, targetType)
		if err != nil {
			return vm.NilVal(), fmt.Errorf("argument %d conversion failed: %w", i+1, err)
		}
		if val == nil {
			goArgs[i] = reflect.Zero(targetType)
			continue
		}
		rv := reflect.ValueOf(val)
		if !rv.Type().AssignableTo(targetType) {
			if !rv.Type().ConvertibleTo(targetType) {
				return vm.NilVal(), fmt.Errorf("argument %d: cannot use %s as %s", i+1, arg.TypeName(), targetType)
			}
			rv = rv.Convert(targetType)
		}
		goArgs[i] = rv
	}

	results := fn.Call(goArgs)
	if n := len(results); n > 0 && fnType.Out(n-1) == errorType {
		if err, _ := results[n-1].Interface().(error); err != nil {
			return vm.NilVal(), err
		}
		results = results[:n-1]
	}
	if len(results) == 0 {
		return vm.NilVal(), nil
	}
	return v.marshaller.ToValue(results[0].Interface())
}

// Set stores a Go value in a global variable before the next run.
func (v *VM) Set(name string, val interface{}) error {
	value, err := v.marshaller.ToValue(val)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	v.globals[name] = value
	return nil
}

// Get returns a global variable left by the last run.
func (v *VM) Get(name string) (interface{}, error) {
	if v.bundle == nil {
		return nil, errors.New("no program has run")
	}
	for slot, global := range v.bundle.Globals {
		if global != name {
			continue
		}
		if val, ok := v.machine.Global(slot); ok {
			return v.marshaller.FromValue(val, nil)
		}
		break
	}
	return nil, fmt.Errorf("variable '%s' not found", name)
}

// Call calls a function defined by the last program.
func (v *VM) Call(funcName string, args ...interface{}) (interface{}, error) {
	if v.machine == nil {
		return nil, errors.New("no program has run")
	}
	values := make([]vm.Value, len(args))
	for i, arg := range args {
		val, err := v.marshaller.ToValue(arg)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	result, err := v.machine.Call(funcName, values...)
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(result, nil)
}

// Eval compiles and runs source code.
func (v *VM) Eval(code string) error {
	return v.evalSource(code, "")
}

// LoadFile compiles and runs a source file.
func (v *VM) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return v.evalSource(string(content), path)
}

// LoadBundle runs a bundle produced by marina -c.
func (v *VM) LoadBundle(data []byte) error {
	bundle, err := vm.DeserializeBundle(data)
	if err != nil {
		return err
	}
	return v.run(bundle)
}

func (v *VM) evalSource(code, path string) error {
	ctx := pipeline.NewPipelineContext(code)
	ctx.FilePath = path
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&backend.CompileProcessor{},
	).Run(ctx)

	if len(ctx.Errors) > 0 {
		errs := make([]error, len(ctx.Errors))
		for i, e := range ctx.Errors {
			errs[i] = e
		}
		return fmt.Errorf("errors during compilation:\n%w", errors.Join(errs...))
	}
	bundle, ok := ctx.Compiled.(*vm.Bundle)
	if !ok {
		return errors.New("invalid compiled program")
	}
	return v.run(bundle)
}

// run executes bundle on a fresh machine carrying the bindings and globals.
func (v *VM) run(bundle *vm.Bundle) error {
	machine := vm.New()
	machine.SetOutput(v.out)
	machine.SetInput(v.in)
	machine.SetANSI(v.ansi)
	for _, b := range v.bindings {
		machine.RegisterBuiltin(b)
	}
	for slot, name := range bundle.Globals {
		if val, ok := v.globals[name]; ok {
			machine.PresetGlobal(slot, val)
		}
	}

	v.machine = machine
	v.bundle = bundle
	return machine.Run(bundle.Chunk, bundle.Functions)
}
