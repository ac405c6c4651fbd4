package vm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxStackSize bounds the operand stack
	MaxStackSize = 1 << 20
	// MaxFrames bounds call depth
	MaxFrames = 10000
	// checkInterval is the number of instructions between context checks
	checkInterval = 1000
)

var (
	errStackUnderflow = errors.New("stack underflow")
	errStackOverflow  = errors.New("stack overflow")
	errBadConstant    = errors.New("invalid constant index")

	// ErrStepLimit is returned when a run exceeds its step budget.
	ErrStepLimit = errors.New("step limit exceeded")
)

// CallFrame is a call's window into the shared locals array.
type CallFrame struct {
	ReturnIP    int
	LocalsStart int
	LocalsCount int

	// Function and CallIP are used for stack traces only
	Function string
	CallIP   int
}

// VM executes a compiled chunk
type VM struct {
	chunk     *Chunk
	functions FunctionTable
	ip        int

	stack  []Value
	locals []Value

	globals       []Value
	globalDefined []bool

	frames []CallFrame
	halted bool

	out io.Writer
	in  *bufio.Reader
	raw io.Reader

	// Terminal cursor shadow state
	row, col           int
	savedRow, savedCol int

	ansi         bool
	inkeyTimeout int
	entry        string

	ctx      context.Context
	maxSteps int
	steps    int

	builtins    map[string]*Builtin
	ownBuiltins bool

	// presets are host values stored into global slots at the start of Run
	presets map[int]Value
}

// New creates a VM writing to stdout and reading from stdin.
func New() *VM {
	vm := &VM{
		stack:    make([]Value, 0, 256),
		locals:   make([]Value, 0, 64),
		frames:   make([]CallFrame, 0, 16),
		ansi:     true,
		builtins: builtinTable,
	}
	vm.SetOutput(os.Stdout)
	vm.SetInput(os.Stdin)
	return vm
}

// SetOutput sets the writer used by PRINT and the output builtins
func (vm *VM) SetOutput(w io.Writer) {
	vm.out = w
}

// SetInput sets the reader used by Inkey and GetInput
func (vm *VM) SetInput(r io.Reader) {
	vm.raw = r
	vm.in = bufio.NewReader(r)
}

// SetContext sets a context checked periodically for cancellation
func (vm *VM) SetContext(ctx context.Context) {
	vm.ctx = ctx
}

// SetMaxSteps limits the number of executed instructions. 0 means unlimited.
func (vm *VM) SetMaxSteps(n int) {
	vm.maxSteps = n
}

// SetANSI enables or disables escape sequences from the cursor builtins.
func (vm *VM) SetANSI(enabled bool) {
	vm.ansi = enabled
}

// SetInkeyTimeout sets the default Inkey timeout in milliseconds.
func (vm *VM) SetInkeyTimeout(ms int) {
	vm.inkeyTimeout = ms
}

// SetEntry overrides the entry function name. Empty means Main or main.
func (vm *VM) SetEntry(name string) {
	vm.entry = name
}

// Steps returns the number of instructions executed by the last run.
func (vm *VM) Steps() int {
	return vm.steps
}

// Cursor returns the shadow cursor position.
func (vm *VM) Cursor() (row, col int) {
	return vm.row, vm.col
}

// Global returns the value stored in a global slot.
func (vm *VM) Global(slot int) (Value, bool) {
	if slot < 0 || slot >= len(vm.globals) || !vm.globalDefined[slot] {
		return NilVal(), false
	}
	return vm.globals[slot], true
}

// Local returns the value of a top-level local slot after a run.
func (vm *VM) Local(slot int) (Value, bool) {
	if slot < 0 || slot >= len(vm.locals) {
		return NilVal(), false
	}
	return vm.locals[slot], true
}

func (vm *VM) entryAddress() (string, int, bool) {
	if vm.entry != "" {
		addr, ok := vm.functions[vm.entry]
		return vm.entry, addr, ok
	}
	for _, name := range []string{"Main", "main"} {
		if addr, ok := vm.functions[name]; ok {
			return name, addr, true
		}
	}
	return "", 0, false
}

// Run executes chunk. When an entry function exists, top-level code runs up
// to the trailing HALT and then the entry function is called.
func (vm *VM) Run(chunk *Chunk, functions FunctionTable) (err error) {
	if chunk == nil {
		return errors.New("nil chunk")
	}
	if functions == nil {
		functions = FunctionTable{}
	}
	vm.chunk = chunk
	vm.functions = functions
	vm.ip = 0
	vm.steps = 0
	vm.halted = false
	vm.stack = vm.stack[:0]
	vm.locals = vm.locals[:0]
	vm.frames = vm.frames[:0]
	vm.globals = vm.globals[:0]
	vm.globalDefined = vm.globalDefined[:0]
	for slot, v := range vm.presets {
		vm.setGlobal(slot, v)
	}

	name, addr, hasEntry := vm.entryAddress()
	if !hasEntry {
		if vm.entry != "" {
			return fmt.Errorf("entry function %s not found", vm.entry)
		}
		return vm.execute(len(chunk.Code))
	}

	// Global initialization; the guard jumps skip every function body.
	if err := vm.execute(len(chunk.Code) - 1); err != nil || vm.halted {
		return err
	}

	vm.frames = append(vm.frames, CallFrame{
		ReturnIP:    len(chunk.Code) + 1,
		LocalsStart: len(vm.locals),
		Function:    name,
		CallIP:      -1,
	})
	vm.ip = addr
	return vm.execute(len(chunk.Code))
}

// execute runs until ip reaches limit or leaves the code.
func (vm *VM) execute(limit int) error {
	opsSinceCheck := 0
	for !vm.halted && vm.ip >= 0 && vm.ip < limit {
		opsSinceCheck++
		if opsSinceCheck >= checkInterval {
			opsSinceCheck = 0
			if vm.ctx != nil {
				select {
				case <-vm.ctx.Done():
					return vm.formatError(vm.ctx.Err())
				default:
				}
			}
		}
		if vm.maxSteps > 0 && vm.steps >= vm.maxSteps {
			return vm.formatError(ErrStepLimit)
		}
		vm.steps++

		if err := vm.step(); err != nil {
			return vm.formatError(err)
		}
	}
	return nil
}

// step executes one instruction
func (vm *VM) step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if r == errStackUnderflow || r == errStackOverflow || r == errBadConstant {
				err = r.(error)
				return
			}
			panic(r)
		}
	}()

	ins := vm.chunk.Code[vm.ip]
	return vm.executeOp(ins)
}

// Stack operations

func (vm *VM) push(v Value) {
	if len(vm.stack) >= MaxStackSize {
		panic(errStackOverflow)
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() Value {
	n := len(vm.stack)
	if n == 0 {
		panic(errStackUnderflow)
	}
	v := vm.stack[n-1]
	vm.stack[n-1] = Value{}
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *VM) peek(distance int) Value {
	idx := len(vm.stack) - 1 - distance
	if idx < 0 {
		panic(errStackUnderflow)
	}
	return vm.stack[idx]
}

// checkStack ensures there are at least n elements on the stack
func (vm *VM) checkStack(n int) {
	if len(vm.stack) < n {
		panic(errStackUnderflow)
	}
}

// popN pops n values and returns them in push order.
func (vm *VM) popN(n int) []Value {
	vm.checkStack(n)
	start := len(vm.stack) - n
	vals := make([]Value, n)
	copy(vals, vm.stack[start:])
	for i := start; i < len(vm.stack); i++ {
		vm.stack[i] = Value{}
	}
	vm.stack = vm.stack[:start]
	return vals
}

func (vm *VM) readConstant(idx int) Value {
	if idx < 0 || idx >= len(vm.chunk.Constants) {
		panic(errBadConstant)
	}
	return vm.chunk.Constants[idx]
}

func (vm *VM) currentFrame() *CallFrame {
	if len(vm.frames) == 0 {
		return nil
	}
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// TraceEntry is one line of a runtime stack trace.
type TraceEntry struct {
	Function string
	Line     int
	Called   string
}

// RuntimeError is a failure raised while executing bytecode.
type RuntimeError struct {
	Message string
	Line    int
	File    string
	Trace   []TraceEntry
	Err     error
}

func (e *RuntimeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "runtime error: ERROR at line %d: %s", e.Line, e.Message)
	if len(e.Trace) > 0 {
		sb.WriteString("\nStack trace:")
		for _, t := range e.Trace {
			if t.Called != "" {
				fmt.Fprintf(&sb, "\n  at %s:%d (called %s)", t.Function, t.Line, t.Called)
			} else {
				fmt.Fprintf(&sb, "\n  at %s:%d", t.Function, t.Line)
			}
		}
	}
	return sb.String()
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func (vm *VM) scriptName() string {
	if vm.chunk.File == "" {
		return "<script>"
	}
	return filepath.Base(vm.chunk.File)
}

// formatError attaches the failing line and the call stack to err.
func (vm *VM) formatError(err error) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	line := vm.chunk.LineAt(vm.ip)

	innermost := vm.scriptName()
	if f := vm.currentFrame(); f != nil {
		innermost = f.Function
	}
	trace := []TraceEntry{{Function: innermost, Line: line}}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		if f.CallIP < 0 {
			continue
		}
		caller := vm.scriptName()
		if i > 0 {
			caller = vm.frames[i-1].Function
		}
		trace = append(trace, TraceEntry{Function: caller, Line: vm.chunk.LineAt(f.CallIP), Called: f.Function})
	}

	return &RuntimeError{
		Message: err.Error(),
		Line:    line,
		File:    vm.chunk.File,
		Trace:   trace,
		Err:     err,
	}
}
