package vm

import (
	"fmt"

	"github.com/dcfrancisco/marina/internal/ast"
)

// CompileError is returned when the AST cannot be lowered to bytecode.
type CompileError struct {
	Message string
	Line    int
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compile error at line %d: %s", e.Line, e.Message)
	}
	return "compile error: " + e.Message
}

// LoopContext tracks the exit label of an enclosing loop
type LoopContext struct {
	exitLabel int
}

// Compiler compiles AST to bytecode
type Compiler struct {
	chunk *Chunk

	// locals of the function (or top level) being compiled, in slot order
	locals []string

	// globals maps a name to its stable slot index
	globals     map[string]int
	globalNames []string

	functions FunctionTable
	arities   map[string]int

	loopStack []LoopContext

	// labels[id] is the resolved address, or placeholder while pending
	labels  []int
	patches map[int][]int
}

// NewCompiler creates a compiler with empty state
func NewCompiler() *Compiler {
	return &Compiler{
		chunk:     NewChunk(),
		globals:   make(map[string]int),
		functions: make(FunctionTable),
		arities:   make(map[string]int),
		patches:   make(map[int][]int),
	}
}

// Compile lowers a program into a chunk and its function table. The first
// error aborts compilation and no chunk is returned.
func Compile(program *ast.Program) (*Chunk, FunctionTable, error) {
	return NewCompiler().Compile(program)
}

// Compile compiles program. A Compiler is single use.
func (c *Compiler) Compile(program *ast.Program) (*Chunk, FunctionTable, error) {
	if program == nil {
		return nil, nil, &CompileError{Message: "nil program"}
	}
	c.chunk.File = program.File

	if err := c.compileStatements(program.Statements); err != nil {
		return nil, nil, err
	}
	line := 0
	if n := len(c.chunk.Lines); n > 0 {
		line = c.chunk.Lines[n-1]
	}
	c.emit(OP_HALT, line)

	if err := c.checkLabels(); err != nil {
		return nil, nil, err
	}
	return c.chunk, c.functions, nil
}

// GlobalNames returns global names in slot order.
func (c *Compiler) GlobalNames() []string {
	return append([]string(nil), c.globalNames...)
}

func (c *Compiler) emit(op Opcode, line int) int {
	return c.chunk.WriteOp(op, line)
}

func (c *Compiler) emitArg(op Opcode, operand int, line int) int {
	return c.chunk.WriteOpArg(op, operand, line)
}

func (c *Compiler) emitConstant(v Value, line int) int {
	return c.chunk.WriteConstant(v, line)
}

func (c *Compiler) errorf(line int, format string, args ...interface{}) error {
	return &CompileError{Message: fmt.Sprintf(format, args...), Line: line}
}
