package vm

import (
	"strings"

	"github.com/dcfrancisco/marina/internal/ast"
)

// setIndexIntrinsic is the call the parser produces for `a[i] := v`.
const setIndexIntrinsic = "__SET_INDEX__"

var binaryOps = map[string]Opcode{
	"+":   OP_ADD,
	"-":   OP_SUB,
	"*":   OP_MUL,
	"/":   OP_DIV,
	"%":   OP_MOD,
	"^":   OP_POW,
	"==":  OP_EQ,
	"!=":  OP_NE,
	"<":   OP_LT,
	"<=":  OP_LE,
	">":   OP_GT,
	">=":  OP_GE,
	"AND": OP_AND,
	"OR":  OP_OR,
}

func isPrintIntrinsic(name string) bool {
	return name == "?" || name == "??" || strings.EqualFold(name, "PRINT")
}

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emitConstant(NumberVal(e.Value), e.Token.Line)
	case *ast.StringLiteral:
		c.emitConstant(StringVal(e.Value), e.Token.Line)
	case *ast.BooleanLiteral:
		c.emitConstant(BoolVal(e.Value), e.Token.Line)
	case *ast.NilLiteral:
		c.emitConstant(NilVal(), e.Token.Line)

	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			if err := c.compileExpression(el); err != nil {
				return err
			}
		}
		c.emitArg(OP_MAKE_ARRAY, len(e.Elements), e.Token.Line)

	case *ast.Identifier:
		c.compileIdentifier(e)

	case *ast.AssignExpression:
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		c.emitStore(e.Name, e.Token.Line)

	case *ast.PrefixExpression:
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		switch e.Operator {
		case "-":
			c.emit(OP_NEG, e.Token.Line)
		case "NOT":
			c.emit(OP_NOT, e.Token.Line)
		default:
			return c.errorf(e.Token.Line, "unknown prefix operator %s", e.Operator)
		}

	case *ast.InfixExpression:
		op, ok := binaryOps[e.Operator]
		if !ok {
			return c.errorf(e.Token.Line, "unknown operator %s", e.Operator)
		}
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.emit(op, e.Token.Line)

	case *ast.CallExpression:
		return c.compileCall(e)

	case *ast.IndexExpression:
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		if err := c.compileExpression(e.Index); err != nil {
			return err
		}
		c.emit(OP_GET_INDEX, e.Token.Line)

	case *ast.ModuleMemberExpression:
		c.emitConstant(ModuleFunctionVal(e.Module, e.Function), e.Token.Line)

	case *ast.ModuleCallExpression:
		line := e.Token.Line
		c.emitConstant(ModuleFunctionVal(e.Module, e.Function), line)
		for _, arg := range e.Arguments {
			if err := c.compileExpression(arg); err != nil {
				return err
			}
		}
		c.emitArg(OP_CALL_MODULE, len(e.Arguments), line)

	case nil:
		return &CompileError{Message: "missing expression"}
	default:
		return c.errorf(expr.GetToken().Line, "unsupported expression %T", expr)
	}
	return nil
}

// compileIdentifier loads a local, a function reference or a global.
func (c *Compiler) compileIdentifier(e *ast.Identifier) {
	line := e.Token.Line
	if slot, ok := c.resolveLocal(e.Value); ok {
		c.emitArg(OP_GET_LOCAL, slot, line)
		return
	}
	if addr, ok := c.functions[e.Value]; ok {
		if _, isGlobal := c.globals[e.Value]; !isGlobal {
			c.emitConstant(FunctionVal(e.Value, c.arities[e.Value], addr), line)
			return
		}
	}
	c.emitArg(OP_GET_GLOBAL, c.globalSlot(e.Value), line)
}

// emitStore stores the top of stack into name, leaving it on the stack.
func (c *Compiler) emitStore(name string, line int) {
	if slot, ok := c.resolveLocal(name); ok {
		c.emitArg(OP_SET_LOCAL, slot, line)
		return
	}
	c.emitArg(OP_SET_GLOBAL, c.globalSlot(name), line)
}

func (c *Compiler) compileCall(e *ast.CallExpression) error {
	line := e.Token.Line

	if isPrintIntrinsic(e.Function) {
		// Used as a value: print, then yield NIL.
		if err := c.compilePrint(e); err != nil {
			return err
		}
		c.emitConstant(NilVal(), line)
		return nil
	}

	if e.Function == setIndexIntrinsic {
		return c.compileSetIndex(e)
	}

	c.emitConstant(StringVal(e.Function), line)
	for _, arg := range e.Arguments {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}
	c.emitArg(OP_CALL, len(e.Arguments), line)
	return nil
}

// compilePrint emits PUSH/PRINT per argument with a space between them.
// It leaves nothing on the stack.
func (c *Compiler) compilePrint(e *ast.CallExpression) error {
	line := e.Token.Line
	for i, arg := range e.Arguments {
		if i > 0 {
			c.emitConstant(StringVal(" "), line)
			c.emit(OP_PRINT, line)
		}
		if err := c.compileExpression(arg); err != nil {
			return err
		}
		c.emit(OP_PRINT, line)
	}
	if e.Function != "??" {
		c.emitConstant(StringVal("\n"), line)
		c.emit(OP_PRINT, line)
	}
	return nil
}

// compileSetIndex lowers __SET_INDEX__(target, index, value). A bare
// variable target receives the mutated array. The expression yields the
// assigned value, kept in a scratch local across SetIndex.
func (c *Compiler) compileSetIndex(e *ast.CallExpression) error {
	line := e.Token.Line
	if len(e.Arguments) != 3 {
		return c.errorf(line, "Internal error: %s requires 3 args", setIndexIntrinsic)
	}
	for _, arg := range e.Arguments {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}

	// An empty name never resolves from source.
	scratch := c.pushLocal("")
	defer c.popLocal()
	c.emitArg(OP_SET_LOCAL, scratch, line)

	c.emit(OP_SET_INDEX, line)
	if ident, ok := e.Arguments[0].(*ast.Identifier); ok {
		c.emitStore(ident.Value, line)
	}
	c.emit(OP_POP, line)
	c.emitArg(OP_GET_LOCAL, scratch, line)
	return nil
}
