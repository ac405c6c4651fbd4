package vm

import (
	"github.com/dcfrancisco/marina/internal/ast"
)

// compileWhile: start: cond; JUMP_IF_FALSE exit; body; JUMP start; exit:
func (c *Compiler) compileWhile(s *ast.WhileStatement) error {
	line := s.Token.Line
	start := c.newLabel()
	exit := c.newLabel()

	c.markLabel(start)
	if err := c.compileExpression(s.Condition); err != nil {
		return err
	}
	c.emitJumpTo(OP_JUMP_IF_FALSE, exit, line)

	c.enterLoop(exit)
	err := c.compileStatements(s.Body)
	c.leaveLoop()
	if err != nil {
		return err
	}

	c.emitJumpTo(OP_JUMP, start, line)
	c.markLabel(exit)
	return nil
}

// compileDoWhile: start: body; cond; JUMP_IF_TRUE start; exit:
func (c *Compiler) compileDoWhile(s *ast.DoWhileStatement) error {
	line := s.Token.Line
	start := c.newLabel()
	exit := c.newLabel()

	c.markLabel(start)
	c.enterLoop(exit)
	err := c.compileStatements(s.Body)
	c.leaveLoop()
	if err != nil {
		return err
	}

	if err := c.compileExpression(s.Condition); err != nil {
		return err
	}
	c.emitJumpTo(OP_JUMP_IF_TRUE, start, line)
	c.markLabel(exit)
	return nil
}

// compileLoop: start: body; JUMP start; exit:
func (c *Compiler) compileLoop(s *ast.LoopStatement) error {
	line := s.Token.Line
	start := c.newLabel()
	exit := c.newLabel()

	c.markLabel(start)
	c.enterLoop(exit)
	err := c.compileStatements(s.Body)
	c.leaveLoop()
	if err != nil {
		return err
	}

	c.emitJumpTo(OP_JUMP, start, line)
	c.markLabel(exit)
	return nil
}

// compileFor lowers FOR v := a TO b [STEP s] to a while loop over a fresh
// local. The end bound is evaluated on every iteration.
func (c *Compiler) compileFor(s *ast.ForStatement) error {
	line := s.Token.Line

	if err := c.compileExpression(s.Start); err != nil {
		return err
	}
	slot := c.pushLocal(s.Variable)
	defer c.popLocal()
	c.emitArg(OP_SET_LOCAL, slot, line)
	c.emit(OP_POP, line)

	start := c.newLabel()
	exit := c.newLabel()

	c.markLabel(start)
	c.emitArg(OP_GET_LOCAL, slot, line)
	if err := c.compileExpression(s.End); err != nil {
		return err
	}
	c.emit(OP_LE, line)
	c.emitJumpTo(OP_JUMP_IF_FALSE, exit, line)

	c.enterLoop(exit)
	err := c.compileStatements(s.Body)
	c.leaveLoop()
	if err != nil {
		return err
	}

	c.emitArg(OP_GET_LOCAL, slot, line)
	if s.Step != nil {
		if err := c.compileExpression(s.Step); err != nil {
			return err
		}
	} else {
		c.emitConstant(NumberVal(1), line)
	}
	c.emit(OP_ADD, line)
	c.emitArg(OP_SET_LOCAL, slot, line)
	c.emit(OP_POP, line)
	c.emitJumpTo(OP_JUMP, start, line)

	c.markLabel(exit)
	return nil
}

func (c *Compiler) compileExit(s *ast.ExitStatement) error {
	if len(c.loopStack) == 0 {
		return c.errorf(s.Token.Line, "EXIT outside of loop")
	}
	loop := c.loopStack[len(c.loopStack)-1]
	c.emitJumpTo(OP_JUMP, loop.exitLabel, s.Token.Line)
	return nil
}
