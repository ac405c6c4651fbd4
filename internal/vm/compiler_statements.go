package vm

import (
	"github.com/dcfrancisco/marina/internal/ast"
)

func (c *Compiler) compileStatements(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		return c.compileVarDeclaration(s)
	case *ast.BlockStatement:
		return c.compileStatements(s.Statements)
	case *ast.FunctionStatement:
		return c.compileFunction(s)
	case *ast.ReturnStatement:
		return c.compileReturn(s)
	case *ast.IfStatement:
		return c.compileIf(s)
	case *ast.WhileStatement:
		return c.compileWhile(s)
	case *ast.DoWhileStatement:
		return c.compileDoWhile(s)
	case *ast.ForStatement:
		return c.compileFor(s)
	case *ast.LoopStatement:
		return c.compileLoop(s)
	case *ast.ExitStatement:
		return c.compileExit(s)
	case *ast.CaseStatement:
		return c.compileCase(s)
	case *ast.ExpressionStatement:
		return c.compileExpressionStatement(s)
	case *ast.DbUseStatement:
		line := s.Token.Line
		c.emitConstant(StringVal(s.Filename), line)
		c.emit(OP_DB_USE, line)
		return nil
	case *ast.DbSkipStatement:
		line := s.Token.Line
		if s.Count != nil {
			if err := c.compileExpression(s.Count); err != nil {
				return err
			}
		} else {
			c.emitConstant(NumberVal(1), line)
		}
		c.emit(OP_DB_SKIP, line)
		return nil
	case *ast.DbGoTopStatement:
		c.emit(OP_DB_GOTOP, s.Token.Line)
		return nil
	case *ast.DbGoBottomStatement:
		c.emit(OP_DB_GOBOTTOM, s.Token.Line)
		return nil
	case *ast.DbSeekStatement:
		if err := c.compileExpression(s.Key); err != nil {
			return err
		}
		c.emit(OP_DB_SEEK, s.Token.Line)
		return nil
	case *ast.ReplaceStatement:
		line := s.Token.Line
		c.emitConstant(StringVal(s.Field), line)
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		c.emit(OP_DB_REPLACE, line)
		return nil
	case nil:
		return nil
	}
	return c.errorf(stmt.GetToken().Line, "unsupported statement %T", stmt)
}

func (c *Compiler) compileVarDeclaration(s *ast.VarDeclaration) error {
	line := s.Token.Line
	if s.Value != nil {
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
	} else {
		c.emitConstant(NilVal(), line)
	}

	if s.Scope == ast.ScopeLocal {
		c.emitArg(OP_SET_LOCAL, c.declareLocal(s.Name), line)
	} else {
		// STATIC, PRIVATE and PUBLIC share global storage
		c.emitArg(OP_SET_GLOBAL, c.globalSlot(s.Name), line)
	}
	c.emit(OP_POP, line)
	return nil
}

func (c *Compiler) compileFunction(s *ast.FunctionStatement) error {
	line := s.Token.Line
	skip := c.newLabel()
	c.emitJumpTo(OP_JUMP, skip, line)

	c.functions[s.Name] = c.chunk.Len()
	c.arities[s.Name] = len(s.Params)

	savedLocals := c.locals
	savedLoops := c.loopStack
	c.locals = append([]string(nil), s.Params...)
	c.loopStack = nil

	err := c.compileStatements(s.Body)

	c.locals = savedLocals
	c.loopStack = savedLoops
	if err != nil {
		return err
	}

	// Implicit return; unreachable when the body already returned.
	endLine := line
	if n := len(s.Body); n > 0 {
		endLine = s.Body[n-1].GetToken().Line
	}
	c.emitConstant(NilVal(), endLine)
	c.emit(OP_RETURN, endLine)

	c.markLabel(skip)
	return nil
}

func (c *Compiler) compileReturn(s *ast.ReturnStatement) error {
	line := s.Token.Line
	if s.Value != nil {
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
	} else {
		c.emitConstant(NilVal(), line)
	}
	c.emit(OP_RETURN, line)
	return nil
}

func (c *Compiler) compileIf(s *ast.IfStatement) error {
	line := s.Token.Line
	if err := c.compileExpression(s.Condition); err != nil {
		return err
	}
	elseLabel := c.newLabel()
	c.emitJumpTo(OP_JUMP_IF_FALSE, elseLabel, line)

	if err := c.compileStatements(s.Then); err != nil {
		return err
	}

	if s.Else == nil {
		c.markLabel(elseLabel)
		return nil
	}

	endLabel := c.newLabel()
	c.emitJumpTo(OP_JUMP, endLabel, line)
	c.markLabel(elseLabel)
	if err := c.compileStatements(s.Else); err != nil {
		return err
	}
	c.markLabel(endLabel)
	return nil
}

func (c *Compiler) compileCase(s *ast.CaseStatement) error {
	line := s.Token.Line
	if err := c.compileExpression(s.Scrutinee); err != nil {
		return err
	}
	end := c.newLabel()

	for _, clause := range s.Clauses {
		cl := clause.Token.Line
		next := c.newLabel()
		c.emit(OP_DUP, cl)
		if err := c.compileExpression(clause.Label); err != nil {
			return err
		}
		c.emit(OP_EQ, cl)
		c.emitJumpTo(OP_JUMP_IF_FALSE, next, cl)
		c.emit(OP_POP, cl)
		if err := c.compileStatements(clause.Body); err != nil {
			return err
		}
		c.emitJumpTo(OP_JUMP, end, cl)
		c.markLabel(next)
	}

	c.emit(OP_POP, line)
	if err := c.compileStatements(s.Otherwise); err != nil {
		return err
	}
	c.markLabel(end)
	return nil
}

func (c *Compiler) compileExpressionStatement(s *ast.ExpressionStatement) error {
	if call, ok := s.Expression.(*ast.CallExpression); ok && isPrintIntrinsic(call.Function) {
		return c.compilePrint(call)
	}
	if err := c.compileExpression(s.Expression); err != nil {
		return err
	}
	c.emit(OP_POP, s.Token.Line)
	return nil
}
