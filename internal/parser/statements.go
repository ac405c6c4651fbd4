package parser

import (
	"fmt"

	"github.com/dcfrancisco/marina/internal/ast"
	"github.com/dcfrancisco/marina/internal/diagnostics"
	"github.com/dcfrancisco/marina/internal/token"
)

// Statement parsers start at the statement's first token and leave the
// parser on the first token after it. They return nil after reporting an
// error.

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LOCAL:
		return p.parseVarDeclaration(ast.ScopeLocal)
	case token.STATIC:
		return p.parseVarDeclaration(ast.ScopeStatic)
	case token.PRIVATE:
		return p.parseVarDeclaration(ast.ScopePrivate)
	case token.PUBLIC:
		return p.parseVarDeclaration(ast.ScopePublic)
	case token.FUNCTION, token.PROCEDURE:
		return p.parseFunctionStatement()
	case token.ENDFUNC:
		// A function body has already been closed by RETURN.
		p.nextToken()
		return nil
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.LOOP:
		return p.parseLoopStatement()
	case token.EXIT:
		stmt := &ast.ExitStatement{Token: p.curToken}
		p.nextToken()
		return stmt
	case token.CASE:
		return p.parseCaseStatement()
	case token.QUESTION, token.QUESTION_QQ:
		return p.parsePrintStatement()
	case token.USE:
		return p.parseUseStatement()
	case token.DBSKIP:
		return p.parseDbSkipStatement()
	case token.DBGOTOP:
		stmt := &ast.DbGoTopStatement{Token: p.curToken}
		p.nextToken()
		return stmt
	case token.DBGOBOTTOM:
		stmt := &ast.DbGoBottomStatement{Token: p.curToken}
		p.nextToken()
		return stmt
	case token.DBSEEK:
		tok := p.curToken
		p.nextToken()
		key := p.parseExpr()
		if key == nil {
			return nil
		}
		return &ast.DbSeekStatement{Token: tok, Key: key}
	case token.REPLACE:
		return p.parseReplaceStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseVarDeclaration(scope ast.VarScope) ast.Statement {
	first := p.curToken
	p.nextToken()

	var decls []ast.Statement
	for {
		if !p.curTokenIs(token.IDENT) {
			p.errorAt(diagnostics.ErrP002, p.curToken, fmt.Sprintf("expected variable name, got %s", describe(p.curToken)))
			return nil
		}
		decl := &ast.VarDeclaration{Token: p.curToken, Name: p.curToken.Lexeme, Scope: scope}
		p.nextToken()
		if p.curTokenIsAny(token.ASSIGN, token.COLON) {
			p.nextToken()
			decl.Value = p.parseExpr()
			if decl.Value == nil {
				return nil
			}
		}
		decls = append(decls, decl)
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if len(decls) == 1 {
		return decls[0]
	}
	return &ast.BlockStatement{Token: first, Statements: decls}
}

func (p *Parser) parseFunctionStatement() ast.Statement {
	stmt := &ast.FunctionStatement{Token: p.curToken, IsProcedure: p.curTokenIs(token.PROCEDURE)}
	if !p.expectPeek(token.IDENT, "function name") {
		return nil
	}
	stmt.Name = p.curToken.Lexeme
	p.nextToken()

	// PROCEDURE Main without a parameter list is accepted.
	if p.curTokenIs(token.LPAREN) {
		p.nextToken()
		for !p.curTokenIs(token.RPAREN) {
			if !p.curTokenIs(token.IDENT) {
				p.errorAt(diagnostics.ErrP002, p.curToken, fmt.Sprintf("expected parameter name, got %s", describe(p.curToken)))
				return nil
			}
			stmt.Params = append(stmt.Params, p.curToken.Lexeme)
			p.nextToken()
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
			} else if !p.curTokenIs(token.RPAREN) {
				p.errorAt(diagnostics.ErrP002, p.curToken, fmt.Sprintf("expected ')' after parameters, got %s", describe(p.curToken)))
				return nil
			}
		}
		p.nextToken()
	}

	stmt.Body = p.parseBlock(token.RETURN, token.ENDFUNC, token.FUNCTION, token.PROCEDURE)
	switch p.curToken.Type {
	case token.RETURN:
		ret := p.parseReturnStatement()
		if ret == nil {
			return nil
		}
		stmt.Body = append(stmt.Body, ret)
	case token.ENDFUNC:
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	p.nextToken()
	if p.atStatementEnd() || p.curTokenIsAny(token.ENDFUNC, token.FUNCTION, token.PROCEDURE) || isBlockCloser(p.curToken.Type) {
		return stmt
	}
	stmt.Value = p.parseExpr()
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	stmt := &ast.IfStatement{Token: tok, Condition: cond}
	stmt.Then = p.parseBlock(token.ELSE, token.ELSEIF, token.ENDIF)

	switch p.curToken.Type {
	case token.ELSEIF:
		nested := p.parseIfStatement()
		if nested == nil {
			return nil
		}
		stmt.Else = []ast.Statement{nested}
		return stmt
	case token.ELSE:
		p.nextToken()
		stmt.Else = p.parseBlock(token.ENDIF)
	}
	if !p.expectCur(token.ENDIF, "ENDIF") {
		return nil
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	body := p.parseBlock(token.ENDDO)
	if !p.expectCur(token.ENDDO, "ENDDO") {
		return nil
	}
	return &ast.WhileStatement{Token: tok, Condition: cond, Body: body}
}

// parseDoStatement handles both DO WHILE cond ... ENDDO and
// DO ... WHILE cond.
func (p *Parser) parseDoStatement() ast.Statement {
	tok := p.curToken
	if p.peekTokenIs(token.WHILE) {
		p.nextToken()
		stmt := p.parseWhileStatement()
		if w, ok := stmt.(*ast.WhileStatement); ok {
			w.Token = tok
		}
		return stmt
	}
	p.nextToken()
	body := p.parseBlock(token.WHILE)
	if !p.expectCur(token.WHILE, "WHILE after DO block") {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	return &ast.DoWhileStatement{Token: tok, Body: body, Condition: cond}
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT, "loop variable") {
		return nil
	}
	stmt.Variable = p.curToken.Lexeme
	if !p.expectPeek(token.ASSIGN, "':=' or '=' after loop variable") {
		return nil
	}
	p.nextToken()
	if stmt.Start = p.parseExpr(); stmt.Start == nil {
		return nil
	}
	if !p.expectCur(token.TO, "TO in FOR loop") {
		return nil
	}
	if stmt.End = p.parseExpr(); stmt.End == nil {
		return nil
	}
	if p.curTokenIs(token.STEP) {
		p.nextToken()
		if stmt.Step = p.parseExpr(); stmt.Step == nil {
			return nil
		}
	}
	stmt.Body = p.parseBlock(token.NEXT)
	if !p.expectCur(token.NEXT, "NEXT") {
		return nil
	}
	// NEXT i
	if p.curTokenIs(token.IDENT) {
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseLoopStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	body := p.parseBlock(token.ENDLOOP)
	if !p.expectCur(token.ENDLOOP, "ENDLOOP") {
		return nil
	}
	return &ast.LoopStatement{Token: tok, Body: body}
}

func (p *Parser) parseCaseStatement() ast.Statement {
	stmt := &ast.CaseStatement{Token: p.curToken}
	p.nextToken()
	if stmt.Scrutinee = p.parseExpr(); stmt.Scrutinee == nil {
		return nil
	}
	p.skipSeparators()

	for p.curTokenIs(token.CASE) {
		clause := ast.CaseClause{Token: p.curToken}
		p.nextToken()
		if clause.Label = p.parseExpr(); clause.Label == nil {
			return nil
		}
		clause.Body = p.parseBlock(token.CASE, token.OTHERWISE, token.ENDCASE)
		stmt.Clauses = append(stmt.Clauses, clause)
	}

	if p.curTokenIs(token.OTHERWISE) {
		p.nextToken()
		stmt.Otherwise = p.parseBlock(token.ENDCASE)
	}
	if !p.expectCur(token.ENDCASE, "ENDCASE") {
		return nil
	}
	return stmt
}

// parsePrintStatement turns ? a, b into a call of the print intrinsic.
func (p *Parser) parsePrintStatement() ast.Statement {
	tok := p.curToken
	call := &ast.CallExpression{Token: tok, Function: tok.Lexeme, Arguments: []ast.Expression{}}
	p.nextToken()
	if !p.atStatementEnd() && !isBlockCloser(p.curToken.Type) {
		for {
			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			call.Arguments = append(call.Arguments, arg)
			if !p.curTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
	}
	return &ast.ExpressionStatement{Token: tok, Expression: call}
}

func (p *Parser) parseUseStatement() ast.Statement {
	stmt := &ast.DbUseStatement{Token: p.curToken}
	p.nextToken()
	switch p.curToken.Type {
	case token.STRING, token.IDENT:
		stmt.Filename = fmt.Sprint(p.curToken.Literal)
	default:
		p.errorAt(diagnostics.ErrP002, p.curToken, fmt.Sprintf("expected database filename, got %s", describe(p.curToken)))
		return nil
	}
	p.nextToken()
	if p.curWordIs("ALIAS") {
		p.nextToken()
		if !p.curTokenIs(token.IDENT) {
			p.errorAt(diagnostics.ErrP002, p.curToken, fmt.Sprintf("expected alias name, got %s", describe(p.curToken)))
			return nil
		}
		stmt.Alias = p.curToken.Lexeme
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseDbSkipStatement() ast.Statement {
	stmt := &ast.DbSkipStatement{Token: p.curToken}
	p.nextToken()
	if p.atStatementEnd() || isBlockCloser(p.curToken.Type) {
		return stmt
	}
	if stmt.Count = p.parseExpr(); stmt.Count == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseReplaceStatement() ast.Statement {
	stmt := &ast.ReplaceStatement{Token: p.curToken}
	p.nextToken()
	if !p.curTokenIs(token.IDENT) {
		p.errorAt(diagnostics.ErrP002, p.curToken, fmt.Sprintf("expected field name, got %s", describe(p.curToken)))
		return nil
	}
	stmt.Field = p.curToken.Lexeme
	p.nextToken()
	if p.curWordIs("WITH") {
		p.nextToken()
	}
	if stmt.Value = p.parseExpr(); stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	tok := p.curToken
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	return &ast.ExpressionStatement{Token: tok, Expression: expr}
}
