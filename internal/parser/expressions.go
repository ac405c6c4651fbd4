package parser

import (
	"fmt"

	"github.com/dcfrancisco/marina/internal/ast"
	"github.com/dcfrancisco/marina/internal/diagnostics"
	"github.com/dcfrancisco/marina/internal/token"
)

// parseExpr parses a full expression, assignment included, and steps past
// its last token.
func (p *Parser) parseExpr() ast.Expression {
	expr := p.parseAssignment()
	if expr != nil {
		p.nextToken()
	}
	return expr
}

var augmentedOps = map[token.TokenType]string{
	token.PLUS_ASSIGN:  "+",
	token.MINUS_ASSIGN: "-",
	token.MUL_ASSIGN:   "*",
	token.DIV_ASSIGN:   "/",
}

// parseAssignment leaves the parser on the expression's last token.
// Augmented and increment forms are rewritten into plain assignments and
// indexed assignment into a __SET_INDEX__ call.
func (p *Parser) parseAssignment() ast.Expression {
	left := p.parseExpression(LOWEST)
	if left == nil {
		return nil
	}

	switch {
	case p.peekTokenIs(token.ASSIGN):
		p.nextToken()
		tok := p.curToken
		p.nextToken()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}
		switch target := left.(type) {
		case *ast.Identifier:
			return &ast.AssignExpression{Token: tok, Name: target.Value, Value: value}
		case *ast.IndexExpression:
			return &ast.CallExpression{
				Token:     tok,
				Function:  "__SET_INDEX__",
				Arguments: []ast.Expression{target.Left, target.Index, value},
			}
		}
		p.errorAt(diagnostics.ErrP003, tok, "invalid assignment target")
		return nil

	case augmentedOps[p.peekToken.Type] != "":
		p.nextToken()
		tok := p.curToken
		ident, ok := left.(*ast.Identifier)
		if !ok {
			p.errorAt(diagnostics.ErrP003, tok, "invalid augmented assignment target")
			return nil
		}
		p.nextToken()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}
		return &ast.AssignExpression{
			Token: tok,
			Name:  ident.Value,
			Value: &ast.InfixExpression{Token: tok, Left: ident, Operator: augmentedOps[tok.Type], Right: value},
		}

	case p.peekTokenIs(token.INCREMENT), p.peekTokenIs(token.DECREMENT):
		p.nextToken()
		tok := p.curToken
		ident, ok := left.(*ast.Identifier)
		if !ok {
			p.errorAt(diagnostics.ErrP003, tok, "invalid increment/decrement target")
			return nil
		}
		op := "+"
		if tok.Type == token.DECREMENT {
			op = "-"
		}
		one := &ast.NumberLiteral{Token: tok, Value: 1}
		return &ast.AssignExpression{
			Token: tok,
			Name:  ident.Value,
			Value: &ast.InfixExpression{Token: tok, Left: ident, Operator: op, Right: one},
		}
	}
	return left
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errorAt(diagnostics.ErrP001, p.curToken, fmt.Sprintf("unexpected %s", describe(p.curToken)))
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}
	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	val, ok := p.curToken.Literal.(float64)
	if !ok {
		p.errorAt(diagnostics.ErrP001, p.curToken, "invalid number")
		return nil
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: val}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: fmt.Sprint(p.curToken.Literal)}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNil() ast.Expression {
	return &ast.NilLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: string(p.curToken.Type)}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{Token: p.curToken, Operator: string(p.curToken.Type), Left: left}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
	expr := p.parseAssignment()
	if expr == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek(token.RPAREN, "')' after expression") {
		return nil
	}
	return expr
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	arr := &ast.ArrayLiteral{Token: p.curToken}
	arr.Elements = p.parseExpressionList(token.RBRACE, "'}' after array elements")
	if arr.Elements == nil {
		return nil
	}
	return arr
}

func (p *Parser) parseCallExpression(fn ast.Expression) ast.Expression {
	ident, ok := fn.(*ast.Identifier)
	if !ok {
		p.errorAt(diagnostics.ErrP001, p.curToken, "invalid function call")
		return nil
	}
	call := &ast.CallExpression{Token: ident.Token, Function: ident.Value}
	call.Arguments = p.parseExpressionList(token.RPAREN, "')' after arguments")
	if call.Arguments == nil {
		return nil
	}
	return call
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	expr := &ast.IndexExpression{Token: p.curToken, Left: left}
	p.nextToken()
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
	expr.Index = p.parseAssignment()
	if expr.Index == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek(token.RBRACKET, "']' after index") {
		return nil
	}
	return expr
}

// parseModuleMember handles module.function and module.function(args).
func (p *Parser) parseModuleMember(left ast.Expression) ast.Expression {
	mod, ok := left.(*ast.Identifier)
	if !ok {
		p.errorAt(diagnostics.ErrP001, p.curToken, "'.' must follow a module name")
		return nil
	}
	if !p.expectPeek(token.IDENT, "function name after '.'") {
		return nil
	}
	fn := p.curToken.Lexeme
	if !p.peekTokenIs(token.LPAREN) {
		return &ast.ModuleMemberExpression{Token: mod.Token, Module: mod.Value, Function: fn}
	}
	p.nextToken()
	args := p.parseExpressionList(token.RPAREN, "')' after arguments")
	if args == nil {
		return nil
	}
	return &ast.ModuleCallExpression{Token: mod.Token, Module: mod.Value, Function: fn, Arguments: args}
}

// parseExpressionList parses a comma-separated list that starts right after
// the current opening delimiter. It returns nil on error and a non-nil
// empty slice for an empty list. Newlines inside the delimiters are ignored.
func (p *Parser) parseExpressionList(end token.TokenType, what string) []ast.Expression {
	list := []ast.Expression{}

	p.skipPeekNewlines()
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	for {
		expr := p.parseAssignment()
		if expr == nil {
			return nil
		}
		list = append(list, expr)
		p.skipPeekNewlines()
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.skipPeekNewlines()
		p.nextToken()
	}

	if !p.expectPeek(end, what) {
		return nil
	}
	return list
}
