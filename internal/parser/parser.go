package parser

import (
	"fmt"
	"strings"

	"github.com/dcfrancisco/marina/internal/ast"
	"github.com/dcfrancisco/marina/internal/diagnostics"
	"github.com/dcfrancisco/marina/internal/pipeline"
	"github.com/dcfrancisco/marina/internal/token"
)

const (
	_ int = iota
	LOWEST
	OR_PREC
	AND_PREC
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * / %
	POWER       // ^
	PREFIX      // -x NOT x
	CALL        // f(x) a[i] m.f
)

var precedences = map[token.TokenType]int{
	token.OR:       OR_PREC,
	token.AND:      AND_PREC,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.LTE:      LESSGREATER,
	token.GT:       LESSGREATER,
	token.GTE:      LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.POWER:    POWER,
	token.LPAREN:   CALL,
	token.LBRACKET: CALL,
	token.DOT:      CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	tokens []token.Token
	pos    int

	curToken  token.Token
	peekToken token.Token

	ctx *pipeline.PipelineContext

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// New creates a parser over a token stream that ends with EOF. Errors are
// appended to ctx.
func New(tokens []token.Token, ctx *pipeline.PipelineContext) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF})
	}
	p := &Parser{tokens: tokens, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:  p.parseIdentifier,
		token.NUMBER: p.parseNumberLiteral,
		token.STRING: p.parseStringLiteral,
		token.TRUE:   p.parseBoolean,
		token.FALSE:  p.parseBoolean,
		token.NIL:    p.parseNil,
		token.LPAREN: p.parseGroupedExpression,
		token.LBRACE: p.parseArrayLiteral,
		token.MINUS:  p.parsePrefixExpression,
		token.NOT:    p.parsePrefixExpression,
	}

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.OR, token.AND, token.EQ, token.NOT_EQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT, token.POWER,
	} {
		p.infixParseFns[t] = p.parseInfixExpression
	}
	p.infixParseFns[token.LPAREN] = p.parseCallExpression
	p.infixParseFns[token.LBRACKET] = p.parseIndexExpression
	p.infixParseFns[token.DOT] = p.parseModuleMember

	p.curToken = p.tokens[0]
	p.peekToken = p.at(1)
	return p
}

func (p *Parser) at(i int) token.Token {
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.curToken = p.tokens[p.pos]
	p.peekToken = p.at(p.pos + 1)
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) curTokenIsAny(types ...token.TokenType) bool {
	for _, t := range types {
		if p.curToken.Type == t {
			return true
		}
	}
	return false
}

// curWordIs matches a contextual word such as ALIAS or WITH.
func (p *Parser) curWordIs(word string) bool {
	return p.curToken.Type == token.IDENT && strings.EqualFold(p.curToken.Lexeme, word)
}

func (p *Parser) expectPeek(t token.TokenType, what string) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorAt(diagnostics.ErrP002, p.peekToken, fmt.Sprintf("expected %s, got %s", what, describe(p.peekToken)))
	return false
}

// expectCur consumes the current token if it has type t.
func (p *Parser) expectCur(t token.TokenType, what string) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorAt(diagnostics.ErrP002, p.curToken, fmt.Sprintf("expected %s, got %s", what, describe(p.curToken)))
	return false
}

func (p *Parser) atStatementEnd() bool {
	return p.curTokenIsAny(token.NEWLINE, token.SEMICOLON, token.EOF)
}

func (p *Parser) skipSeparators() {
	for p.curTokenIsAny(token.NEWLINE, token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) skipPeekNewlines() {
	for p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}

func (p *Parser) errorAt(code diagnostics.ErrorCode, tok token.Token, msg string) {
	p.ctx.AddError(diagnostics.NewError(code, tok, msg))
}

func (p *Parser) errorCount() int { return len(p.ctx.Errors) }

// synchronize drops the rest of a broken statement that began at
// startPos. It always makes progress unless the input is exhausted.
func (p *Parser) synchronize(startPos int) {
	if p.pos == startPos && !p.curTokenIs(token.EOF) {
		p.nextToken()
	}
	for !p.atStatementEnd() {
		p.nextToken()
	}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "end of line"
	}
	return fmt.Sprintf("'%s'", tok.Lexeme)
}

// ParseProgram parses the whole token stream. The program is returned
// even when errors were recorded, for diagnostics.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{File: p.ctx.FilePath}
	program.Statements = p.parseBlock()
	for !p.curTokenIs(token.EOF) {
		p.errorAt(diagnostics.ErrP001, p.curToken, fmt.Sprintf("unexpected %s", describe(p.curToken)))
		p.synchronize(p.pos)
		program.Statements = append(program.Statements, p.parseBlock()...)
	}
	return program
}

// parseBlock parses statements until EOF or one of the terminators. The
// terminator is left as the current token.
func (p *Parser) parseBlock(terminators ...token.TokenType) []ast.Statement {
	stmts := []ast.Statement{}
	for {
		p.skipSeparators()
		if p.curTokenIs(token.EOF) || p.curTokenIsAny(terminators...) {
			return stmts
		}
		if isBlockCloser(p.curToken.Type) {
			return stmts
		}
		before, start := p.errorCount(), p.pos
		stmt := p.parseStatement()
		if p.errorCount() > before {
			p.synchronize(start)
			continue
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
}

// isBlockCloser reports tokens that can only end some enclosing block.
// Hitting one where it doesn't belong ends the current block so the
// enclosing parser can report or consume it.
func isBlockCloser(t token.TokenType) bool {
	switch t {
	case token.ENDIF, token.ELSE, token.ELSEIF, token.ENDDO, token.NEXT,
		token.ENDLOOP, token.ENDCASE, token.OTHERWISE:
		return true
	}
	return false
}
