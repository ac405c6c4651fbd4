package ast

import (
	"strings"

	"github.com/dcfrancisco/marina/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Program is the root node of every AST our parser produces.
type Program struct {
	File       string
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, s := range p.Statements {
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// VarScope is the storage class named in a declaration.
type VarScope int

const (
	ScopeLocal VarScope = iota
	ScopeStatic
	ScopePrivate
	ScopePublic
)

func (s VarScope) String() string {
	switch s {
	case ScopeStatic:
		return "STATIC"
	case ScopePrivate:
		return "PRIVATE"
	case ScopePublic:
		return "PUBLIC"
	default:
		return "LOCAL"
	}
}

func joinStatements(stmts []Statement) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
