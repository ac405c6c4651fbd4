// Package diagnostics carries located errors and warnings from the
// lexer, parser and compiler to the CLI and the language server.
package diagnostics

import (
	"fmt"
	"unicode/utf8"

	"github.com/dcfrancisco/marina/internal/token"
)

type ErrorCode string

const (
	ErrL001 ErrorCode = "L001" // illegal character
	ErrL002 ErrorCode = "L002" // unterminated string
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // missing token
	ErrP003 ErrorCode = "P003" // invalid assignment target
	ErrC001 ErrorCode = "C001" // compile error
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Span is a 1-based source range on a single line.
type Span struct {
	Line   int
	Column int
	Len    int
}

type DiagnosticError struct {
	Code     ErrorCode
	Severity Severity
	Token    token.Token
	File     string
	Message  string
}

func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Severity: SeverityError, Token: tok, Message: msg}
}

func NewWarning(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Severity: SeverityWarning, Token: tok, Message: msg}
}

func (e *DiagnosticError) Error() string {
	loc := fmt.Sprintf("line %d, column %d", e.Token.Line, e.Token.Column)
	if e.File != "" {
		loc = fmt.Sprintf("%s:%d:%d", e.File, e.Token.Line, e.Token.Column)
	}
	return fmt.Sprintf("%s: %s [%s]", loc, e.Message, e.Code)
}

// Span returns the range covered by the offending token, at least one
// character wide.
func (e *DiagnosticError) Span() Span {
	n := utf8.RuneCountInString(e.Token.Lexeme)
	if n < 1 {
		n = 1
	}
	line := e.Token.Line
	if line < 1 {
		line = 1
	}
	col := e.Token.Column
	if col < 1 {
		col = 1
	}
	return Span{Line: line, Column: col, Len: n}
}
