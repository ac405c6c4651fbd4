package ast

import (
	"fmt"
	"strconv"

	"github.com/dcfrancisco/marina/internal/token"
)

type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (e *NumberLiteral) expressionNode()       {}
func (e *NumberLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *NumberLiteral) GetToken() token.Token { return e.Token }
func (e *NumberLiteral) String() string        { return strconv.FormatFloat(e.Value, 'g', -1, 64) }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (e *StringLiteral) expressionNode()       {}
func (e *StringLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *StringLiteral) GetToken() token.Token { return e.Token }
func (e *StringLiteral) String() string        { return strconv.Quote(e.Value) }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (e *BooleanLiteral) expressionNode()       {}
func (e *BooleanLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *BooleanLiteral) GetToken() token.Token { return e.Token }
func (e *BooleanLiteral) String() string {
	if e.Value {
		return "TRUE"
	}
	return "FALSE"
}

type NilLiteral struct {
	Token token.Token
}

func (e *NilLiteral) expressionNode()       {}
func (e *NilLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *NilLiteral) GetToken() token.Token { return e.Token }
func (e *NilLiteral) String() string        { return "NIL" }

// ArrayLiteral: {1, 2, 3}
type ArrayLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (e *ArrayLiteral) expressionNode()       {}
func (e *ArrayLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *ArrayLiteral) GetToken() token.Token { return e.Token }
func (e *ArrayLiteral) String() string        { return "{" + joinExpressions(e.Elements) + "}" }

type Identifier struct {
	Token token.Token
	Value string
}

func (e *Identifier) expressionNode()       {}
func (e *Identifier) TokenLiteral() string  { return e.Token.Lexeme }
func (e *Identifier) GetToken() token.Token { return e.Token }
func (e *Identifier) String() string        { return e.Value }

// AssignExpression: name := value. Augmented forms are desugared by the parser.
type AssignExpression struct {
	Token token.Token
	Name  string
	Value Expression
}

func (e *AssignExpression) expressionNode()       {}
func (e *AssignExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *AssignExpression) GetToken() token.Token { return e.Token }
func (e *AssignExpression) String() string {
	return fmt.Sprintf("(%s := %s)", e.Name, e.Value)
}

type PrefixExpression struct {
	Token    token.Token
	Operator string // "-" or "NOT"
	Right    Expression
}

func (e *PrefixExpression) expressionNode()       {}
func (e *PrefixExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *PrefixExpression) GetToken() token.Token { return e.Token }
func (e *PrefixExpression) String() string {
	if e.Operator == "NOT" {
		return fmt.Sprintf("(NOT %s)", e.Right)
	}
	return fmt.Sprintf("(%s%s)", e.Operator, e.Right)
}

type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (e *InfixExpression) expressionNode()       {}
func (e *InfixExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *InfixExpression) GetToken() token.Token { return e.Token }
func (e *InfixExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Operator, e.Right)
}

// CallExpression calls a function by name. User functions and builtins
// are told apart at run time.
type CallExpression struct {
	Token     token.Token
	Function  string
	Arguments []Expression
}

func (e *CallExpression) expressionNode()       {}
func (e *CallExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *CallExpression) GetToken() token.Token { return e.Token }
func (e *CallExpression) String() string {
	return fmt.Sprintf("%s(%s)", e.Function, joinExpressions(e.Arguments))
}

type IndexExpression struct {
	Token token.Token
	Left  Expression
	Index Expression
}

func (e *IndexExpression) expressionNode()       {}
func (e *IndexExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *IndexExpression) GetToken() token.Token { return e.Token }
func (e *IndexExpression) String() string        { return fmt.Sprintf("%s[%s]", e.Left, e.Index) }

// ModuleMemberExpression: math.max used as a value.
type ModuleMemberExpression struct {
	Token    token.Token
	Module   string
	Function string
}

func (e *ModuleMemberExpression) expressionNode()       {}
func (e *ModuleMemberExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *ModuleMemberExpression) GetToken() token.Token { return e.Token }
func (e *ModuleMemberExpression) String() string        { return e.Module + "." + e.Function }

// ModuleCallExpression: math.max(1, 2)
type ModuleCallExpression struct {
	Token     token.Token
	Module    string
	Function  string
	Arguments []Expression
}

func (e *ModuleCallExpression) expressionNode()       {}
func (e *ModuleCallExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *ModuleCallExpression) GetToken() token.Token { return e.Token }
func (e *ModuleCallExpression) String() string {
	return fmt.Sprintf("%s.%s(%s)", e.Module, e.Function, joinExpressions(e.Arguments))
}
