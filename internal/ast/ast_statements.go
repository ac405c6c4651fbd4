package ast

import (
	"fmt"
	"strings"

	"github.com/dcfrancisco/marina/internal/token"
)

// VarDeclaration: LOCAL x := 1
type VarDeclaration struct {
	Token token.Token
	Name  string
	Value Expression // nil when there is no initializer
	Scope VarScope
}

func (s *VarDeclaration) statementNode()        {}
func (s *VarDeclaration) TokenLiteral() string  { return s.Token.Lexeme }
func (s *VarDeclaration) GetToken() token.Token { return s.Token }
func (s *VarDeclaration) String() string {
	if s.Value == nil {
		return fmt.Sprintf("%s %s", s.Scope, s.Name)
	}
	return fmt.Sprintf("%s %s := %s", s.Scope, s.Name, s.Value)
}

// BlockStatement groups statements that share no scope of their own,
// e.g. LOCAL a, b, c.
type BlockStatement struct {
	Token      token.Token
	Statements []Statement
}

func (s *BlockStatement) statementNode()        {}
func (s *BlockStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *BlockStatement) GetToken() token.Token { return s.Token }
func (s *BlockStatement) String() string        { return "{" + joinStatements(s.Statements) + "}" }

type FunctionStatement struct {
	Token       token.Token
	Name        string
	Params      []string
	Body        []Statement
	IsProcedure bool
}

func (s *FunctionStatement) statementNode()        {}
func (s *FunctionStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *FunctionStatement) GetToken() token.Token { return s.Token }
func (s *FunctionStatement) String() string {
	kw := "FUNCTION"
	if s.IsProcedure {
		kw = "PROCEDURE"
	}
	return fmt.Sprintf("%s %s(%s) {%s}", kw, s.Name, strings.Join(s.Params, ", "), joinStatements(s.Body))
}

type ReturnStatement struct {
	Token token.Token
	Value Expression // nil for a bare RETURN
}

func (s *ReturnStatement) statementNode()        {}
func (s *ReturnStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *ReturnStatement) GetToken() token.Token { return s.Token }
func (s *ReturnStatement) String() string {
	if s.Value == nil {
		return "RETURN"
	}
	return "RETURN " + s.Value.String()
}

// IfStatement; ELSEIF chains are nested IfStatements in Else.
type IfStatement struct {
	Token     token.Token
	Condition Expression
	Then      []Statement
	Else      []Statement // nil when there is no ELSE
}

func (s *IfStatement) statementNode()        {}
func (s *IfStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *IfStatement) GetToken() token.Token { return s.Token }
func (s *IfStatement) String() string {
	out := fmt.Sprintf("IF %s {%s}", s.Condition, joinStatements(s.Then))
	if s.Else != nil {
		out += fmt.Sprintf(" ELSE {%s}", joinStatements(s.Else))
	}
	return out
}

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      []Statement
}

func (s *WhileStatement) statementNode()        {}
func (s *WhileStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *WhileStatement) GetToken() token.Token { return s.Token }
func (s *WhileStatement) String() string {
	return fmt.Sprintf("WHILE %s {%s}", s.Condition, joinStatements(s.Body))
}

type DoWhileStatement struct {
	Token     token.Token
	Body      []Statement
	Condition Expression
}

func (s *DoWhileStatement) statementNode()        {}
func (s *DoWhileStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *DoWhileStatement) GetToken() token.Token { return s.Token }
func (s *DoWhileStatement) String() string {
	return fmt.Sprintf("DO {%s} WHILE %s", joinStatements(s.Body), s.Condition)
}

type ForStatement struct {
	Token    token.Token
	Variable string
	Start    Expression
	End      Expression
	Step     Expression // nil means 1
	Body     []Statement
}

func (s *ForStatement) statementNode()        {}
func (s *ForStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *ForStatement) GetToken() token.Token { return s.Token }
func (s *ForStatement) String() string {
	out := fmt.Sprintf("FOR %s := %s TO %s", s.Variable, s.Start, s.End)
	if s.Step != nil {
		out += " STEP " + s.Step.String()
	}
	return out + " {" + joinStatements(s.Body) + "}"
}

// LoopStatement is an unconditional loop left only through EXIT.
type LoopStatement struct {
	Token token.Token
	Body  []Statement
}

func (s *LoopStatement) statementNode()        {}
func (s *LoopStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *LoopStatement) GetToken() token.Token { return s.Token }
func (s *LoopStatement) String() string        { return "LOOP {" + joinStatements(s.Body) + "}" }

type ExitStatement struct {
	Token token.Token
}

func (s *ExitStatement) statementNode()        {}
func (s *ExitStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *ExitStatement) GetToken() token.Token { return s.Token }
func (s *ExitStatement) String() string        { return "EXIT" }

type CaseClause struct {
	Token token.Token
	Label Expression
	Body  []Statement
}

type CaseStatement struct {
	Token     token.Token
	Scrutinee Expression
	Clauses   []CaseClause
	Otherwise []Statement // nil when there is no OTHERWISE
}

func (s *CaseStatement) statementNode()        {}
func (s *CaseStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *CaseStatement) GetToken() token.Token { return s.Token }
func (s *CaseStatement) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CASE %s", s.Scrutinee)
	for _, c := range s.Clauses {
		fmt.Fprintf(&sb, " [%s: %s]", c.Label, joinStatements(c.Body))
	}
	if s.Otherwise != nil {
		fmt.Fprintf(&sb, " [OTHERWISE: %s]", joinStatements(s.Otherwise))
	}
	return sb.String()
}

type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (s *ExpressionStatement) statementNode()        {}
func (s *ExpressionStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *ExpressionStatement) GetToken() token.Token { return s.Token }
func (s *ExpressionStatement) String() string        { return s.Expression.String() }

// Database statements. They compile to no-op opcodes.

type DbUseStatement struct {
	Token    token.Token
	Filename string
	Alias    string
}

func (s *DbUseStatement) statementNode()        {}
func (s *DbUseStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *DbUseStatement) GetToken() token.Token { return s.Token }
func (s *DbUseStatement) String() string {
	if s.Alias != "" {
		return fmt.Sprintf("USE %s ALIAS %s", s.Filename, s.Alias)
	}
	return "USE " + s.Filename
}

type DbSkipStatement struct {
	Token token.Token
	Count Expression // nil means 1
}

func (s *DbSkipStatement) statementNode()        {}
func (s *DbSkipStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *DbSkipStatement) GetToken() token.Token { return s.Token }
func (s *DbSkipStatement) String() string {
	if s.Count == nil {
		return "DBSKIP"
	}
	return "DBSKIP " + s.Count.String()
}

type DbGoTopStatement struct {
	Token token.Token
}

func (s *DbGoTopStatement) statementNode()        {}
func (s *DbGoTopStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *DbGoTopStatement) GetToken() token.Token { return s.Token }
func (s *DbGoTopStatement) String() string        { return "DBGOTOP" }

type DbGoBottomStatement struct {
	Token token.Token
}

func (s *DbGoBottomStatement) statementNode()        {}
func (s *DbGoBottomStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *DbGoBottomStatement) GetToken() token.Token { return s.Token }
func (s *DbGoBottomStatement) String() string        { return "DBGOBOTTOM" }

type DbSeekStatement struct {
	Token token.Token
	Key   Expression
}

func (s *DbSeekStatement) statementNode()        {}
func (s *DbSeekStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *DbSeekStatement) GetToken() token.Token { return s.Token }
func (s *DbSeekStatement) String() string        { return "DBSEEK " + s.Key.String() }

type ReplaceStatement struct {
	Token token.Token
	Field string
	Value Expression
}

func (s *ReplaceStatement) statementNode()        {}
func (s *ReplaceStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *ReplaceStatement) GetToken() token.Token { return s.Token }
func (s *ReplaceStatement) String() string {
	return fmt.Sprintf("REPLACE %s WITH %s", s.Field, s.Value)
}
