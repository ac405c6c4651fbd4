package token

import (
	"sort"
	"strings"
)

type TokenType string

type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"
	NEWLINE TokenType = "NEWLINE"

	// Literals
	IDENT  TokenType = "IDENT"
	NUMBER TokenType = "NUMBER"
	STRING TokenType = "STRING"

	// Operators
	ASSIGN       TokenType = ":="
	PLUS         TokenType = "+"
	MINUS        TokenType = "-"
	ASTERISK     TokenType = "*"
	SLASH        TokenType = "/"
	PERCENT      TokenType = "%"
	POWER        TokenType = "^"
	EQ           TokenType = "=="
	NOT_EQ       TokenType = "!="
	LT           TokenType = "<"
	LTE          TokenType = "<="
	GT           TokenType = ">"
	GTE          TokenType = ">="
	PLUS_ASSIGN  TokenType = "+="
	MINUS_ASSIGN TokenType = "-="
	MUL_ASSIGN   TokenType = "*="
	DIV_ASSIGN   TokenType = "/="
	INCREMENT    TokenType = "++"
	DECREMENT    TokenType = "--"
	QUESTION     TokenType = "?"
	QUESTION_QQ  TokenType = "??"
	ARROW        TokenType = "->"

	// Delimiters
	COMMA     TokenType = ","
	DOT       TokenType = "."
	SEMICOLON TokenType = ";"
	COLON     TokenType = ":"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"

	// Keywords
	FUNCTION  TokenType = "FUNCTION"
	PROCEDURE TokenType = "PROCEDURE"
	RETURN    TokenType = "RETURN"
	ENDFUNC   TokenType = "ENDFUNC"
	LOCAL     TokenType = "LOCAL"
	STATIC    TokenType = "STATIC"
	PRIVATE   TokenType = "PRIVATE"
	PUBLIC    TokenType = "PUBLIC"
	IF        TokenType = "IF"
	ELSE      TokenType = "ELSE"
	ELSEIF    TokenType = "ELSEIF"
	ENDIF     TokenType = "ENDIF"
	DO        TokenType = "DO"
	WHILE     TokenType = "WHILE"
	ENDDO     TokenType = "ENDDO"
	FOR       TokenType = "FOR"
	TO        TokenType = "TO"
	STEP      TokenType = "STEP"
	NEXT      TokenType = "NEXT"
	EXIT      TokenType = "EXIT"
	LOOP      TokenType = "LOOP"
	ENDLOOP   TokenType = "ENDLOOP"
	CASE      TokenType = "CASE"
	ENDCASE   TokenType = "ENDCASE"
	OTHERWISE TokenType = "OTHERWISE"
	TRUE      TokenType = "TRUE"
	FALSE     TokenType = "FALSE"
	NIL       TokenType = "NIL"
	AND       TokenType = "AND"
	OR        TokenType = "OR"
	NOT       TokenType = "NOT"

	// Database keywords
	USE        TokenType = "USE"
	DBSKIP     TokenType = "DBSKIP"
	DBGOTOP    TokenType = "DBGOTOP"
	DBGOBOTTOM TokenType = "DBGOBOTTOM"
	DBSEEK     TokenType = "DBSEEK"
	REPLACE    TokenType = "REPLACE"
)

var keywords = map[string]TokenType{
	"FUNCTION":   FUNCTION,
	"PROCEDURE":  PROCEDURE,
	"RETURN":     RETURN,
	"ENDFUNC":    ENDFUNC,
	"ENDPROC":    ENDFUNC,
	"LOCAL":      LOCAL,
	"STATIC":     STATIC,
	"PRIVATE":    PRIVATE,
	"PUBLIC":     PUBLIC,
	"IF":         IF,
	"ELSE":       ELSE,
	"ELSEIF":     ELSEIF,
	"ENDIF":      ENDIF,
	"DO":         DO,
	"WHILE":      WHILE,
	"ENDDO":      ENDDO,
	"FOR":        FOR,
	"TO":         TO,
	"STEP":       STEP,
	"NEXT":       NEXT,
	"EXIT":       EXIT,
	"LOOP":       LOOP,
	"ENDLOOP":    ENDLOOP,
	"CASE":       CASE,
	"ENDCASE":    ENDCASE,
	"OTHERWISE":  OTHERWISE,
	"TRUE":       TRUE,
	"FALSE":      FALSE,
	"NIL":        NIL,
	"AND":        AND,
	"OR":         OR,
	"NOT":        NOT,
	"USE":        USE,
	"DBSKIP":     DBSKIP,
	"DBGOTOP":    DBGOTOP,
	"DBGOBOTTOM": DBGOBOTTOM,
	"DBSEEK":     DBSEEK,
	"REPLACE":    REPLACE,
}

// LookupIdent returns the keyword type for ident, ignoring case, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return IDENT
}

// Keywords returns the reserved words in upper case, sorted.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// IsKeyword reports whether the token type is a reserved word.
func IsKeyword(t TokenType) bool {
	for _, k := range keywords {
		if k == t {
			return true
		}
	}
	return false
}
