package lexer

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/dcfrancisco/marina/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int
	column       int
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

// Tokens scans the whole input. The returned slice always ends with EOF.
func (l *Lexer) Tokens() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipWhitespace()

	line, col := l.line, l.column

	switch l.ch {
	case '\n':
		tok = newToken(token.NEWLINE, l.ch, line, col)
	case ':':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.ASSIGN, ":=", line, col)
		} else {
			tok = newToken(token.COLON, l.ch, line, col)
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.EQ, "==", line, col)
		} else {
			tok = newToken(token.ASSIGN, l.ch, line, col)
		}
	case '+':
		switch l.peekChar() {
		case '+':
			l.readChar()
			tok = twoCharToken(token.INCREMENT, "++", line, col)
		case '=':
			l.readChar()
			tok = twoCharToken(token.PLUS_ASSIGN, "+=", line, col)
		default:
			tok = newToken(token.PLUS, l.ch, line, col)
		}
	case '-':
		switch l.peekChar() {
		case '-':
			l.readChar()
			tok = twoCharToken(token.DECREMENT, "--", line, col)
		case '=':
			l.readChar()
			tok = twoCharToken(token.MINUS_ASSIGN, "-=", line, col)
		case '>':
			l.readChar()
			tok = twoCharToken(token.ARROW, "->", line, col)
		default:
			tok = newToken(token.MINUS, l.ch, line, col)
		}
	case '*':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.MUL_ASSIGN, "*=", line, col)
		} else {
			tok = newToken(token.ASTERISK, l.ch, line, col)
		}
	case '/':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.DIV_ASSIGN, "/=", line, col)
		} else {
			tok = newToken(token.SLASH, l.ch, line, col)
		}
	case '%':
		tok = newToken(token.PERCENT, l.ch, line, col)
	case '^':
		tok = newToken(token.POWER, l.ch, line, col)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.NOT_EQ, "!=", line, col)
		} else {
			tok = newToken(token.NOT, l.ch, line, col)
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = twoCharToken(token.LTE, "<=", line, col)
		case '>':
			l.readChar()
			tok = twoCharToken(token.NOT_EQ, "<>", line, col)
		default:
			tok = newToken(token.LT, l.ch, line, col)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.GTE, ">=", line, col)
		} else {
			tok = newToken(token.GT, l.ch, line, col)
		}
	case '?':
		if l.peekChar() == '?' {
			l.readChar()
			tok = twoCharToken(token.QUESTION_QQ, "??", line, col)
		} else {
			tok = newToken(token.QUESTION, l.ch, line, col)
		}
	case ',':
		tok = newToken(token.COMMA, l.ch, line, col)
	case '.':
		tok = newToken(token.DOT, l.ch, line, col)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, line, col)
	case '(':
		tok = newToken(token.LPAREN, l.ch, line, col)
	case ')':
		tok = newToken(token.RPAREN, l.ch, line, col)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, line, col)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, line, col)
	case '{':
		tok = newToken(token.LBRACE, l.ch, line, col)
	case '}':
		tok = newToken(token.RBRACE, l.ch, line, col)
	case '"', '\'':
		return l.readString(l.ch, line, col)
	case 0:
		return token.Token{Type: token.EOF, Lexeme: "", Line: line, Column: col}
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Literal: ident, Line: line, Column: col}
		}
		if isDigit(l.ch) {
			return l.readNumber(line, col)
		}
		tok = token.Token{Type: token.ILLEGAL, Lexeme: string(l.ch), Literal: "unexpected character '" + string(l.ch) + "'", Line: line, Column: col}
	}

	l.readChar()
	return tok
}

func (l *Lexer) readString(quote rune, line, col int) token.Token {
	position := l.position + utf8.RuneLen(quote)
	for {
		l.readChar()
		if l.ch == quote || l.ch == 0 {
			break
		}
	}
	if l.ch == 0 {
		lexeme := l.input[position-1:]
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: "unterminated string", Line: line, Column: col}
	}
	value := l.input[position:l.position]
	l.readChar() // closing quote
	return token.Token{Type: token.STRING, Lexeme: string(quote) + value + string(quote), Literal: value, Line: line, Column: col}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber(line, col int) token.Token {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // .
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	lexeme := l.input[position:l.position]
	val, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: err.Error(), Line: line, Column: col}
	}
	return token.Token{Type: token.NUMBER, Lexeme: lexeme, Literal: val, Line: line, Column: col}
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func newToken(tokenType token.TokenType, ch rune, line, col int) token.Token {
	literal := string(ch)
	return token.Token{Type: tokenType, Lexeme: literal, Literal: literal, Line: line, Column: col}
}

func twoCharToken(tokenType token.TokenType, lexeme string, line, col int) token.Token {
	return token.Token{Type: tokenType, Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
}

func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.readChar()
		}
		switch {
		case l.ch == '/' && l.peekChar() == '/', l.ch == '&' && l.peekChar() == '&':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // consume /
			l.readChar() // consume *
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // consume *
					l.readChar() // consume /
					break
				}
				l.readChar()
			}
			continue
		}
		break
	}
}
