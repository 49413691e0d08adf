package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/regionck/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
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
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipWhitespace()

	switch l.ch {
	case '-':
		if l.peekChar() == '>' {
			line, col := l.line, l.column
			l.readChar()
			tok = token.Token{Type: token.ARROW, Lexeme: "->", Literal: "->", Line: line, Column: col}
		} else {
			tok = newToken(token.ILLEGAL, l.ch, l.line, l.column)
		}
	case '<':
		tok = newToken(token.LT, l.ch, l.line, l.column)
	case '>':
		tok = newToken(token.GT, l.ch, l.line, l.column)
	case '(':
		tok = newToken(token.LPAREN, l.ch, l.line, l.column)
	case ')':
		tok = newToken(token.RPAREN, l.ch, l.line, l.column)
	case '{':
		tok = newToken(token.LBRACE, l.ch, l.line, l.column)
	case '}':
		tok = newToken(token.RBRACE, l.ch, l.line, l.column)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, l.line, l.column)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, l.line, l.column)
	case ',':
		tok = newToken(token.COMMA, l.ch, l.line, l.column)
	case ':':
		tok = newToken(token.COLON, l.ch, l.line, l.column)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, l.line, l.column)
	case '&':
		tok = newToken(token.AMP, l.ch, l.line, l.column)
	case '|':
		// `||` stays two tokens: it is an empty closure parameter list.
		tok = newToken(token.PIPE, l.ch, l.line, l.column)
	case '+':
		tok = newToken(token.PLUS, l.ch, l.line, l.column)
	case '#':
		tok = newToken(token.HASH, l.ch, l.line, l.column)
	case '\'':
		startLine, startCol := l.line, l.column
		if !isLetter(l.peekChar()) {
			tok = newToken(token.ILLEGAL, l.ch, startLine, startCol)
			break
		}
		position := l.position
		l.readChar() // consume '
		for isLetter(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		lexeme := l.input[position:l.position]
		return token.Token{Type: token.LIFETIME, Lexeme: lexeme, Literal: lexeme, Line: startLine, Column: startCol}
	case 0:
		tok.Lexeme = ""
		tok.Type = token.EOF
		tok.Line = l.line
		tok.Column = l.column
	default:
		if isLetter(l.ch) {
			startLine, startCol := l.line, l.column
			lexeme := l.readIdentifier()
			tok.Lexeme = lexeme
			tok.Type = token.LookupIdent(lexeme)
			tok.Literal = lexeme
			tok.Line = startLine
			tok.Column = startCol
			return tok
		}
		tok = newToken(token.ILLEGAL, l.ch, l.line, l.column)
	}

	l.readChar()
	return tok
}

// Tokenize drains the lexer, including the trailing EOF token.
func (l *Lexer) Tokenize() []token.Token {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
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

func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		// Handle comments
		if l.ch == '/' {
			if l.peekChar() == '/' {
				l.readChar() // consume first /
				l.readChar() // consume second /
				for l.ch != '\n' && l.ch != 0 {
					l.readChar()
				}
				continue
			} else if l.peekChar() == '*' {
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
		}
		break
	}
}
