package token

import "fmt"

type TokenType string

type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers
	IDENT    TokenType = "IDENT"    // supply, T, u32
	LIFETIME TokenType = "LIFETIME" // 'a, 'static

	// Delimiters
	COMMA     TokenType = ","
	COLON     TokenType = ":"
	SEMICOLON TokenType = ";"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"
	LT        TokenType = "<"
	GT        TokenType = ">"

	// Operators
	AMP   TokenType = "&"
	PIPE  TokenType = "|"
	PLUS  TokenType = "+"
	HASH  TokenType = "#"
	ARROW TokenType = "->"

	// Keywords
	FN      TokenType = "FN"
	TRAIT   TokenType = "TRAIT"
	WHERE   TokenType = "WHERE"
	REQUIRE TokenType = "REQUIRE"
)

var keywords = map[string]TokenType{
	"fn":      FN,
	"trait":   TRAIT,
	"where":   WHERE,
	"require": REQUIRE,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
