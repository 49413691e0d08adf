// Package diagnostics holds the front-end error type shared by the lexer,
// parser and analyzer.
package diagnostics

import (
	"fmt"

	"github.com/funvibe/regionck/internal/token"
)

type ErrorCode string

const (
	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // illegal character
	ErrP003 ErrorCode = "P003" // malformed generics list
	ErrP004 ErrorCode = "P004" // malformed where-clause
	ErrP005 ErrorCode = "P005" // malformed closure
	ErrP006 ErrorCode = "P006" // expected delimiter

	// Analyzer
	ErrA001 ErrorCode = "A001" // unknown local
	ErrA002 ErrorCode = "A002" // unknown function
	ErrA003 ErrorCode = "A003" // unsatisfied trait bound
	ErrA004 ErrorCode = "A004" // wrong number of arguments
	ErrA005 ErrorCode = "A005" // undeclared lifetime
	ErrA006 ErrorCode = "A006" // closure parameter type cannot be inferred
	ErrA007 ErrorCode = "A007" // duplicate definition
	ErrA008 ErrorCode = "A008" // unknown trait
	ErrA009 ErrorCode = "A009" // unknown type parameter
)

var errorTemplates = map[ErrorCode]string{
	ErrP001: "unexpected token: %s",
	ErrP002: "illegal character %s",
	ErrP003: "malformed generic parameter list: %s",
	ErrP004: "malformed where-clause: %s",
	ErrP005: "malformed closure: %s",
	ErrP006: "%s",
	ErrA001: "cannot find value `%s` in this scope",
	ErrA002: "cannot find function `%s` in this scope",
	ErrA003: "the trait bound `%s` is not satisfied",
	ErrA004: "%s",
	ErrA005: "use of undeclared lifetime name `%s`",
	ErrA006: "type annotations needed for closure parameter `%s`",
	ErrA007: "the name `%s` is defined multiple times",
	ErrA008: "cannot find trait `%s` in this scope",
	ErrA009: "cannot find type parameter `%s` in this scope",
}

// DiagnosticError is a located front-end error.
type DiagnosticError struct {
	Code  ErrorCode
	Token token.Token
	File  string
	Args  []interface{}
}

func NewError(code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Args: args}
}

// Message is the error text without location.
func (e *DiagnosticError) Message() string {
	tmpl, ok := errorTemplates[e.Code]
	if !ok {
		return fmt.Sprint(e.Args...)
	}
	return fmt.Sprintf(tmpl, e.Args...)
}

func (e *DiagnosticError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Token.Line, e.Token.Column)
	if e.File != "" {
		loc = e.File + ":" + loc
	}
	return fmt.Sprintf("%s: error[%s]: %s", loc, e.Code, e.Message())
}
