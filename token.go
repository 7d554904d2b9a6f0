package pjac

import "fmt"

// TokenType is the type of token (identifier, operator, literal, etc.).
type TokenType string

// Definition of token types
const (
	// Special tokens
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers + literals
	IDENT  TokenType = "IDENT"  // main, foo, _bar
	OPCODE TokenType = "OPCODE" // the name right after asm
	INT    TokenType = "INT"    // 12345, -3
	STRING TokenType = "STRING"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"

	// Operators and delimiters
	ASSIGN    TokenType = "="
	ARROW     TokenType = "->"
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"

	// Keywords
	FUNCTION TokenType = "FUNCTION"
	VAR      TokenType = "VAR"
	IF       TokenType = "IF"
	WHILE    TokenType = "WHILE"
	BREAK    TokenType = "BREAK"
	RETURN   TokenType = "RETURN"
	ASM      TokenType = "ASM"

	// Type names
	INT_TYPE       TokenType = "INT_TYPE"
	BOOL_TYPE      TokenType = "BOOL_TYPE"
	STRING_TYPE    TokenType = "STRING_TYPE"
	AUTO_TYPE      TokenType = "AUTO_TYPE"
	UNDEFINED_TYPE TokenType = "UNDEFINED_TYPE"
)

var keywords = map[string]TokenType{
	"function":  FUNCTION,
	"var":       VAR,
	"if":        IF,
	"while":     WHILE,
	"break":     BREAK,
	"return":    RETURN,
	"asm":       ASM,
	"true":      TRUE,
	"false":     FALSE,
	"int":       INT_TYPE,
	"bool":      BOOL_TYPE,
	"string":    STRING_TYPE,
	"auto":      AUTO_TYPE,
	"undefined": UNDEFINED_TYPE,
}

// Position is a 1-based line and column in the source text.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexeme. Literal holds the source spelling, except for strings
// where it holds the decoded value.
type Token struct {
	Type     TokenType
	Literal  string
	IntValue int64 // only meaningful when Type == INT
	Pos      Position
}

// isTypeName reports whether the token names one of the declarable types.
func isTypeName(tt TokenType) bool {
	switch tt {
	case INT_TYPE, BOOL_TYPE, STRING_TYPE, AUTO_TYPE, UNDEFINED_TYPE:
		return true
	}
	return false
}
