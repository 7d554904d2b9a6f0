package pjac

import (
	"strconv"
	"strings"
)

// Lexer turns source text into tokens. A Lexer is single use; to restart,
// construct a new one over the same input.
type Lexer struct {
	input     []byte
	pos       int // current reading position in input
	line      int
	lineStart int // offset of the first byte of the current line
	prev      TokenType
}

// NewLexer creates a lexer over the given input.
func NewLexer(input []byte) *Lexer {
	return &Lexer{input: input, line: 1}
}

// Tokenize lexes the whole input. The returned slice always ends with an EOF
// token.
func Tokenize(input []byte) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.pos - l.lineStart + 1}
}

// peek returns the byte off bytes ahead, or 0 past the end of input.
func (l *Lexer) peek(off int) byte {
	if l.pos+off >= len(l.input) {
		return 0
	}
	return l.input[l.pos+off]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) advance() {
	if l.input[l.pos] == '\n' {
		l.line++
		l.lineStart = l.pos + 1
	}
	l.pos++
}

// NextToken scans the next token.
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipWhitespace(); err != nil {
		return Token{}, err
	}

	start := l.position()
	tok, err := l.scan(start)
	if err != nil {
		return Token{}, err
	}
	tok.Pos = start
	l.prev = tok.Type
	return tok, nil
}

func (l *Lexer) scan(start Position) (Token, error) {
	if l.atEnd() {
		return Token{Type: EOF}, nil
	}

	c := l.input[l.pos]
	switch c {
	case '(', ')', '{', '}', ',', ';', '=':
		l.advance()
		return Token{Type: TokenType(string(c)), Literal: string(c)}, nil
	case '-':
		if l.peek(1) == '>' {
			l.pos += 2
			return Token{Type: ARROW, Literal: "->"}, nil
		}
		if isDigit(l.peek(1)) {
			return l.readNumber(start)
		}
		return Token{}, errorf(LexError, start, "unexpected character '-'")
	case '"':
		return l.readString(start)
	}

	if isLetter(c) {
		lit := l.readIdentifier()
		if l.prev == ASM {
			return Token{Type: OPCODE, Literal: lit}, nil
		}
		if kw, ok := keywords[lit]; ok {
			return Token{Type: kw, Literal: lit}, nil
		}
		return Token{Type: IDENT, Literal: lit}, nil
	}
	if isDigit(c) {
		return l.readNumber(start)
	}

	return Token{}, errorf(LexError, start, "unexpected character %q", rune(c))
}

func (l *Lexer) skipWhitespace() error {
	for !l.atEnd() {
		c := l.input[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			l.advance()
		case c == '/' && l.peek(1) == '/':
			for !l.atEnd() && l.input[l.pos] != '\n' {
				l.advance()
			}
		case c == '/' && l.peek(1) == '*':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) skipBlockComment() error {
	start := l.position()
	l.pos += 2 // skip /*
	for !l.atEnd() {
		if l.input[l.pos] == '*' && l.peek(1) == '/' {
			l.pos += 2
			return nil
		}
		l.advance()
	}
	err := errorf(LexError, start, "unterminated block comment")
	err.incomplete = true
	return err
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for !l.atEnd() && (isLetter(l.input[l.pos]) || isDigit(l.input[l.pos])) {
		l.pos++
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readNumber(start Position) (Token, error) {
	begin := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for !l.atEnd() && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if !l.atEnd() && isLetter(l.input[l.pos]) {
		return Token{}, errorf(LexError, l.position(), "unexpected character %q in number", rune(l.input[l.pos]))
	}
	lit := string(l.input[begin:l.pos])
	val, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return Token{}, errorf(LexError, start, "integer literal %s out of range", lit)
	}
	return Token{Type: INT, Literal: lit, IntValue: val}, nil
}

// readString reads a double-quoted string and decodes its escape sequences.
// An escaped character with no special meaning stands for itself.
func (l *Lexer) readString(start Position) (Token, error) {
	l.advance() // skip opening "
	var sb strings.Builder
	for {
		if l.atEnd() {
			err := errorf(LexError, start, "unterminated string literal")
			err.incomplete = true
			return Token{}, err
		}
		c := l.input[l.pos]
		if c == '"' {
			l.advance()
			return Token{Type: STRING, Literal: sb.String()}, nil
		}
		if c == '\\' && l.pos+1 < len(l.input) {
			l.advance()
			sb.WriteByte(unescape(l.input[l.pos]))
			l.advance()
			continue
		}
		sb.WriteByte(c)
		l.advance()
	}
}

func unescape(c byte) byte {
	switch c {
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	default:
		// \' \" \? \\ and anything else
		return c
	}
}
