package pjac

// Parser is a recursive-descent parser over a token slice. It stops at the
// first grammar violation.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over tokens, which must end with EOF.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes and parses a whole program.
func Parse(src []byte) (*ASTNode, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).ParseProgram()
}

func (p *Parser) curr() Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) next() {
	if p.curr().Type != EOF {
		p.pos++
	}
}

// expect consumes the current token if it has the given type.
func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	tok := p.curr()
	if tok.Type != tt {
		return tok, p.unexpected(what)
	}
	p.next()
	return tok, nil
}

func (p *Parser) unexpected(what string) error {
	tok := p.curr()
	err := errorf(SyntaxError, tok.Pos, "expected %s but got %s", what, describe(tok))
	err.incomplete = tok.Type == EOF
	return err
}

func describe(tok Token) string {
	switch tok.Type {
	case EOF:
		return "end of input"
	case IDENT, OPCODE, INT:
		return string(tok.Type) + " '" + tok.Literal + "'"
	case STRING:
		return "string literal"
	default:
		return "'" + tok.Literal + "'"
	}
}

// ParseProgram parses function declarations until end of input.
func (p *Parser) ParseProgram() (*ASTNode, error) {
	program := &ASTNode{Kind: NodeProgram, Pos: p.curr().Pos}
	for p.curr().Type != EOF {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		program.Children = append(program.Children, fn)
	}
	return program, nil
}

func (p *Parser) parseFunction() (*ASTNode, error) {
	start, err := p.expect(FUNCTION, "'function'")
	if err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}

	fn := &ASTNode{Kind: NodeFunc, Pos: start.Pos, String: name.Literal}
	for p.curr().Type != RPAREN {
		if len(fn.Params) > 0 {
			if _, err := p.expect(COMMA, "',' or ')'"); err != nil {
				return nil, err
			}
		}
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, param)
	}
	p.next() // consume ')'

	if p.curr().Type == ARROW {
		p.next()
		fn.DeclType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Children = []*ASTNode{body}
	return fn, nil
}

func (p *Parser) parseParam() (*ASTNode, error) {
	pos := p.curr().Pos
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT, "parameter name")
	if err != nil {
		return nil, err
	}
	return &ASTNode{Kind: NodeParam, Pos: pos, String: name.Literal, DeclType: typ}, nil
}

func (p *Parser) parseType() (Type, error) {
	tok := p.curr()
	if !isTypeName(tok.Type) {
		return TypeVoid, p.unexpected("type name")
	}
	p.next()
	return typeFromToken(tok.Type), nil
}

func (p *Parser) parseBlock() (*ASTNode, error) {
	start, err := p.expect(LBRACE, "'{'")
	if err != nil {
		return nil, err
	}
	block := &ASTNode{Kind: NodeBlock, Pos: start.Pos}
	for p.curr().Type != RBRACE {
		if p.curr().Type == EOF {
			return nil, p.unexpected("'}'")
		}
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		block.Children = append(block.Children, stmt)
	}
	p.next() // consume '}'
	return block, nil
}

// ParseStatement parses a statement and returns an AST node
func (p *Parser) ParseStatement() (*ASTNode, error) {
	tok := p.curr()
	switch tok.Type {
	case VAR:
		return p.parseVar()

	case IF, WHILE:
		p.next()
		cond, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		kind := NodeIf
		if tok.Type == WHILE {
			kind = NodeWhile
		}
		return &ASTNode{Kind: kind, Pos: tok.Pos, Children: []*ASTNode{cond, body}}, nil

	case BREAK:
		p.next()
		if _, err := p.expect(SEMICOLON, "';'"); err != nil {
			return nil, err
		}
		return &ASTNode{Kind: NodeBreak, Pos: tok.Pos}, nil

	case RETURN:
		p.next()
		node := &ASTNode{Kind: NodeReturn, Pos: tok.Pos}
		if p.curr().Type != SEMICOLON {
			value, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			node.Children = []*ASTNode{value}
		}
		if _, err := p.expect(SEMICOLON, "';'"); err != nil {
			return nil, err
		}
		return node, nil

	case ASM:
		return p.parseAsm()

	case LBRACE:
		return p.parseBlock()

	case IDENT:
		if p.peek().Type == ASSIGN {
			p.pos += 2 // name and '='
			value, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(SEMICOLON, "';'"); err != nil {
				return nil, err
			}
			return &ASTNode{Kind: NodeAssign, Pos: tok.Pos, String: tok.Literal, Children: []*ASTNode{value}}, nil
		}
	}

	// Expression statement
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseVar() (*ASTNode, error) {
	start := p.curr()
	p.next() // consume 'var'
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT, "variable name")
	if err != nil {
		return nil, err
	}
	node := &ASTNode{Kind: NodeVar, Pos: start.Pos, String: name.Literal, DeclType: typ}
	if p.curr().Type == ASSIGN {
		p.next()
		init, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		node.Children = []*ASTNode{init}
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return node, nil
}

// parseAsm parses a raw instruction. Operands are plain identifiers or
// literals; calls are not allowed here.
func (p *Parser) parseAsm() (*ASTNode, error) {
	start := p.curr()
	p.next() // consume 'asm'
	opcode, err := p.expect(OPCODE, "opcode")
	if err != nil {
		return nil, err
	}
	node := &ASTNode{Kind: NodeAsm, Pos: start.Pos, String: opcode.Literal}
	for p.curr().Type != SEMICOLON {
		tok := p.curr()
		var operand *ASTNode
		if tok.Type == IDENT {
			operand = &ASTNode{Kind: NodeIdent, Pos: tok.Pos, String: tok.Literal}
			p.next()
		} else {
			operand, err = p.parseLiteral()
			if err != nil {
				return nil, err
			}
		}
		node.Children = append(node.Children, operand)
	}
	p.next() // consume ';'
	return node, nil
}

// ParseExpression parses a literal, an identifier or a call.
func (p *Parser) ParseExpression() (*ASTNode, error) {
	tok := p.curr()
	if tok.Type != IDENT {
		return p.parseLiteral()
	}
	p.next()
	if p.curr().Type != LPAREN {
		return &ASTNode{Kind: NodeIdent, Pos: tok.Pos, String: tok.Literal}, nil
	}
	p.next() // consume '('

	call := &ASTNode{Kind: NodeCall, Pos: tok.Pos, String: tok.Literal}
	for p.curr().Type != RPAREN {
		if len(call.Children) > 0 {
			if _, err := p.expect(COMMA, "',' or ')'"); err != nil {
				return nil, err
			}
		}
		arg, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		call.Children = append(call.Children, arg)
	}
	p.next() // consume ')'
	return call, nil
}

func (p *Parser) parseLiteral() (*ASTNode, error) {
	tok := p.curr()
	var node *ASTNode
	switch tok.Type {
	case INT:
		node = &ASTNode{Kind: NodeInteger, Pos: tok.Pos, Integer: tok.IntValue}
	case STRING:
		node = &ASTNode{Kind: NodeString, Pos: tok.Pos, String: tok.Literal}
	case TRUE, FALSE:
		node = &ASTNode{Kind: NodeBoolean, Pos: tok.Pos, Boolean: tok.Type == TRUE}
	default:
		return nil, p.unexpected("expression")
	}
	p.next()
	return node, nil
}
