package parser

import (
	"fmt"
	"strconv"

	"fable/internal/ast"
	"fable/internal/token"
)

// ParseError carries the position of the first unexpected token. The parser
// aborts on the first error; there is no multi-error batching.
type ParseError struct {
	Line    int
	Col     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Message)
}

const (
	_          int = iota
	LOWEST         //
	LOGICAL_OR     // or, xor
	LOGICAL_AND    // and
	EQUALS         // ==, !=
	COMPARISON     // <, <=, >, >=
	SUM            // +, -
	PRODUCT        // *, /, div, mod
	PREFIX         // -x, not x
	CALL           // f(x), seq[i], obj.field
)

var precedences = map[token.TokenType]int{
	token.OR:       LOGICAL_OR,
	token.XOR:      LOGICAL_OR,
	token.AND:      LOGICAL_AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       COMPARISON,
	token.LT_EQ:    COMPARISON,
	token.GT:       COMPARISON,
	token.GT_EQ:    COMPARISON,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.DIV:      PRODUCT,
	token.MOD:      PRODUCT,
	token.LPAREN:   CALL,
	token.LBRACKET: CALL,
	token.PERIOD:   CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	tokens []token.Token
	pos    int
	err    *ParseError

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NIL, p.parseNilLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseSequenceLiteral)
	p.registerPrefix(token.LBRACE, p.parseMappingLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH,
		token.DIV, token.MOD,
		token.EQ, token.NOT_EQ,
		token.LT, token.LT_EQ, token.GT, token.GT_EQ,
		token.AND, token.OR, token.XOR,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.PERIOD, p.parseFieldExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	} else if len(p.tokens) > 0 {
		p.peekToken = p.tokens[len(p.tokens)-1] // EOF repeats
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) addErrorAt(tok token.Token, message string, args ...interface{}) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{Line: tok.Line, Col: tok.Column, Message: fmt.Sprintf(message, args...)}
}

func (p *Parser) addError(message string, args ...interface{}) {
	p.addErrorAt(p.curToken, message, args...)
}

func (p *Parser) peekError(t token.TokenType) {
	p.addErrorAt(p.peekToken, "expected next token to be %s, got %s instead", t, p.peekToken.Type)
}

func (p *Parser) noPrefixParseFnError(t token.TokenType) {
	p.addError("unexpected token %s", t)
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// ParseProgram parses the full token stream. On a grammar error it returns
// nil and the first ParseError encountered.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for !p.curTokenIs(token.EOF) && p.err == nil {
		stmt := p.parseStatement()
		if p.err != nil {
			return nil, p.err
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}
	if p.err != nil {
		return nil, p.err
	}

	return program, nil
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.VAR, token.LET, token.CONST:
		return p.parseDeclStatement()
	case token.PROC:
		return p.parseProcStatement()
	case token.OBJECT:
		return p.parseObjectStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		stmt := &ast.BreakStatement{Token: p.curToken}
		p.skipOptionalSemicolon()
		return stmt
	case token.CONTINUE:
		stmt := &ast.ContinueStatement{Token: p.curToken}
		p.skipOptionalSemicolon()
		return stmt
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	default:
		return p.parseExpressionOrAssignStatement()
	}
}

func (p *Parser) skipOptionalSemicolon() {
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) parseDeclStatement() *ast.DeclStatement {
	stmt := &ast.DeclStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)

	p.skipOptionalSemicolon()
	return stmt
}

func (p *Parser) parseProcStatement() *ast.ProcStatement {
	stmt := &ast.ProcStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	stmt.Parameters = p.parseProcParameters()

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()

	return stmt
}

// parseBlockStatement collects statements between the current LBRACE and its
// closing RBRACE. On return curToken is the RBRACE.
func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	block.Statements = []ast.Statement{}

	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) && p.err == nil {
		stmt := p.parseStatement()
		if p.err != nil {
			return block
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	if p.err == nil && !p.curTokenIs(token.RBRACE) {
		p.addError("unterminated block, expected }")
	}

	return block
}

func (p *Parser) parseProcParameters() []*ast.Identifier {
	params := []*ast.Identifier{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}

	p.nextToken()
	params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

func (p *Parser) parseObjectStatement() *ast.ObjectStatement {
	stmt := &ast.ObjectStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Fields = append(stmt.Fields, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return stmt
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	// `return` with no value: next token starts a new statement or closes a block
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		return stmt
	}
	if p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.EOF) {
		return stmt
	}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)

	p.skipOptionalSemicolon()
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Then = p.parseBlockStatement()

	if p.peekTokenIs(token.ELIF) {
		p.nextToken()
		stmt.Else = p.parseIfStatement() // elif chains nest as the else branch
	} else if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.Else = p.parseBlockStatement()
	}

	return stmt
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()

	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	forToken := p.curToken

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	loopVar := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)

	if p.peekTokenIs(token.TO) {
		p.nextToken()
		p.nextToken()
		to := p.parseExpression(LOWEST)
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		return &ast.ForRangeStatement{
			Token: forToken,
			Var:   loopVar,
			From:  first,
			To:    to,
			Body:  p.parseBlockStatement(),
		}
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	return &ast.ForEachStatement{
		Token: forToken,
		Var:   loopVar,
		Seq:   first,
		Body:  p.parseBlockStatement(),
	}
}

// parseExpressionOrAssignStatement parses an expression and, when it is
// followed by `=` or `:=`, reinterprets it as an assignment target.
func (p *Parser) parseExpressionOrAssignStatement() ast.Statement {
	startToken := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}

	if p.peekTokenIs(token.ASSIGN) || p.peekTokenIs(token.DECLARE) {
		p.nextToken()
		stmt := &ast.AssignStatement{
			Token:   p.curToken,
			Target:  expr,
			Declare: p.curTokenIs(token.DECLARE),
		}

		switch expr.(type) {
		case *ast.Identifier:
			// any target form is fine
		case *ast.IndexExpression, *ast.FieldExpression:
			if stmt.Declare {
				p.addError(":= target must be a plain identifier")
				return nil
			}
		default:
			p.addErrorAt(startToken, "invalid assignment target")
			return nil
		}

		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
		p.skipOptionalSemicolon()
		return stmt
	}

	stmt := &ast.ExpressionStatement{Token: startToken, Expression: expr}
	p.skipOptionalSemicolon()
	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	leftExp := prefix()

	for p.err == nil && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{Token: p.curToken}

	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addError("could not parse %q as integer", p.curToken.Literal)
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("could not parse %q as float", p.curToken.Literal)
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNilLiteral() ast.Expression {
	return &ast.NilLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)

	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)

	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Function: function}
	exp.Arguments = p.parseExpressionList(token.RPAREN)
	return exp
}

func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	if !p.expectPeek(end) {
		return nil
	}
	return list
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	expr := &ast.IndexExpression{Token: p.curToken, Left: left}

	p.nextToken()
	expr.Index = p.parseExpression(LOWEST)

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return expr
}

func (p *Parser) parseFieldExpression(left ast.Expression) ast.Expression {
	expr := &ast.FieldExpression{Token: p.curToken, Left: left}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expr.Field = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	return expr
}

func (p *Parser) parseSequenceLiteral() ast.Expression {
	seq := &ast.SequenceLiteral{Token: p.curToken}
	seq.Elements = p.parseExpressionList(token.RBRACKET)
	return seq
}

func (p *Parser) parseMappingLiteral() ast.Expression {
	mapping := &ast.MappingLiteral{Token: p.curToken}

	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()

		key := p.parseExpression(LOWEST)
		// bare identifiers as keys are shorthand for strings
		if ident, ok := key.(*ast.Identifier); ok {
			key = &ast.StringLiteral{Token: ident.Token, Value: ident.Value}
		}

		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)

		mapping.Keys = append(mapping.Keys, key)
		mapping.Values = append(mapping.Values, value)

		if !p.peekTokenIs(token.RBRACE) && !p.expectPeek(token.COMMA) {
			return nil
		}
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return mapping
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
