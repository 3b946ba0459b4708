package parser

import (
	"fmt"
	"plastic/internal/ast"
	"plastic/internal/lexer"
	"plastic/internal/token"
	"plastic/internal/util"
	"slices"
	"strconv"
	"strings"
)

const (
	_           int = iota
	LOWEST          // statement level
	ASSIGN          // := and =
	LAMBDA          // x => body
	LOGICAL_OR      // ||
	LOGICAL_AND     // &&
	EQUALS          // ==
	COMPARISON      // > or <
	SUM             // +
	PRODUCT         // *
	PREFIX          // -X or !X
	POSTFIX         // X++
	CALL            // f(X), a.b, f {block}
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:    ASSIGN,
	token.DECLARE:   ASSIGN,
	token.ROCKET:    LAMBDA,
	token.LOGIC_OR:  LOGICAL_OR,
	token.LOGIC_AND: LOGICAL_AND,
	token.EQ:        EQUALS,
	token.NOT_EQ:    EQUALS,
	token.LT:        COMPARISON,
	token.LT_EQ:     COMPARISON,
	token.GT:        COMPARISON,
	token.GT_EQ:     COMPARISON,
	token.PLUS:      SUM,
	token.MINUS:     SUM,
	token.SLASH:     PRODUCT,
	token.ASTERISK:  PRODUCT,
	token.PERCENT:   PRODUCT,
	token.INCREMENT: POSTFIX,
	token.DECREMENT: POSTFIX,
	token.PERIOD:    CALL,
	token.LPAREN:    CALL,
	token.LBRACE:    CALL,
}

// SyntaxError reports malformed input. Incomplete is set when the input ended
// before the construct was closed, which lets a REPL ask for more lines.
type SyntaxError struct {
	Position   int
	Line       int
	Column     int
	Msg        string
	Incomplete bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error [%3d:%2d] %s", e.Line, e.Column, e.Msg)
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

type Parser struct {
	tokenizer lexer.Tokenizer
	src       string // source code here
	errors    []*SyntaxError

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	// calls records applications written with parentheses, f(x), as opposed to
	// operator applications, so a trailing block knows whether to append itself.
	calls map[*ast.ListValue]bool
}

// Parse turns source text into a Statements node.
func Parse(src string) (*ast.Statements, error) {
	p := New(lexer.New(src), src)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return program, nil
}

func New(l lexer.Tokenizer, source string) *Parser {
	p := &Parser{
		tokenizer: l,
		src:       source,
		calls:     make(map[*ast.ListValue]bool),
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseSymbol)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseBlock)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.PLUS, token.MINUS, token.SLASH, token.ASTERISK, token.PERCENT,
		token.EQ, token.NOT_EQ, token.LT, token.LT_EQ, token.GT, token.GT_EQ,
		token.LOGIC_AND, token.LOGIC_OR,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.ASSIGN, p.parseAssignExpression)
	p.registerInfix(token.DECLARE, p.parseAssignExpression)
	p.registerInfix(token.ROCKET, p.parseLambdaExpression)
	p.registerInfix(token.INCREMENT, p.parsePostfixExpression)
	p.registerInfix(token.DECREMENT, p.parsePostfixExpression)
	p.registerInfix(token.PERIOD, p.parseMemberExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACE, p.parseTrailingBlock)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.tokenizer.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

func (p *Parser) addErrorAt(tok token.Token, message string, args ...any) {
	line, col := util.GetLineAndColumn(p.src, tok.Position)
	p.errors = append(p.errors, &SyntaxError{
		Position:   tok.Position,
		Line:       line,
		Column:     col,
		Msg:        fmt.Sprintf(message, args...),
		Incomplete: tok.Type == token.EOF || tok.Unterminated,
	})
}

func (p *Parser) peekError(t token.TokenType) {
	p.addErrorAt(p.peekToken, "expected next token to be %s, got %s instead", t, describe(p.peekToken))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.ILLEGAL {
		p.addErrorAt(tok, "illegal token %q", tok.Literal)
		return
	}
	p.addErrorAt(tok, "unexpected %s", describe(tok))
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Literal)
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) Errors() []*SyntaxError {
	return p.errors
}

func (p *Parser) ParseProgram() *ast.Statements {
	program := &ast.Statements{Position: p.curToken.Position}
	program.Items = p.parseStatementList(token.EOF)
	return program
}

// parseStatementList parses statements up to (not consuming) the closing token.
// Statements are separated by ';' or line breaks.
func (p *Parser) parseStatementList(end token.TokenType) []ast.Node {
	items := []ast.Node{}
	for !p.curTokenIs(end) {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(token.EOF) {
			p.addErrorAt(p.curToken, "expected %s, got end of input", end)
			return nil
		}

		stmt := p.parseExpression(LOWEST)
		if p.failed() {
			return nil
		}
		items = append(items, stmt)
		closedBlock := p.curTokenIs(token.RBRACE)
		p.nextToken()

		// `if (c) { a } else { b }` may share a line; anything else needs a separator.
		if !p.curTokenIs(end) && !p.curTokenIs(token.SEMICOLON) && !p.curToken.NewlineBefore && !closedBlock {
			p.addErrorAt(p.curToken, "expected ';' or a new line before %s", describe(p.curToken))
			return nil
		}
	}
	return items
}

func (p *Parser) parseExpression(precedence int) ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()

	for !p.failed() && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		if !p.continuesAcrossLines(leftExp) {
			return leftExp
		}
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

// continuesAcrossLines decides whether the peek token may extend leftExp. A '(' or
// '++' on a new line starts a new statement; a '{' only binds across a line break
// to the closing ')' of a call, which is how `if (c)\n{ ... }` gets its body.
func (p *Parser) continuesAcrossLines(left ast.Node) bool {
	switch p.peekToken.Type {
	case token.LPAREN, token.INCREMENT, token.DECREMENT:
		return !p.peekToken.NewlineBefore
	case token.LBRACE:
		switch left.(type) {
		case *ast.Symbol, *ast.ListValue, *ast.Statements:
		default:
			return false
		}
		return !p.peekToken.NewlineBefore || p.curTokenIs(token.RPAREN)
	}
	return true
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) parseSymbol() ast.Node {
	return &ast.Symbol{Position: p.curToken.Position, Name: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() ast.Node {
	lit := &ast.NumberLiteral{Position: p.curToken.Position}
	if strings.Contains(p.curToken.Literal, ".") {
		value, err := strconv.ParseFloat(p.curToken.Literal, 64)
		if err != nil {
			p.addErrorAt(p.curToken, "could not parse %q as number", p.curToken.Literal)
			return nil
		}
		lit.Value = value
		return lit
	}
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addErrorAt(p.curToken, "could not parse %q as number", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Node {
	return &ast.StringLiteral{Position: p.curToken.Position, Value: p.curToken.Literal}
}

func (p *Parser) parsePrefixExpression() ast.Node {
	tok := p.curToken
	p.nextToken()
	right := p.parseExpression(PREFIX)
	if p.failed() {
		return nil
	}
	name := "_not"
	if tok.Type == token.MINUS {
		name = "_neg"
	}
	return ast.Apply(tok.Position, name, right)
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if p.failed() {
		return nil
	}
	return ast.Apply(tok.Position, token.Operators[tok.Type], left, right)
}

// parseAssignExpression is right associative: a := b := c assigns c to both.
func (p *Parser) parseAssignExpression(left ast.Node) ast.Node {
	tok := p.curToken
	p.nextToken()
	right := p.parseExpression(ASSIGN - 1)
	if p.failed() {
		return nil
	}
	return ast.Apply(tok.Position, "assign", left, right)
}

// parseLambdaExpression desugars `x => body` and `(a, b) => body` into func(params..., body).
func (p *Parser) parseLambdaExpression(left ast.Node) ast.Node {
	tok := p.curToken
	var params []ast.Node
	switch l := left.(type) {
	case *ast.Symbol:
		params = []ast.Node{l}
	case *ast.TupleValue:
		for _, item := range l.Items {
			if _, ok := item.(*ast.Symbol); !ok {
				p.addErrorAt(tok, "lambda parameters must be names, got %s", item.String())
				return nil
			}
		}
		params = l.Items
	default:
		p.addErrorAt(tok, "lambda parameters must be names, got %s", left.String())
		return nil
	}

	p.nextToken()
	body := p.parseExpression(LAMBDA - 1)
	if p.failed() {
		return nil
	}
	args := append(append([]ast.Node{}, params...), body)
	return ast.Apply(tok.Position, "func", args...)
}

// parsePostfixExpression desugars x++ into assign(x, _add(x, 1)).
func (p *Parser) parsePostfixExpression(left ast.Node) ast.Node {
	tok := p.curToken
	op := "_add"
	if tok.Type == token.DECREMENT {
		op = "_sub"
	}
	one := &ast.NumberLiteral{Position: tok.Position, Value: int64(1)}
	return ast.Apply(tok.Position, "assign", left, ast.Apply(tok.Position, op, left, one))
}

func (p *Parser) parseMemberExpression(left ast.Node) ast.Node {
	tok := p.curToken
	p.nextToken()
	right := p.parseExpression(CALL)
	if p.failed() {
		return nil
	}
	return ast.Apply(tok.Position, "_dot", left, right)
}

func (p *Parser) parseCallExpression(function ast.Node) ast.Node {
	call := &ast.ListValue{Position: function.Pos(), Head: function}
	// for (i := 0; i < n; i++) separates call arguments with ';'
	call.Rest = p.parseExpressionList(token.RPAREN, token.COMMA, token.SEMICOLON)
	if p.failed() {
		return nil
	}
	p.calls[call] = true
	return call
}

// parseTrailingBlock appends a `{ ... }` body as the last argument of the
// preceding application: `if (c) { b }` is if(c, {b}) and `else { b }` is else({b}).
func (p *Parser) parseTrailingBlock(left ast.Node) ast.Node {
	block := p.parseBlock()
	if p.failed() {
		return nil
	}
	if call, ok := left.(*ast.ListValue); ok && p.calls[call] {
		rest := append(append([]ast.Node{}, call.Rest...), block)
		extended := &ast.ListValue{Position: call.Position, Head: call.Head, Rest: rest}
		p.calls[extended] = true
		return extended
	}
	return &ast.ListValue{Position: left.Pos(), Head: left, Rest: []ast.Node{block}}
}

func (p *Parser) parseBlock() ast.Node {
	block := &ast.Statements{Position: p.curToken.Position}
	p.nextToken()
	block.Items = p.parseStatementList(token.RBRACE)
	if p.failed() {
		return nil
	}
	return block
}

func (p *Parser) parseArrayLiteral() ast.Node {
	array := &ast.ArrayValue{Position: p.curToken.Position}
	array.Items = p.parseExpressionList(token.RBRACKET)
	if p.failed() {
		return nil
	}
	return array
}

// parseGroupedExpression handles (x), the empty tuple () and tuples (a, b, ...).
func (p *Parser) parseGroupedExpression() ast.Node {
	start := p.curToken.Position
	items := p.parseExpressionList(token.RPAREN)
	if p.failed() {
		return nil
	}
	if len(items) == 1 {
		return items[0]
	}
	return &ast.TupleValue{Position: start, Items: items}
}

// parseExpressionList parses items up to end. Items are separated by commas unless
// other separators are given.
func (p *Parser) parseExpressionList(end token.TokenType, separators ...token.TokenType) []ast.Node {
	if len(separators) == 0 {
		separators = []token.TokenType{token.COMMA}
	}
	list := []ast.Node{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for !p.failed() && slices.Contains(separators, p.peekToken.Type) {
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	if p.failed() || !p.expectPeek(end) {
		return nil
	}

	return list
}
