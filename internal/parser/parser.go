// Package parser builds an expression AST from a token stream, using
// the same Pratt-parser shape (prefix/infix function tables keyed by
// token type, precedence-climbing parseExpression) as
// internal/parser/expressions_core.go, scaled to the expression
// grammar documents.
package parser

import (
	"fmt"
	"strconv"

	"github.com/ovitrac/pizza3go/internal/ast"
	"github.com/ovitrac/pizza3go/internal/lexer"
	"github.com/ovitrac/pizza3go/internal/token"
)

const MaxRecursionDepth = 10 // recursion-depth cap for nested expressions

const (
	_ int = iota
	LOWEST
	RANGE_PREC
	OR_PREC
	AND_PREC
	EQUALS
	LESSGREATER
	SUM
	PRODUCT
	POWER_PREC
	PREFIX
	CALL
	INDEX
	ATTR
)

var precedences = map[token.Type]int{
	token.OR:        OR_PREC,
	token.AND:       AND_PREC,
	token.EQ:        EQUALS,
	token.NOT_EQ:    EQUALS,
	token.LT:        LESSGREATER,
	token.GT:        LESSGREATER,
	token.LTE:       LESSGREATER,
	token.GTE:       LESSGREATER,
	token.PLUS:      SUM,
	token.MINUS:     SUM,
	token.ASTERISK:  PRODUCT,
	token.SLASH:     PRODUCT,
	token.PERCENT:   PRODUCT,
	token.AT:        PRODUCT,
	token.POWER:     POWER_PREC,
	token.LPAREN:    CALL,
	token.LBRACKET:  INDEX,
	token.DOT:       ATTR,
	token.COLON:     RANGE_PREC,
}

type (
	prefixParseFn func() (ast.Node, error)
	infixParseFn  func(ast.Node) (ast.Node, error)
)

type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	depth int

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.prefixParseFns = map[token.Type]prefixParseFn{}
	p.infixParseFns = map[token.Type]infixParseFn{}

	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.NOT, p.parsePrefixExpr)
	p.registerPrefix(token.BANG, p.parsePrefixExpr)
	p.registerPrefix(token.LPAREN, p.parseGroupedOrTuple)
	p.registerPrefix(token.LBRACKET, p.parseListOrRange)
	p.registerPrefix(token.LBRACE, p.parseMappingLiteral)

	for _, t := range []token.Type{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT,
		token.POWER, token.AT, token.EQ, token.NOT_EQ, token.LT, token.GT,
		token.LTE, token.GTE, token.AND, token.OR,
	} {
		p.registerInfix(t, p.parseInfixExpr)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpr)
	p.registerInfix(token.LBRACKET, p.parseIndexExpr)
	p.registerInfix(token.DOT, p.parseAttrExpr)
	p.registerInfix(token.COLON, p.parseRangeTail)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t token.Type, fn infixParseFn) { p.infixParseFns[t] = fn }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curIs(t token.Type) bool { return p.curToken.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) error {
	if p.peekIs(t) {
		p.nextToken()
		return nil
	}
	return fmt.Errorf("expected next token %s, got %s (%q) at %d:%d", t, p.peekToken.Type, p.peekToken.Lexeme, p.peekToken.Line, p.peekToken.Column)
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

// ParseExpression is the public entry point: parse a complete
// expression from the lexer and report any leftover input.
func ParseExpression(src string) (ast.Node, error) {
	p := New(lexer.New(src))
	node, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if !p.curIs(token.EOF) && !p.peekIs(token.EOF) {
		p.nextToken()
		if !p.curIs(token.EOF) {
			return nil, fmt.Errorf("unexpected trailing token %q", p.curToken.Lexeme)
		}
	}
	return node, nil
}

func (p *Parser) parseExpression(precedence int) (ast.Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxRecursionDepth {
		return nil, fmt.Errorf("recursion overflow: expression nested deeper than %d", MaxRecursionDepth)
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		return nil, fmt.Errorf("no prefix parse function for %s (%q)", p.curToken.Type, p.curToken.Lexeme)
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}

	for !p.peekIs(token.EOF) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left, nil
		}
		p.nextToken()
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseIdentifier() (ast.Node, error) {
	return &ast.Identifier{Name: p.curToken.Lexeme}, nil
}

func (p *Parser) parseIntLiteral() (ast.Node, error) {
	v, err := strconv.ParseInt(p.curToken.Lexeme, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer literal %q: %w", p.curToken.Lexeme, err)
	}
	return &ast.IntLiteral{Value: v}, nil
}

func (p *Parser) parseFloatLiteral() (ast.Node, error) {
	v, err := strconv.ParseFloat(p.curToken.Lexeme, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid float literal %q: %w", p.curToken.Lexeme, err)
	}
	return &ast.FloatLiteral{Value: v}, nil
}

func (p *Parser) parseStringLiteral() (ast.Node, error) {
	return &ast.StringLiteral{Value: p.curToken.Lexeme}, nil
}

func (p *Parser) parseBoolLiteral() (ast.Node, error) {
	return &ast.BoolLiteral{Value: p.curToken.Type == token.TRUE}, nil
}

func (p *Parser) parsePrefixExpr() (ast.Node, error) {
	op := string(p.curToken.Type)
	p.nextToken()
	right, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	return &ast.PrefixExpr{Operator: op, Right: right}, nil
}

func (p *Parser) parseInfixExpr(left ast.Node) (ast.Node, error) {
	op := string(p.curToken.Type)
	prec := p.curPrecedence()
	p.nextToken()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return &ast.InfixExpr{Left: left, Operator: op, Right: right}, nil
}

// parseGroupedOrTuple handles `(expr)` and `(a, b,...)`.
func (p *Parser) parseGroupedOrTuple() (ast.Node, error) {
	p.nextToken()
	if p.curIs(token.RPAREN) {
		return &ast.TupleLiteral{}, nil
	}
	first, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.peekIs(token.COMMA) {
		elems := []ast.Node{first}
		for p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			if p.curIs(token.RPAREN) {
				break
			}
			el, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		}
		if err := p.expectPeek(token.RPAREN); err != nil {
			return nil, err
		}
		return &ast.TupleLiteral{Elements: elems}, nil
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	return first, nil
}

// parseListOrRange handles `[a, b]`, `[a b; c d]`, and `start:stop`
// shorthand that appears directly as a list element producer.
func (p *Parser) parseListOrRange() (ast.Node, error) {
	p.nextToken()
	if p.curIs(token.RBRACKET) {
		return &ast.ListLiteral{}, nil
	}
	elems, err := p.parseBracketedRows(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	if len(elems) == 1 {
		return &ast.ListLiteral{Elements: elems[0]}, nil
	}
	// `[a b; c d]` outside `$[…]` -> nested lists.
	rows := make([]ast.Node, len(elems))
	for i, r := range elems {
		rows[i] = &ast.ListLiteral{Elements: r}
	}
	return &ast.ListLiteral{Elements: rows}, nil
}

// parseBracketedRows parses whitespace/comma separated elements and
// semicolon-separated rows up to (and consuming) the closing
// delimiter of a `[...]` list literal. The `$[...]` shorthand has its
// own parser, parseMatrixBody in matrix.go.
func (p *Parser) parseBracketedRows(end token.Type) ([][]ast.Node, error) {
	var rows [][]ast.Node
	var cur []ast.Node
	for {
		el, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		cur = append(cur, el)
		if p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		if p.peekIs(token.SEMICOLON) {
			rows = append(rows, cur)
			cur = nil
			p.nextToken()
			p.nextToken()
			continue
		}
		if p.peekIs(end) || p.peekIs(token.EOF) {
			break
		}
		// Whitespace-separated element: the next token starts it.
		p.nextToken()
	}
	rows = append(rows, cur)
	if err := p.expectPeek(end); err != nil {
		return nil, err
	}
	return rows, nil
}

func (p *Parser) parseMappingLiteral() (ast.Node, error) {
	m := &ast.MappingLiteral{}
	p.nextToken()
	if p.curIs(token.RBRACE) {
		return m, nil
	}
	for {
		var key string
		switch p.curToken.Type {
		case token.STRING:
			key = p.curToken.Lexeme
		case token.IDENT:
			key = p.curToken.Lexeme
		default:
			return nil, fmt.Errorf("mapping key must be a string or identifier, got %q", p.curToken.Lexeme)
		}
		if err := p.expectPeek(token.COLON); err != nil {
			return nil, err
		}
		p.nextToken()
		val, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, key)
		m.Values = append(m.Values, val)
		if p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if err := p.expectPeek(token.RBRACE); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Parser) parseCallExpr(fn ast.Node) (ast.Node, error) {
	call := &ast.CallExpr{Callee: fn}
	p.nextToken()
	if p.curIs(token.RPAREN) {
		return call, nil
	}
	for {
		arg, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parseIndexExpr(left ast.Node) (ast.Node, error) {
	p.nextToken()
	idx, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.IndexExpr{Left: left, Index: idx}, nil
}

func (p *Parser) parseAttrExpr(left ast.Node) (ast.Node, error) {
	if err := p.expectPeek(token.IDENT); err != nil {
		return nil, err
	}
	name := p.curToken.Lexeme
	node := ast.Node(&ast.AttrExpr{Left: left, Name: name})
	if p.peekIs(token.LPAREN) {
		p.nextToken()
		return p.parseCallExpr(node)
	}
	return node, nil
}

// parseRangeTail continues `start:` into a Range node, consuming an
// optional `:step` before the final stop.
func (p *Parser) parseRangeTail(start ast.Node) (ast.Node, error) {
	p.nextToken()
	second, err := p.parseExpression(RANGE_PREC)
	if err != nil {
		return nil, err
	}
	if p.peekIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		third, err := p.parseExpression(RANGE_PREC)
		if err != nil {
			return nil, err
		}
		return &ast.Range{Start: start, Step: second, Stop: third}, nil
	}
	return &ast.Range{Start: start, Stop: second}, nil
}
