package parser

import (
	"fmt"

	"github.com/ovitrac/pizza3go/internal/ast"
	"github.com/ovitrac/pizza3go/internal/lexer"
	"github.com/ovitrac/pizza3go/internal/token"
)

// ParseShorthandArray parses the interior of a `$[…]` literal
//: `a b c` / `a,b,c` -> 1-D row, `a;b;c` -> column,
// `a b; c d` -> 2-D matrix, `start:stop`/`start:step:stop` -> inclusive
// range, and arbitrarily nested brackets for 3-D/4-D arrays.
func ParseShorthandArray(inner string) (*ast.MatrixLiteral, error) {
	p := New(lexer.New(inner))
	lit, err := p.parseMatrixBody(token.EOF)
	if err != nil {
		return nil, err
	}
	if !p.curIs(token.EOF) && !p.peekIs(token.EOF) {
		return nil, fmt.Errorf("unexpected trailing content in array literal")
	}
	return lit, nil
}

// parseMatrixBody parses a sequence of rows (semicolon separated) of
// elements (whitespace/comma separated), where an element may itself
// be a nested `[...]` bracket (for 3-D/4-D) or a `start:stop` range.
// end is the token that terminates this body without being consumed:
// token.EOF at the top level, token.RBRACKET one level inside a
// nested `[...]` sub-array.
func (p *Parser) parseMatrixBody(end token.Type) (*ast.MatrixLiteral, error) {
	var rows [][]ast.Node
	var cur []ast.Node
	for {
		el, err := p.parseMatrixElement()
		if err != nil {
			return nil, err
		}
		cur = append(cur, el)
		for p.peekIs(token.COMMA) {
			p.nextToken()
		}
		if p.peekIs(token.SEMICOLON) {
			rows = append(rows, cur)
			cur = nil
			p.nextToken()
			p.nextToken()
			continue
		}
		if p.peekIs(end) {
			break
		}
		p.nextToken()
	}
	rows = append(rows, cur)
	return &ast.MatrixLiteral{Rows: rows}, nil
}

// parseMatrixElement parses one element: a nested bracketed
// sub-array, a bare range `a:b`/`a:b:c`, or a plain expression.
func (p *Parser) parseMatrixElement() (ast.Node, error) {
	if p.curIs(token.LBRACKET) {
		p.nextToken()
		sub, err := p.parseMatrixBody(token.RBRACKET)
		if err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.RBRACKET); err != nil {
			return nil, err
		}
		return sub, nil
	}
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return expr, nil
}
