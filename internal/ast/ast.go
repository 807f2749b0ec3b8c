// Package ast defines the expression AST produced by internal/parser
// and consumed by internal/expreval. Scaled down from
// `internal/ast` (ast_core.go/ast_expressions.go) to the expression
// subset documents: arithmetic, comparisons, indexing,
// attribute access, calls, list/tuple/mapping literals and ranges.
package ast

// Node is any expression node.
type Node interface {
	String() string
}

type Identifier struct {
	Name string
}

func (i *Identifier) String() string { return i.Name }

type IntLiteral struct {
	Value int64
}

func (n *IntLiteral) String() string { return "" }

type FloatLiteral struct {
	Value float64
}

func (n *FloatLiteral) String() string { return "" }

type StringLiteral struct {
	Value string
}

func (n *StringLiteral) String() string { return "" }

type BoolLiteral struct {
	Value bool
}

func (n *BoolLiteral) String() string { return "" }

// ListLiteral is `[a, b, c]`.
type ListLiteral struct {
	Elements []Node
}

func (n *ListLiteral) String() string { return "" }

// TupleLiteral is `(a, b)`.
type TupleLiteral struct {
	Elements []Node
}

func (n *TupleLiteral) String() string { return "" }

// MappingLiteral is `{key: value,...}`.
type MappingLiteral struct {
	Keys   []string
	Values []Node
}

func (n *MappingLiteral) String() string { return "" }

// Range is `start:stop` or `start:step:stop`, valid both as a list
// shorthand and inside `$[…]` array literals.
type Range struct {
	Start, Step, Stop Node // Step may be nil (defaults to 1)
}

func (n *Range) String() string { return "" }

type PrefixExpr struct {
	Operator string
	Right    Node
}

func (n *PrefixExpr) String() string { return "" }

type InfixExpr struct {
	Left     Node
	Operator string
	Right    Node
}

func (n *InfixExpr) String() string { return "" }

// IndexExpr is `a[i]`, `a[i:j]` or `a[i, j,...]`.
type IndexExpr struct {
	Left  Node
	Index Node
}

func (n *IndexExpr) String() string { return "" }

// AttrExpr is `a.T`, `a.flatten`, `np.pi` — attribute/namespace access.
type AttrExpr struct {
	Left Node
	Name string
}

func (n *AttrExpr) String() string { return "" }

// CallExpr is `f(a, b)` / `a.reshape(2, 2)`.
type CallExpr struct {
	Callee Node
	Args   []Node
}

func (n *CallExpr) String() string { return "" }

// MatrixLiteral is a `$[...]` shorthand array literal, already
// structured into rows/planes by the parser.
type MatrixLiteral struct {
	// Rows holds one slice of element expressions per row (1-D arrays
	// have exactly one row). internal/parser never sets RangeExpr: a
	// `$[start:stop]`/`$[start:step:stop]` shorthand arrives as a single
	// *Range element in Rows.
	Rows      [][]Node
	RangeExpr *Range
}

func (n *MatrixLiteral) String() string { return "" }
