// Package expreval evaluates an expression AST (internal/ast) against
// a name Resolver, implementing the operator/function/indexing subset
// needed for `${…}`/`@{…}` bodies. It is the innermost layer of
// pizza3go's sandboxed evaluator: no imports, no reflection, no
// attribute access beyond the whitelisted numeric-array method names.
//
// A plain tree-walking evaluator with no type-system/VM/async
// machinery: pizza3go's expression language has no user-defined
// functions, only a closed builtin table (internal/registry).
package expreval

import (
	"fmt"
	"math"

	"github.com/ovitrac/pizza3go/internal/ast"
	"github.com/ovitrac/pizza3go/internal/numarray"
	"github.com/ovitrac/pizza3go/internal/registry"
	"github.com/ovitrac/pizza3go/internal/value"
)

// Resolver looks up the current value of a name (a previously
// evaluated param/Evaluator key). Eval falls back to the reserved
// registry.Constants table when the Resolver reports no match, so a
// user key named `e` shadows the reserved constant rather than the
// other way around.
type Resolver interface {
	Resolve(name string) (value.Value, bool)
}

// MapResolver is the common case: a plain name->value snapshot.
type MapResolver map[string]value.Value

func (m MapResolver) Resolve(name string) (value.Value, bool) {
	v, ok := m[name]
	return v, ok
}

// builtinValue is a bound callable — the result of evaluating
// `np.array` or `arr.reshape` as a bare attribute, waiting to be
// invoked by a surrounding CallExpr. It is never surfaced to a
// TEMPLATE directly (calling code always calls it as part of the same
// expression), so its Kind/Text/Repr are evaluator-internal.
type builtinValue struct {
	name string
	fn   registry.Builtin
}

func (b *builtinValue) Kind() value.Kind { return value.KindError }
func (b *builtinValue) Text() string { return "<builtin " + b.name + ">" }
func (b *builtinValue) Repr() string { return b.Text() }

// npNamespace is the bound value of the bare identifier `np`.
type npNamespace struct{}

func (npNamespace) Kind() value.Kind { return value.KindError }
func (npNamespace) Text() string { return "<module np>" }
func (npNamespace) Repr() string { return "<module np>" }

// Eval evaluates node against res, returning the whitelisted-builtin
// sandbox result calls for.
func Eval(node ast.Node, res Resolver) (value.Value, error) {
	switch n := node.(type) {
	case *ast.IntLiteral:
		return value.Int(n.Value), nil
	case *ast.FloatLiteral:
		return value.Float(n.Value), nil
	case *ast.StringLiteral:
		return value.Str(n.Value), nil
	case *ast.BoolLiteral:
		return value.Bool(n.Value), nil
	case *ast.Identifier:
		return evalIdentifier(n, res)
	case *ast.ListLiteral:
		return evalList(n, res)
	case *ast.TupleLiteral:
		return evalTuple(n, res)
	case *ast.MappingLiteral:
		return evalMapping(n, res)
	case *ast.Range:
		return evalRange(n, res)
	case *ast.MatrixLiteral:
		arr, err := evalMatrixLiteral(n, res)
		if err != nil {
			return nil, err
		}
		return arr, nil
	case *ast.PrefixExpr:
		return evalPrefix(n, res)
	case *ast.InfixExpr:
		return evalInfix(n, res)
	case *ast.IndexExpr:
		return evalIndex(n, res)
	case *ast.AttrExpr:
		return evalAttr(n, res)
	case *ast.CallExpr:
		return evalCall(n, res)
	default:
		return nil, fmt.Errorf("expreval: unsupported node %T", node)
	}
}

func evalIdentifier(n *ast.Identifier, res Resolver) (value.Value, error) {
	if n.Name == "np" {
		return npNamespace{}, nil
	}
	if v, ok := res.Resolve(n.Name); ok {
		return v, nil
	}
	if v, ok := registry.Constants[n.Name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("Variable or function '%s' is not defined", n.Name)
}

func evalList(n *ast.ListLiteral, res Resolver) (value.Value, error) {
	out := make(value.List, len(n.Elements))
	for i, el := range n.Elements {
		v, err := Eval(el, res)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func evalTuple(n *ast.TupleLiteral, res Resolver) (value.Value, error) {
	out := make(value.Tuple, len(n.Elements))
	for i, el := range n.Elements {
		v, err := Eval(el, res)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func evalMapping(n *ast.MappingLiteral, res Resolver) (value.Value, error) {
	m := value.NewMapping()
	for i, k := range n.Keys {
		v, err := Eval(n.Values[i], res)
		if err != nil {
			return nil, err
		}
		m.Set(k, v)
	}
	return m, nil
}

// rangeFloats expands a Range node into its inclusive element list.
func rangeFloats(n *ast.Range, res Resolver) ([]float64, bool, error) {
	start, err := Eval(n.Start, res)
	if err != nil {
		return nil, false, err
	}
	stop, err := Eval(n.Stop, res)
	if err != nil {
		return nil, false, err
	}
	step := value.Value(value.Int(1))
	if n.Step != nil {
		step, err = Eval(n.Step, res)
		if err != nil {
			return nil, false, err
		}
	}
	sf, ok1 := value.AsFloat(start)
	ef, ok2 := value.AsFloat(stop)
	stf, ok3 := value.AsFloat(step)
	if !ok1 || !ok2 || !ok3 {
		return nil, false, fmt.Errorf("range bounds must be numeric")
	}
	if stf == 0 {
		return nil, false, fmt.Errorf("range step must be nonzero")
	}
	_, isInt := start.(value.Int)
	isIntAll := isInt
	if _, ok := stop.(value.Int); !ok {
		isIntAll = false
	}
	if _, ok := step.(value.Int); !ok {
		isIntAll = false
	}
	var out []float64
	if stf > 0 {
		for x := sf; x <= ef+1e-9; x += stf {
			out = append(out, x)
		}
	} else {
		for x := sf; x >= ef-1e-9; x += stf {
			out = append(out, x)
		}
	}
	return out, isIntAll, nil
}

func evalRange(n *ast.Range, res Resolver) (value.Value, error) {
	floats, isInt, err := rangeFloats(n, res)
	if err != nil {
		return nil, err
	}
	out := make(value.List, len(floats))
	for i, f := range floats {
		if isInt {
			out[i] = value.Int(int64(f))
		} else {
			out[i] = value.Float(f)
		}
	}
	return out, nil
}

// evalMatrixLiteral builds a numarray.Array from a parsed `$[…]` body.
// A lone Range element expands to a row; a single row of scalars
// becomes a 1×N array; a single column (one element per row) becomes
// an N×1 array; a full block stays R×C; nested *ast.MatrixLiteral
// elements stack along a new leading axis for 3-D/4-D arrays.
func evalMatrixLiteral(n *ast.MatrixLiteral, res Resolver) (*numarray.Array, error) {
	if len(n.Rows) == 1 && len(n.Rows[0]) == 1 {
		if rng, ok := n.Rows[0][0].(*ast.Range); ok {
			floats, _, err := rangeFloats(rng, res)
			if err != nil {
				return nil, err
			}
			return numarray.Row(floats).AtLeast2D(), nil
		}
		if sub, ok := n.Rows[0][0].(*ast.MatrixLiteral); ok {
			return evalMatrixLiteral(sub, res)
		}
	}

	// Nested planes: every row has exactly one MatrixLiteral element.
	allNested := true
	for _, row := range n.Rows {
		if len(row) != 1 {
			allNested = false
			break
		}
		if _, ok := row[0].(*ast.MatrixLiteral); !ok {
			allNested = false
			break
		}
	}
	if allNested && len(n.Rows) > 0 {
		planes := make([]*numarray.Array, len(n.Rows))
		for i, row := range n.Rows {
			p, err := evalMatrixLiteral(row[0].(*ast.MatrixLiteral), res)
			if err != nil {
				return nil, err
			}
			planes[i] = p
		}
		return numarray.Stack(planes)
	}

	rows := make([][]float64, len(n.Rows))
	for i, row := range n.Rows {
		fr := make([]float64, len(row))
		for j, el := range row {
			v, err := Eval(el, res)
			if err != nil {
				return nil, err
			}
			f, ok := value.AsFloat(v)
			if !ok {
				return nil, fmt.Errorf("array literal element is not numeric: %s", v.Kind())
			}
			fr[j] = f
		}
		rows[i] = fr
	}
	arr, err := numarray.Matrix(rows)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func evalPrefix(n *ast.PrefixExpr, res Resolver) (value.Value, error) {
	right, err := Eval(n.Right, res)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "-":
		if i, ok := right.(value.Int); ok {
			return -i, nil
		}
		f, ok := value.AsFloat(right)
		if !ok {
			return nil, fmt.Errorf("unary '-' requires a numeric operand")
		}
		return value.Float(-f), nil
	case "not", "!":
		return value.Bool(!value.Truthy(right)), nil
	default:
		return nil, fmt.Errorf("unknown prefix operator %q", n.Operator)
	}
}

func toArrayOperand(v value.Value) (*numarray.Array, bool, error) {
	switch v.(type) {
	case *numarray.Array, value.List, value.Int, value.Float:
		arr, err := registry.ToArray(v)
		return arr, err == nil, err
	default:
		return nil, false, nil
	}
}

func evalInfix(n *ast.InfixExpr, res Resolver) (value.Value, error) {
	left, err := Eval(n.Left, res)
	if err != nil {
		return nil, err
	}
	right, err := Eval(n.Right, res)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "and":
		return value.Bool(value.Truthy(left) && value.Truthy(right)), nil
	case "or":
		return value.Bool(value.Truthy(left) || value.Truthy(right)), nil
	case "@":
		la, err := registry.ToArray(left)
		if err != nil {
			return nil, fmt.Errorf("'@' left operand: %w", err)
		}
		ra, err := registry.ToArray(right)
		if err != nil {
			return nil, fmt.Errorf("'@' right operand: %w", err)
		}
		return la.MatMul(ra)
	case "==":
		return value.Bool(value.Equal(left, right)), nil
	case "!=":
		return value.Bool(!value.Equal(left, right)), nil
	case "<", ">", "<=", ">=":
		return evalCompare(n.Operator, left, right)
	case "+", "-", "*", "/", "%":
		return evalArith(n.Operator, left, right)
	default:
		return nil, fmt.Errorf("unknown infix operator %q", n.Operator)
	}
}

func evalCompare(op string, left, right value.Value) (value.Value, error) {
	lf, lok := value.AsFloat(left)
	rf, rok := value.AsFloat(right)
	if lok && rok {
		switch op {
		case "<":
			return value.Bool(lf < rf), nil
		case ">":
			return value.Bool(lf > rf), nil
		case "<=":
			return value.Bool(lf <= rf), nil
		case ">=":
			return value.Bool(lf >= rf), nil
		}
	}
	ls, lok2 := left.(value.Str)
	rs, rok2 := right.(value.Str)
	if lok2 && rok2 {
		switch op {
		case "<":
			return value.Bool(ls < rs), nil
		case ">":
			return value.Bool(ls > rs), nil
		case "<=":
			return value.Bool(ls <= rs), nil
		case ">=":
			return value.Bool(ls >= rs), nil
		}
	}
	return nil, fmt.Errorf("cannot compare %s %s %s", left.Kind(), op, right.Kind())
}

func evalArith(op string, left, right value.Value) (value.Value, error) {
	// Elementwise array arithmetic applies only when both operands are
	// already arrays; lists and scalars are not coerced to arrays here.
	if la, lok, _ := toArrayOperand(left); lok {
		if _, isArr := left.(*numarray.Array); isArr {
			if ra, rok, _ := toArrayOperand(right); rok {
				if _, isArr := right.(*numarray.Array); isArr {
					return evalArrayArith(op, la, ra)
				}
			}
		}
	}
	switch l := left.(type) {
	case value.Str:
		switch op {
		case "+":
			r, ok := right.(value.Str)
			if !ok {
				return nil, fmt.Errorf("cannot concatenate str with %s", right.Kind())
			}
			return l + r, nil
		case "*":
			n, ok := right.(value.Int)
			if !ok {
				return nil, fmt.Errorf("string repetition requires an integer count")
			}
			return repeatStr(l, int(n)), nil
		}
	case value.List:
		switch op {
		case "+":
			r, ok := right.(value.List)
			if !ok {
				return nil, fmt.Errorf("cannot concatenate list with %s", right.Kind())
			}
			out := append(value.List{}, l...)
			return append(out, r...), nil
		case "*":
			n, ok := right.(value.Int)
			if !ok {
				return nil, fmt.Errorf("list repetition requires an integer count")
			}
			return repeatList(l, int(n)), nil
		}
	}
	if r, ok := right.(value.Str); ok && op == "*" {
		if n, ok := left.(value.Int); ok {
			return repeatStr(r, int(n)), nil
		}
	}
	if r, ok := right.(value.List); ok && op == "*" {
		if n, ok := left.(value.Int); ok {
			return repeatList(r, int(n)), nil
		}
	}

	li, lIsInt := left.(value.Int)
	ri, rIsInt := right.(value.Int)
	if lIsInt && rIsInt && op != "/" {
		switch op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "%":
			if ri == 0 {
				return nil, fmt.Errorf("integer modulo by zero")
			}
			return li % ri, nil
		}
	}
	lf, lok := value.AsFloat(left)
	rf, rok := value.AsFloat(right)
	if !lok || !rok {
		return nil, fmt.Errorf("unsupported operand types for %q: %s, %s", op, left.Kind(), right.Kind())
	}
	switch op {
	case "+":
		return value.Float(lf + rf), nil
	case "-":
		return value.Float(lf - rf), nil
	case "*":
		return value.Float(lf * rf), nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return value.Float(lf / rf), nil
	case "%":
		if rf == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return value.Float(math.Mod(lf, rf)), nil
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

func evalArrayArith(op string, la, ra *numarray.Array) (value.Value, error) {
	var fn func(a, b float64) float64
	switch op {
	case "+":
		fn = func(a, b float64) float64 { return a + b }
	case "-":
		fn = func(a, b float64) float64 { return a - b }
	case "*":
		fn = func(a, b float64) float64 { return a * b }
	case "/":
		fn = func(a, b float64) float64 { return a / b }
	default:
		return nil, fmt.Errorf("unsupported array operator %q", op)
	}
	return numarray.ElementWise(la, ra, fn)
}

func repeatStr(s value.Str, n int) value.Str {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return value.Str(out)
}

func repeatList(l value.List, n int) value.List {
	if n <= 0 {
		return value.List{}
	}
	out := make(value.List, 0, len(l)*n)
	for i := 0; i < n; i++ {
		out = append(out, l...)
	}
	return out
}
