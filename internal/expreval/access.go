package expreval

import (
	"fmt"

	"github.com/ovitrac/pizza3go/internal/ast"
	"github.com/ovitrac/pizza3go/internal/numarray"
	"github.com/ovitrac/pizza3go/internal/registry"
	"github.com/ovitrac/pizza3go/internal/value"
)

// evalIndex implements list/tuple/mapping/array indexing, including
// the "no quotes on mapping keys inside ${…}" rule: a
// bare identifier used as an index into a mapping is taken as the
// literal key text rather than resolved as a variable.
func evalIndex(n *ast.IndexExpr, res Resolver) (value.Value, error) {
	left, err := Eval(n.Left, res)
	if err != nil {
		return nil, err
	}

	if m, ok := left.(*value.Mapping); ok {
		var key string
		if ident, ok := n.Index.(*ast.Identifier); ok {
			key = ident.Name
		} else {
			idx, err := Eval(n.Index, res)
			if err != nil {
				return nil, err
			}
			if s, ok := idx.(value.Str); ok {
				key = string(s)
			} else {
				return nil, fmt.Errorf("mapping index must be a string or bare key, got %s", idx.Kind())
			}
		}
		v, ok := m.Get(key)
		if !ok {
			return nil, fmt.Errorf("mapping has no key %q", key)
		}
		return v, nil
	}

	if rng, ok := n.Index.(*ast.Range); ok {
		return evalSlice(left, rng, res)
	}

	idx, err := Eval(n.Index, res)
	if err != nil {
		return nil, err
	}

	switch l := left.(type) {
	case value.List:
		i, err := resolveIndex(idx, len(l))
		if err != nil {
			return nil, err
		}
		return l[i], nil
	case value.Tuple:
		i, err := resolveIndex(idx, len(l))
		if err != nil {
			return nil, err
		}
		return l[i], nil
	case value.Str:
		i, err := resolveIndex(idx, len(l))
		if err != nil {
			return nil, err
		}
		return value.Str(l[i]), nil
	case *numarray.Array:
		return indexArray(l, idx)
	default:
		return nil, fmt.Errorf("cannot index value of kind %s", left.Kind())
	}
}

func resolveIndex(idx value.Value, length int) (int, error) {
	i, ok := idx.(value.Int)
	if !ok {
		return 0, fmt.Errorf("index must be an integer, got %s", idx.Kind())
	}
	ii := int(i)
	if ii < 0 {
		ii += length
	}
	if ii < 0 || ii >= length {
		return 0, fmt.Errorf("index %d out of range (length %d)", i, length)
	}
	return ii, nil
}

func evalSlice(left value.Value, rng *ast.Range, res Resolver) (value.Value, error) {
	switch l := left.(type) {
	case value.List:
		start, stop, err := sliceBounds(rng, res, len(l))
		if err != nil {
			return nil, err
		}
		return append(value.List{}, l[start:stop]...), nil
	case value.Tuple:
		start, stop, err := sliceBounds(rng, res, len(l))
		if err != nil {
			return nil, err
		}
		return append(value.Tuple{}, l[start:stop]...), nil
	case value.Str:
		start, stop, err := sliceBounds(rng, res, len(l))
		if err != nil {
			return nil, err
		}
		return l[start:stop], nil
	case *numarray.Array:
		start, stop, err := sliceBounds(rng, res, l.Shape()[0])
		if err != nil {
			return nil, err
		}
		shape := l.Shape()
		stride := l.Len() / shape[0]
		data := l.Data()[start*stride : stop*stride]
		newShape := append([]int{stop - start}, shape[1:]...)
		return numarray.New(newShape, data), nil
	default:
		return nil, fmt.Errorf("cannot slice value of kind %s", left.Kind())
	}
}

func sliceBounds(rng *ast.Range, res Resolver, length int) (int, int, error) {
	startV, err := Eval(rng.Start, res)
	if err != nil {
		return 0, 0, err
	}
	stopV, err := Eval(rng.Stop, res)
	if err != nil {
		return 0, 0, err
	}
	si, ok := startV.(value.Int)
	if !ok {
		return 0, 0, fmt.Errorf("slice bounds must be integers")
	}
	ei, ok := stopV.(value.Int)
	if !ok {
		return 0, 0, fmt.Errorf("slice bounds must be integers")
	}
	start, stop := int(si), int(ei)
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 || stop > length || start > stop {
		return 0, 0, fmt.Errorf("slice [%d:%d] out of range (length %d)", si, ei, length)
	}
	return start, stop, nil
}

// indexArray implements row-wise integer indexing into an array.
func indexArray(a *numarray.Array, idx value.Value) (value.Value, error) {
	i, ok := idx.(value.Int)
	if !ok {
		return nil, fmt.Errorf("array index must be an integer, got %s", idx.Kind())
	}
	shape := a.Shape()
	if len(shape) == 0 {
		return nil, fmt.Errorf("cannot index a scalar array")
	}
	n := shape[0]
	ii := int(i)
	if ii < 0 {
		ii += n
	}
	if ii < 0 || ii >= n {
		return nil, fmt.Errorf("array index %d out of range (length %d)", i, n)
	}
	if len(shape) == 1 {
		return value.Float(a.Data()[ii]), nil
	}
	stride := a.Len() / n
	row := a.Data()[ii*stride : (ii+1)*stride]
	out := make(value.List, len(row))
	for j, f := range row {
		out[j] = value.Float(f)
	}
	return out, nil
}

// evalAttr implements `.T`, `.shape`, and the bound-method lookup for
// `.flatten()`/`.reshape(...)`/`.astype(...)`,
// plus the `np.*` free-function namespace.
func evalAttr(n *ast.AttrExpr, res Resolver) (value.Value, error) {
	left, err := Eval(n.Left, res)
	if err != nil {
		return nil, err
	}
	if _, ok := left.(npNamespace); ok {
		fn, ok := registry.NP[n.Name]
		if !ok {
			return nil, fmt.Errorf("np has no function %q", n.Name)
		}
		return &builtinValue{name: "np." + n.Name, fn: fn}, nil
	}

	arr, isArr, err := toArrayOperand(left)
	if err != nil {
		return nil, err
	}
	if isArr {
		if a, ok := left.(*numarray.Array); ok {
			arr = a
		}
		switch n.Name {
		case "T":
			return arr.T(), nil
		case "shape":
			shape := arr.Shape()
			out := make(value.List, len(shape))
			for i, s := range shape {
				out[i] = value.Int(s)
			}
			return out, nil
		case "flatten":
			captured := arr
			return &builtinValue{name: "flatten", fn: func(args []value.Value) (value.Value, error) {
				return captured.Flatten(), nil
			}}, nil
		case "reshape":
			captured := arr
			return &builtinValue{name: "reshape", fn: func(args []value.Value) (value.Value, error) {
				shape := make([]int, len(args))
				for i, a := range args {
					iv, ok := a.(value.Int)
					if !ok {
						return nil, fmt.Errorf("reshape() arguments must be integers")
					}
					shape[i] = int(iv)
				}
				return captured.Reshape(shape)
			}}, nil
		case "astype":
			captured := arr
			return &builtinValue{name: "astype", fn: func(args []value.Value) (value.Value, error) {
				return captured, nil
			}}, nil
		default:
			return nil, fmt.Errorf("array has no attribute %q", n.Name)
		}
	}
	return nil, fmt.Errorf("%s has no attribute %q", left.Kind(), n.Name)
}

// evalCall implements invocation of reserved builtins, `np.*`
// functions, and bound array methods.
func evalCall(n *ast.CallExpr, res Resolver) (value.Value, error) {
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, res)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if ident, ok := n.Callee.(*ast.Identifier); ok {
		if fn, ok := registry.Builtins[ident.Name]; ok {
			return fn(args)
		}
		return nil, fmt.Errorf("Variable or function '%s' is not defined", ident.Name)
	}

	callee, err := Eval(n.Callee, res)
	if err != nil {
		return nil, err
	}
	if b, ok := callee.(*builtinValue); ok {
		return b.fn(args)
	}
	return nil, fmt.Errorf("value of kind %s is not callable", callee.Kind())
}
