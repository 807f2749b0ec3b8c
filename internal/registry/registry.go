// Package registry holds the single process-wide reserved-name table
// describes: constants (pi, e, nan, inf), the math/builtin
// function set, the small statistics namespace, and the `np.` numeric
// array namespace. It is initialized once at package load and is
// read-only thereafter — the only shared mutable-looking state is the
// math/rand source used by the statistics functions, guarded the same
// way this codebase guards its other shared stores: a mutex around an
// otherwise-plain map.
package registry

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/ovitrac/pizza3go/internal/numarray"
	"github.com/ovitrac/pizza3go/internal/value"
)

// Builtin is a reserved top-level or namespaced function.
type Builtin func(args []value.Value) (value.Value, error)

// Constants are the reserved scalar names.
var Constants = map[string]value.Value{
	"pi":  value.Float(math.Pi),
	"e":   value.Float(math.E),
	"nan": value.Float(math.NaN()),
	"inf": value.Float(math.Inf(1)),
}

var rngMu sync.Mutex
var rng = rand.New(rand.NewSource(1))

// Seed reseeds the statistics namespace; exposed for deterministic
// tests.
func Seed(seed int64) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng = rand.New(rand.NewSource(seed))
}

func floats(args []value.Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, ok := value.AsFloat(a)
		if !ok {
			return nil, fmt.Errorf("argument %d is not numeric: %s", i, a.Kind())
		}
		out[i] = f
	}
	return out, nil
}

func unary(name string, fn func(float64) float64) Builtin {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s() takes exactly one argument", name)
		}
		fs, err := floats(args)
		if err != nil {
			return nil, err
		}
		return value.Float(fn(fs[0])), nil
	}
}

// Builtins is the top-level reserved function table.
var Builtins = map[string]Builtin{
	"abs": func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs() takes exactly one argument")
		}
		switch v := args[0].(type) {
		case value.Int:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		default:
			f, ok := value.AsFloat(args[0])
			if !ok {
				return nil, fmt.Errorf("abs() requires a numeric argument")
			}
			return value.Float(math.Abs(f)), nil
		}
	},
	"round": func(args []value.Value) (value.Value, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("round() takes one or two arguments")
		}
		f, ok := value.AsFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("round() requires a numeric argument")
		}
		if len(args) == 1 {
			return value.Int(int64(math.Round(f))), nil
		}
		nd, ok := args[1].(value.Int)
		if !ok {
			return nil, fmt.Errorf("round() second argument must be an integer")
		}
		mult := math.Pow(10, float64(nd))
		return value.Float(math.Round(f*mult) / mult), nil
	},
	"min": func(args []value.Value) (value.Value, error) { return extremum(args, false) },
	"max": func(args []value.Value) (value.Value, error) { return extremum(args, true) },
	"sum": func(args []value.Value) (value.Value, error) {
		vals := args
		if len(args) == 1 {
			if l, ok := args[0].(value.List); ok {
				vals = []value.Value(l)
			}
		}
		fs, err := floats(vals)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, f := range fs {
			total += f
		}
		return value.Float(total), nil
	},
	"divmod": func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("divmod() takes exactly two arguments")
		}
		fs, err := floats(args)
		if err != nil {
			return nil, err
		}
		if fs[1] == 0 {
			return nil, fmt.Errorf("divmod() by zero")
		}
		q := math.Floor(fs[0] / fs[1])
		r := fs[0] - q*fs[1]
		return value.Tuple{value.Float(q), value.Float(r)}, nil
	},
	"sin": unary("sin", math.Sin),
	"cos": unary("cos", math.Cos),
	"tan": unary("tan", math.Tan),
	"exp": unary("exp", math.Exp),
	"log": unary("log", math.Log),

	"gauss": func(args []value.Value) (value.Value, error) {
		mu, sigma := 0.0, 1.0
		if len(args) >= 1 {
			f, ok := value.AsFloat(args[0])
			if !ok {
				return nil, fmt.Errorf("gauss() mu must be numeric")
			}
			mu = f
		}
		if len(args) >= 2 {
			f, ok := value.AsFloat(args[1])
			if !ok {
				return nil, fmt.Errorf("gauss() sigma must be numeric")
			}
			sigma = f
		}
		rngMu.Lock()
		defer rngMu.Unlock()
		return value.Float(rng.NormFloat64()*sigma + mu), nil
	},
	"uniform": func(args []value.Value) (value.Value, error) {
		lo, hi := 0.0, 1.0
		if len(args) >= 1 {
			f, ok := value.AsFloat(args[0])
			if !ok {
				return nil, fmt.Errorf("uniform() low must be numeric")
			}
			lo = f
		}
		if len(args) >= 2 {
			f, ok := value.AsFloat(args[1])
			if !ok {
				return nil, fmt.Errorf("uniform() high must be numeric")
			}
			hi = f
		}
		rngMu.Lock()
		defer rngMu.Unlock()
		return value.Float(lo + rng.Float64()*(hi-lo)), nil
	},
	"randint": func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("randint() takes exactly two arguments")
		}
		lo, ok1 := args[0].(value.Int)
		hi, ok2 := args[1].(value.Int)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("randint() requires integer bounds")
		}
		if hi < lo {
			return nil, fmt.Errorf("randint() high < low")
		}
		rngMu.Lock()
		defer rngMu.Unlock()
		return value.Int(int64(lo) + rng.Int63n(int64(hi-lo)+1)), nil
	},
	"choice": func(args []value.Value) (value.Value, error) {
		var items []value.Value
		if len(args) == 1 {
			if l, ok := args[0].(value.List); ok {
				items = []value.Value(l)
			}
		}
		if items == nil {
			items = args
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("choice() requires at least one item")
		}
		rngMu.Lock()
		defer rngMu.Unlock()
		return items[rng.Intn(len(items))], nil
	},
}

func extremum(args []value.Value, wantMax bool) (value.Value, error) {
	vals := args
	if len(args) == 1 {
		if l, ok := args[0].(value.List); ok {
			vals = []value.Value(l)
		}
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("min/max() requires at least one argument")
	}
	best := vals[0]
	bestF, ok := value.AsFloat(best)
	if !ok {
		return nil, fmt.Errorf("min/max() requires numeric arguments")
	}
	for _, v := range vals[1:] {
		f, ok := value.AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("min/max() requires numeric arguments")
		}
		if (wantMax && f > bestF) || (!wantMax && f < bestF) {
			best, bestF = v, f
		}
	}
	return best, nil
}

// NP is the `np.` namespace: array construction + the whitelisted
// numpy-alike free functions.
var NP = map[string]Builtin{
	"array": func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("np.array() takes exactly one argument")
		}
		return toArray(args[0])
	},
	"atleast_2d": func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("np.atleast_2d() takes exactly one argument")
		}
		arr, err := toArray(args[0])
		if err != nil {
			return nil, err
		}
		return arr.AtLeast2D(), nil
	},
}

// toArray coerces a Value into a numarray.Array: scalars become
// one-element 1-D arrays, Lists of scalars become 1-D rows, Lists of Lists become 2-D
// matrices, and arrays pass through unchanged.
func toArray(v value.Value) (*numarray.Array, error) {
	switch t := v.(type) {
	case *numarray.Array:
		return t, nil
	case value.Int:
		return numarray.Scalar(float64(t)), nil
	case value.Float:
		return numarray.Scalar(float64(t)), nil
	case value.List:
		if len(t) > 0 {
			if _, ok := t[0].(value.List); ok {
				rows := make([][]float64, len(t))
				for i, row := range t {
					rl, ok := row.(value.List)
					if !ok {
						return nil, fmt.Errorf("np.array(): ragged nested list")
					}
					fr := make([]float64, len(rl))
					for j, e := range rl {
						f, ok := value.AsFloat(e)
						if !ok {
							return nil, fmt.Errorf("np.array(): non-numeric element")
						}
						fr[j] = f
					}
					rows[i] = fr
				}
				return numarray.Matrix(rows)
			}
		}
		fs := make([]float64, len(t))
		for i, e := range t {
			f, ok := value.AsFloat(e)
			if !ok {
				return nil, fmt.Errorf("np.array(): non-numeric element")
			}
			fs[i] = f
		}
		return numarray.Row(fs), nil
	default:
		return nil, fmt.Errorf("np.array(): cannot convert %s", v.Kind())
	}
}

// ToArray exposes the coercion for internal/expreval's `@{…}` handling
// (`np.atleast_2d(np.array(EXPR))`).
func ToArray(v value.Value) (*numarray.Array, error) { return toArray(v) }
