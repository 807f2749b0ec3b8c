package param

import (
	"fmt"
	"strings"

	"github.com/ovitrac/pizza3go/internal/expreval"
	"github.com/ovitrac/pizza3go/internal/parser"
	"github.com/ovitrac/pizza3go/internal/value"
)

// DefaultSigFigs is the significant-digit count used to render
// partially-evaluated arrays inside a TEMPLATE.
const DefaultSigFigs = 4

// DefaultMaxDepth bounds expression nesting inside a single `${…}`/
// `@{…}` body. It is enforced by internal/parser.MaxRecursionDepth —
// Evaluator does not additionally re-scan its own substituted output,
// since cross-key references are resolved against an already-evaluated
// snapshot rather than by recursively re-evaluating another key's raw
// text.
const DefaultMaxDepth = parser.MaxRecursionDepth

// Evaluator wraps a Container with the `${…}`/`@{…}`/`$[…]`/`{name}`
// expression language.
type Evaluator struct {
	*Container

	// Debug switches best-effort partial evaluation (the default: a
	// failing placeholder becomes an `<Error: …>` marker and evaluation
	// of other keys continues) to fail-fast (the first evaluation
	// error anywhere aborts Eval with a Go error)
	Debug bool

	// SigFigs controls array stringification precision inside
	// TEMPLATE substitution, default DefaultSigFigs.
	SigFigs int

	// MaxDepth records a nested-expression limit, default
	// DefaultMaxDepth. Evaluation does not read it: the parser always
	// applies the fixed internal/parser.MaxRecursionDepth.
	MaxDepth int

	// EscapeChar is the byte that escapes a following `${` so it is
	// emitted literally instead of evaluated. Zero means the default, '\\'.
	EscapeChar byte
}

// Option configures an Evaluator at construction time, mirroring the
// teacher's internal/ext/config.go plain-struct-plus-validate-method
// style with Go's idiomatic functional-options variant of it.
type Option func(*Evaluator)

// WithDebug sets fail-fast evaluation.
func WithDebug(debug bool) Option {
	return func(e *Evaluator) { e.Debug = debug }
}

// WithSigFigs overrides the array-stringification precision.
func WithSigFigs(n int) Option {
	return func(e *Evaluator) { e.SigFigs = n }
}

// WithMaxDepth sets the MaxDepth field; the limit the parser enforces
// stays internal/parser.MaxRecursionDepth.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) { e.MaxDepth = n }
}

// WithEscapeChar overrides the `\${…}` escape byte.
func WithEscapeChar(c byte) Option {
	return func(e *Evaluator) { e.EscapeChar = c }
}

// NewEvaluator builds an Evaluator over an empty Container with
// package defaults, customizable via Option.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{Container: New(), SigFigs: DefaultSigFigs, MaxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WrapEvaluator adapts an existing Container for evaluation without
// copying its entries.
func WrapEvaluator(c *Container, opts ...Option) *Evaluator {
	e := &Evaluator{Container: c, SigFigs: DefaultSigFigs, MaxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) config() scanConfig {
	sf := e.SigFigs
	if sf == 0 {
		sf = DefaultSigFigs
	}
	return scanConfig{debug: e.Debug, sigFigs: sf, escapeChar: e.EscapeChar}
}

// Eval evaluates every key in insertion order, returning a new,
// fully-evaluated, non-evaluating Container.
func (e *Evaluator) Eval() (*Container, error) {
	return e.evalKeys(e.Container.Keys())
}

// evalKeys evaluates exactly the given keys, in the given order,
// building up the resolver snapshot as it goes. Shared by Eval
// (insertion order) and EvalOrdered (topological order).
func (e *Evaluator) evalKeys(order []string) (*Container, error) {
	resolved := make(expreval.MapResolver)
	out := New()
	for _, k := range order {
		raw, err := e.Container.Get(k)
		if err != nil {
			return nil, err
		}
		v, err := e.evalOne(k, raw, resolved)
		if err != nil {
			if e.Debug {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			v = value.ErrorValue{Message: err.Error()}
		}
		resolved[k] = v
		if err := out.Set(k, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// evalOne evaluates a single raw value against the snapshot of keys
// already evaluated earlier in this pass.
func (e *Evaluator) evalOne(key string, raw value.Value, resolved expreval.MapResolver) (value.Value, error) {
	s, ok := raw.(value.Str)
	if !ok {
		// Already-typed values (Int, Float, Bool, List, Mapping,
		// *numarray.Array) pass through unevaluated — only text entries
		// carry expression syntax.
		return raw, nil
	}
	text := string(s)

	// Rule 4: legacy `$identifier` passthrough — the whole value, not a
	// placeholder inside a longer string.
	if m := legacyIdentRe.FindStringSubmatch(text); m != nil {
		return value.Str(m[1]), nil
	}

	// Rule 5: legacy `!`-prefixed list-of-expressions form: each
	// comma-separated segment after the `!` is evaluated independently
	// and the key's value becomes the resulting list.
	if strings.HasPrefix(text, "!") {
		return e.evalBangList(text[1:], resolved)
	}

	cfg := e.config()
	resolver := expreval.MapResolver(resolved)
	interpolated, err := interpolate(text, resolver, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	// Opportunistic global re-evaluation: if the fully-interpolated
	// text is itself a complete expression (e.g. a value that was
	// purely `${EXPR}`, or plain arithmetic), keep it typed. Most
	// TEMPLATE text is LAMMPS script syntax that will not parse as a
	// single expression — that is expected, not an error, and the
	// interpolated string is kept as-is.
	if node, perr := parser.ParseExpression(interpolated); perr == nil {
		if v, eerr := expreval.Eval(node, resolver); eerr == nil {
			return v, nil
		}
	}
	return value.Str(interpolated), nil
}

func (e *Evaluator) evalBangList(body string, resolved expreval.MapResolver) (value.Value, error) {
	resolver := expreval.MapResolver(resolved)
	parts := splitTopLevelComma(body)
	out := make(value.List, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		node, err := parser.ParseExpression(p)
		if err != nil {
			return nil, fmt.Errorf("!%s: %w", p, err)
		}
		v, err := expreval.Eval(node, resolver)
		if err != nil {
			return nil, fmt.Errorf("!%s: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// splitTopLevelComma splits on commas that are not nested inside
// brackets/parens/braces or quotes.
func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '\'', '"':
			q := s[i]
			i++
			for i < len(s) && s[i] != q {
				if s[i] == '\\' {
					i++
				}
				i++
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// rawText extracts the underlying text of a Str value, for callers
// (the ordered variant's static reference scan) that need to inspect
// raw source text without triggering evaluation.
func rawText(v value.Value) (string, bool) {
	s, ok := v.(value.Str)
	if !ok {
		return "", false
	}
	return string(s), true
}

// Tostatic returns a Container snapshot with every raw value copied
// as-is (no evaluation performed), the identity half of the
// eval()/tostatic() pair — useful for inspecting a Container's
// source form before evaluation.
func (e *Evaluator) Tostatic() *Container {
	return e.Container.Clone()
}

// Todict returns the Container's current raw (unevaluated) contents
// as a plain Go map, dropping order — a convenience export
// lists alongside disk serialization.
func (e *Evaluator) Todict() map[string]value.Value {
	out := make(map[string]value.Value, e.Container.Len())
	for _, k := range e.Container.Keys() {
		v, _ := e.Container.Get(k)
		out[k] = v
	}
	return out
}

// ToParamAuto returns the ordered-evaluation variant of this
// Evaluator.
func (e *Evaluator) ToParamAuto() *OrderedEvaluator {
	return &OrderedEvaluator{Evaluator: e}
}
