package param

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ovitrac/pizza3go/internal/expreval"
	"github.com/ovitrac/pizza3go/internal/numarray"
	"github.com/ovitrac/pizza3go/internal/parser"
	"github.com/ovitrac/pizza3go/internal/registry"
	"github.com/ovitrac/pizza3go/internal/value"
)

// legacyIdentRe matches a raw value that is exactly `$identifier`, a
// legacy pass-through form: the whole value becomes the bare
// identifier text, with no expression evaluation at all.
var legacyIdentRe = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*)$`)

var bareIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type scanConfig struct {
	debug      bool
	sigFigs    int
	escapeChar byte // defaults to '\\' when zero
}

func (cfg scanConfig) escape() byte {
	if cfg.escapeChar == 0 {
		return '\\'
	}
	return cfg.escapeChar
}

func evalExprText(expr string, res expreval.Resolver) (value.Value, error) {
	node, err := parser.ParseExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return expreval.Eval(node, res)
}

func formatValue(v value.Value, sigFigs int, compact bool) string {
	if arr, ok := v.(*numarray.Array); ok {
		return arr.Format(sigFigs, compact)
	}
	return v.Text()
}

// findMatching returns the index of the delimiter matching the one at
// openIdx (which must hold open), skipping over quoted substrings so
// that `${d['}']}`-style expressions don't confuse the brace count.
func findMatching(text string, openIdx int, open, close byte) (int, error) {
	depth := 0
	n := len(text)
	for i := openIdx; i < n; i++ {
		c := text[i]
		switch {
		case c == '\'' || c == '"':
			q := c
			i++
			for i < n && text[i] != q {
				if text[i] == '\\' {
					i++
				}
				i++
			}
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated %q...%q construct starting at offset %d", string(open), string(close), openIdx)
}

// interpolate scans text once left-to-right, handling these five
// forms:
//
// - `\${...}` escape: emits the literal `${...}` text, unevaluated
// - `${EXPR}` text-producing evaluation
// - `@{EXPR}` matrix-producing evaluation (np.atleast_2d(np.array(EXPR)))
// - `$[...]` array-literal shorthand
// - `{name}` raw interpolation of an already-resolved name
//
// Errors raised while evaluating a placeholder are only propagated
// when cfg.debug is set; otherwise the placeholder is replaced by an
// `<Error:...>` marker and scanning continues.
func interpolate(text string, res expreval.Resolver, cfg scanConfig) (string, error) {
	var b strings.Builder
	n := len(text)
	i := 0
	for i < n {
		c := text[i]

		if c == cfg.escape() && i+2 < n && text[i+1] == '$' && text[i+2] == '{' {
			end, err := findMatching(text, i+2, '{', '}')
			if err != nil {
				return "", err
			}
			b.WriteString(text[i+1 : end+1])
			i = end + 1
			continue
		}

		if c == '$' && i+1 < n && text[i+1] == '{' {
			end, err := findMatching(text, i+1, '{', '}')
			if err != nil {
				return "", err
			}
			expr := text[i+2 : end]
			v, err := evalExprText(expr, res)
			if err != nil {
				if cfg.debug {
					return "", fmt.Errorf("${%s}: %w", expr, err)
				}
				b.WriteString(value.ErrorValue{Message: err.Error()}.Text())
			} else {
				b.WriteString(formatValue(v, cfg.sigFigs, true))
			}
			i = end + 1
			continue
		}

		if c == '@' && i+1 < n && text[i+1] == '{' {
			end, err := findMatching(text, i+1, '{', '}')
			if err != nil {
				return "", err
			}
			expr := text[i+2 : end]
			v, err := evalExprText(expr, res)
			if err == nil {
				var arr *numarray.Array
				arr, err = registry.ToArray(v)
				if err == nil {
					b.WriteString(arr.AtLeast2D().Repr())
					i = end + 1
					continue
				}
			}
			if cfg.debug {
				return "", fmt.Errorf("@{%s}: %w", expr, err)
			}
			b.WriteString(value.ErrorValue{Message: err.Error()}.Text())
			i = end + 1
			continue
		}

		if c == '$' && i+1 < n && text[i+1] == '[' {
			end, err := findMatching(text, i+1, '[', ']')
			if err != nil {
				return "", err
			}
			inner := text[i+2 : end]
			lit, perr := parser.ParseShorthandArray(inner)
			var v value.Value
			if perr == nil {
				v, perr = expreval.Eval(lit, res)
			}
			if perr != nil {
				if cfg.debug {
					return "", fmt.Errorf("$[%s]: %w", inner, perr)
				}
				b.WriteString(value.ErrorValue{Message: perr.Error()}.Text())
			} else {
				b.WriteString(formatValue(v, cfg.sigFigs, false))
			}
			i = end + 1
			continue
		}

		if c == '{' {
			if end, err := findMatching(text, i, '{', '}'); err == nil {
				inner := strings.TrimSpace(text[i+1 : end])
				if bareIdentRe.MatchString(inner) {
					if v, ok := res.Resolve(inner); ok {
						b.WriteString(v.Text())
						i = end + 1
						continue
					}
					if v, ok := registry.Constants[inner]; ok {
						b.WriteString(v.Text())
						i = end + 1
						continue
					}
				}
			}
			b.WriteByte(c)
			i++
			continue
		}

		b.WriteByte(c)
		i++
	}
	return b.String(), nil
}
