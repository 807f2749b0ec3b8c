package param

import "github.com/ovitrac/pizza3go/internal/expreval"

// Render substitutes every placeholder in tmpl against the resolved
// (already-evaluated) values Container, always producing text — the
// shared mechanism behind forcefield style templates and script
// fragments' DEFINITIONS+USER substitution into TEMPLATE, both of
// which reduce to "merge two Evaluators, Eval() the merge, then
// substitute the result into a TEMPLATE string".
func Render(tmpl string, values *Container, debug bool, sigFigs int) (string, error) {
	return RenderWithEscape(tmpl, values, debug, sigFigs, 0)
}

// RenderWithEscape is Render with an explicit `\${…}` escape byte;
// escapeChar == 0 means the default, '\\'. Callers that carry an
// Evaluator with a custom EscapeChar use this to keep Render
// consistent with that Evaluator's Eval() behavior.
func RenderWithEscape(tmpl string, values *Container, debug bool, sigFigs int, escapeChar byte) (string, error) {
	if sigFigs <= 0 {
		sigFigs = DefaultSigFigs
	}
	resolver := make(expreval.MapResolver, values.Len())
	for _, k := range values.Keys() {
		v, _ := values.Get(k)
		resolver[k] = v
	}
	return interpolate(tmpl, resolver, scanConfig{debug: debug, sigFigs: sigFigs, escapeChar: escapeChar})
}
