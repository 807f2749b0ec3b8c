package param

import (
	"fmt"
	"regexp"

	"github.com/ovitrac/pizza3go/internal/value"
)

// OrderedEvaluator is the "paramauto" variant: instead
// of evaluating keys in insertion order, it statically scans each raw
// value for references to other Container keys and evaluates in
// topological order, so a key may forward-reference a key defined
// later in the Container. The dependency graph is rebuilt on every
// Eval call.
type OrderedEvaluator struct {
	*Evaluator
}

// identTokenRe finds bare identifier tokens anywhere in a raw value's
// text; the static reference scan treats any token that is also a
// Container key as a dependency edge, which is a conservative
// over-approximation (it may also match identifiers that are string
// literals or attribute names) but never misses a real reference,
// which is what topological ordering needs.
var identTokenRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Eval evaluates every key in dependency order. A key caught in a
// dependency cycle receives an `<Error: ...>` marker rather than
// aborting evaluation of the rest of the container, the same
// best-effort policy Evaluator.Eval applies to any other per-key
// evaluation failure. With Debug set, a cycle aborts the whole Eval
// instead, matching Evaluator.Eval's debug behavior.
func (o *OrderedEvaluator) Eval() (*Container, error) {
	order, cyclic, err := o.topoOrder()
	if err != nil {
		return nil, err
	}
	if len(cyclic) > 0 && o.Debug {
		return nil, fmt.Errorf("paramauto: circular reference among keys %v", cyclic)
	}
	out, err := o.evalKeys(order)
	if err != nil {
		return nil, err
	}
	if len(cyclic) == 0 {
		return out, nil
	}
	msg := fmt.Sprintf("paramauto: circular reference among keys %v", cyclic)
	for _, k := range cyclic {
		if err := out.Set(k, value.ErrorValue{Message: msg}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// topoOrder returns the keys reachable by Kahn's algorithm (with
// insertion order as the tiebreak so the result is deterministic when
// several keys are simultaneously ready) plus, separately, any keys
// left stuck in a dependency cycle, in Container key order.
func (o *OrderedEvaluator) topoOrder() (order []string, cyclic []string, err error) {
	keys := o.Container.Keys()
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}

	deps := make(map[string]map[string]bool, len(keys))
	for _, k := range keys {
		raw, gerr := o.Container.Get(k)
		if gerr != nil {
			return nil, nil, gerr
		}
		s, ok := rawText(raw)
		if !ok {
			deps[k] = nil
			continue
		}
		refs := make(map[string]bool)
		for _, tok := range identTokenRe.FindAllString(s, -1) {
			if tok != k && keySet[tok] {
				refs[tok] = true
			}
		}
		deps[k] = refs
	}

	indegree := make(map[string]int, len(keys))
	dependents := make(map[string][]string, len(keys))
	for _, k := range keys {
		indegree[k] = len(deps[k])
		for dep := range deps[k] {
			dependents[dep] = append(dependents[dep], k)
		}
	}

	var ready []string
	for _, k := range keys {
		if indegree[k] == 0 {
			ready = append(ready, k)
		}
	}

	for len(ready) > 0 {
		k := ready[0]
		ready = ready[1:]
		order = append(order, k)
		for _, dep := range dependentsInInsertionOrder(dependents[k], keys) {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) == len(keys) {
		return order, nil, nil
	}
	for _, k := range keys {
		if indegree[k] > 0 {
			cyclic = append(cyclic, k)
		}
	}
	return order, cyclic, nil
}

// dependentsInInsertionOrder stabilizes dependents' processing order
// against the Container's own key order, so topoOrder never depends on
// Go's random map iteration order.
func dependentsInInsertionOrder(found []string, keys []string) []string {
	if len(found) <= 1 {
		return found
	}
	set := make(map[string]bool, len(found))
	for _, f := range found {
		set[f] = true
	}
	out := make([]string, 0, len(found))
	for _, k := range keys {
		if set[k] {
			out = append(out, k)
		}
	}
	return out
}
