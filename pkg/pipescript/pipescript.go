// Package pipescript implements Pipescript: an ordered
// sequence of Script fragments plus a parallel, independent list of
// per-stage USER overrides, rendered with DEFINITIONS/USER
// accumulating across stages rather than each stage rendering in
// isolation.
package pipescript

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ovitrac/pizza3go/internal/value"
	"github.com/ovitrac/pizza3go/pkg/param"
	"github.com/ovitrac/pizza3go/pkg/script"
)

// Pipescript is "Entity: Pipescript".
type Pipescript struct {
	Stages    []*script.Fragment
	Overrides []*param.Evaluator // parallel to Stages; Overrides[i] wins over Stages[i].USER
	StageIDs  []string           // parallel to Stages; a stable identity independent of Name, used as part of the cache key and to detect rename collisions

	cache map[string]string
}

func newStageIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	return ids
}

// New builds a Pipescript from fragments, each starting with an empty
// override scope and a freshly generated stage identifier.
func New(stages ...*script.Fragment) *Pipescript {
	overrides := make([]*param.Evaluator, len(stages))
	for i := range overrides {
		overrides[i] = param.NewEvaluator()
	}
	return &Pipescript{
		Stages:    append([]*script.Fragment(nil), stages...),
		Overrides: overrides,
		StageIDs:  newStageIDs(len(stages)),
	}
}

// Len returns the number of stages.
func (p *Pipescript) Len() int { return len(p.Stages) }

func normalizeIndex(i, n int) (int, error) {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("pipescript: index %d out of range for length %d", i, n)
	}
	return i, nil
}

// At returns the i-th stage with its effective USER: the fragment's
// own USER merged with this pipescript's per-slot override, the
// override winning.
func (p *Pipescript) At(i int) (*script.Fragment, error) {
	idx, err := normalizeIndex(i, len(p.Stages))
	if err != nil {
		return nil, err
	}
	base := p.Stages[idx]
	merged := base.USER.Container.Concat(p.Overrides[idx].Container)
	return &script.Fragment{
		Name:        base.Name,
		Section:     base.Section,
		Position:    base.Position,
		Definitions: base.Definitions,
		USER:        param.WrapEvaluator(merged),
		Template:    base.Template,
		Debug:       base.Debug,
		SigFigs:     base.SigFigs,
		EscapeChar:  base.EscapeChar,
	}, nil
}

// Slice returns a sub-pipescript covering [start, stop) with Python
// slice semantics (negative indices count from the end).
func (p *Pipescript) Slice(start, stop int) (*Pipescript, error) {
	n := len(p.Stages)
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop > n {
		stop = n
	}
	if start > stop {
		start = stop
	}
	return &Pipescript{
		Stages:    append([]*script.Fragment(nil), p.Stages[start:stop]...),
		Overrides: append([]*param.Evaluator(nil), p.Overrides[start:stop]...),
		StageIDs:  append([]string(nil), p.StageIDs[start:stop]...),
	}, nil
}

// Select returns a reordered copy built from a list of stage indices.
func (p *Pipescript) Select(indices []int) (*Pipescript, error) {
	stages := make([]*script.Fragment, len(indices))
	overrides := make([]*param.Evaluator, len(indices))
	ids := make([]string, len(indices))
	for i, idx := range indices {
		n, err := normalizeIndex(idx, len(p.Stages))
		if err != nil {
			return nil, err
		}
		stages[i] = p.Stages[n]
		overrides[i] = p.Overrides[n]
		ids[i] = p.StageIDs[n]
	}
	return &Pipescript{Stages: stages, Overrides: overrides, StageIDs: ids}, nil
}

// Pipe is the `|` operator: append a single fragment, returning a new
// Pipescript.
func (p *Pipescript) Pipe(f *script.Fragment) *Pipescript {
	return &Pipescript{
		Stages:    append(append([]*script.Fragment(nil), p.Stages...), f),
		Overrides: append(append([]*param.Evaluator(nil), p.Overrides...), param.NewEvaluator()),
		StageIDs:  append(append([]string(nil), p.StageIDs...), uuid.NewString()),
	}
}

// Concat is the `+` operator: append every stage of other, returning
// a new Pipescript.
func (p *Pipescript) Concat(other *Pipescript) *Pipescript {
	return &Pipescript{
		Stages:    append(append([]*script.Fragment(nil), p.Stages...), other.Stages...),
		Overrides: append(append([]*param.Evaluator(nil), p.Overrides...), other.Overrides...),
		StageIDs:  append(append([]string(nil), p.StageIDs...), other.StageIDs...),
	}
}

// Repeat is the `*n` operator: n independent copies of the whole
// pipescript, each with its own cloned override scopes.
func (p *Pipescript) Repeat(n int) []*Pipescript {
	copies := make([]*Pipescript, n)
	for c := range copies {
		overrides := make([]*param.Evaluator, len(p.Overrides))
		for i, o := range p.Overrides {
			overrides[i] = param.WrapEvaluator(o.Container.Clone())
		}
		copies[c] = &Pipescript{
			Stages:    append([]*script.Fragment(nil), p.Stages...),
			Overrides: overrides,
			StageIDs:  newStageIDs(len(p.Stages)),
		}
	}
	return copies
}

func identityIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Do renders the stages named by indices (all stages, in order, if
// indices is nil), accumulating DEFINITIONS and effective USER across
// stages: stage k's template is evaluated against
// DEFINITIONS_1⊕…⊕DEFINITIONS_k⊕USER_1⊕…⊕USER_k.
func (p *Pipescript) Do(indices []int) (string, error) {
	if indices == nil {
		indices = identityIndices(len(p.Stages))
	}
	ids := make([]string, len(indices))
	for i, idx := range indices {
		n, err := normalizeIndex(idx, len(p.Stages))
		if err != nil {
			return "", err
		}
		ids[i] = p.StageIDs[n]
	}
	key := fmt.Sprint(indices) + "|" + strings.Join(ids, ",")
	if p.cache == nil {
		p.cache = make(map[string]string)
	}
	if cached, ok := p.cache[key]; ok {
		return cached, nil
	}

	cumDefs := param.New()
	cumUser := param.New()
	var parts []string
	for _, idx := range indices {
		n, err := normalizeIndex(idx, len(p.Stages))
		if err != nil {
			return "", err
		}
		stage := p.Stages[n]
		effectiveUser := stage.USER.Container.Concat(p.Overrides[n].Container)
		cumDefs = cumDefs.Concat(stage.Definitions.Container)
		cumUser = cumUser.Concat(effectiveUser)

		merged := cumDefs.Concat(cumUser)
		ev := param.WrapEvaluator(merged)
		ev.Debug = stage.Debug
		ev.EscapeChar = stage.EscapeChar
		resolved, err := ev.Eval()
		if err != nil {
			return "", fmt.Errorf("pipescript: stage %q: %w", stage.Name, err)
		}
		sig := stage.SigFigs
		if sig <= 0 {
			sig = param.DefaultSigFigs
		}
		text, err := param.RenderWithEscape(stage.Template, resolved, stage.Debug, sig, stage.EscapeChar)
		if err != nil {
			return "", fmt.Errorf("pipescript: stage %q: %w", stage.Name, err)
		}
		parts = append(parts, text)
	}
	out := strings.Join(parts, "\n")
	p.cache[key] = out
	return out, nil
}

// Clear drops every cached Do() result, this pipescript's own and
// each stage fragment's.
func (p *Pipescript) Clear() {
	p.cache = nil
	for _, s := range p.Stages {
		s.Clear()
	}
}

// Rename changes the Name of the first stage matching old to newName.
// It refuses to create a duplicate name: if another stage (a distinct
// StageID) already answers to newName, the rename is rejected rather
// than silently producing two stages with the same Name.
func (p *Pipescript) Rename(old, newName string) error {
	target := -1
	for i, s := range p.Stages {
		if s.Name == old {
			target = i
			break
		}
	}
	if target == -1 {
		return fmt.Errorf("pipescript: no stage named %q", old)
	}
	for i, s := range p.Stages {
		if i != target && s.Name == newName && p.StageIDs[i] != p.StageIDs[target] {
			return fmt.Errorf("pipescript: stage %q already uses name %q", p.StageIDs[i], newName)
		}
	}
	p.Stages[target].Name = newName
	return nil
}

// SetOverride sets a key on this pipescript's per-slot override for
// stage i (`P.USER[i].key = value`): it takes precedence over the
// fragment's own USER and does not mutate the fragment itself.
func (p *Pipescript) SetOverride(i int, key string, v value.Value) error {
	idx, err := normalizeIndex(i, len(p.Stages))
	if err != nil {
		return err
	}
	p.cache = nil
	return p.Overrides[idx].Set(key, v)
}

// SetStageUser sets a key directly on stage i's own USER evaluator
// (`P.scripts[i].USER.key = value`): it mutates the fragment itself,
// visible to any other pipescript or composition holding the same
// *script.Fragment pointer, and ranks below a SetOverride on the same
// key.
func (p *Pipescript) SetStageUser(i int, key string, v value.Value) error {
	idx, err := normalizeIndex(i, len(p.Stages))
	if err != nil {
		return err
	}
	p.cache = nil
	p.Stages[idx].Clear()
	return p.Stages[idx].USER.Set(key, v)
}
