package scriptobject

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ovitrac/pizza3go/pkg/forcefield"
	"github.com/ovitrac/pizza3go/pkg/script"
)

// rankEdge records an explicit "after comes after before" ordering
// constraint installed by the `>` operator.
type rankEdge struct {
	before, after string
}

// Group is "Entity: Script object group": an ordered
// collection of Objects plus any explicit ordering constraints
// installed via GreaterThan.
type Group struct {
	Objects []*Object
	edges   []rankEdge
}

// NewGroup builds a Group from objects, preserving their given order.
func NewGroup(objects ...*Object) *Group {
	return &Group{Objects: append([]*Object(nil), objects...)}
}

func (g *Group) clone() *Group {
	return &Group{
		Objects: append([]*Object(nil), g.Objects...),
		edges:   append([]rankEdge(nil), g.edges...),
	}
}

// Add is the `+` operator: append one object, returning a new Group.
func (g *Group) Add(other *Object) *Group {
	ng := g.clone()
	ng.Objects = append(ng.Objects, other)
	return ng
}

// Merge concatenates two groups, returning a new Group (also `+`,
// group-to-group form).
func (g *Group) Merge(other *Group) *Group {
	ng := g.clone()
	ng.Objects = append(ng.Objects, other.Objects...)
	ng.edges = append(ng.edges, other.edges...)
	return ng
}

// GreaterThan installs the ordering constraint `after > before`: when
// the group is assembled, `after` is placed later than `before`. It
// returns a new Group; the receiver is unchanged.
func (g *Group) GreaterThan(after, before *Object) *Group {
	ng := g.clone()
	ng.edges = append(ng.edges, rankEdge{before: before.Name, after: after.Name})
	return ng
}

// ordered returns g.Objects arranged by insertion order, adjusted by
// any GreaterThan constraints via a stable topological pass — the
// same Kahn's-algorithm-with-insertion-order-tiebreak shape
// pkg/param/ordered.go uses for forward-reference resolution.
func (g *Group) ordered() []*Object {
	if len(g.edges) == 0 {
		return g.Objects
	}
	byName := make(map[string]*Object, len(g.Objects))
	for _, o := range g.Objects {
		byName[o.Name] = o
	}
	indeg := make(map[string]int)
	deps := make(map[string][]string) // before -> [after, after,...]
	for _, o := range g.Objects {
		indeg[o.Name] = 0
	}
	for _, e := range g.edges {
		if _, ok := byName[e.before]; !ok {
			continue
		}
		if _, ok := byName[e.after]; !ok {
			continue
		}
		deps[e.before] = append(deps[e.before], e.after)
		indeg[e.after]++
	}
	var ready []string
	for _, o := range g.Objects {
		if indeg[o.Name] == 0 {
			ready = append(ready, o.Name)
		}
	}
	var order []string
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range deps[next] {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != len(g.Objects) {
		return g.Objects // cyclic constraint: fall back to insertion order rather than drop objects
	}
	out := make([]*Object, len(order))
	for i, name := range order {
		out[i] = byName[name]
	}
	return out
}

// Select returns a subgroup. spec is a mix of 0-based int indices and
// Object names.
func (g *Group) Select(spec []any) (*Group, error) {
	var out []*Object
	for _, s := range spec {
		switch v := s.(type) {
		case int:
			if v < 0 || v >= len(g.Objects) {
				return nil, fmt.Errorf("scriptobject: select index %d out of range", v)
			}
			out = append(out, g.Objects[v])
		case string:
			found := false
			for _, o := range g.Objects {
				if o.Name == v {
					out = append(out, o)
					found = true
				}
			}
			if !found {
				return nil, fmt.Errorf("scriptobject: select: no object named %q", v)
			}
		default:
			return nil, fmt.Errorf("scriptobject: select spec element must be int or string, got %T", s)
		}
	}
	return NewGroup(out...), nil
}

// groupBeadtypeSets folds every object's bead type into each of the
// group names it belongs to (many-to-many: one object can contribute
// its bead type to several group names, and one group name can
// collect bead types from several objects), preserving first-
// appearance order of group names across objects in assembly order.
func (g *Group) groupBeadtypeSets() ([]string, map[string][]int) {
	var names []string
	sets := make(map[string][]int)
	for _, o := range g.ordered() {
		for _, name := range o.groupNames() {
			if _, ok := sets[name]; !ok {
				names = append(names, name)
			}
			sets[name] = appendUnique(sets[name], o.Beadtype)
		}
	}
	for _, n := range names {
		sort.Ints(sets[n])
	}
	return names, sets
}

func appendUnique(xs []int, x int) []int {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}

// Group emits `group NAME type T1 T2...` for each distinct group
// name, followed by a comment noting any names whose bead-type sets
// are identical to an earlier name's ("similar groups").
func (g *Group) Group() *script.Fragment {
	names, sets := g.groupBeadtypeSets()

	seenSets := make(map[string]string) // bead-type-set signature -> first name with that signature
	var lines []string
	var similarNotes []string
	for _, name := range names {
		beadtypes := sets[name]
		parts := make([]string, len(beadtypes))
		for i, bt := range beadtypes {
			parts[i] = fmt.Sprintf("%d", bt)
		}
		lines = append(lines, fmt.Sprintf("group %s type %s", name, strings.Join(parts, " ")))

		sig := fmt.Sprint(beadtypes)
		if first, ok := seenSets[sig]; ok {
			similarNotes = append(similarNotes, fmt.Sprintf("# note: group %s has the same bead types as group %s", name, first))
		} else {
			seenSets[sig] = name
		}
	}
	lines = append(lines, similarNotes...)
	return script.New("group", strings.Join(lines, "\n"))
}

// Interaction is one upper-triangular pair of distinct bead types in
// the group, with each side's forcefield descriptor.
type Interaction struct {
	I, J int
	FFI  *forcefield.Descriptor
	FFJ  *forcefield.Descriptor
}

// Interactions enumerates every distinct-beadtype pair in
// column-then-row upper-triangular order: (1,2),(1,3),(2,3),
// (1,4),(2,4),(3,4),(1,5)... — a fixed, bit-for-bit reproducible
// ordering independent of the objects' insertion order.
func (g *Group) Interactions() []Interaction {
	byBeadtype := make(map[int]*Object)
	var beadtypes []int
	for _, o := range g.Objects {
		if _, ok := byBeadtype[o.Beadtype]; !ok {
			beadtypes = append(beadtypes, o.Beadtype)
		}
		byBeadtype[o.Beadtype] = o
	}
	sort.Ints(beadtypes)

	var out []Interaction
	for jIdx := 1; jIdx < len(beadtypes); jIdx++ {
		j := beadtypes[jIdx]
		for iIdx := 0; iIdx < jIdx; iIdx++ {
			i := beadtypes[iIdx]
			out = append(out, Interaction{
				I:   i,
				J:   j,
				FFI: byBeadtype[i].Forcefield,
				FFJ: byBeadtype[j].Forcefield,
			})
		}
	}
	return out
}

// diagonalDescriptors returns one Descriptor per distinct bead type,
// in ascending bead-type order.
func (g *Group) diagonalDescriptors() []*forcefield.Descriptor {
	byBeadtype := make(map[int]*forcefield.Descriptor)
	var beadtypes []int
	for _, o := range g.Objects {
		if _, ok := byBeadtype[o.Beadtype]; !ok {
			beadtypes = append(beadtypes, o.Beadtype)
		}
		byBeadtype[o.Beadtype] = o.Forcefield
	}
	sort.Ints(beadtypes)
	out := make([]*forcefield.Descriptor, len(beadtypes))
	for i, bt := range beadtypes {
		out[i] = byBeadtype[bt]
	}
	return out
}

// Forcefield assembles the full pair interaction block: one
// `pair_style hybrid/overlay` header, each diagonal pair_coeff in
// ascending bead-type order, then each off-diagonal pair_coeff in
// Interactions' column-then-row order.
func (g *Group) Forcefield() (*script.Fragment, error) {
	diag := g.diagonalDescriptors()
	interactions := g.Interactions()

	styles := forcefield.DistinctStyles(diag)
	header := "pair_style hybrid/overlay " + strings.Join(styles, " ")
	if len(interactions) > 0 {
		header += fmt.Sprintf(" smd/hertz %s", formatScale(forcefield.ContactKernelScale))
	}

	lines := []string{header}
	for _, d := range diag {
		line, err := d.PairDiagCoeff()
		if err != nil {
			return nil, fmt.Errorf("scriptobject: forcefield: %w", err)
		}
		lines = append(lines, line)
	}
	for _, it := range interactions {
		line, err := it.FFI.PairOffDiagCoeff(it.FFJ)
		if err != nil {
			return nil, fmt.Errorf("scriptobject: forcefield: %w", err)
		}
		lines = append(lines, line)
	}
	return script.New("forcefield", strings.Join(lines, "\n")), nil
}

func formatScale(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// Script composes the group's full input: each member's read_data
// fragment (in assembly order), the group() fragment, and the
// forcefield() fragment, concatenated eagerly.
func (g *Group) Script() (string, error) {
	var out strings.Builder
	for _, o := range g.ordered() {
		text, err := o.Script().Do(false)
		if err != nil {
			return "", err
		}
		out.WriteString(text)
		out.WriteString("\n")
	}
	groupText, err := g.Group().Do(false)
	if err != nil {
		return "", err
	}
	out.WriteString(groupText)
	out.WriteString("\n")

	ffFrag, err := g.Forcefield()
	if err != nil {
		return "", err
	}
	ffText, err := ffFrag.Do(false)
	if err != nil {
		return "", err
	}
	out.WriteString(ffText)
	return out.String(), nil
}
