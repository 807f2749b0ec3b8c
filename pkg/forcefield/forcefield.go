// Package forcefield implements Forcefield descriptor: a declarative,
// style-parameterized record that renders LAMMPS
// `pair_style`/`pair_coeff` text, polymorphic across a closed,
// user-extensible set of physical styles.
//
// Uses a builtin-table-keyed-by-name pattern, the same shape
// internal/registry uses for its own builtin tables: new styles
// register a Variant in a table rather than requiring a type switch
// or class-name reflection.
package forcefield

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ovitrac/pizza3go/internal/value"
	"github.com/ovitrac/pizza3go/pkg/param"
)

// Variant is one registered forcefield style: the LAMMPS substyle
// name it contributes to a `pair_style hybrid/overlay` header (empty
// for styles that never appear there, e.g. "none"/"rigidwall"), the
// diagonal pair_coeff TEMPLATE it renders against its own parameters,
// and the default coefficient values a newly constructed Descriptor of
// this kind starts with.
type Variant struct {
	Kind            string
	StyleName       string
	DiagTemplate    string
	DefaultParams   map[string]float64
	DiagLiteralNone bool // true for styles whose diagonal coefficient is literally "none"
}

// Registry is the process-wide, user-extensible table of known
// forcefield styles.
// Like internal/registry, it is built once and read thereafter; unlike
// internal/registry it is exported and mutable so a caller may
// `forcefield.Registry["custom"] = Variant{...}` to add a style, the
// "user-extensible" half of the spec.
var Registry = map[string]Variant{
	"none": {
		Kind:            "none",
		DiagLiteralNone: true,
	},
	"rigidwall": {
		Kind:            "rigidwall",
		DiagLiteralNone: true,
	},
	"smd": {
		Kind:         "smd",
		StyleName:    "smd/tlsph",
		DiagTemplate: "smd/tlsph *COMMON ${rho0} ${E} ${nu} ${q1} ${q2} ${Hg} ${Cp} *STRENGTH_LINEAR_PLASTIC ${yield} ${Ep} *EOS_LINEAR *END",
		DefaultParams: map[string]float64{
			"rho0": 1000, "E": 1e6, "nu": 0.3, "q1": 1.0, "q2": 0.0,
			"Hg": 10, "Cp": 1.0, "yield": 1e4, "Ep": 0,
			"contact_stiffness": 1e7,
		},
	},
	"ulsph": {
		Kind:         "ulsph",
		StyleName:    "smd/ulsph",
		DiagTemplate: "smd/ulsph *COMMON ${rho0} ${c0} ${q1} ${Cp} ${hg} *EOS_TAIT ${gamma} *END",
		DefaultParams: map[string]float64{
			"rho0": 1000, "c0": 10, "q1": 1.0, "Cp": 1.0, "hg": 10, "gamma": 7,
			"contact_stiffness": 1e7,
		},
	},
	"tlsph": {
		Kind:         "tlsph",
		StyleName:    "smd/tlsph",
		DiagTemplate: "smd/tlsph *COMMON ${rho0} ${E} ${nu} ${q1} ${q2} ${Hg} ${Cp} *STRENGTH_LINEAR_PLASTIC ${yield} ${Ep} *EOS_LINEAR *END",
		DefaultParams: map[string]float64{
			"rho0": 1100, "E": 5e6, "nu": 0.3, "q1": 1.0, "q2": 0.0,
			"Hg": 10, "Cp": 1.0, "yield": 1e5, "Ep": 0,
			"contact_stiffness": 1e7,
		},
	},
	"water": {
		Kind:         "water",
		StyleName:    "smd/ulsph",
		DiagTemplate: "smd/ulsph *COMMON ${rho0} ${c0} ${q1} ${Cp} ${hg} *EOS_TAIT ${gamma} *END",
		DefaultParams: map[string]float64{
			"rho0": 1000, "c0": 15, "q1": 1.0, "Cp": 4.186, "hg": 10, "gamma": 7,
			"contact_stiffness": 1e7,
		},
	},
	"solidfood": {
		Kind:         "solidfood",
		StyleName:    "smd/tlsph",
		DiagTemplate: "smd/tlsph *COMMON ${rho0} ${E} ${nu} ${q1} ${q2} ${Hg} ${Cp} *STRENGTH_LINEAR_PLASTIC ${yield} ${Ep} *EOS_LINEAR *END",
		DefaultParams: map[string]float64{
			"rho0": 1100, "E": 2e6, "nu": 0.3, "q1": 1.0, "q2": 0.0,
			"Hg": 10, "Cp": 3.7, "yield": 5e4, "Ep": 0,
			"contact_stiffness": 1e7,
		},
	},
}

// ContactKernelScale is the single global parameter/S4
// appends once to the hybrid/overlay header's `smd/hertz` entry (the
// "1.5" in `pair_style hybrid/overlay... smd/hertz 1.5`), distinct
// from the per-pair `contact_stiffness` coefficient rendered on each
// off-diagonal `pair_coeff` line.
const ContactKernelScale = 1.5

// Descriptor is "Entity: Forcefield descriptor".
type Descriptor struct {
	Name        string
	Kind        string
	Description string
	Beadtype    int
	Parameters  *param.Evaluator
	UserID      string
	Version     string
	USER        *param.Evaluator
}

// New constructs a Descriptor for a registered kind, seeded with that
// variant's default parameters; beadtype must be positive.
func New(kind string, beadtype int) (*Descriptor, error) {
	if beadtype < 1 {
		return nil, fmt.Errorf("forcefield: beadtype must be >= 1, got %d", beadtype)
	}
	v, ok := Registry[kind]
	if !ok {
		return nil, fmt.Errorf("forcefield: unknown style %q", kind)
	}
	params := param.NewEvaluator()
	for name, f := range v.DefaultParams {
		if err := params.Set(name, value.Float(f)); err != nil {
			return nil, err
		}
	}
	return &Descriptor{
		Name:       v.StyleName,
		Kind:       kind,
		Beadtype:   beadtype,
		Parameters: params,
		UserID:     uuid.NewString(),
		USER:       param.NewEvaluator(),
		Version:    "1.0",
	}, nil
}

func (d *Descriptor) variant() Variant {
	return Registry[d.Kind]
}

// merged evaluates Parameters ⊕ USER (USER wins) and
// returns the fully-resolved Container for template substitution.
func (d *Descriptor) merged(debug bool) (*param.Container, error) {
	combined := d.Parameters.Container.Concat(d.USER.Container)
	ev := param.WrapEvaluator(combined)
	ev.Debug = debug
	return ev.Eval()
}

// PairStyle returns this descriptor's contribution to a `pair_style
// hybrid/overlay` header — its bare LAMMPS substyle name, or "" for
// styles that never appear there ("none", "rigidwall").
func (d *Descriptor) PairStyle() string {
	return d.variant().StyleName
}

// PairDiagCoeff renders `pair_coeff <beadtype> <beadtype>...` for
// this descriptor's own self-interaction.
func (d *Descriptor) PairDiagCoeff() (string, error) {
	v := d.variant()
	if v.DiagLiteralNone {
		return fmt.Sprintf("pair_coeff %d %d none", d.Beadtype, d.Beadtype), nil
	}
	resolved, err := d.merged(false)
	if err != nil {
		return "", err
	}
	body, err := param.Render(v.DiagTemplate, resolved, false, param.DefaultSigFigs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("pair_coeff %d %d %s", d.Beadtype, d.Beadtype, body), nil
}

// PairOffDiagCoeff renders the cross-interaction line between d and
// other. In this domain every cross interaction — same-style or
// different-style — is a contact interaction, not a continuum one:
// names this explicitly for different-style pairs, and
// scenario S4 shows it applies uniformly (object 3 and object 4 share
// the "solidfood" style yet their (3,4) line is still the generic
// `smd/hertz` contact line, not a solidfood/solidfood template).
//
// `contact_stiffness` is taken from d's resolved parameters unless
// other.USER overrides it.
func (d *Descriptor) PairOffDiagCoeff(other *Descriptor) (string, error) {
	if d.variant().DiagLiteralNone && other.variant().DiagLiteralNone {
		return "", fmt.Errorf("forcefield: no interaction defined between two %q styles", d.Kind)
	}
	stiffness, err := d.contactStiffness(other)
	if err != nil {
		return "", err
	}
	i, j := d.Beadtype, other.Beadtype
	if i > j {
		i, j = j, i
	}
	return fmt.Sprintf("pair_coeff %d %d smd/hertz %s", i, j, formatStiffness(stiffness)), nil
}

// contactStiffness reads `contact_stiffness` from d's own resolved
// parameters; a style with no contact model of its own (e.g. "none",
// "rigidwall") falls back to other's value, since a contact line
// still needs a stiffness from *some* side. An explicit override set
// on other.USER always wins.
func (d *Descriptor) contactStiffness(other *Descriptor) (float64, error) {
	resolved, err := d.merged(false)
	if err != nil {
		return 0, err
	}
	base := 0.0
	if v, gerr := resolved.Get("contact_stiffness"); gerr == nil {
		if f, ok := value.AsFloat(v); ok {
			base = f
		}
	} else {
		otherResolved, oerr := other.merged(false)
		if oerr != nil {
			return 0, oerr
		}
		if v, gerr2 := otherResolved.Get("contact_stiffness"); gerr2 == nil {
			if f, ok := value.AsFloat(v); ok {
				base = f
			}
		}
	}
	if overrideV, gerr := other.USER.Get("contact_stiffness"); gerr == nil {
		if f, ok := value.AsFloat(overrideV); ok {
			return f, nil
		}
	}
	return base, nil
}

func formatStiffness(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// DistinctStyles returns the unique, non-empty PairStyle() names of
// descs in first-seen order, the input to assembling one
// `pair_style hybrid/overlay` header across a whole group.
func DistinctStyles(descs []*Descriptor) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range descs {
		s := d.PairStyle()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
