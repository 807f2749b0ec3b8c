// Package region implements geometry codelets: Block,
// Cylinder and Sphere region descriptors that render LAMMPS
// `region`/`create_atoms` commands and compose through the same
// Script fragment algebra as every other part of a deck, since a region is, in the end, just another named fragment
// with its own DEFINITIONS and TEMPLATE.
package region

import (
	"fmt"

	"github.com/ovitrac/pizza3go/internal/value"
	"github.com/ovitrac/pizza3go/pkg/param"
	"github.com/ovitrac/pizza3go/pkg/script"
)

// Shape is one of the closed set of LAMMPS region shapes this
// library supports.
type Shape string

const (
	Block    Shape = "block"
	Cylinder Shape = "cylinder"
	Sphere   Shape = "sphere"
)

// Region is a named geometric region: its own style-specific
// DEFINITIONS (bounds/center/radius) and a TEMPLATE rendering the
// LAMMPS `region` command for that shape.
type Region struct {
	Name        string
	Shape       Shape
	Definitions *param.Evaluator
	USER        *param.Evaluator
}

func newRegion(name string, shape Shape, fields map[string]value.Value) (*Region, error) {
	defs := param.NewEvaluator()
	for k, v := range fields {
		if err := defs.Set(k, v); err != nil {
			return nil, err
		}
	}
	return &Region{Name: name, Shape: shape, Definitions: defs, USER: param.NewEvaluator()}, nil
}

// NewBlock builds an axis-aligned box region.
func NewBlock(name string, xlo, xhi, ylo, yhi, zlo, zhi float64) (*Region, error) {
	return newRegion(name, Block, map[string]value.Value{
		"xlo": value.Float(xlo), "xhi": value.Float(xhi),
		"ylo": value.Float(ylo), "yhi": value.Float(yhi),
		"zlo": value.Float(zlo), "zhi": value.Float(zhi),
	})
}

// NewCylinder builds a cylindrical region along the given axis
// ("x", "y", or "z"), centered at (c1, c2) in the plane perpendicular
// to axis, spanning [lo, hi] along axis.
func NewCylinder(name, axis string, c1, c2, radius, lo, hi float64) (*Region, error) {
	if axis != "x" && axis != "y" && axis != "z" {
		return nil, fmt.Errorf("region: cylinder axis must be x, y or z, got %q", axis)
	}
	r, err := newRegion(name, Cylinder, map[string]value.Value{
		"c1": value.Float(c1), "c2": value.Float(c2),
		"radius": value.Float(radius), "lo": value.Float(lo), "hi": value.Float(hi),
	})
	if err != nil {
		return nil, err
	}
	_ = r.Definitions.Set("axis", value.Str(axis))
	return r, nil
}

// NewSphere builds a spherical region centered at (x, y, z).
func NewSphere(name string, x, y, z, radius float64) (*Region, error) {
	return newRegion(name, Sphere, map[string]value.Value{
		"x": value.Float(x), "y": value.Float(y), "z": value.Float(z), "radius": value.Float(radius),
	})
}

func (r *Region) template() string {
	switch r.Shape {
	case Block:
		return fmt.Sprintf("region %s block ${xlo} ${xhi} ${ylo} ${yhi} ${zlo} ${zhi} units box", r.Name)
	case Cylinder:
		return fmt.Sprintf("region %s cylinder ${axis} ${c1} ${c2} ${radius} ${lo} ${hi} units box", r.Name)
	case Sphere:
		return fmt.Sprintf("region %s sphere ${x} ${y} ${z} ${radius} units box", r.Name)
	default:
		return fmt.Sprintf("region %s %s", r.Name, r.Shape)
	}
}

// Script renders this region as a Script fragment:
// its own DEFINITIONS/USER against the shape's TEMPLATE.
func (r *Region) Script() *script.Fragment {
	f := script.New(r.Name, r.template())
	f.Definitions = r.Definitions
	f.USER = r.USER
	return f
}

// CreateAtoms renders `create_atoms <beadtype> region <name>`.
func (r *Region) CreateAtoms(beadtype int) *script.Fragment {
	return script.New(r.Name+":create_atoms", fmt.Sprintf("create_atoms %d region %s", beadtype, r.Name))
}

// Add composes this region's `region` declaration with another
// region's, via the same lazy `+` concatenation the rest of fragment
// algebra uses. No create_atoms line is included.
func (r *Region) Add(other *Region) *script.Fragment {
	return r.Script().Concat(other.Script())
}
