// Package scriptobject implements Script Objects and
// Groups: named, bead-typed simulation entities that compose into
// groups, derive LAMMPS `group`/`pair_style`/`pair_coeff` text, and
// expose their own read_data fragment.
package scriptobject

import (
	"fmt"

	"github.com/ovitrac/pizza3go/pkg/forcefield"
	"github.com/ovitrac/pizza3go/pkg/param"
	"github.com/ovitrac/pizza3go/pkg/script"
)

// Object is "Entity: Script object": one named,
// bead-typed simulation component backed by a data file and a
// Forcefield descriptor. Groups is the ordered set of group-name
// strings this object belongs to: an object may belong to several
// groups at once (a bead type can be a member of both a physics group
// like "solid" and a naming group like "rigid"), which is what lets
// `Group.Group()` emit more than one `group NAME type …` line per
// object.
type Object struct {
	Name       string
	Beadtype   int
	DataFile   string
	Forcefield *forcefield.Descriptor
	Groups     []string
	USER       *param.Evaluator

	readCount int // tracks whether this object's data file has already been read
}

// New constructs an Object. Its Beadtype is copied from ff.Beadtype,
// so a Script object's identity (its bead type) and its Forcefield
// descriptor's bead type agree for pair_coeff rendering. groups is
// the object's group membership;
// when omitted it defaults to a single group named after the object
// itself, the common case where "object" and "group" coincide.
func New(name string, datafile string, ff *forcefield.Descriptor, groups ...string) (*Object, error) {
	if ff == nil {
		return nil, fmt.Errorf("scriptobject: %q: forcefield descriptor required", name)
	}
	if len(groups) == 0 {
		groups = []string{name}
	}
	return &Object{
		Name:       name,
		Beadtype:   ff.Beadtype,
		DataFile:   datafile,
		Forcefield: ff,
		Groups:     append([]string(nil), groups...),
		USER:       param.NewEvaluator(),
	}, nil
}

// groupNames returns o.Groups, falling back to a single group named
// after the object for an Object built without New (a zero-value
// Groups field).
func (o *Object) groupNames() []string {
	if len(o.Groups) == 0 {
		return []string{o.Name}
	}
	return o.Groups
}

// Script returns the `read_data` fragment for this object. The first
// call emits a bare `read_data <file>`; every subsequent call on the
// same Object emits `read_data <file> add append`.
func (o *Object) Script() *script.Fragment {
	tmpl := "read_data " + o.DataFile
	if o.readCount > 0 {
		tmpl += " add append"
	}
	o.readCount++
	frag := script.New(o.Name+":read", tmpl)
	frag.USER = o.USER
	return frag
}

// Add is the `+` operator: combining two objects produces a new Group.
func (o *Object) Add(other *Object) *Group {
	return NewGroup(o, other)
}
