package forcefield

import (
	"strings"
	"testing"

	"github.com/ovitrac/pizza3go/internal/value"
)

// TestScenarioPairCoefficientMatrix reproduces scenario S4: four beads
// (rigidwall, water, solidfood, solidfood) rendering a diagonal set of
// self-interactions plus a strictly upper-triangular set of generic
// contact interactions, including the (3,4) pair where both beads
// share the "solidfood" style yet still render via smd/hertz.
func TestScenarioPairCoefficientMatrix(t *testing.T) {
	wall, err := New("rigidwall", 1)
	if err != nil {
		t.Fatalf("New(rigidwall): %v", err)
	}
	water, err := New("water", 2)
	if err != nil {
		t.Fatalf("New(water): %v", err)
	}
	food1, err := New("solidfood", 3)
	if err != nil {
		t.Fatalf("New(solidfood): %v", err)
	}
	food2, err := New("solidfood", 4)
	if err != nil {
		t.Fatalf("New(solidfood): %v", err)
	}
	descs := []*Descriptor{wall, water, food1, food2}

	styles := DistinctStyles(descs)
	if len(styles) != 2 || styles[0] != "smd/ulsph" || styles[1] != "smd/tlsph" {
		t.Fatalf("DistinctStyles = %v, want [smd/ulsph smd/tlsph]", styles)
	}

	wallDiag, err := wall.PairDiagCoeff()
	if err != nil {
		t.Fatalf("wall diag: %v", err)
	}
	if wallDiag != "pair_coeff 1 1 none" {
		t.Errorf("wall diag = %q, want %q", wallDiag, "pair_coeff 1 1 none")
	}

	waterDiag, err := water.PairDiagCoeff()
	if err != nil {
		t.Fatalf("water diag: %v", err)
	}
	if !strings.HasPrefix(waterDiag, "pair_coeff 2 2 smd/ulsph *COMMON") || !strings.HasSuffix(waterDiag, "*END") {
		t.Errorf("water diag = %q", waterDiag)
	}

	food1Diag, err := food1.PairDiagCoeff()
	if err != nil {
		t.Fatalf("food1 diag: %v", err)
	}
	if !strings.HasPrefix(food1Diag, "pair_coeff 3 3 smd/tlsph *COMMON") {
		t.Errorf("food1 diag = %q", food1Diag)
	}

	food2Diag, err := food2.PairDiagCoeff()
	if err != nil {
		t.Fatalf("food2 diag: %v", err)
	}
	if !strings.HasPrefix(food2Diag, "pair_coeff 4 4 smd/tlsph *COMMON") {
		t.Errorf("food2 diag = %q", food2Diag)
	}

	type pair struct {
		a, b *Descriptor
		want string
	}
	pairs := []pair{
		{wall, water, "pair_coeff 1 2 smd/hertz 10000000"},
		{wall, food1, "pair_coeff 1 3 smd/hertz 10000000"},
		{water, food1, "pair_coeff 2 3 smd/hertz 10000000"},
		{wall, food2, "pair_coeff 1 4 smd/hertz 10000000"},
		{water, food2, "pair_coeff 2 4 smd/hertz 10000000"},
		{food1, food2, "pair_coeff 3 4 smd/hertz 10000000"},
	}
	for _, p := range pairs {
		got, err := p.a.PairOffDiagCoeff(p.b)
		if err != nil {
			t.Fatalf("PairOffDiagCoeff(%d,%d): %v", p.a.Beadtype, p.b.Beadtype, err)
		}
		if got != p.want {
			t.Errorf("PairOffDiagCoeff(%d,%d) = %q, want %q", p.a.Beadtype, p.b.Beadtype, got, p.want)
		}
	}
}

func TestPairOffDiagCoeffOverride(t *testing.T) {
	a, _ := New("water", 1)
	b, _ := New("solidfood", 2)
	if err := b.USER.Set("contact_stiffness", value.Float(5e6)); err != nil {
		t.Fatalf("Set override: %v", err)
	}
	got, err := a.PairOffDiagCoeff(b)
	if err != nil {
		t.Fatalf("PairOffDiagCoeff: %v", err)
	}
	if got != "pair_coeff 1 2 smd/hertz 5000000" {
		t.Errorf("got %q", got)
	}
}

func TestNewRejectsUnknownStyle(t *testing.T) {
	if _, err := New("nonexistent", 1); err == nil {
		t.Error("New with an unknown style should fail")
	}
}

func TestNewRejectsNonPositiveBeadtype(t *testing.T) {
	if _, err := New("water", 0); err == nil {
		t.Error("New with beadtype 0 should fail")
	}
}
