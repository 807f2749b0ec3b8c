package scriptobject

import (
	"os"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// TestGoldenForcefieldAssembly compares the S4 scenario's rendered
// pair_style/pair_coeff text against fixtures stored in a single txtar
// archive, the fixture format SPEC_FULL.md's test-tooling section
// calls for. Deterministic lines (header, the literal "none" diagonal,
// every off-diagonal contact line) are checked exactly; the water and
// solidfood diagonal lines carry floating-point coefficients and are
// checked by prefix only.
func TestGoldenForcefieldAssembly(t *testing.T) {
	data, err := os.ReadFile("testdata/golden.txtar")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	arc := txtar.Parse(data)
	files := make(map[string]string, len(arc.Files))
	for _, f := range arc.Files {
		files[f.Name] = strings.TrimRight(string(f.Data), "\n")
	}

	wall, err := New("wall", "wall.data", mustFF(t, "rigidwall", 1))
	if err != nil {
		t.Fatalf("New(wall): %v", err)
	}
	water, err := New("water", "water.data", mustFF(t, "water", 2))
	if err != nil {
		t.Fatalf("New(water): %v", err)
	}
	food1, err := New("food", "food1.data", mustFF(t, "solidfood", 3))
	if err != nil {
		t.Fatalf("New(food1): %v", err)
	}
	food2, err := New("food", "food2.data", mustFF(t, "solidfood", 4))
	if err != nil {
		t.Fatalf("New(food2): %v", err)
	}

	g := NewGroup(wall, water, food1, food2)
	frag, err := g.Forcefield()
	if err != nil {
		t.Fatalf("Forcefield: %v", err)
	}
	out, err := frag.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	for _, wantLine := range strings.Split(files["exact.txt"], "\n") {
		if !strings.Contains(out, wantLine) {
			t.Errorf("rendered forcefield text missing exact line %q\n--- got ---\n%s", wantLine, out)
		}
	}
	for _, name := range []string{"diag2.prefix", "diag3.prefix", "diag4.prefix"} {
		if !strings.Contains(out, files[name]) {
			t.Errorf("rendered forcefield text missing prefix %q\n--- got ---\n%s", files[name], out)
		}
	}
}
