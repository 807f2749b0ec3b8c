package script

import (
	"os"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/ovitrac/pizza3go/internal/value"
)

func loadGolden(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	arc := txtar.Parse(data)
	want := make(map[string]string, len(arc.Files))
	for _, f := range arc.Files {
		want[f.Name] = string(f.Data)
	}
	return want
}

// TestGoldenFragmentRenders compares rendered LAMMPS fragments against
// fixtures stored in a single txtar archive, the fixture format
// SPEC_FULL.md's test-tooling section calls for.
func TestGoldenFragmentRenders(t *testing.T) {
	want := loadGolden(t, "testdata/golden.txtar")

	mass := New("mass", "mass ${id} ${m}\n")
	_ = mass.Definitions.Set("id", value.Int(1))
	_ = mass.Definitions.Set("m", value.Float(2.5))
	got, err := mass.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != want["mass.txt"] {
		t.Errorf("mass.Do() = %q, want %q", got, want["mass.txt"])
	}

	other := New("mass2", "mass ${id} ${m}\n")
	_ = other.Definitions.Set("id", value.Int(2))
	_ = other.Definitions.Set("m", value.Float(4))
	gotConcat, err := mass.Eager(other)
	if err != nil {
		t.Fatalf("Eager: %v", err)
	}
	if gotConcat != want["concat.txt"] {
		t.Errorf("mass.Eager(other) = %q, want %q", gotConcat, want["concat.txt"])
	}
}
