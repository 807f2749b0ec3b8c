package pipescript

import (
	"testing"

	"github.com/ovitrac/pizza3go/internal/value"
	"github.com/ovitrac/pizza3go/pkg/script"
)

func frag(t *testing.T, name, tmpl string, defs map[string]value.Value) *script.Fragment {
	t.Helper()
	f := script.New(name, tmpl)
	for k, v := range defs {
		if err := f.Definitions.Set(k, v); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	return f
}

func TestDoAccumulatesDefinitionsAcrossStages(t *testing.T) {
	s1 := frag(t, "s1", "mass ${m}", map[string]value.Value{"m": value.Int(1)})
	s2 := frag(t, "s2", "mass ${m}", nil) // s2 defines no 'm' of its own; should inherit s1's
	p := New(s1, s2)

	out, err := p.Do(nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	want := "mass 1\nmass 1"
	if out != want {
		t.Errorf("Do() = %q, want %q", out, want)
	}
}

func TestDoLaterStageOverridesEarlierDefinition(t *testing.T) {
	s1 := frag(t, "s1", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	s2 := frag(t, "s2", "v=${x}", map[string]value.Value{"x": value.Int(9)})
	p := New(s1, s2)

	out, err := p.Do(nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out != "v=1\nv=9" {
		t.Errorf("Do() = %q, want %q", out, "v=1\nv=9")
	}
}

// TestScenarioPipescriptUserOverride reproduces scenario S6:
// P.USER[i].key = value (a pipescript-level override) and
// P.scripts[i].USER.key = value (mutating the fragment itself) are
// observably different operations.
func TestScenarioPipescriptUserOverride(t *testing.T) {
	s1 := frag(t, "s1", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	p1 := New(s1)
	if err := p1.SetOverride(0, "x", value.Int(100)); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	out1, err := p1.Do(nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out1 != "v=100" {
		t.Errorf("pipescript-level override: Do() = %q, want v=100", out1)
	}
	// the override must not have mutated the underlying fragment.
	direct, err := s1.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if direct != "v=1" {
		t.Errorf("SetOverride must not mutate the fragment itself; fragment Do() = %q, want v=1", direct)
	}

	s2 := frag(t, "s2", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	p2 := New(s2)
	if err := p2.SetStageUser(0, "x", value.Int(200)); err != nil {
		t.Fatalf("SetStageUser: %v", err)
	}
	out2, err := p2.Do(nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out2 != "v=200" {
		t.Errorf("stage-USER mutation: Do() = %q, want v=200", out2)
	}
	// this one DOES mutate the underlying fragment.
	direct2, err := s2.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if direct2 != "v=200" {
		t.Errorf("SetStageUser should mutate the fragment itself; fragment Do() = %q, want v=200", direct2)
	}
}

func TestAtMergesOverrideOverFragmentUser(t *testing.T) {
	s1 := frag(t, "s1", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	_ = s1.USER.Set("x", value.Int(5))
	p := New(s1)
	_ = p.SetOverride(0, "x", value.Int(42))

	stage, err := p.At(0)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	out, err := stage.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out != "v=42" {
		t.Errorf("At(0) effective USER = %q, want override (42) to win over fragment USER (5)", out)
	}
}

func TestSliceAndSelect(t *testing.T) {
	s1 := frag(t, "s1", "1", nil)
	s2 := frag(t, "s2", "2", nil)
	s3 := frag(t, "s3", "3", nil)
	p := New(s1, s2, s3)

	sliced, err := p.Slice(1, 3)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if sliced.Len() != 2 || sliced.Stages[0] != s2 || sliced.Stages[1] != s3 {
		t.Errorf("Slice(1,3) = %v", sliced.Stages)
	}

	reordered, err := p.Select([]int{2, 0})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if reordered.Len() != 2 || reordered.Stages[0] != s3 || reordered.Stages[1] != s1 {
		t.Errorf("Select([2,0]) = %v", reordered.Stages)
	}
}

func TestPipeAndConcat(t *testing.T) {
	s1 := frag(t, "s1", "1", nil)
	s2 := frag(t, "s2", "2", nil)
	s3 := frag(t, "s3", "3", nil)
	p := New(s1)
	piped := p.Pipe(s2)
	if piped.Len() != 2 {
		t.Fatalf("Pipe: got %d stages, want 2", piped.Len())
	}

	q := New(s3)
	concatenated := piped.Concat(q)
	if concatenated.Len() != 3 {
		t.Fatalf("Concat: got %d stages, want 3", concatenated.Len())
	}
	if p.Len() != 1 {
		t.Error("Pipe/Concat must not mutate the receiver")
	}
}

func TestRepeatIndependentOverrides(t *testing.T) {
	s1 := frag(t, "s1", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	p := New(s1)
	copies := p.Repeat(2)
	_ = copies[0].SetOverride(0, "x", value.Int(7))

	out0, err := copies[0].Do(nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out0 != "v=7" {
		t.Errorf("copy0 = %q, want v=7", out0)
	}

	out1, err := copies[1].Do(nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out1 != "v=1" {
		t.Errorf("copy1 = %q, want v=1 (independent override scope)", out1)
	}
}

func TestRenameStage(t *testing.T) {
	s1 := frag(t, "old", "x", nil)
	p := New(s1)
	if err := p.Rename("old", "new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if p.Stages[0].Name != "new" {
		t.Errorf("stage name = %q, want %q", p.Stages[0].Name, "new")
	}
	if err := p.Rename("missing", "x"); err == nil {
		t.Error("Rename of a nonexistent stage should fail")
	}
}

func TestClearInvalidatesCache(t *testing.T) {
	s1 := frag(t, "s1", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	p := New(s1)
	first, err := p.Do(nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	_ = s1.Definitions.Set("x", value.Int(2))
	cached, err := p.Do(nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if cached != first {
		t.Fatalf("expected cache hit before Clear: got %q, want %q", cached, first)
	}
	p.Clear()
	fresh, err := p.Do(nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if fresh != "v=2" {
		t.Errorf("after Clear, Do() = %q, want v=2", fresh)
	}
}
