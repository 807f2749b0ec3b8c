package script

import (
	"os"
	"strings"
	"testing"

	"github.com/ovitrac/pizza3go/internal/value"
)

func newFragment(t *testing.T, name, tmpl string, defs map[string]value.Value) *Fragment {
	t.Helper()
	f := New(name, tmpl)
	for k, v := range defs {
		if err := f.Definitions.Set(k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	return f
}

func TestFragmentDoSubstitutesTemplate(t *testing.T) {
	f := newFragment(t, "a", "mass 1 ${m}", map[string]value.Value{"m": value.Float(2.5)})
	out, err := f.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out != "mass 1 2.5" {
		t.Errorf("Do() = %q, want %q", out, "mass 1 2.5")
	}
}

func TestFragmentUSEROverridesDefinitions(t *testing.T) {
	f := newFragment(t, "a", "mass 1 ${m}", map[string]value.Value{"m": value.Float(1)})
	_ = f.USER.Set("m", value.Float(9))
	out, err := f.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out != "mass 1 9" {
		t.Errorf("Do() = %q, want USER value to win", out)
	}
}

func TestFragmentConcatMergesRightWins(t *testing.T) {
	a := newFragment(t, "a", "A:${x} ", map[string]value.Value{"x": value.Int(1)})
	b := newFragment(t, "b", "B:${x}", map[string]value.Value{"x": value.Int(2)})
	c := a.Concat(b)
	out, err := c.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out != "A:2 B:2" {
		t.Errorf("Concat Do() = %q, want %q (right operand's x should win throughout)", out, "A:2 B:2")
	}
}

func TestFragmentEagerConcatenatesRenderedText(t *testing.T) {
	a := newFragment(t, "a", "A:${x}", map[string]value.Value{"x": value.Int(1)})
	b := newFragment(t, "b", "B:${x}", map[string]value.Value{"x": value.Int(2)})
	out, err := a.Eager(b)
	if err != nil {
		t.Fatalf("Eager: %v", err)
	}
	if out != "A:1B:2" {
		t.Errorf("Eager() = %q, want %q (each side keeps its own x)", out, "A:1B:2")
	}
}

func TestFragmentRepeatSharesUser(t *testing.T) {
	a := newFragment(t, "a", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	copies := a.Repeat(3)
	_ = copies[0].USER.Set("x", value.Int(99))
	for i, c := range copies {
		out, err := c.Do(false)
		if err != nil {
			t.Fatalf("copy %d Do: %v", i, err)
		}
		if out != "v=99" {
			t.Errorf("copy %d = %q, want shared USER override v=99", i, out)
		}
	}
}

func TestFragmentRepeatIndependentUsesOwnUser(t *testing.T) {
	a := newFragment(t, "a", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	copies := a.RepeatIndependent(2)
	_ = copies[0].USER.Set("x", value.Int(42))

	out0, err := copies[0].Do(false)
	if err != nil {
		t.Fatalf("copy0 Do: %v", err)
	}
	if out0 != "v=42" {
		t.Errorf("copy0 = %q, want v=42", out0)
	}

	out1, err := copies[1].Do(false)
	if err != nil {
		t.Fatalf("copy1 Do: %v", err)
	}
	if out1 != "v=1" {
		t.Errorf("copy1 = %q, want v=1 (independent USER scope, untouched)", out1)
	}
}

func TestFragmentClearInvalidatesCache(t *testing.T) {
	a := newFragment(t, "a", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	first, err := a.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	_ = a.Definitions.Set("x", value.Int(2))
	cached, err := a.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if cached != first {
		t.Fatalf("expected cached Do() to still equal %q before Clear, got %q", first, cached)
	}
	a.Clear()
	fresh, err := a.Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if fresh != "v=2" {
		t.Errorf("after Clear, Do() = %q, want %q", fresh, "v=2")
	}
}

func TestFragmentWriteIncludesHeader(t *testing.T) {
	a := newFragment(t, "a", "v=${x}", map[string]value.Value{"x": value.Int(1)})
	dir := t.TempDir()
	path := dir + "/out.in"
	if err := a.Write(path, "1.0"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data := string(raw)
	if !strings.Contains(data, "# Automatically generated by pizza3go 1.0") {
		t.Errorf("written file missing header: %q", data)
	}
	if !strings.HasSuffix(data, "v=1") {
		t.Errorf("written file missing rendered body: %q", data)
	}
}
