package param

import (
	"strings"
	"testing"

	"github.com/ovitrac/pizza3go/internal/value"
)

func TestOrderedEvaluatorForwardReference(t *testing.T) {
	e := NewEvaluator()
	// "b" is defined before "a" but references it — insertion-order
	// Eval would fail (a not yet resolved), the ordered variant must
	// not.
	_ = e.Set("b", value.Str("${a*2}"))
	_ = e.Set("a", value.Int(5))

	if _, err := e.Eval(); err != nil {
		t.Fatalf("plain Eval unexpectedly failed: %v", err)
	}
	plain, _ := e.Eval()
	b, _ := plain.Get("b")
	if !strings.Contains(b.Text(), "<Error:") {
		t.Fatalf("sanity check failed: insertion-order Eval should not resolve a forward reference, got %v", b)
	}

	ordered, err := e.ToParamAuto().Eval()
	if err != nil {
		t.Fatalf("ordered Eval: %v", err)
	}
	bOrdered, _ := ordered.Get("b")
	if bOrdered != value.Int(10) {
		t.Errorf("ordered b = %v, want Int(10)", bOrdered)
	}
}

func TestOrderedEvaluatorCycleMarksOnlyCyclicKeys(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("a", value.Str("${b+1}"))
	_ = e.Set("b", value.Str("${a+1}"))
	_ = e.Set("c", value.Int(7))

	out, err := e.ToParamAuto().Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	a, _ := out.Get("a")
	if !strings.Contains(a.Text(), "<Error:") {
		t.Errorf("a = %v, want an error marker", a)
	}
	b, _ := out.Get("b")
	if !strings.Contains(b.Text(), "<Error:") {
		t.Errorf("b = %v, want an error marker", b)
	}
	c, _ := out.Get("c")
	if c != value.Int(7) {
		t.Errorf("c = %v, want Int(7): a cycle elsewhere must not abort evaluation of unrelated keys", c)
	}
}

func TestOrderedEvaluatorCycleDebugAborts(t *testing.T) {
	e := NewEvaluator(WithDebug(true))
	_ = e.Set("a", value.Str("${b+1}"))
	_ = e.Set("b", value.Str("${a+1}"))

	if _, err := e.ToParamAuto().Eval(); err == nil {
		t.Error("Debug should abort the whole Eval on a cycle")
	}
}

func TestOrderedEvaluatorDeterministicOrder(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("z", value.Int(1))
	_ = e.Set("y", value.Int(2))
	_ = e.Set("x", value.Str("${y+z}"))

	out, err := e.ToParamAuto().Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	x, _ := out.Get("x")
	if x != value.Int(3) {
		t.Errorf("x = %v, want Int(3)", x)
	}
}
