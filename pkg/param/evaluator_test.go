package param

import (
	"strings"
	"testing"

	"github.com/ovitrac/pizza3go/internal/value"
)

func TestEvaluatorTextInterpolation(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("a", value.Int(3))
	_ = e.Set("b", value.Str("${a*2}"))

	out, err := e.Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	b, _ := out.Get("b")
	if b != value.Int(6) {
		t.Errorf("b = %v, want Int(6)", b)
	}
}

func TestEvaluatorEscapeIsLiteral(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("a", value.Int(3))
	_ = e.Set("b", value.Str(`literal \${a} text`))

	out, err := e.Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	b, _ := out.Get("b")
	want := "literal ${a} text"
	if b.Text() != want {
		t.Errorf("b.Text() = %q, want %q", b.Text(), want)
	}
}

func TestEvaluatorWithEscapeCharOption(t *testing.T) {
	e := NewEvaluator(WithEscapeChar('~'))
	_ = e.Set("a", value.Int(3))
	_ = e.Set("b", value.Str(`~${a} then ${a}`))

	out, err := e.Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	b, _ := out.Get("b")
	want := "${a} then 3"
	if b.Text() != want {
		t.Errorf("b.Text() = %q, want %q", b.Text(), want)
	}
}

func TestEvaluatorLegacyDollarIdentifier(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("name", value.Str("$legacyvalue"))

	out, err := e.Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	name, _ := out.Get("name")
	if name.Text() != "legacyvalue" {
		t.Errorf("legacy $identifier = %q, want %q", name.Text(), "legacyvalue")
	}
}

func TestEvaluatorRawBraceInterpolation(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("x", value.Int(42))
	_ = e.Set("msg", value.Str("value is {x}"))

	out, err := e.Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	msg, _ := out.Get("msg")
	if msg.Text() != "value is 42" {
		t.Errorf("msg.Text() = %q, want %q", msg.Text(), "value is 42")
	}
}

func TestEvaluatorArrayLiteralEquivalence(t *testing.T) {
	forms := []string{"$[1 2 3]", "$[1,2,3]", "$[1:3]"}
	var texts []string
	for _, f := range forms {
		e := NewEvaluator()
		_ = e.Set("v", value.Str(f))
		out, err := e.Eval()
		if err != nil {
			t.Fatalf("Eval(%s): %v", f, err)
		}
		v, _ := out.Get("v")
		texts = append(texts, v.Text())
	}
	for i := 1; i < len(texts); i++ {
		if texts[i] != texts[0] {
			t.Errorf("%s -> %q, %s -> %q: want equal array text", forms[0], texts[0], forms[i], texts[i])
		}
	}
}

func TestEvaluatorMatrixEval(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("v", value.Str("$[1 2 3]"))
	_ = e.Set("m", value.Str("@{v.T @ v}"))

	out, err := e.Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	m, _ := out.Get("m")
	// v is 1x3, v.T is 3x1, v.T @ v -> 3x3.
	if !strings.Contains(m.Text(), "[") {
		t.Errorf("matrix result %q does not look like a bracketed array", m.Text())
	}
}

func TestEvaluatorBestEffortErrorMarker(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("bad", value.Str("${undefined_name}"))

	out, err := e.Eval()
	if err != nil {
		t.Fatalf("Eval should not fail outside Debug mode: %v", err)
	}
	bad, _ := out.Get("bad")
	if !value.IsError(bad) && !strings.Contains(bad.Text(), "<Error:") {
		t.Errorf("bad = %v, want an <Error: …> marker", bad)
	}
}

func TestEvaluatorDebugModePropagatesError(t *testing.T) {
	e := NewEvaluator()
	e.Debug = true
	_ = e.Set("bad", value.Str("${undefined_name}"))

	if _, err := e.Eval(); err == nil {
		t.Error("Eval with Debug=true should return an error for an undefined reference")
	}
}

func TestEvaluatorIdempotence(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("a", value.Int(3))
	_ = e.Set("b", value.Str("${a*2}"))

	once, err := e.Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	twice, err := WrapEvaluator(once).Eval()
	if err != nil {
		t.Fatalf("re-Eval: %v", err)
	}
	if !once.Equal(twice) {
		t.Error("p.eval().eval() should equal p.eval()")
	}
}

func TestEvaluatorBangListForm(t *testing.T) {
	e := NewEvaluator()
	_ = e.Set("a", value.Int(2))
	_ = e.Set("seq", value.Str("!1+1, a*10, 3"))

	out, err := e.Eval()
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	seq, _ := out.Get("seq")
	l, ok := seq.(value.List)
	if !ok || len(l) != 3 {
		t.Fatalf("seq = %v, want a 3-element List", seq)
	}
	if l[0] != value.Int(2) || l[1] != value.Int(20) || l[2] != value.Int(3) {
		t.Errorf("seq = %v, want [2 20 3]", l)
	}
}
