package serialize

import (
	"testing"

	"github.com/ovitrac/pizza3go/internal/numarray"
	"github.com/ovitrac/pizza3go/internal/value"
	"github.com/ovitrac/pizza3go/pkg/param"
)

func TestRoundTripScalars(t *testing.T) {
	c := param.New()
	_ = c.Set("a", value.Int(3))
	_ = c.Set("b", value.Float(2.5))
	_ = c.Set("c", value.Str("hello"))
	_ = c.Set("d", value.Bool(true))

	blob, err := Write(c)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := Read(blob)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !c.Equal(back) {
		t.Errorf("round trip mismatch:\nwant keys %v\ngot keys %v", c.Keys(), back.Keys())
	}
}

func TestRoundTripPreservesOrder(t *testing.T) {
	c := param.New()
	_ = c.Set("z", value.Int(1))
	_ = c.Set("a", value.Int(2))
	_ = c.Set("m", value.Int(3))

	blob, err := Write(c)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := Read(blob)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []string{"z", "a", "m"}
	got := back.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRoundTripList(t *testing.T) {
	c := param.New()
	_ = c.Set("xs", value.List{value.Int(1), value.Int(2), value.Str("three")})

	blob, err := Write(c)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := Read(blob)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	xs, err := back.Get("xs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	l, ok := xs.(value.List)
	if !ok || len(l) != 3 {
		t.Fatalf("xs = %v, want a 3-element List", xs)
	}
	if l[0] != value.Int(1) || l[1] != value.Int(2) || l[2] != value.Str("three") {
		t.Errorf("xs = %v", l)
	}
}

func TestRoundTripMapping(t *testing.T) {
	m := value.NewMapping()
	m.Set("x", value.Int(1))
	m.Set("y", value.Float(2.5))

	c := param.New()
	_ = c.Set("m", m)

	blob, err := Write(c)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := Read(blob)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	mv, err := back.Get("m")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	rm, ok := mv.(*value.Mapping)
	if !ok {
		t.Fatalf("m = %T, want *value.Mapping", mv)
	}
	x, ok := rm.Get("x")
	if !ok || x != value.Int(1) {
		t.Errorf("m.x = %v", x)
	}
	y, ok := rm.Get("y")
	if !ok || y != value.Float(2.5) {
		t.Errorf("m.y = %v", y)
	}
}

func TestRoundTripArray(t *testing.T) {
	arr, err := numarray.Matrix([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	c := param.New()
	_ = c.Set("m", arr)

	blob, err := Write(c)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := Read(blob)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	mv, err := back.Get("m")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	rarr, ok := mv.(*numarray.Array)
	if !ok {
		t.Fatalf("m = %T, want *numarray.Array", mv)
	}
	if rarr.Shape()[0] != 2 || rarr.Shape()[1] != 3 {
		t.Errorf("shape = %v, want [2 3]", rarr.Shape())
	}
	if rarr.Data()[0] != 1 || rarr.Data()[5] != 6 {
		t.Errorf("data = %v", rarr.Data())
	}
}
