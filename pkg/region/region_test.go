package region

import (
	"strings"
	"testing"
)

func TestBlockRendersRegionCommand(t *testing.T) {
	r, err := NewBlock("box", 0, 10, 0, 10, 0, 10)
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}
	out, err := r.Script().Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	want := "region box block 0 10 0 10 0 10 units box"
	if out != want {
		t.Errorf("Do() = %q, want %q", out, want)
	}
}

func TestCylinderRendersRegionCommand(t *testing.T) {
	r, err := NewCylinder("rod", "z", 5, 5, 2, 0, 20)
	if err != nil {
		t.Fatalf("NewCylinder: %v", err)
	}
	out, err := r.Script().Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !strings.HasPrefix(out, "region rod cylinder z 5 5 2 0 20") {
		t.Errorf("Do() = %q", out)
	}
}

func TestCylinderRejectsBadAxis(t *testing.T) {
	if _, err := NewCylinder("rod", "w", 0, 0, 1, 0, 1); err == nil {
		t.Error("NewCylinder with an invalid axis should fail")
	}
}

func TestSphereRendersRegionCommand(t *testing.T) {
	r, err := NewSphere("drop", 1, 2, 3, 0.5)
	if err != nil {
		t.Fatalf("NewSphere: %v", err)
	}
	out, err := r.Script().Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	want := "region drop sphere 1 2 3 0.5 units box"
	if out != want {
		t.Errorf("Do() = %q, want %q", out, want)
	}
}

func TestCreateAtoms(t *testing.T) {
	r, _ := NewSphere("drop", 0, 0, 0, 1)
	out, err := r.CreateAtoms(2).Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out != "create_atoms 2 region drop" {
		t.Errorf("CreateAtoms Do() = %q", out)
	}
}

func TestRegionAddComposesFragments(t *testing.T) {
	a, _ := NewBlock("box", 0, 1, 0, 1, 0, 1)
	b, _ := NewSphere("drop", 0.5, 0.5, 0.5, 0.1)
	out, err := a.Add(b).Do(false)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !strings.Contains(out, "region box block") || !strings.Contains(out, "region drop sphere") {
		t.Errorf("Add Do() = %q", out)
	}
}
