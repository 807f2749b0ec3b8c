package main

import (
	"strings"
	"testing"
)

func TestBuildDeckRendersGroupAndRunControl(t *testing.T) {
	text, err := buildDeck()
	if err != nil {
		t.Fatalf("buildDeck: %v", err)
	}
	wantSubstrings := []string{
		"pair_style hybrid/overlay smd/ulsph smd/tlsph smd/hertz 1.5",
		"pair_coeff 1 1 none",
		"pair_coeff 3 4 smd/hertz 10000000",
		"timestep 1e-07",
		"run 10000",
	}
	for _, want := range wantSubstrings {
		if !strings.Contains(text, want) {
			t.Errorf("buildDeck output missing %q\n--- full output ---\n%s", want, text)
		}
	}
}
