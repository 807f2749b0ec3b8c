// Command pizza3 is a small workshop-style demo that exercises the
// pizza3go library end-to-end: it assembles a four-bead forcefield
// scenario (a rigid wall, water, and two solid-food beads), wraps the
// group's script plus a short run-control fragment into a pipescript,
// and writes the rendered LAMMPS deck to stdout or a file.
//
// It is a consumer of the library, not an extension of it: no core
// semantics live here.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/ovitrac/pizza3go/internal/cache"
	"github.com/ovitrac/pizza3go/internal/value"
	"github.com/ovitrac/pizza3go/pkg/forcefield"
	"github.com/ovitrac/pizza3go/pkg/pipescript"
	"github.com/ovitrac/pizza3go/pkg/script"
	"github.com/ovitrac/pizza3go/pkg/scriptobject"
)

func main() {
	out := flag.String("o", "", "output file (default: stdout)")
	flag.Parse()

	text, err := buildDeck()
	if err != nil {
		fmt.Fprintln(os.Stderr, "pizza3:", err)
		os.Exit(1)
	}

	c, err := cache.Open(":memory:")
	if err != nil {
		fmt.Fprintln(os.Stderr, "pizza3:", err)
		os.Exit(1)
	}
	defer c.Close()
	key := cache.Key("deck", text)
	if err := c.Put(key, text); err != nil {
		fmt.Fprintln(os.Stderr, "pizza3:", err)
		os.Exit(1)
	}
	summary, err := c.Stat()
	if err != nil {
		fmt.Fprintln(os.Stderr, "pizza3:", err)
		os.Exit(1)
	}

	if *out == "" {
		fmt.Println(text)
		fmt.Fprintf(os.Stderr, "pizza3: rendered %s (cache: %s)\n", humanize.Bytes(uint64(len(text))), summary)
		return
	}
	if err := os.WriteFile(*out, []byte(text+"\n"), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "pizza3:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "pizza3: wrote %s (%s, cache: %s)\n", *out, humanize.Bytes(uint64(len(text))), summary)
}

func buildDeck() (string, error) {
	wallFF, err := forcefield.New("rigidwall", 1)
	if err != nil {
		return "", err
	}

	waterFF, err := forcefield.New("water", 2)
	if err != nil {
		return "", err
	}

	food1FF, err := forcefield.New("solidfood", 3)
	if err != nil {
		return "", err
	}

	food2FF, err := forcefield.New("solidfood", 4)
	if err != nil {
		return "", err
	}

	wall, err := scriptobject.New("wall", "wall.data", wallFF)
	if err != nil {
		return "", err
	}
	water, err := scriptobject.New("water", "water.data", waterFF)
	if err != nil {
		return "", err
	}
	food1, err := scriptobject.New("food", "food1.data", food1FF)
	if err != nil {
		return "", err
	}
	food2, err := scriptobject.New("food", "food2.data", food2FF)
	if err != nil {
		return "", err
	}

	group := scriptobject.NewGroup(wall, water, food1, food2)
	groupText, err := group.Script()
	if err != nil {
		return "", err
	}

	runControl := script.New("run", "timestep ${dt}\nrun ${nsteps}")
	_ = runControl.Definitions.Set("dt", value.Float(1e-7))
	_ = runControl.Definitions.Set("nsteps", value.Int(10000))
	runText, err := runControl.Do(false)
	if err != nil {
		return "", err
	}

	deckFragment := script.New("deck", groupText+"\n"+runText)
	pipe := pipescript.New(deckFragment)
	return pipe.Do(nil)
}
