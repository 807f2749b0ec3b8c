// Package script implements Script fragment algebra: a
// DEFINITIONS/USER/TEMPLATE triple that renders to LAMMPS input text,
// plus the fragment composition operators (`+`, `&`, `*`, `**`, `+=`)
// Go expresses as named methods since it has no operator overloading.
// The `|` pipe operator lives in pkg/pipescript.
//
// Uses plain os-package file writes for `Write`, and pkg/param's
// Container/Evaluator for the DEFINITIONS/USER merge-then-render step
// every operation here reduces to.
package script

import (
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/ovitrac/pizza3go/internal/term"
	"github.com/ovitrac/pizza3go/pkg/param"
)

// Fragment is Script object: a DEFINITIONS/USER
// Evaluator pair and a TEMPLATE string that DEFINITIONS⊕USER is
// rendered into.
type Fragment struct {
	Name        string
	Section     string
	Position    int
	Definitions *param.Evaluator
	USER        *param.Evaluator
	Template    string
	Debug       bool
	SigFigs     int
	EscapeChar  byte // `\${…}` escape byte; 0 means the default, '\\'

	rendered *string // do() output cache, dropped by Append and Clear; direct changes to Definitions/USER do not drop it
}

// New creates an empty fragment with the given TEMPLATE text.
func New(name, template string) *Fragment {
	return &Fragment{
		Name:        name,
		Definitions: param.NewEvaluator(),
		USER:        param.NewEvaluator(),
		Template:    template,
		SigFigs:     param.DefaultSigFigs,
	}
}

func (f *Fragment) invalidate() {
	f.rendered = nil
}

// Do computes DEFINITIONS⊕USER, evaluates it, and substitutes the
// result into TEMPLATE. printflag
// additionally echoes the rendered text to stdout, the same banner
// convention attaches to every rendering entry point.
func (f *Fragment) Do(printflag bool) (string, error) {
	if f.rendered != nil {
		out := *f.rendered
		if printflag {
			fmt.Println(term.Banner(out))
		}
		return out, nil
	}
	merged := f.Definitions.Container.Concat(f.USER.Container)
	ev := param.WrapEvaluator(merged)
	ev.Debug = f.Debug
	ev.EscapeChar = f.EscapeChar
	resolved, err := ev.Eval()
	if err != nil {
		return "", fmt.Errorf("script %q: %w", f.Name, err)
	}
	sig := f.SigFigs
	if sig <= 0 {
		sig = param.DefaultSigFigs
	}
	out, err := param.RenderWithEscape(f.Template, resolved, f.Debug, sig, f.EscapeChar)
	if err != nil {
		return "", fmt.Errorf("script %q: %w", f.Name, err)
	}
	f.rendered = &out
	if printflag {
		fmt.Println(term.Banner(out))
	}
	return out, nil
}

// header renders the version/user@host/timestamp comment block
// requires at the top of every written LAMMPS script.
func header(version string) string {
	u := "unknown"
	if cu, err := user.Current(); err == nil {
		u = cu.Username
	}
	host, _ := os.Hostname()
	return fmt.Sprintf(
		"# Automatically generated by pizza3go %s\n# user: %s@%s\n# date: %s\n",
		version, u, host, time.Now().Format("2006-01-02 15:04:05"),
	)
}

// Write renders the fragment and persists it to path with a header
// comment.
func (f *Fragment) Write(path, version string) error {
	text, err := f.Do(false)
	if err != nil {
		return err
	}
	full := header(version) + text
	return os.WriteFile(path, []byte(full), 0o644)
}

// Concat is the `+` operator: lazy concatenation. TEMPLATEs are
// joined, DEFINITIONS are merged A⊕B (right-wins), and USER scopes
// are merged A.USER⊕B.USER. Nothing is rendered here —
// the result is evaluated only on its own Do().
func (f *Fragment) Concat(other *Fragment) *Fragment {
	return &Fragment{
		Name:        f.Name + "+" + other.Name,
		Definitions: param.WrapEvaluator(f.Definitions.Container.Concat(other.Definitions.Container)),
		USER:        param.WrapEvaluator(f.USER.Container.Concat(other.USER.Container)),
		Template:    f.Template + other.Template,
		SigFigs:     f.SigFigs,
		EscapeChar:  f.EscapeChar,
	}
}

// Append is the in-place `+=` operator: other is folded into f
// in-place rather than producing a new Fragment.
func (f *Fragment) Append(other *Fragment) {
	f.Definitions = param.WrapEvaluator(f.Definitions.Container.Concat(other.Definitions.Container))
	f.USER = param.WrapEvaluator(f.USER.Container.Concat(other.USER.Container))
	f.Template = f.Template + other.Template
	f.invalidate()
}

// Eager is the `&` operator: both fragments are rendered independently
// (via Do) and the resulting text is concatenated at the call site,
// as opposed to Concat's lazy template-join.
func (f *Fragment) Eager(other *Fragment) (string, error) {
	a, err := f.Do(false)
	if err != nil {
		return "", err
	}
	b, err := other.Do(false)
	if err != nil {
		return "", err
	}
	return a + b, nil
}

// Repeat is the `*n` operator: n copies sharing one USER scope
// (mutating USER on one copy is visible on all copies).
func (f *Fragment) Repeat(n int) []*Fragment {
	copies := make([]*Fragment, n)
	for i := range copies {
		copies[i] = &Fragment{
			Name:        fmt.Sprintf("%s*%d", f.Name, i+1),
			Definitions: f.Definitions,
			USER:        f.USER,
			Template:    f.Template,
			SigFigs:     f.SigFigs,
			Debug:       f.Debug,
			EscapeChar:  f.EscapeChar,
		}
	}
	return copies
}

// RepeatIndependent is the `**n` operator: n copies, each with its own
// independent USER scope cloned from f's current USER.
func (f *Fragment) RepeatIndependent(n int) []*Fragment {
	copies := make([]*Fragment, n)
	for i := range copies {
		copies[i] = &Fragment{
			Name:        fmt.Sprintf("%s**%d", f.Name, i+1),
			Definitions: f.Definitions,
			USER:        param.WrapEvaluator(f.USER.Container.Clone()),
			Template:    f.Template,
			SigFigs:     f.SigFigs,
			Debug:       f.Debug,
			EscapeChar:  f.EscapeChar,
		}
	}
	return copies
}

// Clear drops any cached rendered output, forcing the next Do() to
// re-render.
func (f *Fragment) Clear() {
	f.invalidate()
}
