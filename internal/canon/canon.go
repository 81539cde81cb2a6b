// Package canon rewrites lowered rule modules into canonical form.
//
// A canonicalizer owns an ordered pattern set. One sweep runs one traversal
// per pattern, in order, attempting the pattern on every live op. In
// fixpoint mode sweeps repeat until one makes no rewrite, bounded by
// MaxSweeps; in sweep mode exactly one sweep runs.
package canon

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rulec/internal/ir"
)

// DefaultMaxSweeps bounds fixpoint iteration.
const DefaultMaxSweeps = 16

// Mode selects how many sweeps a run makes.
type Mode int

const (
	Fixpoint Mode = iota
	Sweep
)

func (m Mode) String() string {
	if m == Sweep {
		return "sweep"
	}
	return "fixpoint"
}

// ParseMode parses the flag spelling of a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "fixpoint", "":
		return Fixpoint, nil
	case "sweep":
		return Sweep, nil
	}
	return 0, fmt.Errorf("unknown canonicalization mode %q (want sweep or fixpoint)", s)
}

// Pattern is a local rewrite. Rewrite inspects op and, when it matches,
// edits the module and reports true.
type Pattern interface {
	Name() string
	Description() string
	Rewrite(m *ir.Module, op ir.OpID) (bool, error)
}

// Options configures a Canonicalizer.
type Options struct {
	Mode      Mode
	MaxSweeps int
	Logger    *slog.Logger
}

// Result summarises a run.
type Result struct {
	Sweeps    int
	Rewrites  map[string]int
	Converged bool
}

// Total is the number of rewrites across all patterns.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Rewrites {
		n += c
	}
	return n
}

// Canonicalizer applies an ordered pattern set.
type Canonicalizer struct {
	patterns []Pattern
	opts     Options
	log      *slog.Logger
}

// New returns a canonicalizer over patterns, or over Default() when none
// are given.
func New(opts Options, patterns ...Pattern) *Canonicalizer {
	if len(patterns) == 0 {
		patterns = Default()
	}
	if opts.MaxSweeps <= 0 {
		opts.MaxSweeps = DefaultMaxSweeps
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Canonicalizer{patterns: patterns, opts: opts, log: log}
}

// Canonicalize runs the default pattern set over m.
func Canonicalize(m *ir.Module, opts Options) (Result, error) {
	return New(opts).Run(m)
}

// Run sweeps m according to the configured mode.
func (c *Canonicalizer) Run(m *ir.Module) (Result, error) {
	res := Result{Rewrites: map[string]int{}}
	limit := c.opts.MaxSweeps
	if c.opts.Mode == Sweep {
		limit = 1
	}
	for res.Sweeps < limit {
		counts, err := c.Sweep(m)
		res.Sweeps++
		if err != nil {
			return res, err
		}
		n := 0
		for name, k := range counts {
			res.Rewrites[name] += k
			n += k
		}
		c.log.Debug("canonicalize sweep", "sweep", res.Sweeps, "rewrites", n)
		if n == 0 {
			res.Converged = true
			return res, nil
		}
	}
	return res, nil
}

// Sweep makes one traversal per pattern and returns the rewrite count of
// each pattern that fired.
func (c *Canonicalizer) Sweep(m *ir.Module) (map[string]int, error) {
	counts := map[string]int{}
	for _, p := range c.patterns {
		n, err := apply(m, p)
		if err != nil {
			return counts, fmt.Errorf("%s: %w", p.Name(), err)
		}
		if n > 0 {
			counts[p.Name()] += n
		}
	}
	return counts, nil
}

func apply(m *ir.Module, p Pattern) (int, error) {
	n := 0
	for op := range m.Walk(m.Root()) {
		ok, err := p.Rewrite(m, op)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}
