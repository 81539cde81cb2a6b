package sema

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

// Options configures an analysis run.
type Options struct {
	// FailFast turns the first semantic error into a run failure instead of
	// dropping the offending rule.
	FailFast bool

	// Logger receives debug traces. Nil discards them.
	Logger *slog.Logger
}

// Report is the outcome of analysis: the rules that survived and the
// errors of those that were dropped.
type Report struct {
	Rules  []dialect.Rule
	Errors []*SemanticError
}

// Failed reports whether any rule was dropped.
func (r *Report) Failed() bool { return len(r.Errors) > 0 }

// Analyzer carries the module-wide subject stack across rules.
type Analyzer struct {
	m    *ir.Module
	opts Options
	log  *slog.Logger
	seen []ir.ValueID
}

// New returns an analyzer for m.
func New(m *ir.Module, opts Options) *Analyzer {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{m: m, opts: opts, log: log}
}

// Analyze runs a fresh analyzer over rules in source order.
func Analyze(m *ir.Module, rules []dialect.Rule, opts Options) (*Report, error) {
	return New(m, opts).Run(rules)
}

// Run analyzes rules in order. A non-nil error means the run itself failed:
// either fail-fast was requested or an editing primitive was misused.
func (a *Analyzer) Run(rules []dialect.Rule) (*Report, error) {
	rep := &Report{}
	for _, r := range rules {
		mark := len(a.seen)
		err := a.analyzeRule(r)
		if err == nil {
			rep.Rules = append(rep.Rules, r)
			continue
		}
		se, ok := AsSemantic(err)
		if !ok {
			return rep, fmt.Errorf("analyze rule %s: %w", r.Name, err)
		}
		se.Rule = r.Name
		if a.opts.FailFast {
			return rep, se
		}
		a.seen = a.seen[:mark]
		if err := a.drop(r); err != nil {
			return rep, fmt.Errorf("drop rule %s: %w", r.Name, err)
		}
		a.log.Debug("rule dropped", "rule", r.Name, "code", se.Code, "message", se.Message)
		rep.Errors = append(rep.Errors, se)
	}
	return rep, nil
}

// Seen returns a copy of the referrable-subject stack, oldest first.
func (a *Analyzer) Seen() []ir.ValueID {
	return append([]ir.ValueID(nil), a.seen...)
}

func (a *Analyzer) analyzeRule(r dialect.Rule) error {
	for _, op := range r.Ops {
		if !a.m.IsLive(op) {
			continue
		}
		if err := a.visit(op); err != nil {
			return err
		}
	}
	return a.checkResolved(r)
}

func (a *Analyzer) drop(r dialect.Rule) error {
	for i := len(r.Ops) - 1; i >= 0; i-- {
		if op := r.Ops[i]; a.m.IsLive(op) {
			if err := a.m.Erase(op); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkResolved rejects any value of the rule still typed Unknown.
func (a *Analyzer) checkResolved(r dialect.Rule) error {
	m := a.m
	for _, top := range r.Ops {
		if !m.IsLive(top) {
			continue
		}
		ops := append([]ir.OpID{top}, m.Collect(top, nil)...)
		for _, op := range ops {
			for _, v := range m.Results(op) {
				if m.Type(v).IsUnknown() {
					return Errorf(ErrUnresolvedType, op, "result of %s has no inferable type", m.Name(op))
				}
			}
			for _, rg := range m.Regions(op) {
				for _, b := range m.Blocks(rg) {
					for _, v := range m.Args(b) {
						if m.Type(v).IsUnknown() {
							return Errorf(ErrUnresolvedType, op, "argument of %s has no inferable type", m.Name(op))
						}
					}
				}
			}
		}
	}
	return nil
}

func (a *Analyzer) push(v ir.ValueID) {
	a.seen = append(a.seen, v)
}

// lookup scans the stack from the top for a subject of type want. An
// Unknown want matches the most recent subject of any entity type.
func (a *Analyzer) lookup(want ir.Type) (ir.ValueID, bool) {
	for i := len(a.seen) - 1; i >= 0; i-- {
		v := a.seen[i]
		if !a.m.IsLiveValue(v) {
			continue
		}
		t := a.m.Type(v)
		if want.IsUnknown() {
			if dialect.SubjectValue.Accepts(t) {
				return v, true
			}
			continue
		}
		if t == want {
			return v, true
		}
	}
	return 0, false
}

func (a *Analyzer) referrable(v ir.ValueID) bool {
	for _, s := range a.seen {
		if s == v {
			return true
		}
	}
	return false
}

// replace rewires op's single result onto v, keeps the stack pointing at
// live values and erases op.
func (a *Analyzer) replace(op ir.OpID, v ir.ValueID) error {
	old := a.m.Result(op, 0)
	for i, s := range a.seen {
		if s == old {
			a.seen[i] = v
		}
	}
	return a.m.ReplaceOp(op, v)
}

// eraseIfDead drops op once nothing refers to its results any more.
func (a *Analyzer) eraseIfDead(op ir.OpID) error {
	m := a.m
	if !m.IsLive(op) {
		return nil
	}
	for _, r := range m.Results(op) {
		if m.HasUses(r) || a.referrable(r) {
			return nil
		}
	}
	if err := m.Erase(op); err != nil && !ir.IsEditError(err, ir.ErrLiveUses) {
		return err
	}
	return nil
}

// infer assigns t to v when v is still Unknown and otherwise checks that
// the declared type agrees.
func (a *Analyzer) infer(op ir.OpID, v ir.ValueID, t ir.Type) error {
	cur := a.m.Type(v)
	switch {
	case t.IsUnknown():
		return nil
	case cur.IsUnknown():
		a.m.SetType(v, t)
		return nil
	case cur != t:
		return Errorf(ErrTypeMismatch, op, "%s is declared %s but infers to %s", a.m.Name(op), cur, t)
	}
	return nil
}
