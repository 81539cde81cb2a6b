// Package pipeline runs the fixed pass sequence that takes a front-end
// module to back-end input.
//
// Stop points dump the module between passes. A pass failure is reported
// as a *Failure carrying the partially transformed module's dump. Semantic
// errors are isolated per rule and reported in Result.Diagnostics unless
// FailFast is set.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/rulec/internal/canon"
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/lower"
	"github.com/roach88/rulec/internal/sema"
	"github.com/roach88/rulec/internal/verify"
)

// Stage names a stop point.
type Stage string

const (
	StageUnchecked      Stage = "unchecked"
	StageTypeChecked    Stage = "type-checked"
	StageAfterInline    Stage = "after-inline"
	StageCanonicalized  Stage = "canonicalized"
	StageBeforePrinting Stage = "before-printing"
)

// Stages lists the stop points in pipeline order.
func Stages() []Stage {
	return []Stage{StageUnchecked, StageTypeChecked, StageAfterInline, StageCanonicalized, StageBeforePrinting}
}

// ParseStage validates a stop point name. The empty string means no stop.
func ParseStage(s string) (Stage, error) {
	if s == "" || slices.Contains(Stages(), Stage(s)) {
		return Stage(s), nil
	}
	return "", fmt.Errorf("unknown stage %q: must be one of %v", s, Stages())
}

// Options configures a run.
type Options struct {
	// StopAt ends the run at a stop point. Empty runs to completion.
	StopAt Stage

	// Verify checks the lowered module structurally.
	Verify bool

	// FailFast turns the first semantic error into a run failure.
	FailFast bool

	Canon  canon.Options
	Logger *slog.Logger
}

// PassRecord is what one pass did.
type PassRecord struct {
	Name        string `json:"name"`
	Rewrites    int    `json:"rewrites"`
	Fingerprint string `json:"fingerprint"`
	OpCount     int    `json:"op_count"`
}

// Result is the outcome of a run that did not fail.
type Result struct {
	Module      *ir.Module
	Rules       []dialect.Rule
	Diagnostics []*sema.SemanticError
	Passes      []PassRecord
	// StoppedAt is set when the run ended at a stop point.
	StoppedAt Stage
}

// Failed reports whether any rule was dropped.
func (r *Result) Failed() bool { return len(r.Diagnostics) > 0 }

// Failure is a pass that raised. Dump is the module as the pass left it.
type Failure struct {
	Pass string
	Err  error
	Dump string
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %v", f.Pass, f.Err) }
func (f *Failure) Unwrap() error { return f.Err }

type runner struct {
	opts Options
	log  *slog.Logger
	res  *Result
}

// Run takes m, built from rules, through the pipeline.
func Run(m *ir.Module, rules []dialect.Rule, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &runner{opts: opts, log: log, res: &Result{Module: m, Rules: rules}}
	return r.res, r.run()
}

type step struct {
	name string
	fn   func(*ir.Module) (int, error)
}

func (r *runner) run() error {
	if r.stop(StageUnchecked) {
		return nil
	}
	if err := r.passes(step{"sema", r.analyze}); err != nil || r.stop(StageTypeChecked) {
		return err
	}
	if err := r.passes(step{"bind-captures", lower.BindCaptures}); err != nil || r.stop(StageAfterInline) {
		return err
	}
	err := r.passes(
		step{"extract-closures", lower.ExtractClosures},
		step{"optimize-filtering", canon.OptimizeFiltering},
		step{"flatten", lower.Flatten},
	)
	if err != nil || r.stop(StageCanonicalized) {
		return err
	}
	err = r.passes(
		step{"lower-events", lower.LowerEvents},
		step{"resolve-this", lower.ResolveThis},
		step{"rebind-captures", lower.RebindCaptures},
		step{"canonicalize", r.canonicalize(r.opts.Canon)},
		step{"lower-loops", lower.LowerLoops},
		step{"canonicalize-final", r.canonicalize(canon.Options{Mode: canon.Sweep})},
	)
	if err != nil || r.stop(StageBeforePrinting) {
		return err
	}
	if !r.opts.Verify {
		return nil
	}
	return r.passes(step{"verify", func(m *ir.Module) (int, error) {
		return 0, verify.Check(m)
	}})
}

func (r *runner) passes(steps ...step) error {
	for _, s := range steps {
		if err := r.pass(s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) stop(s Stage) bool {
	if r.opts.StopAt != s {
		return false
	}
	r.res.StoppedAt = s
	r.log.Debug("stopping", "stage", s)
	return true
}

// pass runs fn on the module and records its effect.
func (r *runner) pass(name string, fn func(*ir.Module) (int, error)) error {
	m := r.res.Module
	n, err := fn(m)
	if err != nil {
		return &Failure{Pass: name, Err: err, Dump: m.Dump()}
	}
	fp, err := ir.Fingerprint(m)
	if err != nil {
		return &Failure{Pass: name, Err: fmt.Errorf("fingerprint: %w", err), Dump: m.Dump()}
	}
	ops := len(m.Collect(m.Root(), nil))
	r.res.Passes = append(r.res.Passes, PassRecord{Name: name, Rewrites: n, Fingerprint: fp, OpCount: ops})
	r.log.Debug("pass", "name", name, "rewrites", n, "ops", ops, "fingerprint", fp)
	return nil
}

func (r *runner) analyze(m *ir.Module) (int, error) {
	rep, err := sema.Analyze(m, r.res.Rules, sema.Options{FailFast: r.opts.FailFast, Logger: r.log})
	if err != nil {
		return 0, err
	}
	r.res.Rules = rep.Rules
	r.res.Diagnostics = rep.Errors
	for _, e := range rep.Errors {
		r.log.Info("rule dropped", "rule", e.Rule, "code", e.Code, "message", e.Message)
	}
	return len(rep.Rules), nil
}

func (r *runner) canonicalize(opts canon.Options) func(*ir.Module) (int, error) {
	opts.Logger = r.log
	return func(m *ir.Module) (int, error) {
		res, err := canon.New(opts).Run(m)
		if err != nil {
			return 0, err
		}
		if !res.Converged && opts.Mode == canon.Fixpoint {
			r.log.Warn("canonicalization did not converge", "sweeps", res.Sweeps)
		}
		return res.Total(), nil
	}
}
