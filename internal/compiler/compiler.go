// Package compiler drives one compilation end to end: load a rule document,
// build its module, run the pipeline and render the result.
//
// The CLI and the scenario harness share this driver so that both see the
// same stages, diagnostics and output for a given input.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/rulec/internal/backend"
	"github.com/roach88/rulec/internal/frontend"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/pipeline"
	"github.com/roach88/rulec/internal/sema"
	"github.com/roach88/rulec/internal/store"
)

// Options configures a compilation.
type Options struct {
	// Format of the input. Empty picks it from the file extension.
	Format   frontend.Format
	Pipeline pipeline.Options
}

// Outcome is what a compilation produced. It is returned alongside a
// non-nil error whenever enough happened to be worth recording.
type Outcome struct {
	Path             string
	InputFingerprint string

	// Result is nil when the rule document could not be loaded or built.
	Result *pipeline.Result

	// Output is the rendered program, or the module dump when the run
	// ended at a stop point.
	Output            string
	OutputFingerprint string
	Status            store.Status

	// Err is the error Compile returned with this outcome.
	Err error
}

// CompileFile compiles the document at path. "-" reads stdin.
func CompileFile(path string, opts Options) (*Outcome, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Compile(path, data, opts)
}

func (o *Outcome) fail(err error) (*Outcome, error) {
	o.Status = store.StatusFailed
	o.Err = err
	return o, err
}

// Compile compiles data, named name for positions and format detection.
func Compile(name string, data []byte, opts Options) (*Outcome, error) {
	out := &Outcome{Path: name, InputFingerprint: ir.SourceFingerprint(data)}

	format := opts.Format
	if format == "" {
		f, err := frontend.FormatFor(name)
		if err != nil {
			return out.fail(err)
		}
		format = f
	}
	doc, err := frontend.Load(name, data, format)
	if err != nil {
		return out.fail(err)
	}
	m, rules, err := frontend.Build(doc)
	if err != nil {
		return out.fail(err)
	}

	res, err := pipeline.Run(m, rules, opts.Pipeline)
	out.Result = res
	if err != nil {
		return out.fail(err)
	}

	if res.StoppedAt != "" {
		out.Output = m.Dump()
	} else if out.Output, err = backend.RenderString(m); err != nil {
		return out.fail(err)
	}
	out.OutputFingerprint = ir.OutputFingerprint(out.Output)
	out.Status = store.StatusOK
	if res.Failed() {
		out.Status = store.StatusDiagnostics
	}
	return out, nil
}

// Run converts the outcome into a history record.
func (o *Outcome) Run() *store.Run {
	run := &store.Run{
		InputPath:         o.Path,
		InputFingerprint:  o.InputFingerprint,
		OutputFingerprint: o.OutputFingerprint,
		Status:            o.Status,
	}
	if o.Result == nil {
		return run
	}
	for _, p := range o.Result.Passes {
		run.Stages = append(run.Stages, store.Stage{
			Name:        p.Name,
			Fingerprint: p.Fingerprint,
			OpCount:     p.OpCount,
			Rewrites:    p.Rewrites,
		})
	}
	for _, d := range o.Result.Diagnostics {
		run.Diagnostics = append(run.Diagnostics, store.Diagnostic{Code: d.Code, Rule: d.Rule, Message: d.Message})
	}
	if se, ok := sema.AsSemantic(o.Err); ok {
		run.Diagnostics = append(run.Diagnostics, store.Diagnostic{Code: se.Code, Rule: se.Rule, Message: se.Message})
	}
	return run
}

// Record stores the outcome in st. A nil outcome records nothing.
func Record(ctx context.Context, st *store.Store, o *Outcome) (*store.Run, error) {
	if o == nil {
		return nil, errors.New("record: nothing was compiled")
	}
	run := o.Run()
	if err := st.RecordRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}
