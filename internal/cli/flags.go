package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rulec/internal/canon"
	"github.com/roach88/rulec/internal/compiler"
	"github.com/roach88/rulec/internal/frontend"
	"github.com/roach88/rulec/internal/pipeline"
)

// pipelineFlags are the flags shared by every command that compiles.
type pipelineFlags struct {
	Stage          string
	Unchecked      bool
	TypeChecked    bool
	AfterInline    bool
	Canonicalized  bool
	BeforePrinting bool

	Verify      bool
	CanonMode   string
	MaxSweeps   int
	FailFast    bool
	InputFormat string
}

func (p *pipelineFlags) register(cmd *cobra.Command, stages bool) {
	fs := cmd.Flags()
	if stages {
		fs.StringVar(&p.Stage, "stage", "", "stop at a stage and dump the module (unchecked|type-checked|after-inline|canonicalized|before-printing)")
		fs.BoolVar(&p.Unchecked, "unchecked", false, "same as --stage unchecked")
		fs.BoolVar(&p.TypeChecked, "type-checked", false, "same as --stage type-checked")
		fs.BoolVar(&p.AfterInline, "after-inline", false, "same as --stage after-inline")
		fs.BoolVar(&p.Canonicalized, "canonicalized", false, "same as --stage canonicalized")
		fs.BoolVar(&p.BeforePrinting, "before-printing", false, "same as --stage before-printing")
		fs.BoolVar(&p.Verify, "verify", false, "verify the lowered module structurally")
	}
	fs.StringVar(&p.CanonMode, "canonicalize-mode", "fixpoint", "canonicalizer driver (fixpoint|sweep)")
	fs.IntVar(&p.MaxSweeps, "max-sweeps", canon.DefaultMaxSweeps, "sweep bound in fixpoint mode")
	fs.BoolVar(&p.FailFast, "fail-fast", false, "fail the run on the first semantic error")
	fs.StringVar(&p.InputFormat, "input-format", "", "input format (yaml|cue); default from the file extension")
}

// stage resolves --stage and its boolean aliases.
func (p *pipelineFlags) stage() (pipeline.Stage, error) {
	chosen := p.Stage
	aliases := []struct {
		set   bool
		stage pipeline.Stage
	}{
		{p.Unchecked, pipeline.StageUnchecked},
		{p.TypeChecked, pipeline.StageTypeChecked},
		{p.AfterInline, pipeline.StageAfterInline},
		{p.Canonicalized, pipeline.StageCanonicalized},
		{p.BeforePrinting, pipeline.StageBeforePrinting},
	}
	for _, a := range aliases {
		if !a.set {
			continue
		}
		if chosen != "" && chosen != string(a.stage) {
			return "", fmt.Errorf("conflicting stages %q and %q", chosen, a.stage)
		}
		chosen = string(a.stage)
	}
	return pipeline.ParseStage(chosen)
}

func (p *pipelineFlags) options(logger *slog.Logger) (compiler.Options, error) {
	var opts compiler.Options
	stage, err := p.stage()
	if err != nil {
		return opts, err
	}
	mode, err := canon.ParseMode(p.CanonMode)
	if err != nil {
		return opts, err
	}
	if p.MaxSweeps < 1 {
		return opts, fmt.Errorf("--max-sweeps must be at least 1, got %d", p.MaxSweeps)
	}
	if p.InputFormat != "" {
		if opts.Format, err = frontend.ParseFormat(p.InputFormat); err != nil {
			return opts, err
		}
	}
	opts.Pipeline = pipeline.Options{
		StopAt:   stage,
		Verify:   p.Verify,
		FailFast: p.FailFast,
		Canon:    canon.Options{Mode: mode, MaxSweeps: p.MaxSweeps, Logger: logger},
		Logger:   logger,
	}
	return opts, nil
}

// compileInput compiles path, reading the command's stdin for "-".
func compileInput(cmd *cobra.Command, path string, opts compiler.Options) (*compiler.Outcome, error) {
	if path != "-" {
		out, err := compiler.CompileFile(path, opts)
		if out == nil {
			return nil, WrapExitError(ExitCommandError, "read input", err)
		}
		return out, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read stdin", err)
	}
	out, _ := compiler.Compile(path, data, opts)
	return out, nil
}
