package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rulec/internal/compiler"
	"github.com/roach88/rulec/internal/pipeline"
	"github.com/roach88/rulec/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	pipelineFlags
	Output string // output file path
	DB     string // history database
}

// CompileReport is the JSON payload of compile, verify and dump.
type CompileReport struct {
	Path              string                `json:"path"`
	Status            store.Status          `json:"status"`
	Stage             pipeline.Stage        `json:"stage,omitempty"`
	Output            string                `json:"output,omitempty"`
	InputFingerprint  string                `json:"input_fingerprint"`
	OutputFingerprint string                `json:"output_fingerprint,omitempty"`
	Passes            []pipeline.PassRecord `json:"passes,omitempty"`
	Diagnostics       []CLIError            `json:"diagnostics,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules-file|->",
		Short: "Compile a rule document to event-handler code",
		Long: `Compile a YAML or CUE rule document and print the generated program.

Rules that fail semantic analysis are reported and dropped; the rest are
still compiled and the exit status is 1. A stop flag prints the module
dump at that stage instead of the program.

Exit codes:
  0 - Compiled cleanly
  1 - Diagnostics or a compile failure
  2 - Command error (bad flag, unreadable input, database error)

Examples:
  rulec compile rules.yaml
  rulec compile rules.cue --verify -o handlers.txt
  rulec compile rules.yaml --type-checked
  cat rules.yaml | rulec compile - --db history.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.register(cmd, true)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (default stdout)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the run in this history database")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	copts, err := opts.options(opts.Logger())
	if err != nil {
		return WrapExitError(ExitCommandError, "compile", err)
	}
	out, err := compileInput(cmd, path, copts)
	if err != nil {
		return err
	}
	formatter.VerboseLog("compiled %s: %s, input %s", out.Path, out.Status, out.InputFingerprint)

	runID, err := recordOutcome(cmd, opts.DB, out)
	if err != nil {
		return err
	}

	if out.Err != nil {
		return reportFailure(formatter, out, runID)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(out.Output), 0o644); err != nil {
			_ = formatter.Error(ErrCodeWrite, fmt.Sprintf("writing output file: %v", err), nil)
			return reportedExit(ExitCommandError, "write output")
		}
		formatter.VerboseLog("wrote %s", opts.Output)
	}

	report := newReport(out)
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: report, RunID: runID}
		if out.Status == store.StatusDiagnostics {
			resp.Status = "error"
			resp.Error = &CLIError{Code: report.Diagnostics[0].Code, Message: fmt.Sprintf("%d rule(s) dropped", len(report.Diagnostics))}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		if opts.Output == "" {
			if _, err := io.WriteString(formatter.Writer, out.Output); err != nil {
				return err
			}
		}
		for _, d := range report.Diagnostics {
			formatter.Diagnostic(d.Code, d.Message)
		}
		if runID != "" {
			formatter.Note("recorded run %s", runID)
		}
	}

	if out.Status == store.StatusDiagnostics {
		return reportedExit(ExitFailure, fmt.Sprintf("%d rule(s) dropped", len(report.Diagnostics)))
	}
	return nil
}

func newReport(out *compiler.Outcome) CompileReport {
	r := CompileReport{
		Path:              out.Path,
		Status:            out.Status,
		Output:            out.Output,
		InputFingerprint:  out.InputFingerprint,
		OutputFingerprint: out.OutputFingerprint,
		Diagnostics:       droppedRules(out),
	}
	if out.Result != nil {
		r.Stage = out.Result.StoppedAt
		r.Passes = out.Result.Passes
	}
	if out.Err != nil {
		r.Diagnostics = append(r.Diagnostics, failureDiagnostics(out.Err)...)
	}
	return r
}

// FailureDetails is the error detail of a failed compilation: its
// diagnostics and the module as the failing pass left it.
type FailureDetails struct {
	Diagnostics []CLIError `json:"diagnostics"`
	Dump        string     `json:"dump,omitempty"`
}

// reportFailure prints a failed compilation followed by the module as the
// failing pass left it.
func reportFailure(formatter *OutputFormatter, out *compiler.Outcome, runID string) error {
	diags := failureDiagnostics(out.Err)
	dump := failureDump(out.Err)
	if formatter.Format == "json" {
		err := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   newReport(out),
			Error: &CLIError{
				Code:    diags[0].Code,
				Message: out.Err.Error(),
				Details: FailureDetails{Diagnostics: diags, Dump: dump},
			},
			RunID: runID,
		})
		if err != nil {
			return err
		}
		return reportedExit(ExitFailure, out.Err.Error())
	}

	for _, d := range droppedRules(out) {
		formatter.Diagnostic(d.Code, d.Message)
	}
	for _, d := range diags {
		formatter.Diagnostic(d.Code, d.Message)
	}
	if dump != "" {
		formatter.Note("module at failure:")
		fmt.Fprint(formatter.GetErrWriter(), dump)
	}
	return reportedExit(ExitFailure, out.Err.Error())
}
