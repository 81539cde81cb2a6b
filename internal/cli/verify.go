package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rulec/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	pipelineFlags
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <rules-file|->",
		Short: "Compile a rule document and check the lowered module",
		Long: `Run the whole pipeline with structural verification and report
the result without printing the program.

Examples:
  rulec verify rules.yaml
  rulec verify rules.cue --canonicalize-mode sweep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}
	opts.register(cmd, false)
	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	opts.Verify = true
	copts, err := opts.options(opts.Logger())
	if err != nil {
		return WrapExitError(ExitCommandError, "verify", err)
	}
	out, err := compileInput(cmd, path, copts)
	if err != nil {
		return err
	}
	if out.Err != nil {
		return reportFailure(formatter, out, "")
	}

	report := newReport(out)
	report.Output = ""
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: report}
		if out.Status == store.StatusDiagnostics {
			resp.Status = "error"
			resp.Error = &CLIError{Code: report.Diagnostics[0].Code, Message: fmt.Sprintf("%d rule(s) dropped", len(report.Diagnostics))}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		for _, d := range report.Diagnostics {
			formatter.Diagnostic(d.Code, d.Message)
		}
		fmt.Fprintf(formatter.Writer, "✓ %s verified after %d pass(es)\n", out.Path, len(report.Passes))
	}

	if out.Status == store.StatusDiagnostics {
		return reportedExit(ExitFailure, fmt.Sprintf("%d rule(s) dropped", len(report.Diagnostics)))
	}
	return nil
}
