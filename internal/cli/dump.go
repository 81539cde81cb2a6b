package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/pipeline"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	pipelineFlags
}

// DumpReport is the JSON payload of dump: the report plus the module in
// canonical JSON.
type DumpReport struct {
	CompileReport
	Module json.RawMessage `json:"module"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <rules-file|->",
		Short: "Print the module at a pipeline stage",
		Long: `Print the IR module at a stage, before-printing by default.

Text output is the s-expression dump. JSON output carries the module in
canonical JSON, whose hash is the stage fingerprint.

Examples:
  rulec dump rules.yaml --stage type-checked
  rulec dump rules.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}
	opts.register(cmd, true)
	return cmd
}

func runDump(opts *DumpOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	copts, err := opts.options(opts.Logger())
	if err != nil {
		return WrapExitError(ExitCommandError, "dump", err)
	}
	if copts.Pipeline.StopAt == "" {
		copts.Pipeline.StopAt = pipeline.StageBeforePrinting
	}
	out, err := compileInput(cmd, path, copts)
	if err != nil {
		return err
	}
	if out.Err != nil {
		return reportFailure(formatter, out, "")
	}

	if formatter.Format != "json" {
		for _, d := range droppedRules(out) {
			formatter.Diagnostic(d.Code, d.Message)
		}
		_, err := io.WriteString(formatter.Writer, out.Output)
		return err
	}

	data, err := ir.MarshalCanonical(out.Result.Module.Canonical())
	if err != nil {
		return WrapExitError(ExitFailure, "encode module", err)
	}
	report := DumpReport{CompileReport: newReport(out), Module: data}
	report.Output = ""
	return formatter.Success(report)
}
