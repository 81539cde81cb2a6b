package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rulec/internal/compiler"
	"github.com/roach88/rulec/internal/store"
)

// HistoryOptions holds flags for the history commands.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Input string
	Limit int
	Keep  int
}

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List compile runs recorded with --db",
		Long: `List compile runs recorded in a history database, newest first.

Examples:
  rulec history --db history.db
  rulec history --db history.db --input rules.yaml --limit 5
  rulec history show <run-id> --db history.db
  rulec history prune --keep 100 --db history.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(opts, cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "history database path (required)")
	_ = cmd.MarkPersistentFlagRequired("db")
	cmd.Flags().StringVar(&opts.Input, "input", "", "only runs of this input path")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs (0 for all)")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its stages and diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(opts, args[0], cmd)
		},
	}
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryPrune(opts, cmd)
		},
	}
	prune.Flags().IntVar(&opts.Keep, "keep", 100, "number of runs to keep")
	cmd.AddCommand(show, prune)

	return cmd
}

func openHistory(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open history", err)
	}
	return st, nil
}

// recordOutcome stores out when a database is configured and returns the
// run ID.
func recordOutcome(cmd *cobra.Command, path string, out *compiler.Outcome) (string, error) {
	if path == "" {
		return "", nil
	}
	st, err := openHistory(path)
	if err != nil {
		return "", err
	}
	defer st.Close()
	run, err := compiler.Record(cmd.Context(), st, out)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "record run", err)
	}
	return run.ID, nil
}

func historyFormatter(opts *HistoryOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := openHistory(opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Input, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	formatter := historyFormatter(opts, cmd)
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tSTATUS\tINPUT\tOUTPUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Seq, r.ID, r.Status, r.InputPath, short(r.OutputFingerprint))
	}
	return tw.Flush()
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	st, err := openHistory(opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	formatter := historyFormatter(opts, cmd)
	run, err := st.GetRun(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("no run %s", id), nil)
		return reportedExit(ExitFailure, "run not found")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "read run", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(run)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (#%d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "  input:  %s %s\n", run.InputPath, short(run.InputFingerprint))
	fmt.Fprintf(w, "  status: %s\n", run.Status)
	if run.OutputFingerprint != "" {
		fmt.Fprintf(w, "  output: %s\n", short(run.OutputFingerprint))
	}
	if len(run.Stages) > 0 {
		fmt.Fprintln(w, "\nStages:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, s := range run.Stages {
			fmt.Fprintf(tw, "  %s\t%d op(s)\t%d rewrite(s)\t%s\n", s.Name, s.OpCount, s.Rewrites, short(s.Fingerprint))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(run.Diagnostics) > 0 {
		fmt.Fprintln(w, "\nDiagnostics:")
		for _, d := range run.Diagnostics {
			fmt.Fprintf(w, "  %s %s: %s\n", d.Code, d.Rule, d.Message)
		}
	}
	return nil
}

func runHistoryPrune(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Keep < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--keep must be non-negative, got %d", opts.Keep))
	}
	st, err := openHistory(opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Prune(cmd.Context(), opts.Keep)
	if err != nil {
		return WrapExitError(ExitCommandError, "prune", err)
	}
	formatter := historyFormatter(opts, cmd)
	if formatter.Format == "json" {
		return formatter.Success(map[string]int64{"deleted": n})
	}
	fmt.Fprintf(formatter.Writer, "Deleted %d run(s)\n", n)
	return nil
}

// short abbreviates a fingerprint for tables.
func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
