package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/rulec/internal/canon"
	"github.com/roach88/rulec/internal/compiler"
	"github.com/roach88/rulec/internal/frontend"
	"github.com/roach88/rulec/internal/pipeline"
	"github.com/roach88/rulec/internal/store"
	"github.com/roach88/rulec/internal/testutil"
)

// Harness runs scenarios against one in-memory history.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// New returns a harness with a fresh in-memory store.
func New() (*Harness, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	return &Harness{
		store:  st.WithIDs(testutil.NewSequentialIDs("scenario")),
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the store.
func (h *Harness) Close() error {
	return h.store.Close()
}

// Store is the history the harness records into.
func (h *Harness) Store() *store.Store {
	return h.store
}

// Run executes scenario in a fresh harness.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New()
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.Run(context.Background(), scenario)
}

// Run compiles the scenario's rules, records the run and checks the
// expectations. An error means the scenario could not be executed; a
// scenario that executed but did not match is a failing Result.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	name, data, opts, err := h.input(s)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	out, cerr := compiler.Compile(name, data, opts)
	result.Status = out.Status
	result.Output = out.Output
	if out.Result != nil {
		for _, p := range out.Result.Passes {
			result.Passes = append(result.Passes, p.Name)
		}
	}

	run := out.Run()
	run.Seq = h.clock.Next()
	if err := h.store.RecordRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record %s: %w", s.Name, err)
	}
	if result.Run, err = h.store.GetRun(ctx, run.ID); err != nil {
		return nil, fmt.Errorf("read back %s: %w", s.Name, err)
	}
	result.Diagnostics = result.Run.Diagnostics

	if cerr != nil {
		result.Err = cerr.Error()
	}
	if string(result.Status) != s.Expect.Status {
		msg := fmt.Sprintf("status: expected %s, got %s", s.Expect.Status, result.Status)
		if cerr != nil {
			msg += ": " + cerr.Error()
		}
		result.AddError(msg)
	}
	if s.Expect.Error != "" && !strings.Contains(result.Err, s.Expect.Error) {
		result.AddError(fmt.Sprintf("error: expected %q in %q", s.Expect.Error, result.Err))
	}
	for _, e := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(e)
	}
	return result, nil
}

func (h *Harness) input(s *Scenario) (string, []byte, compiler.Options, error) {
	var opts compiler.Options
	stage, err := pipeline.ParseStage(s.Stage)
	if err != nil {
		return "", nil, opts, err
	}
	mode, err := canon.ParseMode(s.Canonicalize)
	if err != nil {
		return "", nil, opts, err
	}
	opts.Pipeline = pipeline.Options{
		StopAt:   stage,
		Verify:   true,
		FailFast: s.FailFast,
		Canon:    canon.Options{Mode: mode},
		Logger:   h.logger,
	}
	if s.Format != "" {
		if opts.Format, err = frontend.ParseFormat(s.Format); err != nil {
			return "", nil, opts, err
		}
	}

	if s.File != "" {
		data, err := os.ReadFile(s.File)
		if err != nil {
			return "", nil, opts, fmt.Errorf("failed to read rules: %w", err)
		}
		return s.File, data, opts, nil
	}
	if opts.Format == "" {
		opts.Format = frontend.FormatYAML
	}
	return s.Name, []byte(s.Source), opts, nil
}
