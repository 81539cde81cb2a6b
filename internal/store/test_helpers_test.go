package store

import (
	"context"
	"testing"

	"github.com/roach88/rulec/internal/testutil"
)

// createTestStore opens a private in-memory store with sequential run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.WithIDs(testutil.NewSequentialIDs("run"))
}

func createTestRun(input string, status Status) *Run {
	return &Run{
		InputPath:         input,
		InputFingerprint:  "in-" + input,
		OutputFingerprint: "out-" + input,
		Status:            status,
		Stages: []Stage{
			{Name: "sema", Fingerprint: "f1", OpCount: 12, Rewrites: 1},
			{Name: "flatten", Fingerprint: "f2", OpCount: 10, Rewrites: 2},
		},
	}
}

func record(t *testing.T, s *Store, r *Run) *Run {
	t.Helper()
	if err := s.RecordRun(context.Background(), r); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	return r
}
