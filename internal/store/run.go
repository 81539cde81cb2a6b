package store

import (
	"fmt"

	"github.com/google/uuid"
)

// Status is the outcome of a run.
type Status string

const (
	// StatusOK is a run where every rule compiled.
	StatusOK Status = "ok"
	// StatusDiagnostics is a run that dropped at least one rule.
	StatusDiagnostics Status = "diagnostics"
	// StatusFailed is a run a pass aborted.
	StatusFailed Status = "failed"
)

// ParseStatus validates a stored status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOK, StatusDiagnostics, StatusFailed:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown run status %q", s)
}

// Run is one compilation.
type Run struct {
	ID                string       `json:"id"`
	Seq               int64        `json:"seq"`
	InputPath         string       `json:"input_path"`
	InputFingerprint  string       `json:"input_fingerprint"`
	OutputFingerprint string       `json:"output_fingerprint,omitempty"`
	Status            Status       `json:"status"`
	Stages            []Stage      `json:"stages,omitempty"`
	Diagnostics       []Diagnostic `json:"diagnostics,omitempty"`
}

// Stage is the module after one pass.
type Stage struct {
	Name        string `json:"stage"`
	Fingerprint string `json:"fingerprint"`
	OpCount     int    `json:"op_count"`
	Rewrites    int    `json:"rewrites"`
}

// Diagnostic is a dropped rule.
type Diagnostic struct {
	Code    string `json:"code"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// IDGenerator names new runs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator names runs with time-sortable UUIDv7s.
type UUIDv7Generator struct{}

// Generate panics only if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
