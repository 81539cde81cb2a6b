// Package verify checks a module against the structural contract of the
// rule dialect. It reports every violation and never edits the module.
package verify

import (
	"fmt"

	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

// Structural error codes (E301-E308)
const (
	ErrMissingTerminator   = "E301" // block does not end in yield
	ErrMisplacedTerminator = "E302" // yield before the end of its block
	ErrOperandType         = "E303" // operand violates its constraint
	ErrOperandCount        = "E304" // fixed-arity kind with wrong operand count
	ErrResult              = "E305" // result count or type is wrong
	ErrRegionCount         = "E306" // wrong number of regions
	ErrAttribute           = "E307" // missing attribute or enum tag out of range
	ErrNotDominated        = "E308" // operand not available at its use
)

// Error is one structural violation.
type Error struct {
	Code    string  `json:"code"`
	Op      ir.OpID `json:"op"`
	Kind    string  `json:"kind"`
	Message string  `json:"message"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Kind, e.Message)
}

// Errors is a non-empty verification report used as an error value.
type Errors []Error

func (es Errors) Error() string {
	if len(es) == 1 {
		return es[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", es[0].Error(), len(es)-1)
}

// Module verifies every live op of m in walk order.
func Module(m *ir.Module) []Error {
	v := &verifier{m: m}
	v.block(m.Body(), false)
	for op := range m.Walk(m.Root()) {
		v.op(op)
	}
	return v.errs
}

// Check is Module as an error: nil when m verifies.
func Check(m *ir.Module) error {
	if errs := Module(m); len(errs) > 0 {
		return Errors(errs)
	}
	return nil
}

type verifier struct {
	m    *ir.Module
	errs []Error
}

func (v *verifier) fail(op ir.OpID, code, format string, args ...any) {
	v.errs = append(v.errs, Error{Code: code, Op: op, Kind: v.m.Name(op), Message: fmt.Sprintf(format, args...)})
}

func (v *verifier) op(op ir.OpID) {
	m := v.m
	sig := dialect.SignatureOf(m.Kind(op))

	// Operands.
	n := m.NumOperands(op)
	if n < len(sig.Operands) || (!sig.Variadic && n != len(sig.Operands)) {
		v.fail(op, ErrOperandCount, "takes %d operand(s), has %d", len(sig.Operands), n)
	}
	for i, val := range m.Operands(op) {
		if i < len(sig.Operands) && !sig.Operands[i].Accepts(m.Type(val)) {
			v.fail(op, ErrOperandType, "operand %d is %s, want %s", i, m.Type(val), sig.Operands[i])
		}
		if m.Kind(op) != dialect.CapturedReference && !m.DominatesValue(val, op) {
			v.fail(op, ErrNotDominated, "operand %d (%s) is not available here", i, m.Type(val))
		}
	}

	// Results.
	if m.NumResults(op) != len(sig.Results) {
		v.fail(op, ErrResult, "yields %d result(s), has %d", len(sig.Results), m.NumResults(op))
	} else {
		for i, r := range m.Results(op) {
			switch t := m.Type(r); {
			case t.IsUnknown():
				v.fail(op, ErrResult, "result %d has no inferred type", i)
			case !sig.Results[i].Accepts(t):
				v.fail(op, ErrResult, "result %d is %s, want %s", i, t, sig.Results[i])
			}
		}
	}

	// Regions.
	if m.NumRegions(op) != sig.Regions {
		v.fail(op, ErrRegionCount, "has %d region(s), want %d", m.NumRegions(op), sig.Regions)
	}
	for _, r := range m.Regions(op) {
		blocks := m.Blocks(r)
		if len(blocks) == 0 {
			v.fail(op, ErrMissingTerminator, "region has no block")
		}
		for _, b := range blocks {
			v.block(b, !m.Has(op, ir.NoTerminator))
		}
	}

	// Attributes.
	for _, name := range sig.Attrs {
		a, ok := m.Attr(op, name)
		switch {
		case !ok:
			v.fail(op, ErrAttribute, "missing attribute %q", name)
		case dialect.IsEnumAttr(name) && !dialect.ValidEnum(name, a.Text()):
			v.fail(op, ErrAttribute, "%s is not a valid %s", a.Text(), name)
		}
	}
}

// block checks terminator placement. needsTerminator is false for the
// module body.
func (v *verifier) block(b ir.BlockID, needsTerminator bool) {
	m := v.m
	ops := m.Ops(b)
	for i, op := range ops {
		if m.Has(op, ir.IsTerminator) && i != len(ops)-1 {
			v.fail(op, ErrMisplacedTerminator, "terminator is followed by %s", m.Name(ops[i+1]))
		}
	}
	if !needsTerminator {
		return
	}
	if len(ops) == 0 || !m.Has(ops[len(ops)-1], ir.IsTerminator) {
		owner := m.BlockParentOp(b)
		v.fail(owner, ErrMissingTerminator, "block does not end in yield")
	}
}
