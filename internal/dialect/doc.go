// Package dialect is the closed catalog of rule operations built on package
// ir: subjects, conditions, events, effects and structural ops.
//
// Every kind has a Signature declaring its family, traits, operand and
// result constraints, region count and required attributes. Passes dispatch
// on Kind with exhaustive switches and query traits where behavior is shared.
package dialect
