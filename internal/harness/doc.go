// Package harness runs end-to-end compiler scenarios.
//
// A scenario is a YAML file naming a rule document, the pipeline options
// to compile it with, the outcome expected and a list of assertions over
// the rendered output, the diagnostics and the passes that ran:
//
//	name: invuln
//	description: "A conditional save becomes an evaluate function"
//	source: |
//	  rules:
//	    - name: invuln
//	      tree: ...
//	expect:
//	  status: ok
//	assertions:
//	  - type: output_contains
//	    text: "def on_evaluate_invulnerable_save("
//	  - type: pass_order
//	    passes: [sema, flatten, lower-events]
//	golden: true
//
// # Assertion Types
//
//   - output_contains: the output includes text
//   - output_lacks: the output does not include text
//   - diagnostic: a rule was dropped with code, optionally naming rule
//   - diagnostic_count: exactly count rules were dropped
//   - pass_order: the passes ran in this relative order
//
// # Deterministic Testing
//
// Every scenario is compiled with structural verification on and recorded
// into an in-memory history store. Run IDs and seq values come from
// internal/testutil, so the recorded run of a scenario is the same on
// every execution and golden snapshots compare byte for byte.
//
// Scenarios with golden set compare Snapshot(result) against
// testdata/golden/<name>.golden.
package harness
