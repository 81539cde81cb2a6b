// Package frontend turns rule documents into the initial IR module.
//
// A rule document lists rules, each carrying the parse tree produced by the
// rule-prose parser. Trees are written in YAML or CUE with the same shape:
// every interior node is a map with a single key naming the construct, whose
// value is the list of children; scalars are tokens.
//
//	rules:
//	  - name: invuln
//	    text: "While this unit is below half strength, it has a 5+ invulnerable save"
//	    tree:
//	      while_true_effect:
//	        - is_condition:
//	            - this_model: [unit]
//	            - below_half_strength
//	        - invulnerable_save: [it_subject, 5]
//
// The builder is syntax-directed: one method per construct, a scope stack
// holding the current insertion block and the subject constraints apply to.
// It emits make_referrable markers for every subject a later "it" or "such"
// may name. Nothing is type-checked here; unknown constructs, wrong arity
// and out-of-range tokens are reported as *CompileError.
package frontend
