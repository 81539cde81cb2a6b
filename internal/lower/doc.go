// Package lower holds the structural lowering passes that turn analyzed
// rule ops into functions, closures, guards and loops.
//
// Passes run in a fixed order driven by package pipeline:
//
//	BindCaptures       dependent rules moved under their definitions
//	ExtractClosures    until_effect bodies lifted into temporary_effect
//	Flatten            conditional_effect and additional_effect removed
//	LowerEvents        event ops become guarded functions
//	ResolveThis        this_subject bound to function parameters
//	LowerLoops         one_of values become for_all_statement loops
//
// Every pass edits the module through the ir primitives only.
package lower
