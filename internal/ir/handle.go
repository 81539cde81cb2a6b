package ir

import "strings"

// OpID identifies an operation within a Module.
type OpID uint32

// RegionID identifies a region within a Module.
type RegionID uint32

// BlockID identifies a block within a Module.
type BlockID uint32

// ValueID identifies an SSA value (operation result or block argument).
type ValueID uint32

func (id OpID) IsValid() bool     { return id != 0 }
func (id RegionID) IsValid() bool { return id != 0 }
func (id BlockID) IsValid() bool  { return id != 0 }
func (id ValueID) IsValid() bool  { return id != 0 }

// Kind tags an operation. Kind values are allocated by a Dialect; KindModule
// is reserved for the top-level container.
type Kind uint16

// KindModule is the kind of the module root operation.
const KindModule Kind = 0

// Traits is a set of capability tags attached to an operation kind.
type Traits uint16

const (
	// Pure ops have no side effects and may be removed when unused.
	Pure Traits = 1 << iota
	// HasPreconditions ops carry a condition region and an effect region.
	HasPreconditions
	// CanDefineOperand ops produce a value usable as a subject downstream.
	CanDefineOperand
	// IsTerminator ops end a block.
	IsTerminator
	// FilteringInterface ops narrow a set of subjects.
	FilteringInterface
	// RecursivelySpeculatable ops are pure when their regions are.
	RecursivelySpeculatable
	// NoTerminator ops own blocks that do not end in a terminator.
	NoTerminator
	// MappableOntoFunction ops are events that lower to a named function.
	MappableOntoFunction
	// ContextDependent ops read the implicit rule context.
	ContextDependent
	// FunctionLike ops are top-level callables.
	FunctionLike
)

var traitNames = []struct {
	t    Traits
	name string
}{
	{Pure, "pure"},
	{HasPreconditions, "has_preconditions"},
	{CanDefineOperand, "can_define_operand"},
	{IsTerminator, "terminator"},
	{FilteringInterface, "filtering"},
	{RecursivelySpeculatable, "recursively_speculatable"},
	{NoTerminator, "no_terminator"},
	{MappableOntoFunction, "mappable_onto_function"},
	{ContextDependent, "context_dependent"},
	{FunctionLike, "function_like"},
}

// Has reports whether every trait in want is present.
func (t Traits) Has(want Traits) bool { return t&want == want }

func (t Traits) String() string {
	var parts []string
	for _, tn := range traitNames {
		if t.Has(tn.t) {
			parts = append(parts, tn.name)
		}
	}
	return strings.Join(parts, "|")
}

// Dialect supplies names and traits for operation kinds.
type Dialect interface {
	KindName(k Kind) string
	KindTraits(k Kind) Traits
}

// Use is one operand slot consuming a value.
type Use struct {
	Op    OpID
	Index int
}
