package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeKind is the scalar part of a Type.
type TypeKind uint8

const (
	TypeUnknown TypeKind = iota
	TypeModel
	TypeUnit
	TypeBool
	TypeAbility
	TypeAttack
	TypeStratagem
	TypeTemporaryEffect
	TypeRoll
)

var typeKindNames = [...]string{
	TypeUnknown:         "Unknown",
	TypeModel:           "Model",
	TypeUnit:            "Unit",
	TypeBool:            "Bool",
	TypeAbility:         "Ability",
	TypeAttack:          "Attack",
	TypeStratagem:       "Stratagem",
	TypeTemporaryEffect: "TemporaryEffect",
	TypeRoll:            "Roll",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", k)
}

// Type classifies a value. Depth counts List wrappers around Base, so
// List<List<Model>> is {TypeModel, 2}. Types are comparable with ==.
type Type struct {
	Base  TypeKind
	Depth uint8
}

// Convenience scalar types.
var (
	Unknown         = Type{Base: TypeUnknown}
	Model           = Type{Base: TypeModel}
	Unit            = Type{Base: TypeUnit}
	Bool            = Type{Base: TypeBool}
	Ability         = Type{Base: TypeAbility}
	Attack          = Type{Base: TypeAttack}
	Stratagem       = Type{Base: TypeStratagem}
	TemporaryEffect = Type{Base: TypeTemporaryEffect}
	Roll            = Type{Base: TypeRoll}
)

// ListOf wraps t in a List.
func ListOf(t Type) Type { return Type{Base: t.Base, Depth: t.Depth + 1} }

// IsList reports whether t is a List type.
func (t Type) IsList() bool { return t.Depth > 0 }

// Elem returns the element type of a List. For a non-list it returns t.
func (t Type) Elem() Type {
	if t.Depth == 0 {
		return t
	}
	return Type{Base: t.Base, Depth: t.Depth - 1}
}

// IsUnknown reports whether t contains an unresolved placeholder.
func (t Type) IsUnknown() bool { return t.Base == TypeUnknown }

// IsEntity reports whether t is a scalar game entity (model or unit).
func (t Type) IsEntity() bool {
	return t.Depth == 0 && (t.Base == TypeModel || t.Base == TypeUnit)
}

func (t Type) String() string {
	s := t.Base.String()
	for range t.Depth {
		s = "List<" + s + ">"
	}
	return s
}

// ParseType parses the String form of a Type.
func ParseType(s string) (Type, error) {
	var depth uint8
	for strings.HasPrefix(s, "List<") && strings.HasSuffix(s, ">") {
		s = s[len("List<") : len(s)-1]
		depth++
	}
	for k, name := range typeKindNames {
		if name == s {
			return Type{Base: TypeKind(k), Depth: depth}, nil
		}
	}
	return Unknown, fmt.Errorf("unknown type %q", s)
}

// AttrKind discriminates Attr payloads.
type AttrKind uint8

const (
	AttrNone AttrKind = iota
	AttrEnum
	AttrInt
	AttrString
)

// Attr is immutable compile-time data attached to an operation. Enum
// attributes carry their case name as text.
type Attr struct {
	kind AttrKind
	str  string
	num  int64
}

func EnumAttr(tag string) Attr   { return Attr{kind: AttrEnum, str: tag} }
func IntAttr(n int64) Attr       { return Attr{kind: AttrInt, num: n} }
func StringAttr(s string) Attr   { return Attr{kind: AttrString, str: s} }
func (a Attr) Kind() AttrKind    { return a.kind }
func (a Attr) Int() int64        { return a.num }
func (a Attr) Text() string      { return a.str }
func (a Attr) IsValid() bool     { return a.kind != AttrNone }
func (a Attr) Equal(b Attr) bool { return a == b }

func (a Attr) String() string {
	switch a.kind {
	case AttrEnum:
		return a.str
	case AttrInt:
		return strconv.FormatInt(a.num, 10)
	case AttrString:
		return strconv.Quote(a.str)
	default:
		return "<none>"
	}
}

// NamedAttr is one entry of an operation's ordered attribute list.
type NamedAttr struct {
	Name  string
	Value Attr
}
