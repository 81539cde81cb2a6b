package ir

import (
	"slices"
	"unicode/utf16"
)

// IRValue is a JSON-shaped value accepted by MarshalCanonical. There is no
// null and no float.
type IRValue interface {
	irValue()
}

type IRString string
type IRInt int64
type IRBool bool
type IRArray []IRValue
type IRObject map[string]IRValue

func (IRString) irValue() {}
func (IRInt) irValue()    {}
func (IRBool) irValue()   {}
func (IRArray) irValue()  {}
func (IRObject) irValue() {}

// SortedKeys returns the keys ordered by UTF-16 code units (RFC 8785).
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}
