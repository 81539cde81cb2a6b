package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDump(t *testing.T) {
	m, b := newTestModule()
	v := constOp(b, Unit)
	w := b.Create(OpState{
		Kind:     kClosure,
		Operands: []ValueID{v},
		Attrs:    []NamedAttr{{Name: "n", Value: IntAttr(3)}, {Name: "p", Value: EnumAttr("self")}},
		Regions:  []RegionSpec{{Args: []Type{Model}, Barrier: true}},
	})
	ib := NewBuilder(m, AtEnd(m.EntryBlock(m.Region(w, 0))))
	ib.Create(OpState{Kind: kYield, Operands: []ValueID{m.Arg(m.EntryBlock(m.Region(w, 0)), 0)}})

	want := `(module
  (region
    (block
      (%0:Unit = const)
      (closure %0 {n=3 p=self}
        (region barrier
          (block %1:Model
            (yield %1)))))))
`
	assert.Equal(t, want, m.Dump())
}
