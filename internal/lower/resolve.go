package lower

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/sema"
)

// ResolveThis binds each this_subject inside a function to the function
// parameter of the same role. this_subject ops outside functions are left
// for the spawn sites that pass them.
func ResolveThis(m *ir.Module) (int, error) {
	n := 0
	for _, op := range m.OpsOfKind(m.Root(), dialect.ThisSubject) {
		fn := m.EnclosingOf(op, dialect.Function)
		if fn == 0 {
			continue
		}
		t := m.Type(m.Result(op, 0))
		p := param(m, dialect.Body(m, fn, 0), dialect.ThisParamName(t))
		if p == 0 {
			sym, _ := dialect.TextAttrOf(m, fn, dialect.AttrSymName)
			return n, sema.Errorf(sema.ErrUnsupported, op, "%s has no parameter for this %s", sym, t)
		}
		if err := m.ReplaceOp(op, p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func param(m *ir.Module, body ir.BlockID, name string) ir.ValueID {
	if name == "" {
		return 0
	}
	for _, a := range m.Args(body) {
		if m.ValueName(a) == name {
			return a
		}
	}
	return 0
}
