package ir

import "fmt"

// Builder creates ops at a moving insertion point. Successive ops land in
// creation order.
type Builder struct {
	m  *Module
	ip InsertPoint
}

func NewBuilder(m *Module, ip InsertPoint) *Builder {
	return &Builder{m: m, ip: ip}
}

func (b *Builder) Module() *Module                { return b.m }
func (b *Builder) InsertPoint() InsertPoint      { return b.ip }
func (b *Builder) SetInsertPoint(ip InsertPoint) { b.ip = ip }

// Create builds an op and inserts it. An invalid insertion point is a
// programming error and panics.
func (b *Builder) Create(st OpState) OpID {
	op := b.m.Create(st)
	if err := b.m.Insert(op, b.ip); err != nil {
		panic(fmt.Sprintf("ir: builder insert: %v", err))
	}
	return op
}

// Value builds a single-result op and returns its result.
func (b *Builder) Value(st OpState) ValueID {
	return b.m.Result(b.Create(st), 0)
}
