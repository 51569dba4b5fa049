package repokit

// Binder binds a repo to a Queryer so one repo type serves pool and tx callers
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a function to Binder, mostly for tests
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }
