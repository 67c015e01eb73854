package ecs

// ComponentRef is a transient view of one component: the owning entity, the component handle and a pointer
// into the holder's block storage. Slots never move when a holder grows, but a ref must not be kept past the
// frame that produced it because the handle may be released and reused.
type ComponentRef[T any] struct {
	Entity EntityHandle
	Handle ComponentHandle
	ptr    *T
}

// Valid reports whether all three parts of the ref are set.
func (r ComponentRef[T]) Valid() bool {
	return r.Entity.Valid() && r.Handle.Valid() && r.ptr != nil
}

// Get returns the component pointer, nil for an invalid ref.
func (r ComponentRef[T]) Get() *T {
	return r.ptr
}
