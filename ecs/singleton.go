package ecs

import "reflect"

// Singleton provides access to a single instance of T that is not attached to any entity. Use it for global
// frame state such as timing or metrics.
type Singleton[T any] struct {
	es  *EntitySystem
	ptr *T
}

// NewSingleton returns an accessor for T, creating the instance from initializer (or the zero value) if the
// entity system does not hold one yet.
func NewSingleton[T any](es *EntitySystem, initializer ...T) *Singleton[T] {
	ptr := es.singleton(reflect.TypeFor[T]())
	if ptr == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		AddSingleton(es, value)
	}

	s := &Singleton[T]{}
	s.Init(es)
	return s
}

// AddSingleton stores value as the singleton T, replacing any previous one, and returns a pointer to it.
func AddSingleton[T any](es *EntitySystem, value T) *T {
	ptr := new(T)
	*ptr = value
	es.singletons[reflect.TypeFor[T]()] = ptr
	return ptr
}

// Init binds the accessor to es. The Scheduler calls it for Singleton fields of registered processors.
func (s *Singleton[T]) Init(es *EntitySystem) {
	s.es = es
	s.updateCache()
}

// Get returns the singleton, or nil if none has been added.
func (s *Singleton[T]) Get() *T {
	if s.ptr == nil {
		s.updateCache()
	}
	return s.ptr
}

// Exists reports whether the singleton has been added.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}

func (s *Singleton[T]) updateCache() {
	if s.es == nil {
		return
	}
	if ptr, ok := s.es.singleton(reflect.TypeFor[T]()).(*T); ok {
		s.ptr = ptr
	}
}

func (es *EntitySystem) singleton(t reflect.Type) any {
	return es.singletons[t]
}
