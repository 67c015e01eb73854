package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

type componentEntry struct {
	typ     reflect.Type
	factory func(es *EntitySystem, id ComponentType) BaseComponentHolder
}

// ComponentRegistry assigns ComponentType ids to Go types. Each EntitySystem is built from one registry,
// which freezes it: every component type must be registered before the first EntitySystem is created,
// because the per-entity mask width is decided at that point.
type ComponentRegistry struct {
	byType  map[reflect.Type]ComponentType
	entries []componentEntry
	frozen  bool
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]ComponentType),
	}
}

// RegisterComponent registers T and returns its ComponentType. Registering the same type twice returns
// the existing id. It panics when the registry is frozen, when MaxComponentTypes is exceeded, or when T
// is a pointer, map, channel or function type.
func RegisterComponent[T any](r *ComponentRegistry) ComponentType {
	t := reflect.TypeFor[T]()
	if id, ok := r.byType[t]; ok {
		return id
	}
	if r.frozen {
		panic(eris.Wrapf(ErrRegistryFrozen, "cannot register %s", t))
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		panic("components cannot be pointers, maps, channels, or functions: " + t.String())
	}
	if len(r.entries) >= MaxComponentTypes {
		panic(eris.Wrapf(ErrCapacityExceeded, "cannot register %s: limit of %d component types", t, MaxComponentTypes))
	}

	id := ComponentType(len(r.entries))
	r.byType[t] = id
	r.entries = append(r.entries, componentEntry{
		typ: t,
		factory: func(es *EntitySystem, id ComponentType) BaseComponentHolder {
			return newComponentHolder[T](es, id)
		},
	})
	return id
}

// ComponentTypeOf returns the id registered for T.
func ComponentTypeOf[T any](r *ComponentRegistry) (ComponentType, bool) {
	id, ok := r.byType[reflect.TypeFor[T]()]
	return id, ok
}

// Lookup returns the id registered for the Go type t.
func (r *ComponentRegistry) Lookup(t reflect.Type) (ComponentType, bool) {
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	id, ok := r.byType[t]
	return id, ok
}

// Len returns the number of registered types.
func (r *ComponentRegistry) Len() int {
	return len(r.entries)
}

// TypeOf returns the Go type registered under id, or nil.
func (r *ComponentRegistry) TypeOf(id ComponentType) reflect.Type {
	if int(id) >= len(r.entries) {
		return nil
	}
	return r.entries[id].typ
}

// Frozen reports whether an EntitySystem has been built from the registry.
func (r *ComponentRegistry) Frozen() bool {
	return r.frozen
}

func (r *ComponentRegistry) freeze() {
	r.frozen = true
}
