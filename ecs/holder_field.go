package ecs

import (
	"iter"
	"reflect"

	"github.com/rotisserie/eris"
)

// Holder is a processor field giving direct access to the ComponentHolder of T. The Scheduler binds it on
// registration.
type Holder[T any] struct {
	holder *ComponentHolder[T]
}

// Init binds the field to es.
func (f *Holder[T]) Init(es *EntitySystem) error {
	h, err := GetHolder[T](es)
	if err != nil {
		return err
	}
	f.holder = h
	return nil
}

// Get returns the bound holder, nil before Init.
func (f *Holder[T]) Get() *ComponentHolder[T] {
	return f.holder
}

// All iterates over every live T in handle order.
func (f *Holder[T]) All() iter.Seq2[EntityHandle, ComponentRef[T]] {
	if f.holder == nil {
		return func(func(EntityHandle, ComponentRef[T]) bool) {}
	}
	return f.holder.All()
}

// Of returns e's T. It fails with ErrUnregisteredComponent before Init.
func (f *Holder[T]) Of(e EntityHandle) (ComponentRef[T], error) {
	if f.holder == nil {
		return ComponentRef[T]{}, eris.Wrapf(ErrUnregisteredComponent, "%s holder not bound", reflect.TypeFor[T]())
	}
	return f.holder.Ref(e)
}
