package ecs

import "github.com/rotisserie/eris"

var (
	// ErrInvalidHandle is returned for the zero handle or a handle that was never allocated or is currently free.
	ErrInvalidHandle = eris.New("invalid handle")
	// ErrEntityNotFound is returned when an entity is not alive (never created, already swept, or pending destruction
	// for operations that cannot apply to a dying entity).
	ErrEntityNotFound = eris.New("entity not found")
	// ErrDuplicateComponent is returned when an entity already owns a component of the requested type.
	ErrDuplicateComponent = eris.New("component already on entity")
	// ErrCapacityExceeded is returned when a configured entity or component bound would be crossed.
	ErrCapacityExceeded = eris.New("capacity exceeded")
	// ErrComponentNotFound is returned when a live entity does not own a component of the requested type.
	ErrComponentNotFound = eris.New("component not on entity")
	// ErrUnregisteredComponent is returned for component types missing from the registry.
	ErrUnregisteredComponent = eris.New("component type not registered")
	// ErrRegistryFrozen is raised when a component type is registered after an EntitySystem was built from the registry.
	ErrRegistryFrozen = eris.New("component registry is frozen")
	// ErrOutOfRange is returned for bit indices outside a BitVector or ObjBitField.
	ErrOutOfRange = eris.New("index out of range")
)
