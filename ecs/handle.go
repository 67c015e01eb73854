package ecs

// EntityHandle identifies an entity slot. Handle 0 is never a live entity.
type EntityHandle uint32

// ComponentHandle identifies a component instance inside the holder of one component type.
// Numbering is per holder: equal handles of different types are unrelated. Handle 0 is never live.
type ComponentHandle uint32

// ComponentType is the small integer assigned to a component type at registration.
// It indexes the per-entity bit masks and the holder table of an EntitySystem.
type ComponentType uint16

const (
	// InvalidEntity is the reserved, never-live entity handle.
	InvalidEntity EntityHandle = 0
	// InvalidComponent is the reserved, never-live component handle.
	InvalidComponent ComponentHandle = 0
)

// Valid reports whether h is not the reserved handle. It says nothing about liveness.
func (h EntityHandle) Valid() bool { return h != InvalidEntity }

// Valid reports whether h is not the reserved handle. It says nothing about liveness.
func (h ComponentHandle) Valid() bool { return h != InvalidComponent }
