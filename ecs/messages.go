package ecs

// MsgEntityCreated is emitted after an entity handle becomes live.
type MsgEntityCreated struct {
	Entity EntityHandle
}

// MsgEntityDestroyed is emitted when an entity is queued for destruction. Its components stay readable until
// the next FrameFinished.
type MsgEntityDestroyed struct {
	Entity EntityHandle
}

// MsgComponentCreated is emitted once the component is constructed, registered with its entity and queryable.
type MsgComponentCreated[T any] struct {
	Entity    EntityHandle
	Type      ComponentType
	Component ComponentRef[T]
}

// MsgComponentDestroyed is emitted before the component handle is released, so the component is still readable.
type MsgComponentDestroyed[T any] struct {
	Entity    EntityHandle
	Type      ComponentType
	Component ComponentRef[T]
}
