// Package processor holds reusable processors built on the ecs package: a transform hierarchy and an entity
// lifetime sweeper.
package processor

import "github.com/mateusmp/bitengine/ecs"

// Transform is a 2D local transform relative to the entity's Parent, or to the world for roots. World is
// recomputed by TransformProcessor every frame. A zero Scale is treated as 1.
type Transform struct {
	X, Y     float32
	Rotation float32
	Scale    float32

	World WorldTransform
}

// WorldTransform is the resolved transform of an entity in world space.
type WorldTransform struct {
	X, Y     float32
	Rotation float32
	Scale    float32
}

// Parent links an entity under another one in the transform hierarchy.
type Parent struct {
	Entity ecs.EntityHandle
}

// Lifetime destroys its entity once Remaining seconds have elapsed.
type Lifetime struct {
	Remaining float64
}

// MsgLifetimeExpired is emitted when LifetimeProcessor queues an entity for destruction.
type MsgLifetimeExpired struct {
	Entity ecs.EntityHandle
}

// RegisterComponents registers every component type used by this package.
func RegisterComponents(r *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Transform](r)
	ecs.RegisterComponent[Parent](r)
	ecs.RegisterComponent[Lifetime](r)
}

func (t Transform) scale() float32 {
	if t.Scale == 0 {
		return 1
	}
	return t.Scale
}
