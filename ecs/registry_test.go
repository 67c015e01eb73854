package ecs_test

import (
	"reflect"
	"testing"

	"github.com/mateusmp/bitengine/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentRegistry(t *testing.T) {
	t.Run("ids are dense and stable", func(t *testing.T) {
		registry := ecs.NewComponentRegistry()
		pos := ecs.RegisterComponent[Position](registry)
		vel := ecs.RegisterComponent[Velocity](registry)

		assert.Equal(t, ecs.ComponentType(0), pos)
		assert.Equal(t, ecs.ComponentType(1), vel)
		assert.Equal(t, pos, ecs.RegisterComponent[Position](registry), "registering twice returns the same id")
		assert.Equal(t, 2, registry.Len())

		id, ok := ecs.ComponentTypeOf[Velocity](registry)
		require.True(t, ok)
		assert.Equal(t, vel, id)

		_, ok = ecs.ComponentTypeOf[Health](registry)
		assert.False(t, ok)
	})

	t.Run("lookup dereferences pointers", func(t *testing.T) {
		registry := newTestRegistry()
		a, ok := registry.Lookup(reflect.TypeOf(Position{}))
		require.True(t, ok)
		b, ok := registry.Lookup(reflect.TypeOf(&Position{}))
		require.True(t, ok)
		assert.Equal(t, a, b)
		assert.Equal(t, reflect.TypeOf(Position{}), registry.TypeOf(a))
		assert.Nil(t, registry.TypeOf(ecs.ComponentType(200)))
	})

	t.Run("registering after the first entity system panics", func(t *testing.T) {
		registry := newTestRegistry()
		assert.False(t, registry.Frozen())
		ecs.NewEntitySystem(registry)
		assert.True(t, registry.Frozen())

		type Late struct{}
		assert.Panics(t, func() { ecs.RegisterComponent[Late](registry) })
		assert.NotPanics(t, func() { ecs.RegisterComponent[Position](registry) }, "known types still resolve")
	})

	t.Run("rejects reference kinds", func(t *testing.T) {
		registry := ecs.NewComponentRegistry()
		assert.Panics(t, func() { ecs.RegisterComponent[*Position](registry) })
		assert.Panics(t, func() { ecs.RegisterComponent[map[int]int](registry) })
		assert.Panics(t, func() { ecs.RegisterComponent[func()](registry) })
	})
}
