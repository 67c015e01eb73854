package ecs_test

import (
	"slices"
	"testing"

	"github.com/mateusmp/bitengine/ecs"
	"github.com/mateusmp/bitengine/messenger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityLifecycle(t *testing.T) {
	t.Run("first handle is 1", func(t *testing.T) {
		es := newTestSystem()
		e, err := es.CreateEntity()
		require.NoError(t, err)
		assert.Equal(t, ecs.EntityHandle(1), e)
		assert.True(t, es.HasEntity(e))
		assert.False(t, es.HasEntity(ecs.InvalidEntity))
		assert.Equal(t, 1, es.Len())
	})

	t.Run("destroyed handles stay alive until the frame ends", func(t *testing.T) {
		es := newTestSystem()
		e, _ := es.CreateEntity()
		_, err := ecs.AddComponent(es, e, Position{X: 3})
		require.NoError(t, err)

		require.NoError(t, es.DestroyEntity(e))
		assert.True(t, es.HasEntity(e))
		assert.True(t, es.IsPendingDestroy(e))

		pos, err := ecs.GetComponent[Position](es, e)
		require.NoError(t, err, "components stay readable while pending")
		assert.Equal(t, float32(3), pos.X)

		assert.Equal(t, 1, es.FrameFinished())
		assert.False(t, es.HasEntity(e))
		assert.False(t, es.IsPendingDestroy(e))
		assert.Equal(t, 0, es.Len())
	})

	t.Run("handles are reused lifo after the sweep", func(t *testing.T) {
		es := newTestSystem()
		e1, _ := es.CreateEntity()
		e2, _ := es.CreateEntity()
		e3, _ := es.CreateEntity()
		require.NoError(t, es.DestroyEntity(e1))
		require.NoError(t, es.DestroyEntity(e3))

		fresh, _ := es.CreateEntity()
		assert.Equal(t, ecs.EntityHandle(4), fresh, "no reuse before FrameFinished")

		es.FrameFinished()
		r1, _ := es.CreateEntity()
		r2, _ := es.CreateEntity()
		assert.Equal(t, e3, r1)
		assert.Equal(t, e1, r2)
		assert.True(t, es.HasEntity(e2))
	})

	t.Run("reused handles carry no components", func(t *testing.T) {
		es := newTestSystem()
		e, _ := es.CreateEntity()
		_, err := ecs.AddComponent(es, e, Position{X: 1})
		require.NoError(t, err)
		_, err = ecs.AddComponent(es, e, Velocity{DX: 1})
		require.NoError(t, err)
		require.NoError(t, es.DestroyEntity(e))
		es.FrameFinished()

		reused, _ := es.CreateEntity()
		require.Equal(t, e, reused)
		assert.True(t, es.Mask(reused).IsZero())
		_, err = ecs.GetComponent[Position](es, reused)
		assert.ErrorIs(t, err, ecs.ErrComponentNotFound)
	})

	t.Run("entities iterate in handle order", func(t *testing.T) {
		es := newTestSystem()
		for i := 0; i < 5; i++ {
			_, _ = es.CreateEntity()
		}
		require.NoError(t, es.DestroyEntity(2))
		es.FrameFinished()
		assert.Equal(t, []ecs.EntityHandle{1, 3, 4, 5}, slices.Collect(es.Entities()))
	})
}

func TestEntitySystemErrors(t *testing.T) {
	es := newTestSystem()
	e, _ := es.CreateEntity()

	t.Run("destroy invalid or dead entities", func(t *testing.T) {
		assert.ErrorIs(t, es.DestroyEntity(ecs.InvalidEntity), ecs.ErrEntityNotFound)
		assert.ErrorIs(t, es.DestroyEntity(999), ecs.ErrEntityNotFound)
	})

	t.Run("double destroy", func(t *testing.T) {
		other, _ := es.CreateEntity()
		require.NoError(t, es.DestroyEntity(other))
		assert.ErrorIs(t, es.DestroyEntity(other), ecs.ErrEntityNotFound)
		es.FrameFinished()
		assert.ErrorIs(t, es.DestroyEntity(other), ecs.ErrEntityNotFound)
	})

	t.Run("duplicate component", func(t *testing.T) {
		_, err := ecs.AddComponent(es, e, Health{Current: 1})
		require.NoError(t, err)
		_, err = ecs.AddComponent(es, e, Health{Current: 2})
		assert.ErrorIs(t, err, ecs.ErrDuplicateComponent)

		hp, err := ecs.GetComponent[Health](es, e)
		require.NoError(t, err)
		assert.Equal(t, 1, hp.Current, "failed add leaves the original untouched")
	})

	t.Run("add to dead or pending entity", func(t *testing.T) {
		_, err := ecs.AddComponent(es, 999, Position{})
		assert.ErrorIs(t, err, ecs.ErrEntityNotFound)

		dying, _ := es.CreateEntity()
		require.NoError(t, es.DestroyEntity(dying))
		_, err = ecs.AddComponent(es, dying, Position{})
		assert.ErrorIs(t, err, ecs.ErrEntityNotFound)
		es.FrameFinished()
	})

	t.Run("missing component", func(t *testing.T) {
		assert.ErrorIs(t, ecs.RemoveComponentOf[AI](es, e), ecs.ErrComponentNotFound)
		_, err := ecs.GetComponent[AI](es, e)
		assert.ErrorIs(t, err, ecs.ErrComponentNotFound)
		_, err = ecs.GetComponent[AI](es, 999)
		assert.ErrorIs(t, err, ecs.ErrEntityNotFound)
	})

	t.Run("unregistered component", func(t *testing.T) {
		type Unknown struct{}
		_, err := ecs.AddComponent(es, e, Unknown{})
		assert.ErrorIs(t, err, ecs.ErrUnregisteredComponent)
		_, err = es.AddComponentAny(e, Unknown{})
		assert.ErrorIs(t, err, ecs.ErrUnregisteredComponent)
		_, err = es.Holder(ecs.ComponentType(100))
		assert.ErrorIs(t, err, ecs.ErrUnregisteredComponent)
	})

	t.Run("remove with wrong handle", func(t *testing.T) {
		pos, err := ecs.AddComponent(es, e, Position{})
		require.NoError(t, err)
		posType, _ := ecs.ComponentTypeOf[Position](es.Registry())
		assert.ErrorIs(t, es.RemoveComponent(e, posType, ecs.InvalidComponent), ecs.ErrInvalidHandle)
		assert.ErrorIs(t, es.RemoveComponent(e, posType, pos.Handle+10), ecs.ErrInvalidHandle)
		assert.NoError(t, es.RemoveComponent(e, posType, pos.Handle))
		assert.False(t, es.HasComponent(e, posType))
	})
}

func TestEntitySystemCapacity(t *testing.T) {
	t.Run("entity limit", func(t *testing.T) {
		es := newTestSystem(ecs.WithMaxEntities(2))
		a, err := es.CreateEntity()
		require.NoError(t, err)
		_, err = es.CreateEntity()
		require.NoError(t, err)
		_, err = es.CreateEntity()
		assert.ErrorIs(t, err, ecs.ErrCapacityExceeded)

		require.NoError(t, es.DestroyEntity(a))
		_, err = es.CreateEntity()
		assert.ErrorIs(t, err, ecs.ErrCapacityExceeded, "pending entities still count")
		es.FrameFinished()
		_, err = es.CreateEntity()
		assert.NoError(t, err)
	})

	t.Run("component limit", func(t *testing.T) {
		es := newTestSystem(ecs.WithMaxComponentsPerType(1))
		a, _ := es.CreateEntity()
		b, _ := es.CreateEntity()
		_, err := ecs.AddComponent(es, a, Position{})
		require.NoError(t, err)
		_, err = ecs.AddComponent(es, b, Position{})
		assert.ErrorIs(t, err, ecs.ErrCapacityExceeded)
		posType, _ := ecs.ComponentTypeOf[Position](es.Registry())
		assert.False(t, es.HasComponent(b, posType))
	})
}

func TestComponentAccess(t *testing.T) {
	es := newTestSystem()
	e, _ := es.CreateEntity()

	ref, err := ecs.AddComponent(es, e, Position{X: 1, Y: 2})
	require.NoError(t, err)
	assert.True(t, ref.Valid())
	assert.Equal(t, e, ref.Entity)

	ref.Get().X = 10
	pos, err := ecs.GetComponent[Position](es, e)
	require.NoError(t, err)
	assert.Equal(t, float32(10), pos.X, "refs point into holder storage")

	h, err := es.AddComponentAny(e, &Velocity{DX: 4})
	require.NoError(t, err)
	assert.True(t, h.Valid())

	velType, _ := ecs.ComponentTypeOf[Velocity](es.Registry())
	v, err := es.ComponentAny(e, velType)
	require.NoError(t, err)
	assert.Equal(t, &Velocity{DX: 4}, v)

	assert.Equal(t, ecs.MaskOf(0, velType), es.Mask(e))

	require.NoError(t, ecs.RemoveComponentOf[Velocity](es, e))
	_, err = es.ComponentAny(e, velType)
	assert.ErrorIs(t, err, ecs.ErrComponentNotFound)
}

func TestLifecycleMessages(t *testing.T) {
	bus := messenger.New()
	es := newTestSystem(ecs.WithMessenger(bus))
	var log []string

	messenger.Subscribe(bus, func(m ecs.MsgEntityCreated) { log = append(log, "entity+") })
	messenger.Subscribe(bus, func(m ecs.MsgEntityDestroyed) { log = append(log, "entity-") })
	messenger.Subscribe(bus, func(m ecs.MsgComponentCreated[Position]) {
		// queryable by the time the message arrives
		pos, err := ecs.GetComponent[Position](es, m.Entity)
		require.NoError(t, err)
		assert.Equal(t, m.Component.Get(), pos)
		log = append(log, "position+")
	})
	messenger.Subscribe(bus, func(m ecs.MsgComponentDestroyed[Position]) {
		// still readable before release
		assert.Equal(t, float32(7), m.Component.Get().X)
		assert.True(t, es.HasComponent(m.Entity, m.Type))
		log = append(log, "position-")
	})

	e, _ := es.CreateEntity()
	_, err := ecs.AddComponent(es, e, Position{X: 7})
	require.NoError(t, err)
	require.NoError(t, es.DestroyEntity(e))
	assert.Equal(t, []string{"entity+", "position+", "entity-"}, log)

	es.FrameFinished()
	assert.Equal(t, []string{"entity+", "position+", "entity-", "position-"}, log)
}

func TestDestroyDuringSweep(t *testing.T) {
	bus := messenger.New()
	es := newTestSystem(ecs.WithMessenger(bus))

	parent, _ := es.CreateEntity()
	child, _ := es.CreateEntity()
	_, err := ecs.AddComponent(es, parent, Name{Value: "parent"})
	require.NoError(t, err)

	messenger.Subscribe(bus, func(m ecs.MsgComponentDestroyed[Name]) {
		if m.Entity == parent {
			require.NoError(t, es.DestroyEntity(child))
		}
	})

	require.NoError(t, es.DestroyEntity(parent))
	assert.Equal(t, 2, es.FrameFinished(), "entities destroyed by listeners are swept in the same call")
	assert.False(t, es.HasEntity(child))
	assert.Equal(t, 0, es.Len())
}

func TestRemoveDuringDestroyMessage(t *testing.T) {
	bus := messenger.New()
	es := newTestSystem(ecs.WithMessenger(bus))
	e, _ := es.CreateEntity()
	_, err := ecs.AddComponent(es, e, Position{})
	require.NoError(t, err)
	_, err = ecs.AddComponent(es, e, Velocity{})
	require.NoError(t, err)

	messenger.Subscribe(bus, func(m ecs.MsgComponentDestroyed[Position]) {
		_ = ecs.RemoveComponentOf[Velocity](es, m.Entity)
	})

	require.NoError(t, es.DestroyEntity(e))
	es.FrameFinished()

	vel, _ := ecs.GetHolder[Velocity](es)
	assert.Equal(t, 0, vel.Len())
	assert.Len(t, vel.FreeIDs(), 1)
}

func TestQueryDuringSweep(t *testing.T) {
	bus := messenger.New()
	es := newTestSystem(ecs.WithMessenger(bus))
	posType, _ := ecs.ComponentTypeOf[Position](es.Registry())

	e, err := ecs.Spawn(es, Position{X: 1}, Velocity{DX: 2})
	require.NoError(t, err)
	keep, err := ecs.Spawn(es, Position{X: 3}, Velocity{DX: 4})
	require.NoError(t, err)

	var visited []ecs.EntityHandle
	messenger.Subscribe(bus, func(m ecs.MsgComponentDestroyed[Velocity]) {
		assert.False(t, es.HasComponent(m.Entity, posType), "released types leave the mask")
		_, err := ecs.GetComponent[Position](es, m.Entity)
		assert.ErrorIs(t, err, ecs.ErrComponentNotFound)

		visited = visited[:0]
		require.NoError(t, ecs.ForEach2(es, func(e ecs.EntityHandle, v ecs.ComponentRef[Velocity], p ecs.ComponentRef[Position]) {
			assert.True(t, p.Valid())
			assert.Equal(t, e, p.Entity)
			visited = append(visited, e)
		}))
	})

	require.NoError(t, es.DestroyEntity(e))
	assert.Equal(t, 1, es.FrameFinished())
	assert.Equal(t, []ecs.EntityHandle{keep}, visited)
	assert.Equal(t, ecs.Mask{}, es.Mask(e))

	pos, err := ecs.GetComponent[Position](es, keep)
	require.NoError(t, err)
	assert.Equal(t, float32(3), pos.X)
}

func TestComponentTypes(t *testing.T) {
	es := newTestSystem()
	e, _ := ecs.Spawn(es, Tag("player"), Position{}, Score(3))
	pos, _ := ecs.ComponentTypeOf[Position](es.Registry())
	score, _ := ecs.ComponentTypeOf[Score](es.Registry())
	tag, _ := ecs.ComponentTypeOf[Tag](es.Registry())

	assert.Equal(t, []ecs.ComponentType{pos, score, tag}, es.ComponentTypes(e))
	assert.Empty(t, es.ComponentTypes(999))
}
