package ecs

import (
	"errors"
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Commands buffers structural changes requested while processors run. The Scheduler flushes it after the last
// processor and before FrameFinished.
type Commands struct {
	spawns   []spawnCommand
	destroys []EntityHandle
	adds     []addComponentCommand
	removes  []removeComponentCommand
	defers   []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	components []any
}

type addComponentCommand struct {
	entity    EntityHandle
	component any
}

type removeComponentCommand struct {
	entity EntityHandle
	typ    ComponentType
}

// Defer queues fn to run at the end of the flush.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues creation of an entity carrying the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// Destroy queues destruction of an entity.
func (c *Commands) Destroy(entity EntityHandle) {
	c.destroys = append(c.destroys, entity)
}

// AddComponent queues attaching component to entity.
func (c *Commands) AddComponent(entity EntityHandle, component any) {
	c.adds = append(c.adds, addComponentCommand{entity: entity, component: component})
}

// RemoveComponent queues removal of entity's component of type t.
func (c *Commands) RemoveComponent(entity EntityHandle, t ComponentType) {
	c.removes = append(c.removes, removeComponentCommand{entity: entity, typ: t})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.destroys) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies all queued commands to es and resets the buffer. Destroys run first; removes and adds that
// target an entity destroyed in the same flush are dropped. A failing command is logged and skipped; all
// failures are returned joined.
func (c *Commands) Flush(es *EntitySystem) error {
	log := es.Logger()
	var errs []error
	fail := func(err error, msg string, entity EntityHandle) {
		log.Warn().Err(err).Uint32("entity", uint32(entity)).Msg(msg)
		errs = append(errs, err)
	}

	destroyed := make(map[EntityHandle]bool, len(c.destroys))
	for _, e := range c.destroys {
		if destroyed[e] {
			continue
		}
		if err := es.DestroyEntity(e); err != nil {
			fail(err, "deferred destroy failed", e)
			continue
		}
		destroyed[e] = true
	}

	for _, cmd := range c.removes {
		if destroyed[cmd.entity] {
			continue
		}
		if err := es.RemoveComponentType(cmd.entity, cmd.typ); err != nil {
			fail(err, "deferred component removal failed", cmd.entity)
		}
	}

	for _, cmd := range c.adds {
		if destroyed[cmd.entity] {
			continue
		}
		if _, err := es.AddComponentAny(cmd.entity, cmd.component); err != nil {
			fail(err, "deferred component add failed", cmd.entity)
		}
	}

	for _, cmd := range c.spawns {
		if err := spawn(es, cmd.components, log); err != nil {
			fail(err, "deferred spawn failed", InvalidEntity)
		}
	}

	for _, fn := range c.defers {
		fn()
	}

	clear(c.spawns)
	clear(c.adds)
	clear(c.defers)
	c.spawns = c.spawns[:0]
	c.destroys = c.destroys[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]

	return errors.Join(errs...)
}

// Spawn creates an entity and attaches components to it. Unregistered or repeated component types are rejected
// before the entity is created. If a component still cannot be attached, the ones already attached are removed
// and the entity is destroyed again before the error is returned.
func Spawn(es *EntitySystem, components ...any) (EntityHandle, error) {
	if err := checkSpawn(es.registry, components); err != nil {
		return InvalidEntity, err
	}
	e, err := es.CreateEntity()
	if err != nil {
		return InvalidEntity, err
	}
	for i, comp := range components {
		if _, err := es.AddComponentAny(e, comp); err != nil {
			for _, done := range components[:i] {
				t, _ := es.registry.Lookup(reflect.TypeOf(done))
				_ = es.RemoveComponentType(e, t)
			}
			_ = es.DestroyEntity(e)
			return InvalidEntity, err
		}
	}
	return e, nil
}

func checkSpawn(r *ComponentRegistry, components []any) error {
	var seen Mask
	for _, comp := range components {
		t, ok := r.Lookup(reflect.TypeOf(comp))
		if !ok {
			return eris.Wrapf(ErrUnregisteredComponent, "%T", comp)
		}
		if seen.Has(t) {
			return eris.Wrapf(ErrDuplicateComponent, "%T given twice", comp)
		}
		seen.Set(t)
	}
	return nil
}

func spawn(es *EntitySystem, components []any, log zerolog.Logger) error {
	e, err := Spawn(es, components...)
	if err != nil {
		return err
	}
	log.Trace().Uint32("entity", uint32(e)).Int("components", len(components)).Msg("deferred spawn")
	return nil
}
