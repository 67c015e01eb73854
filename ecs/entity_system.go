package ecs

import (
	"iter"
	"math"
	"reflect"

	"github.com/mateusmp/bitengine/messenger"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// EntitySystem owns entity handles, one ComponentHolder per registered component type and the queue of
// entities waiting for destruction.
//
// An entity moves Free -> Alive on CreateEntity, Alive -> PendingDestroy on DestroyEntity and back to Free on
// the next FrameFinished. Pending entities keep their components, which stay visible to lookups and queries
// until the sweep.
//
// EntitySystem is not safe for concurrent use: all mutation, queries and FrameFinished must happen on one
// goroutine.
type EntitySystem struct {
	registry *ComponentRegistry
	opts     options
	log      zerolog.Logger
	bus      *messenger.Messenger

	entities      []EntityHandle
	freeEntities  []EntityHandle
	pending       *BitVector
	toBeDestroyed []EntityHandle
	sweepBuf      []EntityHandle
	bits          *ObjBitField
	holders       []BaseComponentHolder
	alive         int

	singletons map[reflect.Type]any

	scratch [][]match
	depth   int
}

// NewEntitySystem builds an EntitySystem with a holder for every type in registry and freezes the registry.
func NewEntitySystem(registry *ComponentRegistry, opts ...Option) *EntitySystem {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.bus == nil {
		o.bus = messenger.New()
	}

	registry.freeze()

	// width is fixed from here on; an empty registry still gets a one bit mask
	width := max(registry.Len(), 1)
	bits, err := NewObjBitField(width)
	if err != nil {
		panic(err)
	}

	es := &EntitySystem{
		registry:   registry,
		opts:       o,
		log:        o.log,
		bus:        o.bus,
		entities:   make([]EntityHandle, 1, o.initialEntities),
		pending:    NewBitVector(1),
		bits:       bits,
		holders:    make([]BaseComponentHolder, registry.Len()),
		singletons: make(map[reflect.Type]any),
	}
	bits.Push()

	names := zerolog.Arr()
	for id, entry := range registry.entries {
		es.holders[id] = entry.factory(es, ComponentType(id))
		names = names.Str(entry.typ.String())
	}
	es.log.Debug().
		Int("component_types", registry.Len()).
		Array("components", names).
		Int("block_size", o.blockSize).
		Msg("entity system initialized")

	return es
}

// Registry returns the frozen registry the system was built from.
func (es *EntitySystem) Registry() *ComponentRegistry {
	return es.registry
}

// Messenger returns the messenger lifecycle messages are emitted on.
func (es *EntitySystem) Messenger() *messenger.Messenger {
	return es.bus
}

// Logger returns the system logger.
func (es *EntitySystem) Logger() zerolog.Logger {
	return es.log
}

// Len returns the number of live entities, pending ones included.
func (es *EntitySystem) Len() int {
	return es.alive
}

// CreateEntity returns a fresh entity handle, reusing a freed one when available, and emits MsgEntityCreated.
func (es *EntitySystem) CreateEntity() (EntityHandle, error) {
	if es.opts.maxEntities > 0 && es.alive >= es.opts.maxEntities {
		return InvalidEntity, eris.Wrapf(ErrCapacityExceeded, "entity limit %d", es.opts.maxEntities)
	}

	var e EntityHandle
	if n := len(es.freeEntities); n > 0 {
		e = es.freeEntities[n-1]
		es.freeEntities = es.freeEntities[:n-1]
		es.entities[e] = e
		if err := es.bits.UnsetAll(int(e)); err != nil {
			return InvalidEntity, err
		}
	} else {
		if uint64(len(es.entities)) > math.MaxUint32 {
			return InvalidEntity, eris.Wrap(ErrCapacityExceeded, "entity handles exhausted")
		}
		e = EntityHandle(len(es.entities))
		es.entities = append(es.entities, e)
		es.bits.Push()
		es.pending.PushBack(false)
	}
	es.alive++

	messenger.Emit(es.bus, MsgEntityCreated{Entity: e})
	return e, nil
}

// DestroyEntity queues e for destruction at the next FrameFinished and emits MsgEntityDestroyed right away.
// Destroying an entity that is not alive, or is already queued, fails with ErrEntityNotFound.
func (es *EntitySystem) DestroyEntity(e EntityHandle) error {
	if !es.HasEntity(e) {
		return eris.Wrapf(ErrEntityNotFound, "destroy entity %d", e)
	}
	if es.IsPendingDestroy(e) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d already pending destruction", e)
	}
	if err := es.pending.Set(int(e)); err != nil {
		return err
	}
	es.toBeDestroyed = append(es.toBeDestroyed, e)

	messenger.Emit(es.bus, MsgEntityDestroyed{Entity: e})
	return nil
}

// HasEntity reports whether e is alive. Entities pending destruction are still alive.
func (es *EntitySystem) HasEntity(e EntityHandle) bool {
	return e != InvalidEntity && int(e) < len(es.entities) && es.entities[e] == e
}

// IsPendingDestroy reports whether e is queued for destruction.
func (es *EntitySystem) IsPendingDestroy(e EntityHandle) bool {
	if !es.HasEntity(e) {
		return false
	}
	pending, err := es.pending.Test(int(e))
	return err == nil && pending
}

// Entities iterates over live entities in handle order.
func (es *EntitySystem) Entities() iter.Seq[EntityHandle] {
	return func(yield func(EntityHandle) bool) {
		for i := 1; i < len(es.entities); i++ {
			if es.entities[i] == InvalidEntity {
				continue
			}
			if !yield(es.entities[i]) {
				return
			}
		}
	}
}

// Mask returns the set of component types attached to e. Dead entities have an empty mask.
func (es *EntitySystem) Mask(e EntityHandle) Mask {
	if !es.HasEntity(e) {
		return Mask{}
	}
	return es.bits.Mask(int(e))
}

// ComponentTypes returns the component types attached to e in ascending order.
func (es *EntitySystem) ComponentTypes(e EntityHandle) []ComponentType {
	mask := es.Mask(e)
	types := make([]ComponentType, 0, mask.Count())
	mask.ForEach(func(t ComponentType) { types = append(types, t) })
	return types
}

// HasComponent reports whether e currently owns a component of type t.
func (es *EntitySystem) HasComponent(e EntityHandle, t ComponentType) bool {
	if !es.HasEntity(e) || int(t) >= len(es.holders) {
		return false
	}
	set, err := es.bits.Test(int(e), int(t))
	return err == nil && set
}

// Holder returns the type-erased holder for t.
func (es *EntitySystem) Holder(t ComponentType) (BaseComponentHolder, error) {
	if int(t) >= len(es.holders) {
		return nil, eris.Wrapf(ErrUnregisteredComponent, "component type %d", t)
	}
	return es.holders[t], nil
}

// Holders returns every holder indexed by ComponentType. The slice is owned by the system.
func (es *EntitySystem) Holders() []BaseComponentHolder {
	return es.holders
}

// ComponentAny returns a pointer to e's component of type t as an interface value.
func (es *EntitySystem) ComponentAny(e EntityHandle, t ComponentType) (any, error) {
	h, err := es.Holder(t)
	if err != nil {
		return nil, err
	}
	if !es.HasEntity(e) {
		return nil, eris.Wrapf(ErrEntityNotFound, "entity %d", e)
	}
	c := h.ComponentForEntity(e)
	if c == InvalidComponent {
		return nil, eris.Wrapf(ErrComponentNotFound, "%s on entity %d", h.ReflectType(), e)
	}
	return h.ComponentAny(c)
}

// AddComponentAny attaches value, a registered component type or a pointer to one, to e.
func (es *EntitySystem) AddComponentAny(e EntityHandle, value any) (ComponentHandle, error) {
	t, ok := es.registry.Lookup(reflect.TypeOf(value))
	if !ok {
		return InvalidComponent, eris.Wrapf(ErrUnregisteredComponent, "%T", value)
	}
	h := es.holders[t]
	if err := es.canAttach(e, t); err != nil {
		return InvalidComponent, err
	}
	c, err := h.createAny(e, value)
	if err != nil {
		return InvalidComponent, err
	}
	if err := es.addComponent(e, t); err != nil {
		return InvalidComponent, err
	}
	h.sendCreateMessage(e, c)
	return c, nil
}

// RemoveComponent destroys the component h of type t owned by e. MsgComponentDestroyed is emitted before the
// handle is released.
func (es *EntitySystem) RemoveComponent(e EntityHandle, t ComponentType, h ComponentHandle) error {
	holder, err := es.Holder(t)
	if err != nil {
		return err
	}
	if !es.HasEntity(e) {
		return eris.Wrapf(ErrEntityNotFound, "remove component from entity %d", e)
	}
	if h == InvalidComponent || holder.EntityForComponent(h) != e {
		return eris.Wrapf(ErrInvalidHandle, "%s component %d on entity %d", holder.ReflectType(), h, e)
	}

	holder.sendDestroyMessage(e, h)
	if holder.ComponentForEntity(e) == h {
		holder.releaseComponentID(e, h)
	}
	return es.bits.Unset(int(e), int(t))
}

// RemoveComponentType destroys e's component of type t.
func (es *EntitySystem) RemoveComponentType(e EntityHandle, t ComponentType) error {
	holder, err := es.Holder(t)
	if err != nil {
		return err
	}
	c := holder.ComponentForEntity(e)
	if es.HasEntity(e) && c == InvalidComponent {
		return eris.Wrapf(ErrComponentNotFound, "%s on entity %d", holder.ReflectType(), e)
	}
	return es.RemoveComponent(e, t, c)
}

// FrameFinished releases every entity queued by DestroyEntity: its components are destroyed (emitting
// MsgComponentDestroyed), its mask is cleared and its handle goes back to the free-list. Entities destroyed
// by listeners during the sweep are swept in the same call. It returns the number of entities released.
func (es *EntitySystem) FrameFinished() int {
	swept, released := 0, 0
	for len(es.toBeDestroyed) > 0 {
		batch := es.toBeDestroyed
		es.toBeDestroyed = es.sweepBuf[:0]

		for _, e := range batch {
			mask := es.bits.Mask(int(e))
			mask.ForEach(func(t ComponentType) {
				if int(t) >= len(es.holders) {
					return
				}
				if err := es.holders[t].releaseComponentForEntity(e); err == nil {
					released++
				}
				_ = es.bits.Unset(int(e), int(t))
			})
			_ = es.bits.UnsetAll(int(e))
			_ = es.pending.Unset(int(e))
			es.entities[e] = InvalidEntity
			es.freeEntities = append(es.freeEntities, e)
			es.alive--
			swept++
		}
		es.sweepBuf = batch[:0]
	}

	if swept > 0 {
		es.log.Debug().
			Int("entities", swept).
			Int("components", released).
			Int("alive", es.alive).
			Msg("frame sweep")
	}
	return swept
}

// canAttach checks e may receive a component of type t.
func (es *EntitySystem) canAttach(e EntityHandle, t ComponentType) error {
	if !es.HasEntity(e) {
		return eris.Wrapf(ErrEntityNotFound, "add component to entity %d", e)
	}
	if es.IsPendingDestroy(e) {
		return eris.Wrapf(ErrEntityNotFound, "add component to entity %d pending destruction", e)
	}
	if es.HasComponent(e, t) {
		return eris.Wrapf(ErrDuplicateComponent, "%s on entity %d", es.holders[t].ReflectType(), e)
	}
	return nil
}

// addComponent records membership of t in e's mask. Component data is created by the holder beforehand.
func (es *EntitySystem) addComponent(e EntityHandle, t ComponentType) error {
	if es.HasComponent(e, t) {
		return eris.Wrapf(ErrDuplicateComponent, "%s on entity %d", es.holders[t].ReflectType(), e)
	}
	return es.bits.Set(int(e), int(t))
}

// GetHolder returns the holder storing T.
func GetHolder[T any](es *EntitySystem) (*ComponentHolder[T], error) {
	t, ok := ComponentTypeOf[T](es.registry)
	if !ok {
		return nil, eris.Wrapf(ErrUnregisteredComponent, "%s", reflect.TypeFor[T]())
	}
	return es.holders[t].(*ComponentHolder[T]), nil
}

// AddComponent creates a T for e initialised to value and emits MsgComponentCreated[T] once it is queryable.
func AddComponent[T any](es *EntitySystem, e EntityHandle, value T) (ComponentRef[T], error) {
	h, err := GetHolder[T](es)
	if err != nil {
		return ComponentRef[T]{}, err
	}
	if err := es.canAttach(e, h.typ); err != nil {
		return ComponentRef[T]{}, err
	}
	c, err := h.createComponent(e, value)
	if err != nil {
		return ComponentRef[T]{}, err
	}
	if err := es.addComponent(e, h.typ); err != nil {
		return ComponentRef[T]{}, err
	}
	ref := h.ref(c)
	h.sendCreateMessage(e, c)
	return ref, nil
}

// RemoveComponentOf destroys e's T.
func RemoveComponentOf[T any](es *EntitySystem, e EntityHandle) error {
	h, err := GetHolder[T](es)
	if err != nil {
		return err
	}
	return es.RemoveComponentType(e, h.typ)
}

// GetComponentRef returns a ref to e's T.
func GetComponentRef[T any](es *EntitySystem, e EntityHandle) (ComponentRef[T], error) {
	h, err := GetHolder[T](es)
	if err != nil {
		return ComponentRef[T]{}, err
	}
	if !es.HasEntity(e) {
		return ComponentRef[T]{}, eris.Wrapf(ErrEntityNotFound, "entity %d", e)
	}
	return h.Ref(e)
}

// GetComponent returns a pointer to e's T.
func GetComponent[T any](es *EntitySystem, e EntityHandle) (*T, error) {
	ref, err := GetComponentRef[T](es, e)
	if err != nil {
		return nil, err
	}
	return ref.Get(), nil
}
