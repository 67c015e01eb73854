package ecs

import (
	"reflect"
	"slices"

	"github.com/mateusmp/bitengine/messenger"
	"github.com/rotisserie/eris"
)

// DefaultBlockSize is the number of component slots allocated per holder block.
const DefaultBlockSize = 128

// BaseComponentHolder is the type-erased view of a ComponentHolder, used where the component type is only known
// as a ComponentType (entity sweeps, commands, stats, debug tooling).
type BaseComponentHolder interface {
	// Type returns the ComponentType the holder stores.
	Type() ComponentType
	// ReflectType returns the Go type the holder stores.
	ReflectType() reflect.Type
	// Len returns the number of live components.
	Len() int
	// Capacity returns the number of allocated slots, including the reserved slot 0.
	Capacity() int
	// Blocks returns the number of allocated storage blocks.
	Blocks() int
	// NumValidComponents returns the highest handle ever allocated. Live handles lie in [1, NumValidComponents]
	// minus FreeIDs.
	NumValidComponents() int
	// FreeIDs returns the released handles in ascending order. The slice is owned by the holder.
	FreeIDs() []ComponentHandle
	// ComponentForEntity returns the handle owned by e, or InvalidComponent.
	ComponentForEntity(e EntityHandle) ComponentHandle
	// EntityForComponent returns the entity owning h, or InvalidEntity.
	EntityForComponent(h ComponentHandle) EntityHandle
	// ComponentAny returns a pointer to the component behind h as an interface value.
	ComponentAny(h ComponentHandle) (any, error)

	createAny(e EntityHandle, value any) (ComponentHandle, error)
	sendCreateMessage(e EntityHandle, h ComponentHandle)
	sendDestroyMessage(e EntityHandle, h ComponentHandle)
	releaseComponentID(e EntityHandle, h ComponentHandle)
	releaseComponentForEntity(e EntityHandle) error
}

// ComponentHolder stores every component of type T. Slots live in fixed-size blocks that are never moved,
// so pointers handed out stay valid while the pool grows. Handles are allocated from a free-list first,
// then by extending the pool.
type ComponentHolder[T any] struct {
	es        *EntitySystem
	typ       ComponentType
	rtype     reflect.Type
	blockSize int
	limit     int

	blocks      [][]T
	byComponent []EntityHandle
	byEntity    []ComponentHandle
	freeIDs     []ComponentHandle
	freeSorted  bool
	working     int
}

func newComponentHolder[T any](es *EntitySystem, id ComponentType) *ComponentHolder[T] {
	blockSize := es.opts.blockSize
	h := &ComponentHolder[T]{
		es:          es,
		typ:         id,
		rtype:       reflect.TypeFor[T](),
		blockSize:   blockSize,
		limit:       es.opts.maxComponentsPerType,
		blocks:      [][]T{make([]T, blockSize)},
		byComponent: make([]EntityHandle, 1, blockSize),
		byEntity:    make([]ComponentHandle, 0, es.opts.initialEntities),
		freeSorted:  true,
	}
	return h
}

func (h *ComponentHolder[T]) Type() ComponentType       { return h.typ }
func (h *ComponentHolder[T]) ReflectType() reflect.Type { return h.rtype }
func (h *ComponentHolder[T]) Len() int                  { return h.working }
func (h *ComponentHolder[T]) Capacity() int             { return len(h.blocks) * h.blockSize }
func (h *ComponentHolder[T]) Blocks() int               { return len(h.blocks) }
func (h *ComponentHolder[T]) NumValidComponents() int   { return len(h.byComponent) - 1 }

// FreeIDs returns the released handles sorted ascending. Sorting happens lazily, once per batch of releases.
func (h *ComponentHolder[T]) FreeIDs() []ComponentHandle {
	if !h.freeSorted {
		slices.Sort(h.freeIDs)
		h.freeSorted = true
	}
	return h.freeIDs
}

func (h *ComponentHolder[T]) ComponentForEntity(e EntityHandle) ComponentHandle {
	if int(e) >= len(h.byEntity) {
		return InvalidComponent
	}
	return h.byEntity[e]
}

func (h *ComponentHolder[T]) EntityForComponent(c ComponentHandle) EntityHandle {
	if int(c) >= len(h.byComponent) {
		return InvalidEntity
	}
	return h.byComponent[c]
}

// Component returns a pointer to the live component behind c.
func (h *ComponentHolder[T]) Component(c ComponentHandle) (*T, error) {
	if !h.live(c) {
		return nil, eris.Wrapf(ErrInvalidHandle, "%s component %d", h.rtype, c)
	}
	return h.slot(c), nil
}

func (h *ComponentHolder[T]) ComponentAny(c ComponentHandle) (any, error) {
	ptr, err := h.Component(c)
	if err != nil {
		return nil, err
	}
	return ptr, nil
}

// Ref returns a ComponentRef for the component owned by e.
func (h *ComponentHolder[T]) Ref(e EntityHandle) (ComponentRef[T], error) {
	c := h.ComponentForEntity(e)
	if c == InvalidComponent {
		return ComponentRef[T]{}, eris.Wrapf(ErrComponentNotFound, "%s on entity %d", h.rtype, e)
	}
	return ComponentRef[T]{Entity: e, Handle: c, ptr: h.slot(c)}, nil
}

func (h *ComponentHolder[T]) live(c ComponentHandle) bool {
	return c != InvalidComponent && int(c) < len(h.byComponent) && h.byComponent[c] != InvalidEntity
}

func (h *ComponentHolder[T]) slot(c ComponentHandle) *T {
	return &h.blocks[int(c)/h.blockSize][int(c)%h.blockSize]
}

func (h *ComponentHolder[T]) ref(c ComponentHandle) ComponentRef[T] {
	return ComponentRef[T]{Entity: h.byComponent[c], Handle: c, ptr: h.slot(c)}
}

// createComponent allocates a handle for e and stores value in its slot. The caller guarantees e is alive.
func (h *ComponentHolder[T]) createComponent(e EntityHandle, value T) (ComponentHandle, error) {
	if h.limit > 0 && h.working >= h.limit {
		return InvalidComponent, eris.Wrapf(ErrCapacityExceeded, "%s holder full at %d components", h.rtype, h.limit)
	}
	if int(e) >= len(h.byEntity) {
		h.growEntities(int(e) + 1)
	}
	if h.byEntity[e] != InvalidComponent {
		return InvalidComponent, eris.Wrapf(ErrDuplicateComponent, "%s on entity %d", h.rtype, e)
	}

	var c ComponentHandle
	if n := len(h.freeIDs); n > 0 {
		c = h.freeIDs[n-1]
		h.freeIDs = h.freeIDs[:n-1]
	} else {
		c = ComponentHandle(len(h.byComponent))
		h.byComponent = append(h.byComponent, InvalidEntity)
		if int(c) >= h.Capacity() {
			h.blocks = append(h.blocks, make([]T, h.blockSize))
			h.es.log.Debug().
				Str("component", h.rtype.String()).
				Int("blocks", len(h.blocks)).
				Msg("holder grew")
		}
	}

	*h.slot(c) = value
	h.byComponent[c] = e
	h.byEntity[e] = c
	h.working++
	return c, nil
}

func (h *ComponentHolder[T]) createAny(e EntityHandle, value any) (ComponentHandle, error) {
	switch v := value.(type) {
	case T:
		return h.createComponent(e, v)
	case *T:
		return h.createComponent(e, *v)
	default:
		return InvalidComponent, eris.Wrapf(ErrUnregisteredComponent, "%T is not %s", value, h.rtype)
	}
}

func (h *ComponentHolder[T]) sendCreateMessage(e EntityHandle, c ComponentHandle) {
	if !messenger.HasSubscribers[MsgComponentCreated[T]](h.es.bus) {
		return
	}
	messenger.Emit(h.es.bus, MsgComponentCreated[T]{Entity: e, Type: h.typ, Component: h.ref(c)})
}

func (h *ComponentHolder[T]) sendDestroyMessage(e EntityHandle, c ComponentHandle) {
	if !messenger.HasSubscribers[MsgComponentDestroyed[T]](h.es.bus) {
		return
	}
	messenger.Emit(h.es.bus, MsgComponentDestroyed[T]{Entity: e, Type: h.typ, Component: h.ref(c)})
}

// releaseComponentID returns c to the free-list and clears both cross references.
func (h *ComponentHolder[T]) releaseComponentID(e EntityHandle, c ComponentHandle) {
	var zero T
	*h.slot(c) = zero
	h.byComponent[c] = InvalidEntity
	h.byEntity[e] = InvalidComponent
	if n := len(h.freeIDs); n > 0 && h.freeIDs[n-1] > c {
		h.freeSorted = false
	}
	h.freeIDs = append(h.freeIDs, c)
	h.working--
}

func (h *ComponentHolder[T]) releaseComponentForEntity(e EntityHandle) error {
	c := h.ComponentForEntity(e)
	if c == InvalidComponent {
		return eris.Wrapf(ErrComponentNotFound, "%s on entity %d", h.rtype, e)
	}
	h.sendDestroyMessage(e, c)
	// a destroy listener may already have removed it
	if h.byEntity[e] != c {
		return nil
	}
	h.releaseComponentID(e, c)
	return nil
}

func (h *ComponentHolder[T]) growEntities(n int) {
	if n > len(h.byEntity) {
		h.byEntity = append(h.byEntity, make([]ComponentHandle, n-len(h.byEntity))...)
	}
}
