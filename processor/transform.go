package processor

import (
	"math"
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/mateusmp/bitengine/ecs"
	"github.com/mateusmp/bitengine/messenger"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type node struct {
	parent   ecs.EntityHandle
	children []ecs.EntityHandle
}

// TransformProcessor keeps a parent/child table in sync with Parent components and resolves World for every
// Transform each frame, parents before children. Propagation uses an explicit stack so hierarchy depth is not
// bounded by the goroutine stack.
//
// When an entity is destroyed its descendants are destroyed with it, unless the processor was built with
// cascade disabled, in which case direct children lose their Parent and become roots.
type TransformProcessor struct {
	Transforms ecs.Holder[Transform]
	Parents    ecs.Holder[Parent]

	es        *ecs.EntitySystem
	log       zerolog.Logger
	nodes     *intmap.Map[ecs.EntityHandle, *node]
	scope     messenger.Scope
	cascade   bool
	cascading bool

	visited *ecs.BitVector
	stack   []ecs.EntityHandle
}

// NewTransformProcessor returns a processor. cascade controls whether destroying an entity destroys its
// descendants.
func NewTransformProcessor(cascade bool) *TransformProcessor {
	return &TransformProcessor{
		cascade: cascade,
		nodes:   intmap.New[ecs.EntityHandle, *node](64),
		visited: ecs.NewBitVector(0),
	}
}

// Init subscribes to lifecycle messages and links Parent components that already exist.
func (p *TransformProcessor) Init(es *ecs.EntitySystem) error {
	if p.nodes == nil {
		p.nodes = intmap.New[ecs.EntityHandle, *node](64)
		p.visited = ecs.NewBitVector(0)
	}
	if p.Parents.Get() == nil {
		if err := p.Parents.Init(es); err != nil {
			return err
		}
	}
	if p.Transforms.Get() == nil {
		if err := p.Transforms.Init(es); err != nil {
			return err
		}
	}
	p.es = es
	p.log = es.Logger().With().Str("processor", "transform").Logger()

	bus := es.Messenger()
	p.scope.Add(messenger.Subscribe(bus, p.onParentCreated))
	p.scope.Add(messenger.Subscribe(bus, p.onParentDestroyed))
	p.scope.Add(messenger.Subscribe(bus, p.onEntityDestroyed))

	for e, ref := range p.Parents.All() {
		p.linkOrWarn(e, ref.Get().Entity)
	}
	return nil
}

// Close drops the message subscriptions.
func (p *TransformProcessor) Close() {
	p.scope.Close()
}

// SetParent moves child under parent, adding or updating its Parent component. It fails with
// ErrHierarchyCycle if parent is child or one of its descendants.
func (p *TransformProcessor) SetParent(child, parent ecs.EntityHandle) error {
	if !p.es.HasEntity(child) {
		return eris.Wrapf(ecs.ErrEntityNotFound, "child %d", child)
	}
	if !p.es.HasEntity(parent) || p.es.IsPendingDestroy(parent) {
		return eris.Wrapf(ecs.ErrEntityNotFound, "parent %d", parent)
	}
	if err := p.checkCycle(child, parent); err != nil {
		return err
	}

	ref, err := p.Parents.Of(child)
	if err != nil {
		_, err = ecs.AddComponent(p.es, child, Parent{Entity: parent})
		return err
	}
	p.unlink(child)
	ref.Get().Entity = parent
	return p.link(child, parent)
}

// Detach removes child's Parent, making it a root.
func (p *TransformProcessor) Detach(child ecs.EntityHandle) error {
	return ecs.RemoveComponentOf[Parent](p.es, child)
}

// ParentOf returns the linked parent of e, or InvalidEntity for roots.
func (p *TransformProcessor) ParentOf(e ecs.EntityHandle) ecs.EntityHandle {
	if n, ok := p.nodes.Get(e); ok {
		return n.parent
	}
	return ecs.InvalidEntity
}

// Children returns the direct children of e in link order. The slice is owned by the processor.
func (p *TransformProcessor) Children(e ecs.EntityHandle) []ecs.EntityHandle {
	if n, ok := p.nodes.Get(e); ok {
		return n.children
	}
	return nil
}

func (p *TransformProcessor) Process(frame *ecs.UpdateFrame) {
	p.visited.Clear()
	p.stack = p.stack[:0]

	for e, ref := range p.Transforms.All() {
		if p.hasTransformParent(e) {
			continue
		}
		tr := ref.Get()
		tr.World = WorldTransform{X: tr.X, Y: tr.Y, Rotation: tr.Rotation, Scale: tr.scale()}
		p.markVisited(e)
		p.stack = append(p.stack, e)
	}

	for len(p.stack) > 0 {
		parent := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]

		pref, err := p.Transforms.Of(parent)
		if err != nil {
			continue
		}
		for _, child := range p.Children(parent) {
			if p.isVisited(child) {
				continue
			}
			cref, err := p.Transforms.Of(child)
			if err != nil {
				continue
			}
			compose(&pref.Get().World, cref.Get())
			p.markVisited(child)
			p.stack = append(p.stack, child)
		}
	}
}

func compose(parent *WorldTransform, child *Transform) {
	sin, cos := math.Sincos(float64(parent.Rotation))
	s := float64(parent.Scale)
	x, y := float64(child.X), float64(child.Y)
	child.World = WorldTransform{
		X:        parent.X + float32(s*(cos*x-sin*y)),
		Y:        parent.Y + float32(s*(sin*x+cos*y)),
		Rotation: parent.Rotation + child.Rotation,
		Scale:    parent.Scale * child.scale(),
	}
}

func (p *TransformProcessor) hasTransformParent(e ecs.EntityHandle) bool {
	parent := p.ParentOf(e)
	if parent == ecs.InvalidEntity {
		return false
	}
	_, err := p.Transforms.Of(parent)
	return err == nil
}

func (p *TransformProcessor) markVisited(e ecs.EntityHandle) {
	p.visited.Resize(int(e) + 1)
	_ = p.visited.Set(int(e))
}

func (p *TransformProcessor) isVisited(e ecs.EntityHandle) bool {
	set, err := p.visited.Test(int(e))
	return err == nil && set
}

func (p *TransformProcessor) onParentCreated(msg ecs.MsgComponentCreated[Parent]) {
	parent := msg.Component.Get().Entity
	if p.cascade && p.es.IsPendingDestroy(parent) && !p.es.IsPendingDestroy(msg.Entity) {
		if err := p.es.DestroyEntity(msg.Entity); err != nil {
			p.log.Warn().Err(err).Uint32("entity", uint32(msg.Entity)).Msg("cascade destroy failed")
		}
		return
	}
	p.linkOrWarn(msg.Entity, parent)
}

func (p *TransformProcessor) onParentDestroyed(msg ecs.MsgComponentDestroyed[Parent]) {
	p.unlink(msg.Entity)
}

func (p *TransformProcessor) onEntityDestroyed(msg ecs.MsgEntityDestroyed) {
	if p.cascading {
		return
	}
	children := slices.Clone(p.Children(msg.Entity))
	if len(children) == 0 {
		return
	}

	if !p.cascade {
		for _, child := range children {
			if err := ecs.RemoveComponentOf[Parent](p.es, child); err != nil {
				p.log.Warn().Err(err).Uint32("entity", uint32(child)).Msg("detach orphan failed")
			}
		}
		return
	}

	p.cascading = true
	defer func() { p.cascading = false }()
	stack := children
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.es.HasEntity(e) && !p.es.IsPendingDestroy(e) {
			if err := p.es.DestroyEntity(e); err != nil {
				p.log.Warn().Err(err).Uint32("entity", uint32(e)).Msg("cascade destroy failed")
			}
		}
		stack = append(stack, p.Children(e)...)
	}
}

func (p *TransformProcessor) linkOrWarn(child, parent ecs.EntityHandle) {
	if err := p.link(child, parent); err != nil {
		p.log.Warn().Err(err).
			Uint32("child", uint32(child)).
			Uint32("parent", uint32(parent)).
			Msg("parent link rejected")
	}
}

func (p *TransformProcessor) link(child, parent ecs.EntityHandle) error {
	if !p.es.HasEntity(parent) || p.es.IsPendingDestroy(parent) {
		return eris.Wrapf(ecs.ErrEntityNotFound, "parent %d", parent)
	}
	if err := p.checkCycle(child, parent); err != nil {
		return err
	}
	p.unlink(child)
	p.node(child).parent = parent
	pn := p.node(parent)
	pn.children = append(pn.children, child)
	return nil
}

func (p *TransformProcessor) unlink(child ecs.EntityHandle) {
	n, ok := p.nodes.Get(child)
	if !ok || n.parent == ecs.InvalidEntity {
		return
	}
	parent := n.parent
	n.parent = ecs.InvalidEntity
	if pn, ok := p.nodes.Get(parent); ok {
		if i := slices.Index(pn.children, child); i >= 0 {
			pn.children = slices.Delete(pn.children, i, i+1)
		}
		p.prune(parent, pn)
	}
	p.prune(child, n)
}

func (p *TransformProcessor) node(e ecs.EntityHandle) *node {
	n, ok := p.nodes.Get(e)
	if !ok {
		n = &node{}
		p.nodes.Put(e, n)
	}
	return n
}

func (p *TransformProcessor) prune(e ecs.EntityHandle, n *node) {
	if n.parent == ecs.InvalidEntity && len(n.children) == 0 {
		p.nodes.Del(e)
	}
}

// checkCycle walks up from parent looking for child.
func (p *TransformProcessor) checkCycle(child, parent ecs.EntityHandle) error {
	for cur := parent; cur != ecs.InvalidEntity; cur = p.ParentOf(cur) {
		if cur == child {
			return eris.Wrapf(ErrHierarchyCycle, "entity %d under %d", child, parent)
		}
	}
	return nil
}

// Linked returns the number of entities taking part in the hierarchy.
func (p *TransformProcessor) Linked() int {
	return p.nodes.Len()
}
