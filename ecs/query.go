package ecs

import "iter"

type match struct {
	entity EntityHandle
	handle ComponentHandle
}

// scan visits every component of the base holder whose entity has all types in required.
//
// Candidates are walked in ascending handle order over [1, NumValidComponents], using the holder's sorted
// free-list as a skip-list, and collected into a scratch buffer before any visit. Each candidate is checked
// again right before it is visited, so components removed by an earlier visit are skipped and components
// created during the scan are not visited. Scratch buffers are kept per nesting depth and reused.
func (es *EntitySystem) scan(base BaseComponentHolder, required Mask, visit func(match) bool) {
	depth := es.depth
	if depth == len(es.scratch) {
		es.scratch = append(es.scratch, nil)
	}
	es.depth++
	buf := collectMatches(es.bits, base, required, es.scratch[depth][:0])
	defer func() {
		es.scratch[depth] = buf[:0]
		es.depth--
	}()

	for _, m := range buf {
		if base.ComponentForEntity(m.entity) != m.handle || !es.bits.Matches(int(m.entity), required) || !es.owns(m.entity, required) {
			continue
		}
		if !visit(m) {
			return
		}
	}
}

// owns reports whether e has a live component of every type in required.
func (es *EntitySystem) owns(e EntityHandle, required Mask) bool {
	ok := true
	required.ForEach(func(t ComponentType) {
		if ok && (int(t) >= len(es.holders) || es.holders[t].ComponentForEntity(e) == InvalidComponent) {
			ok = false
		}
	})
	return ok
}

func collectMatches(bits *ObjBitField, base BaseComponentHolder, required Mask, buf []match) []match {
	n := base.NumValidComponents()
	free := base.FreeIDs()
	next := 0
	for c := 1; c <= n; c++ {
		if next < len(free) && int(free[next]) == c {
			next++
			continue
		}
		e := base.EntityForComponent(ComponentHandle(c))
		if bits.Matches(int(e), required) {
			buf = append(buf, match{entity: e, handle: ComponentHandle(c)})
		}
	}
	return buf
}

// ForEachMask visits every entity owning a component of type base and every type in required, in base handle
// order. fn returns false to stop early.
func (es *EntitySystem) ForEachMask(base ComponentType, required Mask, fn func(EntityHandle, ComponentHandle) bool) error {
	h, err := es.Holder(base)
	if err != nil {
		return err
	}
	required.Set(base)
	es.scan(h, required, func(m match) bool {
		return fn(m.entity, m.handle)
	})
	return nil
}

// All iterates over every live component in handle order.
func (h *ComponentHolder[T]) All() iter.Seq2[EntityHandle, ComponentRef[T]] {
	return func(yield func(EntityHandle, ComponentRef[T]) bool) {
		h.es.scan(h, MaskOf(h.typ), func(m match) bool {
			return yield(m.entity, h.ref(m.handle))
		})
	}
}

// ForAll visits every A in handle order.
func ForAll[A any](es *EntitySystem, fn func(EntityHandle, ComponentRef[A])) error {
	ha, err := GetHolder[A](es)
	if err != nil {
		return err
	}
	es.scan(ha, MaskOf(ha.typ), func(m match) bool {
		fn(m.entity, ha.ref(m.handle))
		return true
	})
	return nil
}

// ForEach2 visits every entity owning both an A and a B, in A handle order.
func ForEach2[A, B any](es *EntitySystem, fn func(EntityHandle, ComponentRef[A], ComponentRef[B])) error {
	ha, err := GetHolder[A](es)
	if err != nil {
		return err
	}
	hb, err := GetHolder[B](es)
	if err != nil {
		return err
	}
	es.scan(ha, MaskOf(ha.typ, hb.typ), func(m match) bool {
		fn(m.entity, ha.ref(m.handle), hb.ref(hb.byEntity[m.entity]))
		return true
	})
	return nil
}

// ForEach3 visits every entity owning an A, a B and a C, in A handle order.
func ForEach3[A, B, C any](es *EntitySystem, fn func(EntityHandle, ComponentRef[A], ComponentRef[B], ComponentRef[C])) error {
	ha, err := GetHolder[A](es)
	if err != nil {
		return err
	}
	hb, err := GetHolder[B](es)
	if err != nil {
		return err
	}
	hc, err := GetHolder[C](es)
	if err != nil {
		return err
	}
	es.scan(ha, MaskOf(ha.typ, hb.typ, hc.typ), func(m match) bool {
		fn(m.entity, ha.ref(m.handle), hb.ref(hb.byEntity[m.entity]), hc.ref(hc.byEntity[m.entity]))
		return true
	})
	return nil
}

// ForEach4 visits every entity owning an A, a B, a C and a D, in A handle order.
func ForEach4[A, B, C, D any](es *EntitySystem, fn func(EntityHandle, ComponentRef[A], ComponentRef[B], ComponentRef[C], ComponentRef[D])) error {
	ha, err := GetHolder[A](es)
	if err != nil {
		return err
	}
	hb, err := GetHolder[B](es)
	if err != nil {
		return err
	}
	hc, err := GetHolder[C](es)
	if err != nil {
		return err
	}
	hd, err := GetHolder[D](es)
	if err != nil {
		return err
	}
	es.scan(ha, MaskOf(ha.typ, hb.typ, hc.typ, hd.typ), func(m match) bool {
		fn(m.entity, ha.ref(m.handle), hb.ref(hb.byEntity[m.entity]), hc.ref(hc.byEntity[m.entity]), hd.ref(hd.byEntity[m.entity]))
		return true
	})
	return nil
}
