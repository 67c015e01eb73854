package ecs

import "sort"

// EntitySystemStats is a point-in-time summary of an EntitySystem.
type EntitySystemStats struct {
	LiveEntities       int
	PendingDestroy     int
	FreeEntities       int
	EntitySlots        int
	ComponentTypeCount int
	TotalComponents    int
	SingletonCount     int
	Holders            []HolderStats
	SingletonTypes     []string
}

// HolderStats summarises one ComponentHolder.
type HolderStats struct {
	Type      ComponentType
	Name      string
	Live      int
	Capacity  int
	Blocks    int
	Free      int
	HighWater int
}

// CollectStats gathers entity and holder statistics.
func (es *EntitySystem) CollectStats() *EntitySystemStats {
	stats := &EntitySystemStats{
		LiveEntities:       es.alive,
		PendingDestroy:     len(es.toBeDestroyed),
		FreeEntities:       len(es.freeEntities),
		EntitySlots:        len(es.entities) - 1,
		ComponentTypeCount: len(es.holders),
		SingletonCount:     len(es.singletons),
		Holders:            make([]HolderStats, 0, len(es.holders)),
		SingletonTypes:     make([]string, 0, len(es.singletons)),
	}

	for _, h := range es.holders {
		stats.TotalComponents += h.Len()
		stats.Holders = append(stats.Holders, HolderStats{
			Type:      h.Type(),
			Name:      h.ReflectType().String(),
			Live:      h.Len(),
			Capacity:  h.Capacity(),
			Blocks:    h.Blocks(),
			Free:      len(h.FreeIDs()),
			HighWater: h.NumValidComponents(),
		})
	}

	for t := range es.singletons {
		stats.SingletonTypes = append(stats.SingletonTypes, t.String())
	}
	sort.Strings(stats.SingletonTypes)

	return stats
}
