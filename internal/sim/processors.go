package sim

import (
	"math/rand/v2"

	"github.com/kamstrup/intmap"
	"github.com/mateusmp/bitengine/ecs"
	"github.com/mateusmp/bitengine/processor"
	"github.com/rs/zerolog"
)

// MovementProcessor integrates Velocity into the local Transform.
type MovementProcessor struct {
	log zerolog.Logger
}

// NewMovementProcessor returns a MovementProcessor that reports query failures to log.
func NewMovementProcessor(log zerolog.Logger) *MovementProcessor {
	return &MovementProcessor{log: log}
}

func (p *MovementProcessor) Process(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	err := ecs.ForEach2(frame.Entities, func(_ ecs.EntityHandle, t ecs.ComponentRef[processor.Transform], v ecs.ComponentRef[Velocity]) {
		t.Get().X += v.Get().DX * dt
		t.Get().Y += v.Get().DY * dt
	})
	if err != nil {
		p.log.Warn().Err(err).Uint64("frame", frame.Index).Msg("movement query failed")
	}
}

// DecayProcessor drains Health and destroys entities that run out.
type DecayProcessor struct {
	Healths ecs.Holder[Health]

	died uint64
}

func (p *DecayProcessor) Process(frame *ecs.UpdateFrame) {
	for e, ref := range p.Healths.All() {
		h := ref.Get()
		if h.Current <= 0 {
			continue
		}
		h.Current -= h.Decay * float32(frame.DeltaTime)
		if h.Current <= 0 {
			frame.Commands.Destroy(e)
			p.died++
		}
	}
}

// CensusProcessor counts moving entities per team into the Census singleton.
type CensusProcessor struct {
	Census ecs.Singleton[Census]

	log zerolog.Logger
}

// NewCensusProcessor returns a CensusProcessor that reports query failures to log.
func NewCensusProcessor(log zerolog.Logger) *CensusProcessor {
	return &CensusProcessor{log: log}
}

func (p *CensusProcessor) Process(frame *ecs.UpdateFrame) {
	census := p.Census.Get()
	if census == nil {
		return
	}
	*census = Census{}

	err := ecs.ForEach3(frame.Entities, func(_ ecs.EntityHandle, _ ecs.ComponentRef[processor.Transform], _ ecs.ComponentRef[Velocity], team ecs.ComponentRef[Team]) {
		census.Moving++
		census.PerTeam[team.Get().ID%teamCount]++
	})
	if err != nil {
		p.log.Warn().Err(err).Uint64("frame", frame.Index).Msg("census query failed")
	}
	err = ecs.ForAll(frame.Entities, func(_ ecs.EntityHandle, h ecs.ComponentRef[Health]) {
		if h.Get().Current > 0 {
			census.Healthy++
		}
	})
	if err != nil {
		p.log.Warn().Err(err).Uint64("frame", frame.Index).Msg("health census failed")
	}
}

// ChurnProcessor destroys a fraction of the population every frame and spawns replacements up to Target.
type ChurnProcessor struct {
	Target int
	Rate   float64

	rng       *rand.Rand
	log       zerolog.Logger
	spawned   uint64
	destroyed uint64
}

func newChurnProcessor(target int, rate float64, seed uint64, log zerolog.Logger) *ChurnProcessor {
	return &ChurnProcessor{
		Target: target,
		Rate:   rate,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:    log,
	}
}

func (p *ChurnProcessor) Process(frame *ecs.UpdateFrame) {
	es := frame.Entities
	stats := es.CollectStats()
	slots := stats.EntitySlots

	attempts := int(float64(p.Target) * p.Rate)
	chosen := intmap.New[ecs.EntityHandle, struct{}](attempts)
	for i := 0; i < attempts && slots > 0; i++ {
		e := ecs.EntityHandle(p.rng.IntN(slots) + 1)
		if chosen.Has(e) || !es.HasEntity(e) || es.IsPendingDestroy(e) {
			continue
		}
		chosen.Put(e, struct{}{})
		frame.Commands.Destroy(e)
	}
	kills := chosen.Len()
	p.destroyed += uint64(kills)

	missing := p.Target - (stats.LiveEntities - stats.PendingDestroy) + kills
	for i := 0; i < missing; i++ {
		frame.Commands.Spawn(p.components(es, slots)...)
	}
	if missing > 0 {
		p.spawned += uint64(missing)
		p.log.Trace().Uint64("frame", frame.Index).Int("spawned", missing).Int("destroyed", kills).Msg("churn")
	}
}

// components rolls a random component set. Roughly a quarter of the entities are parented to a live root.
func (p *ChurnProcessor) components(es *ecs.EntitySystem, slots int) []any {
	comps := []any{processor.Transform{
		X:        p.rng.Float32() * 1000,
		Y:        p.rng.Float32() * 1000,
		Rotation: p.rng.Float32(),
		Scale:    1,
	}}
	if p.rng.Float64() < 0.7 {
		comps = append(comps, Velocity{DX: p.rng.Float32()*20 - 10, DY: p.rng.Float32()*20 - 10})
	}
	if p.rng.Float64() < 0.5 {
		comps = append(comps, Health{Current: 50 + p.rng.Float32()*50, Decay: p.rng.Float32() * 20})
	}
	if p.rng.Float64() < 0.3 {
		comps = append(comps, Team{ID: uint8(p.rng.IntN(teamCount))})
	}
	if p.rng.Float64() < 0.2 {
		comps = append(comps, processor.Lifetime{Remaining: 0.5 + p.rng.Float64()*2.5})
	}
	if slots > 0 && p.rng.Float64() < 0.25 {
		if root := p.root(es, slots); root != ecs.InvalidEntity {
			comps = append(comps, processor.Parent{Entity: root})
		}
	}
	return comps
}

func (p *ChurnProcessor) root(es *ecs.EntitySystem, slots int) ecs.EntityHandle {
	transformType, _ := ecs.ComponentTypeOf[processor.Transform](es.Registry())
	parentType, _ := ecs.ComponentTypeOf[processor.Parent](es.Registry())

	e := ecs.EntityHandle(p.rng.IntN(slots) + 1)
	if !es.HasEntity(e) || es.IsPendingDestroy(e) || !es.HasComponent(e, transformType) || es.HasComponent(e, parentType) {
		return ecs.InvalidEntity
	}
	return e
}
