package sim

import (
	"github.com/mateusmp/bitengine/config"
	"github.com/mateusmp/bitengine/ecs"
	"github.com/mateusmp/bitengine/messenger"
	"github.com/mateusmp/bitengine/processor"
	"github.com/rs/zerolog"
)

// Options shape the synthetic population.
type Options struct {
	Entities  int
	ChurnRate float64
	Seed      uint64
}

// World bundles an entity system with the scheduler and processors running the simulation.
type World struct {
	ES         *ecs.EntitySystem
	Scheduler  *ecs.Scheduler
	Transforms *processor.TransformProcessor
	Lifetimes  *processor.LifetimeProcessor

	decay *DecayProcessor
	churn *ChurnProcessor
	scope messenger.Scope

	expiredMessages uint64
}

// Summary is a snapshot of the simulation counters.
type Summary struct {
	Frames     uint64 `json:"frames"`
	Live       int    `json:"live"`
	Spawned    uint64 `json:"spawned"`
	Destroyed  uint64 `json:"destroyed"`
	Died       uint64 `json:"died"`
	Expired    uint64 `json:"expired"`
	Linked     int    `json:"linked"`
	Moving     int    `json:"moving"`
	Healthy    int    `json:"healthy"`
	PerTeam    []int  `json:"per_team"`
	Components int    `json:"components"`
}

// NewWorld builds the registry, entity system and scheduler from cfg, registers extra component types via
// register and spawns the initial population. Extra processors can be registered on World.Scheduler afterwards.
func NewWorld(cfg config.Config, log zerolog.Logger, opts Options, register ...func(*ecs.ComponentRegistry)) (*World, error) {
	registry := ecs.NewComponentRegistry()
	RegisterComponents(registry)
	for _, fn := range register {
		fn(registry)
	}

	esOpts := append(cfg.EntitySystemOptions(), ecs.WithLogger(log))
	es := ecs.NewEntitySystem(registry, esOpts...)
	ecs.NewSingleton[Census](es)

	w := &World{
		ES:         es,
		Scheduler:  ecs.NewScheduler(es),
		Transforms: processor.NewTransformProcessor(true),
		Lifetimes:  &processor.LifetimeProcessor{},
		decay:      &DecayProcessor{},
		churn:      newChurnProcessor(opts.Entities, opts.ChurnRate, opts.Seed, log.With().Str("component", "churn").Logger()),
	}
	w.scope.Add(messenger.Subscribe(es.Messenger(), func(processor.MsgLifetimeExpired) {
		w.expiredMessages++
	}))

	for _, p := range []ecs.Processor{
		w.churn,
		NewMovementProcessor(log.With().Str("component", "movement").Logger()),
		w.decay,
		w.Lifetimes,
		w.Transforms,
		NewCensusProcessor(log.With().Str("component", "census").Logger()),
	} {
		if err := w.Scheduler.Register(p); err != nil {
			w.Close()
			return nil, err
		}
	}

	for i := 0; i < opts.Entities; i++ {
		slots := es.CollectStats().EntitySlots
		if _, err := ecs.Spawn(es, w.churn.components(es, slots)...); err != nil {
			w.Close()
			return nil, err
		}
	}
	log.Info().Int("entities", es.Len()).Int("linked", w.Transforms.Linked()).Msg("world populated")
	return w, nil
}

// Step runs one frame.
func (w *World) Step(dt float64) {
	w.Scheduler.Once(dt)
}

// Summary collects the simulation counters.
func (w *World) Summary() Summary {
	census := ecs.NewSingleton[Census](w.ES).Get()
	stats := w.ES.CollectStats()
	return Summary{
		Frames:     w.Scheduler.GetStats().Frames,
		Live:       w.ES.Len(),
		Spawned:    w.churn.spawned,
		Destroyed:  w.churn.destroyed,
		Died:       w.decay.died,
		Expired:    w.expiredMessages,
		Linked:     w.Transforms.Linked(),
		Moving:     census.Moving,
		Healthy:    census.Healthy,
		PerTeam:    append([]int(nil), census.PerTeam[:]...),
		Components: stats.TotalComponents,
	}
}

// Close releases processor subscriptions.
func (w *World) Close() {
	w.scope.Close()
	w.Scheduler.Close()
}
