// Package sim builds the synthetic world driven by the stress and inspect commands: moving entities with
// health, teams, lifetimes and parent links, churned every frame.
package sim

import (
	"github.com/mateusmp/bitengine/ecs"
	"github.com/mateusmp/bitengine/processor"
)

const teamCount = 4

type Velocity struct {
	DX, DY float32
}

type Health struct {
	Current float32
	Decay   float32
}

type Team struct {
	ID uint8
}

// Census is a singleton refreshed every frame by CensusProcessor.
type Census struct {
	Moving  int
	PerTeam [teamCount]int
	Healthy int
}

// RegisterComponents registers the simulation components together with the processor package ones.
func RegisterComponents(r *ecs.ComponentRegistry) {
	processor.RegisterComponents(r)
	ecs.RegisterComponent[Velocity](r)
	ecs.RegisterComponent[Health](r)
	ecs.RegisterComponent[Team](r)
}
