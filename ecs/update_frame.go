package ecs

// UpdateFrame is handed to every processor during Scheduler.Once.
type UpdateFrame struct {
	Index     uint64
	DeltaTime float64
	Commands  *Commands
	Entities  *EntitySystem
}

func newUpdateFrame(index uint64, dt float64, commands *Commands, es *EntitySystem) *UpdateFrame {
	return &UpdateFrame{
		Index:     index,
		DeltaTime: dt,
		Commands:  commands,
		Entities:  es,
	}
}
