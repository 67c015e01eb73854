package processor

import (
	"github.com/mateusmp/bitengine/ecs"
	"github.com/mateusmp/bitengine/messenger"
)

// LifetimeProcessor counts down Lifetime components and queues expired entities for destruction.
type LifetimeProcessor struct {
	Lifetimes ecs.Holder[Lifetime]

	expired uint64
}

func (p *LifetimeProcessor) Process(frame *ecs.UpdateFrame) {
	for e, ref := range p.Lifetimes.All() {
		if frame.Entities.IsPendingDestroy(e) {
			continue
		}
		lt := ref.Get()
		lt.Remaining -= frame.DeltaTime
		if lt.Remaining > 0 {
			continue
		}
		frame.Commands.Destroy(e)
		p.expired++
		messenger.Emit(frame.Entities.Messenger(), MsgLifetimeExpired{Entity: e})
	}
}

// Expired returns the number of entities the processor has queued for destruction so far.
func (p *LifetimeProcessor) Expired() uint64 {
	return p.expired
}
