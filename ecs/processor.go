package ecs

// Processor is a per-frame behaviour over the entity system. Processors may declare Holder and Singleton fields;
// the Scheduler binds them on registration.
type Processor interface {
	Process(frame *UpdateFrame)
}

// Initializer is implemented by processors that need setup, such as message subscriptions, when registered.
type Initializer interface {
	Init(es *EntitySystem) error
}

// Closer is implemented by processors holding resources, such as message subscriptions, released by
// Scheduler.Close.
type Closer interface {
	Close()
}
