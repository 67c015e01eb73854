package ecs

import (
	"github.com/mateusmp/bitengine/messenger"
	"github.com/rs/zerolog"
)

type options struct {
	log                  zerolog.Logger
	bus                  *messenger.Messenger
	blockSize            int
	maxEntities          int
	maxComponentsPerType int
	initialEntities      int
}

func defaultOptions() options {
	return options{
		log:             zerolog.Nop(),
		blockSize:       DefaultBlockSize,
		initialEntities: 256,
	}
}

// Option configures an EntitySystem.
type Option func(*options)

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMessenger sets the messenger lifecycle messages are emitted on. By default each EntitySystem owns one.
func WithMessenger(bus *messenger.Messenger) Option {
	return func(o *options) { o.bus = bus }
}

// WithBlockSize sets the number of slots per holder block. Values below 1 keep the default.
func WithBlockSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// WithMaxEntities bounds the number of live entities. 0 means unbounded.
func WithMaxEntities(n int) Option {
	return func(o *options) { o.maxEntities = max(n, 0) }
}

// WithMaxComponentsPerType bounds the number of live components in each holder. 0 means unbounded.
func WithMaxComponentsPerType(n int) Option {
	return func(o *options) { o.maxComponentsPerType = max(n, 0) }
}

// WithInitialEntities presizes entity tables.
func WithInitialEntities(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.initialEntities = n
		}
	}
}
