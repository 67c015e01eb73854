package ecs

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	ProcessorCount  int
	Frames          uint64
	TotalExecutions int64
	Processors      []ProcessorStats
}

// ProcessorStats provides execution statistics for a single processor.
type ProcessorStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type processorStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// Scheduler runs processors in registration order once per frame, then flushes deferred commands and lets the
// entity system sweep destroyed entities.
type Scheduler struct {
	es         *EntitySystem
	processors []Processor
	stats      []*processorStatsInternal
	commands   *Commands
	frames     uint64
	log        zerolog.Logger
}

// NewScheduler creates a scheduler driving es.
func NewScheduler(es *EntitySystem) *Scheduler {
	return &Scheduler{
		es:         es,
		processors: make([]Processor, 0),
		commands:   newCommands(),
		log:        es.Logger().With().Str("component", "scheduler").Logger(),
	}
}

// Register binds the processor's Holder and Singleton fields, runs its Init if it has one and appends it to the
// frame.
func (s *Scheduler) Register(p Processor) error {
	if err := s.initializeFields(p); err != nil {
		return err
	}
	if init, ok := p.(Initializer); ok {
		if err := init.Init(s.es); err != nil {
			return eris.Wrapf(err, "failed to initialize processor %s", processorName(p))
		}
	}

	s.processors = append(s.processors, p)
	s.stats = append(s.stats, &processorStatsInternal{
		name:        processorName(p),
		minDuration: time.Duration(1<<63 - 1),
	})
	s.log.Debug().Str("processor", processorName(p)).Msg("registered")
	return nil
}

func processorName(p Processor) string {
	t := reflect.TypeOf(p)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

var ecsPkgPath = reflect.TypeFor[Commands]().PkgPath()

func (s *Scheduler) initializeFields(p Processor) error {
	v := reflect.ValueOf(p)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct || field.Type().PkgPath() != ecsPkgPath {
			continue
		}

		typeName := field.Type().Name()
		if !strings.HasPrefix(typeName, "Holder[") && !strings.HasPrefix(typeName, "Singleton[") {
			continue
		}

		initMethod := field.Addr().MethodByName("Init")
		if !initMethod.IsValid() {
			panic("Init method not found on field: " + t.Field(i).Name)
		}
		out := initMethod.Call([]reflect.Value{reflect.ValueOf(s.es)})
		if len(out) == 1 && !out[0].IsNil() {
			return eris.Wrapf(out[0].Interface().(error), "field %s of %s", t.Field(i).Name, t.Name())
		}
	}
	return nil
}

// Commands returns the buffer flushed at the end of every frame.
func (s *Scheduler) Commands() *Commands {
	return s.commands
}

// Once runs every processor with the given delta time, flushes queued commands and finishes the frame.
func (s *Scheduler) Once(dt float64) {
	s.frames++
	frame := newUpdateFrame(s.frames, dt, s.commands, s.es)

	for i, p := range s.processors {
		start := time.Now()
		p.Process(frame)
		duration := time.Since(start)

		stats := s.stats[i]
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}
	}

	if err := s.commands.Flush(s.es); err != nil {
		s.log.Debug().Err(err).Uint64("frame", s.frames).Msg("commands flushed with errors")
	}
	s.es.FrameFinished()
}

// Run executes frames at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// Close releases processors implementing Closer, in reverse registration order.
func (s *Scheduler) Close() {
	for i := len(s.processors) - 1; i >= 0; i-- {
		if c, ok := s.processors[i].(Closer); ok {
			c.Close()
		}
	}
}

// GetStats returns statistics about processor execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		ProcessorCount: len(s.processors),
		Frames:         s.frames,
		Processors:     make([]ProcessorStats, len(s.stats)),
	}

	var totalExecs int64
	for i, internal := range s.stats {
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Processors[i] = ProcessorStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
