package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/goccy/go-json"
	"github.com/mateusmp/bitengine/config"
	"github.com/mateusmp/bitengine/ecs"
	"github.com/mateusmp/bitengine/internal/sim"
)

type Report struct {
	// Configuration
	Duration  time.Duration `json:"duration"`
	Entities  int           `json:"entities"`
	ChurnRate float64       `json:"churn_rate"`
	Config    config.Config `json:"config"`

	// Results
	TotalTime      time.Duration          `json:"total_time"`
	UpdateTime     Stats                  `json:"update_time"`
	Summary        sim.Summary            `json:"summary"`
	Processors     []ecs.ProcessorStats   `json:"processors"`
	EntitySystem   *ecs.EntitySystemStats `json:"entity_system"`
	GCPauseMetrics bool                   `json:"-"`
	MemStatsStart  runtime.MemStats       `json:"-"`
	MemStatsEnd    runtime.MemStats       `json:"-"`
}

type Stats struct {
	Min     time.Duration   `json:"min"`
	Max     time.Duration   `json:"max"`
	Avg     time.Duration   `json:"avg"`
	Samples []time.Duration `json:"-"`
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

type memoryReport struct {
	HeapAllocDelta  int64  `json:"heap_alloc_delta"`
	TotalAllocDelta int64  `json:"total_alloc_delta"`
	NumGC           uint32 `json:"num_gc"`
	PauseTotal      string `json:"pause_total,omitempty"`
}

func (r *Report) memory() memoryReport {
	m := memoryReport{
		HeapAllocDelta:  int64(r.MemStatsEnd.HeapAlloc) - int64(r.MemStatsStart.HeapAlloc),
		TotalAllocDelta: int64(r.MemStatsEnd.TotalAlloc) - int64(r.MemStatsStart.TotalAlloc),
		NumGC:           r.MemStatsEnd.NumGC - r.MemStatsStart.NumGC,
	}
	if r.GCPauseMetrics {
		m.PauseTotal = time.Duration(r.MemStatsEnd.PauseTotalNs - r.MemStatsStart.PauseTotalNs).String()
	}
	return m
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	out := struct {
		*Report
		Memory memoryReport `json:"memory"`
	}{r, r.memory()}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Entity System Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Population:** {{.Entities}} (churn {{.ChurnRate}} per frame)
- **Block Size:** {{.Config.BlockSize}}

## Performance Results
- **Total Frames:** {{.Summary.Frames}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}

## Processors
{{range .Processors}}- {{.Name}}: avg {{.AvgDuration}}, max {{.MaxDuration}}, runs {{.ExecutionCount}}
{{end}}
## World
- Live entities: {{.Summary.Live}} ({{.Summary.Linked}} in hierarchy, {{.Summary.Moving}} moving with a team)
- Spawned: {{.Summary.Spawned}}, churned: {{.Summary.Destroyed}}, died: {{.Summary.Died}}, expired: {{.Summary.Expired}}
- Components: {{.EntitySystem.TotalComponents}} across {{.EntitySystem.ComponentTypeCount}} holders
{{range .EntitySystem.Holders}}  - {{.Name}}: {{.Live}} live / {{.Capacity}} slots in {{.Blocks}} blocks, {{.Free}} free
{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{bsub .MemStatsEnd.PauseTotalNs .MemStatsStart.PauseTotalNs | ns}}
{{end}}`

	fm := template.FuncMap{
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns int64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
