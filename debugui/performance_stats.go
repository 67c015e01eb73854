package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/AllenDang/cimgui-go/implot"
	"github.com/mateusmp/bitengine/ecs"
)

const (
	processorColumnName = iota
	processorColumnAvg
	processorColumnMin
	processorColumnMax
	processorColumnLast
)

// PerformanceStats is a window component plotting frame times and processor latencies.
type PerformanceStats struct {
	history   *frameHistory
	latencies map[string]*frameHistory
	last      time.Time
}

// frameHistory is a fixed-size ring of samples in milliseconds.
type frameHistory struct {
	samples []float32
	next    int
	filled  int
}

func newFrameHistory(n int) *frameHistory {
	return &frameHistory{samples: make([]float32, n)}
}

func (h *frameHistory) push(v float32) {
	h.samples[h.next] = v
	h.next = (h.next + 1) % len(h.samples)
	h.filled = min(h.filled+1, len(h.samples))
}

// ordered returns the samples oldest first.
func (h *frameHistory) ordered() []float32 {
	out := make([]float32, 0, len(h.samples))
	out = append(out, h.samples[h.next:]...)
	return append(out, h.samples[:h.next]...)
}

func (h *frameHistory) mean() float32 {
	if h.filled == 0 {
		return 0
	}
	var sum float32
	for _, v := range h.samples {
		sum += v
	}
	return sum / float32(h.filled)
}

func NewPerformanceStats(historyFrames int) PerformanceStats {
	if historyFrames <= 0 {
		historyFrames = 120
	}
	return PerformanceStats{
		history:   newFrameHistory(historyFrames),
		latencies: make(map[string]*frameHistory),
	}
}

func (ps *PerformanceStats) sample(now time.Time, scheduler *ecs.Scheduler) *ecs.SchedulerStats {
	if !ps.last.IsZero() {
		ps.history.push(float32(now.Sub(ps.last).Seconds() * 1000.0))
	}
	ps.last = now

	if scheduler == nil {
		return nil
	}
	stats := scheduler.GetStats()
	for _, p := range stats.Processors {
		h, ok := ps.latencies[p.Name]
		if !ok {
			h = newFrameHistory(len(ps.history.samples))
			ps.latencies[p.Name] = h
		}
		h.push(float32(p.LastDuration.Microseconds()) / 1000.0)
	}
	return stats
}

func (ps *PerformanceStats) Render(es *ecs.EntitySystem, scheduler *ecs.Scheduler) {
	schedulerStats := ps.sample(time.Now(), scheduler)

	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	stats := es.CollectStats()
	imgui.Text(fmt.Sprintf("Live Entities: %d (%d destroying, %d free slots)", stats.LiveEntities, stats.PendingDestroy, stats.FreeEntities))
	imgui.Text(fmt.Sprintf("Components: %d across %d types", stats.TotalComponents, stats.ComponentTypeCount))
	imgui.Text(fmt.Sprintf("Singletons: %d", stats.SingletonCount))

	avg := ps.history.mean()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000.0/avg))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	samples := ps.history.ordered()
	imgui.PlotLinesFloatPtr("##frametime", &samples[0], int32(len(samples)))

	if schedulerStats != nil && imgui.TreeNodeStr("Processors") {
		renderProcessorTable(schedulerStats)
		ps.renderLatencyPlot()
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Singleton Details") {
		for _, name := range stats.SingletonTypes {
			imgui.BulletText(name)
		}
		imgui.TreePop()
	}
}

func renderProcessorTable(stats *ecs.SchedulerStats) {
	imgui.Text(fmt.Sprintf("Processors: %d, frames: %d", stats.ProcessorCount, stats.Frames))

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsSizingFixedFit
	if !imgui.BeginTableV("Processors", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		return
	}
	imgui.TableSetupColumn("Name")
	imgui.TableSetupColumn("Avg (ms)")
	imgui.TableSetupColumn("Min (ms)")
	imgui.TableSetupColumn("Max (ms)")
	imgui.TableSetupColumn("Last (ms)")
	imgui.TableHeadersRow()

	rows := stats.Processors
	if sortSpecs := imgui.TableGetSortSpecs(); sortSpecs.SpecsCount() > 0 {
		spec := sortSpecs.Specs()
		sortProcessors(rows, int(spec.ColumnIndex()), spec.SortDirection() != imgui.SortDirectionDescending)
	}

	for _, p := range rows {
		imgui.TableNextRow()
		imgui.TableNextColumn()
		imgui.Text(p.Name)
		imgui.TableNextColumn()
		imgui.Text(millis(p.AvgDuration))
		imgui.TableNextColumn()
		if p.ExecutionCount > 0 {
			imgui.Text(millis(p.MinDuration))
		} else {
			imgui.Text("-")
		}
		imgui.TableNextColumn()
		imgui.Text(millis(p.MaxDuration))
		imgui.TableNextColumn()
		imgui.Text(millis(p.LastDuration))
	}
	imgui.EndTable()
}

func (ps *PerformanceStats) renderLatencyPlot() {
	if len(ps.latencies) == 0 {
		return
	}
	names := make([]string, 0, len(ps.latencies))
	for name := range ps.latencies {
		names = append(names, name)
	}
	slices.Sort(names)

	if implot.BeginPlotV("Processor Latency", imgui.NewVec2(-1, 250), 0) {
		implot.SetupAxesV("Frame", "Time (ms)", 0, implot.AxisFlagsAutoFit)
		for _, name := range names {
			samples := ps.latencies[name].ordered()
			implot.PlotLineFloatPtrInt(name, &samples[0], int32(len(samples)))
		}
		implot.EndPlot()
	}
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d.Microseconds())/1000.0)
}

func sortProcessors(rows []ecs.ProcessorStats, column int, ascending bool) {
	slices.SortStableFunc(rows, func(a, b ecs.ProcessorStats) int {
		var c int
		switch column {
		case processorColumnAvg:
			c = cmp.Compare(a.AvgDuration, b.AvgDuration)
		case processorColumnMin:
			c = cmp.Compare(a.MinDuration, b.MinDuration)
		case processorColumnMax:
			c = cmp.Compare(a.MaxDuration, b.MaxDuration)
		case processorColumnLast:
			c = cmp.Compare(a.LastDuration, b.LastDuration)
		}
		if c == 0 {
			c = strings.Compare(a.Name, b.Name)
		}
		if !ascending {
			return -c
		}
		return c
	})
}
