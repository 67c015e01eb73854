package debugui

import (
	"github.com/mateusmp/bitengine/ecs"
)

// SpawnDebugUI creates one entity carrying every tooling window and an ImguiItem that draws them. The windows
// read scheduler statistics when scheduler is not nil. RegisterComponents must have been called on the
// registry of es.
func SpawnDebugUI(es *ecs.EntitySystem, scheduler *ecs.Scheduler) (ecs.EntityHandle, error) {
	var e ecs.EntityHandle
	render := func() { renderWindows(es, scheduler, e) }
	e, err := ecs.Spawn(es,
		NewEntityBrowser(100),
		NewComponentInspector(),
		NewHolderViewer(),
		NewPerformanceStats(120),
		NewQueryDebugger(),
		ImguiItem{Render: render},
	)
	if err != nil {
		return ecs.InvalidEntity, err
	}
	ecs.NewSingleton[ImguiInputState](es)
	return e, nil
}

func renderWindows(es *ecs.EntitySystem, scheduler *ecs.Scheduler, e ecs.EntityHandle) {
	if !es.HasEntity(e) {
		return
	}

	var selected ecs.EntityHandle
	if browser, err := ecs.GetComponent[EntityBrowser](es, e); err == nil {
		if viewer, err := ecs.GetComponent[HolderViewer](es, e); err == nil {
			if t, ok := viewer.Render(es); ok {
				browser.FilterByType(t)
			}
		}
		browser.Render(es)
		selected = browser.Selected()
	}

	if inspector, err := ecs.GetComponent[ComponentInspector](es, e); err == nil {
		inspector.Render(es, selected)
	}
	if stats, err := ecs.GetComponent[PerformanceStats](es, e); err == nil {
		stats.Render(es, scheduler)
	}
	if debugger, err := ecs.GetComponent[QueryDebugger](es, e); err == nil {
		debugger.Render(es)
	}
}
