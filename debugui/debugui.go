// Package debugui renders Dear ImGui tooling for an EntitySystem. Render functions live in ImguiItem
// components and are queued by ImguiProcessor, so they run after every other processor of the frame.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/mateusmp/bitengine/ecs"
)

// ImguiItem is a component holding a Dear ImGui render function.
type ImguiItem struct {
	Render func()
}

// ImguiInputState is a singleton mirroring whether ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiProcessor refreshes ImguiInputState and defers every ImguiItem render to the end of the frame.
type ImguiProcessor struct {
	Items      ecs.Holder[ImguiItem]
	InputState ecs.Singleton[ImguiInputState]
}

func (p *ImguiProcessor) Process(frame *ecs.UpdateFrame) {
	if state := p.InputState.Get(); state != nil {
		io := imgui.CurrentIO()
		state.WantCaptureMouse = io.WantCaptureMouse()
		state.WantCaptureKeyboard = io.WantCaptureKeyboard()
	}

	for e, item := range p.Items.All() {
		if frame.Entities.IsPendingDestroy(e) || item.Get().Render == nil {
			continue
		}
		frame.Commands.Defer(item.Get().Render)
	}
}

// RegisterComponents registers the ImguiItem component and the tooling window components.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[EntityBrowser](registry)
	ecs.RegisterComponent[ComponentInspector](registry)
	ecs.RegisterComponent[HolderViewer](registry)
	ecs.RegisterComponent[PerformanceStats](registry)
	ecs.RegisterComponent[QueryDebugger](registry)
}
