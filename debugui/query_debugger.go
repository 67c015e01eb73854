package debugui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/mateusmp/bitengine/ecs"
	"github.com/rotisserie/eris"
)

const queryPreviewLimit = 50

// QueryDebugger is a window component that runs an ad hoc mask query over the entity system.
type QueryDebugger struct {
	required ecs.Mask
}

func NewQueryDebugger() QueryDebugger {
	return QueryDebugger{}
}

// QueryResult describes one run of a mask query.
type QueryResult struct {
	Base    ecs.ComponentType
	Matches []ecs.EntityHandle
}

func (qd *QueryDebugger) Render(es *ecs.EntitySystem) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	registry := es.Registry()
	imgui.Text("Required component types:")
	imgui.Separator()
	if imgui.Button("Clear All") {
		qd.required = ecs.Mask{}
	}

	for i := 0; i < registry.Len(); i++ {
		t := ecs.ComponentType(i)
		selected := qd.required.Has(t)
		if imgui.Checkbox(registry.TypeOf(t).String(), &selected) {
			if selected {
				qd.required.Set(t)
			} else {
				qd.required.Unset(t)
			}
		}
	}
	imgui.Separator()

	if qd.required.IsZero() {
		imgui.Text("No component types selected")
		return
	}

	result, err := runQuery(es, qd.required)
	if err != nil {
		imgui.TextColored(imgui.NewVec4(1.0, 0.3, 0.3, 1.0), err.Error())
		return
	}

	imgui.Text(fmt.Sprintf("Iterating holder: %s", registry.TypeOf(result.Base)))
	imgui.Text(fmt.Sprintf("Matching entities: %d", len(result.Matches)))

	if imgui.TreeNodeStr("Matches") {
		preview := result.Matches[:min(len(result.Matches), queryPreviewLimit)]
		ids := make([]string, len(preview))
		for i, e := range preview {
			ids[i] = strconv.FormatUint(uint64(e), 10)
		}
		imgui.Text(strings.Join(ids, ", "))
		if len(result.Matches) > len(preview) {
			imgui.Text(fmt.Sprintf("... and %d more", len(result.Matches)-len(preview)))
		}
		imgui.TreePop()
	}
}

// runQuery iterates the smallest holder among the required types and collects every matching entity.
func runQuery(es *ecs.EntitySystem, required ecs.Mask) (QueryResult, error) {
	var result QueryResult
	smallest := -1
	required.ForEach(func(t ecs.ComponentType) {
		h, err := es.Holder(t)
		if err != nil {
			return
		}
		if smallest < 0 || h.Len() < smallest {
			smallest = h.Len()
			result.Base = t
		}
	})
	if smallest < 0 {
		return result, eris.Wrap(ecs.ErrUnregisteredComponent, "no registered type in query")
	}

	err := es.ForEachMask(result.Base, required, func(e ecs.EntityHandle, _ ecs.ComponentHandle) bool {
		result.Matches = append(result.Matches, e)
		return true
	})
	return result, err
}
