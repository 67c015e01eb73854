package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/mateusmp/bitengine/ecs"
)

const (
	holderColumnType = iota
	holderColumnName
	holderColumnLive
	holderColumnCapacity
	holderColumnBlocks
	holderColumnFree
)

// HolderViewer is a window component tabulating every component holder.
type HolderViewer struct {
	rows          []ecs.HolderStats
	selected      *ecs.ComponentType
	sortColumn    int
	sortAscending bool
}

func NewHolderViewer() HolderViewer {
	return HolderViewer{sortColumn: holderColumnLive}
}

// Render draws the window and reports the holder type clicked this frame.
func (hv *HolderViewer) Render(es *ecs.EntitySystem) (ecs.ComponentType, bool) {
	var clicked ecs.ComponentType
	var ok bool

	if !imgui.BeginV("Holder Viewer", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return clicked, ok
	}
	defer imgui.End()

	hv.rows = append(hv.rows[:0], es.CollectStats().Holders...)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if !imgui.BeginTableV("HolderTable", 6, tableFlags, imgui.NewVec2(0, 0), 0) {
		return clicked, ok
	}

	imgui.TableSetupColumn("Type")
	imgui.TableSetupColumn("Component")
	imgui.TableSetupColumn("Live")
	imgui.TableSetupColumn("Capacity")
	imgui.TableSetupColumn("Blocks")
	imgui.TableSetupColumn("Free")
	imgui.TableHeadersRow()

	sortSpecs := imgui.TableGetSortSpecs()
	if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
		spec := sortSpecs.Specs()
		hv.sortColumn = int(spec.ColumnIndex())
		hv.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
		sortSpecs.SetSpecsDirty(false)
	}
	sortHolders(hv.rows, hv.sortColumn, hv.sortAscending)

	maxLive := 0
	for _, row := range hv.rows {
		maxLive = max(maxLive, row.Live)
	}

	for _, row := range hv.rows {
		imgui.TableNextRow()

		imgui.TableSetColumnIndex(holderColumnType)
		isSelected := hv.selected != nil && *hv.selected == row.Type
		if imgui.SelectableBoolV(strconv.Itoa(int(row.Type)), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
			t := row.Type
			hv.selected = &t
			clicked, ok = t, true
		}

		imgui.TableSetColumnIndex(holderColumnName)
		imgui.Text(row.Name)

		imgui.TableSetColumnIndex(holderColumnLive)
		imgui.Text(strconv.Itoa(row.Live))
		if maxLive > 0 {
			width := float32(row.Live) / float32(maxLive) * 80.0
			imgui.SameLine()
			drawList := imgui.WindowDrawList()
			pos := imgui.CursorScreenPos()
			color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
			drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+width, pos.Y+10), color)
		}

		imgui.TableSetColumnIndex(holderColumnCapacity)
		imgui.Text(fmt.Sprintf("%d (%.0f%%)", row.Capacity, utilisation(row)*100))

		imgui.TableSetColumnIndex(holderColumnBlocks)
		imgui.Text(strconv.Itoa(row.Blocks))

		imgui.TableSetColumnIndex(holderColumnFree)
		imgui.Text(strconv.Itoa(row.Free))
	}

	imgui.EndTable()
	return clicked, ok
}

func utilisation(row ecs.HolderStats) float64 {
	if row.Capacity == 0 {
		return 0
	}
	return float64(row.Live) / float64(row.Capacity)
}

func sortHolders(rows []ecs.HolderStats, column int, ascending bool) {
	slices.SortStableFunc(rows, func(a, b ecs.HolderStats) int {
		var c int
		switch column {
		case holderColumnName:
			c = strings.Compare(a.Name, b.Name)
		case holderColumnLive:
			c = cmp.Compare(a.Live, b.Live)
		case holderColumnCapacity:
			c = cmp.Compare(a.Capacity, b.Capacity)
		case holderColumnBlocks:
			c = cmp.Compare(a.Blocks, b.Blocks)
		case holderColumnFree:
			c = cmp.Compare(a.Free, b.Free)
		}
		if c == 0 {
			c = cmp.Compare(a.Type, b.Type)
		}
		if !ascending {
			return -c
		}
		return c
	})
}
