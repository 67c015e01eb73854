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

// EntityInfo is one row of the entity browser.
type EntityInfo struct {
	Entity         ecs.EntityHandle
	Mask           ecs.Mask
	ComponentTypes []string
	Pending        bool
}

const (
	browserColumnEntity = iota
	browserColumnComponents
	browserColumnCount
	browserColumnState
)

// EntityBrowser is a window component listing live entities with their component types.
type EntityBrowser struct {
	cache       *entityBrowserCache
	selected    ecs.EntityHandle
	filterText  string
	filterType  *ecs.ComponentType
	perPage     int
	currentPage int
}

type entityBrowserCache struct {
	entities      []EntityInfo
	signature     worldSignature
	sortColumn    int
	sortAscending bool
}

// worldSignature changes whenever entities or components are created or destroyed.
type worldSignature struct {
	entities   int
	pending    int
	components int
}

func signatureOf(es *ecs.EntitySystem) worldSignature {
	sig := worldSignature{entities: es.Len()}
	for _, h := range es.Holders() {
		sig.components += h.Len()
	}
	for e := range es.Entities() {
		if es.IsPendingDestroy(e) {
			sig.pending++
		}
	}
	return sig
}

func NewEntityBrowser(perPage int) EntityBrowser {
	if perPage <= 0 {
		perPage = 100
	}
	return EntityBrowser{
		cache:   &entityBrowserCache{sortAscending: true, signature: worldSignature{entities: -1}},
		perPage: perPage,
	}
}

// Selected returns the entity picked in the table, or InvalidEntity.
func (eb *EntityBrowser) Selected() ecs.EntityHandle {
	return eb.selected
}

// FilterByType restricts the listing to entities owning t.
func (eb *EntityBrowser) FilterByType(t ecs.ComponentType) {
	eb.filterType = &t
	eb.currentPage = 0
}

func (eb *EntityBrowser) Render(es *ecs.EntitySystem) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.refresh(es)
	if eb.selected != ecs.InvalidEntity && !es.HasEntity(eb.selected) {
		eb.selected = ecs.InvalidEntity
	}

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
		eb.filterType = nil
	}
	if eb.filterType != nil {
		imgui.Text(fmt.Sprintf("Owning: %s", es.Registry().TypeOf(*eb.filterType)))
	}

	filtered := filterEntities(eb.cache.entities, eb.filterText, eb.filterType)
	pages := (len(filtered) + eb.perPage - 1) / eb.perPage
	if eb.currentPage >= pages {
		eb.currentPage = max(pages-1, 0)
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableSetupColumn("State")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.cache.sortColumn = int(spec.ColumnIndex())
			eb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortEntities(eb.cache.entities, eb.cache.sortColumn, eb.cache.sortAscending)
			filtered = filterEntities(eb.cache.entities, eb.filterText, eb.filterType)
			sortSpecs.SetSpecsDirty(false)
		}

		start := eb.currentPage * eb.perPage
		end := min(start+eb.perPage, len(filtered))
		for _, info := range filtered[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			label := strconv.FormatUint(uint64(info.Entity), 10)
			if imgui.SelectableBoolV(label, eb.selected == info.Entity, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selected = info.Entity
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(info.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(strconv.Itoa(len(info.ComponentTypes)))

			imgui.TableNextColumn()
			if info.Pending {
				imgui.TextColored(imgui.NewVec4(1.0, 0.6, 0.2, 1.0), "destroying")
			} else {
				imgui.Text("live")
			}
		}

		imgui.EndTable()
	}

	if pages > 1 {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, pages, len(filtered)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < pages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filtered)))
	}

	imgui.End()
}

func (eb *EntityBrowser) refresh(es *ecs.EntitySystem) {
	sig := signatureOf(es)
	if eb.cache.entities != nil && sig == eb.cache.signature {
		return
	}
	eb.cache.signature = sig
	eb.cache.entities = collectEntities(es, eb.cache.entities[:0])
	sortEntities(eb.cache.entities, eb.cache.sortColumn, eb.cache.sortAscending)
}

// collectEntities appends one EntityInfo per live entity to buf, in handle order.
func collectEntities(es *ecs.EntitySystem, buf []EntityInfo) []EntityInfo {
	registry := es.Registry()
	for e := range es.Entities() {
		types := es.ComponentTypes(e)
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = registry.TypeOf(t).String()
		}
		buf = append(buf, EntityInfo{
			Entity:         e,
			Mask:           es.Mask(e),
			ComponentTypes: names,
			Pending:        es.IsPendingDestroy(e),
		})
	}
	return buf
}

func sortEntities(entities []EntityInfo, column int, ascending bool) {
	slices.SortStableFunc(entities, func(a, b EntityInfo) int {
		var c int
		switch column {
		case browserColumnComponents:
			c = strings.Compare(strings.Join(a.ComponentTypes, ","), strings.Join(b.ComponentTypes, ","))
		case browserColumnCount:
			c = cmp.Compare(len(a.ComponentTypes), len(b.ComponentTypes))
		case browserColumnState:
			c = cmp.Compare(btoi(a.Pending), btoi(b.Pending))
		}
		if c == 0 {
			c = cmp.Compare(a.Entity, b.Entity)
		}
		if !ascending {
			return -c
		}
		return c
	})
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// filterEntities keeps rows whose handle or component names contain text (case-insensitive) and, when
// owning is set, whose mask has that type. The input slice is returned as is when no filter applies.
func filterEntities(entities []EntityInfo, text string, owning *ecs.ComponentType) []EntityInfo {
	if text == "" && owning == nil {
		return entities
	}

	needle := strings.ToLower(text)
	filtered := make([]EntityInfo, 0, len(entities))
	for _, info := range entities {
		if owning != nil && !info.Mask.Has(*owning) {
			continue
		}
		if needle != "" {
			id := strconv.FormatUint(uint64(info.Entity), 10)
			names := strings.ToLower(strings.Join(info.ComponentTypes, " "))
			if !strings.Contains(id, needle) && !strings.Contains(names, needle) {
				continue
			}
		}
		filtered = append(filtered, info)
	}
	return filtered
}
