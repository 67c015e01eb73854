package debugui

import (
	"reflect"
	"testing"

	"github.com/mateusmp/bitengine/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct {
	X, Y float32
}

type label struct {
	Text   string
	Hidden bool
	parent *position
	Owner  *position
}

type marker struct{}

func newTestSystem(t *testing.T) *ecs.EntitySystem {
	t.Helper()
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[position](registry)
	ecs.RegisterComponent[label](registry)
	ecs.RegisterComponent[marker](registry)
	RegisterComponents(registry)
	return ecs.NewEntitySystem(registry)
}

func spawn(t *testing.T, es *ecs.EntitySystem, components ...any) ecs.EntityHandle {
	t.Helper()
	e, err := ecs.Spawn(es, components...)
	require.NoError(t, err)
	return e
}

func TestCollectEntities(t *testing.T) {
	es := newTestSystem(t)
	a := spawn(t, es, position{X: 1})
	b := spawn(t, es, position{X: 2}, label{Text: "player"})
	c := spawn(t, es, marker{})
	require.NoError(t, es.DestroyEntity(c))

	rows := collectEntities(es, nil)
	require.Len(t, rows, 3)

	assert.Equal(t, a, rows[0].Entity)
	assert.Equal(t, []string{"debugui.position"}, rows[0].ComponentTypes)
	assert.Equal(t, b, rows[1].Entity)
	assert.Equal(t, []string{"debugui.position", "debugui.label"}, rows[1].ComponentTypes)
	assert.True(t, rows[2].Pending)
	assert.False(t, rows[0].Pending)

	es.FrameFinished()
	assert.Len(t, collectEntities(es, nil), 2)
}

func TestFilterEntities(t *testing.T) {
	es := newTestSystem(t)
	spawn(t, es, position{})
	spawn(t, es, position{}, label{})
	spawn(t, es, marker{})
	rows := collectEntities(es, nil)

	assert.Len(t, filterEntities(rows, "", nil), 3)
	assert.Len(t, filterEntities(rows, "LABEL", nil), 1)
	assert.Len(t, filterEntities(rows, "position", nil), 2)
	assert.Len(t, filterEntities(rows, "3", nil), 1)

	markerType, ok := ecs.ComponentTypeOf[marker](es.Registry())
	require.True(t, ok)
	only := filterEntities(rows, "", &markerType)
	require.Len(t, only, 1)
	assert.Equal(t, ecs.EntityHandle(3), only[0].Entity)

	assert.Empty(t, filterEntities(rows, "label", &markerType))
}

func TestSortEntities(t *testing.T) {
	es := newTestSystem(t)
	spawn(t, es, position{}, label{})
	spawn(t, es, marker{})
	spawn(t, es, position{})
	rows := collectEntities(es, nil)

	sortEntities(rows, browserColumnCount, false)
	assert.Equal(t, ecs.EntityHandle(1), rows[0].Entity)

	sortEntities(rows, browserColumnComponents, true)
	assert.Equal(t, []string{"debugui.marker"}, rows[0].ComponentTypes)

	sortEntities(rows, browserColumnEntity, false)
	assert.Equal(t, []ecs.EntityHandle{3, 2, 1}, []ecs.EntityHandle{rows[0].Entity, rows[1].Entity, rows[2].Entity})
}

func TestBrowserRefreshTracksChanges(t *testing.T) {
	es := newTestSystem(t)
	browser := NewEntityBrowser(10)
	e := spawn(t, es, position{})

	browser.refresh(es)
	require.Len(t, browser.cache.entities, 1)

	_, err := ecs.AddComponent(es, e, marker{})
	require.NoError(t, err)
	browser.refresh(es)
	assert.Len(t, browser.cache.entities[0].ComponentTypes, 2)

	require.NoError(t, es.DestroyEntity(e))
	browser.refresh(es)
	assert.True(t, browser.cache.entities[0].Pending)
}

func TestRunQuery(t *testing.T) {
	es := newTestSystem(t)
	for i := 0; i < 10; i++ {
		if i%3 == 0 {
			spawn(t, es, position{}, label{})
		} else {
			spawn(t, es, position{})
		}
	}

	positionType, _ := ecs.ComponentTypeOf[position](es.Registry())
	labelType, _ := ecs.ComponentTypeOf[label](es.Registry())

	result, err := runQuery(es, ecs.MaskOf(positionType, labelType))
	require.NoError(t, err)
	assert.Equal(t, labelType, result.Base)
	assert.Equal(t, []ecs.EntityHandle{1, 4, 7, 10}, result.Matches)

	result, err = runQuery(es, ecs.MaskOf(positionType))
	require.NoError(t, err)
	assert.Len(t, result.Matches, 10)

	_, err = runQuery(es, ecs.MaskOf(ecs.ComponentType(200)))
	assert.ErrorIs(t, err, ecs.ErrUnregisteredComponent)
}

func TestSortHolders(t *testing.T) {
	rows := []ecs.HolderStats{
		{Type: 0, Name: "b", Live: 5},
		{Type: 1, Name: "a", Live: 9},
		{Type: 2, Name: "c", Live: 5},
	}

	sortHolders(rows, holderColumnLive, false)
	assert.Equal(t, []ecs.ComponentType{1, 2, 0}, []ecs.ComponentType{rows[0].Type, rows[1].Type, rows[2].Type})

	sortHolders(rows, holderColumnName, true)
	assert.Equal(t, "a", rows[0].Name)

	assert.InDelta(t, 0.0, utilisation(ecs.HolderStats{}), 1e-9)
	assert.InDelta(t, 0.5, utilisation(ecs.HolderStats{Live: 64, Capacity: 128}), 1e-9)
}

func TestFrameHistory(t *testing.T) {
	h := newFrameHistory(3)
	assert.Zero(t, h.mean())

	h.push(1)
	h.push(2)
	assert.InDelta(t, 1.5, h.mean(), 1e-6)
	assert.Equal(t, []float32{0, 1, 2}, h.ordered())

	h.push(3)
	h.push(4)
	assert.Equal(t, []float32{2, 3, 4}, h.ordered())
	assert.InDelta(t, 3.0, h.mean(), 1e-6)
}

func TestFieldCache(t *testing.T) {
	fields := componentFields.Fields(reflect.TypeFor[label]())
	require.Len(t, fields, 3)

	assert.Equal(t, "Text", fields[0].Name)
	assert.Equal(t, kindString, fields[0].kind)
	assert.Equal(t, kindBool, fields[1].kind)
	assert.Equal(t, "Owner", fields[2].Name)
	assert.True(t, fields[2].IsPointer)
	assert.Equal(t, kindStruct, fields[2].kind)
	assert.Equal(t, 3, fields[2].Index)

	assert.Nil(t, componentFields.Fields(reflect.TypeFor[int]()))
}

func TestSpawnDebugUI(t *testing.T) {
	es := newTestSystem(t)
	scheduler := ecs.NewScheduler(es)

	e, err := SpawnDebugUI(es, scheduler)
	require.NoError(t, err)

	assert.Len(t, es.ComponentTypes(e), 6)
	item, err := ecs.GetComponent[ImguiItem](es, e)
	require.NoError(t, err)
	assert.NotNil(t, item.Render)

	_, err = ecs.GetComponent[EntityBrowser](es, e)
	assert.NoError(t, err)
	assert.True(t, ecs.NewSingleton[ImguiInputState](es).Exists())
}

func TestSpawnDebugUIUnregistered(t *testing.T) {
	es := ecs.NewEntitySystem(ecs.NewComponentRegistry())
	_, err := SpawnDebugUI(es, nil)
	assert.ErrorIs(t, err, ecs.ErrUnregisteredComponent)
	assert.Equal(t, 0, es.Len(), "nothing is created for an unregistered component set")
	assert.Equal(t, 0, es.FrameFinished())
}
