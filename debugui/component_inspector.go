package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/mateusmp/bitengine/ecs"
)

// ComponentInspector is a window component showing and editing the components of one entity in place.
type ComponentInspector struct {
	entity ecs.EntityHandle
}

func NewComponentInspector() ComponentInspector {
	return ComponentInspector{}
}

func (ci *ComponentInspector) Render(es *ecs.EntitySystem, selected ecs.EntityHandle) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	ci.entity = selected
	if ci.entity == ecs.InvalidEntity {
		imgui.Text("No entity selected")
		return
	}
	if !es.HasEntity(ci.entity) {
		imgui.Text(fmt.Sprintf("Entity %d no longer exists", ci.entity))
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %d", ci.entity))
	if es.IsPendingDestroy(ci.entity) {
		imgui.SameLine()
		imgui.TextColored(imgui.NewVec4(1.0, 0.6, 0.2, 1.0), "(destroying)")
	}
	imgui.Separator()

	registry := es.Registry()
	for _, t := range es.ComponentTypes(ci.entity) {
		component, err := es.ComponentAny(ci.entity, t)
		if err != nil {
			continue
		}
		if imgui.TreeNodeStr(registry.TypeOf(t).String()) {
			renderValue(reflect.ValueOf(component).Elem(), fmt.Sprintf("%d.%d", ci.entity, t))
			imgui.TreePop()
		}
	}
}

// renderValue draws editors for the exported fields of v. v is addressable, so edits land in the holder.
func renderValue(v reflect.Value, id string) {
	if v.Kind() != reflect.Struct {
		renderField(FieldInfo{Name: "value", Type: v.Type(), kind: kindOf(v.Type())}, v, id)
		return
	}
	for _, field := range componentFields.Fields(v.Type()) {
		fv := v.Field(field.Index)
		if field.IsPointer {
			if fv.IsNil() {
				imgui.Text(fmt.Sprintf("%s: nil", field.Name))
				continue
			}
			fv = fv.Elem()
		}
		renderField(field, fv, id+"."+field.Name)
	}
}

func renderField(field FieldInfo, v reflect.Value, id string) {
	label := "##" + id
	editable := v.CanSet()

	switch field.kind {
	case kindInt:
		n := int32(v.Int())
		labelled(field.Name, 150)
		if imgui.InputInt(label, &n) && editable && !v.OverflowInt(int64(n)) {
			v.SetInt(int64(n))
		}

	case kindUint:
		n := int32(v.Uint())
		labelled(field.Name, 150)
		if imgui.InputInt(label, &n) && editable && n >= 0 && !v.OverflowUint(uint64(n)) {
			v.SetUint(uint64(n))
		}

	case kindFloat:
		f := float32(v.Float())
		labelled(field.Name, 150)
		if imgui.InputFloat(label, &f) && editable {
			v.SetFloat(float64(f))
		}

	case kindBool:
		b := v.Bool()
		if imgui.Checkbox(field.Name+label, &b) && editable {
			v.SetBool(b)
		}

	case kindString:
		s := v.String()
		labelled(field.Name, 200)
		if imgui.InputTextWithHint(label, "", &s, imgui.InputTextFlagsNone, nil) && editable {
			v.SetString(s)
		}

	case kindStruct:
		if imgui.TreeNodeStr(field.Name) {
			renderValue(v, id)
			imgui.TreePop()
		}

	case kindSlice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", field.Name, v.Len()))

	case kindMap:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", field.Name, v.Len()))

	default:
		if v.CanInterface() {
			imgui.Text(fmt.Sprintf("%s: %v", field.Name, v.Interface()))
		} else {
			imgui.Text(fmt.Sprintf("%s: <%s>", field.Name, v.Type()))
		}
	}
}

func labelled(name string, width float32) {
	imgui.Text(name + ":")
	imgui.SameLine()
	imgui.SetNextItemWidth(width)
}
