package debugui

import (
	"reflect"
	"sync"
)

type fieldKind uint8

const (
	kindOther fieldKind = iota
	kindInt
	kindUint
	kindFloat
	kindBool
	kindString
	kindStruct
	kindSlice
	kindMap
)

// FieldInfo describes one exported field of a component struct.
type FieldInfo struct {
	Name      string
	Index     int
	Type      reflect.Type
	IsPointer bool
	kind      fieldKind
}

func kindOf(t reflect.Type) fieldKind {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return kindUint
	case reflect.Float32, reflect.Float64:
		return kindFloat
	case reflect.Bool:
		return kindBool
	case reflect.String:
		return kindString
	case reflect.Struct:
		return kindStruct
	case reflect.Slice, reflect.Array:
		return kindSlice
	case reflect.Map:
		return kindMap
	default:
		return kindOther
	}
}

// fieldCache memoises the exported fields of struct types.
type fieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]FieldInfo
}

func newFieldCache() *fieldCache {
	return &fieldCache{fields: make(map[reflect.Type][]FieldInfo)}
}

// Fields returns the exported fields of t, or nil when t is not a struct.
func (c *fieldCache) Fields(t reflect.Type) []FieldInfo {
	c.mu.RLock()
	cached, ok := c.fields[t]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			ft := sf.Type
			isPointer := ft.Kind() == reflect.Pointer
			if isPointer {
				ft = ft.Elem()
			}
			fields = append(fields, FieldInfo{
				Name:      sf.Name,
				Index:     i,
				Type:      ft,
				IsPointer: isPointer,
				kind:      kindOf(ft),
			})
		}
	}

	c.mu.Lock()
	c.fields[t] = fields
	c.mu.Unlock()
	return fields
}

var componentFields = newFieldCache()
