// Package typeinfo is the type-introspection cache: for a given struct
// type it produces, once, the ordered list of instance fields plus
// whether the type declares the custom read/write hooks, and memoizes
// the result so both the writer and the reader reuse it without
// re-walking reflect.Type on every call.
package typeinfo

import (
	"reflect"
	"sync"

	"github.com/zenobiuszeto/json-io/internal/tree"
)

// FieldInfo describes one instance field in emission/build order.
type FieldInfo struct {
	Name  string
	Type  reflect.Type
	Index []int // as passed to reflect.Value.FieldByIndex
}

// Descriptor is the memoized result for one struct type.
type Descriptor struct {
	Type         reflect.Type
	Fields       []FieldInfo
	CustomWriter bool
	CustomReader bool
}

var (
	cache sync.Map // map[reflect.Type]*Descriptor

	graphWriterType = reflect.TypeOf((*tree.GraphWriter)(nil)).Elem()
	graphReaderType = reflect.TypeOf((*tree.GraphReader)(nil)).Elem()
)

// Get returns the memoized descriptor for t, building it on first use. t
// must be a struct type (pointers are dereferenced by the caller first).
func Get(t reflect.Type) *Descriptor {
	if v, ok := cache.Load(t); ok {
		return v.(*Descriptor)
	}
	d := build(t)
	actual, _ := cache.LoadOrStore(t, d)
	return actual.(*Descriptor)
}

func build(t reflect.Type) *Descriptor {
	d := &Descriptor{Type: t}
	if t.Kind() == reflect.Struct {
		d.Fields = collectFields(t, nil)
	}

	ptr := reflect.PtrTo(t)
	d.CustomWriter = t.Implements(graphWriterType) || ptr.Implements(graphWriterType)
	d.CustomReader = ptr.Implements(graphReaderType)

	return d
}

// collectFields walks t's fields in declaration order, then recurses into
// anonymous (embedded) struct fields so their promoted fields are
// appended after t's own: fields declared on the type first, then its
// ancestors walked upward. Unlike Go's own field-promotion rules,
// shadowed names are not deduplicated: every declared field, at every
// level, is kept, in the order it is discovered.
func collectFields(t reflect.Type, prefix []int) []FieldInfo {
	var own, ancestors []FieldInfo

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int{}, prefix...), i)

		if sf.Anonymous {
			ft := sf.Type
			for ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				ancestors = append(ancestors, collectFields(ft, index)...)
				continue
			}
		}

		if sf.PkgPath != "" && !sf.Anonymous {
			// Unexported field: still recorded. The codec forces it open
			// via unsafe at access time.
		}

		own = append(own, FieldInfo{Name: sf.Name, Type: sf.Type, Index: index})
	}

	return append(own, ancestors...)
}
