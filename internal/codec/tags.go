package codec

import (
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// charArrayTag is the @type tag a non-inferable []Char/[N]Char sequence
// is wrapped under (a shared one in a position of its own type is wrapped
// with @id and no tag). It is a fixed wire tag, not a registry
// entry or a reflect.Type.String() rendering, so buildDynamic resolves
// it directly rather than through resolveShortTag/ResolveName.
const charArrayTag = "char[]"

// isLeafType reports whether t is a leaf value: a primitive wrapper,
// string, date (time.Time) or class-identity value. A leaf value itself is
// never reference-tracked; a pointer to a leaf is, like any pointer.
func isLeafType(t reflect.Type) bool {
	if t == timeType || t == classType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	if t == charType {
		return true
	}
	return false
}

// shortTag returns the compact wire tag for a leaf type, and whether t is
// in fact one of the types that gets a short tag (as opposed to a
// fully-qualified name).
func shortTag(t reflect.Type) (string, bool) {
	if t == timeType {
		return "date", true
	}
	if t == classType {
		return "class", true
	}
	if t == charType {
		return "char", true
	}
	switch t.Kind() {
	case reflect.String:
		return "string", true
	case reflect.Bool:
		return "boolean", true
	case reflect.Int8, reflect.Uint8:
		return "byte", true
	case reflect.Int16, reflect.Uint16:
		return "short", true
	case reflect.Int32, reflect.Int, reflect.Uint32, reflect.Uint:
		return "int", true
	case reflect.Int64, reflect.Uint64:
		return "long", true
	case reflect.Float64:
		return "double", true
	case reflect.Float32:
		return "float", true
	}
	return "", false
}

// tagFor returns the @type tag to use for t: the short leaf tag when one
// applies, otherwise the registry's fully-qualified name.
func tagFor(t reflect.Type) string {
	if tag, ok := shortTag(t); ok {
		return tag
	}
	return TypeName(t)
}

// resolveShortTag is shortTag's inverse: it maps one of the fixed leaf
// wire tags back to the Go type a dynamic (interface{}) decode should use.
// Apart from "date", "class" and "char", which the registry's init also
// records, short tags are not entered in the type registry since, unlike
// record types, they do not name a unique Go type (e.g. "int" could be
// int32 or uint32); a dynamic decode picks one canonical representative
// of each.
func resolveShortTag(tag string) (reflect.Type, bool) {
	switch tag {
	case "date":
		return timeType, true
	case "class":
		return classType, true
	case "char":
		return charType, true
	case "string":
		return reflect.TypeOf(""), true
	case "boolean":
		return reflect.TypeOf(false), true
	case "byte":
		return reflect.TypeOf(int8(0)), true
	case "short":
		return reflect.TypeOf(int16(0)), true
	case "int":
		return reflect.TypeOf(int32(0)), true
	case "long":
		return reflect.TypeOf(int64(0)), true
	case "double":
		return reflect.TypeOf(float64(0)), true
	case "float":
		return reflect.TypeOf(float32(0)), true
	}
	return nil, false
}
