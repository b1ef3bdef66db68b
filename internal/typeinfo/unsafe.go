package typeinfo

import (
	"reflect"
	"unsafe"
)

// Settable returns v (a struct field obtained via FieldByIndex) forced
// into an addressable, settable form even when the field is unexported.
// Go's reflect package refuses CanSet on unexported fields by default;
// this is the standard unsafe.Pointer workaround for that, and it never
// mutates anything beyond what the caller requests.
func Settable(v reflect.Value) reflect.Value {
	if v.CanSet() {
		return v
	}
	if !v.CanAddr() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}
