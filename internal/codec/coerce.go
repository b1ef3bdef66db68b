package codec

import (
	"fmt"
	"reflect"
	"time"

	"github.com/zenobiuszeto/json-io/internal/tree"
)

// coerceScalar converts a parsed leaf node into a Go value of the given
// concrete leaf type: an integer literal is set directly into any integer
// kind, without a float64 round trip (narrowing is allowed and not
// range-checked, a deliberately permissive decode style), and a float
// literal narrows to an integer kind by truncation.
func coerceScalar(n *tree.Node, t reflect.Type) (reflect.Value, error) {
	// An empty string presented where a non-string leaf is expected
	// coerces to the type's zero value, rather than failing the
	// string-targeted numeric/bool/date/class parse below.
	if t.Kind() != reflect.String {
		if s, err := n.AsString(); err == nil && s == "" {
			return reflect.Zero(t), nil
		}
	}

	switch t {
	case timeType:
		return coerceTime(n)
	case classType:
		return coerceClass(n)
	case charType:
		return coerceChar(n)
	}

	switch t.Kind() {
	case reflect.String:
		s, err := n.AsString()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: expected string", err)
		}
		return reflect.ValueOf(s).Convert(t), nil

	case reflect.Bool:
		b, err := n.AsBool()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: expected boolean", err)
		}
		return reflect.ValueOf(b), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, err := n.AsInt64(); err == nil {
			v := reflect.New(t).Elem()
			v.SetInt(i)
			return v, nil
		}
		f, err := n.AsFloat64()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: expected number", err)
		}
		v := reflect.New(t).Elem()
		v.SetInt(int64(f))
		return v, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, err := n.AsInt64(); err == nil {
			v := reflect.New(t).Elem()
			v.SetUint(uint64(i))
			return v, nil
		}
		f, err := n.AsFloat64()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: expected number", err)
		}
		v := reflect.New(t).Elem()
		v.SetUint(uint64(f))
		return v, nil

	case reflect.Float32, reflect.Float64:
		f, err := n.AsFloat64()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: expected number", err)
		}
		v := reflect.New(t).Elem()
		v.SetFloat(f)
		return v, nil
	}

	return reflect.Value{}, fmt.Errorf("%w: cannot coerce into leaf kind %s", ErrCodec, t.Kind())
}

// coerceTime accepts either a bare epoch-millisecond integer or the
// {"@type":"date","value":N} wrapped form; unwrapValue already strips the
// wrapper before this is reached in the common case, so plain numbers are
// the expected shape here.
func coerceTime(n *tree.Node) (reflect.Value, error) {
	ms, err := n.AsFloat64()
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: expected epoch-millisecond date value", err)
	}
	return reflect.ValueOf(time.UnixMilli(int64(ms))), nil
}

func coerceClass(n *tree.Node) (reflect.Value, error) {
	name, err := n.AsString()
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: expected class name string", err)
	}
	t, _ := ResolveName(name)
	return reflect.ValueOf(Class{Type: t}), nil
}

func coerceChar(n *tree.Node) (reflect.Value, error) {
	s, err := n.AsString()
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: expected single-character string", err)
	}
	r := []rune(s)
	if len(r) != 1 {
		return reflect.Value{}, fmt.Errorf("%w: char value must be exactly one rune, got %q", ErrCodec, s)
	}
	return reflect.ValueOf(Char(r[0])), nil
}
