package codec

import (
	"fmt"
	"reflect"

	"github.com/zenobiuszeto/json-io/internal/intern"
	"github.com/zenobiuszeto/json-io/internal/tree"
	"github.com/zenobiuszeto/json-io/internal/typeinfo"
)

// Reader is the two-pass build engine: given an already parsed
// intermediate tree.Node and its id -> Node reference table, it
// reconstructs live Go values.
//
// Unlike a build driven by a deferred patch list, Go's Ptr/Map/Slice
// values are themselves aliasable handles: allocating the empty shell for
// an @id the first time it is needed (whether at its defining occurrence
// or at an earlier forward @ref) and filling the shell's contents in
// place, once, when the builder's depth-first walk reaches the defining
// node, makes every alias observe the fill automatically. This replaces
// the patch-closure machinery a non-aliasing host would need with a
// simpler allocate-then-fill discipline.
type Reader struct {
	refs   map[int64]*tree.Node
	built  map[int64]reflect.Value
	filled map[int64]bool
	maps   []reflect.Value
}

// NewReader constructs a Reader over a parsed tree and its reference
// table, as returned by the tree package's Parse.
func NewReader(refs map[int64]*tree.Node) *Reader {
	return &Reader{
		refs:   refs,
		built:  make(map[int64]reflect.Value),
		filled: make(map[int64]bool),
	}
}

// Unmarshal parses data and builds it into target, which must be a
// non-nil pointer.
func Unmarshal(data []byte, target interface{}) error {
	root, refs, err := tree.Parse(data)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: Unmarshal target must be a non-nil pointer", ErrCodec)
	}
	r := NewReader(refs)
	// The root may carry an "@id" assigned to its own pointer identity (a
	// cycle can walk back to the very top of the graph): register the
	// caller's pointer itself as that id's shell before filling it, so any
	// @ref to the root resolves to the same memory rather than a copy.
	if id, ok := root.ID(); ok {
		r.built[id] = rv
		r.filled[id] = true
	}
	if err := r.build(root, rv.Elem()); err != nil {
		return err
	}
	r.rehashMaps()
	return nil
}

var emptyInterfaceType = reflect.TypeOf((*interface{})(nil)).Elem()

// build decodes node into dst, an addressable, settable value of dst's
// declared (static) type. A dst of interface kind is resolved dynamically
// from the node's @type tag, or, absent one, to the generic "sequence
// container" / "mapping" shapes.
func (r *Reader) build(node *tree.Node, dst reflect.Value) error {
	if node.IsNull() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	if id, ok := node.Ref(); ok {
		return r.buildRef(id, dst)
	}

	if dst.Kind() == reflect.Interface {
		v, err := r.buildDynamic(node, dst.Type())
		if err != nil {
			return err
		}
		dst.Set(v)
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		return r.buildPtr(node, dst)
	case reflect.Struct:
		return r.buildStruct(node, dst)
	case reflect.Slice:
		return r.buildSlice(node, dst)
	case reflect.Array:
		return r.buildArray(node, dst)
	case reflect.Map:
		return r.buildMap(node, dst)
	default:
		v, err := coerceScalar(unwrapValue(node), dst.Type())
		if err != nil {
			return err
		}
		dst.Set(v.Convert(dst.Type()))
		return nil
	}
}

// unwrapValue returns the node holding the actual scalar payload: for a
// leaf boxed as {"@type":...,"value":...} (needed when the declared type
// could not infer the concrete type, or the leaf is shared), that is the
// "value" field; otherwise the node itself.
func unwrapValue(node *tree.Node) *tree.Node {
	if v, ok := node.Value(); ok {
		return v
	}
	return node
}

// buildRef resolves a @ref node: the id must have a definition (the
// writer never emits a dangling @ref), and its shell is allocated
// immediately if no part of the walk has reached it yet.
func (r *Reader) buildRef(id int64, dst reflect.Value) error {
	handle, err := r.shellFor(id, dst.Type())
	if err != nil {
		return err
	}
	dst.Set(handle.Convert(dst.Type()))
	return nil
}

// shellFor returns the allocated reference handle for id, creating it
// from the defining node's shape if this is the first time id is needed.
func (r *Reader) shellFor(id int64, declared reflect.Type) (reflect.Value, error) {
	if v, ok := r.built[id]; ok {
		return v, nil
	}
	defNode, ok := r.refs[id]
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: unresolved @ref %d", ErrUndefinedRef, id)
	}

	t, err := r.resolveType(defNode, declared)
	if err != nil {
		return reflect.Value{}, err
	}

	var shell reflect.Value
	switch t.Kind() {
	case reflect.Ptr:
		shell = reflect.New(t.Elem())
	case reflect.Map:
		shell = reflect.MakeMap(t)
		r.maps = append(r.maps, shell)
	case reflect.Slice:
		n := defNode
		if items, ok := n.Items(); ok {
			shell = reflect.MakeSlice(t, len(items), len(items))
		} else if arr, err := n.AsArray(); err == nil {
			shell = reflect.MakeSlice(t, len(arr), len(arr))
		} else {
			shell = reflect.MakeSlice(t, 0, 0)
		}
	default:
		// A shared leaf or struct-by-value: reference identity is only ever
		// assigned to Ptr/Map/Slice values (see the writer's trace pass), so
		// this path is defensive rather than expected.
		shell = reflect.New(t).Elem()
	}

	r.built[id] = shell
	return shell, nil
}

// resolveType determines the concrete Go type to allocate for a
// reference-carrying node: its own @type tag if present, otherwise the
// declared (static) type at the use site.
func (r *Reader) resolveType(node *tree.Node, declared reflect.Type) (reflect.Type, error) {
	if tag, ok := node.Type(); ok {
		if t, ok := resolveShortTag(tag); ok {
			if declared != nil && declared.Kind() == reflect.Ptr {
				// A shared leaf reached through a pointer-typed position.
				return declared, nil
			}
			return t, nil
		}
		if t, ok := ResolveName(tag); ok {
			if t.Kind() == reflect.Struct && (declared == nil || declared.Kind() == reflect.Ptr || declared.Kind() == reflect.Interface) {
				// Reached with no useful static type (a forward @ref seen
				// before a declared-type context, or a dynamic interface{}
				// position): a registered struct is always stored behind a
				// pointer, matching how the writer only ever assigns
				// reference identity to a Ptr-wrapped struct.
				return reflect.PtrTo(t), nil
			}
			return t, nil
		}
		return nil, fmt.Errorf("%w: unregistered @type %q", ErrUnknownType, tag)
	}
	if declared == nil || declared.Kind() == reflect.Interface {
		return nil, fmt.Errorf("%w: cannot determine concrete type without @type", ErrUnknownType)
	}
	return declared, nil
}

func (r *Reader) buildPtr(node *tree.Node, dst reflect.Value) error {
	// An empty string for a pointer to a non-string leaf decodes to nil.
	if elemT := dst.Type().Elem(); isLeafType(elemT) && elemT.Kind() != reflect.String {
		if s, err := node.AsString(); err == nil && s == "" {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
	}
	id, hasID := node.ID()
	var shell reflect.Value
	var err error
	if hasID {
		shell, err = r.shellFor(id, dst.Type())
	} else {
		shell = reflect.New(dst.Type().Elem())
	}
	if err != nil {
		return err
	}
	if hasID && r.filled[id] {
		dst.Set(shell)
		return nil
	}
	if hasID {
		r.filled[id] = true
	}
	if err := r.build(node, shell.Elem()); err != nil {
		return err
	}
	dst.Set(shell)
	return nil
}

func (r *Reader) buildStruct(node *tree.Node, dst reflect.Value) error {
	d := typeinfo.Get(dst.Type())

	if d.CustomReader {
		if gr, ok := asGraphReader(dst); ok {
			return gr.ReadGraphJSON(node.Fields())
		}
	}

	byName := make(map[string]*typeinfo.FieldInfo, len(d.Fields))
	for i := range d.Fields {
		byName[d.Fields[i].Name] = &d.Fields[i]
	}

	for _, f := range node.Fields() {
		fi, ok := byName[f.Key]
		if !ok {
			continue // unknown field: tolerated rather than rejected
		}
		target := typeinfo.Settable(dst.FieldByIndex(fi.Index))
		if err := r.build(f.Val, target); err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
	}
	return nil
}

func (r *Reader) buildSlice(node *tree.Node, dst reflect.Value) error {
	elemT := dst.Type().Elem()

	if elemT == charType {
		return r.buildCharSlice(node, dst, false)
	}

	items, err := sequenceItems(node)
	if err != nil {
		return err
	}

	id, hasID := node.ID()
	var out reflect.Value
	if hasID && r.built[id].IsValid() {
		out = r.built[id]
		if r.filled[id] {
			dst.Set(out)
			return nil
		}
		r.filled[id] = true
	} else {
		out = reflect.MakeSlice(dst.Type(), len(items), len(items))
		if hasID {
			r.built[id] = out
			r.filled[id] = true
		}
	}

	for i, item := range items {
		if err := r.build(item, out.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

func (r *Reader) buildArray(node *tree.Node, dst reflect.Value) error {
	elemT := dst.Type().Elem()
	if elemT == charType {
		return r.buildCharSlice(node, dst, true)
	}

	items, err := sequenceItems(node)
	if err != nil {
		return err
	}
	if len(items) > dst.Len() {
		return fmt.Errorf("%w: array has %d elements, destination holds %d", ErrCodec, len(items), dst.Len())
	}
	for i, item := range items {
		if err := r.build(item, dst.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

// buildCharSequenceDynamic decodes a wire-level char[] sequence into a
// freshly allocated []Char, for an interface{} position where no
// declared slice type is available to drive buildCharSlice.
func buildCharSequenceDynamic(node *tree.Node) (reflect.Value, error) {
	s, err := unwrapValue(node).AsString()
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: expected char sequence string", err)
	}
	runes := []rune(s)
	out := make([]Char, len(runes))
	for i, rr := range runes {
		out[i] = Char(rr)
	}
	return reflect.ValueOf(out), nil
}

// buildCharSlice decodes the single-string encoding used for []Char /
// [N]Char back into individual code units.
func (r *Reader) buildCharSlice(node *tree.Node, dst reflect.Value, isArray bool) error {
	s, err := unwrapValue(node).AsString()
	if err != nil {
		return fmt.Errorf("%w: expected char sequence string", err)
	}
	runes := []rune(s)
	if isArray {
		if len(runes) > dst.Len() {
			return fmt.Errorf("%w: char array has %d elements, destination holds %d", ErrCodec, len(runes), dst.Len())
		}
		for i, rr := range runes {
			dst.Index(i).Set(reflect.ValueOf(Char(rr)))
		}
		return nil
	}
	out := reflect.MakeSlice(dst.Type(), len(runes), len(runes))
	for i, rr := range runes {
		out.Index(i).Set(reflect.ValueOf(Char(rr)))
	}
	dst.Set(out)
	return nil
}

func (r *Reader) buildMap(node *tree.Node, dst reflect.Value) error {
	keyT := dst.Type().Key()
	valT := dst.Type().Elem()

	id, hasID := node.ID()
	var m reflect.Value
	if hasID && r.built[id].IsValid() {
		m = r.built[id]
		if r.filled[id] {
			dst.Set(m)
			return nil
		}
		r.filled[id] = true
	} else {
		m = reflect.MakeMap(dst.Type())
		r.maps = append(r.maps, m)
		if hasID {
			r.built[id] = m
			r.filled[id] = true
		}
	}

	if keys := node.Keys(); keys != nil {
		items, _ := node.Items()
		if len(items) != len(keys) {
			return fmt.Errorf("%w: @keys/@items length mismatch", ErrCodec)
		}
		for i, kn := range keys {
			kv := reflect.New(keyT).Elem()
			if err := r.build(kn, kv); err != nil {
				return fmt.Errorf("key %d: %w", i, err)
			}
			vv := reflect.New(valT).Elem()
			if err := r.build(items[i], vv); err != nil {
				return fmt.Errorf("value for key %d: %w", i, err)
			}
			m.SetMapIndex(kv, vv)
		}
		dst.Set(m)
		return nil
	}

	for _, f := range node.Fields() {
		kv := reflect.New(keyT).Elem()
		kv.SetString(f.Key)
		vv := reflect.New(valT).Elem()
		if err := r.build(f.Val, vv); err != nil {
			return fmt.Errorf("key %q: %w", f.Key, err)
		}
		m.SetMapIndex(kv, vv)
	}
	dst.Set(m)
	return nil
}

// sequenceItems returns the elements of a bare array node or an
// "@items"-wrapped one, whichever shape the node carries.
func sequenceItems(node *tree.Node) ([]*tree.Node, error) {
	if items, ok := node.Items(); ok {
		return items, nil
	}
	if arr, err := node.AsArray(); err == nil {
		return arr, nil
	}
	return nil, fmt.Errorf("%w: expected array or @items", tree.ErrType)
}

// internLeaf substitutes the cached boxed instance for a just-built char,
// boolean or small int64 value, so repeated equal leaves reaching an
// interface{} position through an explicit short @type tag (rather than
// a bare literal, which is interned directly in buildDynamic) decode to
// the same instance instead of a fresh allocation each time. Any other
// value is returned unchanged.
func internLeaf(v reflect.Value) reflect.Value {
	switch {
	case v.Type() == charType:
		if c := rune(v.Interface().(Char)); c <= 127 {
			return reflect.ValueOf(intern.LowChar(c))
		}
	case v.Kind() == reflect.Bool:
		return reflect.ValueOf(intern.Bool(v.Bool()))
	case v.Kind() == reflect.Int64:
		// Only the exact int64 kind is safe to intern here: the cache
		// boxes int64, and narrower short-tag kinds (int8/int16/int32)
		// would have their dynamic type silently widened if substituted.
		if i := v.Int(); i >= -128 && i <= 127 {
			return reflect.ValueOf(intern.Int64(i))
		}
	}
	return v
}

// buildDynamic resolves an interface-typed position: a concrete @type
// tag picks the registered Go type; otherwise the node's shape picks one
// of the generic containers: []interface{} for an array, map[string]
// interface{} for an all-string-keyed object, or the scalar Go type a
// bare JSON literal already implies.
func (r *Reader) buildDynamic(node *tree.Node, declared reflect.Type) (reflect.Value, error) {
	if id, ok := node.Ref(); ok {
		shell, err := r.shellFor(id, nil)
		if err != nil {
			return reflect.Value{}, err
		}
		return shell, nil
	}

	if tag, ok := node.Type(); ok {
		if tag == charArrayTag {
			return buildCharSequenceDynamic(node)
		}
		t, short := resolveShortTag(tag)
		if !short {
			var ok bool
			t, ok = ResolveName(tag)
			if !ok {
				return reflect.Value{}, fmt.Errorf("%w: unregistered @type %q", ErrUnknownType, tag)
			}
		}
		if !short && t.Kind() == reflect.Struct {
			// A struct behind an interface{} position is always decoded as
			// a pointer: struct identity (and therefore @type reachable via
			// a bare interface{} slot) only ever arises from a Ptr-wrapped
			// value on the encode side.
			id, hasID := node.ID()
			var target reflect.Value
			if hasID {
				var err error
				target, err = r.shellFor(id, reflect.PtrTo(t))
				if err != nil {
					return reflect.Value{}, err
				}
			} else {
				target = reflect.New(t)
			}
			if hasID && r.filled[id] {
				return target, nil
			}
			if hasID {
				r.filled[id] = true
			}
			if err := r.build(node, target.Elem()); err != nil {
				return reflect.Value{}, err
			}
			return target, nil
		}
		target := reflect.New(t).Elem()
		if err := r.build(node, target); err != nil {
			return reflect.Value{}, err
		}
		return internLeaf(target), nil
	}

	switch node.Kind() {
	case tree.Null:
		return reflect.Zero(declared), nil
	case tree.Bool:
		b, _ := node.AsBool()
		return reflect.ValueOf(intern.Bool(b)), nil
	case tree.Int:
		i, _ := node.AsInt64()
		if i >= -128 && i <= 127 {
			return reflect.ValueOf(intern.Int64(i)), nil
		}
		return reflect.ValueOf(i), nil
	case tree.Float:
		f, _ := node.AsFloat64()
		return reflect.ValueOf(f), nil
	case tree.String:
		s, _ := node.AsString()
		return reflect.ValueOf(s), nil
	case tree.Array:
		arr, _ := node.AsArray()
		out := make([]interface{}, len(arr))
		for i, item := range arr {
			v, err := r.buildDynamic(item, emptyInterfaceType)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = v.Interface()
		}
		return reflect.ValueOf(out), nil
	case tree.Object:
		if items, ok := node.Items(); ok {
			out := make([]interface{}, len(items))
			for i, item := range items {
				v, err := r.buildDynamic(item, emptyInterfaceType)
				if err != nil {
					return reflect.Value{}, err
				}
				out[i] = v.Interface()
			}
			return reflect.ValueOf(out), nil
		}
		out := make(map[string]interface{}, len(node.Fields()))
		for _, f := range node.Fields() {
			v, err := r.buildDynamic(f.Val, emptyInterfaceType)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %q: %w", f.Key, err)
			}
			out[f.Key] = v.Interface()
		}
		return reflect.ValueOf(out), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot decode node of kind %s into interface{}", ErrCodec, node.Kind())
}

// rehashMaps re-inserts every map built during this decode. Go copies a
// key into the map at SetMapIndex time and hashes pointers by address, so
// filling a forward-referenced shell later does not change any stored
// key's hash; the pass re-inserts the same entries and leaves each map's
// contents as they were.
func (r *Reader) rehashMaps() {
	for _, m := range r.maps {
		iter := m.MapRange()
		type kv struct{ k, v reflect.Value }
		entries := make([]kv, 0, m.Len())
		for iter.Next() {
			entries = append(entries, kv{iter.Key(), iter.Value()})
		}
		m.Clear()
		for _, e := range entries {
			m.SetMapIndex(e.k, e.v)
		}
	}
}

func asGraphReader(v reflect.Value) (tree.GraphReader, bool) {
	if v.CanAddr() {
		if gr, ok := v.Addr().Interface().(tree.GraphReader); ok {
			return gr, true
		}
	}
	if gr, ok := v.Interface().(tree.GraphReader); ok {
		return gr, true
	}
	return nil, false
}
