package codec

import (
	"bytes"
	"fmt"
	"reflect"
	"time"

	"github.com/zenobiuszeto/json-io/internal/tree"
	"github.com/zenobiuszeto/json-io/internal/typeinfo"
)

// identKey disambiguates identity by pointer value AND type, since two
// unrelated objects of different types could in principle share a bit
// pattern once their respective backing allocations are freed and reused
// across separate traces; within the lifetime of a single write this
// never happens, but the extra key component is free insurance.
type identKey struct {
	ptr uintptr
	typ reflect.Type
}

// Writer is the reference-tracing and emission engine. Its lifecycle is a
// single top-level write: trace the graph, then emit it, after which its
// tables are discarded. It is not safe for concurrent or reentrant use.
type Writer struct {
	visited    map[identKey]int64
	referenced map[int64]bool
	defined    map[int64]bool
	nextID     int64
}

// NewWriter returns a Writer ready for one top-level Marshal call.
func NewWriter() *Writer {
	return &Writer{
		visited:    make(map[identKey]int64),
		referenced: make(map[int64]bool),
		nextID:     1,
	}
}

// Marshal runs the trace then emit passes over root and returns the
// resulting JSON bytes.
func (w *Writer) Marshal(root interface{}) ([]byte, error) {
	w.trace(reflect.ValueOf(root))
	w.defined = make(map[int64]bool)

	var buf bytes.Buffer
	if err := w.emitValue(&buf, reflect.ValueOf(root), nil, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func hasIdentity(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return true
	}
	return false
}

// trace walks the graph iteratively with an explicit work stack: every
// identity-bearing value (pointer, map, slice, chan, func) is assigned a
// monotonic id on first encounter; structs and arrays held by value get
// no id and are only walked through. A later
// encounter of the same identity marks that id shared, which is what
// later earns it an "@id" stamp during emission.
func (w *Writer) trace(root reflect.Value) {
	stack := []reflect.Value{root}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v = unwrapInterface(v)
		if !v.IsValid() {
			continue
		}
		if isNilable(v) && v.IsNil() {
			continue
		}

		t := v.Type()
		if isLeafType(t) {
			continue
		}

		if hasIdentity(v.Kind()) {
			key := identKey{v.Pointer(), t}
			if id, ok := w.visited[key]; ok {
				w.referenced[id] = true
				continue
			}
			w.visited[key] = w.nextID
			w.nextID++
		}

		switch v.Kind() {
		case reflect.Ptr:
			stack = append(stack, v.Elem())

		case reflect.Slice, reflect.Array:
			elemT := t.Elem()
			if !isLeafType(elemT) {
				for i := 0; i < v.Len(); i++ {
					stack = append(stack, v.Index(i))
				}
			}

		case reflect.Map:
			keyT := t.Key()
			valT := t.Elem()
			iter := v.MapRange()
			for iter.Next() {
				if !isLeafType(keyT) {
					stack = append(stack, iter.Key())
				}
				if !isLeafType(valT) {
					stack = append(stack, iter.Value())
				}
			}

		case reflect.Struct:
			d := typeinfo.Get(t)
			for _, f := range d.Fields {
				fv := typeinfo.Settable(v.FieldByIndex(f.Index))
				if fv.Kind() == reflect.Interface || !isLeafType(fv.Type()) {
					stack = append(stack, fv)
				}
			}
		}
	}
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func isNilable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return true
	}
	return false
}

// identity looks up the id assigned during trace for a reference-typed
// value, and whether that id turned out to be shared.
func (w *Writer) identity(v reflect.Value) (id int64, shared bool) {
	if !hasIdentity(v.Kind()) {
		return 0, false
	}
	key := identKey{v.Pointer(), v.Type()}
	id, ok := w.visited[key]
	if !ok {
		return 0, false
	}
	return id, w.referenced[id]
}

// inferable reports whether the declared (static) type at this position
// guarantees the dynamic type: true for any concrete (non-interface) Go
// type, since Go's type system makes such positions always homogeneous.
// Only an interface-typed position (the Go analogue of type erasure) ever
// needs a runtime @type tag.
func inferable(declared, actual reflect.Type) bool {
	return declared != nil && declared.Kind() != reflect.Interface && declared == actual
}

func (w *Writer) emitValue(buf *bytes.Buffer, v reflect.Value, declared reflect.Type, top bool) error {
	v = unwrapInterface(v)
	if !v.IsValid() || (isNilable(v) && v.IsNil()) {
		if top {
			buf.WriteString("{}")
		} else {
			buf.WriteString("null")
		}
		return nil
	}

	if v.Kind() == reflect.Ptr {
		id, shared := w.identity(v)
		elem := v.Elem()
		elemDeclared := declared
		if elemDeclared != nil && elemDeclared.Kind() == reflect.Ptr {
			elemDeclared = elemDeclared.Elem()
		}
		if isLeafType(elem.Type()) {
			return w.emitLeaf(buf, elem, elemDeclared, id, shared)
		}
		return w.emitContainer(buf, elem, elemDeclared, id, shared, top)
	}

	t := v.Type()
	if isLeafType(t) {
		return w.emitLeaf(buf, v, declared, 0, false)
	}

	id, shared := w.identity(v)
	return w.emitContainer(buf, v, declared, id, shared, top)
}

func (w *Writer) emitContainer(buf *bytes.Buffer, v reflect.Value, declared reflect.Type, id int64, shared bool, top bool) error {
	if shared {
		if w.defined[id] {
			fmt.Fprintf(buf, `{"@ref":%d}`, id)
			return nil
		}
		w.defined[id] = true
	}

	switch v.Kind() {
	case reflect.Struct:
		return w.emitStruct(buf, v, declared, id, shared)
	case reflect.Slice:
		return w.emitSlice(buf, v, declared, id, shared)
	case reflect.Array:
		return w.emitArray(buf, v, declared, top)
	case reflect.Map:
		return w.emitMap(buf, v, declared, id, shared)
	default:
		return fmt.Errorf("%w: cannot encode kind %s", ErrCodec, v.Kind())
	}
}

func (w *Writer) emitStruct(buf *bytes.Buffer, v reflect.Value, declared reflect.Type, id int64, shared bool) error {
	t := v.Type()
	d := typeinfo.Get(t)

	buf.WriteByte('{')
	first := true
	writeID := func() {
		if shared {
			if !first {
				buf.WriteByte(',')
			}
			fmt.Fprintf(buf, `"@id":%d`, id)
			first = false
		}
	}
	writeID()

	needsType := !inferable(declared, t) || d.CustomWriter
	if needsType {
		if !first {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, `"@type":%s`, jsonString(tagFor(t)))
		first = false
	}

	if d.CustomWriter {
		if !first {
			buf.WriteByte(',')
		}
		gw, ok := asGraphWriter(v)
		if !ok {
			return fmt.Errorf("%w: %s declares a custom write hook but does not implement it", ErrCodec, t)
		}
		if err := gw.WriteGraphJSON(buf); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	}

	for _, f := range d.Fields {
		fv := typeinfo.Settable(v.FieldByIndex(f.Index))
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(jsonString(f.Name))
		buf.WriteByte(':')
		if err := w.emitValue(buf, fv, f.Type, false); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (w *Writer) emitSlice(buf *bytes.Buffer, v reflect.Value, declared reflect.Type, id int64, shared bool) error {
	t := v.Type()
	elemT := t.Elem()

	if elemT == charType {
		return w.emitCharSequence(buf, v, declared, id, shared)
	}

	canInline := !shared && inferable(declared, t)

	if canInline {
		return w.emitBareSequence(buf, v, elemT)
	}

	buf.WriteByte('{')
	first := true
	if shared {
		fmt.Fprintf(buf, `"@id":%d`, id)
		first = false
	}
	if !inferable(declared, t) {
		if !first {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, `"@type":%s`, jsonString(tagFor(t)))
		first = false
	}
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteString(`"@items":[`)
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := w.emitValue(buf, v.Index(i), elemT, false); err != nil {
			return err
		}
	}
	buf.WriteString(`]}`)
	return nil
}

func (w *Writer) emitArray(buf *bytes.Buffer, v reflect.Value, declared reflect.Type, top bool) error {
	t := v.Type()
	elemT := t.Elem()

	if elemT == charType {
		return w.emitCharSequence(buf, v, declared, 0, false)
	}

	if inferable(declared, t) {
		return w.emitBareSequence(buf, v, elemT)
	}

	buf.WriteByte('{')
	first := true
	if !inferable(declared, t) {
		fmt.Fprintf(buf, `"@type":%s`, jsonString(tagFor(t)))
		first = false
	}
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteString(`"@items":[`)
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := w.emitValue(buf, v.Index(i), elemT, false); err != nil {
			return err
		}
	}
	buf.WriteString(`]}`)
	return nil
}

// emitBareSequence writes elements as a plain JSON array. Fixed-width
// numeric and boolean element types get a tight specialized loop;
// everything else recurses through emitValue.
func (w *Writer) emitBareSequence(buf *bytes.Buffer, v reflect.Value, elemT reflect.Type) error {
	buf.WriteByte('[')
	switch elemT.Kind() {
	case reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Int, reflect.Uint,
		reflect.Int64, reflect.Uint64:
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			e := v.Index(i)
			if e.CanInt() {
				buf.WriteString(formatInt(e.Int()))
			} else {
				buf.WriteString(formatInt(int64(e.Uint())))
			}
		}
	case reflect.Bool:
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if v.Index(i).Bool() {
				buf.WriteString("true")
			} else {
				buf.WriteString("false")
			}
		}
	default:
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := w.emitValue(buf, v.Index(i), elemT, false); err != nil {
				return err
			}
		}
	}
	buf.WriteByte(']')
	return nil
}

func (w *Writer) emitCharSequence(buf *bytes.Buffer, v reflect.Value, declared reflect.Type, id int64, shared bool) error {
	runes := make([]rune, v.Len())
	for i := range runes {
		runes[i] = rune(v.Index(i).Interface().(Char))
	}
	s := string(runes)

	t := v.Type()
	infer := inferable(declared, t)
	if !shared && infer {
		buf.WriteString(jsonString(s))
		return nil
	}

	buf.WriteByte('{')
	first := true
	if shared {
		fmt.Fprintf(buf, `"@id":%d`, id)
		first = false
	}
	if !infer {
		if !first {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, `"@type":%s`, jsonString(charArrayTag))
		first = false
	}
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteString(`"value":`)
	buf.WriteString(jsonString(s))
	buf.WriteByte('}')
	return nil
}

func (w *Writer) emitMap(buf *bytes.Buffer, v reflect.Value, declared reflect.Type, id int64, shared bool) error {
	t := v.Type()
	keyT := t.Key()
	valT := t.Elem()
	stringKeys := keyT.Kind() == reflect.String
	infer := inferable(declared, t)

	if stringKeys && !shared && infer {
		return w.emitInlineMap(buf, v, valT)
	}

	buf.WriteByte('{')
	first := true
	if shared {
		fmt.Fprintf(buf, `"@id":%d`, id)
		first = false
	}
	if !infer {
		if !first {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, `"@type":%s`, jsonString(tagFor(t)))
		first = false
	}

	if stringKeys {
		iter := v.MapRange()
		for iter.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			buf.WriteString(jsonString(iter.Key().String()))
			buf.WriteByte(':')
			if err := w.emitValue(buf, iter.Value(), valT, false); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}

	keys := v.MapKeys()
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteString(`"@keys":[`)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := w.emitValue(buf, k, keyT, false); err != nil {
			return err
		}
	}
	buf.WriteString(`],"@items":[`)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := w.emitValue(buf, v.MapIndex(k), valT, false); err != nil {
			return err
		}
	}
	buf.WriteString(`]}`)
	return nil
}

func (w *Writer) emitInlineMap(buf *bytes.Buffer, v reflect.Value, valT reflect.Type) error {
	buf.WriteByte('{')
	iter := v.MapRange()
	first := true
	for iter.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(jsonString(iter.Key().String()))
		buf.WriteByte(':')
		if err := w.emitValue(buf, iter.Value(), valT, false); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (w *Writer) emitLeaf(buf *bytes.Buffer, v reflect.Value, declared reflect.Type, id int64, shared bool) error {
	t := v.Type()
	literal, err := leafLiteral(v)
	if err != nil {
		return err
	}

	if !shared && inferable(declared, t) {
		buf.WriteString(literal)
		return nil
	}

	buf.WriteByte('{')
	first := true
	if shared {
		fmt.Fprintf(buf, `"@id":%d`, id)
		first = false
	}
	if !first {
		buf.WriteByte(',')
	}
	fmt.Fprintf(buf, `"@type":%s,"value":%s`, jsonString(tagFor(t)), literal)
	buf.WriteByte('}')
	return nil
}

func leafLiteral(v reflect.Value) (string, error) {
	t := v.Type()
	switch {
	case t == timeType:
		tm := v.Interface().(time.Time)
		return formatInt(tm.UnixMilli()), nil
	case t == classType:
		c := v.Interface().(Class)
		if c.Type == nil {
			return `""`, nil
		}
		return jsonString(TypeName(c.Type)), nil
	case t == charType:
		return quoteRune(rune(v.Interface().(Char))), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return "true", nil
		}
		return "false", nil
	case reflect.String:
		return jsonString(v.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return formatInt(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return formatInt(int64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return formatFloat(v.Float()), nil
	}
	return "", fmt.Errorf("%w: unsupported leaf kind %s", ErrCodec, v.Kind())
}

func asGraphWriter(v reflect.Value) (tree.GraphWriter, bool) {
	if v.CanAddr() {
		if gw, ok := v.Addr().Interface().(tree.GraphWriter); ok {
			return gw, true
		}
	}
	if gw, ok := v.Interface().(tree.GraphWriter); ok {
		return gw, true
	}
	return nil, false
}
