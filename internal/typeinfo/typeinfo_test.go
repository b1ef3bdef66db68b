package typeinfo

import (
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenobiuszeto/json-io/internal/tree"
)

type Base struct {
	ID     int
	secret string
}

type Embedded struct {
	Base
	Name string
}

func TestCollectFieldsOwnThenAncestors(t *testing.T) {
	d := Get(reflect.TypeOf(Embedded{}))

	require.Len(t, d.Fields, 3)
	require.Equal(t, "Name", d.Fields[0].Name)
	require.Equal(t, "ID", d.Fields[1].Name)
	require.Equal(t, "secret", d.Fields[2].Name)
}

func TestGetMemoizes(t *testing.T) {
	t1 := Get(reflect.TypeOf(Base{}))
	t2 := Get(reflect.TypeOf(Base{}))
	require.Same(t, t1, t2)
}

type customWriter struct{ Val int }

func (customWriter) WriteGraphJSON(io.Writer) error { return nil }

type customReader struct{ Val int }

func (*customReader) ReadGraphJSON([]tree.Field) error { return nil }

func TestCustomWriterDetected(t *testing.T) {
	d := Get(reflect.TypeOf(customWriter{}))
	require.True(t, d.CustomWriter)
	require.False(t, d.CustomReader)
}

func TestCustomReaderDetected(t *testing.T) {
	d := Get(reflect.TypeOf(customReader{}))
	require.True(t, d.CustomReader)
	require.False(t, d.CustomWriter)
}

func TestSettableForcesUnexportedField(t *testing.T) {
	b := Base{secret: "hidden"}
	rv := reflect.ValueOf(&b).Elem()
	field := rv.FieldByName("secret")
	require.False(t, field.CanSet())

	settable := Settable(field)
	require.True(t, settable.CanSet())
	settable.SetString("changed")
	require.Equal(t, "changed", b.secret)
}

func TestSettableNoOpOnAlreadySettable(t *testing.T) {
	var i int
	rv := reflect.ValueOf(&i).Elem()
	require.True(t, rv.CanSet())
	require.Equal(t, rv, Settable(rv))
}
