package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual_CrossTypeNumeric(t *testing.T) {
	assert.True(t, Equal(Int(4), Float(4.0)))
	assert.True(t, Equal(Uint(4), Int(4)))
	assert.False(t, Equal(Int(4), Float(4.5)))
	assert.False(t, Equal(Int(-1), Uint(1)))
}

func TestEqual_NullOnlyEqualsNull(t *testing.T) {
	assert.True(t, Equal(Null(), Null()))
	assert.False(t, Equal(Null(), String("")))
	assert.False(t, Equal(Null(), Int(0)))
}

func TestEqual_ObjectsUnordered(t *testing.T) {
	a := NewObject()
	a.Set("x", Int(1))
	a.Set("y", Int(2))

	b := NewObject()
	b.Set("y", Int(2))
	b.Set("x", Int(1))

	assert.True(t, Equal(ObjectVal(a), ObjectVal(b)))
}

func TestCompare_Numeric(t *testing.T) {
	c, ok := Compare(Int(3), Float(4.5))
	require.True(t, ok)
	assert.Equal(t, -1, c)
}

func TestCompare_ObjectsHaveNoOrder(t *testing.T) {
	_, ok := Compare(ObjectVal(NewObject()), ObjectVal(NewObject()))
	assert.False(t, ok)
}

func TestCoerceToString(t *testing.T) {
	assert.Equal(t, "", CoerceToString(Null()))
	assert.Equal(t, "true", CoerceToString(Bool(true)))
	assert.Equal(t, "45", CoerceToString(Int(45)))
	assert.Equal(t, "hi", CoerceToString(String("hi")))
}

func TestUnmarshalJSON_PreservesIntVsFloat(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`3`), &v))
	assert.Equal(t, KindInt, v.Kind())

	require.NoError(t, json.Unmarshal([]byte(`3.5`), &v))
	assert.Equal(t, KindFloat, v.Kind())
}

func TestRoundTrip_ObjectPreservesOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("b", Int(1))
	obj.Set("a", Int(2))
	v := ObjectVal(obj)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":2}`, string(data))
}

// TestRoundTrip_UnmarshalPreservesKeyOrder guards the decode half of the
// round trip: unmarshalling must not bridge through map[string]interface{},
// which would discard the source order before re-encoding ever sees it.
func TestRoundTrip_UnmarshalPreservesKeyOrder(t *testing.T) {
	const src = `{"z":1,"m":2,"a":3,"b":{"y":1,"x":2}}`

	var v Value
	require.NoError(t, json.Unmarshal([]byte(src), &v))

	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"z", "m", "a", "b"}, obj.Keys())

	nested, ok := obj.Get("b")
	require.True(t, ok)
	nestedObj, ok := nested.AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"y", "x"}, nestedObj.Keys())

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, src, string(data))
}

func TestUnmarshalJSON_ArrayOfObjectsPreservesEachOrder(t *testing.T) {
	const src = `[{"c":1,"a":2},{"b":3,"d":4}]`

	var v Value
	require.NoError(t, json.Unmarshal([]byte(src), &v))

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, src, string(data))
}

func TestGetIndex_MissingIsNoValue(t *testing.T) {
	obj := NewObject()
	obj.Set("x", Int(1))
	v := ObjectVal(obj)

	_, ok := v.Get("missing")
	assert.False(t, ok)

	arr := Array([]Value{Int(1), Int(2)})
	_, ok = arr.Index(5)
	assert.False(t, ok)
}
