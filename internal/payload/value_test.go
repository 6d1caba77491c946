package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Kind
	}{
		{"null", `null`, KindNull},
		{"bool", `true`, KindBool},
		{"number", `21.5`, KindNumber},
		{"string", `"Berlin"`, KindString},
		{"array", `[1, 2]`, KindArray},
		{"object", `{"a": 1}`, KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Kind())
		})
	}
}

func TestParse_PreservesMemberOrder(t *testing.T) {
	v, err := Parse([]byte(`{"z": 1, "a": {"y": "x", "b": [true, null]}}`))
	require.NoError(t, err)

	members := v.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "z", members[0].Key)
	assert.Equal(t, "a", members[1].Key)

	inner, ok := v.Get("a")
	require.True(t, ok)
	assert.Equal(t, "y", inner.Members()[0].Key)

	arr, ok := inner.Get("b")
	require.True(t, ok)
	require.Len(t, arr.Elems(), 2)
	b, isBool := arr.Elems()[0].Bool()
	assert.True(t, isBool)
	assert.True(t, b)
	assert.Equal(t, KindNull, arr.Elems()[1].Kind())
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a": }`, `[1,]`, `{"a": 1} {"b": 2}`, `not json`} {
		_, err := Parse([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestMarshalJSON_RoundTripsOrder(t *testing.T) {
	in := `{"temp":21.5,"city":"Berlin","tags":["a","b"],"ok":true,"none":null}`
	v, err := Parse([]byte(in))
	require.NoError(t, err)

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestGet(t *testing.T) {
	v := Object(Member{"a", Number(1)}, Member{"a", Number(2)})
	got, ok := v.Get("a")
	require.True(t, ok)
	n, _ := got.Number()
	assert.Equal(t, 2.0, n, "later duplicate key wins")

	_, ok = v.Get("missing")
	assert.False(t, ok)

	_, ok = String("s").Get("a")
	assert.False(t, ok, "non-objects have no members")
}
