package extract

import (
	"testing"

	"github.com/raphaelgruber/agentwatch/internal/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) payload.Value {
	t.Helper()
	v, err := payload.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func mustJSON(t *testing.T, v payload.Value) string {
	t.Helper()
	b, err := v.MarshalJSON()
	require.NoError(t, err)
	return string(b)
}

func TestPath(t *testing.T) {
	body := `{"data":{"items":[1,2],"meta":{"count":2}},"$ref":"x","status":"ok"}`

	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty path", "", body},
		{"root marker", "$", body},
		{"root marker with spaces", "  $ ", body},
		{"single segment", "status", `"ok"`},
		{"nested", "data.meta.count", `2`},
		{"rooted nested", "$.data.meta", `{"count":2}`},
		{"array value", "data.items", `[1,2]`},
		{"dollar-prefixed key", "$ref", `"x"`},
		{"missing first segment", "nope", body},
		{"missing nested segment", "data.meta.total", body},
		{"through scalar", "status.length", body},
		{"array index unsupported", "data.items.0", body},
		{"empty segment", "data..meta", body},
		{"trailing dot", "data.", body},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Path(mustParse(t, body), tt.path)
			assert.Equal(t, tt.want, mustJSON(t, got))
		})
	}
}

func TestPath_NonContainerRoot(t *testing.T) {
	v := payload.String("plain text body")
	got := Path(v, "a.b")
	s, ok := got.Str()
	require.True(t, ok)
	assert.Equal(t, "plain text body", s)
}
