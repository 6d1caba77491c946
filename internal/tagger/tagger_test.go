package tagger

import (
	"sort"
	"testing"

	"github.com/raphaelgruber/agentwatch/internal/models"
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

// keys returns "type:value@path" for each entity, sorted.
func keys(entities []models.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Key()+"@"+e.FieldPath)
	}
	sort.Strings(out)
	return out
}

func find(entities []models.Entity, t models.EntityType) *models.Entity {
	for i := range entities {
		if entities[i].Type == t {
			return &entities[i]
		}
	}
	return nil
}

func TestTag_WeatherScenario(t *testing.T) {
	entities := Tag(mustParse(t, `{"temp": 21.5, "city": "Berlin"}`))

	require.Len(t, entities, 1)
	assert.Equal(t, models.EntityLocation, entities[0].Type)
	assert.Equal(t, "Berlin", entities[0].Value)
	assert.Equal(t, "city", entities[0].FieldPath)
	assert.Equal(t, 0.60, entities[0].Confidence)
}

func TestTag_Email(t *testing.T) {
	entities := Tag(mustParse(t, `{"contact": "a@b.com", "bad": "a@b", "spaced": "a b@c.de"}`))

	assert.Equal(t, []string{"email:a@b.com@contact"}, keys(entities))
	assert.Equal(t, 0.95, entities[0].Confidence)
}

func TestTag_URL(t *testing.T) {
	entities := Tag(mustParse(t, `{"homepage": "https://example.com/x", "rel": "/relative/path"}`))

	e := find(entities, models.EntityURL)
	require.NotNil(t, e)
	assert.Equal(t, "https://example.com/x", e.Value)
	assert.Equal(t, 0.90, e.Confidence)
	for _, got := range entities {
		if got.Type == models.EntityURL {
			assert.NotEqual(t, "rel", got.FieldPath, "relative paths are not absolute URLs")
		}
	}
}

func TestTag_Date(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"iso date", "2024-03-15", true},
		{"rfc3339", "2024-03-15T10:30:00Z", true},
		{"too short", "3/4/2024", false},
		{"digits only", "1700000000", false},
		{"garbage", "%%%%%%%%%%%%", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := Tag(payload.Object(payload.Member{Key: "when", Value: payload.String(tt.value)}))
			e := find(entities, models.EntityDate)
			if tt.want {
				require.NotNil(t, e)
				assert.Equal(t, 0.80, e.Confidence)
			} else {
				assert.Nil(t, e)
			}
		})
	}
}

func TestTag_PersonName(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  bool
	}{
		{"author", "author", "Jane Doe", true},
		{"case-insensitive key", "FirstName", "O'Neil", true},
		{"user key", "username", "ab-cd", true},
		{"single char", "name", "J", false},
		{"digits in value", "name", "R2D2", false},
		{"unrelated key", "title", "Jane Doe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := Tag(payload.Object(payload.Member{Key: tt.key, Value: payload.String(tt.value)}))
			e := find(entities, models.EntityPersonName)
			if tt.want {
				require.NotNil(t, e)
				assert.Equal(t, 0.70, e.Confidence)
				assert.Equal(t, tt.value, e.Value)
			} else {
				assert.Nil(t, e)
			}
		})
	}
}

func TestTag_PersonNameLengthBound(t *testing.T) {
	long := "Abcdefghij Abcdefghij Abcdefghij Abcdefghij Abcdefghij"
	entities := Tag(payload.Object(payload.Member{Key: "name", Value: payload.String(long)}))
	assert.Nil(t, find(entities, models.EntityPersonName))
}

func TestTag_LocationAnyString(t *testing.T) {
	entities := Tag(mustParse(t, `{"Country": "DE", "address": "12 Main St", "region_code": "x1"}`))

	var got []string
	for _, e := range entities {
		if e.Type == models.EntityLocation {
			got = append(got, e.FieldPath)
		}
	}
	assert.ElementsMatch(t, []string{"Country", "address", "region_code"}, got)
}

func TestTag_Numbers(t *testing.T) {
	entities := Tag(mustParse(t, `{
		"price": 9.99,
		"discount_amount": 0,
		"user_id": 42,
		"temp": 3,
		"ok": true
	}`))

	assert.Equal(t, []string{
		"identifier:42@user_id",
		"price:9.99@price",
	}, keys(entities))

	assert.Equal(t, 0.80, find(entities, models.EntityPrice).Confidence)
	assert.Equal(t, 0.90, find(entities, models.EntityIdentifier).Confidence)
}

func TestTag_MultipleMatchesPerLeaf(t *testing.T) {
	// "value_id" matches both the price and identifier keyword tables.
	entities := Tag(mustParse(t, `{"value_id": 7}`))
	assert.Equal(t, []string{"identifier:7@value_id", "price:7@value_id"}, keys(entities))
}

func TestTag_NestedAndArrays(t *testing.T) {
	entities := Tag(mustParse(t, `[
		{"owner": {"city": "Oslo"}, "ids": [1, 2]},
		{"city": "Rome"}
	]`))

	assert.Equal(t, []string{
		"identifier:1@0.ids.0",
		"identifier:2@0.ids.1",
		"location:Oslo@0.owner.city",
		"location:Rome@1.city",
	}, keys(entities))
}

func TestTag_ScalarRootYieldsNothing(t *testing.T) {
	assert.Empty(t, Tag(payload.String("a@b.com")))
	assert.Empty(t, Tag(payload.Number(5)))
}

func TestTag_NoDeduplication(t *testing.T) {
	entities := Tag(mustParse(t, `{"a": "x@y.io", "b": "x@y.io"}`))
	assert.Len(t, entities, 2)
}

func TestTag_Idempotent(t *testing.T) {
	v := mustParse(t, `{"email": "a@b.com", "price": 3, "city": "Paris", "id": 1}`)
	assert.Equal(t, Tag(v), Tag(v))
}
