package extract

import (
	"strconv"

	"github.com/raphaelgruber/agentwatch/internal/payload"
)

// Fields holds the flattened leaves of a payload keyed by dotted path.
type Fields struct {
	Numeric map[string]float64
	Text    map[string]string
}

// Classify splits a payload into numeric and text fields.
//
// The two walks differ on arrays: the numeric walk descends into arrays, keying
// elements by index, while the text walk never enters an array. Scalars at the
// root produce no fields.
func Classify(v payload.Value) Fields {
	f := Fields{
		Numeric: map[string]float64{},
		Text:    map[string]string{},
	}
	walkNumeric(v, "", f.Numeric)
	walkText(v, "", f.Text)
	return f
}

func walkNumeric(v payload.Value, prefix string, out map[string]float64) {
	switch v.Kind() {
	case payload.KindObject:
		for _, m := range v.Members() {
			numericLeaf(m.Value, join(prefix, m.Key), out)
		}
	case payload.KindArray:
		for i, e := range v.Elems() {
			numericLeaf(e, join(prefix, strconv.Itoa(i)), out)
		}
	}
}

func numericLeaf(v payload.Value, path string, out map[string]float64) {
	if n, ok := v.Number(); ok {
		out[path] = n
		return
	}
	walkNumeric(v, path, out)
}

func walkText(v payload.Value, prefix string, out map[string]string) {
	if v.Kind() != payload.KindObject {
		return
	}
	for _, m := range v.Members() {
		path := join(prefix, m.Key)
		switch m.Value.Kind() {
		case payload.KindString:
			if s, _ := m.Value.Str(); s != "" {
				out[path] = s
			}
		case payload.KindObject:
			walkText(m.Value, path, out)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
