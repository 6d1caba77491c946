// Package tagger derives typed, confidence-scored entities from response payloads.
package tagger

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/payload"
)

// Tag walks a payload and returns every entity its string and number leaves match.
// A root array is tagged element by element. Nested objects and arrays are walked;
// array elements are matched against the key of the field holding the array.
// The returned entities carry type, value, confidence, and field path only.
func Tag(v payload.Value) []models.Entity {
	var out []models.Entity
	switch v.Kind() {
	case payload.KindArray:
		for i, e := range v.Elems() {
			walk(e, "", strconv.Itoa(i), &out)
		}
	case payload.KindObject:
		walk(v, "", "", &out)
	}
	return out
}

func walk(v payload.Value, key, path string, out *[]models.Entity) {
	switch v.Kind() {
	case payload.KindObject:
		for _, m := range v.Members() {
			walk(m.Value, m.Key, join(path, m.Key), out)
		}
	case payload.KindArray:
		for i, e := range v.Elems() {
			walk(e, key, join(path, strconv.Itoa(i)), out)
		}
	case payload.KindString:
		s, _ := v.Str()
		*out = append(*out, tagString(strings.ToLower(key), path, s)...)
	case payload.KindNumber:
		n, _ := v.Number()
		*out = append(*out, tagNumber(strings.ToLower(key), path, n)...)
	}
}

// tagString applies every string matcher; each may contribute an entity.
func tagString(key, path, s string) []models.Entity {
	var out []models.Entity
	if isEmail(s) {
		out = append(out, entity(models.EntityEmail, s, path))
	}
	if isURL(s) {
		out = append(out, entity(models.EntityURL, s, path))
	}
	if isDate(s) {
		out = append(out, entity(models.EntityDate, s, path))
	}
	if containsAny(key, personNameKeys) && isPersonName(s) {
		out = append(out, entity(models.EntityPersonName, s, path))
	}
	if containsAny(key, locationKeys) {
		out = append(out, entity(models.EntityLocation, s, path))
	}
	return out
}

func tagNumber(key, path string, n float64) []models.Entity {
	var out []models.Entity
	value := models.FormatNumber(n)
	if containsAny(key, priceKeys) && n > 0 {
		out = append(out, entity(models.EntityPrice, value, path))
	}
	if containsAny(key, identifierKeys) {
		out = append(out, entity(models.EntityIdentifier, value, path))
	}
	return out
}

func isEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func isDate(s string) bool {
	if len(s) <= minDateLen || allDigits.MatchString(s) {
		return false
	}
	_, err := dateparse.ParseAny(s)
	return err == nil
}

func isPersonName(s string) bool {
	return len(s) > minPersonNameLen && len(s) < maxPersonNameLen && personNamePattern.MatchString(s)
}

func containsAny(key string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func entity(t models.EntityType, value, path string) models.Entity {
	return models.Entity{
		Type:       t,
		Value:      value,
		Confidence: confidence[t],
		FieldPath:  path,
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
