package tagger

import (
	"regexp"

	"github.com/raphaelgruber/agentwatch/internal/models"
)

// Confidence per entity type.
var confidence = map[models.EntityType]float64{
	models.EntityEmail:      0.95,
	models.EntityURL:        0.90,
	models.EntityDate:       0.80,
	models.EntityPersonName: 0.70,
	models.EntityLocation:   0.60,
	models.EntityPrice:      0.80,
	models.EntityIdentifier: 0.90,
}

// Field-name keywords. A key matches when its lowercase form contains any entry.
var (
	personNameKeys = []string{"name", "firstname", "lastname", "fullname", "author", "user"}
	locationKeys   = []string{"city", "country", "location", "address", "region", "state"}
	priceKeys      = []string{"price", "cost", "amount", "value", "fee", "salary"}
	identifierKeys = []string{"id", "uid", "key", "index"}
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	personNamePattern = regexp.MustCompile(`^[A-Za-z\s'-]+$`)
	allDigits         = regexp.MustCompile(`^[0-9]+$`)
)

const (
	minDateLen       = 8 // exclusive
	minPersonNameLen = 1 // exclusive
	maxPersonNameLen = 50
)
