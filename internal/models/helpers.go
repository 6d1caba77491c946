package models

import (
	"strconv"
)

// FormatNumber renders a numeric leaf the way entity values are compared.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
