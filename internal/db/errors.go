package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/agentwatch/internal/store"
	"github.com/surrealdb/surrealdb.go"
)

var (
	// ErrNotFound aliases store.ErrNotFound so callers stay backend-agnostic.
	ErrNotFound = store.ErrNotFound

	// ErrAlreadyExists is returned when a write collides with an existing record ID.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrTransactionConflict is returned when concurrent writes touch the same
	// records. Agent stats updates can hit this under overlapping passes.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// queryErrorKinds maps SurrealDB query error text to sentinels.
var queryErrorKinds = []struct {
	fragment string
	sentinel error
}{
	{"already exists", ErrAlreadyExists},
	{"Transaction conflict", ErrTransactionConflict},
}

func wrapQueryError(err error) error {
	var qe *surrealdb.QueryError
	if !errors.As(err, &qe) {
		return err
	}
	for _, k := range queryErrorKinds {
		if strings.Contains(qe.Message, k.fragment) {
			return fmt.Errorf("%w: %s", k.sentinel, qe.Message)
		}
	}
	return err
}
