package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ErrTransactionConflict indicates concurrent writes touched the same record.
// Callers may retry.
var ErrTransactionConflict = errors.New("transaction conflict")

// queryErrorKinds maps fragments of SurrealDB error messages to the errors callers check for.
var queryErrorKinds = []struct {
	fragment string
	sentinel error
}{
	{"already exists", history.ErrDuplicateID},
	{"Transaction conflict", ErrTransactionConflict},
}

// wrapQueryError maps SurrealDB query errors onto the history sentinels.
// Errors it does not recognize are returned unchanged.
func wrapQueryError(err error) error {
	var queryErr *surrealdb.QueryError
	if err == nil || !errors.As(err, &queryErr) {
		return err
	}
	for _, k := range queryErrorKinds {
		if strings.Contains(queryErr.Message, k.fragment) {
			return fmt.Errorf("%w: %s", k.sentinel, queryErr.Message)
		}
	}
	return err
}

// recordKey returns the key part of a translation record id.
// Translation ids are always written as strings.
func recordKey(id surrealmodels.RecordID) (string, error) {
	key, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("record %s has non-string key of type %T", id.Table, id.ID)
	}
	return key, nil
}
