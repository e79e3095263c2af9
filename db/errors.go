package db

import (
	"strings"

	"github.com/teranos/corrsweep/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
// This typically happens when a cancelled run is still flushing results while
// the CLI closes the store.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// This handles both:
// - Wrapped ErrDatabaseClosed errors from this package
// - Raw sql driver errors that contain "database is closed" in their message
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}

	return strings.Contains(err.Error(), "database is closed")
}
