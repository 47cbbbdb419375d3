package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// IsTransient reports whether an error is worth retrying. The patterns
// cover the two store backends: SQLite lock contention under concurrent
// batch writers and Postgres connection/serialization hiccups. Constraint
// violations and schema errors are permanent and must surface immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return false
	}
	patterns := []string{
		"database is locked", // SQLITE_BUSY
		"database table is locked",
		"deadlock detected",
		"could not serialize access",
		"connection reset by peer",
		"broken pipe",
		"conn closed",
		"i/o timeout",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
