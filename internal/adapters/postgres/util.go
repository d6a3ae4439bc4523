package postgres

import (
	"strings"
)

// isUniqueViolation reports whether err is a duplicate-key insert. The only
// unique constraint in the trust schema is the trust_records primary key, so
// this maps straight to "record already provisioned". SQLSTATE 23505 is
// checked first; the message checks cover drivers that flatten the code into
// the error text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "23505") {
		return true
	}
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
