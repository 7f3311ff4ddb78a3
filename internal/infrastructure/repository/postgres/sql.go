package postgres

import (
	"database/sql"
	"strings"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// isBindParameterMismatch recognizes the 08P01 protocol violation pgbouncer
// produces in transaction pooling mode when a bind arrives against a
// statement prepared on a different server connection.
func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "08P01") {
		return true
	}
	return strings.Contains(msg, "bind message supplies") && strings.Contains(msg, "parameters")
}

// isUnnamedPreparedStatementMissing recognizes the 26000 invalid SQL
// statement name error raised for the same pooling reason.
func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "26000") {
		return true
	}
	return strings.Contains(msg, "unnamed prepared statement")
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
