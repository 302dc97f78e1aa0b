package sqlpool

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Driver error numbers used for classification.
const (
	mysqlErrAccessDenied    = 1045
	mysqlErrUnknownDatabase = 1049
)

// IsInvalidCredentials determines if an acquisition error indicates the server
// rejected the credential pair.
func IsInvalidCredentials(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrAccessDenied
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 28000 invalid_authorization_specification, 28P01 invalid_password.
		return pqErr.Code == "28000" || pqErr.Code == "28P01"
	}
	return false
}

// IsDatabaseMissing determines if an acquisition error indicates the target
// database does not exist.
func IsDatabaseMissing(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrUnknownDatabase
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 3D000 invalid_catalog_name.
		return pqErr.Code == "3D000"
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code == sqlite3.ErrCantOpen
	}
	return false
}

// IsTemporary determines if an acquisition error is likely transient (network
// error, server momentarily unavailable). Used by callers deciding whether to
// retry; this library itself never retries.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 57P03 cannot_connect_now, 53300 too_many_connections.
		return pqErr.Code == "57P03" || pqErr.Code == "53300"
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe")
}
