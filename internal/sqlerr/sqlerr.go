// Package sqlerr classifies database driver errors.
//
// Both store backends report failures in their own shape: pgx as
// *pgconn.PgError with a SQLSTATE, the SQLite driver as an extended result
// code. Both are normalized into *Error so the rest of the application can
// switch on one Code, then wrapped into the storage kind of the errs taxonomy.
package sqlerr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Code is a driver-independent error category.
type Code string

const (
	Other                Code = "other"
	NotNullViolation     Code = "not_null_violation"
	ForeignKeyViolation  Code = "foreign_key_violation"
	UniqueViolation      Code = "unique_violation"
	CheckViolation       Code = "check_violation"
	ConnectionFailure    Code = "connection_failure"
	UndefinedTable       Code = "undefined_table"
	InvalidJSON          Code = "invalid_json"
	SerializationFailure Code = "serialization_failure"
	Busy                 Code = "busy"
)

// Severity is the driver-reported severity.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
	SeverityPanic   Severity = "panic"
	SeverityWarning Severity = "warning"
	SeverityNotice  Severity = "notice"
	SeverityOther   Severity = "other"
)

// Error is a normalized driver error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode maps a Postgres SQLSTATE onto a Code.
func MapCode(sqlstate string) Code {
	switch sqlstate {
	case "23502":
		return NotNullViolation
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23514":
		return CheckViolation
	case "42P01":
		return UndefinedTable
	case "22P02", "22032":
		return InvalidJSON
	case "40001", "40P01":
		return SerializationFailure
	}
	if strings.HasPrefix(sqlstate, "08") {
		return ConnectionFailure
	}
	return Other
}

// MapSeverity maps a Postgres severity string onto a Severity.
func MapSeverity(severity string) Severity {
	switch strings.ToUpper(severity) {
	case "ERROR":
		return SeverityError
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	case "WARNING":
		return SeverityWarning
	case "NOTICE", "DEBUG", "INFO", "LOG":
		return SeverityNotice
	default:
		return SeverityOther
	}
}

// ConvertPgError converts a raw Postgres error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// ConvertSQLiteError converts a SQLite driver error. Constraint messages have
// the form "NOT NULL constraint failed: builds.unit_name", from which table
// and column are recovered.
func ConvertSQLiteError(src *sqlite.Error) *Error {
	out := &Error{
		Code:      Other,
		Severity:  SeverityError,
		Message:   src.Error(),
		driverErr: src,
	}

	switch src.Code() {
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		out.Code = NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		out.Code = UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		out.Code = CheckViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		out.Code = ForeignKeyViolation
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		out.Code = Busy
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB:
		out.Code = ConnectionFailure
		out.Severity = SeverityFatal
	}

	// Without extended result codes only the primary code is reported.
	if out.Code == Other && src.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		switch msg := src.Error(); {
		case strings.Contains(msg, "NOT NULL constraint"):
			out.Code = NotNullViolation
		case strings.Contains(msg, "UNIQUE constraint"):
			out.Code = UniqueViolation
		case strings.Contains(msg, "CHECK constraint"):
			out.Code = CheckViolation
		}
	}

	if out.Code != Other {
		if _, target, ok := strings.Cut(src.Error(), "failed: "); ok {
			target, _, _ = strings.Cut(target, " (")
			if table, column, ok := strings.Cut(target, "."); ok {
				out.TableName = table
				out.ColumnName = column
			}
		}
	}
	if strings.Contains(src.Error(), "no such table") {
		out.Code = UndefinedTable
	}
	if strings.Contains(src.Error(), "malformed JSON") {
		out.Code = InvalidJSON
	}

	return out
}

// Convert normalizes any driver error in err's chain. It returns nil when err
// carries no recognized driver error.
func Convert(err error) *Error {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr)
	}

	return nil
}

// ErrCode reports the Code of the driver error in err's chain, or Other.
func ErrCode(err error) Code {
	if sqlErr := Convert(err); sqlErr != nil {
		return sqlErr.Code
	}
	return Other
}
