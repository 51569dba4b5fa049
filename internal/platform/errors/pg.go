package errors

import (
	stderrs "errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE values the schema can produce
const (
	sqlUniqueViolation     = "23505"
	sqlForeignKeyViolation = "23503"
	sqlNotNullViolation    = "23502"
	sqlCheckViolation      = "23514"
	sqlStringTooLong       = "22001"
	sqlBadTextValue        = "22P02"
	sqlReadOnly            = "25006"
	sqlCannotConnectNow    = "57P03"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateKey reports a unique violation, e.g. two customers claiming one external id
func IsDuplicateKey(err error) bool { return sqlState(err) == sqlUniqueViolation }

// IsCheckViolation reports a check constraint failure, e.g. a customer with no identity
func IsCheckViolation(err error) bool { return sqlState(err) == sqlCheckViolation }

// DBErrorCode classifies a postgres error, ok is false when err did not come from postgres
func DBErrorCode(err error) (ErrorCode, bool) {
	switch sqlState(err) {
	case "":
		return ErrorCodeUnknown, false
	case sqlUniqueViolation:
		return ErrorCodeDuplicateKey, true
	case sqlNotNullViolation, sqlCheckViolation:
		return ErrorCodeValidation, true
	case sqlForeignKeyViolation, sqlStringTooLong, sqlBadTextValue:
		return ErrorCodeInvalidArgument, true
	case sqlReadOnly, sqlCannotConnectNow:
		return ErrorCodeUnavailable, true
	default:
		return ErrorCodeDB, true
	}
}

// FromPostgres wraps a driver error with its class, nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, _ := DBErrorCode(err)
	if code == ErrorCodeUnknown {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}
