package aresmysql

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"

	"github.com/go-sql-driver/mysql"
)

// ErrorCode represents a database error classification
type ErrorCode string

const (
	// Lifecycle / contract errors of this layer
	CodeConnectionAcquisition ErrorCode = "CONNECTION_ACQUISITION"
	CodeTransactionStart      ErrorCode = "TRANSACTION_START"
	CodeTransactionCommit     ErrorCode = "TRANSACTION_COMMIT"
	CodeRegistryInconsistency ErrorCode = "REGISTRY_INCONSISTENCY"

	// Driver error classifications
	CodeQueryExecution   ErrorCode = "QUERY_EXECUTION"
	CodeDuplicate        ErrorCode = "DUPLICATE"
	CodeForeignKey       ErrorCode = "FOREIGN_KEY"
	CodeNotNullViolation ErrorCode = "NOT_NULL"
	CodeCheckViolation   ErrorCode = "CHECK_VIOLATION"
	CodeDeadlock         ErrorCode = "DEADLOCK"
	CodeLockTimeout      ErrorCode = "LOCK_TIMEOUT"
	CodeTimeout          ErrorCode = "TIMEOUT"
	CodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
)

// Sentinel errors for quick checks
var (
	ErrConnectionAcquisition = errors.New("aresmysql: connection acquisition failed")
	ErrTransactionStart      = errors.New("aresmysql: transaction start failed")
	ErrTransactionCommit     = errors.New("aresmysql: transaction commit failed")
	ErrRegistryInconsistency = errors.New("aresmysql: no session registered for id")
	ErrQueryExecution        = errors.New("aresmysql: query execution failed")
	ErrDuplicate             = errors.New("aresmysql: duplicate key violation")
	ErrForeignKey            = errors.New("aresmysql: foreign key violation")
	ErrNotNullViolation      = errors.New("aresmysql: not null violation")
	ErrCheckViolation        = errors.New("aresmysql: check constraint violation")
	ErrDeadlock              = errors.New("aresmysql: deadlock detected")
	ErrLockTimeout           = errors.New("aresmysql: lock wait timeout")
	ErrTimeout               = errors.New("aresmysql: operation timeout")
	ErrConnection            = errors.New("aresmysql: connection failed")
)

var sentinelByCode = map[ErrorCode]error{
	CodeConnectionAcquisition: ErrConnectionAcquisition,
	CodeTransactionStart:      ErrTransactionStart,
	CodeTransactionCommit:     ErrTransactionCommit,
	CodeRegistryInconsistency: ErrRegistryInconsistency,
	CodeQueryExecution:        ErrQueryExecution,
	CodeDuplicate:             ErrDuplicate,
	CodeForeignKey:            ErrForeignKey,
	CodeNotNullViolation:      ErrNotNullViolation,
	CodeCheckViolation:        ErrCheckViolation,
	CodeDeadlock:              ErrDeadlock,
	CodeLockTimeout:           ErrLockTimeout,
	CodeTimeout:               ErrTimeout,
	CodeConnectionFailed:      ErrConnection,
}

// Error is a rich database error with context
type Error struct {
	Code      ErrorCode // Error classification
	Message   string    // Human-readable message
	Op        string    // Operation that failed (e.g., "Connect", "Commit")
	SessionID string    // Session the error belongs to, if any
	Number    uint16    // MySQL server error number, if applicable
	Cause     error     // Underlying error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("aresmysql: %s", e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("aresmysql.%s: %s", e.Op, e.Message)
	}
	if e.SessionID != "" {
		msg += fmt.Sprintf(" (session: %s)", e.SessionID)
	}
	if e.Number != 0 {
		msg += fmt.Sprintf(" (mysql: %d)", e.Number)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for sentinel error matching
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && target == sentinel
}

// wrapError converts a raw driver error to a rich Error. Unclassified
// driver errors fall through to CodeQueryExecution.
func wrapError(err error, op string) error {
	if err == nil {
		return nil
	}

	// Already wrapped
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return wrapMySQLError(myErr, op)
	}

	if isBadConn(err) {
		return &Error{
			Code:    CodeConnectionFailed,
			Message: "database connection failed",
			Op:      op,
			Cause:   err,
		}
	}

	return &Error{
		Code:    CodeQueryExecution,
		Message: err.Error(),
		Op:      op,
		Cause:   err,
	}
}

// wrapMySQLError maps server error numbers to classifications.
// See https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
func wrapMySQLError(myErr *mysql.MySQLError, op string) *Error {
	e := &Error{
		Op:     op,
		Number: myErr.Number,
		Cause:  myErr,
	}

	switch myErr.Number {
	case 1062: // ER_DUP_ENTRY
		e.Code = CodeDuplicate
		e.Message = "duplicate entry violates unique constraint"
	case 1451, 1452: // ER_ROW_IS_REFERENCED_2, ER_NO_REFERENCED_ROW_2
		e.Code = CodeForeignKey
		e.Message = "foreign key constraint violation"
	case 1048: // ER_BAD_NULL_ERROR
		e.Code = CodeNotNullViolation
		e.Message = "column cannot be null"
	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		e.Code = CodeCheckViolation
		e.Message = "check constraint violation"
	case 1213: // ER_LOCK_DEADLOCK
		e.Code = CodeDeadlock
		e.Message = "deadlock detected, retry transaction"
	case 1205: // ER_LOCK_WAIT_TIMEOUT
		e.Code = CodeLockTimeout
		e.Message = "lock wait timeout exceeded"
	case 1317, 3024: // ER_QUERY_INTERRUPTED, ER_QUERY_TIMEOUT
		e.Code = CodeTimeout
		e.Message = "query interrupted or timed out"
	case 1040, 1129, 1130: // ER_CON_COUNT_ERROR, ER_HOST_IS_BLOCKED, ER_HOST_NOT_PRIVILEGED
		e.Code = CodeConnectionFailed
		e.Message = "database connection failed"
	default:
		e.Code = CodeQueryExecution
		e.Message = myErr.Message
	}

	return e
}

// isBadConn reports whether err indicates the physical connection is
// no longer usable. Client-side driver failures surface as these
// rather than as MySQLError values.
func isBadConn(err error) bool {
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// IsConnection checks if error is a connection error
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection) || isBadConn(err)
}

// IsConnectionAcquisition checks if error is a pool acquisition error
func IsConnectionAcquisition(err error) bool {
	return errors.Is(err, ErrConnectionAcquisition)
}

// IsRegistryInconsistency checks if error indicates a session id with
// no matching registry entry (typically a disconnect raced a query).
func IsRegistryInconsistency(err error) bool {
	return errors.Is(err, ErrRegistryInconsistency)
}

// IsDuplicate checks if error is a duplicate key error
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsForeignKey checks if error is a foreign key error
func IsForeignKey(err error) bool {
	return errors.Is(err, ErrForeignKey)
}

// IsRetryable checks if the error is retryable (deadlock, lock timeout)
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDeadlock) || errors.Is(err, ErrLockTimeout)
}

// GetErrorCode extracts the error code if it's an aresmysql error
func GetErrorCode(err error) (ErrorCode, bool) {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr.Code, true
	}
	return "", false
}

// GetMySQLNumber extracts the server error number if available
func GetMySQLNumber(err error) (uint16, bool) {
	var dbErr *Error
	if errors.As(err, &dbErr) && dbErr.Number != 0 {
		return dbErr.Number, true
	}
	return 0, false
}
