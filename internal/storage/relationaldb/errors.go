package relationaldb

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingDSN          = errors.New("database dsn is required")
	ErrInvalidDriver       = errors.New("invalid database driver")
	ErrInvalidMaxOpenConns = errors.New("max open connections must be >= 0")
	ErrInvalidMaxIdleConns = errors.New("max idle connections must be >= 0")
	ErrInvalidTimeout      = errors.New("timeout must be positive")
	ErrInvalidCacheSize    = errors.New("cache size must be >= 0")

	// Connection errors
	ErrDatabaseClosed = errors.New("database connection is closed")

	// Data errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateEntry      = errors.New("duplicate entry")
)

// ErrorType represents different categories of database errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeTransaction
	ErrorTypeQuery
	ErrorTypeSchema
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:       "unknown",
	ErrorTypeConfiguration: "configuration",
	ErrorTypeConnection:    "connection",
	ErrorTypeTransaction:   "transaction",
	ErrorTypeQuery:         "query",
	ErrorTypeSchema:        "schema",
}

func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// DatabaseError provides detailed information about database errors
type DatabaseError struct {
	Type      ErrorType `json:"type"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause error
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(errorType ErrorType, operation, message string, cause error) *DatabaseError {
	return &DatabaseError{
		Type:      errorType,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConfiguration, operation, message, cause)
}

// NewConnectionError creates a connection error
func NewConnectionError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConnection, operation, message, cause)
}

// NewTransactionError creates a transaction error
func NewTransactionError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeTransaction, operation, message, cause)
}

// NewQueryError creates a query error
func NewQueryError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeQuery, operation, message, cause)
}

// NewSchemaError creates a schema error
func NewSchemaError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeSchema, operation, message, cause)
}

// IsConfigurationError reports whether err is a configuration error
func IsConfigurationError(err error) bool {
	return isType(err, ErrorTypeConfiguration)
}

// IsConnectionError reports whether err is a connection error
func IsConnectionError(err error) bool {
	return isType(err, ErrorTypeConnection)
}

func isType(err error, t ErrorType) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Type == t
}
