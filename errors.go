package sluice

import (
	"errors"
	"fmt"
)

// Kind classifies a lifecycle or watch error.
type Kind int

const (
	// KindUnknown is any error not produced by this package.
	KindUnknown Kind = iota

	// KindConfiguration is a rejected adapter configuration.
	KindConfiguration

	// KindConnection is a failure to establish a database connection.
	KindConnection

	// KindQuery is a query rejected by the data source.
	KindQuery

	// KindChain is a failed post-processing transform.
	KindChain
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	case KindChain:
		return "chain"
	default:
		return "unknown"
	}
}

// ConfigurationError reports an adapter configuration that failed validation.
// It is raised before any connection is attempted.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configuration errors for the required-field rules, in evaluation order.
var (
	ErrURLRequired           = &ConfigurationError{Message: "url is required"}
	ErrQueryRequired         = &ConfigurationError{Message: "query is required"}
	ErrWatchIntervalRequired = &ConfigurationError{Message: "watch interval is required"}
	ErrWatchQueryRequired    = &ConfigurationError{Message: "watch query is required"}
)

// ConnectionError reports a failure to connect to the data source.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a query the data source rejected or that did not finish.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ChainError reports a post-processing transform failure.
type ChainError struct {
	Err error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("post-processing failed: %v", e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }

// KindOf classifies err by the sluice error types in its chain. A transform
// failure is reported as KindChain even when it wraps a query error.
func KindOf(err error) Kind {
	var (
		cfgErr   *ConfigurationError
		connErr  *ConnectionError
		queryErr *QueryError
		chainErr *ChainError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &chainErr):
		return KindChain
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &queryErr):
		return KindQuery
	default:
		return KindUnknown
	}
}
