package sluice

import (
	"context"
	"errors"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// RowSet is the ordered, uninterpreted result of a query.
type RowSet []Row

// Dialer opens connections to a data source.
// Implementations are provided in pkg/postgres and pkg/sqldb.
type Dialer interface {
	// Dial opens a new connection to url. The connection is used for
	// exactly one query and then closed.
	Dial(ctx context.Context, url string) (Conn, error)
}

// Conn is a single-use database connection.
type Conn interface {
	// Query runs text with positional params and returns every row.
	Query(ctx context.Context, text string, params ...any) (RowSet, error)

	// Close releases the connection.
	Close(ctx context.Context) error
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

// Dial calls f(ctx, url).
func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

// session runs queries on fresh connections from a Dialer.
type session struct {
	dialer  Dialer
	clock   clockz.Clock
	timeout time.Duration
}

// query opens a connection, runs one query and closes the connection on every
// exit path. Dial failures become ConnectionError; query failures QueryError.
func (s session) query(ctx context.Context, url, text string, params []any) (rows RowSet, err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = s.clock.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	conn, err := s.dialer.Dial(ctx, url)
	if err != nil {
		return nil, asConnectionError(err)
	}
	defer func() {
		// Release even when ctx is already canceled.
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			capitan.Emit(ctx, SessionCloseFailed,
				KeyQuery.Field(text),
				KeyError.Field(cerr.Error()),
			)
		}
	}()

	rows, err = conn.Query(ctx, text, params...)
	if err != nil {
		return nil, asQueryError(text, err)
	}
	return rows, nil
}

func asConnectionError(err error) error {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return err
	}
	return &ConnectionError{Err: err}
}

func asQueryError(text string, err error) error {
	var (
		queryErr *QueryError
		connErr  *ConnectionError
	)
	if errors.As(err, &queryErr) || errors.As(err, &connErr) {
		return err
	}
	return &QueryError{Query: text, Err: err}
}
