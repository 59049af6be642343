// Package sqldb provides a sluice.Dialer for any database/sql driver.
//
// Register the driver with a blank import and name it in New:
//
//	import _ "modernc.org/sqlite"
//
//	dialer := sqldb.New("sqlite")
package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zoobzio/sluice"
)

// Dialer opens a database/sql handle limited to one connection for every
// sluice query.
type Dialer struct {
	driver string
	dsn    func(url string) string
}

// Option configures a Dialer.
type Option func(*Dialer)

// WithDSN maps the sluice URL to the driver's data source name, for example
// to strip a "sqlite://" scheme.
func WithDSN(fn func(url string) string) Option {
	return func(d *Dialer) {
		d.dsn = fn
	}
}

// New creates a Dialer for the registered driver name.
func New(driver string, opts ...Option) *Dialer {
	d := &Dialer{driver: driver}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial implements sluice.Dialer. The connection is verified with a ping so
// that unreachable databases fail here rather than at query time.
func (d *Dialer) Dial(ctx context.Context, url string) (sluice.Conn, error) {
	dsn := url
	if d.dsn != nil {
		dsn = d.dsn(url)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open %s: %w", d.driver, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	return &Conn{db: db}, nil
}

// Conn wraps a single-connection *sql.DB.
type Conn struct {
	db *sql.DB
}

// Query implements sluice.Conn. Byte-slice column values are returned as
// strings so that text columns compare and print naturally.
func (c *Conn) Query(ctx context.Context, text string, params ...any) (sluice.RowSet, error) {
	rows, err := c.db.QueryContext(ctx, text, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := sluice.RowSet{}
	for rows.Next() {
		dest := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(sluice.Row, len(columns))
		for i, name := range columns {
			if b, ok := dest[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = dest[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close implements sluice.Conn.
func (c *Conn) Close(_ context.Context) error {
	return c.db.Close()
}
