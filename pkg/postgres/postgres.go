// Package postgres provides a sluice.Dialer for PostgreSQL using pgx, and a
// Listener that reacts to LISTEN/NOTIFY events on a backing table.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zoobzio/sluice"
)

// Dialer opens a new pgx connection for every sluice query.
type Dialer struct {
	configure func(*pgx.ConnConfig)
}

// Option configures a Dialer.
type Option func(*Dialer)

// WithConnConfig lets callers adjust the parsed connection config before
// each connection is opened, for example to set a tracer or runtime params.
func WithConnConfig(fn func(*pgx.ConnConfig)) Option {
	return func(d *Dialer) {
		d.configure = fn
	}
}

// New creates a new Dialer.
func New(opts ...Option) *Dialer {
	d := &Dialer{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial implements sluice.Dialer.
func (d *Dialer) Dial(ctx context.Context, url string) (sluice.Conn, error) {
	cfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if d.configure != nil {
		d.configure(cfg)
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn}, nil
}

// Conn is a single pgx connection.
type Conn struct {
	conn *pgx.Conn
}

// Query implements sluice.Conn. Column values are decoded by pgx: JSONB
// columns arrive as maps, timestamps as time.Time.
func (c *Conn) Query(ctx context.Context, text string, params ...any) (sluice.RowSet, error) {
	rows, err := c.conn.Query(ctx, text, params...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make(sluice.RowSet, len(maps))
	for i, m := range maps {
		out[i] = sluice.Row(m)
	}
	return out, nil
}

// Close implements sluice.Conn.
func (c *Conn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// Listener waits for PostgreSQL notifications on a channel. It is a push
// complement to the polling watch: a trigger on the config table can notify
// the listener, which then reloads the host immediately instead of waiting
// for the next poll.
//
// Example trigger setup:
//
//	CREATE OR REPLACE FUNCTION notify_config_change() RETURNS trigger AS $$
//	BEGIN
//	    PERFORM pg_notify('config_changed', NEW.key);
//	    RETURN NEW;
//	END;
//	$$ LANGUAGE plpgsql;
//
//	CREATE TRIGGER config_change_trigger
//	    AFTER INSERT OR UPDATE ON config
//	    FOR EACH ROW EXECUTE FUNCTION notify_config_change();
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	key     string
}

// NewListener creates a Listener for channel. When key is non-empty only
// notifications whose payload equals key are delivered.
func NewListener(pool *pgxpool.Pool, channel, key string) *Listener {
	return &Listener{pool: pool, channel: channel, key: key}
}

// Listen blocks until ctx is done, calling fn with the payload of every
// matching notification. It returns nil when ctx ends.
func (l *Listener) Listen(ctx context.Context, fn func(payload string)) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen on channel %s: %w", l.channel, err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to wait for notification: %w", err)
		}
		if l.key != "" && notification.Payload != l.key {
			continue
		}
		fn(notification.Payload)
	}
}

// ReloadOn listens in the background and reloads session on the first
// matching notification. The returned channel receives the Listen error,
// if any, once listening ends.
func (l *Listener) ReloadOn(ctx context.Context, session *sluice.Session) <-chan error {
	errs := make(chan error, 1)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		errs <- l.Listen(ctx, func(string) {
			session.Reload()
			cancel()
		})
		close(errs)
	}()
	go func() {
		select {
		case <-session.Reloading():
			cancel()
		case <-ctx.Done():
		}
	}()
	return errs
}
